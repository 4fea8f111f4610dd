package flows

import (
	"time"

	"github.com/MrEthical07/goSession/session"
)

// IntrospectionDeps captures read-only session listing dependencies.
type IntrospectionDeps struct {
	Now   func() time.Time
	Store session.Store
}

// RunListLive returns the live sessions of an account without refreshing them.
func RunListLive(tenantCode, accountID string, deps IntrospectionDeps) []session.Record {
	now := deps.Now()
	all := deps.Store.AllFor(tenantCode, accountID)
	out := all[:0]
	for _, rec := range all {
		if rec.Live(now) {
			out = append(out, rec)
		}
	}
	return out
}

// RunGetLive looks a single session up without refreshing it. It reports
// session.ErrNotFound or session.ErrExpired when the session is not live.
func RunGetLive(tenantCode, accountID, sessionID string, deps IntrospectionDeps) (session.Record, error) {
	rec, ok := deps.Store.Find(tenantCode, accountID, sessionID)
	if !ok {
		return session.Record{}, session.ErrNotFound
	}
	if !rec.Live(deps.Now()) {
		return rec, session.ErrExpired
	}
	return rec, nil
}
