package flows

import (
	"context"

	"github.com/MrEthical07/goSession/jwt"
	"github.com/MrEthical07/goSession/session"
)

// InvalidateDeps captures revocation dependencies.
type InvalidateDeps struct {
	Parse func(string) (*jwt.SessionClaims, error)
	Store session.Store
}

// InvalidateResult lists what was removed. Root is the explicitly revoked session;
// Cascaded are its descendants. Found is false when the session was already gone.
type InvalidateResult struct {
	Root     session.Record
	Cascaded []session.Record
	Found    bool
	Err      error
}

// RunInvalidateByToken resolves the session named by a signature-checked token and
// removes it together with every session derived from it.
func RunInvalidateByToken(ctx context.Context, tokenStr string, deps InvalidateDeps) InvalidateResult {
	claims, err := deps.Parse(tokenStr)
	if err != nil {
		return InvalidateResult{Err: err}
	}
	return RunInvalidateSession(ctx, claims.Tenant, claims.Subject, claims.ID, deps)
}

// RunInvalidateSession is RunInvalidateByToken for callers that already know the
// session coordinates. An absent session is not an error.
func RunInvalidateSession(_ context.Context, tenantCode, accountID, sessionID string, deps InvalidateDeps) InvalidateResult {
	removed, found := deps.Store.RemoveTree(tenantCode, accountID, sessionID)
	if !found || len(removed) == 0 {
		return InvalidateResult{}
	}
	return InvalidateResult{
		Root:     removed[0],
		Cascaded: removed[1:],
		Found:    true,
	}
}

// RunClear removes every session of an account regardless of lineage.
func RunClear(_ context.Context, tenantCode, accountID string, deps InvalidateDeps) []session.Record {
	return deps.Store.RemoveAll(tenantCode, accountID)
}
