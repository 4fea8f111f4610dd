package verifier

import (
	"sync"
	"time"

	"github.com/MrEthical07/goSession/jwt"
)

// DefaultRetention bounds how long a revocation is remembered.
const DefaultRetention = 24 * time.Hour

type sessionRef struct {
	tenant  string
	account string
	id      string
}

type accountRef struct {
	tenant  string
	account string
}

// Denylist remembers revoked sessions and account-wide cutoffs. Entries are kept
// for the retention window after they are recorded; choose a retention at least
// as long as the longest session timeout.
type Denylist struct {
	mu        sync.RWMutex
	retention time.Duration
	sessions  map[sessionRef]time.Time
	accounts  map[accountRef]time.Time
}

// NewDenylist returns an empty Denylist. retention <= 0 uses DefaultRetention.
func NewDenylist(retention time.Duration) *Denylist {
	if retention <= 0 {
		retention = DefaultRetention
	}
	return &Denylist{
		retention: retention,
		sessions:  make(map[sessionRef]time.Time),
		accounts:  make(map[accountRef]time.Time),
	}
}

// Revoke records that session id was revoked at at.
func (d *Denylist) Revoke(tenant, account, id string, at time.Time) {
	if id == "" {
		return
	}
	key := sessionRef{tenant: tenant, account: account, id: id}
	until := at.Add(d.retention)

	d.mu.Lock()
	if prev, ok := d.sessions[key]; !ok || until.After(prev) {
		d.sessions[key] = until
	}
	d.mu.Unlock()
}

// RevokeAccount rejects every token of the account issued at or before cutoff.
// A later cutoff replaces an earlier one.
func (d *Denylist) RevokeAccount(tenant, account string, cutoff time.Time) {
	key := accountRef{tenant: tenant, account: account}

	d.mu.Lock()
	if prev, ok := d.accounts[key]; !ok || cutoff.After(prev) {
		d.accounts[key] = cutoff
	}
	d.mu.Unlock()
}

// Revoked reports whether claims name a revoked session.
//
// Token iat has second precision, so a token issued in the same second as an
// account cutoff is treated as revoked.
func (d *Denylist) Revoked(claims *jwt.SessionClaims) bool {
	if claims == nil {
		return false
	}

	d.mu.RLock()
	defer d.mu.RUnlock()

	if _, ok := d.sessions[sessionRef{tenant: claims.Tenant, account: claims.Subject, id: claims.ID}]; ok {
		return true
	}
	cutoff, ok := d.accounts[accountRef{tenant: claims.Tenant, account: claims.Subject}]
	if !ok {
		return false
	}
	if claims.IssuedAt == nil {
		return true
	}
	return !claims.IssuedAt.Time.After(cutoff.Truncate(time.Second))
}

// Prune drops entries older than the retention window and returns how many were
// removed.
func (d *Denylist) Prune(now time.Time) int {
	d.mu.Lock()
	defer d.mu.Unlock()

	removed := 0
	for key, until := range d.sessions {
		if !now.Before(until) {
			delete(d.sessions, key)
			removed++
		}
	}
	for key, cutoff := range d.accounts {
		if !now.Before(cutoff.Add(d.retention)) {
			delete(d.accounts, key)
			removed++
		}
	}
	return removed
}

// Len returns the number of remembered session and account entries.
func (d *Denylist) Len() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.sessions) + len(d.accounts)
}
