package session

import "time"

// PartitionKey identifies the (tenant, account) group a record belongs to.
type PartitionKey struct {
	TenantCode string
	AccountID  string
}

// Record is the server-side state of one issued session.
//
// Every field except LastAccess is fixed at creation. LastAccess only moves
// forward and only under the owning partition lock.
type Record struct {
	ID         string
	TenantCode string
	AccountID  string
	Endpoint   string
	// SourceID is the id of the session this one was derived from, empty for
	// primary logins.
	SourceID   string
	Admin      bool
	Supervisor bool
	Extra      map[string]any
	IssuedAt   time.Time
	Timeout    time.Duration
	LastAccess time.Time
}

// Key returns the partition the record lives in.
func (r Record) Key() PartitionKey {
	return PartitionKey{TenantCode: r.TenantCode, AccountID: r.AccountID}
}

// Live reports whether the record is still inside its sliding timeout at now.
func (r Record) Live(now time.Time) bool {
	return now.Sub(r.LastAccess) < r.Timeout
}

// ExpiresAt is the instant the record stops being live unless touched again.
func (r Record) ExpiresAt() time.Time {
	return r.LastAccess.Add(r.Timeout)
}
