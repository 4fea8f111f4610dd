// Package goSession issues, verifies, chains and revokes multi-tenant sessions.
//
// A session is a signed bearer token (RS256 by default) paired with an
// authoritative server-side record. The token proves what was issued; the record
// decides whether it is still valid. Records expire after a sliding period of
// inactivity, can be revoked individually (together with every session derived
// from them) or per account, and are capped per (tenant, account, endpoint).
//
// The package is designed for concurrent server workloads: Engine methods are safe
// to call from multiple goroutines after initialization through [Builder.Build].
//
// # Architecture boundaries
//
// goSession is the public surface. It exposes [Engine], [Builder], [Config] and value
// types (Claims, SessionInfo, MetricsSnapshot, Event). Flow orchestration and event
// dispatch live under internal/. Token encoding lives in jwt/ and record storage in
// session/. Downstream services verify tokens without the engine through verifier/.
//
// # What this package must NOT do
//
//   - Validate credentials. Callers authenticate first and then call Save.
//   - Expose internal stores or flow types in its public API.
//   - Import any sub-package that re-imports goSession (no import cycles).
//
// # Performance contract
//
// Verify is the hot path: one signature check and one partition-locked map lookup.
// It never performs I/O.
package goSession
