// Package middleware adapts session verification to net/http.
//
// # Guards
//
//   - [Guard] verifies against the engine, refreshing the session's sliding window.
//   - [RequireOffline] verifies with a [verifier.Verifier] and never touches the engine.
//
// Both read a bearer token from the Authorization header and store the verified
// claims in the request context, where [ClaimsFromContext] finds them.
//
// This package makes no decisions of its own; a request passes only when the
// engine or verifier accepts its token.
package middleware
