// Package verifier checks session tokens away from the engine that issued them.
//
// A [Verifier] holds only the engine's public key. It proves a token is
// authentic and well formed but cannot see sliding expiry or revocation. Attach a
// [Denylist] with [WithDenylist] and feed it lifecycle events (see package
// broadcast) to reject revoked sessions within the propagation delay.
package verifier
