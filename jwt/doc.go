// Package jwt signs and parses session tokens with an asymmetric keypair.
//
// A [Manager] built with a private key can both issue and verify tokens; a manager
// built with only a public key is verify-only and is what offline verifiers use.
// RS256 is the default algorithm, EdDSA (Ed25519) is also supported. The parser pins
// the configured algorithm, so tokens signed with any other alg (including "none"
// and HMAC variants) are rejected before the key is consulted.
//
// # Architecture boundaries
//
// This package knows the wire shape of [SessionClaims] and nothing about session
// liveness. Whether a session is still active is decided by the session store.
//
// # What this package must NOT do
//
//   - Import goSession or session (no upward imports).
//   - Consult any store or network resource while parsing.
package jwt
