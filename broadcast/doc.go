// Package broadcast carries engine lifecycle events over Redis pub/sub.
//
// A [Publisher] is an engine event sink that publishes each event as JSON to a
// channel. A [Subscriber] reads the channel and records revocations in a
// [verifier.Denylist], so offline verifiers in other processes reject sessions
// the engine has revoked, evicted, expired or cleared.
//
// Delivery is at most once. A verifier that misses a message keeps accepting
// the affected token until its own checks reject it.
package broadcast
