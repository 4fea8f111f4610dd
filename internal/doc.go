// Package internal contains helpers that are private to goSession.
//
// # Sub-packages
//
//   - events: async lifecycle event dispatch (Dispatcher + Sink implementations)
//   - flows: pure-function orchestrators for every Engine operation
//
// # What this package must NOT do
//
//   - Export types that appear in the public goSession API, other than through aliases
//     declared in the root package.
//   - Be imported by any package outside the goSession module.
package internal
