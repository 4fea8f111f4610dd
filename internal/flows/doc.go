// Package flows contains pure-function orchestrators for every Engine operation.
//
// Each flow function (RunSave, RunVerify, RunInvalidateByToken, etc.) accepts a typed
// dependency struct and returns a result value. Flows never emit events or bump
// metrics themselves; they report what happened and the Engine publishes it.
//
// # Architecture boundaries
//
// Flow functions coordinate calls to the signer and the session store. They do NOT
// own either of them; ownership stays with the Engine.
//
// # What this package must NOT do
//
//   - Hold mutable state between calls.
//   - Import goSession (to avoid import cycles).
//   - Read the wall clock directly; time comes from deps.Now.
package flows
