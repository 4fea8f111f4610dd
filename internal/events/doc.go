// Package events implements async dispatch of session lifecycle events.
//
// # Components
//
//   - [Sink] is the interface for event consumers (channel, JSON writer, no-op, pub/sub).
//   - [Dispatcher] is a buffered async relay with drop-if-full / block-if-full semantics.
//   - [Event] is the lifecycle record: type, tenant, account, session, parent, endpoint.
//
// # Architecture boundaries
//
// This package owns event buffering and sink delivery. It does NOT decide which events
// to emit. The engine publishes one event after each mutating store operation.
//
// # What this package must NOT do
//
//   - Filter or suppress events based on business logic.
//   - Import goSession or any sibling internal package.
package events
