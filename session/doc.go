// Package session holds the authoritative liveness state of issued sessions.
//
// # Partitioning
//
// Records are grouped by (tenant code, account id). Each partition has its own
// mutex, so concurrent requests for unrelated accounts never contend. Insert with
// eviction, the verify-time liveness check and the reaper sweep all run under the
// partition lock, which makes each of them atomic for a given account.
//
// # Cascade
//
// A session created from another session records the parent id in SourceID.
// [Descendants] walks that graph breadth first inside one partition and
// [MemoryStore.RemoveTree] removes a session together with every descendant.
//
// # Architecture boundaries
//
// This package owns the [Store] contract, the in-memory implementation and the
// [Reaper]. It does NOT parse tokens or decide what a caller is allowed to do.
//
// # What this package must NOT do
//
//   - Import goSession or jwt (no upward imports).
//   - Hand out pointers to stored records; callers always receive copies.
package session
