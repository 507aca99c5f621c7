// Package graphstore owns the task graph: the task map, the forward
// dependency index and its reverse (blocked_by). It is the only code that
// mutates adjacency, so the two indices cannot drift apart.
//
// # Invariants
//
// After every successful operation:
//
//   - the dependency relation is acyclic
//   - blocked_by(X) is exactly the set of tasks whose dependencies contain X
//   - every dependency and parent id refers to a stored task
//   - a subtask never depends on its own parent
//   - ids never change and subtask lists only grow by appending
//
// Verify checks all of them; with Options.VerifyInvariants the store runs
// it after each mutation and panics on a violation.
//
// # Concurrency
//
// A single sync.RWMutex guards everything. Create, UpdateFields,
// SetDependencies, Expand, Load and Reset hold the write lock for their
// whole duration; Get, ListByFilter, Snapshot and View share the read lock.
// Events are published on the bus after the lock is released, in the order
// the changes were made.
package graphstore
