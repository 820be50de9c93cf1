// Package projection holds the in-memory view of the to-do collection and
// the only way to change it: actions folded through Reduce.
//
// Reduce is a pure function. It never performs I/O, never mutates its input
// state, and given the same state and action always returns the same result.
// A Projector owns the current State, applies actions sequentially, and
// appends each one to an action Log stamped with a monotonic logical clock.
// Replaying a log from the empty state reproduces the live projection.
//
// The projection is disposable: the encrypted store is the source of truth,
// and KnownDates in particular is a derived index that callers reconcile by
// rescanning the store.
package projection
