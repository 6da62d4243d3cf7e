// Package comm defines the collective-communication contract the store is
// built on, plus an in-process reference implementation that runs one rank
// per goroutine.
//
// Every collective is blocking and must be invoked by all ranks of a group
// in the same order, including on error paths; SyncErr exists so a failure
// seen on one rank is re-raised on every rank instead of deadlocking the
// group.
package comm
