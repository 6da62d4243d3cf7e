package comm

import "golang.org/x/sync/errgroup"

// Run executes fn as an SPMD program over a fresh n-rank in-process group,
// one goroutine per rank, and returns the first rank error.
//
// fn must follow the collective discipline: every rank issues the same
// collectives in the same order. Returning early from one rank while others
// are blocked in a collective deadlocks the group; use SyncErr on error
// paths that begin on a single rank.
func Run(n int, fn func(c *Local) error) error {
	var g errgroup.Group
	for _, c := range NewGroup(n) {
		c := c
		g.Go(func() error { return fn(c) })
	}
	return g.Wait()
}
