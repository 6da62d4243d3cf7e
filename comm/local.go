package comm

import (
	"fmt"
	"sync/atomic"

	"github.com/Jiaxi-Yu/mockfactory/array"
)

var groupIDs atomic.Uint64

// group is the shared state of one in-process process group: a channel mesh
// with one buffered channel per ordered rank pair.
type group struct {
	id   uint64
	size int
	ch   [][]chan any
}

// Local is the in-process Communicator: every rank is a goroutine sharing a
// channel mesh. Matching relies on the collective discipline (all ranks
// issue the same collectives in the same order), so each channel carries a
// FIFO stream of payloads for exactly one sender/receiver pair.
type Local struct {
	rank int
	g    *group
}

var _ Communicator = (*Local)(nil)

// NewGroup creates an n-rank in-process group and returns one communicator
// per rank. Each communicator must be used by a single goroutine.
func NewGroup(n int) []*Local {
	if n <= 0 {
		panic(fmt.Sprintf("comm: group size must be positive, got %d", n))
	}
	g := &group{id: groupIDs.Add(1), size: n}
	g.ch = make([][]chan any, n)
	for i := range g.ch {
		g.ch[i] = make([]chan any, n)
		for j := range g.ch[i] {
			g.ch[i][j] = make(chan any, 4)
		}
	}
	comms := make([]*Local, n)
	for i := range comms {
		comms[i] = &Local{rank: i, g: g}
	}
	return comms
}

// Self returns a single-rank group, for non-distributed use.
func Self() *Local {
	return NewGroup(1)[0]
}

// Rank returns this communicator's rank.
func (c *Local) Rank() int { return c.rank }

// Size returns the group size.
func (c *Local) Size() int { return c.g.size }

// Group returns the group identity.
func (c *Local) Group() uint64 { return c.g.id }

func (c *Local) send(to int, v any) {
	c.g.ch[c.rank][to] <- cloneValue(v)
}

func (c *Local) recv(from int) any {
	return <-c.g.ch[from][c.rank]
}

func asArray(v any) *array.Array {
	if a, ok := v.(*array.Array); ok {
		return a
	}
	return nil
}

// Bcast distributes root's value to every rank.
func (c *Local) Bcast(v any, root int) (any, error) {
	if err := checkRoot(root, c.g.size); err != nil {
		return nil, err
	}
	if c.rank == root {
		for r := 0; r < c.g.size; r++ {
			if r != root {
				c.send(r, v)
			}
		}
		return v, nil
	}
	return c.recv(root), nil
}

// Scatter splits root's array into even contiguous row blocks.
func (c *Local) Scatter(a *array.Array, root int) (*array.Array, error) {
	if err := checkRoot(root, c.g.size); err != nil {
		return nil, err
	}
	if c.rank != root {
		return asArray(c.recv(root)), nil
	}
	if a == nil {
		return nil, fmt.Errorf("comm: scatter of nil array on root %d", root)
	}
	n := a.Rows()
	var local *array.Array
	for r := 0; r < c.g.size; r++ {
		lo, hi := r*n/c.g.size, (r+1)*n/c.g.size
		part := a.Slice(lo, hi)
		if r == root {
			local = part.Clone()
		} else {
			c.send(r, part)
		}
	}
	return local, nil
}

// gather concatenates contributions in rank order on root only.
func (c *Local) gather(a *array.Array, root int) (*array.Array, error) {
	if c.rank != root {
		c.send(root, a)
		return nil, nil
	}
	var parts []*array.Array
	for r := 0; r < c.g.size; r++ {
		var part *array.Array
		if r == c.rank {
			part = a
		} else {
			part = asArray(c.recv(r))
		}
		if part != nil {
			parts = append(parts, part)
		}
	}
	if len(parts) == 0 {
		return nil, nil
	}
	return array.Concat(parts...)
}

// Gather concatenates every rank's rows in rank order.
func (c *Local) Gather(a *array.Array, root int) (*array.Array, error) {
	if root == All {
		out, err := c.gather(a, 0)
		if err != nil {
			return nil, err
		}
		v, err := c.Bcast(out, 0)
		if err != nil {
			return nil, err
		}
		return asArray(v), nil
	}
	if err := checkRoot(root, c.g.size); err != nil {
		return nil, err
	}
	return c.gather(a, root)
}

// AllReduce combines equally-shaped arrays elementwise.
func (c *Local) AllReduce(a *array.Array, op Op) (*array.Array, error) {
	var bop array.BinOp
	switch op {
	case Sum:
		bop = array.OpSum
	case Min:
		bop = array.OpMin
	case Max:
		bop = array.OpMax
	default:
		return nil, fmt.Errorf("comm: unknown reduction op %d", op)
	}
	if c.rank != 0 {
		c.send(0, a)
		v, err := c.Bcast(nil, 0)
		if err != nil {
			return nil, err
		}
		if e, ok := v.(error); ok {
			return nil, e
		}
		return asArray(v), nil
	}
	acc := a.Clone()
	var err error
	for r := 1; r < c.g.size; r++ {
		part := asArray(c.recv(r))
		acc, err = array.Combine(acc, part, bop)
		if err != nil {
			// Peers are already blocked on the result broadcast; deliver
			// the failure instead of hanging them.
			_, _ = c.Bcast(err, 0)
			return nil, err
		}
	}
	v, berr := c.Bcast(acc, 0)
	if berr != nil {
		return nil, berr
	}
	return asArray(v), nil
}

// AllGatherSizes returns every rank's n, indexed by rank.
func (c *Local) AllGatherSizes(n int) ([]int, error) {
	if c.rank != 0 {
		c.send(0, n)
		v, err := c.Bcast(nil, 0)
		if err != nil {
			return nil, err
		}
		sizes, _ := v.([]int)
		return sizes, nil
	}
	sizes := make([]int, c.g.size)
	sizes[0] = n
	for r := 1; r < c.g.size; r++ {
		sizes[r] = c.recv(r).(int)
	}
	v, err := c.Bcast(sizes, 0)
	if err != nil {
		return nil, err
	}
	return v.([]int), nil
}

// Barrier blocks until every rank has entered it.
func (c *Local) Barrier() error {
	if c.rank != 0 {
		c.send(0, struct{}{})
	} else {
		for r := 1; r < c.g.size; r++ {
			c.recv(r)
		}
	}
	_, err := c.Bcast(struct{}{}, 0)
	return err
}
