package comm

import (
	"errors"
	"fmt"
	"maps"

	"github.com/Jiaxi-Yu/mockfactory/array"
)

// Op selects the elementwise reduction applied by AllReduce.
type Op uint8

const (
	// Sum adds contributions.
	Sum Op = iota + 1
	// Min keeps the smallest contribution.
	Min
	// Max keeps the largest contribution.
	Max
)

// All is a Gather target meaning "every rank receives the result".
const All = -1

// Communicator is the collective substrate: a fixed group of cooperating
// ranks. Implementations must be reliable, synchronous and ordered; a
// collective returns on one rank only once every rank has entered it.
type Communicator interface {
	// Rank returns this process's id within the group, in [0, Size).
	Rank() int
	// Size returns the number of ranks in the group.
	Size() int
	// Group returns an identity shared by all ranks of the group and by no
	// other group. Stores bound to different groups must not be mixed.
	Group() uint64

	// Bcast distributes root's value to every rank. The value passed on
	// non-root ranks is ignored; every rank returns root's value.
	Bcast(v any, root int) (any, error)
	// Scatter splits root's array evenly across ranks by row
	// (rank*rows/size boundaries) and returns the local part. Non-root
	// ranks pass nil.
	Scatter(a *array.Array, root int) (*array.Array, error)
	// Gather concatenates every rank's rows in rank order on root, or on
	// every rank when root is All. Non-target ranks return nil. A nil
	// contribution counts as zero rows.
	Gather(a *array.Array, root int) (*array.Array, error)
	// AllReduce combines equally-shaped local arrays elementwise with op
	// and returns the identical result on every rank.
	AllReduce(a *array.Array, op Op) (*array.Array, error)
	// AllGatherSizes returns every rank's local value of n, indexed by rank,
	// on every rank.
	AllGatherSizes(n int) ([]int, error)
	// Barrier blocks until every rank has entered it.
	Barrier() error
}

// SyncErr keeps a group call-symmetric across an error detected on root:
// root broadcasts its error (or nil) and every rank returns a failure when
// root failed. Root keeps the original error; other ranks get one carrying
// the same text.
func SyncErr(c Communicator, root int, err error) error {
	msg := ""
	if c.Rank() == root && err != nil {
		msg = err.Error()
	}
	v, berr := c.Bcast(msg, root)
	if berr != nil {
		return berr
	}
	remote, _ := v.(string)
	if remote == "" {
		return nil
	}
	if c.Rank() == root {
		return err
	}
	return errors.New(remote)
}

// SameGroup reports whether both communicators address the same group.
func SameGroup(a, b Communicator) bool {
	return a != nil && b != nil && a.Group() == b.Group()
}

// cloneValue deep-copies the value kinds that cross rank boundaries, so one
// rank can never observe another rank's later mutations.
func cloneValue(v any) any {
	switch t := v.(type) {
	case nil:
		return nil
	case *array.Array:
		if t == nil {
			return (*array.Array)(nil)
		}
		return t.Clone()
	case map[string]any:
		return maps.Clone(t)
	case []string:
		return append([]string(nil), t...)
	case []int:
		return append([]int(nil), t...)
	case []int64:
		return append([]int64(nil), t...)
	default:
		return v
	}
}

func checkRoot(root, size int) error {
	if root < 0 || root >= size {
		return fmt.Errorf("comm: root %d out of range for %d ranks", root, size)
	}
	return nil
}
