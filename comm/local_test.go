package comm

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Jiaxi-Yu/mockfactory/array"
)

func TestBcast(t *testing.T) {
	err := Run(4, func(c *Local) error {
		var msg []string
		if c.Rank() == 1 {
			msg = []string{"a", "b"}
		}
		v, err := c.Bcast(msg, 1)
		require.NoError(t, err)
		assert.Equal(t, []string{"a", "b"}, v)
		return nil
	})
	require.NoError(t, err)
}

func TestBcastClones(t *testing.T) {
	err := Run(2, func(c *Local) error {
		a := array.Arange(3)
		v, err := c.Bcast(a, 0)
		require.NoError(t, err)
		got := v.(*array.Array)
		if c.Rank() == 0 {
			// Root mutates after the collective; rank 1 must not see it.
			got.Int64s()[0] = 99
		} else {
			assert.Equal(t, []int64{0, 1, 2}, got.Int64s())
		}
		return nil
	})
	require.NoError(t, err)
}

func TestScatterGather(t *testing.T) {
	err := Run(3, func(c *Local) error {
		var a *array.Array
		if c.Rank() == 0 {
			a = array.Arange(10)
		}
		part, err := c.Scatter(a, 0)
		require.NoError(t, err)

		// 10 rows over 3 ranks: [0,3) [3,6) [6,10).
		wantRows := (c.Rank()+1)*10/3 - c.Rank()*10/3
		assert.Equal(t, wantRows, part.Rows())

		whole, err := c.Gather(part, 0)
		require.NoError(t, err)
		if c.Rank() == 0 {
			assert.Equal(t, array.Arange(10).Int64s(), whole.Int64s())
		} else {
			assert.Nil(t, whole)
		}
		return nil
	})
	require.NoError(t, err)
}

func TestGatherAll(t *testing.T) {
	err := Run(3, func(c *Local) error {
		local := array.FromInt64s([]int64{int64(c.Rank())})
		whole, err := c.Gather(local, All)
		require.NoError(t, err)
		assert.Equal(t, []int64{0, 1, 2}, whole.Int64s())
		return nil
	})
	require.NoError(t, err)
}

func TestGatherEmptyRank(t *testing.T) {
	err := Run(2, func(c *Local) error {
		local := array.Zeros(array.Int64, 0)
		if c.Rank() == 1 {
			local = array.FromInt64s([]int64{7})
		}
		whole, err := c.Gather(local, 0)
		require.NoError(t, err)
		if c.Rank() == 0 {
			assert.Equal(t, []int64{7}, whole.Int64s())
		}
		return nil
	})
	require.NoError(t, err)
}

func TestAllReduce(t *testing.T) {
	ops := []struct {
		op   Op
		want []int64
	}{
		{op: Sum, want: []int64{3, 6}},
		{op: Min, want: []int64{0, 1}},
		{op: Max, want: []int64{2, 3}},
	}
	for _, tt := range ops {
		err := Run(3, func(c *Local) error {
			local := array.FromInt64s([]int64{int64(c.Rank()), int64(c.Rank() + 1)})
			out, err := c.AllReduce(local, tt.op)
			require.NoError(t, err)
			assert.Equal(t, tt.want, out.Int64s())
			return nil
		})
		require.NoError(t, err)
	}
}

func TestAllReduceShapeMismatch(t *testing.T) {
	err := Run(2, func(c *Local) error {
		local := array.Arange(c.Rank() + 1)
		_, err := c.AllReduce(local, Sum)
		require.Error(t, err)
		return nil
	})
	require.NoError(t, err)
}

func TestAllGatherSizes(t *testing.T) {
	err := Run(4, func(c *Local) error {
		sizes, err := c.AllGatherSizes(c.Rank() * 2)
		require.NoError(t, err)
		assert.Equal(t, []int{0, 2, 4, 6}, sizes)
		return nil
	})
	require.NoError(t, err)
}

func TestBarrier(t *testing.T) {
	err := Run(3, func(c *Local) error {
		return c.Barrier()
	})
	require.NoError(t, err)
}

func TestSyncErr(t *testing.T) {
	boom := errors.New("boom")
	err := Run(3, func(c *Local) error {
		var local error
		if c.Rank() == 0 {
			local = boom
		}
		err := SyncErr(c, 0, local)
		require.Error(t, err)
		assert.Equal(t, "boom", err.Error())
		if c.Rank() == 0 {
			assert.Same(t, boom, err)
		}

		// And the nil case releases everyone.
		return SyncErr(c, 0, nil)
	})
	require.NoError(t, err)
}

func TestSameGroup(t *testing.T) {
	a := NewGroup(2)
	b := NewGroup(2)
	assert.True(t, SameGroup(a[0], a[1]))
	assert.False(t, SameGroup(a[0], b[0]))
	assert.False(t, SameGroup(nil, a[0]))
}

func TestCheckRoot(t *testing.T) {
	c := Self()
	_, err := c.Bcast("x", 5)
	require.Error(t, err)
}
