package mockfactory

import (
	"github.com/Jiaxi-Yu/mockfactory/array"
	"github.com/Jiaxi-Yu/mockfactory/comm"
)

// Slice returns a new detached catalog holding rows [lo, hi) of this rank's
// resident columns. The row indices are local and the slices are views
// sharing storage with the parent. Columns not yet materialized from a
// backing file are not carried over; Get them first. Local, not collective.
func (cat *Catalog) Slice(lo, hi int) *Catalog {
	out := New(cat.c, WithRoot(cat.root), WithAttrs(cat.attrs))
	out.logger = cat.logger
	out.data = cat.data.SliceRows(lo, hi)
	return out
}

// CSlice selects a range of global rows and returns them as a new detached
// catalog, evenly re-partitioned over the group. The range addresses the
// global row order (rank 0's rows first), with Python slice semantics
// including negative endpoints and negative steps. Collective.
func (cat *Catalog) CSlice(r array.Range) (*Catalog, error) {
	names, err := cat.syncNames()
	if err != nil {
		return nil, err
	}

	out := New(cat.c, WithRoot(cat.root), WithAttrs(cat.attrs))
	out.logger = cat.logger
	for _, name := range names {
		full, err := cat.CGet(name, cat.root)
		if err != nil {
			return nil, err
		}

		var sliced *array.Array
		var serr error
		if cat.c.Rank() == cat.root {
			sliced, serr = full.SliceRange(r)
		}
		if err := comm.SyncErr(cat.c, cat.root, serr); err != nil {
			return nil, err
		}

		part, err := cat.c.Scatter(sliced, cat.root)
		if err != nil {
			return nil, err
		}
		out.data.Set(name, part)
	}
	return out, nil
}
