package mockfactory

import (
	"fmt"

	"github.com/Jiaxi-Yu/mockfactory/array"
	"github.com/Jiaxi-Yu/mockfactory/comm"
)

// checkReducible rejects dtypes the reduction kernels cannot fold, before
// any collective call so every rank fails together.
func checkReducible(name string, a *array.Array) error {
	if a.DType() == array.Bool {
		return fmt.Errorf("catalog: cannot reduce bool column %q", name)
	}
	return nil
}

// globallyEmpty reports whether every rank holds zero rows of the column.
// Collective.
func (cat *Catalog) globallyEmpty(a *array.Array) (bool, error) {
	sizes, err := cat.c.AllGatherSizes(a.Rows())
	if err != nil {
		return false, err
	}
	for _, n := range sizes {
		if n > 0 {
			return false, nil
		}
	}
	return true, nil
}

// CSum sums a column along one axis. Axis 0 runs over the global rows and
// returns the identical item-shaped total on every rank, or nil on every
// rank when no rank holds any rows; higher axes fold within this rank's
// rows only. Collective.
func (cat *Catalog) CSum(name string, axis int) (*array.Array, error) {
	a, err := cat.Get(name)
	if err != nil {
		return nil, err
	}
	if err := checkReducible(name, a); err != nil {
		return nil, err
	}
	if axis != 0 {
		return a.SumAxis(axis)
	}
	if empty, err := cat.globallyEmpty(a); err != nil || empty {
		return nil, err
	}

	var local *array.Array
	if a.Rows() > 0 {
		local, err = a.SumAxis(0)
		if err != nil {
			return nil, err
		}
	} else {
		local = array.Zeros(a.DType(), a.ItemShape()...)
	}
	return cat.c.AllReduce(local, comm.Sum)
}

// CMin takes the minimum of a column along one axis; see CSum for the axis
// convention, including the nil result for a globally empty catalog. Ranks
// holding no rows do not contribute. Collective.
func (cat *Catalog) CMin(name string, axis int) (*array.Array, error) {
	return cat.creduce(name, axis, (*array.Array).MinAxis)
}

// CMax takes the maximum of a column along one axis; see CSum for the axis
// convention, including the nil result for a globally empty catalog. Ranks
// holding no rows do not contribute. Collective.
func (cat *Catalog) CMax(name string, axis int) (*array.Array, error) {
	return cat.creduce(name, axis, (*array.Array).MaxAxis)
}

// creduce implements the global min/max: each rank folds its own rows to a
// single row, the single rows are gathered on the coordinating rank (empty
// ranks contribute nothing), folded again and broadcast. An all-empty
// gather broadcasts a nil result instead.
func (cat *Catalog) creduce(name string, axis int, fold func(*array.Array, int) (*array.Array, error)) (*array.Array, error) {
	a, err := cat.Get(name)
	if err != nil {
		return nil, err
	}
	if err := checkReducible(name, a); err != nil {
		return nil, err
	}
	if axis != 0 {
		return fold(a, axis)
	}

	var local *array.Array
	if a.Rows() > 0 {
		m, err := fold(a, 0)
		if err != nil {
			return nil, err
		}
		local, err = m.Reshape(append([]int{1}, a.ItemShape()...)...)
		if err != nil {
			return nil, err
		}
	} else {
		local = array.Zeros(a.DType(), append([]int{0}, a.ItemShape()...)...)
	}

	g, err := cat.c.Gather(local, cat.root)
	if err != nil {
		return nil, err
	}
	var res *array.Array
	var rerr error
	if cat.c.Rank() == cat.root && g.Rows() > 0 {
		res, rerr = fold(g, 0)
	}
	if err := comm.SyncErr(cat.c, cat.root, rerr); err != nil {
		return nil, err
	}
	v, err := cat.c.Bcast(res, cat.root)
	if err != nil {
		return nil, err
	}
	res, _ = v.(*array.Array)
	return res, nil
}

// CAverage returns the weighted mean of a column over the global rows as a
// float64 array of the column's item shape, identical on every rank, or nil
// on every rank when no rank holds any rows. The weights array holds this
// rank's per-row weights; nil means unit weights. Collective.
func (cat *Catalog) CAverage(name string, weights *array.Array) (*array.Array, error) {
	a, err := cat.Get(name)
	if err != nil {
		return nil, err
	}
	if err := checkReducible(name, a); err != nil {
		return nil, err
	}
	if empty, err := cat.globallyEmpty(a); err != nil || empty {
		return nil, err
	}

	var num *array.Array
	wsum := 0.0
	if a.Rows() > 0 {
		num, wsum, err = a.WeightedSumAxis0(weights)
		if err != nil {
			return nil, err
		}
	} else {
		num = array.Zeros(array.Float64, a.ItemShape()...)
	}

	num, err = cat.c.AllReduce(num, comm.Sum)
	if err != nil {
		return nil, err
	}
	wtot, err := cat.c.AllReduce(array.FromFloat64s([]float64{wsum}), comm.Sum)
	if err != nil {
		return nil, err
	}
	total := wtot.Float64s()[0]
	if total == 0 {
		return nil, fmt.Errorf("catalog: average of column %q has zero total weight", name)
	}
	vals := num.Float64s()
	for i := range vals {
		vals[i] /= total
	}
	return num, nil
}

// eachColumn applies one single-column collective to several columns. The
// per-column calls happen in argument order, so the collective sequence is
// identical on every rank as long as names is.
func eachColumn(names []string, fn func(name string) (*array.Array, error)) (map[string]*array.Array, error) {
	out := make(map[string]*array.Array, len(names))
	for _, n := range names {
		r, err := fn(n)
		if err != nil {
			return nil, err
		}
		out[n] = r
	}
	return out, nil
}

// CSumColumns is CSum over several columns, keyed by name. Collective.
func (cat *Catalog) CSumColumns(names []string, axis int) (map[string]*array.Array, error) {
	return eachColumn(names, func(n string) (*array.Array, error) { return cat.CSum(n, axis) })
}

// CMinColumns is CMin over several columns, keyed by name. Collective.
func (cat *Catalog) CMinColumns(names []string, axis int) (map[string]*array.Array, error) {
	return eachColumn(names, func(n string) (*array.Array, error) { return cat.CMin(n, axis) })
}

// CMaxColumns is CMax over several columns, keyed by name. Collective.
func (cat *Catalog) CMaxColumns(names []string, axis int) (map[string]*array.Array, error) {
	return eachColumn(names, func(n string) (*array.Array, error) { return cat.CMax(n, axis) })
}

// CAverageBy averages a column weighted by another column. Collective.
func (cat *Catalog) CAverageBy(name, weightColumn string) (*array.Array, error) {
	w, err := cat.Get(weightColumn)
	if err != nil {
		return nil, err
	}
	return cat.CAverage(name, w)
}

// CMean returns the unweighted global mean of a column. Collective.
func (cat *Catalog) CMean(name string) (*array.Array, error) {
	return cat.CAverage(name, nil)
}
