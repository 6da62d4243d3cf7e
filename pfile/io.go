package pfile

import (
	"fmt"
	"slices"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/Jiaxi-Yu/mockfactory/array"
	"github.com/Jiaxi-Yu/mockfactory/comm"
)

// prefixSums returns the inclusive prefix sums of sizes.
func prefixSums(sizes []int) []int {
	cum := make([]int, len(sizes))
	total := 0
	for i, s := range sizes {
		total += s
		cum[i] = total
	}
	return cum
}

// Read reads this rank's rows of one column: the files intersecting
// [start, stop) are located by lower-bound search over the file prefix sums,
// each intersection is served by the adapter, and the per-file pieces are
// concatenated in file order.
//
// A file written by another rank moments ago can fail here with
// codec.ErrNotFound if the filesystem has not made it visible yet; the error
// is fatal, never retried.
func (f *File) Read(column string) (*array.Array, error) {
	if !f.opened {
		if err := f.readHeader(); err != nil {
			return nil, err
		}
	}
	if !f.HasColumn(column) {
		return nil, fmt.Errorf("pfile: no column %q in %v", column, f.columns)
	}

	cum := prefixSums(f.sizes)
	first := sort.SearchInts(cum, f.start)
	last := sort.SearchInts(cum, f.stop)
	if last >= len(f.sizes) {
		last = len(f.sizes) - 1
	}

	parts := make([]*array.Array, last-first+1)
	var g errgroup.Group
	for i := first; i <= last; i++ {
		i := i
		g.Go(func() error {
			cumStart := 0
			if i > 0 {
				cumStart = cum[i-1]
			}
			lo := max(f.start-cumStart, 0)
			hi := min(f.stop-cumStart, f.sizes[i])
			hi = max(hi, lo)
			part, err := f.adapter.ReadSlice(f.names[i], column, lo, hi)
			if err != nil {
				return err
			}
			parts[i-first] = part
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return array.Concat(parts...)
}

// syncColumns verifies every rank submits a valid column set with the same
// names in the same order, failing on all ranks together.
func (f *File) syncColumns(cols *array.Columns) error {
	v, err := f.c.Bcast(cols.Names(), f.root)
	if err != nil {
		return err
	}
	rootNames, _ := v.([]string)
	ok := int64(1)
	localErr := cols.Validate()
	if localErr != nil || !slices.Equal(rootNames, cols.Names()) {
		ok = 0
	}
	res, err := f.c.AllReduce(array.FromInt64s([]int64{ok}), comm.Min)
	if err != nil {
		return err
	}
	if res.Int64s()[0] == 0 {
		if localErr != nil {
			return localErr
		}
		return fmt.Errorf("pfile: column sets differ across ranks")
	}
	return nil
}

// Write writes the process-partitioned column set to the file list,
// redistributing rows so every file holds an even share of the new global
// total. The file count is fixed; only row placement changes. On return the
// file's sizes and rank intervals reflect the written data.
func (f *File) Write(cols *array.Columns) error {
	if cols == nil {
		cols = array.NewColumns()
	}
	if err := f.syncColumns(cols); err != nil {
		return err
	}

	localRows := cols.Rows()
	sizes, err := f.c.AllGatherSizes(localRows)
	if err != nil {
		return err
	}
	rankCum := prefixSums(sizes)
	total := 0
	if len(rankCum) > 0 {
		total = rankCum[len(rankCum)-1]
	}
	myStart := rankCum[f.c.Rank()] - sizes[f.c.Rank()]

	var mkErr error
	if f.isRoot() {
		mkErr = f.mkdirAll()
	}
	if err := comm.SyncErr(f.c, f.root, mkErr); err != nil {
		return err
	}

	nfiles := len(f.names)
	newSizes := make([]int, nfiles)
	for i, name := range f.names {
		fileStart := i * total / nfiles
		fileStop := (i + 1) * total / nfiles
		newSizes[i] = fileStop - fileStart

		lo := min(max(fileStart-myStart, 0), localRows)
		hi := min(max(fileStop-myStart, 0), localRows)
		hi = max(hi, lo)
		part := cols.SliceRows(lo, hi)

		gathered := array.NewColumns()
		for _, col := range cols.Names() {
			a, _ := part.Get(col)
			ga, err := f.c.Gather(a, f.root)
			if err != nil {
				return err
			}
			if f.isRoot() {
				gathered.Set(col, ga)
			}
		}

		var werr error
		if f.isRoot() {
			f.logger.Info("saving", "file", name, "rows", fileStop-fileStart)
			werr = f.adapter.WriteSlice(name, gathered, f.attrs)
		}
		if err := comm.SyncErr(f.c, f.root, werr); err != nil {
			return err
		}
	}

	f.sizes = newSizes
	f.columns = cols.Names()
	f.recomputeInterval()
	f.opened = true
	return nil
}

// WriteFrom writes a column set fully resident on one rank: the columns are
// scattered evenly across the group first, then written as in Write.
func (f *File) WriteFrom(cols *array.Columns, root int) error {
	var fields []array.Field
	var verr error
	if f.c.Rank() == root {
		if cols == nil {
			cols = array.NewColumns()
		}
		verr = cols.Validate()
	}
	if err := comm.SyncErr(f.c, root, verr); err != nil {
		return err
	}
	if f.c.Rank() == root {
		fields = cols.Fields()
	}

	v, err := f.c.Bcast(fields, root)
	if err != nil {
		return err
	}
	fields, _ = v.([]array.Field)

	local := array.NewColumns()
	for _, fd := range fields {
		var a *array.Array
		if f.c.Rank() == root {
			a, _ = cols.Get(fd.Name)
		}
		part, err := f.c.Scatter(a, root)
		if err != nil {
			return err
		}
		local.Set(fd.Name, part)
	}
	return f.Write(local)
}
