package mockfactory

import (
	"slices"

	"github.com/Jiaxi-Yu/mockfactory/array"
	"github.com/Jiaxi-Yu/mockfactory/comm"
)

// Concatenate stacks catalogs into a new detached catalog. All inputs must
// be bound to the same process group and, after dropping inputs with no
// columns at all, declare the same column set. Attrs merge last-wins across
// every input.
//
// With keepOrder false each rank appends its own local rows, so the global
// order interleaves inputs by rank. With keepOrder true the inputs' global
// row orders are preserved back to back, at the cost of gathering every
// column through the coordinating rank and re-partitioning. Collective.
func Concatenate(keepOrder bool, cats ...*Catalog) (*Catalog, error) {
	if len(cats) == 0 {
		return nil, ErrEmptyConcatenate
	}
	for _, other := range cats[1:] {
		if !comm.SameGroup(cats[0].c, other.c) {
			return nil, ErrCommunicatorMismatch
		}
	}

	attrs := make(map[string]any)
	for _, in := range cats {
		for k, v := range in.attrs {
			attrs[k] = v
		}
	}

	var kept []*Catalog
	var names []string
	for _, in := range cats {
		ns, err := in.syncNames()
		if err != nil {
			return nil, err
		}
		if len(ns) == 0 {
			continue
		}
		if names == nil {
			names = ns
		} else if !sameSet(ns, names) {
			return nil, &ColumnMismatchError{Got: ns, Want: names}
		}
		kept = append(kept, in)
	}

	first := cats[0]
	out := New(first.c, WithRoot(first.root), WithAttrs(attrs))
	out.logger = first.logger

	for _, name := range names {
		parts := make([]*array.Array, 0, len(kept))
		for _, in := range kept {
			if keepOrder {
				full, err := in.CGet(name, first.root)
				if err != nil {
					return nil, err
				}
				parts = append(parts, full)
				continue
			}
			a, err := in.Get(name)
			if err != nil {
				return nil, err
			}
			parts = append(parts, a)
		}

		if keepOrder {
			var whole *array.Array
			var cerr error
			if first.c.Rank() == first.root {
				whole, cerr = array.Concat(parts...)
			}
			if err := comm.SyncErr(first.c, first.root, cerr); err != nil {
				return nil, err
			}
			part, err := first.c.Scatter(whole, first.root)
			if err != nil {
				return nil, err
			}
			out.data.Set(name, part)
			continue
		}

		a, err := array.Concat(parts...)
		if err != nil {
			return nil, err
		}
		out.data.Set(name, a)
	}
	return out, nil
}

// Extend appends other's rows to this catalog in place; keepOrder selects
// the same ordering trade-off as Concatenate. The result is detached from
// any backing file; other's attrs win on conflict. Collective.
func (cat *Catalog) Extend(other *Catalog, keepOrder bool) error {
	joined, err := Concatenate(keepOrder, cat, other)
	if err != nil {
		return err
	}
	cat.data = joined.data
	cat.attrs = joined.attrs
	cat.source = nil
	return nil
}

// CEqual reports whether two catalogs hold the same columns with identical
// global content, row for row. Equality is dtype-sensitive: an int32 column
// never equals an int64 column, however the values compare. Attrs are not
// compared. Every column is examined even after a mismatch is found,
// keeping the collective sequence identical on all ranks. Collective.
func (cat *Catalog) CEqual(other *Catalog) (bool, error) {
	if !comm.SameGroup(cat.c, other.c) {
		return false, ErrCommunicatorMismatch
	}
	a, err := cat.syncNames()
	if err != nil {
		return false, err
	}
	b, err := other.syncNames()
	if err != nil {
		return false, err
	}
	if !sameSet(a, b) {
		return false, nil
	}

	equal := true
	for _, name := range a {
		x, err := cat.CGet(name, cat.root)
		if err != nil {
			return false, err
		}
		y, err := other.CGet(name, cat.root)
		if err != nil {
			return false, err
		}
		if cat.c.Rank() == cat.root && !array.Equal(x, y) {
			equal = false
		}
	}
	v, err := cat.c.Bcast(equal, cat.root)
	if err != nil {
		return false, err
	}
	equal, _ = v.(bool)
	return equal, nil
}

// sameSet reports whether a and b contain the same names, order aside.
func sameSet(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	as := slices.Clone(a)
	bs := slices.Clone(b)
	slices.Sort(as)
	slices.Sort(bs)
	return slices.Equal(as, bs)
}
