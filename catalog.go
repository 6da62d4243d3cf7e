package mockfactory

import (
	"fmt"
	"math"
	"path"
	"slices"

	"github.com/Jiaxi-Yu/mockfactory/array"
	"github.com/Jiaxi-Yu/mockfactory/comm"
	"github.com/Jiaxi-Yu/mockfactory/pfile"
)

// Options configures a Catalog.
type Options struct {
	// Attrs seeds the metadata dictionary.
	Attrs map[string]any
	// Data seeds the locally resident columns of this rank.
	Data *array.Columns
	// Root is the coordinating rank used by collectives that need one.
	Root int
	// Logger receives progress and diagnostics.
	Logger *Logger
}

// DefaultOptions are the options used when none are given.
var DefaultOptions = Options{
	Root: 0,
}

// WithAttrs seeds the metadata dictionary.
func WithAttrs(attrs map[string]any) func(o *Options) {
	return func(o *Options) {
		o.Attrs = attrs
	}
}

// WithData seeds this rank's columns.
func WithData(data *array.Columns) func(o *Options) {
	return func(o *Options) {
		o.Data = data
	}
}

// WithRoot sets the coordinating rank.
func WithRoot(root int) func(o *Options) {
	return func(o *Options) {
		o.Root = root
	}
}

// WithLogger sets the logger.
func WithLogger(logger *Logger) func(o *Options) {
	return func(o *Options) {
		o.Logger = logger
	}
}

// Catalog is one rank's view of a distributed column store: a mapping from
// column name to the locally resident slab of rows, plus a shared metadata
// dictionary. A catalog may additionally be backed by a partitioned file,
// in which case columns declared by the file but not yet resident are
// materialized collectively on first access.
type Catalog struct {
	c      comm.Communicator
	root   int
	logger *Logger
	data   *array.Columns
	attrs  map[string]any
	source *pfile.File
}

// New creates a detached catalog over the given process group.
func New(c comm.Communicator, optFns ...func(o *Options)) *Catalog {
	opts := DefaultOptions
	for _, fn := range optFns {
		fn(&opts)
	}
	data := opts.Data
	if data == nil {
		data = array.NewColumns()
	}
	attrs := make(map[string]any, len(opts.Attrs))
	for k, v := range opts.Attrs {
		attrs[k] = v
	}
	logger := opts.Logger
	if logger == nil {
		logger = NoopLogger()
	}
	return &Catalog{
		c:      c,
		root:   opts.Root,
		logger: logger.WithRank(c.Rank()),
		data:   data,
		attrs:  attrs,
	}
}

// FromColumns creates a detached catalog seeded with this rank's columns.
func FromColumns(c comm.Communicator, cols *array.Columns, optFns ...func(o *Options)) *Catalog {
	return New(c, append(optFns, WithData(cols))...)
}

// FromFile creates a catalog backed by an open partitioned file. Columns are
// not read yet; each is materialized collectively on first Get. The file's
// merged metadata seeds the catalog attrs, with option attrs winning.
func FromFile(f *pfile.File, optFns ...func(o *Options)) *Catalog {
	cat := New(f.Comm(), optFns...)
	cat.source = f
	for k, v := range f.Attrs() {
		if _, ok := cat.attrs[k]; !ok {
			cat.attrs[k] = v
		}
	}
	return cat
}

// Comm returns the process group the catalog is bound to.
func (cat *Catalog) Comm() comm.Communicator { return cat.c }

// Attrs returns the metadata dictionary. Mutations are local to this rank.
func (cat *Catalog) Attrs() map[string]any { return cat.attrs }

// Source returns the backing partitioned file, nil for a detached catalog.
func (cat *Catalog) Source() *pfile.File { return cat.source }

// Size returns the number of rows resident on this rank. For a backed
// catalog with no materialized columns this is the file's assigned share.
func (cat *Catalog) Size() int {
	if cat.data.Len() > 0 {
		return cat.data.Rows()
	}
	if cat.source != nil {
		return cat.source.LocalRows()
	}
	return 0
}

// CSize returns the global row count over all ranks. Collective.
func (cat *Catalog) CSize() (int, error) {
	sizes, err := cat.c.AllGatherSizes(cat.Size())
	if err != nil {
		return 0, err
	}
	total := 0
	for _, s := range sizes {
		total += s
	}
	return total, nil
}

// Has reports whether the column is resident locally or declared by the
// backing file.
func (cat *Catalog) Has(name string) bool {
	if _, ok := cat.data.Get(name); ok {
		return true
	}
	return cat.source != nil && cat.source.HasColumn(name)
}

// Get returns this rank's rows of a column. A column declared by the backing
// file but not yet resident is read from it first, which is collective:
// every rank must request missing columns in the same order.
func (cat *Catalog) Get(name string) (*array.Array, error) {
	if a, ok := cat.data.Get(name); ok {
		return a, nil
	}
	if cat.source != nil && cat.source.HasColumn(name) {
		cat.logger.Debug("materializing column", "column", name)
		a, err := cat.source.Read(name)
		if err != nil {
			return nil, err
		}
		cat.data.Set(name, a)
		return a, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrColumnNotFound, name)
}

// GetDefault returns the column like Get, or def when the column does not
// exist anywhere. A missing column is not a collective call, so def must be
// used consistently across ranks.
func (cat *Catalog) GetDefault(name string, def *array.Array) (*array.Array, error) {
	if !cat.Has(name) {
		return def, nil
	}
	return cat.Get(name)
}

// Set installs this rank's rows of a column. Every column of a catalog holds
// the same number of local rows; the first column fixes that count.
func (cat *Catalog) Set(name string, a *array.Array) error {
	if a == nil {
		return fmt.Errorf("catalog: column %q is nil", name)
	}
	if cat.data.Len() > 0 || cat.source != nil {
		if rows := cat.Size(); a.Rows() != rows {
			return fmt.Errorf("catalog: column %q has %d rows, catalog holds %d", name, a.Rows(), rows)
		}
	}
	cat.data.Set(name, a)
	return nil
}

// Delete removes a column. An unmaterialized backed column is removed from
// the offered schema without touching the physical files.
func (cat *Catalog) Delete(name string) error {
	deleted := cat.data.Delete(name)
	if cat.source != nil && cat.source.HasColumn(name) {
		cat.source.DropColumn(name)
		deleted = true
	}
	if !deleted {
		return fmt.Errorf("%w: %q", ErrColumnNotFound, name)
	}
	return nil
}

// matchAny reports whether name matches at least one glob pattern. A pattern
// without metacharacters is an exact name.
func matchAny(name string, patterns []string) bool {
	for _, p := range patterns {
		if ok, err := path.Match(p, name); err == nil && ok {
			return true
		}
	}
	return false
}

// syncNames broadcasts the coordinating rank's union of resident and
// file-declared column names, in insertion order. Collective.
func (cat *Catalog) syncNames() ([]string, error) {
	var names []string
	if cat.c.Rank() == cat.root {
		seen := make(map[string]bool)
		for _, n := range cat.data.Names() {
			if !seen[n] {
				seen[n] = true
				names = append(names, n)
			}
		}
		if cat.source != nil {
			for _, n := range cat.source.Columns() {
				if !seen[n] {
					seen[n] = true
					names = append(names, n)
				}
			}
		}
	}
	v, err := cat.c.Bcast(names, cat.root)
	if err != nil {
		return nil, err
	}
	names, _ = v.([]string)
	return names, nil
}

// CColumns returns the catalog's column names: the union of resident and
// file-declared columns, filtered by glob patterns and sorted. A nil include
// keeps everything; exclude is applied after include. Collective: the
// coordinating rank computes the union and every rank returns the same list.
func (cat *Catalog) CColumns(include, exclude []string) ([]string, error) {
	names, err := cat.syncNames()
	if err != nil {
		return nil, err
	}
	if include != nil {
		kept := names[:0]
		for _, n := range names {
			if matchAny(n, include) {
				kept = append(kept, n)
			}
		}
		names = kept
	}
	if len(exclude) > 0 {
		kept := names[:0]
		for _, n := range names {
			if !matchAny(n, exclude) {
				kept = append(kept, n)
			}
		}
		names = kept
	}
	slices.Sort(names)
	return names, nil
}

// CIndex returns the global row index of each local row as an int64 array:
// rank offsets are the prefix sums of all local sizes. Collective.
func (cat *Catalog) CIndex() (*array.Array, error) {
	sizes, err := cat.c.AllGatherSizes(cat.Size())
	if err != nil {
		return nil, err
	}
	offset := int64(0)
	for r := 0; r < cat.c.Rank(); r++ {
		offset += int64(sizes[r])
	}
	idx := make([]int64, cat.Size())
	for i := range idx {
		idx[i] = offset + int64(i)
	}
	return array.FromInt64s(idx), nil
}

// CGet gathers a whole column, in rank order, on the given root rank, or on
// every rank when root is comm.All. Non-target ranks return nil. Collective.
func (cat *Catalog) CGet(name string, root int) (*array.Array, error) {
	a, err := cat.Get(name)
	if err != nil {
		return nil, err
	}
	return cat.c.Gather(a, root)
}

// Copy returns a catalog sharing this one's column storage, with
// independently mutable column set and attrs.
func (cat *Catalog) Copy() *Catalog {
	data := array.NewColumns()
	for _, n := range cat.data.Names() {
		a, _ := cat.data.Get(n)
		data.Set(n, a)
	}
	attrs := make(map[string]any, len(cat.attrs))
	for k, v := range cat.attrs {
		attrs[k] = v
	}
	return &Catalog{
		c:      cat.c,
		root:   cat.root,
		logger: cat.logger,
		data:   data,
		attrs:  attrs,
		source: cat.source,
	}
}

// DeepCopy returns a catalog with deep-copied column storage.
func (cat *Catalog) DeepCopy() *Catalog {
	out := cat.Copy()
	out.data = cat.data.Clone()
	return out
}

// Zeros returns a zero-filled array with one row per local row.
func (cat *Catalog) Zeros(dtype array.DType, itemShape ...int) *array.Array {
	return array.Zeros(dtype, append([]int{cat.Size()}, itemShape...)...)
}

// Ones returns a one-filled array with one row per local row.
func (cat *Catalog) Ones(dtype array.DType, itemShape ...int) *array.Array {
	return array.Ones(dtype, append([]int{cat.Size()}, itemShape...)...)
}

// Full returns a constant-filled array with one row per local row.
func (cat *Catalog) Full(value float64, dtype array.DType, itemShape ...int) *array.Array {
	return array.Full(value, dtype, append([]int{cat.Size()}, itemShape...)...)
}

// Falses returns an all-false bool array with one row per local row.
func (cat *Catalog) Falses(itemShape ...int) *array.Array {
	return cat.Zeros(array.Bool, itemShape...)
}

// Trues returns an all-true bool array with one row per local row.
func (cat *Catalog) Trues(itemShape ...int) *array.Array {
	return cat.Full(1, array.Bool, itemShape...)
}

// NaNs returns an all-NaN float64 array with one row per local row.
func (cat *Catalog) NaNs(itemShape ...int) *array.Array {
	return cat.Full(math.NaN(), array.Float64, itemShape...)
}

// ToRecords packs this rank's rows of the named columns (all resident
// columns when names is empty) into array-of-structs bytes, returning the
// field layout alongside. Backed columns are materialized first.
func (cat *Catalog) ToRecords(names ...string) ([]array.Field, []byte, error) {
	if len(names) == 0 {
		names = cat.data.Names()
	}
	cols := array.NewColumns()
	for _, n := range names {
		a, err := cat.Get(n)
		if err != nil {
			return nil, nil, err
		}
		cols.Set(n, a)
	}
	buf, err := cols.PackRows()
	if err != nil {
		return nil, nil, err
	}
	return cols.Fields(), buf, nil
}

// FromRecords builds a detached catalog from array-of-structs bytes holding
// this rank's rows, the inverse of ToRecords.
func FromRecords(c comm.Communicator, fields []array.Field, rows int, buf []byte, optFns ...func(o *Options)) (*Catalog, error) {
	cols, err := array.UnpackRows(fields, rows, buf)
	if err != nil {
		return nil, err
	}
	return New(c, append(optFns, WithData(cols))...), nil
}

// String describes this rank's view.
func (cat *Catalog) String() string {
	return fmt.Sprintf("Catalog(rank=%d, rows=%d, columns=%v)", cat.c.Rank(), cat.Size(), cat.data.Names())
}
