// Package pfile implements the partitioned file: one logical table spread
// over one or more physical files, read and written collectively by a fixed
// process group.
//
// The two partitionings are independent: rows are assigned to processes by
// even division of the global total, and to files by whatever row counts the
// files happen to carry (on read) or by even division over the file list (on
// write). The mapping between them is pure index arithmetic over prefix
// sums, so block boundaries never need to align with file boundaries.
package pfile

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"maps"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/Jiaxi-Yu/mockfactory/codec"
	"github.com/Jiaxi-Yu/mockfactory/comm"
)

// ErrInvalidMode is returned for an open mode outside "", "r", "w", "rw".
var ErrInvalidMode = errors.New("mode must be one of \"\", \"r\", \"w\", \"rw\"")

// SchemaMismatchError reports a physical file whose columns are not a subset
// of the first file's.
type SchemaMismatchError struct {
	File  string
	Extra []string
}

func (e *SchemaMismatchError) Error() string {
	return fmt.Sprintf("schema mismatch: %s declares extra columns %v", e.File, e.Extra)
}

// Options configures a partitioned file.
type Options struct {
	// Attrs seeds the metadata dictionary. Keys present here win over keys
	// read from file headers.
	Attrs map[string]any
	// Root is the coordinating rank that reads headers and writes files.
	Root int
	// Logger receives open/save progress from the coordinating rank.
	Logger *slog.Logger
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

// WithRoot sets the coordinating rank.
func WithRoot(root int) func(o *Options) {
	return func(o *Options) {
		o.Root = root
	}
}

// WithLogger sets the progress logger.
func WithLogger(logger *slog.Logger) func(o *Options) {
	return func(o *Options) {
		o.Logger = logger
	}
}

// File is one logical table over a list of physical files, bound to a
// process group. All methods are collective: every rank of the group must
// call them in the same order with compatible arguments.
type File struct {
	c       comm.Communicator
	adapter codec.Adapter
	names   []string
	attrs   map[string]any
	extra   map[string]any
	root    int
	logger  *slog.Logger

	opened  bool
	sizes   []int // per-file row counts
	columns []string
	total   int
	start   int // this rank's global interval [start, stop)
	stop    int
}

// headerState is what the coordinating rank broadcasts after merging every
// physical file's header.
type headerState struct {
	Sizes   []int
	Columns []string
	Attrs   map[string]any
	Extra   map[string]any
}

// Open binds a partitioned file to a process group. Mode "r" (or "rw") reads
// and merges the physical headers immediately; "" defers that to the first
// Read; "w" opens for writing only.
func Open(c comm.Communicator, adapter codec.Adapter, names []string, mode string, optFns ...func(o *Options)) (*File, error) {
	opts := DefaultOptions
	for _, fn := range optFns {
		fn(&opts)
	}
	switch strings.ToLower(mode) {
	case "", "r", "w", "rw":
	default:
		return nil, fmt.Errorf("%w, got %q", ErrInvalidMode, mode)
	}
	if len(names) == 0 {
		return nil, fmt.Errorf("pfile: at least one file name is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	f := &File{
		c:       c,
		adapter: adapter,
		names:   append([]string(nil), names...),
		attrs:   maps.Clone(opts.Attrs),
		root:    opts.Root,
		logger:  logger,
	}
	if f.attrs == nil {
		f.attrs = make(map[string]any)
	}
	if strings.Contains(strings.ToLower(mode), "r") {
		if err := f.readHeader(); err != nil {
			return nil, err
		}
	}
	return f, nil
}

func (f *File) isRoot() bool { return f.c.Rank() == f.root }

// collectHeader runs on the coordinating rank only.
func (f *File) collectHeader() (*headerState, error) {
	state := &headerState{
		Attrs: maps.Clone(f.attrs),
		Extra: make(map[string]any),
	}
	for _, name := range f.names {
		f.logger.Info("loading", "file", name)
		hdr, err := f.adapter.ReadHeader(name)
		if err != nil {
			return nil, err
		}
		state.Sizes = append(state.Sizes, hdr.Rows)
		if state.Columns == nil {
			state.Columns = append([]string(nil), hdr.Columns...)
		} else if extra := subtract(hdr.Columns, state.Columns); len(extra) > 0 {
			return nil, &SchemaMismatchError{File: name, Extra: extra}
		}
		firstWins(state.Attrs, hdr.Attrs)
		firstWins(state.Extra, hdr.Extra)
	}
	return state, nil
}

// readHeader merges headers on the coordinating rank, broadcasts the result
// and derives this rank's row interval. Failures are raised on every rank.
func (f *File) readHeader() error {
	var state *headerState
	var err error
	if f.isRoot() {
		state, err = f.collectHeader()
	}
	if err := comm.SyncErr(f.c, f.root, err); err != nil {
		return err
	}
	v, err := f.c.Bcast(state, f.root)
	if err != nil {
		return err
	}
	f.applyHeader(v.(*headerState))
	return nil
}

// applyHeader installs a broadcast header, deep-copying shared state, and
// recomputes the rank interval from the global total.
func (f *File) applyHeader(state *headerState) {
	f.sizes = append([]int(nil), state.Sizes...)
	f.columns = append([]string(nil), state.Columns...)
	f.attrs = maps.Clone(state.Attrs)
	if f.attrs == nil {
		f.attrs = make(map[string]any)
	}
	f.extra = maps.Clone(state.Extra)
	f.recomputeInterval()
	f.opened = true
}

func (f *File) recomputeInterval() {
	f.total = 0
	for _, s := range f.sizes {
		f.total += s
	}
	rank, size := f.c.Rank(), f.c.Size()
	f.start = rank * f.total / size
	f.stop = (rank + 1) * f.total / size
}

// firstWins copies src keys into dst only where dst has no value yet.
func firstWins(dst, src map[string]any) {
	for k, v := range src {
		if _, ok := dst[k]; !ok {
			dst[k] = v
		}
	}
}

// subtract returns the members of set not present in base.
func subtract(set, base []string) []string {
	have := make(map[string]bool, len(base))
	for _, s := range base {
		have[s] = true
	}
	var extra []string
	for _, s := range set {
		if !have[s] {
			extra = append(extra, s)
		}
	}
	sort.Strings(extra)
	return extra
}

// Names returns the physical file names.
func (f *File) Names() []string { return append([]string(nil), f.names...) }

// Columns returns the merged column names. The header must have been read.
func (f *File) Columns() []string { return append([]string(nil), f.columns...) }

// HasColumn reports whether the merged schema declares the column.
func (f *File) HasColumn(column string) bool {
	for _, c := range f.columns {
		if c == column {
			return true
		}
	}
	return false
}

// DropColumn removes a column from the merged schema so it is no longer
// offered. The physical files are untouched.
func (f *File) DropColumn(column string) {
	cols := f.columns[:0]
	for _, c := range f.columns {
		if c != column {
			cols = append(cols, c)
		}
	}
	f.columns = cols
}

// Attrs returns the merged metadata dictionary.
func (f *File) Attrs() map[string]any { return f.attrs }

// Sizes returns the per-file row counts.
func (f *File) Sizes() []int { return append([]int(nil), f.sizes...) }

// GlobalRows returns the total row count over all files.
func (f *File) GlobalRows() int { return f.total }

// LocalRows returns the number of rows assigned to this rank.
func (f *File) LocalRows() int { return f.stop - f.start }

// Interval returns this rank's assigned global row interval [start, stop).
func (f *File) Interval() (start, stop int) { return f.start, f.stop }

// Comm returns the process group the file is bound to.
func (f *File) Comm() comm.Communicator { return f.c }

// String describes the file set.
func (f *File) String() string {
	return fmt.Sprintf("pfile.File(files=%d, rows=%d, columns=%v)", len(f.names), f.total, f.columns)
}

// mkdirAll creates every output directory once, before any file write.
func (f *File) mkdirAll() error {
	done := make(map[string]bool)
	for _, name := range f.names {
		dir := filepath.Dir(name)
		if dir == "" || dir == "." || done[dir] {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
		done[dir] = true
	}
	return nil
}
