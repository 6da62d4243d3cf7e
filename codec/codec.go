// Package codec defines the adapter contract a physical file format must
// satisfy to back a partitioned file, and ships two reference adapters: the
// native mfb columnar format and a parquet adapter for scalar columns.
//
// The partitioned-file layer only ever asks an adapter three things: describe
// a file (row count, column names, metadata), serve a contiguous row range of
// one column, or write a full column set to one file. Byte-level encoding,
// compression and record packing are the adapter's business; the array
// package provides both the struct-of-arrays and array-of-structs layouts.
package codec

import (
	"errors"

	"github.com/Jiaxi-Yu/mockfactory/array"
)

var (
	// ErrNotFound is returned when a physical file does not exist.
	ErrNotFound = errors.New("file not found")
	// ErrCorrupt is returned when a file exists but cannot be decoded.
	ErrCorrupt = errors.New("corrupt file")
	// ErrUnsupportedLayout is returned when a file or column uses a layout
	// the adapter cannot express (e.g. non-scalar items in parquet).
	ErrUnsupportedLayout = errors.New("unsupported layout")
)

// Header is what an adapter reports about one physical file.
type Header struct {
	// Rows is the file's row count.
	Rows int
	// Columns lists the column names, in file order.
	Columns []string
	// Attrs is the file-level metadata dictionary.
	Attrs map[string]any
	// Extra carries format-specific header fields that must survive the
	// coordinator broadcast (e.g. a selected extension or group).
	Extra map[string]any
}

// Adapter is the per-format plugin behind a partitioned file.
//
// Implementations must be safe for concurrent reads of distinct files; the
// core never writes one file from two processes.
type Adapter interface {
	// ReadHeader introspects one file. It fails with ErrNotFound,
	// ErrCorrupt or ErrUnsupportedLayout as appropriate.
	ReadHeader(name string) (*Header, error)
	// ReadSlice reads rows [start, stop) of one column.
	ReadSlice(name, column string, start, stop int) (*array.Array, error)
	// WriteSlice creates or overwrites one file with the given column set
	// and metadata.
	WriteSlice(name string, cols *array.Columns, attrs map[string]any) error
	// Ext returns the conventional file extension, without the dot.
	Ext() string
}
