// Package array implements the dense, fixed-dtype arrays the catalog and
// partitioned files trade in.
//
// An Array is row-major: the first axis is the row count, trailing axes form
// the fixed per-row item shape. Arrays serialize to little-endian bytes, so
// the same payload is valid across processes and on disk.
package array
