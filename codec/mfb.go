package codec

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"os"

	gojson "github.com/goccy/go-json"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"

	"github.com/Jiaxi-Yu/mockfactory/array"
)

// mfbMagic opens every mfb file. The format is self-describing: a JSON
// header carries the column layout and the compression name, so files
// written with one configuration are readable by any adapter instance.
var mfbMagic = [4]byte{'M', 'F', 'B', '1'}

// Compression selects the per-column block compression of mfb files.
type Compression string

const (
	// CompressionNone stores raw little-endian blocks.
	CompressionNone Compression = "none"
	// CompressionZstd compresses blocks with zstd (the default).
	CompressionZstd Compression = "zstd"
	// CompressionLZ4 compresses blocks with lz4 frames.
	CompressionLZ4 Compression = "lz4"
)

// MFBOptions configures the mfb adapter.
type MFBOptions struct {
	// Compression applies to newly written files only; reads follow the
	// file header.
	Compression Compression
}

// DefaultMFBOptions are the options used when none are given.
var DefaultMFBOptions = MFBOptions{
	Compression: CompressionZstd,
}

// MFB is the native columnar reference adapter: a JSON header describing
// dtype, item shape and block placement per column, followed by one
// independently compressed little-endian block per column. Serving a row
// range decodes a single column block, never the whole file.
type MFB struct {
	opts MFBOptions
	enc  *zstd.Encoder
	dec  *zstd.Decoder
}

var _ Adapter = (*MFB)(nil)

// NewMFB creates an mfb adapter.
func NewMFB(optFns ...func(o *MFBOptions)) *MFB {
	opts := DefaultMFBOptions
	for _, fn := range optFns {
		fn(&opts)
	}
	// Default-configured zstd constructors cannot fail.
	enc, _ := zstd.NewWriter(nil)
	dec, _ := zstd.NewReader(nil)
	return &MFB{opts: opts, enc: enc, dec: dec}
}

// WithCompression sets the block compression for written files.
func WithCompression(c Compression) func(o *MFBOptions) {
	return func(o *MFBOptions) {
		o.Compression = c
	}
}

// Ext returns "mfb".
func (a *MFB) Ext() string { return "mfb" }

type mfbColumn struct {
	Name      string `json:"name"`
	DType     string `json:"dtype"`
	ItemShape []int  `json:"item_shape,omitempty"`
	Offset    int64  `json:"offset"`
	Size      int64  `json:"size"`
	RawSize   int64  `json:"raw_size"`
}

type mfbHeader struct {
	Rows        int            `json:"rows"`
	Compression Compression    `json:"compression"`
	Attrs       map[string]any `json:"attrs,omitempty"`
	Columns     []mfbColumn    `json:"columns"`
}

func (a *MFB) compress(c Compression, raw []byte) ([]byte, error) {
	switch c {
	case CompressionNone:
		return raw, nil
	case CompressionZstd:
		return a.enc.EncodeAll(raw, nil), nil
	case CompressionLZ4:
		var buf bytes.Buffer
		zw := lz4.NewWriter(&buf)
		if _, err := zw.Write(raw); err != nil {
			return nil, err
		}
		if err := zw.Close(); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	default:
		return nil, fmt.Errorf("mfb: unknown compression %q", c)
	}
}

func (a *MFB) decompress(c Compression, stored []byte, rawSize int64) ([]byte, error) {
	switch c {
	case CompressionNone:
		return stored, nil
	case CompressionZstd:
		return a.dec.DecodeAll(stored, make([]byte, 0, rawSize))
	case CompressionLZ4:
		zr := lz4.NewReader(bytes.NewReader(stored))
		raw := make([]byte, rawSize)
		if _, err := io.ReadFull(zr, raw); err != nil {
			return nil, err
		}
		return raw, nil
	default:
		return nil, fmt.Errorf("mfb: unknown compression %q", c)
	}
}

// readHeader parses the magic and JSON header and returns the offset of the
// data section.
func (a *MFB) readHeader(f *os.File, name string) (*mfbHeader, int64, error) {
	var fixed [8]byte
	if _, err := io.ReadFull(f, fixed[:]); err != nil {
		return nil, 0, fmt.Errorf("%w: %s: short header", ErrCorrupt, name)
	}
	if [4]byte(fixed[:4]) != mfbMagic {
		return nil, 0, fmt.Errorf("%w: %s: not an mfb file", ErrCorrupt, name)
	}
	hlen := binary.LittleEndian.Uint32(fixed[4:])
	raw := make([]byte, hlen)
	if _, err := io.ReadFull(f, raw); err != nil {
		return nil, 0, fmt.Errorf("%w: %s: truncated header", ErrCorrupt, name)
	}
	var hdr mfbHeader
	if err := gojson.Unmarshal(raw, &hdr); err != nil {
		return nil, 0, fmt.Errorf("%w: %s: %v", ErrCorrupt, name, err)
	}
	return &hdr, int64(8 + hlen), nil
}

func (a *MFB) open(name string) (*os.File, error) {
	f, err := os.Open(name)
	if os.IsNotExist(err) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	return f, err
}

// ReadHeader reports the file's row count, columns and metadata.
func (a *MFB) ReadHeader(name string) (*Header, error) {
	f, err := a.open(name)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	hdr, _, err := a.readHeader(f, name)
	if err != nil {
		return nil, err
	}
	columns := make([]string, len(hdr.Columns))
	for i, col := range hdr.Columns {
		columns[i] = col.Name
	}
	return &Header{Rows: hdr.Rows, Columns: columns, Attrs: hdr.Attrs}, nil
}

// ReadSlice reads rows [start, stop) of one column.
func (a *MFB) ReadSlice(name, column string, start, stop int) (*array.Array, error) {
	f, err := a.open(name)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	hdr, dataStart, err := a.readHeader(f, name)
	if err != nil {
		return nil, err
	}
	if start < 0 || stop < start || stop > hdr.Rows {
		return nil, fmt.Errorf("mfb: %s: rows [%d:%d] out of range for %d rows", name, start, stop, hdr.Rows)
	}
	for _, col := range hdr.Columns {
		if col.Name != column {
			continue
		}
		dtype, ok := array.DTypeByName(col.DType)
		if !ok {
			return nil, fmt.Errorf("%w: %s: column %q has dtype %q", ErrUnsupportedLayout, name, column, col.DType)
		}
		stored := make([]byte, col.Size)
		if _, err := f.ReadAt(stored, dataStart+col.Offset); err != nil {
			return nil, fmt.Errorf("%w: %s: column %q block: %v", ErrCorrupt, name, column, err)
		}
		raw, err := a.decompress(hdr.Compression, stored, col.RawSize)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: column %q: %v", ErrCorrupt, name, column, err)
		}
		full, err := array.DecodeLE(dtype, append([]int{hdr.Rows}, col.ItemShape...), raw)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: column %q: %v", ErrCorrupt, name, column, err)
		}
		return full.Slice(start, stop), nil
	}
	return nil, fmt.Errorf("mfb: %s has no column %q", name, column)
}

// WriteSlice creates or overwrites name with the given column set. The file
// is staged next to its final path and renamed into place.
func (a *MFB) WriteSlice(name string, cols *array.Columns, attrs map[string]any) error {
	if err := cols.Validate(); err != nil {
		return err
	}
	hdr := mfbHeader{
		Rows:        cols.Rows(),
		Compression: a.opts.Compression,
		Attrs:       attrs,
	}
	var data []byte
	for _, field := range cols.Fields() {
		col, _ := cols.Get(field.Name)
		raw := col.EncodeLE(nil)
		stored, err := a.compress(a.opts.Compression, raw)
		if err != nil {
			return fmt.Errorf("mfb: %s: column %q: %w", name, field.Name, err)
		}
		hdr.Columns = append(hdr.Columns, mfbColumn{
			Name:      field.Name,
			DType:     field.DType.String(),
			ItemShape: field.ItemShape,
			Offset:    int64(len(data)),
			Size:      int64(len(stored)),
			RawSize:   int64(len(raw)),
		})
		data = append(data, stored...)
	}

	hjson, err := gojson.Marshal(hdr)
	if err != nil {
		return fmt.Errorf("mfb: %s: %w", name, err)
	}
	buf := make([]byte, 0, 8+len(hjson)+len(data))
	buf = append(buf, mfbMagic[:]...)
	buf = binary.LittleEndian.AppendUint32(buf, uint32(len(hjson)))
	buf = append(buf, hjson...)
	buf = append(buf, data...)

	tmp := name + ".tmp"
	if err := os.WriteFile(tmp, buf, 0o644); err != nil {
		return fmt.Errorf("mfb: %s: %w", name, err)
	}
	if err := os.Rename(tmp, name); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("mfb: %s: %w", name, err)
	}
	return nil
}
