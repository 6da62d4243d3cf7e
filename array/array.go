package array

import (
	"encoding/binary"
	"fmt"
	"math"
)

// DType identifies the element type of an Array.
type DType uint8

const (
	// Invalid is the zero DType.
	Invalid DType = iota
	// Bool is a one-byte boolean element.
	Bool
	// Int32 is a little-endian signed 32-bit element.
	Int32
	// Int64 is a little-endian signed 64-bit element.
	Int64
	// Float32 is a little-endian IEEE-754 32-bit element.
	Float32
	// Float64 is a little-endian IEEE-754 64-bit element.
	Float64
)

// String returns the stable on-disk name of the dtype.
func (d DType) String() string {
	switch d {
	case Bool:
		return "bool"
	case Int32:
		return "int32"
	case Int64:
		return "int64"
	case Float32:
		return "float32"
	case Float64:
		return "float64"
	default:
		return fmt.Sprintf("dtype(%d)", uint8(d))
	}
}

// DTypeByName returns a DType by its stable name.
func DTypeByName(name string) (DType, bool) {
	switch name {
	case "bool":
		return Bool, true
	case "int32":
		return Int32, true
	case "int64":
		return Int64, true
	case "float32":
		return Float32, true
	case "float64":
		return Float64, true
	default:
		return Invalid, false
	}
}

// ItemBytes returns the encoded size of one element.
func (d DType) ItemBytes() int {
	switch d {
	case Bool:
		return 1
	case Int32, Float32:
		return 4
	default:
		return 8
	}
}

// Array is a dense row-major array with a fixed dtype.
//
// The first axis is the row count; trailing axes are the fixed item shape.
// A scalar (shape-less) Array has an empty shape and exactly one element.
type Array struct {
	dtype DType
	shape []int
	// data is one of []bool, []int32, []int64, []float32, []float64,
	// flattened row-major, len == product(shape).
	data any
}

func prod(shape []int) int {
	n := 1
	for _, s := range shape {
		n *= s
	}
	return n
}

func alloc(dtype DType, n int) (any, error) {
	switch dtype {
	case Bool:
		return make([]bool, n), nil
	case Int32:
		return make([]int32, n), nil
	case Int64:
		return make([]int64, n), nil
	case Float32:
		return make([]float32, n), nil
	case Float64:
		return make([]float64, n), nil
	default:
		return nil, fmt.Errorf("array: unsupported dtype %s", dtype)
	}
}

// Zeros returns a zero-filled array of the given dtype and shape.
func Zeros(dtype DType, shape ...int) *Array {
	data, err := alloc(dtype, prod(shape))
	if err != nil {
		panic(err)
	}
	return &Array{dtype: dtype, shape: append([]int(nil), shape...), data: data}
}

// Full returns an array of the given dtype and shape with every element set
// to value (cast to the dtype).
func Full(value float64, dtype DType, shape ...int) *Array {
	a := Zeros(dtype, shape...)
	switch d := a.data.(type) {
	case []bool:
		for i := range d {
			d[i] = value != 0
		}
	case []int32:
		for i := range d {
			d[i] = int32(value)
		}
	case []int64:
		for i := range d {
			d[i] = int64(value)
		}
	case []float32:
		for i := range d {
			d[i] = float32(value)
		}
	case []float64:
		for i := range d {
			d[i] = value
		}
	}
	return a
}

// Ones returns a one-filled array of the given dtype and shape.
func Ones(dtype DType, shape ...int) *Array {
	return Full(1, dtype, shape...)
}

// FromFloat64s wraps vals as a one-dimensional float64 array. The slice is
// not copied.
func FromFloat64s(vals []float64) *Array {
	return &Array{dtype: Float64, shape: []int{len(vals)}, data: vals}
}

// FromFloat32s wraps vals as a one-dimensional float32 array.
func FromFloat32s(vals []float32) *Array {
	return &Array{dtype: Float32, shape: []int{len(vals)}, data: vals}
}

// FromInt64s wraps vals as a one-dimensional int64 array.
func FromInt64s(vals []int64) *Array {
	return &Array{dtype: Int64, shape: []int{len(vals)}, data: vals}
}

// FromInt32s wraps vals as a one-dimensional int32 array.
func FromInt32s(vals []int32) *Array {
	return &Array{dtype: Int32, shape: []int{len(vals)}, data: vals}
}

// FromBools wraps vals as a one-dimensional bool array.
func FromBools(vals []bool) *Array {
	return &Array{dtype: Bool, shape: []int{len(vals)}, data: vals}
}

// Arange returns [0, 1, ..., n-1] as an int64 array.
func Arange(n int) *Array {
	vals := make([]int64, n)
	for i := range vals {
		vals[i] = int64(i)
	}
	return FromInt64s(vals)
}

// Reshape returns a view of a with the given shape. The total element count
// must be unchanged.
func (a *Array) Reshape(shape ...int) (*Array, error) {
	if prod(shape) != a.FlatLen() {
		return nil, fmt.Errorf("array: cannot reshape %v into %v", a.shape, shape)
	}
	return &Array{dtype: a.dtype, shape: append([]int(nil), shape...), data: a.data}, nil
}

// DType returns the element type.
func (a *Array) DType() DType { return a.dtype }

// Shape returns the full shape. The returned slice must not be mutated.
func (a *Array) Shape() []int { return a.shape }

// Rows returns the length of the first axis, or 1 for a scalar array.
func (a *Array) Rows() int {
	if len(a.shape) == 0 {
		return 1
	}
	return a.shape[0]
}

// ItemShape returns the trailing axes shared by every row.
func (a *Array) ItemShape() []int {
	if len(a.shape) == 0 {
		return nil
	}
	return a.shape[1:]
}

// ItemLen returns the number of elements in one row.
func (a *Array) ItemLen() int {
	return prod(a.ItemShape())
}

// FlatLen returns the total number of elements.
func (a *Array) FlatLen() int { return prod(a.shape) }

// NumBytes returns the encoded payload size.
func (a *Array) NumBytes() int { return a.FlatLen() * a.dtype.ItemBytes() }

// Slice returns a view of rows [lo, hi). The backing storage is shared.
func (a *Array) Slice(lo, hi int) *Array {
	n := a.Rows()
	if lo < 0 || hi < lo || hi > n {
		panic(fmt.Sprintf("array: slice [%d:%d] out of range for %d rows", lo, hi, n))
	}
	shape := append([]int{hi - lo}, a.ItemShape()...)
	w := a.ItemLen()
	var data any
	switch d := a.data.(type) {
	case []bool:
		data = d[lo*w : hi*w]
	case []int32:
		data = d[lo*w : hi*w]
	case []int64:
		data = d[lo*w : hi*w]
	case []float32:
		data = d[lo*w : hi*w]
	case []float64:
		data = d[lo*w : hi*w]
	}
	return &Array{dtype: a.dtype, shape: shape, data: data}
}

// Clone returns a deep copy.
func (a *Array) Clone() *Array {
	out := Zeros(a.dtype, a.shape...)
	copyData(out.data, a.data)
	return out
}

func copyData(dst, src any) {
	switch d := dst.(type) {
	case []bool:
		copy(d, src.([]bool))
	case []int32:
		copy(d, src.([]int32))
	case []int64:
		copy(d, src.([]int64))
	case []float32:
		copy(d, src.([]float32))
	case []float64:
		copy(d, src.([]float64))
	}
}

// Equal reports whether a and b have the same dtype, shape and elements.
func Equal(a, b *Array) bool {
	if a == nil || b == nil {
		return a == b
	}
	if a.dtype != b.dtype || len(a.shape) != len(b.shape) {
		return false
	}
	for i := range a.shape {
		if a.shape[i] != b.shape[i] {
			return false
		}
	}
	switch d := a.data.(type) {
	case []bool:
		e := b.data.([]bool)
		for i := range d {
			if d[i] != e[i] {
				return false
			}
		}
	case []int32:
		e := b.data.([]int32)
		for i := range d {
			if d[i] != e[i] {
				return false
			}
		}
	case []int64:
		e := b.data.([]int64)
		for i := range d {
			if d[i] != e[i] {
				return false
			}
		}
	case []float32:
		e := b.data.([]float32)
		for i := range d {
			if d[i] != e[i] {
				return false
			}
		}
	case []float64:
		e := b.data.([]float64)
		for i := range d {
			if d[i] != e[i] {
				return false
			}
		}
	}
	return true
}

// SameLayout reports whether a and b share dtype and item shape, i.e. rows of
// one could be appended to the other.
func SameLayout(a, b *Array) bool {
	if a.dtype != b.dtype || len(a.ItemShape()) != len(b.ItemShape()) {
		return false
	}
	for i, s := range a.ItemShape() {
		if b.ItemShape()[i] != s {
			return false
		}
	}
	return true
}

// Concat concatenates arrays along the row axis. All inputs must share dtype
// and item shape.
func Concat(arrays ...*Array) (*Array, error) {
	if len(arrays) == 0 {
		return nil, fmt.Errorf("array: concat of zero arrays")
	}
	first := arrays[0]
	rows := 0
	for _, a := range arrays {
		if !SameLayout(first, a) {
			return nil, fmt.Errorf("array: concat layout mismatch: %s%v vs %s%v",
				first.dtype, first.ItemShape(), a.dtype, a.ItemShape())
		}
		rows += a.Rows()
	}
	out := Zeros(first.dtype, append([]int{rows}, first.ItemShape()...)...)
	off := 0
	for _, a := range arrays {
		n := a.FlatLen()
		switch d := out.data.(type) {
		case []bool:
			copy(d[off:], a.data.([]bool))
		case []int32:
			copy(d[off:], a.data.([]int32))
		case []int64:
			copy(d[off:], a.data.([]int64))
		case []float32:
			copy(d[off:], a.data.([]float32))
		case []float64:
			copy(d[off:], a.data.([]float64))
		}
		off += n
	}
	return out, nil
}

// Float64s returns the elements as float64. The result aliases the backing
// storage only when the dtype is already Float64.
func (a *Array) Float64s() []float64 {
	switch d := a.data.(type) {
	case []float64:
		return d
	case []float32:
		out := make([]float64, len(d))
		for i, v := range d {
			out[i] = float64(v)
		}
		return out
	case []int32:
		out := make([]float64, len(d))
		for i, v := range d {
			out[i] = float64(v)
		}
		return out
	case []int64:
		out := make([]float64, len(d))
		for i, v := range d {
			out[i] = float64(v)
		}
		return out
	case []bool:
		out := make([]float64, len(d))
		for i, v := range d {
			if v {
				out[i] = 1
			}
		}
		return out
	default:
		return nil
	}
}

// Int64s returns the elements as int64, truncating floats.
func (a *Array) Int64s() []int64 {
	switch d := a.data.(type) {
	case []int64:
		return d
	case []int32:
		out := make([]int64, len(d))
		for i, v := range d {
			out[i] = int64(v)
		}
		return out
	case []float32:
		out := make([]int64, len(d))
		for i, v := range d {
			out[i] = int64(v)
		}
		return out
	case []float64:
		out := make([]int64, len(d))
		for i, v := range d {
			out[i] = int64(v)
		}
		return out
	case []bool:
		out := make([]int64, len(d))
		for i, v := range d {
			if v {
				out[i] = 1
			}
		}
		return out
	default:
		return nil
	}
}

// Bools returns the elements as bool; non-zero numeric elements map to true.
func (a *Array) Bools() []bool {
	switch d := a.data.(type) {
	case []bool:
		return d
	default:
		vals := a.Float64s()
		out := make([]bool, len(vals))
		for i, v := range vals {
			out[i] = v != 0
		}
		return out
	}
}

// EncodeLE appends the little-endian encoding of the elements to dst and
// returns the extended slice.
func (a *Array) EncodeLE(dst []byte) []byte {
	off := len(dst)
	dst = append(dst, make([]byte, a.NumBytes())...)
	buf := dst[off:]
	switch d := a.data.(type) {
	case []bool:
		for i, v := range d {
			if v {
				buf[i] = 1
			}
		}
	case []int32:
		for i, v := range d {
			binary.LittleEndian.PutUint32(buf[4*i:], uint32(v))
		}
	case []int64:
		for i, v := range d {
			binary.LittleEndian.PutUint64(buf[8*i:], uint64(v))
		}
	case []float32:
		for i, v := range d {
			binary.LittleEndian.PutUint32(buf[4*i:], math.Float32bits(v))
		}
	case []float64:
		for i, v := range d {
			binary.LittleEndian.PutUint64(buf[8*i:], math.Float64bits(v))
		}
	}
	return dst
}

// DecodeLE decodes a little-endian payload produced by EncodeLE.
func DecodeLE(dtype DType, shape []int, buf []byte) (*Array, error) {
	n := prod(shape)
	if want := n * dtype.ItemBytes(); len(buf) != want {
		return nil, fmt.Errorf("array: payload is %d bytes, want %d for %s%v", len(buf), want, dtype, shape)
	}
	a := Zeros(dtype, shape...)
	switch d := a.data.(type) {
	case []bool:
		for i := range d {
			d[i] = buf[i] != 0
		}
	case []int32:
		for i := range d {
			d[i] = int32(binary.LittleEndian.Uint32(buf[4*i:]))
		}
	case []int64:
		for i := range d {
			d[i] = int64(binary.LittleEndian.Uint64(buf[8*i:]))
		}
	case []float32:
		for i := range d {
			d[i] = math.Float32frombits(binary.LittleEndian.Uint32(buf[4*i:]))
		}
	case []float64:
		for i := range d {
			d[i] = math.Float64frombits(binary.LittleEndian.Uint64(buf[8*i:]))
		}
	}
	return a, nil
}

// String returns a short description, e.g. "float64[120 3]".
func (a *Array) String() string {
	return fmt.Sprintf("%s%v", a.dtype, a.shape)
}
