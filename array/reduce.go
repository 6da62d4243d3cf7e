package array

import "fmt"

type number interface {
	~int32 | ~int64 | ~float32 | ~float64
}

// reduceAxis folds f over one axis of a flattened row-major block.
func reduceAxis[T number](src []T, outer, axisLen, inner int, f func(T, T) T) []T {
	out := make([]T, outer*inner)
	for o := 0; o < outer; o++ {
		base := o * axisLen * inner
		for in := 0; in < inner; in++ {
			acc := src[base+in]
			for k := 1; k < axisLen; k++ {
				acc = f(acc, src[base+k*inner+in])
			}
			out[o*inner+in] = acc
		}
	}
	return out
}

func (a *Array) axisSpans(axis int) (outer, axisLen, inner int, shape []int, err error) {
	if axis < 0 || axis >= len(a.shape) {
		return 0, 0, 0, nil, fmt.Errorf("array: axis %d out of range for shape %v", axis, a.shape)
	}
	axisLen = a.shape[axis]
	if axisLen == 0 {
		return 0, 0, 0, nil, fmt.Errorf("array: reduction over empty axis %d", axis)
	}
	outer, inner = 1, 1
	for _, s := range a.shape[:axis] {
		outer *= s
	}
	for _, s := range a.shape[axis+1:] {
		inner *= s
	}
	shape = append(append([]int(nil), a.shape[:axis]...), a.shape[axis+1:]...)
	return outer, axisLen, inner, shape, nil
}

func (a *Array) reduce(axis int, fi64 func(int64, int64) int64, ff64 func(float64, float64) float64) (*Array, error) {
	outer, axisLen, inner, shape, err := a.axisSpans(axis)
	if err != nil {
		return nil, err
	}
	switch d := a.data.(type) {
	case []int32:
		return &Array{dtype: Int32, shape: shape, data: reduceAxis(d, outer, axisLen, inner,
			func(x, y int32) int32 { return int32(fi64(int64(x), int64(y))) })}, nil
	case []int64:
		return &Array{dtype: Int64, shape: shape, data: reduceAxis(d, outer, axisLen, inner, fi64)}, nil
	case []float32:
		return &Array{dtype: Float32, shape: shape, data: reduceAxis(d, outer, axisLen, inner,
			func(x, y float32) float32 { return float32(ff64(float64(x), float64(y))) })}, nil
	case []float64:
		return &Array{dtype: Float64, shape: shape, data: reduceAxis(d, outer, axisLen, inner, ff64)}, nil
	default:
		return nil, fmt.Errorf("array: cannot reduce %s arrays", a.dtype)
	}
}

// SumAxis sums along the given axis, preserving the dtype.
func (a *Array) SumAxis(axis int) (*Array, error) {
	return a.reduce(axis,
		func(x, y int64) int64 { return x + y },
		func(x, y float64) float64 { return x + y })
}

// MinAxis takes the minimum along the given axis.
func (a *Array) MinAxis(axis int) (*Array, error) {
	return a.reduce(axis,
		func(x, y int64) int64 { return min(x, y) },
		func(x, y float64) float64 { return min(x, y) })
}

// MaxAxis takes the maximum along the given axis.
func (a *Array) MaxAxis(axis int) (*Array, error) {
	return a.reduce(axis,
		func(x, y int64) int64 { return max(x, y) },
		func(x, y float64) float64 { return max(x, y) })
}

// WeightedSumAxis0 returns, for each item-shape position, the float64 sum of
// weights[r]*a[r] over all rows, together with the sum of weights. A nil
// weights array means unit weights. weights must be one-dimensional with one
// entry per row.
func (a *Array) WeightedSumAxis0(weights *Array) (*Array, float64, error) {
	rows := a.Rows()
	if rows == 0 {
		return nil, 0, fmt.Errorf("array: weighted sum over empty array")
	}
	var w []float64
	if weights != nil {
		if len(weights.Shape()) != 1 || weights.Rows() != rows {
			return nil, 0, fmt.Errorf("array: weights shape %v does not match %d rows", weights.Shape(), rows)
		}
		w = weights.Float64s()
	}
	vals := a.Float64s()
	itemLen := a.ItemLen()
	num := make([]float64, itemLen)
	wsum := 0.0
	for r := 0; r < rows; r++ {
		wr := 1.0
		if w != nil {
			wr = w[r]
		}
		wsum += wr
		for i := 0; i < itemLen; i++ {
			num[i] += wr * vals[r*itemLen+i]
		}
	}
	return &Array{dtype: Float64, shape: append([]int(nil), a.ItemShape()...), data: num}, wsum, nil
}

// BinOp is an elementwise combination of two equally-shaped arrays.
type BinOp uint8

const (
	// OpSum adds elements.
	OpSum BinOp = iota + 1
	// OpMin keeps the smaller element.
	OpMin
	// OpMax keeps the larger element.
	OpMax
)

// Combine applies op elementwise. Both arrays must share dtype and shape.
func Combine(a, b *Array, op BinOp) (*Array, error) {
	if a.dtype != b.dtype || a.FlatLen() != b.FlatLen() {
		return nil, fmt.Errorf("array: combine mismatch: %s vs %s", a, b)
	}
	var fi64 func(int64, int64) int64
	var ff64 func(float64, float64) float64
	switch op {
	case OpSum:
		fi64 = func(x, y int64) int64 { return x + y }
		ff64 = func(x, y float64) float64 { return x + y }
	case OpMin:
		fi64 = func(x, y int64) int64 { return min(x, y) }
		ff64 = func(x, y float64) float64 { return min(x, y) }
	case OpMax:
		fi64 = func(x, y int64) int64 { return max(x, y) }
		ff64 = func(x, y float64) float64 { return max(x, y) }
	default:
		return nil, fmt.Errorf("array: unknown op %d", op)
	}
	out := Zeros(a.dtype, a.shape...)
	switch d := out.data.(type) {
	case []int32:
		x, y := a.data.([]int32), b.data.([]int32)
		for i := range d {
			d[i] = int32(fi64(int64(x[i]), int64(y[i])))
		}
	case []int64:
		x, y := a.data.([]int64), b.data.([]int64)
		for i := range d {
			d[i] = fi64(x[i], y[i])
		}
	case []float32:
		x, y := a.data.([]float32), b.data.([]float32)
		for i := range d {
			d[i] = float32(ff64(float64(x[i]), float64(y[i])))
		}
	case []float64:
		x, y := a.data.([]float64), b.data.([]float64)
		for i := range d {
			d[i] = ff64(x[i], y[i])
		}
	default:
		return nil, fmt.Errorf("array: cannot combine %s arrays", a.dtype)
	}
	return out, nil
}
