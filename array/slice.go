package array

import "fmt"

// Range selects rows the way a Python slice does: start/stop may be negative
// (counted from the end) or nil (open), and Step may be negative to walk
// backwards. The zero value selects every row.
type Range struct {
	Start *int
	Stop  *int
	Step  *int
}

// NewRange builds a fully-specified Range.
func NewRange(start, stop, step int) Range {
	return Range{Start: &start, Stop: &stop, Step: &step}
}

// Span builds a [start, stop) Range with unit step.
func Span(start, stop int) Range {
	return Range{Start: &start, Stop: &stop}
}

// indices resolves the range against n rows, mirroring Python's
// slice.indices: out-of-bounds endpoints are clipped, never an error.
func (r Range) indices(n int) (start, stop, step int, err error) {
	step = 1
	if r.Step != nil {
		step = *r.Step
	}
	if step == 0 {
		return 0, 0, 0, fmt.Errorf("array: slice step cannot be zero")
	}

	clip := func(v int, lo, hi int) int {
		if v < lo {
			return lo
		}
		if v > hi {
			return hi
		}
		return v
	}

	if step > 0 {
		start = 0
		if r.Start != nil {
			start = *r.Start
			if start < 0 {
				start += n
			}
			start = clip(start, 0, n)
		}
		stop = n
		if r.Stop != nil {
			stop = *r.Stop
			if stop < 0 {
				stop += n
			}
			stop = clip(stop, 0, n)
		}
		return start, stop, step, nil
	}

	start = n - 1
	if r.Start != nil {
		start = *r.Start
		if start < 0 {
			start += n
		}
		start = clip(start, -1, n-1)
	}
	stop = -1
	if r.Stop != nil {
		stop = *r.Stop
		if stop < 0 {
			stop += n
		}
		stop = clip(stop, -1, n-1)
	}
	return start, stop, step, nil
}

// Count returns how many rows the range selects out of n.
func (r Range) Count(n int) (int, error) {
	start, stop, step, err := r.indices(n)
	if err != nil {
		return 0, err
	}
	if step > 0 {
		if stop <= start {
			return 0, nil
		}
		return (stop - start + step - 1) / step, nil
	}
	if stop >= start {
		return 0, nil
	}
	return (start - stop - step - 1) / (-step), nil
}

// SliceRange returns a copy of the rows selected by r.
func (a *Array) SliceRange(r Range) (*Array, error) {
	n := a.Rows()
	start, _, step, err := r.indices(n)
	if err != nil {
		return nil, err
	}
	count, err := r.Count(n)
	if err != nil {
		return nil, err
	}
	out := Zeros(a.dtype, append([]int{count}, a.ItemShape()...)...)
	w := a.ItemLen()
	for i := 0; i < count; i++ {
		src := start + i*step
		copyRow(out, i, a, src, w)
	}
	return out, nil
}

func copyRow(dst *Array, di int, src *Array, si, w int) {
	switch d := dst.data.(type) {
	case []bool:
		copy(d[di*w:(di+1)*w], src.data.([]bool)[si*w:(si+1)*w])
	case []int32:
		copy(d[di*w:(di+1)*w], src.data.([]int32)[si*w:(si+1)*w])
	case []int64:
		copy(d[di*w:(di+1)*w], src.data.([]int64)[si*w:(si+1)*w])
	case []float32:
		copy(d[di*w:(di+1)*w], src.data.([]float32)[si*w:(si+1)*w])
	case []float64:
		copy(d[di*w:(di+1)*w], src.data.([]float64)[si*w:(si+1)*w])
	}
}
