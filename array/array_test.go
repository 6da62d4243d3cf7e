package array

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestZerosAndFull(t *testing.T) {
	a := Zeros(Float64, 4, 3)
	assert.Equal(t, []int{4, 3}, a.Shape())
	assert.Equal(t, 4, a.Rows())
	assert.Equal(t, []int{3}, a.ItemShape())
	assert.Equal(t, 12, a.FlatLen())
	assert.Equal(t, 96, a.NumBytes())

	b := Full(7, Int32, 2, 2)
	assert.Equal(t, []int64{7, 7, 7, 7}, b.Int64s())

	c := Ones(Bool, 3)
	assert.Equal(t, []bool{true, true, true}, c.Bools())
}

func TestDTypeNames(t *testing.T) {
	for _, d := range []DType{Bool, Int32, Int64, Float32, Float64} {
		got, ok := DTypeByName(d.String())
		require.True(t, ok, d.String())
		assert.Equal(t, d, got)
	}
	_, ok := DTypeByName("complex128")
	assert.False(t, ok)
}

func TestSliceIsView(t *testing.T) {
	a := Arange(10)
	v := a.Slice(3, 6)
	assert.Equal(t, []int64{3, 4, 5}, v.Int64s())

	// Mutating the view must show through the parent.
	v.Int64s()[0] = 42
	assert.Equal(t, int64(42), a.Int64s()[3])

	// A clone must not.
	c := a.Slice(3, 6).Clone()
	c.Int64s()[1] = -1
	assert.Equal(t, int64(4), a.Int64s()[4])
}

func TestSliceOutOfRangePanics(t *testing.T) {
	a := Arange(5)
	assert.Panics(t, func() { a.Slice(2, 6) })
	assert.Panics(t, func() { a.Slice(-1, 3) })
}

func TestReshape(t *testing.T) {
	a := Arange(6)
	b, err := a.Reshape(2, 3)
	require.NoError(t, err)
	assert.Equal(t, []int{2, 3}, b.Shape())

	_, err = a.Reshape(4, 2)
	require.Error(t, err)
}

func TestConcat(t *testing.T) {
	a := FromFloat64s([]float64{1, 2})
	b := FromFloat64s([]float64{3})
	empty := Zeros(Float64, 0)

	out, err := Concat(a, empty, b)
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 2, 3}, out.Float64s())

	_, err = Concat(a, FromInt64s([]int64{1}))
	require.Error(t, err)

	_, err = Concat()
	require.Error(t, err)
}

func TestConcatItemShape(t *testing.T) {
	a := Zeros(Float32, 2, 3)
	b := Zeros(Float32, 1, 3)
	out, err := Concat(a, b)
	require.NoError(t, err)
	assert.Equal(t, []int{3, 3}, out.Shape())

	_, err = Concat(a, Zeros(Float32, 1, 4))
	require.Error(t, err)
}

func TestEqual(t *testing.T) {
	a := FromInt32s([]int32{1, 2, 3})
	assert.True(t, Equal(a, a.Clone()))
	assert.False(t, Equal(a, FromInt32s([]int32{1, 2, 4})))
	assert.False(t, Equal(a, FromInt64s([]int64{1, 2, 3})))
	assert.False(t, Equal(a, a.Slice(0, 2)))
	assert.True(t, Equal(nil, nil))
	assert.False(t, Equal(a, nil))
}

func TestEncodeDecodeLE(t *testing.T) {
	a := FromFloat64s([]float64{1.5, -2.25, 0})
	buf := a.EncodeLE(nil)
	require.Len(t, buf, a.NumBytes())

	back, err := DecodeLE(Float64, []int{3}, buf)
	require.NoError(t, err)
	assert.True(t, Equal(a, back))

	_, err = DecodeLE(Float64, []int{4}, buf)
	require.Error(t, err)
}

func TestEncodeBools(t *testing.T) {
	a := FromBools([]bool{true, false, true})
	buf := a.EncodeLE(nil)
	assert.Equal(t, []byte{1, 0, 1}, buf)

	back, err := DecodeLE(Bool, []int{3}, buf)
	require.NoError(t, err)
	assert.Equal(t, []bool{true, false, true}, back.Bools())
}
