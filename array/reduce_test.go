package array

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSumAxis(t *testing.T) {
	a, err := Arange(6).Reshape(2, 3)
	require.NoError(t, err)

	rows, err := a.SumAxis(0)
	require.NoError(t, err)
	assert.Equal(t, []int{3}, rows.Shape())
	assert.Equal(t, []int64{3, 5, 7}, rows.Int64s())

	cols, err := a.SumAxis(1)
	require.NoError(t, err)
	assert.Equal(t, []int{2}, cols.Shape())
	assert.Equal(t, []int64{3, 12}, cols.Int64s())
}

func TestMinMaxAxis(t *testing.T) {
	a := FromFloat64s([]float64{3, -1, 7, 2})

	mn, err := a.MinAxis(0)
	require.NoError(t, err)
	assert.Empty(t, mn.Shape())
	assert.Equal(t, []float64{-1}, mn.Float64s())

	mx, err := a.MaxAxis(0)
	require.NoError(t, err)
	assert.Equal(t, []float64{7}, mx.Float64s())
}

func TestReduceDTypePreserved(t *testing.T) {
	a := FromInt32s([]int32{1, 2, 3})
	s, err := a.SumAxis(0)
	require.NoError(t, err)
	assert.Equal(t, Int32, s.DType())
}

func TestReduceErrors(t *testing.T) {
	_, err := FromBools([]bool{true}).SumAxis(0)
	require.Error(t, err)

	_, err = Arange(3).SumAxis(1)
	require.Error(t, err)

	_, err = Zeros(Float64, 0).SumAxis(0)
	require.Error(t, err)
}

func TestWeightedSumAxis0(t *testing.T) {
	a := FromFloat64s([]float64{1, 2, 3})

	num, wsum, err := a.WeightedSumAxis0(nil)
	require.NoError(t, err)
	assert.Equal(t, 3.0, wsum)
	assert.Equal(t, []float64{6}, num.Float64s())

	w := FromFloat64s([]float64{1, 0, 2})
	num, wsum, err = a.WeightedSumAxis0(w)
	require.NoError(t, err)
	assert.Equal(t, 3.0, wsum)
	assert.Equal(t, []float64{7}, num.Float64s())

	_, _, err = a.WeightedSumAxis0(FromFloat64s([]float64{1, 2}))
	require.Error(t, err)
}

func TestWeightedSumItemShape(t *testing.T) {
	a, err := Arange(6).Reshape(3, 2)
	require.NoError(t, err)
	num, wsum, err := a.WeightedSumAxis0(nil)
	require.NoError(t, err)
	assert.Equal(t, 3.0, wsum)
	assert.Equal(t, []float64{6, 9}, num.Float64s())
}

func TestCombine(t *testing.T) {
	a := FromInt64s([]int64{1, 5, 3})
	b := FromInt64s([]int64{4, 2, 3})

	sum, err := Combine(a, b, OpSum)
	require.NoError(t, err)
	assert.Equal(t, []int64{5, 7, 6}, sum.Int64s())

	mn, err := Combine(a, b, OpMin)
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 2, 3}, mn.Int64s())

	mx, err := Combine(a, b, OpMax)
	require.NoError(t, err)
	assert.Equal(t, []int64{4, 5, 3}, mx.Int64s())

	_, err = Combine(a, FromInt64s([]int64{1}), OpSum)
	require.Error(t, err)
}
