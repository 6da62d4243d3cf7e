package array

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestColumnsOrderAndDelete(t *testing.T) {
	c := NewColumns()
	c.Set("b", Arange(3))
	c.Set("a", Arange(3))
	c.Set("b", Arange(3)) // replace keeps position
	assert.Equal(t, []string{"b", "a"}, c.Names())
	assert.Equal(t, 2, c.Len())
	assert.Equal(t, 3, c.Rows())

	assert.True(t, c.Delete("b"))
	assert.False(t, c.Delete("b"))
	assert.Equal(t, []string{"a"}, c.Names())
}

func TestColumnsValidate(t *testing.T) {
	c := NewColumns()
	c.Set("x", Arange(3))
	c.Set("y", Arange(3))
	require.NoError(t, c.Validate())

	c.Set("z", Arange(4))
	require.Error(t, c.Validate())
}

func TestColumnsSelectAndSlice(t *testing.T) {
	c := NewColumns()
	c.Set("x", Arange(5))
	c.Set("y", FromFloat64s([]float64{0, 1, 2, 3, 4}))

	sub, err := c.Select("y")
	require.NoError(t, err)
	assert.Equal(t, []string{"y"}, sub.Names())

	_, err = c.Select("missing")
	require.Error(t, err)

	rows := c.SliceRows(1, 3)
	x, _ := rows.Get("x")
	assert.Equal(t, []int64{1, 2}, x.Int64s())
}

func TestPackUnpackRows(t *testing.T) {
	c := NewColumns()
	c.Set("id", FromInt64s([]int64{10, 20}))
	pos := Zeros(Float32, 2, 3)
	for i, v := range []float32{1, 2, 3, 4, 5, 6} {
		pos.data.([]float32)[i] = v
	}
	c.Set("pos", pos)
	c.Set("ok", FromBools([]bool{true, false}))

	buf, err := c.PackRows()
	require.NoError(t, err)
	require.Len(t, buf, 2*c.RowWidth())

	back, err := UnpackRows(c.Fields(), 2, buf)
	require.NoError(t, err)
	assert.Equal(t, c.Names(), back.Names())
	for _, name := range c.Names() {
		want, _ := c.Get(name)
		got, _ := back.Get(name)
		assert.True(t, Equal(want, got), name)
	}
}

func TestUnpackRowsBadPayload(t *testing.T) {
	fields := []Field{{Name: "x", DType: Int64}}
	_, err := UnpackRows(fields, 2, make([]byte, 7))
	require.Error(t, err)
}
