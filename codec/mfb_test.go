package codec

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Jiaxi-Yu/mockfactory/array"
)

func testColumns(t *testing.T) *array.Columns {
	t.Helper()
	cols := array.NewColumns()
	cols.Set("id", array.Arange(8))
	cols.Set("mass", array.FromFloat64s([]float64{1, 2, 3, 4, 5, 6, 7, 8}))
	vals := make([]float32, 24)
	for i := range vals {
		vals[i] = float32(i) / 2
	}
	pos, err := array.FromFloat32s(vals).Reshape(8, 3)
	require.NoError(t, err)
	cols.Set("position", pos)
	cols.Set("selected", array.FromBools([]bool{true, false, true, false, true, false, true, false}))
	return cols
}

func TestMFBRoundTrip(t *testing.T) {
	for _, comp := range []Compression{CompressionNone, CompressionZstd, CompressionLZ4} {
		t.Run(string(comp), func(t *testing.T) {
			a := NewMFB(WithCompression(comp))
			name := filepath.Join(t.TempDir(), "cat.mfb")
			cols := testColumns(t)
			attrs := map[string]any{"boxsize": 1000.0, "tracer": "LRG"}

			require.NoError(t, a.WriteSlice(name, cols, attrs))

			hdr, err := a.ReadHeader(name)
			require.NoError(t, err)
			assert.Equal(t, 8, hdr.Rows)
			assert.Equal(t, []string{"id", "mass", "position", "selected"}, hdr.Columns)
			assert.Equal(t, "LRG", hdr.Attrs["tracer"])
			assert.Equal(t, 1000.0, hdr.Attrs["boxsize"])

			for _, col := range hdr.Columns {
				want, _ := cols.Get(col)
				got, err := a.ReadSlice(name, col, 0, 8)
				require.NoError(t, err)
				assert.True(t, array.Equal(want, got), col)
			}
		})
	}
}

func TestMFBReadSliceRange(t *testing.T) {
	a := NewMFB()
	name := filepath.Join(t.TempDir(), "cat.mfb")
	require.NoError(t, a.WriteSlice(name, testColumns(t), nil))

	got, err := a.ReadSlice(name, "id", 2, 5)
	require.NoError(t, err)
	assert.Equal(t, []int64{2, 3, 4}, got.Int64s())

	got, err = a.ReadSlice(name, "id", 3, 3)
	require.NoError(t, err)
	assert.Equal(t, 0, got.Rows())

	_, err = a.ReadSlice(name, "id", 0, 9)
	require.Error(t, err)

	_, err = a.ReadSlice(name, "missing", 0, 1)
	require.Error(t, err)
}

func TestMFBNotFound(t *testing.T) {
	a := NewMFB()
	_, err := a.ReadHeader(filepath.Join(t.TempDir(), "nope.mfb"))
	require.ErrorIs(t, err, ErrNotFound)
}

func TestMFBCorrupt(t *testing.T) {
	name := filepath.Join(t.TempDir(), "bad.mfb")
	require.NoError(t, os.WriteFile(name, []byte("not an mfb file"), 0o644))

	a := NewMFB()
	_, err := a.ReadHeader(name)
	require.ErrorIs(t, err, ErrCorrupt)
}

func TestMFBOverwrite(t *testing.T) {
	a := NewMFB()
	name := filepath.Join(t.TempDir(), "cat.mfb")
	require.NoError(t, a.WriteSlice(name, testColumns(t), nil))

	cols := array.NewColumns()
	cols.Set("id", array.Arange(2))
	require.NoError(t, a.WriteSlice(name, cols, nil))

	hdr, err := a.ReadHeader(name)
	require.NoError(t, err)
	assert.Equal(t, 2, hdr.Rows)
	assert.Equal(t, []string{"id"}, hdr.Columns)
}

func TestMFBEmptyColumns(t *testing.T) {
	a := NewMFB()
	name := filepath.Join(t.TempDir(), "empty.mfb")
	cols := array.NewColumns()
	cols.Set("id", array.Zeros(array.Int64, 0))
	require.NoError(t, a.WriteSlice(name, cols, nil))

	hdr, err := a.ReadHeader(name)
	require.NoError(t, err)
	assert.Equal(t, 0, hdr.Rows)
}
