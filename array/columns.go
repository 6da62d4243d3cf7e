package array

import "fmt"

// Field describes one named column: its dtype and fixed per-row item shape.
type Field struct {
	Name      string
	DType     DType
	ItemShape []int
}

// Columns is an ordered set of named arrays sharing one row count: the
// struct-of-arrays layout the store works in.
type Columns struct {
	names []string
	cols  map[string]*Array
}

// NewColumns returns an empty column set.
func NewColumns() *Columns {
	return &Columns{cols: make(map[string]*Array)}
}

// Set adds or replaces a column, keeping first-insertion order.
func (c *Columns) Set(name string, a *Array) {
	if _, ok := c.cols[name]; !ok {
		c.names = append(c.names, name)
	}
	c.cols[name] = a
}

// Delete removes a column, reporting whether it was present.
func (c *Columns) Delete(name string) bool {
	if _, ok := c.cols[name]; !ok {
		return false
	}
	delete(c.cols, name)
	for i, n := range c.names {
		if n == name {
			c.names = append(c.names[:i], c.names[i+1:]...)
			break
		}
	}
	return true
}

// Get returns the named column.
func (c *Columns) Get(name string) (*Array, bool) {
	a, ok := c.cols[name]
	return a, ok
}

// Names returns the column names in insertion order.
func (c *Columns) Names() []string {
	return append([]string(nil), c.names...)
}

// Len returns the number of columns.
func (c *Columns) Len() int { return len(c.names) }

// Rows returns the shared row count, zero for an empty set.
func (c *Columns) Rows() int {
	if len(c.names) == 0 {
		return 0
	}
	return c.cols[c.names[0]].Rows()
}

// Validate checks that every column has the same row count.
func (c *Columns) Validate() error {
	rows := c.Rows()
	for _, name := range c.names {
		if got := c.cols[name].Rows(); got != rows {
			return fmt.Errorf("array: column %q has %d rows, want %d", name, got, rows)
		}
	}
	return nil
}

// Fields returns the per-column layout descriptors in order.
func (c *Columns) Fields() []Field {
	fields := make([]Field, 0, len(c.names))
	for _, name := range c.names {
		a := c.cols[name]
		fields = append(fields, Field{
			Name:      name,
			DType:     a.DType(),
			ItemShape: append([]int(nil), a.ItemShape()...),
		})
	}
	return fields
}

// SliceRows returns views of rows [lo, hi) of every column.
func (c *Columns) SliceRows(lo, hi int) *Columns {
	out := NewColumns()
	for _, name := range c.names {
		out.Set(name, c.cols[name].Slice(lo, hi))
	}
	return out
}

// Select returns the named subset, in the requested order.
func (c *Columns) Select(names ...string) (*Columns, error) {
	out := NewColumns()
	for _, name := range names {
		a, ok := c.cols[name]
		if !ok {
			return nil, fmt.Errorf("array: no column %q", name)
		}
		out.Set(name, a)
	}
	return out, nil
}

// Clone deep-copies every column.
func (c *Columns) Clone() *Columns {
	out := NewColumns()
	for _, name := range c.names {
		out.Set(name, c.cols[name].Clone())
	}
	return out
}

// RowWidth returns the packed byte width of one row across all columns.
func (c *Columns) RowWidth() int {
	w := 0
	for _, name := range c.names {
		a := c.cols[name]
		w += a.ItemLen() * a.DType().ItemBytes()
	}
	return w
}

// PackRows packs the column set into array-of-structs layout: rows of
// little-endian fields in column order. Adapters that want record packing
// consume this instead of per-column payloads.
func (c *Columns) PackRows() ([]byte, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	rows := c.Rows()
	buf := make([]byte, 0, rows*c.RowWidth())
	for r := 0; r < rows; r++ {
		for _, name := range c.names {
			buf = c.cols[name].Slice(r, r+1).EncodeLE(buf)
		}
	}
	return buf, nil
}

// UnpackRows rebuilds a column set from array-of-structs bytes produced by
// PackRows with the given field layout.
func UnpackRows(fields []Field, rows int, buf []byte) (*Columns, error) {
	out := NewColumns()
	arrays := make([]*Array, len(fields))
	widths := make([]int, len(fields))
	rowWidth := 0
	for i, f := range fields {
		arrays[i] = Zeros(f.DType, append([]int{rows}, f.ItemShape...)...)
		widths[i] = prod(f.ItemShape) * f.DType.ItemBytes()
		rowWidth += widths[i]
	}
	if len(buf) != rows*rowWidth {
		return nil, fmt.Errorf("array: packed payload is %d bytes, want %d", len(buf), rows*rowWidth)
	}
	off := 0
	for r := 0; r < rows; r++ {
		for i, f := range fields {
			row, err := DecodeLE(f.DType, append([]int{1}, f.ItemShape...), buf[off:off+widths[i]])
			if err != nil {
				return nil, err
			}
			copyRow(arrays[i], r, row, 0, arrays[i].ItemLen())
			off += widths[i]
		}
	}
	for i, f := range fields {
		out.Set(f.Name, arrays[i])
	}
	return out, nil
}
