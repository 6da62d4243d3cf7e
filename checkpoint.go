package mockfactory

import (
	"os"
	"path/filepath"

	"github.com/Jiaxi-Yu/mockfactory/array"
	"github.com/Jiaxi-Yu/mockfactory/codec"
	"github.com/Jiaxi-Yu/mockfactory/comm"
)

// Save writes the whole catalog, attrs included, to a single mfb file. The
// file records the global row order only, so it can be loaded by a group of
// any size. Collective.
func (cat *Catalog) Save(name string) error {
	return cat.SaveAs(codec.NewMFB(), name)
}

// SaveAs is Save with an explicit file format adapter.
func (cat *Catalog) SaveAs(adapter codec.Adapter, name string) error {
	names, err := cat.syncNames()
	if err != nil {
		return err
	}

	cols := array.NewColumns()
	for _, col := range names {
		full, err := cat.CGet(col, cat.root)
		if err != nil {
			return err
		}
		if cat.c.Rank() == cat.root {
			cols.Set(col, full)
		}
	}

	var werr error
	if cat.c.Rank() == cat.root {
		if dir := filepath.Dir(name); dir != "" && dir != "." {
			werr = os.MkdirAll(dir, 0o755)
		}
		if werr == nil {
			cat.logger.Info("saving checkpoint", "file", name, "rows", cols.Rows())
			werr = adapter.WriteSlice(name, cols, cat.attrs)
		}
	}
	return comm.SyncErr(cat.c, cat.root, werr)
}

// Load reads a checkpoint written by Save into a new detached catalog, with
// rows partitioned evenly over the group. The group size does not have to
// match the one that saved. File attrs seed the catalog attrs; option attrs
// win on conflict. Collective.
func Load(c comm.Communicator, name string, optFns ...func(o *Options)) (*Catalog, error) {
	return LoadFrom(c, codec.NewMFB(), name, optFns...)
}

// LoadFrom is Load with an explicit file format adapter.
func LoadFrom(c comm.Communicator, adapter codec.Adapter, name string, optFns ...func(o *Options)) (*Catalog, error) {
	cat := New(c, optFns...)

	var hdr *codec.Header
	var rerr error
	if c.Rank() == cat.root {
		cat.logger.Info("loading checkpoint", "file", name)
		hdr, rerr = adapter.ReadHeader(name)
	}
	if err := comm.SyncErr(c, cat.root, rerr); err != nil {
		return nil, err
	}

	var columns []string
	var rows int
	var attrs map[string]any
	if c.Rank() == cat.root {
		columns = hdr.Columns
		rows = hdr.Rows
		attrs = hdr.Attrs
	}
	v, err := c.Bcast(columns, cat.root)
	if err != nil {
		return nil, err
	}
	columns, _ = v.([]string)
	v, err = c.Bcast(rows, cat.root)
	if err != nil {
		return nil, err
	}
	rows, _ = v.(int)
	v, err = c.Bcast(attrs, cat.root)
	if err != nil {
		return nil, err
	}
	attrs, _ = v.(map[string]any)
	for k, val := range attrs {
		if _, ok := cat.attrs[k]; !ok {
			cat.attrs[k] = val
		}
	}

	for _, col := range columns {
		var full *array.Array
		var rerr error
		if c.Rank() == cat.root {
			full, rerr = adapter.ReadSlice(name, col, 0, rows)
		}
		if err := comm.SyncErr(c, cat.root, rerr); err != nil {
			return nil, err
		}
		part, err := c.Scatter(full, cat.root)
		if err != nil {
			return nil, err
		}
		cat.data.Set(col, part)
	}
	return cat, nil
}
