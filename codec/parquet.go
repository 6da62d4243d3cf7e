package codec

import (
	"fmt"
	"os"

	gojson "github.com/goccy/go-json"
	"github.com/xitongsys/parquet-go-source/local"
	"github.com/xitongsys/parquet-go/common"
	"github.com/xitongsys/parquet-go/parquet"
	"github.com/xitongsys/parquet-go/reader"
	"github.com/xitongsys/parquet-go/writer"

	"github.com/Jiaxi-Yu/mockfactory/array"
)

// parquetRoot is the schema root name for files this adapter writes.
const parquetRoot = "parquet_go_root"

// Parquet is an interchange adapter for flat, scalar-column parquet files.
//
// Limitations, all reported as ErrUnsupportedLayout: columns must be scalar
// (no item shape) and the file schema must be flat. Rows pass through a JSON
// bridge on write, so int64 values beyond 2^53 lose precision; use the mfb
// adapter when exact wide integers matter. Parquet files carry no attrs
// dictionary.
type Parquet struct{}

var _ Adapter = Parquet{}

// NewParquet creates a parquet adapter.
func NewParquet() Parquet { return Parquet{} }

// Ext returns "parquet".
func (Parquet) Ext() string { return "parquet" }

func parquetDType(t *parquet.Type) (array.DType, bool) {
	if t == nil {
		return array.Invalid, false
	}
	switch *t {
	case parquet.Type_BOOLEAN:
		return array.Bool, true
	case parquet.Type_INT32:
		return array.Int32, true
	case parquet.Type_INT64:
		return array.Int64, true
	case parquet.Type_FLOAT:
		return array.Float32, true
	case parquet.Type_DOUBLE:
		return array.Float64, true
	default:
		return array.Invalid, false
	}
}

func parquetTag(f array.Field) (string, error) {
	if len(f.ItemShape) != 0 {
		return "", fmt.Errorf("%w: column %q has item shape %v; parquet columns must be scalar",
			ErrUnsupportedLayout, f.Name, f.ItemShape)
	}
	var t string
	switch f.DType {
	case array.Bool:
		t = "BOOLEAN"
	case array.Int32:
		t = "INT32"
	case array.Int64:
		t = "INT64"
	case array.Float32:
		t = "FLOAT"
	case array.Float64:
		t = "DOUBLE"
	default:
		return "", fmt.Errorf("%w: column %q has dtype %s", ErrUnsupportedLayout, f.Name, f.DType)
	}
	return fmt.Sprintf("name=%s, type=%s, repetitiontype=REQUIRED", f.Name, t), nil
}

type parquetJSONSchema struct {
	Tag    string              `json:"Tag"`
	Fields []parquetJSONSchema `json:"Fields,omitempty"`
}

func (Parquet) openReader(name string) (*reader.ParquetReader, func(), error) {
	fr, err := local.NewLocalFileReader(name)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil, fmt.Errorf("%w: %s", ErrNotFound, name)
		}
		return nil, nil, err
	}
	pr, err := reader.NewParquetColumnReader(fr, 4)
	if err != nil {
		_ = fr.Close()
		return nil, nil, fmt.Errorf("%w: %s: %v", ErrCorrupt, name, err)
	}
	closeAll := func() {
		pr.ReadStop()
		_ = fr.Close()
	}
	return pr, closeAll, nil
}

// schemaColumns returns the flat leaf columns as (ex-name, dtype) pairs.
func schemaColumns(name string, pr *reader.ParquetReader) ([]string, map[string]array.DType, error) {
	elems := pr.SchemaHandler.SchemaElements
	infos := pr.SchemaHandler.Infos
	if len(elems) != len(infos) || len(elems) == 0 {
		return nil, nil, fmt.Errorf("%w: %s: unreadable schema", ErrCorrupt, name)
	}
	if int(elems[0].GetNumChildren()) != len(elems)-1 {
		return nil, nil, fmt.Errorf("%w: %s: nested parquet schemas are not supported", ErrUnsupportedLayout, name)
	}
	columns := make([]string, 0, len(elems)-1)
	dtypes := make(map[string]array.DType, len(elems)-1)
	for i := 1; i < len(elems); i++ {
		dtype, ok := parquetDType(elems[i].Type)
		if !ok {
			return nil, nil, fmt.Errorf("%w: %s: column %q has physical type %v",
				ErrUnsupportedLayout, name, infos[i].ExName, elems[i].Type)
		}
		columns = append(columns, infos[i].ExName)
		dtypes[infos[i].ExName] = dtype
	}
	return columns, dtypes, nil
}

// ReadHeader reports the file's row count and columns.
func (p Parquet) ReadHeader(name string) (*Header, error) {
	pr, done, err := p.openReader(name)
	if err != nil {
		return nil, err
	}
	defer done()

	columns, _, err := schemaColumns(name, pr)
	if err != nil {
		return nil, err
	}
	return &Header{Rows: int(pr.GetNumRows()), Columns: columns}, nil
}

// ReadSlice reads rows [start, stop) of one column.
func (p Parquet) ReadSlice(name, column string, start, stop int) (*array.Array, error) {
	pr, done, err := p.openReader(name)
	if err != nil {
		return nil, err
	}
	defer done()

	rows := int(pr.GetNumRows())
	if start < 0 || stop < start || stop > rows {
		return nil, fmt.Errorf("parquet: %s: rows [%d:%d] out of range for %d rows", name, start, stop, rows)
	}
	_, dtypes, err := schemaColumns(name, pr)
	if err != nil {
		return nil, err
	}
	dtype, ok := dtypes[column]
	if !ok {
		return nil, fmt.Errorf("parquet: %s has no column %q", name, column)
	}

	root := pr.SchemaHandler.Infos[0].ExName
	path := common.ReformPathStr(fmt.Sprintf("%s.%s", root, column))
	if err := pr.SkipRowsByPath(path, int64(start)); err != nil {
		return nil, fmt.Errorf("%w: %s: column %q: %v", ErrCorrupt, name, column, err)
	}
	values, _, _, err := pr.ReadColumnByPath(path, int64(stop-start))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: column %q: %v", ErrCorrupt, name, column, err)
	}
	return parquetColumn(dtype, values)
}

func parquetColumn(dtype array.DType, values []any) (*array.Array, error) {
	switch dtype {
	case array.Bool:
		out := make([]bool, len(values))
		for i, v := range values {
			out[i], _ = v.(bool)
		}
		return array.FromBools(out), nil
	case array.Int32:
		out := make([]int32, len(values))
		for i, v := range values {
			out[i], _ = v.(int32)
		}
		return array.FromInt32s(out), nil
	case array.Int64:
		out := make([]int64, len(values))
		for i, v := range values {
			out[i], _ = v.(int64)
		}
		return array.FromInt64s(out), nil
	case array.Float32:
		out := make([]float32, len(values))
		for i, v := range values {
			out[i], _ = v.(float32)
		}
		return array.FromFloat32s(out), nil
	default:
		out := make([]float64, len(values))
		for i, v := range values {
			out[i], _ = v.(float64)
		}
		return array.FromFloat64s(out), nil
	}
}

// WriteSlice creates or overwrites name with the given column set. attrs are
// not representable in this format and are dropped.
func (p Parquet) WriteSlice(name string, cols *array.Columns, attrs map[string]any) error {
	if err := cols.Validate(); err != nil {
		return err
	}
	schema := parquetJSONSchema{
		Tag: fmt.Sprintf("name=%s, repetitiontype=REQUIRED", parquetRoot),
	}
	for _, f := range cols.Fields() {
		tag, err := parquetTag(f)
		if err != nil {
			return fmt.Errorf("parquet: %s: %w", name, err)
		}
		schema.Fields = append(schema.Fields, parquetJSONSchema{Tag: tag})
	}
	schemaJSON, err := gojson.Marshal(schema)
	if err != nil {
		return fmt.Errorf("parquet: %s: %w", name, err)
	}

	tmp := name + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("parquet: %s: %w", name, err)
	}
	pw, err := writer.NewJSONWriterFromWriter(string(schemaJSON), f, 4)
	if err != nil {
		_ = f.Close()
		_ = os.Remove(tmp)
		return fmt.Errorf("parquet: %s: %w", name, err)
	}

	names := cols.Names()
	rowVals := make([]any, len(names))
	for i, col := range names {
		a, _ := cols.Get(col)
		switch a.DType() {
		case array.Bool:
			rowVals[i] = a.Bools()
		case array.Int32, array.Int64:
			rowVals[i] = a.Int64s()
		default:
			rowVals[i] = a.Float64s()
		}
	}
	row := make(map[string]any, len(names))
	for r := 0; r < cols.Rows(); r++ {
		for i, col := range names {
			switch vals := rowVals[i].(type) {
			case []bool:
				row[col] = vals[r]
			case []int64:
				row[col] = vals[r]
			case []float64:
				row[col] = vals[r]
			}
		}
		rowJSON, err := gojson.Marshal(row)
		if err != nil {
			_ = f.Close()
			_ = os.Remove(tmp)
			return fmt.Errorf("parquet: %s: %w", name, err)
		}
		if err := pw.Write(string(rowJSON)); err != nil {
			_ = f.Close()
			_ = os.Remove(tmp)
			return fmt.Errorf("parquet: %s: %w", name, err)
		}
	}
	if err := pw.WriteStop(); err != nil {
		_ = f.Close()
		_ = os.Remove(tmp)
		return fmt.Errorf("parquet: %s: %w", name, err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("parquet: %s: %w", name, err)
	}
	if err := os.Rename(tmp, name); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("parquet: %s: %w", name, err)
	}
	return nil
}
