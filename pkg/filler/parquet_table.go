package filler

import (
	"io"
	"os"

	"github.com/parquet-go/parquet-go"
	"github.com/parquet-go/parquet-go/compress/zstd"
	"github.com/pkg/errors"
)

const parquetTableBatch = 1024

// ParquetTable streams rows into a parquet file with one required double
// column per table column. The schema is fixed when the first row is written.
type ParquetTable struct {
	name   string
	out    io.Writer
	closer io.Closer

	names  []string
	writer *parquet.Writer
	// leaf column index -> position in the written values
	order []int
	batch []parquet.Row
	n     int
}

var _ TableWriter = (*ParquetTable)(nil)

func NewParquetTable(name string, out io.Writer) *ParquetTable {
	return &ParquetTable{name: name, out: out}
}

// CreateParquetTable creates (or truncates) the file at path.
func CreateParquetTable(name, path string) (*ParquetTable, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, errors.Wrapf(err, "creating table %s", name)
	}
	t := NewParquetTable(name, f)
	t.closer = f
	return t, nil
}

func (t *ParquetTable) AddColumn(name string) error {
	if t.writer != nil {
		return errors.Errorf("table %s: cannot add column %s after the first row", t.name, name)
	}
	t.names = append(t.names, name)
	return nil
}

func (t *ParquetTable) open() {
	group := parquet.Group{}
	for _, n := range t.names {
		group[n] = parquet.Leaf(parquet.DoubleType)
	}
	schema := parquet.NewSchema(t.name, group)

	pos := make(map[string]int, len(t.names))
	for i, n := range t.names {
		pos[n] = i
	}
	leaves := schema.Columns()
	t.order = make([]int, len(leaves))
	for leaf, path := range leaves {
		t.order[leaf] = pos[path[0]]
	}

	t.batch = make([]parquet.Row, parquetTableBatch)
	for i := range t.batch {
		t.batch[i] = make(parquet.Row, len(leaves))
	}

	t.writer = parquet.NewWriter(t.out, schema, parquet.Compression(&zstd.Codec{}))
}

func (t *ParquetTable) WriteRow(values []float64) error {
	if t.writer == nil {
		t.open()
	}
	if len(values) != len(t.names) {
		return errors.Errorf("table %s: row has %d values for %d columns", t.name, len(values), len(t.names))
	}

	row := t.batch[t.n]
	for leaf, p := range t.order {
		row[leaf] = parquet.DoubleValue(values[p]).Level(0, 0, leaf)
	}
	t.n++

	if t.n == len(t.batch) {
		return t.flush()
	}
	return nil
}

func (t *ParquetTable) flush() error {
	if t.n == 0 {
		return nil
	}
	_, err := t.writer.WriteRows(t.batch[:t.n])
	t.n = 0
	return errors.Wrapf(err, "writing table %s", t.name)
}

// Close flushes pending rows and writes the footer.
func (t *ParquetTable) Close() error {
	if t.writer == nil {
		t.open()
	}
	if err := t.flush(); err != nil {
		return err
	}
	if err := t.writer.Close(); err != nil {
		return errors.Wrapf(err, "closing table %s", t.name)
	}
	if t.closer != nil {
		return t.closer.Close()
	}
	return nil
}
