package rowsource

import (
	"io"
	"os"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/pkg/errors"

	pq "github.com/parquet-go/parquet-go"
)

const defaultReadSize = 256

// Parquet chains a list of parquet files. Every file is one partition.
type Parquet struct {
	paths  []string
	logger log.Logger
	schema Schema

	part int
	file *os.File
	pf   *pq.File
	rg   int
	rows pq.Rows

	buf    []pq.Row
	bufN   int
	bufPos int

	// values holds the non-null values of the current row per leaf column.
	values  [][]float64
	row     int64
	started bool
}

var _ Source = (*Parquet)(nil)

// NewParquet returns a source over the given files. The schema is taken from the
// first file.
func NewParquet(paths []string, logger log.Logger) (*Parquet, error) {
	if len(paths) == 0 {
		return nil, errors.New("no input files")
	}

	p := &Parquet{
		paths:  paths,
		logger: logger,
		part:   -1,
		buf:    make([]pq.Row, defaultReadSize),
		row:    -1,
	}

	f, pf, err := openFile(paths[0])
	if err != nil {
		return nil, err
	}
	defer f.Close()

	p.schema = Schema{}
	for _, c := range pf.Root().Columns() {
		fld, err := fieldOf(c)
		if err != nil {
			// unsupported columns stay out of the schema, expressions referencing them fail to compile
			continue
		}
		p.schema[fld.Name] = fld
	}

	return p, nil
}

func openFile(path string) (*os.File, *pq.File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, errors.Wrapf(err, "opening %s", path)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, nil, errors.Wrapf(err, "stat %s", path)
	}
	pf, err := pq.OpenFile(f, info.Size())
	if err != nil {
		f.Close()
		return nil, nil, errors.Wrapf(err, "reading parquet footer of %s", path)
	}
	return f, pf, nil
}

// leafByName finds the leaf column for a top-level field, descending through
// single-child groups such as the LIST encoding.
func leafByName(root *pq.Column, name string) *pq.Column {
	n := root.Column(name)
	for n != nil && !n.Leaf() {
		children := n.Columns()
		if len(children) != 1 {
			return nil
		}
		n = children[0]
	}
	return n
}

func fieldOf(c *pq.Column) (Field, error) {
	name := c.Name()
	for !c.Leaf() {
		children := c.Columns()
		if len(children) != 1 {
			return Field{}, errors.Wrapf(ErrUnsupportedColumn, "%s is a group", name)
		}
		c = children[0]
	}

	fld := Field{
		Name:     name,
		Repeated: c.MaxRepetitionLevel() > 0,
	}
	switch c.Type().Kind() {
	case pq.Double:
		fld.Kind = KindDouble
	case pq.Float:
		fld.Kind = KindFloat
	case pq.Int32, pq.Int64:
		fld.Kind = KindInt
	case pq.Boolean:
		fld.Kind = KindBool
	default:
		return Field{}, errors.Wrapf(ErrUnsupportedColumn, "%s has type %s", name, c.Type())
	}
	return fld, nil
}

func (p *Parquet) Next() (bool, error) {
	p.started = true
	for {
		if p.bufPos+1 < p.bufN {
			p.bufPos++
			p.load(p.buf[p.bufPos])
			p.row++
			return true, nil
		}

		if p.rows != nil {
			n, err := p.rows.ReadRows(p.buf)
			if n > 0 {
				p.bufN = n
				p.bufPos = -1
				continue
			}
			// Error checks MUST occur after processing any returned data
			// following io.Reader behavior.
			if err != nil && err != io.EOF {
				return false, errors.Wrapf(err, "reading rows of %s", p.PartitionPath())
			}
			p.closeRows()
		}

		if p.pf != nil && p.rg+1 < len(p.pf.RowGroups()) {
			p.rg++
			p.rows = p.pf.RowGroups()[p.rg].Rows()
			continue
		}

		if p.part+1 >= len(p.paths) {
			return false, nil
		}
		if err := p.openPartition(p.part + 1); err != nil {
			return false, err
		}
	}
}

func (p *Parquet) SeekToRow(row int64) error {
	if p.started {
		return errors.New("seek after the first row")
	}
	if row < 0 {
		return errors.Errorf("invalid row %d", row)
	}
	p.started = true

	remaining := row
	for p.part+1 < len(p.paths) {
		if err := p.openPartition(p.part + 1); err != nil {
			return err
		}
		n := p.pf.NumRows()
		if remaining >= n {
			remaining -= n
			p.rg = len(p.pf.RowGroups()) - 1
			continue
		}

		for i, rg := range p.pf.RowGroups() {
			if remaining >= rg.NumRows() {
				remaining -= rg.NumRows()
				continue
			}
			p.rg = i
			p.rows = rg.Rows()
			if remaining > 0 {
				if err := p.rows.SeekToRow(remaining); err != nil {
					return errors.Wrapf(err, "seeking to row %d of %s", row, p.PartitionPath())
				}
			}
			break
		}
		break
	}

	p.row = row - 1
	return nil
}

func (p *Parquet) openPartition(i int) error {
	p.closeRows()
	if p.file != nil {
		p.file.Close()
		p.file, p.pf = nil, nil
	}

	f, pf, err := openFile(p.paths[i])
	if err != nil {
		return err
	}
	level.Debug(p.logger).Log("msg", "opened partition", "path", p.paths[i], "rows", pf.NumRows())

	p.file, p.pf = f, pf
	p.part = i
	p.rg = -1
	p.bufN, p.bufPos = 0, -1

	leaves := len(pf.Schema().Columns())
	if cap(p.values) < leaves {
		p.values = make([][]float64, leaves)
	}
	p.values = p.values[:leaves]
	for j := range p.values {
		p.values[j] = p.values[j][:0]
	}
	return nil
}

func (p *Parquet) closeRows() {
	if p.rows != nil {
		p.rows.Close()
		p.rows = nil
	}
	p.bufN, p.bufPos = 0, -1
}

func (p *Parquet) load(row pq.Row) {
	for j := range p.values {
		p.values[j] = p.values[j][:0]
	}
	for _, v := range row {
		if v.IsNull() {
			continue
		}
		c := v.Column()
		p.values[c] = append(p.values[c], valueToFloat(v))
	}
}

func valueToFloat(v pq.Value) float64 {
	switch v.Kind() {
	case pq.Double:
		return v.Double()
	case pq.Float:
		return float64(v.Float())
	case pq.Int32:
		return float64(v.Int32())
	case pq.Int64:
		return float64(v.Int64())
	case pq.Boolean:
		if v.Boolean() {
			return 1
		}
	}
	return 0
}

func (p *Parquet) Row() int64 {
	return p.row
}

func (p *Parquet) PartitionID() int {
	return p.part
}

func (p *Parquet) PartitionPath() string {
	if p.part < 0 {
		return ""
	}
	return p.paths[p.part]
}

func (p *Parquet) Schema() Schema {
	return p.schema
}

func (p *Parquet) Column(name string) (Column, error) {
	if p.pf == nil {
		return nil, errors.Wrap(ErrColumnNotFound, name)
	}

	n := leafByName(p.pf.Root(), name)
	if n == nil {
		return nil, errors.Wrapf(ErrColumnNotFound, "%s in partition %q", name, p.PartitionPath())
	}
	fld, err := fieldOf(n)
	if err != nil {
		return nil, err
	}
	fld.Name = name

	return &parquetColumn{p: p, idx: n.Index(), field: fld}, nil
}

func (p *Parquet) Close() error {
	p.closeRows()
	if p.file != nil {
		err := p.file.Close()
		p.file, p.pf = nil, nil
		return err
	}
	return nil
}

type parquetColumn struct {
	p     *Parquet
	idx   int
	field Field
}

func (c *parquetColumn) Field() Field {
	return c.field
}

func (c *parquetColumn) Len() int {
	return len(c.p.values[c.idx])
}

func (c *parquetColumn) Value(i int) float64 {
	return c.p.values[c.idx][i]
}
