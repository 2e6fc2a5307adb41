package filler

import (
	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/pkg/errors"

	"github.com/monophoton/multidraw/pkg/expr"
)

const (
	// MaxColumns is the maximum number of value columns of a tree.
	MaxColumns = 128
	// WeightColumn is the reserved first column of every tree.
	WeightColumn = "weight"
)

// TableWriter receives the rows of a Tree. Columns are added before the first
// row is written; every row carries one value per column in the order the
// columns were added.
type TableWriter interface {
	AddColumn(name string) error
	WriteRow(values []float64) error
}

// Tree writes one table row per passing instance: the entry weight followed by
// the value of every column expression.
type Tree struct {
	Filler
	table   TableWriter
	columns []string
	values  []float64
}

// NewTree registers the weight column on table. Value columns are added with
// AddColumn.
func NewTree(name string, table TableWriter, cut, reweight expr.Expression, logger log.Logger) (*Tree, error) {
	if logger == nil {
		logger = log.NewNopLogger()
	}
	if err := table.AddColumn(WeightColumn); err != nil {
		return nil, errors.Wrapf(err, "tree %s", name)
	}

	t := &Tree{
		table:   table,
		columns: []string{WeightColumn},
		values:  make([]float64, 1, MaxColumns+1),
	}
	t.Filler = Filler{
		name:     name,
		cut:      cut,
		reweight: reweight,
		logger:   logger,
	}
	t.fillInstance = t.fill
	return t, nil
}

// AddColumn adds an output column filled with the values of e.
func (t *Tree) AddColumn(name string, e expr.Expression) error {
	if len(t.exprs) == MaxColumns {
		return errors.Wrapf(ErrTooManyColumns, "tree %s: cannot add %s beyond %d columns", t.name, name, MaxColumns)
	}
	for _, c := range t.columns {
		if c == name {
			return errors.Errorf("tree %s: duplicate column %s", t.name, name)
		}
	}
	if err := t.table.AddColumn(name); err != nil {
		return errors.Wrapf(err, "tree %s", t.name)
	}

	t.columns = append(t.columns, name)
	t.exprs = append(t.exprs, e)
	t.values = t.values[:len(t.exprs)+1]
	return nil
}

// Columns returns the output column names, weight first.
func (t *Tree) Columns() []string {
	return t.columns
}

func (t *Tree) fill(i int, weight float64) error {
	t.values[0] = weight
	for k, e := range t.exprs {
		t.values[k+1] = e.ValueAt(i)
	}

	if t.verbosity > 3 {
		level.Debug(t.logger).Log("msg", "fill instance", "filler", t.name, "instance", i, "values", floatsString(t.values[1:]), "weight", weight)
	}

	return t.table.WriteRow(t.values)
}
