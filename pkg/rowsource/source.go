// Package rowsource defines the row-oriented view of a columnar dataset that the
// draw engine scans, together with the parquet and in-memory implementations.
package rowsource

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	ErrColumnNotFound    = errors.New("column not found")
	ErrUnsupportedColumn = errors.New("unsupported column type")
)

// Kind is the physical numeric kind of a column.
type Kind int

const (
	KindDouble Kind = iota
	KindFloat
	KindInt
	KindBool
)

func (k Kind) String() string {
	switch k {
	case KindDouble:
		return "double"
	case KindFloat:
		return "float"
	case KindInt:
		return "int"
	case KindBool:
		return "bool"
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Field describes one column of the dataset. Repeated columns carry any number
// of values per row, everything else carries at most one.
type Field struct {
	Name     string
	Kind     Kind
	Repeated bool
}

// Schema is the set of columns of a source, keyed by column name.
type Schema map[string]Field

func (s Schema) Lookup(name string) (Field, bool) {
	f, ok := s[name]
	return f, ok
}

// Column is a binding to one column of the current row. A binding is only valid
// for the partition it was obtained in.
type Column interface {
	Field() Field
	// Len is the number of values in the current row. Null scalars have length 0.
	Len() int
	Value(i int) float64
}

// Source is a chained sequence of partitions read one row at a time.
//
// Next must be called before the first row is available. Whenever PartitionID
// changes every Column binding must be obtained again.
type Source interface {
	// Next advances to the next row. It returns false once the source is exhausted.
	Next() (bool, error)
	// SeekToRow positions the source so that the following Next returns the given
	// row. It must be called before the first Next.
	SeekToRow(row int64) error
	// Row is the global index of the current row.
	Row() int64
	PartitionID() int
	PartitionPath() string
	Schema() Schema
	Column(name string) (Column, error)
	Close() error
}
