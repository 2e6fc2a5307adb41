// Package expr compiles numeric formulas over the columns of a row source and
// memoises their per-instance values for the duration of one row.
package expr

import (
	"github.com/pkg/errors"
)

var ErrBadExpression = errors.New("bad expression")

// Expression is a formula bound to the current row of a source.
//
// A formula over repeated columns has one instance per element of those
// columns. Row state is loaded when instance 0 is evaluated: in every row,
// ValueAt(0) must be called before ValueAt(k) for any k > 0, otherwise the
// values returned for k are undefined.
type Expression interface {
	// String returns the source text of the expression.
	String() string
	// Repeated reports whether the multiplicity may exceed 1 in some row.
	Repeated() bool
	// Multiplicity is the number of instances in the current row.
	Multiplicity() int
	ValueAt(i int) float64
	// Rebind refreshes the column bindings after the source moved to a new partition.
	Rebind() error
	// Err returns the first evaluation error, if any.
	Err() error
}

// CompileFunc builds an Expression from its source text.
type CompileFunc func(text string) (Expression, error)
