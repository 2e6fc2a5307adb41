// Package filler iterates the instances of a row that pass a cut and hands each
// of them, with its weight, to an output: a histogram or a flat table.
package filler

import (
	"math"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/pkg/errors"

	"github.com/monophoton/multidraw/pkg/expr"
)

var (
	ErrNoExpressions  = errors.New("filler has no value expression")
	ErrTooManyColumns = errors.New("too many columns")
)

// instanceFunc writes one passing instance to the output.
type instanceFunc func(i int, weight float64) error

// Filler owns the instance loop shared by every output. Expressions are not
// owned: they belong to the library of the caller.
type Filler struct {
	name     string
	exprs    []expr.Expression
	cut      expr.Expression
	reweight expr.Expression

	count     uint64
	verbosity int
	logger    log.Logger

	fillInstance instanceFunc
}

func (f *Filler) Name() string {
	return f.name
}

// Count is the number of instances filled since the last ResetCount.
func (f *Filler) Count() uint64 {
	return f.count
}

func (f *Filler) ResetCount() {
	f.count = 0
}

func (f *Filler) SetVerbosity(v int) {
	f.verbosity = v
}

func (f *Filler) SetLogger(l log.Logger) {
	f.logger = l
}

// Expressions returns the value expressions in registration order.
func (f *Filler) Expressions() []expr.Expression {
	return f.exprs
}

// Validate fails if the filler cannot be filled.
func (f *Filler) Validate() error {
	if len(f.exprs) == 0 {
		return errors.Wrapf(ErrNoExpressions, "filler %s", f.name)
	}
	return nil
}

// Fill visits the instances of the current row. mask restricts the visited
// instances when not nil; instances past the end of mask are never visited.
//
// Expressions are evaluated at instance 0 before any later instance is
// requested, as required by expr.Expression.
func (f *Filler) Fill(weight float64, mask []bool) error {
	if err := f.Validate(); err != nil {
		return err
	}

	// the first value expression decides the number of instances
	n := f.exprs[0].Multiplicity()
	if f.cut != nil {
		f.cut.Multiplicity()
	}

	if f.verbosity > 3 {
		level.Debug(f.logger).Log("msg", "fill", "filler", f.name, "weight", weight, "iterations", n)
	}

	if mask != nil && len(mask) < n {
		n = len(mask)
	}

	cutLoaded := false
	loaded := false

	for i := 0; i < n; i++ {
		if mask != nil && !mask[i] {
			continue
		}

		if f.cut != nil {
			if !cutLoaded && i != 0 {
				f.cut.ValueAt(0)
			}
			cutLoaded = true

			if !Passes(f.cut.ValueAt(i)) {
				continue
			}
		}

		f.count++

		if !loaded {
			for _, e := range f.exprs {
				e.Multiplicity()
				if i != 0 {
					e.ValueAt(0)
				}
			}
			if f.reweight != nil {
				f.reweight.Multiplicity()
				if i != 0 {
					f.reweight.ValueAt(0)
				}
			}
			loaded = true
		}

		w := weight
		if f.reweight != nil {
			w *= f.reweight.ValueAt(i)
		}

		if err := f.fillInstance(i, w); err != nil {
			return errors.Wrapf(err, "filling %s", f.name)
		}
	}

	return nil
}

// Passes reports whether a cut or selection value accepts an instance.
func Passes(v float64) bool {
	return v != 0 && !math.IsNaN(v)
}
