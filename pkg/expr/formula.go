package expr

import (
	"math"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/pkg/errors"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"

	"github.com/monophoton/multidraw/pkg/rowsource"
)

type variable struct {
	name     string
	repeated bool
	col      rowsource.Column
}

// Formula is an Expression written in HCL expression syntax. Variables are
// column names of the source, functions are listed in functions.go.
type Formula struct {
	text string
	src  rowsource.Source
	expr hcl.Expression
	ctx  *hcl.EvalContext

	scalars  []variable
	repeated []variable

	// scalarNaN is set by the instance 0 load when a scalar input is NaN.
	scalarNaN bool
	bound     bool
	err       error
}

var _ Expression = (*Formula)(nil)

// Compile parses text and checks it against the schema of src. Referenced
// columns are bound on the first Rebind.
func Compile(src rowsource.Source, text string) (*Formula, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, errors.Wrap(ErrBadExpression, "empty expression")
	}

	e, diags := hclsyntax.ParseExpression([]byte(text), "expression", hcl.InitialPos)
	if diags.HasErrors() {
		return nil, errors.Wrapf(ErrBadExpression, "%q: %s", text, diags.Error())
	}

	f := &Formula{
		text: text,
		src:  src,
		expr: e,
		ctx: &hcl.EvalContext{
			Variables: map[string]cty.Value{},
			Functions: functions,
		},
	}

	schema := src.Schema()
	seen := map[string]struct{}{}
	for _, tr := range e.Variables() {
		name := tr.RootName()
		if len(tr) > 1 {
			return nil, errors.Wrapf(ErrBadExpression, "%q: traversal of column %s is not supported", text, name)
		}
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}

		fld, ok := schema.Lookup(name)
		if !ok {
			return nil, errors.Wrapf(ErrBadExpression, "%q: unknown column %s", text, name)
		}
		v := variable{name: name, repeated: fld.Repeated}
		if v.repeated {
			f.repeated = append(f.repeated, v)
		} else {
			f.scalars = append(f.scalars, v)
		}
	}

	// Dry run with unit inputs to catch type errors before the scan.
	for name := range seen {
		f.ctx.Variables[name] = cty.NumberIntVal(1)
	}
	val, diags := e.Value(f.ctx)
	if diags.HasErrors() && !nanDiagnostics(diags) {
		return nil, errors.Wrapf(ErrBadExpression, "%q: %s", text, diags.Error())
	}
	if !diags.HasErrors() {
		if _, err := toFloat(val); err != nil {
			return nil, errors.Wrapf(ErrBadExpression, "%q: %v", text, err)
		}
	}

	return f, nil
}

func (f *Formula) String() string {
	return f.text
}

func (f *Formula) Repeated() bool {
	return len(f.repeated) != 0
}

func (f *Formula) Err() error {
	return f.err
}

func (f *Formula) Rebind() error {
	for _, vars := range [][]variable{f.scalars, f.repeated} {
		for i := range vars {
			col, err := f.src.Column(vars[i].name)
			if err != nil {
				return errors.Wrapf(err, "binding %q", f.text)
			}
			if col.Field().Repeated != vars[i].repeated {
				return errors.Errorf("binding %q: column %s changes shape in partition %q", f.text, vars[i].name, f.src.PartitionPath())
			}
			vars[i].col = col
		}
	}
	f.bound = true
	return nil
}

// Multiplicity is the shortest length among the repeated inputs, or 1 for a
// formula over scalars only. A null scalar input gives 0.
func (f *Formula) Multiplicity() int {
	if !f.bound {
		return 0
	}
	for _, v := range f.scalars {
		if v.col.Len() == 0 {
			return 0
		}
	}
	if len(f.repeated) == 0 {
		return 1
	}

	n := f.repeated[0].col.Len()
	for _, v := range f.repeated[1:] {
		if l := v.col.Len(); l < n {
			n = l
		}
	}
	return n
}

// ValueAt evaluates instance i. Scalar inputs are only loaded at instance 0.
func (f *Formula) ValueAt(i int) float64 {
	if !f.bound || i < 0 {
		return 0
	}

	if i == 0 {
		f.load()
	}
	if f.scalarNaN {
		return math.NaN()
	}

	for _, v := range f.repeated {
		if i >= v.col.Len() {
			return 0
		}
		x := v.col.Value(i)
		if math.IsNaN(x) {
			return math.NaN()
		}
		f.ctx.Variables[v.name] = cty.NumberFloatVal(x)
	}

	val, diags := f.expr.Value(f.ctx)
	if diags.HasErrors() {
		if nanDiagnostics(diags) {
			return math.NaN()
		}
		if f.err == nil {
			f.err = errors.Wrapf(ErrBadExpression, "evaluating %q in %s: %s", f.text, f.src.PartitionPath(), diags.Error())
		}
		return 0
	}

	x, err := toFloat(val)
	if err != nil && f.err == nil {
		f.err = errors.Wrapf(err, "evaluating %q", f.text)
	}
	return x
}

func (f *Formula) load() {
	f.scalarNaN = false
	for _, v := range f.scalars {
		x := 0.0
		if v.col.Len() != 0 {
			x = v.col.Value(0)
		}
		if math.IsNaN(x) {
			f.scalarNaN = true
			continue
		}
		f.ctx.Variables[v.name] = cty.NumberFloatVal(x)
	}
}

func toFloat(v cty.Value) (float64, error) {
	if v.IsNull() || !v.IsKnown() {
		return 0, nil
	}

	switch v.Type() {
	case cty.Number:
		x, _ := v.AsBigFloat().Float64()
		return x, nil
	case cty.Bool:
		if v.True() {
			return 1, nil
		}
		return 0, nil
	}

	n, err := convert.Convert(v, cty.Number)
	if err != nil {
		return 0, errors.Errorf("result of type %s is not a number", v.Type().FriendlyName())
	}
	return toFloat(n)
}
