package expr

import (
	"math"
	"math/big"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/pkg/errors"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/function"
	"github.com/zclconf/go-cty/cty/function/stdlib"
)

var errNotANumber = errors.New("result is not a number")

var functions = map[string]function.Function{
	"abs":    stdlib.AbsoluteFunc,
	"ceil":   stdlib.CeilFunc,
	"floor":  stdlib.FloorFunc,
	"max":    stdlib.MaxFunc,
	"min":    stdlib.MinFunc,
	"pow":    stdlib.PowFunc,
	"signum": stdlib.SignumFunc,

	"sqrt":  unary(math.Sqrt),
	"exp":   unary(math.Exp),
	"log":   unary(math.Log),
	"ln":    unary(math.Log),
	"log10": unary(math.Log10),
	"sin":   unary(math.Sin),
	"cos":   unary(math.Cos),
	"tan":   unary(math.Tan),

	"atan2":     binary(math.Atan2),
	"hypot":     binary(math.Hypot),
	"delta_phi": binary(DeltaPhi),
	"delta_r": function.New(&function.Spec{
		Params: []function.Parameter{
			{Name: "eta1", Type: cty.Number},
			{Name: "phi1", Type: cty.Number},
			{Name: "eta2", Type: cty.Number},
			{Name: "phi2", Type: cty.Number},
		},
		Type: function.StaticReturnType(cty.Number),
		Impl: func(args []cty.Value, _ cty.Type) (cty.Value, error) {
			x := floats(args)
			return numberVal(math.Hypot(x[0]-x[2], DeltaPhi(x[1], x[3])))
		},
	}),
}

// DeltaPhi is the azimuthal difference a-b folded into [-pi, pi].
func DeltaPhi(a, b float64) float64 {
	d := math.Mod(a-b, 2*math.Pi)
	switch {
	case d > math.Pi:
		d -= 2 * math.Pi
	case d < -math.Pi:
		d += 2 * math.Pi
	}
	return d
}

func unary(fn func(float64) float64) function.Function {
	return function.New(&function.Spec{
		Params: []function.Parameter{{Name: "x", Type: cty.Number}},
		Type:   function.StaticReturnType(cty.Number),
		Impl: func(args []cty.Value, _ cty.Type) (cty.Value, error) {
			return numberVal(fn(floats(args)[0]))
		},
	})
}

func binary(fn func(float64, float64) float64) function.Function {
	return function.New(&function.Spec{
		Params: []function.Parameter{
			{Name: "a", Type: cty.Number},
			{Name: "b", Type: cty.Number},
		},
		Type: function.StaticReturnType(cty.Number),
		Impl: func(args []cty.Value, _ cty.Type) (cty.Value, error) {
			x := floats(args)
			return numberVal(fn(x[0], x[1]))
		},
	})
}

func floats(args []cty.Value) []float64 {
	out := make([]float64, len(args))
	for i, a := range args {
		out[i], _ = a.AsBigFloat().Float64()
	}
	return out
}

// numberVal converts x to a cty number. cty numbers cannot hold NaN.
func numberVal(x float64) (cty.Value, error) {
	if math.IsNaN(x) {
		return cty.UnknownVal(cty.Number), errNotANumber
	}
	return cty.NumberFloatVal(x), nil
}

// nanDiagnostics reports whether every error in diags comes from a function
// call or an arithmetic operator whose result was not a number, such as 0/0
// or Inf-Inf.
func nanDiagnostics(diags hcl.Diagnostics) bool {
	found := false
	for _, d := range diags {
		if d.Severity != hcl.DiagError {
			continue
		}
		if !operatorFailure(d) {
			extra, ok := hcl.DiagnosticExtra[hclsyntax.FunctionCallDiagExtra](d)
			if !ok || !isNaNError(extra.FunctionCallError()) {
				return false
			}
		}
		found = true
	}
	return found
}

// operatorFailure matches the diagnostic hclsyntax emits when an operator
// implementation returns an error. Operands are always numbers here, so the
// only failures are the big.ErrNaN cases the cty arithmetic recovers from.
func operatorFailure(d *hcl.Diagnostic) bool {
	if d.Summary != "Operation failed" {
		return false
	}
	switch d.Expression.(type) {
	case *hclsyntax.BinaryOpExpr, *hclsyntax.UnaryOpExpr:
		return true
	}
	return false
}

func isNaNError(err error) bool {
	if errors.Is(err, errNotANumber) {
		return true
	}
	var pe function.PanicError
	if errors.As(err, &pe) {
		_, ok := pe.Value.(big.ErrNaN)
		return ok
	}
	return false
}
