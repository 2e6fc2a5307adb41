package filler

import (
	"math"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"

	"github.com/monophoton/multidraw/pkg/expr"
)

// sliceExpression serves fixed per-instance values and records the order of
// accesses. Accessing an instance other than 0 first in a row is recorded as a
// violation.
type sliceExpression struct {
	text     string
	values   []float64
	accesses []int
	warm     bool
	violated bool
}

func newSliceExpression(text string, values ...float64) *sliceExpression {
	return &sliceExpression{text: text, values: values}
}

func (e *sliceExpression) String() string    { return e.text }
func (e *sliceExpression) Repeated() bool    { return len(e.values) > 1 }
func (e *sliceExpression) Rebind() error     { return nil }
func (e *sliceExpression) Err() error        { return nil }
func (e *sliceExpression) Multiplicity() int { return len(e.values) }

func (e *sliceExpression) ValueAt(i int) float64 {
	e.accesses = append(e.accesses, i)
	if i == 0 {
		e.warm = true
	} else if !e.warm {
		e.violated = true
	}
	if i >= len(e.values) {
		return 0
	}
	return e.values[i]
}

func TestFillNoMask(t *testing.T) {
	value := newSliceExpression("x", 1, 2, 3)
	h, err := NewHistogram("h", 10, 0, 10)
	require.NoError(t, err)

	p := NewPlot(h, value, nil, nil, nil)
	require.NoError(t, p.Fill(2, nil))

	require.Equal(t, uint64(3), p.Count())
	require.Equal(t, 6.0, h.Integral())
	require.Equal(t, 2.0, h.SumW[h.FindBin(2)])
	require.False(t, value.violated)
}

func TestFillMask(t *testing.T) {
	value := newSliceExpression("x", 1, 2, 3)
	h, _ := NewHistogram("h", 10, 0, 10)
	p := NewPlot(h, value, nil, nil, nil)

	require.NoError(t, p.Fill(1, []bool{true, false, true}))
	require.Equal(t, uint64(2), p.Count())
	require.Equal(t, 1.0, h.SumW[h.FindBin(1)])
	require.Equal(t, 0.0, h.SumW[h.FindBin(2)])
	require.Equal(t, 1.0, h.SumW[h.FindBin(3)])
}

func TestFillShortMaskClampsInstances(t *testing.T) {
	value := newSliceExpression("x", 1, 2, 3)
	h, _ := NewHistogram("h", 10, 0, 10)
	p := NewPlot(h, value, nil, nil, nil)

	require.NoError(t, p.Fill(1, []bool{true}))
	require.Equal(t, uint64(1), p.Count())

	// an empty mask visits nothing
	require.NoError(t, p.Fill(1, []bool{}))
	require.Equal(t, uint64(1), p.Count())
}

func TestFillLongMask(t *testing.T) {
	value := newSliceExpression("x", 1)
	h, _ := NewHistogram("h", 10, 0, 10)
	p := NewPlot(h, value, nil, nil, nil)

	require.NoError(t, p.Fill(1, []bool{true, true, true, true}))
	require.Equal(t, uint64(1), p.Count())
}

func TestFillCutAndWarmUp(t *testing.T) {
	value := newSliceExpression("x", 1, 2, 3, 4)
	cut := newSliceExpression("c", 1, 0, 1, 1)
	reweight := newSliceExpression("w", 0.5, 0.5, 0.25, 2)

	h, _ := NewHistogram("h", 10, 0, 10)
	p := NewPlot(h, value, cut, reweight, nil)

	// instances 0 and 1 are masked out: the first requested instance is 2
	require.NoError(t, p.Fill(4, []bool{false, false, true, true}))

	require.Equal(t, uint64(2), p.Count())
	require.Equal(t, 1.0, h.SumW[h.FindBin(3)])
	require.Equal(t, 8.0, h.SumW[h.FindBin(4)])

	require.Equal(t, []int{0, 2, 3}, cut.accesses)
	require.Equal(t, []int{0, 2, 3}, value.accesses)
	require.Equal(t, []int{0, 2, 3}, reweight.accesses)
	for _, e := range []*sliceExpression{value, cut, reweight} {
		require.False(t, e.violated, e.text)
	}
}

func TestFillCutNoWarmUpAtZero(t *testing.T) {
	value := newSliceExpression("x", 1, 2)
	cut := newSliceExpression("c", 0, 1)

	h, _ := NewHistogram("h", 10, 0, 10)
	p := NewPlot(h, value, cut, nil, nil)

	require.NoError(t, p.Fill(1, nil))
	require.Equal(t, uint64(1), p.Count())
	require.Equal(t, []int{0, 1}, cut.accesses)
	// the value expression is warmed up because its first instance is 1
	require.Equal(t, []int{0, 1}, value.accesses)
	require.False(t, value.violated)
}

func TestFillCutRejectsNaN(t *testing.T) {
	value := newSliceExpression("x", 1, 2)
	cut := newSliceExpression("c", math.NaN(), 1)

	h, _ := NewHistogram("h", 10, 0, 10)
	p := NewPlot(h, value, cut, nil, nil)
	require.NoError(t, p.Fill(1, nil))
	require.Equal(t, uint64(1), p.Count())
}

func TestFillWeightComposition(t *testing.T) {
	value := newSliceExpression("x", 5)
	reweight := newSliceExpression("w", 0.5)

	table := &MemoryTable{}
	tree, err := NewTree("t", table, nil, reweight, nil)
	require.NoError(t, err)
	require.NoError(t, tree.AddColumn("x", value))

	require.NoError(t, tree.Fill(2.0*1.5, nil))
	require.Equal(t, []float64{1.5}, table.Column(WeightColumn))
	require.Equal(t, []float64{5}, table.Column("x"))
}

func TestFillWithoutExpressions(t *testing.T) {
	tree, err := NewTree("t", &MemoryTable{}, nil, nil, nil)
	require.NoError(t, err)

	err = tree.Fill(1, nil)
	require.True(t, errors.Is(err, ErrNoExpressions))
	require.True(t, errors.Is(tree.Validate(), ErrNoExpressions))
}

func TestResetCount(t *testing.T) {
	h, _ := NewHistogram("h", 1, 0, 1)
	p := NewPlot(h, newSliceExpression("x", 0), nil, nil, nil)
	require.NoError(t, p.Fill(1, nil))
	require.Equal(t, uint64(1), p.Count())
	p.ResetCount()
	require.Equal(t, uint64(0), p.Count())
	require.Equal(t, "h", p.Name())
}

var _ expr.Expression = (*sliceExpression)(nil)
