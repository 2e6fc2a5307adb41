package filler

import (
	"bytes"
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHistogramBinning(t *testing.T) {
	h, err := NewHistogram("h", 4, 0, 2)
	require.NoError(t, err)
	require.Equal(t, 4, h.NumBins())
	require.Equal(t, []float64{0, 0.5, 1, 1.5, 2}, h.Edges)

	for _, tc := range []struct {
		x   float64
		bin int
	}{
		{-1, 0},
		{0, 1},
		{0.49, 1},
		{0.5, 2},
		{1.99, 4},
		{2, 5},
		{100, 5},
		{math.Inf(-1), 0},
		{math.Inf(1), 5},
	} {
		require.Equal(t, tc.bin, h.FindBin(tc.x), "x=%g", tc.x)
	}
}

func TestHistogramFill(t *testing.T) {
	h, err := NewHistogramEdges("h", []float64{0, 1, 10})
	require.NoError(t, err)

	h.Fill(0.5, 2)
	h.Fill(0.5, 1)
	h.Fill(5, 0.5)
	h.Fill(-3, 1)
	h.Fill(math.NaN(), 1)

	require.Equal(t, uint64(4), h.Entries)
	require.Equal(t, []float64{1, 3, 0.5, 0}, h.SumW)
	require.Equal(t, []float64{1, 5, 0.25, 0}, h.SumW2)
	require.Equal(t, 3.5, h.Integral())
	require.InDelta(t, math.Sqrt(5), h.Error(1), 1e-12)
	require.InDelta(t, (0.5*3+5.5*0.5)/3.5, h.Mean(), 1e-12)
}

func TestHistogramInvalid(t *testing.T) {
	_, err := NewHistogram("h", 0, 0, 1)
	require.Error(t, err)
	_, err = NewHistogram("h", 1, 1, 1)
	require.Error(t, err)
	_, err = NewHistogramEdges("h", []float64{1})
	require.Error(t, err)
	_, err = NewHistogramEdges("h", []float64{0, 2, 1})
	require.Error(t, err)
}

func TestHistogramsJSON(t *testing.T) {
	a, _ := NewHistogram("a", 2, 0, 2)
	a.Title = "first"
	a.Fill(1.5, 2)
	b, _ := NewHistogramEdges("b", []float64{0, 10, 100})
	b.Fill(50, 1)

	buf := &bytes.Buffer{}
	require.NoError(t, WriteHistograms(buf, []*Histogram{a, b}))

	hists, err := ReadHistograms(buf)
	require.NoError(t, err)
	require.Equal(t, []*Histogram{a, b}, hists)

	_, err = ReadHistograms(bytes.NewBufferString(`[{"name":"x","edges":[0,1],"sumw":[0],"sumw2":[0]}]`))
	require.Error(t, err)
}
