package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/monophoton/multidraw/pkg/filler"
)

func TestPrintHistogram(t *testing.T) {
	h, err := filler.NewHistogramEdges("pt", []float64{0, 10, 20})
	require.NoError(t, err)
	h.Fill(5, 2)
	h.Fill(25, 1)

	buf := &bytes.Buffer{}
	printHistogram(buf, h)

	out := buf.String()
	require.Contains(t, out, "-Inf")
	require.Contains(t, out, "+Inf")
}
