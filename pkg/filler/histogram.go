package filler

import (
	"io"
	"math"
	"sort"

	jsoniter "github.com/json-iterator/go"
	"github.com/pkg/errors"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Histogram is a one dimensional weighted histogram. Bin 0 is the underflow and
// bin len(Edges) the overflow; bin k covers [Edges[k-1], Edges[k]).
type Histogram struct {
	Name    string    `json:"name"`
	Title   string    `json:"title,omitempty"`
	Edges   []float64 `json:"edges"`
	SumW    []float64 `json:"sumw"`
	SumW2   []float64 `json:"sumw2"`
	Entries uint64    `json:"entries"`
}

// NewHistogram returns a histogram with nbins bins of equal width between lo and hi.
func NewHistogram(name string, nbins int, lo, hi float64) (*Histogram, error) {
	if nbins <= 0 {
		return nil, errors.Errorf("histogram %s: invalid number of bins %d", name, nbins)
	}
	if !(lo < hi) {
		return nil, errors.Errorf("histogram %s: invalid range [%g, %g)", name, lo, hi)
	}

	edges := make([]float64, nbins+1)
	width := (hi - lo) / float64(nbins)
	for i := range edges {
		edges[i] = lo + float64(i)*width
	}
	edges[nbins] = hi

	return NewHistogramEdges(name, edges)
}

// NewHistogramEdges returns a histogram with the given strictly increasing bin edges.
func NewHistogramEdges(name string, edges []float64) (*Histogram, error) {
	if len(edges) < 2 {
		return nil, errors.Errorf("histogram %s: need at least two edges", name)
	}
	for i := 1; i < len(edges); i++ {
		if !(edges[i-1] < edges[i]) {
			return nil, errors.Errorf("histogram %s: edges are not increasing at %d", name, i)
		}
	}

	return &Histogram{
		Name:  name,
		Edges: append([]float64(nil), edges...),
		SumW:  make([]float64, len(edges)+1),
		SumW2: make([]float64, len(edges)+1),
	}, nil
}

func (h *Histogram) NumBins() int {
	return len(h.Edges) - 1
}

// FindBin returns the bin containing x, including the underflow and overflow bins.
func (h *Histogram) FindBin(x float64) int {
	return sort.Search(len(h.Edges), func(k int) bool { return h.Edges[k] > x })
}

// Fill adds weight w at x. NaN values are dropped.
func (h *Histogram) Fill(x, w float64) {
	if math.IsNaN(x) {
		return
	}
	b := h.FindBin(x)
	h.SumW[b] += w
	h.SumW2[b] += w * w
	h.Entries++
}

// Integral is the sum of weights in the regular bins.
func (h *Histogram) Integral() float64 {
	var s float64
	for _, w := range h.SumW[1 : len(h.SumW)-1] {
		s += w
	}
	return s
}

// Mean is the weighted mean of the bin centers of the regular bins.
func (h *Histogram) Mean() float64 {
	var s, sw float64
	for k := 1; k < len(h.Edges); k++ {
		c := (h.Edges[k-1] + h.Edges[k]) / 2
		s += c * h.SumW[k]
		sw += h.SumW[k]
	}
	if sw == 0 {
		return 0
	}
	return s / sw
}

// Error is the statistical uncertainty of bin b.
func (h *Histogram) Error(b int) float64 {
	return math.Sqrt(h.SumW2[b])
}

// WriteHistograms writes hists as a JSON array.
func WriteHistograms(w io.Writer, hists []*Histogram) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return errors.Wrap(enc.Encode(hists), "encoding histograms")
}

// ReadHistograms reads a JSON array written by WriteHistograms.
func ReadHistograms(r io.Reader) ([]*Histogram, error) {
	var hists []*Histogram
	if err := json.NewDecoder(r).Decode(&hists); err != nil {
		return nil, errors.Wrap(err, "decoding histograms")
	}
	for _, h := range hists {
		if len(h.Edges) < 2 || len(h.SumW) != len(h.Edges)+1 || len(h.SumW2) != len(h.SumW) {
			return nil, errors.Errorf("histogram %s: inconsistent binning", h.Name)
		}
	}
	return hists, nil
}
