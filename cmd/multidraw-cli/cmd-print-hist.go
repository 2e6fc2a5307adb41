package main

import (
	"fmt"
	"io"
	"math"
	"os"
	"strconv"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/pkg/errors"

	"github.com/monophoton/multidraw/pkg/filler"
)

type printHistCmd struct {
	File  string   `arg:"" help:"histogram JSON file" type:"existingfile"`
	Names []string `help:"only print these histograms" short:"n"`
}

func (cmd *printHistCmd) Run(_ *globalOptions) error {
	f, err := os.Open(cmd.File)
	if err != nil {
		return err
	}
	defer f.Close()

	hists, err := filler.ReadHistograms(f)
	if err != nil {
		return errors.Wrapf(err, "reading %s", cmd.File)
	}

	want := map[string]bool{}
	for _, n := range cmd.Names {
		want[n] = true
	}
	for _, h := range hists {
		if len(want) != 0 && !want[h.Name] {
			continue
		}
		printHistogram(os.Stdout, h)
	}
	return nil
}

func printHistogram(w io.Writer, h *filler.Histogram) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetTitle(h.Name)
	t.AppendHeader(table.Row{"bin", "low", "high", "sumw", "error"})
	for b := range h.SumW {
		lo, hi := math.Inf(-1), math.Inf(1)
		if b > 0 {
			lo = h.Edges[b-1]
		}
		if b < len(h.Edges) {
			hi = h.Edges[b]
		}
		t.AppendRow(table.Row{b, formatFloat(lo), formatFloat(hi), formatFloat(h.SumW[b]), formatFloat(h.Error(b))})
	}
	t.AppendFooter(table.Row{"", "", "entries " + strconv.FormatUint(h.Entries, 10), formatFloat(h.Integral()), fmt.Sprintf("mean %.4g", h.Mean())})
	t.Render()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', 6, 64)
}
