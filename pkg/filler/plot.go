package filler

import (
	"github.com/go-kit/log"
	"github.com/go-kit/log/level"

	"github.com/monophoton/multidraw/pkg/expr"
)

// Plot fills a histogram with one value expression. cut and reweight may be nil.
type Plot struct {
	Filler
	hist *Histogram
}

func NewPlot(hist *Histogram, value, cut, reweight expr.Expression, logger log.Logger) *Plot {
	if logger == nil {
		logger = log.NewNopLogger()
	}

	p := &Plot{hist: hist}
	p.Filler = Filler{
		name:     hist.Name,
		exprs:    []expr.Expression{value},
		cut:      cut,
		reweight: reweight,
		logger:   logger,
	}
	p.fillInstance = p.fill
	return p
}

func (p *Plot) Histogram() *Histogram {
	return p.hist
}

func (p *Plot) fill(i int, weight float64) error {
	x := p.exprs[0].ValueAt(i)
	if p.verbosity > 3 {
		level.Debug(p.logger).Log("msg", "fill instance", "filler", p.name, "instance", i, "value", x, "weight", weight)
	}
	p.hist.Fill(x, weight)
	return nil
}
