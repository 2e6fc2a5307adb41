package main

import (
	"context"
	"os"
	"os/signal"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"

	"github.com/monophoton/multidraw/cmd/multidraw/app"
	"github.com/monophoton/multidraw/pkg/filler"
	"github.com/monophoton/multidraw/pkg/multidraw"
	"github.com/monophoton/multidraw/pkg/rowsource"
)

type drawCmd struct {
	Files []string `arg:"" help:"parquet files, read in order" type:"existingfile"`

	Expr     string  `help:"expression to plot" required:""`
	Cut      string  `help:"per instance cut"`
	Reweight string  `help:"per instance weight"`
	Base     string  `help:"baseline selection"`
	Full     string  `help:"full selection"`
	Tier     string  `help:"tier of the plot: unconditional, post_base or post_full" default:"post_base"`
	Weight   string  `help:"event weight column"`
	Lumi     float64 `help:"luminosity scale factor" default:"1"`
	Bins     int     `help:"number of bins" default:"20"`
	Min      float64 `help:"lower edge" default:"0"`
	Max      float64 `help:"upper edge" default:"100"`
	Rows     int64   `help:"number of rows to read, -1 for all" default:"-1"`
	FirstRow int64   `help:"first row to read" default:"0"`
}

func (cmd *drawCmd) Run(opts *globalOptions) error {
	logger := log.NewNopLogger()
	if opts.Verbose {
		logger = level.NewFilter(log.NewLogfmtLogger(log.NewSyncWriter(os.Stderr)), level.AllowInfo())
	}

	src, err := rowsource.NewParquet(cmd.Files, logger)
	if err != nil {
		return err
	}
	defer src.Close()

	tier, err := multidraw.ParseTier(cmd.Tier)
	if err != nil {
		return err
	}
	h, err := filler.NewHistogram("draw", cmd.Bins, cmd.Min, cmd.Max)
	if err != nil {
		return err
	}
	h.Title = cmd.Expr

	cfg := multidraw.Config{
		BaseSelection:  cmd.Base,
		FullSelection:  cmd.Full,
		WeightColumn:   cmd.Weight,
		WeightWidth:    multidraw.WidthWide,
		Prescale:       1,
		PrescaleColumn: "eventNumber",
		Luminosity:     cmd.Lumi,
	}
	if f, ok := src.Schema().Lookup(cmd.Weight); ok && f.Kind == rowsource.KindFloat {
		cfg.WeightWidth = multidraw.WidthNarrow
	}

	d, err := multidraw.New(cfg, src, nil, logger)
	if err != nil {
		return err
	}
	if _, err := d.AddPlot(h, cmd.Expr, cmd.Cut, cmd.Reweight, tier); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	stats, err := d.Run(ctx, cmd.Rows, cmd.FirstRow)
	if err != nil {
		return err
	}

	app.WriteSummary(os.Stdout, stats)
	printHistogram(os.Stdout, h)
	return nil
}
