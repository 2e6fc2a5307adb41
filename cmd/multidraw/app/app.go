package app

import (
	"context"
	"io"
	"os"
	"path/filepath"

	"github.com/dustin/go-humanize"
	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/multierr"

	"github.com/monophoton/multidraw/pkg/filler"
	"github.com/monophoton/multidraw/pkg/multidraw"
	"github.com/monophoton/multidraw/pkg/rowsource"
)

// App wires a parquet source, a Drawer and the configured outputs.
type App struct {
	cfg    Config
	logger log.Logger

	src    rowsource.Source
	drawer *multidraw.Drawer

	plots  []*filler.Plot
	tables []*filler.ParquetTable
}

// New opens the input and registers every plot and tree. Expression and
// binning errors are returned here, before any row is read.
func New(cfg Config, logger log.Logger) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	src, err := rowsource.NewParquet(cfg.Input.Paths, logger)
	if err != nil {
		return nil, err
	}

	a := &App{
		cfg:    cfg,
		logger: logger,
		src:    src,
	}
	if err := a.setup(); err != nil {
		_ = a.Close()
		return nil, err
	}
	return a, nil
}

func (a *App) setup() error {
	d, err := multidraw.New(a.cfg.Draw, a.src, nil, a.logger)
	if err != nil {
		return err
	}
	a.drawer = d

	for _, p := range a.cfg.Plots {
		h, err := p.histogram()
		if err != nil {
			return err
		}
		tier, _ := multidraw.ParseTier(p.Tier)
		plot, err := d.AddPlot(h, p.Expr, p.Cut, p.Reweight, tier)
		if err != nil {
			return err
		}
		a.plots = append(a.plots, plot)
	}

	if len(a.cfg.Trees) != 0 {
		if err := os.MkdirAll(a.cfg.Output.TreeDir, 0o755); err != nil {
			return errors.Wrap(err, "creating tree directory")
		}
	}
	for _, t := range a.cfg.Trees {
		pt, err := filler.CreateParquetTable(t.Name, filepath.Join(a.cfg.Output.TreeDir, t.Name+".parquet"))
		if err != nil {
			return err
		}
		a.tables = append(a.tables, pt)

		tier, _ := multidraw.ParseTier(t.Tier)
		tree, err := d.AddTree(t.Name, pt, t.Cut, t.Reweight, tier)
		if err != nil {
			return err
		}
		for _, c := range t.Columns {
			if err := d.AddTreeColumn(tree, c.Name, c.Expr); err != nil {
				return err
			}
		}
	}
	return nil
}

// Run scans the input and writes the outputs. Outputs are written even when
// the scan was interrupted, so that partial results can be inspected.
func (a *App) Run(ctx context.Context) (multidraw.Stats, error) {
	stats, runErr := a.drawer.Run(ctx, a.cfg.Input.Rows, a.cfg.Input.FirstRow)
	if runErr != nil {
		level.Error(a.logger).Log("msg", "scan failed", "rows_read", stats.RowsRead, "err", runErr)
	}

	err := multierr.Append(a.writeHistograms(), a.Close())
	if a.cfg.Output.MetricsFile != "" {
		if merr := prometheus.WriteToTextfile(a.cfg.Output.MetricsFile, prometheus.DefaultGatherer); merr != nil {
			err = multierr.Append(err, errors.Wrap(merr, "writing metrics"))
		}
	}

	if runErr != nil {
		return stats, runErr
	}
	return stats, err
}

func (a *App) writeHistograms() error {
	if a.cfg.Output.Histograms == "" || len(a.plots) == 0 {
		return nil
	}

	f, err := os.Create(a.cfg.Output.Histograms)
	if err != nil {
		return errors.Wrap(err, "creating histogram output")
	}
	if err := filler.WriteHistograms(f, a.Histograms()); err != nil {
		_ = f.Close()
		return err
	}
	level.Info(a.logger).Log("msg", "wrote histograms", "path", a.cfg.Output.Histograms, "count", len(a.plots))
	return f.Close()
}

// Histograms returns the histograms of every plot in configuration order.
func (a *App) Histograms() []*filler.Histogram {
	hists := make([]*filler.Histogram, 0, len(a.plots))
	for _, p := range a.plots {
		hists = append(hists, p.Histogram())
	}
	return hists
}

// Close closes the tree tables and the source. It is safe to call twice.
func (a *App) Close() error {
	var err error
	for _, t := range a.tables {
		err = multierr.Append(err, t.Close())
	}
	a.tables = nil

	if a.src != nil {
		err = multierr.Append(err, a.src.Close())
		a.src = nil
	}
	return err
}

// WriteSummary prints the selection counters and the fill count of every
// filler.
func WriteSummary(w io.Writer, stats multidraw.Stats) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetTitle("multidraw")
	t.AppendHeader(table.Row{"stage", "count"})
	t.AppendRows([]table.Row{
		{"rows read", humanize.Comma(stats.RowsRead)},
		{"rows processed", humanize.Comma(stats.RowsProcessed)},
		{"passed base", humanize.Comma(stats.PassedBase)},
		{"passed full", humanize.Comma(stats.PassedFull)},
	})
	t.Render()

	if len(stats.Fillers) == 0 {
		return
	}
	f := table.NewWriter()
	f.SetOutputMirror(w)
	f.AppendHeader(table.Row{"filler", "tier", "fills"})
	for _, s := range stats.Fillers {
		f.AppendRow(table.Row{s.Name, s.Tier.String(), humanize.Comma(int64(s.Count))})
	}
	f.Render()
}
