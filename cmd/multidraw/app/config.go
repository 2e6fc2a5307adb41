package app

import (
	"flag"

	"github.com/grafana/dskit/flagext"
	dslog "github.com/grafana/dskit/log"
	"github.com/pkg/errors"

	"github.com/monophoton/multidraw/pkg/filler"
	"github.com/monophoton/multidraw/pkg/multidraw"
)

// Config is the root config of the multidraw binary.
type Config struct {
	LogLevel  dslog.Level `yaml:"log_level"`
	LogFormat string      `yaml:"log_format"`

	Input  InputConfig      `yaml:"input"`
	Draw   multidraw.Config `yaml:"draw"`
	Plots  []PlotConfig     `yaml:"plots"`
	Trees  []TreeConfig     `yaml:"trees"`
	Output OutputConfig     `yaml:"output"`
}

type InputConfig struct {
	Paths    flagext.StringSliceCSV `yaml:"paths"`
	FirstRow int64                  `yaml:"first_row"`
	// Rows is the number of rows to read, -1 for all.
	Rows int64 `yaml:"rows"`
}

// PlotConfig declares a histogram. Binning is either Bins equal bins between
// Min and Max, or explicit Edges.
type PlotConfig struct {
	Name     string    `yaml:"name"`
	Title    string    `yaml:"title"`
	Expr     string    `yaml:"expr"`
	Cut      string    `yaml:"cut"`
	Reweight string    `yaml:"reweight"`
	Tier     string    `yaml:"tier"`
	Bins     int       `yaml:"bins"`
	Min      float64   `yaml:"min"`
	Max      float64   `yaml:"max"`
	Edges    []float64 `yaml:"edges"`
}

type ColumnConfig struct {
	Name string `yaml:"name"`
	Expr string `yaml:"expr"`
}

// TreeConfig declares a flat table written to <output.tree_dir>/<name>.parquet.
type TreeConfig struct {
	Name     string         `yaml:"name"`
	Cut      string         `yaml:"cut"`
	Reweight string         `yaml:"reweight"`
	Tier     string         `yaml:"tier"`
	Columns  []ColumnConfig `yaml:"columns"`
}

type OutputConfig struct {
	Histograms  string `yaml:"histograms"`
	TreeDir     string `yaml:"tree_dir"`
	MetricsFile string `yaml:"metrics_file"`
}

// ConfigWarning bundles message and explanation strings in one structure.
type ConfigWarning struct {
	Message string
	Explain string
}

var (
	warnNoOutput = ConfigWarning{
		Message: "No plots or trees are configured.",
		Explain: "The scan would read every row without producing anything.",
	}
	warnHistogramsNotWritten = ConfigWarning{
		Message: "Plots are configured but output.histograms is empty.",
		Explain: "Histograms are only reported in the summary.",
	}
	warnPrescaledWindow = ConfigWarning{
		Message: "draw.prescale is set together with input.rows.",
		Explain: "input.rows counts rows before prescaling.",
	}
)

// RegisterFlagsAndApplyDefaults registers flags and sets defaults.
func (c *Config) RegisterFlagsAndApplyDefaults(prefix string, f *flag.FlagSet) {
	_ = c.LogLevel.Set("info")
	f.Var(&c.LogLevel, prefix+"log.level", "Only log messages with the given severity or above. Valid levels: [debug, info, warn, error]")
	f.StringVar(&c.LogFormat, prefix+"log.format", "logfmt", "Output log messages in the given format. Valid formats: [logfmt, json]")

	f.Var(&c.Input.Paths, prefix+"input.paths", "Comma separated list of parquet files, read in order.")
	f.Int64Var(&c.Input.FirstRow, prefix+"input.first-row", 0, "Index of the first row to read.")
	f.Int64Var(&c.Input.Rows, prefix+"input.rows", multidraw.AllRows, "Number of rows to read, -1 for all.")

	c.Draw.RegisterFlagsAndApplyDefaults(prefix+"draw.", f)

	f.StringVar(&c.Output.Histograms, prefix+"output.histograms", "", "Path of the JSON file receiving the histograms.")
	f.StringVar(&c.Output.TreeDir, prefix+"output.tree-dir", ".", "Directory receiving the tree parquet files.")
	f.StringVar(&c.Output.MetricsFile, prefix+"output.metrics-file", "", "Path of a file receiving the prometheus metrics of the run.")
}

// Validate returns an error for configurations that cannot run.
func (c *Config) Validate() error {
	if len(c.Input.Paths) == 0 {
		return errors.Wrap(multidraw.ErrConfig, "input.paths is required")
	}
	if c.Input.FirstRow < 0 {
		return errors.Wrapf(multidraw.ErrConfig, "invalid input.first_row %d", c.Input.FirstRow)
	}
	if err := c.Draw.Validate(); err != nil {
		return err
	}

	names := map[string]struct{}{}
	unique := func(kind, name string) error {
		if name == "" {
			return errors.Wrapf(multidraw.ErrConfig, "%s without a name", kind)
		}
		if _, ok := names[name]; ok {
			return errors.Wrapf(multidraw.ErrConfig, "duplicate %s name %s", kind, name)
		}
		names[name] = struct{}{}
		return nil
	}

	for _, p := range c.Plots {
		if err := unique("plot", p.Name); err != nil {
			return err
		}
		if _, err := multidraw.ParseTier(p.Tier); err != nil {
			return errors.Wrapf(multidraw.ErrConfig, "plot %s: %v", p.Name, err)
		}
		if _, err := p.histogram(); err != nil {
			return errors.Wrapf(multidraw.ErrConfig, "plot %s: %v", p.Name, err)
		}
	}
	for _, t := range c.Trees {
		if err := unique("tree", t.Name); err != nil {
			return err
		}
		if _, err := multidraw.ParseTier(t.Tier); err != nil {
			return errors.Wrapf(multidraw.ErrConfig, "tree %s: %v", t.Name, err)
		}
		if len(t.Columns) == 0 {
			return errors.Wrapf(multidraw.ErrConfig, "tree %s has no columns", t.Name)
		}
		if len(t.Columns) > filler.MaxColumns {
			return errors.Wrapf(multidraw.ErrConfig, "tree %s has %d columns, at most %d are allowed", t.Name, len(t.Columns), filler.MaxColumns)
		}
	}
	return nil
}

// CheckConfig returns warnings for configurations that run but are likely
// mistakes.
func (c *Config) CheckConfig() []ConfigWarning {
	var warnings []ConfigWarning
	if len(c.Plots) == 0 && len(c.Trees) == 0 {
		warnings = append(warnings, warnNoOutput)
	}
	if len(c.Plots) != 0 && c.Output.Histograms == "" {
		warnings = append(warnings, warnHistogramsNotWritten)
	}
	if c.Draw.Prescale > 1 && c.Input.Rows >= 0 {
		warnings = append(warnings, warnPrescaledWindow)
	}
	return warnings
}

func (p PlotConfig) histogram() (*filler.Histogram, error) {
	var (
		h   *filler.Histogram
		err error
	)
	if len(p.Edges) != 0 {
		h, err = filler.NewHistogramEdges(p.Name, p.Edges)
	} else {
		h, err = filler.NewHistogram(p.Name, p.Bins, p.Min, p.Max)
	}
	if err != nil {
		return nil, err
	}
	h.Title = p.Title
	if h.Title == "" {
		h.Title = p.Expr
	}
	return h, nil
}
