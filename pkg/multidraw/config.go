package multidraw

import (
	"flag"
	"math"

	"github.com/pkg/errors"
)

const (
	WidthNarrow = "narrow"
	WidthWide   = "wide"

	defaultPrescaleColumn = "eventNumber"
)

var ErrConfig = errors.New("invalid configuration")

// Config controls a draw run.
type Config struct {
	BaseSelection string `yaml:"base_selection"`
	FullSelection string `yaml:"full_selection"`

	// WeightColumn holds the per-row event weight. Empty means unit weights.
	WeightColumn string `yaml:"weight_column"`
	// WeightWidth is the width of the weight column: narrow (float32) or wide (float64).
	WeightWidth string `yaml:"weight_width"`

	// Rows are kept when the prescale column value is a multiple of Prescale.
	Prescale       uint64 `yaml:"prescale"`
	PrescaleColumn string `yaml:"prescale_column"`

	Luminosity float64 `yaml:"luminosity"`
	Verbosity  int     `yaml:"verbosity"`
}

// RegisterFlagsAndApplyDefaults registers the flags and sets the defaults.
func (cfg *Config) RegisterFlagsAndApplyDefaults(prefix string, f *flag.FlagSet) {
	f.StringVar(&cfg.BaseSelection, prefix+"base-selection", "", "Baseline selection expression.")
	f.StringVar(&cfg.FullSelection, prefix+"full-selection", "", "Full selection expression, applied on top of the baseline.")
	f.StringVar(&cfg.WeightColumn, prefix+"weight-column", "", "Column holding the event weight. Unit weights if empty.")
	f.StringVar(&cfg.WeightWidth, prefix+"weight-width", WidthWide, "Width of the weight column: narrow or wide.")
	f.Uint64Var(&cfg.Prescale, prefix+"prescale", 1, "Only process rows whose prescale column value is a multiple of this.")
	f.StringVar(&cfg.PrescaleColumn, prefix+"prescale-column", defaultPrescaleColumn, "Column used for prescaling.")
	f.Float64Var(&cfg.Luminosity, prefix+"luminosity", 1, "Scale factor applied to every event weight.")
	f.IntVar(&cfg.Verbosity, prefix+"verbosity", 0, "Diagnostic verbosity, 0 to 4.")
}

// Validate checks the configuration.
func (cfg *Config) Validate() error {
	if cfg.Prescale < 1 {
		return errors.Wrap(ErrConfig, "prescale must be at least 1")
	}
	if cfg.Prescale > 1 && cfg.PrescaleColumn == "" {
		return errors.Wrap(ErrConfig, "prescale column is required when prescaling")
	}
	switch cfg.WeightWidth {
	case WidthNarrow, WidthWide:
	default:
		return errors.Wrapf(ErrConfig, "unknown weight width %q", cfg.WeightWidth)
	}
	if math.IsNaN(cfg.Luminosity) || math.IsInf(cfg.Luminosity, 0) {
		return errors.Wrapf(ErrConfig, "invalid luminosity %g", cfg.Luminosity)
	}
	return nil
}
