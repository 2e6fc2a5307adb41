package multidraw

import (
	"math"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
)

func TestConfigDefaults(t *testing.T) {
	cfg := testConfig()
	require.Equal(t, uint64(1), cfg.Prescale)
	require.Equal(t, "eventNumber", cfg.PrescaleColumn)
	require.Equal(t, WidthWide, cfg.WeightWidth)
	require.Equal(t, 1.0, cfg.Luminosity)
	require.NoError(t, cfg.Validate())
}

func TestConfigValidate(t *testing.T) {
	for name, mutate := range map[string]func(*Config){
		"prescale":        func(c *Config) { c.Prescale = 0 },
		"prescale column": func(c *Config) { c.Prescale = 2; c.PrescaleColumn = "" },
		"width":           func(c *Config) { c.WeightWidth = "medium" },
		"luminosity":      func(c *Config) { c.Luminosity = math.NaN() },
	} {
		t.Run(name, func(t *testing.T) {
			cfg := testConfig()
			mutate(&cfg)
			require.True(t, errors.Is(cfg.Validate(), ErrConfig))
		})
	}
}

func TestParseTier(t *testing.T) {
	for _, tier := range []Tier{Unconditional, PostBase, PostFull} {
		got, err := ParseTier(tier.String())
		require.NoError(t, err)
		require.Equal(t, tier, got)
	}
	_, err := ParseTier("sometimes")
	require.Error(t, err)

	tier, err := ParseTier("")
	require.NoError(t, err)
	require.Equal(t, PostBase, tier)
	require.Equal(t, "tier(9)", Tier(9).String())
}
