/*
config_test.go - Construction-time validation
*/
package powerup

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lattice/comp-engine/sim"
)

func TestDefaultConfig_IsValid(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())
}

func TestValidate_RejectsFirstViolation(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
		field  string
	}{
		{"zero users", func(c *Config) { c.TotalUsers = 0 }, "total_users"},
		{"depth too small", func(c *Config) { c.MaxDepth = 1 }, "max_depth"},
		{"zero avg units", func(c *Config) { c.AvgUnits = 0 }, "avg_units"},
		{"min above avg", func(c *Config) { c.MinUnits = c.AvgUnits + 1 }, "min_units"},
		{"free units", func(c *Config) { c.UnitPrice = 0 }, "unit_price"},
		{"intensity above one", func(c *Config) { c.PromotionIntensity = 1.5 }, "promotion_intensity"},
		{"promo without target", func(c *Config) { c.TargetUnits = 0 }, "target_units"},
		{"empty rank table", func(c *Config) { c.RankTable = nil }, "rank_table"},
		{"nameless tier", func(c *Config) { c.RankTable[2].Name = "" }, "rank_table"},
		{"non-ascending thresholds", func(c *Config) { c.RankTable[3].MinVP = c.RankTable[2].MinVP }, "rank_table"},
		{"no line thresholds", func(c *Config) { c.LineThresholds = nil }, "line_thresholds"},
		{"too many line thresholds", func(c *Config) { c.LineThresholds = []float64{0.3, 0.2, 0.1, 0.05, 0.01} }, "line_thresholds"},
		{"zero line threshold", func(c *Config) { c.LineThresholds[1] = 0 }, "line_thresholds"},
		{"missing matrix row", func(c *Config) { delete(c.PowerUpMatrix, "N4") }, "powerup_matrix"},
		{"decreasing matrix row", func(c *Config) { c.PowerUpMatrix["N5"] = []float64{0.10, 0.05} }, "powerup_matrix"},
		{"matrix pct above one", func(c *Config) { c.PowerUpMatrix["N7"] = []float64{1.5} }, "powerup_matrix"},
		{"matching pct negative", func(c *Config) { c.MatchingTable["N6"] = -0.1 }, "matching_table"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tc.mutate(&cfg)

			err := cfg.Validate()
			require.Error(t, err)
			assert.ErrorIs(t, err, sim.ErrInvalidConfig)

			var cerr *sim.ConfigError
			require.ErrorAs(t, err, &cerr)
			assert.Equal(t, tc.field, cerr.Field)
		})
	}
}

func TestValidate_AllowsRepeatedCapInMatrixRow(t *testing.T) {
	// Flat segments are legal: rows are non-decreasing, not strictly
	// increasing, so a rank may cap out before five lines.
	cfg := DefaultConfig()
	cfg.PowerUpMatrix["N2"] = []float64{0.04, 0.06, 0.06, 0.06}

	assert.NoError(t, cfg.Validate())
}
