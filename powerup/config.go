/*
Package powerup implements the PowerUp compensation program simulation:
hierarchy-wide volume-point propagation, rank and line qualification, the
differential PowerUp bonus, and the cascading matching bonus.

PURPOSE:
  Lets an operator explore how plan parameters (rank thresholds, the
  rank x lines percentage matrix, line-qualification rules, promotional
  pressure) translate into payout ratios and rank distributions at scale,
  before the parameters reach a live program.

KEY CONCEPTS IN THIS FILE (config.go):
  - Config: The validated, strongly-typed run configuration
  - RankTier: One rank with its ascending lifetime-VP threshold
  - Matrix row clamp: a rank's percentage row may define fewer than five
    lines; qualified-line counts past the end clamp to the row's last entry

DESIGN PRINCIPLES:
  1. All constraints are checked at construction time via Validate(), never
     deep inside the algorithms. A bad config is one descriptive failure,
     not a partial run.
  2. Percentages are fractions (0.15 == 15%) everywhere inside the engine.

SEE ALSO:
  - engine.go: The orchestrated single-pass run
  - qualify.go: How ranks and lines consume this configuration
*/
package powerup

import (
	"fmt"

	"github.com/lattice/comp-engine/sim"
)

// Unranked is the rank index of users below the lowest threshold.
const Unranked = -1

// MaxLines is the highest qualified-line count the plan recognizes.
const MaxLines = 5

// RankTier is one rank with its lifetime-VP threshold. Tiers are ordered
// ascending and thresholds must strictly increase.
type RankTier struct {
	Name  string  `json:"name"`
	MinVP float64 `json:"min_vp"`
}

// Config is the full PowerUp run configuration.
type Config struct {
	TotalUsers int `json:"total_users"`
	MaxDepth   int `json:"max_depth"`

	// Purchase model
	AvgUnits  int     `json:"avg_units"`
	MinUnits  int     `json:"min_units"`
	UnitPrice float64 `json:"unit_price"`

	// Promotional pull
	PromotionEnabled   bool    `json:"promotion_enabled"`
	PromotionIntensity float64 `json:"promotion_intensity"` // share of users converted, 0-1
	TargetUnits        int     `json:"target_units"`

	// Qualification
	RankTable      []RankTier `json:"rank_table"`
	LineThresholds []float64  `json:"line_thresholds"` // lines 2..5, fraction of total VP

	// Payout tables
	PowerUpMatrix map[string][]float64 `json:"powerup_matrix"` // rank -> percentage per line (index 0 = 1 line)
	MatchingTable map[string]float64   `json:"matching_table"` // rank -> matching percentage

	// Reproducibility
	Seed int64 `json:"seed"`
}

// DefaultConfig returns the plan parameters the simulator ships with.
// Matrix rows shorter than five lines rely on the clamp rule: N1 with four
// qualified lines still earns its two-line cap of 5%.
func DefaultConfig() Config {
	return Config{
		TotalUsers:         10000,
		MaxDepth:           7,
		AvgUnits:           8,
		MinUnits:           1,
		UnitPrice:          25,
		PromotionEnabled:   true,
		PromotionIntensity: 0.30,
		TargetUnits:        8,
		RankTable: []RankTier{
			{Name: "N1", MinVP: 5000},
			{Name: "N2", MinVP: 15000},
			{Name: "N3", MinVP: 30000},
			{Name: "N4", MinVP: 100000},
			{Name: "N5", MinVP: 250000},
			{Name: "N6", MinVP: 500000},
			{Name: "N7", MinVP: 1000000},
		},
		LineThresholds: []float64{0.30, 0.20, 0.10, 0.05},
		PowerUpMatrix: map[string][]float64{
			"N1": {0.03, 0.05},
			"N2": {0.04, 0.06},
			"N3": {0.05, 0.08, 0.10},
			"N4": {0.06, 0.11, 0.13, 0.15},
			"N5": {0.07, 0.13, 0.15, 0.17, 0.19},
			"N6": {0.08, 0.14, 0.17, 0.19, 0.21},
			"N7": {0.09, 0.15, 0.19, 0.21, 0.23},
		},
		MatchingTable: map[string]float64{
			"N1": 0, "N2": 0, "N3": 0.10, "N4": 0.125,
			"N5": 0.15, "N6": 0.20, "N7": 0.25,
		},
		Seed: 42,
	}
}

// Validate checks every construction-time constraint. It stops at the first
// violation so the caller gets a single descriptive configuration failure.
func (c *Config) Validate() error {
	if c.TotalUsers < 1 {
		return &sim.ConfigError{Field: "total_users", Reason: "must be positive"}
	}
	if c.MaxDepth < 2 {
		return &sim.ConfigError{Field: "max_depth", Reason: "must be at least 2"}
	}
	if c.AvgUnits < 1 {
		return &sim.ConfigError{Field: "avg_units", Reason: "must be positive"}
	}
	if c.MinUnits < 1 || c.MinUnits > c.AvgUnits {
		return &sim.ConfigError{Field: "min_units", Reason: "must be in [1, avg_units]"}
	}
	if c.UnitPrice <= 0 {
		return &sim.ConfigError{Field: "unit_price", Reason: "must be positive"}
	}
	if c.PromotionIntensity < 0 || c.PromotionIntensity > 1 {
		return &sim.ConfigError{Field: "promotion_intensity", Reason: "must be in [0, 1]"}
	}
	if c.PromotionEnabled && c.TargetUnits < 1 {
		return &sim.ConfigError{Field: "target_units", Reason: "must be positive when promotion is enabled"}
	}

	if len(c.RankTable) == 0 {
		return &sim.ConfigError{Field: "rank_table", Reason: "must not be empty"}
	}
	for i, tier := range c.RankTable {
		if tier.Name == "" {
			return &sim.ConfigError{Field: "rank_table", Reason: fmt.Sprintf("tier %d has no name", i)}
		}
		if tier.MinVP <= 0 {
			return &sim.ConfigError{Field: "rank_table", Reason: fmt.Sprintf("%s: threshold must be positive", tier.Name)}
		}
		if i > 0 && tier.MinVP <= c.RankTable[i-1].MinVP {
			return &sim.ConfigError{Field: "rank_table", Reason: fmt.Sprintf("%s: thresholds must strictly ascend", tier.Name)}
		}
	}

	if len(c.LineThresholds) == 0 {
		return &sim.ConfigError{Field: "line_thresholds", Reason: "must not be empty"}
	}
	if len(c.LineThresholds) > MaxLines-1 {
		return &sim.ConfigError{Field: "line_thresholds", Reason: fmt.Sprintf("at most %d thresholds (lines 2..%d)", MaxLines-1, MaxLines)}
	}
	for i, th := range c.LineThresholds {
		if th <= 0 || th > 1 {
			return &sim.ConfigError{Field: "line_thresholds", Reason: fmt.Sprintf("line %d: threshold must be in (0, 1]", i+2)}
		}
	}

	for _, tier := range c.RankTable {
		row, ok := c.PowerUpMatrix[tier.Name]
		if !ok || len(row) == 0 {
			return &sim.ConfigError{Field: "powerup_matrix", Reason: fmt.Sprintf("no row for rank %s", tier.Name)}
		}
		if len(row) > MaxLines {
			return &sim.ConfigError{Field: "powerup_matrix", Reason: fmt.Sprintf("%s: row longer than %d lines", tier.Name, MaxLines)}
		}
		for i, pct := range row {
			if pct < 0 || pct > 1 {
				return &sim.ConfigError{Field: "powerup_matrix", Reason: fmt.Sprintf("%s line %d: percentage out of [0, 1]", tier.Name, i+1)}
			}
			if i > 0 && pct < row[i-1] {
				return &sim.ConfigError{Field: "powerup_matrix", Reason: fmt.Sprintf("%s: percentages must be non-decreasing in lines", tier.Name)}
			}
		}
	}

	for rank, pct := range c.MatchingTable {
		if pct < 0 || pct > 1 {
			return &sim.ConfigError{Field: "matching_table", Reason: fmt.Sprintf("%s: percentage out of [0, 1]", rank)}
		}
	}
	return nil
}

// rankName returns the display name of a rank index, or "unranked".
func (c *Config) rankName(rank int) string {
	if rank == Unranked {
		return "unranked"
	}
	return c.RankTable[rank].Name
}

// powerUpPct resolves the matrix percentage for a (rank, lines) pair.
// Qualified-line counts past the end of the rank's row clamp to the row's
// highest defined line, so a rank's cap is never exceeded.
func (c *Config) powerUpPct(rank, lines int) float64 {
	if rank == Unranked || lines < 1 {
		return 0
	}
	row := c.PowerUpMatrix[c.RankTable[rank].Name]
	if lines > len(row) {
		lines = len(row)
	}
	return row[lines-1]
}

// matchingPct resolves the matching percentage for a rank. Ranks absent
// from the table (and unranked users) match at zero.
func (c *Config) matchingPct(rank int) float64 {
	if rank == Unranked {
		return 0
	}
	return c.MatchingTable[c.RankTable[rank].Name]
}
