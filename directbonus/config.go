/*
Package directbonus implements the 12-month Direct Bonus simulation: member
joins spread over the year by a logistic growth curve, program participation
and buyer-type segmentation, monthly purchase modeling, and two independent
bonus ledgers computed month by month over a shared referral hierarchy.

LEDGERS:
  - NLK (primary): the sponsor earns a flat rate on each direct descendant's
    monthly purchase. The rate is elevated during configured promotional
    months and reverts to standard otherwise. One level only.
  - USDN (secondary): the first three ancestors earn a 7% / 1.5% / 1.5%
    split on a separate purchase stream, gated per ancestor by a cumulative
    purchase threshold. Would-be bonuses to ineligible ancestors are recorded
    as disqualified, never paid, carried, or redirected.

REINVESTMENT:
  A configured fraction of each month's USDN inflow seeds the next month's
  purchase pool, distributed pro rata over that month's USDN purchasers.
  This compounds: reinvested amounts count toward cumulative eligibility and
  generate upline bonuses of their own.

KEY CONCEPTS IN THIS FILE (config.go):
  - Config: The validated run configuration
  - Months: Fixed 12-month horizon; month indices are 1-based

SEE ALSO:
  - participation.go: Join months, buyer types, purchase behavior
  - engine.go: The strictly-sequential monthly loop
*/
package directbonus

import (
	"fmt"

	"github.com/lattice/comp-engine/sim"
)

// Months is the fixed simulation horizon.
const Months = 12

// Config is the full Direct Bonus run configuration. The hierarchy itself is
// supplied to Run, not configured here.
type Config struct {
	// Growth: cumulative joins follow target/(1 + e^(-rate*(m - midpoint))).
	GrowthRate     float64 `json:"growth_rate"`
	GrowthMidpoint float64 `json:"growth_midpoint"`

	// Program participation shares among buyers. Normalized after the
	// depth-based commitment bias is applied, so they need not sum to 1.
	NLKOnlyShare  float64 `json:"nlk_only_share"`
	USDNOnlyShare float64 `json:"usdn_only_share"`
	BothShare     float64 `json:"both_share"`

	// NLK primary ledger
	NLKAvgUnits     int     `json:"nlk_avg_units"`
	NLKUnitPrice    float64 `json:"nlk_unit_price"`
	NLKPromoRate    float64 `json:"nlk_promo_rate"`
	NLKStandardRate float64 `json:"nlk_standard_rate"`
	NLKPromoMonths  []int   `json:"nlk_promo_months"`

	// USDN secondary ledger
	USDNAvgAmount        float64 `json:"usdn_avg_amount"`
	USDNL1Rate           float64 `json:"usdn_l1_rate"`
	USDNL2Rate           float64 `json:"usdn_l2_rate"`
	USDNL3Rate           float64 `json:"usdn_l3_rate"`
	EligibilityThreshold float64 `json:"usdn_eligibility_threshold"`
	USDNPromoMonths      []int   `json:"usdn_promo_months"`

	// PromoAmountBoost uplifts purchase amounts during a program's
	// promotional months (0.08 = +8%). A deterministic multiplier, not a
	// reshaped distribution.
	PromoAmountBoost float64 `json:"promo_amount_boost"`

	// ReinvestmentRate is the fraction of a month's USDN inflow seeding the
	// next month's pool. Zero disables reinvestment.
	ReinvestmentRate float64 `json:"reinvestment_rate"`

	// Reproducibility
	Seed int64 `json:"seed"`
}

// DefaultConfig returns the program parameters the simulator ships with.
func DefaultConfig() Config {
	return Config{
		GrowthRate:           0.8,
		GrowthMidpoint:       4.5,
		NLKOnlyShare:         0.40,
		USDNOnlyShare:        0.20,
		BothShare:            0.40,
		NLKAvgUnits:          8,
		NLKUnitPrice:         25,
		NLKPromoRate:         0.15,
		NLKStandardRate:      0.10,
		NLKPromoMonths:       []int{1, 2},
		USDNAvgAmount:        500,
		USDNL1Rate:           0.07,
		USDNL2Rate:           0.015,
		USDNL3Rate:           0.015,
		EligibilityThreshold: 2500,
		USDNPromoMonths:      []int{2, 3, 4},
		PromoAmountBoost:     0.08,
		ReinvestmentRate:     0.50,
		Seed:                 42,
	}
}

// Validate checks every construction-time constraint, stopping at the first
// violation.
func (c *Config) Validate() error {
	if c.GrowthRate <= 0 {
		return &sim.ConfigError{Field: "growth_rate", Reason: "must be positive"}
	}
	if c.GrowthMidpoint < 1 || c.GrowthMidpoint > Months {
		return &sim.ConfigError{Field: "growth_midpoint", Reason: fmt.Sprintf("must be in [1, %d]", Months)}
	}

	if c.NLKOnlyShare < 0 || c.USDNOnlyShare < 0 || c.BothShare < 0 {
		return &sim.ConfigError{Field: "participation_shares", Reason: "must be non-negative"}
	}
	if c.NLKOnlyShare+c.USDNOnlyShare+c.BothShare <= 0 {
		return &sim.ConfigError{Field: "participation_shares", Reason: "must not all be zero"}
	}

	if c.NLKAvgUnits < 1 {
		return &sim.ConfigError{Field: "nlk_avg_units", Reason: "must be positive"}
	}
	if c.NLKUnitPrice <= 0 {
		return &sim.ConfigError{Field: "nlk_unit_price", Reason: "must be positive"}
	}
	rates := []struct {
		field string
		value float64
	}{
		{"nlk_promo_rate", c.NLKPromoRate},
		{"nlk_standard_rate", c.NLKStandardRate},
		{"usdn_l1_rate", c.USDNL1Rate},
		{"usdn_l2_rate", c.USDNL2Rate},
		{"usdn_l3_rate", c.USDNL3Rate},
	}
	for _, r := range rates {
		if r.value < 0 || r.value > 1 {
			return &sim.ConfigError{Field: r.field, Reason: "must be in [0, 1]"}
		}
	}
	if err := validMonths("nlk_promo_months", c.NLKPromoMonths); err != nil {
		return err
	}
	if err := validMonths("usdn_promo_months", c.USDNPromoMonths); err != nil {
		return err
	}

	if c.USDNAvgAmount <= 0 {
		return &sim.ConfigError{Field: "usdn_avg_amount", Reason: "must be positive"}
	}
	if c.EligibilityThreshold < 0 {
		return &sim.ConfigError{Field: "usdn_eligibility_threshold", Reason: "must be non-negative"}
	}
	if c.PromoAmountBoost < 0 || c.PromoAmountBoost > 1 {
		return &sim.ConfigError{Field: "promo_amount_boost", Reason: "must be in [0, 1]"}
	}
	if c.ReinvestmentRate < 0 || c.ReinvestmentRate > 1 {
		return &sim.ConfigError{Field: "reinvestment_rate", Reason: "must be in [0, 1]"}
	}
	return nil
}

func validMonths(field string, months []int) error {
	for _, m := range months {
		if m < 1 || m > Months {
			return &sim.ConfigError{Field: field, Reason: fmt.Sprintf("month %d outside 1..%d", m, Months)}
		}
	}
	return nil
}

// promoMonth reports whether m appears in the given promotional month list.
func promoMonth(m int, months []int) bool {
	for _, pm := range months {
		if pm == m {
			return true
		}
	}
	return false
}
