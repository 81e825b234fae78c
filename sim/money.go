/*
money.go - Monetary rounding and float tolerance helpers

PURPOSE:
  The simulation hot loops run on float64: percentages compress and cascade
  multiplicatively and plan rules compare percentages with a tolerance,
  not exact equality. Everything that LEAVES an engine (ledger
  rows, month summaries, result totals, top-earner tables) is normalized to
  cent precision here using decimal.Decimal, so two runs with the same seed
  produce byte-identical output.

USAGE:
  total := sim.RoundMoney(rawTotal)      // 2dp, half-up
  if sim.PctLessOrEqual(a, b) { ... }    // a <= b within Epsilon

SEE ALSO:
  - powerup/stats.go, directbonus/ledger.go: callers
*/
package sim

import (
	"github.com/shopspring/decimal"
)

// Epsilon is the tolerance for percentage comparisons. Differential and
// matching eligibility checks use it to avoid spurious results from
// floating-point representation.
const Epsilon = 1e-9

// RoundMoney rounds a monetary amount to cents (half-up) through decimal to
// avoid float64 binary rounding artifacts.
func RoundMoney(v float64) float64 {
	f, _ := decimal.NewFromFloat(v).Round(2).Float64()
	return f
}

// RoundPct rounds a percentage to one decimal place for display grouping.
func RoundPct(v float64) float64 {
	f, _ := decimal.NewFromFloat(v).Round(1).Float64()
	return f
}

// MoneyString formats a monetary amount with exactly two decimals.
func MoneyString(v float64) string {
	return decimal.NewFromFloat(v).StringFixed(2)
}

// PctPositive reports whether a percentage differential is meaningfully
// above zero.
func PctPositive(v float64) bool { return v > Epsilon }

// PctLessOrEqual reports whether a <= b within tolerance. Used by the
// matching-bonus eligibility rule (ancestor percentage must not exceed the
// downline's).
func PctLessOrEqual(a, b float64) bool { return a <= b+Epsilon }

// ApproxEqual reports whether two float64 values are equal within Epsilon.
func ApproxEqual(a, b float64) bool {
	d := a - b
	return d < Epsilon && d > -Epsilon
}

// Ratio returns num/den, or zero when the denominator is zero. Zero-volume
// users must short-circuit instead of dividing by zero.
func Ratio(num, den float64) float64 {
	if den == 0 {
		return 0
	}
	return num / den
}
