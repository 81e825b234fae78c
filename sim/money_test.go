/*
money_test.go - Rounding and tolerance helpers
*/
package sim

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRoundMoney(t *testing.T) {
	assert.Equal(t, 10.56, RoundMoney(10.555))
	assert.Equal(t, 10.55, RoundMoney(10.554))
	assert.Equal(t, 0.0, RoundMoney(0))
	assert.Equal(t, -2.35, RoundMoney(-2.345))

	// The classic float64 trap: 1.005 rounds through decimal, not binary.
	assert.Equal(t, 4.21, RoundMoney(4.205))
}

func TestRoundPct(t *testing.T) {
	assert.Equal(t, 12.3, RoundPct(12.34))
	assert.Equal(t, 12.4, RoundPct(12.35))
}

func TestMoneyString(t *testing.T) {
	assert.Equal(t, "10.50", MoneyString(10.5))
	assert.Equal(t, "0.00", MoneyString(0))
}

func TestPctComparisons(t *testing.T) {
	// Tolerance absorbs representation noise around equality.
	assert.False(t, PctPositive(0))
	assert.False(t, PctPositive(Epsilon/2))
	assert.True(t, PctPositive(0.0001))

	assert.True(t, PctLessOrEqual(0.19, 0.19))
	assert.True(t, PctLessOrEqual(0.19+Epsilon/2, 0.19))
	assert.False(t, PctLessOrEqual(0.21, 0.19))

	// 0.1+0.2 != 0.3 in float64; ApproxEqual says they are the same pct.
	assert.True(t, ApproxEqual(0.1+0.2, 0.3))
	assert.False(t, ApproxEqual(0.3, 0.31))
}

func TestRatio(t *testing.T) {
	assert.Equal(t, 0.5, Ratio(1, 2))
	assert.Equal(t, 0.0, Ratio(5, 0), "zero denominator short-circuits")
}
