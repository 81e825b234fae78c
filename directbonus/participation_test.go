/*
participation_test.go - Join curve, buyer segmentation, purchase behavior
*/
package directbonus

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testProfiles(t *testing.T, seed int64) *profiles {
	t.Helper()
	tree := testTree(t)
	cfg := DefaultConfig()
	return assignProfiles(tree, &cfg, rand.New(rand.NewSource(seed)))
}

func TestAssignProfiles_EveryUserGetsAJoinMonth(t *testing.T) {
	tree := testTree(t)
	cfg := DefaultConfig()
	p := assignProfiles(tree, &cfg, rand.New(rand.NewSource(1)))

	for id := 1; id <= tree.Size(); id++ {
		assert.GreaterOrEqual(t, p.joinMonth[id], 1)
		assert.LessOrEqual(t, p.joinMonth[id], Months)
	}
}

func TestAssignProfiles_JoinsFollowGrowthCurve(t *testing.T) {
	// The logistic curve puts most joins around the midpoint and few in
	// month 1; with midpoint 4.5 the middle third of the year dominates.
	p := testProfiles(t, 2)

	counts := make([]int, Months+1)
	total := 0
	for _, m := range p.joinMonth[1:] {
		counts[m]++
		total++
	}

	middle := counts[4] + counts[5] + counts[6]
	assert.Greater(t, middle, total/3, "joins concentrate around the midpoint")
	assert.Less(t, counts[1], counts[5], "month 1 is the slow start")
}

func TestAssignProfiles_ChurnFollowsBuyerType(t *testing.T) {
	p := testProfiles(t, 3)

	for id := 1; id < len(p.buyer); id++ {
		join, churn := p.joinMonth[id], p.churnMonth[id]
		switch p.buyer[id] {
		case nonBuyer:
			assert.Equal(t, join, churn, "non-buyers are inactive from day one")
		case oneTime:
			assert.InDelta(t, join+1, churn, 1, "one-time buyers churn within 2 months")
		case occasional:
			assert.GreaterOrEqual(t, churn, join+3)
			assert.LessOrEqual(t, churn, join+6)
		case active:
			assert.GreaterOrEqual(t, churn, join+6)
			assert.LessOrEqual(t, churn, neverChurn)
		}
	}
}

func TestAssignProfiles_NonBuyersHaveNoPrograms(t *testing.T) {
	p := testProfiles(t, 4)

	sawBoth := false
	for id := 1; id < len(p.buyer); id++ {
		if p.buyer[id] == nonBuyer {
			assert.Zero(t, p.programs[id])
		} else {
			assert.NotZero(t, p.programs[id], "buyers join at least one program")
		}
		if p.programs[id] == inNLK|inUSDN {
			sawBoth = true
		}
	}
	assert.True(t, sawBoth, "a meaningful share runs both programs")
}

func TestBuysNLK_NeverBeforeJoinOrAfterChurn(t *testing.T) {
	cfg := DefaultConfig()
	rng := rand.New(rand.NewSource(5))

	p := &profiles{
		joinMonth:  []int{0, 1, 4, 4},
		churnMonth: []int{0, neverChurn, 6, 4},
		buyer:      []buyerType{0, active, active, active},
		programs:   []uint8{0, inNLK, inNLK, inNLK},
	}

	var s buyState
	for trial := 0; trial < 200; trial++ {
		assert.False(t, p.buysNLK(2, 3, &cfg, &s, rng), "month before join")
		assert.False(t, p.buysNLK(2, 6, &cfg, &s, rng), "churn month onwards")
		assert.False(t, p.buysNLK(3, 4, &cfg, &s, rng), "churned in join month")
	}
}

func TestBuysNLK_OneTimeBuyersNeverRepeat(t *testing.T) {
	cfg := DefaultConfig()
	rng := rand.New(rand.NewSource(6))

	p := &profiles{
		joinMonth:  []int{0, 1, 1},
		churnMonth: []int{0, neverChurn, neverChurn},
		buyer:      []buyerType{0, oneTime, oneTime},
		programs:   []uint8{0, inNLK, inNLK},
	}

	s := buyState{nlkCount: 1}
	for trial := 0; trial < 200; trial++ {
		assert.False(t, p.buysNLK(1, 5, &cfg, &s, rng))
	}
}

func TestDrawNLKUnits_WithinBounds(t *testing.T) {
	rng := rand.New(rand.NewSource(8))
	for _, b := range []buyerType{oneTime, occasional, active} {
		for trial := 0; trial < 1000; trial++ {
			units := drawNLKUnits(b, trial%2 == 0, 0.08, 1, rng)
			require.GreaterOrEqual(t, units, 1)
			require.LessOrEqual(t, units, 200)
		}
	}
}

func TestDrawUSDNAmount_WithinBounds(t *testing.T) {
	rng := rand.New(rand.NewSource(9))
	for _, b := range []buyerType{oneTime, occasional, active} {
		for trial := 0; trial < 1000; trial++ {
			amount := drawUSDNAmount(b, trial%2 == 0, 0.08, 1, rng)
			require.GreaterOrEqual(t, amount, 50.0)
			require.LessOrEqual(t, amount, 5000.0)
		}
	}
}

func TestDrawUSDNAmount_MostStaySmall(t *testing.T) {
	// The eligibility threshold is meant to take several purchases: the
	// typical draw sits well below 2500.
	rng := rand.New(rand.NewSource(10))

	below := 0
	const trials = 2000
	for trial := 0; trial < trials; trial++ {
		if drawUSDNAmount(oneTime, false, 0, 1, rng) < 2500 {
			below++
		}
	}
	assert.Greater(t, below, trials*9/10)
}

func TestLogisticCumulative_Saturates(t *testing.T) {
	cfg := DefaultConfig()

	early := logisticCumulative(1000, &cfg, 1)
	mid := logisticCumulative(1000, &cfg, 5)
	late := logisticCumulative(1000, &cfg, 12)

	assert.Less(t, early, mid)
	assert.Less(t, mid, late)
	assert.InDelta(t, 1000, late, 10, "curve saturates near the target")
}
