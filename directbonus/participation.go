/*
participation.go - Who joins when, and how they buy

PURPOSE:
  Assigns each member a join month from the logistic growth curve, a buyer
  type, program participation, and a churn month. These profiles drive the
  monthly purchase decisions and amounts.

BEHAVIORAL MODEL (calibrated against published MLM participation studies):
  - Buyer types: roughly 22-30% never purchase, 45% purchase once, 22%
    purchase occasionally (2-3 times), the remainder purchase regularly.
  - Early joiners (shallow in the hierarchy) skew toward participating in
    both programs and away from the non-buyer segment.
  - Churn: one-time buyers go inactive within 2 months of joining,
    occasional buyers within 3-6, active buyers within 6-12.
  - First purchases land mostly in the join month; the probability of a
    late first purchase decays geometrically. Repeat purchase probability
    is low and buyer-type dependent, with a promotional-month uplift.
*/
package directbonus

import (
	"math"
	"math/rand"

	"github.com/lattice/comp-engine/hierarchy"
)

type buyerType int

const (
	nonBuyer buyerType = iota
	oneTime
	occasional
	active
)

func (b buyerType) String() string {
	switch b {
	case oneTime:
		return "one_time"
	case occasional:
		return "occasional"
	case active:
		return "active"
	default:
		return "non_buyer"
	}
}

// program participation bitmask
const (
	inNLK  = 1 << iota // participates in the NLK program
	inUSDN             // participates in the USDN program
)

// profiles holds the per-user behavioral assignments, 1-based by user id.
type profiles struct {
	joinMonth  []int
	churnMonth []int // first inactive month; Months+1 means never churns
	buyer      []buyerType
	programs   []uint8
}

// neverChurn marks a user active through the whole horizon.
const neverChurn = Months + 1

// logisticCumulative is the cumulative join target after month m.
func logisticCumulative(target float64, cfg *Config, m int) float64 {
	return target / (1 + math.Exp(-cfg.GrowthRate*(float64(m)-cfg.GrowthMidpoint)))
}

// assignProfiles builds the full behavioral profile set for the hierarchy.
func assignProfiles(t *hierarchy.Tree, cfg *Config, rng *rand.Rand) *profiles {
	n := t.Size()
	p := &profiles{
		joinMonth:  make([]int, n+1),
		churnMonth: make([]int, n+1),
		buyer:      make([]buyerType, n+1),
		programs:   make([]uint8, n+1),
	}

	p.assignJoinMonths(n, cfg, rng)

	t.Each(func(u *hierarchy.User) {
		// Shallow users joined the business earlier and commit harder.
		commitment := 1 - float64(u.Depth-1)/30
		if commitment < 0 {
			commitment = 0
		}

		p.buyer[u.ID] = drawBuyerType(commitment, rng)
		if p.buyer[u.ID] != nonBuyer {
			p.programs[u.ID] = drawPrograms(cfg, commitment, rng)
		}
		p.churnMonth[u.ID] = drawChurnMonth(p.buyer[u.ID], p.joinMonth[u.ID], rng)
	})

	return p
}

// assignJoinMonths spreads users over the 12 months along the logistic
// curve. Per-month targets are the curve's month-over-month increments,
// normalized to the actual user count; the shuffled assignment keeps join
// timing independent of hierarchy position.
func (p *profiles) assignJoinMonths(n int, cfg *Config, rng *rand.Rand) {
	target := float64(n)
	monthly := make([]int, Months)
	prev := 0.0
	totalRaw := 0
	for m := 1; m <= Months; m++ {
		cum := logisticCumulative(target, cfg, m)
		inc := int(cum - prev)
		if inc < 0 {
			inc = 0
		}
		monthly[m-1] = inc
		totalRaw += inc
		prev = cum
	}
	if totalRaw > 0 {
		scaled := 0
		for i := range monthly {
			monthly[i] = monthly[i] * n / totalRaw
			scaled += monthly[i]
		}
		monthly[Months-1] += n - scaled // rounding remainder joins last
	} else {
		monthly[Months-1] = n
	}

	order := rng.Perm(n) // 0-based permutation of user ids - 1
	idx := 0
	for m := 1; m <= Months; m++ {
		for i := 0; i < monthly[m-1] && idx < n; i++ {
			p.joinMonth[order[idx]+1] = m
			idx++
		}
	}
	for ; idx < n; idx++ {
		p.joinMonth[order[idx]+1] = Months
	}
}

func drawBuyerType(commitment float64, rng *rand.Rand) buyerType {
	// 22-30% non-buyers depending on commitment, then 45% one-time,
	// 22% occasional, remainder active.
	nonBuyerCut := 0.22 + (1-commitment)*0.08
	oneTimeCut := nonBuyerCut + 0.45
	occasionalCut := oneTimeCut + 0.22

	roll := rng.Float64()
	switch {
	case roll < nonBuyerCut:
		return nonBuyer
	case roll < oneTimeCut:
		return oneTime
	case roll < occasionalCut:
		return occasional
	default:
		return active
	}
}

func drawPrograms(cfg *Config, commitment float64, rng *rand.Rand) uint8 {
	// Committed users lean toward running both programs.
	both := cfg.BothShare + commitment*0.15
	nlk := cfg.NLKOnlyShare - commitment*0.05
	usdn := cfg.USDNOnlyShare - commitment*0.10
	if nlk < 0 {
		nlk = 0
	}
	if usdn < 0 {
		usdn = 0
	}
	total := both + nlk + usdn

	roll := rng.Float64() * total
	switch {
	case roll < both:
		return inNLK | inUSDN
	case roll < both+nlk:
		return inNLK
	default:
		return inUSDN
	}
}

func drawChurnMonth(b buyerType, joinMonth int, rng *rand.Rand) int {
	switch b {
	case nonBuyer:
		return joinMonth
	case oneTime:
		return joinMonth + 1 + rng.Intn(2) // 1-2 months after joining
	case occasional:
		return joinMonth + 3 + rng.Intn(4) // 3-6 months
	default: // active
		m := joinMonth + 6 + rng.Intn(7) // 6-12 months
		if m > neverChurn {
			m = neverChurn
		}
		return m
	}
}

// =============================================================================
// MONTHLY PURCHASE DECISIONS
// =============================================================================

// buyState tracks what a user has already done, to distinguish first from
// repeat purchases.
type buyState struct {
	nlkCount  int
	usdnCount int
}

// buysNLK decides whether the user makes an NLK purchase this month.
func (p *profiles) buysNLK(id, month int, cfg *Config, s *buyState, rng *rand.Rand) bool {
	if !p.activeIn(id, month) || p.programs[id]&inNLK == 0 {
		return false
	}
	promo := promoMonth(month, cfg.NLKPromoMonths)
	sinceJoin := month - p.joinMonth[id]

	if s.nlkCount == 0 {
		if sinceJoin == 0 {
			// Buyers overwhelmingly complete their first NLK purchase in
			// the month they join.
			prob := firstMonthProb(p.buyer[id], 0.88, 0.75, 0.82)
			if promo {
				prob = math.Min(0.95, prob*1.05)
			}
			return rng.Float64() < prob
		}
		prob := 0.25 * math.Pow(0.55, float64(sinceJoin))
		if promo {
			prob *= 1.15
		}
		return rng.Float64() < prob
	}

	switch p.buyer[id] {
	case occasional:
		if s.nlkCount >= 3 {
			return false
		}
		return rng.Float64() < pick(promo, 0.12, 0.08)
	case active:
		return rng.Float64() < pick(promo, 0.30, 0.20)
	default: // one-time buyers never repeat
		return false
	}
}

// buysUSDN decides whether the user makes a USDN purchase this month.
func (p *profiles) buysUSDN(id, month int, cfg *Config, s *buyState, rng *rand.Rand) bool {
	if !p.activeIn(id, month) || p.programs[id]&inUSDN == 0 {
		return false
	}
	promo := promoMonth(month, cfg.USDNPromoMonths)
	sinceJoin := month - p.joinMonth[id]

	if s.usdnCount == 0 {
		if sinceJoin == 0 {
			// First USDN commitments are rarer than NLK: it is the
			// investment-tier program.
			prob := firstMonthProb(p.buyer[id], 0.50, 0.40, 0.55)
			if promo {
				prob = math.Min(0.65, prob*1.08)
			}
			return rng.Float64() < prob
		}
		prob := 0.18 * math.Pow(0.45, float64(sinceJoin))
		if promo {
			prob *= 1.15
		}
		return rng.Float64() < prob
	}

	switch p.buyer[id] {
	case occasional:
		if s.usdnCount >= 2 {
			return false
		}
		return rng.Float64() < pick(promo, 0.08, 0.05)
	case active:
		return rng.Float64() < pick(promo, 0.18, 0.12)
	default:
		return false
	}
}

func (p *profiles) activeIn(id, month int) bool {
	return month >= p.joinMonth[id] && month < p.churnMonth[id] && p.buyer[id] != nonBuyer
}

func pick(cond bool, a, b float64) float64 {
	if cond {
		return a
	}
	return b
}

func firstMonthProb(b buyerType, one, occ, act float64) float64 {
	switch b {
	case oneTime:
		return one
	case occasional:
		return occ
	case active:
		return act
	default:
		return 0
	}
}

// =============================================================================
// PURCHASE AMOUNTS
// =============================================================================

// The tier tables below are calibrated for the default averages; configured
// averages scale them linearly.
const (
	nlkBaselineUnits   = 8
	usdnBaselineAmount = 500
)

// drawNLKUnits samples an NLK purchase in units. Each buyer type draws from
// its own tiered mixture; the overall blend matches the single-event
// purchase distribution (many small orders, a heavy upper tail).
func drawNLKUnits(b buyerType, promo bool, boost, scale float64, rng *rand.Rand) int {
	roll := rng.Float64()
	var units int
	switch b {
	case active:
		switch {
		case roll < 0.08:
			units = 1 + rng.Intn(5)
		case roll < 0.40:
			units = 10 + rng.Intn(31)
		case roll < 0.80:
			units = 41 + rng.Intn(60)
		default:
			units = 101 + rng.Intn(80)
		}
	case occasional:
		switch {
		case roll < 0.12:
			units = 1 + rng.Intn(5)
		case roll < 0.60:
			units = 6 + rng.Intn(25)
		case roll < 0.92:
			units = 31 + rng.Intn(40)
		default:
			units = 71 + rng.Intn(50)
		}
	default:
		switch {
		case roll < 0.15:
			units = 1 + rng.Intn(5)
		case roll < 0.70:
			units = 6 + rng.Intn(25)
		case roll < 0.95:
			units = 31 + rng.Intn(50)
		default:
			units = 81 + rng.Intn(80)
		}
	}

	scaled := float64(units) * scale
	if promo {
		scaled *= 1 + boost
	}
	units = int(scaled)
	if units < 1 {
		units = 1
	}
	if units > 200 {
		units = 200
	}
	return units
}

// drawUSDNAmount samples a USDN purchase in dollars. Amounts skew small:
// the eligibility threshold is intentionally hard to reach and usually
// takes several purchases.
func drawUSDNAmount(b buyerType, promo bool, boost, scale float64, rng *rand.Rand) float64 {
	uniform := func(lo, hi float64) float64 { return lo + rng.Float64()*(hi-lo) }

	roll := rng.Float64()
	var amount float64
	switch b {
	case active:
		switch {
		case roll < 0.25:
			amount = uniform(100, 400)
		case roll < 0.55:
			amount = uniform(400, 1000)
		case roll < 0.85:
			amount = uniform(1000, 2000)
		default:
			amount = uniform(2000, 4000)
		}
	case occasional:
		switch {
		case roll < 0.35:
			amount = uniform(50, 300)
		case roll < 0.75:
			amount = uniform(300, 700)
		default:
			amount = uniform(700, 1500)
		}
	default:
		switch {
		case roll < 0.50:
			amount = uniform(50, 250)
		case roll < 0.85:
			amount = uniform(250, 600)
		default:
			amount = uniform(600, 1200)
		}
	}

	amount *= scale
	if promo {
		amount *= 1 + boost
	}
	if amount < 50 {
		amount = 50
	}
	if amount > 5000 {
		amount = 5000
	}
	return amount
}
