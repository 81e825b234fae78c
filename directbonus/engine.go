/*
engine.go - The strictly-sequential 12-month loop

PURPOSE:
  Runs the Direct Bonus simulation over a pre-built hierarchy. Each month:
  NLK purchases and sponsor bonuses, then USDN purchases in ascending user
  id with eligibility-gated 3-level bonuses, then the month finalizes and
  its reinvestment pool carries into the next month's purchases.

ORDERING INVARIANTS:
  - Month m+1 never starts before month m's ledger and eligibility state
    are finalized; a user's payouts in month m depend on months 1..m-1.
  - Within a month, USDN purchases process in ascending user id, and a
    purchaser's own cumulative amount (and eligibility flag) updates before
    its uplines are paid. The order is part of the deterministic contract.
  - An ancestor ineligible at payment time forfeits that bonus: the amount
    is recorded as disqualified, never carried or redirected, even if the
    ancestor becomes eligible later the same month.
*/
package directbonus

import (
	"fmt"
	"math/rand"

	"github.com/lattice/comp-engine/hierarchy"
	"github.com/lattice/comp-engine/sim"
)

// usdnLevels is how many ancestors the secondary ledger pays.
const usdnLevels = 3

// runState is the mutable per-run accounting, 1-based by user id.
type runState struct {
	buy            []buyState
	cumulativeUSDN []float64
	eligible       []bool

	nlkEarned    []float64
	usdnEarned   []float64
	disqualified []float64
}

func newRunState(n int) *runState {
	return &runState{
		buy:            make([]buyState, n+1),
		cumulativeUSDN: make([]float64, n+1),
		eligible:       make([]bool, n+1),
		nlkEarned:      make([]float64, n+1),
		usdnEarned:     make([]float64, n+1),
		disqualified:   make([]float64, n+1),
	}
}

// Run executes the 12-month Direct Bonus simulation over the supplied
// hierarchy. The tree is read, never modified, so a tree produced by a
// PowerUp run can be shared directly.
func Run(cfg Config, tree *hierarchy.Tree, hooks sim.Hooks) (*Result, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if tree == nil {
		return nil, &sim.ConfigError{Field: "hierarchy", Reason: "a hierarchy is required"}
	}
	rng := rand.New(rand.NewSource(cfg.Seed))

	if err := hooks.Step("Assigning join dates and buyer profiles", 5); err != nil {
		return nil, err
	}
	p := assignProfiles(tree, &cfg, rng)

	n := tree.Size()
	state := newRunState(n)
	months := make([]MonthSummary, 0, Months)
	var entries []LedgerEntry

	nlkScale := float64(cfg.NLKAvgUnits) / nlkBaselineUnits
	usdnScale := cfg.USDNAvgAmount / usdnBaselineAmount

	pool := 0.0 // reinvestment pool carried into the current month
	cumulativeUsers := 0

	for month := 1; month <= Months; month++ {
		if err := hooks.Step(monthStage(month), 10+85*(month-1)/Months); err != nil {
			return nil, err
		}

		summary := MonthSummary{Month: month}
		for id := 1; id <= n; id++ {
			if p.joinMonth[id] == month {
				summary.NewUsers++
			}
		}
		cumulativeUsers += summary.NewUsers
		summary.CumulativeUsers = cumulativeUsers

		entries = runNLKMonth(tree, &cfg, p, state, month, nlkScale, rng, &summary, entries)

		var err error
		entries, pool, err = runUSDNMonth(tree, &cfg, p, state, month, usdnScale, pool, rng, &summary, entries)
		if err != nil {
			return nil, err
		}

		summary.EligibleUsers = countEligible(state)
		summary.finalize()
		months = append(months, summary)
	}

	if err := hooks.Step("Compiling statistics", 97); err != nil {
		return nil, err
	}
	result := buildResult(tree, p, state, months, entries, pool)

	hooks.Report("Complete", 100)
	return result, nil
}

func monthStage(month int) string {
	return fmt.Sprintf("Simulating month %d of %d", month, Months)
}

// runNLKMonth processes every NLK purchase for the month and pays the
// sponsor's direct bonus at the month's rate.
func runNLKMonth(t *hierarchy.Tree, cfg *Config, p *profiles, state *runState, month int, scale float64, rng *rand.Rand, summary *MonthSummary, entries []LedgerEntry) []LedgerEntry {
	promo := promoMonth(month, cfg.NLKPromoMonths)
	rate := cfg.NLKStandardRate
	if promo {
		rate = cfg.NLKPromoRate
	}

	n := t.Size()
	for id := 1; id <= n; id++ {
		if !p.buysNLK(id, month, cfg, &state.buy[id], rng) {
			continue
		}
		units := drawNLKUnits(p.buyer[id], promo, cfg.PromoAmountBoost, scale, rng)
		amount := float64(units) * cfg.NLKUnitPrice

		state.buy[id].nlkCount++
		summary.ActiveBuyers++
		summary.NLKUnits += units
		summary.NLKInflow += amount

		entry := LedgerEntry{
			UserID:  id,
			Month:   month,
			Program: ProgramNLK,
			Units:   units,
			Amount:  sim.RoundMoney(amount),
		}

		if sponsor := t.User(id).SponsorID; sponsor != hierarchy.NoSponsor {
			bonus := amount * rate
			state.nlkEarned[sponsor] += bonus
			summary.NLKPaid += bonus
			if promo {
				summary.NLKPromoPaid += bonus
			} else {
				summary.NLKStandardPaid += bonus
			}
			entry.SponsorPaid = sim.RoundMoney(bonus)
		}
		entries = append(entries, entry)
	}
	return entries
}

// runUSDNMonth processes the month's USDN purchases. The incoming pool is
// distributed pro rata over the month's purchase amounts before any payment
// runs; if nobody purchases, the pool carries forward intact. Returns the
// pool seeded for the next month.
func runUSDNMonth(t *hierarchy.Tree, cfg *Config, p *profiles, state *runState, month int, scale, pool float64, rng *rand.Rand, summary *MonthSummary, entries []LedgerEntry) ([]LedgerEntry, float64, error) {
	promo := promoMonth(month, cfg.USDNPromoMonths)

	// Decide the month's purchasers and base amounts first: pro rata pool
	// distribution needs the month's total before any payment runs.
	n := t.Size()
	purchasers := make([]int, 0, 64)
	base := make([]float64, 0, 64)
	baseTotal := 0.0
	for id := 1; id <= n; id++ {
		if !p.buysUSDN(id, month, cfg, &state.buy[id], rng) {
			continue
		}
		amount := drawUSDNAmount(p.buyer[id], promo, cfg.PromoAmountBoost, scale, rng)
		purchasers = append(purchasers, id)
		base = append(base, amount)
		baseTotal += amount
	}

	if len(purchasers) == 0 {
		summary.CarriedOut = pool
		return entries, pool, nil // undistributed pool carries forward
	}
	summary.ReinvestedIn = pool

	inflow := 0.0
	for i, id := range purchasers {
		extra := pool * base[i] / baseTotal
		entry, err := processUSDNPurchase(t, cfg, state, id, month, base[i]+extra, extra, summary)
		if err != nil {
			return nil, 0, err
		}
		inflow += base[i] + extra
		entries = append(entries, entry)
	}

	summary.USDNInflow = inflow
	carried := inflow * cfg.ReinvestmentRate
	summary.CarriedOut = carried
	return entries, carried, nil
}

// processUSDNPurchase applies one USDN purchase: the purchaser's cumulative
// amount and eligibility flag update first, then the uplines are paid
// against the state as of this instant.
func processUSDNPurchase(t *hierarchy.Tree, cfg *Config, state *runState, id, month int, amount, reinvested float64, summary *MonthSummary) (LedgerEntry, error) {
	state.buy[id].usdnCount++
	state.cumulativeUSDN[id] += amount
	if state.cumulativeUSDN[id] >= cfg.EligibilityThreshold {
		state.eligible[id] = true
	}

	entry := LedgerEntry{
		UserID:         id,
		Month:          month,
		Program:        ProgramUSDN,
		Amount:         sim.RoundMoney(amount),
		Reinvested:     sim.RoundMoney(reinvested),
		CumulativeUSDN: sim.RoundMoney(state.cumulativeUSDN[id]),
		Eligible:       state.eligible[id],
	}
	if err := payUSDNUpline(t, cfg, state, id, amount, summary, &entry); err != nil {
		return LedgerEntry{}, err
	}
	return entry, nil
}

// payUSDNUpline pays the 3-level split for one purchase, gating each level
// on that ancestor's eligibility at this instant.
func payUSDNUpline(t *hierarchy.Tree, cfg *Config, state *runState, id int, amount float64, summary *MonthSummary, entry *LedgerEntry) error {
	chain, err := t.Upline(id, usdnLevels, nil)
	if err != nil {
		return err
	}
	rates := [usdnLevels]float64{cfg.USDNL1Rate, cfg.USDNL2Rate, cfg.USDNL3Rate}

	for i, ancestor := range chain {
		bonus := amount * rates[i]
		if state.eligible[ancestor] {
			state.usdnEarned[ancestor] += bonus
			entry.LevelPaid[i] = sim.RoundMoney(bonus)
			switch i {
			case 0:
				summary.USDNL1Paid += bonus
			case 1:
				summary.USDNL2Paid += bonus
			default:
				summary.USDNL3Paid += bonus
			}
		} else {
			state.disqualified[ancestor] += bonus
			entry.Disqualified += bonus
			summary.Disqualified += bonus
		}
	}
	entry.Disqualified = sim.RoundMoney(entry.Disqualified)
	return nil
}

func countEligible(state *runState) int {
	count := 0
	for _, ok := range state.eligible[1:] {
		if ok {
			count++
		}
	}
	return count
}
