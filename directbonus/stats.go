/*
stats.go - Direct Bonus result assembly
*/
package directbonus

import (
	"sort"

	"github.com/lattice/comp-engine/hierarchy"
	"github.com/lattice/comp-engine/sim"
)

// Earner is one row of the top-earner table.
type Earner struct {
	UserID    int     `json:"user_id"`
	Depth     int     `json:"depth"`
	JoinMonth int     `json:"join_month"`
	BuyerType string  `json:"buyer_type"`
	NLKBonus  float64 `json:"nlk_bonus"`
	USDNBonus float64 `json:"usdn_bonus"`
	Total     float64 `json:"total"`
	Eligible  bool    `json:"usdn_eligible"`
}

// Result is the complete outcome of one Direct Bonus run.
type Result struct {
	TotalUsers int `json:"total_users"`

	TotalInflow float64 `json:"total_inflow"`
	NLKInflow   float64 `json:"nlk_inflow"`
	USDNInflow  float64 `json:"usdn_inflow"`
	NLKUnits    int     `json:"nlk_units"`

	TotalPaid    float64 `json:"total_paid"`
	NLKPaid      float64 `json:"nlk_paid"`
	USDNPaid     float64 `json:"usdn_paid"`
	Disqualified float64 `json:"usdn_disqualified"`

	PayoutRatio     float64 `json:"payout_ratio"`
	NLKPayoutRatio  float64 `json:"nlk_payout_ratio"`
	USDNPayoutRatio float64 `json:"usdn_payout_ratio"`

	EligibleUsers int     `json:"usdn_eligible_users"`
	EligiblePct   float64 `json:"usdn_eligible_pct"`

	TotalReinvested float64 `json:"total_reinvested"`
	// PoolRemaining is whatever the final month seeded with nowhere left
	// to go; surfaced so inflow accounting balances exactly.
	PoolRemaining float64 `json:"pool_remaining"`

	Months     []MonthSummary `json:"months"`
	Ledger     []LedgerEntry  `json:"-"`
	TopEarners []Earner       `json:"top_earners"`
}

const topEarnerCount = 20

func buildResult(t *hierarchy.Tree, p *profiles, state *runState, months []MonthSummary, entries []LedgerEntry, pool float64) *Result {
	n := t.Size()
	r := &Result{
		TotalUsers: n,
		Months:     months,
		Ledger:     entries,
	}

	for i := range months {
		m := &months[i]
		r.NLKInflow += m.NLKInflow
		r.USDNInflow += m.USDNInflow
		r.NLKUnits += m.NLKUnits
		r.NLKPaid += m.NLKPaid
		r.USDNPaid += m.USDNPaid
		r.Disqualified += m.Disqualified
		r.TotalReinvested += m.ReinvestedIn
	}
	r.TotalInflow = r.NLKInflow + r.USDNInflow
	r.TotalPaid = r.NLKPaid + r.USDNPaid

	r.PayoutRatio = sim.RoundPct(sim.Ratio(r.TotalPaid, r.TotalInflow))
	r.NLKPayoutRatio = sim.RoundPct(sim.Ratio(r.NLKPaid, r.NLKInflow))
	r.USDNPayoutRatio = sim.RoundPct(sim.Ratio(r.USDNPaid, r.USDNInflow))

	r.EligibleUsers = countEligible(state)
	r.EligiblePct = sim.RoundPct(sim.Ratio(float64(r.EligibleUsers), float64(n)))
	r.PoolRemaining = sim.RoundMoney(pool)

	earners := make([]Earner, 0, n)
	for id := 1; id <= n; id++ {
		total := state.nlkEarned[id] + state.usdnEarned[id]
		if total <= 0 {
			continue
		}
		earners = append(earners, Earner{
			UserID:    id,
			Depth:     t.User(id).Depth,
			JoinMonth: p.joinMonth[id],
			BuyerType: p.buyer[id].String(),
			NLKBonus:  sim.RoundMoney(state.nlkEarned[id]),
			USDNBonus: sim.RoundMoney(state.usdnEarned[id]),
			Total:     sim.RoundMoney(total),
			Eligible:  state.eligible[id],
		})
	}
	sort.Slice(earners, func(i, j int) bool {
		if earners[i].Total != earners[j].Total {
			return earners[i].Total > earners[j].Total
		}
		return earners[i].UserID < earners[j].UserID
	})
	if len(earners) > topEarnerCount {
		earners = earners[:topEarnerCount]
	}
	r.TopEarners = earners

	r.TotalInflow = sim.RoundMoney(r.TotalInflow)
	r.NLKInflow = sim.RoundMoney(r.NLKInflow)
	r.USDNInflow = sim.RoundMoney(r.USDNInflow)
	r.TotalPaid = sim.RoundMoney(r.TotalPaid)
	r.NLKPaid = sim.RoundMoney(r.NLKPaid)
	r.USDNPaid = sim.RoundMoney(r.USDNPaid)
	r.Disqualified = sim.RoundMoney(r.Disqualified)
	r.TotalReinvested = sim.RoundMoney(r.TotalReinvested)

	return r
}
