/*
ledger.go - Per-purchase entries and per-month summaries

PURPOSE:
  Every purchase event produces one LedgerEntry recording the amounts, the
  purchaser's cumulative USDN state at that moment, and the bonuses paid or
  disqualified upline. Each month finalizes into a MonthSummary; months
  finalize strictly in order, so a summary never reflects later state.

NUMERICS:
  Entries and summaries hold cent-rounded values - they are the audit trail
  the API exposes. The engine's running state stays in float64.
*/
package directbonus

import (
	"github.com/lattice/comp-engine/sim"
)

// Ledger identifiers for LedgerEntry.Program.
const (
	ProgramNLK  = "NLK"
	ProgramUSDN = "USDN"
)

// LedgerEntry records one purchase event and its immediate bonus effects.
type LedgerEntry struct {
	UserID  int    `json:"user_id"`
	Month   int    `json:"month"`
	Program string `json:"program"`

	Units  int     `json:"units,omitempty"` // NLK only
	Amount float64 `json:"amount"`

	// Reinvested is the portion of Amount funded by the prior month's
	// reinvestment pool (USDN only).
	Reinvested float64 `json:"reinvested,omitempty"`

	// Purchaser USDN state after this purchase.
	CumulativeUSDN float64 `json:"cumulative_usdn,omitempty"`
	Eligible       bool    `json:"eligible,omitempty"`

	// Bonus effects upline. For NLK only SponsorPaid is set; for USDN the
	// three level amounts and the disqualified remainder are recorded.
	SponsorPaid  float64    `json:"sponsor_paid,omitempty"`
	LevelPaid    [3]float64 `json:"level_paid"`
	Disqualified float64    `json:"disqualified,omitempty"`
}

// MonthSummary is the finalized accounting for one simulated month.
type MonthSummary struct {
	Month           int `json:"month"`
	NewUsers        int `json:"new_users"`
	CumulativeUsers int `json:"cumulative_users"`
	ActiveBuyers    int `json:"active_buyers"`

	NLKUnits    int     `json:"nlk_units"`
	NLKInflow   float64 `json:"nlk_inflow"`
	USDNInflow  float64 `json:"usdn_inflow"`
	TotalInflow float64 `json:"total_inflow"`

	NLKPaid         float64 `json:"nlk_paid"`
	NLKPromoPaid    float64 `json:"nlk_promo_paid"`
	NLKStandardPaid float64 `json:"nlk_standard_paid"`

	USDNL1Paid   float64 `json:"usdn_l1_paid"`
	USDNL2Paid   float64 `json:"usdn_l2_paid"`
	USDNL3Paid   float64 `json:"usdn_l3_paid"`
	USDNPaid     float64 `json:"usdn_paid"`
	Disqualified float64 `json:"usdn_disqualified"`

	TotalPaid float64 `json:"total_paid"`

	// EligibleUsers counts users whose cumulative USDN met the threshold
	// by month end.
	EligibleUsers int `json:"eligible_users"`

	// ReinvestedIn is the pool distributed into this month's purchases;
	// CarriedOut is the pool this month seeds for the next.
	ReinvestedIn float64 `json:"reinvested_in"`
	CarriedOut   float64 `json:"carried_out"`
}

// finalize rounds every monetary field once the month is complete.
func (m *MonthSummary) finalize() {
	m.NLKInflow = sim.RoundMoney(m.NLKInflow)
	m.USDNInflow = sim.RoundMoney(m.USDNInflow)
	m.TotalInflow = sim.RoundMoney(m.NLKInflow + m.USDNInflow)
	m.NLKPaid = sim.RoundMoney(m.NLKPaid)
	m.NLKPromoPaid = sim.RoundMoney(m.NLKPromoPaid)
	m.NLKStandardPaid = sim.RoundMoney(m.NLKStandardPaid)
	m.USDNL1Paid = sim.RoundMoney(m.USDNL1Paid)
	m.USDNL2Paid = sim.RoundMoney(m.USDNL2Paid)
	m.USDNL3Paid = sim.RoundMoney(m.USDNL3Paid)
	m.USDNPaid = sim.RoundMoney(m.USDNL1Paid + m.USDNL2Paid + m.USDNL3Paid)
	m.Disqualified = sim.RoundMoney(m.Disqualified)
	m.TotalPaid = sim.RoundMoney(m.NLKPaid + m.USDNPaid)
	m.ReinvestedIn = sim.RoundMoney(m.ReinvestedIn)
	m.CarriedOut = sim.RoundMoney(m.CarriedOut)
}
