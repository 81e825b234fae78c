/*
stats.go - Run result assembly

PURPOSE:
  Folds the per-user working slices into the serializable Result the API
  returns: aggregate totals, payout ratio, and the distribution tables the
  operator reads to judge a plan (ranks, qualified lines, hierarchy levels,
  earnings by percentage bucket, top earners).

NUMERICS:
  Every dollar figure is rounded to cents here, at the boundary, via the
  shared decimal-backed helpers. The engines themselves stay in float64.
*/
package powerup

import (
	"sort"

	"github.com/lattice/comp-engine/hierarchy"
	"github.com/lattice/comp-engine/sim"
)

// PctBucket aggregates users sharing one plan percentage.
type PctBucket struct {
	Pct    float64 `json:"pct"`
	Users  int     `json:"users"`
	Earned float64 `json:"earned"`
}

// Earner is one row of the top-earner table.
type Earner struct {
	UserID   int     `json:"user_id"`
	Rank     string  `json:"rank"`
	Lines    int     `json:"lines"`
	VP       float64 `json:"vp"`
	PowerUp  float64 `json:"powerup"`
	Matching float64 `json:"matching"`
	Total    float64 `json:"total"`
}

// Result is the complete outcome of one PowerUp run.
type Result struct {
	TotalUsers int `json:"total_users"`

	TotalSales float64 `json:"total_sales"`
	TotalUnits int     `json:"total_units"`
	TotalVP    float64 `json:"total_vp"`

	TotalPowerUp  float64 `json:"total_powerup"`
	TotalMatching float64 `json:"total_matching"`
	TotalEarnings float64 `json:"total_earnings"`
	PayoutRatio   float64 `json:"payout_ratio"` // total earnings / total sales

	RankDistribution  map[string]int `json:"rank_distribution"`
	LineDistribution  map[int]int    `json:"line_distribution"`
	LevelDistribution map[int]int    `json:"level_distribution"`

	PowerUpBuckets  []PctBucket `json:"powerup_buckets"`
	MatchingBuckets []PctBucket `json:"matching_buckets"`

	TopEarners []Earner `json:"top_earners"`
}

// topEarnerCount is how many rows the top-earner table carries.
const topEarnerCount = 20

// buildResult assembles the Result from the run's working slices.
func buildResult(t *hierarchy.Tree, cfg *Config, units []int, amounts []float64, v *volumes, q *qualification, e *earnings) *Result {
	n := t.Size()
	r := &Result{
		TotalUsers:        n,
		RankDistribution:  make(map[string]int),
		LineDistribution:  make(map[int]int),
		LevelDistribution: make(map[int]int),
	}

	puBuckets := make(map[float64]*PctBucket)
	matchBuckets := make(map[float64]*PctBucket)
	earners := make([]Earner, 0, n)

	for id := 1; id <= n; id++ {
		r.TotalSales += amounts[id]
		r.TotalUnits += units[id]
		r.TotalVP += v.vp[id]
		r.TotalPowerUp += e.powerUp[id]
		r.TotalMatching += e.matching[id]

		r.RankDistribution[cfg.rankName(q.rank[id])]++
		r.LineDistribution[q.lines[id]]++
		r.LevelDistribution[t.User(id).Depth]++

		bucket(puBuckets, q.puPct[id], e.powerUp[id])
		bucket(matchBuckets, q.matchPct[id], e.matching[id])

		total := e.powerUp[id] + e.matching[id]
		if total > 0 {
			earners = append(earners, Earner{
				UserID:   id,
				Rank:     cfg.rankName(q.rank[id]),
				Lines:    q.lines[id],
				VP:       sim.RoundMoney(v.vp[id]),
				PowerUp:  sim.RoundMoney(e.powerUp[id]),
				Matching: sim.RoundMoney(e.matching[id]),
				Total:    sim.RoundMoney(total),
			})
		}
	}

	r.TotalEarnings = r.TotalPowerUp + r.TotalMatching
	r.PayoutRatio = sim.RoundPct(sim.Ratio(r.TotalEarnings, r.TotalSales))

	r.TotalSales = sim.RoundMoney(r.TotalSales)
	r.TotalVP = sim.RoundMoney(r.TotalVP)
	r.TotalPowerUp = sim.RoundMoney(r.TotalPowerUp)
	r.TotalMatching = sim.RoundMoney(r.TotalMatching)
	r.TotalEarnings = sim.RoundMoney(r.TotalEarnings)

	r.PowerUpBuckets = sortedBuckets(puBuckets)
	r.MatchingBuckets = sortedBuckets(matchBuckets)

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

	return r
}

func bucket(m map[float64]*PctBucket, pct, earned float64) {
	b, ok := m[pct]
	if !ok {
		b = &PctBucket{Pct: pct}
		m[pct] = b
	}
	b.Users++
	b.Earned += earned
}

// sortedBuckets flattens a bucket map, rounds, and orders by earned
// descending so the biggest payout concentrations come first.
func sortedBuckets(m map[float64]*PctBucket) []PctBucket {
	out := make([]PctBucket, 0, len(m))
	for _, b := range m {
		out = append(out, PctBucket{
			Pct:    b.Pct,
			Users:  b.Users,
			Earned: sim.RoundMoney(b.Earned),
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Earned != out[j].Earned {
			return out[i].Earned > out[j].Earned
		}
		return out[i].Pct > out[j].Pct
	})
	return out
}
