/*
qualify.go - Rank and line qualification

PURPOSE:
  Maps lifetime VP to a rank (highest ascending threshold met, no skipping)
  and applies the sequential leg-combining rule to produce a qualified-line
  count in 0..5.

LINE QUALIFICATION RULE:
  Legs sort by VP descending; ties keep the original direct-referral
  insertion order (stable sort) so results are reproducible. Line 1 always
  qualifies with the single largest leg, which is then consumed. Each
  subsequent line accumulates unconsumed legs in order until the running sum
  reaches that line's share of total VP; success consumes every contributing
  leg, failure ends qualification - unconsumed legs are never re-evaluated
  against later thresholds.

EDGE CASES:
  A user with zero total VP (or no legs) is unranked with zero lines; the
  percentage check short-circuits rather than dividing by zero.
*/
package powerup

import (
	"sort"
)

// rankFor returns the index of the highest tier whose threshold vp meets,
// or Unranked. Tiers ascend, so qualifying for tier k implies every lower
// threshold is also met - there is no rank skipping to guard against.
func rankFor(vp float64, table []RankTier) int {
	rank := Unranked
	for i, tier := range table {
		if vp < tier.MinVP {
			break
		}
		rank = i
	}
	return rank
}

// qualifyLines counts qualified lines for a user's legs against the
// sequential thresholds. thresholds[i] is the share required by line i+2.
func qualifyLines(legs []float64, totalVP float64, thresholds []float64) int {
	if len(legs) == 0 || totalVP <= 0 {
		return 0
	}

	sorted := make([]float64, len(legs))
	copy(sorted, legs)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i] > sorted[j] })

	// Line 1 always qualifies and consumes the largest leg.
	lines := 1
	remaining := sorted[1:]

	for _, threshold := range thresholds {
		if len(remaining) == 0 || lines >= MaxLines {
			break
		}

		combined := 0.0
		used := 0
		reached := false
		for _, leg := range remaining {
			combined += leg
			used++
			if combined/totalVP >= threshold {
				reached = true
				break
			}
		}
		if !reached {
			break
		}
		lines++
		remaining = remaining[used:]
	}
	return lines
}

// qualification holds per-user rank, line, and percentage assignments,
// 1-based by user id.
type qualification struct {
	rank     []int
	lines    []int
	puPct    []float64
	matchPct []float64
}

// qualifyAll resolves rank, qualified lines, and both plan percentages for
// every user.
func qualifyAll(n int, cfg *Config, v *volumes) *qualification {
	q := &qualification{
		rank:     make([]int, n+1),
		lines:    make([]int, n+1),
		puPct:    make([]float64, n+1),
		matchPct: make([]float64, n+1),
	}
	for id := 1; id <= n; id++ {
		q.rank[id] = rankFor(v.vp[id], cfg.RankTable)
		q.lines[id] = qualifyLines(v.legs[id], v.vp[id], cfg.LineThresholds)
		q.puPct[id] = cfg.powerUpPct(q.rank[id], q.lines[id])
		q.matchPct[id] = cfg.matchingPct(q.rank[id])
	}
	return q
}
