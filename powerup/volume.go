/*
volume.go - Volume-point propagation and leg totals

PURPOSE:
  Credits each purchase upward to every strict ancestor (lifetime VP - the
  purchaser itself is excluded) and computes per-direct-referral subtree
  totals (leg VP). Total VP credited across the hierarchy equals the sum
  over purchases of (amount x number of strict ancestors), which the test
  suite checks as a conservation property.

COMPLEXITY:
  VP credit is the O(N*D) upward walk: each purchase touches at most D
  ancestors. Leg totals come from a single reverse-id pass - a sponsor's id
  is always smaller than its referrals' ids, so walking ids downward sees
  every child before its sponsor and can fold subtree sums in O(N).
*/
package powerup

import (
	"github.com/lattice/comp-engine/hierarchy"
	"github.com/lattice/comp-engine/sim"
)

// volumes holds the per-user aggregation results, 1-based by user id.
type volumes struct {
	vp   []float64   // lifetime VP (downline purchases only)
	legs [][]float64 // leg VP per direct referral, insertion order
}

// aggregateVolumes propagates purchases to ancestors and computes leg VP.
func aggregateVolumes(t *hierarchy.Tree, amounts []float64, hooks sim.Hooks) (*volumes, error) {
	n := t.Size()
	v := &volumes{
		vp:   make([]float64, n+1),
		legs: make([][]float64, n+1),
	}

	// Upward VP credit, bounded iterative walks.
	chainBuf := make([]int, 0, t.MaxDepth())
	for id := 1; id <= n; id++ {
		if amounts[id] > 0 {
			chain, err := t.Upline(id, t.MaxDepth(), chainBuf)
			if err != nil {
				return nil, err
			}
			for _, ancestor := range chain {
				v.vp[ancestor] += amounts[id]
			}
			chainBuf = chain[:0]
		}
		if id%sim.BatchSize == 0 {
			if err := hooks.Step("Calculating volume points", 30+10*id/n); err != nil {
				return nil, err
			}
		}
	}

	// Subtree totals (own purchase + entire downline) in one reverse pass.
	subtotal := make([]float64, n+1)
	for id := n; id >= 1; id-- {
		subtotal[id] += amounts[id]
		if sponsor := t.User(id).SponsorID; sponsor != hierarchy.NoSponsor {
			subtotal[sponsor] += subtotal[id]
		}
	}

	if err := hooks.Step("Calculating leg volumes", 45); err != nil {
		return nil, err
	}

	t.Each(func(u *hierarchy.User) {
		if len(u.DirectReferrals) == 0 {
			return
		}
		legs := make([]float64, len(u.DirectReferrals))
		for i, ref := range u.DirectReferrals {
			legs[i] = subtotal[ref]
		}
		v.legs[u.ID] = legs
	})

	return v, nil
}
