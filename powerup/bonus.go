/*
bonus.go - Differential PowerUp walk and cascading matching bonus

PURPOSE:
  Per purchase of amount X, walks the upline chain bottom-to-top twice:

  PowerUp (differential): each ancestor earns X * (own percentage - highest
  percentage already paid below it); non-positive differentials pay nothing
  and leave the paid ceiling unchanged. Percentages must be processed in
  actual upline order - order determines compression - and the chain total
  can never exceed X * max(percentage over the chain).

  Matching (cascading): an ancestor with a non-zero matching percentage
  earns a share of the adjacent lower node's earnings from this purchase,
  but only when its own PowerUp percentage does not exceed that downline's.
  The matching amount joins the ancestor's earnings-from-this-purchase, so
  it compounds into any further matching higher up.

NUMERICS:
  Differential positivity and the matching eligibility comparison use the
  shared float tolerance, never exact equality.
*/
package powerup

import (
	"github.com/lattice/comp-engine/hierarchy"
	"github.com/lattice/comp-engine/sim"
)

// earnings accumulates per-user bonus totals, 1-based by user id.
type earnings struct {
	powerUp  []float64
	matching []float64
}

// payBonuses runs the differential and matching walks for every purchase.
func payBonuses(t *hierarchy.Tree, amounts []float64, q *qualification, hooks sim.Hooks) (*earnings, error) {
	n := t.Size()
	e := &earnings{
		powerUp:  make([]float64, n+1),
		matching: make([]float64, n+1),
	}

	chainBuf := make([]int, 0, t.MaxDepth())
	perPurchase := make([]float64, 0, t.MaxDepth())

	for id := 1; id <= n; id++ {
		if amounts[id] > 0 {
			chain, err := t.Upline(id, t.MaxDepth(), chainBuf)
			if err != nil {
				return nil, err
			}
			e.payPurchase(amounts[id], chain, q, perPurchase[:0])
			chainBuf = chain[:0]
		}
		if id%sim.BatchSize == 0 {
			if err := hooks.Step("Calculating bonuses", 75+15*id/n); err != nil {
				return nil, err
			}
		}
	}
	return e, nil
}

// payPurchase distributes PowerUp and matching for one purchase along its
// upline chain (bottom-to-top). scratch is a reusable buffer for the
// per-chain-position earnings from this purchase.
func (e *earnings) payPurchase(amount float64, chain []int, q *qualification, scratch []float64) {
	perNode := scratch
	for range chain {
		perNode = append(perNode, 0)
	}

	// Differential PowerUp pass.
	paidPct := 0.0
	for i, id := range chain {
		net := q.puPct[id] - paidPct
		if sim.PctPositive(net) {
			bonus := amount * net
			perNode[i] = bonus
			e.powerUp[id] += bonus
			paidPct = q.puPct[id]
		}
	}

	// Cascading matching pass. chain[i-1] is the node immediately below
	// chain[i]; the purchaser itself has no matching base in this chain.
	for i := 1; i < len(chain); i++ {
		id := chain[i]
		if q.matchPct[id] == 0 {
			continue
		}
		downline := chain[i-1]
		if !sim.PctLessOrEqual(q.puPct[id], q.puPct[downline]) {
			continue
		}
		base := perNode[i-1]
		if base <= 0 {
			continue
		}
		match := base * q.matchPct[id]
		e.matching[id] += match
		perNode[i] += match // becomes the base for matching further up
	}
}
