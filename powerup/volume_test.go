/*
volume_test.go - VP propagation and leg totals
*/
package powerup

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lattice/comp-engine/hierarchy"
	"github.com/lattice/comp-engine/sim"
)

// forkTree builds:
//
//	1
//	├── 2
//	│   ├── 4
//	│   └── 5
//	└── 3
//	    └── 6
func forkTree(t *testing.T) *hierarchy.Tree {
	t.Helper()
	rows := []hierarchy.Row{
		{UserID: 1, SponsorID: 0, Depth: 1},
		{UserID: 2, SponsorID: 1, Depth: 2},
		{UserID: 3, SponsorID: 1, Depth: 2},
		{UserID: 4, SponsorID: 2, Depth: 3},
		{UserID: 5, SponsorID: 2, Depth: 3},
		{UserID: 6, SponsorID: 3, Depth: 3},
	}
	tree, err := hierarchy.FromRows(rows, 5)
	require.NoError(t, err)
	return tree
}

func TestAggregateVolumes_ExcludesOwnPurchase(t *testing.T) {
	// GIVEN: Every user buys $100
	// WHEN: Volumes are aggregated
	// THEN: A user's VP counts only downline purchases, never its own

	tree := forkTree(t)
	amounts := []float64{0, 100, 100, 100, 100, 100, 100}

	v, err := aggregateVolumes(tree, amounts, sim.Hooks{})
	require.NoError(t, err)

	assert.Equal(t, 500.0, v.vp[1], "root sees the 5 downline purchases")
	assert.Equal(t, 200.0, v.vp[2], "users 4 and 5")
	assert.Equal(t, 100.0, v.vp[3], "user 6 only")
	assert.Zero(t, v.vp[4], "leaves have no downline")
	assert.Zero(t, v.vp[6])
}

func TestAggregateVolumes_LegsIncludeTheReferralsOwnPurchase(t *testing.T) {
	// GIVEN: The fork tree with $100 purchases everywhere
	// WHEN: Leg totals are computed
	// THEN: Each leg is the referral's entire subtree including the
	//       referral's own purchase, in direct-referral insertion order

	tree := forkTree(t)
	amounts := []float64{0, 100, 100, 100, 100, 100, 100}

	v, err := aggregateVolumes(tree, amounts, sim.Hooks{})
	require.NoError(t, err)

	assert.Equal(t, []float64{300, 200}, v.legs[1], "legs under users 2 and 3")
	assert.Equal(t, []float64{100, 100}, v.legs[2])
	assert.Equal(t, []float64{100}, v.legs[3])
	assert.Nil(t, v.legs[4], "leaves have no legs")
}

func TestAggregateVolumes_Conservation(t *testing.T) {
	// GIVEN: Arbitrary purchase amounts
	// WHEN: Volumes are aggregated
	// THEN: Total VP across users equals the sum over purchases of
	//       amount x number of strict ancestors

	tree := forkTree(t)
	amounts := []float64{0, 10, 20, 30, 40, 50, 60}

	v, err := aggregateVolumes(tree, amounts, sim.Hooks{})
	require.NoError(t, err)

	// Depth d has d-1 strict ancestors.
	want := 0.0
	tree.Each(func(u *hierarchy.User) {
		want += amounts[u.ID] * float64(u.Depth-1)
	})

	got := 0.0
	for id := 1; id <= tree.Size(); id++ {
		got += v.vp[id]
	}
	assert.InDelta(t, want, got, sim.Epsilon)
}

func TestAggregateVolumes_CancellationAborts(t *testing.T) {
	// A cancel request during the walk surfaces ErrCancelled, not partials.
	tree := forkTree(t)
	amounts := make([]float64, tree.Size()+1)

	hooks := sim.Hooks{Cancelled: func() bool { return true }}
	_, err := aggregateVolumes(tree, amounts, hooks)

	// The fork tree is smaller than one progress batch, so the walk only
	// checks cancellation at the stage boundary.
	assert.ErrorIs(t, err, sim.ErrCancelled)
}
