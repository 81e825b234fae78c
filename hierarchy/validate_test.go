/*
validate_test.go - Invariant checks and the bounded upline walk
*/
package hierarchy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lattice/comp-engine/sim"
)

// chain builds a straight line 1 <- 2 <- ... <- length.
func chain(length int) *Tree {
	t := &Tree{users: make([]User, length), maxDepth: length}
	t.users[0] = User{ID: 1, SponsorID: NoSponsor, Depth: 1}
	for i := 1; i < length; i++ {
		t.users[i] = User{ID: i + 1, SponsorID: i, Depth: i + 1}
		t.users[i-1].DirectReferrals = []int{i + 1}
	}
	return t
}

func TestUpline_WalksBottomToTop(t *testing.T) {
	tree := chain(4)

	up, err := tree.Upline(4, 10, nil)
	require.NoError(t, err)
	assert.Equal(t, []int{3, 2, 1}, up, "direct sponsor first, root last")

	up, err = tree.Upline(1, 10, nil)
	require.NoError(t, err)
	assert.Empty(t, up, "the root has no ancestors")
}

func TestUpline_RespectsMaxLevels(t *testing.T) {
	tree := chain(5)

	up, err := tree.Upline(5, 2, nil)
	require.NoError(t, err)
	assert.Equal(t, []int{4, 3}, up)
}

func TestUpline_ReusesTheBuffer(t *testing.T) {
	tree := chain(4)
	buf := make([]int, 0, 8)

	up, err := tree.Upline(4, 10, buf)
	require.NoError(t, err)
	assert.Equal(t, []int{3, 2, 1}, up)

	// Second walk reuses the same backing array.
	up2, err := tree.Upline(3, 10, up)
	require.NoError(t, err)
	assert.Equal(t, []int{2, 1}, up2)
}

func TestUpline_DetectsCycles(t *testing.T) {
	// GIVEN: A corrupted tree where 2 and 3 sponsor each other
	// WHEN: The upline of 3 is walked
	// THEN: The depth bound trips and reports a structural error

	tree := &Tree{maxDepth: 4, users: []User{
		{ID: 1, SponsorID: NoSponsor, Depth: 1},
		{ID: 2, SponsorID: 3, Depth: 2},
		{ID: 3, SponsorID: 2, Depth: 3},
	}}

	_, err := tree.Upline(3, 10, nil)
	assert.ErrorIs(t, err, sim.ErrStructure)
}

func TestValidate_CatchesCorruption(t *testing.T) {
	cases := []struct {
		name string
		tree *Tree
	}{
		{"empty", &Tree{maxDepth: 5}},
		{"root has a sponsor", &Tree{maxDepth: 5, users: []User{
			{ID: 1, SponsorID: 2, Depth: 2},
			{ID: 2, SponsorID: NoSponsor, Depth: 1},
		}}},
		{"depth exceeds bound", &Tree{maxDepth: 2, users: []User{
			{ID: 1, SponsorID: NoSponsor, Depth: 1},
			{ID: 2, SponsorID: 1, Depth: 2},
			{ID: 3, SponsorID: 2, Depth: 3},
		}}},
		{"sponsor cycle", &Tree{maxDepth: 5, users: []User{
			{ID: 1, SponsorID: NoSponsor, Depth: 1},
			{ID: 2, SponsorID: 3, Depth: 2},
			{ID: 3, SponsorID: 2, Depth: 3},
		}}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.ErrorIs(t, tc.tree.Validate(), sim.ErrStructure)
		})
	}
}

func TestValidate_PassesForGeneratedTrees(t *testing.T) {
	require.NoError(t, generate(t, 1000, 5, 8).Validate())
}
