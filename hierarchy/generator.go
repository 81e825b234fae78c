/*
generator.go - Weighted preferential-attachment tree construction

PURPOSE:
  Builds a referral tree of a requested size that looks like an organically
  grown network: wide near the root, thinning with depth, with a heavy-tailed
  referral-count distribution (a few prolific sponsors, many small ones).

ALGORITHM (Barabasi-Albert variant):
  Start with one root at depth 1. For each subsequent user, pick a sponsor
  among users at depth < maxDepth with weight

      w(u) = (maxDepth - depth(u) + 1) / (referrals(u) + 1)

  i.e. shallower users and users with fewer existing referrals are favored.
  The new user is placed at sponsor depth + 1. Users at the deepest level
  carry zero weight and are never selected, which respects the depth bound;
  the root always remains selectable, so a sponsor can always be found.

PERFORMANCE:
  Sponsor selection uses a Fenwick (binary indexed) tree over per-user
  weights: O(log n) to draw from the cumulative distribution and O(log n) to
  bump the chosen sponsor's weight. Naive re-normalization of the whole
  weight vector per insertion would be quadratic and dominates generation
  time at the 100k+ scales the simulator targets.

DETERMINISM:
  The random source is injected. Two generators with the same (n, maxDepth,
  seed) produce identical trees.

SEE ALSO:
  - validate.go: Post-generation invariant checks
*/
package hierarchy

import (
	"math/rand"

	"github.com/lattice/comp-engine/sim"
)

// Generate builds a tree of n users bounded by maxDepth, drawing sponsor
// choices from rng. The hooks fire once per BatchSize users created.
func Generate(n, maxDepth int, rng *rand.Rand, hooks sim.Hooks) (*Tree, error) {
	if n < 1 {
		return nil, &sim.ConfigError{Field: "total_users", Reason: "must be positive"}
	}
	if maxDepth < 2 {
		return nil, &sim.ConfigError{Field: "max_depth", Reason: "must be at least 2"}
	}

	t := &Tree{users: make([]User, 1, n), maxDepth: maxDepth}
	t.users[0] = User{ID: RootID, SponsorID: NoSponsor, Depth: 1}

	picker := newWeightedPicker(n)
	picker.append(sponsorWeight(t.Root(), maxDepth))

	for created := 1; created < n; created++ {
		sponsorIdx := picker.pick(rng.Float64() * picker.total())
		sponsor := &t.users[sponsorIdx]

		child := User{ID: created + 1, SponsorID: sponsor.ID, Depth: sponsor.Depth + 1}
		t.users = append(t.users, child)
		sponsor = &t.users[sponsorIdx] // re-take: append may have moved the backing array
		sponsor.DirectReferrals = append(sponsor.DirectReferrals, child.ID)

		// One more referral lowers the sponsor's attractiveness.
		picker.update(sponsorIdx, sponsorWeight(sponsor, maxDepth))
		picker.append(sponsorWeight(&t.users[len(t.users)-1], maxDepth))

		if (created+1)%sim.BatchSize == 0 {
			pct := 5 + 10*(created+1)/n // generation occupies the 5-15% band of a run
			if err := hooks.Step("Generating hierarchy", pct); err != nil {
				return nil, err
			}
		}
	}

	if err := t.Validate(); err != nil {
		return nil, err
	}
	return t, nil
}

// sponsorWeight returns the preferential-attachment weight of u. Users at
// the deepest level cannot sponsor and weigh zero.
func sponsorWeight(u *User, maxDepth int) float64 {
	if u.Depth >= maxDepth {
		return 0
	}
	levelWeight := float64(maxDepth - u.Depth + 1)
	return levelWeight / float64(len(u.DirectReferrals)+1)
}

// =============================================================================
// WEIGHTED PICKER - Fenwick tree over per-user weights
// =============================================================================

// weightedPicker supports O(log n) weighted random selection with O(log n)
// weight updates. Indices are the order of insertion (user id - 1).
type weightedPicker struct {
	fenwick []float64 // 1-based partial sums
	weights []float64
	sum     float64
}

func newWeightedPicker(capacity int) *weightedPicker {
	return &weightedPicker{
		fenwick: make([]float64, capacity+1),
		weights: make([]float64, 0, capacity),
	}
}

func (p *weightedPicker) total() float64 { return p.sum }

// append adds a new entry with the given weight.
func (p *weightedPicker) append(w float64) {
	p.weights = append(p.weights, w)
	p.addAt(len(p.weights), w)
	p.sum += w
}

// update replaces the weight at index i.
func (p *weightedPicker) update(i int, w float64) {
	delta := w - p.weights[i]
	p.weights[i] = w
	p.addAt(i+1, delta)
	p.sum += delta
}

func (p *weightedPicker) addAt(pos int, delta float64) {
	for ; pos < len(p.fenwick); pos += pos & (-pos) {
		p.fenwick[pos] += delta
	}
}

// pick returns the smallest index i such that the cumulative weight through
// i exceeds r. r must be in [0, total()).
func (p *weightedPicker) pick(r float64) int {
	idx := 0
	half := 1
	for half*2 < len(p.fenwick) {
		half *= 2
	}
	for ; half > 0; half /= 2 {
		next := idx + half
		if next < len(p.fenwick) && p.fenwick[next] <= r {
			r -= p.fenwick[next]
			idx = next
		}
	}
	// idx is now the count of entries whose cumulative weight is <= r, i.e.
	// the 0-based index of the selected entry. Zero-weight entries can never
	// absorb probability mass, but clamp defensively against float drift.
	if idx >= len(p.weights) {
		idx = len(p.weights) - 1
	}
	return idx
}
