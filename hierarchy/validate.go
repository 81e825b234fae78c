/*
validate.go - Structural invariant checks and bounded upline walks

PURPOSE:
  The bonus math silently produces wrong numbers if the tree invariant is
  broken, so structural violations are fatal: they abort the run instead of
  being skipped. Validation runs after generation and after loading from the
  cache; the bounded upline walk is also the engines' traversal primitive.

DESIGN:
  Upward walks are iterative with an explicit step bound of maxDepth, never
  recursive: the bound doubles as a cycle guard (a sponsor chain longer than
  the depth bound is impossible in a valid tree) without the allocation cost
  of a per-walk visited set.
*/
package hierarchy

import (
	"github.com/lattice/comp-engine/sim"
)

// Validate checks the full set of structural invariants: a single root,
// sponsor depth + 1 for every other node, the depth bound, and acyclicity.
func (t *Tree) Validate() error {
	if len(t.users) == 0 {
		return &sim.StructureError{UserID: 0, Reason: "empty tree"}
	}
	root := t.Root()
	if !root.IsRoot() || root.Depth != 1 {
		return &sim.StructureError{UserID: root.ID, Reason: "user 1 is not a depth-1 root"}
	}

	for i := range t.users {
		u := &t.users[i]
		if u.IsRoot() {
			if u.ID != RootID {
				return &sim.StructureError{UserID: u.ID, Reason: "multiple roots"}
			}
			continue
		}
		if u.SponsorID < 1 || u.SponsorID > len(t.users) {
			return &sim.StructureError{UserID: u.ID, Reason: "sponsor id out of range"}
		}
		sponsor := t.User(u.SponsorID)
		if u.Depth != sponsor.Depth+1 {
			return &sim.StructureError{UserID: u.ID, Reason: "depth is not sponsor depth + 1"}
		}
		if u.Depth > t.maxDepth {
			return &sim.StructureError{UserID: u.ID, Reason: "depth exceeds configured maximum"}
		}
	}

	// Acyclicity: every chain must reach the root within maxDepth steps.
	for i := range t.users {
		if _, err := t.Upline(t.users[i].ID, t.maxDepth, nil); err != nil {
			return err
		}
	}
	return nil
}

// Upline returns the ancestor chain of the given user from its direct
// sponsor up toward the root, at most maxLevels entries. The chain is
// appended to buf (which may be nil) so hot loops can reuse one backing
// array. A chain longer than the tree's depth bound aborts with a
// structural error: it can only mean a cycle.
func (t *Tree) Upline(id, maxLevels int, buf []int) ([]int, error) {
	chain := buf[:0]
	current := t.User(id).SponsorID
	for current != NoSponsor && len(chain) < maxLevels {
		chain = append(chain, current)
		if len(chain) > t.maxDepth {
			return nil, &sim.StructureError{UserID: id, Reason: "upline chain exceeds depth bound (cycle)"}
		}
		current = t.User(current).SponsorID
	}
	if current != NoSponsor && len(chain) >= t.maxDepth {
		return nil, &sim.StructureError{UserID: id, Reason: "upline chain exceeds depth bound (cycle)"}
	}
	return chain, nil
}
