/*
Package hierarchy provides the referral tree model and its generator.

PURPOSE:
  Both compensation programs run over the same rooted referral tree. This
  package owns the tree's shape: node identity, sponsor back-references,
  depth, and direct-referral ordering. It knows nothing about purchases,
  volume points, or bonuses - those live in the engine packages, which
  annotate users through parallel slices keyed by user id.

KEY CONCEPTS IN THIS FILE (types.go):
  - User: One network member. Sponsor back-reference is non-owning; the
    ordered direct-referral list is owned by the node.
  - Tree: The full hierarchy. Ids are dense and start at 1 (the root), and
    a sponsor's id is always smaller than its referrals' ids - a property
    the engines exploit for single-pass subtree accumulation.
  - Row: The stable tabular serialization (user id, sponsor id, depth) that
    is the contract with the caching collaborator. Round-tripping through
    rows reproduces an identical tree.

INVARIANTS:
  - Acyclic rooted tree; exactly one root (id 1, depth 1, no sponsor)
  - depth(child) == depth(sponsor) + 1, never exceeding the generation bound
  - Direct-referral lists are in insertion (id) order

SEE ALSO:
  - generator.go: Preferential-attachment construction
  - validate.go: Structural invariant checks
*/
package hierarchy

import (
	"sort"

	"github.com/lattice/comp-engine/sim"
)

// NoSponsor is the sponsor id of the root user.
const NoSponsor = 0

// RootID is the id of the single root user.
const RootID = 1

// User is one member of the referral network.
type User struct {
	ID              int
	SponsorID       int // NoSponsor for the root
	Depth           int // root is depth 1
	DirectReferrals []int
}

// IsRoot reports whether the user is the hierarchy root.
func (u *User) IsRoot() bool { return u.SponsorID == NoSponsor }

// Tree is a rooted referral hierarchy with dense 1-based ids.
type Tree struct {
	users    []User
	maxDepth int
}

// Size returns the number of users in the tree.
func (t *Tree) Size() int { return len(t.users) }

// MaxDepth returns the depth bound the tree was generated (or loaded) with.
func (t *Tree) MaxDepth() int { return t.maxDepth }

// User returns the node with the given id. Ids are 1..Size().
func (t *Tree) User(id int) *User { return &t.users[id-1] }

// Root returns the root node.
func (t *Tree) Root() *User { return &t.users[RootID-1] }

// Each calls fn for every user in ascending id order.
func (t *Tree) Each(fn func(u *User)) {
	for i := range t.users {
		fn(&t.users[i])
	}
}

// =============================================================================
// TABULAR SERIALIZATION - the caching contract
// =============================================================================

// Row is one line of the tabular hierarchy serialization.
type Row struct {
	UserID    int
	SponsorID int // NoSponsor for the root
	Depth     int
}

// Rows returns the tree as rows in ascending user-id order.
func (t *Tree) Rows() []Row {
	rows := make([]Row, len(t.users))
	for i := range t.users {
		u := &t.users[i]
		rows[i] = Row{UserID: u.ID, SponsorID: u.SponsorID, Depth: u.Depth}
	}
	return rows
}

// FromRows reconstructs a tree from its tabular serialization. Referral
// lists are rebuilt in ascending child-id order, which is the insertion
// order the generator produced, so the result is identical to the original
// tree. Rows may arrive in any order.
func FromRows(rows []Row, maxDepth int) (*Tree, error) {
	if len(rows) == 0 {
		return nil, &sim.StructureError{UserID: 0, Reason: "empty row set"}
	}

	sorted := make([]Row, len(rows))
	copy(sorted, rows)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].UserID < sorted[j].UserID })

	t := &Tree{users: make([]User, len(sorted)), maxDepth: maxDepth}
	for i, r := range sorted {
		if r.UserID != i+1 {
			return nil, &sim.StructureError{UserID: r.UserID, Reason: "user ids are not dense"}
		}
		t.users[i] = User{ID: r.UserID, SponsorID: r.SponsorID, Depth: r.Depth}
	}

	// Rebuild referral lists; ascending child id restores insertion order.
	for i := range t.users {
		u := &t.users[i]
		if u.IsRoot() {
			continue
		}
		if u.SponsorID < 1 || u.SponsorID > len(t.users) {
			return nil, &sim.StructureError{UserID: u.ID, Reason: "sponsor id out of range"}
		}
		sponsor := t.User(u.SponsorID)
		sponsor.DirectReferrals = append(sponsor.DirectReferrals, u.ID)
	}

	if err := t.Validate(); err != nil {
		return nil, err
	}
	return t, nil
}
