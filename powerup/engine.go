/*
engine.go - The orchestrated PowerUp run

PURPOSE:
  Runs the full pipeline in order: hierarchy generation (or reuse),
  purchase assignment, volume-point propagation, rank and line
  qualification, bonus payment, result assembly. Each stage reports
  progress and honors cancellation through the injected hooks.

GUARANTEES:
  - Deterministic for a given config: the RNG is seeded from cfg.Seed.
  - Cancellation aborts cleanly with ErrCancelled and no partial Result.
  - An invalid config fails before any work starts.
*/
package powerup

import (
	"math/rand"

	"github.com/lattice/comp-engine/hierarchy"
	"github.com/lattice/comp-engine/sim"
)

// Run executes one PowerUp simulation. When tree is nil a fresh hierarchy is
// generated from the config; otherwise the supplied tree is reused as-is
// (its size and depth override total_users/max_depth for this run). The
// returned tree is whichever one the run used, so callers can cache it.
func Run(cfg Config, tree *hierarchy.Tree, hooks sim.Hooks) (*Result, *hierarchy.Tree, error) {
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}
	rng := rand.New(rand.NewSource(cfg.Seed))

	if tree == nil {
		var err error
		tree, err = hierarchy.Generate(cfg.TotalUsers, cfg.MaxDepth, rng, hooks)
		if err != nil {
			return nil, nil, err
		}
	}

	units, amounts, err := assignPurchases(tree, &cfg, rng, hooks)
	if err != nil {
		return nil, nil, err
	}

	v, err := aggregateVolumes(tree, amounts, hooks)
	if err != nil {
		return nil, nil, err
	}

	if err := hooks.Step("Qualifying ranks and lines", 60); err != nil {
		return nil, nil, err
	}
	q := qualifyAll(tree.Size(), &cfg, v)

	if err := hooks.Step("Calculating bonuses", 75); err != nil {
		return nil, nil, err
	}
	e, err := payBonuses(tree, amounts, q, hooks)
	if err != nil {
		return nil, nil, err
	}

	if err := hooks.Step("Compiling statistics", 95); err != nil {
		return nil, nil, err
	}
	result := buildResult(tree, &cfg, units, amounts, v, q, e)

	hooks.Report("Complete", 100)
	return result, tree, nil
}
