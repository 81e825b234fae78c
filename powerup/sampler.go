/*
sampler.go - Heavy-tailed purchase assignment

PURPOSE:
  Draws one purchase per user from a log-normal distribution around the
  configured average unit count, floored at the minimum. The distribution is
  unbounded above: a handful of disproportionately large purchasers is the
  intended model of real buying behavior, not a defect.

PROMOTIONAL PULL:
  When promotion is enabled, each user is independently converted with
  probability equal to the promotion intensity. Converted users ignore the
  base distribution and draw from a tight normal around the promotional
  target (sigma = 15% of target), modeling the clustering that sales targets
  create. The base distribution itself is never reshaped.

DETERMINISM:
  The random source is injected; the same seed yields the same purchases.
*/
package powerup

import (
	"math"
	"math/rand"

	"github.com/lattice/comp-engine/hierarchy"
	"github.com/lattice/comp-engine/sim"
)

// logNormalShape is the fixed shape parameter (sigma of the underlying
// normal). 0.75 gives the observed mix of many small orders and a heavy
// upper tail.
const logNormalShape = 0.75

// promoSigmaShare is the promotional cluster width relative to the target.
const promoSigmaShare = 0.15

// assignPurchases draws a unit count and dollar amount for every user.
// Returned slices are 1-based parallel to user ids (index 0 unused).
func assignPurchases(t *hierarchy.Tree, cfg *Config, rng *rand.Rand, hooks sim.Hooks) (units []int, amounts []float64, err error) {
	n := t.Size()
	units = make([]int, n+1)
	amounts = make([]float64, n+1)

	for id := 1; id <= n; id++ {
		u := drawUnits(cfg, rng)
		units[id] = u
		amounts[id] = float64(u) * cfg.UnitPrice

		if id%sim.BatchSize == 0 {
			if err := hooks.Step("Assigning purchases", 15+15*id/n); err != nil {
				return nil, nil, err
			}
		}
	}
	return units, amounts, nil
}

// drawUnits samples a single purchase in units.
func drawUnits(cfg *Config, rng *rand.Rand) int {
	if cfg.PromotionEnabled && rng.Float64() < cfg.PromotionIntensity {
		target := float64(cfg.TargetUnits)
		u := int(math.Round(rng.NormFloat64()*target*promoSigmaShare + target))
		return clampUnits(u, cfg.MinUnits)
	}

	// Log-normal with median avg_units: exp(ln(avg) + shape*Z).
	mu := math.Log(float64(cfg.AvgUnits))
	u := int(math.Round(math.Exp(mu + logNormalShape*rng.NormFloat64())))
	return clampUnits(u, cfg.MinUnits)
}

func clampUnits(u, min int) int {
	if u < min {
		return min
	}
	return u
}
