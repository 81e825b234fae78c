/*
Package sim provides the shared core for the compensation simulation engines.

PURPOSE:
  This package contains the pieces both simulation engines (PowerUp and
  Direct Bonus) depend on but that belong to neither: cooperative run hooks
  (progress reporting + cancellation), centralized error types, money
  rounding, and float tolerance helpers.

KEY CONCEPTS IN THIS FILE (types.go):
  - Hooks: Progress callback + cancellation check injected into a run
  - Stage: Named pipeline stage reported through the progress callback
  - PromotionPreset: Named promotion intensity levels

DESIGN PRINCIPLES:
  1. The engines are single-threaded and deterministic given a seeded RNG;
     concurrency lives entirely in the caller (the job layer).
  2. Hooks fire at bounded granularity (stage boundaries, user batches,
     simulated months), never per element.
  3. Cancellation is cooperative and non-fatal: the engine returns
     ErrCancelled and surfaces no partial totals.

SEE ALSO:
  - errors.go: Sentinel and structured errors
  - money.go: decimal-backed rounding for everything that leaves an engine
*/
package sim

// BatchSize is the granularity at which long user loops report progress and
// check for cancellation. Chosen to keep hook overhead negligible at the
// scales the simulator targets (up to a few hundred thousand users).
const BatchSize = 10000

// Hooks carries the cooperative callbacks a run honors. Both fields are
// optional; a zero Hooks disables reporting and makes the run uncancellable.
type Hooks struct {
	// Progress is invoked with a human-readable stage description and an
	// approximate completion percentage (0-100).
	Progress func(stage string, pct int)

	// Cancelled is polled at the same granularity as Progress. Returning
	// true makes the run stop promptly with ErrCancelled.
	Cancelled func() bool
}

// Report invokes the progress callback if one is set.
func (h Hooks) Report(stage string, pct int) {
	if h.Progress != nil {
		h.Progress(stage, pct)
	}
}

// CancelRequested reports whether the caller asked the run to stop.
func (h Hooks) CancelRequested() bool {
	return h.Cancelled != nil && h.Cancelled()
}

// Step reports progress and checks for cancellation in one call. It returns
// ErrCancelled when the caller requested a stop, nil otherwise.
func (h Hooks) Step(stage string, pct int) error {
	h.Report(stage, pct)
	if h.CancelRequested() {
		return ErrCancelled
	}
	return nil
}

// =============================================================================
// PROMOTION PRESETS
// =============================================================================

// PromotionPreset is a named promotion intensity, expressed as the share of
// users (0-1) converted to cluster around the promotional target.
type PromotionPreset struct {
	Name        string
	Intensity   float64
	Description string
}

// PromotionPresets maps preset ids to behavioral-economics derived
// intensities. Callers may also supply any custom intensity directly.
var PromotionPresets = map[string]PromotionPreset{
	"light":      {Name: "Light (25%)", Intensity: 0.25, Description: "Normal ongoing marketing"},
	"moderate":   {Name: "Moderate (45%)", Intensity: 0.45, Description: "Active campaign period"},
	"aggressive": {Name: "Aggressive (65%)", Intensity: 0.65, Description: "Heavy end-of-period push"},
	"extreme":    {Name: "Extreme (85%)", Intensity: 0.85, Description: "Quota-deadline pressure"},
}
