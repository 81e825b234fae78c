/*
errors.go - Centralized error types for the simulation engines

PURPOSE:
  All error types in one place for consistency and discoverability.
  Engine packages wrap these with additional context where useful.

ERROR CATEGORIES:
  1. Configuration errors - rejected before any computation begins
  2. Cancellation - cooperative, non-fatal outcome
  3. Structural errors - generator invariant violations; always fatal

USAGE:
  if errors.Is(err, sim.ErrCancelled) {
      // distinct "cancelled" job state, not a failure
  }

SEE ALSO:
  - types.go: Hooks.Step returns ErrCancelled
*/
package sim

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrCancelled is returned when a run stops because the caller's
	// cancellation check fired. It is an outcome, not a failure: no partial
	// totals accompany it.
	ErrCancelled = errors.New("run cancelled")

	// ErrInvalidConfig is the sentinel wrapped by every ConfigError.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrStructure is returned when an ancestor walk exceeds the configured
	// maximum depth, or a node violates the depth invariant after
	// generation. It indicates the hierarchy invariant was broken and the
	// run must abort rather than produce wrong numbers.
	ErrStructure = errors.New("hierarchy structure violation")

	// ErrHierarchyNotFound is returned by the cache store when no hierarchy
	// matches the requested parameters.
	ErrHierarchyNotFound = errors.New("hierarchy not found")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// ConfigError describes a single configuration failure. Validation stops at
// the first violation so the caller gets one descriptive failure, not a
// partial run.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid configuration: %s: %s", e.Field, e.Reason)
}

func (e *ConfigError) Unwrap() error { return ErrInvalidConfig }

// StructureError describes a structural invariant violation discovered while
// walking or validating the hierarchy.
type StructureError struct {
	UserID int
	Reason string
}

func (e *StructureError) Error() string {
	return fmt.Sprintf("hierarchy structure violation at user %d: %s", e.UserID, e.Reason)
}

func (e *StructureError) Unwrap() error { return ErrStructure }

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsCancellation reports whether err is the cooperative-cancel outcome.
func IsCancellation(err error) bool { return errors.Is(err, ErrCancelled) }

// IsClientError reports whether the error is due to invalid caller input.
func IsClientError(err error) bool { return errors.Is(err, ErrInvalidConfig) }
