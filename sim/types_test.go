/*
types_test.go - Hook plumbing
*/
package sim

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHooks_ZeroValueIsInert(t *testing.T) {
	var h Hooks

	h.Report("stage", 10) // must not panic
	assert.False(t, h.CancelRequested())
	assert.NoError(t, h.Step("stage", 20))
}

func TestHooks_StepReportsThenChecks(t *testing.T) {
	// GIVEN: Hooks that record progress and immediately request a stop
	// WHEN: Step fires
	// THEN: The progress report still lands before ErrCancelled is returned

	var gotStage string
	var gotPct int
	h := Hooks{
		Progress:  func(stage string, pct int) { gotStage, gotPct = stage, pct },
		Cancelled: func() bool { return true },
	}

	err := h.Step("Assigning purchases", 35)

	require.ErrorIs(t, err, ErrCancelled)
	assert.Equal(t, "Assigning purchases", gotStage)
	assert.Equal(t, 35, gotPct)
}

func TestErrorWrapping(t *testing.T) {
	cfgErr := &ConfigError{Field: "max_depth", Reason: "must be at least 2"}
	assert.ErrorIs(t, cfgErr, ErrInvalidConfig)
	assert.True(t, IsClientError(cfgErr))
	assert.Contains(t, cfgErr.Error(), "max_depth")

	structErr := &StructureError{UserID: 7, Reason: "cycle"}
	assert.ErrorIs(t, structErr, ErrStructure)
	assert.Contains(t, structErr.Error(), "user 7")

	assert.True(t, IsCancellation(ErrCancelled))
	assert.False(t, IsCancellation(cfgErr))
}
