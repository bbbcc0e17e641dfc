package engine

import "errors"

// Domain errors surfaced to callers. Referenced-id-absent cases surface the
// store's ErrNotFound unchanged.
var (
	// ErrOrderingViolation is returned when the final step of a session is
	// completed while earlier steps are still open. Nothing is mutated.
	ErrOrderingViolation = errors.New("steps must be completed in order before the final step")

	// ErrFakeCompletion is returned when a wireless-tag bridge reports a FALSE
	// event, meaning the sensor detected a faked completion.
	ErrFakeCompletion = errors.New("fake completion detected by sensor")

	// ErrInvalidMode is returned for a group mode outside RACE/ALL.
	ErrInvalidMode = errors.New("group mode must be RACE or ALL")
)
