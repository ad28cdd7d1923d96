package stats

import "errors"

var (
	// ErrEmptySeries is returned when the input has no time steps
	ErrEmptySeries = errors.New("stats: series has no time steps")

	// ErrInvalidWindow is returned for a rolling half-width below 1
	ErrInvalidWindow = errors.New("stats: rolling half-width must be at least 1")

	// ErrOutOfDomainAlpha flags a smoothing factor outside (0, 1).
	// It is advisory: StepMean still computes the recurrence.
	ErrOutOfDomainAlpha = errors.New("stats: smoothing factor outside (0, 1)")
)
