package sim

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrInvalidStepSize indicates a step size outside StepSizes.
	ErrInvalidStepSize = errors.New("sim: unsupported step size")

	// ErrColdCache indicates a request that would derive more uncached steps
	// than the calculator's maximum depth. Warm the cache first.
	ErrColdCache = errors.New("sim: too many uncached steps; warm the buffer first")

	// ErrNonFinite indicates a derived step produced NaN or Inf.
	ErrNonFinite = errors.New("sim: step diverged (NaN or Inf detected)")

	ErrSpeedTooLow  = errors.New("sim: speed must be greater than 0")
	ErrSpeedTooHigh = errors.New("sim: speed must be less than 5000000")

	ErrTimerRunning = errors.New("sim: timer already running")
	ErrNotRunning   = errors.New("sim: simulation is not running")

	// ErrNoStep indicates a calculation that yielded no step.
	ErrNoStep = errors.New("sim: no step could be derived")
)

// StepError wraps a failure deriving the step at Timestamp. Failed steps are
// never cached.
type StepError struct {
	Timestamp time.Duration
	Wrapped   error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("sim: step at %v: %v", e.Timestamp, e.Wrapped)
}

func (e *StepError) Unwrap() error {
	return e.Wrapped
}
