package sim

import (
	"time"

	"k8s.io/utils/clock"
)

// Timer measures elapsed wall-clock time since Start.
type Timer struct {
	clock   clock.PassiveClock
	start   time.Time
	running bool
}

func NewTimer(c clock.PassiveClock) *Timer {
	if c == nil {
		c = clock.RealClock{}
	}
	return &Timer{clock: c}
}

func (t *Timer) Start() error {
	if t.running {
		return ErrTimerRunning
	}
	t.start = t.clock.Now()
	t.running = true
	return nil
}

// Stop discards the baseline. Stopping a stopped timer is a no-op.
func (t *Timer) Stop() {
	t.running = false
	t.start = time.Time{}
}

func (t *Timer) Running() bool { return t.running }

// Elapsed is zero while the timer is stopped.
func (t *Timer) Elapsed() time.Duration {
	if !t.running {
		return 0
	}
	return t.clock.Since(t.start)
}
