package sim

import (
	"time"

	"go.uber.org/zap"
)

// Buffer keeps the calculator's cache warm ahead of playback. Each Tick
// derives at most one step past the furthest computed one, until that lies
// the buffer's reach ahead of the last requested time.
type Buffer struct {
	calc    *Calculator
	horizon time.Duration
	log     *zap.Logger

	lastRequested time.Duration
	lastComputed  time.Duration
	running       bool
	waiting       bool
}

func NewBuffer(calc *Calculator, horizon time.Duration, opts ...Option) *Buffer {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if horizon <= 0 {
		horizon = DefaultBuffer
	}
	return &Buffer{
		calc:    calc,
		horizon: horizon,
		log:     o.logger.Named("buffer"),
	}
}

func (b *Buffer) Calculator() *Calculator { return b.calc }

func (b *Buffer) Horizon() time.Duration { return b.horizon }

// Reach is how far ahead of playback Tick computes: the horizon, cut down so
// every step from playback to the furthest one fits in the calculator's cache.
func (b *Buffer) Reach() time.Duration {
	span := time.Duration(b.calc.CacheCapacity()-1) * b.calc.StepSize()
	return min(b.horizon, span)
}

func (b *Buffer) LastRequested() time.Duration { return b.lastRequested }

func (b *Buffer) LastComputed() time.Duration { return b.lastComputed }

// Calculate records t as the playback position and delegates.
func (b *Buffer) Calculate(t time.Duration) (*Step, error) {
	b.lastRequested = b.calc.Floor(t)
	s, err := b.calc.Calculate(t)
	if err != nil {
		return nil, err
	}
	if s.Timestamp > b.lastComputed {
		b.lastComputed = s.Timestamp
	}
	return s, nil
}

func (b *Buffer) Start() {
	b.running = true
}

func (b *Buffer) Stop() {
	b.running = false
}

func (b *Buffer) Running() bool { return b.running }

// Tick extends the computed horizon by one step if the buffer is running and
// short of its horizon. It reports whether a step was derived.
func (b *Buffer) Tick() (bool, error) {
	if !b.running {
		return false, nil
	}
	if b.lastComputed-b.lastRequested >= b.Reach() {
		if !b.waiting {
			b.log.Debug("waiting for simulation to catch up",
				zap.Duration("calculated", b.lastComputed),
				zap.Duration("requested", b.lastRequested))
			b.waiting = true
		}
		return false, nil
	}
	b.waiting = false

	next := b.lastComputed + b.calc.StepSize()
	if !b.calc.Cached(b.lastComputed) {
		next = b.lastComputed
	}
	if _, err := b.calc.Calculate(next); err != nil {
		return false, err
	}
	b.lastComputed = next
	return true, nil
}

// Warm derives every step up to until synchronously.
func (b *Buffer) Warm(until time.Duration) error {
	target := b.calc.Floor(until)
	for t := b.lastComputed; t <= target; t += b.calc.StepSize() {
		if _, err := b.calc.Calculate(t); err != nil {
			return err
		}
		b.lastComputed = t
	}
	return nil
}
