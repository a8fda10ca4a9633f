package sim

import (
	"context"
	"fmt"
	"math"
	"time"

	"go.uber.org/zap"

	"github.com/san-kum/particlesim/internal/physics"
)

const MaxSpeed = 5_000_000

type TickHandler func(step *Step)

// Simulation samples its source at scaled wall-clock time and writes the
// resulting state back onto the particles. It does no scheduling of its own:
// the host calls Tick on each refresh, or hands Run a refresh channel.
type Simulation struct {
	env      *physics.Environment
	source   Source
	timer    *Timer
	speed    float64
	running  bool
	handlers []TickHandler
	log      *zap.Logger
}

// NewSimulation drives env from source, usually a Buffer.
func NewSimulation(env *physics.Environment, source Source, opts ...Option) *Simulation {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return &Simulation{
		env:    env,
		source: source,
		timer:  NewTimer(o.clock),
		speed:  1,
		log:    o.logger.Named("simulation"),
	}
}

func (s *Simulation) SetSpeed(speed float64) error {
	if !(speed > 0) {
		return fmt.Errorf("%w: got %v", ErrSpeedTooLow, speed)
	}
	if speed >= MaxSpeed {
		return fmt.Errorf("%w: got %v", ErrSpeedTooHigh, speed)
	}
	s.speed = speed
	s.log.Info("speed changed", zap.Float64("speed", speed))
	return nil
}

func (s *Simulation) Speed() float64 { return s.speed }

func (s *Simulation) Running() bool { return s.running }

func (s *Simulation) OnTick(h TickHandler) {
	s.handlers = append(s.handlers, h)
}

type startStopper interface {
	Start()
	Stop()
}

// Start begins from a fresh timer baseline. Starting a running simulation is
// a no-op.
func (s *Simulation) Start() error {
	if s.running {
		return nil
	}
	if err := s.timer.Start(); err != nil {
		return err
	}
	if b, ok := s.source.(startStopper); ok {
		b.Start()
	}
	s.running = true
	s.log.Info("simulation started", zap.Float64("speed", s.speed))
	return nil
}

// Stop halts ticking. Cached steps are kept.
func (s *Simulation) Stop() {
	if !s.running {
		return
	}
	s.running = false
	s.timer.Stop()
	if b, ok := s.source.(startStopper); ok {
		b.Stop()
	}
	s.log.Info("simulation stopped")
}

// Now is the scaled simulation time.
func (s *Simulation) Now() time.Duration {
	scaled := float64(s.timer.Elapsed()) * s.speed
	if scaled >= math.MaxInt64 {
		return time.Duration(math.MaxInt64)
	}
	return time.Duration(scaled)
}

// Tick samples the step at the current scaled time, applies it to the
// particles and runs the tick handlers.
func (s *Simulation) Tick() (*Step, error) {
	if !s.running {
		return nil, ErrNotRunning
	}
	step, err := s.source.Calculate(s.Now())
	if err != nil {
		return nil, err
	}
	s.apply(step)
	for _, h := range s.handlers {
		h(step)
	}
	return step, nil
}

func (s *Simulation) apply(step *Step) {
	for id, ps := range step.Particles {
		p, ok := s.env.GetParticle(id)
		if !ok {
			continue
		}
		p.SetPosition(ps.Position)
		p.SetVelocity(ps.Velocity)
		p.SetAcceleration(ps.Acceleration)
	}
}

type ticker interface {
	Tick() (bool, error)
}

// Run starts the simulation and ticks once per refresh signal until ctx is
// done or a step fails. The buffer, if the source is one, is advanced on
// every refresh as well.
func (s *Simulation) Run(ctx context.Context, refresh <-chan time.Time) error {
	if err := s.Start(); err != nil {
		return err
	}
	defer s.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case _, ok := <-refresh:
			if !ok {
				return nil
			}
			if _, err := s.Tick(); err != nil {
				return err
			}
			if b, ok := s.source.(ticker); ok {
				if _, err := b.Tick(); err != nil {
					return err
				}
			}
		}
	}
}
