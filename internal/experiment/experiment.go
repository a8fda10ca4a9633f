package experiment

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/san-kum/particlesim/internal/cache"
	"github.com/san-kum/particlesim/internal/config"
	"github.com/san-kum/particlesim/internal/integrators"
	"github.com/san-kum/particlesim/internal/metrics"
	"github.com/san-kum/particlesim/internal/physics"
	"github.com/san-kum/particlesim/internal/shape"
	"github.com/san-kum/particlesim/internal/sim"
)

type Result struct {
	Name    string
	Times   []time.Duration
	Steps   []*sim.Step
	Metrics map[string]float64
}

// Final is the last sampled step.
func (r *Result) Final() *sim.Step {
	if len(r.Steps) == 0 {
		return nil
	}
	return r.Steps[len(r.Steps)-1]
}

type Option func(*Experiment)

func WithLogger(l *zap.Logger) Option {
	return func(e *Experiment) {
		if l != nil {
			e.log = l
		}
	}
}

// WithMetrics replaces the default metric set.
func WithMetrics(m ...sim.Metric) Option {
	return func(e *Experiment) { e.metrics = m }
}

// WithObserver registers a callback for every sampled step.
func WithObserver(fn func(*sim.Step)) Option {
	return func(e *Experiment) { e.observers = append(e.observers, fn) }
}

type Experiment struct {
	cfg       *config.Config
	log       *zap.Logger
	metrics   []sim.Metric
	observers []func(*sim.Step)

	stage  *shape.Stage
	env    *physics.Environment
	calc   *sim.Calculator
	buffer *sim.Buffer
}

func New(cfg *config.Config, opts ...Option) *Experiment {
	e := &Experiment{
		cfg:     cfg,
		log:     zap.NewNop(),
		metrics: metrics.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Setup validates the config and builds the stage, environment, particles,
// calculator and buffer.
func (e *Experiment) Setup() error {
	if err := e.cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config %q: %w", e.cfg.Name, err)
	}
	envCfg := e.cfg.Environment

	e.stage = shape.NewStage(envCfg.Width, envCfg.Height)
	env, err := physics.NewEnvironment(e.stage,
		physics.WithFriction(envCfg.CoefficientOfFriction),
		physics.WithMetersPerPixel(envCfg.MetersPerPixel),
		physics.WithDimensions(envCfg.Width, envCfg.Height),
		physics.WithUniversalForce(envCfg.UniversalForce),
	)
	if err != nil {
		return err
	}
	e.env = env

	for i, pc := range e.cfg.Particles {
		sh, err := e.stage.CreateShape(pc.ShapeKind(), shape.Props{
			Position: pc.Position,
			Radius:   pc.Radius,
			Width:    pc.Width,
			Height:   pc.Height,
		})
		if err != nil {
			return fmt.Errorf("particle %d: %w", i, err)
		}
		opts := []physics.ParticleOption{
			physics.WithMass(pc.Mass),
			physics.WithVelocity(pc.Velocity),
			physics.WithAcceleration(pc.Acceleration),
		}
		if pc.CoefficientOfFriction != nil {
			opts = append(opts, physics.WithFrictionCoefficient(*pc.CoefficientOfFriction))
		}
		if _, err := env.CreateParticle(sh, opts...); err != nil {
			return fmt.Errorf("particle %d: %w", i, err)
		}
	}

	steps, err := cache.New[time.Duration, *sim.Step](e.cfg.CacheSize)
	if err != nil {
		return err
	}
	integ, err := integrators.ByName(e.cfg.Integrator)
	if err != nil {
		return err
	}

	e.calc, err = sim.NewCalculator(env, e.cfg.Step(),
		sim.WithCache(steps),
		sim.WithMaxDepth(e.cfg.MaxDepth),
		sim.WithFriction(e.cfg.Friction),
		sim.WithCollisionTolerance(e.cfg.CollisionTolerance),
		sim.WithIntegrator(integ),
		sim.WithLogger(e.log),
	)
	if err != nil {
		return err
	}
	e.buffer = sim.NewBuffer(e.calc, e.cfg.Buffer(), sim.WithLogger(e.log))

	e.log.Info("experiment ready",
		zap.String("name", e.cfg.Name),
		zap.Int("particles", len(e.cfg.Particles)),
		zap.Duration("step", e.cfg.Step()))
	return nil
}

// Run samples the trajectory from zero to the configured duration every
// sample interval.
func (e *Experiment) Run(ctx context.Context) (*Result, error) {
	if e.calc == nil {
		return nil, fmt.Errorf("experiment not setup")
	}

	for _, m := range e.metrics {
		m.Reset()
	}

	n := int(e.cfg.Duration()/e.cfg.Sample()) + 1
	result := &Result{
		Name:    e.cfg.Name,
		Times:   make([]time.Duration, 0, n),
		Steps:   make([]*sim.Step, 0, n),
		Metrics: make(map[string]float64, len(e.metrics)),
	}

	for t := time.Duration(0); t <= e.cfg.Duration(); t += e.cfg.Sample() {
		select {
		case <-ctx.Done():
			return result, ctx.Err()
		default:
		}

		if err := e.buffer.Warm(t); err != nil {
			return result, err
		}
		step, err := e.buffer.Calculate(t)
		if err != nil {
			return result, err
		}

		sim.Observe(e.env, step, e.metrics...)
		for _, obs := range e.observers {
			obs(step)
		}
		result.Times = append(result.Times, t)
		result.Steps = append(result.Steps, step)
	}

	for _, m := range e.metrics {
		result.Metrics[m.Name()] = m.Value()
	}
	return result, nil
}

func (e *Experiment) Config() *config.Config { return e.cfg }

func (e *Experiment) Stage() *shape.Stage { return e.stage }

func (e *Experiment) Environment() *physics.Environment { return e.env }

func (e *Experiment) Calculator() *sim.Calculator { return e.calc }

func (e *Experiment) Buffer() *sim.Buffer { return e.buffer }
