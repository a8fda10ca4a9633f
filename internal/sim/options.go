package sim

import (
	"time"

	"go.uber.org/zap"
	"k8s.io/utils/clock"

	"github.com/san-kum/particlesim/internal/cache"
	"github.com/san-kum/particlesim/internal/integrators"
)

const (
	DefaultMaxDepth           = 20000
	DefaultCollisionTolerance = 0.5
	DefaultBuffer             = 5 * time.Second
)

type options struct {
	logger     *zap.Logger
	clock      clock.PassiveClock
	cache      *cache.Bounded[time.Duration, *Step]
	maxDepth   int
	friction   bool
	tolerance  float64
	integrator integrators.Integrator
}

func defaultOptions() options {
	return options{
		logger:     zap.NewNop(),
		clock:      clock.RealClock{},
		maxDepth:   DefaultMaxDepth,
		tolerance:  DefaultCollisionTolerance,
		integrator: integrators.NewSemiImplicitEuler(),
	}
}

// Option configures a Calculator, Buffer or Simulation. Each ignores the
// options that do not apply to it.
type Option func(*options)

func WithLogger(l *zap.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

func WithClock(c clock.PassiveClock) Option {
	return func(o *options) { o.clock = c }
}

// WithCache injects the step cache, which controls its capacity.
func WithCache(c *cache.Bounded[time.Duration, *Step]) Option {
	return func(o *options) { o.cache = c }
}

// WithMaxDepth bounds how many uncached steps a single Calculate may derive.
func WithMaxDepth(n int) Option {
	return func(o *options) { o.maxDepth = n }
}

// WithFriction applies environment friction to force-derived acceleration.
func WithFriction(enabled bool) Option {
	return func(o *options) { o.friction = enabled }
}

// WithCollisionTolerance sets the per-axis distance under which two outline
// points are considered touching.
func WithCollisionTolerance(tol float64) Option {
	return func(o *options) { o.tolerance = tol }
}

func WithIntegrator(i integrators.Integrator) Option {
	return func(o *options) { o.integrator = i }
}
