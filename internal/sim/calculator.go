package sim

import (
	"fmt"
	"math"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/san-kum/particlesim/internal/cache"
	"github.com/san-kum/particlesim/internal/integrators"
	"github.com/san-kum/particlesim/internal/physics"
	"github.com/san-kum/particlesim/internal/vec"
)

// Calculator derives steps on a fixed time grid and memoizes them. The step
// at t depends only on the step at t-Δ, down to the initial step at zero.
// Calculator is not safe for concurrent use.
type Calculator struct {
	env   *physics.Environment
	step  time.Duration
	cache *cache.Bounded[time.Duration, *Step]
	opts  options
	log   *zap.Logger
}

func NewCalculator(env *physics.Environment, step time.Duration, opts ...Option) (*Calculator, error) {
	if !ValidStepSize(step) {
		return nil, fmt.Errorf("%w: %v", ErrInvalidStepSize, step)
	}

	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	c := o.cache
	if c == nil {
		var err error
		if c, err = cache.New[time.Duration, *Step](cache.DefaultCapacity); err != nil {
			return nil, err
		}
	}

	return &Calculator{
		env:   env,
		step:  step,
		cache: c,
		opts:  o,
		log:   o.logger.Named("calculator"),
	}, nil
}

func (c *Calculator) StepSize() time.Duration { return c.step }

// CacheCapacity is the number of steps the calculator can hold at once.
func (c *Calculator) CacheCapacity() int { return c.cache.Capacity() }

func (c *Calculator) Environment() *physics.Environment { return c.env }

// Floor rounds t down to the step grid. Negative times map to zero.
func (c *Calculator) Floor(t time.Duration) time.Duration {
	if t <= 0 {
		return 0
	}
	return t - t%c.step
}

// Cached reports whether the step covering t is in the cache.
func (c *Calculator) Cached(t time.Duration) bool {
	return c.cache.Has(c.Floor(t))
}

// Calculate returns the step covering t. Uncached steps between the nearest
// cached step and t are derived in order and cached.
func (c *Calculator) Calculate(t time.Duration) (*Step, error) {
	key := c.Floor(t)
	if s, ok := c.cache.Get(key); ok {
		return s, nil
	}

	var (
		missing []time.Duration
		prev    *Step
	)
	for k := key; ; k -= c.step {
		if s, ok := c.cache.Get(k); ok {
			prev = s
			break
		}
		if len(missing) >= c.opts.maxDepth {
			return nil, fmt.Errorf("%w: %v needs more than %d steps", ErrColdCache, key, c.opts.maxDepth)
		}
		missing = append(missing, k)
		if k == 0 {
			break
		}
	}

	if len(missing) > 1 {
		c.log.Debug("walking cold cache",
			zap.Duration("from", missing[len(missing)-1]),
			zap.Duration("to", key),
			zap.Int("depth", len(missing)))
	}

	for i := len(missing) - 1; i >= 0; i-- {
		ts := missing[i]
		var (
			s   *Step
			err error
		)
		if ts == 0 {
			s = c.initialStep()
		} else if s, err = c.derive(prev, ts); err != nil {
			return nil, &StepError{Timestamp: ts, Wrapped: err}
		}
		c.cache.Set(ts, s)
		prev = s
	}

	if prev == nil {
		return nil, ErrNoStep
	}
	return prev, nil
}

func (c *Calculator) initialStep() *Step {
	particles := c.env.Particles()
	s := newStep(0, len(particles))
	for _, p := range particles {
		props := p.Properties()
		s.Particles[p.ID()] = ParticleStep{
			NetForce:     vec.Zero,
			Acceleration: props.InitialAcceleration,
			Velocity:     props.InitialVelocity,
			Position:     props.Position,
		}
	}
	return s
}

// stateOf is p's state in last, or its initial state if last predates it.
func stateOf(last *Step, p *physics.Particle) ParticleStep {
	if ps, ok := last.Particles[p.ID()]; ok {
		return ps
	}
	props := p.Properties()
	return ParticleStep{
		Acceleration: props.InitialAcceleration,
		Velocity:     props.InitialVelocity,
		Position:     props.Position,
	}
}

func (c *Calculator) derive(last *Step, ts time.Duration) (*Step, error) {
	particles := c.env.Particles()
	dt := c.step.Seconds()
	next := newStep(ts, len(particles))

	positions := make(physics.Positions, len(particles))
	for _, p := range particles {
		positions[p.ID()] = stateOf(last, p).Position
	}

	// every contribution is delivered before any particle is resolved
	neighbours := make(map[int][]*physics.Particle, len(particles))
	for _, p := range particles {
		nearby, contribs := c.env.RecalculateParticleForces(p, positions)
		neighbours[p.ID()] = nearby
		for _, f := range contribs {
			if target, ok := c.env.GetParticle(f.To); ok {
				target.AddForce(f.Force)
			}
		}
	}
	universal := c.env.Properties().UniversalForce
	net := make(map[int]vec.Vector, len(particles))
	for _, p := range particles {
		net[p.ID()] = vec.Add(p.ResolveForces(), universal)
	}

	checked := make(map[[2]int]bool)
	for _, p := range particles {
		for _, n := range neighbours[p.ID()] {
			pair := [2]int{min(p.ID(), n.ID()), max(p.ID(), n.ID())}
			if checked[pair] || next.Collided(p.ID(), n.ID()) {
				continue
			}
			checked[pair] = true

			col, err := c.detect(p, n, stateOf(last, p), stateOf(last, n))
			if err != nil {
				return nil, err
			}
			if col != nil {
				next.record(col)
			}
		}
	}

	for _, p := range particles {
		prev := stateOf(last, p)
		ps := ParticleStep{NetForce: net[p.ID()]}

		if cols, ok := next.Collisions[p.ID()]; ok {
			others := make([]int, 0, len(cols))
			for id := range cols {
				others = append(others, id)
			}
			sort.Ints(others)

			v := vec.Zero
			for _, id := range others {
				cv, _ := cols[id].VelocityOf(p.ID())
				v = vec.Add(v, cv)
			}
			ps.Acceleration = vec.Zero
			ps.Velocity = v
			ps.Position = vec.Add(prev.Position, v.Scale(dt))
		} else {
			acc := ps.NetForce.Div(p.Mass())
			if c.opts.friction {
				acc = c.env.ApplyFriction(acc, p.FrictionCoefficient())
			}
			k := c.opts.integrator.Step(integrators.Kinematics{
				Position:     prev.Position,
				Velocity:     prev.Velocity,
				Acceleration: acc,
			}, dt)
			ps.Acceleration = acc
			ps.Velocity = k.Velocity
			ps.Position = k.Position
		}

		if !ps.Position.IsFinite() || !ps.Velocity.IsFinite() {
			return nil, fmt.Errorf("%w: particle %d", ErrNonFinite, p.ID())
		}
		next.Particles[p.ID()] = ps
	}
	return next, nil
}

// detect checks whether a and b touch, using their states from the previous
// step. Zero relative velocity means they cannot collide.
func (c *Calculator) detect(a, b *physics.Particle, sa, sb ParticleStep) (*Collision, error) {
	dv := vec.Subtract(sa.Velocity, sb.Velocity)
	if dv.X == 0 && dv.Y == 0 {
		return nil, nil
	}
	theta := math.Atan2(dv.Y, dv.X)
	if math.IsNaN(theta) {
		return nil, nil
	}

	edgeA, err := a.Boundary(sb.Position, sa.Position, theta)
	if err != nil {
		return nil, fmt.Errorf("particle %d: %w", a.ID(), err)
	}
	// b faces the antipodal direction theta+π, not the mirror π-theta, so
	// vertical approaches see opposing faces
	edgeB, err := b.Boundary(sa.Position, sb.Position, theta+math.Pi)
	if err != nil {
		return nil, fmt.Errorf("particle %d: %w", b.ID(), err)
	}

	tol := c.opts.tolerance
	if math.Abs(edgeA.X-edgeB.X) > tol || math.Abs(edgeA.Y-edgeB.Y) > tol {
		return nil, nil
	}

	va, vb := Elastic(a.Mass(), b.Mass(), sa.Velocity, sb.Velocity)
	return &Collision{
		IDs:        [2]int{a.ID(), b.ID()},
		Velocities: [2]vec.Vector{va, vb},
	}, nil
}

// Elastic applies the one-dimensional elastic collision per axis.
func Elastic(m1, m2 float64, v1, v2 vec.Vector) (vec.Vector, vec.Vector) {
	total := m1 + m2
	diff := m1 - m2
	u1 := vec.Vector{
		X: (diff*v1.X)/total + (2*m2*v2.X)/total,
		Y: (diff*v1.Y)/total + (2*m2*v2.Y)/total,
	}
	u2 := vec.Vector{
		X: (2*m1*v1.X)/total - (diff*v2.X)/total,
		Y: (2*m1*v1.Y)/total - (diff*v2.Y)/total,
	}
	return u1, u2
}

// Observe feeds step to each metric.
func Observe(env *physics.Environment, step *Step, metrics ...Metric) {
	for _, m := range metrics {
		m.Observe(env, step)
	}
}
