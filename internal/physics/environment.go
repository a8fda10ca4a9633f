package physics

import (
	"fmt"
	"math"

	"github.com/san-kum/particlesim/internal/shape"
	"github.com/san-kum/particlesim/internal/vec"
)

// G is the gravitational constant in N·m²/kg².
const G = 6.674e-11

const (
	DefaultFriction       = 0.65
	DefaultMetersPerPixel = 100000.0
)

// Stage is the part of the shape layer the environment depends on.
type Stage interface {
	CreateShape(kind shape.Kind, props shape.Props) (shape.Shape, error)
	GetShapesNear(position vec.Vector, radius float64) []shape.Nearby
	Size() vec.Vector
}

// Properties are the environment-wide constants. They are read-only once the
// environment is built.
type Properties struct {
	CoefficientOfFriction float64
	MetersPerPixel        float64
	Width                 float64
	Height                float64
	UniversalForce        vec.Vector
}

type Option func(*Properties)

func WithFriction(coefficient float64) Option {
	return func(p *Properties) { p.CoefficientOfFriction = coefficient }
}

func WithMetersPerPixel(mpp float64) Option {
	return func(p *Properties) { p.MetersPerPixel = mpp }
}

func WithDimensions(width, height float64) Option {
	return func(p *Properties) {
		p.Width = width
		p.Height = height
	}
}

// WithUniversalForce sets a bias force added to every particle's net force.
func WithUniversalForce(force vec.Vector) Option {
	return func(p *Properties) { p.UniversalForce = force }
}

type Environment struct {
	stage     Stage
	props     Properties
	particles []*Particle
	byID      map[int]*Particle
}

func NewEnvironment(stage Stage, opts ...Option) (*Environment, error) {
	size := stage.Size()
	props := Properties{
		CoefficientOfFriction: DefaultFriction,
		MetersPerPixel:        DefaultMetersPerPixel,
		Width:                 size.X,
		Height:                size.Y,
	}
	for _, opt := range opts {
		opt(&props)
	}
	if !(props.MetersPerPixel > 0) || math.IsInf(props.MetersPerPixel, 0) {
		return nil, fmt.Errorf("%w: %v", ErrInvalidScale, props.MetersPerPixel)
	}

	return &Environment{
		stage: stage,
		props: props,
		byID:  make(map[int]*Particle),
	}, nil
}

func (e *Environment) Properties() Properties { return e.props }

func (e *Environment) Stage() Stage { return e.stage }

type ParticleOption func(*particleSettings)

type particleSettings struct {
	props       PhysicalProperties
	hasPosition bool
}

func WithMass(mass float64) ParticleOption {
	return func(s *particleSettings) { s.props.Mass = mass }
}

// AtPosition places the particle, moving its shape if needed.
func AtPosition(pos vec.Vector) ParticleOption {
	return func(s *particleSettings) {
		s.props.Position = pos
		s.hasPosition = true
	}
}

func WithVelocity(v vec.Vector) ParticleOption {
	return func(s *particleSettings) { s.props.InitialVelocity = v }
}

func WithAcceleration(a vec.Vector) ParticleOption {
	return func(s *particleSettings) { s.props.InitialAcceleration = a }
}

func WithFrictionCoefficient(coefficient float64) ParticleOption {
	return func(s *particleSettings) { s.props.CoefficientOfFriction = &coefficient }
}

// CreateParticle registers a particle backed by sh. A nil shape gets a
// default circle on the stage. The initial position defaults to the shape's
// position.
func (e *Environment) CreateParticle(sh shape.Shape, opts ...ParticleOption) (*Particle, error) {
	ps := particleSettings{props: PhysicalProperties{Mass: DefaultMass}}
	for _, opt := range opts {
		opt(&ps)
	}

	mass := ps.props.Mass
	if !(mass > 0) || math.IsInf(mass, 0) {
		return nil, fmt.Errorf("%w: %v", ErrInvalidMass, mass)
	}

	if sh == nil {
		var err error
		sh, err = e.stage.CreateShape(shape.KindCircle, shape.Props{
			Position: ps.props.Position,
			Radius:   shape.DefaultRadius,
		})
		if err != nil {
			return nil, fmt.Errorf("creating default shape: %w", err)
		}
	}
	if _, exists := e.byID[sh.ID()]; exists {
		return nil, fmt.Errorf("%w: shape %d", ErrDuplicateParticle, sh.ID())
	}

	if !ps.hasPosition {
		ps.props.Position = sh.Position()
	} else if !vec.Equals(sh.Position(), ps.props.Position) {
		sh.SetPosition(ps.props.Position)
	}

	p := &Particle{
		env:          e,
		props:        ps.props,
		shape:        sh,
		velocity:     ps.props.InitialVelocity,
		acceleration: ps.props.InitialAcceleration,
	}
	e.particles = append(e.particles, p)
	e.byID[p.ID()] = p
	return p, nil
}

func (e *Environment) GetParticle(id int) (*Particle, bool) {
	p, ok := e.byID[id]
	return p, ok
}

// Particles returns the particles in creation order.
func (e *Environment) Particles() []*Particle {
	out := make([]*Particle, len(e.particles))
	copy(out, e.particles)
	return out
}

func (e *Environment) RemoveParticle(id int) bool {
	if _, ok := e.byID[id]; !ok {
		return false
	}
	delete(e.byID, id)
	for i, p := range e.particles {
		if p.ID() == id {
			e.particles = append(e.particles[:i], e.particles[i+1:]...)
			break
		}
	}
	return true
}

type NearbyParticle struct {
	Particle *Particle
	Distance shape.Distance
}

// GetParticlesNear runs the stage proximity query and keeps the shapes that
// back a particle. radius <= 0 means unbounded.
func (e *Environment) GetParticlesNear(position vec.Vector, radius float64) []NearbyParticle {
	near := e.stage.GetShapesNear(position, radius)
	out := make([]NearbyParticle, 0, len(near))
	for _, n := range near {
		if p, ok := e.byID[n.Shape.ID()]; ok {
			out = append(out, NearbyParticle{Particle: p, Distance: n.Distance})
		}
	}
	return out
}

// GetParticlesNearby is GetParticlesNear around p, excluding p.
func (e *Environment) GetParticlesNearby(p *Particle, radius float64) []NearbyParticle {
	near := e.GetParticlesNear(p.Position(), radius)
	out := near[:0]
	for _, n := range near {
		if n.Particle != p {
			out = append(out, n)
		}
	}
	return out
}

// Positions maps particle ids to positions. Ids that are missing fall back to
// the live shape position.
type Positions map[int]vec.Vector

func (pos Positions) of(p *Particle) vec.Vector {
	if v, ok := pos[p.ID()]; ok {
		return v
	}
	return p.Position()
}

// Contribution is the force particle From exerts on particle To.
type Contribution struct {
	From  int
	To    int
	Force vec.Vector
}

// RecalculateParticleForces returns the particles the stage reports near p
// and the gravitational force p exerts on each of them, evaluated at the given
// positions. Nothing is mutated; deliver the contributions with AddForce.
func (e *Environment) RecalculateParticleForces(p *Particle, at Positions) ([]*Particle, []Contribution) {
	mine := at.of(p)
	near := e.GetParticlesNear(mine, 0)
	nearby := make([]*Particle, 0, len(near))
	contribs := make([]Contribution, 0, len(near))

	for _, n := range near {
		if n.Particle == p {
			continue
		}
		nearby = append(nearby, n.Particle)

		force, ok := e.GravitationalForce(p, n.Particle, mine, at.of(n.Particle))
		if !ok {
			continue
		}
		contribs = append(contribs, Contribution{From: p.ID(), To: n.Particle.ID(), Force: force})
	}
	return nearby, contribs
}

// GravitationalForce is the force source exerts on target, pointing from
// target toward source. Coincident particles have no defined direction and
// report false.
func (e *Environment) GravitationalForce(source, target *Particle, sourcePos, targetPos vec.Vector) (vec.Vector, bool) {
	d := vec.Subtract(sourcePos, targetPos)
	dist := d.Length()
	if dist == 0 {
		return vec.Zero, false
	}

	magnitude := Gravity(source.Mass(), target.Mass(), e.PixelsToMeters(dist))
	return vec.Vector{
		X: math.Sin(math.Asin(d.X/dist)) * magnitude,
		Y: math.Cos(math.Acos(d.Y/dist)) * magnitude,
	}, true
}

// Gravity is the Newtonian force magnitude between two masses r meters apart.
func Gravity(m1, m2, r float64) float64 {
	return ((m1 * m2) / (r * r)) * G
}

// ApplyFriction subtracts coefficient in the direction of each nonzero
// acceleration component.
func (e *Environment) ApplyFriction(acceleration vec.Vector, coefficient float64) vec.Vector {
	return vec.Vector{
		X: acceleration.X - coefficient*sign(acceleration.X),
		Y: acceleration.Y - coefficient*sign(acceleration.Y),
	}
}

func (e *Environment) PixelsToMeters(px float64) float64 {
	return px * e.props.MetersPerPixel
}

func (e *Environment) MetersToPixels(m float64) float64 {
	return m / e.props.MetersPerPixel
}

// ForcePairs lists each unordered particle pair once, in creation order.
func (e *Environment) ForcePairs() [][2]*Particle {
	n := len(e.particles)
	if n < 2 {
		return nil
	}
	pairs := make([][2]*Particle, 0, n*(n-1)/2)
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			pairs = append(pairs, [2]*Particle{e.particles[i], e.particles[j]})
		}
	}
	return pairs
}

func sign(v float64) float64 {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	default:
		return 0
	}
}
