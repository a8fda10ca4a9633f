package physics

import (
	"math"

	"github.com/san-kum/particlesim/internal/shape"
	"github.com/san-kum/particlesim/internal/vec"
)

const DefaultMass = 10.0

// PhysicalProperties seed a particle's step at time zero. They are not
// modified after creation.
type PhysicalProperties struct {
	Mass                float64
	Position            vec.Vector
	InitialVelocity     vec.Vector
	InitialAcceleration vec.Vector

	// CoefficientOfFriction overrides the environment's coefficient when set.
	CoefficientOfFriction *float64
}

type Particle struct {
	env   *Environment
	props PhysicalProperties
	shape shape.Shape

	acceleration vec.Vector
	velocity     vec.Vector
	pending      []vec.Vector
}

// ID is the identifier of the backing shape.
func (p *Particle) ID() int { return p.shape.ID() }

func (p *Particle) Shape() shape.Shape { return p.shape }

func (p *Particle) Properties() PhysicalProperties { return p.props }

func (p *Particle) Mass() float64 { return p.props.Mass }

// Position reads through to the backing shape.
func (p *Particle) Position() vec.Vector { return p.shape.Position() }

func (p *Particle) SetPosition(pos vec.Vector) { p.shape.SetPosition(pos) }

func (p *Particle) Velocity() vec.Vector { return p.velocity }

func (p *Particle) SetVelocity(v vec.Vector) { p.velocity = v }

func (p *Particle) Acceleration() vec.Vector { return p.acceleration }

func (p *Particle) SetAcceleration(a vec.Vector) { p.acceleration = a }

func (p *Particle) AddForce(force vec.Vector) {
	p.pending = append(p.pending, force)
}

func (p *Particle) PendingForces() int { return len(p.pending) }

// ResolveForces drains the pending-force queue and returns its sum.
func (p *Particle) ResolveForces() vec.Vector {
	net := vec.Sum(p.pending...)
	p.pending = p.pending[:0]
	return net
}

// ApplyForce sets the acceleration to netForce / mass.
func (p *Particle) ApplyForce(netForce vec.Vector) vec.Vector {
	p.acceleration = netForce.Div(p.props.Mass)
	return p.acceleration
}

// AdjustVelocity integrates the current acceleration over dt seconds.
func (p *Particle) AdjustVelocity(dt float64) vec.Vector {
	p.velocity = vec.Add(p.velocity, p.acceleration.Scale(dt))
	return p.velocity
}

// Boundary returns the point on the particle's outline facing an approach at
// angle theta. others is the approaching particle's position.
func (p *Particle) Boundary(others, mine vec.Vector, theta float64) (vec.Vector, error) {
	o, ok := p.shape.(shape.Outline)
	if !ok {
		return vec.Zero, &UnsupportedShapeError{Kind: p.shape.Kind()}
	}
	return o.Boundary(others, mine, theta), nil
}

// CombinedAcceleration is a diagnostic scalar, sin(ay) + cos(ax).
func (p *Particle) CombinedAcceleration() float64 {
	return math.Sin(p.acceleration.Y) + math.Cos(p.acceleration.X)
}

// FrictionCoefficient is the particle's own coefficient if one was given,
// otherwise the environment's.
func (p *Particle) FrictionCoefficient() float64 {
	if p.props.CoefficientOfFriction != nil {
		return *p.props.CoefficientOfFriction
	}
	return p.env.Properties().CoefficientOfFriction
}
