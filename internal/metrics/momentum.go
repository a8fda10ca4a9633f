package metrics

import (
	"github.com/san-kum/particlesim/internal/physics"
	"github.com/san-kum/particlesim/internal/sim"
	"github.com/san-kum/particlesim/internal/vec"
)

// Momentum reports |Σ mv| of the last observed step.
type Momentum struct {
	name  string
	value float64
}

func NewMomentum() *Momentum {
	return &Momentum{name: "momentum"}
}

func (m *Momentum) Name() string { return m.name }

func (m *Momentum) Observe(env *physics.Environment, step *sim.Step) {
	m.value = Linear(env, step).Length()
}

func (m *Momentum) Value() float64 { return m.value }

func (m *Momentum) Reset() { m.value = 0 }

func Linear(env *physics.Environment, step *sim.Step) vec.Vector {
	total := vec.Zero
	for _, id := range step.IDs() {
		p, ok := env.GetParticle(id)
		if !ok {
			continue
		}
		total = vec.Add(total, step.Particles[id].Velocity.Scale(p.Mass()))
	}
	return total
}

// Collisions counts distinct colliding pairs over every observed step.
type Collisions struct {
	name  string
	count int
}

func NewCollisions() *Collisions {
	return &Collisions{name: "collisions"}
}

func (c *Collisions) Name() string { return c.name }

func (c *Collisions) Observe(_ *physics.Environment, step *sim.Step) {
	c.count += len(step.CollisionList())
}

func (c *Collisions) Value() float64 { return float64(c.count) }

func (c *Collisions) Reset() { c.count = 0 }
