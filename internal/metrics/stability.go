package metrics

import (
	"github.com/san-kum/particlesim/internal/physics"
	"github.com/san-kum/particlesim/internal/sim"
)

// Containment is the fraction of observed steps in which every particle lies
// inside the environment's dimensions.
type Containment struct {
	name       string
	violations int
	samples    int
}

func NewContainment() *Containment {
	return &Containment{name: "containment"}
}

func (c *Containment) Name() string {
	return c.name
}

func (c *Containment) Observe(env *physics.Environment, step *sim.Step) {
	props := env.Properties()
	c.samples++
	for _, ps := range step.Particles {
		pos := ps.Position
		if pos.X < 0 || pos.Y < 0 || pos.X > props.Width || pos.Y > props.Height {
			c.violations++
			break
		}
	}
}

func (c *Containment) Value() float64 {
	if c.samples == 0 {
		return 1.0
	}
	return 1.0 - float64(c.violations)/float64(c.samples)
}

func (c *Containment) Reset() {
	c.violations = 0
	c.samples = 0
}

// Default returns a fresh instance of every metric.
func Default() []sim.Metric {
	return []sim.Metric{
		NewKineticEnergy(),
		NewEnergyDrift(),
		NewMomentum(),
		NewCollisions(),
		NewContainment(),
	}
}
