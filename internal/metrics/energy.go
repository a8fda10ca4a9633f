package metrics

import (
	"math"

	"github.com/san-kum/particlesim/internal/physics"
	"github.com/san-kum/particlesim/internal/sim"
)

// KineticEnergy reports Σ ½mv² of the last observed step, with velocities in
// pixels per second.
type KineticEnergy struct {
	name  string
	value float64
}

func NewKineticEnergy() *KineticEnergy {
	return &KineticEnergy{name: "kinetic_energy"}
}

func (k *KineticEnergy) Name() string { return k.name }

func (k *KineticEnergy) Observe(env *physics.Environment, step *sim.Step) {
	k.value = Kinetic(env, step)
}

func (k *KineticEnergy) Value() float64 { return k.value }

func (k *KineticEnergy) Reset() { k.value = 0 }

func Kinetic(env *physics.Environment, step *sim.Step) float64 {
	total := 0.0
	for _, id := range step.IDs() {
		p, ok := env.GetParticle(id)
		if !ok {
			continue
		}
		v := step.Particles[id].Velocity.Length()
		total += 0.5 * p.Mass() * v * v
	}
	return total
}

// Potential is the pairwise gravitational potential energy of step, with
// distances converted to meters.
func Potential(env *physics.Environment, step *sim.Step) float64 {
	total := 0.0
	for _, pair := range env.ForcePairs() {
		a, okA := step.Particles[pair[0].ID()]
		b, okB := step.Particles[pair[1].ID()]
		if !okA || !okB {
			continue
		}
		dx := a.Position.X - b.Position.X
		dy := a.Position.Y - b.Position.Y
		r := env.PixelsToMeters(math.Sqrt(dx*dx + dy*dy))
		if r == 0 {
			continue
		}
		total -= physics.G * pair[0].Mass() * pair[1].Mass() / r
	}
	return total
}

// EnergyDrift is the largest relative change of total energy seen since the
// first observed step.
type EnergyDrift struct {
	name     string
	initial  float64
	maxDrift float64
	samples  int
}

func NewEnergyDrift() *EnergyDrift {
	return &EnergyDrift{name: "energy_drift"}
}

func (e *EnergyDrift) Name() string { return e.name }

func (e *EnergyDrift) Observe(env *physics.Environment, step *sim.Step) {
	energy := Kinetic(env, step) + Potential(env, step)
	if e.samples == 0 {
		e.initial = energy
	}
	e.samples++

	if e.initial != 0 {
		drift := math.Abs(energy-e.initial) / math.Abs(e.initial)
		e.maxDrift = math.Max(e.maxDrift, drift)
	}
}

func (e *EnergyDrift) Value() float64 { return e.maxDrift }

func (e *EnergyDrift) Reset() {
	e.initial = 0
	e.maxDrift = 0
	e.samples = 0
}
