package integrators

import (
	"errors"
	"fmt"
	"sort"

	"github.com/san-kum/particlesim/internal/vec"
)

var ErrUnknownIntegrator = errors.New("integrators: unknown integrator")

// Kinematics is one particle's kinematic state. Acceleration is taken as
// constant over the step.
type Kinematics struct {
	Position     vec.Vector
	Velocity     vec.Vector
	Acceleration vec.Vector
}

type Integrator interface {
	Step(k Kinematics, dt float64) Kinematics
}

// Euler advances position with the old velocity.
type Euler struct{}

func NewEuler() *Euler {
	return &Euler{}
}

func (e *Euler) Step(k Kinematics, dt float64) Kinematics {
	return Kinematics{
		Position:     vec.Add(k.Position, k.Velocity.Scale(dt)),
		Velocity:     vec.Add(k.Velocity, k.Acceleration.Scale(dt)),
		Acceleration: k.Acceleration,
	}
}

// SemiImplicitEuler updates velocity first and advances position with the new
// velocity.
type SemiImplicitEuler struct{}

func NewSemiImplicitEuler() *SemiImplicitEuler {
	return &SemiImplicitEuler{}
}

func (s *SemiImplicitEuler) Step(k Kinematics, dt float64) Kinematics {
	v := vec.Add(k.Velocity, k.Acceleration.Scale(dt))
	return Kinematics{
		Position:     vec.Add(k.Position, v.Scale(dt)),
		Velocity:     v,
		Acceleration: k.Acceleration,
	}
}

var registry = map[string]func() Integrator{
	"euler":         func() Integrator { return NewEuler() },
	"semi-implicit": func() Integrator { return NewSemiImplicitEuler() },
}

func ByName(name string) (Integrator, error) {
	ctor, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownIntegrator, name)
	}
	return ctor(), nil
}

func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
