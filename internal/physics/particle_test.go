package physics

import (
	"errors"
	"math"
	"testing"

	. "github.com/onsi/gomega"

	"github.com/san-kum/particlesim/internal/shape"
	"github.com/san-kum/particlesim/internal/vec"
)

func newTestEnv(t *testing.T, opts ...Option) (*Environment, *shape.Stage) {
	t.Helper()
	stage := shape.NewStage(500, 500)
	env, err := NewEnvironment(stage, opts...)
	if err != nil {
		t.Fatalf("NewEnvironment: %v", err)
	}
	return env, stage
}

func TestResolveForcesDrainsQueue(t *testing.T) {
	g := NewWithT(t)
	env, _ := newTestEnv(t)
	p, err := env.CreateParticle(nil)
	g.Expect(err).NotTo(HaveOccurred())

	p.AddForce(vec.New(1, 2))
	p.AddForce(vec.New(3, -1))
	g.Expect(p.PendingForces()).To(Equal(2))

	g.Expect(p.ResolveForces()).To(Equal(vec.New(4, 1)))
	g.Expect(p.PendingForces()).To(BeZero())
	g.Expect(p.ResolveForces()).To(Equal(vec.Zero))
}

func TestApplyForceAndAdjustVelocity(t *testing.T) {
	g := NewWithT(t)
	env, _ := newTestEnv(t)
	p, _ := env.CreateParticle(nil, WithMass(4), WithVelocity(vec.New(1, 1)))

	g.Expect(p.ApplyForce(vec.New(8, -4))).To(Equal(vec.New(2, -1)))
	g.Expect(p.AdjustVelocity(0.5)).To(Equal(vec.New(2, 0.5)))
	g.Expect(p.Velocity()).To(Equal(vec.New(2, 0.5)))
}

func TestBoundary(t *testing.T) {
	g := NewWithT(t)
	env, stage := newTestEnv(t)

	circle, _ := env.CreateParticle(nil, AtPosition(vec.New(100, 100)))
	got, err := circle.Boundary(vec.Zero, circle.Position(), 0)
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(got).To(Equal(vec.New(110, 100)))

	path, _ := stage.CreateShape(shape.KindPath, shape.Props{})
	p, err := env.CreateParticle(path)
	g.Expect(err).NotTo(HaveOccurred())

	_, err = p.Boundary(vec.Zero, p.Position(), 0)
	var unsupported *UnsupportedShapeError
	g.Expect(errors.As(err, &unsupported)).To(BeTrue())
	g.Expect(unsupported.Kind).To(Equal(shape.KindPath))
}

func TestCombinedAcceleration(t *testing.T) {
	env, _ := newTestEnv(t)
	p, _ := env.CreateParticle(nil)

	if got := p.CombinedAcceleration(); got != 1 {
		t.Errorf("expected 1 at rest, got %v", got)
	}
	p.SetAcceleration(vec.New(math.Pi, math.Pi/2))
	if got := p.CombinedAcceleration(); math.Abs(got) > 1e-12 {
		t.Errorf("expected 0, got %v", got)
	}
}

func TestFrictionCoefficient(t *testing.T) {
	env, _ := newTestEnv(t, WithFriction(0.3))
	shared, _ := env.CreateParticle(nil)
	own, _ := env.CreateParticle(nil, WithFrictionCoefficient(0))

	if got := shared.FrictionCoefficient(); got != 0.3 {
		t.Errorf("expected environment coefficient 0.3, got %v", got)
	}
	if got := own.FrictionCoefficient(); got != 0 {
		t.Errorf("expected particle coefficient 0, got %v", got)
	}
}
