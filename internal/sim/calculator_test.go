package sim

import (
	"errors"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/particlesim/internal/cache"
	"github.com/san-kum/particlesim/internal/integrators"
	"github.com/san-kum/particlesim/internal/physics"
	"github.com/san-kum/particlesim/internal/shape"
	"github.com/san-kum/particlesim/internal/vec"
)

// isolatingStage reports no neighbours to anyone.
type isolatingStage struct {
	*shape.Stage
	queries int
}

func (s *isolatingStage) GetShapesNear(vec.Vector, float64) []shape.Nearby {
	s.queries++
	return nil
}

// firstCollision scans forward in calc's step size and returns the first
// step that records a collision.
func firstCollision(calc *Calculator, until time.Duration) *Step {
	GinkgoHelper()
	for t := calc.StepSize(); t <= until; t += calc.StepSize() {
		s, err := calc.Calculate(t)
		Expect(err).NotTo(HaveOccurred())
		if len(s.Collisions) > 0 {
			return s
		}
	}
	return nil
}

var _ = Describe("Calculator", func() {
	It("rejects step sizes off the supported grid", func() {
		env := newEnvironment()
		_, err := NewCalculator(env, 30*time.Millisecond)
		Expect(err).To(MatchError(ErrInvalidStepSize))

		for _, size := range StepSizes {
			_, err := NewCalculator(env, size)
			Expect(err).NotTo(HaveOccurred())
		}
	})

	Describe("the initial step", func() {
		It("reproduces the physical properties with no net force", func() {
			env := newEnvironment()
			p, err := env.CreateParticle(nil,
				physics.WithMass(3),
				physics.AtPosition(vec.New(4, 5)),
				physics.WithVelocity(vec.New(1, 2)),
				physics.WithAcceleration(vec.New(0.5, 0)))
			Expect(err).NotTo(HaveOccurred())
			addParticle(env, 10, vec.New(100, 100), vec.Zero)

			calc, err := NewCalculator(env, 50*time.Millisecond)
			Expect(err).NotTo(HaveOccurred())

			s, err := calc.Calculate(0)
			Expect(err).NotTo(HaveOccurred())
			Expect(s.Timestamp).To(BeZero())
			Expect(s.Collisions).To(BeEmpty())

			ps, ok := s.Particle(p.ID())
			Expect(ok).To(BeTrue())
			Expect(ps).To(Equal(ParticleStep{
				NetForce:     vec.Zero,
				Acceleration: vec.New(0.5, 0),
				Velocity:     vec.New(1, 2),
				Position:     vec.New(4, 5),
			}))
		})

		It("is returned for negative and sub-step times", func() {
			env, _, _ := headOn()
			calc, _ := NewCalculator(env, 50*time.Millisecond)

			zero, _ := calc.Calculate(0)
			neg, _ := calc.Calculate(-time.Second)
			sub, _ := calc.Calculate(49 * time.Millisecond)
			Expect(neg).To(BeIdenticalTo(zero))
			Expect(sub).To(BeIdenticalTo(zero))
		})
	})

	It("floors requests to the step grid", func() {
		env, _, _ := headOn()
		calc, _ := NewCalculator(env, 50*time.Millisecond)

		s, err := calc.Calculate(1049 * time.Millisecond)
		Expect(err).NotTo(HaveOccurred())
		Expect(s.Timestamp).To(Equal(time.Second))

		again, _ := calc.Calculate(time.Second)
		Expect(again).To(BeIdenticalTo(s))
	})

	It("moves a lone particle uniformly", func() {
		env := newEnvironment()
		p := addParticle(env, 200, vec.New(0, 0), vec.New(5, 0))
		calc, _ := NewCalculator(env, 50*time.Millisecond)

		s, err := calc.Calculate(time.Second)
		Expect(err).NotTo(HaveOccurred())

		ps := s.Particles[p.ID()]
		Expect(ps.Velocity).To(Equal(vec.New(5, 0)))
		Expect(ps.Position).To(Equal(vec.New(5, 0)))
		Expect(ps.NetForce).To(Equal(vec.Zero))
	})

	It("matches the two-body gravity regression values", func() {
		env := newEnvironment(physics.WithMetersPerPixel(20))
		small := addParticle(env, 149866.618767, vec.New(0, 0), vec.Zero)
		big := addParticle(env, 1e11, vec.New(50, 0), vec.Zero)
		calc, _ := NewCalculator(env, 50*time.Millisecond)

		s, err := calc.Calculate(time.Second)
		Expect(err).NotTo(HaveOccurred())

		f0 := s.Particles[small.ID()].NetForce
		f1 := s.Particles[big.ID()].NetForce
		Expect(f0.X).To(BeNumerically("~", 1.000209813650958, 1e-6))
		Expect(f0.Y).To(BeNumerically("~", 6.12e-17, 1e-18))
		Expect(f1.X).To(BeNumerically("~", -1.000209813650958, 1e-6))
		Expect(f1.X).To(BeNumerically("~", -f0.X, 1e-15))

		a0 := s.Particles[small.ID()].Acceleration
		Expect(a0.X).To(BeNumerically("~", 6.674e-6, 1e-11))
		Expect(s.Particles[small.ID()].Position.X).To(BeNumerically(">", 0))
		Expect(s.Particles[big.ID()].Position.X).To(BeNumerically("<", 50))
	})

	It("keeps astronomical and microscopic forces unclamped", func() {
		cases := []struct {
			mass, mpp float64
		}{
			{mass: 1e23, mpp: 1},     // 100 m apart
			{mass: 1e-12, mpp: 1e-7}, // 10 µm apart
		}
		for _, tc := range cases {
			env := newEnvironment(physics.WithMetersPerPixel(tc.mpp))
			a := addParticle(env, tc.mass, vec.New(0, 0), vec.Zero)
			b := addParticle(env, tc.mass, vec.New(100, 0), vec.Zero)
			calc, _ := NewCalculator(env, 50*time.Millisecond)

			s, err := calc.Calculate(50 * time.Millisecond)
			Expect(err).NotTo(HaveOccurred())

			want := physics.Gravity(tc.mass, tc.mass, 100*tc.mpp)
			Expect(want).To(Or(BeNumerically(">", 1e23), BeNumerically("<", 1e-22)))
			Expect(s.Particles[a.ID()].NetForce.X).To(BeNumerically("~", want, want*1e-9))
			Expect(s.Particles[b.ID()].NetForce.X).To(BeNumerically("~", -want, want*1e-9))
			Expect(s.Particles[a.ID()].Acceleration.X).To(BeNumerically("~", want/tc.mass, want/tc.mass*1e-9))
		}
	})

	It("only lets particles the stage reports as near interact", func() {
		stage := &isolatingStage{Stage: shape.NewStage(1000, 1000)}
		env, err := physics.NewEnvironment(stage, physics.WithMetersPerPixel(20))
		Expect(err).NotTo(HaveOccurred())
		a := addParticle(env, 10, vec.New(0, 0), vec.New(5, 0))
		_ = addParticle(env, 10, vec.New(50, 0), vec.New(-5, 0))
		calc, _ := NewCalculator(env, 50*time.Millisecond)

		Expect(firstCollision(calc, 8*time.Second)).To(BeNil())
		Expect(stage.queries).To(BeNumerically(">=", 2*160))

		s, _ := calc.Calculate(8 * time.Second)
		Expect(s.Particles[a.ID()].NetForce).To(Equal(vec.Zero))
		Expect(s.Particles[a.ID()].Position.X).To(BeNumerically("~", 40, 1e-9))
	})

	It("adds the universal force to every particle", func() {
		env := newEnvironment(physics.WithUniversalForce(vec.New(0, 20)))
		p := addParticle(env, 10, vec.Zero, vec.Zero)
		calc, _ := NewCalculator(env, 100*time.Millisecond)

		s, err := calc.Calculate(100 * time.Millisecond)
		Expect(err).NotTo(HaveOccurred())
		ps := s.Particles[p.ID()]
		Expect(ps.NetForce).To(Equal(vec.New(0, 20)))
		Expect(ps.Acceleration).To(Equal(vec.New(0, 2)))
		Expect(ps.Velocity.Y).To(BeNumerically("~", 0.2, 1e-12))
		Expect(ps.Position.Y).To(BeNumerically("~", 0.02, 1e-12))
	})

	Describe("friction", func() {
		It("is applied to force-derived acceleration when enabled", func() {
			env := newEnvironment(physics.WithUniversalForce(vec.New(10, 0)))
			shared := addParticle(env, 10, vec.Zero, vec.Zero)
			own, err := env.CreateParticle(nil,
				physics.AtPosition(vec.New(500, 500)),
				physics.WithFrictionCoefficient(0.25))
			Expect(err).NotTo(HaveOccurred())

			calc, _ := NewCalculator(env, 100*time.Millisecond, WithFriction(true))
			s, err := calc.Calculate(100 * time.Millisecond)
			Expect(err).NotTo(HaveOccurred())

			Expect(s.Particles[shared.ID()].Acceleration.X).To(BeNumerically("~", 1-physics.DefaultFriction, 1e-9))
			Expect(s.Particles[own.ID()].Acceleration.X).To(BeNumerically("~", 0.75, 1e-9))
		})

		It("is off by default", func() {
			env := newEnvironment(physics.WithUniversalForce(vec.New(10, 0)))
			p := addParticle(env, 10, vec.Zero, vec.Zero)
			calc, _ := NewCalculator(env, 100*time.Millisecond)
			s, _ := calc.Calculate(100 * time.Millisecond)
			Expect(s.Particles[p.ID()].Acceleration.X).To(Equal(1.0))
		})
	})

	It("can integrate with explicit Euler", func() {
		env := newEnvironment(physics.WithUniversalForce(vec.New(10, 0)))
		p := addParticle(env, 10, vec.Zero, vec.Zero)
		calc, _ := NewCalculator(env, 100*time.Millisecond, WithIntegrator(integrators.NewEuler()))

		s, err := calc.Calculate(100 * time.Millisecond)
		Expect(err).NotTo(HaveOccurred())
		Expect(s.Particles[p.ID()].Position.X).To(Equal(0.0))
		Expect(s.Particles[p.ID()].Velocity.X).To(BeNumerically("~", 0.1, 1e-12))
	})

	Describe("collisions", func() {
		It("swaps velocities in a head-on equal-mass collision", func() {
			env, a, b := headOn()
			calc, _ := NewCalculator(env, 50*time.Millisecond)

			s := firstCollision(calc, 5*time.Second)
			Expect(s).NotTo(BeNil())
			Expect(s.Timestamp).To(BeNumerically(">=", 2900*time.Millisecond))
			Expect(s.Timestamp).To(BeNumerically("<=", 3100*time.Millisecond))

			Expect(s.Collisions).To(HaveKey(a.ID()))
			Expect(s.Collisions).To(HaveKey(b.ID()))
			Expect(s.Collisions[a.ID()][b.ID()]).To(BeIdenticalTo(s.Collisions[b.ID()][a.ID()]))

			va := s.Particles[a.ID()].Velocity
			vb := s.Particles[b.ID()].Velocity
			Expect(va.X).To(BeNumerically("~", -5, 1e-6))
			Expect(vb.X).To(BeNumerically("~", 5, 1e-6))
			Expect(va.Y).To(BeNumerically("~", 0, 1e-9))
			Expect(s.Particles[a.ID()].Acceleration).To(Equal(vec.Zero))

			col := s.CollisionList()
			Expect(col).To(HaveLen(1))
			v, ok := col[0].VelocityOf(a.ID())
			Expect(ok).To(BeTrue())
			Expect(v).To(Equal(va))
			Expect(col[0].Other(a.ID())).To(Equal(b.ID()))

			next, err := calc.Calculate(s.Timestamp + calc.StepSize())
			Expect(err).NotTo(HaveOccurred())
			Expect(next.Collisions).To(BeEmpty())
			Expect(next.Particles[a.ID()].Position.X).To(BeNumerically("<", s.Particles[a.ID()].Position.X))
		})

		It("records every collision on both sides", func() {
			env, _, _ := headOn()
			addParticle(env, 10, vec.New(25, 200), vec.New(0, -40))
			calc, _ := NewCalculator(env, 50*time.Millisecond)

			for t := time.Duration(0); t <= 6*time.Second; t += calc.StepSize() {
				s, err := calc.Calculate(t)
				Expect(err).NotTo(HaveOccurred())
				for a, others := range s.Collisions {
					for b, c := range others {
						Expect(s.Collisions).To(HaveKey(b))
						Expect(s.Collisions[b][a]).To(BeIdenticalTo(c))
					}
				}
			}
		})

		It("bounces a ball off a heavy bar", func() {
			stage := shape.NewStage(1000, 1000)
			env, err := physics.NewEnvironment(stage, physics.WithMetersPerPixel(20))
			Expect(err).NotTo(HaveOccurred())

			ball, err := env.CreateParticle(nil,
				physics.AtPosition(vec.New(50, 50)),
				physics.WithVelocity(vec.New(0, 5)))
			Expect(err).NotTo(HaveOccurred())
			barShape, err := stage.CreateShape(shape.KindRectangle, shape.Props{
				Position: vec.New(0, 100),
				Width:    1000,
				Height:   5,
			})
			Expect(err).NotTo(HaveOccurred())
			bar, err := env.CreateParticle(barShape, physics.WithMass(1000))
			Expect(err).NotTo(HaveOccurred())

			calc, _ := NewCalculator(env, 50*time.Millisecond)
			s := firstCollision(calc, 10*time.Second)
			Expect(s).NotTo(BeNil())
			Expect(s.Timestamp).To(BeNumerically("~", 8*time.Second, 250*time.Millisecond))
			Expect(s.Collided(ball.ID(), bar.ID())).To(BeTrue())

			Expect(s.Particles[ball.ID()].Velocity.Y).To(BeNumerically("~", (10.0-1000)*5/1010, 1e-3))
			Expect(s.Particles[bar.ID()].Velocity.Y).To(BeNumerically("~", 100.0/1010, 1e-3))
		})
	})

	Describe("determinism", func() {
		It("returns the cached step on repeated requests", func() {
			env, _, _ := headOn()
			calc, _ := NewCalculator(env, 50*time.Millisecond)
			first, _ := calc.Calculate(2 * time.Second)
			second, _ := calc.Calculate(2 * time.Second)
			Expect(second).To(BeIdenticalTo(first))
		})

		It("derives identical trajectories from identical setups", func() {
			envA, _, _ := headOn()
			envB, _, _ := headOn()
			calcA, _ := NewCalculator(envA, 50*time.Millisecond)
			calcB, _ := NewCalculator(envB, 50*time.Millisecond)

			sa, err := calcA.Calculate(4 * time.Second)
			Expect(err).NotTo(HaveOccurred())
			// B gets there through a different cache history
			_, _ = calcB.Calculate(time.Second)
			sb, err := calcB.Calculate(4 * time.Second)
			Expect(err).NotTo(HaveOccurred())

			Expect(sb.Particles).To(Equal(sa.Particles))
		})
	})

	Describe("the step cache", func() {
		It("refuses to walk further back than the max depth", func() {
			env, _, _ := headOn()
			calc, _ := NewCalculator(env, 50*time.Millisecond, WithMaxDepth(10))

			_, err := calc.Calculate(time.Second)
			Expect(err).To(MatchError(ErrColdCache))

			_, err = calc.Calculate(450 * time.Millisecond)
			Expect(err).NotTo(HaveOccurred())
			_, err = calc.Calculate(950 * time.Millisecond)
			Expect(err).NotTo(HaveOccurred())
			_, err = calc.Calculate(time.Second)
			Expect(err).NotTo(HaveOccurred())
		})

		It("stays within the injected capacity", func() {
			steps, err := cache.New[time.Duration, *Step](5)
			Expect(err).NotTo(HaveOccurred())

			env, _, _ := headOn()
			calc, _ := NewCalculator(env, 50*time.Millisecond, WithCache(steps))
			s, err := calc.Calculate(time.Second)
			Expect(err).NotTo(HaveOccurred())
			Expect(s.Timestamp).To(Equal(time.Second))

			Expect(steps.Len()).To(Equal(5))
			Expect(steps.Keys()).To(Equal([]time.Duration{
				800 * time.Millisecond,
				850 * time.Millisecond,
				900 * time.Millisecond,
				950 * time.Millisecond,
				time.Second,
			}))
			Expect(calc.Cached(0)).To(BeFalse())

			// evicted history is re-derived to the same values
			again, err := calc.Calculate(100 * time.Millisecond)
			Expect(err).NotTo(HaveOccurred())
			Expect(again.Timestamp).To(Equal(100 * time.Millisecond))
		})

		It("surfaces geometry failures and does not cache the step", func() {
			steps, _ := cache.New[time.Duration, *Step](cache.DefaultCapacity)
			stage := shape.NewStage(100, 100)
			env, _ := physics.NewEnvironment(stage)

			path, _ := stage.CreateShape(shape.KindPath, shape.Props{})
			_, err := env.CreateParticle(path, physics.WithVelocity(vec.New(1, 0)))
			Expect(err).NotTo(HaveOccurred())
			addParticle(env, 10, vec.New(50, 50), vec.Zero)

			calc, _ := NewCalculator(env, 50*time.Millisecond, WithCache(steps))
			_, err = calc.Calculate(50 * time.Millisecond)

			var stepErr *StepError
			Expect(errors.As(err, &stepErr)).To(BeTrue())
			Expect(stepErr.Timestamp).To(Equal(50 * time.Millisecond))

			var unsupported *physics.UnsupportedShapeError
			Expect(errors.As(err, &unsupported)).To(BeTrue())
			Expect(unsupported.Kind).To(Equal(shape.KindPath))

			Expect(steps.Has(0)).To(BeTrue())
			Expect(steps.Has(50 * time.Millisecond)).To(BeFalse())
		})
	})
})
