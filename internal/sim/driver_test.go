package sim

import (
	"context"
	"math"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	testingclock "k8s.io/utils/clock/testing"

	"github.com/san-kum/particlesim/internal/physics"
	"github.com/san-kum/particlesim/internal/vec"
)

var _ = Describe("Timer", func() {
	It("measures from its start and resets on stop", func() {
		clk := testingclock.NewFakeClock(time.Unix(0, 0))
		timer := NewTimer(clk)
		Expect(timer.Elapsed()).To(BeZero())

		Expect(timer.Start()).To(Succeed())
		Expect(timer.Start()).To(MatchError(ErrTimerRunning))
		clk.Step(750 * time.Millisecond)
		Expect(timer.Elapsed()).To(Equal(750 * time.Millisecond))

		timer.Stop()
		timer.Stop()
		Expect(timer.Running()).To(BeFalse())
		Expect(timer.Elapsed()).To(BeZero())
	})
})

var _ = Describe("Simulation", func() {
	var (
		clk  *testingclock.FakeClock
		env  *physics.Environment
		p    *physics.Particle
		calc *Calculator
		s    *Simulation
	)

	BeforeEach(func() {
		clk = testingclock.NewFakeClock(time.Unix(0, 0))
		env = newEnvironment()
		p = addParticle(env, 200, vec.Zero, vec.New(5, 0))

		var err error
		calc, err = NewCalculator(env, 50*time.Millisecond)
		Expect(err).NotTo(HaveOccurred())
		s = NewSimulation(env, calc, WithClock(clk))
	})

	It("validates speed bounds", func() {
		for _, bad := range []float64{0, -1, math.NaN()} {
			Expect(s.SetSpeed(bad)).To(MatchError(ErrSpeedTooLow))
		}
		Expect(s.SetSpeed(MaxSpeed)).To(MatchError(ErrSpeedTooHigh))
		Expect(s.SetSpeed(math.Inf(1))).To(MatchError(ErrSpeedTooHigh))
		Expect(s.Speed()).To(Equal(1.0))

		Expect(s.SetSpeed(MaxSpeed - 1)).To(Succeed())
		Expect(s.Speed()).To(Equal(float64(MaxSpeed - 1)))
	})

	It("refuses to tick while stopped", func() {
		_, err := s.Tick()
		Expect(err).To(MatchError(ErrNotRunning))
	})

	It("samples the step at scaled elapsed time", func() {
		Expect(s.SetSpeed(2)).To(Succeed())
		var seen []time.Duration
		s.OnTick(func(step *Step) { seen = append(seen, step.Timestamp) })

		Expect(s.Start()).To(Succeed())
		clk.Step(500 * time.Millisecond)

		step, err := s.Tick()
		Expect(err).NotTo(HaveOccurred())
		Expect(step.Timestamp).To(Equal(time.Second))
		Expect(seen).To(Equal([]time.Duration{time.Second}))

		Expect(p.Position()).To(Equal(vec.New(5, 0)))
		Expect(p.Velocity()).To(Equal(vec.New(5, 0)))
	})

	It("restarts from a fresh baseline and keeps the cache", func() {
		Expect(s.Start()).To(Succeed())
		clk.Step(time.Second)
		_, err := s.Tick()
		Expect(err).NotTo(HaveOccurred())

		s.Stop()
		s.Stop()
		Expect(s.Running()).To(BeFalse())
		Expect(calc.Cached(time.Second)).To(BeTrue())

		Expect(s.Start()).To(Succeed())
		step, err := s.Tick()
		Expect(err).NotTo(HaveOccurred())
		Expect(step.Timestamp).To(BeZero())
		Expect(p.Position()).To(Equal(vec.Zero))
	})

	It("starts and stops a buffer source with itself", func() {
		buf := NewBuffer(calc, time.Second)
		driven := NewSimulation(env, buf, WithClock(clk))

		Expect(driven.Start()).To(Succeed())
		Expect(buf.Running()).To(BeTrue())
		driven.Stop()
		Expect(buf.Running()).To(BeFalse())
	})

	It("ticks once per refresh until cancelled", func() {
		buf := NewBuffer(calc, time.Second)
		driven := NewSimulation(env, buf, WithClock(clk))
		ticks := 0
		driven.OnTick(func(*Step) { ticks++ })

		ctx, cancel := context.WithCancel(context.Background())
		refresh := make(chan time.Time)
		go func() {
			defer GinkgoRecover()
			refresh <- clk.Now()
			clk.Step(100 * time.Millisecond)
			refresh <- clk.Now()
			cancel()
		}()

		err := driven.Run(ctx, refresh)
		Expect(err).To(MatchError(context.Canceled))
		Expect(ticks).To(Equal(2))
		Expect(driven.Running()).To(BeFalse())
		Expect(buf.LastComputed()).To(BeNumerically(">=", 100*time.Millisecond))
	})

	It("returns when the refresh signal closes", func() {
		refresh := make(chan time.Time)
		close(refresh)
		Expect(s.Run(context.Background(), refresh)).To(Succeed())
		Expect(s.Running()).To(BeFalse())
	})
})
