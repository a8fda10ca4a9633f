package sim

import (
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/particlesim/internal/cache"
)

var _ = Describe("Buffer", func() {
	var (
		calc *Calculator
		buf  *Buffer
	)

	BeforeEach(func() {
		env, _, _ := headOn()
		var err error
		calc, err = NewCalculator(env, 100*time.Millisecond)
		Expect(err).NotTo(HaveOccurred())
		buf = NewBuffer(calc, 500*time.Millisecond)
	})

	drain := func() int {
		derived := 0
		for i := 0; i < 50; i++ {
			ok, err := buf.Tick()
			Expect(err).NotTo(HaveOccurred())
			if ok {
				derived++
			}
		}
		return derived
	}

	It("does nothing until started", func() {
		Expect(drain()).To(BeZero())
		Expect(calc.Cached(0)).To(BeFalse())
	})

	It("computes ahead up to the horizon", func() {
		buf.Start()
		_, err := buf.Calculate(0)
		Expect(err).NotTo(HaveOccurred())

		Expect(drain()).To(Equal(5))
		Expect(buf.LastComputed()).To(Equal(500 * time.Millisecond))
		for t := time.Duration(0); t <= 500*time.Millisecond; t += calc.StepSize() {
			Expect(calc.Cached(t)).To(BeTrue())
		}
		Expect(calc.Cached(600 * time.Millisecond)).To(BeFalse())
	})

	It("follows the playback position", func() {
		buf.Start()
		_, _ = buf.Calculate(0)
		drain()

		_, err := buf.Calculate(350 * time.Millisecond)
		Expect(err).NotTo(HaveOccurred())
		Expect(buf.LastRequested()).To(Equal(300 * time.Millisecond))

		Expect(drain()).To(Equal(3))
		Expect(buf.LastComputed()).To(Equal(800 * time.Millisecond))
	})

	It("starts from the initial step on a cold cache", func() {
		buf.Start()
		ok, err := buf.Tick()
		Expect(err).NotTo(HaveOccurred())
		Expect(ok).To(BeTrue())
		Expect(calc.Cached(0)).To(BeTrue())
		Expect(buf.LastComputed()).To(BeZero())
	})

	It("stops extending once stopped", func() {
		buf.Start()
		ok, _ := buf.Tick()
		Expect(ok).To(BeTrue())
		buf.Stop()
		Expect(buf.Running()).To(BeFalse())
		Expect(drain()).To(BeZero())
	})

	It("never warms past what the cache can hold", func() {
		env, _, _ := headOn()
		steps, err := cache.New[time.Duration, *Step](10)
		Expect(err).NotTo(HaveOccurred())
		small, err := NewCalculator(env, 100*time.Millisecond, WithCache(steps), WithMaxDepth(3))
		Expect(err).NotTo(HaveOccurred())
		buf := NewBuffer(small, 2*time.Second)
		Expect(buf.Reach()).To(Equal(900 * time.Millisecond))

		buf.Start()
		_, err = buf.Calculate(0)
		Expect(err).NotTo(HaveOccurred())
		for i := 0; i < 100; i++ {
			_, err := buf.Tick()
			Expect(err).NotTo(HaveOccurred())
		}

		Expect(buf.LastComputed()).To(Equal(900 * time.Millisecond))
		for t := time.Duration(0); t <= 900*time.Millisecond; t += small.StepSize() {
			Expect(small.Cached(t)).To(BeTrue())
		}
		_, err = buf.Calculate(500 * time.Millisecond)
		Expect(err).NotTo(HaveOccurred())
	})

	It("warms synchronously", func() {
		Expect(buf.Warm(2 * time.Second)).To(Succeed())
		Expect(buf.LastComputed()).To(Equal(2 * time.Second))
		Expect(calc.Cached(2 * time.Second)).To(BeTrue())
	})
})
