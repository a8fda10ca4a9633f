package analysis

import (
	"math"
	"time"

	"github.com/san-kum/particlesim/internal/sim"
	"github.com/san-kum/particlesim/internal/vec"
)

// Separation is the distance between particle id in two runs, per sample.
// The runs must be sampled on the same times.
func Separation(a, b []*sim.Step, id int) []float64 {
	n := min(len(a), len(b))
	out := make([]float64, 0, n)
	for i := 0; i < n; i++ {
		pa, okA := a[i].Particles[id]
		pb, okB := b[i].Particles[id]
		if !okA || !okB {
			continue
		}
		out = append(out, vec.Subtract(pa.Position, pb.Position).Length())
	}
	return out
}

// DivergenceRate estimates the exponential growth rate of a separation
// series sampled every interval, λ ≈ ln(d(t)/d(0)) / t averaged over the
// samples. It is zero when the runs start together.
func DivergenceRate(sep []float64, interval time.Duration) float64 {
	if len(sep) < 2 || sep[0] <= 0 {
		return 0
	}

	d0 := sep[0]
	sumLog := 0.0
	count := 0
	for i := 1; i < len(sep); i++ {
		if sep[i] <= 0 {
			continue
		}
		t := float64(i) * interval.Seconds()
		sumLog += math.Log(sep[i]/d0) / t
		count++
	}
	if count == 0 {
		return 0
	}
	return sumLog / float64(count)
}
