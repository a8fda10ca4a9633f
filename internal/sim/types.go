package sim

import (
	"sort"
	"time"

	"github.com/san-kum/particlesim/internal/physics"
	"github.com/san-kum/particlesim/internal/vec"
)

// Supported step sizes. Steps are only ever derived on this grid.
var StepSizes = []time.Duration{
	1 * time.Millisecond,
	10 * time.Millisecond,
	20 * time.Millisecond,
	50 * time.Millisecond,
	100 * time.Millisecond,
	1000 * time.Millisecond,
}

func ValidStepSize(d time.Duration) bool {
	for _, s := range StepSizes {
		if s == d {
			return true
		}
	}
	return false
}

// ParticleStep is one particle's derived state at one timestamp.
type ParticleStep struct {
	NetForce     vec.Vector `json:"net_force"`
	Acceleration vec.Vector `json:"acceleration"`
	Velocity     vec.Vector `json:"velocity"`
	Position     vec.Vector `json:"position"`
}

// Collision records the post-collision velocities of exactly two particles.
// The same value is stored under both particles in Step.Collisions.
type Collision struct {
	IDs        [2]int        `json:"ids"`
	Velocities [2]vec.Vector `json:"velocities"`
}

func (c *Collision) VelocityOf(id int) (vec.Vector, bool) {
	for i, cid := range c.IDs {
		if cid == id {
			return c.Velocities[i], true
		}
	}
	return vec.Zero, false
}

func (c *Collision) Other(id int) int {
	if c.IDs[0] == id {
		return c.IDs[1]
	}
	return c.IDs[0]
}

// Step is the state of every particle at one timestamp. Steps are immutable
// once cached.
type Step struct {
	Timestamp  time.Duration              `json:"timestamp"`
	Particles  map[int]ParticleStep       `json:"particles"`
	Collisions map[int]map[int]*Collision `json:"-"`
}

func newStep(ts time.Duration, n int) *Step {
	return &Step{
		Timestamp:  ts,
		Particles:  make(map[int]ParticleStep, n),
		Collisions: make(map[int]map[int]*Collision),
	}
}

func (s *Step) Particle(id int) (ParticleStep, bool) {
	p, ok := s.Particles[id]
	return p, ok
}

// IDs returns the particle ids in ascending order.
func (s *Step) IDs() []int {
	ids := make([]int, 0, len(s.Particles))
	for id := range s.Particles {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

func (s *Step) Collided(a, b int) bool {
	_, ok := s.Collisions[a][b]
	return ok
}

// CollisionList returns each collision once, ordered by id pair.
func (s *Step) CollisionList() []*Collision {
	var out []*Collision
	for a, others := range s.Collisions {
		for b, c := range others {
			if a < b {
				out = append(out, c)
			}
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].IDs[0] != out[j].IDs[0] {
			return out[i].IDs[0] < out[j].IDs[0]
		}
		return out[i].IDs[1] < out[j].IDs[1]
	})
	return out
}

func (s *Step) record(c *Collision) {
	a, b := c.IDs[0], c.IDs[1]
	if s.Collisions[a] == nil {
		s.Collisions[a] = make(map[int]*Collision)
	}
	if s.Collisions[b] == nil {
		s.Collisions[b] = make(map[int]*Collision)
	}
	s.Collisions[a][b] = c
	s.Collisions[b][a] = c
}

// Source yields the step at a timestamp. Calculator and Buffer implement it.
type Source interface {
	Calculate(t time.Duration) (*Step, error)
}

// Metric accumulates a scalar over observed steps.
type Metric interface {
	Name() string
	Observe(env *physics.Environment, step *Step)
	Value() float64
	Reset()
}
