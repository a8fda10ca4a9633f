package shape

import (
	"math"

	"github.com/san-kum/particlesim/internal/vec"
)

// Circle is positioned at its centre.
type Circle struct {
	base
	Radius float64
}

func NewCircle(id int, pos vec.Vector, radius float64) *Circle {
	return &Circle{base: base{id: id, pos: pos}, Radius: radius}
}

func (c *Circle) Kind() Kind { return KindCircle }

func (c *Circle) WithinBounds(p vec.Vector) bool {
	return vec.Subtract(p, c.pos).Length() < c.Radius
}

func (c *Circle) Boundary(_, mine vec.Vector, theta float64) vec.Vector {
	return vec.Vector{
		X: mine.X + c.Radius*math.Cos(theta),
		Y: mine.Y + c.Radius*math.Sin(theta),
	}
}
