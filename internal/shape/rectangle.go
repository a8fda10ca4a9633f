package shape

import (
	"math"

	"github.com/san-kum/particlesim/internal/vec"
)

// Rectangle is positioned at its top-left corner and spans Width to the
// right and Height downwards.
type Rectangle struct {
	base
	Width  float64
	Height float64
}

func NewRectangle(id int, pos vec.Vector, width, height float64) *Rectangle {
	return &Rectangle{base: base{id: id, pos: pos}, Width: width, Height: height}
}

func (r *Rectangle) Kind() Kind { return KindRectangle }

func (r *Rectangle) WithinBounds(p vec.Vector) bool {
	return p.X >= r.pos.X && p.X <= r.pos.X+r.Width &&
		p.Y >= r.pos.Y && p.Y <= r.pos.Y+r.Height
}

// Boundary picks the face toward others: a side face when others lies outside
// the horizontal span, otherwise the top or bottom face. The returned point is
// where the line from others along the approach direction crosses that face,
// clamped to the face's extent.
func (r *Rectangle) Boundary(others, mine vec.Vector, theta float64) vec.Vector {
	left, right := mine.X, mine.X+r.Width
	top, bottom := mine.Y, mine.Y+r.Height
	cos, sin := math.Cos(theta), math.Sin(theta)

	if others.X < left || others.X > right {
		face := left
		if others.X > right {
			face = right
		}
		y := others.Y
		if cos != 0 {
			s := (others.X - face) / cos
			y = others.Y - s*sin
		}
		return vec.Vector{X: face, Y: clamp(y, top, bottom)}
	}

	face := top
	if others.Y > top+r.Height/2 {
		face = bottom
	}
	x := others.X
	if sin != 0 {
		s := (others.Y - face) / sin
		x = others.X - s*cos
	}
	return vec.Vector{X: clamp(x, left, right), Y: face}
}
