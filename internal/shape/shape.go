package shape

import (
	"math"

	"github.com/san-kum/particlesim/internal/vec"
)

type Kind string

const (
	KindCircle    Kind = "circle"
	KindRectangle Kind = "rectangle"
	KindPath      Kind = "path"
)

const (
	DefaultRadius = 10.0
	DefaultWidth  = 5.0
	DefaultHeight = 5.0
)

type Shape interface {
	ID() int
	Kind() Kind
	Position() vec.Vector
	SetPosition(p vec.Vector)
	WithinBounds(p vec.Vector) bool
}

// Outline is implemented by shapes that have collision geometry.
//
// Boundary returns the point on the outline facing an approach at angle
// theta, measured outward from the shape at position mine. others is the
// position of the approaching body and picks the face of non-circular shapes.
// Circles cast the ray at theta from mine. Rectangles instead follow the line
// through others along theta to where it meets the chosen face, so a body
// approaching off-centre hits the face where it would actually land.
type Outline interface {
	Boundary(others, mine vec.Vector, theta float64) vec.Vector
}

// Props carries the initial geometry for Stage.CreateShape. Zero sizes fall
// back to the package defaults.
type Props struct {
	Position vec.Vector
	Radius   float64
	Width    float64
	Height   float64
}

// Distance is the offset from a shape to a query point plus its length.
type Distance struct {
	X, Y  float64
	Total float64
}

type Nearby struct {
	Shape    Shape
	Distance Distance
}

type base struct {
	id  int
	pos vec.Vector
}

func (b *base) ID() int                  { return b.id }
func (b *base) Position() vec.Vector     { return b.pos }
func (b *base) SetPosition(p vec.Vector) { b.pos = p }

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
