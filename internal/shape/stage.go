package shape

import (
	"errors"
	"fmt"
	"math"

	"github.com/san-kum/particlesim/internal/vec"
)

var ErrUnknownKind = errors.New("shape: unknown shape kind")

// Stage owns the shapes. Identifiers are assigned sequentially from zero and
// iteration follows creation order.
type Stage struct {
	nextID int
	shapes []Shape
	byID   map[int]Shape
	width  float64
	height float64
}

func NewStage(width, height float64) *Stage {
	return &Stage{
		byID:   make(map[int]Shape),
		width:  width,
		height: height,
	}
}

func (s *Stage) Size() vec.Vector {
	return vec.New(s.width, s.height)
}

func (s *Stage) CreateShape(kind Kind, props Props) (Shape, error) {
	var sh Shape
	switch kind {
	case KindCircle:
		radius := props.Radius
		if radius == 0 {
			radius = DefaultRadius
		}
		sh = NewCircle(s.nextID, props.Position, radius)
	case KindRectangle:
		width, height := props.Width, props.Height
		if width == 0 {
			width = DefaultWidth
		}
		if height == 0 {
			height = DefaultHeight
		}
		sh = NewRectangle(s.nextID, props.Position, width, height)
	case KindPath:
		sh = NewPath(s.nextID, props.Position)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}

	s.nextID++
	s.shapes = append(s.shapes, sh)
	s.byID[sh.ID()] = sh
	return sh, nil
}

func (s *Stage) Shape(id int) (Shape, bool) {
	sh, ok := s.byID[id]
	return sh, ok
}

func (s *Stage) Shapes() []Shape {
	out := make([]Shape, len(s.shapes))
	copy(out, s.shapes)
	return out
}

func (s *Stage) Count() int { return len(s.shapes) }

func (s *Stage) RemoveShape(id int) bool {
	if _, ok := s.byID[id]; !ok {
		return false
	}
	delete(s.byID, id)
	for i, sh := range s.shapes {
		if sh.ID() == id {
			s.shapes = append(s.shapes[:i], s.shapes[i+1:]...)
			break
		}
	}
	return true
}

// GetShapesNear scans every shape and reports its offset from position
// (position minus shape). A radius <= 0 disables the distance filter.
func (s *Stage) GetShapesNear(position vec.Vector, radius float64) []Nearby {
	result := make([]Nearby, 0, len(s.shapes))
	for _, sh := range s.shapes {
		p := sh.Position()
		dx := position.X - p.X
		dy := position.Y - p.Y
		total := math.Sqrt(dx*dx + dy*dy)

		if radius <= 0 || total < radius {
			result = append(result, Nearby{
				Shape:    sh,
				Distance: Distance{X: dx, Y: dy, Total: total},
			})
		}
	}
	return result
}
