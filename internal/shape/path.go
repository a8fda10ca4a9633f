package shape

import "github.com/san-kum/particlesim/internal/vec"

// Path is an open polyline whose points are offsets from its position. It is
// drawable but has no collision outline.
type Path struct {
	base
	Points []vec.Vector
}

func NewPath(id int, pos vec.Vector, points ...vec.Vector) *Path {
	return &Path{base: base{id: id, pos: pos}, Points: points}
}

func (p *Path) Kind() Kind { return KindPath }

func (p *Path) WithinBounds(vec.Vector) bool { return false }

func (p *Path) LineTo(point vec.Vector) *Path {
	p.Points = append(p.Points, point)
	return p
}
