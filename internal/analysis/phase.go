package analysis

import (
	"strings"

	"github.com/san-kum/particlesim/internal/sim"
)

type Field int

const (
	PosX Field = iota
	PosY
	VelX
	VelY
)

func (f Field) of(ps sim.ParticleStep) float64 {
	switch f {
	case PosY:
		return ps.Position.Y
	case VelX:
		return ps.Velocity.X
	case VelY:
		return ps.Velocity.Y
	default:
		return ps.Position.X
	}
}

// Series extracts one field of particle id from each step. Steps without
// the particle are skipped.
func Series(steps []*sim.Step, id int, f Field) []float64 {
	out := make([]float64, 0, len(steps))
	for _, s := range steps {
		if ps, ok := s.Particles[id]; ok {
			out = append(out, f.of(ps))
		}
	}
	return out
}

type Point struct{ X, Y float64 }

// Portrait holds one particle's trajectory in a 2D projection
type Portrait struct {
	ID     int
	X, Y   Field
	Points []Point
}

func Trail(steps []*sim.Step, id int, x, y Field) *Portrait {
	p := &Portrait{ID: id, X: x, Y: y, Points: make([]Point, 0, len(steps))}
	for _, s := range steps {
		if ps, ok := s.Particles[id]; ok {
			p.Points = append(p.Points, Point{X: x.of(ps), Y: y.of(ps)})
		}
	}
	return p
}

// PortraitToASCII plots the portrait on a width x height character grid.
// Screen y grows downwards, so PosY is plotted with its sign flipped back.
func PortraitToASCII(portrait *Portrait, width, height int) string {
	if portrait == nil || len(portrait.Points) == 0 || width < 2 || height < 2 {
		return ""
	}

	minX, maxX := portrait.Points[0].X, portrait.Points[0].X
	minY, maxY := portrait.Points[0].Y, portrait.Points[0].Y
	for _, p := range portrait.Points {
		minX = min(minX, p.X)
		maxX = max(maxX, p.X)
		minY = min(minY, p.Y)
		maxY = max(maxY, p.Y)
	}

	rangeX := maxX - minX
	rangeY := maxY - minY
	if rangeX == 0 {
		rangeX = 1
	}
	if rangeY == 0 {
		rangeY = 1
	}
	minX -= rangeX * 0.1
	maxX += rangeX * 0.1
	minY -= rangeY * 0.1
	maxY += rangeY * 0.1
	rangeX = maxX - minX
	rangeY = maxY - minY

	canvas := make([][]rune, height)
	for i := range canvas {
		canvas[i] = []rune(strings.Repeat(" ", width))
	}

	flip := portrait.Y == PosY
	for _, p := range portrait.Points {
		col := int((p.X - minX) / rangeX * float64(width-1))
		row := int((p.Y - minY) / rangeY * float64(height-1))
		if !flip {
			row = height - 1 - row
		}
		if row >= 0 && row < height && col >= 0 && col < width {
			canvas[row][col] = '•'
		}
	}

	if minX <= 0 && maxX >= 0 {
		col := int((0 - minX) / rangeX * float64(width-1))
		for row := 0; row < height; row++ {
			if canvas[row][col] == ' ' {
				canvas[row][col] = '│'
			}
		}
	}
	if minY <= 0 && maxY >= 0 {
		row := int((0 - minY) / rangeY * float64(height-1))
		if !flip {
			row = height - 1 - row
		}
		for col := 0; col < width; col++ {
			if canvas[row][col] == ' ' {
				canvas[row][col] = '─'
			}
		}
	}

	var sb strings.Builder
	for _, row := range canvas {
		sb.WriteString(string(row))
		sb.WriteRune('\n')
	}
	return sb.String()
}

// Crossings returns the indices where data rises through threshold.
func Crossings(data []float64, threshold float64) []int {
	var idx []int
	for i := 1; i < len(data); i++ {
		if data[i-1] < threshold && data[i] >= threshold {
			idx = append(idx, i)
		}
	}
	return idx
}
