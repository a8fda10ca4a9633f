package export

import (
	"fmt"
	"strings"

	"github.com/san-kum/particlesim/internal/analysis"
	"github.com/san-kum/particlesim/internal/physics"
	"github.com/san-kum/particlesim/internal/shape"
	"github.com/san-kum/particlesim/internal/sim"
	"github.com/san-kum/particlesim/internal/vec"
)

var palette = []string{"#00ffff", "#ff00ff", "#ffff00", "#00ff88", "#ff8800", "#0088ff"}

// StepToSVG draws every particle of env where step places it, in stage
// coordinates multiplied by scale. Particles missing from step are drawn at
// their current position. Force lines join each particle pair.
func StepToSVG(env *physics.Environment, step *sim.Step, scale float64) string {
	if env == nil {
		return ""
	}
	if scale <= 0 {
		scale = 1
	}

	size := env.Stage().Size()
	w, h := size.X*scale, size.Y*scale

	pos := func(p *physics.Particle) vec.Vector {
		if step != nil {
			if ps, ok := step.Particles[p.ID()]; ok {
				return ps.Position
			}
		}
		return p.Position()
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, `<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%.0f" height="%.0f" viewBox="0 0 %.0f %.0f">
<rect width="100%%" height="100%%" fill="#0a0a0a"/>
`, w, h, w, h)

	if step != nil {
		fmt.Fprintf(&sb, "<!-- t=%s -->\n", step.Timestamp)
	}

	sb.WriteString(`<g stroke="#444466" stroke-width="1" stroke-dasharray="4 4">` + "\n")
	for _, pair := range env.ForcePairs() {
		a := centre(pair[0].Shape(), pos(pair[0])).Scale(scale)
		b := centre(pair[1].Shape(), pos(pair[1])).Scale(scale)
		fmt.Fprintf(&sb, `<line x1="%.1f" y1="%.1f" x2="%.1f" y2="%.1f"/>`+"\n", a.X, a.Y, b.X, b.Y)
	}
	sb.WriteString("</g>\n")

	for i, p := range env.Particles() {
		color := palette[i%len(palette)]
		at := pos(p).Scale(scale)
		switch sh := p.Shape().(type) {
		case *shape.Circle:
			fmt.Fprintf(&sb, `<circle id="p%d" cx="%.1f" cy="%.1f" r="%.1f" fill="none" stroke="%s"/>`+"\n",
				p.ID(), at.X, at.Y, sh.Radius*scale, color)
		case *shape.Rectangle:
			fmt.Fprintf(&sb, `<rect id="p%d" x="%.1f" y="%.1f" width="%.1f" height="%.1f" fill="none" stroke="%s"/>`+"\n",
				p.ID(), at.X, at.Y, sh.Width*scale, sh.Height*scale, color)
		case *shape.Path:
			fmt.Fprintf(&sb, `<path id="p%d" fill="none" stroke="%s" d="M%.1f,%.1f`, p.ID(), color, at.X, at.Y)
			for _, pt := range sh.Points {
				q := vec.Add(at, pt.Scale(scale))
				fmt.Fprintf(&sb, " L%.1f,%.1f", q.X, q.Y)
			}
			sb.WriteString(`"/>` + "\n")
		}
	}

	sb.WriteString("</svg>")
	return sb.String()
}

func centre(sh shape.Shape, pos vec.Vector) vec.Vector {
	if r, ok := sh.(*shape.Rectangle); ok {
		return vec.Add(pos, vec.New(r.Width/2, r.Height/2))
	}
	return pos
}

// TrajectoryToSVG draws a portrait as a polyline fitted to width x height.
func TrajectoryToSVG(portrait *analysis.Portrait, width, height int, strokeColor string) string {
	if portrait == nil || len(portrait.Points) < 2 {
		return ""
	}
	points := portrait.Points

	minX, maxX := points[0].X, points[0].X
	minY, maxY := points[0].Y, points[0].Y
	for _, p := range points {
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

	// stage y already grows downwards
	flip := portrait.Y != analysis.PosY

	var sb strings.Builder
	fmt.Fprintf(&sb, `<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">
<rect width="100%%" height="100%%" fill="#0a0a0a"/>
<path fill="none" stroke="%s" stroke-width="1.5" d="M`,
		width, height, width, height, strokeColor)

	for i, p := range points {
		x := (p.X - minX) / rangeX * float64(width)
		y := (p.Y - minY) / rangeY * float64(height)
		if flip {
			y = float64(height) - y
		}
		if i > 0 {
			sb.WriteString(" L")
		}
		fmt.Fprintf(&sb, "%.1f,%.1f", x, y)
	}

	sb.WriteString(`"/>
</svg>`)
	return sb.String()
}
