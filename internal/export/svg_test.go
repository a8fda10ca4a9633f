package export

import (
	"strings"
	"testing"
	"time"

	"github.com/san-kum/particlesim/internal/analysis"
	"github.com/san-kum/particlesim/internal/physics"
	"github.com/san-kum/particlesim/internal/shape"
	"github.com/san-kum/particlesim/internal/sim"
	"github.com/san-kum/particlesim/internal/vec"
)

func newEnv(t *testing.T) *physics.Environment {
	t.Helper()
	stage := shape.NewStage(200, 100)
	env, err := physics.NewEnvironment(stage)
	if err != nil {
		t.Fatal(err)
	}
	c, _ := stage.CreateShape(shape.KindCircle, shape.Props{Position: vec.New(50, 50), Radius: 10})
	r, _ := stage.CreateShape(shape.KindRectangle, shape.Props{Position: vec.New(100, 80), Width: 40, Height: 10})
	if _, err := env.CreateParticle(c); err != nil {
		t.Fatal(err)
	}
	if _, err := env.CreateParticle(r); err != nil {
		t.Fatal(err)
	}
	return env
}

func TestStepToSVG(t *testing.T) {
	env := newEnv(t)
	step := &sim.Step{
		Timestamp: 500 * time.Millisecond,
		Particles: map[int]sim.ParticleStep{0: {Position: vec.New(60, 40)}},
	}

	svg := StepToSVG(env, step, 2)

	want := []string{
		`width="400" height="200"`,
		`<circle id="p0" cx="120.0" cy="80.0" r="20.0"`,
		`<rect id="p1" x="200.0" y="160.0" width="80.0" height="20.0"`,
		`<line x1="120.0" y1="80.0" x2="240.0" y2="170.0"/>`,
		"t=500ms",
	}
	for _, w := range want {
		if !strings.Contains(svg, w) {
			t.Errorf("expected %q in:\n%s", w, svg)
		}
	}
	if !strings.HasSuffix(svg, "</svg>") {
		t.Error("expected closing svg tag")
	}
}

func TestStepToSVGNil(t *testing.T) {
	if StepToSVG(nil, nil, 1) != "" {
		t.Error("expected empty output without environment")
	}
	if svg := StepToSVG(newEnv(t), nil, 0); !strings.Contains(svg, `cx="50.0" cy="50.0"`) {
		t.Errorf("expected current positions at scale 1:\n%s", svg)
	}
}

func TestTrajectoryToSVG(t *testing.T) {
	if TrajectoryToSVG(nil, 100, 100, "#fff") != "" {
		t.Error("expected empty output for nil portrait")
	}

	p := &analysis.Portrait{X: analysis.PosX, Y: analysis.PosY, Points: []analysis.Point{{X: 0, Y: 0}, {X: 10, Y: 10}}}
	svg := TrajectoryToSVG(p, 120, 120, "#00ff00")
	if !strings.Contains(svg, `d="M10.0,10.0 L110.0,110.0"`) {
		t.Errorf("unexpected path:\n%s", svg)
	}

	p.Y = analysis.VelX
	svg = TrajectoryToSVG(p, 120, 120, "#00ff00")
	if !strings.Contains(svg, `d="M10.0,110.0 L110.0,10.0"`) {
		t.Errorf("unexpected flipped path:\n%s", svg)
	}
}
