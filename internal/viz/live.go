package viz

import (
	"errors"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/harmonica"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"

	"github.com/san-kum/particlesim/internal/metrics"
	"github.com/san-kum/particlesim/internal/physics"
	"github.com/san-kum/particlesim/internal/shape"
	"github.com/san-kum/particlesim/internal/sim"
	"github.com/san-kum/particlesim/internal/vec"
)

const (
	width           = 80
	height          = 24
	fps             = 60
	historyCapacity = 300
	minZoom         = 0.25
	maxZoom         = 8
)

type tickMsg time.Time

// Model is the live view. Every frame samples the simulation at the current
// scaled time and extends the look-ahead buffer by one step.
type Model struct {
	name       string
	env        *physics.Environment
	simulation *sim.Simulation
	buffer     *sim.Buffer

	canvas *Canvas
	view   Viewport

	spring     harmonica.Spring
	zoom       float64
	zoomVel    float64
	zoomTarget float64

	step       *sim.Step
	lastStamp  time.Duration
	collisions int
	energy     []float64
	momentum   []float64

	forces   bool
	showHelp bool
	err      error
}

func NewModel(name string, simulation *sim.Simulation, buffer *sim.Buffer) Model {
	env := buffer.Calculator().Environment()
	return Model{
		name:       name,
		env:        env,
		simulation: simulation,
		buffer:     buffer,
		canvas:     NewCanvas(width, height),
		view:       Viewport{Stage: env.Stage().Size(), Cols: width, Rows: height, Zoom: 1},
		spring:     harmonica.NewSpring(harmonica.FPS(fps), 6.0, 1.0),
		zoom:       1,
		zoomTarget: 1,
		lastStamp:  -1,
		forces:     true,
		energy:     make([]float64, 0, historyCapacity),
		momentum:   make([]float64, 0, historyCapacity),
	}
}

func (m Model) Init() tea.Cmd {
	if err := m.simulation.Start(); err != nil {
		return func() tea.Msg { return err }
	}
	return tick()
}

func tick() tea.Cmd {
	return tea.Tick(time.Second/fps, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			m.simulation.Stop()
			return m, tea.Quit
		case " ":
			if m.simulation.Running() {
				m.simulation.Stop()
			} else {
				m.err = m.simulation.Start()
			}
		case ">", ".":
			m.err = m.simulation.SetSpeed(m.simulation.Speed() * 2)
		case "<", ",":
			m.err = m.simulation.SetSpeed(m.simulation.Speed() / 2)
		case "+", "=":
			m.zoomTarget = min(m.zoomTarget*1.25, maxZoom)
		case "-", "_":
			m.zoomTarget = max(m.zoomTarget/1.25, minZoom)
		case "0":
			m.zoomTarget = 1
		case "f":
			m.forces = !m.forces
		case "?":
			m.showHelp = !m.showHelp
		}
	case tickMsg:
		m.zoom, m.zoomVel = m.spring.Update(m.zoom, m.zoomVel, m.zoomTarget)
		m.view.Zoom = m.zoom
		if m.simulation.Running() {
			m.advance()
		}
		m.draw()
		return m, tick()
	case error:
		m.err = msg
	}
	return m, nil
}

// advance ticks the simulation and the buffer. A jump past the cached
// history is warmed synchronously and retried once.
func (m *Model) advance() {
	step, err := m.simulation.Tick()
	if errors.Is(err, sim.ErrColdCache) {
		if err = m.buffer.Warm(m.simulation.Now()); err == nil {
			step, err = m.simulation.Tick()
		}
	}
	if err != nil {
		m.err = err
		m.simulation.Stop()
		return
	}
	if _, err := m.buffer.Tick(); err != nil {
		m.err = err
		m.simulation.Stop()
		return
	}
	m.observe(step)
}

func (m *Model) observe(step *sim.Step) {
	m.step = step
	if step.Timestamp == m.lastStamp {
		return
	}
	m.lastStamp = step.Timestamp
	m.collisions += len(step.CollisionList())
	m.energy = appendCapped(m.energy, metrics.Kinetic(m.env, step)+metrics.Potential(m.env, step))
	m.momentum = appendCapped(m.momentum, metrics.Linear(m.env, step).Length())
}

func appendCapped(xs []float64, v float64) []float64 {
	if len(xs) == historyCapacity {
		copy(xs, xs[1:])
		xs = xs[:len(xs)-1]
	}
	return append(xs, v)
}

func (m *Model) position(p *physics.Particle) vec.Vector {
	if m.step != nil {
		if ps, ok := m.step.Particles[p.ID()]; ok {
			return ps.Position
		}
	}
	return p.Position()
}

func centre(sh shape.Shape, pos vec.Vector) vec.Vector {
	if r, ok := sh.(*shape.Rectangle); ok {
		return vec.Add(pos, vec.New(r.Width/2, r.Height/2))
	}
	return pos
}

func (m *Model) draw() {
	m.canvas.Clear()
	scale := m.view.Scale()

	if m.forces {
		for _, pair := range m.env.ForcePairs() {
			ax, ay := m.view.Project(centre(pair[0].Shape(), m.position(pair[0])))
			bx, by := m.view.Project(centre(pair[1].Shape(), m.position(pair[1])))
			m.canvas.DrawLine(ax, ay, bx, by, 4)
		}
	}

	for _, p := range m.env.Particles() {
		pos := m.position(p)
		switch sh := p.Shape().(type) {
		case *shape.Circle:
			x, y := m.view.Project(pos)
			m.canvas.DrawCircle(x, y, sh.Radius*scale)
		case *shape.Rectangle:
			x0, y0 := m.view.Project(pos)
			x1, y1 := m.view.Project(vec.Add(pos, vec.New(sh.Width, sh.Height)))
			m.canvas.DrawRect(x0, y0, x1, y1)
		case *shape.Path:
			px, py := m.view.Project(pos)
			for _, pt := range sh.Points {
				x, y := m.view.Project(vec.Add(pos, pt))
				m.canvas.DrawLine(px, py, x, y, 1)
				px, py = x, y
			}
		}
	}
}

func (m Model) status() string {
	switch {
	case m.err != nil:
		return statusFailed.Render("ERROR")
	case m.simulation.Running():
		return statusRunning.Render("RUNNING")
	default:
		return statusStopped.Render("STOPPED")
	}
}

func (m Model) View() string {
	var s strings.Builder
	s.WriteString(headerStyle.Render(strings.ToUpper(m.name)) + "\n")
	s.WriteString(m.status() + "\n\n")

	if len(m.energy) > 1 {
		chart := asciigraph.Plot(m.energy, asciigraph.Height(4), asciigraph.Width(30), asciigraph.Caption("Energy"))
		s.WriteString(graphStyle.Render(chart) + "\n")
	}

	t := time.Duration(0)
	if m.step != nil {
		t = m.step.Timestamp
	}
	s.WriteString(labelStyle.Render("Time") + valueStyle.Render(fmt.Sprintf("%.2fs", t.Seconds())) + "\n")
	s.WriteString(labelStyle.Render("Speed") + valueStyle.Render(fmt.Sprintf("%gx", m.simulation.Speed())) + "\n")
	s.WriteString(labelStyle.Render("Buffered") + valueStyle.Render(fmt.Sprintf("%.2fs", m.buffer.LastComputed().Seconds())) + "\n")
	s.WriteString(labelStyle.Render("Particles") + valueStyle.Render(fmt.Sprintf("%d", len(m.env.Particles()))) + "\n")
	s.WriteString(labelStyle.Render("Collisions") + valueStyle.Render(fmt.Sprintf("%d", m.collisions)) + "\n")
	s.WriteString(labelStyle.Render("Zoom") + valueStyle.Render(fmt.Sprintf("%.2f", m.zoom)) + "\n")
	s.WriteString(labelStyle.Render("Momentum") + Sparkline(m.momentum, 24) + "\n")
	if m.err != nil {
		s.WriteString("\n" + statusFailed.Render(m.err.Error()) + "\n")
	}
	s.WriteString(helpStyle.Render("SP:Start/Stop  Q:Quit  ?:Help"))

	body := lipgloss.JoinHorizontal(lipgloss.Top, canvasStyle.Render(m.canvas.String()), statsStyle.Render(s.String()))
	if m.showHelp {
		return helpText + "\n" + body
	}
	return body
}

const helpText = `
  Space    start / stop (stopping resets the clock)
  > <      double / halve speed
  + -      zoom in / out, 0 resets
  F        toggle force lines
  ?        toggle this help
  Q        quit
`
