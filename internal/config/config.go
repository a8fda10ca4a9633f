package config

import (
	"errors"
	"fmt"
	"math"
	"os"
	"time"

	"go.uber.org/multierr"
	"gopkg.in/yaml.v3"

	"github.com/san-kum/particlesim/internal/cache"
	"github.com/san-kum/particlesim/internal/integrators"
	"github.com/san-kum/particlesim/internal/physics"
	"github.com/san-kum/particlesim/internal/shape"
	"github.com/san-kum/particlesim/internal/sim"
	"github.com/san-kum/particlesim/internal/vec"
)

const (
	DefaultStepMs     = 50
	DefaultBufferMs   = 5000
	DefaultDurationMs = 10000
	DefaultSampleMs   = 100
	DefaultWidth      = 800.0
	DefaultHeight     = 600.0
	DefaultIntegrator = "semi-implicit"
)

var (
	ErrUnknownShape = errors.New("config: unknown particle shape")
	ErrNoParticles  = errors.New("config: scenario has no particles")
	ErrInvalid      = errors.New("config: invalid value")
)

type Config struct {
	Name               string            `yaml:"name"`
	StepMs             int               `yaml:"step_ms"`
	BufferMs           int               `yaml:"buffer_ms"`
	DurationMs         int               `yaml:"duration_ms"`
	SampleMs           int               `yaml:"sample_ms"`
	CacheSize          int               `yaml:"cache_size"`
	MaxDepth           int               `yaml:"max_depth"`
	Speed              float64           `yaml:"speed"`
	Friction           bool              `yaml:"friction"`
	CollisionTolerance float64           `yaml:"collision_tolerance"`
	Integrator         string            `yaml:"integrator"`
	Environment        EnvironmentConfig `yaml:"environment"`
	Particles          []ParticleConfig  `yaml:"particles"`
}

type EnvironmentConfig struct {
	CoefficientOfFriction float64    `yaml:"coefficient_of_friction"`
	MetersPerPixel        float64    `yaml:"meters_per_pixel"`
	Width                 float64    `yaml:"width"`
	Height                float64    `yaml:"height"`
	UniversalForce        vec.Vector `yaml:"universal_force"`
}

type ParticleConfig struct {
	Mass                  float64    `yaml:"mass"`
	Position              vec.Vector `yaml:"position"`
	Velocity              vec.Vector `yaml:"velocity"`
	Acceleration          vec.Vector `yaml:"acceleration"`
	CoefficientOfFriction *float64   `yaml:"coefficient_of_friction,omitempty"`
	Shape                 string     `yaml:"shape"`
	Radius                float64    `yaml:"radius,omitempty"`
	Width                 float64    `yaml:"width,omitempty"`
	Height                float64    `yaml:"height,omitempty"`
}

func DefaultConfig() *Config {
	return &Config{
		Name:               "custom",
		StepMs:             DefaultStepMs,
		BufferMs:           DefaultBufferMs,
		DurationMs:         DefaultDurationMs,
		SampleMs:           DefaultSampleMs,
		CacheSize:          cache.DefaultCapacity,
		MaxDepth:           sim.DefaultMaxDepth,
		Speed:              1,
		CollisionTolerance: sim.DefaultCollisionTolerance,
		Integrator:         DefaultIntegrator,
		Environment: EnvironmentConfig{
			CoefficientOfFriction: physics.DefaultFriction,
			MetersPerPixel:        physics.DefaultMetersPerPixel,
			Width:                 DefaultWidth,
			Height:                DefaultHeight,
		},
		Particles: []ParticleConfig{
			{Mass: physics.DefaultMass, Position: vec.New(400, 300), Shape: string(shape.KindCircle)},
		},
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Clone returns a deep copy.
func (c *Config) Clone() *Config {
	out := *c
	out.Particles = make([]ParticleConfig, len(c.Particles))
	for i, p := range c.Particles {
		if p.CoefficientOfFriction != nil {
			mu := *p.CoefficientOfFriction
			p.CoefficientOfFriction = &mu
		}
		out.Particles[i] = p
	}
	return &out
}

func (c *Config) Step() time.Duration     { return time.Duration(c.StepMs) * time.Millisecond }
func (c *Config) Buffer() time.Duration   { return time.Duration(c.BufferMs) * time.Millisecond }
func (c *Config) Duration() time.Duration { return time.Duration(c.DurationMs) * time.Millisecond }
func (c *Config) Sample() time.Duration   { return time.Duration(c.SampleMs) * time.Millisecond }

// BufferSteps is the number of steps the look-ahead buffer keeps past the
// playback position. A zero buffer_ms uses the buffer's default horizon.
func (c *Config) BufferSteps() int {
	horizon := c.Buffer()
	if horizon <= 0 {
		horizon = sim.DefaultBuffer
	}
	return int(horizon / c.Step())
}

// Validate reports every problem in the config at once.
func (c *Config) Validate() error {
	var err error
	if !sim.ValidStepSize(c.Step()) {
		err = multierr.Append(err, fmt.Errorf("step_ms %d: %w", c.StepMs, sim.ErrInvalidStepSize))
	}
	if c.BufferMs < 0 {
		err = multierr.Append(err, fmt.Errorf("%w: buffer_ms %d is negative", ErrInvalid, c.BufferMs))
	}
	if c.DurationMs < 0 {
		err = multierr.Append(err, fmt.Errorf("%w: duration_ms %d is negative", ErrInvalid, c.DurationMs))
	}
	if c.SampleMs <= 0 {
		err = multierr.Append(err, fmt.Errorf("%w: sample_ms must be positive, got %d", ErrInvalid, c.SampleMs))
	}
	if c.CacheSize <= 0 {
		err = multierr.Append(err, fmt.Errorf("cache_size %d: %w", c.CacheSize, cache.ErrInvalidCapacity))
	} else if sim.ValidStepSize(c.Step()) && c.BufferMs >= 0 {
		if need := c.BufferSteps() + 1; c.CacheSize < need {
			err = multierr.Append(err, fmt.Errorf("%w: cache_size %d cannot hold the %d steps buffer_ms %d needs",
				ErrInvalid, c.CacheSize, need, c.BufferMs))
		}
	}
	if c.MaxDepth <= 0 {
		err = multierr.Append(err, fmt.Errorf("%w: max_depth must be positive, got %d", ErrInvalid, c.MaxDepth))
	}
	if !(c.Speed > 0) {
		err = multierr.Append(err, fmt.Errorf("speed %v: %w", c.Speed, sim.ErrSpeedTooLow))
	} else if c.Speed >= sim.MaxSpeed {
		err = multierr.Append(err, fmt.Errorf("speed %v: %w", c.Speed, sim.ErrSpeedTooHigh))
	}
	if c.CollisionTolerance < 0 {
		err = multierr.Append(err, fmt.Errorf("%w: collision_tolerance %v is negative", ErrInvalid, c.CollisionTolerance))
	}
	if _, ierr := integrators.ByName(c.Integrator); ierr != nil {
		err = multierr.Append(err, ierr)
	}
	if !(c.Environment.MetersPerPixel > 0) || math.IsInf(c.Environment.MetersPerPixel, 0) {
		err = multierr.Append(err, fmt.Errorf("meters_per_pixel %v: %w", c.Environment.MetersPerPixel, physics.ErrInvalidScale))
	}
	if c.Environment.Width <= 0 || c.Environment.Height <= 0 {
		err = multierr.Append(err, fmt.Errorf("%w: world %vx%v", ErrInvalid, c.Environment.Width, c.Environment.Height))
	}

	if len(c.Particles) == 0 {
		err = multierr.Append(err, ErrNoParticles)
	}
	for i, p := range c.Particles {
		if !(p.Mass > 0) || math.IsInf(p.Mass, 0) {
			err = multierr.Append(err, fmt.Errorf("particle %d: %w: %v", i, physics.ErrInvalidMass, p.Mass))
		}
		switch shape.Kind(p.Shape) {
		case "", shape.KindCircle, shape.KindRectangle:
		default:
			err = multierr.Append(err, fmt.Errorf("particle %d: %w: %q", i, ErrUnknownShape, p.Shape))
		}
	}
	return err
}

// ShapeKind is the particle's shape kind, defaulting to a circle.
func (p ParticleConfig) ShapeKind() shape.Kind {
	if p.Shape == "" {
		return shape.KindCircle
	}
	return shape.Kind(p.Shape)
}
