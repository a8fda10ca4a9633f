package config

import (
	"sort"

	"github.com/san-kum/particlesim/internal/vec"
)

var Presets = map[string]*Config{
	"two-body": {
		Name: "two-body", StepMs: 50, BufferMs: 5000, DurationMs: 10000, SampleMs: 100,
		CacheSize: 2000, MaxDepth: 20000, Speed: 1, CollisionTolerance: 0.5, Integrator: "semi-implicit",
		Environment: EnvironmentConfig{CoefficientOfFriction: 0.65, MetersPerPixel: 20, Width: 500, Height: 400},
		Particles: []ParticleConfig{
			{Mass: 149866.618767, Position: vec.New(200, 200), Shape: "circle", Radius: 10},
			{Mass: 1e11, Position: vec.New(250, 200), Shape: "circle", Radius: 10},
		},
	},
	"head-on": {
		Name: "head-on", StepMs: 50, BufferMs: 5000, DurationMs: 8000, SampleMs: 50,
		CacheSize: 2000, MaxDepth: 20000, Speed: 1, CollisionTolerance: 0.5, Integrator: "semi-implicit",
		Environment: EnvironmentConfig{CoefficientOfFriction: 0.65, MetersPerPixel: 20, Width: 250, Height: 200},
		Particles: []ParticleConfig{
			{Mass: 10, Position: vec.New(100, 100), Velocity: vec.New(5, 0), Shape: "circle", Radius: 10},
			{Mass: 10, Position: vec.New(150, 100), Velocity: vec.New(-5, 0), Shape: "circle", Radius: 10},
		},
	},
	"bar-bounce": {
		Name: "bar-bounce", StepMs: 50, BufferMs: 5000, DurationMs: 20000, SampleMs: 100,
		CacheSize: 2000, MaxDepth: 20000, Speed: 1, CollisionTolerance: 0.5, Integrator: "semi-implicit",
		Environment: EnvironmentConfig{CoefficientOfFriction: 0.65, MetersPerPixel: 20, Width: 1000, Height: 200},
		Particles: []ParticleConfig{
			{Mass: 10, Position: vec.New(50, 50), Velocity: vec.New(0, 5), Shape: "circle", Radius: 10},
			{Mass: 1000, Position: vec.New(0, 100), Shape: "rectangle", Width: 1000, Height: 5},
		},
	},
	"orbit": {
		Name: "orbit", StepMs: 10, BufferMs: 5000, DurationMs: 120000, SampleMs: 100,
		CacheSize: 2000, MaxDepth: 20000, Speed: 1, CollisionTolerance: 0.5, Integrator: "semi-implicit",
		Environment: EnvironmentConfig{CoefficientOfFriction: 0.65, MetersPerPixel: 1, Width: 800, Height: 600},
		Particles: []ParticleConfig{
			{Mass: 5.993407252022775e14, Position: vec.New(400, 300), Shape: "circle", Radius: 20},
			{Mass: 1, Position: vec.New(400, 200), Velocity: vec.New(20, 0), Shape: "circle", Radius: 5},
		},
	},
	"drift": {
		Name: "drift", StepMs: 100, BufferMs: 5000, DurationMs: 15000, SampleMs: 100,
		CacheSize: 2000, MaxDepth: 20000, Speed: 1, Friction: true, CollisionTolerance: 0.5, Integrator: "semi-implicit",
		Environment: EnvironmentConfig{
			CoefficientOfFriction: 0.65, MetersPerPixel: 100000, Width: 800, Height: 600,
			UniversalForce: vec.New(0, 20),
		},
		Particles: []ParticleConfig{
			{Mass: 10, Position: vec.New(200, 100), Velocity: vec.New(10, 0), Shape: "circle", Radius: 10},
			{Mass: 20, Position: vec.New(400, 100), Velocity: vec.New(-5, 0), Shape: "circle", Radius: 14},
			{Mass: 5, Position: vec.New(600, 100), Shape: "rectangle", Width: 20, Height: 10},
		},
	},
}

// GetPreset returns a copy of the named preset, or nil.
func GetPreset(name string) *Config {
	cfg, ok := Presets[name]
	if !ok {
		return nil
	}
	return cfg.Clone()
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
