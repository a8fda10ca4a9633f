package storage

import (
	"encoding/json"
	"io"

	"github.com/san-kum/particlesim/internal/config"
	"github.com/san-kum/particlesim/internal/experiment"
	"github.com/san-kum/particlesim/internal/sim"
)

type ExportStep struct {
	TimeMs     int64                    `json:"time_ms"`
	Particles  map[int]sim.ParticleStep `json:"particles"`
	Collisions []*sim.Collision         `json:"collisions,omitempty"`
}

type ExportData struct {
	Name       string             `json:"name"`
	StepMs     int                `json:"step_ms"`
	SampleMs   int                `json:"sample_ms"`
	DurationMs int                `json:"duration_ms"`
	Integrator string             `json:"integrator"`
	Samples    int                `json:"samples"`
	Steps      []ExportStep       `json:"steps"`
	Metrics    map[string]float64 `json:"metrics"`
}

func NewExportData(cfg *config.Config, result *experiment.Result) ExportData {
	data := ExportData{
		Name:       cfg.Name,
		StepMs:     cfg.StepMs,
		SampleMs:   cfg.SampleMs,
		DurationMs: cfg.DurationMs,
		Integrator: cfg.Integrator,
		Samples:    len(result.Steps),
		Steps:      make([]ExportStep, len(result.Steps)),
		Metrics:    result.Metrics,
	}
	for i, s := range result.Steps {
		data.Steps[i] = ExportStep{
			TimeMs:     result.Times[i].Milliseconds(),
			Particles:  s.Particles,
			Collisions: s.CollisionList(),
		}
	}
	return data
}

// ExportJSON writes the run as indented JSON.
func ExportJSON(w io.Writer, cfg *config.Config, result *experiment.Result) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(NewExportData(cfg, result))
}
