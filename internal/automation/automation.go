package automation

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/san-kum/particlesim/internal/config"
	"github.com/san-kum/particlesim/internal/experiment"
	"github.com/san-kum/particlesim/internal/storage"
)

var ErrNoSource = errors.New("automation: step names neither a preset nor a config file")

// Scenario is a scripted sequence of runs.
type Scenario struct {
	Name        string         `yaml:"name"`
	Description string         `yaml:"description"`
	Steps       []ScenarioStep `yaml:"steps"`
}

// ScenarioStep starts from a preset or a config file and overrides the
// non-zero fields.
type ScenarioStep struct {
	Preset     string  `yaml:"preset,omitempty"`
	Config     string  `yaml:"config,omitempty"`
	StepMs     int     `yaml:"step_ms,omitempty"`
	DurationMs int     `yaml:"duration_ms,omitempty"`
	SampleMs   int     `yaml:"sample_ms,omitempty"`
	Integrator string  `yaml:"integrator,omitempty"`
	Friction   *bool   `yaml:"friction,omitempty"`
	Speed      float64 `yaml:"speed,omitempty"`
	SaveAs     string  `yaml:"save_as,omitempty"`
}

// LoadScenario loads a scenario from a YAML file. Relative config paths in
// its steps are resolved against the file's directory.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var scenario Scenario
	if err := yaml.Unmarshal(data, &scenario); err != nil {
		return nil, err
	}

	dir := filepath.Dir(path)
	for i := range scenario.Steps {
		if c := scenario.Steps[i].Config; c != "" && !filepath.IsAbs(c) {
			scenario.Steps[i].Config = filepath.Join(dir, c)
		}
	}
	return &scenario, nil
}

// Resolve builds the config for one step.
func (s ScenarioStep) Resolve() (*config.Config, error) {
	var cfg *config.Config
	switch {
	case s.Config != "":
		loaded, err := config.Load(s.Config)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	case s.Preset != "":
		cfg = config.GetPreset(s.Preset)
		if cfg == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", s.Preset, config.ListPresets())
		}
	default:
		return nil, ErrNoSource
	}

	if s.StepMs != 0 {
		cfg.StepMs = s.StepMs
	}
	if s.DurationMs != 0 {
		cfg.DurationMs = s.DurationMs
	}
	if s.SampleMs != 0 {
		cfg.SampleMs = s.SampleMs
	}
	if s.Integrator != "" {
		cfg.Integrator = s.Integrator
	}
	if s.Friction != nil {
		cfg.Friction = *s.Friction
	}
	if s.Speed != 0 {
		cfg.Speed = s.Speed
	}
	if s.SaveAs != "" {
		cfg.Name = s.SaveAs
	}
	return cfg, nil
}

// RunScenario executes every step in order and stores each run. It returns
// the ids of the runs stored before any failure.
func RunScenario(ctx context.Context, scenario *Scenario, st *storage.Store, log *zap.Logger) ([]string, error) {
	if log == nil {
		log = zap.NewNop()
	}
	ids := make([]string, 0, len(scenario.Steps))

	for i, step := range scenario.Steps {
		cfg, err := step.Resolve()
		if err != nil {
			return ids, fmt.Errorf("step %d: %w", i+1, err)
		}
		log.Info("running scenario step",
			zap.String("scenario", scenario.Name),
			zap.Int("step", i+1),
			zap.String("name", cfg.Name))

		exp := experiment.New(cfg, experiment.WithLogger(log))
		if err := exp.Setup(); err != nil {
			return ids, fmt.Errorf("step %d setup: %w", i+1, err)
		}

		result, err := exp.Run(ctx)
		if err != nil {
			return ids, fmt.Errorf("step %d run: %w", i+1, err)
		}

		id, err := st.Save(cfg, result)
		if err != nil {
			return ids, fmt.Errorf("step %d save: %w", i+1, err)
		}
		ids = append(ids, id)
	}
	return ids, nil
}
