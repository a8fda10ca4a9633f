package automation

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	testingclock "k8s.io/utils/clock/testing"

	"github.com/san-kum/particlesim/internal/config"
	"github.com/san-kum/particlesim/internal/storage"
)

const scenarioYAML = `name: smoke
description: a preset and a file
steps:
  - preset: head-on
    duration_ms: 500
    save_as: short-head-on
  - config: orbit.yaml
    duration_ms: 200
    friction: true
`

func writeScenario(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	if err := config.Save(filepath.Join(dir, "orbit.yaml"), config.GetPreset("orbit")); err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(dir, "scenario.yaml")
	if err := os.WriteFile(path, []byte(scenarioYAML), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadScenario(t *testing.T) {
	path := writeScenario(t)

	s, err := LoadScenario(path)
	if err != nil {
		t.Fatal(err)
	}
	if s.Name != "smoke" || len(s.Steps) != 2 {
		t.Fatalf("unexpected scenario %+v", s)
	}
	if want := filepath.Join(filepath.Dir(path), "orbit.yaml"); s.Steps[1].Config != want {
		t.Errorf("expected config resolved to %s, got %s", want, s.Steps[1].Config)
	}

	cfg, err := s.Steps[0].Resolve()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Name != "short-head-on" || cfg.DurationMs != 500 || cfg.StepMs != 50 {
		t.Errorf("unexpected overrides: %+v", cfg)
	}

	cfg, err = s.Steps[1].Resolve()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Name != "orbit" || !cfg.Friction || cfg.StepMs != 10 {
		t.Errorf("unexpected overrides: %+v", cfg)
	}
}

func TestResolveErrors(t *testing.T) {
	if _, err := (ScenarioStep{}).Resolve(); !errors.Is(err, ErrNoSource) {
		t.Errorf("expected ErrNoSource, got %v", err)
	}
	if _, err := (ScenarioStep{Preset: "nope"}).Resolve(); err == nil {
		t.Error("expected unknown preset error")
	}
}

func TestRunScenario(t *testing.T) {
	s, err := LoadScenario(writeScenario(t))
	if err != nil {
		t.Fatal(err)
	}

	st := storage.New(t.TempDir()).WithClock(testingclock.NewFakeClock(time.Unix(1700000000, 0)))
	if err := st.Init(); err != nil {
		t.Fatal(err)
	}

	ids, err := RunScenario(context.Background(), s, st, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(ids) != 2 || ids[0] != "short-head-on_1700000000000" {
		t.Fatalf("unexpected run ids %v", ids)
	}

	runs, err := st.List()
	if err != nil {
		t.Fatal(err)
	}
	if len(runs) != 2 {
		t.Errorf("expected 2 stored runs, got %d", len(runs))
	}
	meta, err := st.Load(ids[1])
	if err != nil {
		t.Fatal(err)
	}
	if meta.Samples != 3 {
		t.Errorf("expected 3 samples for 200ms at 100ms, got %d", meta.Samples)
	}
}

func TestRunScenarioStopsOnFailure(t *testing.T) {
	s := &Scenario{Steps: []ScenarioStep{
		{Preset: "head-on", DurationMs: 100},
		{Preset: "head-on", StepMs: 7, SaveAs: "bad"},
	}}
	st := storage.New(t.TempDir())

	ids, err := RunScenario(context.Background(), s, st, nil)
	if err == nil {
		t.Fatal("expected invalid step size to fail")
	}
	if len(ids) != 1 {
		t.Errorf("expected the first run to be kept, got %v", ids)
	}
}
