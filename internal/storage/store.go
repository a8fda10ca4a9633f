package storage

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"k8s.io/utils/clock"

	"github.com/san-kum/particlesim/internal/config"
	"github.com/san-kum/particlesim/internal/experiment"
)

const (
	metadataFile = "metadata.json"
	stepsFile    = "steps.csv"
	scenarioFile = "scenario.yaml"
)

type Store struct {
	baseDir string
	clock   clock.PassiveClock
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir, clock: clock.RealClock{}}
}

// WithClock sets the clock used to stamp runs.
func (s *Store) WithClock(c clock.PassiveClock) *Store {
	s.clock = c
	return s
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

type RunMetadata struct {
	ID         string             `json:"id"`
	Name       string             `json:"name"`
	Timestamp  time.Time          `json:"timestamp"`
	StepMs     int                `json:"step_ms"`
	SampleMs   int                `json:"sample_ms"`
	DurationMs int                `json:"duration_ms"`
	Integrator string             `json:"integrator"`
	Particles  []int              `json:"particles"`
	Samples    int                `json:"samples"`
	Metrics    map[string]float64 `json:"metrics"`
}

// Save writes the run's metadata, sampled steps and scenario into a new run
// directory and returns its id.
func (s *Store) Save(cfg *config.Config, result *experiment.Result) (string, error) {
	now := s.clock.Now()
	runID := fmt.Sprintf("%s_%d", cfg.Name, now.UnixMilli())
	runDir := filepath.Join(s.baseDir, runID)

	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	var ids []int
	if final := result.Final(); final != nil {
		ids = final.IDs()
	}

	meta := RunMetadata{
		ID:         runID,
		Name:       cfg.Name,
		Timestamp:  now,
		StepMs:     cfg.StepMs,
		SampleMs:   cfg.SampleMs,
		DurationMs: cfg.DurationMs,
		Integrator: cfg.Integrator,
		Particles:  ids,
		Samples:    len(result.Steps),
		Metrics:    result.Metrics,
	}

	if err := writeJSON(filepath.Join(runDir, metadataFile), meta); err != nil {
		return "", err
	}
	if err := config.Save(filepath.Join(runDir, scenarioFile), cfg); err != nil {
		return "", err
	}
	if err := writeSteps(filepath.Join(runDir, stepsFile), ids, result); err != nil {
		return "", err
	}
	return runID, nil
}

func writeJSON(path string, v any) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeSteps(path string, ids []int, result *experiment.Result) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)

	header := []string{"time_ms"}
	for _, id := range ids {
		for _, field := range []string{"x", "y", "vx", "vy"} {
			header = append(header, Column(id, field))
		}
	}
	if err := w.Write(header); err != nil {
		return err
	}

	for i, step := range result.Steps {
		row := []string{strconv.FormatInt(result.Times[i].Milliseconds(), 10)}
		for _, id := range ids {
			ps := step.Particles[id]
			for _, v := range []float64{ps.Position.X, ps.Position.Y, ps.Velocity.X, ps.Velocity.Y} {
				row = append(row, strconv.FormatFloat(v, 'g', -1, 64))
			}
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}

	w.Flush()
	return w.Error()
}

// Column names a steps.csv column, e.g. "p0_x".
func Column(id int, field string) string {
	return fmt.Sprintf("p%d_%s", id, field)
}

// List returns the stored runs, oldest first.
func (s *Store) List() ([]RunMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []RunMetadata{}, nil
		}
		return nil, err
	}

	runs := make([]RunMetadata, 0)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		meta, err := s.Load(entry.Name())
		if err != nil {
			continue
		}
		runs = append(runs, *meta)
	}

	sort.Slice(runs, func(i, j int) bool {
		return runs[i].Timestamp.Before(runs[j].Timestamp)
	})
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, metadataFile))
	if err != nil {
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}
	return &meta, nil
}

// LoadScenario reads back the config a run was produced from.
func (s *Store) LoadScenario(runID string) (*config.Config, error) {
	return config.Load(filepath.Join(s.baseDir, runID, scenarioFile))
}

type Trajectory struct {
	Times   []time.Duration
	Columns []string
	Rows    [][]float64
}

// Series returns one column across all samples.
func (t *Trajectory) Series(column string) ([]float64, bool) {
	idx := -1
	for i, c := range t.Columns {
		if c == column {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, false
	}

	out := make([]float64, len(t.Rows))
	for i, row := range t.Rows {
		if idx < len(row) {
			out[i] = row[idx]
		}
	}
	return out, true
}

func (s *Store) LoadTrajectory(runID string) (*Trajectory, error) {
	file, err := os.Open(filepath.Join(s.baseDir, runID, stepsFile))
	if err != nil {
		return nil, err
	}
	defer file.Close()

	r := csv.NewReader(file)
	r.FieldsPerRecord = -1

	records, err := r.ReadAll()
	if err != nil {
		return nil, err
	}

	traj := &Trajectory{}
	if len(records) == 0 {
		return traj, nil
	}
	traj.Columns = records[0][1:]

	for _, record := range records[1:] {
		if len(record) == 0 {
			continue
		}
		ms, err := strconv.ParseInt(record[0], 10, 64)
		if err != nil {
			continue
		}

		row := make([]float64, 0, len(record)-1)
		for _, field := range record[1:] {
			v, err := strconv.ParseFloat(field, 64)
			if err != nil {
				v = 0
			}
			row = append(row, v)
		}
		traj.Times = append(traj.Times, time.Duration(ms)*time.Millisecond)
		traj.Rows = append(traj.Rows, row)
	}
	return traj, nil
}
