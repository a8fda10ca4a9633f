package optim

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/san-kum/particlesim/internal/config"
	"github.com/san-kum/particlesim/internal/experiment"
)

var ErrNoCandidate = errors.New("optim: no parameter combination ran")

// Param is one searched dimension. Apply writes a value into a scenario.
type Param struct {
	Name   string
	Values []float64
	Apply  func(cfg *config.Config, v float64) error
}

func particle(cfg *config.Config, id int) (*config.ParticleConfig, error) {
	if id < 0 || id >= len(cfg.Particles) {
		return nil, fmt.Errorf("optim: no particle %d", id)
	}
	return &cfg.Particles[id], nil
}

func VelocityX(id int, values []float64) Param {
	return Param{
		Name:   fmt.Sprintf("p%d_vx", id),
		Values: values,
		Apply: func(cfg *config.Config, v float64) error {
			p, err := particle(cfg, id)
			if err != nil {
				return err
			}
			p.Velocity.X = v
			return nil
		},
	}
}

func VelocityY(id int, values []float64) Param {
	return Param{
		Name:   fmt.Sprintf("p%d_vy", id),
		Values: values,
		Apply: func(cfg *config.Config, v float64) error {
			p, err := particle(cfg, id)
			if err != nil {
				return err
			}
			p.Velocity.Y = v
			return nil
		},
	}
}

func Mass(id int, values []float64) Param {
	return Param{
		Name:   fmt.Sprintf("p%d_mass", id),
		Values: values,
		Apply: func(cfg *config.Config, v float64) error {
			p, err := particle(cfg, id)
			if err != nil {
				return err
			}
			p.Mass = v
			return nil
		},
	}
}

// ParseRange reads "lo:hi:step" into the inclusive list of values.
func ParseRange(s string) ([]float64, error) {
	parts := strings.Split(s, ":")
	if len(parts) != 3 {
		return nil, fmt.Errorf("optim: range %q is not lo:hi:step", s)
	}
	var nums [3]float64
	for i, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return nil, fmt.Errorf("optim: range %q: %w", s, err)
		}
		nums[i] = v
	}
	lo, hi, step := nums[0], nums[1], nums[2]
	if step <= 0 || hi < lo {
		return nil, fmt.Errorf("optim: range %q is empty", s)
	}

	n := int(math.Floor((hi-lo)/step+1e-9)) + 1
	values := make([]float64, n)
	for i := range values {
		values[i] = lo + float64(i)*step
	}
	return values, nil
}

type GridSearch struct {
	params []Param
}

func NewGridSearch(params ...Param) *GridSearch {
	return &GridSearch{params: params}
}

// Search runs base once per combination of parameter values and returns
// the combination with the smallest value of metricName. Combinations that
// fail to set up or run are skipped.
func (g *GridSearch) Search(ctx context.Context, base *config.Config, metricName string, opts ...experiment.Option) (map[string]float64, float64, error) {
	best := math.Inf(1)
	var bestParams map[string]float64

	err := g.searchRecursive(ctx, 0, base, make(map[string]float64), metricName, opts, &best, &bestParams)
	if err != nil {
		return nil, 0, err
	}
	if bestParams == nil {
		return nil, 0, ErrNoCandidate
	}
	return bestParams, best, nil
}

func (g *GridSearch) searchRecursive(
	ctx context.Context,
	depth int,
	base *config.Config,
	current map[string]float64,
	metricName string,
	opts []experiment.Option,
	best *float64,
	bestParams *map[string]float64,
) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if depth == len(g.params) {
		cfg := base.Clone()
		for _, p := range g.params {
			if err := p.Apply(cfg, current[p.Name]); err != nil {
				return err
			}
		}

		exp := experiment.New(cfg, opts...)
		if err := exp.Setup(); err != nil {
			return nil
		}
		result, err := exp.Run(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return nil
		}

		val, ok := result.Metrics[metricName]
		if !ok {
			return fmt.Errorf("optim: unknown metric %q", metricName)
		}
		if val < *best {
			*best = val
			*bestParams = make(map[string]float64, len(current))
			for k, v := range current {
				(*bestParams)[k] = v
			}
		}
		return nil
	}

	param := g.params[depth]
	for _, val := range param.Values {
		next := make(map[string]float64, len(current)+1)
		for k, v := range current {
			next[k] = v
		}
		next[param.Name] = val

		if err := g.searchRecursive(ctx, depth+1, base, next, metricName, opts, best, bestParams); err != nil {
			return err
		}
	}
	return nil
}
