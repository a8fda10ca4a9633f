package experiment

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/san-kum/particlesim/internal/config"
)

// RunAll sets up and runs each config concurrently. Each config gets its own
// environment and cache. Options must not share metric instances.
func RunAll(ctx context.Context, cfgs []*config.Config, opts ...Option) ([]*Result, error) {
	results := make([]*Result, len(cfgs))
	g, ctx := errgroup.WithContext(ctx)

	for i, cfg := range cfgs {
		g.Go(func() error {
			exp := New(cfg, opts...)
			if err := exp.Setup(); err != nil {
				return err
			}
			res, err := exp.Run(ctx)
			if err != nil {
				return fmt.Errorf("%s: %w", cfg.Name, err)
			}
			results[i] = res
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
