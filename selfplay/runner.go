package selfplay

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"
)

// RunGames plays games on up to workers goroutines. Game i is seeded with
// cfg.Seed+i when cfg.Seed is set. onDone is called once per finished game,
// never concurrently; returning an error stops the run.
func RunGames(ctx context.Context, cfg Config, games, workers int, onDone func(Outcome) error) error {
	if games <= 0 {
		return nil
	}
	if workers <= 0 {
		workers = 1
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	var mu sync.Mutex
	for i := 0; i < games; i++ {
		if ctx.Err() != nil {
			break
		}
		gameCfg := cfg
		if cfg.Seed != 0 {
			gameCfg.Seed = cfg.Seed + int64(i)
		}
		g.Go(func() error {
			out, err := PlayGame(ctx, gameCfg)
			if err != nil {
				return fmt.Errorf("game %d: %w", i, err)
			}
			if onDone == nil {
				return nil
			}
			mu.Lock()
			defer mu.Unlock()
			return onDone(out)
		})
	}
	return g.Wait()
}
