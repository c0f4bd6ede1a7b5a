// Command replay downloads recorded games and reports how often the engine
// agrees with the moves that were actually played.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/finlayhlannon/Solo-snake/config"
	"github.com/finlayhlannon/Solo-snake/engine"
	"github.com/finlayhlannon/Solo-snake/replay"
	"github.com/finlayhlannon/Solo-snake/store"
)

func main() {
	ids := flag.String("games", "", "Comma separated game IDs to evaluate")
	discover := flag.Bool("discover", false, "Find game IDs on the leaderboards")
	maxGames := flag.Int("max-games", 100, "Stop discovery after this many new games")
	seenPath := flag.String("seen-log", config.String("SEEN_LOG", "data/replay_seen.log"), "File of already evaluated game IDs; empty disables")
	outDir := flag.String("out-dir", config.String("RECORD_DIR", ""), "If set, write decision parquet batches here")
	workers := flag.Int("workers", 4, "Games downloaded in parallel")
	engineURL := flag.String("engine-url", config.String("ENGINE_URL", replay.DefaultDownloaderConfig().EngineURL), "Websocket URL template for game events")
	baseURL := flag.String("base-url", config.String("LEADERBOARD_URL", replay.DefaultDiscoveryConfig().BaseURL), "Leaderboard site root")
	delay := flag.Duration("delay", replay.DefaultDiscoveryConfig().RequestDelay, "Delay between leaderboard requests")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var seen *store.SeenLog
	if *seenPath != "" {
		var err error
		seen, err = store.OpenSeenLog(*seenPath)
		if err != nil {
			log.Fatalf("Failed to open seen log: %v", err)
		}
		defer seen.Close()
		log.Printf("Loaded %d evaluated games from %s", seen.Count(), *seenPath)
	}

	var todo []string
	for _, id := range strings.Split(*ids, ",") {
		if id = strings.TrimSpace(id); id != "" && (seen == nil || !seen.Has(id)) {
			todo = append(todo, id)
		}
	}
	if *discover {
		cfg := replay.DefaultDiscoveryConfig()
		cfg.BaseURL = *baseURL
		cfg.RequestDelay = *delay
		var known map[string]bool
		if seen != nil {
			known = seen.Snapshot()
		}
		todo = append(todo, discoverGames(ctx, replay.NewDiscoverer(cfg, known), *maxGames)...)
	}
	if len(todo) == 0 {
		log.Printf("Nothing to evaluate")
		return
	}

	var rec *store.Recorder
	if *outDir != "" {
		var err error
		rec, err = store.NewRecorder(*outDir, 0)
		if err != nil {
			log.Fatalf("Failed to open recorder: %v", err)
		}
	}

	dcfg := replay.DefaultDownloaderConfig()
	dcfg.EngineURL = *engineURL
	d := replay.NewDownloader(dcfg)

	started := time.Now()
	log.Printf("Evaluating %d games with %d workers", len(todo), *workers)
	total, err := replay.EvaluateGames(ctx, d, engine.New(engine.DefaultWeights()), todo, *workers,
		func(g *replay.Game, rep replay.Report, rows []store.DecisionRow) error {
			log.Printf("[Replay] %s: %s", g.ID, rep)
			if rec != nil {
				if err := rec.Record(rows...); err != nil {
					return err
				}
				rec.GameDone()
			}
			if seen != nil {
				return seen.Add(g.ID)
			}
			return nil
		})
	if err != nil {
		log.Printf("Replay stopped: %v", err)
	}

	if rec != nil {
		if err := rec.Close(); err != nil {
			log.Printf("Parquet flush failed: %v", err)
		} else {
			log.Printf("Parquet output: %v (%d rows)", rec.Files(), rec.Rows())
		}
	}
	log.Printf("Done in %s: %s", time.Since(started).Round(time.Millisecond), total)
}

// discoverGames collects up to limit new game IDs, then stops the crawl.
func discoverGames(ctx context.Context, d *replay.Discoverer, limit int) []string {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	out := make(chan string)
	done := make(chan error, 1)
	go func() {
		done <- d.Discover(ctx, out)
		close(out)
	}()

	var ids []string
	for id := range out {
		ids = append(ids, id)
		if limit > 0 && len(ids) >= limit {
			cancel()
			break
		}
	}
	// Drain so Discover can observe the cancellation and exit.
	for range out {
	}
	if err := <-done; err != nil && len(ids) < limit {
		log.Printf("[Discovery] stopped: %v", err)
	}
	return ids
}
