package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/finlayhlannon/Solo-snake/config"
	"github.com/finlayhlannon/Solo-snake/engine"
	"github.com/finlayhlannon/Solo-snake/logging"
	"github.com/finlayhlannon/Solo-snake/server"
	"github.com/finlayhlannon/Solo-snake/store"
)

func main() {
	fs := flag.NewFlagSet(os.Args[0], flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	defaults := engine.DefaultWeights()

	listen := fs.String("listen", ":"+config.String("PORT", "8000"), "HTTP listen address")
	logLevel := fs.String("log-level", config.String("LOG_LEVEL", "info"), "debug, info, warn or error")
	logPretty := fs.Bool("log-pretty", config.Bool("LOG_PRETTY", false), "Indent JSON log records")
	recordDir := fs.String("record-dir", config.String("RECORD_DIR", ""), "If set, write one parquet row per move to this directory")
	recordFlush := fs.Int("record-flush-rows", config.Int("RECORD_FLUSH_ROWS", 5000), "Rows per parquet file")
	gameTTL := fs.Duration("game-ttl", config.Duration("GAME_TTL", server.DefaultGameTTL), "Forget games idle for this long")
	shutdownTimeout := fs.Duration("shutdown-timeout", config.Duration("SHUTDOWN_TIMEOUT", 5*time.Second), "Grace period for in-flight requests")

	hunger := fs.Int("hunger-threshold", config.Int("HUNGER_THRESHOLD", int(defaults.HungerThreshold)), "Health at or below which food is weighted as hungry")
	hungryWeight := fs.Float64("hungry-food-weight", config.Float("HUNGRY_FOOD_WEIGHT", defaults.HungryFoodWeight), "Food weight when hungry")
	fedWeight := fs.Float64("fed-food-weight", config.Float("FED_FOOD_WEIGHT", defaults.FedFoodWeight), "Food weight when healthy; negative avoids food")
	tailSlack := fs.Int("tail-slack", config.Int("TAIL_SLACK", defaults.TailSlack), "Trailing segments of our body treated as free")

	if err := fs.Parse(os.Args[1:]); err != nil {
		log.Fatalf("flag parse: %v", err)
	}

	level, err := logging.ParseLevel(*logLevel)
	if err != nil {
		log.Fatalf("log level: %v", err)
	}
	logger := slog.New(logging.NewHandler(os.Stderr, &slog.HandlerOptions{Level: level}, *logPretty))
	slog.SetDefault(logger)

	weights := defaults
	weights.HungerThreshold = int32(*hunger)
	weights.HungryFoodWeight = *hungryWeight
	weights.FedFoodWeight = *fedWeight
	weights.TailSlack = *tailSlack

	cfg := server.Config{Info: server.DefaultInfo(), Logger: logger, GameTTL: *gameTTL}
	var rec *store.Recorder
	if *recordDir != "" {
		rec, err = store.NewRecorder(*recordDir, *recordFlush)
		if err != nil {
			log.Fatalf("Failed to open recorder: %v", err)
		}
		cfg.Recorder = rec
		logger.Info("recording decisions", "dir", *recordDir, "flush_rows", *recordFlush)
	}

	s := server.New(engine.New(weights), cfg)
	srv := &http.Server{
		Addr:              *listen,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("battlesnake server listening", "addr", *listen, "weights", weights)
		serveErr <- srv.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server stopped", "err", err)
		}
	case <-ctx.Done():
		logger.Info("shutting down", "active_games", s.ActiveGames())
		shutdownCtx, cancel := context.WithTimeout(context.Background(), *shutdownTimeout)
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("shutdown", "err", err)
		}
		cancel()
	}

	if rec != nil {
		if err := rec.Close(); err != nil {
			logger.Error("close recorder", "err", err)
		} else {
			logger.Info("recorder closed", "files", len(rec.Files()), "rows", rec.Rows())
		}
	}
}
