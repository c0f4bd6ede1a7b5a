// Package selfplay runs local games where every snake is driven by the move
// engine, resolving turns with the rules package.
package selfplay

import (
	"context"
	"fmt"
	"log"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/finlayhlannon/Solo-snake/engine"
	"github.com/finlayhlannon/Solo-snake/game"
	"github.com/finlayhlannon/Solo-snake/rules"
	"github.com/finlayhlannon/Solo-snake/store"
)

type Config struct {
	Width    int32
	Height   int32
	Snakes   int
	MaxTurns int
	Seed     int64
	Food     rules.FoodSettings

	// Weights[i%len(Weights)] drives snake i. Empty means engine defaults.
	Weights []engine.Weights

	Verbose bool
	// OnTurn, when set, sees every state before its moves are resolved.
	OnTurn func(gameID string, state *game.GameState)
}

func DefaultConfig() Config {
	return Config{
		Width:    11,
		Height:   11,
		Snakes:   2,
		MaxTurns: 1000,
		Food:     rules.DefaultFoodSettings,
	}
}

type GameResult struct {
	GameID       string
	WinnerId     string
	Turns        int
	StartSnakes  int
	Truncated    bool
	Eliminations []rules.Elimination
}

type Outcome struct {
	Result GameResult
	Rows   []store.DecisionRow
}

// PlayGame plays one game to completion, or until MaxTurns. The snake count at
// turn 0 is fed to every engine call as the game's starting count.
func PlayGame(ctx context.Context, cfg Config) (Outcome, error) {
	if cfg.Snakes < 1 {
		return Outcome{}, fmt.Errorf("selfplay: need at least one snake, got %d", cfg.Snakes)
	}
	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(seed))

	state, err := createInitialState(rng, cfg)
	if err != nil {
		return Outcome{}, err
	}
	engines := enginesFor(cfg)
	gameID := uuid.NewString()
	start := len(state.Snakes)

	res := GameResult{GameID: gameID, StartSnakes: start}
	rows := make([]store.DecisionRow, 0, 256)

	for !rules.IsGameOver(state, start) {
		if err := ctx.Err(); err != nil {
			return Outcome{}, err
		}
		if cfg.MaxTurns > 0 && int(state.Turn) >= cfg.MaxTurns {
			res.Truncated = true
			break
		}
		if cfg.OnTurn != nil {
			cfg.OnTurn(gameID, state)
		}
		if cfg.Verbose {
			log.Print(RenderBoard(state))
		}

		turnRows, err := decideAll(ctx, gameID, state, start, engines)
		if err != nil {
			return Outcome{}, err
		}
		moves := make(map[string]game.Direction, len(turnRows))
		for _, r := range turnRows {
			moves[r.SnakeID] = game.Direction(r.Move)
			if cfg.Verbose {
				log.Printf("[%s] Turn %d: %s -> %s scores=%v", gameID[:8], r.Turn, r.SnakeID, game.Direction(r.Move), r.Scores)
			}
		}
		rows = append(rows, turnRows...)

		var out []rules.Elimination
		state, out = rules.Step(state, moves, rng, cfg.Food)
		res.Eliminations = append(res.Eliminations, out...)
	}

	res.Turns = int(state.Turn)
	if !res.Truncated {
		res.WinnerId = rules.Winner(state)
	}
	assignValues(rows, res)
	return Outcome{Result: res, Rows: rows}, nil
}

func enginesFor(cfg Config) []engine.Engine {
	if len(cfg.Weights) == 0 {
		return []engine.Engine{engine.New(engine.DefaultWeights())}
	}
	out := make([]engine.Engine, len(cfg.Weights))
	for i, w := range cfg.Weights {
		out[i] = engine.New(w)
	}
	return out
}

// decideAll asks the engine for every living snake's move concurrently. Each
// call gets its own TurnState.
func decideAll(ctx context.Context, gameID string, state *game.GameState, start int, engines []engine.Engine) ([]store.DecisionRow, error) {
	rows := make([]store.DecisionRow, len(state.Snakes))
	g, _ := errgroup.WithContext(ctx)
	for i := range state.Snakes {
		g.Go(func() error {
			view := *state
			view.YouId = state.Snakes[i].Id
			ts, err := game.NewTurnState(&view, start)
			if err != nil {
				return fmt.Errorf("turn %d snake %s: %w", state.Turn, view.YouId, err)
			}
			began := time.Now()
			dec := engines[i%len(engines)].Decide(ts)
			row := store.NewDecisionRow(gameID, store.SourceSelfPlay, ts, dec, time.Since(began))
			row.Played = row.Move
			rows[i] = row
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return rows, nil
}

// assignValues labels rows once the outcome is known. Solo, drawn and
// truncated games stay at 0.
func assignValues(rows []store.DecisionRow, res GameResult) {
	if res.WinnerId == "" || res.StartSnakes < 2 {
		return
	}
	for i := range rows {
		if rows[i].SnakeID == res.WinnerId {
			rows[i].Value = 1
		} else {
			rows[i].Value = -1
		}
	}
}

// createInitialState places snakes on the standard spawn points, stacked three
// deep, then a food in the centre plus the configured minimum.
func createInitialState(rng *rand.Rand, cfg Config) (*game.GameState, error) {
	if cfg.Width < 3 || cfg.Height < 3 {
		return nil, fmt.Errorf("selfplay: board %dx%d too small", cfg.Width, cfg.Height)
	}
	spawns := spawnPoints(cfg.Width, cfg.Height)
	if cfg.Snakes > len(spawns) {
		return nil, fmt.Errorf("selfplay: %d snakes do not fit %d spawn points", cfg.Snakes, len(spawns))
	}
	corners := spawns[:min(4, len(spawns))]
	edges := spawns[len(corners):]
	rng.Shuffle(len(corners), func(i, j int) { corners[i], corners[j] = corners[j], corners[i] })
	rng.Shuffle(len(edges), func(i, j int) { edges[i], edges[j] = edges[j], edges[i] })

	state := &game.GameState{Width: cfg.Width, Height: cfg.Height}
	for i := 0; i < cfg.Snakes; i++ {
		p := spawns[i]
		state.Snakes = append(state.Snakes, game.Snake{
			Id:     fmt.Sprintf("snake%d", i+1),
			Health: rules.MaxHealth,
			Body:   []game.Point{p, p, p},
		})
	}
	state.YouId = state.Snakes[0].Id

	centre := game.Point{X: (cfg.Width - 1) / 2, Y: (cfg.Height - 1) / 2}
	occupied := false
	for _, s := range state.Snakes {
		occupied = occupied || s.Occupies(centre)
	}
	if !occupied {
		state.Food = append(state.Food, centre)
	}
	rules.SpawnFood(state, rng, rules.FoodSettings{MinimumFood: cfg.Food.MinimumFood})
	return state, nil
}

// spawnPoints returns corners first, then edge midpoints, one cell in from
// the walls. Duplicates on tiny boards are dropped.
func spawnPoints(w, h int32) []game.Point {
	lo, midX, midY, hiX, hiY := int32(1), (w-1)/2, (h-1)/2, w-2, h-2
	cands := []game.Point{
		{X: lo, Y: lo}, {X: hiX, Y: hiY}, {X: lo, Y: hiY}, {X: hiX, Y: lo},
		{X: lo, Y: midY}, {X: midX, Y: lo}, {X: hiX, Y: midY}, {X: midX, Y: hiY},
	}
	seen := make(map[game.Point]bool, len(cands))
	out := cands[:0]
	for _, p := range cands {
		if !seen[p] {
			seen[p] = true
			out = append(out, p)
		}
	}
	return out
}
