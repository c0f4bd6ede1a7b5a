package replay

import (
	"context"
	"fmt"
	"log"
	"slices"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/finlayhlannon/Solo-snake/engine"
	"github.com/finlayhlannon/Solo-snake/game"
	"github.com/finlayhlannon/Solo-snake/rules"
	"github.com/finlayhlannon/Solo-snake/store"
)

// Report compares engine decisions with the moves played in recorded games.
type Report struct {
	Games     int
	Failed    int // games that could not be downloaded
	Decisions int
	Skipped   int // snapshots that failed validation

	Known  int // decisions whose actual move could be recovered
	Agreed int

	FatalActual   int // actual move was followed by elimination
	FatalAvoided  int // of those, the engine chose a different open cell
	EngineBlocked int // engine chose an occupied or off-board cell while an open one existed
}

func (r *Report) Add(o Report) {
	r.Games += o.Games
	r.Failed += o.Failed
	r.Decisions += o.Decisions
	r.Skipped += o.Skipped
	r.Known += o.Known
	r.Agreed += o.Agreed
	r.FatalActual += o.FatalActual
	r.FatalAvoided += o.FatalAvoided
	r.EngineBlocked += o.EngineBlocked
}

// AgreementRate is Agreed/Known, or 0 when no move was known.
func (r Report) AgreementRate() float64 {
	if r.Known == 0 {
		return 0
	}
	return float64(r.Agreed) / float64(r.Known)
}

func (r Report) String() string {
	return fmt.Sprintf("games=%d failed=%d decisions=%d skipped=%d agreement=%.1f%% (%d/%d) fatal=%d avoided=%d blocked=%d",
		r.Games, r.Failed, r.Decisions, r.Skipped, 100*r.AgreementRate(), r.Agreed, r.Known,
		r.FatalActual, r.FatalAvoided, r.EngineBlocked)
}

// Evaluate asks the engine for a move for every living snake on every frame
// that has a successor, and compares it with what the snake did next. The
// snake count of the first frame is the game's starting count.
func Evaluate(g *Game, e engine.Engine) (Report, []store.DecisionRow) {
	rep := Report{Games: 1}
	if len(g.Frames) < 2 {
		return rep, nil
	}
	start := g.Frames[0].AliveCount()
	var rows []store.DecisionRow

	for i := 0; i+1 < len(g.Frames); i++ {
		frame, next := g.Frames[i], g.Frames[i+1]
		for _, s := range frame.Snakes {
			if !s.alive() {
				continue
			}
			state, err := FrameState(g, frame, s.ID)
			if err != nil {
				rep.Skipped++
				continue
			}
			ts, err := game.NewTurnState(state, start)
			if err != nil {
				rep.Skipped++
				continue
			}

			began := time.Now()
			dec := e.Decide(ts)
			rep.Decisions++
			row := store.NewDecisionRow(g.ID, store.SourceReplay, ts, dec, time.Since(began))

			open := rules.LegalMoves(state, s.ID)
			if len(open) > 0 && !slices.Contains(open, dec.Move) {
				rep.EngineBlocked++
			}

			after, found := findSnake(next, s.ID)
			if !found || !after.alive() {
				rep.FatalActual++
			}
			if found && len(after.Body) > 0 {
				head := game.Point{X: int32(after.Body[0].X), Y: int32(after.Body[0].Y)}
				if actual, ok := game.DirectionBetween(ts.You.Head(), head); ok {
					row.Played = int32(actual)
					rep.Known++
					if actual == dec.Move {
						rep.Agreed++
					} else if !after.alive() && slices.Contains(open, dec.Move) {
						rep.FatalAvoided++
					}
				}
			}
			if g.Winner != "" {
				switch {
				case s.ID == g.Winner || (s.Name != "" && s.Name == g.Winner):
					row.Value = 1
				case g.Winner != "draw" && g.Winner != "unknown":
					row.Value = -1
				}
			}
			rows = append(rows, row)
		}
	}
	return rep, rows
}

func findSnake(f FrameData, id string) (SnakeData, bool) {
	for _, s := range f.Snakes {
		if s.ID == id {
			return s, true
		}
	}
	return SnakeData{}, false
}

// EvaluateGames downloads and evaluates games on up to workers goroutines.
// Download failures are counted in the report, not returned. onGame is
// called once per evaluated game, never concurrently; an error from it stops
// the run.
func EvaluateGames(ctx context.Context, d *Downloader, e engine.Engine, ids []string, workers int,
	onGame func(g *Game, rep Report, rows []store.DecisionRow) error) (Report, error) {
	if workers <= 0 {
		workers = 1
	}
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	var (
		mu    sync.Mutex
		total Report
	)
	for _, id := range ids {
		if ctx.Err() != nil {
			break
		}
		g.Go(func() error {
			played, err := d.Download(ctx, id)
			if err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				log.Printf("[Replay] %s: %v", id, err)
				mu.Lock()
				total.Failed++
				mu.Unlock()
				return nil
			}
			rep, rows := Evaluate(played, e)

			mu.Lock()
			defer mu.Unlock()
			total.Add(rep)
			if onGame != nil {
				return onGame(played, rep, rows)
			}
			return nil
		})
	}
	err := g.Wait()
	return total, err
}
