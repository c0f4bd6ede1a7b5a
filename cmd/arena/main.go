// Command arena plays engine-vs-engine games locally and optionally records
// every decision to parquet.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"sync/atomic"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/finlayhlannon/Solo-snake/config"
	"github.com/finlayhlannon/Solo-snake/engine"
	"github.com/finlayhlannon/Solo-snake/game"
	"github.com/finlayhlannon/Solo-snake/selfplay"
	"github.com/finlayhlannon/Solo-snake/store"
)

var (
	totalTurns atomic.Int64
	lastBoard  atomic.Pointer[string]
)

func main() {
	games := flag.Int("games", config.Int("ARENA_GAMES", 100), "Number of games to play")
	workers := flag.Int("workers", config.Int("ARENA_WORKERS", 8), "Games played in parallel")
	snakes := flag.Int("snakes", 2, "Snakes per game (1-8)")
	width := flag.Int("width", 11, "Board width")
	height := flag.Int("height", 11, "Board height")
	maxTurns := flag.Int("max-turns", 1000, "Truncate games after this many turns")
	seed := flag.Int64("seed", 0, "Base seed; game i uses seed+i. 0 picks a random seed per game")
	outDir := flag.String("out-dir", config.String("RECORD_DIR", ""), "If set, write decision parquet batches here")
	flushRows := flag.Int("flush-rows", 20000, "Rows per parquet file")
	verbose := flag.Bool("verbose", false, "Print every board and move (use with -workers 1)")
	tui := flag.Bool("tui", false, "Show a live dashboard instead of log lines")

	// Odd-numbered snakes use the default weights, even-numbered ones the
	// challenger's. Leave the challenger flags alone for a mirror match.
	defaults := engine.DefaultWeights()
	chHunger := flag.Int("challenger-hunger-threshold", int(defaults.HungerThreshold), "Challenger hunger threshold")
	chFed := flag.Float64("challenger-fed-food-weight", defaults.FedFoodWeight, "Challenger food weight when healthy")
	chMobility := flag.Float64("challenger-mobility", defaults.MobilityBonus, "Challenger mobility bonus")
	chSlack := flag.Int("challenger-tail-slack", defaults.TailSlack, "Challenger tail slack")
	flag.Parse()

	challenger := defaults
	challenger.HungerThreshold = int32(*chHunger)
	challenger.FedFoodWeight = *chFed
	challenger.MobilityBonus = *chMobility
	challenger.TailSlack = *chSlack

	cfg := selfplay.DefaultConfig()
	cfg.Width = int32(*width)
	cfg.Height = int32(*height)
	cfg.Snakes = *snakes
	cfg.MaxTurns = *maxTurns
	cfg.Seed = *seed
	cfg.Verbose = *verbose && !*tui
	cfg.Weights = []engine.Weights{defaults, challenger}
	cfg.OnTurn = func(gameID string, state *game.GameState) {
		totalTurns.Add(1)
		if *tui {
			board := fmt.Sprintf("game %s turn %d\n%s", gameID[:8], state.Turn, selfplay.RenderBoard(state))
			lastBoard.Store(&board)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var rec *store.Recorder
	if *outDir != "" {
		var err error
		rec, err = store.NewRecorder(*outDir, *flushRows)
		if err != nil {
			log.Fatalf("Failed to open recorder: %v", err)
		}
	}

	updates := make(chan GameUpdate, *workers)
	var tally Tally
	onDone := func(out selfplay.Outcome) error {
		if rec != nil {
			if err := rec.Record(out.Rows...); err != nil {
				return err
			}
			rec.GameDone()
		}
		tally.Add(out.Result)
		u := GameUpdate{Result: out.Result, Rows: len(out.Rows)}
		if *tui {
			select {
			case updates <- u:
			default:
			}
		} else {
			log.Printf("Game %s: Winner %q, Turns %d, Truncated %v, Rows %d",
				u.Result.GameID[:8], u.Result.WinnerId, u.Result.Turns, u.Result.Truncated, u.Rows)
		}
		return nil
	}

	started := time.Now()
	log.Printf("Starting arena: %d games, %d workers, %d snakes on %dx%d", *games, *workers, *snakes, *width, *height)

	runErr := make(chan error, 1)
	go func() {
		runErr <- selfplay.RunGames(ctx, cfg, *games, *workers, onDone)
		close(updates)
	}()

	if *tui {
		p := tea.NewProgram(initialModel(updates, *games), tea.WithAltScreen())
		if _, err := p.Run(); err != nil {
			log.Printf("dashboard: %v", err)
		}
		// Quitting the dashboard stops the run.
		cancel()
	}

	err := <-runErr
	if err != nil && ctx.Err() == nil {
		log.Printf("Arena stopped: %v", err)
	}
	if rec != nil {
		if err := rec.Close(); err != nil {
			log.Printf("Parquet final flush failed: %v", err)
		} else {
			log.Printf("Parquet output: %d files, %d rows in %s", len(rec.Files()), rec.Rows(), *outDir)
		}
	}
	log.Printf("Done in %s: %s", time.Since(started).Round(time.Millisecond), tally.String())
}

type GameUpdate struct {
	Result selfplay.GameResult
	Rows   int
}

// Tally counts wins per weight set. Snake i+1 is driven by Weights[i%2].
type Tally struct {
	Games     int
	Draws     int
	Truncated int
	Turns     int
	Wins      [2]int
}

func (t *Tally) Add(r selfplay.GameResult) {
	t.Games++
	t.Turns += r.Turns
	switch {
	case r.Truncated:
		t.Truncated++
	case r.WinnerId == "":
		t.Draws++
	default:
		var n int
		if _, err := fmt.Sscanf(r.WinnerId, "snake%d", &n); err == nil && n > 0 {
			t.Wins[(n-1)%2]++
		}
	}
}

func (t Tally) String() string {
	avg := 0.0
	if t.Games > 0 {
		avg = float64(t.Turns) / float64(t.Games)
	}
	return fmt.Sprintf("games=%d default=%d challenger=%d draws=%d truncated=%d avg_turns=%.1f",
		t.Games, t.Wins[0], t.Wins[1], t.Draws, t.Truncated, avg)
}

type model struct {
	target      int
	tally       Tally
	turns       int64
	startTime   time.Time
	recentGames []string
	board       string
	done        bool
	updates     chan GameUpdate
}

func initialModel(updates chan GameUpdate, target int) model {
	return model{
		target:    target,
		startTime: time.Now(),
		updates:   updates,
	}
}

type TickMsg time.Time

type doneMsg struct{}

func tickCmd() tea.Cmd {
	return tea.Tick(time.Millisecond*100, func(t time.Time) tea.Msg {
		return TickMsg(t)
	})
}

func waitForUpdate(updates chan GameUpdate) tea.Cmd {
	return func() tea.Msg {
		u, ok := <-updates
		if !ok {
			return doneMsg{}
		}
		return u
	}
}

func (m model) Init() tea.Cmd {
	return tea.Batch(waitForUpdate(m.updates), tickCmd())
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "q" || msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
	case TickMsg:
		m.turns = totalTurns.Load()
		if b := lastBoard.Load(); b != nil {
			m.board = *b
		}
		return m, tickCmd()
	case GameUpdate:
		m.tally.Add(msg.Result)
		winner := msg.Result.WinnerId
		if winner == "" {
			winner = "-"
		}
		line := fmt.Sprintf("%s  winner %-7s turns %4d rows %d", msg.Result.GameID[:8], winner, msg.Result.Turns, msg.Rows)
		m.recentGames = append([]string{line}, m.recentGames...)
		if len(m.recentGames) > 10 {
			m.recentGames = m.recentGames[:10]
		}
		return m, waitForUpdate(m.updates)
	case doneMsg:
		m.done = true
		return m, nil
	}
	return m, nil
}

func (m model) View() string {
	duration := time.Since(m.startTime)
	turnsPerSec := 0.0
	if duration.Seconds() >= 1 {
		turnsPerSec = float64(m.turns) / duration.Seconds()
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Games:      %d / %d\n", m.tally.Games, m.target)
	fmt.Fprintf(&b, "Wins:       default %d  challenger %d  draws %d  truncated %d\n",
		m.tally.Wins[0], m.tally.Wins[1], m.tally.Draws, m.tally.Truncated)
	fmt.Fprintf(&b, "Turns:      %d (%.0f/s)\n", m.turns, turnsPerSec)
	fmt.Fprintf(&b, "Duration:   %s\n\n", duration.Round(time.Second))

	if m.board != "" {
		b.WriteString(m.board)
		b.WriteString("\n")
	}

	b.WriteString("Recent Games:\n")
	for _, g := range m.recentGames {
		b.WriteString(g + "\n")
	}

	if m.done {
		b.WriteString("\nAll games finished. Press q to exit.\n")
	} else {
		b.WriteString("\nPress q to quit.\n")
	}
	return b.String()
}
