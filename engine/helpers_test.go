package engine

import (
	"strings"
	"testing"

	"github.com/finlayhlannon/Solo-snake/game"
)

// dumpState is a test helper to visualize board state.
// The controlled snake is drawn with Y (head) / y, others with A/a, B/b, ...
func dumpState(state *game.GameState) string {
	grid := make([][]byte, state.Height)
	for y := int32(0); y < state.Height; y++ {
		grid[y] = make([]byte, state.Width)
		for x := int32(0); x < state.Width; x++ {
			grid[y][x] = '.'
		}
	}
	for _, f := range state.Food {
		if state.InBounds(f) {
			grid[f.Y][f.X] = '*'
		}
	}
	other := byte('a')
	for _, s := range state.Snakes {
		sym := other
		if s.Id == state.YouId {
			sym = 'y'
		} else {
			other++
		}
		for j := len(s.Body) - 1; j >= 0; j-- {
			p := s.Body[j]
			if !state.InBounds(p) {
				continue
			}
			if j == 0 {
				grid[p.Y][p.X] = sym - 32 // uppercase head
			} else {
				grid[p.Y][p.X] = sym
			}
		}
	}
	var sb strings.Builder
	for y := state.Height - 1; y >= 0; y-- {
		sb.WriteString(string(grid[y]))
		sb.WriteByte('\n')
	}
	return sb.String()
}

func mustTurn(t *testing.T, state *game.GameState, startSnakes int) *game.TurnState {
	t.Helper()
	ts, err := game.NewTurnState(state, startSnakes)
	if err != nil {
		t.Fatalf("NewTurnState: %v", err)
	}
	return ts
}

func logDecision(t *testing.T, label string, ts *game.TurnState, dec Decision) {
	t.Helper()
	t.Logf("%s\n%s  move=%s scores[up=%.2f down=%.2f left=%.2f right=%.2f] areas=%v head_region=%d",
		label, dumpState(ts.State), dec.Move,
		dec.Scores[game.Up], dec.Scores[game.Down], dec.Scores[game.Left], dec.Scores[game.Right],
		dec.Areas, dec.HeadRegion)
}

func pts(xy ...int32) []game.Point {
	out := make([]game.Point, 0, len(xy)/2)
	for i := 0; i+1 < len(xy); i += 2 {
		out = append(out, game.Point{X: xy[i], Y: xy[i+1]})
	}
	return out
}

func soloState(w, h int32, body []game.Point, food []game.Point, health int32) *game.GameState {
	return &game.GameState{
		Width:  w,
		Height: h,
		YouId:  "me",
		Snakes: []game.Snake{{Id: "me", Health: health, Body: body}},
		Food:   food,
	}
}
