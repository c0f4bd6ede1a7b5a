package selfplay

import (
	"fmt"
	"strings"

	"github.com/finlayhlannon/Solo-snake/game"
)

// RenderBoard draws the board top row first. Heads are upper case, bodies
// lower case, one letter per snake in board order; F marks food.
func RenderBoard(state *game.GameState) string {
	grid := make([][]byte, state.Height)
	for y := range grid {
		grid[y] = []byte(strings.Repeat(".", int(state.Width)))
	}

	for _, f := range state.Food {
		if state.InBounds(f) {
			grid[f.Y][f.X] = 'F'
		}
	}

	for i, s := range state.Snakes {
		body := byte('a' + i%26)
		for j := len(s.Body) - 1; j >= 0; j-- {
			p := s.Body[j]
			if !state.InBounds(p) {
				continue
			}
			if j == 0 {
				grid[p.Y][p.X] = body - 'a' + 'A'
			} else {
				grid[p.Y][p.X] = body
			}
		}
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Turn %d\n", state.Turn)
	for y := state.Height - 1; y >= 0; y-- {
		for x := int32(0); x < state.Width; x++ {
			sb.WriteByte(grid[y][x])
			sb.WriteByte(' ')
		}
		sb.WriteByte('\n')
	}
	for i, s := range state.Snakes {
		fmt.Fprintf(&sb, "%c %s health=%d len=%d\n", 'A'+i%26, s.Id, s.Health, s.Length())
	}
	return sb.String()
}
