package engine

import "github.com/finlayhlannon/Solo-snake/game"

// Grid is the per-turn occupancy mask. It is built once per decision and is
// read-only afterwards, so every evaluator of that turn can share it.
type Grid struct {
	width  int
	height int
	cells  []bool
}

// NewGrid marks every opponent segment and our own body except the last
// tailSlack segments, which will most likely have moved away before a
// flood-fill lookahead reaches them. Head and neck are always marked.
func NewGrid(t *game.TurnState, tailSlack int) *Grid {
	g := &Grid{
		width:  int(t.State.Width),
		height: int(t.State.Height),
	}
	g.cells = make([]bool, g.width*g.height)

	for _, s := range t.State.Snakes {
		if s.Id == t.You.Id {
			continue
		}
		for _, p := range s.Body {
			g.mark(p)
		}
	}

	body := t.You.Body
	keep := len(body) - tailSlack
	if keep < 2 {
		keep = 2
	}
	if keep > len(body) {
		keep = len(body)
	}
	for _, p := range body[:keep] {
		g.mark(p)
	}

	return g
}

func (g *Grid) Width() int  { return g.width }
func (g *Grid) Height() int { return g.height }

func (g *Grid) InBounds(p game.Point) bool {
	return p.X >= 0 && int(p.X) < g.width && p.Y >= 0 && int(p.Y) < g.height
}

// Occupied reports whether p holds a marked segment. Off-board cells are not
// occupied; use Blocked for "cannot enter".
func (g *Grid) Occupied(p game.Point) bool {
	if !g.InBounds(p) {
		return false
	}
	return g.cells[g.index(p)]
}

// Blocked reports whether p is off the board or occupied.
func (g *Grid) Blocked(p game.Point) bool {
	return !g.InBounds(p) || g.cells[g.index(p)]
}

func (g *Grid) index(p game.Point) int {
	return int(p.Y)*g.width + int(p.X)
}

func (g *Grid) mark(p game.Point) {
	if g.InBounds(p) {
		g.cells[g.index(p)] = true
	}
}
