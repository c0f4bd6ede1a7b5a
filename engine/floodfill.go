package engine

import "github.com/finlayhlannon/Solo-snake/game"

// FloodFill counts the free cells reachable from start with 4-directional
// moves. It returns 0 when start itself is blocked.
func FloodFill(g *Grid, start game.Point) int {
	if g.Blocked(start) {
		return 0
	}
	return fill(g, []game.Point{start})
}

// Region counts the free cells reachable from any free neighbour of origin.
// Origin itself is not counted and may be occupied, which makes Region the
// open-space estimate around a snake's current head.
func Region(g *Grid, origin game.Point) int {
	seeds := make([]game.Point, 0, 4)
	for _, d := range game.Directions {
		n := origin.Add(d)
		if !g.Blocked(n) {
			seeds = append(seeds, n)
		}
	}
	return fill(g, seeds)
}

// fill runs an iterative depth-first traversal from unblocked seeds.
// Each cell is visited at most once, so the stack never exceeds the board area.
func fill(g *Grid, seeds []game.Point) int {
	if len(seeds) == 0 {
		return 0
	}

	visited := make([]bool, g.width*g.height)
	stack := make([]game.Point, 0, 64)
	for _, s := range seeds {
		i := g.index(s)
		if visited[i] {
			continue
		}
		visited[i] = true
		stack = append(stack, s)
	}

	count := 0
	for len(stack) > 0 {
		p := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		count++

		for _, d := range game.Directions {
			n := p.Add(d)
			if g.Blocked(n) {
				continue
			}
			i := g.index(n)
			if visited[i] {
				continue
			}
			visited[i] = true
			stack = append(stack, n)
		}
	}
	return count
}
