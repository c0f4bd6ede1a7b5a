package engine

import "github.com/finlayhlannon/Solo-snake/game"

// expansionOrder fixes which of several equally short paths ShortestPath
// returns: neighbours are enqueued +y, -y, +x, -x.
var expansionOrder = [4]game.Direction{game.Up, game.Down, game.Right, game.Left}

// ShortestPath runs a breadth-first search from start to the nearest target
// and returns the path, start and target included. start may be occupied (it
// is normally our head); every other cell on the path is free. The result is
// empty when no target is reachable.
func ShortestPath(g *Grid, start game.Point, targets []game.Point) []game.Point {
	if !g.InBounds(start) || len(targets) == 0 {
		return nil
	}

	size := g.width * g.height
	isTarget := make([]bool, size)
	for _, t := range targets {
		if g.InBounds(t) {
			isTarget[g.index(t)] = true
		}
	}

	parent := make([]int32, size)
	for i := range parent {
		parent[i] = -1
	}
	visited := make([]bool, size)

	startIdx := g.index(start)
	visited[startIdx] = true
	queue := make([]game.Point, 0, size)
	queue = append(queue, start)

	for head := 0; head < len(queue); head++ {
		cur := queue[head]
		curIdx := g.index(cur)
		if isTarget[curIdx] {
			return buildPath(g, parent, startIdx, curIdx)
		}

		for _, d := range expansionOrder {
			n := cur.Add(d)
			if g.Blocked(n) {
				continue
			}
			i := g.index(n)
			if visited[i] {
				continue
			}
			visited[i] = true
			parent[i] = int32(curIdx)
			queue = append(queue, n)
		}
	}
	return nil
}

func buildPath(g *Grid, parent []int32, startIdx, endIdx int) []game.Point {
	var rev []game.Point
	for i := endIdx; ; i = int(parent[i]) {
		rev = append(rev, game.Point{X: int32(i % g.width), Y: int32(i / g.width)})
		if i == startIdx {
			break
		}
	}
	path := make([]game.Point, len(rev))
	for i, p := range rev {
		path[len(rev)-1-i] = p
	}
	return path
}
