package engine

import "github.com/finlayhlannon/Solo-snake/game"

// Threats scores the immediate danger of each move from our current head.
// Every term is additive; nothing is carried over from earlier turns.
func Threats(t *game.TurnState, w Weights) Scores {
	var s Scores
	you := &t.You
	head := you.Head()
	board := t.State

	// 1. Reversal onto the neck
	if neck, ok := you.Neck(); ok {
		if d, adjacent := game.DirectionBetween(head, neck); adjacent {
			s[d] -= w.NeckPenalty
		}
	}

	for _, d := range game.Directions {
		next := head.Add(d)

		// 2. Board edges
		if !board.InBounds(next) {
			s[d] -= w.BorderPenalty
		}
		if edgeRoom(board, next, d) <= 0 {
			s[d] -= w.CloseBorderPenalty
		}

		// 3. Our own body
		if you.Occupies(next) {
			s[d] -= w.BodyCollisionPenalty
		}

		// 4. Cells two steps out that we would be boxing ourselves against
		s[d] -= w.TrappingPenalty * float64(trapCells(you, next, d))
	}

	if t.StartSnakeCount < 2 {
		return s
	}

	for _, opp := range t.Opponents() {
		if len(opp.Body) == 0 {
			continue
		}
		oppHead := opp.Head()
		for _, d := range game.Directions {
			next := head.Add(d)

			// 5. Opponent bodies
			if opp.Occupies(next) {
				s[d] -= w.BodyCollisionPenalty
			}

			// 6. Predicted head-on: both heads could enter next on the same turn.
			// A blocked next cell kills whoever enters it, so no contest there.
			if next.Add(d) == oppHead && !blocked(board, next) {
				if you.Length() <= opp.Length() {
					s[d] -= w.HeadOnPenalty
				} else {
					s[d] += w.HeadOnPenalty
				}
			}
		}
	}

	return s
}

// blocked reports whether p is off the board or under any snake's body.
func blocked(board *game.GameState, p game.Point) bool {
	if !board.InBounds(p) {
		return true
	}
	for i := range board.Snakes {
		if board.Snakes[i].Occupies(p) {
			return true
		}
	}
	return false
}

// edgeRoom is how many cells remain between p and the board edge when
// travelling in direction d. It is 0 on the edge and negative off the board.
func edgeRoom(board *game.GameState, p game.Point, d game.Direction) int32 {
	switch d {
	case game.Up:
		return board.Height - 1 - p.Y
	case game.Down:
		return p.Y
	case game.Left:
		return p.X
	default:
		return board.Width - 1 - p.X
	}
}

// trapCells counts our own segments straight ahead of next and diagonally
// beside it. The tail is exempt when we did not just eat, because it moves
// away on the same turn we arrive.
func trapCells(you *game.Snake, next game.Point, d game.Direction) int {
	perp := d.Perpendicular()
	around := [3]game.Point{next.Add(d), next.Add(perp[0]), next.Add(perp[1])}
	tail := you.Tail()
	tailMoves := you.Health < 100

	n := 0
	for _, c := range around {
		if c == tail && tailMoves && !tailStacked(you) {
			continue
		}
		for _, b := range you.Body[1:] {
			if b == c {
				n++
				break
			}
		}
	}
	return n
}

// tailStacked reports whether the last two segments share a cell; in that
// case the tail cell stays occupied next turn.
func tailStacked(you *game.Snake) bool {
	l := len(you.Body)
	return l >= 2 && you.Body[l-1] == you.Body[l-2]
}
