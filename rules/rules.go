// Package rules advances a GameState by one turn with standard Battlesnake
// movement, feeding, and elimination. The move engine never calls it; it
// drives local self-play games and lets replays check whether a move was fatal.
package rules

import (
	"math/rand"

	"github.com/finlayhlannon/Solo-snake/game"
)

// Elimination causes, as reported by the official engine.
const (
	CauseWall        = "wall-collision"
	CauseSelf        = "snake-self-collision"
	CauseBody        = "snake-collision"
	CauseHeadToHead  = "head-collision"
	CauseStarvation  = "out-of-health"
	CauseMissingMove = "no-move"
)

const MaxHealth = 100

// Elimination records why a snake left the board.
type Elimination struct {
	Id    string
	Cause string
	By    string
}

// LegalMoves returns the moves that keep the snake on the board and off every
// body segment as currently placed. Tails are treated as solid.
func LegalMoves(state *game.GameState, id string) []game.Direction {
	you := state.Snake(id)
	if you == nil || you.Health <= 0 || len(you.Body) == 0 {
		return nil
	}

	head := you.Head()
	moves := make([]game.Direction, 0, 4)
	for _, d := range game.Directions {
		if isSafe(state, head.Add(d)) {
			moves = append(moves, d)
		}
	}
	return moves
}

func isSafe(state *game.GameState, p game.Point) bool {
	// 1. Check Bounds
	if !state.InBounds(p) {
		return false
	}

	// 2. Check Collisions with Snakes (neck included)
	for i := range state.Snakes {
		if state.Snakes[i].Occupies(p) {
			return false
		}
	}
	return true
}

// Step applies one simultaneous move for every snake and returns the new state
// along with the snakes eliminated this turn. A snake without an entry in
// moves is eliminated. The input state is not modified.
func Step(state *game.GameState, moves map[string]game.Direction, rng *rand.Rand, food FoodSettings) (*game.GameState, []Elimination) {
	next := state.Clone()
	next.Turn++
	var out []Elimination

	// 1. Snakes that sent no move are out
	moving := next.Snakes[:0]
	for _, s := range next.Snakes {
		if _, ok := moves[s.Id]; !ok {
			out = append(out, Elimination{Id: s.Id, Cause: CauseMissingMove})
			continue
		}
		moving = append(moving, s)
	}
	next.Snakes = moving

	// 2. Move: new head in front, tail drops off
	for i := range next.Snakes {
		s := &next.Snakes[i]
		newHead := s.Head().Add(moves[s.Id])
		s.Body = append([]game.Point{newHead}, s.Body[:len(s.Body)-1]...)
		s.Health--
	}

	// 3. Feed: a fed snake resets health and grows by repeating its tail
	remaining := make([]game.Point, 0, len(next.Food))
	for _, f := range next.Food {
		eaten := false
		for i := range next.Snakes {
			s := &next.Snakes[i]
			if s.Head() == f {
				eaten = true
				s.Health = MaxHealth
				s.Body = append(s.Body, s.Tail())
			}
		}
		if !eaten {
			remaining = append(remaining, f)
		}
	}
	next.Food = remaining

	// 4. Starvation and walls
	dead := make(map[string]Elimination)
	for i := range next.Snakes {
		s := &next.Snakes[i]
		switch {
		case s.Health <= 0:
			dead[s.Id] = Elimination{Id: s.Id, Cause: CauseStarvation}
		case !next.InBounds(s.Head()):
			dead[s.Id] = Elimination{Id: s.Id, Cause: CauseWall}
		}
	}

	// 5. Bodies, checked against every snake that survived step 4
	collided := make(map[string]Elimination)
	for i := range next.Snakes {
		s := &next.Snakes[i]
		if _, ok := dead[s.Id]; ok {
			continue
		}
		head := s.Head()
		for j := range next.Snakes {
			other := &next.Snakes[j]
			if _, ok := dead[other.Id]; ok {
				continue
			}
			for _, p := range other.Body[1:] {
				if p != head {
					continue
				}
				if other.Id == s.Id {
					collided[s.Id] = Elimination{Id: s.Id, Cause: CauseSelf, By: s.Id}
				} else {
					collided[s.Id] = Elimination{Id: s.Id, Cause: CauseBody, By: other.Id}
				}
			}
		}

		// 6. Head-to-head: the shorter snake loses, equal lengths both lose
		for j := range next.Snakes {
			other := &next.Snakes[j]
			if i == j || other.Head() != head {
				continue
			}
			if _, ok := dead[other.Id]; ok {
				continue
			}
			if s.Length() <= other.Length() {
				collided[s.Id] = Elimination{Id: s.Id, Cause: CauseHeadToHead, By: other.Id}
			}
		}
	}
	for id, e := range collided {
		dead[id] = e
	}

	// 7. Remove the dead, keeping board order stable
	alive := next.Snakes[:0]
	for _, s := range next.Snakes {
		if e, ok := dead[s.Id]; ok {
			out = append(out, e)
			continue
		}
		alive = append(alive, s)
	}
	next.Snakes = alive

	spawnFood(next, rng, food)
	return next, out
}

// IsGameOver reports whether at most one snake remains, or none when the game
// started with a single snake.
func IsGameOver(state *game.GameState, startSnakes int) bool {
	if startSnakes <= 1 {
		return len(state.Snakes) == 0
	}
	return len(state.Snakes) <= 1
}

// Winner returns the id of the last snake standing, or "" for a draw or a
// game still in progress.
func Winner(state *game.GameState) string {
	if len(state.Snakes) == 1 {
		return state.Snakes[0].Id
	}
	return ""
}
