// Package engine picks one move per turn for the controlled snake.
//
// A decision builds one occupancy Grid, scores immediate threats, rewards the
// first step of the shortest path to food, and rewards or penalises each move
// by the open space it leads into. The highest total wins; ties go to
// game.TieBreakOrder.
//
// Engine holds only its Weights, so a single value can serve any number of
// concurrent games. Cross-turn memory (the snake count at game start) comes in
// through game.TurnState.
package engine

import (
	"math"

	"github.com/finlayhlannon/Solo-snake/game"
)

// Scores holds one accumulator per move, indexed by game.Direction.
type Scores [4]float64

// Best returns the highest scoring move, breaking ties by game.TieBreakOrder.
func (s Scores) Best() game.Direction {
	best := game.TieBreakOrder[0]
	for _, d := range game.TieBreakOrder[1:] {
		if s[d] > s[best] {
			best = d
		}
	}
	return best
}

// Decision is the chosen move plus the signals that produced it.
type Decision struct {
	Move       game.Direction
	Scores     Scores
	Areas      [4]int       // flood-fill area behind each candidate next head
	HeadRegion int          // open space around the current head
	FoodPath   []game.Point // head to nearest food; empty when none is reachable
}

type Engine struct {
	Weights Weights
}

func New(w Weights) Engine {
	return Engine{Weights: w}
}

// Decide scores the four moves for t and returns the best one. It never fails:
// a trapped snake still gets its least-bad move.
func (e Engine) Decide(t *game.TurnState) Decision {
	w := e.Weights
	grid := NewGrid(t, w.TailSlack)
	head := t.You.Head()

	dec := Decision{
		Scores:     Threats(t, w),
		HeadRegion: Region(grid, head),
	}

	// Food
	dec.FoodPath = ShortestPath(grid, head, t.State.Food)
	if len(dec.FoodPath) >= 2 {
		if d, ok := game.DirectionBetween(dec.FoodPath[0], dec.FoodPath[1]); ok {
			dist := float64(len(dec.FoodPath) - 1)
			dec.Scores[d] += w.FoodValue / dist * foodWeight(t.You.Health, w)
		}
	}

	// Mobility
	for _, d := range game.Directions {
		dec.Areas[d] = FloodFill(grid, head.Add(d))
	}
	bonus := w.MobilityBonus
	if dec.HeadRegion < t.You.Length() {
		bonus *= w.CrampedMultiplier
	}
	if d, ok := uniqueExtreme(dec.Areas, func(a, b int) bool { return a > b }); ok {
		dec.Scores[d] += bonus
	}
	if d, ok := uniqueExtreme(dec.Areas, func(a, b int) bool { return a < b }); ok {
		dec.Scores[d] -= bonus
	}

	guardNeck(t, &dec.Scores, w)

	dec.Move = dec.Scores.Best()
	return dec
}

// Move is Decide without the diagnostics.
func (e Engine) Move(t *game.TurnState) game.Direction {
	return e.Decide(t).Move
}

func foodWeight(health int32, w Weights) float64 {
	if health <= w.HungerThreshold {
		return w.HungryFoodWeight
	}
	return w.FedFoodWeight
}

// uniqueExtreme returns the move whose area beats every other under better.
// A shared extreme yields nothing.
func uniqueExtreme(areas [4]int, better func(a, b int) bool) (game.Direction, bool) {
	best := game.Directions[0]
	shared := false
	for _, d := range game.Directions[1:] {
		switch {
		case better(areas[d], areas[best]):
			best = d
			shared = false
		case areas[d] == areas[best]:
			shared = true
		}
	}
	return best, !shared
}

// guardNeck pushes the reversal move strictly below every other move, so no
// mix of bonuses can make turning back onto our own neck the winner.
func guardNeck(t *game.TurnState, s *Scores, w Weights) {
	neck, ok := t.You.Neck()
	if !ok {
		return
	}
	back, adjacent := game.DirectionBetween(t.You.Head(), neck)
	if !adjacent {
		return
	}
	lowest := math.Inf(1)
	for _, d := range game.Directions {
		if d != back && s[d] < lowest {
			lowest = s[d]
		}
	}
	if s[back] >= lowest {
		s[back] = lowest - w.NeckPenalty
	}
}
