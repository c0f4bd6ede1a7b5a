package game

import (
	"errors"
	"fmt"
)

// MaxBoardSide bounds each board axis. It keeps a hostile snapshot from
// sizing the engine's per-cell buffers.
const MaxBoardSide = 255

var (
	ErrBadDimensions = errors.New("board dimensions must be within 1..255")
	ErrEmptyBody     = errors.New("snake body is empty")
	ErrOutOfBounds   = errors.New("coordinate outside the board")
	ErrSelfOverlap   = errors.New("snake body overlaps itself")
	ErrMissingYou    = errors.New("controlled snake not on board")
	ErrDuplicateFood = errors.New("duplicate food")
	ErrSnakeCount    = errors.New("snake count exceeds count at game start")
	ErrBadHealth     = errors.New("health outside 0..100")
)

// TurnState is a validated snapshot plus the one piece of cross-turn memory
// the engine needs: how many snakes were on the board when the game began.
// Callers capture StartSnakeCount at /start and pass it into every turn.
type TurnState struct {
	State           *GameState
	You             Snake
	StartSnakeCount int
}

// NewTurnState validates state and binds it to the controlled snake named by
// state.YouId. The returned TurnState owns a deep copy of state.
func NewTurnState(state *GameState, startSnakeCount int) (*TurnState, error) {
	if state == nil {
		return nil, fmt.Errorf("nil game state")
	}
	if state.Width <= 0 || state.Height <= 0 || state.Width > MaxBoardSide || state.Height > MaxBoardSide {
		return nil, fmt.Errorf("%w: %dx%d", ErrBadDimensions, state.Width, state.Height)
	}

	seenFood := make(map[Point]struct{}, len(state.Food))
	for _, f := range state.Food {
		if !state.InBounds(f) {
			return nil, fmt.Errorf("food (%d,%d): %w", f.X, f.Y, ErrOutOfBounds)
		}
		if _, dup := seenFood[f]; dup {
			return nil, fmt.Errorf("food (%d,%d): %w", f.X, f.Y, ErrDuplicateFood)
		}
		seenFood[f] = struct{}{}
	}

	for i := range state.Snakes {
		s := &state.Snakes[i]
		if len(s.Body) == 0 {
			return nil, fmt.Errorf("snake %q: %w", s.Id, ErrEmptyBody)
		}
		if s.Health < 0 || s.Health > 100 {
			return nil, fmt.Errorf("snake %q health %d: %w", s.Id, s.Health, ErrBadHealth)
		}
		for _, p := range s.Body {
			if !state.InBounds(p) {
				return nil, fmt.Errorf("snake %q segment (%d,%d): %w", s.Id, p.X, p.Y, ErrOutOfBounds)
			}
		}
	}

	you := state.Snake(state.YouId)
	if you == nil {
		return nil, fmt.Errorf("%w: id %q", ErrMissingYou, state.YouId)
	}
	if err := checkSelfOverlap(you.Body); err != nil {
		return nil, fmt.Errorf("snake %q: %w", you.Id, err)
	}

	if startSnakeCount < 1 {
		startSnakeCount = len(state.Snakes)
	}
	if len(state.Snakes) > startSnakeCount {
		return nil, fmt.Errorf("%w: %d on board, %d at start", ErrSnakeCount, len(state.Snakes), startSnakeCount)
	}

	clone := state.Clone()
	return &TurnState{
		State:           clone,
		You:             *clone.Snake(clone.YouId),
		StartSnakeCount: startSnakeCount,
	}, nil
}

// checkSelfOverlap rejects bodies that revisit a cell, except for the stacked
// trailing segments a snake has right after spawning or eating.
func checkSelfOverlap(body []Point) error {
	seen := make(map[Point]int, len(body))
	for i, p := range body {
		if j, ok := seen[p]; ok {
			if j == i-1 && stackedToTail(body, j) {
				seen[p] = i
				continue
			}
			return fmt.Errorf("%w at (%d,%d)", ErrSelfOverlap, p.X, p.Y)
		}
		seen[p] = i
	}
	return nil
}

func stackedToTail(body []Point, from int) bool {
	for k := from + 1; k < len(body); k++ {
		if body[k] != body[from] {
			return false
		}
	}
	return true
}

// Opponents returns every snake on the board except the controlled one.
func (t *TurnState) Opponents() []Snake {
	out := make([]Snake, 0, len(t.State.Snakes))
	for _, s := range t.State.Snakes {
		if s.Id == t.You.Id {
			continue
		}
		out = append(out, s)
	}
	return out
}
