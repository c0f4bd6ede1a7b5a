// Package game defines the board snapshot types shared by the move engine,
// the local rules used for self-play, and the webhook transport.
//
// A GameState is a plain snapshot of one turn. The engine never reads a
// GameState directly; callers first validate it into a TurnState with
// NewTurnState.
package game

// Point is a board coordinate.
// Coordinates follow Battlesnake conventions: (0,0) is bottom-left.
type Point struct {
	X int32
	Y int32
}

// Add returns the cell one step from p in direction d.
func (p Point) Add(d Direction) Point {
	dx, dy := d.Delta()
	return Point{X: p.X + dx, Y: p.Y + dy}
}

// Manhattan returns the 4-directional distance between p and q.
func (p Point) Manhattan(q Point) int {
	dx := p.X - q.X
	if dx < 0 {
		dx = -dx
	}
	dy := p.Y - q.Y
	if dy < 0 {
		dy = -dy
	}
	return int(dx + dy)
}

type Snake struct {
	Id     string
	Health int32
	Body   []Point
}

// Head returns the first body segment. Body must be non-empty.
func (s *Snake) Head() Point { return s.Body[0] }

// Tail returns the last body segment. Body must be non-empty.
func (s *Snake) Tail() Point { return s.Body[len(s.Body)-1] }

// Neck returns the second body segment, if the snake has one.
func (s *Snake) Neck() (Point, bool) {
	if len(s.Body) < 2 {
		return Point{}, false
	}
	return s.Body[1], true
}

func (s *Snake) Length() int { return len(s.Body) }

// Occupies reports whether any segment of s sits on p.
func (s *Snake) Occupies(p Point) bool {
	for _, b := range s.Body {
		if b == p {
			return true
		}
	}
	return false
}

// GameState is one turn's board as reported by the game engine.
// YouId selects the snake the engine is deciding for.
type GameState struct {
	Width  int32
	Height int32
	Snakes []Snake
	Food   []Point
	YouId  string
	Turn   int32
}

// InBounds reports whether p lies on the board.
func (s *GameState) InBounds(p Point) bool {
	return p.X >= 0 && p.X < s.Width && p.Y >= 0 && p.Y < s.Height
}

// Snake returns the snake with the given id, or nil.
func (s *GameState) Snake(id string) *Snake {
	for i := range s.Snakes {
		if s.Snakes[i].Id == id {
			return &s.Snakes[i]
		}
	}
	return nil
}

// Clone performs a deep copy of the game state.
func (s *GameState) Clone() *GameState {
	if s == nil {
		return nil
	}

	out := &GameState{
		Width:  s.Width,
		Height: s.Height,
		YouId:  s.YouId,
		Turn:   s.Turn,
	}

	if len(s.Food) > 0 {
		out.Food = make([]Point, len(s.Food))
		copy(out.Food, s.Food)
	}

	if len(s.Snakes) > 0 {
		out.Snakes = make([]Snake, len(s.Snakes))
		for i := range s.Snakes {
			out.Snakes[i] = s.Snakes[i].clone()
		}
	}

	return out
}

func (s Snake) clone() Snake {
	out := Snake{Id: s.Id, Health: s.Health}
	if len(s.Body) > 0 {
		out.Body = make([]Point, len(s.Body))
		copy(out.Body, s.Body)
	}
	return out
}
