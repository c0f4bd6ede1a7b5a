// Package replay fetches recorded games from the Battlesnake engine and runs
// them back through the move engine.
package replay

import (
	"encoding/json"
	"fmt"

	"github.com/finlayhlannon/Solo-snake/game"
)

// GameEvent is one message of the engine's event stream.
type GameEvent struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// GameInfo is the payload of a "game_info" event.
type GameInfo struct {
	Game    GameDetails `json:"game"`
	Ruleset RulesetInfo `json:"ruleset"`
}

type GameDetails struct {
	ID      string `json:"id"`
	Width   int    `json:"width"`
	Height  int    `json:"height"`
	Timeout int    `json:"timeout"`
}

type RulesetInfo struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

// FrameData is the payload of a "frame" event.
type FrameData struct {
	Turn   int         `json:"turn"`
	Snakes []SnakeData `json:"snakes"`
	Food   []Coord     `json:"food"`
}

type SnakeData struct {
	ID     string  `json:"id"`
	Name   string  `json:"name"`
	Health int     `json:"health"`
	Body   []Coord `json:"body"`
	Author string  `json:"author,omitempty"`
	Death  *Death  `json:"death,omitempty"`
}

type Coord struct {
	X int `json:"x"`
	Y int `json:"y"`
}

type Death struct {
	Cause        string `json:"cause"`
	Turn         int    `json:"turn"`
	EliminatedBy string `json:"eliminatedBy,omitempty"`
}

// Game is a downloaded game with its frames in turn order.
type Game struct {
	ID      string
	Width   int32
	Height  int32
	Ruleset string
	Frames  []FrameData
	Winner  string
}

func (s SnakeData) alive() bool {
	return s.Death == nil && s.Health > 0 && len(s.Body) > 0
}

func (s SnakeData) snake() game.Snake {
	body := make([]game.Point, len(s.Body))
	for i, c := range s.Body {
		body[i] = game.Point{X: int32(c.X), Y: int32(c.Y)}
	}
	return game.Snake{Id: s.ID, Health: int32(s.Health), Body: body}
}

// AliveCount is the number of snakes still in play in f.
func (f FrameData) AliveCount() int {
	n := 0
	for _, s := range f.Snakes {
		if s.alive() {
			n++
		}
	}
	return n
}

// FrameState converts a frame into a GameState seen by egoID. Eliminated
// snakes are left out.
func FrameState(g *Game, f FrameData, egoID string) (*game.GameState, error) {
	if g.Width <= 0 || g.Height <= 0 {
		return nil, fmt.Errorf("game %s: unknown board size %dx%d", g.ID, g.Width, g.Height)
	}
	state := &game.GameState{
		Width:  g.Width,
		Height: g.Height,
		Turn:   int32(f.Turn),
		YouId:  egoID,
	}
	for _, c := range f.Food {
		state.Food = append(state.Food, game.Point{X: int32(c.X), Y: int32(c.Y)})
	}
	for _, s := range f.Snakes {
		if s.alive() {
			state.Snakes = append(state.Snakes, s.snake())
		}
	}
	return state, nil
}

// determineWinner returns the name (or id) of the only surviving snake in the
// final frame, or "draw".
func determineWinner(frame *FrameData) string {
	if frame == nil {
		return "unknown"
	}
	var alive []SnakeData
	for _, s := range frame.Snakes {
		if s.alive() {
			alive = append(alive, s)
		}
	}
	if len(alive) != 1 {
		return "draw"
	}
	if alive[0].Name == "" {
		return alive[0].ID
	}
	return alive[0].Name
}
