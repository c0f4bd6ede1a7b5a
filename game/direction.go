package game

import "fmt"

// Direction is one of the four moves. The numeric values match the
// policy encoding used in stored decision rows: 0=Up, 1=Down, 2=Left, 3=Right.
type Direction int

const (
	Up Direction = iota
	Down
	Left
	Right
)

// Directions lists every move in encoding order.
var Directions = [4]Direction{Up, Down, Left, Right}

// TieBreakOrder is the priority used when two or more moves score the same.
// Earlier entries win.
var TieBreakOrder = [4]Direction{Right, Left, Up, Down}

// Delta returns the unit step for d.
func (d Direction) Delta() (dx, dy int32) {
	switch d {
	case Up:
		return 0, 1
	case Down:
		return 0, -1
	case Left:
		return -1, 0
	case Right:
		return 1, 0
	}
	return 0, 0
}

// Opposite returns the move that undoes d.
func (d Direction) Opposite() Direction {
	switch d {
	case Up:
		return Down
	case Down:
		return Up
	case Left:
		return Right
	default:
		return Left
	}
}

// Perpendicular returns the two moves at right angles to d.
func (d Direction) Perpendicular() [2]Direction {
	if d == Up || d == Down {
		return [2]Direction{Left, Right}
	}
	return [2]Direction{Up, Down}
}

func (d Direction) String() string {
	switch d {
	case Up:
		return "up"
	case Down:
		return "down"
	case Left:
		return "left"
	case Right:
		return "right"
	default:
		return fmt.Sprintf("Direction(%d)", int(d))
	}
}

// ParseDirection maps the wire name of a move back to a Direction.
func ParseDirection(s string) (Direction, error) {
	switch s {
	case "up":
		return Up, nil
	case "down":
		return Down, nil
	case "left":
		return Left, nil
	case "right":
		return Right, nil
	}
	return Up, fmt.Errorf("unknown direction %q", s)
}

// DirectionBetween returns the move that takes from to the adjacent cell to.
func DirectionBetween(from, to Point) (Direction, bool) {
	for _, d := range Directions {
		if from.Add(d) == to {
			return d, true
		}
	}
	return Up, false
}
