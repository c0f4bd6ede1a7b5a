package engine

import (
	"math/rand"
	"sync"
	"testing"

	"github.com/finlayhlannon/Solo-snake/game"
)

func TestDecide_HeadsForFoodOnEmptyBoard(t *testing.T) {
	ts := mustTurn(t, soloState(11, 11, pts(5, 5, 5, 4), pts(5, 7), 100), 1)
	dec := New(DefaultWeights()).Decide(ts)
	logDecision(t, "food straight ahead", ts, dec)

	if dec.Move != game.Up {
		t.Fatalf("move=%s want up", dec.Move)
	}
	if len(dec.FoodPath) != 3 {
		t.Fatalf("food path=%v want 2 steps", dec.FoodPath)
	}
}

func TestDecide_AvoidsLeftWallWithNeckOnRight(t *testing.T) {
	w := DefaultWeights()
	ts := mustTurn(t, soloState(11, 11, pts(0, 5, 1, 5), nil, 100), 1)
	dec := New(w).Decide(ts)
	logDecision(t, "left wall", ts, dec)

	if dec.Move == game.Left {
		t.Fatalf("moved off the board")
	}
	for _, d := range []game.Direction{game.Up, game.Down} {
		if dec.Scores[game.Left] > dec.Scores[d]-w.BorderPenalty {
			t.Fatalf("left=%v not %v below %s=%v", dec.Scores[game.Left], w.BorderPenalty, d, dec.Scores[d])
		}
	}
	// Reversal onto the neck ranks below even the wall.
	if dec.Scores[game.Right] >= dec.Scores[game.Left] {
		t.Fatalf("right (neck)=%v should be below left=%v", dec.Scores[game.Right], dec.Scores[game.Left])
	}
}

func TestDecide_EncircledTakesOnlyExit(t *testing.T) {
	// Our body wraps the head on three sides; (5,6) above is the only open cell.
	body := pts(5, 5, 5, 4, 6, 4, 6, 5, 6, 6, 6, 7, 5, 7, 4, 7, 4, 6, 4, 5)
	for _, food := range [][]game.Point{nil, pts(0, 0), pts(10, 10), pts(3, 5), pts(5, 8), pts(7, 5)} {
		ts := mustTurn(t, soloState(11, 11, body, food, 90), 1)
		dec := New(DefaultWeights()).Decide(ts)
		logDecision(t, "encircled", ts, dec)

		if dec.Move != game.Up {
			t.Fatalf("food=%v move=%s want up", food, dec.Move)
		}
	}
}

func TestDecide_HeadOnEqualLengthAvoided(t *testing.T) {
	state := &game.GameState{
		Width:  11,
		Height: 11,
		YouId:  "a",
		Snakes: []game.Snake{
			{Id: "a", Health: 90, Body: pts(3, 5, 2, 5, 1, 5)},
			{Id: "b", Health: 90, Body: pts(5, 5, 6, 5, 7, 5)},
		},
	}
	e := New(DefaultWeights())

	tsA := mustTurn(t, state, 2)
	decA := e.Decide(tsA)
	logDecision(t, "snake a", tsA, decA)
	if decA.Move == game.Right {
		t.Fatalf("a walked into an equal head-on")
	}

	state.YouId = "b"
	tsB := mustTurn(t, state, 2)
	decB := e.Decide(tsB)
	logDecision(t, "snake b", tsB, decB)
	if decB.Move == game.Left {
		t.Fatalf("b walked into an equal head-on")
	}
}

func TestDecide_LongerSnakeDoesNotStepOntoNeck(t *testing.T) {
	state := &game.GameState{
		Width:  11,
		Height: 11,
		YouId:  "me",
		Snakes: []game.Snake{
			{Id: "me", Health: 90, Body: pts(5, 5, 5, 4, 5, 3, 5, 2, 5, 1)},
			{Id: "opp", Health: 90, Body: pts(7, 5, 6, 5, 6, 6)},
		},
	}
	ts := mustTurn(t, state, 2)
	dec := New(DefaultWeights()).Decide(ts)
	logDecision(t, "opponent neck between heads", ts, dec)

	if dec.Move != game.Up && dec.Move != game.Left {
		t.Fatalf("move=%s, want an open cell", dec.Move)
	}
	if dec.Scores[game.Right] >= dec.Scores[dec.Move] {
		t.Fatalf("right=%v not below %s=%v", dec.Scores[game.Right], dec.Move, dec.Scores[dec.Move])
	}
}

func TestDecide_IsDeterministic(t *testing.T) {
	state := &game.GameState{
		Width:  11,
		Height: 11,
		YouId:  "me",
		Snakes: []game.Snake{
			{Id: "me", Health: 40, Body: pts(4, 4, 4, 3, 3, 3, 2, 3)},
			{Id: "o1", Health: 70, Body: pts(7, 7, 7, 8, 8, 8)},
		},
		Food: pts(1, 9, 8, 2, 6, 6),
	}
	ts := mustTurn(t, state, 2)
	e := New(DefaultWeights())

	first := e.Decide(ts)
	for i := 0; i < 20; i++ {
		again := e.Decide(ts)
		if again.Move != first.Move || again.Scores != first.Scores {
			t.Fatalf("run %d: %s %v vs %s %v", i, again.Move, again.Scores, first.Move, first.Scores)
		}
	}
}

func TestDecide_AllTiedUsesPriorityOrder(t *testing.T) {
	// A lone head in the middle of an empty board scores zero everywhere.
	ts := mustTurn(t, soloState(11, 11, pts(5, 5), nil, 100), 1)
	dec := New(DefaultWeights()).Decide(ts)
	logDecision(t, "all tied", ts, dec)

	if dec.Scores != (Scores{}) {
		t.Fatalf("scores=%v want all zero", dec.Scores)
	}
	if dec.Move != game.TieBreakOrder[0] {
		t.Fatalf("move=%s want %s", dec.Move, game.TieBreakOrder[0])
	}
}

func TestScoresBest_TieBreak(t *testing.T) {
	cases := []struct {
		s    Scores
		want game.Direction
	}{
		{Scores{}, game.Right},
		{Scores{game.Up: 1, game.Down: 1}, game.Up},
		{Scores{game.Up: 3, game.Left: 3}, game.Left},
		{Scores{game.Down: 5}, game.Down},
		{Scores{-1, -1, -1, -1}, game.Right},
	}
	for _, c := range cases {
		if got := c.s.Best(); got != c.want {
			t.Errorf("Best(%v)=%s want %s", c.s, got, c.want)
		}
	}
}

func TestUniqueExtreme(t *testing.T) {
	more := func(a, b int) bool { return a > b }
	less := func(a, b int) bool { return a < b }

	cases := []struct {
		areas    [4]int
		max, min int // -1 when shared
	}{
		{[4]int{5, 5, 3, 1}, -1, int(game.Right)},
		{[4]int{3, 5, 5, 1}, -1, int(game.Right)},
		{[4]int{5, 3, 5, 7}, int(game.Right), int(game.Down)},
		{[4]int{0, 0, 0, 0}, -1, -1},
		{[4]int{9, 0, 0, 4}, int(game.Up), -1},
	}
	for _, c := range cases {
		d, ok := uniqueExtreme(c.areas, more)
		if got := direction(d, ok); got != c.max {
			t.Errorf("max(%v)=%d want %d", c.areas, got, c.max)
		}
		d, ok = uniqueExtreme(c.areas, less)
		if got := direction(d, ok); got != c.min {
			t.Errorf("min(%v)=%d want %d", c.areas, got, c.min)
		}
	}
}

func direction(d game.Direction, ok bool) int {
	if !ok {
		return -1
	}
	return int(d)
}

func TestDecide_FedFoodWeightSelectsPolicy(t *testing.T) {
	w := DefaultWeights()
	w.FedFoodWeight = -1

	fed := mustTurn(t, soloState(11, 11, pts(5, 5), pts(5, 7), 100), 1)
	if got := New(w).Move(fed); got == game.Up {
		t.Fatalf("fed snake with negative weight moved toward food")
	}

	hungry := mustTurn(t, soloState(11, 11, pts(5, 5), pts(5, 7), w.HungerThreshold), 1)
	if got := New(w).Move(hungry); got != game.Up {
		t.Fatalf("hungry move=%s want up", got)
	}
}

func TestDecide_PrefersOpenSpace(t *testing.T) {
	// Two opponents seal off a 4x3 pocket to our left; up leads to the rest
	// of the board.
	state := &game.GameState{
		Width:  11,
		Height: 5,
		YouId:  "me",
		Snakes: []game.Snake{
			{Id: "me", Health: 90, Body: pts(4, 2, 5, 2, 6, 2)},
			{Id: "w1", Health: 90, Body: pts(0, 3, 1, 3, 2, 3, 3, 3)},
			{Id: "w2", Health: 90, Body: pts(4, 1, 4, 0)},
		},
	}
	ts := mustTurn(t, state, 3)
	dec := New(DefaultWeights()).Decide(ts)
	logDecision(t, "open space", ts, dec)

	if dec.Areas[game.Left] != 12 {
		t.Fatalf("pocket area=%d want=12", dec.Areas[game.Left])
	}
	if dec.Areas[game.Up] <= dec.Areas[game.Left] {
		t.Fatalf("areas=%v want up larger than left", dec.Areas)
	}
	if dec.Move != game.Up {
		t.Fatalf("move=%s want up", dec.Move)
	}
}

// randomWalk builds a self-avoiding body of up to n segments starting at head.
func randomWalk(rng *rand.Rand, w, h int32, head game.Point, n int, taken map[game.Point]bool) []game.Point {
	body := []game.Point{head}
	taken[head] = true
	for len(body) < n {
		cur := body[len(body)-1]
		var opts []game.Point
		for _, d := range game.Directions {
			p := cur.Add(d)
			if p.X >= 0 && p.X < w && p.Y >= 0 && p.Y < h && !taken[p] {
				opts = append(opts, p)
			}
		}
		if len(opts) == 0 {
			break
		}
		p := opts[rng.Intn(len(opts))]
		taken[p] = true
		body = append(body, p)
	}
	return body
}

func randomState(rng *rand.Rand) *game.GameState {
	w, h := int32(5+rng.Intn(7)), int32(5+rng.Intn(7))
	taken := map[game.Point]bool{}
	state := &game.GameState{Width: w, Height: h, YouId: "me"}
	for i, id := range []string{"me", "o1", "o2"} {
		if i > 0 && rng.Intn(2) == 0 {
			continue
		}
		head := game.Point{X: int32(rng.Intn(int(w))), Y: int32(rng.Intn(int(h)))}
		if taken[head] {
			continue
		}
		body := randomWalk(rng, w, h, head, 2+rng.Intn(8), taken)
		state.Snakes = append(state.Snakes, game.Snake{Id: id, Health: int32(1 + rng.Intn(100)), Body: body})
	}
	for i := 0; i < 3; i++ {
		p := game.Point{X: int32(rng.Intn(int(w))), Y: int32(rng.Intn(int(h)))}
		if !taken[p] {
			taken[p] = true
			state.Food = append(state.Food, p)
		}
	}
	return state
}

func TestDecide_NeverReversesOntoNeck(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	e := New(DefaultWeights())

	checked := 0
	for i := 0; i < 500; i++ {
		state := randomState(rng)
		if state.Snake("me") == nil {
			continue
		}
		ts := mustTurn(t, state, 3)
		neck, ok := ts.You.Neck()
		if !ok {
			continue
		}
		back, _ := game.DirectionBetween(ts.You.Head(), neck)
		dec := e.Decide(ts)
		if dec.Move == back {
			logDecision(t, "reversed", ts, dec)
			t.Fatalf("state %d: moved back onto neck", i)
		}
		checked++
	}
	if checked == 0 {
		t.Fatalf("no states checked")
	}
}

func TestDecide_ConcurrentCallsMatchSequential(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	e := New(DefaultWeights())

	var turns []*game.TurnState
	for len(turns) < 64 {
		state := randomState(rng)
		if state.Snake("me") == nil {
			continue
		}
		turns = append(turns, mustTurn(t, state, 3))
	}

	want := make([]game.Direction, len(turns))
	for i, ts := range turns {
		want[i] = e.Move(ts)
	}

	got := make([]game.Direction, len(turns))
	var wg sync.WaitGroup
	for i := range turns {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			got[i] = e.Move(turns[i])
		}(i)
	}
	wg.Wait()

	for i := range turns {
		if got[i] != want[i] {
			t.Fatalf("turn %d: concurrent %s sequential %s", i, got[i], want[i])
		}
	}
}
