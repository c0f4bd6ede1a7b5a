package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/finlayhlannon/Solo-snake/engine"
	"github.com/finlayhlannon/Solo-snake/game"
	"github.com/finlayhlannon/Solo-snake/logging"
	"github.com/finlayhlannon/Solo-snake/store"
)

type fakeRecorder struct {
	mu    sync.Mutex
	rows  []store.DecisionRow
	games int
}

func (f *fakeRecorder) Record(rows ...store.DecisionRow) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rows = append(f.rows, rows...)
	return nil
}

func (f *fakeRecorder) GameDone() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.games++
}

func (f *fakeRecorder) snapshot() ([]store.DecisionRow, int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]store.DecisionRow(nil), f.rows...), f.games
}

// lockedBuffer lets the test read logs written by handler goroutines.
type lockedBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *lockedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *lockedBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func snake(id string, health int, xy ...int) Battlesnake {
	s := Battlesnake{ID: id, Name: id, Health: health}
	for i := 0; i+1 < len(xy); i += 2 {
		s.Body = append(s.Body, Coord{X: xy[i], Y: xy[i+1]})
	}
	s.Head = s.Body[0]
	s.Length = len(s.Body)
	return s
}

func request(gameID string, turn int, you Battlesnake, others ...Battlesnake) GameRequest {
	return GameRequest{
		Game:  Game{ID: gameID, Ruleset: Ruleset{Name: "standard"}, Timeout: 500},
		Turn:  turn,
		Board: Board{Width: 11, Height: 11, Snakes: append([]Battlesnake{you}, others...)},
		You:   you,
	}
}

func newTurn(req *GameRequest) (*game.TurnState, error) {
	state, err := toGameState(req)
	if err != nil {
		return nil, err
	}
	return game.NewTurnState(state, len(req.Board.Snakes))
}

func newTestServer(t *testing.T, rec Recorder) (*Server, *httptest.Server, *lockedBuffer) {
	t.Helper()
	logs := &lockedBuffer{}
	logger := slog.New(logging.NewHandler(logs, &slog.HandlerOptions{Level: slog.LevelDebug}, false))
	s := New(engine.New(engine.DefaultWeights()), Config{Info: DefaultInfo(), Logger: logger, Recorder: rec})
	srv := httptest.NewServer(s.Handler())
	t.Cleanup(srv.Close)
	return s, srv, logs
}

func post(t *testing.T, srv *httptest.Server, path string, body any) *http.Response {
	t.Helper()
	var raw []byte
	switch b := body.(type) {
	case string:
		raw = []byte(b)
	default:
		var err error
		if raw, err = json.Marshal(b); err != nil {
			t.Fatalf("marshal: %v", err)
		}
	}
	resp, err := http.Post(srv.URL+path, "application/json", bytes.NewReader(raw))
	if err != nil {
		t.Fatalf("POST %s: %v", path, err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func moveOf(t *testing.T, resp *http.Response) MoveResponse {
	t.Helper()
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		t.Fatalf("status=%d body=%s", resp.StatusCode, body)
	}
	var mr MoveResponse
	if err := json.NewDecoder(resp.Body).Decode(&mr); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return mr
}

func TestIndex(t *testing.T) {
	_, srv, _ := newTestServer(t, nil)
	resp, err := http.Get(srv.URL + "/")
	if err != nil {
		t.Fatalf("GET /: %v", err)
	}
	defer resp.Body.Close()

	var info InfoResponse
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if info.APIVersion != "1" || info.Author == "" || info.Color == "" {
		t.Fatalf("info=%+v", info)
	}
	if resp.Header.Get("Server") == "" || resp.Header.Get("Content-Type") != "application/json" {
		t.Fatalf("headers=%v", resp.Header)
	}
}

func TestMove_HeadsForFood(t *testing.T) {
	_, srv, logs := newTestServer(t, nil)
	req := request("g1", 3, snake("me", 100, 5, 5, 5, 4))
	req.Board.Food = []Coord{{X: 5, Y: 7}}

	post(t, srv, "/start", req)
	if mr := moveOf(t, post(t, srv, "/move", req)); mr.Move != "up" {
		t.Fatalf("move=%q want up", mr.Move)
	}
	if !strings.Contains(logs.String(), `"msg":"move"`) {
		t.Fatalf("move not logged:\n%s", logs.String())
	}
}

func TestMove_BadRequests(t *testing.T) {
	_, srv, _ := newTestServer(t, nil)

	if resp := post(t, srv, "/move", "{not json"); resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("malformed json status=%d", resp.StatusCode)
	}

	req := request("g1", 0, snake("me", 100, 5, 5, 5, 4))
	req.Board.Width = 0
	if resp := post(t, srv, "/move", req); resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("zero width status=%d", resp.StatusCode)
	}

	req = request("g1", 0, snake("me", 100, 5, 5, 12, 4))
	if resp := post(t, srv, "/move", req); resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("off-board segment status=%d", resp.StatusCode)
	}

	req = request("g1", 0, Battlesnake{ID: "me", Health: 100})
	if resp := post(t, srv, "/move", req); resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("empty body status=%d", resp.StatusCode)
	}

	req = request("g1", 0, snake("me", 100, 5, 5, 5, 4))
	req.Board.Width, req.Board.Height = 1<<30, 1<<30
	if resp := post(t, srv, "/move", req); resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("huge board status=%d", resp.StatusCode)
	}

	// 4294967307 would wrap to 11 as an int32.
	req = request("g1", 0, snake("me", 100, 5, 5, 5, 4))
	req.Board.Width = 1<<32 + 11
	if resp := post(t, srv, "/move", req); resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("wrapping width status=%d", resp.StatusCode)
	}
	req = request("g1", 0, snake("me", 100, 1<<32+5, 5, 5, 4))
	if resp := post(t, srv, "/move", req); resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("wrapping segment status=%d", resp.StatusCode)
	}

	resp, err := http.Get(srv.URL + "/move")
	if err != nil {
		t.Fatalf("GET /move: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusMethodNotAllowed {
		t.Fatalf("GET /move status=%d", resp.StatusCode)
	}
}

func TestStartCountIsKeptPerGame(t *testing.T) {
	rec := &fakeRecorder{}
	s, srv, logs := newTestServer(t, rec)

	me := snake("me", 90, 1, 1, 1, 0)
	opp := snake("opp", 90, 8, 8, 8, 7)

	post(t, srv, "/start", request("duel", 0, me, opp))
	post(t, srv, "/start", request("solo", 0, me))
	if s.ActiveGames() != 2 {
		t.Fatalf("active=%d", s.ActiveGames())
	}

	// The opponent has gone; the duel still started with two.
	moveOf(t, post(t, srv, "/move", request("duel", 40, me)))
	moveOf(t, post(t, srv, "/move", request("solo", 40, me)))
	// Never started on this instance.
	moveOf(t, post(t, srv, "/move", request("late", 5, me, opp)))

	want := map[string]int32{"duel": 2, "solo": 1, "late": 2}
	rows, _ := rec.snapshot()
	if len(rows) != 3 {
		t.Fatalf("rows=%d", len(rows))
	}
	for _, r := range rows {
		if r.StartSnakes != want[r.GameID] || r.Source != store.SourceServer {
			t.Fatalf("row %s start=%d want %d", r.GameID, r.StartSnakes, want[r.GameID])
		}
	}
	if !strings.Contains(logs.String(), "unstarted game") {
		t.Fatalf("missing warn for unstarted game:\n%s", logs.String())
	}

	for _, id := range []string{"duel", "solo", "late"} {
		post(t, srv, "/end", request(id, 41, me))
	}
	if _, games := rec.snapshot(); s.ActiveGames() != 0 || games != 3 {
		t.Fatalf("active=%d games=%d", s.ActiveGames(), games)
	}
}

func TestRejectedMoveDoesNotRegisterGame(t *testing.T) {
	s, srv, _ := newTestServer(t, nil)

	bad := request("g1", 3, snake("me", 100, 5, 5, 5, 4))
	bad.Board.Width = 0
	if resp := post(t, srv, "/move", bad); resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status=%d", resp.StatusCode)
	}
	if s.ActiveGames() != 0 {
		t.Fatalf("rejected move registered a game")
	}

	moveOf(t, post(t, srv, "/move", request("g1", 4, snake("me", 100, 5, 5, 5, 4))))
	if s.ActiveGames() != 1 {
		t.Fatalf("active=%d", s.ActiveGames())
	}
}

func TestIdleGamesExpire(t *testing.T) {
	s, srv, _ := newTestServer(t, nil)
	now := time.Unix(1000, 0)
	s.mu.Lock()
	s.now = func() time.Time { return now }
	s.mu.Unlock()
	advance := func(d time.Duration) {
		s.mu.Lock()
		defer s.mu.Unlock()
		now = now.Add(d)
	}

	me := snake("me", 90, 1, 1, 1, 0)
	post(t, srv, "/start", request("abandoned", 0, me))
	post(t, srv, "/start", request("busy", 0, me))

	advance(DefaultGameTTL / 2)
	moveOf(t, post(t, srv, "/move", request("busy", 1, me)))

	// Only "busy" has been seen within the TTL when the next game starts.
	advance(DefaultGameTTL/2 + time.Minute)
	post(t, srv, "/start", request("fresh", 0, me))

	s.mu.Lock()
	_, abandoned := s.games["abandoned"]
	_, busy := s.games["busy"]
	s.mu.Unlock()
	if abandoned || !busy || s.ActiveGames() != 2 {
		t.Fatalf("abandoned=%v busy=%v active=%d", abandoned, busy, s.ActiveGames())
	}
}

func TestMove_ConcurrentGames(t *testing.T) {
	_, srv, _ := newTestServer(t, nil)
	e := engine.New(engine.DefaultWeights())

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id := fmt.Sprintf("g%d", i)
			x := i % 11
			req := request(id, 1, snake("me", 50, x, 5, x, 4), snake("o", 50, (x+5)%11, 9, (x+5)%11, 10))
			req.Board.Food = []Coord{{X: (x + 3) % 11, Y: 2}}

			raw, _ := json.Marshal(req)
			resp, err := http.Post(srv.URL+"/move", "application/json", bytes.NewReader(raw))
			if err != nil {
				t.Errorf("%s: %v", id, err)
				return
			}
			defer resp.Body.Close()
			var mr MoveResponse
			if err := json.NewDecoder(resp.Body).Decode(&mr); err != nil {
				t.Errorf("%s: decode: %v", id, err)
				return
			}

			ts, err := newTurn(&req)
			if err != nil {
				t.Errorf("%s: %v", id, err)
				return
			}
			if want := e.Move(ts).String(); mr.Move != want {
				t.Errorf("%s: move=%s want %s", id, mr.Move, want)
			}
		}(i)
	}
	wg.Wait()
}
