// Package server exposes the move engine over the Battlesnake webhook API.
package server

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/finlayhlannon/Solo-snake/engine"
	"github.com/finlayhlannon/Solo-snake/game"
	"github.com/finlayhlannon/Solo-snake/store"
)

// Recorder receives one row per answered move. store.Recorder implements it.
type Recorder interface {
	Record(rows ...store.DecisionRow) error
	GameDone()
}

type Config struct {
	Info     InfoResponse
	Logger   *slog.Logger
	Recorder Recorder // optional
	// GameTTL forgets games that have had no request for this long, for
	// games whose /end never arrives. Zero means DefaultGameTTL.
	GameTTL time.Duration
}

const DefaultGameTTL = time.Hour

func DefaultInfo() InfoResponse {
	return InfoResponse{
		APIVersion: "1",
		Author:     "Finlay",
		Color:      "#12A434",
		Head:       "lantern-fish",
		Tail:       "do-sammy",
		Version:    "1.0.0",
	}
}

// Server answers webhook calls for any number of concurrent games. The only
// per-game state it keeps is the snake count seen at /start.
type Server struct {
	engine   engine.Engine
	info     InfoResponse
	logger   *slog.Logger
	recorder Recorder
	ttl      time.Duration
	now      func() time.Time

	mu    sync.Mutex
	games map[string]gameEntry
}

type gameEntry struct {
	startSnakes int
	lastSeen    time.Time
}

func New(e engine.Engine, cfg Config) *Server {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	ttl := cfg.GameTTL
	if ttl <= 0 {
		ttl = DefaultGameTTL
	}
	return &Server{
		engine:   e,
		info:     cfg.Info,
		logger:   logger,
		recorder: cfg.Recorder,
		ttl:      ttl,
		now:      time.Now,
		games:    make(map[string]gameEntry),
	}
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("POST /start", s.handleStart)
	mux.HandleFunc("POST /move", s.handleMove)
	mux.HandleFunc("POST /end", s.handleEnd)
	return withServerHeader(mux)
}

func withServerHeader(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Server", "battlesnake/github/solo-snake")
		next.ServeHTTP(w, r)
	})
}

// ActiveGames is the number of games started and not yet ended.
func (s *Server) ActiveGames() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.games)
}

// startCount returns the snake count recorded for gameID and marks the game
// as active.
func (s *Server) startCount(gameID string) (int, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	g, ok := s.games[gameID]
	if ok {
		g.lastSeen = s.now()
		s.games[gameID] = g
	}
	return g.startSnakes, ok
}

// register records n as gameID's starting snake count and drops games idle
// for longer than the TTL.
func (s *Server) register(gameID string, n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	for id, g := range s.games {
		if now.Sub(g.lastSeen) > s.ttl {
			delete(s.games, id)
		}
	}
	s.games[gameID] = gameEntry{startSnakes: n, lastSeen: now}
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.info)
}

func (s *Server) handleStart(w http.ResponseWriter, r *http.Request) {
	req, ok := decode(w, r)
	if !ok {
		return
	}

	n := len(req.Board.Snakes)
	s.register(req.Game.ID, n)

	s.logger.Info("game started", "game", req.Game.ID, "ruleset", req.Game.Ruleset.Name, "snakes", n,
		"width", req.Board.Width, "height", req.Board.Height)
	w.WriteHeader(http.StatusOK)
}

func (s *Server) handleMove(w http.ResponseWriter, r *http.Request) {
	began := time.Now()
	req, ok := decode(w, r)
	if !ok {
		return
	}

	state, err := toGameState(req)
	if err != nil {
		s.logger.Warn("rejected snapshot", "game", req.Game.ID, "turn", req.Turn, "err", err)
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	start, known := s.startCount(req.Game.ID)
	if !known {
		start = len(state.Snakes)
	}

	ts, err := game.NewTurnState(state, start)
	if err != nil {
		s.logger.Warn("rejected snapshot", "game", req.Game.ID, "turn", req.Turn, "err", err)
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if !known {
		s.register(req.Game.ID, start)
		s.logger.Warn("move for unstarted game, using current snake count", "game", req.Game.ID, "snakes", start)
	}

	dec := s.engine.Decide(ts)
	elapsed := time.Since(began)
	s.logger.Debug("move", "game", req.Game.ID, "turn", req.Turn, "move", dec.Move.String(),
		"scores", dec.Scores[:], "elapsed", elapsed)

	if s.recorder != nil {
		row := store.NewDecisionRow(req.Game.ID, store.SourceServer, ts, dec, elapsed)
		if err := s.recorder.Record(row); err != nil {
			s.logger.Error("record decision", "game", req.Game.ID, "err", err)
		}
	}

	writeJSON(w, MoveResponse{
		Move:  dec.Move.String(),
		Shout: fmt.Sprintf("space %d", dec.Areas[dec.Move]),
	})
}

func (s *Server) handleEnd(w http.ResponseWriter, r *http.Request) {
	req, ok := decode(w, r)
	if !ok {
		return
	}

	s.mu.Lock()
	delete(s.games, req.Game.ID)
	s.mu.Unlock()
	if s.recorder != nil {
		s.recorder.GameDone()
	}

	result := "lost"
	for _, snake := range req.Board.Snakes {
		if snake.ID == req.You.ID {
			result = "won"
			break
		}
	}
	if len(req.Board.Snakes) == 0 {
		result = "draw"
	}
	s.logger.Info("game ended", "game", req.Game.ID, "turn", req.Turn, "result", result)
	w.WriteHeader(http.StatusOK)
}

func decode(w http.ResponseWriter, r *http.Request) (*GameRequest, bool) {
	var req GameRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, fmt.Sprintf("bad request body: %v", err), http.StatusBadRequest)
		return nil, false
	}
	return &req, true
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
