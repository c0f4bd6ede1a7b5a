package replay

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sort"
	"time"

	"github.com/gorilla/websocket"
)

type DownloaderConfig struct {
	EngineURL      string // websocket URL template taking the game ID
	ConnectTimeout time.Duration
	ReadTimeout    time.Duration
}

func DefaultDownloaderConfig() DownloaderConfig {
	return DownloaderConfig{
		EngineURL:      "wss://engine.battlesnake.com/games/%s/events",
		ConnectTimeout: 10 * time.Second,
		ReadTimeout:    30 * time.Second,
	}
}

type Downloader struct {
	config DownloaderConfig
	dialer websocket.Dialer
}

func NewDownloader(config DownloaderConfig) *Downloader {
	return &Downloader{
		config: config,
		dialer: websocket.Dialer{HandshakeTimeout: config.ConnectTimeout},
	}
}

// Download reads the event stream of gameID until game_end or the server
// closes the connection. A stream cut short after at least one frame still
// returns what was received.
func (d *Downloader) Download(ctx context.Context, gameID string) (*Game, error) {
	url := fmt.Sprintf(d.config.EngineURL, gameID)
	conn, _, err := d.dialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("connect %s: %w", gameID, err)
	}
	defer conn.Close()

	// Unblock ReadMessage when the caller gives up.
	stop := context.AfterFunc(ctx, func() { _ = conn.Close() })
	defer stop()

	g := &Game{ID: gameID}
	var info GameInfo

read:
	for {
		if d.config.ReadTimeout > 0 {
			_ = conn.SetReadDeadline(time.Now().Add(d.config.ReadTimeout))
		}
		_, message, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) || len(g.Frames) > 0 {
				break
			}
			return nil, fmt.Errorf("read %s: %w", gameID, err)
		}

		var event GameEvent
		if err := json.Unmarshal(message, &event); err != nil {
			log.Printf("[Replay] %s: bad event: %v", gameID, err)
			continue
		}

		switch event.Type {
		case "game_info":
			if err := json.Unmarshal(event.Data, &info); err != nil {
				log.Printf("[Replay] %s: bad game_info: %v", gameID, err)
			}
		case "frame":
			var frame FrameData
			if err := json.Unmarshal(event.Data, &frame); err != nil {
				log.Printf("[Replay] %s: bad frame: %v", gameID, err)
				continue
			}
			g.Frames = append(g.Frames, frame)
		case "game_end":
			break read
		}
	}

	if len(g.Frames) == 0 {
		return nil, fmt.Errorf("game %s: no frames", gameID)
	}
	sort.SliceStable(g.Frames, func(i, j int) bool { return g.Frames[i].Turn < g.Frames[j].Turn })

	g.Width = int32(info.Game.Width)
	g.Height = int32(info.Game.Height)
	g.Ruleset = info.Ruleset.Name
	g.Winner = determineWinner(&g.Frames[len(g.Frames)-1])
	return g, nil
}
