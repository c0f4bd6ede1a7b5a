package replay

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"regexp"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"
)

type DiscoveryConfig struct {
	BaseURL      string   // site root that leaderboard hrefs are relative to
	Leaderboards []string // paths under BaseURL, e.g. /leaderboard/standard
	RequestDelay time.Duration
	MaxPlayers   int // per leaderboard, 0 = unlimited
}

func DefaultDiscoveryConfig() DiscoveryConfig {
	return DiscoveryConfig{
		BaseURL: "https://play.battlesnake.com",
		Leaderboards: []string{
			"/leaderboard/standard",
			"/leaderboard/standard-duels",
		},
		RequestDelay: 500 * time.Millisecond,
		MaxPlayers:   50,
	}
}

var (
	gameIDRe = regexp.MustCompile(`/game/([a-f0-9-]+)`)
	// /leaderboard/{arena}/{username}/stats
	playerRe = regexp.MustCompile(`/leaderboard/[^/]+/([^/]+)/stats`)
)

// Discoverer finds game IDs linked from leaderboard player pages.
type Discoverer struct {
	config DiscoveryConfig
	client *http.Client

	mu    sync.Mutex
	known map[string]bool
}

// NewDiscoverer skips every ID already in known. The map is copied.
func NewDiscoverer(config DiscoveryConfig, known map[string]bool) *Discoverer {
	k := make(map[string]bool, len(known))
	for id := range known {
		k[id] = true
	}
	return &Discoverer{
		config: config,
		client: &http.Client{Timeout: 30 * time.Second},
		known:  k,
	}
}

type player struct {
	username string
	statsURL string
}

// Discover crawls every configured leaderboard and sends each unseen game ID
// to out. It returns early only when ctx ends; page errors are logged and
// skipped.
func (d *Discoverer) Discover(ctx context.Context, out chan<- string) error {
	total := 0
	for _, board := range d.config.Leaderboards {
		players, err := d.leaderboardPlayers(ctx, board)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			log.Printf("[Discovery] leaderboard %s: %v", board, err)
			continue
		}
		if d.config.MaxPlayers > 0 && len(players) > d.config.MaxPlayers {
			players = players[:d.config.MaxPlayers]
		}
		log.Printf("[Discovery] %s: checking %d players", board, len(players))

		for _, p := range players {
			ids, err := d.playerGames(ctx, p.statsURL)
			if err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				log.Printf("[Discovery] games for %s: %v", p.username, err)
				continue
			}
			for _, id := range ids {
				if !d.markNew(id) {
					continue
				}
				select {
				case out <- id:
					total++
				case <-ctx.Done():
					return ctx.Err()
				}
			}

			if d.config.RequestDelay > 0 {
				select {
				case <-time.After(d.config.RequestDelay):
				case <-ctx.Done():
					return ctx.Err()
				}
			}
		}
	}
	log.Printf("[Discovery] done, %d new games", total)
	return nil
}

func (d *Discoverer) markNew(id string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.known[id] {
		return false
	}
	d.known[id] = true
	return true
}

func (d *Discoverer) fetch(ctx context.Context, rawURL string) (*goquery.Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", "solo-snake-replay/1.0")

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("GET %s: status %d", rawURL, resp.StatusCode)
	}
	return goquery.NewDocumentFromReader(resp.Body)
}

func (d *Discoverer) resolve(href string) (string, error) {
	base, err := url.Parse(d.config.BaseURL)
	if err != nil {
		return "", fmt.Errorf("base url: %w", err)
	}
	ref, err := url.Parse(href)
	if err != nil {
		return "", err
	}
	return base.ResolveReference(ref).String(), nil
}

func (d *Discoverer) leaderboardPlayers(ctx context.Context, board string) ([]player, error) {
	boardURL, err := d.resolve(board)
	if err != nil {
		return nil, err
	}
	doc, err := d.fetch(ctx, boardURL)
	if err != nil {
		return nil, err
	}

	var players []player
	seen := make(map[string]bool)
	doc.Find("a[href*='/leaderboard/']").Each(func(_ int, s *goquery.Selection) {
		href, ok := s.Attr("href")
		if !ok {
			return
		}
		m := playerRe.FindStringSubmatch(href)
		if len(m) < 2 || seen[m[1]] {
			return
		}
		statsURL, err := d.resolve(href)
		if err != nil {
			return
		}
		seen[m[1]] = true
		players = append(players, player{username: m[1], statsURL: statsURL})
	})
	return players, nil
}

func (d *Discoverer) playerGames(ctx context.Context, statsURL string) ([]string, error) {
	doc, err := d.fetch(ctx, statsURL)
	if err != nil {
		return nil, err
	}

	var ids []string
	seen := make(map[string]bool)
	doc.Find("a[href*='/game/']").Each(func(_ int, s *goquery.Selection) {
		href, ok := s.Attr("href")
		if !ok {
			return
		}
		if m := gameIDRe.FindStringSubmatch(href); len(m) >= 2 && !seen[m[1]] {
			seen[m[1]] = true
			ids = append(ids, m[1])
		}
	})
	return ids, nil
}
