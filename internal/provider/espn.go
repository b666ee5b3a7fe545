package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/mmadness/spread-pool/internal/fetch"
	"github.com/mmadness/spread-pool/internal/pool"
)

const espnScoreboardURL = "https://site.api.espn.com/apis/site/v2/sports/basketball/mens-college-basketball/scoreboard"

// ESPNScores fetches the men's college basketball scoreboard from ESPN's
// public JSON endpoint.
type ESPNScores struct {
	client *http.Client
	url    string
}

func NewESPNScores() *ESPNScores {
	return &ESPNScores{
		client: &http.Client{Timeout: 10 * time.Second},
		url:    espnScoreboardURL,
	}
}

type espnScoreboard struct {
	Events []struct {
		Competitions []struct {
			Competitors []struct {
				HomeAway string `json:"homeAway"`
				Score    string `json:"score"`
				Team     struct {
					DisplayName      string `json:"displayName"`
					ShortDisplayName string `json:"shortDisplayName"`
				} `json:"team"`
			} `json:"competitors"`
			Status struct {
				Type struct {
					Name string `json:"name"`
				} `json:"type"`
			} `json:"status"`
		} `json:"competitions"`
	} `json:"events"`
}

// FetchScores returns normalized score entries for a date (YYYY-MM-DD).
// Provider hiccups and shape drift degrade to an empty batch rather than an
// error; ingestion treats "nothing fetched" as a safe no-op.
func (p *ESPNScores) FetchScores(ctx context.Context, dateISO string) []fetch.ScoreEntry {
	ymd := strings.ReplaceAll(dateISO, "-", "")
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fmt.Sprintf("%s?dates=%s", p.url, ymd), nil)
	if err != nil {
		return nil
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return nil
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil
	}

	var board espnScoreboard
	if err := json.NewDecoder(resp.Body).Decode(&board); err != nil {
		return nil
	}

	var out []fetch.ScoreEntry
	for _, ev := range board.Events {
		if len(ev.Competitions) == 0 {
			continue
		}
		comp := ev.Competitions[0]

		var home, away *struct {
			name  string
			score *int
		}
		for _, c := range comp.Competitors {
			name := c.Team.ShortDisplayName
			if name == "" {
				name = c.Team.DisplayName
			}
			var score *int
			var n int
			if _, err := fmt.Sscanf(c.Score, "%d", &n); err == nil {
				score = &n
			}
			side := &struct {
				name  string
				score *int
			}{name: name, score: score}
			switch c.HomeAway {
			case "home":
				home = side
			case "away":
				away = side
			}
		}
		if home == nil || away == nil || home.name == "" || away.name == "" {
			continue
		}

		out = append(out, fetch.ScoreEntry{
			Team1:  home.name,
			Team2:  away.name,
			Score1: home.score,
			Score2: away.score,
			Status: normalizeESPNStatus(comp.Status.Type.Name),
		})
	}
	return out
}

func normalizeESPNStatus(name string) pool.GameStatus {
	upper := strings.ToUpper(name)
	switch {
	case strings.Contains(upper, "FINAL"):
		return pool.GameFinal
	case strings.Contains(upper, "IN_PROGRESS"):
		return pool.GameInProgress
	default:
		return pool.GameScheduled
	}
}
