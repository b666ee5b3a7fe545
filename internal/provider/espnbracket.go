package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/mmadness/spread-pool/internal/service"
)

const espnBracketURL = "https://fantasy.espn.com/tournament-challenge-bracket"

// ESPNBracket fetches the tournament field from ESPN's Tournament Challenge
// JSON endpoint.
type ESPNBracket struct {
	client *http.Client
	url    string
}

func NewESPNBracket() *ESPNBracket {
	return &ESPNBracket{
		client: &http.Client{Timeout: 10 * time.Second},
		url:    espnBracketURL,
	}
}

type espnTournament struct {
	Rounds []struct {
		Round int `json:"round"`
		Games []struct {
			Seeds []int `json:"seeds"`
			Teams []struct {
				Name        string `json:"name"`
				DisplayName string `json:"displayName"`
				Region      string `json:"region"`
			} `json:"teams"`
		} `json:"games"`
	} `json:"rounds"`
}

// FetchBracket returns the year's field as seed entries, one per team. A
// seed line carried by two teams marks a First Four play-in; the bracket
// builder turns it into a play-in game. Provider hiccups and shape drift
// degrade to an empty batch rather than an error.
func (p *ESPNBracket) FetchBracket(ctx context.Context, year int) []service.TeamSeed {
	url := fmt.Sprintf("%s/%d/en/api/tournament", p.url, year)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
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

	var feed espnTournament
	if err := json.NewDecoder(resp.Body).Decode(&feed); err != nil {
		return nil
	}

	seen := make(map[string]bool)
	var out []service.TeamSeed
	for _, round := range feed.Rounds {
		// Round 0 is the First Four, round 1 the round of 64; together they
		// name every entrant. Later rounds only echo advancing teams.
		if round.Round > 1 {
			continue
		}
		for _, g := range round.Games {
			for i, t := range g.Teams {
				name := t.Name
				if name == "" {
					name = t.DisplayName
				}
				if name == "" || seen[name] {
					continue
				}
				if i >= len(g.Seeds) || t.Region == "" {
					continue
				}
				seen[name] = true
				out = append(out, service.TeamSeed{
					Name:   name,
					Seed:   g.Seeds[i],
					Region: t.Region,
				})
			}
		}
	}
	return out
}
