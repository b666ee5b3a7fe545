package provider

import (
	"context"
	"encoding/json"
	"math"
	"net/http"
	"net/url"
	"time"

	"github.com/mmadness/spread-pool/internal/fetch"
)

const oddsAPIURL = "https://api.the-odds-api.com/v4/sports/basketball_ncaab/odds"

// OddsAPISpreads fetches point spreads from The Odds API. Without an API key
// every fetch is an empty batch.
type OddsAPISpreads struct {
	client *http.Client
	url    string
	apiKey string
}

func NewOddsAPISpreads(apiKey string) *OddsAPISpreads {
	return &OddsAPISpreads{
		client: &http.Client{Timeout: 10 * time.Second},
		url:    oddsAPIURL,
		apiKey: apiKey,
	}
}

type oddsAPIGame struct {
	HomeTeam     string `json:"home_team"`
	AwayTeam     string `json:"away_team"`
	CommenceTime string `json:"commence_time"`
	Bookmakers   []struct {
		Markets []struct {
			Key      string `json:"key"`
			Outcomes []struct {
				Name  string   `json:"name"`
				Point *float64 `json:"point"`
			} `json:"outcomes"`
		} `json:"markets"`
	} `json:"bookmakers"`
}

// FetchSpreads returns normalized spread entries. The favorite is the
// outcome carrying a negative point value; the spread is its magnitude.
// Any provider failure degrades to an empty batch.
func (p *OddsAPISpreads) FetchSpreads(ctx context.Context) []fetch.SpreadEntry {
	if p.apiKey == "" {
		return nil
	}

	params := url.Values{
		"regions":    {"us"},
		"markets":    {"spreads"},
		"dateFormat": {"iso"},
		"oddsFormat": {"american"},
		"apiKey":     {p.apiKey},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.url+"?"+params.Encode(), nil)
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

	var games []oddsAPIGame
	if err := json.NewDecoder(resp.Body).Decode(&games); err != nil {
		return nil
	}

	var out []fetch.SpreadEntry
	for _, g := range games {
		if g.HomeTeam == "" || g.AwayTeam == "" {
			continue
		}

		favorite, spread := firstSpreadLine(g)
		if favorite == "" {
			continue
		}

		out = append(out, fetch.SpreadEntry{
			Home:     g.HomeTeam,
			Away:     g.AwayTeam,
			Favorite: favorite,
			Spread:   spread,
			TipISO:   g.CommenceTime,
		})
	}
	return out
}

// firstSpreadLine walks bookmakers in order and takes the first spreads
// market with a negative-point outcome.
func firstSpreadLine(g oddsAPIGame) (favorite string, spread float64) {
	for _, book := range g.Bookmakers {
		for _, market := range book.Markets {
			if market.Key != "spreads" {
				continue
			}
			for _, outcome := range market.Outcomes {
				if outcome.Point != nil && *outcome.Point < 0 && outcome.Name != "" {
					return outcome.Name, math.Abs(*outcome.Point)
				}
			}
		}
	}
	return "", 0
}
