package main

import (
	"context"

	"github.com/google/uuid"
	"github.com/mmadness/spread-pool/internal/pool"
	"github.com/mmadness/spread-pool/internal/store"
)

// The display layer never mutates domain entities: each game is paired with
// its computed live leader in an explicit view type.

type teamView struct {
	ID           uuid.UUID `json:"id"`
	Name         string    `json:"name"`
	Seed         *int      `json:"seed,omitempty"`
	CurrentOwner *string   `json:"current_owner,omitempty"`
}

type gameView struct {
	ID          uuid.UUID       `json:"id"`
	Round       pool.Round      `json:"round"`
	Region      *string         `json:"region,omitempty"`
	Status      pool.GameStatus `json:"status"`
	Team1       *teamView       `json:"team1,omitempty"`
	Team2       *teamView       `json:"team2,omitempty"`
	Team1Owner  *string         `json:"team1_owner,omitempty"`
	Team2Owner  *string         `json:"team2_owner,omitempty"`
	Team1Score  *int            `json:"team1_score,omitempty"`
	Team2Score  *int            `json:"team2_score,omitempty"`
	SpreadLabel string          `json:"spread_label,omitempty"`
	Winner      *string         `json:"winner,omitempty"`
	LiveLeader  *string         `json:"live_leader,omitempty"`
}

// bracketView groups games by region then round, mirroring how the bracket
// is read: four regional columns plus the cross-region finals.
type bracketView struct {
	Year    int                                  `json:"year"`
	Regions map[string]map[pool.Round][]gameView `json:"regions"`
}

type rosterView struct {
	Owner string     `json:"owner"`
	Teams []teamView `json:"teams"`
}

const crossRegionKey = "Final Four"

func buildBracketView(ctx context.Context, st *store.PoolStore, year int) (*bracketView, error) {
	games, err := st.ListGamesByYear(ctx, year)
	if err != nil {
		return nil, err
	}
	teams, err := st.ListTeamsByYear(ctx, year)
	if err != nil {
		return nil, err
	}
	participants, err := st.ListParticipants(ctx)
	if err != nil {
		return nil, err
	}

	teamByID := make(map[uuid.UUID]*pool.Team, len(teams))
	for i := range teams {
		teamByID[teams[i].ID] = &teams[i]
	}
	nameByID := make(map[uuid.UUID]string, len(participants))
	for _, p := range participants {
		nameByID[p.ID] = p.Name
	}

	view := &bracketView{
		Year:    year,
		Regions: make(map[string]map[pool.Round][]gameView),
	}

	for i := range games {
		g := &games[i]
		matchup := pool.Matchup{Game: g}
		if g.Team1ID != nil {
			matchup.Team1 = teamByID[*g.Team1ID]
		}
		if g.Team2ID != nil {
			matchup.Team2 = teamByID[*g.Team2ID]
		}

		gv := gameView{
			ID:         g.ID,
			Round:      g.Round,
			Region:     g.Region,
			Status:     g.Status,
			Team1:      toTeamView(matchup.Team1, nameByID),
			Team2:      toTeamView(matchup.Team2, nameByID),
			Team1Owner: ownerName(g.Team1OwnerID, nameByID),
			Team2Owner: ownerName(g.Team2OwnerID, nameByID),
			Team1Score: g.Team1Score,
			Team2Score: g.Team2Score,
		}

		if g.SpreadFavoriteTeamID != nil {
			gv.SpreadLabel = g.SpreadLabel(teamByID[*g.SpreadFavoriteTeamID])
		}
		if g.WinnerID != nil {
			if winner := teamByID[*g.WinnerID]; winner != nil {
				gv.Winner = &winner.Name
			}
		}
		gv.LiveLeader = ownerName(pool.LiveLeader(matchup), nameByID)

		regionKey := crossRegionKey
		if g.Region != nil {
			regionKey = *g.Region
		}
		if view.Regions[regionKey] == nil {
			view.Regions[regionKey] = make(map[pool.Round][]gameView)
		}
		view.Regions[regionKey][g.Round] = append(view.Regions[regionKey][g.Round], gv)
	}

	return view, nil
}

func buildStandings(ctx context.Context, st *store.PoolStore, year int) ([]rosterView, error) {
	teams, err := st.ListTeamsByYear(ctx, year)
	if err != nil {
		return nil, err
	}
	participants, err := st.ListParticipants(ctx)
	if err != nil {
		return nil, err
	}

	nameByID := make(map[uuid.UUID]string, len(participants))
	for _, p := range participants {
		nameByID[p.ID] = p.Name
	}

	byOwner := make(map[string][]teamView)
	for i := range teams {
		t := &teams[i]
		if t.CurrentOwnerID == nil {
			continue
		}
		owner := nameByID[*t.CurrentOwnerID]
		if tv := toTeamView(t, nameByID); tv != nil {
			byOwner[owner] = append(byOwner[owner], *tv)
		}
	}

	rosters := make([]rosterView, 0, len(participants))
	for _, p := range participants {
		rosters = append(rosters, rosterView{
			Owner: p.Name,
			Teams: byOwner[p.Name],
		})
	}
	return rosters, nil
}

func toTeamView(t *pool.Team, nameByID map[uuid.UUID]string) *teamView {
	if t == nil {
		return nil
	}
	return &teamView{
		ID:           t.ID,
		Name:         t.Name,
		Seed:         t.Seed,
		CurrentOwner: ownerName(t.CurrentOwnerID, nameByID),
	}
}

func ownerName(id *uuid.UUID, nameByID map[uuid.UUID]string) *string {
	if id == nil {
		return nil
	}
	name, ok := nameByID[*id]
	if !ok {
		return nil
	}
	return &name
}
