package service

import (
	"context"
	"fmt"
	"sort"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/mmadness/spread-pool/internal/pool"
	"github.com/mmadness/spread-pool/internal/store"
	"github.com/mmadness/spread-pool/internal/utils"
)

type BracketService struct {
	db    *sqlx.DB
	store *store.PoolStore
}

func NewBracketService(db *sqlx.DB, store *store.PoolStore) *BracketService {
	return &BracketService{db: db, store: store}
}

// TeamSeed is one bracket entrant. InitialOwnerID is set when the draft
// already happened at build time.
type TeamSeed struct {
	Name           string
	Seed           int
	Region         string
	InitialOwnerID *uuid.UUID
}

// firstRoundPairs is the standard reseeding table: round-of-64 matchups by
// seed within a region, in bracket order.
var firstRoundPairs = [8][2]int{
	{1, 16}, {8, 9}, {5, 12}, {4, 13}, {6, 11}, {3, 14}, {7, 10}, {2, 15},
}

const (
	regionCount    = 4
	seedsPerRegion = 16
)

// validateSeeds requires exactly four regions, each covering seed lines 1-16.
// A seed line carrying two teams is a First Four play-in; no line may carry
// more than two. It runs before any write so a bad input leaves the store
// untouched.
func validateSeeds(seeds []TeamSeed) ([]string, error) {
	if len(seeds) < regionCount*seedsPerRegion {
		return nil, fmt.Errorf("expected at least %d teams, got %d", regionCount*seedsPerRegion, len(seeds))
	}

	seen := make(map[string]map[int]int)
	for _, ts := range seeds {
		if ts.Seed < 1 || ts.Seed > seedsPerRegion {
			return nil, fmt.Errorf("team %q has seed %d, want 1-%d", ts.Name, ts.Seed, seedsPerRegion)
		}
		if ts.Region == "" {
			return nil, fmt.Errorf("team %q has no region", ts.Name)
		}
		if seen[ts.Region] == nil {
			seen[ts.Region] = make(map[int]int)
		}
		seen[ts.Region][ts.Seed]++
		if seen[ts.Region][ts.Seed] > 2 {
			return nil, fmt.Errorf("region %q has seed %d more than twice", ts.Region, ts.Seed)
		}
	}

	if len(seen) != regionCount {
		return nil, fmt.Errorf("expected %d regions, got %d", regionCount, len(seen))
	}

	regions := make([]string, 0, regionCount)
	for r, seedLines := range seen {
		if len(seedLines) != seedsPerRegion {
			return nil, fmt.Errorf("region %q covers %d seed lines, want %d", r, len(seedLines), seedsPerRegion)
		}
		regions = append(regions, r)
	}
	// Region order drives Final Four pairing; sort so the same input always
	// produces the same graph
	sort.Strings(regions)
	return regions, nil
}

// BuildBracket constructs the full single-elimination graph for a year: 63
// games from the round of 64 through the championship, plus one First Four
// game per doubled seed line, with next-game linkage fully wired before any
// team is placed. Any existing bracket for the year is replaced in the same
// transaction.
func (s *BracketService) BuildBracket(ctx context.Context, year int, seeds []TeamSeed) error {
	regions, err := validateSeeds(seeds)
	if err != nil {
		return fmt.Errorf("invalid bracket input: %w", err)
	}

	teams := make([]pool.Team, 0, len(seeds))
	teamBySeed := make(map[string]map[int][]*pool.Team)
	for _, ts := range seeds {
		team := pool.Team{
			ID:             uuid.New(),
			Name:           ts.Name,
			Seed:           utils.Ptr(ts.Seed),
			Region:         utils.Ptr(ts.Region),
			Year:           year,
			InitialOwnerID: ts.InitialOwnerID,
			CurrentOwnerID: ts.InitialOwnerID,
		}
		teams = append(teams, team)
		if teamBySeed[ts.Region] == nil {
			teamBySeed[ts.Region] = make(map[int][]*pool.Team)
		}
		teamBySeed[ts.Region][ts.Seed] = append(teamBySeed[ts.Region][ts.Seed], &teams[len(teams)-1])
	}

	games := buildGameGraph(year, regions, teamBySeed)

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := s.store.DeleteYear(ctx, tx, year); err != nil {
		return fmt.Errorf("failed to clear existing bracket: %w", err)
	}
	if err := s.store.CreateTeams(ctx, tx, teams); err != nil {
		return fmt.Errorf("failed to create teams: %w", err)
	}
	if err := s.store.CreateGames(ctx, tx, games); err != nil {
		return fmt.Errorf("failed to create games: %w", err)
	}

	return tx.Commit()
}

// buildGameGraph creates game shells from the championship backwards so each
// round can link into the one above it, then seeds the round of 64. A seed
// line with two entrants gets a First Four game whose winner fills that
// line's round-of-64 slot; the slot itself stays empty until propagation.
func buildGameGraph(year int, regions []string, teamBySeed map[string]map[int][]*pool.Team) []pool.Game {
	playIns := 0
	for _, seedLines := range teamBySeed {
		for _, entrants := range seedLines {
			if len(entrants) == 2 {
				playIns++
			}
		}
	}

	// Full capacity up front: newGame hands out pointers into the slice, so
	// the backing array must never move
	games := make([]pool.Game, 0, regionCount*seedsPerRegion-1+playIns)

	newGame := func(round pool.Round, region *string) *pool.Game {
		games = append(games, pool.Game{
			ID:     uuid.New(),
			Year:   year,
			Round:  round,
			Region: region,
			Status: pool.GameScheduled,
		})
		return &games[len(games)-1]
	}

	link := func(g *pool.Game, next *pool.Game, slot int) {
		g.NextGameID = &next.ID
		g.NextGameSlot = utils.Ptr(slot)
	}

	championship := newGame(pool.Round2, nil)

	finalFour := make([]*pool.Game, 2)
	for i := range finalFour {
		finalFour[i] = newGame(pool.Round4, nil)
		link(finalFour[i], championship, i+1)
	}

	for ri, region := range regions {
		regionPtr := utils.Ptr(region)

		// Elite Eight: one game per region, feeding the Final Four in
		// region order (regions 0,1 -> semifinal 1; regions 2,3 -> 2)
		elite := newGame(pool.Round8, regionPtr)
		link(elite, finalFour[ri/2], ri%2+1)

		// Regional rounds of 16 and 32: adjacent pairs feed one game up,
		// alternating slots
		prev := []*pool.Game{elite}
		for _, round := range []pool.Round{pool.Round16, pool.Round32, pool.Round64} {
			current := make([]*pool.Game, len(prev)*2)
			for i := range current {
				current[i] = newGame(round, regionPtr)
				link(current[i], prev[i/2], i%2+1)
			}
			prev = current
		}

		// prev now holds the eight round-of-64 games in bracket order;
		// place teams using the reseeding pairs and stamp owners-of-record
		// from the draft when it happened. A doubled seed line becomes a
		// First Four game feeding this slot instead of a direct placement.
		for i, pair := range firstRoundPairs {
			g := prev[i]
			for side, seedLine := range pair {
				slot := side + 1
				entrants := teamBySeed[region][seedLine]
				if len(entrants) == 1 {
					placeTeam(g, slot, entrants[0])
					continue
				}
				playIn := newGame(pool.RoundFirstFour, regionPtr)
				link(playIn, g, slot)
				placeTeam(playIn, 1, entrants[0])
				placeTeam(playIn, 2, entrants[1])
			}
		}
	}

	return games
}

func placeTeam(g *pool.Game, slot int, team *pool.Team) {
	if slot == 1 {
		g.Team1ID = &team.ID
		g.Team1OwnerID = team.InitialOwnerID
		return
	}
	g.Team2ID = &team.ID
	g.Team2OwnerID = team.InitialOwnerID
}
