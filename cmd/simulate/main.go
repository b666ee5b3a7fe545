// Command simulate plays out tournament games with randomized scores so
// bracket progression and ownership transfer can be exercised without live
// data. It can also seed a demo pool (participants plus a full bracket).
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"os"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/mmadness/spread-pool/internal/config"
	"github.com/mmadness/spread-pool/internal/db"
	"github.com/mmadness/spread-pool/internal/pool"
	"github.com/mmadness/spread-pool/internal/service"
	"github.com/mmadness/spread-pool/internal/store"
	"github.com/mmadness/spread-pool/internal/utils"
)

var simRounds = []pool.Round{pool.RoundFirstFour, pool.Round64, pool.Round32, pool.Round16, pool.Round8, pool.Round4, pool.Round2}

type simulator struct {
	store *store.PoolStore
	games *service.GameService
}

// realisticScore is in the range most college games land in.
func realisticScore() int {
	return 55 + rand.Intn(36)
}

// simulateGame stamps owners-of-record, invents a line when the game has
// none, writes a final score and runs adjudication. Returns false when the
// game cannot be played yet.
func (s *simulator) simulateGame(ctx context.Context, gameID uuid.UUID) (bool, error) {
	game, err := s.store.GetGame(ctx, gameID)
	if err != nil {
		return false, err
	}
	if game.Status == pool.GameFinal {
		fmt.Printf("game %s is already Final\n", gameID)
		return false, nil
	}
	if game.Team1ID == nil || game.Team2ID == nil {
		fmt.Printf("game %s does not have both teams yet\n", gameID)
		return false, nil
	}

	team1, err := s.store.GetTeam(ctx, *game.Team1ID)
	if err != nil {
		return false, err
	}
	team2, err := s.store.GetTeam(ctx, *game.Team2ID)
	if err != nil {
		return false, err
	}

	// Owners-of-record must reflect who holds each team when the game is
	// played, not when it is finalized.
	if game.Team1OwnerID == nil {
		game.Team1OwnerID = team1.CurrentOwnerID
	}
	if game.Team2OwnerID == nil {
		game.Team2OwnerID = team2.CurrentOwnerID
	}

	if game.IsPickem() {
		s.inventSpread(game, team1, team2)
	}

	score1, score2 := realisticScore(), realisticScore()
	for score1 == score2 {
		score2 = realisticScore()
	}

	// Lower seed wins about 65% of the time.
	seed1, seed2 := utils.OrZero(team1.Seed), utils.OrZero(team2.Seed)
	if seed1 < seed2 && rand.Float64() > 0.35 && score2 > score1 {
		score1, score2 = score2, score1
	} else if seed2 < seed1 && rand.Float64() > 0.35 && score1 > score2 {
		score1, score2 = score2, score1
	}

	game.Team1Score = &score1
	game.Team2Score = &score2
	game.Status = pool.GameFinal
	if err := s.store.UpdateGame(ctx, game); err != nil {
		return false, err
	}

	teamWinner, ownerWinner, err := s.games.FinalizeGame(ctx, game.ID)
	if err != nil {
		return false, err
	}

	upset := ""
	loserSeed := seed2
	if teamWinner.ID == team2.ID {
		loserSeed = seed1
	}
	if utils.OrZero(teamWinner.Seed) > loserSeed {
		upset = "  UPSET!"
	}

	fmt.Printf("%s %d - %d %s%s\n", team1.Name, score1, score2, team2.Name, upset)
	fmt.Printf("  winner: %s (seed %d)\n", teamWinner.Name, utils.OrZero(teamWinner.Seed))
	ownerName := "unowned"
	if ownerWinner != nil {
		ownerName = ownerWinner.Name
	}
	fmt.Printf("  owner winner vs spread: %s\n", ownerName)
	return true, nil
}

// inventSpread favors the lower seed by 1.5 points per seed line, capped at
// 15. Equal seeds stay a pick'em.
func (s *simulator) inventSpread(game *pool.Game, team1, team2 *pool.Team) {
	seed1, seed2 := utils.OrZero(team1.Seed), utils.OrZero(team2.Seed)
	switch {
	case seed1 < seed2:
		game.Spread = utils.Ptr(min(float64(seed2-seed1)*1.5, 15.0))
		game.SpreadFavoriteTeamID = &team1.ID
	case seed2 < seed1:
		game.Spread = utils.Ptr(min(float64(seed1-seed2)*1.5, 15.0))
		game.SpreadFavoriteTeamID = &team2.ID
	default:
		game.Spread = utils.Ptr(0.0)
		game.SpreadFavoriteTeamID = &team1.ID
	}
	if game.SpreadFavoriteTeamID != nil && *game.SpreadFavoriteTeamID == team1.ID {
		fmt.Printf("set spread: %s\n", game.SpreadLabel(team1))
	} else {
		fmt.Printf("set spread: %s\n", game.SpreadLabel(team2))
	}
}

func (s *simulator) simulateRound(ctx context.Context, year int, round pool.Round) (int, error) {
	games, err := s.store.ListGamesByRound(ctx, year, round, pool.GameScheduled)
	if err != nil {
		return 0, err
	}
	if len(games) == 0 {
		fmt.Printf("no scheduled games in Round of %s\n", round)
		return 0, nil
	}

	fmt.Printf("\n=== Round of %s (%d games) ===\n", round, len(games))
	played := 0
	for i := range games {
		if games[i].Team1ID == nil || games[i].Team2ID == nil {
			fmt.Printf("skipping game %s, teams not set yet\n", games[i].ID)
			continue
		}
		ok, err := s.simulateGame(ctx, games[i].ID)
		if err != nil {
			return played, err
		}
		if ok {
			played++
		}
	}
	fmt.Printf("=== Round of %s complete: %d games ===\n", round, played)
	return played, nil
}

func (s *simulator) simulateTournament(ctx context.Context, year int) error {
	fmt.Printf("simulating entire %d tournament\n", year)
	for _, round := range simRounds {
		count, err := s.simulateRound(ctx, year, round)
		if err != nil {
			return err
		}
		if count == 0 {
			fmt.Printf("stopped at Round of %s, no games available\n", round)
			return nil
		}
	}
	return s.showStatus(ctx, year)
}

func (s *simulator) showStatus(ctx context.Context, year int) error {
	games, err := s.store.ListGamesByYear(ctx, year)
	if err != nil {
		return err
	}

	fmt.Printf("\ntournament status, %d\n", year)
	var championship *pool.Game
	for _, round := range simRounds {
		total, final := 0, 0
		for i := range games {
			if games[i].Round != round {
				continue
			}
			total++
			if games[i].Status == pool.GameFinal {
				final++
			}
			if round == pool.Round2 {
				championship = &games[i]
			}
		}
		fmt.Printf("  Round of %-2s: %d/%d complete\n", round, final, total)
	}

	if championship != nil && championship.Status == pool.GameFinal && championship.WinnerID != nil {
		champion, err := s.store.GetTeam(ctx, *championship.WinnerID)
		if err != nil {
			return err
		}
		ownerName := "unowned"
		if champion.CurrentOwnerID != nil {
			owner, err := s.store.GetParticipant(ctx, *champion.CurrentOwnerID)
			if err != nil {
				return err
			}
			ownerName = owner.Name
		}
		fmt.Printf("\nchampion: %s (seed %d), owned by %s\n", champion.Name, utils.OrZero(champion.Seed), ownerName)
	}
	return nil
}

// seedDemo builds a full bracket of placeholder teams and drafts them
// round-robin across eight participants. Replaces any existing data for the
// year.
func seedDemo(ctx context.Context, drafts *service.DraftService, brackets *service.BracketService, year int) error {
	participants := make([]*pool.Participant, 0, 8)
	for i := 1; i <= 8; i++ {
		p, err := drafts.CreateParticipant(ctx, fmt.Sprintf("Participant %d", i), "")
		if err != nil {
			return err
		}
		participants = append(participants, p)
	}

	regions := []string{"East", "Midwest", "South", "West"}
	seeds := make([]service.TeamSeed, 0, 64)
	for _, region := range regions {
		for seed := 1; seed <= 16; seed++ {
			owner := participants[len(seeds)%len(participants)]
			seeds = append(seeds, service.TeamSeed{
				Name:           fmt.Sprintf("%s %d", region, seed),
				Seed:           seed,
				Region:         region,
				InitialOwnerID: &owner.ID,
			})
		}
	}

	if err := brackets.BuildBracket(ctx, year, seeds); err != nil {
		return err
	}
	fmt.Printf("seeded %d participants and a %d-team bracket for %d\n", len(participants), len(seeds), year)
	return nil
}

func main() {
	gameID := flag.String("game", "", "simulate one game by ID")
	round := flag.String("round", "", "simulate a round (64, 32, 16, 8, 4, 2)")
	all := flag.Bool("all", false, "simulate the entire tournament")
	status := flag.Bool("status", false, "show tournament status")
	seed := flag.Bool("seed", false, "seed demo participants and a full bracket")
	year := flag.Int("year", 0, "tournament year (default: configured year)")
	flag.Parse()

	_ = godotenv.Load()
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}
	if *year == 0 {
		*year = cfg.Year
	}

	database := db.InitDB(cfg.DatabasePath)
	defer database.Close()
	if err := db.RunMigrations(database.DB, cfg.MigrationsURL); err != nil {
		log.Fatal(err)
	}

	poolStore := store.NewPoolStore(database)
	sim := &simulator{
		store: poolStore,
		games: service.NewGameService(database, poolStore),
	}
	ctx := context.Background()

	switch {
	case *seed:
		err = seedDemo(ctx, service.NewDraftService(database, poolStore), service.NewBracketService(database, poolStore), *year)
	case *status:
		err = sim.showStatus(ctx, *year)
	case *gameID != "":
		var id uuid.UUID
		id, err = uuid.Parse(*gameID)
		if err == nil {
			_, err = sim.simulateGame(ctx, id)
		}
	case *round != "":
		_, err = sim.simulateRound(ctx, *year, pool.Round(*round))
	case *all:
		err = sim.simulateTournament(ctx, *year)
	default:
		flag.Usage()
		os.Exit(2)
	}
	if err != nil {
		log.Fatal(err)
	}
}
