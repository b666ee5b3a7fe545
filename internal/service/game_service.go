package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/mmadness/spread-pool/internal/pool"
	"github.com/mmadness/spread-pool/internal/store"
)

type GameService struct {
	db    *sqlx.DB
	store *store.PoolStore
}

func NewGameService(db *sqlx.DB, store *store.PoolStore) *GameService {
	return &GameService{db: db, store: store}
}

// FinalizeGame adjudicates a Final game and threads the result through the
// bracket: persists the actual winner, revokes the loser's ownership, hands
// the winner to the spread winner's owner, and fills the linked next-round
// slot. All writes happen in one transaction. Repeated calls are
// observation-only: once a game is marked propagated, the result is re-read
// instead of re-applied, so ownership never mutates twice.
//
// Returns the actual team winner and the owner who won the matchup against
// the spread (nil when either team had no owner).
func (s *GameService) FinalizeGame(ctx context.Context, gameID uuid.UUID) (*pool.Team, *pool.Participant, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, nil, err
	}
	defer tx.Rollback()

	game, err := s.store.GetGameTx(ctx, tx, gameID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get game: %w", err)
	}
	if game.Status != pool.GameFinal {
		return nil, nil, &pool.SpreadEvaluationError{Reason: "game must be marked Final before evaluation"}
	}

	matchup, err := s.loadMatchup(ctx, tx, game)
	if err != nil {
		return nil, nil, err
	}

	if game.Propagated {
		return s.replayResult(ctx, matchup)
	}

	teamWinner, err := pool.ActualWinner(matchup)
	if err != nil {
		return nil, nil, err
	}
	ownerWinnerID, err := pool.OwnerWinner(matchup)
	if err != nil {
		return nil, nil, err
	}

	game.WinnerID = &teamWinner.ID
	game.OwnerWinnerID = ownerWinnerID
	game.Propagated = true
	if err := s.store.UpdateGameTx(ctx, tx, game); err != nil {
		return nil, nil, fmt.Errorf("failed to update game: %w", err)
	}

	if err := s.propagate(ctx, tx, matchup, teamWinner, ownerWinnerID); err != nil {
		return nil, nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, nil, err
	}

	ownerWinner, err := s.resolveParticipant(ctx, ownerWinnerID)
	if err != nil {
		return nil, nil, err
	}
	return teamWinner, ownerWinner, nil
}

func (s *GameService) loadMatchup(ctx context.Context, tx *sqlx.Tx, game *pool.Game) (pool.Matchup, error) {
	m := pool.Matchup{Game: game}
	if game.Team1ID != nil {
		team, err := s.store.GetTeamTx(ctx, tx, *game.Team1ID)
		if err != nil {
			return m, fmt.Errorf("failed to get team 1: %w", err)
		}
		m.Team1 = team
	}
	if game.Team2ID != nil {
		team, err := s.store.GetTeamTx(ctx, tx, *game.Team2ID)
		if err != nil {
			return m, fmt.Errorf("failed to get team 2: %w", err)
		}
		m.Team2 = team
	}
	return m, nil
}

// replayResult reports the outcome of an already-propagated game without
// touching state. The team winner is deterministic from the scores; the
// owner winner (nil included) was persisted on the game by the first call,
// so repeat calls report exactly what the first call did even after
// ownership has moved on in later rounds.
func (s *GameService) replayResult(ctx context.Context, m pool.Matchup) (*pool.Team, *pool.Participant, error) {
	teamWinner, err := pool.ActualWinner(m)
	if err != nil {
		return nil, nil, err
	}

	ownerWinner, err := s.resolveParticipant(ctx, m.Game.OwnerWinnerID)
	if err != nil {
		return nil, nil, err
	}
	return teamWinner, ownerWinner, nil
}

// propagate pushes the advancing team and its owner into the next linked
// game. A game without linkage (the championship) is the expected terminal
// case and a silent no-op, ownership mutation included.
func (s *GameService) propagate(ctx context.Context, tx *sqlx.Tx, m pool.Matchup, teamWinner *pool.Team, ownerWinnerID *uuid.UUID) error {
	game := m.Game
	if game.NextGameID == nil || game.NextGameSlot == nil {
		return nil
	}

	next, err := s.store.GetGameTx(ctx, tx, *game.NextGameID)
	if err != nil {
		return fmt.Errorf("failed to get next game: %w", err)
	}

	// Elimination revokes ownership: the loser drops out of its owner's
	// active roster
	loser := m.Team2
	if teamWinner.ID == loser.ID {
		loser = m.Team1
	}
	loser.CurrentOwnerID = nil
	if err := s.store.UpdateTeamOwnersTx(ctx, tx, loser); err != nil {
		return fmt.Errorf("failed to update losing team: %w", err)
	}

	// Ownership transfers to the spread winner; with no determinable owner
	// the team keeps whoever holds it
	if ownerWinnerID != nil {
		teamWinner.CurrentOwnerID = ownerWinnerID
		if err := s.store.UpdateTeamOwnersTx(ctx, tx, teamWinner); err != nil {
			return fmt.Errorf("failed to update advancing team: %w", err)
		}
	}

	// The next game's owner-of-record is whoever holds the team after this
	// game's spread outcome, preserving per-game attribution
	recordOwner := ownerWinnerID
	if recordOwner == nil {
		recordOwner = teamWinner.CurrentOwnerID
	}

	switch *game.NextGameSlot {
	case 1:
		next.Team1ID = &teamWinner.ID
		if recordOwner != nil {
			next.Team1OwnerID = recordOwner
		}
	case 2:
		next.Team2ID = &teamWinner.ID
		if recordOwner != nil {
			next.Team2OwnerID = recordOwner
		}
	default:
		return nil
	}

	if err := s.store.UpdateGameTx(ctx, tx, next); err != nil {
		return fmt.Errorf("failed to update next game: %w", err)
	}
	return nil
}

func (s *GameService) resolveParticipant(ctx context.Context, id *uuid.UUID) (*pool.Participant, error) {
	if id == nil {
		return nil, nil
	}
	p, err := s.store.GetParticipant(ctx, *id)
	if err != nil {
		return nil, fmt.Errorf("failed to get owner winner: %w", err)
	}
	return p, nil
}

// SetScore writes scores and a status onto a game. The status may only move
// forward (Scheduled -> In Progress -> Final).
func (s *GameService) SetScore(ctx context.Context, gameID uuid.UUID, score1, score2 int, status pool.GameStatus) error {
	game, err := s.store.GetGame(ctx, gameID)
	if err != nil {
		return fmt.Errorf("failed to get game: %w", err)
	}

	if status.Rank() < game.Status.Rank() {
		return fmt.Errorf("game status cannot move from %q back to %q", game.Status, status)
	}

	game.Team1Score = &score1
	game.Team2Score = &score2
	game.Status = status
	return s.store.UpdateGame(ctx, game)
}

// SetSpread records the pre-game line. The favorite must be one of the
// game's teams and the spread non-negative.
func (s *GameService) SetSpread(ctx context.Context, gameID uuid.UUID, spread float64, favoriteTeamID uuid.UUID) error {
	if spread < 0 {
		return fmt.Errorf("spread must be non-negative, got %g", spread)
	}
	game, err := s.store.GetGame(ctx, gameID)
	if err != nil {
		return fmt.Errorf("failed to get game: %w", err)
	}

	inGame := (game.Team1ID != nil && *game.Team1ID == favoriteTeamID) ||
		(game.Team2ID != nil && *game.Team2ID == favoriteTeamID)
	if !inGame {
		return fmt.Errorf("favorite team is not part of this game")
	}

	game.Spread = &spread
	game.SpreadFavoriteTeamID = &favoriteTeamID
	return s.store.UpdateGame(ctx, game)
}
