package store

import (
	"context"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/mmadness/spread-pool/internal/pool"
)

// PoolStore is the entity store for participants, teams, and games. It has no
// adjudication logic; services compose its reads and writes inside one
// transaction per finalize.
type PoolStore struct {
	db *sqlx.DB
}

func NewPoolStore(db *sqlx.DB) *PoolStore {
	return &PoolStore{db: db}
}

const (
	insertParticipantQuery = `INSERT INTO participants (id, name, email)
        VALUES (:id, :name, :email)`
	insertTeamsQuery = `INSERT INTO teams (id, name, seed, region, year, initial_owner_id, current_owner_id)
        VALUES (:id, :name, :seed, :region, :year, :initial_owner_id, :current_owner_id)`
	insertGamesQuery = `INSERT INTO games (id, year, round, region, team1_id, team2_id, team1_owner_id, team2_owner_id,
        spread, spread_favorite_team_id, team1_score, team2_score, winner_id, owner_winner_id, status, game_time,
        next_game_id, next_game_slot, propagated)
        VALUES (:id, :year, :round, :region, :team1_id, :team2_id, :team1_owner_id, :team2_owner_id,
        :spread, :spread_favorite_team_id, :team1_score, :team2_score, :winner_id, :owner_winner_id, :status, :game_time,
        :next_game_id, :next_game_slot, :propagated)`
	updateGameQuery = `UPDATE games SET
        team1_id = :team1_id,
        team2_id = :team2_id,
        team1_owner_id = :team1_owner_id,
        team2_owner_id = :team2_owner_id,
        spread = :spread,
        spread_favorite_team_id = :spread_favorite_team_id,
        team1_score = :team1_score,
        team2_score = :team2_score,
        winner_id = :winner_id,
        owner_winner_id = :owner_winner_id,
        status = :status,
        game_time = :game_time,
        propagated = :propagated
        WHERE id = :id`
	updateTeamOwnersQuery = `UPDATE teams SET
        initial_owner_id = :initial_owner_id,
        current_owner_id = :current_owner_id
        WHERE id = :id`
)

func (s *PoolStore) CreateParticipant(ctx context.Context, p *pool.Participant) error {
	_, err := s.db.NamedExecContext(ctx, insertParticipantQuery, p)
	return err
}

func (s *PoolStore) CreateTeams(ctx context.Context, tx *sqlx.Tx, teams []pool.Team) error {
	if len(teams) == 0 {
		return nil
	}
	_, err := tx.NamedExecContext(ctx, insertTeamsQuery, teams)
	return err
}

func (s *PoolStore) CreateGames(ctx context.Context, tx *sqlx.Tx, games []pool.Game) error {
	if len(games) == 0 {
		return nil
	}
	_, err := tx.NamedExecContext(ctx, insertGamesQuery, games)
	return err
}

func (s *PoolStore) GetParticipant(ctx context.Context, id uuid.UUID) (*pool.Participant, error) {
	var p pool.Participant
	err := s.db.GetContext(ctx, &p, "SELECT * FROM participants WHERE id = ?", id)
	return &p, err
}

func (s *PoolStore) ListParticipants(ctx context.Context) ([]pool.Participant, error) {
	var participants []pool.Participant
	err := s.db.SelectContext(ctx, &participants, "SELECT * FROM participants ORDER BY name ASC")
	return participants, err
}

func (s *PoolStore) GetTeam(ctx context.Context, id uuid.UUID) (*pool.Team, error) {
	var team pool.Team
	err := s.db.GetContext(ctx, &team, "SELECT * FROM teams WHERE id = ?", id)
	return &team, err
}

func (s *PoolStore) GetTeamTx(ctx context.Context, tx *sqlx.Tx, id uuid.UUID) (*pool.Team, error) {
	var team pool.Team
	err := tx.GetContext(ctx, &team, "SELECT * FROM teams WHERE id = ?", id)
	return &team, err
}

func (s *PoolStore) ListTeamsByYear(ctx context.Context, year int) ([]pool.Team, error) {
	var teams []pool.Team
	err := s.db.SelectContext(ctx, &teams, "SELECT * FROM teams WHERE year = ? ORDER BY region ASC, seed ASC", year)
	return teams, err
}

func (s *PoolStore) UpdateTeamOwnersTx(ctx context.Context, tx *sqlx.Tx, team *pool.Team) error {
	_, err := tx.NamedExecContext(ctx, updateTeamOwnersQuery, team)
	return err
}

func (s *PoolStore) GetGame(ctx context.Context, id uuid.UUID) (*pool.Game, error) {
	var game pool.Game
	err := s.db.GetContext(ctx, &game, "SELECT * FROM games WHERE id = ?", id)
	return &game, err
}

func (s *PoolStore) GetGameTx(ctx context.Context, tx *sqlx.Tx, id uuid.UUID) (*pool.Game, error) {
	var game pool.Game
	err := tx.GetContext(ctx, &game, "SELECT * FROM games WHERE id = ?", id)
	return &game, err
}

func (s *PoolStore) ListGamesByYear(ctx context.Context, year int) ([]pool.Game, error) {
	var games []pool.Game
	err := s.db.SelectContext(ctx, &games,
		"SELECT * FROM games WHERE year = ? ORDER BY region ASC, round ASC, created_at ASC, id ASC", year)
	return games, err
}

func (s *PoolStore) ListGamesByRound(ctx context.Context, year int, round pool.Round, status pool.GameStatus) ([]pool.Game, error) {
	var games []pool.Game
	err := s.db.SelectContext(ctx, &games,
		"SELECT * FROM games WHERE year = ? AND round = ? AND status = ? ORDER BY region ASC, id ASC", year, round, status)
	return games, err
}

// FindGameByTeams locates the game the two teams play against each other,
// slot order unknown. Used by score/spread ingestion where provider data only
// carries team identities.
func (s *PoolStore) FindGameByTeams(ctx context.Context, year int, teamA, teamB uuid.UUID) (*pool.Game, error) {
	var game pool.Game
	err := s.db.GetContext(ctx, &game, `SELECT * FROM games
        WHERE year = ?
        AND ((team1_id = ? AND team2_id = ?) OR (team1_id = ? AND team2_id = ?))
        ORDER BY id ASC LIMIT 1`, year, teamA, teamB, teamB, teamA)
	return &game, err
}

func (s *PoolStore) UpdateGame(ctx context.Context, game *pool.Game) error {
	_, err := s.db.NamedExecContext(ctx, updateGameQuery, game)
	return err
}

func (s *PoolStore) UpdateGameTx(ctx context.Context, tx *sqlx.Tx, game *pool.Game) error {
	_, err := tx.NamedExecContext(ctx, updateGameQuery, game)
	return err
}

// StampGameOwners writes the owner-of-record for a team into its scheduled
// games that do not have one yet. Run at draft time so first-round games show
// who held each team at kickoff.
func (s *PoolStore) StampGameOwners(ctx context.Context, tx *sqlx.Tx, teamID, ownerID uuid.UUID) error {
	_, err := tx.ExecContext(ctx, `UPDATE games SET team1_owner_id = ?
        WHERE team1_id = ? AND team1_owner_id IS NULL AND status = ?`, ownerID, teamID, pool.GameScheduled)
	if err != nil {
		return err
	}
	_, err = tx.ExecContext(ctx, `UPDATE games SET team2_owner_id = ?
        WHERE team2_id = ? AND team2_owner_id IS NULL AND status = ?`, ownerID, teamID, pool.GameScheduled)
	return err
}

// DeleteYear clears all bracket data for a year ahead of a rebuild. Linkage
// is unwired first so the self-referencing foreign key never sees a deleted
// parent with a surviving child.
func (s *PoolStore) DeleteYear(ctx context.Context, tx *sqlx.Tx, year int) error {
	if _, err := tx.ExecContext(ctx, "UPDATE games SET next_game_id = NULL WHERE year = ?", year); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM games WHERE year = ?", year); err != nil {
		return err
	}
	_, err := tx.ExecContext(ctx, "DELETE FROM teams WHERE year = ?", year)
	return err
}
