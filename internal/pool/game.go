package pool

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

type GameStatus string

const (
	GameScheduled  GameStatus = "Scheduled"
	GameInProgress GameStatus = "In Progress"
	GameFinal      GameStatus = "Final"
)

// Rank orders statuses along their one-way progression. A game never moves
// to a status with a lower rank. Unknown statuses rank below Scheduled so
// they can never overwrite a known one.
func (s GameStatus) Rank() int {
	switch s {
	case GameScheduled:
		return 0
	case GameInProgress:
		return 1
	case GameFinal:
		return 2
	default:
		return -1
	}
}

type Round string

const (
	RoundFirstFour Round = "First Four"
	Round64        Round = "64"
	Round32        Round = "32"
	Round16        Round = "16"
	Round8         Round = "8"
	Round4         Round = "4"
	// Round2 is the championship game; it has no next game.
	Round2 Round = "2"
)

// RegionalRounds are played inside one region; later rounds cross regions.
var RegionalRounds = []Round{Round64, Round32, Round16, Round8}

// Game is a single tournament game. Team1OwnerID/Team2OwnerID are the
// owners-of-record at the time this game is played; they are written by
// propagation (or by the draft for the first round) and preserved for
// historical attribution even after Team.CurrentOwnerID moves on.
type Game struct {
	ID     uuid.UUID `db:"id"`
	Year   int       `db:"year"`
	Round  Round     `db:"round"`
	Region *string   `db:"region"`

	Team1ID *uuid.UUID `db:"team1_id"`
	Team2ID *uuid.UUID `db:"team2_id"`

	Team1OwnerID *uuid.UUID `db:"team1_owner_id"`
	Team2OwnerID *uuid.UUID `db:"team2_owner_id"`

	// Pre-game line: the favorite gives Spread points
	Spread               *float64   `db:"spread"`
	SpreadFavoriteTeamID *uuid.UUID `db:"spread_favorite_team_id"`

	Team1Score *int `db:"team1_score"`
	Team2Score *int `db:"team2_score"`

	WinnerID *uuid.UUID `db:"winner_id"`

	// Adjudicated owner winner, persisted at finalize time so replays
	// report the first call's result even when it was nil
	OwnerWinnerID *uuid.UUID `db:"owner_winner_id"`

	Status   GameStatus `db:"status"`
	GameTime *time.Time `db:"game_time"`

	// Winner of this game fills slot NextGameSlot (1 or 2) of NextGameID
	NextGameID   *uuid.UUID `db:"next_game_id"`
	NextGameSlot *int       `db:"next_game_slot"`

	// Set once FinalizeGame has run propagation; repeat calls are no-ops
	Propagated bool `db:"propagated"`

	CreatedAt time.Time `db:"created_at"`
}

func (g *Game) HasScores() bool {
	return g.Team1Score != nil && g.Team2Score != nil
}

// IsPickem reports whether the game has no usable line: a zero spread or an
// unset favorite means the matchup resolves on the outright winner.
func (g *Game) IsPickem() bool {
	return g.Spread == nil || *g.Spread == 0 || g.SpreadFavoriteTeamID == nil
}

// SpreadLabel returns a display string like "Duke -4.5", or "" without a line.
func (g *Game) SpreadLabel(favorite *Team) string {
	if g.Spread == nil || favorite == nil {
		return ""
	}
	return fmt.Sprintf("%s -%g", favorite.Name, *g.Spread)
}

// Matchup is a Game with both teams resolved, the unit the adjudication
// functions operate on. Loading entities is the store's job; everything in
// spread.go is pure.
type Matchup struct {
	Game  *Game
	Team1 *Team
	Team2 *Team
}
