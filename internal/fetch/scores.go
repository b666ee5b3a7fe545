package fetch

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/mmadness/spread-pool/internal/pool"
	"github.com/mmadness/spread-pool/internal/service"
	"github.com/mmadness/spread-pool/internal/store"
)

// ScoreEntry is one normalized scoreboard line from a provider.
type ScoreEntry struct {
	Team1  string
	Team2  string
	Score1 *int
	Score2 *int
	Status pool.GameStatus
}

// ScoreResult summarizes a batch score update.
type ScoreResult struct {
	Updated   int
	Finalized int
	Failed    int
}

// ScoreUpdater applies provider score batches to the store and finalizes
// games that reached Final.
type ScoreUpdater struct {
	db    *sqlx.DB
	store *store.PoolStore
	games *service.GameService
}

func NewScoreUpdater(db *sqlx.DB, st *store.PoolStore, games *service.GameService) *ScoreUpdater {
	return &ScoreUpdater{db: db, store: st, games: games}
}

// Apply writes scores and statuses for the given entries, then finalizes any
// game that transitioned to Final. Entries for already-propagated games and
// entries that would move a status backwards are skipped, so a stale provider
// batch can never unwind a settled game. One bad game never aborts the batch;
// failures are logged, counted, and skipped.
func (u *ScoreUpdater) Apply(ctx context.Context, year int, entries []ScoreEntry) (ScoreResult, error) {
	var res ScoreResult
	if len(entries) == 0 {
		return res, nil
	}

	idx, err := newTeamIndex(ctx, u.store, year)
	if err != nil {
		return res, fmt.Errorf("failed to index teams: %w", err)
	}

	for _, entry := range entries {
		game, err := idx.findGame(ctx, u.store, year, entry.Team1, entry.Team2)
		if err != nil {
			if !errors.Is(err, errNoMatch) {
				slog.Warn("score update: game lookup failed",
					"team1", entry.Team1, "team2", entry.Team2, "error", err)
				res.Failed++
			}
			continue
		}

		// A propagated game is settled; provider feeds replay old slates
		// and must never rewrite its scores or pull its status back
		if game.Propagated {
			continue
		}
		if entry.Status != "" && entry.Status.Rank() < game.Status.Rank() {
			slog.Warn("score update: stale status skipped",
				"game", game.ID, "have", game.Status, "got", entry.Status)
			continue
		}

		// The pair match is order-insensitive; align provider scores with
		// the game's slot order before writing
		score1, score2 := entry.Score1, entry.Score2
		if id, ok := idx.teamID(entry.Team2); ok && game.Team1ID != nil && *game.Team1ID == id {
			score1, score2 = score2, score1
		}

		if score1 != nil {
			game.Team1Score = score1
		}
		if score2 != nil {
			game.Team2Score = score2
		}
		if entry.Status != "" {
			game.Status = entry.Status
		}

		if err := u.store.UpdateGame(ctx, game); err != nil {
			slog.Warn("score update: failed to persist game",
				"game", game.ID, "error", err)
			res.Failed++
			continue
		}
		res.Updated++

		if game.Status == pool.GameFinal {
			if _, _, err := u.games.FinalizeGame(ctx, game.ID); err != nil {
				// Count and keep going: a data-integrity failure on one
				// game must not strand the rest of the day's slate
				slog.Warn("score update: finalize failed",
					"game", game.ID, "error", err)
				res.Failed++
				continue
			}
			res.Finalized++
		}
	}

	return res, nil
}

// teamIndex resolves provider team names to store teams for one year.
type teamIndex struct {
	byKey map[string]uuid.UUID
}

var errNoMatch = errors.New("no matching game")

func newTeamIndex(ctx context.Context, st *store.PoolStore, year int) (*teamIndex, error) {
	teams, err := st.ListTeamsByYear(ctx, year)
	if err != nil {
		return nil, err
	}
	idx := &teamIndex{byKey: make(map[string]uuid.UUID, len(teams))}
	for _, t := range teams {
		idx.byKey[NormalizeKey(t.Name)] = t.ID
	}
	return idx, nil
}

func (idx *teamIndex) teamID(name string) (uuid.UUID, bool) {
	id, ok := idx.byKey[NormalizeKey(ToCanonical(name))]
	return id, ok
}

func (idx *teamIndex) findGame(ctx context.Context, st *store.PoolStore, year int, name1, name2 string) (*pool.Game, error) {
	id1, ok1 := idx.teamID(name1)
	id2, ok2 := idx.teamID(name2)
	if !ok1 || !ok2 {
		return nil, errNoMatch
	}
	game, err := st.FindGameByTeams(ctx, year, id1, id2)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errNoMatch
	}
	return game, err
}
