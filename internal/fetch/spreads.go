package fetch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/mmadness/spread-pool/internal/store"
)

// SpreadEntry is one normalized line from an odds provider. Spread is the
// non-negative number of points the favorite gives.
type SpreadEntry struct {
	Home     string
	Away     string
	Favorite string
	Spread   float64
	TipISO   string
}

// SpreadUpdater applies provider odds batches to scheduled games.
type SpreadUpdater struct {
	db    *sqlx.DB
	store *store.PoolStore
}

func NewSpreadUpdater(db *sqlx.DB, st *store.PoolStore) *SpreadUpdater {
	return &SpreadUpdater{db: db, store: st}
}

// Apply writes spread, favorite, and tip time onto matching games. Entries
// that do not resolve to a known team pair are skipped silently; providers
// carry the whole slate of college basketball, not just the bracket.
func (u *SpreadUpdater) Apply(ctx context.Context, year int, entries []SpreadEntry) (int, error) {
	if len(entries) == 0 {
		return 0, nil
	}

	idx, err := newTeamIndex(ctx, u.store, year)
	if err != nil {
		return 0, fmt.Errorf("failed to index teams: %w", err)
	}

	updated := 0
	for _, entry := range entries {
		if entry.Spread < 0 {
			slog.Warn("spread update: negative spread skipped",
				"home", entry.Home, "away", entry.Away, "spread", entry.Spread)
			continue
		}

		game, err := idx.findGame(ctx, u.store, year, entry.Home, entry.Away)
		if err != nil {
			if !errors.Is(err, errNoMatch) {
				slog.Warn("spread update: game lookup failed",
					"home", entry.Home, "away", entry.Away, "error", err)
			}
			continue
		}

		favID, ok := idx.teamID(entry.Favorite)
		if !ok {
			continue
		}
		inGame := (game.Team1ID != nil && *game.Team1ID == favID) ||
			(game.Team2ID != nil && *game.Team2ID == favID)
		if !inGame {
			slog.Warn("spread update: favorite not in matched game",
				"favorite", entry.Favorite, "game", game.ID)
			continue
		}

		game.Spread = &entry.Spread
		game.SpreadFavoriteTeamID = &favID

		if entry.TipISO != "" {
			if tip, err := parseTipTime(entry.TipISO); err == nil {
				game.GameTime = &tip
			}
			// A malformed tip time never fails the line update
		}

		if err := u.store.UpdateGame(ctx, game); err != nil {
			slog.Warn("spread update: failed to persist game",
				"game", game.ID, "error", err)
			continue
		}
		updated++
	}

	return updated, nil
}

func parseTipTime(iso string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339, iso)
	if err != nil {
		return time.Time{}, err
	}
	return t.UTC(), nil
}
