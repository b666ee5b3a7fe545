package pool

import (
	"fmt"

	"github.com/google/uuid"
)

// SpreadEvaluationError marks a game whose data cannot support spread
// adjudication: missing scores, a tie, a favorite that is not part of the
// game, or finalizing a non-Final game. It is local to one game; batch
// callers catch it per game and keep going.
type SpreadEvaluationError struct {
	Reason string
}

func (e *SpreadEvaluationError) Error() string {
	return "spread evaluation: " + e.Reason
}

func spreadErrorf(format string, args ...any) *SpreadEvaluationError {
	return &SpreadEvaluationError{Reason: fmt.Sprintf(format, args...)}
}

func validateScores(g *Game) error {
	if !g.HasScores() {
		return spreadErrorf("game scores are missing")
	}
	return nil
}

// ActualWinner returns the team that won the game outright. Ties are
// impossible in this sport, so an equal score is treated as bad data.
func ActualWinner(m Matchup) (*Team, error) {
	if m.Team1 == nil || m.Team2 == nil {
		return nil, spreadErrorf("game does not have both teams")
	}
	if err := validateScores(m.Game); err != nil {
		return nil, err
	}
	switch {
	case *m.Game.Team1Score > *m.Game.Team2Score:
		return m.Team1, nil
	case *m.Game.Team2Score > *m.Game.Team1Score:
		return m.Team2, nil
	default:
		return nil, spreadErrorf("unexpected tie score %d-%d", *m.Game.Team1Score, *m.Game.Team2Score)
	}
}

// favoriteAndUnderdog resolves the stored favorite against the game's teams.
func favoriteAndUnderdog(m Matchup) (fav, dog *Team, err error) {
	g := m.Game
	if g.SpreadFavoriteTeamID == nil {
		return nil, nil, spreadErrorf("spread favorite missing")
	}
	switch {
	case m.Team1 != nil && *g.SpreadFavoriteTeamID == m.Team1.ID:
		return m.Team1, m.Team2, nil
	case m.Team2 != nil && *g.SpreadFavoriteTeamID == m.Team2.ID:
		return m.Team2, m.Team1, nil
	default:
		return nil, nil, spreadErrorf("favorite team is not one of the game's teams")
	}
}

// favoriteMargin is the favorite's points minus the underdog's, signed:
// negative when the favorite lost outright.
func favoriteMargin(m Matchup, fav *Team) int {
	if m.Team1 != nil && fav.ID == m.Team1.ID {
		return *m.Game.Team1Score - *m.Game.Team2Score
	}
	return *m.Game.Team2Score - *m.Game.Team1Score
}

// OwnerWinner determines which participant wins this matchup against the
// spread for a Final game, returned as a participant ID.
//
//   - Favorite covers (margin > spread): favorite's owner wins.
//   - Favorite fails to cover (margin <= spread, pushes included): underdog's
//     owner wins.
//   - Pick'em (zero spread or no favorite): the outright winner's owner wins.
//
// Owners come from each team's CurrentOwnerID, not the game's stored
// owner-of-record; the stored fields are the outgoing audit trail written by
// propagation. A nil result (some team has no owner) is a valid outcome, not
// an error.
func OwnerWinner(m Matchup) (*uuid.UUID, error) {
	g := m.Game
	if g.Status != GameFinal {
		return nil, spreadErrorf("game must be Final to determine the owner winner")
	}
	if m.Team1 == nil || m.Team2 == nil {
		return nil, spreadErrorf("game does not have both teams")
	}
	if err := validateScores(g); err != nil {
		return nil, err
	}

	if g.IsPickem() {
		winner, err := ActualWinner(m)
		if err != nil {
			return nil, err
		}
		return winner.CurrentOwnerID, nil
	}

	fav, dog, err := favoriteAndUnderdog(m)
	if err != nil {
		return nil, err
	}
	if fav.CurrentOwnerID == nil || dog.CurrentOwnerID == nil {
		return nil, nil
	}

	if float64(favoriteMargin(m, fav)) > *g.Spread {
		return fav.CurrentOwnerID, nil
	}
	return dog.CurrentOwnerID, nil
}

// LiveLeader projects who is currently winning the matchup against the spread
// for an in-progress game. Unlike OwnerWinner it reads the game's stored
// owner-of-record fields (the owners at kickoff), because this is a
// point-in-time display hint, not an ownership transfer. It never fails:
// anything missing surfaces as nil.
func LiveLeader(m Matchup) *uuid.UUID {
	g := m.Game
	if g.Status != GameInProgress {
		return nil
	}
	if m.Team1 == nil || m.Team2 == nil {
		return nil
	}
	if !g.HasScores() {
		return nil
	}
	if g.Spread == nil || *g.Spread == 0 || g.SpreadFavoriteTeamID == nil {
		return nil
	}

	fav, _, err := favoriteAndUnderdog(m)
	if err != nil {
		return nil
	}

	favOwner, dogOwner := g.Team1OwnerID, g.Team2OwnerID
	if m.Team2 != nil && fav.ID == m.Team2.ID {
		favOwner, dogOwner = g.Team2OwnerID, g.Team1OwnerID
	}

	if float64(favoriteMargin(m, fav)) > *g.Spread {
		return favOwner
	}
	return dogOwner
}
