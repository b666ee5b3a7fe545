package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/mmadness/spread-pool/internal/pool"
	"github.com/mmadness/spread-pool/internal/store"
	"github.com/mmadness/spread-pool/internal/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type matchupFixture struct {
	ownerA, ownerB *pool.Participant
	team1, team2   pool.Team
	game, next     pool.Game
}

// newMatchupFixture inserts a first-round game between two owned teams that
// feeds slot 2 of a second-round game. Duke is a 4.5-point favorite.
func newMatchupFixture(t *testing.T, db *sqlx.DB, poolStore *store.PoolStore) *matchupFixture {
	t.Helper()
	ctx := context.Background()

	ownerA := &pool.Participant{ID: uuid.New(), Name: "Alice"}
	ownerB := &pool.Participant{ID: uuid.New(), Name: "Bob"}
	require.NoError(t, poolStore.CreateParticipant(ctx, ownerA))
	require.NoError(t, poolStore.CreateParticipant(ctx, ownerB))

	f := &matchupFixture{ownerA: ownerA, ownerB: ownerB}
	f.team1 = pool.Team{
		ID: uuid.New(), Name: "Duke", Seed: utils.Ptr(2), Region: utils.Ptr("East"), Year: 2026,
		InitialOwnerID: &ownerA.ID, CurrentOwnerID: &ownerA.ID,
	}
	f.team2 = pool.Team{
		ID: uuid.New(), Name: "UNC", Seed: utils.Ptr(3), Region: utils.Ptr("East"), Year: 2026,
		InitialOwnerID: &ownerB.ID, CurrentOwnerID: &ownerB.ID,
	}
	f.next = pool.Game{
		ID: uuid.New(), Year: 2026, Round: pool.Round32, Region: utils.Ptr("East"),
		Status: pool.GameScheduled,
	}
	f.game = pool.Game{
		ID: uuid.New(), Year: 2026, Round: pool.Round64, Region: utils.Ptr("East"),
		Team1ID: &f.team1.ID, Team2ID: &f.team2.ID,
		Team1OwnerID: &ownerA.ID, Team2OwnerID: &ownerB.ID,
		Spread: utils.Ptr(4.5), SpreadFavoriteTeamID: &f.team1.ID,
		Status:     pool.GameScheduled,
		NextGameID: &f.next.ID, NextGameSlot: utils.Ptr(2),
	}

	tx, err := db.BeginTxx(ctx, nil)
	require.NoError(t, err)
	require.NoError(t, poolStore.CreateTeams(ctx, tx, []pool.Team{f.team1, f.team2}))
	require.NoError(t, poolStore.CreateGames(ctx, tx, []pool.Game{f.next, f.game}))
	require.NoError(t, tx.Commit())
	return f
}

func (f *matchupFixture) finish(t *testing.T, poolStore *store.PoolStore, score1, score2 int) {
	t.Helper()
	f.game.Team1Score = &score1
	f.game.Team2Score = &score2
	f.game.Status = pool.GameFinal
	require.NoError(t, poolStore.UpdateGame(context.Background(), &f.game))
}

func TestFinalizeGame_FavoriteFailsToCover(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	poolStore := store.NewPoolStore(db)
	gameService := NewGameService(db, poolStore)
	ctx := context.Background()

	f := newMatchupFixture(t, db, poolStore)
	// Duke wins by 2 but was laying 4.5, so Bob takes the ownership
	f.finish(t, poolStore, 78, 76)

	teamWinner, ownerWinner, err := gameService.FinalizeGame(ctx, f.game.ID)
	require.NoError(t, err)
	assert.Equal(t, "Duke", teamWinner.Name)
	require.NotNil(t, ownerWinner)
	assert.Equal(t, "Bob", ownerWinner.Name)

	// Duke advances under Bob's ownership
	winner, err := poolStore.GetTeam(ctx, f.team1.ID)
	require.NoError(t, err)
	require.NotNil(t, winner.CurrentOwnerID)
	assert.Equal(t, f.ownerB.ID, *winner.CurrentOwnerID)

	// UNC is eliminated and unowned
	loser, err := poolStore.GetTeam(ctx, f.team2.ID)
	require.NoError(t, err)
	assert.Nil(t, loser.CurrentOwnerID)
	// The draft record survives elimination
	require.NotNil(t, loser.InitialOwnerID)
	assert.Equal(t, f.ownerB.ID, *loser.InitialOwnerID)

	// The second-round slot holds Duke with Bob as owner-of-record
	next, err := poolStore.GetGame(ctx, f.next.ID)
	require.NoError(t, err)
	require.NotNil(t, next.Team2ID)
	assert.Equal(t, f.team1.ID, *next.Team2ID)
	require.NotNil(t, next.Team2OwnerID)
	assert.Equal(t, f.ownerB.ID, *next.Team2OwnerID)
	assert.Nil(t, next.Team1ID)

	updated, err := poolStore.GetGame(ctx, f.game.ID)
	require.NoError(t, err)
	require.NotNil(t, updated.WinnerID)
	assert.Equal(t, f.team1.ID, *updated.WinnerID)
	require.NotNil(t, updated.OwnerWinnerID)
	assert.Equal(t, f.ownerB.ID, *updated.OwnerWinnerID)
	assert.True(t, updated.Propagated)
}

func TestFinalizeGame_FavoriteCovers(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	poolStore := store.NewPoolStore(db)
	gameService := NewGameService(db, poolStore)
	ctx := context.Background()

	f := newMatchupFixture(t, db, poolStore)
	f.finish(t, poolStore, 82, 70)

	teamWinner, ownerWinner, err := gameService.FinalizeGame(ctx, f.game.ID)
	require.NoError(t, err)
	assert.Equal(t, "Duke", teamWinner.Name)
	require.NotNil(t, ownerWinner)
	assert.Equal(t, "Alice", ownerWinner.Name)

	winner, err := poolStore.GetTeam(ctx, f.team1.ID)
	require.NoError(t, err)
	assert.Equal(t, f.ownerA.ID, *winner.CurrentOwnerID)
}

func TestFinalizeGame_UnderdogWinsOutright(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	poolStore := store.NewPoolStore(db)
	gameService := NewGameService(db, poolStore)
	ctx := context.Background()

	f := newMatchupFixture(t, db, poolStore)
	f.finish(t, poolStore, 70, 75)

	teamWinner, ownerWinner, err := gameService.FinalizeGame(ctx, f.game.ID)
	require.NoError(t, err)
	assert.Equal(t, "UNC", teamWinner.Name)
	require.NotNil(t, ownerWinner)
	assert.Equal(t, "Bob", ownerWinner.Name)

	// Duke is out; UNC advances still under Bob
	eliminated, err := poolStore.GetTeam(ctx, f.team1.ID)
	require.NoError(t, err)
	assert.Nil(t, eliminated.CurrentOwnerID)

	next, err := poolStore.GetGame(ctx, f.next.ID)
	require.NoError(t, err)
	require.NotNil(t, next.Team2ID)
	assert.Equal(t, f.team2.ID, *next.Team2ID)
}

func TestFinalizeGame_Idempotent(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	poolStore := store.NewPoolStore(db)
	gameService := NewGameService(db, poolStore)
	ctx := context.Background()

	f := newMatchupFixture(t, db, poolStore)
	f.finish(t, poolStore, 78, 76)

	_, _, err := gameService.FinalizeGame(ctx, f.game.ID)
	require.NoError(t, err)

	// Later rounds move ownership on; a replay must not claw it back
	winner, err := poolStore.GetTeam(ctx, f.team1.ID)
	require.NoError(t, err)
	ownerC := &pool.Participant{ID: uuid.New(), Name: "Carol"}
	require.NoError(t, poolStore.CreateParticipant(ctx, ownerC))
	winner.CurrentOwnerID = &ownerC.ID
	tx, err := db.BeginTxx(ctx, nil)
	require.NoError(t, err)
	require.NoError(t, poolStore.UpdateTeamOwnersTx(ctx, tx, winner))
	require.NoError(t, tx.Commit())

	teamWinner, ownerWinner, err := gameService.FinalizeGame(ctx, f.game.ID)
	require.NoError(t, err)
	assert.Equal(t, "Duke", teamWinner.Name)
	require.NotNil(t, ownerWinner)
	// The replay reports the original result from the owner-of-record
	assert.Equal(t, "Bob", ownerWinner.Name)

	// Current ownership is untouched
	winner, err = poolStore.GetTeam(ctx, f.team1.ID)
	require.NoError(t, err)
	assert.Equal(t, ownerC.ID, *winner.CurrentOwnerID)
}

func TestFinalizeGame_ReplayKeepsNilOwnerWinner(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	poolStore := store.NewPoolStore(db)
	gameService := NewGameService(db, poolStore)
	ctx := context.Background()

	f := newMatchupFixture(t, db, poolStore)
	// Only the favorite is owned; the underdog would win the spread, so the
	// matchup adjudicates to no owner winner
	tx, err := db.BeginTxx(ctx, nil)
	require.NoError(t, err)
	f.team2.InitialOwnerID = nil
	f.team2.CurrentOwnerID = nil
	require.NoError(t, poolStore.UpdateTeamOwnersTx(ctx, tx, &f.team2))
	require.NoError(t, tx.Commit())
	f.finish(t, poolStore, 78, 76)

	teamWinner, ownerWinner, err := gameService.FinalizeGame(ctx, f.game.ID)
	require.NoError(t, err)
	assert.Equal(t, "Duke", teamWinner.Name)
	assert.Nil(t, ownerWinner)

	// Duke keeps Alice, and she is stamped as owner-of-record upstream
	next, err := poolStore.GetGame(ctx, f.next.ID)
	require.NoError(t, err)
	require.NotNil(t, next.Team2OwnerID)
	assert.Equal(t, f.ownerA.ID, *next.Team2OwnerID)

	// The replay reports the adjudicated nil, not Duke's current owner
	teamWinner, ownerWinner, err = gameService.FinalizeGame(ctx, f.game.ID)
	require.NoError(t, err)
	assert.Equal(t, "Duke", teamWinner.Name)
	assert.Nil(t, ownerWinner)

	game, err := poolStore.GetGame(ctx, f.game.ID)
	require.NoError(t, err)
	assert.Nil(t, game.OwnerWinnerID)
	assert.True(t, game.Propagated)
}

func TestFinalizeGame_RequiresFinalStatus(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	poolStore := store.NewPoolStore(db)
	gameService := NewGameService(db, poolStore)
	ctx := context.Background()

	f := newMatchupFixture(t, db, poolStore)

	_, _, err := gameService.FinalizeGame(ctx, f.game.ID)
	require.Error(t, err)
	var spreadErr *pool.SpreadEvaluationError
	assert.ErrorAs(t, err, &spreadErr)
}

func TestFinalizeGame_ChampionshipHasNoPropagation(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	poolStore := store.NewPoolStore(db)
	gameService := NewGameService(db, poolStore)
	ctx := context.Background()

	f := newMatchupFixture(t, db, poolStore)
	// Unlink the game so it behaves like the championship
	f.game.NextGameID = nil
	f.game.NextGameSlot = nil
	tx, err := db.BeginTxx(ctx, nil)
	require.NoError(t, err)
	_, err = tx.ExecContext(ctx, "UPDATE games SET next_game_id = NULL, next_game_slot = NULL WHERE id = ?", f.game.ID)
	require.NoError(t, err)
	require.NoError(t, tx.Commit())
	f.finish(t, poolStore, 78, 76)

	teamWinner, ownerWinner, err := gameService.FinalizeGame(ctx, f.game.ID)
	require.NoError(t, err)
	assert.Equal(t, "Duke", teamWinner.Name)
	require.NotNil(t, ownerWinner)
	assert.Equal(t, "Bob", ownerWinner.Name)

	// The tournament is over; nobody's roster changes
	champion, err := poolStore.GetTeam(ctx, f.team1.ID)
	require.NoError(t, err)
	assert.Equal(t, f.ownerA.ID, *champion.CurrentOwnerID)
	runnerUp, err := poolStore.GetTeam(ctx, f.team2.ID)
	require.NoError(t, err)
	assert.Equal(t, f.ownerB.ID, *runnerUp.CurrentOwnerID)

	// Re-finalizing the championship reports the same result
	teamWinner, ownerWinner, err = gameService.FinalizeGame(ctx, f.game.ID)
	require.NoError(t, err)
	assert.Equal(t, "Duke", teamWinner.Name)
	require.NotNil(t, ownerWinner)
	assert.Equal(t, "Bob", ownerWinner.Name)
}

func TestFinalizeGame_UnownedTeamsStillAdvance(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	poolStore := store.NewPoolStore(db)
	gameService := NewGameService(db, poolStore)
	ctx := context.Background()

	f := newMatchupFixture(t, db, poolStore)
	// Strip ownership from both teams
	tx, err := db.BeginTxx(ctx, nil)
	require.NoError(t, err)
	for _, team := range []*pool.Team{&f.team1, &f.team2} {
		team.InitialOwnerID = nil
		team.CurrentOwnerID = nil
		require.NoError(t, poolStore.UpdateTeamOwnersTx(ctx, tx, team))
	}
	require.NoError(t, tx.Commit())
	f.finish(t, poolStore, 78, 76)

	teamWinner, ownerWinner, err := gameService.FinalizeGame(ctx, f.game.ID)
	require.NoError(t, err)
	assert.Equal(t, "Duke", teamWinner.Name)
	assert.Nil(t, ownerWinner)

	// The bracket still progresses, just without ownership
	next, err := poolStore.GetGame(ctx, f.next.ID)
	require.NoError(t, err)
	require.NotNil(t, next.Team2ID)
	assert.Equal(t, f.team1.ID, *next.Team2ID)
	assert.Nil(t, next.Team2OwnerID)
}

func TestSetScore_StatusNeverRegresses(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	poolStore := store.NewPoolStore(db)
	gameService := NewGameService(db, poolStore)
	ctx := context.Background()

	f := newMatchupFixture(t, db, poolStore)

	require.NoError(t, gameService.SetScore(ctx, f.game.ID, 40, 38, pool.GameInProgress))
	require.NoError(t, gameService.SetScore(ctx, f.game.ID, 78, 76, pool.GameFinal))

	err := gameService.SetScore(ctx, f.game.ID, 78, 76, pool.GameInProgress)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cannot move")

	game, err := poolStore.GetGame(ctx, f.game.ID)
	require.NoError(t, err)
	assert.Equal(t, pool.GameFinal, game.Status)
}

func TestSetSpread(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	poolStore := store.NewPoolStore(db)
	gameService := NewGameService(db, poolStore)
	ctx := context.Background()

	f := newMatchupFixture(t, db, poolStore)

	require.NoError(t, gameService.SetSpread(ctx, f.game.ID, 6.5, f.team2.ID))

	game, err := poolStore.GetGame(ctx, f.game.ID)
	require.NoError(t, err)
	assert.Equal(t, 6.5, *game.Spread)
	assert.Equal(t, f.team2.ID, *game.SpreadFavoriteTeamID)

	err = gameService.SetSpread(ctx, f.game.ID, -2.0, f.team1.ID)
	assert.Error(t, err)

	err = gameService.SetSpread(ctx, f.game.ID, 3.5, uuid.New())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not part of this game")
}

func TestAssignTeam(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	poolStore := store.NewPoolStore(db)
	draftService := NewDraftService(db, poolStore)
	ctx := context.Background()

	team := pool.Team{ID: uuid.New(), Name: "Houston", Year: 2026}
	game := pool.Game{
		ID: uuid.New(), Year: 2026, Round: pool.Round64,
		Team1ID: &team.ID, Status: pool.GameScheduled,
	}
	tx, err := db.BeginTxx(ctx, nil)
	require.NoError(t, err)
	require.NoError(t, poolStore.CreateTeams(ctx, tx, []pool.Team{team}))
	require.NoError(t, poolStore.CreateGames(ctx, tx, []pool.Game{game}))
	require.NoError(t, tx.Commit())

	owner, err := draftService.CreateParticipant(ctx, "Alice", "alice@example.com")
	require.NoError(t, err)

	require.NoError(t, draftService.AssignTeam(ctx, team.ID, owner.ID))

	fetched, err := poolStore.GetTeam(ctx, team.ID)
	require.NoError(t, err)
	assert.Equal(t, owner.ID, *fetched.InitialOwnerID)
	assert.Equal(t, owner.ID, *fetched.CurrentOwnerID)

	// The scheduled game picked up the owner-of-record
	fetchedGame, err := poolStore.GetGame(ctx, game.ID)
	require.NoError(t, err)
	require.NotNil(t, fetchedGame.Team1OwnerID)
	assert.Equal(t, owner.ID, *fetchedGame.Team1OwnerID)

	// Teams cannot be drafted twice
	err = draftService.AssignTeam(ctx, team.ID, owner.ID)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already drafted")
}
