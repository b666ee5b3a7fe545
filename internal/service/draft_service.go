package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/mmadness/spread-pool/internal/pool"
	"github.com/mmadness/spread-pool/internal/store"
	"github.com/mmadness/spread-pool/internal/utils"
)

// DraftService manages participants and draft-time team assignment. It never
// touches ownership after the draft; round-to-round transfer belongs to
// GameService.
type DraftService struct {
	db    *sqlx.DB
	store *store.PoolStore
}

func NewDraftService(db *sqlx.DB, store *store.PoolStore) *DraftService {
	return &DraftService{db: db, store: store}
}

func (s *DraftService) CreateParticipant(ctx context.Context, name, email string) (*pool.Participant, error) {
	if name == "" {
		return nil, fmt.Errorf("participant name is required")
	}
	p := &pool.Participant{
		ID:    uuid.New(),
		Name:  name,
		Email: utils.StringOrNil(email),
	}
	if err := s.store.CreateParticipant(ctx, p); err != nil {
		return nil, fmt.Errorf("failed to create participant: %w", err)
	}
	return p, nil
}

func (s *DraftService) ListParticipants(ctx context.Context) ([]pool.Participant, error) {
	return s.store.ListParticipants(ctx)
}

// AssignTeam records a draft pick: the participant becomes the team's initial
// and current owner, and any scheduled game the team already sits in gets its
// owner-of-record stamped so first-round attribution is in place before
// tip-off.
func (s *DraftService) AssignTeam(ctx context.Context, teamID, participantID uuid.UUID) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	team, err := s.store.GetTeamTx(ctx, tx, teamID)
	if err != nil {
		return fmt.Errorf("failed to get team: %w", err)
	}
	if team.InitialOwnerID != nil {
		return fmt.Errorf("team %s is already drafted", team.Name)
	}

	team.InitialOwnerID = &participantID
	team.CurrentOwnerID = &participantID
	if err := s.store.UpdateTeamOwnersTx(ctx, tx, team); err != nil {
		return fmt.Errorf("failed to assign team: %w", err)
	}

	if err := s.store.StampGameOwners(ctx, tx, teamID, participantID); err != nil {
		return fmt.Errorf("failed to stamp game owners: %w", err)
	}

	return tx.Commit()
}
