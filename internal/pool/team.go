package pool

import (
	"time"

	"github.com/google/uuid"
)

// Team is a tournament team scoped to a year. InitialOwnerID records who
// drafted the team and never changes after the draft; CurrentOwnerID is the
// live holder and moves (or is revoked) as games finalize.
type Team struct {
	ID     uuid.UUID `db:"id"`
	Name   string    `db:"name"`
	Seed   *int      `db:"seed"`
	Region *string   `db:"region"`
	Year   int       `db:"year"`

	InitialOwnerID *uuid.UUID `db:"initial_owner_id"`
	CurrentOwnerID *uuid.UUID `db:"current_owner_id"`

	CreatedAt time.Time `db:"created_at"`
}
