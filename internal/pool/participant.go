package pool

import (
	"time"

	"github.com/google/uuid"
)

// Participant is a pool member who holds rights to teams against the spread.
type Participant struct {
	ID        uuid.UUID `db:"id"`
	Name      string    `db:"name"`
	Email     *string   `db:"email"`
	CreatedAt time.Time `db:"created_at"`
}
