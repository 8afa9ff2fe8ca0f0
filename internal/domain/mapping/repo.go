package mapping

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Repo defines data access for appointment-type mappings.
type Repo interface {
	Create(ctx context.Context, m *Mapping) error
	GetByID(ctx context.Context, id uuid.UUID) (*Mapping, error)
	ListByClient(ctx context.Context, clientID uuid.UUID, limit, offset int) ([]*Mapping, int, error)

	// LockScope returns all rows competing with the given scope, locked
	// for update when running inside a transaction. Used for overlap
	// checks before a write.
	LockScope(ctx context.Context, clientID uuid.UUID, practiceID *uuid.UUID, sourceCode string) ([]*Mapping, error)

	// Candidates returns the rows eligible for resolution: client-wide
	// rows for the client and source code, plus rows scoped to the given
	// practice when one is supplied.
	Candidates(ctx context.Context, clientID uuid.UUID, practiceID *uuid.UUID, sourceCode string) ([]*Mapping, error)

	SetEndDate(ctx context.Context, id uuid.UUID, endDate time.Time) (*Mapping, error)
	ListActive(ctx context.Context, clientID, practiceID *uuid.UUID, limit, offset int) ([]*ActiveMapping, int, error)
}
