package registry

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Client statuses accepted by the clients table check constraint.
var ValidClientStatuses = map[string]bool{
	"active":   true,
	"inactive": true,
	"pending":  true,
}

// Client maps to the clients table. Root of the master-data hierarchy.
type Client struct {
	ID        uuid.UUID `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	Slug      string    `db:"slug" json:"slug"`
	Status    string    `db:"status" json:"status"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// Practice maps to the practices table. Owned by exactly one client; the
// owning client is fixed at creation.
type Practice struct {
	ID           uuid.UUID `db:"id" json:"id"`
	ClientID     uuid.UUID `db:"client_id" json:"client_id"`
	Name         string    `db:"name" json:"name"`
	PracticeType *string   `db:"practice_type" json:"practice_type,omitempty"`
	OwnerName    *string   `db:"owner_name" json:"owner_name,omitempty"`
	IsActive     bool      `db:"is_active" json:"is_active"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`

	// Display-only, populated by joined list queries.
	ClientName string `db:"-" json:"client_name,omitempty"`
}

// Provider maps to the providers table. Leaf of the hierarchy.
type Provider struct {
	ID           uuid.UUID `db:"id" json:"id"`
	PracticeID   uuid.UUID `db:"practice_id" json:"practice_id"`
	Name         string    `db:"name" json:"name"`
	ProviderType *string   `db:"provider_type" json:"provider_type,omitempty"`
	IsActive     bool      `db:"is_active" json:"is_active"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`

	// Display-only, populated by joined list queries.
	ClientName   string `db:"-" json:"client_name,omitempty"`
	PracticeName string `db:"-" json:"practice_name,omitempty"`
}

// Slugify derives a URL-safe slug from a display name: lowercase, spaces
// collapsed to underscores.
func Slugify(name string) string {
	s := strings.ToLower(strings.TrimSpace(name))
	return strings.Join(strings.Fields(s), "_")
}
