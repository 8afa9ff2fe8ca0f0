package registry

import (
	"context"

	"github.com/google/uuid"
)

// ClientRepo defines data access for clients.
type ClientRepo interface {
	Create(ctx context.Context, c *Client) error
	GetByID(ctx context.Context, id uuid.UUID) (*Client, error)
	GetBySlug(ctx context.Context, slug string) (*Client, error)
	List(ctx context.Context, limit, offset int) ([]*Client, int, error)
	Update(ctx context.Context, c *Client) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// PracticeRepo defines data access for practices.
type PracticeRepo interface {
	Create(ctx context.Context, p *Practice) error
	GetByID(ctx context.Context, id uuid.UUID) (*Practice, error)
	List(ctx context.Context, clientID *uuid.UUID, limit, offset int) ([]*Practice, int, error)
	Update(ctx context.Context, p *Practice) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// ProviderRepo defines data access for providers.
type ProviderRepo interface {
	Create(ctx context.Context, p *Provider) error
	GetByID(ctx context.Context, id uuid.UUID) (*Provider, error)
	List(ctx context.Context, practiceID *uuid.UUID, limit, offset int) ([]*Provider, int, error)
	Update(ctx context.Context, p *Provider) error
	Delete(ctx context.Context, id uuid.UUID) error
}
