package registry

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"

	"github.com/masterdata/masterdata/internal/platform/apperr"
)

// Service applies validation and hierarchy rules over the registry repos.
type Service struct {
	clients   ClientRepo
	practices PracticeRepo
	providers ProviderRepo
}

func NewService(clients ClientRepo, practices PracticeRepo, providers ProviderRepo) *Service {
	return &Service{clients: clients, practices: practices, providers: providers}
}

// CreateClient registers a new client. Slug defaults to a slugified name
// when absent; status defaults to active.
func (s *Service) CreateClient(ctx context.Context, c *Client) error {
	c.Name = strings.TrimSpace(c.Name)
	if c.Name == "" {
		return apperr.Validation("name", "must not be empty")
	}
	if c.Slug == "" {
		c.Slug = Slugify(c.Name)
	}
	if c.Status == "" {
		c.Status = "active"
	}
	if !ValidClientStatuses[c.Status] {
		return apperr.Validation("status", "must be one of active, inactive, pending")
	}
	if existing, err := s.clients.GetBySlug(ctx, c.Slug); err == nil && existing != nil {
		return apperr.Validation("slug", "already in use")
	} else if err != nil && !errors.Is(err, apperr.ErrNotFound) {
		return err
	}
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return s.clients.Create(ctx, c)
}

func (s *Service) GetClient(ctx context.Context, id uuid.UUID) (*Client, error) {
	return s.clients.GetByID(ctx, id)
}

func (s *Service) ListClients(ctx context.Context, limit, offset int) ([]*Client, int, error) {
	return s.clients.List(ctx, limit, offset)
}

func (s *Service) UpdateClient(ctx context.Context, c *Client) error {
	c.Name = strings.TrimSpace(c.Name)
	if c.Name == "" {
		return apperr.Validation("name", "must not be empty")
	}
	if !ValidClientStatuses[c.Status] {
		return apperr.Validation("status", "must be one of active, inactive, pending")
	}
	if c.Slug == "" {
		c.Slug = Slugify(c.Name)
	}
	return s.clients.Update(ctx, c)
}

func (s *Service) DeleteClient(ctx context.Context, id uuid.UUID) error {
	return s.clients.Delete(ctx, id)
}

// CreatePractice registers a practice under an existing client.
func (s *Service) CreatePractice(ctx context.Context, p *Practice) error {
	p.Name = strings.TrimSpace(p.Name)
	if p.Name == "" {
		return apperr.Validation("name", "must not be empty")
	}
	if p.ClientID == uuid.Nil {
		return apperr.Validation("client_id", "is required")
	}
	if _, err := s.clients.GetByID(ctx, p.ClientID); err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return apperr.Reference("client", p.ClientID)
		}
		return err
	}
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return s.practices.Create(ctx, p)
}

func (s *Service) GetPractice(ctx context.Context, id uuid.UUID) (*Practice, error) {
	return s.practices.GetByID(ctx, id)
}

func (s *Service) ListPractices(ctx context.Context, clientID *uuid.UUID, limit, offset int) ([]*Practice, int, error) {
	return s.practices.List(ctx, clientID, limit, offset)
}

// UpdatePractice changes mutable fields. The owning client is fixed at
// creation and cannot be reassigned.
func (s *Service) UpdatePractice(ctx context.Context, p *Practice) error {
	p.Name = strings.TrimSpace(p.Name)
	if p.Name == "" {
		return apperr.Validation("name", "must not be empty")
	}
	return s.practices.Update(ctx, p)
}

func (s *Service) DeletePractice(ctx context.Context, id uuid.UUID) error {
	return s.practices.Delete(ctx, id)
}

// CreateProvider registers a provider under an existing practice.
func (s *Service) CreateProvider(ctx context.Context, p *Provider) error {
	p.Name = strings.TrimSpace(p.Name)
	if p.Name == "" {
		return apperr.Validation("name", "must not be empty")
	}
	if p.PracticeID == uuid.Nil {
		return apperr.Validation("practice_id", "is required")
	}
	if _, err := s.practices.GetByID(ctx, p.PracticeID); err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return apperr.Reference("practice", p.PracticeID)
		}
		return err
	}
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return s.providers.Create(ctx, p)
}

func (s *Service) GetProvider(ctx context.Context, id uuid.UUID) (*Provider, error) {
	return s.providers.GetByID(ctx, id)
}

func (s *Service) ListProviders(ctx context.Context, practiceID *uuid.UUID, limit, offset int) ([]*Provider, int, error) {
	return s.providers.List(ctx, practiceID, limit, offset)
}

func (s *Service) UpdateProvider(ctx context.Context, p *Provider) error {
	p.Name = strings.TrimSpace(p.Name)
	if p.Name == "" {
		return apperr.Validation("name", "must not be empty")
	}
	return s.providers.Update(ctx, p)
}

func (s *Service) DeleteProvider(ctx context.Context, id uuid.UUID) error {
	return s.providers.Delete(ctx, id)
}
