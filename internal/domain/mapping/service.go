package mapping

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/masterdata/masterdata/internal/domain/registry"
	"github.com/masterdata/masterdata/internal/platform/apperr"
	"github.com/masterdata/masterdata/internal/platform/metrics"
)

// ClientGetter is the slice of the registry the mapping service needs to
// verify client references.
type ClientGetter interface {
	GetByID(ctx context.Context, id uuid.UUID) (*registry.Client, error)
}

// PracticeGetter verifies practice references and ownership.
type PracticeGetter interface {
	GetByID(ctx context.Context, id uuid.UUID) (*registry.Practice, error)
}

// TxFunc runs fn inside a database transaction. Repo calls made with the
// context fn receives join that transaction.
type TxFunc func(ctx context.Context, fn func(ctx context.Context) error) error

// Service owns the business rules of the mapping table: reference
// integrity, window validation, and single-active-mapping enforcement.
type Service struct {
	repo      Repo
	clients   ClientGetter
	practices PracticeGetter
	withTx    TxFunc
}

func NewService(repo Repo, clients ClientGetter, practices PracticeGetter, withTx TxFunc) *Service {
	if withTx == nil {
		withTx = func(ctx context.Context, fn func(ctx context.Context) error) error {
			return fn(ctx)
		}
	}
	return &Service{repo: repo, clients: clients, practices: practices, withTx: withTx}
}

// AddMapping validates and inserts a new mapping row. The overlap check
// and the insert run in one transaction with the competing scope rows
// locked, so concurrent writers serialize.
func (s *Service) AddMapping(ctx context.Context, m *Mapping) error {
	if err := s.addMapping(ctx, m); err != nil {
		metrics.ObserveMappingWrite(writeResult(err))
		return err
	}
	metrics.ObserveMappingWrite("ok")
	return nil
}

func (s *Service) addMapping(ctx context.Context, m *Mapping) error {
	m.SourceCode = strings.TrimSpace(m.SourceCode)
	m.StandardizedCategory = strings.TrimSpace(m.StandardizedCategory)

	if m.ClientID == uuid.Nil {
		return apperr.Validation("client_id", "is required")
	}
	if m.SourceCode == "" {
		return apperr.Validation("source_code", "must not be empty")
	}
	if m.StandardizedCategory == "" {
		return apperr.Validation("standardized_category", "must not be empty")
	}
	if m.ValidFrom.IsZero() {
		return apperr.Validation("valid_from", "is required")
	}
	if m.ValidUntil != nil && m.ValidUntil.Before(m.ValidFrom) {
		return apperr.Validation("valid_until", "must not precede valid_from")
	}

	if _, err := s.clients.GetByID(ctx, m.ClientID); err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return apperr.Reference("client", m.ClientID)
		}
		return err
	}
	if m.PracticeID != nil {
		practice, err := s.practices.GetByID(ctx, *m.PracticeID)
		if err != nil {
			if errors.Is(err, apperr.ErrNotFound) {
				return apperr.Reference("practice", *m.PracticeID)
			}
			return err
		}
		if practice.ClientID != m.ClientID {
			return &apperr.ReferenceError{
				Entity: "practice",
				ID:     *m.PracticeID,
				Reason: "does not belong to the client",
			}
		}
	}

	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}

	return s.withTx(ctx, func(ctx context.Context) error {
		existing, err := s.repo.LockScope(ctx, m.ClientID, m.PracticeID, m.SourceCode)
		if err != nil {
			return err
		}
		for _, other := range existing {
			if m.Overlaps(other) {
				return &apperr.ConflictError{
					Resource:      "mapping",
					ConflictingID: other.ID,
					ValidFrom:     other.ValidFrom,
					ValidUntil:    other.ValidUntil,
				}
			}
		}
		return s.repo.Create(ctx, m)
	})
}

// CloseMapping terminates an open-ended mapping by setting its end date.
func (s *Service) CloseMapping(ctx context.Context, id uuid.UUID, endDate time.Time) (*Mapping, error) {
	m, err := s.closeMapping(ctx, id, endDate)
	if err != nil {
		metrics.ObserveMappingWrite(writeResult(err))
		return nil, err
	}
	metrics.ObserveMappingWrite("ok")
	return m, nil
}

func (s *Service) closeMapping(ctx context.Context, id uuid.UUID, endDate time.Time) (*Mapping, error) {
	var closed *Mapping
	err := s.withTx(ctx, func(ctx context.Context) error {
		m, err := s.repo.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if m.ValidUntil != nil {
			return apperr.Validation("id", "mapping is already closed")
		}
		if endDate.Before(m.ValidFrom) {
			return apperr.Validation("end_date", "must not precede valid_from")
		}
		closed, err = s.repo.SetEndDate(ctx, id, endDate)
		return err
	})
	if err != nil {
		return nil, err
	}
	return closed, nil
}

func (s *Service) GetMapping(ctx context.Context, id uuid.UUID) (*Mapping, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) ListByClient(ctx context.Context, clientID uuid.UUID, limit, offset int) ([]*Mapping, int, error) {
	return s.repo.ListByClient(ctx, clientID, limit, offset)
}

// Resolve answers the point-in-time question: which standardized category
// governs sourceCode for this client (and optionally practice) on the
// given date. Returns apperr.ErrNotFound when no window covers the date;
// callers should treat that as a normal outcome, not a failure.
func (s *Service) Resolve(ctx context.Context, clientID uuid.UUID, practiceID *uuid.UUID, sourceCode string, at time.Time) (*Mapping, error) {
	sourceCode = strings.TrimSpace(sourceCode)
	if sourceCode == "" {
		return nil, apperr.Validation("source_code", "must not be empty")
	}
	candidates, err := s.repo.Candidates(ctx, clientID, practiceID, sourceCode)
	if err != nil {
		return nil, err
	}
	m := ResolveCategory(candidates, practiceID, at)
	if m == nil {
		metrics.ObserveResolution("miss")
		return nil, apperr.ErrNotFound
	}
	metrics.ObserveResolution("hit")
	return m, nil
}

// ListActive returns the currently-valid mappings with display names,
// optionally filtered by client and practice scope.
func (s *Service) ListActive(ctx context.Context, clientID, practiceID *uuid.UUID, limit, offset int) ([]*ActiveMapping, int, error) {
	return s.repo.ListActive(ctx, clientID, practiceID, limit, offset)
}

func writeResult(err error) string {
	switch {
	case apperr.IsValidation(err):
		return "validation"
	case apperr.IsReference(err):
		return "reference"
	case apperr.IsConflict(err):
		return "conflict"
	case errors.Is(err, apperr.ErrNotFound):
		return "not_found"
	default:
		return "error"
	}
}
