// Package apperr defines the error taxonomy shared by the domain services.
// Handlers translate these into HTTP status codes; repositories map store
// errors (pgx.ErrNoRows in particular) into them at the boundary.
package apperr

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound indicates a lookup matched no row. For mapping resolution this
// is a normal outcome, not a failure.
var ErrNotFound = errors.New("not found")

// ValidationError indicates malformed or missing input. Recoverable by the
// caller; Field names the offending input.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// Validation builds a ValidationError for a field.
func Validation(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

// ReferenceError indicates a referenced parent entity does not exist, or
// the reference is inconsistent with the rest of the input. Reason, when
// set, overrides the default "does not exist" wording.
type ReferenceError struct {
	Entity string
	ID     uuid.UUID
	Reason string
}

func (e *ReferenceError) Error() string {
	reason := e.Reason
	if reason == "" {
		reason = "does not exist"
	}
	return fmt.Sprintf("%s %s %s", e.Entity, e.ID, reason)
}

// Reference builds a ReferenceError for a missing parent entity.
func Reference(entity string, id uuid.UUID) error {
	return &ReferenceError{Entity: entity, ID: id}
}

// ConflictError indicates a write collides with an existing row. For mapping
// windows it carries the conflicting row's identity and validity window so
// the caller can act on it.
type ConflictError struct {
	Resource      string
	ConflictingID uuid.UUID
	ValidFrom     time.Time
	ValidUntil    *time.Time
}

func (e *ConflictError) Error() string {
	until := "open-ended"
	if e.ValidUntil != nil {
		until = e.ValidUntil.Format("2006-01-02")
	}
	return fmt.Sprintf("%s conflicts with existing row %s (valid %s to %s)",
		e.Resource, e.ConflictingID, e.ValidFrom.Format("2006-01-02"), until)
}

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// IsReference reports whether err is a ReferenceError.
func IsReference(err error) bool {
	var re *ReferenceError
	return errors.As(err, &re)
}

// IsConflict reports whether err is a ConflictError.
func IsConflict(err error) bool {
	var ce *ConflictError
	return errors.As(err, &ce)
}
