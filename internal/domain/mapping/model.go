// Package mapping implements the time-versioned appointment-type mapping
// table: per-client translations from source appointment codes to
// standardized categories, optionally scoped to a single practice, with
// non-overlapping validity windows per scope.
package mapping

import (
	"time"

	"github.com/google/uuid"
)

// Mapping maps to the appointment_type_mappings table. PracticeID nil
// means the row applies client-wide; ValidUntil nil means the window is
// open-ended.
type Mapping struct {
	ID                   uuid.UUID  `db:"id" json:"id"`
	ClientID             uuid.UUID  `db:"client_id" json:"client_id"`
	PracticeID           *uuid.UUID `db:"practice_id" json:"practice_id,omitempty"`
	SourceCode           string     `db:"source_appointment_type" json:"source_code"`
	StandardizedCategory string     `db:"standardized_category" json:"standardized_category"`
	ValidFrom            time.Time  `db:"start_date" json:"valid_from"`
	ValidUntil           *time.Time `db:"end_date" json:"valid_until,omitempty"`
	Notes                *string    `db:"notes" json:"notes,omitempty"`
	CreatedAt            time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt            time.Time  `db:"updated_at" json:"updated_at"`
}

// ActiveMapping is a row of the active_appointment_type_mappings view:
// a currently-valid mapping joined with display names.
type ActiveMapping struct {
	Mapping
	ClientName   string  `db:"client_name" json:"client_name"`
	PracticeName *string `db:"practice_name" json:"practice_name,omitempty"`
}

// Scope returns "practice" for practice-scoped rows and "client" for
// client-wide rows.
func (m *Mapping) Scope() string {
	if m.PracticeID != nil {
		return "practice"
	}
	return "client"
}

// ContainsDate reports whether day falls inside the validity window.
// Both bounds are inclusive; dates are compared at day granularity.
func (m *Mapping) ContainsDate(day time.Time) bool {
	d := truncateToDay(day)
	if d.Before(truncateToDay(m.ValidFrom)) {
		return false
	}
	if m.ValidUntil != nil && d.After(truncateToDay(*m.ValidUntil)) {
		return false
	}
	return true
}

// Overlaps reports whether the validity windows of m and other intersect.
// Open-ended windows extend to infinity.
func (m *Mapping) Overlaps(other *Mapping) bool {
	mFrom, oFrom := truncateToDay(m.ValidFrom), truncateToDay(other.ValidFrom)
	if m.ValidUntil != nil && oFrom.After(truncateToDay(*m.ValidUntil)) {
		return false
	}
	if other.ValidUntil != nil && mFrom.After(truncateToDay(*other.ValidUntil)) {
		return false
	}
	return true
}

// SameScope reports whether two rows compete for the same lookups:
// same client, same source code, and both client-wide or both scoped to
// the same practice.
func (m *Mapping) SameScope(other *Mapping) bool {
	if m.ClientID != other.ClientID || m.SourceCode != other.SourceCode {
		return false
	}
	if (m.PracticeID == nil) != (other.PracticeID == nil) {
		return false
	}
	if m.PracticeID != nil && *m.PracticeID != *other.PracticeID {
		return false
	}
	return true
}

func truncateToDay(t time.Time) time.Time {
	y, mo, d := t.Date()
	return time.Date(y, mo, d, 0, 0, 0, 0, time.UTC)
}
