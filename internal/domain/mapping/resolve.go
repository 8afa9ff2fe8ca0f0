package mapping

import (
	"time"

	"github.com/google/uuid"
)

// ResolveCategory picks the mapping that governs a source code lookup at
// the given date. Candidates must already be filtered to one client and
// source code. A practice-scoped row for the given practice beats any
// client-wide row; among rows at the same scope the latest ValidFrom
// wins. Returns nil when no candidate window contains the date.
func ResolveCategory(candidates []*Mapping, practiceID *uuid.UUID, at time.Time) *Mapping {
	var best *Mapping
	for _, m := range candidates {
		if !m.ContainsDate(at) {
			continue
		}
		if m.PracticeID != nil {
			if practiceID == nil || *m.PracticeID != *practiceID {
				continue
			}
		}
		if best == nil || preferred(m, best) {
			best = m
		}
	}
	return best
}

// preferred reports whether a should replace b as the resolution result.
func preferred(a, b *Mapping) bool {
	aScoped := a.PracticeID != nil
	bScoped := b.PracticeID != nil
	if aScoped != bScoped {
		return aScoped
	}
	return a.ValidFrom.After(b.ValidFrom)
}
