// Package session keeps one user's dashboard state for the lifetime of an
// interactive session: the uploaded table, the role mapping, filter
// selections and UI preferences. Nothing here is shared across sessions or
// persisted.
package session

import (
	"sync"
	"time"

	"smartdash/internal/dataset"
	"smartdash/internal/schema"
)

// Theme is the dashboard color scheme toggle.
type Theme string

const (
	ThemeLight Theme = "light"
	ThemeDark  Theme = "dark"
)

// Session is the per-user dashboard state. The mapping is seeded from the
// inferencer at load time and afterwards changes only through explicit
// user selection; filter and preference updates must never reset it.
type Session struct {
	mu sync.Mutex

	ID    string
	Table *dataset.Table

	Mapping schema.Mapping
	// Filters holds the chosen value subsets per filter role. A missing or
	// empty entry means that role's filter is a no-op.
	Filters map[schema.Role][]string

	ShowFullPreview bool
	Theme           Theme

	CreatedAt time.Time
	LastSeen  time.Time
}

// Lock serializes access to the session. A session belongs to one user,
// but nothing stops that user's client from firing overlapping requests,
// so handlers hold the lock across read-modify-render.
func (s *Session) Lock() { s.mu.Lock() }

// Unlock releases the session lock.
func (s *Session) Unlock() { s.mu.Unlock() }

// SetMapping applies per-role column selections. Roles whose column
// actually changes get their filter selection cleared, since the old chosen
// values belonged to a different column; everything else is untouched.
func (s *Session) SetMapping(updates map[schema.Role]string) {
	for role, col := range updates {
		prev, _ := s.Mapping.Column(role)
		if prev == col {
			continue
		}
		s.Mapping.Set(role, col)
		delete(s.Filters, role)
	}
}

// SetFilter replaces the chosen value subset for one filter role. An empty
// subset turns the filter off.
func (s *Session) SetFilter(role schema.Role, values []string) {
	if len(values) == 0 {
		delete(s.Filters, role)
		return
	}
	chosen := make([]string, len(values))
	copy(chosen, values)
	s.Filters[role] = chosen
}

// FilterValues returns the chosen subset for role, or nil when the filter
// is off.
func (s *Session) FilterValues(role schema.Role) []string {
	return s.Filters[role]
}
