package session

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"smartdash/internal/dataset"
	"smartdash/internal/schema"
)

// Store holds live sessions keyed by ID. Access is mutex-guarded because
// HTTP handlers run concurrently; each individual session still belongs to
// a single user.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	ttl      time.Duration
	now      func() time.Time
}

// NewStore creates a store that evicts sessions idle for longer than ttl.
// A non-positive ttl disables eviction.
func NewStore(ttl time.Duration) *Store {
	return &Store{
		sessions: make(map[string]*Session),
		ttl:      ttl,
		now:      time.Now,
	}
}

// Create registers a new session for tbl with the given seeded mapping.
func (st *Store) Create(tbl *dataset.Table, mapping schema.Mapping) *Session {
	now := st.now()
	s := &Session{
		ID:        uuid.NewString(),
		Table:     tbl,
		Mapping:   mapping,
		Filters:   make(map[schema.Role][]string),
		Theme:     ThemeLight,
		CreatedAt: now,
		LastSeen:  now,
	}
	st.mu.Lock()
	defer st.mu.Unlock()
	st.evictLocked(now)
	st.sessions[s.ID] = s
	return s
}

// Get returns the session with the given ID and refreshes its idle timer.
func (st *Store) Get(id string) (*Session, bool) {
	st.mu.Lock()
	defer st.mu.Unlock()
	s, ok := st.sessions[id]
	if !ok {
		return nil, false
	}
	now := st.now()
	if st.expired(s, now) {
		delete(st.sessions, id)
		return nil, false
	}
	s.LastSeen = now
	return s, true
}

// Delete removes the session with the given ID, if present.
func (st *Store) Delete(id string) {
	st.mu.Lock()
	defer st.mu.Unlock()
	delete(st.sessions, id)
}

// Len reports the number of live sessions.
func (st *Store) Len() int {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return len(st.sessions)
}

func (st *Store) expired(s *Session, now time.Time) bool {
	return st.ttl > 0 && now.Sub(s.LastSeen) > st.ttl
}

func (st *Store) evictLocked(now time.Time) {
	if st.ttl <= 0 {
		return
	}
	for id, s := range st.sessions {
		if st.expired(s, now) {
			delete(st.sessions, id)
		}
	}
}
