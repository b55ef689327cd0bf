package session

import (
	"sync"
	"time"

	"botgate/internal/models"

	"github.com/google/uuid"
)

// Store holds every in-flight verification session, keyed by an opaque
// identifier carried in the client's cookie. State is never persisted; a
// session lives exactly as long as one verification flow.
//
// Mutations replace the whole state value, so a concurrent reader sees
// either the old or the new state, never a torn mix. Last write wins when
// two requests for the same session race.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*models.SessionState
}

func NewStore() *Store {
	return &Store{sessions: make(map[string]*models.SessionState)}
}

// NewID mints an opaque session identifier.
func (s *Store) NewID() string {
	return uuid.NewString()
}

// Get returns a private copy of the session's state. Callers mutate the copy
// and hand it back through Replace.
func (s *Store) Get(id string) (*models.SessionState, bool) {
	s.mu.RLock()
	state, ok := s.sessions[id]
	s.mu.RUnlock()
	if !ok {
		return nil, false
	}
	return state.Clone(), true
}

// Replace installs state as the session's new value.
func (s *Store) Replace(id string, state *models.SessionState) {
	state.UpdatedAt = time.Now()
	s.mu.Lock()
	s.sessions[id] = state
	s.mu.Unlock()
}

// Delete destroys the session outright. Used on success and restart.
func (s *Store) Delete(id string) {
	s.mu.Lock()
	delete(s.sessions, id)
	s.mu.Unlock()
}

// Len reports the number of live sessions.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// Sweep drops sessions idle longer than maxAge and returns how many were
// removed. Called periodically by the cleanup service.
func (s *Store) Sweep(maxAge time.Duration) int {
	cutoff := time.Now().Add(-maxAge)
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for id, state := range s.sessions {
		if state.UpdatedAt.Before(cutoff) {
			delete(s.sessions, id)
			removed++
		}
	}
	return removed
}
