// Package registry owns the in-memory table of currently connected,
// registered clients. It is the single source of truth for "who is online"
// in the live relay; the database only mirrors it best-effort.
package registry

import (
	"sync"

	"geopulse-relay-svc/src/internal/models"
)

// Registry maps socket ids to live sessions. Every connection's read pump is
// its own goroutine, so access is guarded by a mutex. A userId may appear
// under several socket ids when the same identity registers twice; entries
// are keyed strictly by connection.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]models.Session
}

func New() *Registry {
	return &Registry{
		sessions: make(map[string]models.Session),
	}
}

// Put stores or replaces the session for the given socket id.
func (r *Registry) Put(socketID string, session models.Session) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[socketID] = session
}

// Get returns a copy of the session for the given socket id.
func (r *Registry) Get(socketID string) (models.Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	session, ok := r.sessions[socketID]
	return session, ok
}

// Remove drops the session for the given socket id, if any.
func (r *Registry) Remove(socketID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, socketID)
}

// Values returns a snapshot of all current sessions.
func (r *Registry) Values() []models.Session {
	r.mu.RLock()
	defer r.mu.RUnlock()
	sessions := make([]models.Session, 0, len(r.sessions))
	for _, session := range r.sessions {
		sessions = append(sessions, session)
	}
	return sessions
}

// Len returns the number of live sessions.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}
