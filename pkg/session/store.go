package session

import (
	"sync"
	"time"
)

// Session is the shared integration session. The zero value is the empty
// session.
type Session struct {
	// Token is the ERP session id.
	Token string

	// LicenseClaim is the license class the session was opened with.
	LicenseClaim string

	// ObtainedAt is when the login that produced Token completed.
	ObtainedAt time.Time
}

// IsEmpty reports whether no session is held.
func (s Session) IsEmpty() bool {
	return s.Token == ""
}

// Equal reports whether s and o describe the same session.
func (s Session) Equal(o Session) bool {
	return s.Token == o.Token &&
		s.LicenseClaim == o.LicenseClaim &&
		s.ObtainedAt.Equal(o.ObtainedAt)
}

// Store holds the current session. Reads are cheap and never block on
// network I/O; writes go through CompareAndSet so a stale writer cannot
// overwrite a newer session.
type Store struct {
	mu      sync.RWMutex
	current Session
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{}
}

// Get returns a snapshot of the current session.
func (s *Store) Get() Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// CompareAndSet replaces the session with next if the current session
// equals expected. It reports whether the swap happened.
func (s *Store) CompareAndSet(expected, next Session) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.current.Equal(expected) {
		return false
	}
	s.current = next
	return true
}
