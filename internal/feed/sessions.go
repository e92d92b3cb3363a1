package feed

import (
	"sync"
	"time"
)

// SessionManager hands out one Paginator per (actor, view) feed session.
// Sessions live for as long as the client keeps paging; idle ones are pruned
// so abandoned feeds don't pin their dedupe sets forever.
type SessionManager struct {
	mu       sync.Mutex
	src      PageSource
	sessions map[string]*session
}

type session struct {
	paginator  *Paginator
	lastAccess time.Time
}

// NewSessionManager creates a session registry reading pages from src.
func NewSessionManager(src PageSource) *SessionManager {
	return &SessionManager{
		src:      src,
		sessions: make(map[string]*session),
	}
}

// Get returns the paginator for an actor's view, creating it on first use.
func (m *SessionManager) Get(actorID string, view ViewKind) *Paginator {
	key := actorID + "|" + string(view)

	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[key]
	if !ok {
		s = &session{paginator: NewPaginator(m.src)}
		m.sessions[key] = s
	}
	s.lastAccess = time.Now()
	return s.paginator
}

// PruneIdle drops sessions that have not been touched within maxIdle and
// returns how many were removed.
func (m *SessionManager) PruneIdle(maxIdle time.Duration) int {
	cutoff := time.Now().Add(-maxIdle)

	m.mu.Lock()
	defer m.mu.Unlock()

	pruned := 0
	for key, s := range m.sessions {
		if s.lastAccess.Before(cutoff) {
			delete(m.sessions, key)
			pruned++
		}
	}
	return pruned
}
