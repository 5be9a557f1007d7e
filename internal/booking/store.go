package booking

import (
	"sync"
	"time"
)

// SessionStore keeps in-flight selection sessions by ID.
type SessionStore struct {
	sessions map[string]*Session
	mu       sync.RWMutex
	timeout  time.Duration
}

// NewSessionStore creates a store; idle sessions expire after timeout.
func NewSessionStore(timeout time.Duration) *SessionStore {
	if timeout <= 0 {
		timeout = 30 * time.Minute
	}
	return &SessionStore{
		sessions: make(map[string]*Session),
		timeout:  timeout,
	}
}

// Create starts a new selection session.
func (ss *SessionStore) Create() *Session {
	ss.mu.Lock()
	defer ss.mu.Unlock()

	session := NewSession()
	ss.sessions[session.ID] = session
	return session
}

// Get returns a live session or nil.
func (ss *SessionStore) Get(id string) *Session {
	ss.mu.RLock()
	defer ss.mu.RUnlock()

	session := ss.sessions[id]
	if session == nil || session.IsExpired(ss.timeout) {
		return nil
	}
	return session
}

// Delete removes a session.
func (ss *SessionStore) Delete(id string) {
	ss.mu.Lock()
	defer ss.mu.Unlock()
	delete(ss.sessions, id)
}

// Cleanup removes expired sessions and reports how many were dropped.
func (ss *SessionStore) Cleanup() int {
	ss.mu.Lock()
	defer ss.mu.Unlock()

	removed := 0
	for id, session := range ss.sessions {
		if session.IsExpired(ss.timeout) {
			delete(ss.sessions, id)
			removed++
		}
	}
	return removed
}
