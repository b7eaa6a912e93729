// Package session holds conversation state for the A2A endpoint: sessions
// keyed by (agent, user, session id), each owning a map of tasks.
//
// Locking is layered. The Store lock only guards the session map, a
// Session lock guards its task map and state bag, and every Task has its own
// lock for fields plus a one-slot semaphore that serializes executions of
// that task. No lock other than the task slot is held while a reply is being
// produced.
package session

import (
	"sync"
	"time"
)

// Key identifies a session.
type Key struct {
	AppName   string
	UserID    string
	SessionID string
}

type Store struct {
	mu       sync.RWMutex
	sessions map[Key]*Session
	now      func() time.Time
}

func NewStore() *Store {
	return &Store{
		sessions: make(map[Key]*Session),
		now:      time.Now,
	}
}

// GetOrCreateSession returns the session for the key, creating an empty one
// if none exists. At most one session is ever created per key. The bool
// reports whether this call created it.
func (s *Store) GetOrCreateSession(appName, userID, sessionID string) (*Session, bool) {
	key := Key{AppName: appName, UserID: userID, SessionID: sessionID}

	s.mu.RLock()
	sess, ok := s.sessions[key]
	s.mu.RUnlock()
	if ok {
		return sess, false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if sess, ok := s.sessions[key]; ok {
		return sess, false
	}
	sess = newSession(key, s.now())
	s.sessions[key] = sess
	return sess, true
}

func (s *Store) Lookup(appName, userID, sessionID string) (*Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[Key{AppName: appName, UserID: userID, SessionID: sessionID}]
	return sess, ok
}

// Len returns the number of sessions held.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}
