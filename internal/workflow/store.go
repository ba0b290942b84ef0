package workflow

import (
	"context"
	"sync"

	id "trustlessid/pkg/domain"
	"trustlessid/pkg/platform/sentinel"
)

// SessionStore persists sessions. Update applies fn atomically: a returned
// error leaves the stored session untouched.
type SessionStore interface {
	Create(ctx context.Context, session Session) error
	FindByID(ctx context.Context, sessionID id.SessionID) (Session, error)
	Update(ctx context.Context, sessionID id.SessionID, fn func(*Session) error) (Session, error)
}

// InMemorySessionStore keeps sessions in a map guarded by an RWMutex.
type InMemorySessionStore struct {
	mu       sync.RWMutex
	sessions map[id.SessionID]Session
}

func NewInMemorySessionStore() *InMemorySessionStore {
	return &InMemorySessionStore{sessions: make(map[id.SessionID]Session)}
}

func (s *InMemorySessionStore) Create(_ context.Context, session Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.sessions[session.ID]; exists {
		return sentinel.ErrConflict
	}
	s.sessions[session.ID] = session
	return nil
}

func (s *InMemorySessionStore) FindByID(_ context.Context, sessionID id.SessionID) (Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	session, ok := s.sessions[sessionID]
	if !ok {
		return Session{}, sentinel.ErrNotFound
	}
	return session, nil
}

func (s *InMemorySessionStore) Update(_ context.Context, sessionID id.SessionID, fn func(*Session) error) (Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.sessions[sessionID]
	if !ok {
		return Session{}, sentinel.ErrNotFound
	}
	if err := fn(&session); err != nil {
		return Session{}, err
	}
	session.Version++
	s.sessions[sessionID] = session
	return session, nil
}
