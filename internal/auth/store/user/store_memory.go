package user

import (
	"context"
	"strings"
	"sync"

	"trustlessid/internal/auth/models"
	id "trustlessid/pkg/domain"
	"trustlessid/pkg/platform/sentinel"
)

// InMemoryUserStore indexes users by id and by lower-cased email.
type InMemoryUserStore struct {
	mu      sync.RWMutex
	byID    map[id.UserID]*models.User
	byEmail map[string]id.UserID
}

func New() *InMemoryUserStore {
	return &InMemoryUserStore{
		byID:    make(map[id.UserID]*models.User),
		byEmail: make(map[string]id.UserID),
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Save inserts a user. A second user with the same email is a conflict.
func (s *InMemoryUserStore) Save(_ context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := normalizeEmail(user.Email)
	if existing, ok := s.byEmail[key]; ok && existing != user.ID {
		return sentinel.ErrConflict
	}
	u := *user
	s.byID[user.ID] = &u
	s.byEmail[key] = user.ID
	return nil
}

func (s *InMemoryUserStore) FindByID(_ context.Context, userID id.UserID) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if u, ok := s.byID[userID]; ok {
		out := *u
		return &out, nil
	}
	return nil, sentinel.ErrNotFound
}

func (s *InMemoryUserStore) FindByEmail(_ context.Context, email string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	userID, ok := s.byEmail[normalizeEmail(email)]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	out := *s.byID[userID]
	return &out, nil
}
