package store

import (
	"context"
	"slices"
	"sync"

	"trustlessid/internal/evidence/vc/models"
	id "trustlessid/pkg/domain"
	"trustlessid/pkg/platform/sentinel"
)

type InMemoryStore struct {
	mu          sync.RWMutex
	credentials map[id.CredentialID]models.Credential
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{credentials: make(map[id.CredentialID]models.Credential)}
}

// Save inserts a new credential. Ids are never reused.
func (s *InMemoryStore) Save(_ context.Context, credential models.Credential) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.credentials[credential.ID]; exists {
		return sentinel.ErrConflict
	}
	s.credentials[credential.ID] = credential
	return nil
}

func (s *InMemoryStore) FindByID(_ context.Context, credentialID id.CredentialID) (models.Credential, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if c, ok := s.credentials[credentialID]; ok {
		return c, nil
	}
	return models.Credential{}, sentinel.ErrNotFound
}

// ListByUser returns the user's credentials, newest first.
func (s *InMemoryStore) ListByUser(_ context.Context, userID id.UserID) ([]models.Credential, error) {
	s.mu.RLock()
	out := make([]models.Credential, 0)
	for _, c := range s.credentials {
		if c.UserID == userID {
			out = append(out, c)
		}
	}
	s.mu.RUnlock()

	slices.SortFunc(out, func(a, b models.Credential) int {
		return b.IssuedAt.Compare(a.IssuedAt)
	})
	return out, nil
}

func (s *InMemoryStore) RecordVerification(ctx context.Context, credentialID id.CredentialID) (models.Credential, error) {
	return s.Update(ctx, credentialID, func(c *models.Credential) error {
		c.VerificationCount++
		return nil
	})
}

func (s *InMemoryStore) Update(_ context.Context, credentialID id.CredentialID, fn func(*models.Credential) error) (models.Credential, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.credentials[credentialID]
	if !ok {
		return models.Credential{}, sentinel.ErrNotFound
	}
	if err := fn(&c); err != nil {
		return models.Credential{}, err
	}
	s.credentials[credentialID] = c
	return c, nil
}
