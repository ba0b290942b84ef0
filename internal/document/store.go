package document

import (
	"context"
	"slices"
	"sync"

	id "trustlessid/pkg/domain"
	"trustlessid/pkg/platform/sentinel"
)

// Store persists document records.
type Store interface {
	Save(ctx context.Context, doc Document) error
	FindByID(ctx context.Context, documentID id.DocumentID) (Document, error)
	ListByUser(ctx context.Context, userID id.UserID) ([]Document, error)
	Update(ctx context.Context, documentID id.DocumentID, fn func(*Document) error) (Document, error)
}

type InMemoryStore struct {
	mu   sync.RWMutex
	docs map[id.DocumentID]Document
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{docs: make(map[id.DocumentID]Document)}
}

func (s *InMemoryStore) Save(_ context.Context, doc Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.docs[doc.ID]; exists {
		return sentinel.ErrConflict
	}
	s.docs[doc.ID] = doc
	return nil
}

func (s *InMemoryStore) FindByID(_ context.Context, documentID id.DocumentID) (Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if d, ok := s.docs[documentID]; ok {
		return d, nil
	}
	return Document{}, sentinel.ErrNotFound
}

// ListByUser returns the user's documents, newest first.
func (s *InMemoryStore) ListByUser(_ context.Context, userID id.UserID) ([]Document, error) {
	s.mu.RLock()
	out := make([]Document, 0)
	for _, d := range s.docs {
		if d.UserID == userID {
			out = append(out, d)
		}
	}
	s.mu.RUnlock()

	slices.SortFunc(out, func(a, b Document) int {
		return b.UploadedAt.Compare(a.UploadedAt)
	})
	return out, nil
}

func (s *InMemoryStore) Update(_ context.Context, documentID id.DocumentID, fn func(*Document) error) (Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.docs[documentID]
	if !ok {
		return Document{}, sentinel.ErrNotFound
	}
	if err := fn(&d); err != nil {
		return Document{}, err
	}
	s.docs[documentID] = d
	return d, nil
}
