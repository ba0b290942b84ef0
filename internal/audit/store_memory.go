package audit

import (
	"context"
	"slices"
	"sync"

	id "trustlessid/pkg/domain"
)

type InMemoryStore struct {
	mu     sync.RWMutex
	events map[id.UserID][]Event
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{events: make(map[id.UserID][]Event)}
}

func (s *InMemoryStore) Append(_ context.Context, event Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events[event.UserID] = append(s.events[event.UserID], event)
	return nil
}

func (s *InMemoryStore) ListRecent(_ context.Context, userID id.UserID, limit int) ([]Event, error) {
	s.mu.RLock()
	events := slices.Clone(s.events[userID])
	s.mu.RUnlock()

	// Appends arrive roughly in order; seeded history may not.
	slices.SortStableFunc(events, func(a, b Event) int {
		return b.Timestamp.Compare(a.Timestamp)
	})
	if limit > 0 && len(events) > limit {
		events = events[:limit]
	}
	if events == nil {
		events = []Event{}
	}
	return events, nil
}
