package store

import (
	"context"
	"sync"

	"lead-intake/pkg/models"
)

// Store is an ordered, append-only collection of leads
type Store interface {
	Append(ctx context.Context, lead models.Lead) error
	List(ctx context.Context) ([]models.Lead, error)
}

type memoryStore struct {
	mu    sync.RWMutex
	leads []models.Lead
}

// NewMemoryStore creates a store that lives for the lifetime of the process
func NewMemoryStore() Store {
	return &memoryStore{}
}

func (s *memoryStore) Append(_ context.Context, lead models.Lead) error {
	s.mu.Lock()
	s.leads = append(s.leads, lead)
	s.mu.Unlock()
	return nil
}

// List returns a copy so callers cannot mutate stored entries
func (s *memoryStore) List(_ context.Context) ([]models.Lead, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.Lead, len(s.leads))
	copy(out, s.leads)
	return out, nil
}
