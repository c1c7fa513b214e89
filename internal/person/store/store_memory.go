package store

import (
	"bytes"
	"context"
	"slices"
	"sync"

	"github.com/google/uuid"

	"peopleapi/internal/person/models"
	"peopleapi/pkg/platform/sentinel"
)

// InMemory keeps persons in a map guarded by a RWMutex. Records are copied on
// the way in and out so callers never share state with the store.
type InMemory struct {
	mu      sync.RWMutex
	persons map[uuid.UUID]*models.Person
}

// NewInMemory constructs an empty in-memory store.
func NewInMemory() *InMemory {
	return &InMemory{persons: make(map[uuid.UUID]*models.Person)}
}

func (s *InMemory) Insert(_ context.Context, p *models.Person) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.persons[p.ID]; ok {
		return sentinel.ErrConflict
	}
	s.persons[p.ID] = p.Clone()
	return nil
}

func (s *InMemory) FindByID(_ context.Context, id uuid.UUID) (*models.Person, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if p, ok := s.persons[id]; ok {
		return p.Clone(), nil
	}
	return nil, sentinel.ErrNotFound
}

func (s *InMemory) FindAll(ctx context.Context) ([]*models.Person, error) {
	return s.Search(ctx, models.Filter{})
}

func (s *InMemory) Search(_ context.Context, filter models.Filter) ([]*models.Person, error) {
	s.mu.RLock()
	out := make([]*models.Person, 0, len(s.persons))
	for _, p := range s.persons {
		if matches(p, filter) {
			out = append(out, p.Clone())
		}
	}
	s.mu.RUnlock()

	// same order as the SQL backends' ORDER BY id
	slices.SortFunc(out, func(a, b *models.Person) int {
		return bytes.Compare(a.ID[:], b.ID[:])
	})
	return out, nil
}

func (s *InMemory) Update(_ context.Context, p *models.Person) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.persons[p.ID]; !ok {
		return sentinel.ErrNotFound
	}
	s.persons[p.ID] = p.Clone()
	return nil
}

func (s *InMemory) Delete(_ context.Context, id uuid.UUID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.persons[id]; !ok {
		return false, nil
	}
	delete(s.persons, id)
	return true, nil
}

func (s *InMemory) Ping(context.Context) error { return nil }

func (s *InMemory) Close() error { return nil }
