package memory

import (
	"context"
	"sort"
	"sync"

	"strategy-journal/internal/domain"
	"strategy-journal/internal/storage"
)

// BetGroupStore is an in-memory implementation of storage.BetGroupStore.
type BetGroupStore struct {
	mu   sync.RWMutex
	data map[string]*domain.BetGroup // keyed by id, stored without children
}

// NewBetGroupStore creates a new in-memory bet group store.
func NewBetGroupStore() *BetGroupStore {
	return &BetGroupStore{
		data: make(map[string]*domain.BetGroup),
	}
}

// Compile-time interface check.
var _ storage.BetGroupStore = (*BetGroupStore)(nil)

// Insert adds a new group. Returns ErrDuplicateKey if id exists.
func (s *BetGroupStore) Insert(_ context.Context, g *domain.BetGroup) error {
	if g == nil || g.ID == "" || g.StrategyID == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[g.ID]; exists {
		return storage.ErrDuplicateKey
	}
	s.data[g.ID] = header(g)
	return nil
}

// GetByID retrieves a group without children. Returns ErrNotFound if not exists.
func (s *BetGroupStore) GetByID(_ context.Context, id string) (*domain.BetGroup, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	g, exists := s.data[id]
	if !exists {
		return nil, storage.ErrNotFound
	}
	return g.Clone(), nil
}

// GetByStrategy retrieves the groups of a strategy ordered by date_opened DESC.
func (s *BetGroupStore) GetByStrategy(_ context.Context, strategyID string) ([]*domain.BetGroup, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.BetGroup
	for _, g := range s.data {
		if g.StrategyID == strategyID {
			result = append(result, g.Clone())
		}
	}

	sort.Slice(result, func(i, j int) bool {
		if !result[i].DateOpened.Equal(result[j].DateOpened) {
			return result[i].DateOpened.After(result[j].DateOpened)
		}
		return result[i].ID < result[j].ID
	})
	return result, nil
}

// Update replaces the descriptive and rolled-up fields of a group.
func (s *BetGroupStore) Update(_ context.Context, g *domain.BetGroup) error {
	if g == nil || g.ID == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[g.ID]; !exists {
		return storage.ErrNotFound
	}
	s.data[g.ID] = header(g)
	return nil
}

// Delete removes a group. Returns ErrNotFound if not exists.
func (s *BetGroupStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[id]; !exists {
		return storage.ErrNotFound
	}
	delete(s.data, id)
	return nil
}

// DeleteByStrategy removes every group of a strategy.
func (s *BetGroupStore) DeleteByStrategy(_ context.Context, strategyID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, g := range s.data {
		if g.StrategyID == strategyID {
			delete(s.data, id)
		}
	}
	return nil
}

// header copies g without its children.
func header(g *domain.BetGroup) *domain.BetGroup {
	c := *g
	c.Bets = nil
	return c.Clone()
}
