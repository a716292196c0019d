package memory

import (
	"context"
	"sort"
	"sync"

	"strategy-journal/internal/domain"
	"strategy-journal/internal/storage"
)

// BetStore is an in-memory implementation of storage.BetStore.
type BetStore struct {
	mu   sync.RWMutex
	data map[string]*domain.Bet // keyed by id
}

// NewBetStore creates a new in-memory bet store.
func NewBetStore() *BetStore {
	return &BetStore{
		data: make(map[string]*domain.Bet),
	}
}

// Compile-time interface check.
var _ storage.BetStore = (*BetStore)(nil)

// Insert adds a new bet with its legs. Returns ErrDuplicateKey if id exists.
func (s *BetStore) Insert(_ context.Context, b *domain.Bet) error {
	if b == nil || b.ID == "" || b.StrategyID == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[b.ID]; exists {
		return storage.ErrDuplicateKey
	}
	s.data[b.ID] = b.Clone()
	return nil
}

// GetByID retrieves a bet with legs. Returns ErrNotFound if not exists.
func (s *BetStore) GetByID(_ context.Context, id string) (*domain.Bet, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	b, exists := s.data[id]
	if !exists {
		return nil, storage.ErrNotFound
	}
	return b.Clone(), nil
}

// GetByStrategy retrieves all bets of a strategy ordered by date_time DESC.
func (s *BetStore) GetByStrategy(_ context.Context, strategyID string) ([]*domain.Bet, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.Bet
	for _, b := range s.data {
		if b.StrategyID == strategyID {
			result = append(result, b.Clone())
		}
	}

	sort.Slice(result, func(i, j int) bool {
		if !result[i].DateTime.Equal(result[j].DateTime) {
			return result[i].DateTime.After(result[j].DateTime)
		}
		return result[i].ID < result[j].ID
	})
	return result, nil
}

// GetByGroup retrieves the child bets of a group ordered by date_time ASC.
func (s *BetStore) GetByGroup(_ context.Context, groupID string) ([]*domain.Bet, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := []*domain.Bet{}
	for _, b := range s.data {
		if groupID != "" && b.GroupID == groupID {
			result = append(result, b.Clone())
		}
	}

	sort.Slice(result, func(i, j int) bool {
		if !result[i].DateTime.Equal(result[j].DateTime) {
			return result[i].DateTime.Before(result[j].DateTime)
		}
		return result[i].ID < result[j].ID
	})
	return result, nil
}

// Update replaces a bet and its whole leg list. Returns ErrNotFound if not exists.
func (s *BetStore) Update(_ context.Context, b *domain.Bet) error {
	if b == nil || b.ID == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[b.ID]; !exists {
		return storage.ErrNotFound
	}
	s.data[b.ID] = b.Clone()
	return nil
}

// Delete removes a bet and its legs. Returns ErrNotFound if not exists.
func (s *BetStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[id]; !exists {
		return storage.ErrNotFound
	}
	delete(s.data, id)
	return nil
}

// DeleteByStrategy removes every bet of a strategy.
func (s *BetStore) DeleteByStrategy(_ context.Context, strategyID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, b := range s.data {
		if b.StrategyID == strategyID {
			delete(s.data, id)
		}
	}
	return nil
}
