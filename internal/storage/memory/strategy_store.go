package memory

import (
	"context"
	"sort"
	"sync"

	"strategy-journal/internal/domain"
	"strategy-journal/internal/storage"
)

// StrategyStore is an in-memory implementation of storage.StrategyStore.
type StrategyStore struct {
	mu   sync.RWMutex
	data map[string]*domain.Strategy // keyed by id
}

// NewStrategyStore creates a new in-memory strategy store.
func NewStrategyStore() *StrategyStore {
	return &StrategyStore{
		data: make(map[string]*domain.Strategy),
	}
}

// Compile-time interface check.
var _ storage.StrategyStore = (*StrategyStore)(nil)

// Insert adds a new strategy. Returns ErrDuplicateKey if id exists.
func (s *StrategyStore) Insert(_ context.Context, st *domain.Strategy) error {
	if st == nil || st.ID == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[st.ID]; exists {
		return storage.ErrDuplicateKey
	}
	s.data[st.ID] = st.Clone()
	return nil
}

// GetByID retrieves a strategy by its ID. Returns ErrNotFound if not exists.
func (s *StrategyStore) GetByID(_ context.Context, id string) (*domain.Strategy, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st, exists := s.data[id]
	if !exists {
		return nil, storage.ErrNotFound
	}
	return st.Clone(), nil
}

// ListByUser retrieves strategies owned by userID, ordered by created_at DESC.
func (s *StrategyStore) ListByUser(_ context.Context, userID string) ([]*domain.Strategy, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.Strategy
	for _, st := range s.data {
		if userID == "" || st.UserID == userID {
			result = append(result, st.Clone())
		}
	}

	sort.Slice(result, func(i, j int) bool {
		if !result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].CreatedAt.After(result[j].CreatedAt)
		}
		return result[i].ID < result[j].ID
	})
	return result, nil
}

// Update replaces the descriptive fields of a strategy.
func (s *StrategyStore) Update(_ context.Context, st *domain.Strategy) error {
	if st == nil || st.ID == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	existing, exists := s.data[st.ID]
	if !exists {
		return storage.ErrNotFound
	}
	updated := st.Clone()
	updated.Metrics = existing.Metrics
	updated.CreatedAt = existing.CreatedAt
	s.data[st.ID] = updated
	return nil
}

// PersistMetrics replaces the metrics record of a strategy.
func (s *StrategyStore) PersistMetrics(_ context.Context, strategyID string, m domain.MetricsRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, exists := s.data[strategyID]
	if !exists {
		return storage.ErrNotFound
	}
	st.Metrics = m
	return nil
}

// Delete removes a strategy. Returns ErrNotFound if not exists.
func (s *StrategyStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[id]; !exists {
		return storage.ErrNotFound
	}
	delete(s.data, id)
	return nil
}
