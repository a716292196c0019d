package memory

import (
	"context"
	"sync"
	"time"

	"strategy-journal/internal/domain"
	"strategy-journal/internal/storage"
)

// MetricsHistoryStore is an in-memory implementation of storage.MetricsHistoryStore.
type MetricsHistoryStore struct {
	mu   sync.RWMutex
	data map[string][]*domain.MetricsSnapshot // keyed by strategy_id, append order
	now  func() time.Time
}

// NewMetricsHistoryStore creates a new in-memory metrics history store.
func NewMetricsHistoryStore() *MetricsHistoryStore {
	return &MetricsHistoryStore{
		data: make(map[string][]*domain.MetricsSnapshot),
		now:  time.Now,
	}
}

// Compile-time interface check.
var _ storage.MetricsHistoryStore = (*MetricsHistoryStore)(nil)

// PersistMetrics appends a snapshot stamped with the current time.
func (s *MetricsHistoryStore) PersistMetrics(_ context.Context, strategyID string, m domain.MetricsRecord) error {
	if strategyID == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.data[strategyID] = append(s.data[strategyID], &domain.MetricsSnapshot{
		StrategyID: strategyID,
		RecordedAt: s.now().UTC(),
		Metrics:    m,
	})
	return nil
}

// GetByStrategy retrieves snapshots ordered by recorded_at ASC.
func (s *MetricsHistoryStore) GetByStrategy(_ context.Context, strategyID string, limit int) ([]*domain.MetricsSnapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	all := s.data[strategyID]
	if limit > 0 && len(all) > limit {
		all = all[len(all)-limit:]
	}

	result := make([]*domain.MetricsSnapshot, len(all))
	for i, snap := range all {
		c := *snap
		result[i] = &c
	}
	return result, nil
}
