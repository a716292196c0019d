package storage

import (
	"context"

	"strategy-journal/internal/domain"
)

// MetricsSink receives every recomputed metrics record for a strategy.
type MetricsSink interface {
	// PersistMetrics replaces the stored metrics for a strategy.
	PersistMetrics(ctx context.Context, strategyID string, m domain.MetricsRecord) error
}

// StrategyStore provides access to strategies storage.
type StrategyStore interface {
	MetricsSink

	// Insert adds a new strategy. Returns ErrDuplicateKey if id exists.
	Insert(ctx context.Context, s *domain.Strategy) error

	// GetByID retrieves a strategy by its ID. Returns ErrNotFound if not exists.
	GetByID(ctx context.Context, id string) (*domain.Strategy, error)

	// ListByUser retrieves strategies owned by userID, ordered by created_at DESC.
	// An empty userID lists every strategy.
	ListByUser(ctx context.Context, userID string) ([]*domain.Strategy, error)

	// Update replaces the descriptive fields of a strategy. Metrics are untouched.
	// Returns ErrNotFound if not exists.
	Update(ctx context.Context, s *domain.Strategy) error

	// Delete removes a strategy. Returns ErrNotFound if not exists.
	Delete(ctx context.Context, id string) error
}

// BetStore provides access to bets and their legs.
type BetStore interface {
	// Insert adds a new bet with its legs. Returns ErrDuplicateKey if id exists.
	Insert(ctx context.Context, b *domain.Bet) error

	// GetByID retrieves a bet with legs. Returns ErrNotFound if not exists.
	GetByID(ctx context.Context, id string) (*domain.Bet, error)

	// GetByStrategy retrieves all bets of a strategy, group children included,
	// ordered by date_time DESC. Legs keep their entry order.
	GetByStrategy(ctx context.Context, strategyID string) ([]*domain.Bet, error)

	// GetByGroup retrieves the child bets of a group ordered by date_time ASC.
	GetByGroup(ctx context.Context, groupID string) ([]*domain.Bet, error)

	// Update replaces a bet and its whole leg list. Returns ErrNotFound if not exists.
	Update(ctx context.Context, b *domain.Bet) error

	// Delete removes a bet and its legs. Returns ErrNotFound if not exists.
	Delete(ctx context.Context, id string) error

	// DeleteByStrategy removes every bet of a strategy.
	DeleteByStrategy(ctx context.Context, strategyID string) error
}

// BetGroupStore provides access to parent bets. Stored groups carry their
// rolled-up values but not their children; children live in the BetStore.
type BetGroupStore interface {
	// Insert adds a new group. Returns ErrDuplicateKey if id exists.
	Insert(ctx context.Context, g *domain.BetGroup) error

	// GetByID retrieves a group without children. Returns ErrNotFound if not exists.
	GetByID(ctx context.Context, id string) (*domain.BetGroup, error)

	// GetByStrategy retrieves the groups of a strategy ordered by date_opened DESC.
	GetByStrategy(ctx context.Context, strategyID string) ([]*domain.BetGroup, error)

	// Update replaces the descriptive and rolled-up fields of a group.
	// Returns ErrNotFound if not exists.
	Update(ctx context.Context, g *domain.BetGroup) error

	// Delete removes a group. Its children are removed through the BetStore.
	// Returns ErrNotFound if not exists.
	Delete(ctx context.Context, id string) error

	// DeleteByStrategy removes every group of a strategy.
	DeleteByStrategy(ctx context.Context, strategyID string) error
}

// MetricsHistoryStore keeps an append-only log of metrics recomputations.
type MetricsHistoryStore interface {
	MetricsSink

	// GetByStrategy retrieves snapshots ordered by recorded_at ASC.
	// limit <= 0 returns every snapshot, otherwise the most recent limit snapshots.
	GetByStrategy(ctx context.Context, strategyID string, limit int) ([]*domain.MetricsSnapshot, error)
}
