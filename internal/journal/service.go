// Package journal implements the strategy, bet and bet group use cases:
// every bet mutation re-derives the bet from its legs, re-settles its
// parent group if it has one, and recomputes the owning strategy's
// metrics in full.
package journal

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"strategy-journal/internal/domain"
	"strategy-journal/internal/metrics"
	"strategy-journal/internal/observability"
	"strategy-journal/internal/storage"
)

var (
	ErrStrategyNotFound = fmt.Errorf("strategy %w", storage.ErrNotFound)
	ErrBetNotFound      = fmt.Errorf("bet %w", storage.ErrNotFound)
)

// MetricsCache is the read side of the metrics cache.
// Its write side is registered on the aggregator as a sink.
type MetricsCache interface {
	storage.MetricsSink
	Get(ctx context.Context, strategyID string) (domain.MetricsRecord, bool)
	Invalidate(ctx context.Context, strategyID string) error
}

// MutationResult is returned by bet and group mutations. The mutation
// itself has succeeded; MetricsError reports a failed recomputation or
// persistence of the strategy metrics, in which case Metrics may not be
// stored yet. Group is set when the mutation touched a bet group.
type MutationResult struct {
	Bet          *domain.Bet
	Group        *domain.BetGroup
	Metrics      domain.MetricsRecord
	MetricsError error
}

// Service coordinates the stores and the metrics aggregator.
type Service struct {
	strategies storage.StrategyStore
	bets       storage.BetStore
	groups     storage.BetGroupStore
	history    storage.MetricsHistoryStore
	cache      MetricsCache
	agg        *metrics.Aggregator
	logger     *zap.Logger
	now        func() time.Time
	newID      func() string
}

// Option configures a Service.
type Option func(*Service)

// WithHistory enables metrics history reads.
func WithHistory(h storage.MetricsHistoryStore) Option {
	return func(s *Service) { s.history = h }
}

// WithCache enables cached metrics reads.
func WithCache(c MetricsCache) Option {
	return func(s *Service) { s.cache = c }
}

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithIDGenerator overrides the uuid generator.
func WithIDGenerator(newID func() string) Option {
	return func(s *Service) { s.newID = newID }
}

// NewService creates a journal service. agg must read bets and groups from
// the same stores and should have the strategy store registered as a sink.
func NewService(strategies storage.StrategyStore, bets storage.BetStore, groups storage.BetGroupStore, agg *metrics.Aggregator, opts ...Option) *Service {
	s := &Service{
		strategies: strategies,
		bets:       bets,
		groups:     groups,
		agg:        agg,
		logger:     zap.NewNop(),
		now:        func() time.Time { return time.Now().UTC() },
		newID:      uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Location returns the location used to bucket calendar days.
func (s *Service) Location() *time.Location {
	return s.agg.Location()
}

// EvaluateLegs runs the leg aggregator over inputs without storing anything.
func (s *Service) EvaluateLegs(inputs []domain.LegInput) metrics.LegSummary {
	legs := make([]domain.Leg, len(inputs))
	for i, in := range inputs {
		legs[i] = domain.NewLeg("", in)
	}
	return metrics.Summarize(legs)
}

func (s *Service) CreateStrategy(ctx context.Context, in domain.StrategyCreateInput) (*domain.Strategy, error) {
	st := domain.NewStrategy(s.newID(), in, s.now())
	if err := s.strategies.Insert(ctx, &st); err != nil {
		return nil, fmt.Errorf("insert strategy: %w", err)
	}
	observability.RecordStrategyMutation("create")
	s.logger.Info("strategy created", zap.String("strategy_id", st.ID), zap.String("user_id", st.UserID))
	return &st, nil
}

func (s *Service) GetStrategy(ctx context.Context, id string) (*domain.Strategy, error) {
	st, err := s.strategies.GetByID(ctx, id)
	if err != nil {
		return nil, strategyErr(err)
	}
	return st, nil
}

func (s *Service) UpdateStrategy(ctx context.Context, id string, in domain.StrategyUpdateInput) (*domain.Strategy, error) {
	st, err := s.strategies.GetByID(ctx, id)
	if err != nil {
		return nil, strategyErr(err)
	}
	st.Apply(in, s.now())
	if err := s.strategies.Update(ctx, st); err != nil {
		return nil, strategyErr(err)
	}
	observability.RecordStrategyMutation("update")
	return st, nil
}

// DeleteStrategy removes a strategy together with its bets and groups.
func (s *Service) DeleteStrategy(ctx context.Context, id string) error {
	if _, err := s.strategies.GetByID(ctx, id); err != nil {
		return strategyErr(err)
	}
	if err := s.bets.DeleteByStrategy(ctx, id); err != nil {
		return fmt.Errorf("delete bets: %w", err)
	}
	if err := s.groups.DeleteByStrategy(ctx, id); err != nil {
		return fmt.Errorf("delete bet groups: %w", err)
	}
	if err := s.strategies.Delete(ctx, id); err != nil {
		return strategyErr(err)
	}
	if s.cache != nil {
		if err := s.cache.Invalidate(ctx, id); err != nil {
			s.logger.Warn("metrics cache invalidation failed", zap.String("strategy_id", id), zap.Error(err))
		}
	}
	observability.RecordStrategyMutation("delete")
	s.logger.Info("strategy deleted", zap.String("strategy_id", id))
	return nil
}

// ListBets returns the flat bets of a strategy, most recent first.
// Group children are listed through their group.
func (s *Service) ListBets(ctx context.Context, strategyID string) ([]*domain.Bet, error) {
	if err := s.requireStrategy(ctx, strategyID); err != nil {
		return nil, err
	}
	bets, err := s.bets.GetByStrategy(ctx, strategyID)
	if err != nil {
		return nil, fmt.Errorf("list bets: %w", err)
	}
	flat := make([]*domain.Bet, 0, len(bets))
	for _, b := range bets {
		if b.GroupID == "" {
			flat = append(flat, b)
		}
	}
	return flat, nil
}

func (s *Service) GetBet(ctx context.Context, id string) (*domain.Bet, error) {
	b, err := s.bets.GetByID(ctx, id)
	if err != nil {
		return nil, betErr(err)
	}
	return b, nil
}

// CreateBet stores a new bet under strategyID and recomputes the strategy metrics.
func (s *Service) CreateBet(ctx context.Context, strategyID string, in domain.BetCreateInput) (*MutationResult, error) {
	if err := s.requireStrategy(ctx, strategyID); err != nil {
		return nil, err
	}

	b := domain.NewBet(s.newID(), strategyID, in, s.legIDs(len(in.Legs)), s.now())
	metrics.ApplyLegs(&b)
	if err := s.bets.Insert(ctx, &b); err != nil {
		return nil, fmt.Errorf("insert bet: %w", err)
	}
	observability.RecordBetMutation("create")
	s.logger.Info("bet created",
		zap.String("strategy_id", strategyID),
		zap.String("bet_id", b.ID),
		zap.String("status", string(b.Status)))

	return s.afterMutation(ctx, &b), nil
}

// UpdateBet applies a partial update, re-derives the bet and recomputes the strategy metrics.
func (s *Service) UpdateBet(ctx context.Context, id string, in domain.BetUpdateInput) (*MutationResult, error) {
	b, err := s.bets.GetByID(ctx, id)
	if err != nil {
		return nil, betErr(err)
	}
	if err := s.requireStrategy(ctx, b.StrategyID); err != nil {
		return nil, err
	}

	var legIDs []string
	if in.Legs != nil {
		legIDs = s.legIDs(len(in.Legs))
	}
	b.Apply(in, legIDs, s.now())
	metrics.ApplyLegs(b)
	if err := s.bets.Update(ctx, b); err != nil {
		return nil, betErr(err)
	}
	observability.RecordBetMutation("update")
	s.logger.Info("bet updated",
		zap.String("strategy_id", b.StrategyID),
		zap.String("bet_id", b.ID),
		zap.String("status", string(b.Status)))

	return s.afterMutation(ctx, b), nil
}

// DeleteBet removes a bet and recomputes the strategy metrics.
// The result carries the removed bet and, for a child bet, its re-settled group.
func (s *Service) DeleteBet(ctx context.Context, id string) (*MutationResult, error) {
	b, err := s.bets.GetByID(ctx, id)
	if err != nil {
		return nil, betErr(err)
	}
	if err := s.bets.Delete(ctx, id); err != nil {
		return nil, betErr(err)
	}
	observability.RecordBetMutation("delete")
	s.logger.Info("bet deleted", zap.String("strategy_id", b.StrategyID), zap.String("bet_id", b.ID))

	return s.afterMutation(ctx, b), nil
}

// RecomputeMetrics recomputes and persists the metrics of a strategy.
// A *metrics.PersistError is returned together with a valid record.
func (s *Service) RecomputeMetrics(ctx context.Context, strategyID string) (domain.MetricsRecord, error) {
	if err := s.requireStrategy(ctx, strategyID); err != nil {
		return domain.MetricsRecord{}, err
	}
	return s.agg.ComputeAndPersist(ctx, strategyID)
}

// GetMetrics returns the last persisted metrics, preferring the cache.
// An unknown strategy is reported even when the cache still holds an entry.
func (s *Service) GetMetrics(ctx context.Context, strategyID string) (domain.MetricsRecord, error) {
	st, err := s.strategies.GetByID(ctx, strategyID)
	if err != nil {
		return domain.MetricsRecord{}, strategyErr(err)
	}

	if s.cache != nil {
		if m, ok := s.cache.Get(ctx, strategyID); ok {
			return m, nil
		}
	}

	if s.cache != nil {
		if err := s.cache.PersistMetrics(ctx, strategyID, st.Metrics); err != nil {
			s.logger.Debug("metrics cache fill failed", zap.String("strategy_id", strategyID), zap.Error(err))
		}
	}
	return st.Metrics, nil
}

// PnLSeries returns the cumulative daily P&L of a strategy over flat bets
// and bet groups.
func (s *Service) PnLSeries(ctx context.Context, strategyID string) ([]metrics.PnLPoint, error) {
	if err := s.requireStrategy(ctx, strategyID); err != nil {
		return nil, err
	}
	settlements, err := s.agg.Settlements(ctx, strategyID)
	if err != nil {
		return nil, err
	}
	return metrics.PnLSeries(settlements, s.Location()), nil
}

// MetricsHistory returns up to limit recorded snapshots, oldest first.
// Without a history store the result is empty.
func (s *Service) MetricsHistory(ctx context.Context, strategyID string, limit int) ([]*domain.MetricsSnapshot, error) {
	if err := s.requireStrategy(ctx, strategyID); err != nil {
		return nil, err
	}
	if s.history == nil {
		return []*domain.MetricsSnapshot{}, nil
	}
	snaps, err := s.history.GetByStrategy(ctx, strategyID, limit)
	if err != nil {
		return nil, fmt.Errorf("load metrics history: %w", err)
	}
	return snaps, nil
}

// afterMutation re-settles the parent group of b, if any, and recomputes
// the strategy metrics.
func (s *Service) afterMutation(ctx context.Context, b *domain.Bet) *MutationResult {
	res := &MutationResult{Bet: b}
	if b.GroupID != "" {
		g, err := s.resettleGroup(ctx, b.GroupID)
		if err != nil {
			// Metrics roll groups up from their children, so only the stored header is stale.
			s.logger.Warn("bet group not re-settled",
				zap.String("group_id", b.GroupID),
				zap.String("bet_id", b.ID),
				zap.Error(err))
		}
		res.Group = g
	}
	return s.recompute(ctx, b.StrategyID, res)
}

func (s *Service) recompute(ctx context.Context, strategyID string, res *MutationResult) *MutationResult {
	m, err := s.agg.ComputeAndPersist(ctx, strategyID)
	if err != nil {
		fields := []zap.Field{zap.String("strategy_id", strategyID), zap.Error(err)}
		if res.Bet != nil {
			fields = append(fields, zap.String("bet_id", res.Bet.ID))
		}
		if res.Group != nil {
			fields = append(fields, zap.String("group_id", res.Group.ID))
		}
		s.logger.Warn("strategy metrics not fully persisted", fields...)
	}
	res.Metrics, res.MetricsError = m, err
	return res
}

func (s *Service) requireStrategy(ctx context.Context, id string) error {
	if _, err := s.strategies.GetByID(ctx, id); err != nil {
		return strategyErr(err)
	}
	return nil
}

func (s *Service) legIDs(n int) []string {
	ids := make([]string, n)
	for i := range ids {
		ids[i] = s.newID()
	}
	return ids
}

func strategyErr(err error) error {
	if errors.Is(err, storage.ErrNotFound) {
		return ErrStrategyNotFound
	}
	return fmt.Errorf("strategy store: %w", err)
}

func betErr(err error) error {
	if errors.Is(err, storage.ErrNotFound) {
		return ErrBetNotFound
	}
	return fmt.Errorf("bet store: %w", err)
}
