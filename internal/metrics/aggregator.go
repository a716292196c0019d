package metrics

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"strategy-journal/internal/domain"
	"strategy-journal/internal/observability"
	"strategy-journal/internal/storage"
)

// PersistError reports metrics sinks that rejected a recomputed record.
// The record returned alongside it is still valid.
type PersistError struct {
	StrategyID string
	Err        error // one entry per failed sink, combined with multierr
}

func (e *PersistError) Error() string {
	return fmt.Sprintf("persist metrics for strategy %s: %v", e.StrategyID, e.Err)
}

func (e *PersistError) Unwrap() error {
	return e.Err
}

// namedSink pairs a sink with the label used in logs and counters.
type namedSink struct {
	name string
	sink storage.MetricsSink
}

// Aggregator recomputes strategy metrics from stored bets and hands the
// result to every configured sink.
type Aggregator struct {
	betStore   storage.BetStore
	groupStore storage.BetGroupStore // nil means every bet is flat
	sinks    []namedSink
	loc      *time.Location
	logger   *zap.Logger
}

// Option configures an Aggregator.
type Option func(*Aggregator)

// WithSink adds a metrics sink. Sinks receive records in registration order.
func WithSink(name string, sink storage.MetricsSink) Option {
	return func(a *Aggregator) {
		if sink != nil {
			a.sinks = append(a.sinks, namedSink{name: name, sink: sink})
		}
	}
}

// WithGroups enables bet groups. Each group counts as one settlement
// rolled up from its children instead of one per child.
func WithGroups(store storage.BetGroupStore) Option {
	return func(a *Aggregator) {
		a.groupStore = store
	}
}

// WithLocation sets the location used to bucket calendar days.
func WithLocation(loc *time.Location) Option {
	return func(a *Aggregator) {
		if loc != nil {
			a.loc = loc
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(a *Aggregator) {
		if logger != nil {
			a.logger = logger
		}
	}
}

// NewAggregator creates a new metrics aggregator.
func NewAggregator(betStore storage.BetStore, opts ...Option) *Aggregator {
	a := &Aggregator{
		betStore: betStore,
		loc:      time.UTC,
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Location returns the location used for day bucketing.
func (a *Aggregator) Location() *time.Location {
	return a.loc
}

// Compute recomputes the metrics record for a strategy from its current bets.
func (a *Aggregator) Compute(ctx context.Context, strategyID string) (domain.MetricsRecord, error) {
	start := time.Now()
	settlements, err := a.Settlements(ctx, strategyID)
	if err != nil {
		observability.RecordRecompute(time.Since(start).Seconds(), err)
		return domain.MetricsRecord{}, err
	}

	m := ComputeStrategyMetrics(settlements, a.loc)
	observability.RecordRecompute(time.Since(start).Seconds(), nil)
	return m, nil
}

// Settlements loads the settled view of a strategy: one entry per flat bet
// followed by one per bet group, each group rolled up from its children.
func (a *Aggregator) Settlements(ctx context.Context, strategyID string) ([]Settlement, error) {
	bets, err := a.betStore.GetByStrategy(ctx, strategyID)
	if err != nil {
		return nil, fmt.Errorf("load bets: %w", err)
	}
	if a.groupStore == nil {
		return SettlementsFromBets(bets), nil
	}

	groups, err := a.groupStore.GetByStrategy(ctx, strategyID)
	if err != nil {
		return nil, fmt.Errorf("load bet groups: %w", err)
	}

	byID := make(map[string]*domain.BetGroup, len(groups))
	for _, g := range groups {
		g.Bets = g.Bets[:0]
		byID[g.ID] = g
	}

	var flat []*domain.Bet
	for _, b := range bets {
		g, ok := byID[b.GroupID]
		if b.GroupID == "" || !ok {
			if b.GroupID != "" {
				a.logger.Warn("bet references unknown group, counted as flat",
					zap.String("bet_id", b.ID),
					zap.String("group_id", b.GroupID),
				)
			}
			flat = append(flat, b)
			continue
		}
		g.Bets = append(g.Bets, *b)
	}

	for _, g := range groups {
		o := Rollup(g.Bets, BetOutcome)
		g.Risk, g.Return, g.ReturnPercentage, g.Status = o.Risk, o.Return, o.ReturnPercentage, o.Status
	}

	return append(SettlementsFromBets(flat), SettlementsFromGroups(groups)...), nil
}

// ComputeAndPersist recomputes the metrics record and hands it to every sink.
// A sink failure does not stop the remaining sinks; failures are logged and
// returned as a *PersistError together with the computed record.
func (a *Aggregator) ComputeAndPersist(ctx context.Context, strategyID string) (domain.MetricsRecord, error) {
	m, err := a.Compute(ctx, strategyID)
	if err != nil {
		return m, err
	}
	return m, a.Persist(ctx, strategyID, m)
}

// Persist hands an already computed record to every sink.
func (a *Aggregator) Persist(ctx context.Context, strategyID string, m domain.MetricsRecord) error {
	var errs error
	for _, s := range a.sinks {
		if err := s.sink.PersistMetrics(ctx, strategyID, m); err != nil {
			a.logger.Warn("metrics sink rejected record",
				zap.String("strategy_id", strategyID),
				zap.String("sink", s.name),
				zap.Error(err),
			)
			observability.RecordPersistFailure(s.name)
			observability.CaptureError(err, map[string]string{
				"strategy_id": strategyID,
				"sink":        s.name,
			})
			errs = multierr.Append(errs, fmt.Errorf("%s: %w", s.name, err))
		}
	}
	if errs != nil {
		return &PersistError{StrategyID: strategyID, Err: errs}
	}
	return nil
}
