package journal

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"strategy-journal/internal/domain"
	"strategy-journal/internal/metrics"
	"strategy-journal/internal/storage"
	"strategy-journal/internal/storage/memory"
)

var t0 = time.Date(2024, 3, 1, 14, 30, 0, 0, time.UTC)

type fixture struct {
	svc        *Service
	strategies *memory.StrategyStore
	bets       *memory.BetStore
	groups     *memory.BetGroupStore
	history    *memory.MetricsHistoryStore
	cache      *fakeCache
}

type fakeCache struct {
	entries     map[string]domain.MetricsRecord
	invalidated []string
}

func newFakeCache() *fakeCache {
	return &fakeCache{entries: make(map[string]domain.MetricsRecord)}
}

func (c *fakeCache) PersistMetrics(_ context.Context, id string, m domain.MetricsRecord) error {
	c.entries[id] = m
	return nil
}

func (c *fakeCache) Get(_ context.Context, id string) (domain.MetricsRecord, bool) {
	m, ok := c.entries[id]
	return m, ok
}

func (c *fakeCache) Invalidate(_ context.Context, id string) error {
	delete(c.entries, id)
	c.invalidated = append(c.invalidated, id)
	return nil
}

type failingSink struct{}

func (failingSink) PersistMetrics(context.Context, string, domain.MetricsRecord) error {
	return errors.New("sink offline")
}

func newFixture(t *testing.T, extra ...metrics.Option) *fixture {
	t.Helper()
	f := &fixture{
		strategies: memory.NewStrategyStore(),
		bets:       memory.NewBetStore(),
		groups:     memory.NewBetGroupStore(),
		history:    memory.NewMetricsHistoryStore(),
		cache:      newFakeCache(),
	}

	opts := []metrics.Option{
		metrics.WithSink("strategies", f.strategies),
		metrics.WithSink("history", f.history),
		metrics.WithSink("cache", f.cache),
		metrics.WithGroups(f.groups),
	}
	agg := metrics.NewAggregator(f.bets, append(opts, extra...)...)

	seq := 0
	clock := t0
	f.svc = NewService(f.strategies, f.bets, f.groups, agg,
		WithHistory(f.history),
		WithCache(f.cache),
		WithIDGenerator(func() string {
			seq++
			return fmt.Sprintf("id-%d", seq)
		}),
		WithClock(func() time.Time {
			clock = clock.Add(time.Second)
			return clock
		}),
	)
	return f
}

func (f *fixture) strategy(t *testing.T, name string, in ...domain.StrategyCreateInput) *domain.Strategy {
	t.Helper()
	input := domain.StrategyCreateInput{UserID: "u1", Name: name}
	if len(in) > 0 {
		input = in[0]
	}
	st, err := f.svc.CreateStrategy(context.Background(), input)
	require.NoError(t, err)
	return st
}

func legIn(pos domain.Position, qty, price float64, at time.Time) domain.LegInput {
	return domain.LegInput{DateTime: at, Quantity: qty, Position: pos, Price: price}
}

func closedBet(at time.Time, buy, sell float64) domain.BetCreateInput {
	return domain.BetCreateInput{
		DateTime: at,
		Market:   domain.MarketStocks,
		Symbol:   "AAPL",
		Legs: []domain.LegInput{
			legIn(domain.PositionBuy, 10, buy, at),
			legIn(domain.PositionSell, 10, sell, at.Add(time.Hour)),
		},
	}
}

func TestCreateBet_DerivesBetAndRecomputesStrategy(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	st := f.strategy(t, "breakouts")

	res, err := f.svc.CreateBet(ctx, st.ID, closedBet(t0, 5, 6))
	require.NoError(t, err)
	require.NoError(t, res.MetricsError)

	assert.Equal(t, domain.StatusWon, res.Bet.Status)
	assert.Equal(t, 50.0, res.Bet.Risk)
	assert.Equal(t, 10.0, res.Bet.Return)
	assert.Equal(t, 20.0, res.Bet.ReturnPercentage)
	assert.Equal(t, 50.0, res.Bet.Legs[0].Risk)
	assert.Equal(t, 60.0, res.Bet.Legs[1].Risk)

	assert.Equal(t, 10.0, res.Metrics.TotalPnL)
	assert.Equal(t, 100.0, res.Metrics.WinRate)

	stored, err := f.svc.GetStrategy(ctx, st.ID)
	require.NoError(t, err)
	assert.Equal(t, res.Metrics, stored.Metrics)

	snaps, err := f.svc.MetricsHistory(ctx, st.ID, 0)
	require.NoError(t, err)
	assert.Len(t, snaps, 1)
}

func TestCreateBet_UnknownStrategyFailsFast(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.CreateBet(ctx, "ghost", closedBet(t0, 5, 6))
	assert.ErrorIs(t, err, ErrStrategyNotFound)
	assert.ErrorIs(t, err, storage.ErrNotFound)

	bets, err := f.bets.GetByStrategy(ctx, "ghost")
	require.NoError(t, err)
	assert.Empty(t, bets)
}

func TestCreateBet_InitialSideFollowsEntryOrder(t *testing.T) {
	f := newFixture(t)
	st := f.strategy(t, "s")

	// The buy is entered first but filled an hour after the sell.
	in := domain.BetCreateInput{
		DateTime: t0,
		Market:   domain.MarketStocks,
		Legs: []domain.LegInput{
			legIn(domain.PositionBuy, 10, 5, t0.Add(time.Hour)),
			legIn(domain.PositionSell, 10, 6, t0),
		},
	}
	res, err := f.svc.CreateBet(context.Background(), st.ID, in)
	require.NoError(t, err)

	assert.Equal(t, domain.PositionBuy, res.Bet.Legs[0].Position)
	assert.Equal(t, 50.0, res.Bet.Risk)
	assert.Equal(t, 20.0, res.Bet.ReturnPercentage)

	stored, err := f.svc.GetBet(context.Background(), res.Bet.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.PositionBuy, stored.Legs[0].Position)
	assert.Equal(t, domain.PositionSell, stored.Legs[1].Position)
}

func TestCreateBet_SingleLegIsOpenAndNotCounted(t *testing.T) {
	f := newFixture(t)
	st := f.strategy(t, "s")

	in := domain.BetCreateInput{
		DateTime: t0,
		Market:   domain.MarketOptions,
		Legs:     []domain.LegInput{legIn(domain.PositionBuy, 2, 3.5, t0)},
	}
	res, err := f.svc.CreateBet(context.Background(), st.ID, in)
	require.NoError(t, err)

	assert.Equal(t, domain.StatusOpen, res.Bet.Status)
	assert.Equal(t, 7.0, res.Bet.Risk)
	assert.Equal(t, domain.MetricsRecord{}, res.Metrics)
}

func TestUpdateBet_ReplacesLegsAndRecomputes(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	st := f.strategy(t, "s")

	created, err := f.svc.CreateBet(ctx, st.ID, domain.BetCreateInput{
		DateTime: t0,
		Market:   domain.MarketStocks,
		Legs:     []domain.LegInput{legIn(domain.PositionSell, 5, 10, t0)},
	})
	require.NoError(t, err)
	require.Equal(t, domain.StatusOpen, created.Bet.Status)

	symbol := "TSLA"
	res, err := f.svc.UpdateBet(ctx, created.Bet.ID, domain.BetUpdateInput{
		Symbol: &symbol,
		Legs: []domain.LegInput{
			legIn(domain.PositionSell, 5, 10, t0),
			legIn(domain.PositionBuy, 5, 12, t0.Add(time.Hour)),
		},
	})
	require.NoError(t, err)

	assert.Equal(t, "TSLA", res.Bet.Symbol)
	assert.Equal(t, domain.StatusLost, res.Bet.Status)
	assert.Equal(t, -10.0, res.Bet.Return)
	assert.Equal(t, -20.0, res.Bet.ReturnPercentage)
	assert.Equal(t, -10.0, res.Metrics.TotalPnL)
	assert.Equal(t, 10.0, res.Metrics.AvgLoss)

	// A field-only update keeps the legs.
	sector := "EV"
	res, err = f.svc.UpdateBet(ctx, created.Bet.ID, domain.BetUpdateInput{Sector: &sector})
	require.NoError(t, err)
	assert.Len(t, res.Bet.Legs, 2)
	assert.Equal(t, domain.StatusLost, res.Bet.Status)
}

func TestUpdateBet_UnknownBet(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.UpdateBet(context.Background(), "nope", domain.BetUpdateInput{})
	assert.ErrorIs(t, err, ErrBetNotFound)
}

func TestDeleteBet_RecomputesFromRemainingBets(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	st := f.strategy(t, "s")

	win, err := f.svc.CreateBet(ctx, st.ID, closedBet(t0, 5, 15)) // +100
	require.NoError(t, err)
	_, err = f.svc.CreateBet(ctx, st.ID, closedBet(t0, 10, 6)) // -40
	require.NoError(t, err)

	stored, err := f.svc.GetStrategy(ctx, st.ID)
	require.NoError(t, err)
	assert.Equal(t, 60.0, stored.Metrics.TotalPnL)
	assert.Equal(t, 2.5, stored.Metrics.ProfitFactor)

	res, err := f.svc.DeleteBet(ctx, win.Bet.ID)
	require.NoError(t, err)
	assert.Equal(t, win.Bet.ID, res.Bet.ID)
	assert.Equal(t, -40.0, res.Metrics.TotalPnL)
	assert.Equal(t, 0.0, res.Metrics.WinRate)

	_, err = f.svc.GetBet(ctx, win.Bet.ID)
	assert.ErrorIs(t, err, ErrBetNotFound)
}

func TestCreateBet_SinkFailureDoesNotFailMutation(t *testing.T) {
	f := newFixture(t, metrics.WithSink("broken", failingSink{}))
	ctx := context.Background()
	st := f.strategy(t, "s")

	res, err := f.svc.CreateBet(ctx, st.ID, closedBet(t0, 5, 6))
	require.NoError(t, err)

	var perr *metrics.PersistError
	require.ErrorAs(t, res.MetricsError, &perr)
	assert.Equal(t, st.ID, perr.StrategyID)
	assert.Equal(t, 10.0, res.Metrics.TotalPnL)

	_, err = f.svc.GetBet(ctx, res.Bet.ID)
	assert.NoError(t, err)
	stored, err := f.svc.GetStrategy(ctx, st.ID)
	require.NoError(t, err)
	assert.Equal(t, 10.0, stored.Metrics.TotalPnL)
}

func TestDeleteStrategy_CascadesAndInvalidatesCache(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	st := f.strategy(t, "s")
	res, err := f.svc.CreateBet(ctx, st.ID, closedBet(t0, 5, 6))
	require.NoError(t, err)

	require.NoError(t, f.svc.DeleteStrategy(ctx, st.ID))

	_, err = f.svc.GetStrategy(ctx, st.ID)
	assert.ErrorIs(t, err, ErrStrategyNotFound)
	_, err = f.bets.GetByID(ctx, res.Bet.ID)
	assert.ErrorIs(t, err, storage.ErrNotFound)
	assert.Equal(t, []string{st.ID}, f.cache.invalidated)

	assert.ErrorIs(t, f.svc.DeleteStrategy(ctx, st.ID), ErrStrategyNotFound)
}

func TestGetMetrics_PrefersCacheThenFillsIt(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	st := f.strategy(t, "s")

	cached := domain.MetricsRecord{TotalPnL: 999}
	f.cache.entries[st.ID] = cached
	m, err := f.svc.GetMetrics(ctx, st.ID)
	require.NoError(t, err)
	assert.Equal(t, cached, m)

	delete(f.cache.entries, st.ID)
	require.NoError(t, f.strategies.PersistMetrics(ctx, st.ID, domain.MetricsRecord{TotalPnL: 5}))
	m, err = f.svc.GetMetrics(ctx, st.ID)
	require.NoError(t, err)
	assert.Equal(t, 5.0, m.TotalPnL)
	assert.Equal(t, 5.0, f.cache.entries[st.ID].TotalPnL)

	_, err = f.svc.GetMetrics(ctx, "ghost")
	assert.ErrorIs(t, err, ErrStrategyNotFound)
}

func TestGetMetrics_StaleCacheEntryForUnknownStrategy(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.cache.entries["ghost"] = domain.MetricsRecord{TotalPnL: 42}
	_, err := f.svc.GetMetrics(ctx, "ghost")
	assert.ErrorIs(t, err, ErrStrategyNotFound)

	// A strategy removed behind the service's back keeps its cache entry.
	st := f.strategy(t, "s")
	f.cache.entries[st.ID] = domain.MetricsRecord{TotalPnL: 7}
	require.NoError(t, f.strategies.Delete(ctx, st.ID))
	_, err = f.svc.GetMetrics(ctx, st.ID)
	assert.ErrorIs(t, err, ErrStrategyNotFound)
}

func TestRecomputeMetrics(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	st := f.strategy(t, "s")
	_, err := f.svc.CreateBet(ctx, st.ID, closedBet(t0, 5, 6))
	require.NoError(t, err)

	m, err := f.svc.RecomputeMetrics(ctx, st.ID)
	require.NoError(t, err)
	assert.Equal(t, 10.0, m.TotalPnL)

	snaps, err := f.svc.MetricsHistory(ctx, st.ID, 0)
	require.NoError(t, err)
	assert.Len(t, snaps, 2)

	_, err = f.svc.RecomputeMetrics(ctx, "ghost")
	assert.ErrorIs(t, err, ErrStrategyNotFound)
}

func TestPnLSeries(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	st := f.strategy(t, "s")
	_, err := f.svc.CreateBet(ctx, st.ID, closedBet(t0, 5, 15)) // +100
	require.NoError(t, err)
	_, err = f.svc.CreateBet(ctx, st.ID, closedBet(t0.AddDate(0, 0, 1), 10, 6)) // -40
	require.NoError(t, err)

	series, err := f.svc.PnLSeries(ctx, st.ID)
	require.NoError(t, err)
	assert.Equal(t, []metrics.PnLPoint{
		{Date: "2024-03-01", Value: 100},
		{Date: "2024-03-02", Value: 60},
	}, series)
}

func TestMetricsHistory_WithoutStoreIsEmpty(t *testing.T) {
	strategies := memory.NewStrategyStore()
	bets := memory.NewBetStore()
	svc := NewService(strategies, bets, memory.NewBetGroupStore(), metrics.NewAggregator(bets))
	st, err := svc.CreateStrategy(context.Background(), domain.StrategyCreateInput{Name: "s"})
	require.NoError(t, err)

	snaps, err := svc.MetricsHistory(context.Background(), st.ID, 10)
	require.NoError(t, err)
	assert.Empty(t, snaps)
}

func TestUpdateStrategy(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	st := f.strategy(t, "old")

	name := "new"
	updated, err := f.svc.UpdateStrategy(ctx, st.ID, domain.StrategyUpdateInput{
		Name:        &name,
		MarketTypes: []string{domain.MarketTypeCrypto},
	})
	require.NoError(t, err)
	assert.Equal(t, "new", updated.Name)
	assert.Equal(t, []string{domain.MarketTypeCrypto}, updated.MarketTypes)
	assert.True(t, updated.UpdatedAt.After(st.UpdatedAt))

	_, err = f.svc.UpdateStrategy(ctx, "ghost", domain.StrategyUpdateInput{Name: &name})
	assert.ErrorIs(t, err, ErrStrategyNotFound)
}

func TestEvaluateLegs(t *testing.T) {
	f := newFixture(t)

	sum := f.svc.EvaluateLegs([]domain.LegInput{
		legIn(domain.PositionSell, 5, 10, t0),
		legIn(domain.PositionBuy, 5, 12, t0.Add(time.Minute)),
	})
	assert.Equal(t, 0.0, sum.NetQuantity)
	assert.Equal(t, 50.0, sum.Risk)
	assert.Equal(t, -10.0, sum.Return)
	assert.Equal(t, -20.0, sum.ReturnPercentage)
	assert.Equal(t, domain.StatusLost, sum.Status)

	empty := f.svc.EvaluateLegs(nil)
	assert.Equal(t, domain.StatusPush, empty.Status)
	assert.Zero(t, empty.Risk)
}
