package metrics

import (
	"context"
	"errors"
	"testing"
	"time"

	"strategy-journal/internal/domain"
	"strategy-journal/internal/storage"
	"strategy-journal/internal/storage/memory"
)

// failingSink rejects every record.
type failingSink struct {
	calls int
}

func (f *failingSink) PersistMetrics(context.Context, string, domain.MetricsRecord) error {
	f.calls++
	return errors.New("sink unavailable")
}

func seedBets(t *testing.T, store *memory.BetStore, bets ...*domain.Bet) {
	t.Helper()
	for _, b := range bets {
		b.StrategyID = "s1"
		if err := store.Insert(context.Background(), b); err != nil {
			t.Fatalf("Insert bet failed: %v", err)
		}
	}
}

func TestAggregator_ComputeAndPersist(t *testing.T) {
	ctx := context.Background()
	bets := memory.NewBetStore()
	strategies := memory.NewStrategyStore()
	history := memory.NewMetricsHistoryStore()

	s := domain.NewStrategy("s1", domain.StrategyCreateInput{UserID: "u1", Name: "test"}, time.Now())
	if err := strategies.Insert(ctx, &s); err != nil {
		t.Fatalf("Insert strategy failed: %v", err)
	}
	seedBets(t, bets,
		makeBet("b1", 100, domain.StatusWon, day1),
		makeBet("b2", -40, domain.StatusLost, day1),
	)

	agg := NewAggregator(bets,
		WithSink("strategies", strategies),
		WithSink("history", history),
	)

	m, err := agg.ComputeAndPersist(ctx, "s1")
	if err != nil {
		t.Fatalf("ComputeAndPersist failed: %v", err)
	}
	if m.TotalPnL != 60 || m.ProfitFactor != 2.5 {
		t.Errorf("unexpected metrics: %+v", m)
	}

	stored, _ := strategies.GetByID(ctx, "s1")
	if stored.Metrics != m {
		t.Errorf("strategy metrics not replaced: %+v", stored.Metrics)
	}
	snaps, _ := history.GetByStrategy(ctx, "s1", 0)
	if len(snaps) != 1 || snaps[0].Metrics != m {
		t.Errorf("history not appended: %+v", snaps)
	}
}

func TestAggregator_SinkFailureIsReportedNotFatal(t *testing.T) {
	ctx := context.Background()
	bets := memory.NewBetStore()
	history := memory.NewMetricsHistoryStore()
	bad := &failingSink{}

	seedBets(t, bets, makeBet("b1", 25, domain.StatusWon, day1))

	agg := NewAggregator(bets,
		WithSink("broken", bad),
		WithSink("history", history),
	)

	m, err := agg.ComputeAndPersist(ctx, "s1")
	if err == nil {
		t.Fatal("expected persist error")
	}

	var perr *PersistError
	if !errors.As(err, &perr) || perr.StrategyID != "s1" {
		t.Fatalf("expected *PersistError for s1, got %v", err)
	}
	if m.TotalPnL != 25 {
		t.Errorf("record should still be returned, got %+v", m)
	}
	if bad.calls != 1 {
		t.Errorf("expected 1 call to failing sink, got %d", bad.calls)
	}
	if snaps, _ := history.GetByStrategy(ctx, "s1", 0); len(snaps) != 1 {
		t.Error("later sinks must still receive the record")
	}
}

func TestAggregator_MissingStrategySurfacesNotFound(t *testing.T) {
	ctx := context.Background()
	agg := NewAggregator(memory.NewBetStore(), WithSink("strategies", memory.NewStrategyStore()))

	_, err := agg.ComputeAndPersist(ctx, "ghost")
	if !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("expected ErrNotFound through PersistError, got %v", err)
	}
}

func TestAggregator_Deterministic(t *testing.T) {
	ctx := context.Background()
	bets := memory.NewBetStore()
	seedBets(t, bets,
		makeBet("b1", 10.1, domain.StatusWon, day1),
		makeBet("b2", -3.3, domain.StatusLost, day1.AddDate(0, 0, 1)),
		makeBet("b3", 0, domain.StatusPush, day1.AddDate(0, 0, 2)),
	)
	agg := NewAggregator(bets, WithLocation(time.UTC))

	first, err := agg.Compute(ctx, "s1")
	if err != nil {
		t.Fatalf("Compute failed: %v", err)
	}
	for run := 0; run < 5; run++ {
		got, _ := agg.Compute(ctx, "s1")
		if got != first {
			t.Fatalf("run %d: expected %+v, got %+v", run, first, got)
		}
	}
}

func TestAggregator_GroupCountsAsOneSettlement(t *testing.T) {
	ctx := context.Background()
	bets := memory.NewBetStore()
	groups := memory.NewBetGroupStore()

	g := domain.NewBetGroup("g1", "s1", domain.BetGroupCreateInput{DateOpened: day1}, day1)
	if err := groups.Insert(ctx, &g); err != nil {
		t.Fatalf("Insert group failed: %v", err)
	}

	c1 := makeBet("c1", 30, domain.StatusWon, day1)
	c1.GroupID = "g1"
	c2 := makeBet("c2", -10, domain.StatusLost, day1)
	c2.GroupID = "g1"
	seedBets(t, bets, c1, c2, makeBet("flat", -40, domain.StatusLost, day1))

	settlements, err := NewAggregator(bets, WithGroups(groups)).Settlements(ctx, "s1")
	if err != nil {
		t.Fatalf("Settlements failed: %v", err)
	}
	if len(settlements) != 2 {
		t.Fatalf("expected flat bet plus one group, got %+v", settlements)
	}
	if settlements[1].Return != 20 || settlements[1].Status != domain.StatusWon {
		t.Errorf("group should roll up to +20 Won, got %+v", settlements[1])
	}

	m, err := NewAggregator(bets, WithGroups(groups)).Compute(ctx, "s1")
	if err != nil {
		t.Fatalf("Compute failed: %v", err)
	}
	if m.TotalPnL != -20 || m.WinRate != 50 || m.AvgWin != 20 || m.AvgLoss != 40 {
		t.Errorf("unexpected metrics: %+v", m)
	}

	// Without a group store every child is a flat bet.
	flat, _ := NewAggregator(bets).Settlements(ctx, "s1")
	if len(flat) != 3 {
		t.Errorf("expected 3 flat settlements, got %d", len(flat))
	}
}

func TestAggregator_OpenChildKeepsGroupOutOfMetrics(t *testing.T) {
	ctx := context.Background()
	bets := memory.NewBetStore()
	groups := memory.NewBetGroupStore()

	g := domain.NewBetGroup("g1", "s1", domain.BetGroupCreateInput{DateOpened: day1}, day1)
	_ = groups.Insert(ctx, &g)
	won := makeBet("c1", 30, domain.StatusWon, day1)
	won.GroupID = "g1"
	open := makeBet("c2", 0, domain.StatusOpen, day1)
	open.GroupID = "g1"
	seedBets(t, bets, won, open)

	m, err := NewAggregator(bets, WithGroups(groups)).Compute(ctx, "s1")
	if err != nil {
		t.Fatalf("Compute failed: %v", err)
	}
	if m.TotalPnL != 0 || m.WinRate != 0 {
		t.Errorf("open group must not count, got %+v", m)
	}
}
