package reporting

import (
	"strings"
	"testing"
	"time"

	"strategy-journal/internal/domain"
)

var (
	day1  = time.Date(2024, 3, 1, 15, 0, 0, 0, time.UTC)
	fixed = time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC)
)

func leg(pos domain.Position, qty, price float64, at time.Time) domain.Leg {
	return domain.Leg{DateTime: at, Quantity: qty, Position: pos, Price: price}
}

// roundTrip is a bet bought at buy and sold at sell, 10 units each.
func roundTrip(id string, at time.Time, buy, sell float64) domain.Bet {
	return domain.Bet{
		ID:       id,
		DateTime: at,
		Market:   domain.MarketStocks,
		Symbol:   "AAPL",
		Legs: []domain.Leg{
			leg(domain.PositionBuy, 10, buy, at),
			leg(domain.PositionSell, 10, sell, at.Add(time.Hour)),
		},
	}
}

func setupExport() *Export {
	stale := roundTrip("b3", day1.AddDate(0, 0, 2), 1, 1)
	stale.Legs = stale.Legs[:1] // still open
	stale.Status = domain.StatusWon
	stale.Return = 1234 // stale derived values are recomputed

	return &Export{Strategies: []ExportedStrategy{
		{
			Strategy: domain.Strategy{ID: "s2", Name: "Zeta", UserID: "u1", MarketTypes: []string{"stocks"}},
			Bets: []domain.Bet{
				roundTrip("b2", day1, 10, 6), // -40
				roundTrip("b1", day1, 5, 15), // +100
				stale,
			},
		},
		{
			Strategy: domain.Strategy{ID: "s1", Name: "Alpha"},
			Groups: []domain.BetGroup{{
				ID:     "g1",
				Symbol: "SPY",
				Bets: []domain.Bet{
					roundTrip("c1", day1, 5, 6), // +10
					roundTrip("c2", day1, 6, 5), // -10
				},
			}},
		},
	}}
}

func generate(t *testing.T) *Report {
	t.Helper()
	return NewGenerator(time.UTC).WithClock(func() time.Time { return fixed }).Generate(setupExport())
}

func TestGenerate_RecomputesMetrics(t *testing.T) {
	r := generate(t)

	if len(r.Strategies) != 2 {
		t.Fatalf("expected 2 strategies, got %d", len(r.Strategies))
	}
	if r.Strategies[0].Name != "Alpha" || r.Strategies[1].Name != "Zeta" {
		t.Errorf("strategies not sorted by name: %s, %s", r.Strategies[0].Name, r.Strategies[1].Name)
	}

	zeta := r.Strategies[1]
	m := zeta.Metrics
	if m.TotalPnL != 60 || m.WinRate != 50 || m.AvgWin != 100 || m.AvgLoss != 40 || m.ProfitFactor != 2.5 || m.AvgPnLPerDay != 60 {
		t.Errorf("unexpected metrics: %+v", m)
	}
	if zeta.Counts != (StatusCounts{Open: 1, Won: 1, Lost: 1}) {
		t.Errorf("unexpected counts: %+v", zeta.Counts)
	}

	// b3 was exported as Won with a stale return.
	last := zeta.Bets[len(zeta.Bets)-1]
	if last.BetID != "b3" || last.Status != domain.StatusOpen || last.Return != 0 {
		t.Errorf("stale bet not recomputed: %+v", last)
	}
}

func TestGenerate_BetsSortedByDateThenID(t *testing.T) {
	r := generate(t)
	bets := r.Strategies[1].Bets

	var ids []string
	for _, b := range bets {
		ids = append(ids, b.BetID)
	}
	if strings.Join(ids, ",") != "b1,b2,b3" {
		t.Errorf("unexpected order: %v", ids)
	}
	if bets[0].Date != "2024-03-01" {
		t.Errorf("expected date 2024-03-01, got %s", bets[0].Date)
	}
}

func TestGenerate_GroupsRollUp(t *testing.T) {
	r := generate(t)
	alpha := r.Strategies[0]

	if len(alpha.Groups) != 1 {
		t.Fatalf("expected 1 group, got %d", len(alpha.Groups))
	}
	g := alpha.Groups[0]
	if g.Children != 2 || g.Risk != 110 || g.Return != 0 || g.Status != domain.StatusPush {
		t.Errorf("unexpected group row: %+v", g)
	}
	if g.DateClosed != "2024-04-01" {
		t.Errorf("expected group closed at generation time, got %q", g.DateClosed)
	}
	if alpha.Metrics.TotalPnL != 0 || alpha.Metrics.WinRate != 0 {
		t.Errorf("push group must not count as a win: %+v", alpha.Metrics)
	}
	if len(alpha.PnL) != 1 || alpha.PnL[0].Value != 0 {
		t.Errorf("unexpected pnl: %+v", alpha.PnL)
	}
}

func TestGenerate_Deterministic(t *testing.T) {
	first := RenderMarkdown(generate(t))
	second := RenderMarkdown(generate(t))
	if first != second {
		t.Error("markdown output differs between runs")
	}
	if RenderBetsCSV(generate(t)) != RenderBetsCSV(generate(t)) {
		t.Error("csv output differs between runs")
	}
}

func TestRenderMarkdown_ContainsRequiredSections(t *testing.T) {
	md := RenderMarkdown(generate(t))

	sections := []string{
		"# Strategy Journal Report",
		"Generated: 2024-04-01T00:00:00Z",
		"## Overview",
		"## Alpha",
		"## Zeta",
		"### Metrics",
		"### Bets",
		"### Bet Groups",
		"### Cumulative P&L",
		"| Total P&L | 60.00 |",
		"| Profit Factor | 2.50 |",
		"| 2024-03-01 | 60.00 |",
	}
	for _, s := range sections {
		if !strings.Contains(md, s) {
			t.Errorf("markdown missing %q", s)
		}
	}
}

func TestRenderMarkdown_Empty(t *testing.T) {
	md := RenderMarkdown(NewGenerator(nil).Generate(&Export{}))
	if !strings.Contains(md, "No strategies available.") {
		t.Error("expected empty report notice")
	}
}

func TestRenderMetricsCSV(t *testing.T) {
	csv := RenderMetricsCSV(generate(t))
	lines := strings.Split(strings.TrimSpace(csv), "\n")

	if len(lines) != 3 {
		t.Fatalf("expected header + 2 rows, got %d lines", len(lines))
	}
	if !strings.HasPrefix(lines[0], "strategy_id,name,positions") {
		t.Errorf("unexpected header: %s", lines[0])
	}
	want := "s2,Zeta,3,1,1,1,0,0,60.000000,50.000000,100.000000,40.000000,2.500000,60.000000"
	if lines[2] != want {
		t.Errorf("row mismatch:\n got %s\nwant %s", lines[2], want)
	}
}

func TestRenderPnLCSV(t *testing.T) {
	csv := RenderPnLCSV(generate(t))
	if !strings.Contains(csv, "s2,2024-03-01,60.000000") {
		t.Errorf("missing pnl row:\n%s", csv)
	}
}

func TestRenderBetsCSV_QuotesFreeText(t *testing.T) {
	r := &Report{Strategies: []StrategySection{{
		StrategyID: "s1",
		Bets:       []BetRow{{BetID: "b1", Symbol: "BRK,B", Status: domain.StatusOpen}},
	}}}
	if !strings.Contains(RenderBetsCSV(r), `"BRK,B"`) {
		t.Error("symbol with comma must be quoted")
	}
}

func TestReadExport(t *testing.T) {
	doc := `{"strategies":[{"strategy":{"id":"s1","name":"A"},"bets":[{"id":"b1","legs":[{"position":"Buy","quantity":1,"price":2}]}]}]}`
	e, err := ReadExport(strings.NewReader(doc))
	if err != nil {
		t.Fatalf("ReadExport failed: %v", err)
	}
	if len(e.Strategies) != 1 || len(e.Strategies[0].Bets) != 1 {
		t.Fatalf("unexpected export: %+v", e)
	}
	if e.Strategies[0].Bets[0].Legs[0].Position != domain.PositionBuy {
		t.Error("leg position not decoded")
	}

	if _, err := ReadExport(strings.NewReader(`{"strategies":[{"strategy":{}}]}`)); err == nil {
		t.Error("expected error for strategy without id")
	}
	if _, err := ReadExport(strings.NewReader(`not json`)); err == nil {
		t.Error("expected decode error")
	}
}
