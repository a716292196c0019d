package reporting

import (
	"sort"
	"time"

	"strategy-journal/internal/domain"
	"strategy-journal/internal/metrics"
)

// Generator produces reports from exported journal data.
// Derived bet and group values are recomputed from legs, never trusted.
type Generator struct {
	loc *time.Location
	now func() time.Time // Injectable clock for deterministic output
}

// NewGenerator creates a report generator bucketing days in loc (UTC when nil).
func NewGenerator(loc *time.Location) *Generator {
	if loc == nil {
		loc = time.UTC
	}
	return &Generator{
		loc: loc,
		now: func() time.Time { return time.Now().UTC() },
	}
}

// WithClock sets a custom clock function for deterministic output.
func (g *Generator) WithClock(now func() time.Time) *Generator {
	g.now = now
	return g
}

// Generate builds a report over every strategy of the export.
func (g *Generator) Generate(e *Export) *Report {
	now := g.now()
	sections := make([]StrategySection, 0, len(e.Strategies))
	for _, s := range e.Strategies {
		sections = append(sections, g.section(s, now))
	}

	sort.SliceStable(sections, func(i, j int) bool {
		if sections[i].Name != sections[j].Name {
			return sections[i].Name < sections[j].Name
		}
		return sections[i].StrategyID < sections[j].StrategyID
	})

	return &Report{
		GeneratedAt: now,
		Location:    g.loc,
		Strategies:  sections,
	}
}

// Recompute re-derives every bet and group of s in place and returns the
// settlements the strategy metrics are computed from.
func Recompute(s *ExportedStrategy, now time.Time) []metrics.Settlement {
	bets := make([]*domain.Bet, len(s.Bets))
	for i := range s.Bets {
		metrics.ApplyLegs(&s.Bets[i])
		bets[i] = &s.Bets[i]
	}

	groups := make([]*domain.BetGroup, len(s.Groups))
	for i := range s.Groups {
		g := &s.Groups[i]
		for j := range g.Bets {
			metrics.ApplyLegs(&g.Bets[j])
		}
		metrics.SettleGroup(g, now)
		groups[i] = g
	}

	return append(metrics.SettlementsFromBets(bets), metrics.SettlementsFromGroups(groups)...)
}

func (g *Generator) section(s ExportedStrategy, now time.Time) StrategySection {
	settlements := Recompute(&s, now)

	sec := StrategySection{
		StrategyID:  s.Strategy.ID,
		Name:        s.Strategy.Name,
		UserID:      s.Strategy.UserID,
		MarketTypes: s.Strategy.MarketTypes,
		Timeframes:  s.Strategy.Timeframes,
		Categories:  s.Strategy.Categories,
		Metrics:     metrics.ComputeStrategyMetrics(settlements, g.loc),
		PnL:         metrics.PnLSeries(settlements, g.loc),
	}

	for i := range s.Bets {
		b := &s.Bets[i]
		sec.Counts.add(b.Status)
		sec.Bets = append(sec.Bets, BetRow{
			BetID:            b.ID,
			Date:             g.date(b.OpenedAt()),
			Market:           b.Market,
			Symbol:           b.Symbol,
			Legs:             len(b.Legs),
			Risk:             b.Risk,
			Return:           b.Return,
			ReturnPercentage: b.ReturnPercentage,
			Status:           b.Status,
		})
	}
	sort.SliceStable(sec.Bets, func(i, j int) bool {
		if sec.Bets[i].Date != sec.Bets[j].Date {
			return sec.Bets[i].Date < sec.Bets[j].Date
		}
		return sec.Bets[i].BetID < sec.Bets[j].BetID
	})

	for _, grp := range s.Groups {
		sec.Counts.add(grp.Status)
		row := GroupRow{
			GroupID:          grp.ID,
			Symbol:           grp.Symbol,
			Children:         len(grp.Bets),
			Risk:             grp.Risk,
			Return:           grp.Return,
			ReturnPercentage: grp.ReturnPercentage,
			Status:           grp.Status,
		}
		if grp.DateClosed != nil {
			row.DateClosed = g.date(*grp.DateClosed)
		}
		sec.Groups = append(sec.Groups, row)
	}
	sort.SliceStable(sec.Groups, func(i, j int) bool {
		return sec.Groups[i].GroupID < sec.Groups[j].GroupID
	})

	return sec
}

func (g *Generator) date(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.In(g.loc).Format(time.DateOnly)
}
