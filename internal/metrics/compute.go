package metrics

import (
	"time"

	"github.com/shopspring/decimal"

	"strategy-journal/internal/domain"
)

// undatedDay is the day key shared by settled positions without a timestamp.
const undatedDay = "undated"

// Settlement is the per-position view consumed by the strategy metrics aggregator.
type Settlement struct {
	Return float64
	Status domain.Status
	Date   time.Time // zero when unknown
}

// SettlementsFromBets projects flat bets. The date is the bet timestamp,
// falling back to the first leg.
func SettlementsFromBets(bets []*domain.Bet) []Settlement {
	out := make([]Settlement, 0, len(bets))
	for _, b := range bets {
		out = append(out, Settlement{
			Return: b.Return,
			Status: b.Status,
			Date:   b.OpenedAt(),
		})
	}
	return out
}

// SettlementsFromGroups projects bet groups using their rolled-up values.
// The date is DateOpened, falling back to the first child bet.
func SettlementsFromGroups(groups []*domain.BetGroup) []Settlement {
	out := make([]Settlement, 0, len(groups))
	for _, g := range groups {
		date := g.DateOpened
		if date.IsZero() && len(g.Bets) > 0 {
			date = g.Bets[0].OpenedAt()
		}
		out = append(out, Settlement{
			Return: g.Return,
			Status: g.Status,
			Date:   date,
		})
	}
	return out
}

// ComputeStrategyMetrics computes the metrics record over settled positions.
// Won and Lost statuses define the winning and losing buckets; Push and Closed
// contribute to totals and day count only. Calendar days are taken in loc.
func ComputeStrategyMetrics(settlements []Settlement, loc *time.Location) domain.MetricsRecord {
	if loc == nil {
		loc = time.UTC
	}

	total := decimal.Zero
	winSum := decimal.Zero
	lossSum := decimal.Zero
	closed, wins, losses := 0, 0, 0
	days := make(map[string]struct{})

	for _, s := range settlements {
		if !s.Status.Settled() {
			continue
		}
		closed++
		ret := decimal.NewFromFloat(s.Return)
		total = total.Add(ret)
		days[dayKey(s.Date, loc)] = struct{}{}

		switch s.Status {
		case domain.StatusWon:
			wins++
			winSum = winSum.Add(ret)
		case domain.StatusLost:
			losses++
			lossSum = lossSum.Add(ret)
		}
	}

	if closed == 0 {
		return domain.MetricsRecord{}
	}

	return domain.MetricsRecord{
		TotalPnL:     total.InexactFloat64(),
		WinRate:      computeWinRate(wins, closed),
		AvgWin:       computeMean(winSum, wins).InexactFloat64(),
		AvgLoss:      computeMean(lossSum, losses).Abs().InexactFloat64(),
		ProfitFactor: computeProfitFactor(winSum, lossSum),
		AvgPnLPerDay: computeMean(total, len(days)).InexactFloat64(),
	}
}

// computeWinRate calculates wins / closed as a percentage.
func computeWinRate(wins, closed int) float64 {
	if closed == 0 {
		return 0
	}
	return decimal.NewFromInt(int64(wins)).Mul(hundred).Div(decimal.NewFromInt(int64(closed))).InexactFloat64()
}

// computeMean divides sum by n, returning zero for n == 0.
func computeMean(sum decimal.Decimal, n int) decimal.Decimal {
	if n == 0 {
		return decimal.Zero
	}
	return sum.Div(decimal.NewFromInt(int64(n)))
}

// computeProfitFactor returns winSum / |lossSum|, or winSum when there are no losses.
func computeProfitFactor(winSum, lossSum decimal.Decimal) float64 {
	if lossSum.IsZero() {
		return winSum.InexactFloat64()
	}
	return winSum.Div(lossSum.Abs()).InexactFloat64()
}

// dayKey formats the calendar date of t in loc.
func dayKey(t time.Time, loc *time.Location) string {
	if t.IsZero() {
		return undatedDay
	}
	return t.In(loc).Format(time.DateOnly)
}
