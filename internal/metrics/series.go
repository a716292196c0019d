package metrics

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// PnLPoint is one day of the cumulative P&L curve.
type PnLPoint struct {
	Date  string  `json:"time"` // YYYY-MM-DD
	Value float64 `json:"value"`
}

// PnLSeries builds the cumulative daily P&L curve over settled, dated positions.
// Points are ordered by date ascending.
func PnLSeries(settlements []Settlement, loc *time.Location) []PnLPoint {
	if loc == nil {
		loc = time.UTC
	}

	daily := make(map[string]decimal.Decimal)
	for _, s := range settlements {
		if !s.Status.Settled() || s.Date.IsZero() {
			continue
		}
		key := dayKey(s.Date, loc)
		daily[key] = daily[key].Add(decimal.NewFromFloat(s.Return))
	}

	dates := make([]string, 0, len(daily))
	for d := range daily {
		dates = append(dates, d)
	}
	sort.Strings(dates)

	points := make([]PnLPoint, len(dates))
	running := decimal.Zero
	for i, d := range dates {
		running = running.Add(daily[d])
		points[i] = PnLPoint{Date: d, Value: running.InexactFloat64()}
	}
	return points
}
