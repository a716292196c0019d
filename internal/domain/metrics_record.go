package domain

import "time"

// MetricsRecord holds aggregate statistics for a strategy.
// Always recomputed in full from the current bet set.
type MetricsRecord struct {
	TotalPnL     float64 `json:"totalPnL"`
	WinRate      float64 `json:"winRate"` // percent
	AvgWin       float64 `json:"avgWin"`
	AvgLoss      float64 `json:"avgLoss"` // positive magnitude
	ProfitFactor float64 `json:"profitFactor"`
	AvgPnLPerDay float64 `json:"avgPnLPerDay"`
}

// Metrics record field names, as used for sorting and serialization.
const (
	MetricTotalPnL     = "totalPnL"
	MetricWinRate      = "winRate"
	MetricAvgWin       = "avgWin"
	MetricAvgLoss      = "avgLoss"
	MetricProfitFactor = "profitFactor"
	MetricAvgPnLPerDay = "avgPnLPerDay"
)

// Field returns the named metric. ok is false for unknown names.
func (m MetricsRecord) Field(name string) (value float64, ok bool) {
	switch name {
	case MetricTotalPnL:
		return m.TotalPnL, true
	case MetricWinRate:
		return m.WinRate, true
	case MetricAvgWin:
		return m.AvgWin, true
	case MetricAvgLoss:
		return m.AvgLoss, true
	case MetricProfitFactor:
		return m.ProfitFactor, true
	case MetricAvgPnLPerDay:
		return m.AvgPnLPerDay, true
	}
	return 0, false
}

// MetricsSnapshot is one historical recomputation of a strategy's metrics.
type MetricsSnapshot struct {
	StrategyID string        `json:"strategyId"`
	RecordedAt time.Time     `json:"recordedAt"`
	Metrics    MetricsRecord `json:"metrics"`
}
