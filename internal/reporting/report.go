package reporting

import (
	"time"

	"strategy-journal/internal/domain"
	"strategy-journal/internal/metrics"
)

// Report is the journal report over one or more strategies.
type Report struct {
	GeneratedAt time.Time
	Location    *time.Location
	Strategies  []StrategySection // sorted by name, then id
}

// StrategySection holds everything reported for a single strategy.
type StrategySection struct {
	StrategyID  string
	Name        string
	UserID      string
	MarketTypes []string
	Timeframes  []string
	Categories  []string

	Metrics domain.MetricsRecord
	Counts  StatusCounts
	Bets    []BetRow // sorted by opened date, then id
	Groups  []GroupRow
	PnL     []metrics.PnLPoint
}

// StatusCounts counts positions per status.
type StatusCounts struct {
	Open   int
	Won    int
	Lost   int
	Push   int
	Closed int
}

// Total returns the number of counted positions.
func (c StatusCounts) Total() int {
	return c.Open + c.Won + c.Lost + c.Push + c.Closed
}

func (c *StatusCounts) add(s domain.Status) {
	switch s {
	case domain.StatusOpen:
		c.Open++
	case domain.StatusWon:
		c.Won++
	case domain.StatusLost:
		c.Lost++
	case domain.StatusPush:
		c.Push++
	case domain.StatusClosed:
		c.Closed++
	}
}

// BetRow represents one row in the bets table.
type BetRow struct {
	BetID            string
	Date             string // YYYY-MM-DD in the report location, empty when undated
	Market           domain.Market
	Symbol           string
	Legs             int
	Risk             float64
	Return           float64
	ReturnPercentage float64
	Status           domain.Status
}

// GroupRow represents one parent bet with its rolled-up values.
type GroupRow struct {
	GroupID          string
	Symbol           string
	Children         int
	Risk             float64
	Return           float64
	ReturnPercentage float64
	Status           domain.Status
	DateClosed       string
}
