package api

import (
	"time"

	"strategy-journal/internal/domain"
	"strategy-journal/internal/journal"
	"strategy-journal/internal/metrics"
)

type legRequest struct {
	DateTime time.Time `json:"dateTime"`
	Quantity float64   `json:"quantity" validate:"gte=0"`
	Position string    `json:"position" validate:"required,position"`
	Price    float64   `json:"price"`
}

func (l legRequest) input() domain.LegInput {
	return domain.LegInput{
		DateTime: l.DateTime,
		Quantity: l.Quantity,
		Position: domain.Position(l.Position),
		Price:    l.Price,
	}
}

func legInputs(reqs []legRequest) []domain.LegInput {
	if reqs == nil {
		return nil
	}
	out := make([]domain.LegInput, len(reqs))
	for i, l := range reqs {
		out[i] = l.input()
	}
	return out
}

type evaluateLegsRequest struct {
	Legs []legRequest `json:"legs" validate:"dive"`
}

type createBetRequest struct {
	DateTime   time.Time    `json:"dateTime"`
	Market     string       `json:"market" validate:"required,market"`
	Sector     string       `json:"sector" validate:"max=100"`
	Symbol     string       `json:"symbol" validate:"max=32"`
	Expiration *time.Time   `json:"expiration"`
	Legs       []legRequest `json:"legs" validate:"required,min=1,dive"`
}

func (r createBetRequest) input() domain.BetCreateInput {
	return domain.BetCreateInput{
		DateTime:   r.DateTime,
		Market:     domain.Market(r.Market),
		Sector:     r.Sector,
		Symbol:     r.Symbol,
		Expiration: r.Expiration,
		Legs:       legInputs(r.Legs),
	}
}

// updateBetRequest leaves absent fields unchanged. A present legs list
// replaces every leg and must not be empty.
type updateBetRequest struct {
	DateTime   *time.Time   `json:"dateTime"`
	Market     *string      `json:"market" validate:"omitempty,market"`
	Sector     *string      `json:"sector" validate:"omitempty,max=100"`
	Symbol     *string      `json:"symbol" validate:"omitempty,max=32"`
	Expiration *time.Time   `json:"expiration"`
	Legs       []legRequest `json:"legs" validate:"omitempty,dive"`
}

func (r updateBetRequest) input() domain.BetUpdateInput {
	in := domain.BetUpdateInput{
		DateTime:   r.DateTime,
		Sector:     r.Sector,
		Symbol:     r.Symbol,
		Expiration: r.Expiration,
		Legs:       legInputs(r.Legs),
	}
	if r.Market != nil {
		m := domain.Market(*r.Market)
		in.Market = &m
	}
	return in
}

type createStrategyRequest struct {
	UserID      string   `json:"userId" validate:"required,max=128"`
	Name        string   `json:"name" validate:"required,max=200"`
	Description string   `json:"description" validate:"max=5000"`
	MarketTypes []string `json:"marketTypes" validate:"dive,market_type"`
	Timeframes  []string `json:"timeframes" validate:"dive,timeframe"`
	Categories  []string `json:"categories" validate:"dive,category"`
}

func (r createStrategyRequest) input() domain.StrategyCreateInput {
	return domain.StrategyCreateInput{
		UserID:      r.UserID,
		Name:        r.Name,
		Description: r.Description,
		MarketTypes: r.MarketTypes,
		Timeframes:  r.Timeframes,
		Categories:  r.Categories,
	}
}

type updateStrategyRequest struct {
	Name        *string  `json:"name" validate:"omitempty,max=200"`
	Description *string  `json:"description" validate:"omitempty,max=5000"`
	MarketTypes []string `json:"marketTypes" validate:"omitempty,dive,market_type"`
	Timeframes  []string `json:"timeframes" validate:"omitempty,dive,timeframe"`
	Categories  []string `json:"categories" validate:"omitempty,dive,category"`
}

func (r updateStrategyRequest) input() domain.StrategyUpdateInput {
	return domain.StrategyUpdateInput{
		Name:        r.Name,
		Description: r.Description,
		MarketTypes: r.MarketTypes,
		Timeframes:  r.Timeframes,
		Categories:  r.Categories,
	}
}

type legSummaryResponse struct {
	NetQuantity      float64       `json:"netQuantity"`
	Risk             float64       `json:"risk"`
	Return           float64       `json:"return"`
	ReturnPercentage float64       `json:"returnPercentage"`
	Status           domain.Status `json:"status"`
}

func newLegSummaryResponse(s metrics.LegSummary) legSummaryResponse {
	return legSummaryResponse{
		NetQuantity:      s.NetQuantity,
		Risk:             s.Risk,
		Return:           s.Return,
		ReturnPercentage: s.ReturnPercentage,
		Status:           s.Status,
	}
}

type createGroupRequest struct {
	Symbol     string    `json:"symbol" validate:"max=32"`
	DateOpened time.Time `json:"dateOpened"`
}

func (r createGroupRequest) input() domain.BetGroupCreateInput {
	return domain.BetGroupCreateInput{Symbol: r.Symbol, DateOpened: r.DateOpened}
}

type updateGroupRequest struct {
	Symbol     *string    `json:"symbol" validate:"omitempty,max=32"`
	DateOpened *time.Time `json:"dateOpened"`
}

func (r updateGroupRequest) input() domain.BetGroupUpdateInput {
	return domain.BetGroupUpdateInput{Symbol: r.Symbol, DateOpened: r.DateOpened}
}

// mutationResponse reports a stored bet or group mutation. Group is set
// when a group was touched. MetricsError is set when the strategy metrics
// could not be recomputed or persisted.
type mutationResponse struct {
	Bet          *domain.Bet          `json:"bet,omitempty"`
	Group        *domain.BetGroup     `json:"group,omitempty"`
	Metrics      domain.MetricsRecord `json:"metrics"`
	MetricsError string               `json:"metricsError,omitempty"`
}

func newMutationResponse(res *journal.MutationResult) mutationResponse {
	out := mutationResponse{Bet: res.Bet, Group: res.Group, Metrics: res.Metrics}
	if res.MetricsError != nil {
		out.MetricsError = res.MetricsError.Error()
	}
	return out
}

type healthResponse struct {
	Status string    `json:"status"`
	Time   time.Time `json:"time"`
}
