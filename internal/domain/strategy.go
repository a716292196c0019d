package domain

import "time"

// Strategy is a user-owned trading methodology that owns bets and their metrics.
type Strategy struct {
	ID          string   `json:"id"`
	UserID      string   `json:"userId"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	MarketTypes []string `json:"marketTypes"`
	Timeframes  []string `json:"timeframes"`
	Categories  []string `json:"categories"`

	Metrics MetricsRecord `json:"metrics"` // derived from bets

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// StrategyCreateInput is the payload for a new strategy.
type StrategyCreateInput struct {
	UserID      string
	Name        string
	Description string
	MarketTypes []string
	Timeframes  []string
	Categories  []string
}

// StrategyUpdateInput is a partial strategy update. Nil fields are left unchanged.
// Metrics are not editable.
type StrategyUpdateInput struct {
	Name        *string
	Description *string
	MarketTypes []string
	Timeframes  []string
	Categories  []string
}

// NewStrategy builds a strategy entity with zero metrics.
func NewStrategy(id string, in StrategyCreateInput, now time.Time) Strategy {
	return Strategy{
		ID:          id,
		UserID:      in.UserID,
		Name:        in.Name,
		Description: in.Description,
		MarketTypes: cloneTags(in.MarketTypes),
		Timeframes:  cloneTags(in.Timeframes),
		Categories:  cloneTags(in.Categories),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// Apply merges an update into s.
func (s *Strategy) Apply(in StrategyUpdateInput, now time.Time) {
	if in.Name != nil {
		s.Name = *in.Name
	}
	if in.Description != nil {
		s.Description = *in.Description
	}
	if in.MarketTypes != nil {
		s.MarketTypes = cloneTags(in.MarketTypes)
	}
	if in.Timeframes != nil {
		s.Timeframes = cloneTags(in.Timeframes)
	}
	if in.Categories != nil {
		s.Categories = cloneTags(in.Categories)
	}
	s.UpdatedAt = now
}

// HasMarketType reports whether the strategy is tagged with market type m.
func (s *Strategy) HasMarketType(m string) bool {
	for _, t := range s.MarketTypes {
		if t == m {
			return true
		}
	}
	return false
}

// Clone returns a deep copy of s.
func (s *Strategy) Clone() *Strategy {
	c := *s
	c.MarketTypes = cloneTags(s.MarketTypes)
	c.Timeframes = cloneTags(s.Timeframes)
	c.Categories = cloneTags(s.Categories)
	return &c
}

func cloneTags(tags []string) []string {
	if tags == nil {
		return []string{}
	}
	out := make([]string, len(tags))
	copy(out, tags)
	return out
}
