package domain

import "time"

// BetGroup is a parent bet whose values roll up from child bets.
// Children reference the group through Bet.GroupID; Bets holds them when loaded.
type BetGroup struct {
	ID         string     `json:"id"`
	StrategyID string     `json:"strategyId"`
	Symbol     string     `json:"symbol,omitempty"`
	DateOpened time.Time  `json:"dateOpened"`
	DateClosed *time.Time `json:"dateClosed,omitempty"` // set once every child is settled

	Risk             float64 `json:"risk"`
	Return           float64 `json:"return"`
	ReturnPercentage float64 `json:"returnPercentage"`
	Status           Status  `json:"status"`

	Bets []Bet `json:"bets"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// BetGroupCreateInput is the payload for a new group.
// A zero DateOpened defaults to the creation time.
type BetGroupCreateInput struct {
	Symbol     string
	DateOpened time.Time
}

// BetGroupUpdateInput is a partial group update. Nil fields are left unchanged.
type BetGroupUpdateInput struct {
	Symbol     *string
	DateOpened *time.Time
}

// NewBetGroup builds an empty group. Rolled-up fields are left for SettleGroup.
func NewBetGroup(id, strategyID string, in BetGroupCreateInput, now time.Time) BetGroup {
	opened := in.DateOpened
	if opened.IsZero() {
		opened = now
	}
	return BetGroup{
		ID:         id,
		StrategyID: strategyID,
		Symbol:     in.Symbol,
		DateOpened: opened,
		Status:     StatusOpen,
		Bets:       []Bet{},
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

// Apply merges an update into g.
func (g *BetGroup) Apply(in BetGroupUpdateInput, now time.Time) {
	if in.Symbol != nil {
		g.Symbol = *in.Symbol
	}
	if in.DateOpened != nil {
		g.DateOpened = *in.DateOpened
	}
	g.UpdatedAt = now
}

// Clone returns a deep copy of g, children included.
func (g *BetGroup) Clone() *BetGroup {
	c := *g
	if g.DateClosed != nil {
		closed := *g.DateClosed
		c.DateClosed = &closed
	}
	if g.Bets != nil {
		c.Bets = make([]Bet, len(g.Bets))
		for i := range g.Bets {
			c.Bets[i] = *g.Bets[i].Clone()
		}
	}
	return &c
}
