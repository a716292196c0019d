package domain

import "time"

// Bet is a journaled position made of an ordered list of legs.
// Risk, Return, ReturnPercentage and Status are derived from Legs.
type Bet struct {
	ID         string     `json:"id"`
	StrategyID string     `json:"strategyId"`
	GroupID    string     `json:"groupId,omitempty"` // parent group; empty for a flat bet
	DateTime   time.Time  `json:"dateTime"`
	Market     Market     `json:"market"`
	Sector     string     `json:"sector"`
	Symbol     string     `json:"symbol"`
	Expiration *time.Time `json:"expiration,omitempty"` // options/futures only

	// Derived
	Risk             float64 `json:"risk"`             // capital on the initial side
	Return           float64 `json:"return"`           // realized P&L
	ReturnPercentage float64 `json:"returnPercentage"` // return / risk * 100
	Status           Status  `json:"status"`

	Legs []Leg `json:"legs"` // entry order

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// BetCreateInput is the payload for a new bet.
type BetCreateInput struct {
	DateTime   time.Time
	Market     Market
	Sector     string
	Symbol     string
	Expiration *time.Time
	Legs       []LegInput
}

// BetUpdateInput is a partial bet update. Nil fields are left unchanged.
// A non-nil Legs replaces the whole leg list.
type BetUpdateInput struct {
	DateTime   *time.Time
	Market     *Market
	Sector     *string
	Symbol     *string
	Expiration *time.Time
	Legs       []LegInput
}

// NewBet builds a bet entity from input. legIDs must have one entry per input leg.
// Derived fields are left zero for the leg aggregator to fill.
func NewBet(id, strategyID string, in BetCreateInput, legIDs []string, now time.Time) Bet {
	return Bet{
		ID:         id,
		StrategyID: strategyID,
		DateTime:   in.DateTime,
		Market:     in.Market,
		Sector:     in.Sector,
		Symbol:     in.Symbol,
		Expiration: in.Expiration,
		Legs:       buildLegs(in.Legs, legIDs),
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

// Apply merges an update into b. legIDs is consulted only when in.Legs is non-nil.
func (b *Bet) Apply(in BetUpdateInput, legIDs []string, now time.Time) {
	if in.DateTime != nil {
		b.DateTime = *in.DateTime
	}
	if in.Market != nil {
		b.Market = *in.Market
	}
	if in.Sector != nil {
		b.Sector = *in.Sector
	}
	if in.Symbol != nil {
		b.Symbol = *in.Symbol
	}
	if in.Expiration != nil {
		exp := *in.Expiration
		b.Expiration = &exp
	}
	if in.Legs != nil {
		b.Legs = buildLegs(in.Legs, legIDs)
	}
	b.UpdatedAt = now
}

// OpenedAt returns the bet timestamp, falling back to the first leg.
func (b *Bet) OpenedAt() time.Time {
	if !b.DateTime.IsZero() {
		return b.DateTime
	}
	if len(b.Legs) > 0 {
		return b.Legs[0].DateTime
	}
	return time.Time{}
}

// Clone returns a deep copy of b.
func (b *Bet) Clone() *Bet {
	c := *b
	if b.Expiration != nil {
		exp := *b.Expiration
		c.Expiration = &exp
	}
	if b.Legs != nil {
		c.Legs = make([]Leg, len(b.Legs))
		copy(c.Legs, b.Legs)
	}
	return &c
}

func buildLegs(inputs []LegInput, ids []string) []Leg {
	legs := make([]Leg, len(inputs))
	for i, in := range inputs {
		var id string
		if i < len(ids) {
			id = ids[i]
		}
		legs[i] = NewLeg(id, in)
	}
	return legs
}
