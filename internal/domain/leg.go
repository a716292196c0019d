package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Position is the side of a single fill.
type Position string

const (
	PositionBuy  Position = "Buy"
	PositionSell Position = "Sell"
)

// Valid reports whether p is Buy or Sell.
func (p Position) Valid() bool {
	return p == PositionBuy || p == PositionSell
}

// Leg represents one executed fill within a bet.
type Leg struct {
	ID       string    `json:"id,omitempty"`
	DateTime time.Time `json:"dateTime"` // fill timestamp
	Quantity float64   `json:"quantity"` // units, non-negative
	Position Position  `json:"position"` // Buy | Sell
	Price    float64   `json:"price"`    // unit price at fill
	Risk     float64   `json:"risk"`     // quantity * price, derived
}

// LegInput is the caller-supplied part of a leg. Risk is never accepted from input.
type LegInput struct {
	DateTime time.Time `json:"dateTime"`
	Quantity float64   `json:"quantity"`
	Position Position  `json:"position"`
	Price    float64   `json:"price"`
}

// NewLeg builds a leg from input with its risk derived.
func NewLeg(id string, in LegInput) Leg {
	return Leg{
		ID:       id,
		DateTime: in.DateTime,
		Quantity: in.Quantity,
		Position: in.Position,
		Price:    in.Price,
		Risk:     LegRisk(in.Quantity, in.Price),
	}
}

// SetQuantity updates the quantity and recomputes risk.
func (l *Leg) SetQuantity(q float64) {
	l.Quantity = q
	l.Risk = LegRisk(l.Quantity, l.Price)
}

// SetPrice updates the price and recomputes risk.
func (l *Leg) SetPrice(p float64) {
	l.Price = p
	l.Risk = LegRisk(l.Quantity, l.Price)
}

// LegRisk returns quantity * price without binary float drift.
func LegRisk(quantity, price float64) float64 {
	return decimal.NewFromFloat(quantity).Mul(decimal.NewFromFloat(price)).InexactFloat64()
}
