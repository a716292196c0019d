package metrics

import (
	"time"

	"github.com/shopspring/decimal"

	"strategy-journal/internal/domain"
)

// Outcome is the settled value of one node in a bet hierarchy.
type Outcome struct {
	Risk             float64
	Return           float64
	ReturnPercentage float64
	Status           domain.Status
}

// Rollup aggregates child outcomes into a parent outcome.
// Risk sums over every child; Return sums over settled children only.
// The parent stays Open while any child is Open, otherwise its status
// follows the sign of Return. A parent with no children settles as Push.
func Rollup[T any](children []T, outcomeOf func(T) Outcome) Outcome {
	risk := decimal.Zero
	ret := decimal.Zero
	settled := true

	for _, c := range children {
		o := outcomeOf(c)
		risk = risk.Add(decimal.NewFromFloat(o.Risk))
		if o.Status.Settled() {
			ret = ret.Add(decimal.NewFromFloat(o.Return))
		} else {
			settled = false
		}
	}

	status := domain.StatusOpen
	if settled {
		status = statusFromSign(ret)
	}

	return Outcome{
		Risk:             risk.InexactFloat64(),
		Return:           ret.InexactFloat64(),
		ReturnPercentage: percentOf(ret, risk),
		Status:           status,
	}
}

// BetOutcome returns the outcome of a bet as last derived from its legs.
func BetOutcome(b domain.Bet) Outcome {
	return Outcome{
		Risk:             b.Risk,
		Return:           b.Return,
		ReturnPercentage: b.ReturnPercentage,
		Status:           b.Status,
	}
}

// GroupOutcome returns the stored outcome of a bet group.
func GroupOutcome(g domain.BetGroup) Outcome {
	return Outcome{
		Risk:             g.Risk,
		Return:           g.Return,
		ReturnPercentage: g.ReturnPercentage,
		Status:           g.Status,
	}
}

// SettleGroup derives every child bet from its legs, rolls the children
// up into g, and stamps DateClosed the first time the group settles.
func SettleGroup(g *domain.BetGroup, now time.Time) Outcome {
	for i := range g.Bets {
		ApplyLegs(&g.Bets[i])
	}

	o := Rollup(g.Bets, BetOutcome)
	g.Risk = o.Risk
	g.Return = o.Return
	g.ReturnPercentage = o.ReturnPercentage
	g.Status = o.Status

	switch {
	case o.Status.Settled() && g.DateClosed == nil:
		closed := now
		g.DateClosed = &closed
	case !o.Status.Settled():
		g.DateClosed = nil
	}
	return o
}

func statusFromSign(d decimal.Decimal) domain.Status {
	switch d.Sign() {
	case 1:
		return domain.StatusWon
	case -1:
		return domain.StatusLost
	default:
		return domain.StatusPush
	}
}

// percentOf returns part / whole * 100, or 0 when whole is not positive.
func percentOf(part, whole decimal.Decimal) float64 {
	if !whole.IsPositive() {
		return 0
	}
	return part.Mul(hundred).Div(whole).InexactFloat64()
}
