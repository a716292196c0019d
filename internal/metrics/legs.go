package metrics

import (
	"github.com/shopspring/decimal"

	"strategy-journal/internal/domain"
)

var hundred = decimal.NewFromInt(100)

// LegSummary is the bet-level result of aggregating legs.
type LegSummary struct {
	NetQuantity      float64
	Risk             float64 // sum of risk on the initial side
	Return           float64
	ReturnPercentage float64
	Status           domain.Status
}

// Summarize reduces a leg list in entry order into net quantity, risk, return
// and status. The initial side is the position of legs[0] whatever the fill
// times; legs on that side are entries, legs on the other side are exits.
// Leg risk is taken as quantity * price. Prices may be negative, so only a
// zero entry risk yields a zero percentage.
func Summarize(legs []domain.Leg) LegSummary {
	if len(legs) == 0 {
		return LegSummary{Status: DeriveStatus(0, 0)}
	}

	initial := legs[0].Position
	net := decimal.Zero
	entryRisk := decimal.Zero
	exitReturn := decimal.Zero

	for _, l := range legs {
		qty := decimal.NewFromFloat(l.Quantity)
		risk := qty.Mul(decimal.NewFromFloat(l.Price))

		if l.Position == domain.PositionSell {
			net = net.Sub(qty)
		} else {
			net = net.Add(qty)
		}

		if l.Position == initial {
			entryRisk = entryRisk.Add(risk)
		} else {
			exitReturn = exitReturn.Add(risk)
		}
	}

	var ret decimal.Decimal
	if initial == domain.PositionSell {
		ret = entryRisk.Sub(exitReturn)
	} else {
		ret = exitReturn.Sub(entryRisk)
	}

	netQty := net.InexactFloat64()
	pct := 0.0
	if !entryRisk.IsZero() {
		pct = ret.Mul(hundred).Div(entryRisk).InexactFloat64()
	}

	return LegSummary{
		NetQuantity:      netQty,
		Risk:             entryRisk.InexactFloat64(),
		Return:           ret.InexactFloat64(),
		ReturnPercentage: pct,
		Status:           DeriveStatus(netQty, pct),
	}
}

// DeriveStatus maps net quantity and return percentage to a bet status.
//
//	net != 0         -> Open
//	net == 0, pct>0  -> Won
//	net == 0, pct<0  -> Lost
//	net == 0, pct==0 -> Push
func DeriveStatus(netQuantity, returnPercentage float64) domain.Status {
	switch {
	case netQuantity != 0:
		return domain.StatusOpen
	case returnPercentage > 0:
		return domain.StatusWon
	case returnPercentage < 0:
		return domain.StatusLost
	default:
		return domain.StatusPush
	}
}

// ApplyLegs recomputes every leg's risk and the bet's derived fields in place.
func ApplyLegs(b *domain.Bet) LegSummary {
	for i := range b.Legs {
		b.Legs[i].Risk = domain.LegRisk(b.Legs[i].Quantity, b.Legs[i].Price)
	}
	s := Summarize(b.Legs)
	b.Risk = s.Risk
	b.Return = s.Return
	b.ReturnPercentage = s.ReturnPercentage
	b.Status = s.Status
	return s
}
