package domain

// Status is the lifecycle tag of a bet or bet group.
type Status string

const (
	StatusOpen   Status = "Open"
	StatusClosed Status = "Closed"
	StatusWon    Status = "Won"
	StatusLost   Status = "Lost"
	StatusPush   Status = "Push"
)

// AllStatuses lists every status in display order.
var AllStatuses = []Status{StatusOpen, StatusClosed, StatusWon, StatusLost, StatusPush}

// Settled reports whether the position no longer carries open quantity.
func (s Status) Settled() bool {
	return s != StatusOpen
}

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	for _, v := range AllStatuses {
		if s == v {
			return true
		}
	}
	return false
}

// Market is the asset class a bet trades in.
type Market string

const (
	MarketStocks  Market = "Stocks"
	MarketOptions Market = "Options"
	MarketCrypto  Market = "Crypto"
	MarketFutures Market = "Futures"
	MarketForex   Market = "Forex"
	MarketIndex   Market = "Index"
	MarketSports  Market = "Sports"
)

// AllMarkets lists the accepted bet markets.
var AllMarkets = []Market{
	MarketStocks, MarketOptions, MarketCrypto, MarketFutures,
	MarketForex, MarketIndex, MarketSports,
}

// Valid reports whether m is one of AllMarkets.
func (m Market) Valid() bool {
	for _, v := range AllMarkets {
		if m == v {
			return true
		}
	}
	return false
}
