package strategy

import (
	"math"

	"quote-engine-go/inventory"
)

// QuoteParams is the transient output of one quoting pass. It is
// recomputed every pass and never persisted.
type QuoteParams struct {
	Mid       float64
	SpreadBps float64
	BidPrice  float64
	AskPrice  float64
	BidSize   float64
	AskSize   float64
}

// BuildQuote turns a spread decision into concrete prices and sizes.
// orderValue is the target notional per side; scale biases the sizes
// so fills work inventory back toward flat. Sizes are whole shares.
func BuildQuote(mid, spreadBps, orderValue float64, scale inventory.SizeScale) QuoteParams {
	half := mid * spreadBps / 10000 / 2
	base := 0.0
	if mid > 0 {
		base = math.Floor(orderValue / mid)
	}
	return QuoteParams{
		Mid:       mid,
		SpreadBps: spreadBps,
		BidPrice:  mid - half,
		AskPrice:  mid + half,
		BidSize:   math.Floor(base * scale.Bid),
		AskSize:   math.Floor(base * scale.Ask),
	}
}
