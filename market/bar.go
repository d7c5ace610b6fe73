package market

import "time"

// Bar represents one OHLCV bar for a single instrument.
type Bar struct {
	Symbol string
	Ts     time.Time
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume float64
}

// QuoteTick carries a top-of-book update.
type QuoteTick struct {
	Symbol string
	Bid    float64
	Ask    float64
	Ts     time.Time
}
