package inventory

import "math"

const (
	maxSkew = 0.5

	// Asymmetric size multipliers: the side that reduces inventory
	// quotes bigger, the side that grows it quotes smaller.
	reduceSideScale = 1.5
	growSideScale   = 0.7

	liquidationFraction = 0.5
)

// SizeScale holds per-side order size multipliers.
type SizeScale struct {
	Bid float64
	Ask float64
}

// Liquidation instructs an unconditional market order to cut an
// oversized position. It is the only path that submits a non-limit
// order and cannot be skipped by quoting eligibility checks.
type Liquidation struct {
	Symbol   string
	Side     string // order.SideBuy / order.SideSell
	Quantity float64
}

// Controller derives quoting adjustments and hard limits from the
// positions a Tracker holds.
type Controller struct {
	tracker         *Tracker
	maxValueUSD     float64 // notional at which skew saturates
	maxInventoryPct float64 // hard cap as fraction of portfolio value
}

// NewController creates a controller over the given tracker.
func NewController(tracker *Tracker, maxValueUSD, maxInventoryPct float64) *Controller {
	return &Controller{
		tracker:         tracker,
		maxValueUSD:     maxValueUSD,
		maxInventoryPct: maxInventoryPct,
	}
}

// Skew returns the spread-widening ratio in [0, 0.5], proportional to
// how much of the inventory budget the position consumes.
func (c *Controller) Skew(symbol string, price float64) float64 {
	if c.maxValueUSD <= 0 {
		return 0
	}
	pos := c.tracker.Position(symbol)
	ratio := math.Abs(pos*price) / c.maxValueUSD
	if ratio > 1 {
		ratio = 1
	}
	return ratio * maxSkew
}

// Scale returns the per-side size multipliers for the current position:
// a long book quotes a bigger ask and a smaller bid, and the reverse
// when short. Flat books quote symmetrically.
func (c *Controller) Scale(symbol string) SizeScale {
	pos := c.tracker.Position(symbol)
	switch {
	case pos > 0:
		return SizeScale{Bid: growSideScale, Ask: reduceSideScale}
	case pos < 0:
		return SizeScale{Bid: reduceSideScale, Ask: growSideScale}
	default:
		return SizeScale{Bid: 1, Ask: 1}
	}
}

// CheckLimit reports a liquidation when |position| exceeds the hard
// cap, sized at half the excess and opposite in sign to the position.
// Runs on its own slower cadence, independent of quoting.
func (c *Controller) CheckLimit(symbol string, price, portfolioValue float64) (Liquidation, bool) {
	if price <= 0 || portfolioValue <= 0 || c.maxInventoryPct <= 0 {
		return Liquidation{}, false
	}
	pos := c.tracker.Position(symbol)
	maxShares := portfolioValue * c.maxInventoryPct / price
	excess := math.Abs(pos) - maxShares
	if excess <= 0 {
		return Liquidation{}, false
	}
	qty := math.Floor(excess * liquidationFraction)
	if qty <= 0 {
		return Liquidation{}, false
	}
	side := "SELL"
	if pos < 0 {
		side = "BUY"
	}
	return Liquidation{Symbol: symbol, Side: side, Quantity: qty}, true
}
