package engine

import (
	"quote-engine-go/market"
	"quote-engine-go/order"
	"quote-engine-go/strategy"
)

// Event is one entry in the serialized stream the engine consumes.
// Exactly one field is set. Market-data ticks, timer fires and order
// acknowledgments all flow through the same queue so no two mutations
// of shared state can interleave.
type Event struct {
	Bar     *market.Bar
	Tick    *market.QuoteTick
	Order   *order.Event
	Session *SessionEvent
	Reload  *ReloadEvent
}

// SessionEvent signals market open or close from the host scheduler.
type SessionEvent struct {
	Open bool
}

// ReloadEvent carries hot-reloaded quoting parameters. Applied between
// passes, never mid-pass.
type ReloadEvent struct {
	Spread        strategy.Config
	OrderValueUSD float64
}
