package inventory

import "sync"

// Tracker maintains signed net position per instrument. Positions move
// only on confirmed fills, never on open orders.
type Tracker struct {
	mu        sync.RWMutex
	positions map[string]float64
}

// NewTracker creates an empty tracker.
func NewTracker() *Tracker {
	return &Tracker{positions: make(map[string]float64)}
}

// ApplyFill adjusts the position by the signed fill quantity.
func (t *Tracker) ApplyFill(symbol string, deltaQty float64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.positions[symbol] += deltaQty
}

// Position returns the signed share count for a symbol.
func (t *Tracker) Position(symbol string) float64 {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.positions[symbol]
}

// Set replaces a position outright. Used only by external resync.
func (t *Tracker) Set(symbol string, qty float64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.positions[symbol] = qty
}

// Positions returns a copy of all positions.
func (t *Tracker) Positions() map[string]float64 {
	t.mu.RLock()
	defer t.mu.RUnlock()
	res := make(map[string]float64, len(t.positions))
	for sym, qty := range t.positions {
		res[sym] = qty
	}
	return res
}
