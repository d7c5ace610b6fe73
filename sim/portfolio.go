package sim

import (
	"sync"

	"quote-engine-go/inventory"
	"quote-engine-go/market"
	"quote-engine-go/order"
)

// Portfolio marks paper positions to market for valuation. Cash moves
// on fills; equity is cash plus marked positions.
type Portfolio struct {
	mu    sync.Mutex
	cash  float64
	inv   *inventory.Tracker
	store *market.Store
}

// NewPortfolio creates a paper portfolio seeded with cash.
func NewPortfolio(cash float64, inv *inventory.Tracker, store *market.Store) *Portfolio {
	return &Portfolio{cash: cash, inv: inv, store: store}
}

// OnFill adjusts cash for one fill.
func (p *Portfolio) OnFill(side string, price, qty float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if side == order.SideBuy {
		p.cash -= price * qty
	} else {
		p.cash += price * qty
	}
}

// TotalValue returns cash plus positions marked at last mid.
func (p *Portfolio) TotalValue() float64 {
	p.mu.Lock()
	cash := p.cash
	p.mu.Unlock()

	total := cash
	for sym, qty := range p.inv.Positions() {
		total += qty * p.store.Mid(sym)
	}
	return total
}

// Cash returns the current cash balance.
func (p *Portfolio) Cash() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.cash
}
