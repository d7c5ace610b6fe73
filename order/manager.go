package order

import (
	"math"
	"sync"
	"time"

	"go.uber.org/zap"

	"quote-engine-go/inventory"
	"quote-engine-go/metrics"
)

// Config controls refresh eligibility and fill bookkeeping.
type Config struct {
	RefreshInterval time.Duration
	MinPrice        float64 // skip quoting below this absolute price
	MinAvgVolume    float64 // skip quoting below this average bar volume
	ResidualShares  float64 // |position| at or under this counts as flat
	DesyncTolerance float64 // allowed local-vs-external position drift
}

// Positions is the inventory view the manager mutates on fills.
type Positions interface {
	ApplyFill(symbol string, deltaQty float64)
	Position(symbol string) float64
	Set(symbol string, qty float64)
}

// Performance consumes fill-derived statistics.
type Performance interface {
	OnQuote()
	OnFill(spreadCapture float64)
	OnRoundTrip()
	Flush()
}

// MidSource supplies the last mid price for spread-capture accounting.
type MidSource interface {
	Mid(symbol string) float64
}

// Quote is the desired two-sided quote for one pass.
type Quote struct {
	BidPrice float64
	AskPrice float64
	BidSize  float64
	AskSize  float64
}

// Snapshot carries the per-symbol readings the eligibility gates need.
type Snapshot struct {
	Ready     bool
	Price     float64
	AvgVolume float64
}

type workingPair struct {
	bid *Order
	ask *Order
}

// Manager owns the lifecycle of outstanding quotes: cancel-and-replace,
// fill application and reconciliation. At most one working bid and one
// working ask exist per instrument at any time.
type Manager struct {
	cfg    Config
	router Router
	inv    Positions
	perf   Performance
	mids   MidSource
	log    *zap.Logger

	mu             sync.Mutex
	orders         map[string]*Order
	working        map[string]*workingPair
	lastRefresh    map[string]time.Time
	fillsSinceFlat map[string]int
	desynced       map[string]bool
	marketOpen     bool
}

// NewManager creates a manager over the given collaborators.
func NewManager(cfg Config, router Router, inv Positions, perf Performance, mids MidSource, log *zap.Logger) *Manager {
	if log == nil {
		log = zap.NewNop()
	}
	return &Manager{
		cfg:            cfg,
		router:         router,
		inv:            inv,
		perf:           perf,
		mids:           mids,
		log:            log,
		orders:         make(map[string]*Order),
		working:        make(map[string]*workingPair),
		lastRefresh:    make(map[string]time.Time),
		fillsSinceFlat: make(map[string]int),
		desynced:       make(map[string]bool),
	}
}

// MarketOpen force-cancels anything left over from a prior session and
// reopens quoting.
func (m *Manager) MarketOpen() {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := m.cancelAllLocked()
	m.marketOpen = true
	m.log.Info("market open", zap.Int("stale_orders_canceled", n))
}

// MarketClose force-cancels all working orders and flushes the
// performance ledger once.
func (m *Manager) MarketClose() {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := m.cancelAllLocked()
	m.marketOpen = false
	m.log.Info("market close", zap.Int("orders_canceled", n))
	if m.perf != nil {
		m.perf.Flush()
	}
}

// IsOpen reports whether the session is open for quoting.
func (m *Manager) IsOpen() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.marketOpen
}

// RefreshQuotes runs one cancel-and-replace cycle for the instrument.
// An ineligible instrument is skipped whole: no cancels, no submits.
// The returned sentinel names the skip reason; nil means the refresh
// was issued.
func (m *Manager) RefreshQuotes(symbol string, snap Snapshot, q Quote, now time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.eligibleLocked(symbol, snap, now); err != nil {
		return err
	}

	m.cancelSymbolLocked(symbol)
	m.lastRefresh[symbol] = now

	submitted := false
	if q.BidSize > 0 && q.BidPrice > 0 {
		submitted = m.submitLocked(symbol, SideBuy, q.BidPrice, q.BidSize, now) || submitted
	}
	if q.AskSize > 0 && q.AskPrice > 0 {
		submitted = m.submitLocked(symbol, SideSell, q.AskPrice, q.AskSize, now) || submitted
	}
	if submitted && m.perf != nil {
		m.perf.OnQuote()
	}
	return nil
}

func (m *Manager) eligibleLocked(symbol string, snap Snapshot, now time.Time) error {
	if !m.marketOpen {
		return ErrMarketClosed
	}
	if m.desynced[symbol] {
		return ErrStateDesync
	}
	if last, ok := m.lastRefresh[symbol]; ok && now.Sub(last) < m.cfg.RefreshInterval {
		return ErrRefreshTooSoon
	}
	if !snap.Ready {
		return ErrNotReady
	}
	if snap.AvgVolume < m.cfg.MinAvgVolume {
		return ErrIlliquid
	}
	if snap.Price < m.cfg.MinPrice {
		return ErrPriceFloor
	}
	return nil
}

func (m *Manager) submitLocked(symbol, side string, price, qty float64, now time.Time) bool {
	id, err := m.router.SubmitLimitOrder(symbol, side, price, qty)
	if err != nil {
		metrics.OrdersRejected.WithLabelValues(symbol).Inc()
		m.log.Warn("order submit failed",
			zap.String("symbol", symbol),
			zap.String("side", side),
			zap.Error(err))
		return false
	}
	o := &Order{
		ID:        id,
		Symbol:    symbol,
		Side:      side,
		Price:     price,
		Quantity:  qty,
		Status:    StatusWorking,
		CreatedAt: now,
	}
	m.orders[id] = o
	pair := m.pairLocked(symbol)
	if side == SideBuy {
		pair.bid = o
	} else {
		pair.ask = o
	}
	metrics.QuotesSubmitted.WithLabelValues(symbol, side).Inc()
	return true
}

// Liquidate submits the mandatory market order produced by the
// inventory hard cap. It bypasses the refresh eligibility gates.
func (m *Manager) Liquidate(liq inventory.Liquidation) error {
	id, err := m.router.SubmitMarketOrder(liq.Symbol, liq.Side, liq.Quantity)
	if err != nil {
		return err
	}
	m.mu.Lock()
	m.orders[id] = &Order{
		ID:       id,
		Symbol:   liq.Symbol,
		Side:     liq.Side,
		Quantity: liq.Quantity,
		Status:   StatusWorking,
		Market:   true,
	}
	m.mu.Unlock()
	metrics.Liquidations.WithLabelValues(liq.Symbol).Inc()
	m.log.Warn("inventory hard cap breached, liquidating",
		zap.String("symbol", liq.Symbol),
		zap.String("side", liq.Side),
		zap.Float64("quantity", liq.Quantity))
	return nil
}

// OnEvent applies an asynchronous acknowledgment from the router.
// Cancels for orders already gone are not errors; fills for orders
// canceled locally are reconciled here.
func (m *Manager) OnEvent(ev Event) {
	m.mu.Lock()
	defer m.mu.Unlock()

	o, ok := m.orders[ev.OrderID]
	if !ok {
		if ev.Status == StatusFilled || ev.Status == StatusPartial {
			m.log.Warn("fill for unknown order", zap.String("order_id", ev.OrderID))
		}
		return
	}

	switch ev.Status {
	case StatusFilled, StatusPartial:
		m.applyFillLocked(o, ev)
	case StatusCanceled:
		m.detachLocked(o)
		if !o.Status.IsTerminal() {
			o.Status = StatusCanceled
		}
	case StatusRejected:
		m.detachLocked(o)
		o.Status = StatusRejected
		metrics.OrdersRejected.WithLabelValues(o.Symbol).Inc()
		m.log.Warn("order rejected",
			zap.String("order_id", o.ID),
			zap.String("symbol", o.Symbol))
	}
}

func (m *Manager) applyFillLocked(o *Order, ev Event) {
	qty := math.Abs(ev.FillQty)
	if qty == 0 {
		return
	}
	signed := qty
	if o.Side == SideSell {
		signed = -qty
	}
	m.inv.ApplyFill(o.Symbol, signed)
	metrics.Fills.WithLabelValues(o.Symbol, o.Side).Inc()
	metrics.InventoryShares.WithLabelValues(o.Symbol).Set(m.inv.Position(o.Symbol))

	o.FilledQty += qty
	if ev.Status == StatusFilled || o.FilledQty >= o.Quantity {
		o.Status = StatusFilled
		m.detachLocked(o)
	} else if o.Status == StatusWorking {
		o.Status = StatusPartial
	}

	capture := 0.0
	if m.mids != nil {
		if mid := m.mids.Mid(o.Symbol); mid > 0 {
			capture = math.Abs(ev.FillPrice-mid) * qty
		}
	}
	if m.perf != nil {
		m.perf.OnFill(capture)
	}

	// Round-trip heuristic: back near flat after at least two fills.
	// Approximate by construction; partial fills straddling passes can
	// over- or under-count.
	m.fillsSinceFlat[o.Symbol]++
	if math.Abs(m.inv.Position(o.Symbol)) <= m.cfg.ResidualShares && m.fillsSinceFlat[o.Symbol] >= 2 {
		if m.perf != nil {
			m.perf.OnRoundTrip()
		}
		metrics.RoundTrips.Inc()
		m.fillsSinceFlat[o.Symbol] = 0
	}
}

// Resync compares the locally tracked position with the externally
// reported one. A mismatch beyond tolerance halts quoting for the
// symbol until ResolveDesync adopts the external value.
func (m *Manager) Resync(symbol string, externalQty float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if math.Abs(m.inv.Position(symbol)-externalQty) > m.cfg.DesyncTolerance {
		m.desynced[symbol] = true
		m.log.Error("position desync detected",
			zap.String("symbol", symbol),
			zap.Float64("local", m.inv.Position(symbol)),
			zap.Float64("external", externalQty))
		return ErrStateDesync
	}
	return nil
}

// ResolveDesync adopts the external position and resumes quoting.
func (m *Manager) ResolveDesync(symbol string, externalQty float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.inv.Set(symbol, externalQty)
	delete(m.desynced, symbol)
	m.log.Info("position resynced", zap.String("symbol", symbol), zap.Float64("position", externalQty))
}

// WorkingOrders returns copies of the instrument's live quotes.
func (m *Manager) WorkingOrders(symbol string) []Order {
	m.mu.Lock()
	defer m.mu.Unlock()
	pair, ok := m.working[symbol]
	if !ok {
		return nil
	}
	res := make([]Order, 0, 2)
	if pair.bid != nil {
		res = append(res, *pair.bid)
	}
	if pair.ask != nil {
		res = append(res, *pair.ask)
	}
	return res
}

// Lookup returns a copy of any session order by ID.
func (m *Manager) Lookup(id string) (Order, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[id]
	if !ok {
		return Order{}, false
	}
	return *o, true
}

func (m *Manager) pairLocked(symbol string) *workingPair {
	pair, ok := m.working[symbol]
	if !ok {
		pair = &workingPair{}
		m.working[symbol] = pair
	}
	return pair
}

// cancelSymbolLocked cancels both sides eagerly: the local state moves
// to Canceled at request time, and a fill that raced the cancel is
// reconciled by its fill event.
func (m *Manager) cancelSymbolLocked(symbol string) int {
	pair, ok := m.working[symbol]
	if !ok {
		return 0
	}
	n := 0
	for _, o := range []*Order{pair.bid, pair.ask} {
		if o == nil || o.Status.IsTerminal() {
			continue
		}
		_ = m.router.CancelOrder(o.ID) // already-filled cancels are fine
		o.Status = StatusCanceled
		metrics.OrdersCanceled.WithLabelValues(symbol).Inc()
		n++
	}
	pair.bid = nil
	pair.ask = nil
	return n
}

func (m *Manager) cancelAllLocked() int {
	n := 0
	for symbol := range m.working {
		n += m.cancelSymbolLocked(symbol)
	}
	return n
}

func (m *Manager) detachLocked(o *Order) {
	pair, ok := m.working[o.Symbol]
	if !ok {
		return
	}
	if pair.bid == o {
		pair.bid = nil
	}
	if pair.ask == o {
		pair.ask = nil
	}
}
