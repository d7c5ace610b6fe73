// Package engine runs the quoting loop: a single goroutine consuming a
// serialized event stream and driving the spread, inventory and order
// components on fixed cadences.
package engine

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"quote-engine-go/inventory"
	"quote-engine-go/market"
	"quote-engine-go/metrics"
	"quote-engine-go/order"
	"quote-engine-go/posttrade"
	"quote-engine-go/store"
	"quote-engine-go/strategy"
)

// Portfolio is the read-only valuation collaborator.
type Portfolio interface {
	TotalValue() float64
}

// FillSink receives confirmed fills for cash accounting. The engine
// calls it from the loop goroutine, after the manager has applied the
// event, so the order is always resolvable by then.
type FillSink interface {
	OnFill(side string, price, qty float64)
}

// Config controls the engine cadences and sizing.
type Config struct {
	Symbols                []string
	QuoteInterval          time.Duration
	InventoryCheckInterval time.Duration
	OrderValueUSD          float64
}

// Components are the engine's collaborators. Store, Regime, Spread,
// InventoryCtl, Manager and Perf are required; DB is optional.
type Components struct {
	Store        *market.Store
	Regime       *market.Monitor
	Spread       *strategy.Calculator
	InventoryCtl *inventory.Controller
	Manager      *order.Manager
	Perf         *posttrade.Tracker
	Portfolio    Portfolio
	Fills        FillSink
	DB           *store.Store
	Logger       *zap.Logger
}

// Engine serializes market data, timer fires and order acknowledgments
// into one timeline and owns all shared quoting state.
type Engine struct {
	cfg Config

	store  *market.Store
	regime *market.Monitor
	spread *strategy.Calculator
	invctl *inventory.Controller
	mgr    *order.Manager
	perf   *posttrade.Tracker
	pf     Portfolio
	fills  FillSink
	db     *store.Store
	log    *zap.Logger

	events   chan Event
	stopOnce sync.Once
	stopChan chan struct{}
	doneChan chan struct{}

	orderValue float64
}

// New validates the wiring and creates an engine.
func New(cfg Config, c Components) (*Engine, error) {
	if len(cfg.Symbols) == 0 {
		return nil, errors.New("engine: no symbols configured")
	}
	if cfg.QuoteInterval <= 0 || cfg.InventoryCheckInterval <= 0 {
		return nil, errors.New("engine: cadences must be > 0")
	}
	if cfg.OrderValueUSD <= 0 {
		return nil, errors.New("engine: orderValueUSD must be > 0")
	}
	if c.Store == nil || c.Regime == nil || c.Spread == nil || c.InventoryCtl == nil || c.Manager == nil || c.Perf == nil {
		return nil, errors.New("engine: missing component")
	}
	if c.Logger == nil {
		c.Logger = zap.NewNop()
	}
	return &Engine{
		cfg:        cfg,
		store:      c.Store,
		regime:     c.Regime,
		spread:     c.Spread,
		invctl:     c.InventoryCtl,
		mgr:        c.Manager,
		perf:       c.Perf,
		pf:         c.Portfolio,
		fills:      c.Fills,
		db:         c.DB,
		log:        c.Logger,
		events:     make(chan Event, 1024),
		stopChan:   make(chan struct{}),
		doneChan:   make(chan struct{}),
		orderValue: cfg.OrderValueUSD,
	}, nil
}

// Push enqueues an external event. Feeds, routers and schedulers call
// this from their own goroutines; the loop applies it in order.
func (e *Engine) Push(ev Event) {
	select {
	case e.events <- ev:
	case <-e.stopChan:
	}
}

// OnBar satisfies the feed handler contract.
func (e *Engine) OnBar(b market.Bar) { e.Push(Event{Bar: &b}) }

// OnQuote satisfies the feed handler contract.
func (e *Engine) OnQuote(t market.QuoteTick) { e.Push(Event{Tick: &t}) }

// OnSession satisfies the feed handler contract.
func (e *Engine) OnSession(open bool) { e.Push(Event{Session: &SessionEvent{Open: open}}) }

// OnOrderEvent routes an acknowledgment from the router.
func (e *Engine) OnOrderEvent(ev order.Event) { e.Push(Event{Order: &ev}) }

// Run consumes the event stream until the context is canceled or Stop
// is called. Timer cadences live and die with this loop, so shutdown
// never leaves a quoting pass half applied.
func (e *Engine) Run(ctx context.Context) error {
	defer close(e.doneChan)

	quoteTicker := time.NewTicker(e.cfg.QuoteInterval)
	defer quoteTicker.Stop()
	invTicker := time.NewTicker(e.cfg.InventoryCheckInterval)
	defer invTicker.Stop()

	e.log.Info("engine started",
		zap.Strings("symbols", e.cfg.Symbols),
		zap.Duration("quote_interval", e.cfg.QuoteInterval),
		zap.Duration("inventory_interval", e.cfg.InventoryCheckInterval))

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-e.stopChan:
			return nil
		case ev := <-e.events:
			e.Apply(ev)
		case now := <-quoteTicker.C:
			e.QuotePass(now)
		case <-invTicker.C:
			e.InventoryPass()
		}
	}
}

// Stop shuts the loop down and waits for it to drain.
func (e *Engine) Stop() {
	e.stopOnce.Do(func() { close(e.stopChan) })
	<-e.doneChan
}

// Apply handles one event. Run calls it from the loop goroutine;
// replay and tests may call it directly from a single goroutine.
func (e *Engine) Apply(ev Event) {
	switch {
	case ev.Bar != nil:
		e.store.ApplyBar(*ev.Bar)
	case ev.Tick != nil:
		e.store.ApplyQuote(*ev.Tick)
	case ev.Order != nil:
		e.applyOrderEvent(*ev.Order)
	case ev.Session != nil:
		e.applySession(*ev.Session)
	case ev.Reload != nil:
		e.applyReload(*ev.Reload)
	}
}

func (e *Engine) applyOrderEvent(ev order.Event) {
	o, known := e.mgr.Lookup(ev.OrderID)
	e.mgr.OnEvent(ev)
	if !known {
		return
	}
	if ev.Status != order.StatusFilled && ev.Status != order.StatusPartial {
		return
	}
	if e.fills != nil {
		e.fills.OnFill(o.Side, ev.FillPrice, ev.FillQty)
	}
	if e.db != nil {
		if err := e.db.SaveFill(store.Fill{
			OrderID:  ev.OrderID,
			Symbol:   o.Symbol,
			Side:     o.Side,
			Price:    ev.FillPrice,
			Quantity: ev.FillQty,
			Ts:       ev.Ts,
		}); err != nil {
			e.log.Warn("persist fill failed", zap.Error(err))
		}
	}
}

func (e *Engine) applySession(s SessionEvent) {
	if s.Open {
		e.mgr.MarketOpen()
		return
	}
	e.mgr.MarketClose()
	if e.db != nil {
		snap := e.perf.Snapshot()
		if err := e.db.SaveSnapshot(store.PerfSnapshot{
			SpreadCapture: snap.SpreadCapture.StringFixed(4),
			QuoteCount:    snap.QuoteCount,
			FillCount:     snap.FillCount,
			RoundTrips:    snap.RoundTrips,
			Ts:            snap.Ts,
		}); err != nil {
			e.log.Warn("persist performance snapshot failed", zap.Error(err))
		}
	}
}

func (e *Engine) applyReload(r ReloadEvent) {
	e.spread.SetConfig(r.Spread)
	if r.OrderValueUSD > 0 {
		e.orderValue = r.OrderValueUSD
	}
	e.log.Info("quoting parameters reloaded",
		zap.Float64("target_spread_bps", r.Spread.TargetSpreadBps),
		zap.Float64("order_value_usd", e.orderValue))
}

// QuotePass runs one quoting pass over all configured instruments.
// The regime is assessed once and shared; instruments are independent.
func (e *Engine) QuotePass(now time.Time) {
	metrics.QuotePasses.Inc()
	assessment := e.regime.Assess(e.store)
	metrics.RegimeState.Set(float64(assessment.Regime))

	for _, symbol := range e.cfg.Symbols {
		e.quoteSymbol(symbol, assessment, now)
	}
}

func (e *Engine) quoteSymbol(symbol string, assessment market.Assessment, now time.Time) {
	st, ok := e.store.Lookup(symbol)
	if !ok {
		metrics.RefreshSkips.WithLabelValues("no_data").Inc()
		return
	}

	skew := e.invctl.Skew(symbol, st.LastMid)
	spreadBps, err := e.spread.ComputeSpread(st, assessment, now, skew)
	if err != nil {
		// Expected during indicator warm-up.
		metrics.RefreshSkips.WithLabelValues("insufficient_data").Inc()
		return
	}
	metrics.SpreadBps.WithLabelValues(symbol).Set(spreadBps)

	params := strategy.BuildQuote(st.LastMid, spreadBps, e.orderValue, e.invctl.Scale(symbol))
	snap := order.Snapshot{
		Ready:     st.Ready(),
		Price:     st.LastMid,
		AvgVolume: st.AvgVolume(),
	}
	quote := order.Quote{
		BidPrice: params.BidPrice,
		AskPrice: params.AskPrice,
		BidSize:  params.BidSize,
		AskSize:  params.AskSize,
	}
	if err := e.mgr.RefreshQuotes(symbol, snap, quote, now); err != nil {
		metrics.RefreshSkips.WithLabelValues(skipReason(err)).Inc()
		e.log.Debug("refresh skipped", zap.String("symbol", symbol), zap.String("reason", err.Error()))
	}
}

// InventoryPass runs the hard-cap check on its own cadence. It is the
// only path that submits market orders and ignores refresh eligibility.
func (e *Engine) InventoryPass() {
	pv := 0.0
	if e.pf != nil {
		pv = e.pf.TotalValue()
	}
	for _, symbol := range e.cfg.Symbols {
		st, ok := e.store.Lookup(symbol)
		if !ok || st.LastMid <= 0 {
			continue
		}
		liq, breach := e.invctl.CheckLimit(symbol, st.LastMid, pv)
		if !breach {
			continue
		}
		if err := e.mgr.Liquidate(liq); err != nil {
			e.log.Error("liquidation submit failed",
				zap.String("symbol", symbol),
				zap.Error(err))
		}
	}
}

func skipReason(err error) string {
	switch {
	case errors.Is(err, order.ErrMarketClosed):
		return "market_closed"
	case errors.Is(err, order.ErrRefreshTooSoon):
		return "too_soon"
	case errors.Is(err, order.ErrNotReady):
		return "not_ready"
	case errors.Is(err, order.ErrIlliquid):
		return "illiquid"
	case errors.Is(err, order.ErrPriceFloor):
		return "price_floor"
	case errors.Is(err, order.ErrStateDesync):
		return "desync"
	default:
		return "other"
	}
}
