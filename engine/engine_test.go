package engine

import (
	"context"
	"fmt"
	"testing"
	"time"

	"quote-engine-go/inventory"
	"quote-engine-go/market"
	"quote-engine-go/order"
	"quote-engine-go/posttrade"
	"quote-engine-go/strategy"
)

type stubRouter struct {
	nextID  int
	limits  []string
	markets []string
	cancels []string
}

func (r *stubRouter) SubmitLimitOrder(symbol, side string, price, qty float64) (string, error) {
	r.nextID++
	r.limits = append(r.limits, fmt.Sprintf("%s %s", symbol, side))
	return fmt.Sprintf("ord-%d", r.nextID), nil
}

func (r *stubRouter) SubmitMarketOrder(symbol, side string, qty float64) (string, error) {
	r.nextID++
	r.markets = append(r.markets, fmt.Sprintf("%s %s %.0f", symbol, side, qty))
	return fmt.Sprintf("ord-%d", r.nextID), nil
}

func (r *stubRouter) CancelOrder(id string) error {
	r.cancels = append(r.cancels, id)
	return nil
}

type fixedPortfolio float64

func (p fixedPortfolio) TotalValue() float64 { return float64(p) }

type testRig struct {
	eng    *Engine
	router *stubRouter
	store  *market.Store
	inv    *inventory.Tracker
	mgr    *order.Manager
	perf   *posttrade.Tracker
}

func newTestRig(t *testing.T) *testRig {
	t.Helper()
	router := &stubRouter{}
	st := market.NewStore()
	inv := inventory.NewTracker()
	perf := posttrade.NewTracker(nil)
	invctl := inventory.NewController(inv, 50000, 0.1)
	spread, err := strategy.NewCalculator(strategy.Config{
		TargetSpreadBps: 10,
		MinSpreadBps:    1,
		MaxSpreadBps:    100,
	})
	if err != nil {
		t.Fatalf("new calculator: %v", err)
	}
	mgr := order.NewManager(order.Config{
		RefreshInterval: 30 * time.Second,
		MinPrice:        5,
		MinAvgVolume:    100,
		ResidualShares:  5,
		DesyncTolerance: 1,
	}, router, inv, perf, st, nil)

	eng, err := New(Config{
		Symbols:                []string{"AAPL"},
		QuoteInterval:          30 * time.Second,
		InventoryCheckInterval: time.Minute,
		OrderValueUSD:          10000,
	}, Components{
		Store:        st,
		Regime:       market.NewMonitor("SPY", 0.05),
		Spread:       spread,
		InventoryCtl: invctl,
		Manager:      mgr,
		Perf:         perf,
		Portfolio:    fixedPortfolio(1000000),
	})
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	return &testRig{eng: eng, router: router, store: st, inv: inv, mgr: mgr, perf: perf}
}

func (r *testRig) feedBars(symbol string, n int, price float64) {
	for i := 0; i < n; i++ {
		b := market.Bar{
			Symbol: symbol,
			Ts:     time.Unix(int64(i)*60, 0),
			Open:   price,
			High:   price + 0.5,
			Low:    price - 0.5,
			Close:  price,
			Volume: 1000,
		}
		r.eng.Apply(Event{Bar: &b})
	}
}

func (r *testRig) openSession() {
	r.eng.Apply(Event{Session: &SessionEvent{Open: true}})
}

func TestQuotePassSkipsDuringWarmup(t *testing.T) {
	rig := newTestRig(t)
	rig.openSession()
	rig.feedBars("AAPL", 50, 100)
	rig.eng.QuotePass(time.Unix(10000, 0))
	if len(rig.router.limits) != 0 {
		t.Fatalf("warm-up tape must not quote, got %v", rig.router.limits)
	}
}

func TestQuotePassQuotesBothSides(t *testing.T) {
	rig := newTestRig(t)
	rig.openSession()
	rig.feedBars("AAPL", 250, 100)
	rig.eng.QuotePass(time.Unix(100000, 0))

	if len(rig.router.limits) != 2 {
		t.Fatalf("expected a bid and an ask, got %v", rig.router.limits)
	}
	working := rig.mgr.WorkingOrders("AAPL")
	if len(working) != 2 {
		t.Fatalf("expected 2 working orders, got %d", len(working))
	}
	var bid, ask order.Order
	for _, o := range working {
		if o.Side == order.SideBuy {
			bid = o
		} else {
			ask = o
		}
	}
	if bid.Price <= 0 || ask.Price <= bid.Price {
		t.Fatalf("bid must price below ask: %+v / %+v", bid, ask)
	}
	if got := rig.perf.Snapshot().QuoteCount; got != 1 {
		t.Fatalf("expected one quote event, got %d", got)
	}
}

func TestQuotePassRespectsSession(t *testing.T) {
	rig := newTestRig(t)
	rig.feedBars("AAPL", 250, 100)
	rig.eng.QuotePass(time.Unix(100000, 0))
	if len(rig.router.limits) != 0 {
		t.Fatalf("closed session must not quote")
	}

	rig.openSession()
	rig.eng.QuotePass(time.Unix(100000, 0))
	if len(rig.router.limits) != 2 {
		t.Fatalf("open session should quote, got %v", rig.router.limits)
	}

	rig.eng.Apply(Event{Session: &SessionEvent{Open: false}})
	if len(rig.router.cancels) != 2 {
		t.Fatalf("close should cancel working orders, got %d", len(rig.router.cancels))
	}
}

func TestOrderEventsMoveInventory(t *testing.T) {
	rig := newTestRig(t)
	rig.openSession()
	rig.feedBars("AAPL", 250, 100)
	rig.eng.QuotePass(time.Unix(100000, 0))

	bidID := rig.mgr.WorkingOrders("AAPL")[0].ID
	ev := order.Event{OrderID: bidID, Status: order.StatusFilled, FillPrice: 99.95, FillQty: 100, Ts: time.Now()}
	rig.eng.Apply(Event{Order: &ev})

	if got := rig.inv.Position("AAPL"); got != 100 {
		t.Fatalf("fill should move inventory, got %v", got)
	}
	if got := rig.perf.Snapshot().FillCount; got != 1 {
		t.Fatalf("expected one fill, got %d", got)
	}
}

func TestInventoryPassLiquidates(t *testing.T) {
	rig := newTestRig(t)
	rig.openSession()
	rig.feedBars("AAPL", 250, 100)

	// Cap is 1000000*0.1/100 = 1000 shares; 1200 is a breach.
	rig.inv.ApplyFill("AAPL", 1200)
	rig.eng.InventoryPass()

	if len(rig.router.markets) != 1 || rig.router.markets[0] != "AAPL SELL 100" {
		t.Fatalf("expected SELL 100 market order, got %v", rig.router.markets)
	}
}

func TestInventoryPassInsideCap(t *testing.T) {
	rig := newTestRig(t)
	rig.openSession()
	rig.feedBars("AAPL", 250, 100)
	rig.inv.ApplyFill("AAPL", 500)
	rig.eng.InventoryPass()
	if len(rig.router.markets) != 0 {
		t.Fatalf("no liquidation inside the cap, got %v", rig.router.markets)
	}
}

func TestReloadEvent(t *testing.T) {
	rig := newTestRig(t)
	next := strategy.Config{TargetSpreadBps: 20, MinSpreadBps: 2, MaxSpreadBps: 200}
	rig.eng.Apply(Event{Reload: &ReloadEvent{Spread: next, OrderValueUSD: 20000}})
	if got := rig.eng.spread.Config().TargetSpreadBps; got != 20 {
		t.Fatalf("reload should swap spread config, got %v", got)
	}
	if rig.eng.orderValue != 20000 {
		t.Fatalf("reload should update order value, got %v", rig.eng.orderValue)
	}
}

func TestRunStops(t *testing.T) {
	rig := newTestRig(t)
	done := make(chan error, 1)
	go func() { done <- rig.eng.Run(context.Background()) }()

	b := market.Bar{Symbol: "AAPL", Ts: time.Unix(0, 0), Open: 100, High: 100.5, Low: 99.5, Close: 100, Volume: 1000}
	rig.eng.OnBar(b)
	rig.eng.Stop()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("stop should exit cleanly, got %v", err)
		}
	case <-time.After(time.Second):
		t.Fatalf("engine did not stop")
	}
}
