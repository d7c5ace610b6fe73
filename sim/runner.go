package sim

import (
	"sync"
	"time"

	"quote-engine-go/engine"
	"quote-engine-go/inventory"
	"quote-engine-go/market"
	"quote-engine-go/order"
	"quote-engine-go/posttrade"
)

// Report summarizes one replay.
type Report struct {
	Bars        int
	QuotePasses int
	Performance posttrade.Snapshot
	Positions   map[string]float64
}

// Runner replays recorded bars through a fully wired engine on the bar
// clock: timer cadences are derived from bar timestamps, so a replay
// is deterministic and independent of wall time.
type Runner struct {
	Engine        *engine.Engine
	Router        *Router
	Inv           *inventory.Tracker
	Perf          *posttrade.Tracker
	QuoteInterval time.Duration
	InvInterval   time.Duration

	mu      sync.Mutex
	pending []order.Event
}

// Enqueue buffers a router acknowledgment until the next drain. Wire
// it as the Router's emit callback.
func (r *Runner) Enqueue(ev order.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pending = append(r.pending, ev)
}

func (r *Runner) drain() {
	r.mu.Lock()
	events := r.pending
	r.pending = nil
	r.mu.Unlock()
	for _, ev := range events {
		r.Engine.Apply(engine.Event{Order: &ev})
	}
}

// Run feeds the bars through the engine in order and returns the
// session report. The session opens before the first bar and closes
// after the last.
func (r *Runner) Run(bars []market.Bar) Report {
	report := Report{Positions: make(map[string]float64)}
	if len(bars) == 0 {
		return report
	}

	r.Engine.Apply(engine.Event{Session: &engine.SessionEvent{Open: true}})

	var lastQuote, lastInv time.Time
	for i := range bars {
		b := bars[i]

		// Resting quotes see the bar before state updates, matching
		// the live ordering: the router acks arrive from outside.
		r.Router.OnBar(b)
		r.drain()

		r.Engine.Apply(engine.Event{Bar: &b})
		report.Bars++

		if lastQuote.IsZero() || b.Ts.Sub(lastQuote) >= r.QuoteInterval {
			r.Engine.QuotePass(b.Ts)
			report.QuotePasses++
			lastQuote = b.Ts
		}
		if lastInv.IsZero() || b.Ts.Sub(lastInv) >= r.InvInterval {
			r.Engine.InventoryPass()
			lastInv = b.Ts
		}
		r.drain()
	}

	r.Engine.Apply(engine.Event{Session: &engine.SessionEvent{Open: false}})
	r.drain()

	if r.Perf != nil {
		report.Performance = r.Perf.Snapshot()
	}
	if r.Inv != nil {
		report.Positions = r.Inv.Positions()
	}
	return report
}
