// Package posttrade derives realized spread capture and round-trip
// statistics from fill events.
package posttrade

import (
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Snapshot is a point-in-time copy of the ledger.
type Snapshot struct {
	SpreadCapture decimal.Decimal
	QuoteCount    int64
	FillCount     int64
	RoundTrips    int64
	Ts            time.Time
}

// Tracker is the performance ledger: cumulative spread capture, quote
// count and round-trip count, updated monotonically from fill events.
// It is a read-only consumer of the order flow and never feeds back
// into quoting decisions.
type Tracker struct {
	mu            sync.Mutex
	spreadCapture decimal.Decimal
	quoteCount    int64
	fillCount     int64
	roundTrips    int64
	log           *zap.Logger
}

// NewTracker creates an empty ledger.
func NewTracker(log *zap.Logger) *Tracker {
	if log == nil {
		log = zap.NewNop()
	}
	return &Tracker{log: log}
}

// OnQuote counts one submitted quoting pass.
func (t *Tracker) OnQuote() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.quoteCount++
}

// OnFill accumulates the spread captured by one fill.
func (t *Tracker) OnFill(capture float64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.spreadCapture = t.spreadCapture.Add(decimal.NewFromFloat(capture))
	t.fillCount++
}

// OnRoundTrip counts a position that opened and closed back near flat.
// Detection upstream is heuristic; the count is approximate.
func (t *Tracker) OnRoundTrip() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.roundTrips++
}

// Snapshot returns current totals.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.snapshotLocked()
}

func (t *Tracker) snapshotLocked() Snapshot {
	return Snapshot{
		SpreadCapture: t.spreadCapture,
		QuoteCount:    t.quoteCount,
		FillCount:     t.fillCount,
		RoundTrips:    t.roundTrips,
		Ts:            time.Now().UTC(),
	}
}

// Flush logs the session totals. Totals are cumulative and survive
// the flush.
func (t *Tracker) Flush() {
	t.mu.Lock()
	snap := t.snapshotLocked()
	t.mu.Unlock()

	t.log.Info("performance flush",
		zap.String("spread_capture", snap.SpreadCapture.StringFixed(4)),
		zap.Int64("quotes", snap.QuoteCount),
		zap.Int64("fills", snap.FillCount),
		zap.Int64("round_trips", snap.RoundTrips))
}
