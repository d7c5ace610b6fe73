package posttrade

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestTrackerAccumulates(t *testing.T) {
	tr := NewTracker(nil)
	tr.OnQuote()
	tr.OnQuote()
	tr.OnFill(0.05)
	tr.OnFill(0.03)
	tr.OnRoundTrip()

	snap := tr.Snapshot()
	if snap.QuoteCount != 2 || snap.FillCount != 2 || snap.RoundTrips != 1 {
		t.Fatalf("unexpected counts: %+v", snap)
	}
	want := decimal.NewFromFloat(0.08)
	if !snap.SpreadCapture.Equal(want) {
		t.Fatalf("expected capture %s, got %s", want, snap.SpreadCapture)
	}
}

func TestTrackerExactDecimalSums(t *testing.T) {
	tr := NewTracker(nil)
	// 0.1 added ten times is exactly 1 in decimal arithmetic.
	for i := 0; i < 10; i++ {
		tr.OnFill(0.1)
	}
	if got := tr.Snapshot().SpreadCapture; !got.Equal(decimal.NewFromInt(1)) {
		t.Fatalf("expected exactly 1, got %s", got)
	}
}

func TestFlushKeepsTotals(t *testing.T) {
	tr := NewTracker(nil)
	tr.OnQuote()
	tr.OnFill(0.05)
	tr.Flush()
	snap := tr.Snapshot()
	if snap.QuoteCount != 1 || snap.FillCount != 1 {
		t.Fatalf("totals must survive a flush: %+v", snap)
	}
	tr.Flush() // flushing twice is harmless
}
