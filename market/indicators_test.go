package market

import (
	"math"
	"testing"
)

func TestSMAWindow(t *testing.T) {
	s := NewSMA(3)
	s.Update(1)
	s.Update(2)
	if s.Ready() {
		t.Fatalf("ready before window filled")
	}
	if s.Value() != 0 {
		t.Fatalf("value before ready should be 0, got %v", s.Value())
	}
	s.Update(3)
	if !s.Ready() {
		t.Fatalf("expected ready after 3 observations")
	}
	if got := s.Value(); got != 2 {
		t.Fatalf("expected avg 2, got %v", got)
	}
	// Oldest observation evicted.
	s.Update(7)
	if got := s.Value(); got != 4 {
		t.Fatalf("expected avg 4 after eviction, got %v", got)
	}
}

func TestRSIExtremes(t *testing.T) {
	up := NewRSI(14)
	for i := 0; i <= 14; i++ {
		up.Update(100 + float64(i))
	}
	if !up.Ready() {
		t.Fatalf("expected ready after seed window")
	}
	if got := up.Value(); got != 100 {
		t.Fatalf("monotonic gains should read 100, got %v", got)
	}

	down := NewRSI(14)
	for i := 0; i <= 14; i++ {
		down.Update(100 - float64(i))
	}
	if got := down.Value(); got > 1e-9 {
		t.Fatalf("monotonic losses should read ~0, got %v", got)
	}
}

func TestRSIMixedInRange(t *testing.T) {
	r := NewRSI(14)
	price := 100.0
	for i := 0; i < 60; i++ {
		if i%2 == 0 {
			price += 2
		} else {
			price -= 1
		}
		r.Update(price)
	}
	got := r.Value()
	if got <= 50 || got >= 100 {
		t.Fatalf("net-up tape should read in (50,100), got %v", got)
	}
}

func TestATRConstantRange(t *testing.T) {
	a := NewATR(14)
	for i := 0; i < 14; i++ {
		a.Update(105, 95, 100)
	}
	if !a.Ready() {
		t.Fatalf("expected ready after seed window")
	}
	if got := a.Value(); math.Abs(got-10) > 1e-9 {
		t.Fatalf("constant 10-point range should give ATR 10, got %v", got)
	}
}

func TestATRGapUsesPrevClose(t *testing.T) {
	a := NewATR(2)
	a.Update(101, 99, 100)
	// Gap up: true range measured from the prior close, not the bar range.
	a.Update(121, 119, 120)
	if !a.Ready() {
		t.Fatalf("expected ready")
	}
	// TRs: 2, max(2, |121-100|, |119-100|)=21 -> seed avg 11.5
	if got := a.Value(); math.Abs(got-11.5) > 1e-9 {
		t.Fatalf("expected ATR 11.5, got %v", got)
	}
}

func TestIndicatorsNotReadyReadZero(t *testing.T) {
	if v := NewATR(14).Value(); v != 0 {
		t.Fatalf("unseeded ATR should read 0, got %v", v)
	}
	if v := NewRSI(14).Value(); v != 0 {
		t.Fatalf("unseeded RSI should read 0, got %v", v)
	}
}
