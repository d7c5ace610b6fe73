package strategy

import (
	"math"
	"testing"
	"time"

	"quote-engine-go/market"
)

// readyState builds warmed-up state at roughly the given price with
// the given bar range (which drives ATR).
func readyState(price, barRange float64) *market.SymbolState {
	st := market.NewSymbolState("AAPL")
	for i := 0; i < 250; i++ {
		st.ApplyBar(market.Bar{
			Symbol: "AAPL",
			Ts:     time.Unix(int64(i)*60, 0),
			Open:   price,
			High:   price + barRange/2,
			Low:    price - barRange/2,
			Close:  price,
			Volume: 1000,
		})
	}
	return st
}

func baseConfig() Config {
	return Config{
		TargetSpreadBps: 10,
		MinSpreadBps:    1,
		MaxSpreadBps:    100,
	}
}

var liquidNoon = time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)

func TestComputeSpreadVolatilityScaling(t *testing.T) {
	c, err := NewCalculator(baseConfig())
	if err != nil {
		t.Fatalf("new calculator: %v", err)
	}

	// ATR 1 on a 100 price: 1% of price, unit multiplier.
	sp, err := c.ComputeSpread(readyState(100, 1), market.Assessment{}, liquidNoon, 0)
	if err != nil {
		t.Fatalf("compute: %v", err)
	}
	if math.Abs(sp-10) > 1e-9 {
		t.Fatalf("1%% ATR should leave target untouched, got %v", sp)
	}

	// Doubling the range doubles the spread while inside the clamp band.
	sp2, err := c.ComputeSpread(readyState(100, 2), market.Assessment{}, liquidNoon, 0)
	if err != nil {
		t.Fatalf("compute: %v", err)
	}
	if math.Abs(sp2-20) > 1e-9 {
		t.Fatalf("2%% ATR should double the spread, got %v", sp2)
	}
}

func TestComputeSpreadVolMultiplierClamped(t *testing.T) {
	c, _ := NewCalculator(baseConfig())

	// Near-zero ATR floors the multiplier at 0.5.
	sp, err := c.ComputeSpread(readyState(100, 0.01), market.Assessment{}, liquidNoon, 0)
	if err != nil {
		t.Fatalf("compute: %v", err)
	}
	if math.Abs(sp-5) > 1e-9 {
		t.Fatalf("quiet tape should floor at half target, got %v", sp)
	}

	// Huge ATR caps the multiplier at 3.
	sp, err = c.ComputeSpread(readyState(100, 20), market.Assessment{}, liquidNoon, 0)
	if err != nil {
		t.Fatalf("compute: %v", err)
	}
	if math.Abs(sp-30) > 1e-9 {
		t.Fatalf("chaotic tape should cap at 3x target, got %v", sp)
	}
}

func TestComputeSpreadRegimeMultipliersStack(t *testing.T) {
	c, _ := NewCalculator(baseConfig())
	st := readyState(100, 1)

	mkt := market.Assessment{VolRatio: 0.03}
	sp, _ := c.ComputeSpread(st, mkt, liquidNoon, 0)
	if math.Abs(sp-15) > 1e-9 {
		t.Fatalf("volatile market should widen 1.5x, got %v", sp)
	}

	mkt.TrendDeviation = 0.05
	sp, _ = c.ComputeSpread(st, mkt, liquidNoon, 0)
	if math.Abs(sp-18) > 1e-9 {
		t.Fatalf("both regime terms should stack to 1.8x, got %v", sp)
	}
}

func TestComputeSpreadOffHours(t *testing.T) {
	cfg := baseConfig()
	cfg.LiquidStartMin = 10 * 60 // 10:00
	cfg.LiquidEndMin = 15*60 + 30
	c, _ := NewCalculator(cfg)
	st := readyState(100, 1)

	sp, _ := c.ComputeSpread(st, market.Assessment{}, liquidNoon, 0)
	if math.Abs(sp-10) > 1e-9 {
		t.Fatalf("liquid hours should not widen, got %v", sp)
	}

	open := time.Date(2026, 3, 2, 9, 35, 0, 0, time.UTC)
	sp, _ = c.ComputeSpread(st, market.Assessment{}, open, 0)
	if math.Abs(sp-13) > 1e-9 {
		t.Fatalf("off hours should widen 1.3x, got %v", sp)
	}

	// End minute is exclusive.
	closeEdge := time.Date(2026, 3, 2, 15, 30, 0, 0, time.UTC)
	sp, _ = c.ComputeSpread(st, market.Assessment{}, closeEdge, 0)
	if math.Abs(sp-13) > 1e-9 {
		t.Fatalf("window end should count as off hours, got %v", sp)
	}
}

func TestComputeSpreadInventorySkew(t *testing.T) {
	c, _ := NewCalculator(baseConfig())
	st := readyState(100, 1)
	sp, _ := c.ComputeSpread(st, market.Assessment{}, liquidNoon, 0.5)
	if math.Abs(sp-15) > 1e-9 {
		t.Fatalf("saturated skew should widen 1.5x, got %v", sp)
	}
}

func TestComputeSpreadFinalClamp(t *testing.T) {
	cfg := baseConfig()
	cfg.MaxSpreadBps = 25
	c, _ := NewCalculator(cfg)
	st := readyState(100, 20) // 3x cap on its own would give 30

	sp, _ := c.ComputeSpread(st, market.Assessment{VolRatio: 0.03, TrendDeviation: 0.05}, liquidNoon, 0.5)
	if sp != 25 {
		t.Fatalf("stacked multipliers must clamp to max, got %v", sp)
	}

	cfg = baseConfig()
	cfg.MinSpreadBps = 8
	c, _ = NewCalculator(cfg)
	sp, _ = c.ComputeSpread(readyState(100, 0.01), market.Assessment{}, liquidNoon, 0)
	if sp != 8 {
		t.Fatalf("floored multiplier must clamp to min, got %v", sp)
	}
}

func TestComputeSpreadInsufficientData(t *testing.T) {
	c, _ := NewCalculator(baseConfig())
	warm := market.NewSymbolState("AAPL")
	for i := 0; i < 20; i++ {
		warm.ApplyBar(market.Bar{Symbol: "AAPL", Open: 100, High: 101, Low: 99, Close: 100, Volume: 1000})
	}
	if _, err := c.ComputeSpread(warm, market.Assessment{}, liquidNoon, 0); err != ErrInsufficientData {
		t.Fatalf("expected ErrInsufficientData, got %v", err)
	}
	if _, err := c.ComputeSpread(nil, market.Assessment{}, liquidNoon, 0); err != ErrInsufficientData {
		t.Fatalf("nil state should also fail, got %v", err)
	}
}

func TestCalculatorConfigValidation(t *testing.T) {
	if _, err := NewCalculator(Config{TargetSpreadBps: 0, MinSpreadBps: 1, MaxSpreadBps: 2}); err == nil {
		t.Fatalf("expected error for zero target")
	}
	if _, err := NewCalculator(Config{TargetSpreadBps: 10, MinSpreadBps: 5, MaxSpreadBps: 2}); err == nil {
		t.Fatalf("expected error for inverted bounds")
	}
}

func TestCalculatorHotReload(t *testing.T) {
	c, _ := NewCalculator(baseConfig())
	next := baseConfig()
	next.TargetSpreadBps = 20
	c.SetConfig(next)
	sp, _ := c.ComputeSpread(readyState(100, 1), market.Assessment{}, liquidNoon, 0)
	if math.Abs(sp-20) > 1e-9 {
		t.Fatalf("reloaded target should apply, got %v", sp)
	}
}
