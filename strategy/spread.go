package strategy

import (
	"errors"
	"sync"
	"time"

	"quote-engine-go/market"
)

const (
	volMultFloor = 0.5
	volMultCap   = 3.0

	marketVolCut  = 0.02 // reference vol-ratio above which spreads widen
	marketVolMult = 1.5
	trendDevCut   = 0.03 // reference |price-MA50|/MA50 above which spreads widen
	trendDevMult  = 1.2

	offHoursMult = 1.3
)

// Config controls the spread model. Times are minutes since midnight
// in the trading session's local clock.
type Config struct {
	TargetSpreadBps float64
	MinSpreadBps    float64
	MaxSpreadBps    float64
	LiquidStartMin  int
	LiquidEndMin    int
}

// Calculator derives a target quote spread in basis points of mid from
// volatility, regime, time-of-day and inventory factors.
type Calculator struct {
	mu  sync.RWMutex
	cfg Config
}

// NewCalculator validates the config and creates a calculator.
func NewCalculator(cfg Config) (*Calculator, error) {
	if cfg.TargetSpreadBps <= 0 {
		return nil, errors.New("targetSpreadBps must be > 0")
	}
	if cfg.MinSpreadBps <= 0 || cfg.MaxSpreadBps < cfg.MinSpreadBps {
		return nil, errors.New("spread bounds must satisfy 0 < min <= max")
	}
	return &Calculator{cfg: cfg}, nil
}

// SetConfig swaps the parameters between quoting passes (hot reload).
func (c *Calculator) SetConfig(cfg Config) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cfg = cfg
}

// Config returns the active parameters.
func (c *Calculator) Config() Config {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.cfg
}

// ComputeSpread returns the quote spread in bps for one instrument.
// Fails with ErrInsufficientData while indicators are warming up so
// the caller skips the pass instead of quoting on stale defaults.
func (c *Calculator) ComputeSpread(st *market.SymbolState, mkt market.Assessment, now time.Time, invSkew float64) (float64, error) {
	if st == nil || !st.Ready() {
		return 0, ErrInsufficientData
	}
	price := st.LastMid
	if price <= 0 {
		return 0, ErrInsufficientData
	}
	cfg := c.Config()

	spread := cfg.TargetSpreadBps

	// ATR in percent of price, clamped so a quiet or chaotic tape
	// cannot collapse or blow out the quote.
	spread *= clamp(st.ATR()/price*100, volMultFloor, volMultCap)

	// Both regime terms may stack.
	if mkt.VolRatio > marketVolCut {
		spread *= marketVolMult
	}
	if mkt.TrendDeviation > trendDevCut {
		spread *= trendDevMult
	}

	if !withinWindow(now, cfg.LiquidStartMin, cfg.LiquidEndMin) {
		spread *= offHoursMult
	}

	spread *= 1 + invSkew

	return clamp(spread, cfg.MinSpreadBps, cfg.MaxSpreadBps), nil
}

func withinWindow(now time.Time, startMin, endMin int) bool {
	if startMin == 0 && endMin == 0 {
		return true
	}
	min := now.Hour()*60 + now.Minute()
	return min >= startMin && min < endMin
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
