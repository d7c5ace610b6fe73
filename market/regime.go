package market

import "math"

// Regime represents the prevailing market condition.
type Regime int

const (
	RegimeNeutral Regime = iota
	RegimeBullish
	RegimeBearish
	RegimeHighVol
)

// String returns the regime name.
func (r Regime) String() string {
	switch r {
	case RegimeBullish:
		return "BULLISH"
	case RegimeBearish:
		return "BEARISH"
	case RegimeHighVol:
		return "HIGH_VOL"
	default:
		return "NEUTRAL"
	}
}

// Assessment bundles the classification with the reference readings
// the spread model scales on.
type Assessment struct {
	Regime         Regime
	VolRatio       float64 // ATR / price of the reference instrument
	TrendDeviation float64 // |price - MA50| / MA50 of the reference instrument
}

// Monitor classifies overall market condition from one reference
// instrument's trend and volatility indicators.
type Monitor struct {
	reference        string
	highVolThreshold float64
}

// NewMonitor creates a monitor for the given reference symbol.
// highVolThreshold is the ATR/price ratio above which the market is
// treated as high volatility.
func NewMonitor(reference string, highVolThreshold float64) *Monitor {
	return &Monitor{
		reference:        reference,
		highVolThreshold: highVolThreshold,
	}
}

// Reference returns the reference symbol.
func (m *Monitor) Reference() string { return m.reference }

// Assess recomputes the regime from current indicator values.
// Pure classification: no memory of the prior regime. While the
// reference indicators are warming up everything is Neutral.
func (m *Monitor) Assess(store *Store) Assessment {
	st, ok := store.Lookup(m.reference)
	if !ok || !st.Ready() {
		return Assessment{Regime: RegimeNeutral}
	}

	price := st.LastMid
	ma50 := st.MA50()
	ma200 := st.MA200()
	rsi := st.RSI()

	a := Assessment{Regime: RegimeNeutral}
	if price > 0 {
		a.VolRatio = st.ATR() / price
	}
	if ma50 > 0 {
		a.TrendDeviation = math.Abs(price-ma50) / ma50
	}

	switch {
	case price > ma50 && ma50 > ma200 && rsi > 30:
		a.Regime = RegimeBullish
	case price < ma50 && ma50 < ma200 && rsi < 70:
		a.Regime = RegimeBearish
	case a.VolRatio > m.highVolThreshold:
		a.Regime = RegimeHighVol
	}
	return a
}
