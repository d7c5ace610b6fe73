package market

import "math"

// SMA is a simple moving average over a fixed window.
type SMA struct {
	window int
	values []float64
	sum    float64
}

// NewSMA creates a new simple moving average.
func NewSMA(window int) *SMA {
	if window <= 0 {
		window = 1
	}
	return &SMA{
		window: window,
		values: make([]float64, 0, window),
	}
}

// Update adds a new observation, evicting the oldest once full.
func (s *SMA) Update(v float64) {
	s.values = append(s.values, v)
	s.sum += v
	if len(s.values) > s.window {
		s.sum -= s.values[0]
		s.values = s.values[1:]
	}
}

// Ready reports whether the window has filled.
func (s *SMA) Ready() bool {
	return len(s.values) >= s.window
}

// Value returns the current average, 0 if not ready.
func (s *SMA) Value() float64 {
	if !s.Ready() {
		return 0
	}
	return s.sum / float64(len(s.values))
}

// RSI is Wilder's relative strength index.
type RSI struct {
	period  int
	prev    float64
	seeded  bool
	count   int
	gainSum float64
	lossSum float64
	avgGain float64
	avgLoss float64
}

// NewRSI creates a new RSI with the given smoothing period.
func NewRSI(period int) *RSI {
	if period <= 0 {
		period = 14
	}
	return &RSI{period: period}
}

// Update feeds a new close price.
func (r *RSI) Update(close float64) {
	if !r.seeded {
		r.prev = close
		r.seeded = true
		return
	}
	change := close - r.prev
	r.prev = close

	gain, loss := 0.0, 0.0
	if change > 0 {
		gain = change
	} else {
		loss = -change
	}

	if r.count < r.period {
		r.gainSum += gain
		r.lossSum += loss
		r.count++
		if r.count == r.period {
			r.avgGain = r.gainSum / float64(r.period)
			r.avgLoss = r.lossSum / float64(r.period)
		}
		return
	}

	// Wilder smoothing after the seed window.
	r.avgGain = (r.avgGain*float64(r.period-1) + gain) / float64(r.period)
	r.avgLoss = (r.avgLoss*float64(r.period-1) + loss) / float64(r.period)
}

// Ready reports whether the seed window has filled.
func (r *RSI) Ready() bool {
	return r.count >= r.period
}

// Value returns the oscillator in [0, 100], 0 if not ready.
func (r *RSI) Value() float64 {
	if !r.Ready() {
		return 0
	}
	if r.avgLoss == 0 {
		return 100
	}
	rs := r.avgGain / r.avgLoss
	return 100 - 100/(1+rs)
}

// ATR is Wilder's average true range.
type ATR struct {
	period    int
	prevClose float64
	hasPrev   bool
	count     int
	sum       float64
	value     float64
}

// NewATR creates a new ATR with the given smoothing period.
func NewATR(period int) *ATR {
	if period <= 0 {
		period = 14
	}
	return &ATR{period: period}
}

// Update feeds a new bar's range.
func (a *ATR) Update(high, low, close float64) {
	tr := high - low
	if a.hasPrev {
		tr = math.Max(tr, math.Max(math.Abs(high-a.prevClose), math.Abs(low-a.prevClose)))
	}
	a.prevClose = close
	a.hasPrev = true

	if a.count < a.period {
		a.sum += tr
		a.count++
		if a.count == a.period {
			a.value = a.sum / float64(a.period)
		}
		return
	}
	a.value = (a.value*float64(a.period-1) + tr) / float64(a.period)
}

// Ready reports whether the seed window has filled.
func (a *ATR) Ready() bool {
	return a.count >= a.period
}

// Value returns the current average true range, 0 if not ready.
func (a *ATR) Value() float64 {
	if !a.Ready() {
		return 0
	}
	return a.value
}
