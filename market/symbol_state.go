package market

import "sync"

const (
	priceHistoryCap  = 252
	volumeHistoryCap = 50

	atrPeriod    = 14
	rsiPeriod    = 14
	fastMAPeriod = 50
	slowMAPeriod = 200
)

// SymbolState holds rolling market statistics for one instrument.
type SymbolState struct {
	Symbol    string
	LastTrade float64
	LastBid   float64
	LastAsk   float64
	LastMid   float64

	prices  []float64
	volumes []float64

	atr   *ATR
	ma50  *SMA
	ma200 *SMA
	rsi   *RSI
}

// NewSymbolState creates empty state for one instrument.
func NewSymbolState(symbol string) *SymbolState {
	return &SymbolState{
		Symbol:  symbol,
		prices:  make([]float64, 0, priceHistoryCap),
		volumes: make([]float64, 0, volumeHistoryCap),
		atr:     NewATR(atrPeriod),
		ma50:    NewSMA(fastMAPeriod),
		ma200:   NewSMA(slowMAPeriod),
		rsi:     NewRSI(rsiPeriod),
	}
}

// ApplyBar folds a closed bar into the histories and indicators.
func (s *SymbolState) ApplyBar(b Bar) {
	s.LastTrade = b.Close

	s.prices = append(s.prices, b.Close)
	if len(s.prices) > priceHistoryCap {
		s.prices = s.prices[1:]
	}
	s.volumes = append(s.volumes, b.Volume)
	if len(s.volumes) > volumeHistoryCap {
		s.volumes = s.volumes[1:]
	}

	s.atr.Update(b.High, b.Low, b.Close)
	s.ma50.Update(b.Close)
	s.ma200.Update(b.Close)
	s.rsi.Update(b.Close)

	s.refreshMid()
}

// ApplyQuote keeps the last valid top of book. Malformed quotes
// (ask <= bid, or a non-positive side) are dropped, not errors.
func (s *SymbolState) ApplyQuote(bid, ask float64) {
	if bid <= 0 || ask <= 0 || ask <= bid {
		return
	}
	s.LastBid = bid
	s.LastAsk = ask
	s.refreshMid()
}

func (s *SymbolState) refreshMid() {
	if s.LastBid > 0 && s.LastAsk > s.LastBid {
		s.LastMid = (s.LastBid + s.LastAsk) / 2
		return
	}
	s.LastMid = s.LastTrade
}

// Ready reports whether every indicator the spread model needs has
// satisfied its minimum observation count.
func (s *SymbolState) Ready() bool {
	return s.atr.Ready() && s.ma50.Ready() && s.ma200.Ready() && s.rsi.Ready()
}

// ATR returns the current average true range.
func (s *SymbolState) ATR() float64 { return s.atr.Value() }

// MA50 returns the 50-period trend average.
func (s *SymbolState) MA50() float64 { return s.ma50.Value() }

// MA200 returns the 200-period trend average.
func (s *SymbolState) MA200() float64 { return s.ma200.Value() }

// RSI returns the momentum oscillator value.
func (s *SymbolState) RSI() float64 { return s.rsi.Value() }

// AvgVolume returns the mean of the bounded volume history.
func (s *SymbolState) AvgVolume() float64 {
	if len(s.volumes) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range s.volumes {
		sum += v
	}
	return sum / float64(len(s.volumes))
}

// Store indexes SymbolState by symbol. The quoting engine owns the
// store; feeds mutate it only through the engine's event stream.
type Store struct {
	mu     sync.RWMutex
	states map[string]*SymbolState
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{states: make(map[string]*SymbolState)}
}

// ApplyBar routes a bar to its instrument, creating state on first sight.
func (st *Store) ApplyBar(b Bar) *SymbolState {
	st.mu.Lock()
	defer st.mu.Unlock()
	s, ok := st.states[b.Symbol]
	if !ok {
		s = NewSymbolState(b.Symbol)
		st.states[b.Symbol] = s
	}
	s.ApplyBar(b)
	return s
}

// ApplyQuote routes a quote tick to its instrument. Ticks for unseen
// instruments are dropped: quoting needs bar history first anyway.
func (st *Store) ApplyQuote(t QuoteTick) {
	st.mu.Lock()
	defer st.mu.Unlock()
	if s, ok := st.states[t.Symbol]; ok {
		s.ApplyQuote(t.Bid, t.Ask)
	}
}

// Lookup returns the state for a symbol if it exists.
func (st *Store) Lookup(symbol string) (*SymbolState, bool) {
	st.mu.RLock()
	defer st.mu.RUnlock()
	s, ok := st.states[symbol]
	return s, ok
}

// Mid returns the instrument's last mid price, 0 if unseen. Satisfies
// the order manager's mid-price source for spread-capture accounting.
func (st *Store) Mid(symbol string) float64 {
	st.mu.RLock()
	defer st.mu.RUnlock()
	if s, ok := st.states[symbol]; ok {
		return s.LastMid
	}
	return 0
}

// Symbols returns the tracked symbols.
func (st *Store) Symbols() []string {
	st.mu.RLock()
	defer st.mu.RUnlock()
	res := make([]string, 0, len(st.states))
	for sym := range st.states {
		res = append(res, sym)
	}
	return res
}
