// Package sim provides a simulated order-routing collaborator and a
// deterministic replay runner for the quoting engine.
package sim

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"quote-engine-go/market"
	"quote-engine-go/order"
)

// Router simulates order routing: limit orders rest until a bar trades
// through their price, market orders fill at the last trade. Every
// acknowledgment is emitted asynchronously through the emit callback,
// mirroring the live contract.
type Router struct {
	mu        sync.Mutex
	emit      func(order.Event)
	resting   map[string]*order.Order
	lastTrade map[string]float64
}

// NewRouter creates a simulated router. The emit callback may be nil
// at construction and set later with SetEmit.
func NewRouter(emit func(order.Event)) *Router {
	return &Router{
		emit:      emit,
		resting:   make(map[string]*order.Order),
		lastTrade: make(map[string]float64),
	}
}

// SetEmit installs the acknowledgment sink.
func (r *Router) SetEmit(emit func(order.Event)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.emit = emit
}

// SubmitLimitOrder rests the order until a bar crosses it.
func (r *Router) SubmitLimitOrder(symbol, side string, price, qty float64) (string, error) {
	if price <= 0 || qty <= 0 {
		return "", errors.New("sim: bad limit order")
	}
	id := uuid.NewString()
	r.mu.Lock()
	r.resting[id] = &order.Order{
		ID:       id,
		Symbol:   symbol,
		Side:     side,
		Price:    price,
		Quantity: qty,
		Status:   order.StatusWorking,
	}
	r.mu.Unlock()
	return id, nil
}

// SubmitMarketOrder fills immediately at the last traded price.
func (r *Router) SubmitMarketOrder(symbol, side string, qty float64) (string, error) {
	if qty <= 0 {
		return "", errors.New("sim: bad market order")
	}
	r.mu.Lock()
	price, ok := r.lastTrade[symbol]
	emit := r.emit
	r.mu.Unlock()
	if !ok || price <= 0 {
		return "", errors.New("sim: no market price for " + symbol)
	}
	id := uuid.NewString()
	if emit != nil {
		emit(order.Event{
			OrderID:   id,
			Status:    order.StatusFilled,
			FillPrice: price,
			FillQty:   qty,
			Ts:        time.Now().UTC(),
		})
	}
	return id, nil
}

// CancelOrder removes a resting order. Canceling an order that already
// filled is not an error.
func (r *Router) CancelOrder(orderID string) error {
	r.mu.Lock()
	_, ok := r.resting[orderID]
	if ok {
		delete(r.resting, orderID)
	}
	emit := r.emit
	r.mu.Unlock()
	if ok && emit != nil {
		emit(order.Event{OrderID: orderID, Status: order.StatusCanceled, Ts: time.Now().UTC()})
	}
	return nil
}

// OnBar fills any resting order the bar traded through: buys when the
// low crosses the bid, sells when the high crosses the ask. Fills are
// at the quoted price.
func (r *Router) OnBar(b market.Bar) {
	r.mu.Lock()
	r.lastTrade[b.Symbol] = b.Close
	var filled []*order.Order
	for id, o := range r.resting {
		if o.Symbol != b.Symbol {
			continue
		}
		cross := (o.Side == order.SideBuy && b.Low <= o.Price) ||
			(o.Side == order.SideSell && b.High >= o.Price)
		if cross {
			filled = append(filled, o)
			delete(r.resting, id)
		}
	}
	emit := r.emit
	r.mu.Unlock()

	if emit == nil {
		return
	}
	for _, o := range filled {
		emit(order.Event{
			OrderID:   o.ID,
			Status:    order.StatusFilled,
			FillPrice: o.Price,
			FillQty:   o.Quantity,
			Ts:        b.Ts,
		})
	}
}

// RestingCount reports how many orders are live in the simulator.
func (r *Router) RestingCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.resting)
}
