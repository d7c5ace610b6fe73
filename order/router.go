package order

import "time"

// Router is the order-routing collaborator. Calls are asynchronous
// requests: the manager issues them and continues, applying inventory
// and order-state changes only when the matching Event arrives.
type Router interface {
	SubmitLimitOrder(symbol, side string, price, qty float64) (string, error)
	SubmitMarketOrder(symbol, side string, qty float64) (string, error)
	CancelOrder(orderID string) error
}

// Event is an asynchronous acknowledgment from the router.
type Event struct {
	OrderID   string
	Status    Status
	FillPrice float64
	FillQty   float64
	Ts        time.Time
}
