package order

import "time"

// Sides of a quote.
const (
	SideBuy  = "BUY"
	SideSell = "SELL"
)

// Status represents order lifecycle.
type Status string

const (
	StatusWorking  Status = "WORKING"
	StatusPartial  Status = "PARTIAL"
	StatusFilled   Status = "FILLED"
	StatusCanceled Status = "CANCELED"
	StatusRejected Status = "REJECTED"
)

// IsTerminal reports whether no further transitions are possible.
func (s Status) IsTerminal() bool {
	switch s {
	case StatusFilled, StatusCanceled, StatusRejected:
		return true
	default:
		return false
	}
}

// Order holds one outstanding quote.
type Order struct {
	ID        string
	Symbol    string
	Side      string
	Price     float64
	Quantity  float64
	FilledQty float64
	Status    Status
	Market    bool
	CreatedAt time.Time
}
