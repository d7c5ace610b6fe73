package order

import "errors"

var (
	// ErrUnknownOrder is returned for operations on IDs the manager
	// has never registered.
	ErrUnknownOrder = errors.New("unknown order")

	// ErrStateDesync means the locally tracked position disagrees
	// with the externally reported one. Quoting for the instrument
	// halts until a resync resolves it.
	ErrStateDesync = errors.New("position state desync")

	// Refresh skip reasons. Skips are expected flow control, not
	// failures; callers use them for logging and metrics only.
	ErrMarketClosed   = errors.New("market closed")
	ErrRefreshTooSoon = errors.New("refresh interval not elapsed")
	ErrNotReady       = errors.New("indicators not ready")
	ErrIlliquid       = errors.New("volume below liquidity floor")
	ErrPriceFloor     = errors.New("price below minimum")
)
