package gateway

import (
	"sync"
	"time"

	"quote-engine-go/order"
)

// TokenBucket throttles outbound routing calls.
type TokenBucket struct {
	rate   float64
	burst  int
	tokens float64
	last   time.Time
	mu     sync.Mutex
}

// NewTokenBucket creates a bucket refilling at rate tokens per second
// with the given burst capacity.
func NewTokenBucket(rate float64, burst int) *TokenBucket {
	if rate <= 0 {
		rate = 1
	}
	if burst <= 0 {
		burst = 1
	}
	return &TokenBucket{
		rate:   rate,
		burst:  burst,
		tokens: float64(burst),
		last:   time.Now(),
	}
}

// Wait blocks until a token is available. The balance is recomputed
// under the lock after every sleep, so concurrent waiters each consume
// a real token and refill accrued while sleeping is kept.
func (b *TokenBucket) Wait() {
	b.mu.Lock()
	for {
		now := time.Now()
		b.tokens += now.Sub(b.last).Seconds() * b.rate
		b.last = now
		if b.tokens > float64(b.burst) {
			b.tokens = float64(b.burst)
		}
		if b.tokens >= 1 {
			b.tokens--
			b.mu.Unlock()
			return
		}
		sleep := time.Duration((1-b.tokens)/b.rate*float64(time.Second)) + time.Millisecond
		b.mu.Unlock()
		time.Sleep(sleep)
		b.mu.Lock()
	}
}

// ThrottledRouter rate-limits submissions to the routing collaborator.
// Cancels are never throttled: a slow cancel is worse than a burst.
type ThrottledRouter struct {
	Inner  order.Router
	Bucket *TokenBucket
}

// NewThrottledRouter wraps a router with a token bucket.
func NewThrottledRouter(inner order.Router, rate float64, burst int) *ThrottledRouter {
	return &ThrottledRouter{
		Inner:  inner,
		Bucket: NewTokenBucket(rate, burst),
	}
}

// SubmitLimitOrder waits for a token then forwards.
func (t *ThrottledRouter) SubmitLimitOrder(symbol, side string, price, qty float64) (string, error) {
	t.Bucket.Wait()
	return t.Inner.SubmitLimitOrder(symbol, side, price, qty)
}

// SubmitMarketOrder waits for a token then forwards.
func (t *ThrottledRouter) SubmitMarketOrder(symbol, side string, qty float64) (string, error) {
	t.Bucket.Wait()
	return t.Inner.SubmitMarketOrder(symbol, side, qty)
}

// CancelOrder forwards immediately.
func (t *ThrottledRouter) CancelOrder(orderID string) error {
	return t.Inner.CancelOrder(orderID)
}
