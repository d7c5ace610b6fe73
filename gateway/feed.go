// Package gateway adapts external market-data and order-routing
// transports to the quoting engine.
package gateway

import (
	"context"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	readTimeout      = 60 * time.Second
	reconnectMin     = time.Second
	reconnectMax     = 30 * time.Second
	reconnectBackoff = 2
)

// FeedClient streams bar and quote messages from a websocket feed and
// dispatches them to a Handler. It reconnects with backoff until the
// context is canceled.
type FeedClient struct {
	URL    string
	Dialer *websocket.Dialer
	Log    *zap.Logger
}

// NewFeedClient creates a client for the given websocket URL.
func NewFeedClient(url string, log *zap.Logger) *FeedClient {
	if log == nil {
		log = zap.NewNop()
	}
	return &FeedClient{
		URL:    url,
		Dialer: websocket.DefaultDialer,
		Log:    log,
	}
}

// Run connects and consumes messages until ctx is canceled. Transient
// connection failures trigger reconnects; parse failures are logged
// and skipped.
func (c *FeedClient) Run(ctx context.Context, h Handler) error {
	delay := reconnectMin
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		err := c.readLoop(ctx, h)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		c.Log.Warn("feed disconnected", zap.Error(err), zap.Duration("retry_in", delay))

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
		delay *= reconnectBackoff
		if delay > reconnectMax {
			delay = reconnectMax
		}
	}
}

func (c *FeedClient) readLoop(ctx context.Context, h Handler) error {
	conn, _, err := c.Dialer.DialContext(ctx, c.URL, nil)
	if err != nil {
		return err
	}
	defer conn.Close()
	c.Log.Info("feed connected", zap.String("url", c.URL))

	// Unblock ReadMessage when the context goes away.
	go func() {
		<-ctx.Done()
		_ = conn.Close()
	}()

	for {
		_ = conn.SetReadDeadline(time.Now().Add(readTimeout))
		_, raw, err := conn.ReadMessage()
		if err != nil {
			return err
		}
		if err := Dispatch(raw, h); err != nil {
			c.Log.Warn("feed message dropped", zap.Error(err))
		}
	}
}
