// Package metrics exposes Prometheus instrumentation for the quoting engine.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	QuotePasses = promauto.NewCounter(prometheus.CounterOpts{
		Name: "quoter_quote_passes_total",
		Help: "Quoting passes executed by the engine",
	})

	QuotesSubmitted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "quoter_quotes_submitted_total",
		Help: "Limit orders submitted, by symbol and side",
	}, []string{"symbol", "side"})

	OrdersCanceled = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "quoter_orders_canceled_total",
		Help: "Cancel requests issued, by symbol",
	}, []string{"symbol"})

	OrdersRejected = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "quoter_orders_rejected_total",
		Help: "Orders rejected by the router, by symbol",
	}, []string{"symbol"})

	Fills = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "quoter_fills_total",
		Help: "Fill events applied, by symbol and side",
	}, []string{"symbol", "side"})

	RefreshSkips = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "quoter_refresh_skips_total",
		Help: "Quote refreshes skipped, by reason",
	}, []string{"reason"})

	Liquidations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "quoter_liquidations_total",
		Help: "Hard-cap liquidation orders issued, by symbol",
	}, []string{"symbol"})

	RoundTrips = promauto.NewCounter(prometheus.CounterOpts{
		Name: "quoter_round_trips_total",
		Help: "Approximate round trips detected from fills",
	})

	InventoryShares = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "quoter_inventory_shares",
		Help: "Signed net position, by symbol",
	}, []string{"symbol"})

	SpreadBps = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "quoter_spread_bps",
		Help: "Last computed quote spread in bps, by symbol",
	}, []string{"symbol"})

	RegimeState = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "quoter_market_regime",
		Help: "Current regime: 0 neutral, 1 bullish, 2 bearish, 3 high-vol",
	})
)

// Serve exposes /metrics on addr. Empty addr disables the server.
func Serve(addr string) {
	if addr == "" {
		return
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	go func() {
		_ = http.ListenAndServe(addr, mux)
	}()
}
