package main

import (
	"context"
	"flag"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/coreos/go-systemd/v22/daemon"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"quote-engine-go/config"
	"quote-engine-go/engine"
	"quote-engine-go/gateway"
	"quote-engine-go/infrastructure/logger"
	"quote-engine-go/inventory"
	"quote-engine-go/market"
	"quote-engine-go/metrics"
	"quote-engine-go/order"
	"quote-engine-go/posttrade"
	"quote-engine-go/sim"
	"quote-engine-go/store"
)

// paperHandler fans feed messages out to the engine and the simulated
// router, which needs bars to fill resting paper orders.
type paperHandler struct {
	eng    *engine.Engine
	router *sim.Router
}

func (h paperHandler) OnBar(b market.Bar) {
	h.router.OnBar(b)
	h.eng.OnBar(b)
}

func (h paperHandler) OnQuote(t market.QuoteTick) { h.eng.OnQuote(t) }
func (h paperHandler) OnSession(open bool)        { h.eng.OnSession(open) }

func main() {
	cfgPath := flag.String("config", "configs/config.yaml", "config file path")
	routerRate := flag.Float64("routerRate", 5, "order routing rate limit, requests/sec")
	routerBurst := flag.Int("routerBurst", 10, "order routing burst allowance")
	flag.Parse()

	// Optional .env for deployment overrides; absence is fine.
	_ = godotenv.Load()

	cfg, err := config.LoadWithEnvOverrides(*cfgPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logCfg := cfg.Logging
	if logCfg.Level == "" {
		logCfg = logger.DefaultConfig()
	}
	zl, err := logger.New(logCfg)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer zl.Sync()

	metrics.Serve(cfg.MetricsAddr)

	var db *store.Store
	if cfg.StorePath != "" {
		db, err = store.Open(cfg.StorePath)
		if err != nil {
			zl.Fatal("open store", zap.Error(err))
		}
	}

	liquidStart, liquidEnd := cfg.Session.LiquidWindow()
	spread, err := strategyCalculator(cfg, liquidStart, liquidEnd)
	if err != nil {
		zl.Fatal("init spread model", zap.Error(err))
	}

	st := market.NewStore()
	monitor := market.NewMonitor(cfg.Reference, cfg.Risk.HighVolThreshold)
	inv := inventory.NewTracker()
	invctl := inventory.NewController(inv, cfg.Risk.MaxInventoryValueUSD, cfg.Risk.MaxInventoryPct)
	perf := posttrade.NewTracker(zl)
	portfolio := sim.NewPortfolio(cfg.Paper.CashUSD, inv, st)

	paperRouter := sim.NewRouter(nil)
	router := gateway.NewThrottledRouter(paperRouter, *routerRate, *routerBurst)

	mgr := order.NewManager(order.Config{
		RefreshInterval: time.Duration(cfg.Quoting.RefreshIntervalSec) * time.Second,
		MinPrice:        cfg.Quoting.MinPrice,
		MinAvgVolume:    cfg.Quoting.MinAvgVolume,
		ResidualShares:  cfg.Risk.ResidualShares,
		DesyncTolerance: cfg.Risk.DesyncTolerance,
	}, router, inv, perf, st, zl)

	eng, err := engine.New(engine.Config{
		Symbols:                cfg.Symbols,
		QuoteInterval:          time.Duration(cfg.Quoting.RefreshIntervalSec) * time.Second,
		InventoryCheckInterval: time.Duration(cfg.Quoting.InventoryCheckIntervalSec) * time.Second,
		OrderValueUSD:          cfg.Quoting.OrderValueUSD,
	}, engine.Components{
		Store:        st,
		Regime:       monitor,
		Spread:       spread,
		InventoryCtl: invctl,
		Manager:      mgr,
		Perf:         perf,
		Portfolio:    portfolio,
		Fills:        portfolio,
		DB:           db,
		Logger:       zl,
	})
	if err != nil {
		zl.Fatal("init engine", zap.Error(err))
	}

	// Acks only enter through the event queue. The paper router emits
	// synchronously, sometimes from inside a manager call, so the
	// callback must never touch the manager itself.
	paperRouter.SetEmit(eng.OnOrderEvent)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	watcher := config.Watcher{Path: *cfgPath, Log: zl}
	if err := watcher.Start(ctx, func(next config.AppConfig) {
		ls, le := next.Session.LiquidWindow()
		eng.Push(engine.Event{Reload: &engine.ReloadEvent{
			Spread:        spreadConfig(next, ls, le),
			OrderValueUSD: next.Quoting.OrderValueUSD,
		}})
	}); err != nil {
		zl.Warn("config watcher disabled", zap.Error(err))
	}

	if cfg.Feed.URL != "" {
		feed := gateway.NewFeedClient(cfg.Feed.URL, zl)
		go func() {
			if err := feed.Run(ctx, paperHandler{eng: eng, router: paperRouter}); err != nil && ctx.Err() == nil {
				zl.Error("feed stopped", zap.Error(err))
			}
		}()
	} else {
		zl.Warn("no feed configured, engine will idle")
	}

	_, _ = daemon.SdNotify(false, daemon.SdNotifyReady)

	if err := eng.Run(ctx); err != nil && err != context.Canceled {
		zl.Error("engine exited", zap.Error(err))
	}

	_, _ = daemon.SdNotify(false, daemon.SdNotifyStopping)
	zl.Info("shutdown complete")
}
