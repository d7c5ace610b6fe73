package main

import (
	"encoding/csv"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"sort"
	"strconv"
	"time"

	"go.uber.org/zap"

	"quote-engine-go/config"
	"quote-engine-go/engine"
	"quote-engine-go/inventory"
	"quote-engine-go/market"
	"quote-engine-go/order"
	"quote-engine-go/posttrade"
	"quote-engine-go/sim"
	"quote-engine-go/strategy"
)

// loadBars reads bars from a CSV with columns
// ts,symbol,open,high,low,close,volume where ts is unix seconds.
// A header row is detected and skipped.
func loadBars(path string) ([]market.Bar, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	var bars []market.Bar
	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		if len(rec) < 7 {
			return nil, fmt.Errorf("short row: %v", rec)
		}
		ts, err := strconv.ParseInt(rec[0], 10, 64)
		if err != nil {
			if len(bars) == 0 {
				continue // header
			}
			return nil, fmt.Errorf("bad timestamp %q: %w", rec[0], err)
		}
		var vals [5]float64
		for i, col := range rec[2:7] {
			v, err := strconv.ParseFloat(col, 64)
			if err != nil {
				return nil, fmt.Errorf("bad number %q: %w", col, err)
			}
			vals[i] = v
		}
		bars = append(bars, market.Bar{
			Symbol: rec[1],
			Ts:     time.Unix(ts, 0).UTC(),
			Open:   vals[0],
			High:   vals[1],
			Low:    vals[2],
			Close:  vals[3],
			Volume: vals[4],
		})
	}
	sort.SliceStable(bars, func(i, j int) bool { return bars[i].Ts.Before(bars[j].Ts) })
	return bars, nil
}

func main() {
	cfgPath := flag.String("config", "configs/config.yaml", "config file path")
	barsPath := flag.String("bars", "", "CSV file of bars to replay")
	verbose := flag.Bool("v", false, "log engine activity during the replay")
	flag.Parse()

	if *barsPath == "" {
		log.Fatal("-bars is required")
	}

	cfg, err := config.LoadWithEnvOverrides(*cfgPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	bars, err := loadBars(*barsPath)
	if err != nil {
		log.Fatalf("load bars: %v", err)
	}

	zl := zap.NewNop()
	if *verbose {
		if zl, err = zap.NewDevelopment(); err != nil {
			log.Fatalf("init logger: %v", err)
		}
	}

	liquidStart, liquidEnd := cfg.Session.LiquidWindow()
	spread, err := strategy.NewCalculator(strategy.Config{
		TargetSpreadBps: cfg.Quoting.TargetSpreadBps,
		MinSpreadBps:    cfg.Quoting.MinSpreadBps,
		MaxSpreadBps:    cfg.Quoting.MaxSpreadBps,
		LiquidStartMin:  liquidStart,
		LiquidEndMin:    liquidEnd,
	})
	if err != nil {
		log.Fatalf("init spread model: %v", err)
	}

	st := market.NewStore()
	monitor := market.NewMonitor(cfg.Reference, cfg.Risk.HighVolThreshold)
	inv := inventory.NewTracker()
	invctl := inventory.NewController(inv, cfg.Risk.MaxInventoryValueUSD, cfg.Risk.MaxInventoryPct)
	perf := posttrade.NewTracker(zl)
	portfolio := sim.NewPortfolio(cfg.Paper.CashUSD, inv, st)
	router := sim.NewRouter(nil)

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
		Logger:       zl,
	})
	if err != nil {
		log.Fatalf("init engine: %v", err)
	}

	runner := &sim.Runner{
		Engine:        eng,
		Router:        router,
		Inv:           inv,
		Perf:          perf,
		QuoteInterval: time.Duration(cfg.Quoting.RefreshIntervalSec) * time.Second,
		InvInterval:   time.Duration(cfg.Quoting.InventoryCheckIntervalSec) * time.Second,
	}
	// Acks are buffered and applied between bars; the callback must not
	// call back into the manager, which may be mid-refresh.
	router.SetEmit(runner.Enqueue)

	report := runner.Run(bars)

	fmt.Printf("bars replayed:    %d\n", report.Bars)
	fmt.Printf("quote passes:     %d\n", report.QuotePasses)
	fmt.Printf("quotes submitted: %d\n", report.Performance.QuoteCount)
	fmt.Printf("fills:            %d\n", report.Performance.FillCount)
	fmt.Printf("round trips:      %d\n", report.Performance.RoundTrips)
	fmt.Printf("spread capture:   %s\n", report.Performance.SpreadCapture.StringFixed(4))
	fmt.Printf("ending cash:      %.2f\n", portfolio.Cash())
	fmt.Printf("portfolio value:  %.2f\n", portfolio.TotalValue())
	if len(report.Positions) > 0 {
		fmt.Println("open positions:")
		for sym, qty := range report.Positions {
			fmt.Printf("  %-8s %+.0f\n", sym, qty)
		}
	}
}
