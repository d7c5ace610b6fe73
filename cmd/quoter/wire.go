package main

import (
	"quote-engine-go/config"
	"quote-engine-go/strategy"
)

func spreadConfig(cfg config.AppConfig, liquidStart, liquidEnd int) strategy.Config {
	return strategy.Config{
		TargetSpreadBps: cfg.Quoting.TargetSpreadBps,
		MinSpreadBps:    cfg.Quoting.MinSpreadBps,
		MaxSpreadBps:    cfg.Quoting.MaxSpreadBps,
		LiquidStartMin:  liquidStart,
		LiquidEndMin:    liquidEnd,
	}
}

func strategyCalculator(cfg config.AppConfig, liquidStart, liquidEnd int) (*strategy.Calculator, error) {
	return strategy.NewCalculator(spreadConfig(cfg, liquidStart, liquidEnd))
}
