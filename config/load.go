package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"quote-engine-go/infrastructure/logger"
)

// AppConfig holds the main runtime configuration.
type AppConfig struct {
	Env         string        `yaml:"env"`
	Reference   string        `yaml:"reference"` // regime reference symbol
	Symbols     []string      `yaml:"symbols"`
	Session     SessionConfig `yaml:"session"`
	Quoting     QuotingConfig `yaml:"quoting"`
	Risk        RiskConfig    `yaml:"risk"`
	Feed        FeedConfig    `yaml:"feed"`
	Paper       PaperConfig   `yaml:"paper"`
	Logging     logger.Config `yaml:"logging"`
	MetricsAddr string        `yaml:"metricsAddr"`
	StorePath   string        `yaml:"storePath"`
}

// SessionConfig bounds the liquid-hours window, local exchange time.
type SessionConfig struct {
	LiquidStart string `yaml:"liquidStart"` // "10:00"
	LiquidEnd   string `yaml:"liquidEnd"`   // "15:30"
}

// QuotingConfig holds the spread model and cadence parameters.
type QuotingConfig struct {
	RefreshIntervalSec        int     `yaml:"refreshIntervalSec"`
	InventoryCheckIntervalSec int     `yaml:"inventoryCheckIntervalSec"`
	TargetSpreadBps           float64 `yaml:"targetSpreadBps"`
	MinSpreadBps              float64 `yaml:"minSpreadBps"`
	MaxSpreadBps              float64 `yaml:"maxSpreadBps"`
	OrderValueUSD             float64 `yaml:"orderValueUSD"`
	MinPrice                  float64 `yaml:"minPrice"`
	MinAvgVolume              float64 `yaml:"minAvgVolume"`
}

// RiskConfig holds the inventory limits.
type RiskConfig struct {
	MaxInventoryValueUSD float64 `yaml:"maxInventoryValueUSD"` // skew saturation notional
	MaxInventoryPct      float64 `yaml:"maxInventoryPct"`      // hard cap, fraction of portfolio
	HighVolThreshold     float64 `yaml:"highVolThreshold"`     // regime ATR/price cutoff
	ResidualShares       float64 `yaml:"residualShares"`       // round-trip flat threshold
	DesyncTolerance      float64 `yaml:"desyncTolerance"`
}

// FeedConfig points at the market-data websocket.
type FeedConfig struct {
	URL string `yaml:"url"`
}

// PaperConfig seeds the simulated portfolio in paper mode.
type PaperConfig struct {
	CashUSD float64 `yaml:"cashUSD"`
}

// Load reads YAML config from path and applies validation.
func Load(path string) (AppConfig, error) {
	var cfg AppConfig
	raw, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return cfg, fmt.Errorf("parse yaml: %w", err)
	}
	if err := Validate(cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// LoadWithEnvOverrides loads config then overrides deployment-specific
// fields from env vars if present.
func LoadWithEnvOverrides(path string) (AppConfig, error) {
	cfg, err := Load(path)
	if err != nil {
		return cfg, err
	}
	if v := os.Getenv("QE_FEED_URL"); v != "" {
		cfg.Feed.URL = v
	}
	if v := os.Getenv("QE_STORE_PATH"); v != "" {
		cfg.StorePath = v
	}
	if v := os.Getenv("QE_METRICS_ADDR"); v != "" {
		cfg.MetricsAddr = v
	}
	return cfg, Validate(cfg)
}
