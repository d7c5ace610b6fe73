package config

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Validate ensures required fields are present and consistent.
func Validate(cfg AppConfig) error {
	if cfg.Env == "" {
		return errors.New("env is required")
	}
	if cfg.Reference == "" {
		return errors.New("reference symbol is required")
	}
	if len(cfg.Symbols) == 0 {
		return errors.New("symbols list is required")
	}
	q := cfg.Quoting
	if q.RefreshIntervalSec <= 0 {
		return errors.New("quoting.refreshIntervalSec must be > 0")
	}
	if q.InventoryCheckIntervalSec <= 0 {
		return errors.New("quoting.inventoryCheckIntervalSec must be > 0")
	}
	if q.TargetSpreadBps <= 0 {
		return errors.New("quoting.targetSpreadBps must be > 0")
	}
	if q.MinSpreadBps <= 0 || q.MaxSpreadBps < q.MinSpreadBps {
		return errors.New("quoting spread bounds must satisfy 0 < min <= max")
	}
	if q.OrderValueUSD <= 0 {
		return errors.New("quoting.orderValueUSD must be > 0")
	}
	if q.MinPrice < 0 || q.MinAvgVolume < 0 {
		return errors.New("quoting floors must be >= 0")
	}
	r := cfg.Risk
	if r.MaxInventoryValueUSD <= 0 {
		return errors.New("risk.maxInventoryValueUSD must be > 0")
	}
	if r.MaxInventoryPct <= 0 || r.MaxInventoryPct > 1 {
		return errors.New("risk.maxInventoryPct must be in (0, 1]")
	}
	if r.HighVolThreshold <= 0 {
		return errors.New("risk.highVolThreshold must be > 0")
	}
	if r.ResidualShares < 0 || r.DesyncTolerance < 0 {
		return errors.New("risk thresholds must be >= 0")
	}
	if cfg.Session.LiquidStart != "" || cfg.Session.LiquidEnd != "" {
		start, err := ParseClock(cfg.Session.LiquidStart)
		if err != nil {
			return fmt.Errorf("session.liquidStart: %w", err)
		}
		end, err := ParseClock(cfg.Session.LiquidEnd)
		if err != nil {
			return fmt.Errorf("session.liquidEnd: %w", err)
		}
		if end <= start {
			return errors.New("session liquid window must end after it starts")
		}
	}
	return nil
}

// ParseClock converts "HH:MM" to minutes since midnight.
func ParseClock(s string) (int, error) {
	parts := strings.SplitN(s, ":", 2)
	if len(parts) != 2 {
		return 0, fmt.Errorf("want HH:MM, got %q", s)
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil || h < 0 || h > 23 {
		return 0, fmt.Errorf("bad hour in %q", s)
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil || m < 0 || m > 59 {
		return 0, fmt.Errorf("bad minute in %q", s)
	}
	return h*60 + m, nil
}

// LiquidWindow returns the liquid-hours window in minutes since
// midnight. Zeros mean no window is configured (always liquid).
func (s SessionConfig) LiquidWindow() (start, end int) {
	if s.LiquidStart == "" || s.LiquidEnd == "" {
		return 0, 0
	}
	start, _ = ParseClock(s.LiquidStart)
	end, _ = ParseClock(s.LiquidEnd)
	return start, end
}
