package config

import (
	"fmt"
	"strings"
)

func validate(c *Config) error {
	if err := c.Trading.validate(); err != nil {
		return err
	}
	if err := c.Signal.validate(); err != nil {
		return err
	}
	if err := c.Market.validate(); err != nil {
		return err
	}
	return nil
}

func (t *TradingConfig) validate() error {
	if strings.TrimSpace(t.BaseAsset) == "" || strings.TrimSpace(t.QuoteAsset) == "" {
		return fmt.Errorf("trading.base_asset and trading.quote_asset are required")
	}
	if t.OrderSize <= 0 {
		return fmt.Errorf("trading.order_size must be > 0")
	}
	if t.MinOrderSize <= 0 {
		return fmt.Errorf("trading.min_order_size must be > 0")
	}
	if t.MinOrderSize > t.OrderSize {
		return fmt.Errorf("trading.min_order_size cannot exceed trading.order_size")
	}
	if t.MinPosition < 0 {
		return fmt.Errorf("trading.min_position must be >= 0")
	}
	if t.MaxPosition <= t.MinPosition {
		return fmt.Errorf("trading.max_position must exceed trading.min_position")
	}
	if t.TimeBetweenSignalsSec <= 0 {
		return fmt.Errorf("trading.time_between_signals_sec must be > 0")
	}
	if t.TickIntervalSec <= 0 {
		return fmt.Errorf("trading.tick_interval_sec must be > 0")
	}
	if t.EntryThreshold <= t.ExitThreshold {
		// Not rejected outright: the policy tie-breaks entry first. Warnable
		// misconfiguration, but equal thresholds leave no neutral band.
		return fmt.Errorf("trading.entry_threshold must exceed trading.exit_threshold")
	}
	if t.TakeProfit <= 0 || t.TakeProfit >= 1 {
		return fmt.Errorf("trading.take_profit must be within (0,1)")
	}
	if t.StopLoss <= 0 || t.StopLoss >= 1 {
		return fmt.Errorf("trading.stop_loss must be within (0,1)")
	}
	return nil
}

func (s *SignalConfig) validate() error {
	switch s.Source {
	case "gaussian", "rsi":
	default:
		return fmt.Errorf("signal.source must be one of gaussian|rsi, got %q", s.Source)
	}
	if s.StdDev < 0 {
		return fmt.Errorf("signal.std_dev must be >= 0")
	}
	if s.RSIPeriod <= 1 {
		return fmt.Errorf("signal.rsi_period must be > 1")
	}
	return nil
}

func (m *MarketConfig) validate() error {
	switch m.Source {
	case "sim", "binance":
	default:
		return fmt.Errorf("market.source must be one of sim|binance, got %q", m.Source)
	}
	if m.InitialPrice <= 0 {
		return fmt.Errorf("market.initial_price must be > 0")
	}
	if m.SpreadPct < 0 || m.SpreadPct >= 1 {
		return fmt.Errorf("market.spread_pct must be within [0,1)")
	}
	if m.InitialBase < 0 || m.InitialQuote < 0 {
		return fmt.Errorf("market funding amounts must be >= 0")
	}
	return nil
}
