package config

import (
	"strings"
	"time"
)

// Config is the top-level configuration carrier.
type Config struct {
	App     AppConfig     `toml:"app"`
	Trading TradingConfig `toml:"trading"`
	Signal  SignalConfig  `toml:"signal"`
	Market  MarketConfig  `toml:"market"`
	Store   StoreConfig   `toml:"store"`
}

type AppConfig struct {
	Env      string `toml:"env"`
	LogLevel string `toml:"log_level"`
	HTTPAddr string `toml:"http_addr"`
	LogPath  string `toml:"log_path"`
}

// TradingConfig holds the directional policy bounds. All quantities are in
// the base asset, all percentages are ratios (1% = 0.01).
type TradingConfig struct {
	Exchange              string  `toml:"exchange"`
	BaseAsset             string  `toml:"base_asset"`
	QuoteAsset            string  `toml:"quote_asset"`
	MaxPosition           float64 `toml:"max_position"`
	MinPosition           float64 `toml:"min_position"`
	OrderSize             float64 `toml:"order_size"`
	MinOrderSize          float64 `toml:"min_order_size"`
	TimeBetweenSignalsSec int     `toml:"time_between_signals_sec"`
	TickIntervalSec       int     `toml:"tick_interval_sec"`
	EntryThreshold        float64 `toml:"entry_threshold"`
	ExitThreshold         float64 `toml:"exit_threshold"`
	TakeProfit            float64 `toml:"take_profit"`
	StopLoss              float64 `toml:"stop_loss"`
}

// TradingPair combines base and quote into the canonical pair notation,
// e.g. "BTC-USDT".
func (t TradingConfig) TradingPair() string {
	return strings.ToUpper(strings.TrimSpace(t.BaseAsset)) + "-" + strings.ToUpper(strings.TrimSpace(t.QuoteAsset))
}

func (t TradingConfig) TimeBetweenSignals() time.Duration {
	return time.Duration(t.TimeBetweenSignalsSec) * time.Second
}

func (t TradingConfig) TickInterval() time.Duration {
	return time.Duration(t.TickIntervalSec) * time.Second
}

// SignalConfig selects and parameterizes the signal source.
type SignalConfig struct {
	Source      string  `toml:"source"` // "gaussian" | "rsi"
	Mean        float64 `toml:"mean"`
	StdDev      float64 `toml:"std_dev"`
	RSIPeriod   int     `toml:"rsi_period"`
	RSIInterval string  `toml:"rsi_interval"`
}

// MarketConfig selects the quote source backing the paper connector.
type MarketConfig struct {
	Source       string  `toml:"source"` // "sim" | "binance"
	RESTBaseURL  string  `toml:"rest_base_url"`
	InitialPrice float64 `toml:"initial_price"`
	SpreadPct    float64 `toml:"spread_pct"`
	DriftPct     float64 `toml:"drift_pct"`
	// Paper account funding.
	InitialBase  float64 `toml:"initial_base"`
	InitialQuote float64 `toml:"initial_quote"`
}

type StoreConfig struct {
	Path string `toml:"path"`
}
