package config

// Defaults mirror the reference directional setup: BTC-USDT paper trading,
// one 0.1 BTC slice per signal, 3% take profit and 1% stop loss.
const (
	defaultAppEnv      = "dev"
	defaultAppLogLevel = "info"
	defaultAppHTTPAddr = ":9992"

	defaultExchange           = "binance_paper_trade"
	defaultBaseAsset          = "BTC"
	defaultQuoteAsset         = "USDT"
	defaultMaxPosition        = 5.0
	defaultMinPosition        = 0.0
	defaultOrderSize          = 0.1
	defaultMinOrderSize       = 0.02
	defaultTimeBetweenSignals = 10
	defaultTickInterval       = 1
	defaultEntryThreshold     = 0.6
	defaultExitThreshold      = 0.2
	defaultTakeProfit         = 0.03
	defaultStopLoss           = 0.01

	defaultSignalSource = "gaussian"
	defaultSignalMean   = 0.6
	defaultSignalStdDev = 0.25
	defaultRSIPeriod    = 14
	defaultRSIInterval  = "1m"

	defaultMarketSource = "sim"
	defaultMarketREST   = "https://api.binance.com"
	defaultInitialPrice = 30000.0
	defaultSpreadPct    = 0.0002
	defaultDriftPct     = 0.001
	defaultInitialBase  = 0.0
	defaultInitialQuote = 200000.0

	defaultStorePath = "data/vectra.db"
)

func (c *Config) applyDefaults() {
	c.App.applyDefaults()
	c.Trading.applyDefaults()
	c.Signal.applyDefaults()
	c.Market.applyDefaults()
	c.Store.applyDefaults()
}

func (a *AppConfig) applyDefaults() {
	if a.Env == "" {
		a.Env = defaultAppEnv
	}
	if a.LogLevel == "" {
		a.LogLevel = defaultAppLogLevel
	}
	if a.HTTPAddr == "" {
		a.HTTPAddr = defaultAppHTTPAddr
	}
}

func (t *TradingConfig) applyDefaults() {
	if t.Exchange == "" {
		t.Exchange = defaultExchange
	}
	if t.BaseAsset == "" {
		t.BaseAsset = defaultBaseAsset
	}
	if t.QuoteAsset == "" {
		t.QuoteAsset = defaultQuoteAsset
	}
	if t.MaxPosition == 0 {
		t.MaxPosition = defaultMaxPosition
	}
	if t.MinPosition == 0 {
		t.MinPosition = defaultMinPosition
	}
	if t.OrderSize == 0 {
		t.OrderSize = defaultOrderSize
	}
	if t.MinOrderSize == 0 {
		t.MinOrderSize = defaultMinOrderSize
	}
	if t.TimeBetweenSignalsSec == 0 {
		t.TimeBetweenSignalsSec = defaultTimeBetweenSignals
	}
	if t.TickIntervalSec == 0 {
		t.TickIntervalSec = defaultTickInterval
	}
	if t.EntryThreshold == 0 {
		t.EntryThreshold = defaultEntryThreshold
	}
	if t.ExitThreshold == 0 {
		t.ExitThreshold = defaultExitThreshold
	}
	if t.TakeProfit == 0 {
		t.TakeProfit = defaultTakeProfit
	}
	if t.StopLoss == 0 {
		t.StopLoss = defaultStopLoss
	}
}

func (s *SignalConfig) applyDefaults() {
	if s.Source == "" {
		s.Source = defaultSignalSource
	}
	if s.Mean == 0 {
		s.Mean = defaultSignalMean
	}
	if s.StdDev == 0 {
		s.StdDev = defaultSignalStdDev
	}
	if s.RSIPeriod <= 0 {
		s.RSIPeriod = defaultRSIPeriod
	}
	if s.RSIInterval == "" {
		s.RSIInterval = defaultRSIInterval
	}
}

func (m *MarketConfig) applyDefaults() {
	if m.Source == "" {
		m.Source = defaultMarketSource
	}
	if m.RESTBaseURL == "" {
		m.RESTBaseURL = defaultMarketREST
	}
	if m.InitialPrice == 0 {
		m.InitialPrice = defaultInitialPrice
	}
	if m.SpreadPct == 0 {
		m.SpreadPct = defaultSpreadPct
	}
	if m.DriftPct == 0 {
		m.DriftPct = defaultDriftPct
	}
	if m.InitialBase == 0 {
		m.InitialBase = defaultInitialBase
	}
	if m.InitialQuote == 0 {
		m.InitialQuote = defaultInitialQuote
	}
}

func (s *StoreConfig) applyDefaults() {
	if s.Path == "" {
		s.Path = defaultStorePath
	}
}
