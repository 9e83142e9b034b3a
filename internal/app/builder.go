package app

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"vectra/internal/config"
	"vectra/internal/gateway/paper"
	"vectra/internal/logger"
	"vectra/internal/market"
	binancesource "vectra/internal/market/binance"
	"vectra/internal/market/sim"
	"vectra/internal/signal"
	"vectra/internal/store/tradelog"
	"vectra/internal/strategy"
	statushttp "vectra/internal/transport/http/status"
)

// build assembles the dependency graph: market source -> paper connector ->
// engine -> http, with the trade log attached when configured.
func build(cfg *config.Config) (*App, error) {
	quotes, candles, err := buildMarketSources(cfg)
	if err != nil {
		return nil, err
	}

	connector := paper.New(paper.Config{
		Name:         cfg.Trading.Exchange,
		BaseAsset:    cfg.Trading.BaseAsset,
		QuoteAsset:   cfg.Trading.QuoteAsset,
		InitialBase:  decimal.NewFromFloat(cfg.Market.InitialBase),
		InitialQuote: decimal.NewFromFloat(cfg.Market.InitialQuote),
	}, quotes)

	source, err := buildSignalSource(cfg, candles)
	if err != nil {
		return nil, err
	}

	var audit *tradelog.Store
	if cfg.Store.Path != "" {
		audit, err = tradelog.New(cfg.Store.Path)
		if err != nil {
			return nil, fmt.Errorf("trade log init failed: %w", err)
		}
	}

	params := strategy.EngineParams{
		Trading:   cfg.Trading,
		Connector: connector,
		Source:    source,
	}
	if audit != nil {
		params.Audit = audit
	}
	engine, err := strategy.NewEngine(params)
	if err != nil {
		return nil, err
	}
	connector.SubscribeFills(engine)

	httpSrv, err := statushttp.NewServer(statushttp.ServerConfig{
		Addr:     cfg.App.HTTPAddr,
		Provider: engine,
		History:  historyOrNil(audit),
	})
	if err != nil {
		return nil, err
	}

	logger.Infof("app: built pair=%s exchange=%s signal=%s market=%s",
		cfg.Trading.TradingPair(), cfg.Trading.Exchange, cfg.Signal.Source, cfg.Market.Source)

	return &App{
		cfg:     cfg,
		engine:  engine,
		httpSrv: httpSrv,
		audit:   audit,
	}, nil
}

func buildMarketSources(cfg *config.Config) (market.QuoteSource, market.CandleSource, error) {
	switch cfg.Market.Source {
	case "binance":
		src := binancesource.New(binancesource.Config{
			RESTBaseURL: cfg.Market.RESTBaseURL,
			HTTPTimeout: 10 * time.Second,
		})
		return src, src, nil
	case "sim":
		src := sim.New(sim.Config{
			InitialPrice: cfg.Market.InitialPrice,
			SpreadPct:    cfg.Market.SpreadPct,
			DriftPct:     cfg.Market.DriftPct,
		})
		return src, src, nil
	default:
		return nil, nil, fmt.Errorf("unknown market source %q", cfg.Market.Source)
	}
}

func buildSignalSource(cfg *config.Config, candles market.CandleSource) (signal.Source, error) {
	switch cfg.Signal.Source {
	case "gaussian":
		return signal.NewGaussian(cfg.Signal.Mean, cfg.Signal.StdDev, 0), nil
	case "rsi":
		return signal.NewRSI(candles, cfg.Trading.TradingPair(), cfg.Signal.RSIInterval, cfg.Signal.RSIPeriod), nil
	default:
		return nil, fmt.Errorf("unknown signal source %q", cfg.Signal.Source)
	}
}

// historyOrNil avoids handing the server a typed-nil interface.
func historyOrNil(audit *tradelog.Store) statushttp.TradeHistory {
	if audit == nil {
		return nil
	}
	return audit
}
