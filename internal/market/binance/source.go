// Package binance implements market.QuoteSource and market.CandleSource on
// top of the Binance spot REST API.
package binance

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"vectra/internal/market"

	gobinance "github.com/adshao/go-binance/v2"
)

const maxHistoryLimit = 1000

type Config struct {
	RESTBaseURL string
	HTTPTimeout time.Duration
}

func (c Config) withDefaults() Config {
	if strings.TrimSpace(c.RESTBaseURL) == "" {
		c.RESTBaseURL = "https://api.binance.com"
	}
	if c.HTTPTimeout <= 0 {
		c.HTTPTimeout = 10 * time.Second
	}
	return c
}

// Source wraps the go-binance SDK client. Only public endpoints are used, so
// no credentials are required.
type Source struct {
	cfg    Config
	client *gobinance.Client
}

func New(cfg Config) *Source {
	final := cfg.withDefaults()
	client := gobinance.NewClient("", "")
	client.BaseURL = strings.TrimSpace(final.RESTBaseURL)
	client.HTTPClient = &http.Client{Timeout: final.HTTPTimeout}
	return &Source{cfg: final, client: client}
}

// BestBidAsk fetches the book ticker for the pair.
func (s *Source) BestBidAsk(ctx context.Context, pair string) (market.Quote, error) {
	symbol := toExchangeSymbol(pair)
	if symbol == "" {
		return market.Quote{}, fmt.Errorf("pair is required")
	}
	tickers, err := s.client.NewListBookTickersService().Symbol(symbol).Do(ctx)
	if err != nil {
		return market.Quote{}, err
	}
	if len(tickers) == 0 || tickers[0] == nil {
		return market.Quote{}, fmt.Errorf("no book ticker for %s", symbol)
	}
	t := tickers[0]
	bid, err := strconv.ParseFloat(t.BidPrice, 64)
	if err != nil {
		return market.Quote{}, fmt.Errorf("parse bid price %q: %w", t.BidPrice, err)
	}
	ask, err := strconv.ParseFloat(t.AskPrice, 64)
	if err != nil {
		return market.Quote{}, fmt.Errorf("parse ask price %q: %w", t.AskPrice, err)
	}
	return market.Quote{Pair: pair, Bid: bid, Ask: ask, UpdatedAt: time.Now()}, nil
}

// FetchHistory pulls recent klines, newest last.
func (s *Source) FetchHistory(ctx context.Context, pair, interval string, limit int) ([]market.Candle, error) {
	symbol := toExchangeSymbol(pair)
	if symbol == "" {
		return nil, fmt.Errorf("pair is required")
	}
	interval = strings.ToLower(strings.TrimSpace(interval))
	if interval == "" {
		return nil, fmt.Errorf("interval is required")
	}
	if limit <= 0 {
		limit = 100
	}
	if limit > maxHistoryLimit {
		limit = maxHistoryLimit
	}
	kls, err := s.client.NewKlinesService().Symbol(symbol).Interval(interval).Limit(limit).Do(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]market.Candle, 0, len(kls))
	for _, kl := range kls {
		if kl == nil {
			continue
		}
		c := market.Candle{OpenTime: kl.OpenTime, CloseTime: kl.CloseTime}
		if c.Open, err = strconv.ParseFloat(kl.Open, 64); err != nil {
			return nil, fmt.Errorf("parse kline open: %w", err)
		}
		if c.High, err = strconv.ParseFloat(kl.High, 64); err != nil {
			return nil, fmt.Errorf("parse kline high: %w", err)
		}
		if c.Low, err = strconv.ParseFloat(kl.Low, 64); err != nil {
			return nil, fmt.Errorf("parse kline low: %w", err)
		}
		if c.Close, err = strconv.ParseFloat(kl.Close, 64); err != nil {
			return nil, fmt.Errorf("parse kline close: %w", err)
		}
		if c.Volume, err = strconv.ParseFloat(kl.Volume, 64); err != nil {
			return nil, fmt.Errorf("parse kline volume: %w", err)
		}
		out = append(out, c)
	}
	return out, nil
}

// Binance wants symbols without separators, e.g. "BTC-USDT" -> "BTCUSDT".
func toExchangeSymbol(pair string) string {
	pair = strings.ToUpper(strings.TrimSpace(pair))
	pair = strings.ReplaceAll(pair, "-", "")
	return strings.ReplaceAll(pair, "/", "")
}

var (
	_ market.QuoteSource  = (*Source)(nil)
	_ market.CandleSource = (*Source)(nil)
)
