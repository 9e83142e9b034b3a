// Package market defines the data-plane abstractions the trading core pulls
// quotes and candle history from. Implementations live in subpackages so the
// same engine can run against live Binance data or an offline simulator.
package market

import (
	"context"
	"time"
)

// Quote is a top-of-book snapshot.
type Quote struct {
	Pair      string
	Bid       float64
	Ask       float64
	UpdatedAt time.Time
}

// Candle is a single OHLCV bar. Times are unix milliseconds.
type Candle struct {
	OpenTime  int64
	CloseTime int64
	Open      float64
	High      float64
	Low       float64
	Close     float64
	Volume    float64
}

// QuoteSource serves the current best bid/ask for a trading pair.
type QuoteSource interface {
	BestBidAsk(ctx context.Context, pair string) (Quote, error)
}

// CandleSource serves recent kline history, newest last.
type CandleSource interface {
	FetchHistory(ctx context.Context, pair, interval string, limit int) ([]Candle, error)
}

// Closes extracts the close column from a candle series.
func Closes(candles []Candle) []float64 {
	out := make([]float64, len(candles))
	for i, c := range candles {
		out[i] = c.Close
	}
	return out
}
