package signal

import (
	"context"
	"fmt"

	"vectra/internal/market"

	talib "github.com/markcheno/go-talib"
)

// RSI maps the latest RSI reading onto the signal scale: RSI 0..100 becomes
// 0..1, so an oversold market reads as a weak signal and an overbought one
// as a strong signal against the same thresholds the Gaussian source uses.
type RSI struct {
	candles  market.CandleSource
	pair     string
	interval string
	period   int
}

func NewRSI(candles market.CandleSource, pair, interval string, period int) *RSI {
	if period <= 1 {
		period = 14
	}
	if interval == "" {
		interval = "1m"
	}
	return &RSI{candles: candles, pair: pair, interval: interval, period: period}
}

func (r *RSI) Next(ctx context.Context) (float64, error) {
	// talib needs period+1 closes minimum; fetch a margin above that.
	limit := r.period*3 + 1
	history, err := r.candles.FetchHistory(ctx, r.pair, r.interval, limit)
	if err != nil {
		return 0, fmt.Errorf("rsi signal: fetch history: %w", err)
	}
	closes := market.Closes(history)
	if len(closes) <= r.period {
		return 0, fmt.Errorf("rsi signal: need more than %d closes, got %d", r.period, len(closes))
	}
	values := talib.Rsi(closes, r.period)
	last := values[len(values)-1]
	return last / 100, nil
}

var _ Source = (*RSI)(nil)
