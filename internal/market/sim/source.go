// Package sim provides an offline random-walk market for paper trading and
// tests. Prices drift geometrically around the previous mid; the spread is a
// fixed fraction of the mid.
package sim

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"vectra/internal/market"
)

type Config struct {
	InitialPrice float64
	SpreadPct    float64
	DriftPct     float64
	Seed         int64
}

type Source struct {
	mu     sync.Mutex
	cfg    Config
	mid    float64
	rng    *rand.Rand
	bars   []market.Candle // rolling synthetic history
	maxBar int
}

func New(cfg Config) *Source {
	if cfg.InitialPrice <= 0 {
		cfg.InitialPrice = 30000
	}
	if cfg.SpreadPct < 0 {
		cfg.SpreadPct = 0
	}
	if cfg.DriftPct <= 0 {
		cfg.DriftPct = 0.001
	}
	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Source{
		cfg:    cfg,
		mid:    cfg.InitialPrice,
		rng:    rand.New(rand.NewSource(seed)),
		maxBar: 500,
	}
}

// BestBidAsk advances the walk one step and returns the new top of book.
func (s *Source) BestBidAsk(_ context.Context, pair string) (market.Quote, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.step()
	half := s.mid * s.cfg.SpreadPct / 2
	return market.Quote{
		Pair:      pair,
		Bid:       s.mid - half,
		Ask:       s.mid + half,
		UpdatedAt: time.Now(),
	}, nil
}

// FetchHistory returns the synthetic bar history accumulated so far,
// generating additional steps if the walk is younger than the request.
func (s *Source) FetchHistory(_ context.Context, _, _ string, limit int) ([]market.Candle, error) {
	if limit <= 0 {
		limit = 100
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for len(s.bars) < limit {
		s.step()
	}
	bars := s.bars
	if len(bars) > limit {
		bars = bars[len(bars)-limit:]
	}
	out := make([]market.Candle, len(bars))
	copy(out, bars)
	return out, nil
}

func (s *Source) step() {
	prev := s.mid
	s.mid = s.mid * (1 + s.cfg.DriftPct*s.rng.NormFloat64())
	if s.mid <= 0 {
		s.mid = prev
	}
	now := time.Now().UnixMilli()
	high, low := prev, s.mid
	if s.mid > prev {
		high, low = s.mid, prev
	}
	s.bars = append(s.bars, market.Candle{
		OpenTime:  now,
		CloseTime: now,
		Open:      prev,
		High:      high,
		Low:       low,
		Close:     s.mid,
		Volume:    0,
	})
	if len(s.bars) > s.maxBar {
		s.bars = s.bars[len(s.bars)-s.maxBar:]
	}
}

var (
	_ market.QuoteSource  = (*Source)(nil)
	_ market.CandleSource = (*Source)(nil)
)
