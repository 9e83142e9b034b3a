package signal

import (
	"context"
	"testing"

	"vectra/internal/market"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGaussianIsDeterministicPerSeed(t *testing.T) {
	a := NewGaussian(0.6, 0.25, 42)
	b := NewGaussian(0.6, 0.25, 42)
	for i := 0; i < 20; i++ {
		va, err := a.Next(context.Background())
		require.NoError(t, err)
		vb, err := b.Next(context.Background())
		require.NoError(t, err)
		assert.Equal(t, va, vb)
	}
}

func TestGaussianZeroStdDev(t *testing.T) {
	g := NewGaussian(0.6, 0, 1)
	v, err := g.Next(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0.6, v)
}

func TestSequenceReplaysAndSticks(t *testing.T) {
	s := NewSequence(0.1, 0.9, 0.5)
	want := []float64{0.1, 0.9, 0.5, 0.5, 0.5}
	for _, w := range want {
		v, err := s.Next(context.Background())
		require.NoError(t, err)
		assert.Equal(t, w, v)
	}
}

type staticCandles struct {
	closes []float64
}

func (s *staticCandles) FetchHistory(_ context.Context, _, _ string, limit int) ([]market.Candle, error) {
	out := make([]market.Candle, 0, len(s.closes))
	for _, c := range s.closes {
		out = append(out, market.Candle{Close: c})
	}
	return out, nil
}

func TestRSISignalScale(t *testing.T) {
	// Monotonically rising closes drive RSI to 100 -> signal 1.0.
	rising := make([]float64, 60)
	for i := range rising {
		rising[i] = 100 + float64(i)
	}
	src := NewRSI(&staticCandles{closes: rising}, "BTC-USDT", "1m", 14)
	v, err := src.Next(context.Background())
	require.NoError(t, err)
	assert.InDelta(t, 1.0, v, 1e-9)

	falling := make([]float64, 60)
	for i := range falling {
		falling[i] = 200 - float64(i)
	}
	src = NewRSI(&staticCandles{closes: falling}, "BTC-USDT", "1m", 14)
	v, err = src.Next(context.Background())
	require.NoError(t, err)
	assert.InDelta(t, 0.0, v, 1e-9)
}

func TestRSISignalNeedsHistory(t *testing.T) {
	src := NewRSI(&staticCandles{closes: []float64{1, 2, 3}}, "BTC-USDT", "1m", 14)
	_, err := src.Next(context.Background())
	assert.Error(t, err)
}
