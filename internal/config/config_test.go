package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadDefaults(t *testing.T) {
	path := writeConfig(t, "app:\n  env: test\n")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "test", cfg.App.Env)
	assert.Equal(t, "BTC-USDT", cfg.Trading.TradingPair())
	assert.Equal(t, 5.0, cfg.Trading.MaxPosition)
	assert.Equal(t, 0.1, cfg.Trading.OrderSize)
	assert.Equal(t, 0.02, cfg.Trading.MinOrderSize)
	assert.Equal(t, 0.6, cfg.Trading.EntryThreshold)
	assert.Equal(t, 0.2, cfg.Trading.ExitThreshold)
	assert.Equal(t, 0.03, cfg.Trading.TakeProfit)
	assert.Equal(t, 0.01, cfg.Trading.StopLoss)
	assert.Equal(t, "gaussian", cfg.Signal.Source)
	assert.Equal(t, "sim", cfg.Market.Source)
}

func TestLoadOverrides(t *testing.T) {
	path := writeConfig(t, `
trading:
  base_asset: ETH
  quote_asset: USDT
  max_position: 10
  order_size: 0.5
  min_order_size: 0.1
  entry_threshold: 0.7
  exit_threshold: 0.3
signal:
  source: rsi
  rsi_period: 21
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "ETH-USDT", cfg.Trading.TradingPair())
	assert.Equal(t, 10.0, cfg.Trading.MaxPosition)
	assert.Equal(t, 0.5, cfg.Trading.OrderSize)
	assert.Equal(t, 0.7, cfg.Trading.EntryThreshold)
	assert.Equal(t, "rsi", cfg.Signal.Source)
	assert.Equal(t, 21, cfg.Signal.RSIPeriod)
}

func TestLoadRejectsInvalid(t *testing.T) {
	cases := []struct {
		name string
		body string
	}{
		{"order size below min", "trading:\n  order_size: 0.01\n  min_order_size: 0.02\n"},
		{"inverted thresholds", "trading:\n  entry_threshold: 0.2\n  exit_threshold: 0.6\n"},
		{"unknown signal source", "signal:\n  source: oracle\n"},
		{"unknown market source", "market:\n  source: kraken\n"},
		{"take profit out of range", "trading:\n  take_profit: 1.5\n"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tc.body))
			assert.Error(t, err)
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}
