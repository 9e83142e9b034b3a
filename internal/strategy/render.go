package strategy

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"vectra/internal/logger"
	"vectra/internal/position"
)

// StatusReport is the read-only view handed to the status endpoints: live
// balances plus the full signal table.
type StatusReport struct {
	Exchange string                     `json:"exchange"`
	Pair     string                     `json:"pair"`
	Balances map[string]decimal.Decimal `json:"balances"`
	Records  []position.Record          `json:"records"`
}

// Status collects balances and the ledger snapshot. Reads only; safe to call
// from outside the engine loop.
func (e *Engine) Status(ctx context.Context) (StatusReport, error) {
	balances, err := e.connector.Balances(ctx)
	if err != nil {
		return StatusReport{}, fmt.Errorf("strategy: balances query: %w", err)
	}
	trading := e.tradingView.Load()
	return StatusReport{
		Exchange: trading.Exchange,
		Pair:     trading.TradingPair(),
		Balances: balances,
		Records:  e.ledger.Snapshot(),
	}, nil
}

// FormatStatus renders the report as the multi-line block printed on status
// requests.
func FormatStatus(r StatusReport) string {
	var lines []string
	lines = append(lines, "", fmt.Sprintf("  Exchange: %s  Pair: %s", r.Exchange, r.Pair))

	lines = append(lines, "", "  Balances:")
	assets := make([]string, 0, len(r.Balances))
	for asset := range r.Balances {
		assets = append(assets, asset)
	}
	sort.Strings(assets)
	for _, asset := range assets {
		lines = append(lines, fmt.Sprintf("    %-6s %s", asset, r.Balances[asset]))
	}

	if len(r.Records) == 0 {
		lines = append(lines, "", "  No signals recorded.")
		return strings.Join(lines, "\n")
	}

	lines = append(lines, "", "  Signals:")
	lines = append(lines, fmt.Sprintf("    %4s  %8s  %-4s  %10s  %10s  %10s  %-15s",
		"id", "signal", "side", "price", "tp", "sl", "status"))
	for _, rec := range r.Records {
		lines = append(lines, fmt.Sprintf("    %4d  %8.4f  %-4s  %10s  %10s  %10s  %-15s",
			rec.SignalID,
			rec.SignalValue,
			rec.Side,
			renderNullDecimal(rec.EntryPrice),
			renderNullDecimal(rec.TakeProfitPrice),
			renderNullDecimal(rec.StopLossPrice),
			rec.Status,
		))
	}
	return strings.Join(lines, "\n")
}

// LogStatus writes the formatted status block to the application log.
func (e *Engine) LogStatus(ctx context.Context) {
	report, err := e.Status(ctx)
	if err != nil {
		logger.Warnf("engine: status report failed: %v", err)
		return
	}
	logger.InfoBlock(FormatStatus(report))
}

func renderNullDecimal(d decimal.NullDecimal) string {
	if !d.Valid {
		return "-"
	}
	return d.Decimal.String()
}
