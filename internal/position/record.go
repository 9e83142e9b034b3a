package position

import (
	"time"

	"github.com/shopspring/decimal"
)

// Status is the lifecycle state of a tracked position. Active is the only
// non-terminal state; every transition away from it is final.
type Status string

const (
	StatusActive        Status = "ACTIVE"
	StatusTakeProfitHit Status = "TAKE_PROFIT_HIT"
	StatusStopLossHit   Status = "STOP_LOSS_HIT"
	StatusCanceled      Status = "CANCELED"
	// StatusNone marks a decision that never became an order, e.g. the
	// budget check reduced the amount to zero.
	StatusNone Status = "NONE"
)

// Terminal reports whether the status permits no further transitions.
func (s Status) Terminal() bool {
	return s != StatusActive
}

// Record is one row of the position ledger: a single opened or attempted
// trade, enriched asynchronously by fill callbacks and closed at most once.
type Record struct {
	// SignalID is assigned on append, unique and strictly increasing.
	SignalID    int64
	SignalValue float64
	// OpenOrderID is empty when no order was placed.
	OpenOrderID string
	Side        Side

	// Set by the fill callback of the opening order, immutable afterwards.
	EntryPrice   decimal.NullDecimal
	FilledAmount decimal.NullDecimal

	// Exit levels derived from the entry fill. Never set for sell-side
	// records: a trade that reduces exposure has no exit target.
	TakeProfitPrice decimal.NullDecimal
	StopLossPrice   decimal.NullDecimal

	Status       Status
	CloseOrderID string

	CreatedAt time.Time
	ClosedAt  time.Time
}

// Side is the direction of the opening order.
type Side string

const (
	SideBuy  Side = "BUY"
	SideSell Side = "SELL"
)

// Enriched reports whether the opening fill has been applied.
func (r *Record) Enriched() bool {
	return r.EntryPrice.Valid
}

// HasExitLevels reports whether the record carries both exit prices and is
// therefore eligible for exit monitoring.
func (r *Record) HasExitLevels() bool {
	return r.TakeProfitPrice.Valid && r.StopLossPrice.Valid
}

// Fill carries the adjusted values reported back for a completed opening
// order, plus the exit levels derived from the fill price.
type Fill struct {
	Price      decimal.Decimal
	Amount     decimal.Decimal
	TakeProfit decimal.NullDecimal
	StopLoss   decimal.NullDecimal
}
