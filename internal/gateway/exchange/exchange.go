// Package exchange defines the boundary the trading core talks to. The core
// never assumes a requested amount is honored exactly; it records only the
// adjusted values a connector reports back.
package exchange

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"vectra/internal/position"
)

// ErrInsufficientBudget is returned when the risk adjustment reduces the
// requested amount to zero. Not a fault: the core records the attempt and
// waits for the next eligible tick.
var ErrInsufficientBudget = errors.New("exchange: insufficient budget for order")

type OrderType string

const (
	OrderTypeMarket OrderType = "MARKET"
	OrderTypeLimit  OrderType = "LIMIT"
)

// OrderRequest describes an order before risk adjustment.
type OrderRequest struct {
	Pair   string
	Side   position.Side
	Type   OrderType
	Amount decimal.Decimal
	// Price is a reference price for market orders and the limit price
	// otherwise.
	Price decimal.Decimal
}

// PlacedOrder reports the adjusted values actually submitted.
type PlacedOrder struct {
	OrderID string
	Amount  decimal.Decimal
	Price   decimal.Decimal
}

// FillEvent is delivered once per fully filled order.
type FillEvent struct {
	OrderID     string
	BaseAmount  decimal.Decimal
	QuoteAmount decimal.Decimal
	FilledAt    time.Time
}

// FillHandler receives completion callbacks. Calls arrive asynchronously
// relative to tick boundaries and possibly on a later tick than the
// placement that triggered them.
type FillHandler interface {
	OnBuyOrderCompleted(evt FillEvent)
	OnSellOrderCompleted(evt FillEvent)
}

// Connector is the external execution/market-data collaborator.
type Connector interface {
	Name() string

	// GetBalance returns the balance of one asset. May be negative on
	// margin accounts; the core clamps to zero.
	GetBalance(ctx context.Context, asset string) (decimal.Decimal, error)

	// GetPrice returns the best ask when isBuy is true, else the best bid.
	GetPrice(ctx context.Context, pair string, isBuy bool) (float64, error)

	// AdjustAndSubmit applies the budget check to the request, possibly
	// shrinking the amount, and submits the adjusted order. Returns
	// ErrInsufficientBudget when the adjustment leaves nothing to trade.
	AdjustAndSubmit(ctx context.Context, req OrderRequest) (PlacedOrder, error)

	// Submit places the order as-is, without budget adjustment. Used for
	// closing orders triggered by exit levels.
	Submit(ctx context.Context, req OrderRequest) (PlacedOrder, error)

	// SubscribeFills registers the handler for completion callbacks.
	SubscribeFills(h FillHandler)

	// Balances returns all non-zero asset balances for status display.
	Balances(ctx context.Context) (map[string]decimal.Decimal, error)
}
