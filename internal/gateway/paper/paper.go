// Package paper implements the exchange connector against an in-process
// simulated account. Market orders fill immediately at the current quote;
// the completion callback is still delivered asynchronously, so the core
// observes the same two call sites it would against a real exchange.
package paper

import (
	"context"
	"fmt"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"vectra/internal/gateway/exchange"
	"vectra/internal/logger"
	"vectra/internal/market"
	"vectra/internal/position"
)

// amountPrecision is the quantization applied by the budget check.
const amountPrecision = 6

type Config struct {
	Name         string
	BaseAsset    string
	QuoteAsset   string
	InitialBase  decimal.Decimal
	InitialQuote decimal.Decimal
}

// Connector is a paper-trade account backed by a quote source.
type Connector struct {
	cfg    Config
	quotes market.QuoteSource

	mu       sync.Mutex
	balances map[string]decimal.Decimal
	handler  exchange.FillHandler
	wg       sync.WaitGroup
}

func New(cfg Config, quotes market.QuoteSource) *Connector {
	if strings.TrimSpace(cfg.Name) == "" {
		cfg.Name = "paper"
	}
	balances := map[string]decimal.Decimal{
		cfg.BaseAsset:  cfg.InitialBase,
		cfg.QuoteAsset: cfg.InitialQuote,
	}
	return &Connector{cfg: cfg, quotes: quotes, balances: balances}
}

func (c *Connector) Name() string {
	return c.cfg.Name
}

func (c *Connector) SubscribeFills(h exchange.FillHandler) {
	c.mu.Lock()
	c.handler = h
	c.mu.Unlock()
}

func (c *Connector) GetBalance(_ context.Context, asset string) (decimal.Decimal, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.balances[asset], nil
}

func (c *Connector) Balances(_ context.Context) (map[string]decimal.Decimal, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make(map[string]decimal.Decimal, len(c.balances))
	for asset, bal := range c.balances {
		out[asset] = bal
	}
	return out, nil
}

func (c *Connector) GetPrice(ctx context.Context, pair string, isBuy bool) (float64, error) {
	quote, err := c.quotes.BestBidAsk(ctx, pair)
	if err != nil {
		return 0, err
	}
	if isBuy {
		return quote.Ask, nil
	}
	return quote.Bid, nil
}

// AdjustAndSubmit clamps the requested amount to what the account can
// actually afford, then submits. A buy is limited by the quote balance at
// the current ask, a sell by the base holdings.
func (c *Connector) AdjustAndSubmit(ctx context.Context, req exchange.OrderRequest) (exchange.PlacedOrder, error) {
	price, err := c.referencePrice(ctx, req)
	if err != nil {
		return exchange.PlacedOrder{}, err
	}

	c.mu.Lock()
	var affordable decimal.Decimal
	switch req.Side {
	case position.SideBuy:
		affordable = c.balances[c.cfg.QuoteAsset].Div(price)
	case position.SideSell:
		affordable = c.balances[c.cfg.BaseAsset]
	default:
		c.mu.Unlock()
		return exchange.PlacedOrder{}, fmt.Errorf("paper: unknown order side %q", req.Side)
	}
	c.mu.Unlock()

	amount := decimal.Min(req.Amount, affordable).RoundDown(amountPrecision)
	if amount.LessThanOrEqual(decimal.Zero) {
		return exchange.PlacedOrder{}, exchange.ErrInsufficientBudget
	}
	adjusted := req
	adjusted.Amount = amount
	adjusted.Price = price
	return c.submit(adjusted)
}

// Submit places the order without the budget check, mirroring how closing
// orders go straight through. Overselling is still capped at holdings.
func (c *Connector) Submit(ctx context.Context, req exchange.OrderRequest) (exchange.PlacedOrder, error) {
	price, err := c.referencePrice(ctx, req)
	if err != nil {
		return exchange.PlacedOrder{}, err
	}
	if req.Amount.LessThanOrEqual(decimal.Zero) {
		return exchange.PlacedOrder{}, fmt.Errorf("paper: order amount must be positive")
	}
	adjusted := req
	adjusted.Price = price
	return c.submit(adjusted)
}

func (c *Connector) referencePrice(ctx context.Context, req exchange.OrderRequest) (decimal.Decimal, error) {
	if req.Price.IsPositive() {
		return req.Price, nil
	}
	raw, err := c.GetPrice(ctx, req.Pair, req.Side == position.SideBuy)
	if err != nil {
		return decimal.Zero, fmt.Errorf("paper: price lookup: %w", err)
	}
	if raw <= 0 || math.IsNaN(raw) || math.IsInf(raw, 0) {
		return decimal.Zero, fmt.Errorf("paper: unusable price %v for %s", raw, req.Pair)
	}
	return decimal.NewFromFloat(raw), nil
}

// submit settles the fill against the balances and schedules the completion
// callback on its own goroutine.
func (c *Connector) submit(req exchange.OrderRequest) (exchange.PlacedOrder, error) {
	quoteAmount := req.Amount.Mul(req.Price)

	c.mu.Lock()
	switch req.Side {
	case position.SideBuy:
		c.balances[c.cfg.QuoteAsset] = c.balances[c.cfg.QuoteAsset].Sub(quoteAmount)
		c.balances[c.cfg.BaseAsset] = c.balances[c.cfg.BaseAsset].Add(req.Amount)
	case position.SideSell:
		held := c.balances[c.cfg.BaseAsset]
		if req.Amount.GreaterThan(held) {
			c.mu.Unlock()
			return exchange.PlacedOrder{}, fmt.Errorf("paper: sell %s exceeds holdings %s", req.Amount, held)
		}
		c.balances[c.cfg.BaseAsset] = held.Sub(req.Amount)
		c.balances[c.cfg.QuoteAsset] = c.balances[c.cfg.QuoteAsset].Add(quoteAmount)
	}
	handler := c.handler
	c.mu.Unlock()

	order := exchange.PlacedOrder{
		OrderID: uuid.NewString(),
		Amount:  req.Amount,
		Price:   req.Price,
	}
	logger.Debugf("paper: %s %s %s @ %s (order=%s)", req.Side, order.Amount, req.Pair, order.Price, order.OrderID)

	if handler != nil {
		evt := exchange.FillEvent{
			OrderID:     order.OrderID,
			BaseAmount:  order.Amount,
			QuoteAmount: quoteAmount,
			FilledAt:    time.Now(),
		}
		side := req.Side
		c.wg.Add(1)
		go func() {
			defer c.wg.Done()
			if side == position.SideBuy {
				handler.OnBuyOrderCompleted(evt)
			} else {
				handler.OnSellOrderCompleted(evt)
			}
		}()
	}
	return order, nil
}

// Drain waits for all pending fill callbacks to be delivered.
func (c *Connector) Drain() {
	c.wg.Wait()
}

var _ exchange.Connector = (*Connector)(nil)
