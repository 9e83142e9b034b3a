package strategy

import (
	"context"
	"errors"
	"fmt"
	"math"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"

	"github.com/shopspring/decimal"

	"vectra/internal/config"
	"vectra/internal/gateway/exchange"
	"vectra/internal/logger"
	"vectra/internal/position"
	"vectra/internal/signal"
)

// pricePrecision is the rounding applied to fill prices, amounts and the
// derived exit levels.
const pricePrecision = 2

type eventKind int

const (
	evTick eventKind = iota
	evBuyFill
	evSellFill
	evReload
)

type envelope struct {
	kind    eventKind
	fill    exchange.FillEvent
	trading config.TradingConfig
	replyCh chan struct{}
}

// Engine is the directional policy core. It owns the position ledger and is
// the only writer to it: ticks, fill callbacks and config reloads all arrive
// as envelopes on one channel consumed by a single goroutine, so no tick
// ever overlaps another and fills may safely land ticks after the placement
// that caused them.
type Engine struct {
	trading config.TradingConfig
	bounds  Bounds
	pair    string

	connector exchange.Connector
	source    signal.Source
	ledger    *position.Ledger
	audit     AuditLog

	// tradingView mirrors trading for readers outside the loop goroutine.
	tradingView atomic.Pointer[config.TradingConfig]

	msgCh  chan envelope
	stopCh chan struct{}
	wg     sync.WaitGroup

	nowFn        func() time.Time
	lastSignalAt time.Time
}

// EngineParams collects the engine dependencies.
type EngineParams struct {
	Trading   config.TradingConfig
	Connector exchange.Connector
	Source    signal.Source
	Ledger    *position.Ledger
	Audit     AuditLog
	NowFn     func() time.Time
}

func NewEngine(p EngineParams) (*Engine, error) {
	if p.Connector == nil {
		return nil, fmt.Errorf("strategy: connector is required")
	}
	if p.Source == nil {
		return nil, fmt.Errorf("strategy: signal source is required")
	}
	if p.Ledger == nil {
		p.Ledger = position.NewLedger()
	}
	if p.NowFn == nil {
		p.NowFn = time.Now
	}
	e := &Engine{
		trading:   p.Trading,
		bounds:    BoundsFromConfig(p.Trading),
		pair:      p.Trading.TradingPair(),
		connector: p.Connector,
		source:    p.Source,
		ledger:    p.Ledger,
		audit:     p.Audit,
		msgCh:     make(chan envelope, 100),
		stopCh:    make(chan struct{}),
		nowFn:     p.NowFn,
	}
	view := p.Trading
	e.tradingView.Store(&view)
	return e, nil
}

// Ledger exposes the engine-owned ledger for read-only snapshots.
func (e *Engine) Ledger() *position.Ledger {
	return e.ledger
}

func (e *Engine) Start() {
	e.wg.Add(1)
	go e.runLoop()
}

func (e *Engine) Stop() {
	close(e.stopCh)
	e.wg.Wait()
}

// Tick runs one scheduling tick and waits for it to complete, so the caller
// never stacks overlapping ticks.
func (e *Engine) Tick(ctx context.Context) error {
	reply := make(chan struct{})
	if err := e.send(envelope{kind: evTick, replyCh: reply}); err != nil {
		return err
	}
	select {
	case <-reply:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-e.stopCh:
		return fmt.Errorf("strategy: engine stopped during tick")
	}
}

// UpdateTrading swaps the policy bounds at the next loop iteration.
func (e *Engine) UpdateTrading(t config.TradingConfig) {
	if err := e.send(envelope{kind: evReload, trading: t}); err != nil {
		logger.Warnf("engine: dropped config reload: %v", err)
	}
}

// OnBuyOrderCompleted implements exchange.FillHandler.
func (e *Engine) OnBuyOrderCompleted(evt exchange.FillEvent) {
	if err := e.send(envelope{kind: evBuyFill, fill: evt}); err != nil {
		logger.Warnf("engine: dropped buy fill %s: %v", evt.OrderID, err)
	}
}

// OnSellOrderCompleted implements exchange.FillHandler.
func (e *Engine) OnSellOrderCompleted(evt exchange.FillEvent) {
	if err := e.send(envelope{kind: evSellFill, fill: evt}); err != nil {
		logger.Warnf("engine: dropped sell fill %s: %v", evt.OrderID, err)
	}
}

func (e *Engine) send(env envelope) error {
	select {
	case e.msgCh <- env:
		return nil
	case <-e.stopCh:
		return fmt.Errorf("strategy: engine is stopped")
	}
}

func (e *Engine) runLoop() {
	defer e.wg.Done()
	logger.Infof("engine: started (pair=%s exchange=%s)", e.pair, e.trading.Exchange)
	for {
		select {
		case env := <-e.msgCh:
			e.process(env)
		case <-e.stopCh:
			logger.Infof("engine: stopped")
			return
		}
	}
}

// process dispatches one envelope. A panic in a handler is contained to the
// event that caused it; the loop keeps running.
func (e *Engine) process(env envelope) {
	defer func() {
		if r := recover(); r != nil {
			logger.Errorf("engine: event panic: %v\n%s", r, debug.Stack())
		}
		if env.replyCh != nil {
			close(env.replyCh)
		}
	}()

	ctx := context.Background()
	switch env.kind {
	case evTick:
		e.handleTick(ctx)
	case evBuyFill:
		e.applyBuyFill(ctx, env.fill)
	case evSellFill:
		e.applySellFill(ctx, env.fill)
	case evReload:
		e.applyTrading(env.trading)
	}
}

func (e *Engine) handleTick(ctx context.Context) {
	e.monitorExits(ctx)
	e.maybeTrade(ctx)
}

// monitorExits closes every active, fill-enriched record whose exit level
// has been crossed. Both conditions are checked independently against the
// captured view, so a record crossing both levels in one tick submits both
// closing orders; only the first status transition sticks.
func (e *Engine) monitorExits(ctx context.Context) {
	var eligible []position.Record
	for _, rec := range e.ledger.Active() {
		if rec.HasExitLevels() {
			eligible = append(eligible, rec)
		}
	}
	if len(eligible) == 0 {
		return
	}

	bestAsk, err := e.livePrice(ctx, true)
	if err != nil {
		logger.Warnf("engine: exit scan skipped, ask unavailable: %v", err)
		return
	}
	bestBid, err := e.livePrice(ctx, false)
	if err != nil {
		logger.Warnf("engine: exit scan skipped, bid unavailable: %v", err)
		return
	}

	for _, rec := range eligible {
		if rec.TakeProfitPrice.Decimal.GreaterThanOrEqual(bestBid) {
			e.closeRecord(ctx, rec, position.SideSell, bestBid, position.StatusTakeProfitHit)
		}
		if rec.StopLossPrice.Decimal.LessThanOrEqual(bestAsk) {
			e.closeRecord(ctx, rec, position.SideBuy, bestAsk, position.StatusStopLossHit)
		}
	}
}

func (e *Engine) closeRecord(ctx context.Context, rec position.Record, side position.Side, price decimal.Decimal, status position.Status) {
	placed, err := e.connector.Submit(ctx, exchange.OrderRequest{
		Pair:   e.pair,
		Side:   side,
		Type:   exchange.OrderTypeMarket,
		Amount: e.bounds.OrderSize,
		Price:  price,
	})
	if err != nil {
		logger.Warnf("engine: closing %s for signal %d failed: %v", side, rec.SignalID, err)
		return
	}
	if !e.ledger.Close(rec.SignalID, status, placed.OrderID) {
		// Already closed this tick by the opposite condition.
		logger.Warnf("engine: signal %d already terminal, %s order %s stays unlinked", rec.SignalID, status, placed.OrderID)
		return
	}
	logger.Infof("engine: signal %d closed as %s (order=%s price=%s)", rec.SignalID, status, placed.OrderID, placed.Price)
	e.auditAppend(ctx, AuditEvent{
		Type:     AuditClose,
		SignalID: rec.SignalID,
		Side:     string(side),
		Status:   string(status),
		OrderID:  placed.OrderID,
		Amount:   placed.Amount.String(),
		Price:    placed.Price.String(),
		At:       e.nowFn(),
	})
}

// maybeTrade samples a new signal once the configured interval has elapsed
// and turns it into at most one order.
func (e *Engine) maybeTrade(ctx context.Context) {
	now := e.nowFn()
	if !e.lastSignalAt.IsZero() && now.Sub(e.lastSignalAt) < e.trading.TimeBetweenSignals() {
		return
	}
	e.lastSignalAt = now

	sig, err := e.source.Next(ctx)
	if err != nil {
		logger.Warnf("engine: signal source failed, skipping tick: %v", err)
		return
	}
	exposure, err := e.connector.GetBalance(ctx, e.trading.BaseAsset)
	if err != nil {
		logger.Warnf("engine: balance query failed, skipping tick: %v", err)
		return
	}
	if exposure.IsNegative() {
		exposure = decimal.Zero
	}

	action := Decide(sig, exposure, e.bounds)
	switch action.Kind {
	case ActionBuy:
		logger.Infof("engine: signal %.4f > entry threshold %.2f", sig, e.bounds.EntryThreshold)
		e.openPosition(ctx, sig, position.SideBuy, action.Amount)
	case ActionSell:
		logger.Infof("engine: signal %.4f < exit threshold %.2f, try to decrease position", sig, e.bounds.ExitThreshold)
		e.reducePosition(ctx, sig, action.Amount)
	default:
		logger.Debugf("engine: signal %.4f inside neutral band, no action", sig)
	}
}

func (e *Engine) openPosition(ctx context.Context, sig float64, side position.Side, amount decimal.Decimal) int64 {
	placed, err := e.placeAdjusted(ctx, side, amount)
	if err != nil {
		id := e.ledger.Append(sig, side, "", position.StatusNone)
		if errors.Is(err, exchange.ErrInsufficientBudget) {
			logger.Infof("engine: not enough balance for %s of %s (signal %d)", side, amount, id)
		} else {
			logger.Warnf("engine: %s placement failed (signal %d): %v", side, id, err)
		}
		e.auditDecision(ctx, id, sig, side, position.StatusNone, exchange.PlacedOrder{})
		return id
	}
	id := e.ledger.Append(sig, side, placed.OrderID, position.StatusActive)
	logger.Infof("engine: signal %d opened %s %s (order=%s)", id, side, placed.Amount, placed.OrderID)
	e.auditDecision(ctx, id, sig, side, position.StatusActive, placed)
	return id
}

// reducePosition sells part of the exposure and retires the active record
// with the highest signal value, linking it to the sell order. The candidate
// is picked before the sell's own record is appended, so the reduction never
// cancels itself.
func (e *Engine) reducePosition(ctx context.Context, sig float64, amount decimal.Decimal) {
	cancelID, hasCandidate := e.ledger.ActiveWithMaxSignal()
	id := e.openPosition(ctx, sig, position.SideSell, amount)
	rec, ok := e.recordByID(id)
	if !ok || rec.Status != position.StatusActive || !hasCandidate {
		return
	}
	if e.ledger.Close(cancelID, position.StatusCanceled, rec.OpenOrderID) {
		logger.Infof("engine: signal %d canceled by reduction order %s", cancelID, rec.OpenOrderID)
		e.auditAppend(ctx, AuditEvent{
			Type:     AuditClose,
			SignalID: cancelID,
			Status:   string(position.StatusCanceled),
			OrderID:  rec.OpenOrderID,
			At:       e.nowFn(),
		})
	}
}

func (e *Engine) placeAdjusted(ctx context.Context, side position.Side, amount decimal.Decimal) (exchange.PlacedOrder, error) {
	return e.connector.AdjustAndSubmit(ctx, exchange.OrderRequest{
		Pair:   e.pair,
		Side:   side,
		Type:   exchange.OrderTypeMarket,
		Amount: amount,
	})
}

func (e *Engine) applyBuyFill(ctx context.Context, evt exchange.FillEvent) {
	fill, ok := e.fillFromEvent(evt)
	if !ok {
		return
	}
	one := decimal.NewFromInt(1)
	tp := fill.Price.Mul(one.Add(decimal.NewFromFloat(e.trading.TakeProfit))).Round(pricePrecision)
	sl := fill.Price.Mul(one.Sub(decimal.NewFromFloat(e.trading.StopLoss))).Round(pricePrecision)
	fill.TakeProfit = decimal.NullDecimal{Decimal: tp, Valid: true}
	fill.StopLoss = decimal.NullDecimal{Decimal: sl, Valid: true}

	if !e.ledger.ApplyFill(evt.OrderID, fill) {
		logger.Warnf("engine: buy fill for unknown order %s ignored", evt.OrderID)
		return
	}
	logger.Infof("engine: buy order %s completed (price=%s amount=%s tp=%s sl=%s)",
		evt.OrderID, fill.Price, fill.Amount, tp, sl)
	e.auditFill(ctx, evt.OrderID, position.SideBuy, fill)
}

func (e *Engine) applySellFill(ctx context.Context, evt exchange.FillEvent) {
	fill, ok := e.fillFromEvent(evt)
	if !ok {
		return
	}
	// A sell reduces exposure; it gets no exit levels.
	if !e.ledger.ApplyFill(evt.OrderID, fill) {
		logger.Warnf("engine: sell fill for unknown order %s ignored", evt.OrderID)
		return
	}
	logger.Infof("engine: sell order %s completed (price=%s amount=%s)", evt.OrderID, fill.Price, fill.Amount)
	e.auditFill(ctx, evt.OrderID, position.SideSell, fill)
}

func (e *Engine) fillFromEvent(evt exchange.FillEvent) (position.Fill, bool) {
	if !evt.BaseAmount.IsPositive() {
		logger.Warnf("engine: fill %s has non-positive base amount %s, ignored", evt.OrderID, evt.BaseAmount)
		return position.Fill{}, false
	}
	return position.Fill{
		Price:  evt.QuoteAmount.Div(evt.BaseAmount).Round(pricePrecision),
		Amount: evt.BaseAmount.Round(pricePrecision),
	}, true
}

func (e *Engine) applyTrading(t config.TradingConfig) {
	e.trading = t
	e.bounds = BoundsFromConfig(t)
	e.pair = t.TradingPair()
	view := t
	e.tradingView.Store(&view)
	logger.Infof("engine: trading bounds reloaded (max=%v order=%v entry=%.2f exit=%.2f)",
		t.MaxPosition, t.OrderSize, t.EntryThreshold, t.ExitThreshold)
}

func (e *Engine) livePrice(ctx context.Context, isBuy bool) (decimal.Decimal, error) {
	raw, err := e.connector.GetPrice(ctx, e.pair, isBuy)
	if err != nil {
		return decimal.Zero, err
	}
	if raw <= 0 || math.IsNaN(raw) || math.IsInf(raw, 0) {
		return decimal.Zero, fmt.Errorf("stale quote %v", raw)
	}
	return decimal.NewFromFloat(raw), nil
}

func (e *Engine) recordByID(id int64) (position.Record, bool) {
	for _, rec := range e.ledger.Snapshot() {
		if rec.SignalID == id {
			return rec, true
		}
	}
	return position.Record{}, false
}

func (e *Engine) auditDecision(ctx context.Context, id int64, sig float64, side position.Side, status position.Status, placed exchange.PlacedOrder) {
	e.auditAppend(ctx, AuditEvent{
		Type:        AuditDecision,
		SignalID:    id,
		SignalValue: sig,
		Side:        string(side),
		Status:      string(status),
		OrderID:     placed.OrderID,
		Amount:      placed.Amount.String(),
		Price:       placed.Price.String(),
		At:          e.nowFn(),
	})
}

func (e *Engine) auditFill(ctx context.Context, orderID string, side position.Side, fill position.Fill) {
	evt := AuditEvent{
		Type:    AuditFill,
		Side:    string(side),
		OrderID: orderID,
		Amount:  fill.Amount.String(),
		Price:   fill.Price.String(),
		At:      e.nowFn(),
	}
	if fill.TakeProfit.Valid {
		evt.Detail = map[string]any{
			"tp_price": fill.TakeProfit.Decimal.String(),
			"sl_price": fill.StopLoss.Decimal.String(),
		}
	}
	e.auditAppend(ctx, evt)
}

func (e *Engine) auditAppend(ctx context.Context, evt AuditEvent) {
	if e.audit == nil {
		return
	}
	if err := e.audit.Append(ctx, evt); err != nil {
		logger.Warnf("engine: audit append failed: %v", err)
	}
}
