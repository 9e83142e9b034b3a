package strategy

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"vectra/internal/config"
	"vectra/internal/gateway/exchange"
	"vectra/internal/position"
	"vectra/internal/signal"
)

type mockConnector struct {
	mock.Mock
	balance     decimal.Decimal
	balanceErr  error
	balancesErr error
	bid, ask    float64
	priceErr    error
	priceCalls  int
}

func (m *mockConnector) Name() string { return "mock" }

func (m *mockConnector) GetBalance(context.Context, string) (decimal.Decimal, error) {
	return m.balance, m.balanceErr
}

func (m *mockConnector) GetPrice(_ context.Context, _ string, isBuy bool) (float64, error) {
	m.priceCalls++
	if m.priceErr != nil {
		return 0, m.priceErr
	}
	if isBuy {
		return m.ask, nil
	}
	return m.bid, nil
}

func (m *mockConnector) AdjustAndSubmit(ctx context.Context, req exchange.OrderRequest) (exchange.PlacedOrder, error) {
	args := m.Called(ctx, req)
	return args.Get(0).(exchange.PlacedOrder), args.Error(1)
}

func (m *mockConnector) Submit(ctx context.Context, req exchange.OrderRequest) (exchange.PlacedOrder, error) {
	args := m.Called(ctx, req)
	return args.Get(0).(exchange.PlacedOrder), args.Error(1)
}

func (m *mockConnector) SubscribeFills(exchange.FillHandler) {}

func (m *mockConnector) Balances(context.Context) (map[string]decimal.Decimal, error) {
	if m.balancesErr != nil {
		return nil, m.balancesErr
	}
	return map[string]decimal.Decimal{"BTC": m.balance}, nil
}

type countingSource struct {
	mu    sync.Mutex
	inner signal.Source
	calls int
}

func (c *countingSource) Next(ctx context.Context) (float64, error) {
	c.mu.Lock()
	c.calls++
	c.mu.Unlock()
	return c.inner.Next(ctx)
}

func testTradingConfig() config.TradingConfig {
	return config.TradingConfig{
		Exchange:              "paper",
		BaseAsset:             "BTC",
		QuoteAsset:            "USDT",
		MaxPosition:           5,
		MinPosition:           0,
		OrderSize:             0.1,
		MinOrderSize:          0.02,
		TimeBetweenSignalsSec: 10,
		TickIntervalSec:       1,
		EntryThreshold:        0.6,
		ExitThreshold:         0.2,
		TakeProfit:            0.03,
		StopLoss:              0.01,
	}
}

func newTestEngine(t *testing.T, conn *mockConnector, src signal.Source) *Engine {
	t.Helper()
	eng, err := NewEngine(EngineParams{
		Trading:   testTradingConfig(),
		Connector: conn,
		Source:    src,
		NowFn:     time.Now,
	})
	require.NoError(t, err)
	return eng
}

func placed(id, amount, price string) exchange.PlacedOrder {
	return exchange.PlacedOrder{
		OrderID: id,
		Amount:  decimal.RequireFromString(amount),
		Price:   decimal.RequireFromString(price),
	}
}

func sideMatcher(side position.Side) interface{} {
	return mock.MatchedBy(func(req exchange.OrderRequest) bool {
		return req.Side == side
	})
}

func TestTickOpensPositionOnStrongSignal(t *testing.T) {
	conn := &mockConnector{balance: decimal.Zero}
	conn.On("AdjustAndSubmit", mock.Anything, mock.MatchedBy(func(req exchange.OrderRequest) bool {
		return req.Side == position.SideBuy && req.Amount.Equal(decimal.RequireFromString("0.1"))
	})).Return(placed("o1", "0.1", "100"), nil)

	eng := newTestEngine(t, conn, signal.NewSequence(0.8))
	eng.handleTick(context.Background())

	snap := eng.Ledger().Snapshot()
	require.Len(t, snap, 1)
	assert.Equal(t, int64(0), snap[0].SignalID)
	assert.Equal(t, 0.8, snap[0].SignalValue)
	assert.Equal(t, position.SideBuy, snap[0].Side)
	assert.Equal(t, "o1", snap[0].OpenOrderID)
	assert.Equal(t, position.StatusActive, snap[0].Status)
	assert.False(t, snap[0].Enriched())
	conn.AssertExpectations(t)
}

func TestTickHoldsInNeutralBand(t *testing.T) {
	conn := &mockConnector{balance: decimal.RequireFromString("1")}
	eng := newTestEngine(t, conn, signal.NewSequence(0.4))

	eng.handleTick(context.Background())

	assert.Zero(t, eng.Ledger().Len())
	conn.AssertNotCalled(t, "AdjustAndSubmit", mock.Anything, mock.Anything)
}

func TestTickNoBuyWhenHeadroomBelowMinOrderSize(t *testing.T) {
	conn := &mockConnector{balance: decimal.RequireFromString("4.99")}
	eng := newTestEngine(t, conn, signal.NewSequence(0.9))

	eng.handleTick(context.Background())

	assert.Zero(t, eng.Ledger().Len())
	conn.AssertNotCalled(t, "AdjustAndSubmit", mock.Anything, mock.Anything)
}

func TestTickRejectedBuyRecordsNone(t *testing.T) {
	conn := &mockConnector{balance: decimal.Zero}
	conn.On("AdjustAndSubmit", mock.Anything, mock.Anything).
		Return(exchange.PlacedOrder{}, exchange.ErrInsufficientBudget)

	eng := newTestEngine(t, conn, signal.NewSequence(0.8))
	eng.handleTick(context.Background())

	snap := eng.Ledger().Snapshot()
	require.Len(t, snap, 1)
	assert.Equal(t, position.StatusNone, snap[0].Status)
	assert.Empty(t, snap[0].OpenOrderID)
}

func TestTickSellCancelsHighestActive(t *testing.T) {
	conn := &mockConnector{balance: decimal.RequireFromString("1")}
	conn.On("AdjustAndSubmit", mock.Anything, sideMatcher(position.SideSell)).
		Return(placed("s1", "0.1", "100"), nil)

	eng := newTestEngine(t, conn, signal.NewSequence(0.1))
	low := eng.Ledger().Append(0.7, position.SideBuy, "a", position.StatusActive)
	high := eng.Ledger().Append(0.9, position.SideBuy, "b", position.StatusActive)

	eng.handleTick(context.Background())

	snap := eng.Ledger().Snapshot()
	require.Len(t, snap, 3)
	assert.Equal(t, position.StatusActive, snap[low].Status)
	assert.Equal(t, position.StatusCanceled, snap[high].Status)
	assert.Equal(t, "s1", snap[high].CloseOrderID)
	assert.Equal(t, position.SideSell, snap[2].Side)
	assert.Equal(t, position.StatusActive, snap[2].Status)
}

func TestTickSellWithNothingToCancel(t *testing.T) {
	conn := &mockConnector{balance: decimal.RequireFromString("1")}
	conn.On("AdjustAndSubmit", mock.Anything, sideMatcher(position.SideSell)).
		Return(placed("s1", "0.1", "100"), nil)

	eng := newTestEngine(t, conn, signal.NewSequence(0.1))
	eng.handleTick(context.Background())

	snap := eng.Ledger().Snapshot()
	require.Len(t, snap, 1)
	// The new sell record never cancels itself.
	assert.Equal(t, position.StatusActive, snap[0].Status)
	assert.Empty(t, snap[0].CloseOrderID)
}

func TestSignalIntervalGate(t *testing.T) {
	conn := &mockConnector{balance: decimal.RequireFromString("1")}
	src := &countingSource{inner: signal.NewSequence(0.4)}

	now := time.Unix(1000, 0)
	eng, err := NewEngine(EngineParams{
		Trading:   testTradingConfig(),
		Connector: conn,
		Source:    src,
		NowFn:     func() time.Time { return now },
	})
	require.NoError(t, err)

	eng.handleTick(context.Background())
	assert.Equal(t, 1, src.calls)

	// Within the interval: no new sample.
	now = now.Add(5 * time.Second)
	eng.handleTick(context.Background())
	assert.Equal(t, 1, src.calls)

	now = now.Add(6 * time.Second)
	eng.handleTick(context.Background())
	assert.Equal(t, 2, src.calls)
}

func TestSignalIDsAreGapless(t *testing.T) {
	conn := &mockConnector{balance: decimal.Zero}
	conn.On("AdjustAndSubmit", mock.Anything, mock.Anything).
		Return(exchange.PlacedOrder{}, exchange.ErrInsufficientBudget).Times(2)
	conn.On("AdjustAndSubmit", mock.Anything, mock.Anything).
		Return(placed("o3", "0.1", "100"), nil)

	now := time.Unix(1000, 0)
	eng, err := NewEngine(EngineParams{
		Trading:   testTradingConfig(),
		Connector: conn,
		Source:    signal.NewSequence(0.8, 0.9, 0.7),
		NowFn:     func() time.Time { return now },
	})
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		eng.handleTick(context.Background())
		now = now.Add(11 * time.Second)
	}

	snap := eng.Ledger().Snapshot()
	require.Len(t, snap, 3)
	for i, rec := range snap {
		assert.Equal(t, int64(i), rec.SignalID)
	}
}

func TestBuyFillDerivesExitLevels(t *testing.T) {
	conn := &mockConnector{}
	eng := newTestEngine(t, conn, signal.NewSequence(0.5))
	eng.Ledger().Append(0.8, position.SideBuy, "o1", position.StatusActive)

	eng.applyBuyFill(context.Background(), exchange.FillEvent{
		OrderID:     "o1",
		BaseAmount:  decimal.RequireFromString("0.1"),
		QuoteAmount: decimal.RequireFromString("10"),
	})

	rec := eng.Ledger().Snapshot()[0]
	require.True(t, rec.Enriched())
	assert.True(t, rec.EntryPrice.Decimal.Equal(decimal.RequireFromString("100")))
	assert.True(t, rec.FilledAmount.Decimal.Equal(decimal.RequireFromString("0.1")))
	assert.True(t, rec.TakeProfitPrice.Decimal.Equal(decimal.RequireFromString("103")))
	assert.True(t, rec.StopLossPrice.Decimal.Equal(decimal.RequireFromString("99")))
}

func TestSellFillLeavesExitLevelsUnset(t *testing.T) {
	conn := &mockConnector{}
	eng := newTestEngine(t, conn, signal.NewSequence(0.5))
	eng.Ledger().Append(0.1, position.SideSell, "s1", position.StatusActive)

	eng.applySellFill(context.Background(), exchange.FillEvent{
		OrderID:     "s1",
		BaseAmount:  decimal.RequireFromString("0.1"),
		QuoteAmount: decimal.RequireFromString("10"),
	})

	rec := eng.Ledger().Snapshot()[0]
	require.True(t, rec.Enriched())
	assert.False(t, rec.HasExitLevels())
}

func TestDuplicateBuyFillIsIdempotent(t *testing.T) {
	conn := &mockConnector{}
	eng := newTestEngine(t, conn, signal.NewSequence(0.5))
	eng.Ledger().Append(0.8, position.SideBuy, "o1", position.StatusActive)

	evt := exchange.FillEvent{
		OrderID:     "o1",
		BaseAmount:  decimal.RequireFromString("0.1"),
		QuoteAmount: decimal.RequireFromString("10"),
	}
	eng.applyBuyFill(context.Background(), evt)
	first := eng.Ledger().Snapshot()[0]

	eng.applyBuyFill(context.Background(), evt)
	second := eng.Ledger().Snapshot()[0]
	assert.Equal(t, first, second)
}

func TestFillForUnknownOrderIsIgnored(t *testing.T) {
	conn := &mockConnector{}
	eng := newTestEngine(t, conn, signal.NewSequence(0.5))

	eng.applyBuyFill(context.Background(), exchange.FillEvent{
		OrderID:     "ghost",
		BaseAmount:  decimal.RequireFromString("0.1"),
		QuoteAmount: decimal.RequireFromString("10"),
	})
	assert.Zero(t, eng.Ledger().Len())
}

func enrichedActive(t *testing.T, eng *Engine, orderID string, entry, tp, sl string) int64 {
	t.Helper()
	id := eng.Ledger().Append(0.8, position.SideBuy, orderID, position.StatusActive)
	ok := eng.Ledger().ApplyFill(orderID, position.Fill{
		Price:      decimal.RequireFromString(entry),
		Amount:     decimal.RequireFromString("0.1"),
		TakeProfit: decimal.NullDecimal{Decimal: decimal.RequireFromString(tp), Valid: true},
		StopLoss:   decimal.NullDecimal{Decimal: decimal.RequireFromString(sl), Valid: true},
	})
	require.True(t, ok)
	return id
}

func TestMonitorExitsTakeProfit(t *testing.T) {
	// tp=103 >= bid=102 fires the take profit; sl=99 > ask=98.5 keeps the
	// stop loss quiet.
	conn := &mockConnector{bid: 102, ask: 98.5}
	conn.On("Submit", mock.Anything, sideMatcher(position.SideSell)).
		Return(placed("c1", "0.1", "102"), nil)

	eng := newTestEngine(t, conn, signal.NewSequence(0.5))
	id := enrichedActive(t, eng, "o1", "100", "103", "99")

	eng.monitorExits(context.Background())

	rec := eng.Ledger().Snapshot()[id]
	assert.Equal(t, position.StatusTakeProfitHit, rec.Status)
	assert.Equal(t, "c1", rec.CloseOrderID)
	conn.AssertExpectations(t)
	conn.AssertNumberOfCalls(t, "Submit", 1)
}

func TestMonitorExitsStopLoss(t *testing.T) {
	// sl=99 <= ask=104.5 fires the stop loss; tp=103 < bid=104 keeps the
	// take profit quiet.
	conn := &mockConnector{bid: 104, ask: 104.5}
	conn.On("Submit", mock.Anything, sideMatcher(position.SideBuy)).
		Return(placed("c2", "0.1", "104.5"), nil)

	eng := newTestEngine(t, conn, signal.NewSequence(0.5))
	id := enrichedActive(t, eng, "o1", "100", "103", "99")

	eng.monitorExits(context.Background())

	rec := eng.Ledger().Snapshot()[id]
	assert.Equal(t, position.StatusStopLossHit, rec.Status)
	assert.Equal(t, "c2", rec.CloseOrderID)
	conn.AssertNumberOfCalls(t, "Submit", 1)
}

func TestMonitorExitsNoTrigger(t *testing.T) {
	// bid=104 > tp=103 and ask=98 < sl=99: neither comparison fires.
	conn := &mockConnector{bid: 104, ask: 98}

	eng := newTestEngine(t, conn, signal.NewSequence(0.5))
	id := enrichedActive(t, eng, "o1", "100", "103", "99")

	eng.monitorExits(context.Background())

	rec := eng.Ledger().Snapshot()[id]
	assert.Equal(t, position.StatusActive, rec.Status)
	conn.AssertNotCalled(t, "Submit", mock.Anything, mock.Anything)
}

func TestMonitorExitsBothConditionsSubmitBoth(t *testing.T) {
	// tp=103 >= bid=100 and sl=99 <= ask=101: both closing orders go out,
	// but only the first status transition sticks.
	conn := &mockConnector{bid: 100, ask: 101}
	conn.On("Submit", mock.Anything, sideMatcher(position.SideSell)).
		Return(placed("c1", "0.1", "100"), nil)
	conn.On("Submit", mock.Anything, sideMatcher(position.SideBuy)).
		Return(placed("c2", "0.1", "101"), nil)

	eng := newTestEngine(t, conn, signal.NewSequence(0.5))
	id := enrichedActive(t, eng, "o1", "100", "103", "99")

	eng.monitorExits(context.Background())

	conn.AssertNumberOfCalls(t, "Submit", 2)
	rec := eng.Ledger().Snapshot()[id]
	assert.Equal(t, position.StatusTakeProfitHit, rec.Status)
	assert.Equal(t, "c1", rec.CloseOrderID)
}

func TestMonitorExitsSkipsOnStaleQuote(t *testing.T) {
	conn := &mockConnector{priceErr: assert.AnError}

	eng := newTestEngine(t, conn, signal.NewSequence(0.5))
	id := enrichedActive(t, eng, "o1", "100", "103", "99")

	eng.monitorExits(context.Background())

	rec := eng.Ledger().Snapshot()[id]
	assert.Equal(t, position.StatusActive, rec.Status)
	conn.AssertNotCalled(t, "Submit", mock.Anything, mock.Anything)
}

func TestMonitorExitsSkipsOnNonFiniteQuote(t *testing.T) {
	conn := &mockConnector{bid: 0, ask: 0}

	eng := newTestEngine(t, conn, signal.NewSequence(0.5))
	enrichedActive(t, eng, "o1", "100", "103", "99")

	eng.monitorExits(context.Background())
	conn.AssertNotCalled(t, "Submit", mock.Anything, mock.Anything)
}

func TestMonitorExitsSkipsUnenrichedRecords(t *testing.T) {
	conn := &mockConnector{bid: 104, ask: 104.5}

	eng := newTestEngine(t, conn, signal.NewSequence(0.5))
	eng.Ledger().Append(0.8, position.SideBuy, "o1", position.StatusActive)

	eng.monitorExits(context.Background())

	assert.Zero(t, conn.priceCalls)
	conn.AssertNotCalled(t, "Submit", mock.Anything, mock.Anything)
}

func TestUpdateTradingRebuildsBounds(t *testing.T) {
	conn := &mockConnector{balance: decimal.Zero}
	eng := newTestEngine(t, conn, signal.NewSequence(0.5))

	next := testTradingConfig()
	next.OrderSize = 0.5
	next.EntryThreshold = 0.9
	eng.applyTrading(next)

	assert.True(t, eng.bounds.OrderSize.Equal(decimal.RequireFromString("0.5")))
	assert.Equal(t, 0.9, eng.bounds.EntryThreshold)
}

func TestEngineLoopTickAndStop(t *testing.T) {
	conn := &mockConnector{balance: decimal.RequireFromString("1")}
	eng := newTestEngine(t, conn, signal.NewSequence(0.4))

	eng.Start()
	defer eng.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, eng.Tick(ctx))
	assert.Zero(t, eng.Ledger().Len())
}
