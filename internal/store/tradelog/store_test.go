package tradelog

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vectra/internal/strategy"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(filepath.Join(t.TempDir(), "tradelog.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestAppendAndRecent(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Append(ctx, strategy.AuditEvent{
		Type:        strategy.AuditDecision,
		SignalID:    0,
		SignalValue: 0.8,
		Side:        "BUY",
		Status:      "ACTIVE",
		OrderID:     "o1",
		Amount:      "0.1",
		Price:       "100",
		At:          time.Now(),
	}))
	require.NoError(t, s.Append(ctx, strategy.AuditEvent{
		Type:    strategy.AuditFill,
		OrderID: "o1",
		Amount:  "0.1",
		Price:   "100",
		Detail:  map[string]any{"tp_price": "103", "sl_price": "99"},
	}))

	rows, err := s.Recent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	// Newest first.
	assert.Equal(t, "fill", rows[0].Type)
	assert.Equal(t, "decision", rows[1].Type)
	assert.NotEmpty(t, rows[0].Detail)
	assert.False(t, rows[1].CreatedAt.IsZero())
}

func TestBySignal(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	for i := int64(0); i < 3; i++ {
		require.NoError(t, s.Append(ctx, strategy.AuditEvent{
			Type:     strategy.AuditDecision,
			SignalID: i,
			Status:   "ACTIVE",
		}))
	}
	require.NoError(t, s.Append(ctx, strategy.AuditEvent{
		Type:     strategy.AuditClose,
		SignalID: 1,
		Status:   "TAKE_PROFIT_HIT",
	}))

	rows, err := s.BySignal(ctx, 1)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "decision", rows[0].Type)
	assert.Equal(t, "close", rows[1].Type)
}

func TestNewRejectsEmptyPath(t *testing.T) {
	_, err := New("  ")
	assert.Error(t, err)
}
