package strategy

import (
	"context"
	"time"
)

// AuditEventType tags what a trade-log row records.
type AuditEventType string

const (
	AuditDecision AuditEventType = "decision"
	AuditFill     AuditEventType = "fill"
	AuditClose    AuditEventType = "close"
)

// AuditEvent is one append-only trade-log entry. The ledger itself stays
// in-memory; this trail only feeds reporting.
type AuditEvent struct {
	Type        AuditEventType
	SignalID    int64
	SignalValue float64
	Side        string
	Status      string
	OrderID     string
	Amount      string
	Price       string
	Detail      map[string]any
	At          time.Time
}

// AuditLog persists audit events. Implementations must tolerate being called
// from the engine loop and should never block it for long.
type AuditLog interface {
	Append(ctx context.Context, evt AuditEvent) error
}
