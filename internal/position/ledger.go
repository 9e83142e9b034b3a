package position

import (
	"sync"
	"time"
)

// Ledger is the append-only table of position records. Records are created
// when a sizing decision places (or fails to place) an order, enriched in
// place by fill callbacks, and never deleted: the full history stays around
// as the audit trail behind the status report.
//
// All mutations run on the engine's event loop; the mutex only guards the
// read path used by the HTTP status handlers.
type Ledger struct {
	mu      sync.RWMutex
	records []*Record
	byOrder map[string]*Record
	nextID  int64
}

func NewLedger() *Ledger {
	return &Ledger{byOrder: make(map[string]*Record)}
}

// Append creates a new record and returns its signal id. Ids are handed out
// sequentially with no gaps. An empty openOrderID means no order was placed;
// the record is then expected to carry StatusNone.
func (l *Ledger) Append(signalValue float64, side Side, openOrderID string, status Status) int64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	rec := &Record{
		SignalID:    l.nextID,
		SignalValue: signalValue,
		Side:        side,
		OpenOrderID: openOrderID,
		Status:      status,
		CreatedAt:   time.Now(),
	}
	l.nextID++
	l.records = append(l.records, rec)
	if openOrderID != "" {
		l.byOrder[openOrderID] = rec
	}
	return rec.SignalID
}

// ApplyFill enriches the record owning the given open order id with its fill
// price, amount and derived exit levels. Returns false when no record
// matches. Repeated fills for the same order are ignored after the first
// application; exit levels never change once set.
func (l *Ledger) ApplyFill(openOrderID string, fill Fill) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	rec, ok := l.byOrder[openOrderID]
	if !ok {
		return false
	}
	if rec.Enriched() {
		return true
	}
	rec.EntryPrice.Decimal, rec.EntryPrice.Valid = fill.Price, true
	rec.FilledAmount.Decimal, rec.FilledAmount.Valid = fill.Amount, true
	rec.TakeProfitPrice = fill.TakeProfit
	rec.StopLossPrice = fill.StopLoss
	return true
}

// Close transitions a record out of StatusActive exactly once. A record that
// already reached a terminal status is left untouched and false is returned.
func (l *Ledger) Close(signalID int64, status Status, closeOrderID string) bool {
	if !status.Terminal() {
		return false
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	rec := l.bySignalID(signalID)
	if rec == nil || rec.Status != StatusActive {
		return false
	}
	rec.Status = status
	rec.CloseOrderID = closeOrderID
	rec.ClosedAt = time.Now()
	return true
}

// ActiveWithMaxSignal returns the signal id of the active record with the
// highest signal value, first-seen on exact ties. Used when a position
// reduction has to pick one open record to cancel.
func (l *Ledger) ActiveWithMaxSignal() (int64, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	var best *Record
	for _, rec := range l.records {
		if rec.Status != StatusActive {
			continue
		}
		if best == nil || rec.SignalValue > best.SignalValue {
			best = rec
		}
	}
	if best == nil {
		return 0, false
	}
	return best.SignalID, true
}

// Active returns copies of all records still in StatusActive, in creation
// order. The exit monitor iterates this captured view, so a close performed
// while scanning cannot shrink the scan.
func (l *Ledger) Active() []Record {
	l.mu.RLock()
	defer l.mu.RUnlock()
	var out []Record
	for _, rec := range l.records {
		if rec.Status == StatusActive {
			out = append(out, *rec)
		}
	}
	return out
}

// Snapshot returns copies of every record in creation order.
func (l *Ledger) Snapshot() []Record {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]Record, len(l.records))
	for i, rec := range l.records {
		out[i] = *rec
	}
	return out
}

// Len returns the number of records ever created.
func (l *Ledger) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.records)
}

func (l *Ledger) bySignalID(id int64) *Record {
	if id < 0 || id >= int64(len(l.records)) {
		return nil
	}
	return l.records[id]
}
