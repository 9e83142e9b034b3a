// Package tradelog persists the audit trail behind the status API. The
// in-memory ledger is never rebuilt from this database; rows are written
// once and only ever read back for reporting.
package tradelog

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gorm.io/datatypes"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
	_ "modernc.org/sqlite"

	storemodel "vectra/internal/store/model"
	"vectra/internal/strategy"
)

// Store implements strategy.AuditLog on gorm + SQLite.
type Store struct {
	db *gorm.DB
}

// New opens (and migrates) the trade log at path. The cgo-free modernc
// driver backs the gorm sqlite dialector.
func New(path string) (*Store, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, fmt.Errorf("tradelog: path cannot be empty")
	}
	if err := ensureDir(path); err != nil {
		return nil, err
	}
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)", path)
	db, err := gorm.Open(sqlite.Dialector{DriverName: "sqlite", DSN: dsn}, &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("tradelog: open %s: %w", path, err)
	}
	if err := db.AutoMigrate(&storemodel.TradeEventModel{}); err != nil {
		return nil, fmt.Errorf("tradelog: migrate: %w", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	// Single writer keeps SQLite lock contention away from the engine loop.
	sqlDB.SetMaxOpenConns(1)
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Append writes one audit row.
func (s *Store) Append(ctx context.Context, evt strategy.AuditEvent) error {
	row := storemodel.TradeEventModel{
		Type:        string(evt.Type),
		SignalID:    evt.SignalID,
		SignalValue: evt.SignalValue,
		Side:        evt.Side,
		Status:      evt.Status,
		OrderID:     evt.OrderID,
		Amount:      evt.Amount,
		Price:       evt.Price,
		CreatedAt:   evt.At,
	}
	if row.CreatedAt.IsZero() {
		row.CreatedAt = time.Now()
	}
	if len(evt.Detail) > 0 {
		raw, err := json.Marshal(evt.Detail)
		if err != nil {
			return fmt.Errorf("tradelog: marshal detail: %w", err)
		}
		row.Detail = datatypes.JSON(raw)
	}
	return s.db.WithContext(ctx).Create(&row).Error
}

// Recent returns the newest rows first.
func (s *Store) Recent(ctx context.Context, limit int) ([]storemodel.TradeEventModel, error) {
	if limit <= 0 {
		limit = 100
	}
	var rows []storemodel.TradeEventModel
	err := s.db.WithContext(ctx).
		Order("id DESC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// BySignal returns all rows recorded for one signal id, oldest first.
func (s *Store) BySignal(ctx context.Context, signalID int64) ([]storemodel.TradeEventModel, error) {
	var rows []storemodel.TradeEventModel
	err := s.db.WithContext(ctx).
		Where("signal_id = ?", signalID).
		Order("id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func ensureDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}

var _ strategy.AuditLog = (*Store)(nil)
