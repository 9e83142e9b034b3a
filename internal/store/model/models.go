package model

import (
	"time"

	"gorm.io/datatypes"
)

// TradeEventModel is one append-only audit row: a sizing decision, a fill
// enrichment or a close. Amounts and prices are stored as strings to keep
// decimal exactness through the database round trip.
type TradeEventModel struct {
	ID          uint           `gorm:"primaryKey;autoIncrement"`
	Type        string         `gorm:"size:16;index"`
	SignalID    int64          `gorm:"index"`
	SignalValue float64        ``
	Side        string         `gorm:"size:8"`
	Status      string         `gorm:"size:24"`
	OrderID     string         `gorm:"size:64;index"`
	Amount      string         `gorm:"size:32"`
	Price       string         `gorm:"size:32"`
	Detail      datatypes.JSON ``
	CreatedAt   time.Time      `gorm:"index"`
}

func (TradeEventModel) TableName() string {
	return "trade_events"
}
