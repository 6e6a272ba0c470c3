package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Opportunity is the persisted, user-facing record for one qualifying insider
// transaction. The natural key (ticker, trade_date, insider_name, action,
// cadence) is enforced with an existence check before every insert, so the
// pipeline stays at-least-once safe across restarts.
type Opportunity struct {
	ID uint64 `gorm:"primaryKey;autoIncrement"`

	Ticker      string `gorm:"type:varchar(16);not null;index:idx_opportunity_natural,priority:1"`
	CompanyName string `gorm:"type:varchar(255);not null"`
	Action      string `gorm:"type:varchar(8);not null;index:idx_opportunity_natural,priority:4"`
	Cadence     string `gorm:"type:varchar(20);not null;index:idx_opportunity_natural,priority:5"`
	BatchID     string `gorm:"type:varchar(64);not null;index"`

	CurrentPrice decimal.Decimal `gorm:"type:numeric(20,6);not null"`

	InsiderName   string          `gorm:"type:varchar(255);not null;index:idx_opportunity_natural,priority:3"`
	InsiderTitle  string          `gorm:"type:varchar(255)"`
	TradeDate     string          `gorm:"type:varchar(10);not null;index:idx_opportunity_natural,priority:2"`
	Quantity      decimal.Decimal `gorm:"type:numeric(30,6);not null"`
	PricePerShare decimal.Decimal `gorm:"type:numeric(20,6);not null"`

	// MarketCap is in millions of USD, as reported by the profile provider.
	MarketCap *decimal.Decimal `gorm:"type:numeric(30,6)"`
	Country   *string          `gorm:"type:varchar(64)"`
	Industry  *string          `gorm:"type:varchar(128)"`

	Source          string `gorm:"type:varchar(32);not null;default:'archive-realtime'"`
	ConfidenceScore int    `gorm:"not null"`

	CreatedAt time.Time `gorm:"type:timestamptz;autoCreateTime;index"`
	UpdatedAt time.Time `gorm:"type:timestamptz;autoUpdateTime"`
}

func (Opportunity) TableName() string {
	return "opportunities"
}

// OpportunityBatch groups opportunities discovered inside one rolling time
// window. Batches are reused until their TTL elapses; downstream consumers
// must tolerate either reuse or rotation.
type OpportunityBatch struct {
	ID        string    `gorm:"type:varchar(64);primaryKey"`
	Cadence   string    `gorm:"type:varchar(20);not null;index"`
	Source    string    `gorm:"type:varchar(32);not null"`
	Count     int       `gorm:"not null"`
	CreatedAt time.Time `gorm:"type:timestamptz;autoCreateTime;index"`
}

func (OpportunityBatch) TableName() string {
	return "opportunity_batches"
}
