package models

import "time"

// StockAnalysis mirrors the scoring engine's result table. The poller only
// reads it to decide whether a ticker still needs a job enqueued.
type StockAnalysis struct {
	Ticker    string    `gorm:"type:varchar(16);primaryKey"`
	Status    string    `gorm:"type:varchar(20);not null"`
	UpdatedAt time.Time `gorm:"type:timestamptz;autoUpdateTime"`
}

func (StockAnalysis) TableName() string {
	return "stock_analyses"
}

// AnalysisJob is the enqueue contract with the scoring engine: one row per
// requested analysis, consumed out-of-band.
type AnalysisJob struct {
	ID        uint64    `gorm:"primaryKey;autoIncrement"`
	Ticker    string    `gorm:"type:varchar(16);not null;index"`
	Reason    string    `gorm:"type:varchar(64);not null"`
	Priority  string    `gorm:"type:varchar(10);not null;default:'normal'"`
	Status    string    `gorm:"type:varchar(20);not null;default:'queued';index"`
	CreatedAt time.Time `gorm:"type:timestamptz;autoCreateTime;index"`
}

func (AnalysisJob) TableName() string {
	return "analysis_jobs"
}
