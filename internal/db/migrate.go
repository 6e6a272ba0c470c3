package db

import (
	"insiderwatch/internal/models"
)

func AutoMigrate(db *DB) error {
	if db == nil || db.Gorm == nil || db.SQL == nil {
		return nil
	}

	return db.Gorm.AutoMigrate(
		&models.OpportunityBatch{},
		&models.Opportunity{},
		&models.StockAnalysis{},
		&models.AnalysisJob{},
		&models.SystemSetting{},
	)
}
