package gormrepository

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"insiderwatch/internal/models"
	"insiderwatch/internal/repository"
)

type Store struct {
	db *gorm.DB
}

func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

func (s *Store) OpportunityExists(ctx context.Context, ticker, tradeDate, insiderName, action, cadence string) (bool, error) {
	if s == nil || s.db == nil {
		return false, nil
	}
	var count int64
	err := s.db.WithContext(ctx).
		Model(&models.Opportunity{}).
		Where("ticker = ?", ticker).
		Where("trade_date = ?", tradeDate).
		Where("insider_name = ?", insiderName).
		Where("action = ?", action).
		Where("cadence = ?", cadence).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (s *Store) CreateOpportunity(ctx context.Context, item *models.Opportunity) error {
	if s == nil || s.db == nil || item == nil {
		return nil
	}
	return s.db.WithContext(ctx).Create(item).Error
}

func (s *Store) ListOpportunities(ctx context.Context, params repository.ListOpportunitiesParams) ([]models.Opportunity, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	query := applyOpportunityFilters(s.db.WithContext(ctx).Model(&models.Opportunity{}), params)
	query = applyOrder(query, params.OrderBy, params.Asc, "created_at")
	var items []models.Opportunity
	if err := query.Limit(normalizeLimit(params.Limit, 100)).Offset(normalizeOffset(params.Offset)).Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (s *Store) CountOpportunities(ctx context.Context, params repository.ListOpportunitiesParams) (int64, error) {
	if s == nil || s.db == nil {
		return 0, nil
	}
	var count int64
	err := applyOpportunityFilters(s.db.WithContext(ctx).Model(&models.Opportunity{}), params).Count(&count).Error
	return count, err
}

func applyOpportunityFilters(query *gorm.DB, params repository.ListOpportunitiesParams) *gorm.DB {
	if params.Ticker != nil && strings.TrimSpace(*params.Ticker) != "" {
		query = query.Where("ticker = ?", strings.ToUpper(strings.TrimSpace(*params.Ticker)))
	}
	if params.Cadence != nil && strings.TrimSpace(*params.Cadence) != "" {
		query = query.Where("cadence = ?", strings.TrimSpace(*params.Cadence))
	}
	if params.BatchID != nil && strings.TrimSpace(*params.BatchID) != "" {
		query = query.Where("batch_id = ?", strings.TrimSpace(*params.BatchID))
	}
	return query
}

func (s *Store) CreateOpportunityBatch(ctx context.Context, item *models.OpportunityBatch) error {
	if s == nil || s.db == nil || item == nil {
		return nil
	}
	return s.db.WithContext(ctx).Create(item).Error
}

func (s *Store) IncrementBatchCount(ctx context.Context, batchID string) error {
	if s == nil || s.db == nil || strings.TrimSpace(batchID) == "" {
		return nil
	}
	return s.db.WithContext(ctx).
		Model(&models.OpportunityBatch{}).
		Where("id = ?", batchID).
		UpdateColumn("count", gorm.Expr("count + 1")).Error
}

func (s *Store) GetAnalysis(ctx context.Context, ticker string) (*models.StockAnalysis, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	var item models.StockAnalysis
	err := s.db.WithContext(ctx).Where("ticker = ?", ticker).First(&item).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (s *Store) EnqueueAnalysisJob(ctx context.Context, item *models.AnalysisJob) error {
	if s == nil || s.db == nil || item == nil {
		return nil
	}
	return s.db.WithContext(ctx).Create(item).Error
}

func (s *Store) GetSystemSetting(ctx context.Context, key string) (*models.SystemSetting, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	var item models.SystemSetting
	err := s.db.WithContext(ctx).Where("key = ?", key).First(&item).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (s *Store) UpsertSystemSetting(ctx context.Context, item *models.SystemSetting) error {
	if s == nil || s.db == nil || item == nil {
		return nil
	}
	if strings.TrimSpace(item.Key) == "" {
		return nil
	}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(item).Error
}

func applyOrder(query *gorm.DB, orderBy string, asc *bool, fallback string) *gorm.DB {
	column := strings.TrimSpace(orderBy)
	if column == "" {
		column = fallback
	}
	direction := "desc"
	if asc != nil && *asc {
		direction = "asc"
	}
	return query.Order(column + " " + direction)
}

func normalizeLimit(limit, fallback int) int {
	if limit <= 0 || limit > 1000 {
		return fallback
	}
	return limit
}

func normalizeOffset(offset int) int {
	if offset < 0 {
		return 0
	}
	return offset
}
