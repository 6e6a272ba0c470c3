package repository

import (
	"context"

	"insiderwatch/internal/models"
)

// Repository is the persistence surface the poller and handlers depend on.
type Repository interface {
	// Opportunities.
	OpportunityExists(ctx context.Context, ticker, tradeDate, insiderName, action, cadence string) (bool, error)
	CreateOpportunity(ctx context.Context, item *models.Opportunity) error
	ListOpportunities(ctx context.Context, params ListOpportunitiesParams) ([]models.Opportunity, error)
	CountOpportunities(ctx context.Context, params ListOpportunitiesParams) (int64, error)

	// Batches.
	CreateOpportunityBatch(ctx context.Context, item *models.OpportunityBatch) error
	IncrementBatchCount(ctx context.Context, batchID string) error

	// Analysis queue contract.
	GetAnalysis(ctx context.Context, ticker string) (*models.StockAnalysis, error)
	EnqueueAnalysisJob(ctx context.Context, item *models.AnalysisJob) error

	// Settings store.
	GetSystemSetting(ctx context.Context, key string) (*models.SystemSetting, error)
	UpsertSystemSetting(ctx context.Context, item *models.SystemSetting) error
}

type ListOpportunitiesParams struct {
	Limit   int
	Offset  int
	Ticker  *string
	Cadence *string
	BatchID *string
	OrderBy string
	Asc     *bool
}
