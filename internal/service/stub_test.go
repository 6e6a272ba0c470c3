package service

import (
	"context"
	"sync"
	"time"

	"insiderwatch/internal/client/edgar"
	"insiderwatch/internal/client/marketdata"
	"insiderwatch/internal/models"
	"insiderwatch/internal/repository"
)

// stubRepo is a test-only in-memory implementation of repository.Repository.
type stubRepo struct {
	mu sync.Mutex

	existing      map[string]bool
	opportunities []models.Opportunity
	batches       []models.OpportunityBatch
	increments    map[string]int
	analyses      map[string]*models.StockAnalysis
	jobs          []models.AnalysisJob
	settings      map[string]*models.SystemSetting
}

func newStubRepo() *stubRepo {
	return &stubRepo{
		existing:   map[string]bool{},
		increments: map[string]int{},
		analyses:   map[string]*models.StockAnalysis{},
		settings:   map[string]*models.SystemSetting{},
	}
}

func naturalKey(ticker, tradeDate, insiderName, action, cadence string) string {
	return ticker + "|" + tradeDate + "|" + insiderName + "|" + action + "|" + cadence
}

func (s *stubRepo) OpportunityExists(ctx context.Context, ticker, tradeDate, insiderName, action, cadence string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.existing[naturalKey(ticker, tradeDate, insiderName, action, cadence)], nil
}

func (s *stubRepo) CreateOpportunity(ctx context.Context, item *models.Opportunity) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.opportunities = append(s.opportunities, *item)
	s.existing[naturalKey(item.Ticker, item.TradeDate, item.InsiderName, item.Action, item.Cadence)] = true
	return nil
}

func (s *stubRepo) ListOpportunities(ctx context.Context, params repository.ListOpportunitiesParams) ([]models.Opportunity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.Opportunity(nil), s.opportunities...), nil
}

func (s *stubRepo) CountOpportunities(ctx context.Context, params repository.ListOpportunitiesParams) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return int64(len(s.opportunities)), nil
}

func (s *stubRepo) CreateOpportunityBatch(ctx context.Context, item *models.OpportunityBatch) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.batches = append(s.batches, *item)
	return nil
}

func (s *stubRepo) IncrementBatchCount(ctx context.Context, batchID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.increments[batchID]++
	return nil
}

func (s *stubRepo) GetAnalysis(ctx context.Context, ticker string) (*models.StockAnalysis, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.analyses[ticker], nil
}

func (s *stubRepo) EnqueueAnalysisJob(ctx context.Context, item *models.AnalysisJob) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs = append(s.jobs, *item)
	return nil
}

func (s *stubRepo) GetSystemSetting(ctx context.Context, key string) (*models.SystemSetting, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.settings[key], nil
}

func (s *stubRepo) UpsertSystemSetting(ctx context.Context, item *models.SystemSetting) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.settings[item.Key] = item
	return nil
}

// stubArchive serves canned archive responses and counts calls.
type stubArchive struct {
	mu sync.Mutex

	feed     []byte
	feedErr  error
	index    []string
	indexErr error
	docs     map[string][]byte
	daily    []byte
	dailyErr error

	feedCalls  int
	indexCalls int
	docCalls   int
}

func (a *stubArchive) LatestFilingsFeed(ctx context.Context, formType string, count int) ([]byte, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.feedCalls++
	if a.feedErr != nil {
		return nil, a.feedErr
	}
	return a.feed, nil
}

func (a *stubArchive) FilingIndex(ctx context.Context, cik, accessionNumber string) ([]string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.indexCalls++
	if a.indexErr != nil {
		return nil, a.indexErr
	}
	return a.index, nil
}

func (a *stubArchive) FilingDocument(ctx context.Context, cik, accessionNumber, filename string) ([]byte, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.docCalls++
	if doc, ok := a.docs[filename]; ok {
		return doc, nil
	}
	return nil, &edgar.APIError{Status: 404, Body: "missing"}
}

func (a *stubArchive) DailyIndex(ctx context.Context, day time.Time) ([]byte, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.dailyErr != nil {
		return nil, a.dailyErr
	}
	return a.daily, nil
}

// stubMarket returns fixed quote and profile answers.
type stubMarket struct {
	quote      *marketdata.Quote
	quoteErr   error
	profile    *marketdata.CompanyProfile
	profileErr error
}

func (m *stubMarket) GetQuote(ctx context.Context, ticker string) (*marketdata.Quote, error) {
	if m.quoteErr != nil {
		return nil, m.quoteErr
	}
	return m.quote, nil
}

func (m *stubMarket) GetCompanyProfile(ctx context.Context, ticker string) (*marketdata.CompanyProfile, error) {
	if m.profileErr != nil {
		return nil, m.profileErr
	}
	return m.profile, nil
}

// stubResolver resolves from a fixed map.
type stubResolver struct {
	mu        sync.Mutex
	byCIK     map[string]string
	initErr   error
	initCalls int
}

func (r *stubResolver) Initialize(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.initCalls++
	return r.initErr
}

func (r *stubResolver) Ticker(cik string) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ticker, ok := r.byCIK[edgar.NormalizeCIK(cik)]
	return ticker, ok
}
