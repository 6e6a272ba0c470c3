// Package service contains the polling orchestrator and the settings layer
// that feed the insider-opportunity pipeline.
package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"insiderwatch/internal/client/edgar"
	"insiderwatch/internal/client/marketdata"
	"insiderwatch/internal/config"
	"insiderwatch/internal/filter"
	"insiderwatch/internal/models"
	"insiderwatch/internal/parser"
	"insiderwatch/internal/repository"
)

// Health states reported by Status.
const (
	HealthUnknown  = "unknown"
	HealthHealthy  = "healthy"
	HealthDegraded = "degraded"
)

const (
	cadenceRealtime = "realtime"
	sourceRealtime  = "archive-realtime"
	sourceBackfill  = "archive-backfill"

	actionBuy  = "buy"
	actionSell = "sell"

	confidenceArchive = 80
)

// ArchiveClient is the slice of the filings-archive client the poller uses.
type ArchiveClient interface {
	LatestFilingsFeed(ctx context.Context, formType string, count int) ([]byte, error)
	FilingIndex(ctx context.Context, cik, accessionNumber string) ([]string, error)
	FilingDocument(ctx context.Context, cik, accessionNumber, filename string) ([]byte, error)
	DailyIndex(ctx context.Context, day time.Time) ([]byte, error)
}

// MarketData quotes and profiles the tickers under evaluation.
type MarketData interface {
	GetQuote(ctx context.Context, ticker string) (*marketdata.Quote, error)
	GetCompanyProfile(ctx context.Context, ticker string) (*marketdata.CompanyProfile, error)
}

// TickerResolver maps registry identifiers to trading symbols.
type TickerResolver interface {
	Initialize(ctx context.Context) error
	Ticker(cik string) (string, bool)
}

// Status is a point-in-time snapshot of the poller's state.
type Status struct {
	IsPolling                bool       `json:"is_polling"`
	Interval                 string     `json:"interval"`
	HealthStatus             string     `json:"health_status"`
	LastProcessedAccession   string     `json:"last_processed_accession,omitempty"`
	CurrentBatchID           string     `json:"current_batch_id,omitempty"`
	BatchCreatedAt           *time.Time `json:"batch_created_at,omitempty"`
	LastSuccessfulPollAt     *time.Time `json:"last_successful_poll_at,omitempty"`
	MinutesSinceLastPoll     *float64   `json:"minutes_since_last_poll,omitempty"`
	ConsecutiveCycleFailures int        `json:"consecutive_cycle_failures"`
}

// Poller drives the realtime ingestion loop: fetch the latest-filings feed,
// resolve each submission to a ticker, parse its disclosure document, filter
// the transactions, and persist the survivors as opportunities.
type Poller struct {
	Archive  ArchiveClient
	Market   MarketData
	Resolver TickerResolver
	Repo     repository.Repository
	Settings *FilterSettingsService
	Logger   *zap.Logger
	Config   config.PollerConfig

	mu      sync.Mutex
	baseCtx context.Context
	cancel  context.CancelFunc

	isPolling bool
	inFlight  bool
	interval  time.Duration

	health                 string
	lastProcessedAccession string
	currentBatchID         string
	batchCreatedAt         time.Time
	startedAt              time.Time
	lastSuccessfulPollAt   time.Time
	cycleFailures          int

	now func() time.Time
}

func (p *Poller) clock() time.Time {
	if p.now != nil {
		return p.now()
	}
	return time.Now()
}

// Start initializes the ticker resolver and launches the polling and
// health-check loops. Starting an already-running poller is a logged no-op.
// A resolver that cannot be initialized after the configured retries is a
// fatal startup error.
func (p *Poller) Start(ctx context.Context, interval time.Duration) error {
	p.mu.Lock()
	if p.isPolling {
		p.mu.Unlock()
		p.Logger.Info("poller already running, start ignored")
		return nil
	}
	p.mu.Unlock()

	if interval <= 0 {
		interval = p.Config.Interval
	}
	if interval <= 0 {
		interval = 5 * time.Minute
	}

	if err := p.initResolver(ctx); err != nil {
		return fmt.Errorf("initializing ticker resolver: %w", err)
	}

	p.mu.Lock()
	if p.isPolling {
		p.mu.Unlock()
		return nil
	}
	loopCtx, cancel := context.WithCancel(ctx)
	p.baseCtx = ctx
	p.cancel = cancel
	p.isPolling = true
	p.interval = interval
	p.health = HealthHealthy
	p.startedAt = p.clock()
	p.mu.Unlock()

	p.Logger.Info("poller started", zap.Duration("interval", interval))
	go p.runPollLoop(loopCtx, interval)
	go p.runHealthLoop(loopCtx)
	return nil
}

func (p *Poller) initResolver(ctx context.Context) error {
	retries := p.Config.StartMaxRetries
	if retries <= 0 {
		retries = 3
	}
	backoff := time.Second
	var err error
	for attempt := 1; attempt <= retries; attempt++ {
		if err = p.Resolver.Initialize(ctx); err == nil {
			return nil
		}
		p.Logger.Warn("ticker resolver init failed",
			zap.Int("attempt", attempt),
			zap.Error(err))
		if attempt == retries {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
		if backoff < 10*time.Second {
			backoff *= 2
		}
	}
	return err
}

func (p *Poller) runPollLoop(ctx context.Context, interval time.Duration) {
	p.runCycle(ctx)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.runCycle(ctx)
		}
	}
}

func (p *Poller) runHealthLoop(ctx context.Context) {
	interval := p.Config.HealthCheckInterval
	if interval <= 0 {
		interval = 2 * time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.checkHealth()
		}
	}
}

// checkHealth flips the poller to degraded when no cycle has completed
// within the staleness threshold. It only reads state; a supervisor or
// operator decides whether to restart.
func (p *Poller) checkHealth() {
	threshold := p.Config.StalenessThreshold
	if threshold <= 0 {
		threshold = 10 * time.Minute
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.isPolling {
		return
	}
	// Staleness is measured from Start when no cycle has completed yet, so
	// a first cycle that hangs forever still trips the check.
	reference := p.startedAt
	if p.lastSuccessfulPollAt.After(reference) {
		reference = p.lastSuccessfulPollAt
	}
	if reference.IsZero() {
		return
	}
	stale := p.clock().Sub(reference)
	if stale > threshold && p.health != HealthDegraded {
		p.health = HealthDegraded
		p.Logger.Error("poller degraded, no successful cycle within threshold",
			zap.Duration("since_last_success", stale),
			zap.Duration("threshold", threshold))
	}
}

// Stop cancels the polling loops. Safe to call repeatedly.
func (p *Poller) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.isPolling {
		return
	}
	if p.cancel != nil {
		p.cancel()
		p.cancel = nil
	}
	p.isPolling = false
	p.health = HealthUnknown
	p.Logger.Info("poller stopped")
}

// Restart stops the loops and starts them again with the last interval.
func (p *Poller) Restart() error {
	p.mu.Lock()
	ctx := p.baseCtx
	interval := p.interval
	p.mu.Unlock()
	if ctx == nil {
		return fmt.Errorf("poller was never started")
	}
	p.Stop()
	return p.Start(ctx, interval)
}

// TriggerPoll runs one cycle out-of-band without disturbing the schedule.
// It refuses to overlap a cycle already in flight.
func (p *Poller) TriggerPoll(ctx context.Context) error {
	if !p.tryBeginCycle() {
		return fmt.Errorf("a poll cycle is already in flight")
	}
	defer p.endCycle()
	if err := p.initResolver(ctx); err != nil {
		return fmt.Errorf("initializing ticker resolver: %w", err)
	}
	return p.pollOnce(ctx)
}

// Status reports the current poller state.
func (p *Poller) Status() Status {
	p.mu.Lock()
	defer p.mu.Unlock()
	status := Status{
		IsPolling:                p.isPolling,
		HealthStatus:             p.health,
		LastProcessedAccession:   p.lastProcessedAccession,
		CurrentBatchID:           p.currentBatchID,
		ConsecutiveCycleFailures: p.cycleFailures,
	}
	if status.HealthStatus == "" {
		status.HealthStatus = HealthUnknown
	}
	if p.interval > 0 {
		status.Interval = p.interval.String()
	}
	if p.currentBatchID != "" && !p.batchCreatedAt.IsZero() {
		created := p.batchCreatedAt
		status.BatchCreatedAt = &created
	}
	if !p.lastSuccessfulPollAt.IsZero() {
		at := p.lastSuccessfulPollAt
		status.LastSuccessfulPollAt = &at
		minutes := p.clock().Sub(at).Minutes()
		status.MinutesSinceLastPoll = &minutes
	}
	return status
}

func (p *Poller) tryBeginCycle() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.inFlight {
		return false
	}
	p.inFlight = true
	return true
}

func (p *Poller) endCycle() {
	p.mu.Lock()
	p.inFlight = false
	p.mu.Unlock()
}

func (p *Poller) runCycle(ctx context.Context) {
	if !p.tryBeginCycle() {
		p.Logger.Warn("skipping scheduled cycle, previous cycle still in flight")
		return
	}
	defer p.endCycle()
	if err := p.pollOnce(ctx); err != nil {
		p.mu.Lock()
		p.cycleFailures++
		failures := p.cycleFailures
		p.mu.Unlock()
		p.Logger.Error("poll cycle failed",
			zap.Int("consecutive_failures", failures),
			zap.Error(err))
	}
}

// pollOnce runs a single ingestion cycle against the latest-filings feed.
// Per-filing and per-transaction failures are contained; only feed-level
// failures fail the cycle.
func (p *Poller) pollOnce(ctx context.Context) error {
	started := p.clock()
	filterCfg := p.Settings.Snapshot(ctx)

	formType := p.Config.FormType
	if formType == "" {
		formType = "4"
	}
	pageSize := p.Config.FeedPageSize
	if pageSize <= 0 {
		pageSize = 40
	}

	raw, err := p.Archive.LatestFilingsFeed(ctx, formType, pageSize)
	if err != nil {
		if edgar.IsForbidden(err) {
			p.Logger.Error("archive rejected our identification header, check product/contact config", zap.Error(err))
		}
		return fmt.Errorf("fetching latest filings feed: %w", err)
	}
	refs, err := parser.ParseFeed(raw)
	if err != nil {
		return fmt.Errorf("parsing latest filings feed: %w", err)
	}
	// Feed is newest-first; process oldest-first so the watermark moves
	// forward in filing order.
	for i, j := 0, len(refs)-1; i < j; i, j = i+1, j-1 {
		refs[i], refs[j] = refs[j], refs[i]
	}

	p.mu.Lock()
	watermark := p.lastProcessedAccession
	p.mu.Unlock()
	refs = trimThroughAccession(refs, watermark)

	processed := 0
	for _, ref := range refs {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := p.processFiling(ctx, ref, filterCfg, sourceRealtime, started); err != nil {
			p.Logger.Warn("filing processing failed",
				zap.String("accession", ref.AccessionNumber),
				zap.String("cik", ref.CIK),
				zap.Error(err))
		}
		processed++
		p.mu.Lock()
		p.lastProcessedAccession = ref.AccessionNumber
		p.mu.Unlock()
	}

	p.mu.Lock()
	p.lastSuccessfulPollAt = p.clock()
	p.health = HealthHealthy
	p.cycleFailures = 0
	p.mu.Unlock()
	p.Logger.Info("poll cycle complete",
		zap.Int("feed_entries", len(refs)),
		zap.Int("processed", processed),
		zap.Duration("took", p.clock().Sub(started)))
	return nil
}

// trimThroughAccession drops everything up to and including the watermark
// when it is present in the oldest-first slice. Best-effort session-local
// dedup; the database existence check is the real guard.
func trimThroughAccession(refs []parser.FilingReference, watermark string) []parser.FilingReference {
	if watermark == "" {
		return refs
	}
	for i, ref := range refs {
		if ref.AccessionNumber == watermark {
			return refs[i+1:]
		}
	}
	return refs
}

func (p *Poller) processFiling(ctx context.Context, ref parser.FilingReference, filterCfg filter.Config, source string, refDate time.Time) error {
	doc := p.fetchDisclosureDocument(ctx, ref)
	if doc == nil {
		p.Logger.Debug("no disclosure document found for filing",
			zap.String("accession", ref.AccessionNumber),
			zap.String("cik", ref.CIK))
		return nil
	}

	ticker, ok := p.Resolver.Ticker(ref.CIK)
	if !ok {
		// Feed entries carry the reporting owner's CIK as often as the
		// issuer's; the document itself names the issuer.
		if issuerCIK := parser.ExtractIssuerCIK(doc); issuerCIK != "" {
			ticker, ok = p.Resolver.Ticker(issuerCIK)
		}
	}
	if !ok {
		p.Logger.Debug("no ticker mapping for filing, skipping",
			zap.String("cik", ref.CIK),
			zap.String("accession", ref.AccessionNumber))
		return nil
	}

	txs, err := parser.ParseOwnershipDocument(doc)
	if err != nil {
		return fmt.Errorf("parsing disclosure document: %w", err)
	}
	for _, tx := range txs {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := p.processTransaction(ctx, ticker, tx, filterCfg, source, refDate); err != nil {
			p.Logger.Warn("transaction processing failed",
				zap.String("ticker", ticker),
				zap.String("insider", tx.OwnerName),
				zap.Error(err))
		}
	}
	return nil
}

// fetchDisclosureDocument tries each retrieval strategy in order and returns
// the first payload that looks like an ownership document, or nil.
func (p *Poller) fetchDisclosureDocument(ctx context.Context, ref parser.FilingReference) []byte {
	strategies := []func(context.Context, parser.FilingReference) []byte{
		p.documentFromIndex,
		p.documentFromConventionalNames,
	}
	for _, strategy := range strategies {
		if doc := strategy(ctx, ref); doc != nil {
			return doc
		}
	}
	return nil
}

// documentFromIndex lists the filing's directory and fetches the first XML
// member that is neither a stylesheet rendering nor an index page.
func (p *Poller) documentFromIndex(ctx context.Context, ref parser.FilingReference) []byte {
	names, err := p.Archive.FilingIndex(ctx, ref.CIK, ref.AccessionNumber)
	if err != nil {
		if !edgar.IsNotFound(err) {
			p.Logger.Debug("filing index fetch failed",
				zap.String("accession", ref.AccessionNumber),
				zap.Error(err))
		}
		return nil
	}
	for _, name := range names {
		lower := strings.ToLower(name)
		if !strings.HasSuffix(lower, ".xml") {
			continue
		}
		if strings.Contains(lower, "xslf345x05") || strings.Contains(lower, "index") {
			continue
		}
		doc, err := p.Archive.FilingDocument(ctx, ref.CIK, ref.AccessionNumber, name)
		if err != nil {
			continue
		}
		if parser.LooksLikeOwnershipDocument(doc) {
			return doc
		}
	}
	return nil
}

// documentFromConventionalNames probes the filename patterns the archive
// conventionally uses for the primary document.
func (p *Poller) documentFromConventionalNames(ctx context.Context, ref parser.FilingReference) []byte {
	compact := edgar.StripAccessionDashes(ref.AccessionNumber)
	for _, name := range []string{compact + ".xml", compact + "-form4.xml"} {
		doc, err := p.Archive.FilingDocument(ctx, ref.CIK, ref.AccessionNumber, name)
		if err != nil {
			continue
		}
		if parser.LooksLikeOwnershipDocument(doc) {
			return doc
		}
	}
	return nil
}

func (p *Poller) processTransaction(ctx context.Context, ticker string, tx parser.InsiderTransaction, filterCfg filter.Config, source string, refDate time.Time) error {
	action := actionSell
	if tx.Code == parser.CodeAcquisition {
		action = actionBuy
	}

	exists, err := p.Repo.OpportunityExists(ctx, ticker, tx.TransactionDate, tx.OwnerName, action, cadenceRealtime)
	if err != nil {
		return fmt.Errorf("checking for existing opportunity: %w", err)
	}
	if exists {
		return nil
	}

	quote, err := p.Market.GetQuote(ctx, ticker)
	if err != nil {
		p.Logger.Debug("quote unavailable, skipping transaction",
			zap.String("ticker", ticker), zap.Error(err))
		return nil
	}

	profile, err := p.Market.GetCompanyProfile(ctx, ticker)
	if err != nil {
		p.Logger.Debug("company profile unavailable",
			zap.String("ticker", ticker), zap.Error(err))
		profile = nil
	}
	var marketCap *decimal.Decimal
	if profile != nil {
		marketCap = profile.MarketCap
	}

	if !filter.Passes(tx, quote.CurrentPrice, marketCap, filterCfg, refDate) {
		return nil
	}

	batchID, err := p.currentBatch(ctx, source)
	if err != nil {
		return fmt.Errorf("resolving opportunity batch: %w", err)
	}

	opp := &models.Opportunity{
		Ticker:          ticker,
		CompanyName:     ticker,
		Action:          action,
		Cadence:         cadenceRealtime,
		BatchID:         batchID,
		CurrentPrice:    quote.CurrentPrice,
		InsiderName:     tx.OwnerName,
		InsiderTitle:    filter.DeriveTitle(tx),
		TradeDate:       tx.TransactionDate,
		Quantity:        tx.Shares,
		PricePerShare:   tx.PricePerShare,
		MarketCap:       marketCap,
		Source:          source,
		ConfidenceScore: confidenceArchive,
	}
	if profile != nil {
		if profile.Name != "" {
			opp.CompanyName = profile.Name
		}
		if profile.Country != "" {
			country := profile.Country
			opp.Country = &country
		}
		if profile.Industry != "" {
			industry := profile.Industry
			opp.Industry = &industry
		}
	}
	if err := p.Repo.CreateOpportunity(ctx, opp); err != nil {
		return fmt.Errorf("persisting opportunity: %w", err)
	}
	p.Logger.Info("opportunity recorded",
		zap.String("ticker", ticker),
		zap.String("action", action),
		zap.String("insider", tx.OwnerName),
		zap.String("trade_date", tx.TransactionDate),
		zap.String("batch_id", batchID))

	return p.maybeEnqueueAnalysis(ctx, ticker)
}

// currentBatch reuses the open batch while it is younger than the TTL,
// otherwise rotates to a fresh one.
func (p *Poller) currentBatch(ctx context.Context, source string) (string, error) {
	ttl := p.Config.BatchTTL
	if ttl <= 0 {
		ttl = time.Hour
	}
	p.mu.Lock()
	batchID := p.currentBatchID
	createdAt := p.batchCreatedAt
	p.mu.Unlock()

	if batchID != "" && p.clock().Sub(createdAt) < ttl {
		if err := p.Repo.IncrementBatchCount(ctx, batchID); err != nil {
			return "", err
		}
		return batchID, nil
	}

	batch := &models.OpportunityBatch{
		ID:      uuid.NewString(),
		Cadence: cadenceRealtime,
		Source:  source,
		Count:   1,
	}
	if err := p.Repo.CreateOpportunityBatch(ctx, batch); err != nil {
		return "", err
	}
	p.mu.Lock()
	p.currentBatchID = batch.ID
	p.batchCreatedAt = p.clock()
	p.mu.Unlock()
	return batch.ID, nil
}

func (p *Poller) maybeEnqueueAnalysis(ctx context.Context, ticker string) error {
	analysis, err := p.Repo.GetAnalysis(ctx, ticker)
	if err != nil {
		return fmt.Errorf("checking analysis state: %w", err)
	}
	if analysis != nil && analysis.Status == "completed" {
		return nil
	}
	job := &models.AnalysisJob{
		Ticker:   ticker,
		Reason:   "insider_opportunity",
		Priority: "high",
		Status:   "queued",
	}
	if err := p.Repo.EnqueueAnalysisJob(ctx, job); err != nil {
		return fmt.Errorf("enqueueing analysis job: %w", err)
	}
	return nil
}

// CatchUpDailyIndex sweeps one day's master index for filings the realtime
// feed may have missed. A missing index (weekend, holiday, not yet
// published) is a clean no-op.
func (p *Poller) CatchUpDailyIndex(ctx context.Context, day time.Time) error {
	if !p.tryBeginCycle() {
		p.Logger.Info("daily index sweep skipped, a cycle is in flight")
		return nil
	}
	defer p.endCycle()

	if err := p.initResolver(ctx); err != nil {
		return fmt.Errorf("initializing ticker resolver: %w", err)
	}

	raw, err := p.Archive.DailyIndex(ctx, day)
	if err != nil {
		if edgar.IsNotFound(err) {
			p.Logger.Info("no daily index published for day",
				zap.String("day", day.Format("2006-01-02")))
			return nil
		}
		return fmt.Errorf("fetching daily index: %w", err)
	}

	formType := p.Config.FormType
	if formType == "" {
		formType = "4"
	}
	refs := parser.ParseDailyIndex(raw, formType)
	filterCfg := p.Settings.Snapshot(ctx)
	refDate := p.clock()

	for _, ref := range refs {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := p.processFiling(ctx, ref, filterCfg, sourceBackfill, refDate); err != nil {
			p.Logger.Warn("daily index filing failed",
				zap.String("accession", ref.AccessionNumber),
				zap.Error(err))
		}
	}
	p.Logger.Info("daily index sweep complete",
		zap.String("day", day.Format("2006-01-02")),
		zap.Int("filings", len(refs)))
	return nil
}
