// Package resolver maps the archive's numeric company keys to tradable
// ticker symbols, built once from the bulk directory and queried in memory.
package resolver

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"insiderwatch/internal/client/edgar"
)

// TickerSource is the slice of the archive client the resolver consumes.
type TickerSource interface {
	CompanyTickers(ctx context.Context) ([]edgar.CompanyTicker, error)
}

type Resolver struct {
	Source TickerSource
	Logger *zap.Logger

	mu          sync.RWMutex
	byCIK       map[string]string
	initialized bool
}

// Initialize downloads the bulk directory and builds the lookup map.
// Calling it again once initialized is a no-op.
func (r *Resolver) Initialize(ctx context.Context) error {
	r.mu.RLock()
	done := r.initialized
	r.mu.RUnlock()
	if done {
		return nil
	}

	tickers, err := r.Source.CompanyTickers(ctx)
	if err != nil {
		return fmt.Errorf("loading ticker directory: %w", err)
	}

	byCIK := make(map[string]string, len(tickers))
	for _, entry := range tickers {
		if entry.Ticker == "" {
			continue
		}
		// First mapping wins; the directory lists primary listings first.
		if _, ok := byCIK[entry.CIK]; !ok {
			byCIK[entry.CIK] = entry.Ticker
		}
	}

	r.mu.Lock()
	r.byCIK = byCIK
	r.initialized = true
	r.mu.Unlock()

	if r.Logger != nil {
		r.Logger.Info("ticker directory loaded", zap.Int("companies", len(byCIK)))
	}
	return nil
}

// Ticker resolves a company key to its symbol. ok is false for unknown keys
// and for non-equity filers with no mapped symbol; callers skip those.
func (r *Resolver) Ticker(cik string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ticker, ok := r.byCIK[edgar.NormalizeCIK(cik)]
	return ticker, ok
}

// Initialized reports whether the directory has been loaded.
func (r *Resolver) Initialized() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.initialized
}
