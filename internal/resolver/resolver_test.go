package resolver

import (
	"context"
	"fmt"
	"testing"

	"insiderwatch/internal/client/edgar"
)

type stubSource struct {
	tickers []edgar.CompanyTicker
	calls   int
	err     error
}

func (s *stubSource) CompanyTickers(ctx context.Context) ([]edgar.CompanyTicker, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.tickers, nil
}

func TestResolverInitializeAndLookup(t *testing.T) {
	source := &stubSource{tickers: []edgar.CompanyTicker{
		{CIK: "0000320193", Ticker: "AAPL", Name: "Apple Inc."},
		{CIK: "0000320193", Ticker: "AAPL-B", Name: "Apple Inc. secondary"},
		{CIK: "0000789019", Ticker: "MSFT", Name: "Microsoft Corp"},
		{CIK: "0001111111", Ticker: "", Name: "Private Filer LLC"},
	}}
	r := &Resolver{Source: source}

	if r.Initialized() {
		t.Fatalf("resolver should start uninitialized")
	}
	if err := r.Initialize(context.Background()); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	if !r.Initialized() {
		t.Fatalf("resolver should report initialized")
	}

	// Unpadded keys normalize to the directory form.
	ticker, ok := r.Ticker("320193")
	if !ok || ticker != "AAPL" {
		t.Fatalf("Ticker(320193) = %q, %v", ticker, ok)
	}

	// First mapping wins on duplicate company keys.
	ticker, _ = r.Ticker("0000320193")
	if ticker != "AAPL" {
		t.Fatalf("duplicate cik resolved to %q", ticker)
	}

	if _, ok := r.Ticker("0001111111"); ok {
		t.Fatalf("blank-ticker entry should not resolve")
	}
	if _, ok := r.Ticker("0009999999"); ok {
		t.Fatalf("unknown cik should not resolve")
	}
}

func TestResolverInitializeIdempotent(t *testing.T) {
	source := &stubSource{tickers: []edgar.CompanyTicker{
		{CIK: "0000320193", Ticker: "AAPL"},
	}}
	r := &Resolver{Source: source}
	for i := 0; i < 3; i++ {
		if err := r.Initialize(context.Background()); err != nil {
			t.Fatalf("Initialize #%d: %v", i+1, err)
		}
	}
	if source.calls != 1 {
		t.Fatalf("directory fetched %d times, want 1", source.calls)
	}
}

func TestResolverInitializeError(t *testing.T) {
	source := &stubSource{err: fmt.Errorf("upstream down")}
	r := &Resolver{Source: source}
	if err := r.Initialize(context.Background()); err == nil {
		t.Fatalf("expected error")
	}
	if r.Initialized() {
		t.Fatalf("failed init must leave resolver uninitialized")
	}
}
