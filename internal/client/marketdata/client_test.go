package marketdata

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"

	"insiderwatch/internal/config"
)

func testClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewClient(config.MarketDataConfig{BaseURL: server.URL, Token: "test-token"})
}

func TestGetQuote(t *testing.T) {
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/quote" {
			t.Errorf("path = %q", r.URL.Path)
		}
		if r.URL.Query().Get("token") != "test-token" {
			t.Errorf("token missing from query")
		}
		if r.URL.Query().Get("symbol") != "ACME" {
			t.Errorf("symbol = %q", r.URL.Query().Get("symbol"))
		}
		w.Write([]byte(`{"c":50.25,"h":51,"l":49,"o":49.5,"pc":49.8}`))
	})
	quote, err := client.GetQuote(context.Background(), "ACME")
	if err != nil {
		t.Fatalf("GetQuote: %v", err)
	}
	if !quote.CurrentPrice.Equal(decimal.RequireFromString("50.25")) {
		t.Fatalf("price = %s", quote.CurrentPrice)
	}
}

func TestGetQuoteRejectsZeroPrice(t *testing.T) {
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"c":0}`))
	})
	if _, err := client.GetQuote(context.Background(), "GHOST"); err == nil {
		t.Fatalf("zero price must be an error")
	}
}

func TestGetCompanyProfile(t *testing.T) {
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"name":"Acme Corp","marketCapitalization":812.5,"country":"US","finnhubIndustry":"Technology"}`))
	})
	profile, err := client.GetCompanyProfile(context.Background(), "ACME")
	if err != nil {
		t.Fatalf("GetCompanyProfile: %v", err)
	}
	if profile == nil {
		t.Fatalf("profile missing")
	}
	if profile.Name != "Acme Corp" {
		t.Fatalf("name = %q", profile.Name)
	}
	if profile.MarketCap == nil || !profile.MarketCap.Equal(decimal.RequireFromString("812.5")) {
		t.Fatalf("market cap = %v", profile.MarketCap)
	}
}

func TestGetCompanyProfileUnknownTicker(t *testing.T) {
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	})
	profile, err := client.GetCompanyProfile(context.Background(), "GHOST")
	if err != nil {
		t.Fatalf("GetCompanyProfile: %v", err)
	}
	if profile != nil {
		t.Fatalf("empty provider payload must yield nil profile, got %+v", profile)
	}
}
