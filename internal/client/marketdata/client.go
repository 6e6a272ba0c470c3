package marketdata

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"insiderwatch/internal/config"
)

// Client is the black-box quote and company-profile lookup used to enrich
// transactions before filtering. Lookup failures are expected for thinly
// traded or delisted symbols; the poller skips those transactions.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

type APIError struct {
	Status int
	Body   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("market data error (%d): %s", e.Status, e.Body)
}

func NewClient(cfg config.MarketDataConfig) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		token:      cfg.Token,
		httpClient: &http.Client{Timeout: timeout},
	}
}

type Quote struct {
	CurrentPrice decimal.Decimal
}

func (c *Client) GetQuote(ctx context.Context, ticker string) (*Quote, error) {
	if ticker == "" {
		return nil, fmt.Errorf("ticker is required")
	}
	query := url.Values{}
	query.Set("symbol", ticker)
	body, err := c.doRequest(ctx, "/quote", query)
	if err != nil {
		return nil, err
	}
	var raw struct {
		Current float64 `json:"c"`
	}
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("decoding quote: %w", err)
	}
	if raw.Current <= 0 {
		return nil, fmt.Errorf("no quote data for %s", ticker)
	}
	return &Quote{CurrentPrice: decimal.NewFromFloat(raw.Current)}, nil
}

type CompanyProfile struct {
	Name string
	// MarketCap is in millions of USD.
	MarketCap *decimal.Decimal
	Country   string
	Industry  string
}

// GetCompanyProfile returns nil without error when the provider has no
// profile for the ticker.
func (c *Client) GetCompanyProfile(ctx context.Context, ticker string) (*CompanyProfile, error) {
	if ticker == "" {
		return nil, fmt.Errorf("ticker is required")
	}
	query := url.Values{}
	query.Set("symbol", ticker)
	body, err := c.doRequest(ctx, "/stock/profile2", query)
	if err != nil {
		return nil, err
	}
	var raw struct {
		Name      string  `json:"name"`
		MarketCap float64 `json:"marketCapitalization"`
		Country   string  `json:"country"`
		Industry  string  `json:"finnhubIndustry"`
	}
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("decoding profile: %w", err)
	}
	if raw.Name == "" && raw.MarketCap == 0 {
		return nil, nil
	}
	profile := &CompanyProfile{
		Name:     raw.Name,
		Country:  raw.Country,
		Industry: raw.Industry,
	}
	if raw.MarketCap > 0 {
		cap := decimal.NewFromFloat(raw.MarketCap)
		profile.MarketCap = &cap
	}
	return profile, nil
}

func (c *Client) doRequest(ctx context.Context, path string, query url.Values) ([]byte, error) {
	if c.token != "" {
		query.Set("token", c.token)
	}
	fullURL := c.baseURL + path + "?" + query.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &APIError{Status: resp.StatusCode, Body: string(body)}
	}
	return body, nil
}
