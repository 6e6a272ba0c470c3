package edgar

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"insiderwatch/internal/config"
)

// Client reads from the EDGAR archive. All requests share one rate limiter so
// the aggregate request rate stays under the archive's published ceiling, and
// every request carries the mandated "product contact" identification header.
type Client struct {
	userAgent      string
	httpClient     *http.Client
	limiter        *rate.Limiter
	dataBaseURL    string
	archiveBaseURL string
}

type Option func(*Client)

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

func NewClient(cfg config.EdgarConfig, options ...Option) *Client {
	rps := cfg.RequestsPerSec
	if rps <= 0 {
		rps = 8
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	client := &Client{
		userAgent:      strings.TrimSpace(cfg.Product + " " + cfg.Contact),
		httpClient:     &http.Client{Timeout: timeout},
		limiter:        rate.NewLimiter(rate.Limit(rps), rps),
		dataBaseURL:    strings.TrimRight(cfg.DataBaseURL, "/"),
		archiveBaseURL: strings.TrimRight(cfg.ArchiveBaseURL, "/"),
	}
	for _, option := range options {
		option(client)
	}
	return client
}

// CompanyTicker is one entry of the bulk ticker directory.
type CompanyTicker struct {
	CIK    string
	Ticker string
	Name   string
}

// CompanyTickers downloads the bulk ticker directory. Entries without a
// ticker symbol are kept; the resolver decides how to treat them.
func (c *Client) CompanyTickers(ctx context.Context) ([]CompanyTicker, error) {
	body, err := c.get(ctx, c.archiveBaseURL+"/files/company_tickers.json")
	if err != nil {
		return nil, err
	}

	var raw map[string]struct {
		CIK    int64  `json:"cik_str"`
		Ticker string `json:"ticker"`
		Title  string `json:"title"`
	}
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("decoding ticker directory: %w", err)
	}

	tickers := make([]CompanyTicker, 0, len(raw))
	for _, entry := range raw {
		tickers = append(tickers, CompanyTicker{
			CIK:    fmt.Sprintf("%010d", entry.CIK),
			Ticker: strings.ToUpper(strings.TrimSpace(entry.Ticker)),
			Name:   entry.Title,
		})
	}
	return tickers, nil
}

// Submissions fetches the per-company filing submission index.
func (c *Client) Submissions(ctx context.Context, cik string) (*SubmissionIndex, error) {
	url := fmt.Sprintf("%s/submissions/CIK%s.json", c.dataBaseURL, NormalizeCIK(cik))
	body, err := c.get(ctx, url)
	if err != nil {
		return nil, err
	}
	var index SubmissionIndex
	if err := json.Unmarshal(body, &index); err != nil {
		return nil, fmt.Errorf("decoding submissions: %w", err)
	}
	return &index, nil
}

// FilingIndex lists the files inside one accession's directory. This is the
// archive's recommended way to locate the primary document.
func (c *Client) FilingIndex(ctx context.Context, cik, accessionNumber string) ([]string, error) {
	url := fmt.Sprintf("%s/Archives/edgar/data/%s/%s/index.json",
		c.archiveBaseURL, strings.TrimLeft(NormalizeCIK(cik), "0"), StripAccessionDashes(accessionNumber))
	body, err := c.get(ctx, url)
	if err != nil {
		return nil, err
	}

	var listing struct {
		Directory struct {
			Items []struct {
				Name string `json:"name"`
			} `json:"item"`
		} `json:"directory"`
	}
	if err := json.Unmarshal(body, &listing); err != nil {
		return nil, fmt.Errorf("decoding filing index: %w", err)
	}

	names := make([]string, 0, len(listing.Directory.Items))
	for _, item := range listing.Directory.Items {
		if item.Name != "" {
			names = append(names, item.Name)
		}
	}
	return names, nil
}

// FilingDocument fetches one raw document from an accession directory.
func (c *Client) FilingDocument(ctx context.Context, cik, accessionNumber, filename string) ([]byte, error) {
	url := fmt.Sprintf("%s/Archives/edgar/data/%s/%s/%s",
		c.archiveBaseURL, strings.TrimLeft(NormalizeCIK(cik), "0"), StripAccessionDashes(accessionNumber), filename)
	return c.get(ctx, url)
}

// DailyIndex fetches the fixed-width master index for one day. A 404 means
// no filings were published that day (weekends, holidays) and surfaces as an
// APIError the caller can detect with IsNotFound.
func (c *Client) DailyIndex(ctx context.Context, day time.Time) ([]byte, error) {
	quarter := (int(day.Month())-1)/3 + 1
	url := fmt.Sprintf("%s/Archives/edgar/daily-index/%d/QTR%d/master.%s.idx",
		c.archiveBaseURL, day.Year(), quarter, day.Format("20060102"))
	return c.get(ctx, url)
}

// LatestFilingsFeed fetches the Atom feed of the most recent filings for the
// given form type, newest first.
func (c *Client) LatestFilingsFeed(ctx context.Context, formType string, count int) ([]byte, error) {
	if count <= 0 {
		count = 40
	}
	url := fmt.Sprintf("%s/cgi-bin/browse-edgar?action=getcurrent&type=%s&company=&dateb=&owner=only&start=0&count=%d&output=atom",
		c.archiveBaseURL, formType, count)
	return c.get(ctx, url)
}

func (c *Client) get(ctx context.Context, url string) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter wait: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	// The transport negotiates gzip itself; setting Accept-Encoding by hand
	// would disable its transparent decompression.

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &APIError{Status: resp.StatusCode, Body: string(body)}
	}
	return body, nil
}

// NormalizeCIK zero-pads a company key to the archive's 10-digit form.
func NormalizeCIK(cik string) string {
	return fmt.Sprintf("%010s", strings.TrimLeft(strings.TrimSpace(cik), "0"))
}

// StripAccessionDashes converts 0001234567-24-000012 to its directory form.
func StripAccessionDashes(accessionNumber string) string {
	return strings.ReplaceAll(accessionNumber, "-", "")
}
