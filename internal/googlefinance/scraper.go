// Package googlefinance scrapes P/E ratio and earnings-per-share figures
// from Google Finance quote pages. It is a secondary enrichment source:
// markup changes break it, so every failure degrades to nil fields and the
// pipeline continues without it.
package googlefinance

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/folio/internal/interfaces"
)

const (
	// DefaultBaseURL is the base URL for Google Finance quote pages.
	DefaultBaseURL = "https://www.google.com/finance"

	// DefaultTimeout is the default HTTP timeout.
	DefaultTimeout = 10 * time.Second

	// Page selectors. Google labels the stat tiles with aria-labels, which
	// survive class-name churn better than anything else on the page.
	peRatioSelector  = `div[aria-label="Price to earnings ratio"]`
	earningsSelector = `div[aria-label="Earnings per share"]`

	userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36"
)

// Scraper fetches fundamentals by scraping Google Finance quote pages.
type Scraper struct {
	baseURL    string
	httpClient *http.Client
	logger     arbor.ILogger
}

// ScraperOption configures the Scraper.
type ScraperOption func(*Scraper)

// WithBaseURL sets a custom base URL.
func WithBaseURL(baseURL string) ScraperOption {
	return func(s *Scraper) {
		s.baseURL = baseURL
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(httpClient *http.Client) ScraperOption {
	return func(s *Scraper) {
		s.httpClient = httpClient
	}
}

// WithLogger sets a logger.
func WithLogger(logger arbor.ILogger) ScraperOption {
	return func(s *Scraper) {
		s.logger = logger
	}
}

// NewScraper creates a new Google Finance scraper.
func NewScraper(opts ...ScraperOption) *Scraper {
	s := &Scraper{
		baseURL: DefaultBaseURL,
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// FetchFundamentals scrapes the quote page for P/E ratio and latest
// earnings. Fields the page does not carry come back nil; a transport or
// parse failure returns an error the caller logs and absorbs.
func (s *Scraper) FetchFundamentals(ctx context.Context, symbol, exchange string) (*interfaces.Fundamentals, error) {
	pageURL := fmt.Sprintf("%s/quote/%s:%s", s.baseURL, symbol, exchange)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	if s.logger != nil {
		s.logger.Debug().
			Str("symbol", symbol).
			Str("exchange", exchange).
			Msg("Google Finance page request")
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch quote page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code %d for %s:%s", resp.StatusCode, symbol, exchange)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to parse quote page: %w", err)
	}

	fundamentals := &interfaces.Fundamentals{}

	if text := strings.TrimSpace(doc.Find(peRatioSelector).First().Text()); text != "" {
		if pe, err := parseStatValue(text); err == nil {
			fundamentals.PERatio = &pe
		}
	}

	if text := strings.TrimSpace(doc.Find(earningsSelector).First().Text()); text != "" {
		earnings := text
		fundamentals.Earnings = &earnings
	}

	return fundamentals, nil
}

// parseStatValue parses a stat tile value such as "24.53" or "1,204.10".
func parseStatValue(text string) (float64, error) {
	cleaned := strings.ReplaceAll(text, ",", "")
	return strconv.ParseFloat(cleaned, 64)
}

// Ensure Scraper implements the FundamentalsProvider interface
var _ interfaces.FundamentalsProvider = (*Scraper)(nil)
