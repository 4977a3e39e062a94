package googlefinance

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
)

const quotePage = `<!DOCTYPE html>
<html>
<body>
	<div class="stats">
		<div aria-label="Price to earnings ratio">%s</div>
		<div aria-label="Earnings per share">%s</div>
	</div>
</body>
</html>`

func TestScraper_FetchFundamentals(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/quote/INFY:NSE" {
			t.Errorf("Unexpected path %s", r.URL.Path)
		}
		fmt.Fprintf(w, quotePage, "24.53", "62.15")
	}))
	defer server.Close()

	scraper := NewScraper(WithBaseURL(server.URL))

	fundamentals, err := scraper.FetchFundamentals(context.Background(), "INFY", "NSE")
	if err != nil {
		t.Fatalf("FetchFundamentals failed: %v", err)
	}

	if fundamentals.PERatio == nil || *fundamentals.PERatio != 24.53 {
		t.Errorf("Expected P/E 24.53, got %v", fundamentals.PERatio)
	}
	if fundamentals.Earnings == nil || *fundamentals.Earnings != "62.15" {
		t.Errorf("Expected earnings '62.15', got %v", fundamentals.Earnings)
	}
}

func TestScraper_ThousandsSeparator(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, quotePage, "1,204.10", "88.00")
	}))
	defer server.Close()

	scraper := NewScraper(WithBaseURL(server.URL))

	fundamentals, err := scraper.FetchFundamentals(context.Background(), "DMART", "NSE")
	if err != nil {
		t.Fatalf("FetchFundamentals failed: %v", err)
	}

	if fundamentals.PERatio == nil || *fundamentals.PERatio != 1204.10 {
		t.Errorf("Expected P/E 1204.10, got %v", fundamentals.PERatio)
	}
}

func TestScraper_MissingStats(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html><body><div>No stats here</div></body></html>"))
	}))
	defer server.Close()

	scraper := NewScraper(WithBaseURL(server.URL))

	fundamentals, err := scraper.FetchFundamentals(context.Background(), "OBSCURE", "NSE")
	if err != nil {
		t.Fatalf("FetchFundamentals failed: %v", err)
	}

	// Markup without the stat tiles yields nil fields, not an error
	if fundamentals.PERatio != nil {
		t.Errorf("Expected nil P/E, got %v", fundamentals.PERatio)
	}
	if fundamentals.Earnings != nil {
		t.Errorf("Expected nil earnings, got %v", fundamentals.Earnings)
	}
}

func TestScraper_UnparseableStat(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, quotePage, "-", "-")
	}))
	defer server.Close()

	scraper := NewScraper(WithBaseURL(server.URL))

	fundamentals, err := scraper.FetchFundamentals(context.Background(), "NEWIPO", "NSE")
	if err != nil {
		t.Fatalf("FetchFundamentals failed: %v", err)
	}

	if fundamentals.PERatio != nil {
		t.Errorf("Expected nil P/E for unparseable tile, got %v", fundamentals.PERatio)
	}
	// Earnings is a display string, so even "-" is carried through
	if fundamentals.Earnings == nil || *fundamentals.Earnings != "-" {
		t.Errorf("Expected earnings '-', got %v", fundamentals.Earnings)
	}
}

func TestScraper_HTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "not found", http.StatusNotFound)
	}))
	defer server.Close()

	scraper := NewScraper(WithBaseURL(server.URL))

	if _, err := scraper.FetchFundamentals(context.Background(), "BOGUS", "NSE"); err == nil {
		t.Fatal("Expected error for non-200 response, got nil")
	}
}
