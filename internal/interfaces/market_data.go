// Package interfaces provides service interfaces for dependency injection.
package interfaces

import "context"

// Quote is a single market data record for a resolved symbol. Price is
// nullable: a provider may return a record without a usable price, and the
// pipeline must treat that the same as a missing record for derived fields.
type Quote struct {
	Symbol   string   `json:"symbol"`
	Price    *float64 `json:"price"`
	PERatio  *float64 `json:"pe_ratio"`
	EPS      *float64 `json:"eps"`
	Currency string   `json:"currency"`
}

// QuoteProvider converts a set of resolved symbols into market records in
// a single round-trip. Partial results are valid: symbols the provider
// could not quote are simply absent from the returned map. The caller owns
// chunking the full symbol set into provider-sized batches and bounding
// each call with a context deadline.
type QuoteProvider interface {
	GetQuotes(ctx context.Context, symbols []string) (map[string]Quote, error)
}

// Fundamentals carries optional valuation fields from a secondary source.
type Fundamentals struct {
	PERatio  *float64
	Earnings *string
}

// FundamentalsProvider is a pluggable secondary enrichment source for P/E
// and earnings, typically backed by scraping a finance page. Such sources
// are brittle, so implementations fail independently: an error degrades
// the optional fields to nil and never blocks price enrichment.
type FundamentalsProvider interface {
	FetchFundamentals(ctx context.Context, symbol, exchange string) (*Fundamentals, error)
}

// SymbolResolver maps a human-readable holding name to an external market
// data symbol. An unmapped name is a recognized, non-fatal condition.
type SymbolResolver interface {
	Resolve(name string) (string, bool)
}
