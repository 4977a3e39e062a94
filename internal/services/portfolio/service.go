// Package portfolio builds enriched portfolio snapshots from the source
// sheet and the market data providers.
package portfolio

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/folio/internal/common"
	"github.com/ternarybob/folio/internal/interfaces"
	"github.com/ternarybob/folio/internal/models"
	"github.com/ternarybob/folio/internal/services/sheet"
)

// Service orchestrates the enrichment pipeline: normalize sheet rows,
// resolve symbols, fetch quotes in paced batches, scrape missing
// fundamentals, then compute portfolio-wide shares.
type Service struct {
	reader       *sheet.Reader
	normalizer   *sheet.Normalizer
	resolver     interfaces.SymbolResolver
	quotes       interfaces.QuoteProvider
	fundamentals interfaces.FundamentalsProvider // nil when disabled
	config       *common.PortfolioConfig
	defaultVenue string
	logger       arbor.ILogger
}

// NewService creates a new enrichment pipeline service. fundamentals may
// be nil to disable the secondary source.
func NewService(
	reader *sheet.Reader,
	normalizer *sheet.Normalizer,
	resolver interfaces.SymbolResolver,
	quotes interfaces.QuoteProvider,
	fundamentals interfaces.FundamentalsProvider,
	config *common.PortfolioConfig,
	defaultVenue string,
	logger arbor.ILogger,
) *Service {
	return &Service{
		reader:       reader,
		normalizer:   normalizer,
		resolver:     resolver,
		quotes:       quotes,
		fundamentals: fundamentals,
		config:       config,
		defaultVenue: defaultVenue,
		logger:       logger,
	}
}

// BuildSnapshot runs one full enrichment pass and returns a fresh,
// immutable snapshot. Only a source read/parse failure is fatal; unmapped
// symbols, provider timeouts and scraper failures degrade per holding to
// nil market fields.
func (s *Service) BuildSnapshot(ctx context.Context) (*models.Snapshot, error) {
	started := time.Now()
	runID := uuid.NewString()

	rows, err := s.reader.ReadRows()
	if err != nil {
		return nil, fmt.Errorf("failed to read holdings source: %w", err)
	}

	holdings := s.normalizer.Normalize(rows)

	for start := 0; start < len(holdings); start += s.batchSize() {
		end := start + s.batchSize()
		if end > len(holdings) {
			end = len(holdings)
		}

		s.enrichBatch(ctx, holdings[start:end], runID)

		// Pace external calls between batches to stay under provider
		// rate limits.
		if end < len(holdings) {
			select {
			case <-time.After(s.config.BatchDelay.Std()):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}
	}

	// Shares need the full portfolio total, so they get a second pass.
	snapshot := &models.Snapshot{
		Holdings: holdings,
		RunID:    runID,
		BuiltAt:  time.Now(),
	}
	snapshot.ComputeTotals()
	applyShares(snapshot)

	s.logger.Info().
		Str("run_id", runID).
		Int("holdings", len(holdings)).
		Dur("duration", time.Since(started)).
		Msg("Enrichment run complete")

	return snapshot, nil
}

// enrichBatch resolves and quotes one batch of holdings in place.
func (s *Service) enrichBatch(ctx context.Context, batch []models.Holding, runID string) {
	symbolByIndex := make(map[int]string, len(batch))
	symbols := make([]string, 0, len(batch))
	for i := range batch {
		symbol, ok := s.resolver.Resolve(batch[i].Name)
		if !ok {
			s.logger.Warn().
				Str("run_id", runID).
				Str("name", batch[i].Name).
				Msg("No symbol mapping for holding")
			continue
		}
		symbolByIndex[i] = symbol
		symbols = append(symbols, symbol)
	}

	quotes := s.fetchQuotes(ctx, symbols, runID)

	for i := range batch {
		symbol, ok := symbolByIndex[i]
		if !ok {
			continue
		}

		if quote, found := quotes[symbol]; found {
			applyQuote(&batch[i], quote)
		}

		s.fillMissingFundamentals(ctx, &batch[i], symbol, runID)
	}
}

// fetchQuotes issues one bounded call to the quote provider. Timeouts and
// transport failures yield whatever subset succeeded, possibly nothing.
func (s *Service) fetchQuotes(ctx context.Context, symbols []string, runID string) map[string]interfaces.Quote {
	if len(symbols) == 0 {
		return nil
	}

	fetchCtx, cancel := context.WithTimeout(ctx, s.config.FetchTimeout.Std())
	defer cancel()

	quotes, err := s.quotes.GetQuotes(fetchCtx, symbols)
	if err != nil {
		s.logger.Warn().
			Err(err).
			Str("run_id", runID).
			Int("symbols", len(symbols)).
			Msg("Quote batch failed, proceeding with partial results")
	}
	return quotes
}

// applyQuote copies provider-native fields onto a holding. The provider's
// own fundamentals take precedence over anything scraped later.
func applyQuote(h *models.Holding, quote interfaces.Quote) {
	if quote.Price != nil {
		h.ApplyPrice(*quote.Price)
	}
	if quote.PERatio != nil {
		h.PERatio = quote.PERatio
	}
	if quote.EPS != nil {
		eps := strconv.FormatFloat(*quote.EPS, 'f', 2, 64)
		h.LatestEarnings = &eps
	}
}

// fillMissingFundamentals asks the secondary source only for fields the
// quote provider did not supply. Its failure never blocks price enrichment.
func (s *Service) fillMissingFundamentals(ctx context.Context, h *models.Holding, symbol, runID string) {
	if s.fundamentals == nil {
		return
	}
	if h.PERatio != nil && h.LatestEarnings != nil {
		return
	}

	venue := h.Exchange
	if venue == "" {
		venue = s.defaultVenue
	}

	scraped, err := s.fundamentals.FetchFundamentals(ctx, bareSymbol(symbol), venue)
	if err != nil {
		s.logger.Warn().
			Err(err).
			Str("run_id", runID).
			Str("name", h.Name).
			Msg("Secondary fundamentals fetch failed")
		return
	}

	if h.PERatio == nil && scraped.PERatio != nil {
		h.PERatio = scraped.PERatio
	}
	if h.LatestEarnings == nil && scraped.Earnings != nil {
		h.LatestEarnings = scraped.Earnings
	}
}

// applyShares sets each holding's portfolio share from the already-computed
// total investment. All shares are 0 when the total is 0.
func applyShares(snapshot *models.Snapshot) {
	if snapshot.TotalInvestment == 0 {
		for i := range snapshot.Holdings {
			snapshot.Holdings[i].PortfolioShare = 0
		}
		return
	}
	for i := range snapshot.Holdings {
		snapshot.Holdings[i].PortfolioShare = snapshot.Holdings[i].Investment / snapshot.TotalInvestment * 100
	}
}

// bareSymbol strips the venue suffix from a ticker, e.g. "INFY.NS" → "INFY".
// The scraper addresses pages by bare symbol plus venue.
func bareSymbol(symbol string) string {
	if idx := strings.LastIndex(symbol, "."); idx > 0 {
		return symbol[:idx]
	}
	return symbol
}

func (s *Service) batchSize() int {
	if s.config.BatchSize > 0 {
		return s.config.BatchSize
	}
	return 10
}
