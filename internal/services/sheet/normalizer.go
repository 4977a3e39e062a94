package sheet

import (
	"strconv"
	"strings"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/folio/internal/common"
	"github.com/ternarybob/folio/internal/models"
)

// sectorMarkerSubstring identifies grouping rows in the source sheet.
const sectorMarkerSubstring = "Sector"

// Normalizer turns raw spreadsheet rows into typed holdings, assigning
// each holding to the most recently seen sector label.
type Normalizer struct {
	config *common.PortfolioConfig
	logger arbor.ILogger
}

// NewNormalizer creates a new row normalizer.
func NewNormalizer(config *common.PortfolioConfig, logger arbor.ILogger) *Normalizer {
	return &Normalizer{
		config: config,
		logger: logger,
	}
}

// Normalize walks the rows once, in order, and produces holdings.
//
// A row is a sector marker iff it has no usable purchase price, no usable
// quantity, and its name contains "Sector"; it updates the running sector
// context and produces no holding. A row is skipped iff its name is empty
// or both purchase price and quantity are zero/absent. Everything else
// becomes a holding under the current sector, "Unknown" before the first
// marker. Investment is always recomputed, never read from the sheet.
func (n *Normalizer) Normalize(rows []Row) []models.Holding {
	currentSector := models.DefaultSector
	holdings := make([]models.Holding, 0, len(rows))

	for _, row := range rows {
		name := strings.TrimSpace(row[n.config.NameColumn])
		purchasePrice := parseNumber(row[n.config.PriceColumn])
		quantity := parseNumber(row[n.config.QuantityColumn])

		if purchasePrice == 0 && quantity == 0 && name != "" && strings.Contains(name, sectorMarkerSubstring) {
			currentSector = name
			continue
		}

		if name == "" || (purchasePrice == 0 && quantity == 0) {
			continue
		}

		holdings = append(holdings, models.Holding{
			Name:          name,
			PurchasePrice: purchasePrice,
			Quantity:      quantity,
			Exchange:      strings.TrimSpace(row[n.config.ExchangeColumn]),
			Sector:        currentSector,
			Investment:    purchasePrice * quantity,
		})
	}

	n.logger.Debug().
		Int("rows", len(rows)).
		Int("holdings", len(holdings)).
		Msg("Normalized spreadsheet rows")

	return holdings
}

// parseNumber reads a numeric cell, tolerating thousands separators and
// surrounding whitespace. Unparseable or absent cells count as zero.
func parseNumber(raw string) float64 {
	cleaned := strings.ReplaceAll(strings.TrimSpace(raw), ",", "")
	if cleaned == "" {
		return 0
	}
	v, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0
	}
	return v
}
