// Package models defines the portfolio data model shared across services.
package models

import "time"

// DefaultSector is assigned to holdings that appear before any sector
// marker row in the source sheet.
const DefaultSector = "Unknown"

// Holding represents a single portfolio line item (one stock position).
// Market fields are pointers: nil means the value could not be resolved
// for this run, which is a recognized condition rather than an error.
type Holding struct {
	Name          string  `json:"stockName"`
	PurchasePrice float64 `json:"purchasePrice"`
	Quantity      float64 `json:"qty"`
	Exchange      string  `json:"exchange"`
	Sector        string  `json:"sector"`

	// Investment is always recomputed as PurchasePrice * Quantity,
	// never read from the source sheet.
	Investment float64 `json:"investment"`

	// PortfolioShare is investment / total investment * 100, computed in a
	// second pass once the full portfolio is known. 0 when total is 0.
	PortfolioShare float64 `json:"portfolioPercent"`

	CurrentPrice   *float64 `json:"cmp"`
	PresentValue   *float64 `json:"presentValue"`
	GainLoss       *float64 `json:"gainLoss"`
	PERatio        *float64 `json:"peRatio"`
	LatestEarnings *string  `json:"latestEarnings"`
}

// ApplyPrice sets the current market price and derives PresentValue and
// GainLoss from it. PresentValue and GainLoss are defined iff CurrentPrice is.
func (h *Holding) ApplyPrice(price float64) {
	h.CurrentPrice = &price
	present := price * h.Quantity
	h.PresentValue = &present
	gain := present - h.Investment
	h.GainLoss = &gain
}

// Snapshot is the full enriched portfolio produced by one enrichment run.
// A snapshot is immutable once built; a new run produces a fresh snapshot
// that atomically replaces the cached one.
type Snapshot struct {
	Holdings []Holding `json:"holdings"`
	RunID    string    `json:"run_id"`
	BuiltAt  time.Time `json:"built_at"`

	TotalInvestment   float64  `json:"total_investment"`
	TotalPresentValue *float64 `json:"total_present_value"`
	TotalGainLoss     *float64 `json:"total_gain_loss"`
}

// Age returns how long ago the snapshot was built.
func (s *Snapshot) Age() time.Duration {
	return time.Since(s.BuiltAt)
}

// ComputeTotals fills the aggregate fields from the holdings. Present value
// and gain/loss totals cover only holdings with a resolved market price;
// they are nil when no holding resolved.
func (s *Snapshot) ComputeTotals() {
	s.TotalInvestment = 0
	s.TotalPresentValue = nil
	s.TotalGainLoss = nil

	var present, gain float64
	resolved := false
	for i := range s.Holdings {
		s.TotalInvestment += s.Holdings[i].Investment
		if s.Holdings[i].PresentValue != nil {
			present += *s.Holdings[i].PresentValue
			gain += *s.Holdings[i].GainLoss
			resolved = true
		}
	}
	if resolved {
		s.TotalPresentValue = &present
		s.TotalGainLoss = &gain
	}
}
