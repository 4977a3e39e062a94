// Package symbols maps holding names to external market-data symbols.
// The mapping is process-wide, read-only configuration loaded at startup.
package symbols

import (
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/folio/internal/interfaces"
)

// symbolsFile is the on-disk layout of the mapping file.
type symbolsFile struct {
	Symbols map[string]string `toml:"symbols"`
}

// Resolver holds the static name→ticker mapping. TOML table keys are
// unique, so no holding name can map to more than one symbol.
type Resolver struct {
	mapping map[string]string
	logger  arbor.ILogger
}

// NewResolver loads the mapping from the given TOML file. An empty path or
// a missing file falls back to the built-in default mapping; a present but
// malformed file is a configuration error.
func NewResolver(path string, logger arbor.ILogger) (*Resolver, error) {
	mapping := defaultMapping()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case os.IsNotExist(err):
			logger.Debug().Str("path", path).Msg("No symbols file, using built-in mapping")
		case err != nil:
			return nil, fmt.Errorf("failed to read symbols file %s: %w", path, err)
		default:
			var file symbolsFile
			if err := toml.Unmarshal(data, &file); err != nil {
				return nil, fmt.Errorf("failed to parse symbols file %s: %w", path, err)
			}
			if len(file.Symbols) > 0 {
				mapping = file.Symbols
			}
		}
	}

	logger.Info().
		Int("count", len(mapping)).
		Msg("Symbol mapping loaded")

	return &Resolver{
		mapping: mapping,
		logger:  logger,
	}, nil
}

// Resolve maps a holding name to its ticker symbol. The second return is
// false for unmapped names, which downstream treats as a non-fatal,
// per-holding condition.
func (r *Resolver) Resolve(name string) (string, bool) {
	symbol, ok := r.mapping[name]
	return symbol, ok
}

// Count returns the number of configured mappings.
func (r *Resolver) Count() int {
	return len(r.mapping)
}

// defaultMapping is the built-in name→ticker table for the sample sheet.
func defaultMapping() map[string]string {
	return map[string]string{
		"HDFC Bank":      "HDFCBANK.NS",
		"Bajaj Finance":  "BAJFINANCE.NS",
		"ICICI Bank":     "ICICIBANK.NS",
		"Affle India":    "AFFLE.NS",
		"LTI Mindtree":   "LTIM.NS",
		"KPIT Tech":      "KPITTECH.NS",
		"Tata Tech":      "TATATECH.NS",
		"BLS E-Services": "BLSE.NS",
		"Tanla":          "TANLA.NS",
		"Dmart":          "DMART.NS",
		"Tata Consumer":  "TATACONSUM.NS",
		"Pidilite":       "PIDILITIND.NS",
		"Tata Power":     "TATAPOWER.NS",
		"KPI Green":      "KPIGREEN.NS",
		"Suzlon":         "SUZLON.NS",
		"Gensol":         "GENSOL.NS",
		"Hariom Pipes":   "HARIOMPIPE.NS",
		"Astral":         "ASTRAL.NS",
		"Polycab":        "POLYCAB.NS",
		"Clean Science":  "CLEAN.NS",
		"Deepak Nitrite": "DEEPAKNTR.NS",
		"Fine Organic":   "FINEORG.NS",
		"Gravita":        "GRAVITA.NS",
		"SBI Life":       "SBILIFE.NS",
		"Infy":           "INFY.NS",
		"Happeist Mind":  "HAPPSTMNDS.NS",
		"Easemytrip":     "EASEMYTRIP.NS",
	}
}

// Ensure Resolver implements the SymbolResolver interface
var _ interfaces.SymbolResolver = (*Resolver)(nil)
