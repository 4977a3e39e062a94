// Package sheet reads the holdings spreadsheet and normalizes its rows
// into typed holdings.
package sheet

import (
	"fmt"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/folio/internal/common"
	"github.com/xuri/excelize/v2"
)

// Row is a raw spreadsheet row keyed by column header. Absent cells are
// absent keys.
type Row map[string]string

// Reader loads raw rows from the configured holdings spreadsheet.
type Reader struct {
	config *common.PortfolioConfig
	logger arbor.ILogger
}

// NewReader creates a new sheet reader.
func NewReader(config *common.PortfolioConfig, logger arbor.ILogger) *Reader {
	return &Reader{
		config: config,
		logger: logger,
	}
}

// ReadRows opens the spreadsheet and returns data rows from the first
// worksheet as header-keyed maps. The header row sits after the configured
// number of leading rows. Errors here are fatal to an enrichment run: a
// missing or unparseable source means there is nothing to enrich.
func (r *Reader) ReadRows() ([]Row, error) {
	f, err := excelize.OpenFile(r.config.SheetPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open sheet %s: %w", r.config.SheetPath, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("no worksheets found in %s", r.config.SheetPath)
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("failed to read worksheet %s: %w", sheets[0], err)
	}

	headerIndex := r.config.HeaderRows
	if headerIndex+1 >= len(rows) {
		return nil, fmt.Errorf("sheet %s has no data rows past header offset %d", r.config.SheetPath, headerIndex)
	}

	header := rows[headerIndex]

	result := make([]Row, 0, len(rows)-headerIndex-1)
	for _, cells := range rows[headerIndex+1:] {
		row := make(Row, len(header))
		for i, name := range header {
			if name == "" || i >= len(cells) {
				continue
			}
			if cells[i] != "" {
				row[name] = cells[i]
			}
		}
		result = append(result, row)
	}

	r.logger.Debug().
		Str("sheet", sheets[0]).
		Int("rows", len(result)).
		Msg("Loaded spreadsheet rows")

	return result, nil
}
