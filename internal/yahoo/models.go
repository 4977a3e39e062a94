package yahoo

// quoteResult is a single entry in the quote API response. Optional fields
// are pointers so an omitted value is distinguishable from zero.
type quoteResult struct {
	Symbol                     string   `json:"symbol"`
	RegularMarketPrice         *float64 `json:"regularMarketPrice"`
	TrailingPE                 *float64 `json:"trailingPE"`
	EPSTrailingTwelveMonths    *float64 `json:"epsTrailingTwelveMonths"`
	Currency                   string   `json:"currency"`
	FullExchangeName           string   `json:"fullExchangeName"`
	RegularMarketPreviousClose *float64 `json:"regularMarketPreviousClose"`
}

// quoteEnvelope is the top-level quote API response.
type quoteEnvelope struct {
	QuoteResponse struct {
		Result []quoteResult `json:"result"`
		Error  *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"quoteResponse"`
}
