package yahoo

// quoteResponse represents the raw JSON response structure of the Yahoo
// Finance quote API. A single request carries a comma-joined symbol list and
// the response contains one result object per resolved instrument; symbols
// the provider does not know are silently absent from the result list.
type quoteResponse struct {
	QuoteResponse struct {
		Result []quoteResult `json:"result"`
		Error  *apiError     `json:"error"`
	} `json:"quoteResponse"`
}

type quoteResult struct {
	Symbol                     string  `json:"symbol"`
	RegularMarketPrice         float64 `json:"regularMarketPrice"`
	RegularMarketChange        float64 `json:"regularMarketChange"`
	RegularMarketChangePercent float64 `json:"regularMarketChangePercent"`
	RegularMarketVolume        int64   `json:"regularMarketVolume"`
	LongName                   string  `json:"longName"`
	ShortName                  string  `json:"shortName"`
}

// chartResponse represents the raw JSON response structure of the Yahoo
// Finance chart API, used for historical benchmark series. Only the fields
// the resolver needs are mapped: timestamps and close prices.
type chartResponse struct {
	Chart struct {
		Result []struct {
			Meta struct {
				Currency string `json:"currency"`
				Symbol   string `json:"symbol"`
			} `json:"meta"`
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Close []*float64 `json:"close"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *apiError `json:"error"`
	} `json:"chart"`
}

type apiError struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}
