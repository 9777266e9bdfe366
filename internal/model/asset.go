package model

import "time"

// AssetPosition represents a configured position within a portfolio.
// Positions are owned by the portfolio configuration store and are
// read-only input to the aggregation core.
type AssetPosition struct {
	Ticker       string    `json:"ticker"`
	EntryDate    time.Time `json:"entryDate"`
	EntryPrice   float64   `json:"entryPrice"`
	CeilingPrice *float64  `json:"ceilingPrice,omitempty"`
	Sector       string    `json:"sector"`
	Currency     string    `json:"currency"`
}

// AssetStatus classifies how a position's live quote was resolved during
// a fetch cycle. The values are mutually exclusive and drive which price
// feeds downstream metrics: anything other than StatusSuccess substitutes
// the entry price.
type AssetStatus string

const (
	// StatusSuccess means a live quote was fetched and passed the sanity guard.
	StatusSuccess AssetStatus = "success"

	// StatusNotFound means the provider returned no data for the ticker.
	StatusNotFound AssetStatus = "not_found"

	// StatusSuspiciousPrice means a quote was fetched but discarded because the
	// implied price performance exceeded the configured ceiling.
	StatusSuspiciousPrice AssetStatus = "suspicious_price"

	// StatusError means the fetch failed (timeout, HTTP error, malformed body).
	StatusError AssetStatus = "error"
)

// Bias is the buy/wait signal derived from comparing the current price to
// the position's ceiling price. The labels are product strings and are
// rendered as-is by the dashboard.
type Bias string

const (
	BiasBuy  Bias = "Compra"
	BiasWait Bias = "Aguardar"
)

// EnrichedAsset is an AssetPosition combined with its live quote (when one
// was resolved) and the derived per-asset metrics for one fetch cycle.
type EnrichedAsset struct {
	AssetPosition

	// Quote is nil unless Status is StatusSuccess.
	Quote *Quote `json:"quote,omitempty"`

	PerformancePrice     float64     `json:"performancePrice"`
	PerformanceDividends float64     `json:"performanceDividends"`
	PerformanceTotal     float64     `json:"performanceTotal"`
	DividendYieldTTM     float64     `json:"dividendYieldTTM"`
	Bias                 Bias        `json:"bias"`
	Status               AssetStatus `json:"status"`
}

// ResolvedPrice returns the price that feeds downstream metrics: the live
// quote price when the fetch succeeded, the entry price otherwise.
func (a EnrichedAsset) ResolvedPrice() float64 {
	if a.Status == StatusSuccess && a.Quote != nil {
		return a.Quote.CurrentPrice
	}
	return a.EntryPrice
}
