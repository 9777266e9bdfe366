package model

// Portfolio represents a named portfolio from the configuration store.
type Portfolio struct {
	ID          string           `json:"id"`
	Name        string           `json:"name"`
	Description string           `json:"description"`
	Currency    string           `json:"currency"`
	Profile     PortfolioProfile `json:"profile"`
}

// BiasRule selects how the buy/wait signal compares the current price to
// the ceiling price.
type BiasRule string

const (
	// BiasRuleSimple signals Compra whenever currentPrice < ceilingPrice.
	BiasRuleSimple BiasRule = "simple"

	// BiasRuleMargin signals Compra only when the current price sits at least
	// 5% below the ceiling price.
	BiasRuleMargin BiasRule = "margin5"
)

// DividendWindow selects which dividend events count toward the dividend
// contribution of total performance. The two windows exist because different
// portfolio pages historically computed this differently; both are preserved
// as explicit configuration.
type DividendWindow string

const (
	// WindowSinceEntry counts dividend events on or after the position's entry date.
	WindowSinceEntry DividendWindow = "since_entry"

	// WindowTrailingYear counts dividend events within the trailing 365 days.
	WindowTrailingYear DividendWindow = "trailing_12m"
)

// PortfolioProfile carries the per-portfolio metric variants. Each dashboard
// page used to hard-code its own copy of these choices; they now live in the
// configuration store and parameterize a single aggregator.
type PortfolioProfile struct {
	BiasRule        BiasRule       `json:"biasRule"`
	DividendWindow  DividendWindow `json:"dividendWindow"`
	SuspiciousLimit float64        `json:"suspiciousLimit"`

	// Resilient selects the per-ticker variant-fallback fetch path for pages
	// that must keep working on flaky networks.
	Resilient bool `json:"resilient"`
}
