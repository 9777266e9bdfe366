package model

import "time"

// PortfolioSnapshot is the computed, point-in-time enriched view of a
// portfolio used for rendering. It is fully recomputed each cycle and never
// persisted; every configured AssetPosition appears exactly once in Assets.
type PortfolioSnapshot struct {
	PortfolioID string          `json:"portfolioId"`
	Assets      []EnrichedAsset `json:"assets"`

	// TotalReturn is the simulated equal-weight total return across all
	// assets, in percent.
	TotalReturn float64 `json:"totalReturn"`

	// AverageYield averages dividendYieldTTM over assets with a yield
	// above zero; zero-yield assets are excluded from the average.
	AverageYield float64 `json:"averageYield"`

	Winners int `json:"winners"`
	Losers  int `json:"losers"`

	// SuccessRatio is the fraction of assets whose quote resolved with
	// StatusSuccess. Degraded is set when it falls below one half, which the
	// dashboard surfaces as a non-fatal notice.
	SuccessRatio float64 `json:"successRatio"`
	Degraded     bool    `json:"degraded"`

	Benchmark *BenchmarkComparison `json:"benchmark,omitempty"`

	GeneratedAt time.Time `json:"generatedAt"`
}
