// Package metrics derives per-asset and per-portfolio financial metrics from
// resolved quotes, dividend history and the position configuration. All
// functions are pure: no I/O, no clocks, no shared state; "now" is always an
// explicit parameter.
package metrics

import (
	"time"

	"github.com/lmeira/carteira-core/internal/model"
)

// Named suspicious-price ceilings, in percent of absolute price performance.
// A quote implying a move beyond the ceiling is treated as a unit mismatch
// (wrong currency, wrong lot size) rather than a real price.
const (
	// DefaultSuspiciousLimit applies to same-currency instruments.
	DefaultSuspiciousLimit = 200.0

	// CrossCurrencySuspiciousLimit applies to cross-currency and ADR-style
	// instruments, where unit mismatches produce much larger excursions.
	CrossCurrencySuspiciousLimit = 1000.0
)

// DefaultNotional is the simulated position size per asset used for the
// equal-weight aggregate return.
const DefaultNotional = 1000.0

// ttmDays is the trailing window for dividend yield, in days.
const ttmDays = 365

// Config parameterizes the engine per portfolio. Zero values fall back to
// the dashboard-wide defaults.
type Config struct {
	BiasRule        model.BiasRule
	DividendWindow  model.DividendWindow
	SuspiciousLimit float64
	Notional        float64
}

// FromProfile builds an engine configuration from a stored portfolio profile.
func FromProfile(p model.PortfolioProfile) Config {
	return Config{
		BiasRule:        p.BiasRule,
		DividendWindow:  p.DividendWindow,
		SuspiciousLimit: p.SuspiciousLimit,
	}.withDefaults()
}

func (c Config) withDefaults() Config {
	if c.BiasRule == "" {
		c.BiasRule = model.BiasRuleSimple
	}
	if c.DividendWindow == "" {
		c.DividendWindow = model.WindowSinceEntry
	}
	if c.SuspiciousLimit <= 0 {
		c.SuspiciousLimit = DefaultSuspiciousLimit
	}
	if c.Notional <= 0 {
		c.Notional = DefaultNotional
	}
	return c
}

// Enrich combines one position with its fetch outcome and dividend history
// into an EnrichedAsset. fetchErr carries a transport-level failure for the
// ticker; quote is nil when the provider had no data. Exactly one
// EnrichedAsset is produced for every position, whatever happened to its
// quote.
func Enrich(
	pos model.AssetPosition,
	quote *model.Quote,
	fetchErr error,
	dividends []model.DividendEvent,
	now time.Time,
	cfg Config,
) model.EnrichedAsset {
	cfg = cfg.withDefaults()

	asset := model.EnrichedAsset{
		AssetPosition: pos,
		Bias:          model.BiasWait,
	}

	switch {
	case pos.EntryPrice <= 0:
		// Metrics are undefined without a positive entry price.
		asset.Status = model.StatusError
	case fetchErr != nil:
		asset.Status = model.StatusError
	case quote == nil:
		asset.Status = model.StatusNotFound
	default:
		perf := performancePrice(quote.CurrentPrice, pos.EntryPrice)
		if perf > cfg.SuspiciousLimit || perf < -cfg.SuspiciousLimit {
			// Discard the quote entirely: a price this far out is a unit
			// mismatch, not information.
			asset.Status = model.StatusSuspiciousPrice
		} else {
			asset.Status = model.StatusSuccess
			asset.Quote = quote
		}
	}

	if pos.EntryPrice <= 0 {
		return asset
	}

	price := asset.ResolvedPrice()
	asset.PerformancePrice = performancePrice(price, pos.EntryPrice)
	asset.PerformanceDividends = sumDividends(dividends, windowStart(cfg.DividendWindow, pos.EntryDate, now), now) / pos.EntryPrice * 100

	// Simple addition, not compounded: the dashboard has always reported the
	// two contributions as independent percentages of the entry price.
	asset.PerformanceTotal = asset.PerformancePrice + asset.PerformanceDividends

	asset.DividendYieldTTM = sumDividends(dividends, now.AddDate(0, 0, -ttmDays), now) / price * 100

	asset.Bias = bias(asset, cfg.BiasRule)

	return asset
}

// BuildSnapshot computes the aggregate metrics over a cycle's enriched
// assets. The total return simulates a fixed notional per asset; the average
// yield covers only assets with a yield above zero.
func BuildSnapshot(
	portfolioID string,
	assets []model.EnrichedAsset,
	bench *model.BenchmarkComparison,
	now time.Time,
	cfg Config,
) model.PortfolioSnapshot {
	cfg = cfg.withDefaults()

	snapshot := model.PortfolioSnapshot{
		PortfolioID: portfolioID,
		Assets:      assets,
		Benchmark:   bench,
		GeneratedAt: now,
	}

	if len(assets) == 0 {
		return snapshot
	}

	var invested, final float64
	var yieldSum float64
	yieldCount := 0
	successes := 0

	for _, a := range assets {
		invested += cfg.Notional
		final += cfg.Notional * (1 + a.PerformanceTotal/100)

		if a.PerformanceTotal > 0 {
			snapshot.Winners++
		} else if a.PerformanceTotal < 0 {
			snapshot.Losers++
		}

		if a.DividendYieldTTM > 0 {
			yieldSum += a.DividendYieldTTM
			yieldCount++
		}

		if a.Status == model.StatusSuccess {
			successes++
		}
	}

	snapshot.TotalReturn = (final - invested) / invested * 100
	if yieldCount > 0 {
		snapshot.AverageYield = yieldSum / float64(yieldCount)
	}
	snapshot.SuccessRatio = float64(successes) / float64(len(assets))
	snapshot.Degraded = snapshot.SuccessRatio < 0.5

	return snapshot
}

func performancePrice(current, entry float64) float64 {
	return (current - entry) / entry * 100
}

// sumDividends totals event amounts with eventDate in [start, now]. Both
// boundaries are inclusive. Events dated after now are declared but not yet
// paid and must not count as received money.
func sumDividends(events []model.DividendEvent, start, now time.Time) float64 {
	var total float64
	for _, e := range events {
		if !e.EventDate.Before(start) && !e.EventDate.After(now) {
			total += e.Amount
		}
	}
	return total
}

func windowStart(window model.DividendWindow, entryDate, now time.Time) time.Time {
	if window == model.WindowTrailingYear {
		return now.AddDate(0, 0, -ttmDays)
	}
	return entryDate
}

// bias derives the buy/wait signal. No ceiling price or no live quote means
// there is nothing to compare, which always reads as wait.
func bias(asset model.EnrichedAsset, rule model.BiasRule) model.Bias {
	if asset.CeilingPrice == nil || asset.Status != model.StatusSuccess || asset.Quote == nil {
		return model.BiasWait
	}

	threshold := *asset.CeilingPrice
	if rule == model.BiasRuleMargin {
		threshold *= 0.95
	}

	if asset.Quote.CurrentPrice < threshold {
		return model.BiasBuy
	}
	return model.BiasWait
}
