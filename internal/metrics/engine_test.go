package metrics_test

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/lmeira/carteira-core/internal/metrics"
	"github.com/lmeira/carteira-core/internal/model"
	"github.com/lmeira/carteira-core/internal/testutil"
)

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func position(ticker string, entryPrice float64, entryDate time.Time) model.AssetPosition {
	return model.AssetPosition{
		Ticker:     ticker,
		EntryDate:  entryDate,
		EntryPrice: entryPrice,
		Currency:   "BRL",
	}
}

func quote(ticker string, price float64) *model.Quote {
	q := testutil.MakeQuote(ticker, price)
	return &q
}

// TestEnrich_Performance tests the per-asset performance arithmetic.
//
// WHY: The performance numbers are the dashboard's headline figures. This
// pins down the exact formulas: price performance relative to entry, dividend
// performance relative to entry, and their simple (not compounded) sum.
func TestEnrich_Performance(t *testing.T) {
	now := testutil.Date(2026, time.August, 1)
	entry := testutil.Date(2026, time.January, 15)

	t.Run("computes price, dividend and total performance", func(t *testing.T) {
		pos := position("BBAS3", 10.0, entry)
		dividends := []model.DividendEvent{
			{Ticker: "BBAS3", Amount: 0.30, EventDate: testutil.Date(2026, time.March, 1)},
			{Ticker: "BBAS3", Amount: 0.20, EventDate: testutil.Date(2026, time.June, 1)},
		}

		asset := metrics.Enrich(pos, quote("BBAS3", 12.0), nil, dividends, now, metrics.Config{})

		if asset.Status != model.StatusSuccess {
			t.Fatalf("Expected success status, got %s", asset.Status)
		}
		if !almostEqual(asset.PerformancePrice, 20.0) {
			t.Errorf("Expected price performance 20%%, got %f", asset.PerformancePrice)
		}
		// 0.50 of dividends on a 10.0 entry price is 5%.
		if !almostEqual(asset.PerformanceDividends, 5.0) {
			t.Errorf("Expected dividend performance 5%%, got %f", asset.PerformanceDividends)
		}
		if !almostEqual(asset.PerformanceTotal, 25.0) {
			t.Errorf("Expected total performance 25%%, got %f", asset.PerformanceTotal)
		}
	})

	t.Run("excludes dividends before the entry date by default", func(t *testing.T) {
		pos := position("BBAS3", 10.0, entry)
		dividends := []model.DividendEvent{
			{Ticker: "BBAS3", Amount: 1.00, EventDate: testutil.Date(2025, time.June, 1)},
			{Ticker: "BBAS3", Amount: 0.50, EventDate: testutil.Date(2026, time.March, 1)},
		}

		asset := metrics.Enrich(pos, quote("BBAS3", 10.0), nil, dividends, now, metrics.Config{})

		if !almostEqual(asset.PerformanceDividends, 5.0) {
			t.Errorf("Expected only post-entry dividends (5%%), got %f", asset.PerformanceDividends)
		}
	})

	t.Run("dividend on the entry date itself counts", func(t *testing.T) {
		pos := position("BBAS3", 10.0, entry)
		dividends := []model.DividendEvent{
			{Ticker: "BBAS3", Amount: 0.50, EventDate: entry},
		}

		asset := metrics.Enrich(pos, quote("BBAS3", 10.0), nil, dividends, now, metrics.Config{})

		if !almostEqual(asset.PerformanceDividends, 5.0) {
			t.Errorf("Expected inclusive window boundary (5%%), got %f", asset.PerformanceDividends)
		}
	})

	t.Run("declared-but-unpaid dividends do not count", func(t *testing.T) {
		pos := position("BBAS3", 10.0, entry)
		dividends := []model.DividendEvent{
			// Payment scheduled a month from now; the money has not arrived.
			{Ticker: "BBAS3", Amount: 1.00, EventDate: now.AddDate(0, 0, 30)},
			{Ticker: "BBAS3", Amount: 0.50, EventDate: testutil.Date(2026, time.March, 1)},
		}

		asset := metrics.Enrich(pos, quote("BBAS3", 10.0), nil, dividends, now, metrics.Config{})

		if !almostEqual(asset.PerformanceDividends, 5.0) {
			t.Errorf("Expected future payment excluded (5%%), got %f", asset.PerformanceDividends)
		}
		if !almostEqual(asset.PerformanceTotal, 5.0) {
			t.Errorf("Expected total performance 5%%, got %f", asset.PerformanceTotal)
		}
	})

	t.Run("trailing window ignores the entry date", func(t *testing.T) {
		oldEntry := testutil.Date(2023, time.January, 1)
		pos := position("BBAS3", 10.0, oldEntry)
		dividends := []model.DividendEvent{
			// Inside the trailing year but long after entry.
			{Ticker: "BBAS3", Amount: 0.50, EventDate: testutil.Date(2026, time.March, 1)},
			// After entry but outside the trailing year.
			{Ticker: "BBAS3", Amount: 2.00, EventDate: testutil.Date(2024, time.March, 1)},
		}

		cfg := metrics.Config{DividendWindow: model.WindowTrailingYear}
		asset := metrics.Enrich(pos, quote("BBAS3", 10.0), nil, dividends, now, cfg)

		if !almostEqual(asset.PerformanceDividends, 5.0) {
			t.Errorf("Expected trailing-year dividends only (5%%), got %f", asset.PerformanceDividends)
		}
	})
}

// TestEnrich_DividendYieldTTM tests the trailing-twelve-month yield.
//
// WHY: The yield divides by the resolved price, not the entry price, and its
// window boundary is inclusive at exactly 365 days. Both details have bitten
// the dashboard before and must stay pinned.
func TestEnrich_DividendYieldTTM(t *testing.T) {
	now := testutil.Date(2026, time.August, 1)
	entry := testutil.Date(2024, time.January, 1)

	t.Run("uses resolved price as denominator", func(t *testing.T) {
		pos := position("TAEE11", 20.0, entry)
		dividends := []model.DividendEvent{
			{Ticker: "TAEE11", Amount: 2.00, EventDate: testutil.Date(2026, time.February, 1)},
		}

		asset := metrics.Enrich(pos, quote("TAEE11", 40.0), nil, dividends, now, metrics.Config{})

		// 2.00 over the live price 40.0, not the entry price.
		if !almostEqual(asset.DividendYieldTTM, 5.0) {
			t.Errorf("Expected yield 5%% of live price, got %f", asset.DividendYieldTTM)
		}
	})

	t.Run("event exactly 365 days ago counts", func(t *testing.T) {
		pos := position("TAEE11", 20.0, entry)
		dividends := []model.DividendEvent{
			{Ticker: "TAEE11", Amount: 1.00, EventDate: now.AddDate(0, 0, -365)},
			{Ticker: "TAEE11", Amount: 1.00, EventDate: now.AddDate(0, 0, -366)},
		}

		asset := metrics.Enrich(pos, quote("TAEE11", 20.0), nil, dividends, now, metrics.Config{})

		// Only the event on the boundary counts: 1.00 / 20.0 = 5%.
		if !almostEqual(asset.DividendYieldTTM, 5.0) {
			t.Errorf("Expected yield 5%%, got %f", asset.DividendYieldTTM)
		}
	})

	t.Run("future-dated events are excluded, today counts", func(t *testing.T) {
		pos := position("TAEE11", 20.0, entry)
		dividends := []model.DividendEvent{
			{Ticker: "TAEE11", Amount: 1.00, EventDate: now},
			{Ticker: "TAEE11", Amount: 3.00, EventDate: now.AddDate(0, 0, 30)},
		}

		asset := metrics.Enrich(pos, quote("TAEE11", 20.0), nil, dividends, now, metrics.Config{})

		// The scheduled future payment must not inflate the yield: only the
		// event dated exactly now counts, 1.00 / 20.0 = 5%.
		if !almostEqual(asset.DividendYieldTTM, 5.0) {
			t.Errorf("Expected yield 5%%, got %f", asset.DividendYieldTTM)
		}
	})

	t.Run("falls back to entry price when the quote is missing", func(t *testing.T) {
		pos := position("TAEE11", 20.0, entry)
		dividends := []model.DividendEvent{
			{Ticker: "TAEE11", Amount: 1.00, EventDate: testutil.Date(2026, time.February, 1)},
		}

		asset := metrics.Enrich(pos, nil, nil, dividends, now, metrics.Config{})

		if asset.Status != model.StatusNotFound {
			t.Fatalf("Expected not_found status, got %s", asset.Status)
		}
		if !almostEqual(asset.DividendYieldTTM, 5.0) {
			t.Errorf("Expected yield against entry price (5%%), got %f", asset.DividendYieldTTM)
		}
	})
}

// TestEnrich_Status tests quote-outcome to asset-status resolution.
//
// WHY: Every position must land in exactly one of four states, and the
// suspicious-price guard must discard the quote entirely rather than letting
// an absurd number contaminate the metrics.
func TestEnrich_Status(t *testing.T) {
	now := testutil.Date(2026, time.August, 1)
	entry := testutil.Date(2026, time.January, 15)

	t.Run("transport error yields error status with entry-price metrics", func(t *testing.T) {
		pos := position("PETR4", 30.0, entry)

		asset := metrics.Enrich(pos, nil, errors.New("connection reset"), nil, now, metrics.Config{})

		if asset.Status != model.StatusError {
			t.Fatalf("Expected error status, got %s", asset.Status)
		}
		if asset.Quote != nil {
			t.Error("Expected no quote on a failed fetch")
		}
		if !almostEqual(asset.PerformancePrice, 0.0) {
			t.Errorf("Expected 0%% price performance from entry-price fallback, got %f", asset.PerformancePrice)
		}
	})

	t.Run("suspicious price is discarded, not reported", func(t *testing.T) {
		pos := position("PETR4", 30.0, entry)

		// +900% implies a unit mismatch under the default 200% ceiling.
		asset := metrics.Enrich(pos, quote("PETR4", 300.0), nil, nil, now, metrics.Config{})

		if asset.Status != model.StatusSuspiciousPrice {
			t.Fatalf("Expected suspicious_price status, got %s", asset.Status)
		}
		if asset.Quote != nil {
			t.Error("Expected suspicious quote to be discarded")
		}
		if !almostEqual(asset.PerformancePrice, 0.0) {
			t.Errorf("Expected metrics from entry price, got %f", asset.PerformancePrice)
		}
	})

	t.Run("suspicious guard is symmetric for crashes", func(t *testing.T) {
		pos := position("PETR4", 300.0, entry)

		cfg := metrics.Config{SuspiciousLimit: 90}
		asset := metrics.Enrich(pos, quote("PETR4", 3.0), nil, nil, now, cfg)

		if asset.Status != model.StatusSuspiciousPrice {
			t.Fatalf("Expected suspicious_price status, got %s", asset.Status)
		}
	})

	t.Run("raised limit admits cross-currency excursions", func(t *testing.T) {
		pos := position("AAPL34", 10.0, entry)

		cfg := metrics.Config{SuspiciousLimit: metrics.CrossCurrencySuspiciousLimit}
		asset := metrics.Enrich(pos, quote("AAPL34", 60.0), nil, nil, now, cfg)

		if asset.Status != model.StatusSuccess {
			t.Fatalf("Expected success under the raised limit, got %s", asset.Status)
		}
	})

	t.Run("non-positive entry price yields error without metrics", func(t *testing.T) {
		pos := position("PETR4", 0, entry)

		asset := metrics.Enrich(pos, quote("PETR4", 30.0), nil, nil, now, metrics.Config{})

		if asset.Status != model.StatusError {
			t.Fatalf("Expected error status, got %s", asset.Status)
		}
		if asset.PerformancePrice != 0 || asset.DividendYieldTTM != 0 {
			t.Error("Expected no metrics when entry price is not positive")
		}
	})
}

// TestEnrich_Bias tests the buy/wait signal.
//
// WHY: The bias drives a visible call to action. Missing inputs must always
// read as wait, and the margin-rule variant must tighten the threshold by 5%.
func TestEnrich_Bias(t *testing.T) {
	now := testutil.Date(2026, time.August, 1)
	entry := testutil.Date(2026, time.January, 15)
	ceiling := 50.0

	withCeiling := func() model.AssetPosition {
		pos := position("ITSA4", 10.0, entry)
		pos.CeilingPrice = &ceiling
		return pos
	}

	t.Run("price below ceiling reads buy", func(t *testing.T) {
		asset := metrics.Enrich(withCeiling(), quote("ITSA4", 12.0), nil, nil, now, metrics.Config{})
		if asset.Bias != model.BiasBuy {
			t.Errorf("Expected %s, got %s", model.BiasBuy, asset.Bias)
		}
	})

	t.Run("price at or above ceiling reads wait", func(t *testing.T) {
		asset := metrics.Enrich(withCeiling(), quote("ITSA4", 50.0), nil, nil, now, metrics.Config{})
		if asset.Bias != model.BiasWait {
			t.Errorf("Expected %s, got %s", model.BiasWait, asset.Bias)
		}
	})

	t.Run("no ceiling price reads wait", func(t *testing.T) {
		asset := metrics.Enrich(position("ITSA4", 10.0, entry), quote("ITSA4", 12.0), nil, nil, now, metrics.Config{})
		if asset.Bias != model.BiasWait {
			t.Errorf("Expected %s, got %s", model.BiasWait, asset.Bias)
		}
	})

	t.Run("no live quote reads wait", func(t *testing.T) {
		asset := metrics.Enrich(withCeiling(), nil, nil, nil, now, metrics.Config{})
		if asset.Bias != model.BiasWait {
			t.Errorf("Expected %s, got %s", model.BiasWait, asset.Bias)
		}
	})

	t.Run("margin rule tightens the threshold", func(t *testing.T) {
		cfg := metrics.Config{BiasRule: model.BiasRuleMargin}

		// 48.0 is below the 50.0 ceiling but above 95% of it (47.5).
		asset := metrics.Enrich(withCeiling(), quote("ITSA4", 48.0), nil, nil, now, cfg)
		if asset.Bias != model.BiasWait {
			t.Errorf("Expected %s under margin rule, got %s", model.BiasWait, asset.Bias)
		}

		asset = metrics.Enrich(withCeiling(), quote("ITSA4", 47.0), nil, nil, now, cfg)
		if asset.Bias != model.BiasBuy {
			t.Errorf("Expected %s under margin rule, got %s", model.BiasBuy, asset.Bias)
		}
	})
}

// TestBuildSnapshot tests the portfolio-level aggregates.
//
// WHY: The aggregates simulate an equal notional per asset, count winners
// and losers by total performance sign, and average the yield only over
// assets that actually pay. The degraded flag gates a visible banner.
func TestBuildSnapshot(t *testing.T) {
	now := testutil.Date(2026, time.August, 1)

	asset := func(total, yield float64, status model.AssetStatus) model.EnrichedAsset {
		return model.EnrichedAsset{
			PerformanceTotal: total,
			DividendYieldTTM: yield,
			Status:           status,
		}
	}

	t.Run("equal-weight total return and winner counts", func(t *testing.T) {
		assets := []model.EnrichedAsset{
			asset(20, 4, model.StatusSuccess),
			asset(-10, 0, model.StatusSuccess),
			asset(0, 6, model.StatusSuccess),
		}

		snapshot := metrics.BuildSnapshot("p1", assets, nil, now, metrics.Config{})

		// (20 - 10 + 0) / 3 assets of equal notional.
		if !almostEqual(snapshot.TotalReturn, 10.0/3.0) {
			t.Errorf("Expected total return %f, got %f", 10.0/3.0, snapshot.TotalReturn)
		}
		if snapshot.Winners != 1 || snapshot.Losers != 1 {
			t.Errorf("Expected 1 winner and 1 loser, got %d and %d", snapshot.Winners, snapshot.Losers)
		}
		// Flat performers count on neither side.
		if !almostEqual(snapshot.AverageYield, 5.0) {
			t.Errorf("Expected average yield over paying assets only (5%%), got %f", snapshot.AverageYield)
		}
	})

	t.Run("success ratio and degraded flag", func(t *testing.T) {
		assets := []model.EnrichedAsset{
			asset(0, 0, model.StatusSuccess),
			asset(0, 0, model.StatusNotFound),
			asset(0, 0, model.StatusError),
			asset(0, 0, model.StatusSuspiciousPrice),
		}

		snapshot := metrics.BuildSnapshot("p1", assets, nil, now, metrics.Config{})

		if !almostEqual(snapshot.SuccessRatio, 0.25) {
			t.Errorf("Expected success ratio 0.25, got %f", snapshot.SuccessRatio)
		}
		if !snapshot.Degraded {
			t.Error("Expected degraded flag below one-half success")
		}
	})

	t.Run("exactly half success is not degraded", func(t *testing.T) {
		assets := []model.EnrichedAsset{
			asset(0, 0, model.StatusSuccess),
			asset(0, 0, model.StatusError),
		}

		snapshot := metrics.BuildSnapshot("p1", assets, nil, now, metrics.Config{})

		if snapshot.Degraded {
			t.Error("Expected no degraded flag at exactly one-half success")
		}
	})

	t.Run("empty portfolio yields zero aggregates", func(t *testing.T) {
		snapshot := metrics.BuildSnapshot("p1", nil, nil, now, metrics.Config{})

		if snapshot.TotalReturn != 0 || snapshot.AverageYield != 0 {
			t.Error("Expected zero aggregates for an empty portfolio")
		}
		if snapshot.Degraded {
			t.Error("Expected no degraded flag for an empty portfolio")
		}
	})
}
