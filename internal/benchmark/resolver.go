// Package benchmark resolves a comparison baseline for a portfolio: the
// benchmark index value at portfolio inception and its current value, and
// the benchmark return over [inception, now] using the same arithmetic as
// asset performance.
package benchmark

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v5"
	"go.uber.org/zap"

	"github.com/lmeira/carteira-core/internal/apperrors"
	"github.com/lmeira/carteira-core/internal/model"
)

// SeriesClient is the slice of the provider client the resolver uses.
type SeriesClient interface {
	Chart(ctx context.Context, symbol string, startDate, endDate time.Time) (model.BenchmarkSeries, error)
}

// Resolver resolves benchmark values with a fixed fallback order: the
// provider's historical series (closest available date by minimal absolute
// time delta), then a static month-granularity table of approximate values,
// then a fixed default constant. Resolution never fails; it only degrades.
type Resolver struct {
	client  SeriesClient
	symbol  string
	timeout time.Duration
	logger  *zap.Logger
}

func New(client SeriesClient, symbol string, logger *zap.Logger) *Resolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Resolver{
		client:  client,
		symbol:  symbol,
		timeout: 8 * time.Second,
		logger:  logger,
	}
}

// Compare computes the benchmark comparison for a set of positions.
// Portfolio inception is the earliest entry date among them. Returns nil
// when there are no positions to anchor an inception date.
func (r *Resolver) Compare(ctx context.Context, positions []model.AssetPosition, now time.Time) *model.BenchmarkComparison {
	inception, ok := earliestEntry(positions)
	if !ok {
		return nil
	}

	comparison := &model.BenchmarkComparison{
		Symbol:        r.symbol,
		InceptionDate: inception,
	}

	series, err := r.fetchSeries(ctx, inception, now)
	if err == nil {
		inceptionPoint, okStart := series.ClosestTo(inception)
		currentPoint, okEnd := series.Latest()
		if okStart && okEnd {
			comparison.InceptionValue = inceptionPoint.Close
			comparison.CurrentValue = currentPoint.Close
			comparison.Source = "series"
		}
	} else {
		r.logger.Warn("benchmark series unavailable, falling back",
			zap.String("symbol", r.symbol),
			zap.Error(err),
		)
	}

	if comparison.Source == "" {
		if start, ok := tableValue(inception.Year(), int(inception.Month())); ok {
			comparison.InceptionValue = start
			comparison.Source = "table"
			if current, ok := tableValue(now.Year(), int(now.Month())); ok {
				comparison.CurrentValue = current
			} else {
				comparison.CurrentValue = start
			}
		}
	}

	if comparison.Source == "" {
		comparison.InceptionValue = DefaultIndexValue
		comparison.CurrentValue = DefaultIndexValue
		comparison.Source = "default"
	}

	if comparison.InceptionValue > 0 {
		comparison.Return = (comparison.CurrentValue - comparison.InceptionValue) / comparison.InceptionValue * 100
	}

	return comparison
}

// fetchSeries loads the historical series with a small retry budget; the
// chart endpoint fails transiently far more often than the quote endpoint.
func (r *Resolver) fetchSeries(ctx context.Context, inception, now time.Time) (model.BenchmarkSeries, error) {
	// Widen the window slightly so the closest-date lookup has a candidate
	// even when inception falls on a weekend or holiday.
	start := inception.AddDate(0, 0, -7)

	operation := func() (model.BenchmarkSeries, error) {
		sctx, cancel := context.WithTimeout(ctx, r.timeout)
		defer cancel()
		series, err := r.client.Chart(sctx, r.symbol, start, now)
		var httpErr *apperrors.ProviderHTTPError
		if errors.As(err, &httpErr) && httpErr.Status >= 400 && httpErr.Status < 500 {
			// A 4xx answer will not improve on retry; only timeouts and
			// server-side failures consume the retry budget.
			return model.BenchmarkSeries{}, backoff.Permanent(err)
		}
		return series, err
	}

	return backoff.Retry(ctx, operation,
		backoff.WithBackOff(backoff.NewExponentialBackOff()),
		backoff.WithMaxTries(3),
	)
}

func earliestEntry(positions []model.AssetPosition) (time.Time, bool) {
	var earliest time.Time
	found := false
	for _, p := range positions {
		if p.EntryDate.IsZero() {
			continue
		}
		if !found || p.EntryDate.Before(earliest) {
			earliest = p.EntryDate
			found = true
		}
	}
	return earliest, found
}
