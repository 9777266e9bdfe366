// Package fetch resolves live quotes for a ticker set under a bounded time
// budget. Failures are isolated per ticker: the returned map is always
// usable, and no ticker's failure blocks the others.
//
// Three strategies exist. Unconstrained devices issue one combined request
// for the whole set. Constrained devices split the set into small paced
// groups. Pages that must survive flaky networks additionally walk an
// ordered list of request variants per ticker.
package fetch

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/lmeira/carteira-core/internal/config"
	"github.com/lmeira/carteira-core/internal/model"
	"github.com/lmeira/carteira-core/internal/yahoo"
)

// Result is the outcome of resolving one ticker. Exactly one of Quote or Err
// is set. A ticker absent from the strategy's result map resolved to
// "not found": the provider gave no data and no transport error occurred.
type Result struct {
	Quote *model.Quote
	Err   error
}

// Strategy resolves quotes for a ticker set. Implementations must respect
// context cancellation and must never fail the whole set because one ticker
// failed.
type Strategy interface {
	Fetch(ctx context.Context, tickers []string) map[string]Result
}

// QuoteClient is the slice of the provider client the fetch strategies use.
type QuoteClient interface {
	Quotes(ctx context.Context, symbols []string) ([]model.Quote, error)
	QuotesWithVariant(ctx context.Context, symbols []string, v yahoo.RequestVariant) ([]model.Quote, error)
}

// Options carries the strategy tunables. Zero values fall back to the
// defaults used across the dashboard.
type Options struct {
	CombinedTimeout time.Duration
	GroupSize       int
	GroupPacing     time.Duration
	VariantTimeout  time.Duration
	Variants        []yahoo.RequestVariant
}

func (o Options) withDefaults() Options {
	if o.CombinedTimeout <= 0 {
		o.CombinedTimeout = 6 * time.Second
	}
	if o.GroupSize <= 0 {
		o.GroupSize = 4
	}
	if o.GroupPacing <= 0 {
		o.GroupPacing = 500 * time.Millisecond
	}
	if o.VariantTimeout <= 0 {
		o.VariantTimeout = 2500 * time.Millisecond
	}
	if len(o.Variants) == 0 {
		o.Variants = yahoo.DefaultVariants()
	}
	return o
}

// ForDevice selects the strategy for a device class, classified once per
// session from configuration. The resilient flag selects the per-ticker
// variant-fallback path and only applies to constrained devices.
func ForDevice(deviceClass string, resilient bool, client QuoteClient, opts Options, logger *zap.Logger) Strategy {
	if deviceClass == config.DeviceConstrained {
		if resilient {
			return NewResilient(client, opts, logger)
		}
		return NewGrouped(client, opts, logger)
	}
	return NewCombined(client, opts, logger)
}

// chunk splits tickers into groups of at most size elements, preserving order.
func chunk(tickers []string, size int) [][]string {
	var groups [][]string
	for len(tickers) > size {
		groups = append(groups, tickers[:size])
		tickers = tickers[size:]
	}
	if len(tickers) > 0 {
		groups = append(groups, tickers)
	}
	return groups
}

func ensureLogger(logger *zap.Logger) *zap.Logger {
	if logger == nil {
		return zap.NewNop()
	}
	return logger
}
