package fetch

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/lmeira/carteira-core/internal/apperrors"
	"github.com/lmeira/carteira-core/internal/model"
	"github.com/lmeira/carteira-core/internal/yahoo"
)

// Attempt is a single bounded way of resolving a quote for one ticker.
type Attempt func(ctx context.Context) (*model.Quote, error)

// firstSuccess tries attempts in order, each under its own timeout, and
// stops at the first one that yields a quote. Exhausting every attempt
// resolves to ErrQuoteNotFound; context cancellation aborts immediately.
func firstSuccess(ctx context.Context, attempts []Attempt, timeout time.Duration) (*model.Quote, error) {
	var lastErr error

	for _, attempt := range attempts {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		actx, cancel := context.WithTimeout(ctx, timeout)
		quote, err := attempt(actx)
		cancel()

		if err == nil && quote != nil {
			return quote, nil
		}
		if err != nil && errors.Is(err, context.Canceled) {
			return nil, err
		}
		lastErr = err
	}

	if lastErr != nil {
		return nil, fmt.Errorf("%w: all variants exhausted: %v", apperrors.ErrQuoteNotFound, lastErr)
	}
	return nil, fmt.Errorf("%w: all variants exhausted", apperrors.ErrQuoteNotFound)
}

// ResilientStrategy resolves each ticker through an ordered list of request
// variants, stopping at the first success. Tickers are processed in small
// paced groups like GroupedStrategy; within a group each ticker runs its own
// variant walk concurrently. This is the maximum-resilience path for pages
// that must keep rendering on hostile networks.
type ResilientStrategy struct {
	client         QuoteClient
	variants       []yahoo.RequestVariant
	groupSize      int
	pacing         time.Duration
	variantTimeout time.Duration
	logger         *zap.Logger
}

func NewResilient(client QuoteClient, opts Options, logger *zap.Logger) *ResilientStrategy {
	opts = opts.withDefaults()
	return &ResilientStrategy{
		client:         client,
		variants:       opts.Variants,
		groupSize:      opts.GroupSize,
		pacing:         opts.GroupPacing,
		variantTimeout: opts.VariantTimeout,
		logger:         ensureLogger(logger),
	}
}

// Fetch resolves each ticker independently. A ticker whose variants are all
// exhausted is left out of the map (not found); cancellation mid-walk is
// recorded as an error so callers can discard the cycle.
func (s *ResilientStrategy) Fetch(ctx context.Context, tickers []string) map[string]Result {
	results := make(map[string]Result, len(tickers))
	if len(tickers) == 0 {
		return results
	}

	var mu sync.Mutex
	var g errgroup.Group

	for i, group := range chunk(tickers, s.groupSize) {
		delay := time.Duration(i) * s.pacing
		group := group

		g.Go(func() error {
			if err := sleepCtx(ctx, delay); err != nil {
				mu.Lock()
				for _, t := range group {
					results[t] = Result{Err: err}
				}
				mu.Unlock()
				return nil
			}

			var tg errgroup.Group
			for _, ticker := range group {
				ticker := ticker
				tg.Go(func() error {
					quote, err := firstSuccess(ctx, s.attempts(ticker), s.variantTimeout)

					mu.Lock()
					defer mu.Unlock()
					switch {
					case err == nil:
						results[ticker] = Result{Quote: quote}
					case errors.Is(err, apperrors.ErrQuoteNotFound):
						// Absent from the map: settled as not found.
						s.logger.Debug("ticker exhausted all request variants",
							zap.String("ticker", ticker),
							zap.Error(err),
						)
					default:
						results[ticker] = Result{Err: err}
					}
					return nil
				})
			}
			return tg.Wait()
		})
	}

	_ = g.Wait()

	return results
}

// attempts builds the ordered attempt list for one ticker from the
// configured request variants.
func (s *ResilientStrategy) attempts(ticker string) []Attempt {
	attempts := make([]Attempt, 0, len(s.variants))
	for _, v := range s.variants {
		v := v
		attempts = append(attempts, func(ctx context.Context) (*model.Quote, error) {
			quotes, err := s.client.QuotesWithVariant(ctx, []string{ticker}, v)
			if err != nil {
				return nil, err
			}
			for i := range quotes {
				if quotes[i].Ticker == ticker {
					return &quotes[i], nil
				}
			}
			return nil, apperrors.ErrQuoteNotFound
		})
	}
	return attempts
}
