package fetch

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// GroupedStrategy splits the ticker set into small concurrent groups with
// inter-group pacing, respecting provider rate limits on constrained
// devices. Each group is one combined request under its own time budget.
type GroupedStrategy struct {
	client    QuoteClient
	groupSize int
	pacing    time.Duration
	timeout   time.Duration
	logger    *zap.Logger
}

func NewGrouped(client QuoteClient, opts Options, logger *zap.Logger) *GroupedStrategy {
	opts = opts.withDefaults()
	return &GroupedStrategy{
		client:    client,
		groupSize: opts.GroupSize,
		pacing:    opts.GroupPacing,
		timeout:   opts.CombinedTimeout,
		logger:    ensureLogger(logger),
	}
}

// Fetch resolves the set group by group. Group launches are staggered by the
// pacing interval; groups already launched run concurrently. A failed group
// marks only its own tickers.
func (s *GroupedStrategy) Fetch(ctx context.Context, tickers []string) map[string]Result {
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

			gctx, cancel := context.WithTimeout(ctx, s.timeout)
			defer cancel()

			quotes, err := s.client.Quotes(gctx, group)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				s.logger.Warn("quote group fetch failed",
					zap.Strings("tickers", group),
					zap.Error(err),
				)
				for _, t := range group {
					results[t] = Result{Err: err}
				}
				return nil
			}
			for i := range quotes {
				results[quotes[i].Ticker] = Result{Quote: &quotes[i]}
			}
			return nil
		})
	}

	// Goroutines report per-ticker failures through the map, never as errors.
	_ = g.Wait()

	return results
}

// sleepCtx waits for d or until the context is cancelled.
func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
