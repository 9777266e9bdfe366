package fetch

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// CombinedStrategy resolves the whole ticker set with one provider request
// under a single time budget. Used on unconstrained devices, where one large
// request is cheaper than many small ones.
type CombinedStrategy struct {
	client  QuoteClient
	timeout time.Duration
	logger  *zap.Logger
}

func NewCombined(client QuoteClient, opts Options, logger *zap.Logger) *CombinedStrategy {
	opts = opts.withDefaults()
	return &CombinedStrategy{
		client:  client,
		timeout: opts.CombinedTimeout,
		logger:  ensureLogger(logger),
	}
}

// Fetch issues one combined request. When the request fails as a whole,
// every ticker carries the error; tickers missing from a successful response
// are absent from the map and resolve to not found downstream.
func (s *CombinedStrategy) Fetch(ctx context.Context, tickers []string) map[string]Result {
	results := make(map[string]Result, len(tickers))
	if len(tickers) == 0 {
		return results
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	quotes, err := s.client.Quotes(ctx, tickers)
	if err != nil {
		s.logger.Warn("combined quote fetch failed",
			zap.Int("tickers", len(tickers)),
			zap.Error(err),
		)
		for _, t := range tickers {
			results[t] = Result{Err: err}
		}
		return results
	}

	for i := range quotes {
		results[quotes[i].Ticker] = Result{Quote: &quotes[i]}
	}
	return results
}
