package testutil

import (
	"context"
	"sync"
	"time"

	"github.com/lmeira/carteira-core/internal/fetch"
	"github.com/lmeira/carteira-core/internal/model"
	"github.com/lmeira/carteira-core/internal/yahoo"
)

// MockQuoteClient is a configurable stand-in for the provider client.
// Tests set the function fields to script responses; call counts are
// recorded for asserting request patterns.
type MockQuoteClient struct {
	mu sync.Mutex

	QuotesFunc            func(ctx context.Context, symbols []string) ([]model.Quote, error)
	QuotesWithVariantFunc func(ctx context.Context, symbols []string, v yahoo.RequestVariant) ([]model.Quote, error)
	ChartFunc             func(ctx context.Context, symbol string, startDate, endDate time.Time) (model.BenchmarkSeries, error)

	QuotesCalls  [][]string
	VariantCalls []string
	ChartCalls   int
}

// NewMockQuoteClient creates a mock that returns empty results by default.
func NewMockQuoteClient() *MockQuoteClient {
	return &MockQuoteClient{}
}

func (m *MockQuoteClient) Quotes(ctx context.Context, symbols []string) ([]model.Quote, error) {
	m.mu.Lock()
	m.QuotesCalls = append(m.QuotesCalls, symbols)
	fn := m.QuotesFunc
	m.mu.Unlock()

	if fn == nil {
		return nil, nil
	}
	return fn(ctx, symbols)
}

func (m *MockQuoteClient) QuotesWithVariant(ctx context.Context, symbols []string, v yahoo.RequestVariant) ([]model.Quote, error) {
	m.mu.Lock()
	m.VariantCalls = append(m.VariantCalls, v.Name)
	fn := m.QuotesWithVariantFunc
	m.mu.Unlock()

	if fn == nil {
		return nil, nil
	}
	return fn(ctx, symbols, v)
}

func (m *MockQuoteClient) Chart(ctx context.Context, symbol string, startDate, endDate time.Time) (model.BenchmarkSeries, error) {
	m.mu.Lock()
	m.ChartCalls++
	fn := m.ChartFunc
	m.mu.Unlock()

	if fn == nil {
		return model.BenchmarkSeries{}, nil
	}
	return fn(ctx, symbol, startDate, endDate)
}

// MakeQuote builds a quote for a ticker at a given price.
func MakeQuote(ticker string, price float64) model.Quote {
	return model.Quote{
		Ticker:       ticker,
		CurrentPrice: price,
		DisplayName:  ticker,
		FetchedAt:    time.Now().UTC(),
	}
}

// StaticStrategy is a fetch strategy returning a fixed result map.
// Fetches are counted so tests can assert cache and single-flight behavior.
type StaticStrategy struct {
	mu      sync.Mutex
	Results map[string]fetch.Result
	Delay   time.Duration
	calls   int
}

// NewStaticStrategy creates a strategy resolving each ticker to a successful
// quote at the given price.
func NewStaticStrategy(prices map[string]float64) *StaticStrategy {
	results := make(map[string]fetch.Result, len(prices))
	for ticker, price := range prices {
		q := MakeQuote(ticker, price)
		results[ticker] = fetch.Result{Quote: &q}
	}
	return &StaticStrategy{Results: results}
}

func (s *StaticStrategy) Fetch(ctx context.Context, tickers []string) map[string]fetch.Result {
	s.mu.Lock()
	s.calls++
	s.mu.Unlock()

	if s.Delay > 0 {
		select {
		case <-time.After(s.Delay):
		case <-ctx.Done():
			return map[string]fetch.Result{}
		}
	}

	out := make(map[string]fetch.Result, len(tickers))
	for _, ticker := range tickers {
		if r, ok := s.Results[ticker]; ok {
			out[ticker] = r
		}
	}
	return out
}

// FetchCount reports how many times Fetch ran.
func (s *StaticStrategy) FetchCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}
