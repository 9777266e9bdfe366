package yahoo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/lmeira/carteira-core/internal/apperrors"
	"github.com/lmeira/carteira-core/internal/model"
)

// RequestVariant describes one shape of provider request: a base URL and the
// headers sent with it. The resilient fetch path walks an ordered list of
// variants until one succeeds; which variant works depends on how aggressive
// the provider's edge filtering currently is.
type RequestVariant struct {
	Name      string
	BaseURL   string
	UserAgent string
}

// DefaultVariants returns the ordered request variants tried on the
// resilient fetch path. Order matters: the plain query1 request works for
// most clients, the alternates exist for networks where it does not.
func DefaultVariants() []RequestVariant {
	return []RequestVariant{
		{
			Name:      "query1-desktop",
			BaseURL:   "https://query1.finance.yahoo.com",
			UserAgent: "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36",
		},
		{
			Name:      "query2-desktop",
			BaseURL:   "https://query2.finance.yahoo.com",
			UserAgent: "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36",
		},
		{
			Name:      "query1-mobile",
			BaseURL:   "https://query1.finance.yahoo.com",
			UserAgent: "Mozilla/5.0 (iPhone; CPU iPhone OS 16_5 like Mac OS X) AppleWebKit/605.1.15",
		},
	}
}

// Client provides methods for fetching financial data from the Yahoo Finance
// API: live quotes for a symbol set and historical series for benchmark
// resolution. All requests are context-aware and individually time-bounded
// by the caller.
type Client struct {
	httpClient *http.Client
	baseURL    string
	userAgent  string
	token      string
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL overrides the default provider base URL. Used by tests and by
// request variants.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) { c.baseURL = baseURL }
}

// WithToken sets a bearer token for the provider's authenticated tier.
func WithToken(token string) Option {
	return func(c *Client) { c.token = token }
}

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) { c.httpClient = httpClient }
}

// NewClient creates a new Yahoo Finance client with default HTTP settings.
// No client-level timeout is set: every call site bounds its requests with a
// context deadline, which keeps a single budget per fetch phase.
func NewClient(opts ...Option) *Client {
	c := &Client{
		httpClient: &http.Client{},
		baseURL:    "https://query1.finance.yahoo.com",
		userAgent:  "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36",
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Quotes fetches live quotes for the given symbols in one combined request.
// The request is keyed by a comma-joined symbol list; symbols the provider
// does not resolve are simply absent from the returned slice, which callers
// treat as not found.
func (c *Client) Quotes(ctx context.Context, symbols []string) ([]model.Quote, error) {
	return c.quotes(ctx, symbols, c.baseURL, c.userAgent)
}

// QuotesWithVariant fetches quotes like Quotes but using the URL shape and
// headers of the given request variant.
func (c *Client) QuotesWithVariant(ctx context.Context, symbols []string, v RequestVariant) ([]model.Quote, error) {
	return c.quotes(ctx, symbols, v.BaseURL, v.UserAgent)
}

func (c *Client) quotes(ctx context.Context, symbols []string, baseURL, userAgent string) ([]model.Quote, error) {
	if len(symbols) == 0 {
		return []model.Quote{}, nil
	}

	reqURL := fmt.Sprintf(
		"%s/v7/finance/quote?symbols=%s",
		baseURL,
		url.QueryEscape(strings.Join(symbols, ",")),
	)

	body, err := c.get(ctx, reqURL, userAgent)
	if err != nil {
		return nil, err
	}

	var response quoteResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrMalformedResponse, err)
	}
	if apiErr := response.QuoteResponse.Error; apiErr != nil {
		return nil, fmt.Errorf("yahoo error: %s: %s", apiErr.Code, apiErr.Description)
	}

	fetchedAt := time.Now().UTC()
	quotes := make([]model.Quote, 0, len(response.QuoteResponse.Result))
	for _, r := range response.QuoteResponse.Result {
		name := r.LongName
		if name == "" {
			name = r.ShortName
		}
		quotes = append(quotes, model.Quote{
			Ticker:         r.Symbol,
			CurrentPrice:   r.RegularMarketPrice,
			ChangeAbsolute: r.RegularMarketChange,
			ChangePercent:  r.RegularMarketChangePercent,
			Volume:         r.RegularMarketVolume,
			DisplayName:    name,
			FetchedAt:      fetchedAt,
		})
	}

	return quotes, nil
}

// Chart fetches the daily historical series for a symbol within a date range,
// used for benchmark resolution. Points without a close value are skipped.
func (c *Client) Chart(ctx context.Context, symbol string, startDate, endDate time.Time) (model.BenchmarkSeries, error) {
	reqURL := fmt.Sprintf(
		"%s/v8/finance/chart/%s?interval=1d&period1=%d&period2=%d",
		c.baseURL,
		url.PathEscape(symbol),
		startDate.Unix(),
		endDate.Unix(),
	)

	body, err := c.get(ctx, reqURL, c.userAgent)
	if err != nil {
		return model.BenchmarkSeries{}, err
	}

	var response chartResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return model.BenchmarkSeries{}, fmt.Errorf("%w: %v", apperrors.ErrMalformedResponse, err)
	}
	if apiErr := response.Chart.Error; apiErr != nil {
		return model.BenchmarkSeries{}, fmt.Errorf("yahoo error: %s: %s", apiErr.Code, apiErr.Description)
	}
	if len(response.Chart.Result) == 0 {
		return model.BenchmarkSeries{}, fmt.Errorf("no results returned for symbol %s", symbol)
	}

	result := response.Chart.Result[0]
	if len(result.Indicators.Quote) == 0 {
		return model.BenchmarkSeries{}, fmt.Errorf("%w: no close prices returned", apperrors.ErrMalformedResponse)
	}
	closes := result.Indicators.Quote[0].Close
	if len(closes) != len(result.Timestamp) {
		return model.BenchmarkSeries{}, fmt.Errorf("%w: mismatched data lengths", apperrors.ErrMalformedResponse)
	}

	series := model.BenchmarkSeries{Symbol: result.Meta.Symbol}
	for i, ts := range result.Timestamp {
		if closes[i] == nil {
			continue
		}
		series.Points = append(series.Points, model.BenchmarkPoint{
			Date:  time.Unix(ts, 0).UTC(),
			Close: *closes[i],
		})
	}

	return series, nil
}

// get executes one HTTP request and returns the response body. Errors are
// mapped onto the application taxonomy: deadline expiry becomes
// ErrNetworkTimeout, non-2xx statuses become ProviderHTTPError.
func (c *Client) get(ctx context.Context, reqURL, userAgent string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, err
	}

	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w: %v", apperrors.ErrNetworkTimeout, err)
		}
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &apperrors.ProviderHTTPError{Status: resp.StatusCode}
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	return data, nil
}
