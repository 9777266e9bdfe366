// Package aggregator orchestrates one fetch cycle per portfolio: it asks the
// quote cache whether a refresh is due, runs the device-adaptive fetch
// strategy, combines the results with the dividend ledger and the benchmark
// resolver through the metrics engine, and exposes the resulting snapshot to
// the presentation layer.
package aggregator

import (
	"context"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/lmeira/carteira-core/internal/apperrors"
	"github.com/lmeira/carteira-core/internal/cache"
	"github.com/lmeira/carteira-core/internal/fetch"
	"github.com/lmeira/carteira-core/internal/metrics"
	"github.com/lmeira/carteira-core/internal/model"
)

// PortfolioSource supplies portfolio configuration: the portfolio itself
// (with its metric profile) and its positions. Read-only to the aggregator.
type PortfolioSource interface {
	GetPortfolio(portfolioID string) (model.Portfolio, error)
	GetPositions(portfolioID string) ([]model.AssetPosition, error)
}

// DividendSource resolves canonical dividend events per ticker.
type DividendSource interface {
	Events(ticker string) ([]model.DividendEvent, []*apperrors.DateParseError, error)
}

// BenchmarkSource resolves the benchmark comparison for a position set.
type BenchmarkSource interface {
	Compare(ctx context.Context, positions []model.AssetPosition, now time.Time) *model.BenchmarkComparison
}

// State is the observable per-portfolio state consumed by the presentation
// layer.
type State struct {
	Snapshot    *model.PortfolioSnapshot
	Loading     bool
	Err         error
	LastUpdated time.Time
}

// Cycle phases, for logging. A cycle moves from idle through fetching and
// computing back to idle; cancellation drops back to idle without a commit.
const (
	phaseIdle      = "idle"
	phaseFetching  = "fetching"
	phaseComputing = "computing"
)

// Options carries the aggregator tunables.
type Options struct {
	TTL           time.Duration
	HealInterval  time.Duration
	HealThreshold float64

	// ResilientStrategy, when set, replaces the default strategy for
	// portfolios whose stored profile has the resilient flag.
	ResilientStrategy fetch.Strategy
}

func (o Options) withDefaults() Options {
	if o.TTL <= 0 {
		o.TTL = 2 * time.Minute
	}
	if o.HealInterval <= 0 {
		o.HealInterval = 2 * time.Second
	}
	if o.HealThreshold <= 0 {
		o.HealThreshold = 0.70
	}
	return o
}

// Aggregator runs fetch cycles and tracks per-portfolio state. Each
// Aggregator owns its QuoteCache; two portfolios never share mutable state
// beyond that cache's independent entries, and within one portfolio at most
// one cycle is in flight at a time.
type Aggregator struct {
	portfolios PortfolioSource
	dividends  DividendSource
	benchmark  BenchmarkSource
	strategy   fetch.Strategy
	cache      *cache.QuoteCache
	opts       Options
	logger     *zap.Logger

	mu     sync.Mutex
	states map[string]*portfolioState

	cron       *cron.Cron
	rootCtx    context.Context
	rootCancel context.CancelFunc
}

type portfolioState struct {
	snapshot    *model.PortfolioSnapshot
	err         error
	phase       string
	lastUpdated time.Time
}

// New creates an Aggregator with its own quote cache.
func New(
	portfolios PortfolioSource,
	dividends DividendSource,
	benchmark BenchmarkSource,
	strategy fetch.Strategy,
	opts Options,
	logger *zap.Logger,
) *Aggregator {
	opts = opts.withDefaults()
	if logger == nil {
		logger = zap.NewNop()
	}

	rootCtx, rootCancel := context.WithCancel(context.Background())

	return &Aggregator{
		portfolios: portfolios,
		dividends:  dividends,
		benchmark:  benchmark,
		strategy:   strategy,
		cache:      cache.New(opts.TTL, opts.HealThreshold),
		opts:       opts,
		logger:     logger,
		states:     make(map[string]*portfolioState),
		rootCtx:    rootCtx,
		rootCancel: rootCancel,
	}
}

// Refresh produces a snapshot for a portfolio. Within the TTL window the
// cached snapshot is returned unless force is set. Concurrent refreshes of
// the same portfolio share a single in-flight cycle. Cancelling ctx aborts
// the cycle and discards partial results without touching the observable
// state.
func (a *Aggregator) Refresh(ctx context.Context, portfolioID string, force bool) (*model.PortfolioSnapshot, error) {
	if portfolioID == "" {
		return nil, apperrors.ErrEmptyID
	}

	if !force {
		if snapshot, ok := a.cache.Fresh(portfolioID, time.Now().UTC()); ok {
			return snapshot, nil
		}
	}

	return a.cache.Do(portfolioID, func() (*model.PortfolioSnapshot, error) {
		return a.runCycle(ctx, portfolioID)
	})
}

// State returns the observable state for a portfolio.
func (a *Aggregator) State(portfolioID string) State {
	a.mu.Lock()
	defer a.mu.Unlock()

	st, ok := a.states[portfolioID]
	if !ok {
		return State{}
	}
	return State{
		Snapshot:    st.snapshot,
		Loading:     st.phase != phaseIdle,
		Err:         st.err,
		LastUpdated: st.lastUpdated,
	}
}

// StartHealer begins the periodic idle check for systemic fetch failure:
// portfolios whose cached snapshot has too many assets without a live quote
// get an unsolicited forced refresh even inside the TTL window.
func (a *Aggregator) StartHealer() error {
	c := cron.New(cron.WithSeconds())
	if _, err := c.AddFunc("@every "+a.opts.HealInterval.String(), a.healSweep); err != nil {
		return err
	}
	c.Start()
	a.cron = c
	return nil
}

// Close stops the healer and cancels any in-flight cycles.
func (a *Aggregator) Close() {
	if a.cron != nil {
		a.cron.Stop()
	}
	a.rootCancel()
}

// healSweep forces a refresh for every idle portfolio whose snapshot shows
// systemic fetch failure. Exported for tests via the Heal method below; runs
// on the cron schedule in production.
func (a *Aggregator) healSweep() {
	for _, portfolioID := range a.cache.PortfolioIDs() {
		if a.State(portfolioID).Loading {
			continue
		}
		if !a.cache.NeedsHealing(portfolioID) {
			continue
		}

		a.logger.Info("stale snapshot detected, forcing refresh",
			zap.String("portfolio", portfolioID),
		)
		go func(id string) {
			if _, err := a.Refresh(a.rootCtx, id, true); err != nil {
				a.logger.Warn("self-healing refresh failed",
					zap.String("portfolio", id),
					zap.Error(err),
				)
			}
		}(portfolioID)
	}
}

// Heal runs one healing sweep on demand; the refreshes it triggers still run
// in the background. Used by tests and by the admin tooling.
func (a *Aggregator) Heal() {
	a.healSweep()
}

// runCycle executes one full fetch cycle for a portfolio. There is a hard
// barrier between the fetch phase and the compute phase: metrics only run
// once every ticker resolution has settled.
func (a *Aggregator) runCycle(ctx context.Context, portfolioID string) (*model.PortfolioSnapshot, error) {
	a.setPhase(portfolioID, phaseFetching)

	portfolio, err := a.portfolios.GetPortfolio(portfolioID)
	if err != nil {
		a.fail(portfolioID, err)
		return nil, err
	}
	positions, err := a.portfolios.GetPositions(portfolioID)
	if err != nil {
		a.fail(portfolioID, err)
		return nil, err
	}

	cfg := metrics.FromProfile(portfolio.Profile)

	tickers := make([]string, len(positions))
	for i, p := range positions {
		tickers[i] = p.Ticker
	}

	strategy := a.strategy
	if portfolio.Profile.Resilient && a.opts.ResilientStrategy != nil {
		strategy = a.opts.ResilientStrategy
	}

	results := strategy.Fetch(ctx, tickers)
	if err := ctx.Err(); err != nil {
		a.abort(portfolioID)
		return nil, err
	}

	a.setPhase(portfolioID, phaseComputing)
	now := time.Now().UTC()

	// Per-ticker enrichment is independent and runs concurrently; every
	// position lands in its own slot, so the snapshot always carries exactly
	// one asset per configured position.
	assets := make([]model.EnrichedAsset, len(positions))
	var g errgroup.Group
	for i, pos := range positions {
		i, pos := i, pos
		g.Go(func() error {
			events, discarded, err := a.dividends.Events(pos.Ticker)
			if err != nil {
				// Ledger failure degrades to zero dividends for this ticker;
				// it never aborts the cycle.
				a.logger.Warn("dividend lookup failed",
					zap.String("ticker", pos.Ticker),
					zap.Error(err),
				)
				events = nil
			}
			for _, d := range discarded {
				a.logger.Warn("discarded unparseable dividend event", zap.Error(d))
			}

			res := results[pos.Ticker]
			assets[i] = metrics.Enrich(pos, res.Quote, res.Err, events, now, cfg)
			return nil
		})
	}
	_ = g.Wait()

	bench := a.benchmark.Compare(ctx, positions, now)

	snapshot := metrics.BuildSnapshot(portfolioID, assets, bench, now, cfg)
	if snapshot.Degraded {
		a.logger.Warn("quote success ratio below one half",
			zap.String("portfolio", portfolioID),
			zap.Float64("successRatio", snapshot.SuccessRatio),
		)
	}

	// Late results from a cancelled cycle must never become visible.
	if err := ctx.Err(); err != nil {
		a.abort(portfolioID)
		return nil, err
	}

	a.cache.Store(portfolioID, &snapshot, now)
	a.commit(portfolioID, &snapshot, now)

	return &snapshot, nil
}

func (a *Aggregator) state(portfolioID string) *portfolioState {
	st, ok := a.states[portfolioID]
	if !ok {
		st = &portfolioState{phase: phaseIdle}
		a.states[portfolioID] = st
	}
	return st
}

func (a *Aggregator) setPhase(portfolioID, phase string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.state(portfolioID).phase = phase
}

func (a *Aggregator) fail(portfolioID string, err error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	st := a.state(portfolioID)
	st.phase = phaseIdle
	st.err = err
}

func (a *Aggregator) abort(portfolioID string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.state(portfolioID).phase = phaseIdle
}

func (a *Aggregator) commit(portfolioID string, snapshot *model.PortfolioSnapshot, now time.Time) {
	a.mu.Lock()
	defer a.mu.Unlock()
	st := a.state(portfolioID)
	st.phase = phaseIdle
	st.snapshot = snapshot
	st.err = nil
	st.lastUpdated = now
}
