// Package cache bounds quote request volume per portfolio and detects
// systemic fetch failure. Each aggregator owns its own QuoteCache instance;
// there is deliberately no process-wide shared cache.
package cache

import (
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/lmeira/carteira-core/internal/model"
)

// QuoteCache tracks per-portfolio snapshot freshness. A refresh requested
// within the TTL window is served from the cache unless forced, and at most
// one fetch cycle per portfolio runs at a time.
type QuoteCache struct {
	ttl           time.Duration
	healThreshold float64

	mu      sync.Mutex
	entries map[string]entry
	group   singleflight.Group
}

type entry struct {
	snapshot *model.PortfolioSnapshot
	storedAt time.Time
}

// New creates a QuoteCache. ttl is the per-portfolio freshness window;
// healThreshold is the stale-asset fraction above which NeedsHealing reports
// systemic failure.
func New(ttl time.Duration, healThreshold float64) *QuoteCache {
	if ttl <= 0 {
		ttl = 2 * time.Minute
	}
	if healThreshold <= 0 {
		healThreshold = 0.70
	}
	return &QuoteCache{
		ttl:           ttl,
		healThreshold: healThreshold,
		entries:       make(map[string]entry),
	}
}

// Fresh returns the cached snapshot for a portfolio when it is still inside
// the TTL window.
func (c *QuoteCache) Fresh(portfolioID string, now time.Time) (*model.PortfolioSnapshot, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[portfolioID]
	if !ok || now.Sub(e.storedAt) >= c.ttl {
		return nil, false
	}
	return e.snapshot, true
}

// Store records a freshly computed snapshot.
func (c *QuoteCache) Store(portfolioID string, snapshot *model.PortfolioSnapshot, now time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[portfolioID] = entry{snapshot: snapshot, storedAt: now}
}

// LastUpdated returns when a portfolio's snapshot was last stored.
func (c *QuoteCache) LastUpdated(portfolioID string) (time.Time, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[portfolioID]
	if !ok {
		return time.Time{}, false
	}
	return e.storedAt, true
}

// Invalidate drops a portfolio's cached snapshot.
func (c *QuoteCache) Invalidate(portfolioID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, portfolioID)
}

// PortfolioIDs lists every portfolio with a cached snapshot, for the idle
// self-healing sweep.
func (c *QuoteCache) PortfolioIDs() []string {
	c.mu.Lock()
	defer c.mu.Unlock()

	ids := make([]string, 0, len(c.entries))
	for id := range c.entries {
		ids = append(ids, id)
	}
	return ids
}

// Do runs fn under per-portfolio single-flight: while a cycle for the
// portfolio is in flight, concurrent callers share its result instead of
// starting another cycle.
func (c *QuoteCache) Do(portfolioID string, fn func() (*model.PortfolioSnapshot, error)) (*model.PortfolioSnapshot, error) {
	v, err, _ := c.group.Do(portfolioID, func() (any, error) {
		return fn()
	})
	if err != nil {
		return nil, err
	}
	if v == nil {
		return nil, nil
	}
	return v.(*model.PortfolioSnapshot), nil
}

// NeedsHealing reports whether a portfolio's cached snapshot shows systemic
// fetch failure: the fraction of assets whose resolved price equals the
// entry price (no live quote) exceeds the threshold. A high fraction means
// the provider silently failed, not that prices are genuinely stable, so the
// caller should force a refresh even inside the TTL window.
func (c *QuoteCache) NeedsHealing(portfolioID string) bool {
	c.mu.Lock()
	e, ok := c.entries[portfolioID]
	c.mu.Unlock()

	if !ok || e.snapshot == nil {
		return false
	}
	return StaleFraction(e.snapshot) > c.healThreshold
}

// StaleFraction is the fraction of a snapshot's assets whose resolved price
// equals the entry price.
func StaleFraction(snapshot *model.PortfolioSnapshot) float64 {
	if snapshot == nil || len(snapshot.Assets) == 0 {
		return 0
	}

	stale := 0
	for _, a := range snapshot.Assets {
		if a.ResolvedPrice() == a.EntryPrice {
			stale++
		}
	}
	return float64(stale) / float64(len(snapshot.Assets))
}
