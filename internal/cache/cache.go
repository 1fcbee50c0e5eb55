// Package cache holds the shared, single-flight analysis cache.
package cache

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"StockSentinel/internal/metrics"
	"StockSentinel/internal/model"
	"StockSentinel/internal/symbol"
)

// ComputeFunc produces a fresh analysis for one symbol.
type ComputeFunc func(ctx context.Context, sym symbol.Symbol) (model.AnalysisResult, error)

// Cache stores one ready AnalysisResult per symbol code. Concurrent misses for
// the same code are collapsed into a single ComputeFunc call; misses for
// different codes run in parallel. Entries have no TTL and live until Reset.
type Cache struct {
	compute ComputeFunc
	log     zerolog.Logger

	mu          sync.RWMutex
	entries     map[string]model.AnalysisResult
	subscribers map[string]map[string]struct{}
	lastCycleAt time.Time

	// locksMu guards only the lock table, never a computation.
	locksMu sync.Mutex
	locks   map[string]chan struct{}
}

// New creates an empty cache backed by compute.
func New(compute ComputeFunc, log zerolog.Logger) *Cache {
	return &Cache{
		compute:     compute,
		log:         log,
		entries:     make(map[string]model.AnalysisResult),
		subscribers: make(map[string]map[string]struct{}),
		locks:       make(map[string]chan struct{}),
	}
}

// Get returns the cached result for code, if any.
func (c *Cache) Get(code string) (model.AnalysisResult, bool) {
	c.mu.RLock()
	res, ok := c.entries[code]
	c.mu.RUnlock()
	if !ok {
		return model.AnalysisResult{}, false
	}
	return res.Clone(), true
}

// Analyze returns the cached result for sym or computes it. Only one
// computation per code runs at a time; callers waiting on it are released
// early if their ctx is cancelled. Failed computations are not cached.
func (c *Cache) Analyze(ctx context.Context, sym symbol.Symbol) (model.AnalysisResult, error) {
	if res, ok := c.Get(sym.Code); ok {
		metrics.CacheHits.Inc()
		return res, nil
	}

	lock := c.lockFor(sym.Code)
	select {
	case lock <- struct{}{}:
	case <-ctx.Done():
		return model.AnalysisResult{}, ctx.Err()
	}
	defer func() { <-lock }()

	// Another caller may have finished while we waited.
	if res, ok := c.Get(sym.Code); ok {
		metrics.CacheHits.Inc()
		return res, nil
	}

	res, err := c.compute(ctx, sym)
	if err != nil {
		return model.AnalysisResult{}, err
	}
	c.store(sym.Code, res)
	return res.Clone(), nil
}

func (c *Cache) lockFor(code string) chan struct{} {
	c.locksMu.Lock()
	defer c.locksMu.Unlock()
	l, ok := c.locks[code]
	if !ok {
		l = make(chan struct{}, 1)
		c.locks[code] = l
	}
	return l
}

func (c *Cache) store(code string, res model.AnalysisResult) {
	c.mu.Lock()
	c.entries[code] = res.Clone()
	n := len(c.entries)
	c.mu.Unlock()
	metrics.CacheSize.Set(float64(n))
}

// Reset drops every entry and records which subscribers watch each code for
// the cycle starting at cycleAt.
func (c *Cache) Reset(subscribers map[string][]string, cycleAt time.Time) {
	subs := make(map[string]map[string]struct{}, len(subscribers))
	for code, ids := range subscribers {
		set := make(map[string]struct{}, len(ids))
		for _, id := range ids {
			set[id] = struct{}{}
		}
		subs[code] = set
	}

	c.mu.Lock()
	c.entries = make(map[string]model.AnalysisResult)
	c.subscribers = subs
	c.lastCycleAt = cycleAt
	c.mu.Unlock()
	metrics.CacheSize.Set(0)
	c.log.Debug().Int("symbols", len(subs)).Time("cycle_at", cycleAt).Msg("analysis cache reset")
}

// Len returns the number of cached entries.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Stats returns a snapshot of the cache sorted by symbol.
func (c *Cache) Stats() model.CacheStats {
	c.mu.RLock()
	defer c.mu.RUnlock()

	stats := model.CacheStats{
		Size:        len(c.entries),
		LastCycleAt: c.lastCycleAt,
		Entries:     make([]model.CacheEntryStats, 0, len(c.entries)),
	}
	for code, res := range c.entries {
		stats.Entries = append(stats.Entries, model.CacheEntryStats{
			Symbol:          code,
			SubscriberCount: len(c.subscribers[code]),
			ComputedAt:      res.ComputedAt,
			RSI:             res.RSI,
			CurrentSignal:   res.CurrentSignal,
			NewSignal:       res.NewSignal,
		})
	}
	sort.Slice(stats.Entries, func(i, j int) bool { return stats.Entries[i].Symbol < stats.Entries[j].Symbol })
	return stats
}
