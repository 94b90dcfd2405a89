// Package history caches per-token time series fetched on demand from
// the relay's REST collaborator.
package history

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/scanwatch/dashboard/internal/store"
	"github.com/scanwatch/dashboard/internal/trend"
)

// Point is one observation of a token's pool state.
type Point struct {
	Timestamp      int64   `json:"timestamp"` // epoch milliseconds
	TotalLiquidity float64 `json:"totalLiquidity"`
	HolderCount    float64 `json:"holderCount"`
	LPHolderCount  float64 `json:"lpHolderCount"`

	// Optional split components of TotalLiquidity.
	HPLiquidity *float64 `json:"hpLiquidity,omitempty"`
	GPLiquidity *float64 `json:"gpLiquidity,omitempty"`
}

// Entry is the cached state for one token. Points are shared, never
// mutated in place; a refetch replaces the slice wholesale.
type Entry struct {
	Points    []Point
	FetchedAt time.Time
	Pending   bool
	Err       error
}

// Fetcher retrieves the full history series for a token address.
type Fetcher interface {
	FetchHistory(ctx context.Context, address string) ([]Point, error)
}

const mirrorScope = "history"

// mirrorEntry is the durable form of a cache entry.
type mirrorEntry struct {
	Points    []Point   `json:"points"`
	FetchedAt time.Time `json:"fetchedAt"`
}

// Cache holds per-token history with a freshness window. Get never
// blocks: a stale or missing entry triggers one background fetch and
// the previous value is returned meanwhile. Concurrent gets for the
// same address coalesce into a single fetch.
type Cache struct {
	mu       sync.Mutex
	entries  map[string]*Entry
	inflight map[string]bool

	fetcher Fetcher
	kv      *store.KV // may be nil
	ttl     time.Duration
	timeout time.Duration

	now    func() time.Time
	notify func(address string) // may be nil; called after a fetch settles
}

// Option configures a Cache.
type Option func(*Cache)

// WithNotify registers a callback invoked (off the caller's goroutine)
// whenever a background fetch completes or fails.
func WithNotify(fn func(address string)) Option {
	return func(c *Cache) { c.notify = fn }
}

// WithClock overrides the cache's time source.
func WithClock(now func() time.Time) Option {
	return func(c *Cache) { c.now = now }
}

// NewCache creates a cache and rehydrates any mirrored entries still
// inside the freshness window.
func NewCache(fetcher Fetcher, kv *store.KV, ttl, timeout time.Duration, opts ...Option) *Cache {
	c := &Cache{
		entries:  make(map[string]*Entry),
		inflight: make(map[string]bool),
		fetcher:  fetcher,
		kv:       kv,
		ttl:      ttl,
		timeout:  timeout,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.rehydrate()
	return c
}

// Get returns the current entry for an address, scheduling a refetch
// when the cached value is missing or older than the freshness window.
// Fetch failures never surface as errors from Get; they land on the
// returned entry's Err with the prior points intact.
func (c *Cache) Get(address string) Entry {
	key := strings.ToLower(address)

	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		e = &Entry{}
		c.entries[key] = e
	}

	fresh := !e.FetchedAt.IsZero() && c.now().Sub(e.FetchedAt) < c.ttl
	if !fresh && !c.inflight[key] {
		c.inflight[key] = true
		e.Pending = true
		go c.fetch(key)
	}

	return *e
}

// Peek returns the cached entry without scheduling any fetch.
func (c *Cache) Peek(address string) (Entry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[strings.ToLower(address)]
	if !ok {
		return Entry{}, false
	}
	return *e, true
}

// Trends classifies the cached liquidity and holder series for an
// address. ok is false when fewer than two points are cached, so
// callers can distinguish "stagnant" from "no data". Never fetches.
func (c *Cache) Trends(address string) (liquidity, holders trend.Direction, ok bool) {
	e, found := c.Peek(address)
	if !found || len(e.Points) < 2 {
		return trend.Stagnant, trend.Stagnant, false
	}

	liq := make([]float64, len(e.Points))
	hold := make([]float64, len(e.Points))
	for i, p := range e.Points {
		liq[i] = p.TotalLiquidity
		hold[i] = p.HolderCount
	}
	return trend.Classify(liq), trend.Classify(hold), true
}

// fetch runs one background fetch and applies the result. The fetcher
// always sees the canonical lowercased address, matching the cache's
// own keying, so mixed-case callers coalesce onto one upstream request.
func (c *Cache) fetch(key string) {
	ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
	defer cancel()

	points, err := c.fetcher.FetchHistory(ctx, key)

	c.mu.Lock()
	e := c.entries[key]
	delete(c.inflight, key)
	e.Pending = false
	if err != nil {
		// Prior points and FetchedAt stay put; the stale value keeps
		// rendering and the next Get retries.
		e.Err = err
	} else {
		sort.Slice(points, func(i, j int) bool {
			return points[i].Timestamp < points[j].Timestamp
		})
		e.Points = points
		e.FetchedAt = c.now()
		e.Err = nil
		if c.kv != nil {
			_ = c.kv.Put(mirrorScope, key, mirrorEntry{Points: points, FetchedAt: e.FetchedAt})
		}
	}
	notify := c.notify
	c.mu.Unlock()

	if notify != nil {
		notify(key)
	}
}

// rehydrate loads mirrored entries still within the freshness window.
func (c *Cache) rehydrate() {
	if c.kv == nil {
		return
	}
	keys, err := c.kv.Keys(mirrorScope)
	if err != nil {
		return
	}
	for _, key := range keys {
		var m mirrorEntry
		ok, err := c.kv.Get(mirrorScope, key, &m)
		if err != nil || !ok {
			continue
		}
		if c.now().Sub(m.FetchedAt) >= c.ttl {
			_ = c.kv.Delete(mirrorScope, key)
			continue
		}
		c.entries[key] = &Entry{Points: m.Points, FetchedAt: m.FetchedAt}
	}
}
