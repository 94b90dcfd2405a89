package history

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scanwatch/dashboard/internal/store"
	"github.com/scanwatch/dashboard/internal/trend"
)

// stubFetcher serves canned series and counts calls. When gate is set,
// fetches block until it closes.
type stubFetcher struct {
	mu       sync.Mutex
	series   map[string][]Point
	err      error
	calls    atomic.Int64
	gate     chan struct{}
	lastAddr string
}

func (s *stubFetcher) FetchHistory(ctx context.Context, address string) ([]Point, error) {
	s.calls.Add(1)
	if s.gate != nil {
		select {
		case <-s.gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastAddr = address
	if s.err != nil {
		return nil, s.err
	}
	return s.series[address], nil
}

// fakeClock is a mutex-guarded time source the tests can advance.
type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock() *fakeClock { return &fakeClock{t: time.Now()} }

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition never met")
}

func TestGetFetchesAndSorts(t *testing.T) {
	f := &stubFetcher{series: map[string][]Point{
		"0xabc": {
			{Timestamp: 3000, TotalLiquidity: 30},
			{Timestamp: 1000, TotalLiquidity: 10},
			{Timestamp: 2000, TotalLiquidity: 20},
		},
	}}
	c := NewCache(f, nil, 5*time.Minute, time.Second)

	first := c.Get("0xabc")
	assert.True(t, first.Pending)
	assert.Empty(t, first.Points)

	waitFor(t, func() bool { e, _ := c.Peek("0xabc"); return len(e.Points) == 3 })

	e := c.Get("0xabc")
	assert.False(t, e.Pending)
	assert.Equal(t, int64(1000), e.Points[0].Timestamp)
	assert.Equal(t, int64(2000), e.Points[1].Timestamp)
	assert.Equal(t, int64(3000), e.Points[2].Timestamp)
	assert.EqualValues(t, 1, f.calls.Load())
}

func TestConcurrentGetsCoalesce(t *testing.T) {
	f := &stubFetcher{
		series: map[string][]Point{"0xabc": {{Timestamp: 1}, {Timestamp: 2}}},
		gate:   make(chan struct{}),
	}
	c := NewCache(f, nil, 5*time.Minute, time.Second)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.Get("0xABC")
		}()
	}
	wg.Wait()

	close(f.gate)
	waitFor(t, func() bool { e, _ := c.Peek("0xabc"); return len(e.Points) == 2 })
	assert.EqualValues(t, 1, f.calls.Load())
}

func TestFetcherSeesCanonicalAddress(t *testing.T) {
	f := &stubFetcher{series: map[string][]Point{"0xabc": {{Timestamp: 1}}}}
	c := NewCache(f, nil, 5*time.Minute, time.Second)

	c.Get("0xABC")
	waitFor(t, func() bool { e, _ := c.Peek("0xAbC"); return len(e.Points) == 1 })

	f.mu.Lock()
	got := f.lastAddr
	f.mu.Unlock()
	assert.Equal(t, "0xabc", got, "fetcher receives the lowercased address")
}

func TestFreshEntryNotRefetched(t *testing.T) {
	f := &stubFetcher{series: map[string][]Point{"0xabc": {{Timestamp: 1}}}}
	c := NewCache(f, nil, 5*time.Minute, time.Second)

	c.Get("0xabc")
	waitFor(t, func() bool { e, _ := c.Peek("0xabc"); return !e.FetchedAt.IsZero() })

	for i := 0; i < 5; i++ {
		c.Get("0xabc")
	}
	assert.EqualValues(t, 1, f.calls.Load())
}

func TestStaleEntryRefetched(t *testing.T) {
	clock := newFakeClock()
	f := &stubFetcher{series: map[string][]Point{"0xabc": {{Timestamp: 1}}}}
	c := NewCache(f, nil, 5*time.Minute, time.Second, WithClock(clock.Now))

	c.Get("0xabc")
	waitFor(t, func() bool { e, _ := c.Peek("0xabc"); return !e.FetchedAt.IsZero() })

	clock.Advance(6 * time.Minute)
	stale := c.Get("0xabc")
	// The stale points keep serving while the refetch runs.
	assert.Len(t, stale.Points, 1)

	waitFor(t, func() bool { return f.calls.Load() == 2 })
}

func TestFetchFailureKeepsPriorValue(t *testing.T) {
	clock := newFakeClock()
	f := &stubFetcher{series: map[string][]Point{"0xabc": {{Timestamp: 1, TotalLiquidity: 42}}}}
	c := NewCache(f, nil, 5*time.Minute, time.Second, WithClock(clock.Now))

	c.Get("0xabc")
	waitFor(t, func() bool { e, _ := c.Peek("0xabc"); return !e.FetchedAt.IsZero() })

	f.mu.Lock()
	f.err = errors.New("relay down")
	f.mu.Unlock()
	clock.Advance(6 * time.Minute)

	c.Get("0xabc")
	waitFor(t, func() bool { e, _ := c.Peek("0xabc"); return e.Err != nil })

	e, _ := c.Peek("0xabc")
	require.Len(t, e.Points, 1)
	assert.Equal(t, 42.0, e.Points[0].TotalLiquidity)
}

func TestMirrorRehydratesWithinWindow(t *testing.T) {
	dir := t.TempDir()
	kv, err := store.Open(dir)
	require.NoError(t, err)

	f := &stubFetcher{series: map[string][]Point{"0xabc": {{Timestamp: 1, TotalLiquidity: 7}}}}
	c := NewCache(f, kv, 5*time.Minute, time.Second)
	c.Get("0xabc")
	waitFor(t, func() bool { e, _ := c.Peek("0xabc"); return !e.FetchedAt.IsZero() })

	// Fresh process, same state dir: entry is served without a fetch.
	kv2, err := store.Open(dir)
	require.NoError(t, err)
	f2 := &stubFetcher{}
	c2 := NewCache(f2, kv2, 5*time.Minute, time.Second)

	e := c2.Get("0xabc")
	assert.Len(t, e.Points, 1)
	assert.False(t, e.Pending)
	assert.EqualValues(t, 0, f2.calls.Load())
}

func TestTrendsFromCachedSeries(t *testing.T) {
	f := &stubFetcher{series: map[string][]Point{
		"0xup": {
			{Timestamp: 1, TotalLiquidity: 100, HolderCount: 50},
			{Timestamp: 2, TotalLiquidity: 200, HolderCount: 50},
			{Timestamp: 3, TotalLiquidity: 300, HolderCount: 50},
		},
	}}
	c := NewCache(f, nil, 5*time.Minute, time.Second)

	_, _, ok := c.Trends("0xup")
	assert.False(t, ok, "no data cached yet")

	c.Get("0xup")
	waitFor(t, func() bool { e, _ := c.Peek("0xup"); return len(e.Points) == 3 })

	liq, holders, ok := c.Trends("0xup")
	require.True(t, ok)
	assert.Equal(t, trend.Up, liq)
	assert.Equal(t, trend.Stagnant, holders)
}

func TestNotifyFires(t *testing.T) {
	var notified atomic.Int64
	f := &stubFetcher{series: map[string][]Point{"0xabc": {{Timestamp: 1}}}}
	c := NewCache(f, nil, 5*time.Minute, time.Second,
		WithNotify(func(string) { notified.Add(1) }))

	c.Get("0xabc")
	waitFor(t, func() bool { return notified.Load() == 1 })
}
