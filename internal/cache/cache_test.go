package cache

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type manualClock struct {
	mu  sync.Mutex
	now time.Time
}

func newManualClock() *manualClock {
	return &manualClock{now: time.Date(2026, 9, 1, 12, 0, 0, 0, time.Local)}
}

func (c *manualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *manualClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func TestCacheRoundTrip(t *testing.T) {
	t.Parallel()

	clk := newManualClock()
	c := New[string](clk)

	c.Set("parking:T1", "snapshot", time.Minute)

	v, ok := c.Get("parking:T1")
	require.True(t, ok)
	require.Equal(t, "snapshot", v)
}

func TestCacheExpiredEntryMissesButStays(t *testing.T) {
	t.Parallel()

	clk := newManualClock()
	c := New[int](clk)

	c.Set("k", 7, time.Minute)
	clk.Advance(time.Minute + time.Second)

	_, ok := c.Get("k")
	require.False(t, ok)

	// The expired entry stays reachable for the stale-fallback path.
	require.Equal(t, 1, c.Len())
	entry, ok := c.GetWithMeta("k")
	require.True(t, ok)
	require.Equal(t, 7, entry.Data)
}

func TestGetFreshSnapshotsValueAndTimestamp(t *testing.T) {
	t.Parallel()

	clk := newManualClock()
	c := New[int](clk)

	wrote := clk.Now()
	c.Set("k", 7, time.Minute)
	clk.Advance(30 * time.Second)

	entry, ok := c.GetFresh("k")
	require.True(t, ok)
	require.Equal(t, 7, entry.Data)
	require.Equal(t, wrote, entry.Timestamp)
}

func TestGetFreshExpiredEntryMisses(t *testing.T) {
	t.Parallel()

	clk := newManualClock()
	c := New[int](clk)

	c.Set("k", 7, time.Minute)
	clk.Advance(2 * time.Minute)

	_, ok := c.GetFresh("k")
	require.False(t, ok)

	_, ok = c.GetFresh("missing")
	require.False(t, ok)
}

func TestSetIfNewerRejectsOlderRecord(t *testing.T) {
	t.Parallel()

	clk := newManualClock()
	c := New[string](clk)

	newer := clk.Now()
	older := newer.Add(-10 * time.Second)

	require.True(t, c.SetIfNewer("k", "fresh", time.Hour, newer))
	require.False(t, c.SetIfNewer("k", "late retry", time.Hour, older))

	v, ok := c.Get("k")
	require.True(t, ok)
	require.Equal(t, "fresh", v)
}

func TestSetIfNewerAcceptsEqualAndNewer(t *testing.T) {
	t.Parallel()

	clk := newManualClock()
	c := New[string](clk)

	ts := clk.Now()
	require.True(t, c.SetIfNewer("k", "first", time.Hour, ts))
	require.True(t, c.SetIfNewer("k", "same instant", time.Hour, ts))
	require.True(t, c.SetIfNewer("k", "later", time.Hour, ts.Add(time.Second)))

	v, ok := c.Get("k")
	require.True(t, ok)
	require.Equal(t, "later", v)
}

func TestGetWithMetaIgnoresExpiry(t *testing.T) {
	t.Parallel()

	clk := newManualClock()
	c := New[int](clk)

	wrote := clk.Now()
	c.Set("k", 7, time.Minute)
	clk.Advance(2 * time.Minute)

	entry, ok := c.GetWithMeta("k")
	require.True(t, ok)
	require.Equal(t, 7, entry.Data)
	require.Equal(t, wrote, entry.Timestamp)

	_, ok = c.GetWithMeta("missing")
	require.False(t, ok)
}

func TestGetExactlyAtDeadlineIsFresh(t *testing.T) {
	t.Parallel()

	clk := newManualClock()
	c := New[int](clk)

	c.Set("k", 7, time.Minute)
	clk.Advance(time.Minute)

	// now == expiresAt still reads fresh; eviction starts strictly after.
	_, ok := c.Get("k")
	require.True(t, ok)
}

func TestInvalidateByPrefix(t *testing.T) {
	t.Parallel()

	clk := newManualClock()
	c := New[int](clk)

	c.Set("forecast:T1:20260901", 1, time.Hour)
	c.Set("forecast:T2:20260901", 2, time.Hour)
	c.Set("parking:T1", 3, time.Hour)

	n := c.InvalidateByPrefix("forecast:")
	require.Equal(t, 2, n)

	_, ok := c.Get("forecast:T1:20260901")
	require.False(t, ok)
	_, ok = c.Get("parking:T1")
	require.True(t, ok)
}

func TestClear(t *testing.T) {
	t.Parallel()

	clk := newManualClock()
	c := New[int](clk)

	c.Set("a", 1, time.Hour)
	c.Set("b", 2, time.Hour)
	c.Clear()

	require.Equal(t, 0, c.Len())
	_, ok := c.Get("a")
	require.False(t, ok)
}

func TestLastWriteWinsWholeValue(t *testing.T) {
	t.Parallel()

	clk := newManualClock()
	c := New[[]int](clk)

	c.Set("k", []int{1, 2, 3}, time.Hour)
	c.Set("k", []int{9}, time.Hour)

	v, ok := c.Get("k")
	require.True(t, ok)
	require.Equal(t, []int{9}, v)
}
