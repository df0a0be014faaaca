package cache

import (
	"context"
	"errors"
	"regexp"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

type payload struct{ V int }

func TestGetReturnsValueWithinTTL(t *testing.T) {
	clock := newFakeClock()
	c := New[payload](Config{Clock: clock})

	c.Set("k", payload{V: 1}, WithTTL(time.Second))

	clock.Advance(500 * time.Millisecond)
	got, ok := c.Get("k", WithTTL(time.Second))
	require.True(t, ok)
	assert.Equal(t, payload{V: 1}, got)

	clock.Advance(time.Second)
	_, ok = c.Get("k", WithTTL(time.Second))
	assert.False(t, ok)
	assert.NotContains(t, c.Keys(), "k", "expired entry must be evicted by the read")
}

func TestTTLBoundaryIsInclusive(t *testing.T) {
	clock := newFakeClock()
	c := New[string](Config{Clock: clock, TTL: time.Minute})

	c.Set("k", "v")
	clock.Advance(time.Minute)
	_, ok := c.Get("k")
	assert.True(t, ok, "entry aged exactly TTL is still fresh")

	clock.Advance(time.Nanosecond)
	_, ok = c.Get("k")
	assert.False(t, ok)
}

func TestDefaultTTL(t *testing.T) {
	clock := newFakeClock()
	c := New[string](Config{Clock: clock})

	c.Set("k", "v")
	clock.Advance(DefaultTTL - time.Second)
	_, ok := c.Get("k")
	assert.True(t, ok)

	clock.Advance(2 * time.Second)
	_, ok = c.Get("k")
	assert.False(t, ok)
}

func TestDisabledAndNonPositiveTTL(t *testing.T) {
	c := New[string](Config{Clock: newFakeClock()})

	c.Set("disabled", "v", Disabled())
	c.Set("zero", "v", WithTTL(0))
	c.Set("negative", "v", WithTTL(-time.Second))
	assert.Equal(t, 0, c.Len())

	c.Set("k", "v")
	_, ok := c.Get("k", Disabled())
	assert.False(t, ok)
	_, ok = c.Get("k", WithTTL(0))
	assert.False(t, ok)
	assert.Equal(t, 1, c.Len(), "a disabled read does not evict")
}

func TestSetOverwritesAndResetsTimestamp(t *testing.T) {
	clock := newFakeClock()
	c := New[int](Config{Clock: clock, TTL: time.Second})

	c.Set("k", 1)
	clock.Advance(800 * time.Millisecond)
	c.Set("k", 2)
	clock.Advance(800 * time.Millisecond)

	got, ok := c.Get("k")
	require.True(t, ok)
	assert.Equal(t, 2, got)
}

func TestInvalidate(t *testing.T) {
	c := New[int](Config{})
	c.Set("a", 1)
	c.Set("b", 2)

	c.Invalidate("a")
	c.Invalidate("missing")

	_, ok := c.Get("a")
	assert.False(t, ok)
	got, ok := c.Get("b")
	assert.True(t, ok)
	assert.Equal(t, 2, got)
}

func TestInvalidatePatternPrecision(t *testing.T) {
	c := New[int](Config{})
	keys := map[string]int{
		"a:1":   1,
		"a:2":   2,
		"ab:3":  3,
		"b:a:4": 4,
		"c":     5,
	}
	for k, v := range keys {
		c.Set(k, v)
	}

	removed := c.InvalidatePattern(regexp.MustCompile(`^a:`))
	assert.Equal(t, 2, removed)

	for k, v := range keys {
		got, ok := c.Get(k)
		if k == "a:1" || k == "a:2" {
			assert.False(t, ok, k)
			continue
		}
		assert.True(t, ok, k)
		assert.Equal(t, v, got, k)
	}
}

func TestInvalidatePrefixRespectsSegments(t *testing.T) {
	c := New[int](Config{})
	c.Set(Key("mediaItem", 1), 1)
	c.Set(Key("mediaItem", 1, "movie"), 2)
	c.Set(Key("mediaItem", 10, "movie"), 3)

	removed := c.InvalidatePrefix("mediaItem", 1)
	assert.Equal(t, 2, removed)
	assert.Equal(t, []string{Key("mediaItem", 10, "movie")}, c.Keys())
}

func TestClear(t *testing.T) {
	c := New[int](Config{})
	c.Set("a", 1)
	c.Set("b", 2)
	c.Clear()
	assert.Equal(t, 0, c.Len())
	assert.Empty(t, c.Keys())
}

func TestMaxEntriesEvictsLeastRecentlyUsed(t *testing.T) {
	c := New[int](Config{MaxEntries: 2})
	c.Set("a", 1)
	c.Set("b", 2)
	_, _ = c.Get("a")
	c.Set("c", 3)

	assert.ElementsMatch(t, []string{"a", "c"}, c.Keys())
}

func TestLoad(t *testing.T) {
	ctx := context.Background()
	c := New[string](Config{})
	calls := 0

	load := func(context.Context) (string, error) {
		calls++
		return "value", nil
	}

	got, err := c.Load(ctx, "k", load)
	require.NoError(t, err)
	assert.Equal(t, "value", got)

	got, err = c.Load(ctx, "k", load)
	require.NoError(t, err)
	assert.Equal(t, "value", got)
	assert.Equal(t, 1, calls)
}

func TestLoadErrorIsNotCached(t *testing.T) {
	c := New[string](Config{})
	boom := errors.New("boom")

	_, err := c.Load(context.Background(), "k", func(context.Context) (string, error) {
		return "", boom
	})
	require.ErrorIs(t, err, boom)
	assert.Equal(t, 0, c.Len())
}

func TestLoadDropsResultAfterCancel(t *testing.T) {
	c := New[string](Config{})
	ctx, cancel := context.WithCancel(context.Background())

	_, err := c.Load(ctx, "k", func(context.Context) (string, error) {
		cancel()
		return "late", nil
	})
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, c.Len())
}

func TestLoadSharesConcurrentMisses(t *testing.T) {
	c := New[int](Config{})
	var calls atomic.Int32
	release := make(chan struct{})

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			v, err := c.Load(context.Background(), "k", func(context.Context) (int, error) {
				calls.Add(1)
				<-release
				return 7, nil
			})
			assert.NoError(t, err)
			assert.Equal(t, 7, v)
		}()
	}

	assert.Eventually(t, func() bool { return calls.Load() == 1 }, time.Second, time.Millisecond)
	time.Sleep(10 * time.Millisecond)
	close(release)
	wg.Wait()
	assert.LessOrEqual(t, calls.Load(), int32(2))
}

func TestLoadCancelledCallerDoesNotFailJoiner(t *testing.T) {
	c := New[string](Config{})
	var calls atomic.Int32
	started := make(chan struct{})
	release := make(chan struct{})
	load := func(ctx context.Context) (string, error) {
		if calls.Add(1) == 1 {
			close(started)
		}
		select {
		case <-release:
			return "value", nil
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}

	ctx1, cancel1 := context.WithCancel(context.Background())
	first := make(chan error, 1)
	go func() {
		_, err := c.Load(ctx1, "k", load)
		first <- err
	}()
	<-started

	type result struct {
		v   string
		err error
	}
	second := make(chan result, 1)
	go func() {
		v, err := c.Load(context.Background(), "k", load)
		second <- result{v, err}
	}()
	require.Eventually(t, func() bool { return c.waiting("k") == 2 }, time.Second, time.Millisecond)

	cancel1()
	require.ErrorIs(t, <-first, context.Canceled)

	close(release)
	res := <-second
	require.NoError(t, res.err)
	assert.Equal(t, "value", res.v)
	assert.Equal(t, int32(1), calls.Load())

	got, ok := c.Get("k")
	assert.True(t, ok)
	assert.Equal(t, "value", got)
}

func TestLoadAbandonedByEveryCallerIsCancelled(t *testing.T) {
	c := New[string](Config{})
	started := make(chan struct{})
	seen := make(chan error, 1)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, err := c.Load(ctx, "k", func(ctx context.Context) (string, error) {
			close(started)
			<-ctx.Done()
			seen <- ctx.Err()
			return "late", nil
		})
		done <- err
	}()
	<-started

	cancel()
	require.ErrorIs(t, <-done, context.Canceled)
	require.ErrorIs(t, <-seen, context.Canceled)
	assert.Equal(t, 0, c.Len())
	assert.Equal(t, 0, c.waiting("k"))

	got, err := c.Load(context.Background(), "k", func(context.Context) (string, error) {
		return "fresh", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "fresh", got)
}
