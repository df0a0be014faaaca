// Package cache provides an in-memory TTL cache with key and pattern invalidation.
//
// Entries are evicted lazily: an expired entry is removed by the read that finds it.
// There is no background sweep.
package cache

import (
	"context"
	"math"
	"regexp"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/simplelru"
	"golang.org/x/sync/singleflight"
)

// DefaultTTL is the maximum entry age when no TTL is configured
const DefaultTTL = 5 * time.Minute

// Clock supplies the current time for TTL computation
type Clock interface {
	Now() time.Time
}

// SystemClock reads the wall clock (with its monotonic reading)
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

// Options control a single Get or Set call
type Options struct {
	Enabled bool
	TTL     time.Duration
}

// DefaultOptions returns enabled caching with DefaultTTL
func DefaultOptions() Options {
	return Options{Enabled: true, TTL: DefaultTTL}
}

// Option adjusts the Options of one call
type Option func(*Options)

// WithTTL overrides the TTL for one call. A TTL <= 0 disables caching for that call.
func WithTTL(ttl time.Duration) Option {
	return func(o *Options) { o.TTL = ttl }
}

// Disabled turns one call into a no-op (Set) or a miss (Get)
func Disabled() Option {
	return func(o *Options) { o.Enabled = false }
}

// Config configures a Cache
type Config struct {
	// TTL is the default entry lifetime (DefaultTTL when zero)
	TTL time.Duration
	// MaxEntries bounds the cache with LRU eviction; zero means unbounded
	MaxEntries int
	// Clock defaults to SystemClock
	Clock Clock
}

type entry[T any] struct {
	data      T
	timestamp time.Time
}

// Cache maps string keys to values of type T. It is safe for concurrent use.
type Cache[T any] struct {
	mu      sync.Mutex
	entries *simplelru.LRU[string, entry[T]]
	clock   Clock
	ttl     time.Duration
	flight  singleflight.Group

	callMu sync.Mutex
	calls  map[string]*call
}

// New creates a Cache
func New[T any](cfg Config) *Cache[T] {
	size := cfg.MaxEntries
	if size <= 0 {
		size = math.MaxInt
	}
	entries, err := simplelru.NewLRU[string, entry[T]](size, nil)
	if err != nil {
		// only returned for a non-positive size
		panic(err)
	}
	c := &Cache[T]{
		entries: entries,
		clock:   cfg.Clock,
		ttl:     cfg.TTL,
	}
	if c.clock == nil {
		c.clock = SystemClock{}
	}
	if c.ttl == 0 {
		c.ttl = DefaultTTL
	}
	return c
}

func (c *Cache[T]) options(opts []Option) Options {
	o := Options{Enabled: true, TTL: c.ttl}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Get returns the value stored under key. It misses when caching is disabled, the key is
// absent, or the entry is older than the TTL; an expired entry is removed.
func (c *Cache[T]) Get(key string, opts ...Option) (T, bool) {
	var zero T
	o := c.options(opts)
	if !o.Enabled || o.TTL <= 0 {
		return zero, false
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries.Get(key)
	if !ok {
		return zero, false
	}
	if c.clock.Now().Sub(e.timestamp) > o.TTL {
		c.entries.Remove(key)
		return zero, false
	}
	return e.data, true
}

// Set stores value under key, replacing any existing entry and its timestamp
func (c *Cache[T]) Set(key string, value T, opts ...Option) {
	o := c.options(opts)
	if !o.Enabled || o.TTL <= 0 {
		return
	}

	c.mu.Lock()
	c.entries.Add(key, entry[T]{data: value, timestamp: c.clock.Now()})
	c.mu.Unlock()
}

// Invalidate removes key if present
func (c *Cache[T]) Invalidate(key string) {
	c.mu.Lock()
	c.entries.Remove(key)
	c.mu.Unlock()
}

// InvalidatePattern removes every key matched by re and returns how many were removed
func (c *Cache[T]) InvalidatePattern(re *regexp.Regexp) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	removed := 0
	for _, k := range c.entries.Keys() {
		if re.MatchString(k) {
			c.entries.Remove(k)
			removed++
		}
	}
	return removed
}

// InvalidatePrefix removes the key built from parts and every key nested under it
func (c *Cache[T]) InvalidatePrefix(parts ...any) int {
	prefix := Key(parts...)

	c.mu.Lock()
	defer c.mu.Unlock()

	removed := 0
	for _, k := range c.entries.Keys() {
		if HasPrefix(k, prefix) {
			c.entries.Remove(k)
			removed++
		}
	}
	return removed
}

// Clear empties the cache
func (c *Cache[T]) Clear() {
	c.mu.Lock()
	c.entries.Purge()
	c.mu.Unlock()
}

// Len returns the number of stored entries, including expired ones not yet read
func (c *Cache[T]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.entries.Len()
}

// Keys returns the stored keys from least to most recently used
func (c *Cache[T]) Keys() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.entries.Keys()
}

// Load returns the cached value for key, calling fn on a miss. Concurrent misses for the
// same key share one call, which runs until its last waiting caller gives up. Each
// caller stores the shared result unless its own ctx is done by then.
func (c *Cache[T]) Load(ctx context.Context, key string, fn func(context.Context) (T, error), opts ...Option) (T, error) {
	if v, ok := c.Get(key, opts...); ok {
		return v, nil
	}

	var zero T
	cl := c.join(ctx, key)
	ch := c.flight.DoChan(key, func() (any, error) {
		return fn(cl.ctx)
	})

	select {
	case res := <-ch:
		c.leave(key, cl)
		if err := ctx.Err(); err != nil {
			return zero, err
		}
		if res.Err != nil {
			return zero, res.Err
		}
		v := res.Val.(T)
		c.Set(key, v, opts...)
		return v, nil
	case <-ctx.Done():
		c.leave(key, cl)
		return zero, ctx.Err()
	}
}

// call is the shared context of one in-flight load
type call struct {
	ctx     context.Context
	cancel  context.CancelFunc
	waiters int
}

func (c *Cache[T]) join(ctx context.Context, key string) *call {
	c.callMu.Lock()
	defer c.callMu.Unlock()
	if c.calls == nil {
		c.calls = make(map[string]*call)
	}
	cl, ok := c.calls[key]
	if !ok {
		cctx, cancel := context.WithCancel(context.WithoutCancel(ctx))
		cl = &call{ctx: cctx, cancel: cancel}
		c.calls[key] = cl
	}
	cl.waiters++
	return cl
}

// leave drops one waiter. The last one cancels the call; if the call is still running
// it is forgotten so the next caller starts a fresh one.
func (c *Cache[T]) leave(key string, cl *call) {
	c.callMu.Lock()
	defer c.callMu.Unlock()
	cl.waiters--
	if cl.waiters > 0 {
		return
	}
	if c.calls[key] == cl {
		delete(c.calls, key)
		c.flight.Forget(key)
	}
	cl.cancel()
}

// waiting reports how many callers wait on the load of key
func (c *Cache[T]) waiting(key string) int {
	c.callMu.Lock()
	defer c.callMu.Unlock()
	if cl, ok := c.calls[key]; ok {
		return cl.waiters
	}
	return 0
}
