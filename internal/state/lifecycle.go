package state

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/mmcdole/suasor/internal/cache"
)

// ErrSuperseded is returned by loaders whose result belongs to a scope that has since
// changed (for example a different active client). Such results are dropped.
var ErrSuperseded = errors.New("result superseded")

// Options are shared by every domain store
type Options struct {
	Cache          cache.Config
	SuccessDismiss time.Duration
	Logger         *slog.Logger
}

// WithDefaults fills unset fields
func (o Options) WithDefaults() Options {
	if o.SuccessDismiss == 0 {
		o.SuccessDismiss = 3 * time.Second
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	return o
}

// dropped reports whether a failure means "ignore the late result" rather than an error
func dropped(ctx context.Context, err error) bool {
	return ctx.Err() != nil || errors.Is(err, ErrSuperseded)
}

// Fetch reads key through c. A hit is applied to st at once. A miss marks st loading,
// calls load, writes the result through and applies it. A failure records the error and
// leaves st's data and the cache untouched; a cancelled or superseded load is dropped.
func Fetch[S, T any](
	ctx context.Context,
	st *Store[S],
	c *cache.Cache[T],
	key string,
	load func(context.Context) (T, error),
	apply func(S, T) S,
	opts ...cache.Option,
) (value T, hit bool, err error) {
	if v, ok := c.Get(key, opts...); ok {
		st.Update(func(s S) S { return apply(s, v) })
		return v, true, nil
	}

	st.SetLoading(true)
	v, err := c.Load(ctx, key, load, opts...)
	if err != nil {
		if dropped(ctx, err) {
			st.SetLoading(false)
		} else {
			st.SetError(err)
		}
		return value, false, err
	}
	if err := ctx.Err(); err != nil {
		st.SetLoading(false)
		return value, false, err
	}

	st.Update(func(s S) S { return apply(s, v) })
	st.SetLoading(false)
	return v, false, nil
}

// Mutation describes one write against the server
type Mutation[S, T any] struct {
	// Call performs the request
	Call func(context.Context) (T, error)
	// Apply updates the primary collection and rebuilds derived indexes
	Apply func(S, T) S
	// Invalidate drops every cache entry the write may have made stale
	Invalidate func(T)
	// Success is shown after a successful write (optional)
	Success string
	Dismiss time.Duration
}

// Mutate runs m: on success the data is updated, caches are invalidated and a success
// message is set, in that order. On failure nothing but the error changes. A result
// that arrives after ctx is cancelled is ignored.
func Mutate[S, T any](ctx context.Context, st *Store[S], m Mutation[S, T]) (T, error) {
	st.SetLoading(true)

	v, err := m.Call(ctx)
	if err != nil {
		if dropped(ctx, err) {
			st.SetLoading(false)
		} else {
			st.SetError(err)
		}
		var zero T
		return zero, err
	}
	if err := ctx.Err(); err != nil {
		st.SetLoading(false)
		var zero T
		return zero, err
	}

	if m.Apply != nil {
		st.Update(func(s S) S { return m.Apply(s, v) })
	}
	if m.Invalidate != nil {
		m.Invalidate(v)
	}
	st.SetLoading(false)
	if m.Success != "" {
		st.SetSuccess(m.Success, m.Dismiss)
	}
	return v, nil
}
