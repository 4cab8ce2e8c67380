package cache

import (
	"context"
	"time"

	"golang.org/x/sync/singleflight"
)

// Loader reads through a Cache and collapses concurrent misses on the same
// key into one fetch.
type Loader struct {
	cache Cache
	group singleflight.Group
}

func NewLoader(c Cache) *Loader {
	return &Loader{cache: c}
}

// Cache returns the underlying cache.
func (l *Loader) Cache() Cache {
	return l.cache
}

// ReadThrough returns the cached value for key or calls fetch and stores its
// result. When the cache is unavailable the fetched value is not written back.
func ReadThrough[T any](ctx context.Context, l *Loader, key string, ttl time.Duration, fetch func(context.Context) (T, error)) (T, error) {
	res := l.cache.Get(ctx, key)
	if res.Status == Hit {
		var cached T
		if res.Decode(&cached) {
			return cached, nil
		}
		l.cache.Delete(ctx, key)
	}

	// The shared fetch must not die with whichever caller started it; each
	// caller stops waiting when its own context ends.
	shared := context.WithoutCancel(ctx)
	ch := l.group.DoChan(key, func() (interface{}, error) {
		fresh, err := fetch(shared)
		if err != nil {
			return nil, err
		}
		if res.Status != Unavailable {
			l.cache.Set(shared, key, fresh, ttl)
		}
		return fresh, nil
	})

	var zero T
	select {
	case <-ctx.Done():
		return zero, ctx.Err()
	case r := <-ch:
		if r.Err != nil {
			return zero, r.Err
		}
		return r.Val.(T), nil
	}
}
