package adapter

import (
	"context"
	"fmt"
	"time"

	"github.com/bingeboard/stream-watcher/internal"
	"github.com/hashicorp/golang-lru/v2/expirable"
)

// Cached returns middleware that wraps an adapter with LRU+TTL memoization of
// successful fetches, keyed by the full availability query:
//
//	adapter.NewRegistry(adapter.WithAdapter(adapter.TMDB(key), adapter.Cached(256, 5*time.Minute)))
//
// Errors are never cached, so a vendor outage clears as soon as it recovers.
// maxEntries is the LRU size; ttl zero means entries only expire by eviction.
func Cached(maxEntries int, ttl time.Duration) Middleware {
	return func(inner internal.Adapter) internal.Adapter {
		if inner == nil {
			return nil
		}
		if maxEntries <= 0 {
			maxEntries = 256
		}
		return &cachingAdapter{
			inner: inner,
			cache: expirable.NewLRU[string, []internal.PlatformAvailability](maxEntries, nil, ttl),
		}
	}
}

type cachingAdapter struct {
	inner internal.Adapter
	cache *expirable.LRU[string, []internal.PlatformAvailability]
}

func cacheKey(q internal.AvailabilityQuery) string {
	return fmt.Sprintf("%s|%d|%s|%s|%s", q.MediaType, q.TMDBID, q.IMDBID, q.Title, q.Region)
}

func (c *cachingAdapter) Name() internal.Source {
	return c.inner.Name()
}

func (c *cachingAdapter) FetchAvailability(ctx context.Context, q internal.AvailabilityQuery) ([]internal.PlatformAvailability, error) {
	key := cacheKey(q)
	if records, ok := c.cache.Get(key); ok {
		out := make([]internal.PlatformAvailability, len(records))
		copy(out, records)
		return out, nil
	}
	records, err := c.inner.FetchAvailability(ctx, q)
	if err != nil {
		return nil, err
	}
	c.cache.Add(key, records)
	out := make([]internal.PlatformAvailability, len(records))
	copy(out, records)
	return out, nil
}
