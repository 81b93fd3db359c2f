package adapter

import (
	"context"
	"time"

	"github.com/bingeboard/stream-watcher/internal"
)

// TimeBounded returns middleware that caps each fetch at d. A timed-out fetch
// surfaces as an ordinary error, which the aggregate records as the source
// being down; one slow vendor never delays the whole aggregate past d.
func TimeBounded(d time.Duration) Middleware {
	return func(inner internal.Adapter) internal.Adapter {
		if inner == nil || d <= 0 {
			return inner
		}
		return &timeBoundedAdapter{inner: inner, limit: d}
	}
}

type timeBoundedAdapter struct {
	inner internal.Adapter
	limit time.Duration
}

func (t *timeBoundedAdapter) Name() internal.Source {
	return t.inner.Name()
}

func (t *timeBoundedAdapter) FetchAvailability(ctx context.Context, q internal.AvailabilityQuery) ([]internal.PlatformAvailability, error) {
	ctx, cancel := context.WithTimeout(ctx, t.limit)
	defer cancel()
	records, err := t.inner.FetchAvailability(ctx, q)
	if err != nil {
		return nil, err
	}
	// An adapter that swallows cancellation internally still reports down.
	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, ctxErr
	}
	return records, nil
}
