package adapter

import (
	"context"
	"log/slog"

	"github.com/bingeboard/stream-watcher/internal"
)

type noneAdapter struct{}

func (a *noneAdapter) Name() internal.Source {
	return internal.SourceNone
}

func (a *noneAdapter) FetchAvailability(ctx context.Context, q internal.AvailabilityQuery) ([]internal.PlatformAvailability, error) {
	slog.Debug("fetch-availability", "adapter", a.Name(), "query", q)
	return nil, nil
}

// None returns an adapter that always reports zero platforms. Useful as a
// placeholder for vendors whose credentials are not configured.
func None() internal.Adapter {
	return &noneAdapter{}
}
