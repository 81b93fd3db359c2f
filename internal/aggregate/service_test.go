package aggregate

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/bingeboard/stream-watcher/internal"
	"github.com/bingeboard/stream-watcher/internal/adapter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubAdapter struct {
	name    internal.Source
	records []internal.PlatformAvailability
	err     error
	delay   time.Duration
	fetches atomic.Int64
}

func (s *stubAdapter) Name() internal.Source { return s.name }

func (s *stubAdapter) FetchAvailability(ctx context.Context, _ internal.AvailabilityQuery) ([]internal.PlatformAvailability, error) {
	s.fetches.Add(1)
	if s.delay > 0 {
		select {
		case <-time.After(s.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return s.records, s.err
}

func movieQuery() internal.AvailabilityQuery {
	return internal.AvailabilityQuery{
		TMDBID:    603,
		Title:     "The Matrix",
		MediaType: internal.MediaTypeMovie,
		Region:    "US",
	}
}

func TestUnit_Aggregate_PartialFailureDegradesGracefully(t *testing.T) {
	healthy := &stubAdapter{
		name: internal.SourceTMDB,
		records: []internal.PlatformAvailability{
			{ProviderName: "Netflix", OfferType: internal.OfferSubscription, Source: internal.SourceTMDB},
			{ProviderName: "Hulu", OfferType: internal.OfferSubscription, Source: internal.SourceTMDB},
		},
	}
	broken := &stubAdapter{name: internal.SourceWatchmode, err: errors.New("vendor down")}
	empty := &stubAdapter{name: internal.SourceUtelly}

	svc := New(adapter.NewRegistry(
		adapter.WithAdapter(healthy),
		adapter.WithAdapter(broken),
		adapter.WithAdapter(empty),
	))

	result, err := svc.ComprehensiveAvailability(context.Background(), movieQuery())
	require.NoError(t, err, "vendor failures never surface as errors")
	assert.Equal(t, 2, result.TotalPlatforms)
	assert.Equal(t, map[internal.Source]bool{
		internal.SourceTMDB:      true,
		internal.SourceWatchmode: false,
		internal.SourceUtelly:    true,
	}, result.Sources, "errored adapter reports false, empty-but-healthy reports true")
}

func TestUnit_Aggregate_SlowAdapterCountsAsFailed(t *testing.T) {
	fast := &stubAdapter{
		name:    internal.SourceTMDB,
		records: []internal.PlatformAvailability{{ProviderName: "Netflix", Source: internal.SourceTMDB}},
	}
	slow := &stubAdapter{name: internal.SourceWatchmode, delay: 500 * time.Millisecond}

	svc := New(
		adapter.NewRegistry(adapter.WithAdapter(fast), adapter.WithAdapter(slow)),
		WithAdapterTimeout(20*time.Millisecond),
	)

	result, err := svc.ComprehensiveAvailability(context.Background(), movieQuery())
	require.NoError(t, err)
	assert.Equal(t, 1, result.TotalPlatforms)
	assert.False(t, result.Sources[internal.SourceWatchmode])
	assert.True(t, result.Sources[internal.SourceTMDB])
}

func TestUnit_Aggregate_DedupFirstSeenWins(t *testing.T) {
	first := &stubAdapter{
		name: internal.SourceTMDB,
		records: []internal.PlatformAvailability{
			{ProviderName: "Netflix", OfferType: internal.OfferSubscription, LogoPath: "/netflix.jpg", WebURL: "https://www.netflix.com", Source: internal.SourceTMDB},
		},
	}
	second := &stubAdapter{
		name: internal.SourceWatchmode,
		records: []internal.PlatformAvailability{
			{ProviderName: "netflix", OfferType: internal.OfferBuy, LogoPath: "/other.jpg", WebURL: "https://www.netflix.com/title/603", Source: internal.SourceWatchmode},
		},
	}

	svc := New(adapter.NewRegistry(adapter.WithAdapter(first), adapter.WithAdapter(second)))
	result, err := svc.ComprehensiveAvailability(context.Background(), movieQuery())
	require.NoError(t, err)

	require.Equal(t, 1, result.TotalPlatforms, "spelling variants collapse to one platform")
	kept := result.Platforms[0]
	assert.Equal(t, "Netflix", kept.CanonicalName)
	assert.Equal(t, internal.OfferSubscription, kept.OfferType, "equally rich duplicate does not displace the first record")
	assert.Equal(t, internal.SourceTMDB, kept.Source)
}

func TestUnit_Aggregate_DedupRicherRecordReplaces(t *testing.T) {
	sparse := &stubAdapter{
		name: internal.SourceTMDB,
		records: []internal.PlatformAvailability{
			{ProviderName: "HBO Max", OfferType: internal.OfferSubscription, Source: internal.SourceTMDB},
		},
	}
	rich := &stubAdapter{
		name: internal.SourceWatchmode,
		records: []internal.PlatformAvailability{
			{ProviderName: "Max", OfferType: internal.OfferSubscription, LogoPath: "/max.jpg", WebURL: "https://play.max.com/movie/the-matrix", Source: internal.SourceWatchmode},
		},
	}

	svc := New(adapter.NewRegistry(adapter.WithAdapter(sparse), adapter.WithAdapter(rich)))
	result, err := svc.ComprehensiveAvailability(context.Background(), movieQuery())
	require.NoError(t, err)

	require.Equal(t, 1, result.TotalPlatforms)
	kept := result.Platforms[0]
	assert.Equal(t, "Max", kept.CanonicalName)
	assert.Equal(t, internal.SourceWatchmode, kept.Source, "record with logo and link displaces the bare one")
	assert.Equal(t, "https://play.max.com/movie/the-matrix", kept.WebURL)
}

func TestUnit_Aggregate_RankOrderingAndCounts(t *testing.T) {
	mixed := &stubAdapter{
		name: internal.SourceTMDB,
		records: []internal.PlatformAvailability{
			{ProviderName: "Tubi TV", OfferType: internal.OfferFree, Source: internal.SourceTMDB},
			{ProviderName: "Netflix", OfferType: internal.OfferSubscription, Source: internal.SourceTMDB},
			{ProviderName: "Hulu", OfferType: internal.OfferSubscription, Source: internal.SourceTMDB},
			{ProviderName: "Some Obscure Service", OfferType: internal.OfferRent, Source: internal.SourceTMDB},
		},
	}

	svc := New(adapter.NewRegistry(adapter.WithAdapter(mixed)))
	result, err := svc.ComprehensiveAvailability(context.Background(), movieQuery())
	require.NoError(t, err)

	require.Equal(t, 4, result.TotalPlatforms)
	assert.Equal(t, "Netflix", result.Platforms[0].CanonicalName)
	assert.Equal(t, "Hulu", result.Platforms[1].CanonicalName)
	assert.Equal(t, "Tubi", result.Platforms[2].CanonicalName)
	assert.Equal(t, "some obscure service", result.Platforms[3].CanonicalName, "unknown platforms sink to the bottom")

	assert.Equal(t, 3, result.PremiumPlatforms, "subscriptions plus the rental")
	assert.Equal(t, 1, result.FreePlatforms)
	assert.Equal(t, 2, result.AffiliatePlatforms, "Netflix and Hulu; Tubi and unknowns excluded")
}

func TestUnit_Aggregate_InvalidQuery(t *testing.T) {
	svc := New(adapter.NewRegistry(adapter.WithAdapter(adapter.None())))

	_, err := svc.ComprehensiveAvailability(context.Background(), internal.AvailabilityQuery{
		TMDBID:    603,
		MediaType: internal.MediaType("podcast"),
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidQuery)

	_, err = svc.ComprehensiveAvailability(context.Background(), internal.AvailabilityQuery{
		MediaType: internal.MediaTypeMovie,
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidQuery)
}

func TestUnit_Aggregate_ResultCacheMemoizes(t *testing.T) {
	src := &stubAdapter{
		name:    internal.SourceTMDB,
		records: []internal.PlatformAvailability{{ProviderName: "Netflix", Source: internal.SourceTMDB}},
	}
	svc := New(
		adapter.NewRegistry(adapter.WithAdapter(src)),
		WithResultCache(32, time.Minute),
	)

	q := movieQuery()
	first, err := svc.ComprehensiveAvailability(context.Background(), q)
	require.NoError(t, err)
	second, err := svc.ComprehensiveAvailability(context.Background(), q)
	require.NoError(t, err)
	assert.Equal(t, int64(1), src.fetches.Load(), "second lookup served from the result cache")
	assert.Equal(t, first.TotalPlatforms, second.TotalPlatforms)

	// Decorating the first result must not leak into the cached copy.
	DecorateAffiliateLinks(&first, "user-1")
	require.NotEmpty(t, first.Platforms[0].AffiliateURL)
	third, err := svc.ComprehensiveAvailability(context.Background(), q)
	require.NoError(t, err)
	assert.Empty(t, third.Platforms[0].AffiliateURL, "cache hands out copies, not shared slices")

	other := q
	other.Region = "GB"
	_, err = svc.ComprehensiveAvailability(context.Background(), other)
	require.NoError(t, err)
	assert.Equal(t, int64(2), src.fetches.Load(), "different region is a different cache key")
}

func TestUnit_Aggregate_MergeOrderIndependentOfArrival(t *testing.T) {
	// The later-registered adapter answers first; registration order still
	// decides which duplicate is kept.
	slow := &stubAdapter{
		name:  internal.SourceTMDB,
		delay: 30 * time.Millisecond,
		records: []internal.PlatformAvailability{
			{ProviderName: "Netflix", OfferType: internal.OfferSubscription, LogoPath: "/a.jpg", WebURL: "https://a", Source: internal.SourceTMDB},
		},
	}
	fast := &stubAdapter{
		name: internal.SourceWatchmode,
		records: []internal.PlatformAvailability{
			{ProviderName: "Netflix", OfferType: internal.OfferBuy, LogoPath: "/b.jpg", WebURL: "https://b", Source: internal.SourceWatchmode},
		},
	}

	svc := New(adapter.NewRegistry(adapter.WithAdapter(slow), adapter.WithAdapter(fast)))
	result, err := svc.ComprehensiveAvailability(context.Background(), movieQuery())
	require.NoError(t, err)

	require.Equal(t, 1, result.TotalPlatforms)
	assert.Equal(t, internal.SourceTMDB, result.Platforms[0].Source)
}

func TestUnit_DecorateAffiliateLinks(t *testing.T) {
	result := internal.AggregateResult{
		TMDBID: 603,
		Title:  "The Matrix",
		Platforms: []internal.PlatformAvailability{
			{ProviderName: "Netflix", CanonicalName: "Netflix", WebURL: "https://www.netflix.com/title/603", AffiliateSupported: true},
			{ProviderName: "Some Obscure Service", CanonicalName: "some obscure service"},
		},
	}

	DecorateAffiliateLinks(&result, "user-42")
	assert.Contains(t, result.Platforms[0].AffiliateURL, "trkid=")
	assert.Contains(t, result.Platforms[1].AffiliateURL, "google.com/search", "unsupported platforms get the search fallback")
}
