// Package aggregate merges per-vendor availability into one ranked,
// deduplicated platform list. It is the only place platform names are
// normalized, so identity decisions cannot drift between adapters.
package aggregate

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/bingeboard/stream-watcher/internal"
	"github.com/bingeboard/stream-watcher/internal/adapter"
	"github.com/bingeboard/stream-watcher/internal/affiliate"
	"github.com/bingeboard/stream-watcher/internal/platform"
	"github.com/hashicorp/golang-lru/v2/expirable"
)

// ErrInvalidQuery marks caller bugs (bad media type, missing id). These are
// the only failures the aggregate surfaces; vendor trouble never does.
var ErrInvalidQuery = errors.New("invalid availability query")

const defaultAdapterTimeout = 8 * time.Second

// Service fans a query out to every registered adapter, settles all branches
// regardless of individual failures, and merges the results. Safe for
// concurrent use; all state after construction is immutable or internally
// synchronized.
type Service struct {
	registry       adapter.Registry
	adapterTimeout time.Duration
	results        *expirable.LRU[string, internal.AggregateResult]
}

// Option configures the service.
type Option func(*Service)

// WithAdapterTimeout caps each adapter branch. A branch that exceeds it is
// treated exactly like a vendor error: empty contribution, sources=false.
func WithAdapterTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.adapterTimeout = d
		}
	}
}

// WithResultCache memoizes whole aggregate results by (media type, tmdb id,
// region). Writes are idempotent replacement; results are pure functions of
// their inputs, so last-writer-wins is fine.
func WithResultCache(maxEntries int, ttl time.Duration) Option {
	return func(s *Service) {
		if maxEntries <= 0 {
			maxEntries = 512
		}
		s.results = expirable.NewLRU[string, internal.AggregateResult](maxEntries, nil, ttl)
	}
}

func New(registry adapter.Registry, opts ...Option) *Service {
	s := &Service{
		registry:       registry,
		adapterTimeout: defaultAdapterTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ComprehensiveAvailability returns the merged availability for one title.
// Vendor failures degrade to fewer platforms, never to an error; the only
// error paths are invalid arguments.
func (s *Service) ComprehensiveAvailability(ctx context.Context, q internal.AvailabilityQuery) (internal.AggregateResult, error) {
	if !q.MediaType.Valid() {
		return internal.AggregateResult{}, fmt.Errorf("%w: media type %q", ErrInvalidQuery, q.MediaType)
	}
	if q.TMDBID <= 0 {
		return internal.AggregateResult{}, fmt.Errorf("%w: tmdb id %d", ErrInvalidQuery, q.TMDBID)
	}

	key := resultKey(q)
	if s.results != nil {
		if cached, ok := s.results.Get(key); ok {
			return copyResult(cached), nil
		}
	}

	adapters := s.registry.All()
	slots := s.fanOut(ctx, adapters, q)

	result := internal.AggregateResult{
		TMDBID:    q.TMDBID,
		Title:     q.Title,
		MediaType: q.MediaType,
		Platforms: []internal.PlatformAvailability{},
		Sources:   make(map[internal.Source]bool, len(adapters)),
	}

	// Merge in registration order, not arrival order, so dedup tie-breaks
	// are reproducible no matter which vendor answered first.
	keptIndex := make(map[string]int)
	for i, a := range adapters {
		if slots[i].err != nil {
			slog.Warn("aggregate: adapter failed", "adapter", a.Name(), "error", slots[i].err)
			result.Sources[a.Name()] = false
			continue
		}
		result.Sources[a.Name()] = true
		for _, rec := range slots[i].records {
			rec.CanonicalName = platform.Normalize(rec.ProviderName)
			rec.RankScore = platform.Rank(rec.CanonicalName)
			rec.AffiliateSupported = platform.AffiliateSupported(rec.CanonicalName)
			if at, seen := keptIndex[rec.CanonicalName]; seen {
				// First-seen wins unless the newcomer is strictly richer.
				if metadataRichness(rec) > metadataRichness(result.Platforms[at]) {
					result.Platforms[at] = rec
				}
				continue
			}
			keptIndex[rec.CanonicalName] = len(result.Platforms)
			result.Platforms = append(result.Platforms, rec)
		}
	}

	slices.SortStableFunc(result.Platforms, func(a, b internal.PlatformAvailability) int {
		return b.RankScore - a.RankScore
	})

	for _, p := range result.Platforms {
		result.TotalPlatforms++
		if p.AffiliateSupported {
			result.AffiliatePlatforms++
		}
		if p.OfferType.Premium() {
			result.PremiumPlatforms++
		}
		if p.OfferType.Gratis() {
			result.FreePlatforms++
		}
	}

	if s.results != nil {
		s.results.Add(key, copyResult(result))
	}
	slog.Debug("aggregate: merged availability",
		"tmdb_id", q.TMDBID, "media_type", q.MediaType,
		"platforms", result.TotalPlatforms, "sources", result.Sources)
	return result, nil
}

type slot struct {
	records []internal.PlatformAvailability
	err     error
}

// fanOut queries every adapter concurrently and settles all branches; total
// latency tracks the slowest branch, bounded by the adapter timeout.
func (s *Service) fanOut(ctx context.Context, adapters []internal.Adapter, q internal.AvailabilityQuery) []slot {
	slots := make([]slot, len(adapters))
	var wg sync.WaitGroup
	wg.Add(len(adapters))
	for i, a := range adapters {
		go func() {
			defer wg.Done()
			branchCtx, cancel := context.WithTimeout(ctx, s.adapterTimeout)
			defer cancel()
			records, err := a.FetchAvailability(branchCtx, q)
			slots[i] = slot{records: records, err: err}
		}()
	}
	wg.Wait()
	return slots
}

// metadataRichness counts how many optional fields a record carries; used
// only to break dedup ties in favor of the more complete record.
func metadataRichness(rec internal.PlatformAvailability) int {
	n := 0
	if rec.LogoPath != "" {
		n++
	}
	if rec.WebURL != "" {
		n++
	}
	return n
}

// DecorateAffiliateLinks mints a fresh affiliate URL for every platform in
// the result. Separate from aggregation because links are per-user and
// per-click, while aggregates are cacheable per title.
func DecorateAffiliateLinks(result *internal.AggregateResult, userID string) {
	for i := range result.Platforms {
		link := affiliate.GenerateLink(result.Platforms[i], userID, result.TMDBID, result.Title)
		result.Platforms[i].AffiliateURL = link.URL
	}
}

func resultKey(q internal.AvailabilityQuery) string {
	return fmt.Sprintf("%s|%d|%s", q.MediaType, q.TMDBID, q.Region)
}

// copyResult deep-copies the mutable parts so cached entries cannot be
// mutated by callers (e.g. affiliate decoration).
func copyResult(r internal.AggregateResult) internal.AggregateResult {
	platforms := make([]internal.PlatformAvailability, len(r.Platforms))
	copy(platforms, r.Platforms)
	sources := make(map[internal.Source]bool, len(r.Sources))
	for k, v := range r.Sources {
		sources[k] = v
	}
	r.Platforms = platforms
	r.Sources = sources
	return r
}
