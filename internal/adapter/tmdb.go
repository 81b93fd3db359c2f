package adapter

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/bingeboard/stream-watcher/internal"
)

const defaultTMDBBaseURL = "https://api.themoviedb.org"

type tmdbAdapter struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// TMDBOption applies configuration to the TMDB adapter.
type TMDBOption func(*tmdbAdapter)

// TMDBWithBaseURL sets the base URL (e.g. httptest.Server.URL in tests).
func TMDBWithBaseURL(baseURL string) TMDBOption {
	return func(a *tmdbAdapter) {
		a.baseURL = baseURL
	}
}

// TMDBWithClient sets the HTTP client (e.g. httptest.Server.Client() in tests).
func TMDBWithClient(client *http.Client) TMDBOption {
	return func(a *tmdbAdapter) {
		if client != nil {
			a.httpClient = client
		}
	}
}

// TMDB returns an adapter over the TMDB watch/providers endpoint.
func TMDB(apiKey string, opts ...TMDBOption) internal.Adapter {
	a := &tmdbAdapter{
		baseURL: defaultTMDBBaseURL,
		apiKey:  apiKey,
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.httpClient == nil {
		a.httpClient = defaultClient()
	}
	return a
}

func (a *tmdbAdapter) Name() internal.Source {
	return internal.SourceTMDB
}

func (a *tmdbAdapter) providersURL(q internal.AvailabilityQuery) string {
	u, _ := url.Parse(a.baseURL)
	u.Path = fmt.Sprintf("/3/%s/%d/watch/providers", q.MediaType, q.TMDBID)
	u.RawQuery = url.Values{"api_key": {a.apiKey}}.Encode()
	return u.String()
}

func (a *tmdbAdapter) FetchAvailability(ctx context.Context, q internal.AvailabilityQuery) ([]internal.PlatformAvailability, error) {
	if q.TMDBID <= 0 {
		return nil, nil // TMDB lookups are keyed by id only
	}
	var payload tmdbProvidersResponse
	if err := getJSON(ctx, a.httpClient, a.providersURL(q), nil, &payload); err != nil {
		return nil, fmt.Errorf("tmdb watch providers: %w", err)
	}

	offers, ok := payload.Results[regionOrDefault(q.Region)]
	if !ok {
		slog.Debug("tmdb: no offers for region", "tmdb_id", q.TMDBID, "region", q.Region)
		return nil, nil
	}

	var records []internal.PlatformAvailability
	appendBucket := func(providers []tmdbProvider, offer internal.OfferType) {
		for _, p := range providers {
			records = append(records, internal.PlatformAvailability{
				ProviderID:   p.ProviderID,
				ProviderName: p.ProviderName,
				OfferType:    offer,
				LogoPath:     p.LogoPath,
				WebURL:       offers.Link,
				Source:       internal.SourceTMDB,
			})
		}
	}
	// Fixed bucket order keeps output deterministic across calls.
	appendBucket(offers.Flatrate, internal.OfferSubscription)
	appendBucket(offers.Free, internal.OfferFree)
	appendBucket(offers.Ads, internal.OfferAds)
	appendBucket(offers.Rent, internal.OfferRent)
	appendBucket(offers.Buy, internal.OfferBuy)

	slog.Debug("tmdb: fetched availability", "tmdb_id", q.TMDBID, "records", len(records))
	return records, nil
}

func regionOrDefault(region string) string {
	if region == "" {
		return "US"
	}
	return region
}

// tmdbProvidersResponse is the /watch/providers response shape.
type tmdbProvidersResponse struct {
	ID      int                         `json:"id"`
	Results map[string]tmdbRegionOffers `json:"results"`
}

type tmdbRegionOffers struct {
	Link     string         `json:"link"`
	Flatrate []tmdbProvider `json:"flatrate"`
	Free     []tmdbProvider `json:"free"`
	Ads      []tmdbProvider `json:"ads"`
	Rent     []tmdbProvider `json:"rent"`
	Buy      []tmdbProvider `json:"buy"`
}

type tmdbProvider struct {
	ProviderID      int    `json:"provider_id"`
	ProviderName    string `json:"provider_name"`
	LogoPath        string `json:"logo_path"`
	DisplayPriority int    `json:"display_priority"`
}
