package adapter

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/bingeboard/stream-watcher/internal"
)

const defaultWatchmodeBaseURL = "https://api.watchmode.com"

type watchmodeAdapter struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// WatchmodeOption applies configuration to the Watchmode adapter.
type WatchmodeOption func(*watchmodeAdapter)

// WatchmodeWithBaseURL sets the base URL (e.g. httptest.Server.URL in tests).
func WatchmodeWithBaseURL(baseURL string) WatchmodeOption {
	return func(a *watchmodeAdapter) {
		a.baseURL = baseURL
	}
}

// WatchmodeWithClient sets the HTTP client (e.g. httptest.Server.Client() in tests).
func WatchmodeWithClient(client *http.Client) WatchmodeOption {
	return func(a *watchmodeAdapter) {
		if client != nil {
			a.httpClient = client
		}
	}
}

// Watchmode returns an adapter over the Watchmode title sources endpoint.
func Watchmode(apiKey string, opts ...WatchmodeOption) internal.Adapter {
	a := &watchmodeAdapter{
		baseURL: defaultWatchmodeBaseURL,
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

func (a *watchmodeAdapter) Name() internal.Source {
	return internal.SourceWatchmode
}

func (a *watchmodeAdapter) sourcesURL(q internal.AvailabilityQuery) string {
	// Watchmode addresses titles as "movie-<tmdb>" / "tv-<tmdb>", or by IMDB id.
	titleID := fmt.Sprintf("%s-%d", q.MediaType, q.TMDBID)
	if q.IMDBID != "" {
		titleID = q.IMDBID
	}
	u, _ := url.Parse(a.baseURL)
	u.Path = "/v1/title/" + titleID + "/sources/"
	u.RawQuery = url.Values{
		"apiKey":  {a.apiKey},
		"regions": {regionOrDefault(q.Region)},
	}.Encode()
	return u.String()
}

func (a *watchmodeAdapter) FetchAvailability(ctx context.Context, q internal.AvailabilityQuery) ([]internal.PlatformAvailability, error) {
	if q.TMDBID <= 0 && q.IMDBID == "" {
		return nil, nil
	}
	var sources []watchmodeSource
	if err := getJSON(ctx, a.httpClient, a.sourcesURL(q), nil, &sources); err != nil {
		return nil, fmt.Errorf("watchmode sources: %w", err)
	}

	region := regionOrDefault(q.Region)
	var records []internal.PlatformAvailability
	for _, s := range sources {
		if s.Region != "" && !strings.EqualFold(s.Region, region) {
			continue
		}
		records = append(records, internal.PlatformAvailability{
			ProviderID:   s.SourceID,
			ProviderName: s.Name,
			OfferType:    watchmodeOfferType(s.Type),
			WebURL:       s.WebURL,
			VideoQuality: watchmodeQuality(s.Format),
			Source:       internal.SourceWatchmode,
		})
	}
	slog.Debug("watchmode: fetched availability", "tmdb_id", q.TMDBID, "records", len(records))
	return records, nil
}

func watchmodeOfferType(t string) internal.OfferType {
	switch strings.ToLower(t) {
	case "free":
		return internal.OfferFree
	case "rent":
		return internal.OfferRent
	case "buy", "purchase":
		return internal.OfferBuy
	case "tve": // TV-everywhere logins ride on a pay-TV subscription
		return internal.OfferSubscription
	default: // "sub", "addon"
		return internal.OfferSubscription
	}
}

func watchmodeQuality(format string) internal.VideoQuality {
	switch strings.ToUpper(format) {
	case "SD":
		return internal.QualitySD
	case "HD":
		return internal.QualityHD
	case "4K", "UHD":
		return internal.QualityUHD
	}
	return ""
}

// watchmodeSource is one element of the /v1/title/{id}/sources/ response.
type watchmodeSource struct {
	SourceID int    `json:"source_id"`
	Name     string `json:"name"`
	Type     string `json:"type"`
	Region   string `json:"region"`
	WebURL   string `json:"web_url"`
	Format   string `json:"format"`
}
