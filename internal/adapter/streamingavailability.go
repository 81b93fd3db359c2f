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

const defaultStreamingAvailabilityBaseURL = "https://streaming-availability.p.rapidapi.com"

type streamingAvailabilityAdapter struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// StreamingAvailabilityOption applies configuration to the Streaming
// Availability adapter.
type StreamingAvailabilityOption func(*streamingAvailabilityAdapter)

// StreamingAvailabilityWithBaseURL sets the base URL (e.g. httptest.Server.URL in tests).
func StreamingAvailabilityWithBaseURL(baseURL string) StreamingAvailabilityOption {
	return func(a *streamingAvailabilityAdapter) {
		a.baseURL = baseURL
	}
}

// StreamingAvailabilityWithClient sets the HTTP client (e.g. httptest.Server.Client() in tests).
func StreamingAvailabilityWithClient(client *http.Client) StreamingAvailabilityOption {
	return func(a *streamingAvailabilityAdapter) {
		if client != nil {
			a.httpClient = client
		}
	}
}

// StreamingAvailability returns an adapter over the Streaming Availability
// shows endpoint (RapidAPI).
func StreamingAvailability(apiKey string, opts ...StreamingAvailabilityOption) internal.Adapter {
	a := &streamingAvailabilityAdapter{
		baseURL: defaultStreamingAvailabilityBaseURL,
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

func (a *streamingAvailabilityAdapter) Name() internal.Source {
	return internal.SourceStreamingAvailability
}

func (a *streamingAvailabilityAdapter) showURL(q internal.AvailabilityQuery) string {
	u, _ := url.Parse(a.baseURL)
	u.Path = fmt.Sprintf("/shows/%s/%d", q.MediaType, q.TMDBID)
	u.RawQuery = url.Values{"country": {strings.ToLower(regionOrDefault(q.Region))}}.Encode()
	return u.String()
}

func (a *streamingAvailabilityAdapter) FetchAvailability(ctx context.Context, q internal.AvailabilityQuery) ([]internal.PlatformAvailability, error) {
	if q.TMDBID <= 0 {
		return nil, nil
	}
	var payload saShow
	header := http.Header{"X-RapidAPI-Key": {a.apiKey}}
	if err := getJSON(ctx, a.httpClient, a.showURL(q), header, &payload); err != nil {
		return nil, fmt.Errorf("streaming-availability show: %w", err)
	}

	options := payload.StreamingOptions[strings.ToLower(regionOrDefault(q.Region))]
	records := make([]internal.PlatformAvailability, 0, len(options))
	for _, opt := range options {
		records = append(records, internal.PlatformAvailability{
			ProviderName: opt.Service.Name,
			OfferType:    saOfferType(opt.Type),
			WebURL:       opt.Link,
			VideoQuality: saQuality(opt.Quality),
			ExpiresSoon:  opt.ExpiresSoon,
			Source:       internal.SourceStreamingAvailability,
		})
	}
	slog.Debug("streaming-availability: fetched availability", "tmdb_id", q.TMDBID, "records", len(records))
	return records, nil
}

func saOfferType(t string) internal.OfferType {
	switch strings.ToLower(t) {
	case "free":
		return internal.OfferFree
	case "ads":
		return internal.OfferAds
	case "rent":
		return internal.OfferRent
	case "buy":
		return internal.OfferBuy
	default: // "subscription", "addon"
		return internal.OfferSubscription
	}
}

func saQuality(q string) internal.VideoQuality {
	switch strings.ToLower(q) {
	case "sd":
		return internal.QualitySD
	case "hd":
		return internal.QualityHD
	case "uhd", "4k":
		return internal.QualityUHD
	}
	return ""
}

// saShow is the subset of the /shows/{type}/{id} response the adapter reads.
type saShow struct {
	StreamingOptions map[string][]saOption `json:"streamingOptions"`
}

type saOption struct {
	Service struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	} `json:"service"`
	Type        string `json:"type"`
	Link        string `json:"link"`
	Quality     string `json:"quality"`
	ExpiresSoon bool   `json:"expiresSoon"`
}
