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

const defaultUtellyBaseURL = "https://utelly-tv-shows-and-movies-availability-v1.p.rapidapi.com"

type utellyAdapter struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// UtellyOption applies configuration to the Utelly adapter.
type UtellyOption func(*utellyAdapter)

// UtellyWithBaseURL sets the base URL (e.g. httptest.Server.URL in tests).
func UtellyWithBaseURL(baseURL string) UtellyOption {
	return func(a *utellyAdapter) {
		a.baseURL = baseURL
	}
}

// UtellyWithClient sets the HTTP client (e.g. httptest.Server.Client() in tests).
func UtellyWithClient(client *http.Client) UtellyOption {
	return func(a *utellyAdapter) {
		if client != nil {
			a.httpClient = client
		}
	}
}

// Utelly returns an adapter over the Utelly lookup endpoint (RapidAPI).
// Utelly searches by title term, so queries without a title come back empty.
func Utelly(apiKey string, opts ...UtellyOption) internal.Adapter {
	a := &utellyAdapter{
		baseURL: defaultUtellyBaseURL,
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

func (a *utellyAdapter) Name() internal.Source {
	return internal.SourceUtelly
}

func (a *utellyAdapter) lookupURL(q internal.AvailabilityQuery) string {
	u, _ := url.Parse(a.baseURL)
	u.Path = "/lookup"
	u.RawQuery = url.Values{
		"term":    {q.Title},
		"country": {strings.ToLower(regionOrDefault(q.Region))},
	}.Encode()
	return u.String()
}

func (a *utellyAdapter) FetchAvailability(ctx context.Context, q internal.AvailabilityQuery) ([]internal.PlatformAvailability, error) {
	if q.Title == "" {
		return nil, nil
	}
	var payload utellyResponse
	header := http.Header{"X-RapidAPI-Key": {a.apiKey}}
	if err := getJSON(ctx, a.httpClient, a.lookupURL(q), header, &payload); err != nil {
		return nil, fmt.Errorf("utelly lookup: %w", err)
	}
	if len(payload.Results) == 0 {
		return nil, nil
	}

	// Lookup is fuzzy; prefer the result whose name matches the query title,
	// falling back to Utelly's top hit.
	best := payload.Results[0]
	for _, r := range payload.Results {
		if titleEqual(r.Name, q.Title) {
			best = r
			break
		}
	}

	records := make([]internal.PlatformAvailability, 0, len(best.Locations))
	for _, loc := range best.Locations {
		name := loc.DisplayName
		if name == "" {
			name = loc.Name
		}
		records = append(records, internal.PlatformAvailability{
			ProviderName: name,
			// Utelly does not convey the commercial model; these services
			// are overwhelmingly subscription catalogs.
			OfferType: internal.OfferSubscription,
			LogoPath:  loc.Icon,
			WebURL:    loc.URL,
			Source:    internal.SourceUtelly,
		})
	}
	slog.Debug("utelly: fetched availability", "term", q.Title, "records", len(records))
	return records, nil
}

// titleEqual collapses whitespace and compares case-insensitively.
func titleEqual(a, b string) bool {
	norm := func(s string) string {
		return strings.ToUpper(strings.Join(strings.Fields(s), " "))
	}
	return norm(a) == norm(b)
}

// utellyResponse is the /lookup response shape.
type utellyResponse struct {
	Term    string `json:"term"`
	Results []struct {
		Name      string `json:"name"`
		Locations []struct {
			ID          string `json:"id"`
			Name        string `json:"name"`
			DisplayName string `json:"display_name"`
			URL         string `json:"url"`
			Icon        string `json:"icon"`
		} `json:"locations"`
	} `json:"results"`
}
