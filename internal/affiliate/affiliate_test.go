package affiliate

import (
	"net/url"
	"strings"
	"testing"

	"github.com/bingeboard/stream-watcher/internal"
	"github.com/bingeboard/stream-watcher/internal/platform"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUnit_TrackingID_Shape(t *testing.T) {
	id := NewTrackingID("user-42", 603, platform.Netflix)
	segments := strings.Split(id, "_")
	require.Len(t, segments, 5, "tracking id has user, content, platform, timestamp and random segments")
	assert.Equal(t, "netflix", segments[2])
	for i, seg := range segments {
		assert.NotEmpty(t, seg, "segment %d", i)
	}
}

func TestUnit_TrackingID_UniqueAcrossContentIDs(t *testing.T) {
	seen := make(map[string]bool, 500)
	for contentID := 10; contentID < 510; contentID++ {
		id := NewTrackingID("user-1", contentID, platform.Hulu)
		require.False(t, seen[id], "duplicate tracking id %s", id)
		seen[id] = true
	}
	require.Len(t, seen, 500)
}

func TestUnit_TrackingID_UniqueForIdenticalArguments(t *testing.T) {
	a := NewTrackingID("user-1", 603, platform.Netflix)
	b := NewTrackingID("user-1", 603, platform.Netflix)
	assert.NotEqual(t, a, b, "identical calls must still mint distinct ids")
}

func TestUnit_GenerateLink_Templates(t *testing.T) {
	tests := []struct {
		canonical string
		param     string
	}{
		{platform.Netflix, "trkid="},
		{platform.PrimeVideo, "tag=bingeboard-20&ref_="},
		{platform.Hulu, "ref="},
		{platform.DisneyPlus, "cid="},
		{platform.Max, "src="},
		{platform.AppleTVPlus, "at="},
		{platform.ParamountPlus, "promo="},
		{platform.Peacock, "partner="},
	}
	for _, tc := range tests {
		t.Run(tc.canonical, func(t *testing.T) {
			rec := internal.PlatformAvailability{CanonicalName: tc.canonical}
			link := GenerateLink(rec, "user-1", 603, "The Matrix")
			assert.Contains(t, link.URL, tc.param, "template param")
			assert.Contains(t, link.URL, link.TrackingID, "tracking id embedded in url")
			assert.Contains(t, link.URL, url.QueryEscape("The Matrix"), "title embedded in url")
			assert.Equal(t, tc.canonical, link.Platform)
		})
	}
}

func TestUnit_GenerateLink_NormalizesRawProviderName(t *testing.T) {
	// Records straight from a vendor may not carry a canonical name yet.
	rec := internal.PlatformAvailability{ProviderName: "HBO Max"}
	link := GenerateLink(rec, "user-1", 603, "The Matrix")
	assert.Equal(t, platform.Max, link.Platform)
	assert.Contains(t, link.URL, "src="+link.TrackingID)
}

func TestUnit_GenerateLink_PreservesExistingQuery(t *testing.T) {
	// Crunchyroll has affiliate support but no URL template.
	rec := internal.PlatformAvailability{
		CanonicalName: platform.Crunchyroll,
		WebURL:        "https://www.crunchyroll.com/watch/GY5P48XEY?existing=1",
	}
	link := GenerateLink(rec, "user-1", 603, "Cowboy Bebop")

	u, err := url.Parse(link.URL)
	require.NoError(t, err)
	q := u.Query()
	assert.Equal(t, "1", q.Get("existing"), "pre-existing params survive")
	assert.Equal(t, "BINGEBOARD_"+link.TrackingID, q.Get("ref"))
	assert.Equal(t, "www.crunchyroll.com", u.Host)
}

func TestUnit_GenerateLink_SearchFallback(t *testing.T) {
	rec := internal.PlatformAvailability{CanonicalName: "some random service"}
	link := GenerateLink(rec, "user-1", 603, "Obscure Show")

	u, err := url.Parse(link.URL)
	require.NoError(t, err)
	assert.Equal(t, "www.google.com", u.Host)
	assert.Equal(t, "Obscure Show streaming", u.Query().Get("q"))
	assert.NotEmpty(t, link.TrackingID, "fallback links still carry a tracking id")
}

func TestUnit_GenerateLink_SupportedPlatformWithoutWebURLFallsBack(t *testing.T) {
	rec := internal.PlatformAvailability{CanonicalName: platform.Starz}
	link := GenerateLink(rec, "user-1", 603, "Outlander")
	assert.Contains(t, link.URL, "google.com/search")
}

func TestUnit_GenerateURL_NeverEmpty(t *testing.T) {
	records := []internal.PlatformAvailability{
		{},
		{CanonicalName: platform.Netflix},
		{ProviderName: "???"},
		{CanonicalName: platform.Showtime, WebURL: "://not-a-url"},
	}
	for _, rec := range records {
		assert.NotEmpty(t, GenerateURL(rec, "u", 1, "t"))
	}
}
