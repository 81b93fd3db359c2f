// Package affiliate builds revenue-attributed outbound URLs. The whole
// package is pure computation over static tables: no network, no persistence,
// and it always returns a navigable URL.
package affiliate

import (
	"fmt"
	"hash/fnv"
	"log/slog"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/bingeboard/stream-watcher/internal"
	"github.com/bingeboard/stream-watcher/internal/platform"
	"github.com/google/uuid"
)

// templates maps canonical platform names to URL patterns. The first verb is
// the query-escaped content title, the second the tracking ID.
var templates = map[string]string{
	platform.Netflix:       "https://www.netflix.com/search?q=%s&trkid=%s",
	platform.PrimeVideo:    "https://www.amazon.com/gp/video/search?phrase=%s&tag=bingeboard-20&ref_=%s",
	platform.Hulu:          "https://www.hulu.com/search?q=%s&ref=%s",
	platform.DisneyPlus:    "https://www.disneyplus.com/search?q=%s&cid=%s",
	platform.Max:           "https://play.max.com/search?q=%s&src=%s",
	platform.AppleTVPlus:   "https://tv.apple.com/search?term=%s&at=%s",
	platform.ParamountPlus: "https://www.paramountplus.com/search?q=%s&promo=%s",
	platform.Peacock:       "https://www.peacocktv.com/search?q=%s&partner=%s",
}

const genericRefPrefix = "BINGEBOARD_"

// NewTrackingID mints a fresh click-attribution ID: five underscore-joined
// segments (user hash, content ID, platform slug, timestamp, random). The
// timestamp and random segments make repeated calls with identical arguments
// produce distinct IDs; attribution is per click, not per (user, content,
// platform).
func NewTrackingID(userID string, contentID int, canonical string) string {
	h := fnv.New32a()
	_, _ = h.Write([]byte(userID))
	random := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	return strings.Join([]string{
		strconv.FormatUint(uint64(h.Sum32()), 36),
		strconv.FormatInt(int64(contentID), 36),
		platform.Slug(canonical),
		strconv.FormatInt(time.Now().UnixMilli(), 36),
		random,
	}, "_")
}

// GenerateLink builds an outbound link for one platform record. Resolution
// order: platform URL template, then generic ref parameter appended to the
// record's web URL (for affiliate-supported platforms), then a search-engine
// query as last resort. Vendors with broken web URLs degrade to the search
// fallback rather than failing.
func GenerateLink(rec internal.PlatformAvailability, userID string, contentID int, contentTitle string) internal.AffiliateLink {
	canonical := rec.CanonicalName
	if canonical == "" {
		canonical = platform.Normalize(rec.ProviderName)
	}
	trackingID := NewTrackingID(userID, contentID, canonical)

	if tmpl, ok := templates[canonical]; ok {
		return internal.AffiliateLink{
			Platform:   canonical,
			URL:        fmt.Sprintf(tmpl, url.QueryEscape(contentTitle), trackingID),
			TrackingID: trackingID,
		}
	}

	if platform.AffiliateSupported(canonical) && rec.WebURL != "" {
		if tagged, err := appendRef(rec.WebURL, trackingID); err == nil {
			return internal.AffiliateLink{Platform: canonical, URL: tagged, TrackingID: trackingID}
		} else {
			slog.Warn("affiliate: unparseable web url, using search fallback",
				"platform", canonical, "web_url", rec.WebURL, "error", err)
		}
	} else {
		slog.Debug("affiliate: no template for platform, using search fallback",
			"platform", canonical)
	}

	return internal.AffiliateLink{
		Platform:   canonical,
		URL:        searchFallbackURL(contentTitle),
		TrackingID: trackingID,
	}
}

// GenerateURL is GenerateLink for callers that only want the URL string.
func GenerateURL(rec internal.PlatformAvailability, userID string, contentID int, contentTitle string) string {
	return GenerateLink(rec, userID, contentID, contentTitle).URL
}

// appendRef adds the generic ref tracking parameter to an existing web URL,
// preserving any query string already present.
func appendRef(webURL, trackingID string) (string, error) {
	u, err := url.Parse(webURL)
	if err != nil {
		return "", err
	}
	q := u.Query()
	q.Set("ref", genericRefPrefix+trackingID)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

func searchFallbackURL(contentTitle string) string {
	return "https://www.google.com/search?q=" + url.QueryEscape(contentTitle+" streaming")
}
