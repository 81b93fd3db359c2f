// Package platform owns the canonical identity of streaming services: the
// vendor-name normalization table, display rank scores, affiliate support,
// and tracking slugs. Everything here is a pure lookup over immutable tables
// loaded at init; nothing fails and nothing touches the network.
package platform

import "strings"

// Canonical display names. The normalizer maps every known vendor spelling to
// one of these; dedup and ranking key off them.
const (
	Netflix        = "Netflix"
	DisneyPlus     = "Disney+"
	PrimeVideo     = "Amazon Prime Video"
	Max            = "Max"
	AppleTVPlus    = "Apple TV+"
	Hulu           = "Hulu"
	ParamountPlus  = "Paramount+"
	Peacock        = "Peacock"
	Crunchyroll    = "Crunchyroll"
	DiscoveryPlus  = "Discovery+"
	Showtime       = "Showtime"
	Starz          = "Starz"
	ESPNPlus       = "ESPN+"
	YouTubeTV      = "YouTube TV"
	YouTubePremium = "YouTube Premium"
	Tubi           = "Tubi"
	PlutoTV        = "Pluto TV"
	Fubo           = "Fubo"
)

// variants maps lower-cased, trimmed vendor spellings to canonical names.
// Maintained by hand as vendor naming drifts; every canonical name's own
// lower-cased form is present so Normalize is idempotent.
var variants = map[string]string{
	"netflix":                      Netflix,
	"netflix standard with ads":    Netflix,
	"netflix basic with ads":       Netflix,
	"netflix kids":                 Netflix,
	"disney+":                      DisneyPlus,
	"disney plus":                  DisneyPlus,
	"disney":                       DisneyPlus,
	"disneyplus":                   DisneyPlus,
	"amazon prime video":           PrimeVideo,
	"prime video":                  PrimeVideo,
	"amazon video":                 PrimeVideo,
	"amazon prime":                 PrimeVideo,
	"amazon prime video with ads":  PrimeVideo,
	"amazon":                       PrimeVideo,
	"max":                          Max,
	"hbo max":                      Max,
	"hbo":                          Max,
	"hbo now":                      Max,
	"hbo go":                       Max,
	"max amazon channel":           Max,
	"hbo max amazon channel":       Max,
	"apple tv+":                    AppleTVPlus,
	"apple tv plus":                AppleTVPlus,
	"apple tv":                     AppleTVPlus,
	"apple itunes":                 AppleTVPlus,
	"itunes":                       AppleTVPlus,
	"hulu":                         Hulu,
	"hulu (no ads)":                Hulu,
	"hulu with ads":                Hulu,
	"paramount+":                   ParamountPlus,
	"paramount plus":               ParamountPlus,
	"paramount":                    ParamountPlus,
	"paramount+ with showtime":     ParamountPlus,
	"paramount plus apple tv channel": ParamountPlus,
	"peacock":                      Peacock,
	"peacock premium":              Peacock,
	"peacock premium plus":         Peacock,
	"crunchyroll":                  Crunchyroll,
	"crunchyroll amazon channel":   Crunchyroll,
	"vrv":                          Crunchyroll,
	"discovery+":                   DiscoveryPlus,
	"discovery plus":               DiscoveryPlus,
	"discovery":                    DiscoveryPlus,
	"showtime":                     Showtime,
	"showtime amazon channel":      Showtime,
	"showtime apple tv channel":    Showtime,
	"starz":                        Starz,
	"starz play":                   Starz,
	"starz amazon channel":         Starz,
	"starz apple tv channel":       Starz,
	"espn+":                        ESPNPlus,
	"espn plus":                    ESPNPlus,
	"espn":                         ESPNPlus,
	"youtube tv":                   YouTubeTV,
	"youtubetv":                    YouTubeTV,
	"youtube premium":              YouTubePremium,
	"youtube":                      YouTubePremium,
	"tubi":                         Tubi,
	"tubi tv":                      Tubi,
	"pluto tv":                     PlutoTV,
	"pluto":                        PlutoTV,
	"fubo":                         Fubo,
	"fubotv":                       Fubo,
	"fubo tv":                      Fubo,
}

// rankScores orders platforms for display (higher first). Unknown platforms
// score 0 and sink to the bottom in whatever order the adapters emitted them.
var rankScores = map[string]int{
	Netflix:        100,
	DisneyPlus:     95,
	PrimeVideo:     90,
	Max:            85,
	AppleTVPlus:    80,
	Hulu:           75,
	ParamountPlus:  70,
	Peacock:        65,
	Crunchyroll:    60,
	DiscoveryPlus:  55,
	Showtime:       50,
	Starz:          45,
	ESPNPlus:       40,
	YouTubeTV:      35,
	YouTubePremium: 30,
	Tubi:           25,
	PlutoTV:        20,
	Fubo:           15,
}

// affiliateSupported lists canonical platforms with a known affiliate
// program. Platforms here without a URL template fall back to the generic
// ref parameter on their web URL.
var affiliateSupported = map[string]bool{
	Netflix:       true,
	DisneyPlus:    true,
	PrimeVideo:    true,
	Max:           true,
	AppleTVPlus:   true,
	Hulu:          true,
	ParamountPlus: true,
	Peacock:       true,
	Crunchyroll:   true,
	Showtime:      true,
	Starz:         true,
}

// Normalize maps an arbitrary vendor platform name to its canonical identity.
// Lookup is case- and whitespace-insensitive; unknown names pass through as
// their own identity in lower-cased trimmed form rather than being dropped.
// Never fails.
func Normalize(raw string) string {
	key := strings.ToLower(strings.TrimSpace(raw))
	if canonical, ok := variants[key]; ok {
		return canonical
	}
	return key
}

// Equivalent reports whether two vendor names refer to the same platform.
func Equivalent(a, b string) bool {
	return Normalize(a) == Normalize(b)
}

// Rank returns the display priority for a canonical name; 0 for unknowns.
func Rank(canonical string) int {
	return rankScores[canonical]
}

// AffiliateSupported reports whether the canonical platform has a known
// affiliate program.
func AffiliateSupported(canonical string) bool {
	return affiliateSupported[canonical]
}

// Slug compacts a canonical name into a tracking-ID-safe segment: lower-case
// alphanumerics only, capped at 16 characters. Never empty for non-empty
// input with any alphanumerics; falls back to "unknown" otherwise.
func Slug(canonical string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(canonical) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
		if b.Len() == 16 {
			break
		}
	}
	if b.Len() == 0 {
		return "unknown"
	}
	return b.String()
}
