package internal

// MediaType selects the content family a query refers to.
type MediaType string

const (
	MediaTypeMovie MediaType = "movie"
	MediaTypeTV    MediaType = "tv"
)

// Valid reports whether the media type is one the adapters understand.
func (m MediaType) Valid() bool {
	return m == MediaTypeMovie || m == MediaTypeTV
}

// OfferType is the commercial model under which a title is offered.
type OfferType string

const (
	OfferSubscription OfferType = "subscription"
	OfferFree         OfferType = "free"
	OfferBuy          OfferType = "buy"
	OfferRent         OfferType = "rent"
	OfferAds          OfferType = "ads"
)

// Premium reports whether the offer counts toward the paid-platform summary.
func (o OfferType) Premium() bool {
	return o == OfferSubscription || o == OfferBuy || o == OfferRent
}

// Gratis reports whether the offer counts toward the free-platform summary.
func (o OfferType) Gratis() bool {
	return o == OfferFree || o == OfferAds
}

// VideoQuality is the best stream quality a vendor reported, when known.
type VideoQuality string

const (
	QualitySD  VideoQuality = "sd"
	QualityHD  VideoQuality = "hd"
	QualityUHD VideoQuality = "uhd"
)

// Source identifies which vendor adapter produced a record. Retained for
// provenance and the per-aggregate sources map, never used for identity.
type Source string

const (
	SourceTMDB                  Source = "tmdb"
	SourceWatchmode             Source = "watchmode"
	SourceUtelly                Source = "utelly"
	SourceStreamingAvailability Source = "streamingAvailability"
	SourceNone                  Source = "none"
)

// AvailabilityQuery identifies one title to look up across all vendors.
type AvailabilityQuery struct {
	TMDBID    int       `json:"tmdb_id"`
	IMDBID    string    `json:"imdb_id,omitempty"`
	Title     string    `json:"title"`
	MediaType MediaType `json:"media_type"`
	Region    string    `json:"region"`
}

// PlatformAvailability is one platform's availability for one title.
// CanonicalName is derived by the normalizer and is the dedup identity;
// ProviderName keeps whatever string the vendor sent.
type PlatformAvailability struct {
	ProviderID         int          `json:"provider_id"`
	ProviderName       string       `json:"provider_name"`
	CanonicalName      string       `json:"canonical_name"`
	OfferType          OfferType    `json:"offer_type"`
	LogoPath           string       `json:"logo_path,omitempty"`
	WebURL             string       `json:"web_url,omitempty"`
	VideoQuality       VideoQuality `json:"video_quality,omitempty"`
	ExpiresSoon        bool         `json:"expires_soon,omitempty"`
	AffiliateSupported bool         `json:"affiliate_supported"`
	AffiliateURL       string       `json:"affiliate_url,omitempty"`
	Source             Source       `json:"source"`
	RankScore          int          `json:"rank_score"`
}

// AggregateResult is the merged per-title output: deduplicated platforms in
// rank order plus summary counts and a record of which adapters answered.
// Sources holds true for every adapter that was queried and answered (zero
// results included) and false for adapters that errored or timed out.
type AggregateResult struct {
	TMDBID             int                    `json:"tmdb_id"`
	Title              string                 `json:"title"`
	MediaType          MediaType              `json:"media_type"`
	Platforms          []PlatformAvailability `json:"platforms"`
	TotalPlatforms     int                    `json:"total_platforms"`
	AffiliatePlatforms int                    `json:"affiliate_platforms"`
	PremiumPlatforms   int                    `json:"premium_platforms"`
	FreePlatforms      int                    `json:"free_platforms"`
	Sources            map[Source]bool        `json:"sources"`
}

// AffiliateLink is a freshly minted outbound link. Never persisted; every
// call produces a new tracking ID even for identical inputs.
type AffiliateLink struct {
	Platform   string `json:"platform"`
	URL        string `json:"url"`
	TrackingID string `json:"tracking_id"`
}
