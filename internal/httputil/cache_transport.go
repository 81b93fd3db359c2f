package httputil

import (
	"bytes"
	"io"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

const defaultLRUMaxEntries = 1000

// Params every vendor passes its credential in. Stripped from cache keys so
// key rotation (or test fixtures without keys) does not fragment the cache.
var credentialParams = []string{"api_key", "apiKey", "apikey", "rapidapi-key"}

// CacheTransport is an http.RoundTripper that caches GET responses in memory
// with LRU eviction. Vendor availability APIs rarely send Cache-Control, so
// entries live for DefaultTTL unless the response says otherwise; no-store
// responses are never cached. Concurrent requests do not block each other;
// duplicate in-flight requests for one key may both hit the backend.
type CacheTransport struct {
	Base http.RoundTripper

	// MaxEntries bounds the cache (LRU eviction). Zero means 1000.
	MaxEntries int

	// DefaultTTL applies when the response carries no max-age. Zero means
	// entries only expire by LRU pressure.
	DefaultTTL time.Duration

	initOnce sync.Once
	cache    *lru.Cache[string, *cachedResponse]
	initErr  error
}

type cachedResponse struct {
	Status  int
	Header  http.Header
	Body    []byte
	Expires time.Time // zero = no expiration
}

func (t *CacheTransport) ensureCache() error {
	t.initOnce.Do(func() {
		max := t.MaxEntries
		if max <= 0 {
			max = defaultLRUMaxEntries
		}
		t.cache, t.initErr = lru.New[string, *cachedResponse](max)
	})
	return t.initErr
}

// cacheKey is method + URL with credential query params removed and the rest
// sorted for stability.
func cacheKey(req *http.Request) string {
	u := *req.URL
	q := u.Query()
	for _, p := range credentialParams {
		q.Del(p)
	}
	keys := make([]string, 0, len(q))
	for k := range q {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var parts []string
	for _, k := range keys {
		for _, v := range q[k] {
			parts = append(parts, k+"="+v)
		}
	}
	u.RawQuery = strings.Join(parts, "&")
	return req.Method + " " + u.String()
}

// RoundTrip implements http.RoundTripper.
func (t *CacheTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if err := t.ensureCache(); err != nil {
		return nil, err
	}
	base := t.Base
	if base == nil {
		base = http.DefaultTransport
	}
	if req.Method != http.MethodGet {
		return base.RoundTrip(req)
	}

	key := cacheKey(req)
	if entry, ok := t.cache.Get(key); ok {
		if entry.Expires.IsZero() || time.Now().Before(entry.Expires) {
			return entry.response(req), nil
		}
		t.cache.Remove(key)
	}

	resp, err := base.RoundTrip(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 || noStore(resp.Header) {
		return resp, nil
	}
	body, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	if err != nil {
		return nil, err
	}
	t.cache.Add(key, &cachedResponse{
		Status:  resp.StatusCode,
		Header:  resp.Header.Clone(),
		Body:    body,
		Expires: t.expiry(resp.Header),
	})
	resp.Body = io.NopCloser(bytes.NewReader(body))
	resp.ContentLength = int64(len(body))
	return resp, nil
}

func (e *cachedResponse) response(req *http.Request) *http.Response {
	return &http.Response{
		Status:        http.StatusText(e.Status),
		StatusCode:    e.Status,
		Header:        e.Header.Clone(),
		Body:          io.NopCloser(bytes.NewReader(e.Body)),
		ContentLength: int64(len(e.Body)),
		Request:       req,
	}
}

func noStore(header http.Header) bool {
	for _, cc := range header["Cache-Control"] {
		for part := range strings.SplitSeq(cc, ",") {
			part = strings.TrimSpace(strings.ToLower(part))
			if part == "no-store" || part == "no-cache" {
				return true
			}
		}
	}
	return false
}

// expiry honors response max-age when present, otherwise DefaultTTL.
func (t *CacheTransport) expiry(header http.Header) time.Time {
	for _, cc := range header["Cache-Control"] {
		for part := range strings.SplitSeq(cc, ",") {
			part = strings.TrimSpace(strings.ToLower(part))
			if after, ok := strings.CutPrefix(part, "max-age="); ok {
				if n, err := strconv.Atoi(strings.TrimSpace(after)); err == nil && n > 0 {
					return time.Now().Add(time.Duration(n) * time.Second)
				}
			}
		}
	}
	if t.DefaultTTL > 0 {
		return time.Now().Add(t.DefaultTTL)
	}
	return time.Time{}
}
