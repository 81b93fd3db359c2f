// Package adapter contains one fault-isolated client per upstream
// availability vendor, plus the registry and middleware that the aggregate
// composes them through. Adapters return vendor-raw platform names; the
// aggregate normalizes centrally so no two adapters can disagree on identity.
package adapter

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/bingeboard/stream-watcher/internal/httputil"
)

var errHTTPRequestFailed = errors.New("http request failed")

const vendorCacheTTL = 10 * time.Minute

// defaultClient returns an HTTP client with in-memory response caching, the
// default for every adapter unless a test injects its own client.
func defaultClient() *http.Client {
	return &http.Client{
		Transport: &httputil.CacheTransport{DefaultTTL: vendorCacheTTL},
	}
}

// getJSON performs a GET and decodes the 2xx response body into v.
func getJSON(ctx context.Context, client *http.Client, url string, header http.Header, v any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	for k, vals := range header {
		for _, val := range vals {
			req.Header.Add(k, val)
		}
	}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("get: %w", err)
	}
	body, err := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: %s", errHTTPRequestFailed, resp.Status)
	}
	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("unmarshal response: %w", err)
	}
	return nil
}
