package helpers

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"slices"
	"time"

	apperrors "pricepick/pkg/errors"

	"golang.org/x/net/html/charset"
)

// FetchResult holds the outcome of a page fetch, including metadata needed
// for scrape-session bookkeeping.
type FetchResult struct {
	Body       []byte
	StatusCode int
	Elapsed    time.Duration
}

// NewClient returns an HTTP client with the given timeout. Redirects are
// followed by default.
func NewClient(timeout time.Duration) *http.Client {
	return &http.Client{
		Timeout: timeout,
	}
}

// FetchPage sends an HTTP GET request with fixed browser-like headers and
// returns the response body converted to UTF-8. A non-nil FetchResult is
// returned alongside the error when the server responded at all, so callers
// can record the HTTP status of failed fetches.
func FetchPage(ctx context.Context, client *http.Client, url, userAgent string) (*FetchResult, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, apperrors.NewNetwork("fetch", "failed to create request", err)
	}

	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.5")
	req.Header.Set("Connection", "keep-alive")

	start := time.Now()
	resp, err := client.Do(req)
	if err != nil {
		return nil, apperrors.NewNetwork("fetch", fmt.Sprintf("failed to fetch %s", url), err)
	}
	defer resp.Body.Close()

	result := &FetchResult{
		StatusCode: resp.StatusCode,
		Elapsed:    time.Since(start),
	}

	// Check for rate limiting
	if slices.Contains([]int{http.StatusTooManyRequests, 430}, resp.StatusCode) {
		return result, apperrors.NewRateLimit("fetch", 0)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return result, apperrors.NewNetwork("fetch",
			fmt.Sprintf("fetch %s unexpected status code: %d", url, resp.StatusCode), nil)
	}

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return result, apperrors.NewNetwork("fetch", "failed to read response body", err)
	}
	result.Elapsed = time.Since(start)

	// Determine the encoding from Content-Type header and body content
	encoding, name, _ := charset.DetermineEncoding(bodyBytes, resp.Header.Get("Content-Type"))

	// If already UTF-8, return as is
	if name == "utf-8" || name == "UTF-8" {
		result.Body = bodyBytes
		return result, nil
	}

	// Convert to UTF-8 if necessary
	utf8Reader := encoding.NewDecoder().Reader(bytes.NewReader(bodyBytes))
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, utf8Reader); err != nil {
		return result, apperrors.NewNetwork("fetch", "failed to read converted UTF-8 body", err)
	}

	result.Body = buf.Bytes()
	return result, nil
}
