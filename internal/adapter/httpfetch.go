package adapter

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

// maxBodyBytes caps how much of a remote response is read. Oversized
// documents from misbehaving endpoints must not exhaust memory.
const maxBodyBytes = 10 << 20

// DefaultFetchTimeout bounds a single remote fetch.
const DefaultFetchTimeout = 25 * time.Second

// FetchOptions carries per-request customization for a fetch.
type FetchOptions struct {
	// Headers are set verbatim on the request (auth headers, cookies,
	// API keys and the like).
	Headers map[string]string
	// BasicUser/BasicPass enable HTTP basic auth when BasicUser != "".
	BasicUser string
	BasicPass string
	// ETag / LastModified enable conditional GET when non-nil.
	ETag         *string
	LastModified *string
	// Accept overrides the Accept header.
	Accept string
}

// FetchResponse is the raw result of an HTTP fetch.
type FetchResponse struct {
	StatusCode   int
	Body         []byte
	ContentType  string
	ETag         *string
	LastModified *string
}

// HTTPFetcher performs an HTTP GET. Adapters depend on this interface
// so tests can substitute canned responses.
type HTTPFetcher interface {
	Fetch(ctx context.Context, url string, opts FetchOptions) (*FetchResponse, error)
}

// Fetcher implements HTTPFetcher using net/http.
type Fetcher struct {
	client    *http.Client
	userAgent string
}

// NewFetcher creates a fetcher with the given timeout and user agent.
func NewFetcher(timeout time.Duration, userAgent string) *Fetcher {
	if timeout <= 0 {
		timeout = DefaultFetchTimeout
	}
	return &Fetcher{
		client:    &http.Client{Timeout: timeout},
		userAgent: userAgent,
	}
}

// NewFetcherWithClient creates a fetcher backed by a caller-supplied
// http.Client.
func NewFetcherWithClient(client *http.Client, userAgent string) *Fetcher {
	return &Fetcher{client: client, userAgent: userAgent}
}

// Fetch performs the GET. Network-level failures come back as
// *FetchError; non-2xx statuses are returned in the response for the
// caller to classify.
func (f *Fetcher) Fetch(ctx context.Context, url string, opts FetchOptions) (*FetchResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("new request for %s: %w", url, err)
	}

	if f.userAgent != "" {
		req.Header.Set("User-Agent", f.userAgent)
	}
	if opts.Accept != "" {
		req.Header.Set("Accept", opts.Accept)
	}
	for k, v := range opts.Headers {
		req.Header.Set(k, v)
	}
	if opts.BasicUser != "" {
		req.SetBasicAuth(opts.BasicUser, opts.BasicPass)
	}
	if opts.ETag != nil {
		req.Header.Set("If-None-Match", *opts.ETag)
	}
	if opts.LastModified != nil {
		req.Header.Set("If-Modified-Since", *opts.LastModified)
	}

	resp, doErr := f.client.Do(req)
	if doErr != nil {
		return nil, &FetchError{URL: url, Cause: doErr}
	}
	defer resp.Body.Close()

	result := &FetchResponse{
		StatusCode:  resp.StatusCode,
		ContentType: resp.Header.Get("Content-Type"),
	}
	if v := resp.Header.Get("ETag"); v != "" {
		result.ETag = &v
	}
	if v := resp.Header.Get("Last-Modified"); v != "" {
		result.LastModified = &v
	}

	if resp.StatusCode == http.StatusNotModified {
		return result, nil
	}

	body, readErr := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if readErr != nil {
		return nil, &FetchError{URL: url, Cause: readErr}
	}
	result.Body = body

	return result, nil
}

// RequireOK converts a non-success status into a *FetchError. 304 is
// treated as success; callers check the status for it separately.
func RequireOK(url string, resp *FetchResponse) error {
	if resp.StatusCode == http.StatusNotModified {
		return nil
	}
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return &FetchError{URL: url, StatusCode: resp.StatusCode}
	}
	return nil
}
