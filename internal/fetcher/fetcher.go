// Package fetcher retrieves raw page content for a URL and isolates
// network and transport failures behind a single error type.
package fetcher

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	// defaultTimeout bounds the full fetch including body read
	defaultTimeout = 15 * time.Second
	// defaultMaxBodySize caps how many body bytes are read (2MB)
	defaultMaxBodySize = 2 * 1024 * 1024
	// defaultUserAgent identifies the service to target sites
	defaultUserAgent = "healthscan/1.0"
	// maxRedirects is the redirect hop limit before the fetch is abandoned
	maxRedirects = 10
)

// Page holds the fetched content plus the load-proxy signals the
// performance scorer consumes.
type Page struct {
	// URL is the requested URL
	URL string
	// FinalURL is the URL after redirects
	FinalURL string
	// Body is the raw HTML, capped at the configured max body size
	Body string
	// StatusCode is the HTTP status of the final response
	StatusCode int
	// ContentLength is the body size in bytes as read
	ContentLength int64
	// FetchDuration is the wall time spent fetching, a page-load proxy
	FetchDuration time.Duration
}

// Fetcher performs bounded single-request page fetches.
type Fetcher struct {
	httpClient  *http.Client
	timeout     time.Duration
	userAgent   string
	maxBodySize int64
}

// Option configures the Fetcher.
type Option func(*Fetcher)

// WithHTTPClient supplies a custom HTTP client for page fetches.
func WithHTTPClient(client *http.Client) Option {
	return func(f *Fetcher) {
		if client != nil {
			f.httpClient = client
		}
	}
}

// WithTimeout overrides the per-fetch timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(f *Fetcher) {
		if timeout > 0 {
			f.timeout = timeout
		}
	}
}

// WithUserAgent overrides the User-Agent header sent to target sites.
func WithUserAgent(ua string) Option {
	return func(f *Fetcher) {
		if ua != "" {
			f.userAgent = ua
		}
	}
}

// WithMaxBodySize overrides the body read cap in bytes.
func WithMaxBodySize(size int64) Option {
	return func(f *Fetcher) {
		if size > 0 {
			f.maxBodySize = size
		}
	}
}

// New creates a Fetcher with the given options.
func New(opts ...Option) *Fetcher {
	f := &Fetcher{
		timeout:     defaultTimeout,
		userAgent:   defaultUserAgent,
		maxBodySize: defaultMaxBodySize,
	}

	for _, opt := range opts {
		opt(f)
	}

	if f.httpClient == nil {
		f.httpClient = &http.Client{}
	}

	if f.httpClient.CheckRedirect == nil {
		// shallow copy so the hop limit never mutates a caller-owned client
		clone := *f.httpClient
		clone.CheckRedirect = limitRedirects
		f.httpClient = &clone
	}

	return f
}

// limitRedirects aborts a fetch once the redirect hop limit is reached,
// keeping loop failures classifiable as ReasonRedirectLoop.
func limitRedirects(_ *http.Request, via []*http.Request) error {
	if len(via) >= maxRedirects {
		return ErrTooManyRedirects
	}
	return nil
}

// ValidateURL checks that raw is a well-formed absolute http(s) URL.
func ValidateURL(raw string) error {
	parsed, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}

	if !parsed.IsAbs() || parsed.Host == "" {
		return fmt.Errorf("%w: url must be absolute", ErrInvalidURL)
	}

	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("%w: unsupported scheme %q", ErrInvalidURL, parsed.Scheme)
	}

	return nil
}

// Fetch performs a single GET against the URL with a bounded timeout.
// Failures never surface raw transport errors; they are wrapped in a
// *FetchError carrying the reason. No retry happens at this layer.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (*Page, error) {
	if err := ValidateURL(rawURL); err != nil {
		return nil, err
	}

	fetchCtx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(fetchCtx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}

	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	start := time.Now()

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, classifyTransportError(rawURL, err)
	}
	defer resp.Body.Close() //nolint:errcheck // response body close error is non-critical

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &FetchError{
			URL:    rawURL,
			Reason: ReasonStatus,
			Status: resp.StatusCode,
			msg:    fmt.Sprintf("unexpected status %d", resp.StatusCode),
		}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBodySize))
	if err != nil {
		return nil, classifyTransportError(rawURL, err)
	}

	finalURL := rawURL
	if resp.Request != nil && resp.Request.URL != nil {
		finalURL = resp.Request.URL.String()
	}

	return &Page{
		URL:           rawURL,
		FinalURL:      finalURL,
		Body:          string(body),
		StatusCode:    resp.StatusCode,
		ContentLength: int64(len(body)),
		FetchDuration: time.Since(start),
	}, nil
}

// classifyTransportError maps a transport-level failure to a FetchError reason.
func classifyTransportError(rawURL string, err error) *FetchError {
	reason := ReasonTransport

	switch {
	case errors.Is(err, context.DeadlineExceeded):
		reason = ReasonTimeout
	case errors.Is(err, context.Canceled):
		reason = ReasonCanceled
	case errors.Is(err, ErrTooManyRedirects):
		reason = ReasonRedirectLoop
	case strings.Contains(err.Error(), "no such host"):
		reason = ReasonDNS
	}

	return &FetchError{
		URL:    rawURL,
		Reason: reason,
		msg:    err.Error(),
	}
}
