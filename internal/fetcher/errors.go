package fetcher

import "errors"

// Reason categorizes why a fetch failed.
type Reason string

const (
	// ReasonTimeout indicates the fetch exceeded its deadline
	ReasonTimeout Reason = "timeout"
	// ReasonDNS indicates hostname resolution failed
	ReasonDNS Reason = "dns"
	// ReasonRedirectLoop indicates the redirect hop limit was exceeded
	ReasonRedirectLoop Reason = "redirect_loop"
	// ReasonStatus indicates a non-2xx HTTP response
	ReasonStatus Reason = "status"
	// ReasonCanceled indicates the caller canceled the request
	ReasonCanceled Reason = "canceled"
	// ReasonTransport covers all other network-level failures
	ReasonTransport Reason = "transport"
)

var (
	// ErrInvalidURL is returned when the URL is not a well-formed absolute http(s) URL
	ErrInvalidURL = errors.New("invalid url")
	// ErrTooManyRedirects is returned when the redirect hop limit is exceeded
	ErrTooManyRedirects = errors.New("too many redirects")
)

// FetchError is the only error type that crosses the fetcher boundary for
// network failures. It carries the failure reason and, for HTTP errors,
// the status code.
type FetchError struct {
	// URL is the requested URL
	URL string
	// Reason categorizes the failure
	Reason Reason
	// Status is the HTTP status code when Reason is ReasonStatus
	Status int

	msg string
}

// Error implements the error interface.
func (e *FetchError) Error() string {
	return "fetch " + e.URL + ": " + e.msg
}

// Timeout reports whether the failure was deadline-related.
func (e *FetchError) Timeout() bool {
	return e.Reason == ReasonTimeout
}
