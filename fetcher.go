package sitecrawl

import (
	"context"
	"time"
)

// FetchStatus classifies the outcome of a single fetch.
type FetchStatus int

// Fetch outcomes.
const (
	// FetchOK means the page was retrieved with a success status.
	FetchOK FetchStatus = iota
	// FetchIgnored means the server answered with a status that is skipped
	// silently (redirects, 400, 404, 410).
	FetchIgnored
	// FetchFailed means any other status or a transport error.
	FetchFailed
	// FetchRateLimited means no per-domain slot became free in time and no
	// request was sent.
	FetchRateLimited
)

// String returns a lowercase name for the status.
func (s FetchStatus) String() string {
	switch s {
	case FetchOK:
		return "ok"
	case FetchIgnored:
		return "ignored"
	case FetchFailed:
		return "failed"
	case FetchRateLimited:
		return "rate_limited"
	default:
		return "unknown"
	}
}

// ClassifyStatus maps an HTTP status code to a fetch outcome.
// 200 and 201 succeed; 301, 302, 307, 308, 400, 404 and 410 are ignored;
// everything else fails.
func ClassifyStatus(code int) FetchStatus {
	switch code {
	case 200, 201:
		return FetchOK
	case 301, 302, 307, 308, 400, 404, 410:
		return FetchIgnored
	default:
		return FetchFailed
	}
}

// FetchResult holds the outcome of fetching one URL.
type FetchResult struct {
	URL    string
	Status FetchStatus

	// StatusCode is the HTTP status, or 0 when no response was received.
	StatusCode int

	// Body is the decoded page content. Only set for FetchOK.
	Body string

	// Err carries the transport cause for FetchFailed results without a
	// status code, and the limiter cause for FetchRateLimited.
	Err error
}

// Fetcher retrieves pages over HTTP.
// Implementations never retry; every outcome is reported in the result.
type Fetcher interface {
	// Fetch issues one GET request for url, gated by the per-domain limiter.
	// The context controls cancellation of the request.
	Fetch(ctx context.Context, url string) *FetchResult
}

// DomainLimiter bounds concurrent in-flight requests per domain.
type DomainLimiter interface {
	// Acquire blocks until a slot for domain is free, timeout elapses or ctx
	// is done. It reports whether a slot was taken; every successful Acquire
	// must be paired with one Release.
	Acquire(ctx context.Context, domain string, timeout time.Duration) bool

	// Release returns a slot previously taken with Acquire.
	Release(domain string)
}
