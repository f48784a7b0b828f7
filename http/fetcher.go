// Package http provides an HTTP implementation of sitecrawl.Fetcher.
// Requests are gated by a per-domain limiter and classified by status code;
// redirects are not followed.
package http

import (
	"context"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/fwojciec/sitecrawl"
	"golang.org/x/net/html/charset"
)

// Fetcher defaults.
const (
	DefaultFetchTimeout   = 30 * time.Second
	DefaultConnectTimeout = 15 * time.Second
	DefaultAcquireTimeout = 10 * time.Second
	DefaultMaxBodySize    = 10 << 20
	DefaultUserAgent      = "Mozilla/5.0 (compatible; SednaWebCrawler/1.0)"
)

// maxDrainSize bounds how much of a discarded body is read so the
// connection can be reused.
const maxDrainSize = 64 << 10

// Ensure Fetcher implements sitecrawl.Fetcher at compile time.
var _ sitecrawl.Fetcher = (*Fetcher)(nil)

// Fetcher performs GET requests on behalf of the crawler.
type Fetcher struct {
	client  *http.Client
	limiter sitecrawl.DomainLimiter

	timeout        time.Duration
	connectTimeout time.Duration
	acquireTimeout time.Duration
	maxBodySize    int64
	userAgent      string
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithTimeout sets the overall timeout for a request including the body.
// Defaults to DefaultFetchTimeout (30s).
func WithTimeout(d time.Duration) Option {
	return func(f *Fetcher) {
		f.timeout = d
	}
}

// WithConnectTimeout sets the dial timeout.
// Defaults to DefaultConnectTimeout (15s).
func WithConnectTimeout(d time.Duration) Option {
	return func(f *Fetcher) {
		f.connectTimeout = d
	}
}

// WithAcquireTimeout sets how long Fetch waits for a domain slot before
// giving up with FetchRateLimited. Defaults to DefaultAcquireTimeout (10s).
func WithAcquireTimeout(d time.Duration) Option {
	return func(f *Fetcher) {
		f.acquireTimeout = d
	}
}

// WithMaxBodySize caps the number of body bytes read per page.
func WithMaxBodySize(n int64) Option {
	return func(f *Fetcher) {
		f.maxBodySize = n
	}
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(f *Fetcher) {
		f.userAgent = ua
	}
}

// NewFetcher creates a Fetcher gated by limiter.
func NewFetcher(limiter sitecrawl.DomainLimiter, opts ...Option) *Fetcher {
	f := &Fetcher{
		limiter:        limiter,
		timeout:        DefaultFetchTimeout,
		connectTimeout: DefaultConnectTimeout,
		acquireTimeout: DefaultAcquireTimeout,
		maxBodySize:    DefaultMaxBodySize,
		userAgent:      DefaultUserAgent,
	}
	for _, opt := range opts {
		opt(f)
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.DialContext = (&net.Dialer{Timeout: f.connectTimeout}).DialContext

	f.client = &http.Client{
		Timeout:   f.timeout,
		Transport: transport,
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}

	return f
}

// Fetch retrieves url. It never returns nil.
//
// A URL without a host or a failed request yields FetchFailed, a domain slot
// that could not be obtained in time yields FetchRateLimited, and otherwise
// the status code decides the outcome. Only FetchOK results carry a body.
func (f *Fetcher) Fetch(ctx context.Context, url string) *sitecrawl.FetchResult {
	result := &sitecrawl.FetchResult{URL: url, Status: sitecrawl.FetchFailed}

	domain, err := sitecrawl.ExtractDomain(url)
	if err != nil {
		result.Err = err
		return result
	}

	if !f.limiter.Acquire(ctx, domain, f.acquireTimeout) {
		result.Status = sitecrawl.FetchRateLimited
		result.Err = sitecrawl.Errorf(sitecrawl.EINTERNAL, "no slot for %s within %s", domain, f.acquireTimeout)
		return result
	}
	defer f.limiter.Release(domain)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		result.Err = err
		return result
	}
	req.Header.Set("User-Agent", f.userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		result.Err = err
		return result
	}
	defer resp.Body.Close()

	result.StatusCode = resp.StatusCode
	result.Status = sitecrawl.ClassifyStatus(resp.StatusCode)
	if result.Status != sitecrawl.FetchOK {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxDrainSize))
		return result
	}

	body, err := f.readBody(resp)
	if err != nil {
		result.Status = sitecrawl.FetchFailed
		result.Err = err
		return result
	}
	result.Body = body

	return result
}

// readBody decodes the response body to UTF-8 using the declared or sniffed
// charset.
func (f *Fetcher) readBody(resp *http.Response) (string, error) {
	var r io.Reader = resp.Body
	if f.maxBodySize > 0 {
		r = io.LimitReader(r, f.maxBodySize)
	}
	if decoded, err := charset.NewReader(r, resp.Header.Get("Content-Type")); err == nil {
		r = decoded
	}

	body, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	return string(body), nil
}
