package mock

import (
	"context"
	"time"

	"github.com/fwojciec/sitecrawl"
)

var (
	_ sitecrawl.Fetcher       = (*Fetcher)(nil)
	_ sitecrawl.DomainLimiter = (*DomainLimiter)(nil)
)

// Fetcher is a mock implementation of sitecrawl.Fetcher.
type Fetcher struct {
	FetchFn func(ctx context.Context, url string) *sitecrawl.FetchResult
}

func (f *Fetcher) Fetch(ctx context.Context, url string) *sitecrawl.FetchResult {
	return f.FetchFn(ctx, url)
}

// DomainLimiter is a mock implementation of sitecrawl.DomainLimiter.
type DomainLimiter struct {
	AcquireFn func(ctx context.Context, domain string, timeout time.Duration) bool
	ReleaseFn func(domain string)
}

func (l *DomainLimiter) Acquire(ctx context.Context, domain string, timeout time.Duration) bool {
	return l.AcquireFn(ctx, domain, timeout)
}

func (l *DomainLimiter) Release(domain string) {
	l.ReleaseFn(domain)
}
