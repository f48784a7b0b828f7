package crawl

import (
	"context"
	"sync"
	"time"

	"github.com/fwojciec/sitecrawl"
	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"
)

var _ sitecrawl.DomainLimiter = (*DomainLimiter)(nil)

// Default per-domain limits.
const (
	DefaultPerDomainConcurrency = 2
	DefaultReleaseDelay         = 500 * time.Millisecond
)

// DomainLimiter bounds the number of in-flight requests per domain.
// Each domain gets its own counting semaphore, created on first use.
// A released slot is free at once, while the releasing caller pauses for
// the release delay before moving on. An optional token bucket additionally
// caps the request rate per domain.
type DomainLimiter struct {
	mu           sync.Mutex
	domains      map[string]*domainSlots
	concurrency  int64
	releaseDelay time.Duration
	rps          float64
}

type domainSlots struct {
	sem   *semaphore.Weighted
	pacer *rate.Limiter
}

// LimiterOption configures a DomainLimiter.
type LimiterOption func(*DomainLimiter)

// WithConcurrency sets how many requests may be in flight per domain.
func WithConcurrency(n int) LimiterOption {
	return func(d *DomainLimiter) {
		if n > 0 {
			d.concurrency = int64(n)
		}
	}
}

// WithReleaseDelay sets how long Release holds its caller after freeing the
// slot. Zero or negative returns immediately.
func WithReleaseDelay(delay time.Duration) LimiterOption {
	return func(d *DomainLimiter) {
		d.releaseDelay = delay
	}
}

// WithRate caps requests per second for each domain. Zero disables the cap.
func WithRate(rps float64) LimiterOption {
	return func(d *DomainLimiter) {
		d.rps = rps
	}
}

// NewDomainLimiter creates a DomainLimiter with two slots per domain and a
// 500ms release delay unless overridden by options.
func NewDomainLimiter(opts ...LimiterOption) *DomainLimiter {
	d := &DomainLimiter{
		domains:      make(map[string]*domainSlots),
		concurrency:  DefaultPerDomainConcurrency,
		releaseDelay: DefaultReleaseDelay,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Acquire blocks until a slot for domain is free, the timeout elapses, or
// ctx is done. It reports whether a slot was obtained. A non-positive
// timeout waits on ctx alone.
func (d *DomainLimiter) Acquire(ctx context.Context, domain string, timeout time.Duration) bool {
	slots := d.slots(domain)

	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	if err := slots.sem.Acquire(ctx, 1); err != nil {
		return false
	}
	if err := slots.pacer.Wait(ctx); err != nil {
		slots.sem.Release(1)
		return false
	}
	return true
}

// Release returns a slot for domain, then holds the caller for the release
// delay so that the finishing task does not immediately issue another
// request. Waiters are not held back by the delay. Callers must pair every
// successful Acquire with exactly one Release. Releasing a domain that was
// never acquired is a no-op.
func (d *DomainLimiter) Release(domain string) {
	d.mu.Lock()
	slots, ok := d.domains[domain]
	d.mu.Unlock()
	if !ok {
		return
	}

	slots.sem.Release(1)
	if d.releaseDelay > 0 {
		time.Sleep(d.releaseDelay)
	}
}

// Domains returns the number of domains seen so far.
func (d *DomainLimiter) Domains() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.domains)
}

func (d *DomainLimiter) slots(domain string) *domainSlots {
	d.mu.Lock()
	defer d.mu.Unlock()

	slots, ok := d.domains[domain]
	if !ok {
		limit := rate.Inf
		if d.rps > 0 {
			limit = rate.Limit(d.rps)
		}
		slots = &domainSlots{
			sem:   semaphore.NewWeighted(d.concurrency),
			pacer: rate.NewLimiter(limit, 1),
		}
		d.domains[domain] = slots
	}
	return slots
}
