// Package crawl implements a concurrent, bounded, same-domain web crawler.
// Every discovered URL is handled by its own task; tasks share a page budget,
// a visited set, and a per-domain limiter owned by the Fetcher.
package crawl

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/fwojciec/sitecrawl"
)

// Default crawl settings.
const (
	DefaultMaxPages      = 200
	DefaultTaskDelay     = 100 * time.Millisecond
	DefaultPollInterval  = 200 * time.Millisecond
	DefaultShutdownGrace = 100 * time.Millisecond
)

var _ sitecrawl.Crawler = (*Crawler)(nil)

// Crawler discovers the pages of one site reachable from a start URL.
// A Crawler holds no per-crawl state and may run several crawls at once.
//
// Zero durations mean "none": no pause between tasks and no shutdown grace.
// Use NewCrawler for the standard settings.
//
// The per-domain concurrency cap is a property of the Fetcher, not of the
// Crawler. Configure it on the limiter the Fetcher is built with:
//
//	limiter := crawl.NewDomainLimiter(crawl.WithConcurrency(4))
//	c := crawl.NewCrawler(http.NewFetcher(limiter), goquery.NewLinkExtractor(), logger)
type Crawler struct {
	Fetcher   sitecrawl.Fetcher
	Extractor sitecrawl.LinkExtractor
	Logger    *slog.Logger

	// MaxPages caps the number of pages in a result. Non-positive means
	// DefaultMaxPages.
	MaxPages int

	// TaskDelay is how long a task pauses after its fetch attempt.
	TaskDelay time.Duration

	// PollInterval bounds how long the driver waits between completion
	// checks. Non-positive means DefaultPollInterval.
	PollInterval time.Duration

	// ShutdownGrace is how long in-flight tasks may run after the crawl
	// ends before they are canceled.
	ShutdownGrace time.Duration

	// Progress, if set, is called from the driver on every completion check.
	Progress ProgressFunc
}

// Progress is a snapshot of a running crawl.
type Progress struct {
	Visited int
	Active  int
}

// ProgressFunc is a callback for reporting crawl progress.
type ProgressFunc func(p Progress)

// NewCrawler creates a Crawler with the default settings.
func NewCrawler(fetcher sitecrawl.Fetcher, extractor sitecrawl.LinkExtractor, logger *slog.Logger) *Crawler {
	return &Crawler{
		Fetcher:       fetcher,
		Extractor:     extractor,
		Logger:        logger,
		MaxPages:      DefaultMaxPages,
		TaskDelay:     DefaultTaskDelay,
		PollInterval:  DefaultPollInterval,
		ShutdownGrace: DefaultShutdownGrace,
	}
}

// Crawl visits pages reachable from startURL that share its domain or one of
// its subdomains and returns the normalized URLs of the pages that loaded
// successfully, in lexical order.
//
// An invalid startURL yields an EINVALID error without any request. If ctx
// is canceled the pages credited so far are returned together with ctx.Err().
func (c *Crawler) Crawl(ctx context.Context, startURL string) ([]string, error) {
	if !sitecrawl.IsValid(startURL) {
		return nil, sitecrawl.Errorf(sitecrawl.EINVALID, "invalid start URL: %q", startURL)
	}

	logger := c.logger()
	start := sitecrawl.Normalize(startURL)
	root, err := sitecrawl.ExtractDomain(start)
	if err != nil {
		logger.Error("crawl setup failed", "url", startURL, "err", err)
		return []string{}, nil
	}

	maxPages := c.MaxPages
	if maxPages <= 0 {
		maxPages = DefaultMaxPages
	}
	poll := c.PollInterval
	if poll <= 0 {
		poll = DefaultPollInterval
	}

	taskCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	r := &run{
		fetcher:   c.Fetcher,
		extractor: c.Extractor,
		logger:    logger,
		root:      root,
		maxPages:  maxPages,
		taskDelay: c.TaskDelay,
		budget:    NewBudget(maxPages),
		visited:   NewURLSet(maxPages),
		claimed:   NewURLSet(maxPages),
		tasks:     newTaskSet(),
	}

	r.spawn(taskCtx, start)
	r.drive(ctx, poll, c.Progress)
	pages := r.visited.Snapshot()

	if !r.tasks.waitAll(c.ShutdownGrace) {
		logger.Debug("canceling in-flight tasks", "url", start)
	}
	cancel()

	return pages, ctx.Err()
}

func (c *Crawler) logger() *slog.Logger {
	if c.Logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return c.Logger
}

// run holds the state of a single Crawl call.
type run struct {
	fetcher   sitecrawl.Fetcher
	extractor sitecrawl.LinkExtractor
	logger    *slog.Logger

	root      string
	maxPages  int
	taskDelay time.Duration

	budget  *Budget
	visited *URLSet
	claimed *URLSet
	tasks   *taskSet
}

// drive waits until no task is running, the page budget is met, or ctx is
// done.
func (r *run) drive(ctx context.Context, poll time.Duration, progress ProgressFunc) {
	for {
		active := r.tasks.prune()
		visited := r.visited.Len()
		if active == 0 || visited >= r.maxPages || ctx.Err() != nil {
			return
		}
		if progress != nil {
			progress(Progress{Visited: visited, Active: active})
		}
		r.tasks.waitAny(ctx, poll)
	}
}

func (r *run) spawn(ctx context.Context, url string) {
	if ctx.Err() != nil {
		return
	}
	r.tasks.spawn(url, func() {
		r.visit(ctx, url)
	})
}

// visit fetches one page and spawns tasks for its in-scope links.
func (r *run) visit(ctx context.Context, url string) {
	if r.visited.Contains(url) || !r.inScope(url) {
		return
	}
	if !r.budget.TryAcquire() {
		return
	}
	held := true
	defer func() {
		if v := recover(); v != nil {
			r.logger.Error("crawl task panicked", "url", url, "panic", fmt.Sprint(v))
		}
		if held {
			r.budget.Release()
		}
	}()

	// Each URL is fetched at most once per crawl.
	if !r.claimed.Add(url) {
		return
	}

	r.logger.Debug("crawling", "url", url)
	result := r.fetcher.Fetch(ctx, url)
	if result != nil && result.Status == sitecrawl.FetchRateLimited {
		// No request went out, so a later link may schedule it again.
		r.claimed.Remove(url)
	}
	if result == nil || result.Status != sitecrawl.FetchOK {
		r.pause(ctx)
		return
	}

	if r.visited.Add(url) {
		held = false
	}

	links, err := r.extractor.ExtractLinks(result.Body, url)
	if err != nil {
		r.logger.Warn("link extraction failed", "url", url, "err", err)
	}
	for _, link := range links {
		if r.budget.Available() <= 0 {
			break
		}
		if r.visited.Contains(link) || !r.inScope(link) {
			continue
		}
		r.spawn(ctx, link)
	}

	r.pause(ctx)
}

func (r *run) inScope(url string) bool {
	return sitecrawl.InScope(url, r.root)
}

func (r *run) pause(ctx context.Context) {
	if r.taskDelay <= 0 {
		return
	}
	timer := time.NewTimer(r.taskDelay)
	defer timer.Stop()
	select {
	case <-timer.C:
	case <-ctx.Done():
	}
}
