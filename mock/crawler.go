package mock

import (
	"context"

	"github.com/fwojciec/sitecrawl"
)

var _ sitecrawl.Crawler = (*Crawler)(nil)

// Crawler is a mock implementation of sitecrawl.Crawler.
type Crawler struct {
	CrawlFn func(ctx context.Context, startURL string) ([]string, error)
}

func (c *Crawler) Crawl(ctx context.Context, startURL string) ([]string, error) {
	return c.CrawlFn(ctx, startURL)
}
