package slog

import (
	"context"
	"log/slog"
	"time"

	"github.com/fwojciec/sitecrawl"
	"github.com/google/uuid"
)

// Ensure LoggingCrawler implements sitecrawl.Crawler.
var _ sitecrawl.Crawler = (*LoggingCrawler)(nil)

// LoggingCrawler wraps a Crawler and logs the start and end of each crawl
// under a generated crawl ID.
type LoggingCrawler struct {
	next   sitecrawl.Crawler
	logger *slog.Logger
}

// NewLoggingCrawler creates a new LoggingCrawler.
func NewLoggingCrawler(next sitecrawl.Crawler, logger *slog.Logger) *LoggingCrawler {
	return &LoggingCrawler{next: next, logger: logger}
}

// Crawl delegates to the wrapped crawler and logs the operation.
func (c *LoggingCrawler) Crawl(ctx context.Context, startURL string) (pages []string, err error) {
	logger := c.logger.With("crawl_id", uuid.NewString())
	logger.Info("crawl started", "url", startURL)

	defer func(begin time.Time) {
		level := slog.LevelInfo
		if err != nil {
			level = slog.LevelError
		}
		logger.Log(ctx, level, "crawl finished",
			"url", startURL,
			"pages", len(pages),
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return c.next.Crawl(ctx, startURL)
}
