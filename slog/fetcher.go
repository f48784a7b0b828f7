// Package slog provides logging decorators for sitecrawl services.
package slog

import (
	"context"
	"log/slog"
	"time"

	"github.com/fwojciec/sitecrawl"
)

// Ensure LoggingFetcher implements sitecrawl.Fetcher.
var _ sitecrawl.Fetcher = (*LoggingFetcher)(nil)

// LoggingFetcher wraps a Fetcher and logs every fetch. Successful and
// ignored fetches log at debug level, failed and rate limited ones at warn.
type LoggingFetcher struct {
	next   sitecrawl.Fetcher
	logger *slog.Logger
}

// NewLoggingFetcher creates a new LoggingFetcher.
func NewLoggingFetcher(next sitecrawl.Fetcher, logger *slog.Logger) *LoggingFetcher {
	return &LoggingFetcher{next: next, logger: logger}
}

// Fetch delegates to the wrapped fetcher and logs the outcome.
func (f *LoggingFetcher) Fetch(ctx context.Context, url string) (result *sitecrawl.FetchResult) {
	defer func(begin time.Time) {
		level := slog.LevelDebug
		attrs := []any{"url", url, "duration", time.Since(begin)}
		if result != nil {
			if result.Status == sitecrawl.FetchFailed || result.Status == sitecrawl.FetchRateLimited {
				level = slog.LevelWarn
			}
			attrs = append(attrs,
				"status", result.Status.String(),
				"code", result.StatusCode,
				"bytes", len(result.Body),
			)
			if result.Err != nil {
				attrs = append(attrs, "err", result.Err)
			}
		}
		f.logger.Log(ctx, level, "fetch", attrs...)
	}(time.Now())
	return f.next.Fetch(ctx, url)
}
