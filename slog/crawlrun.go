package slog

import (
	"context"
	"log/slog"
	"time"

	"github.com/fwojciec/sitecrawl"
)

// Ensure LoggingCrawlRunService implements sitecrawl.CrawlRunService.
var _ sitecrawl.CrawlRunService = (*LoggingCrawlRunService)(nil)

// LoggingCrawlRunService wraps a CrawlRunService with debug logging.
type LoggingCrawlRunService struct {
	next   sitecrawl.CrawlRunService
	logger *slog.Logger
}

// NewLoggingCrawlRunService creates a new LoggingCrawlRunService.
func NewLoggingCrawlRunService(next sitecrawl.CrawlRunService, logger *slog.Logger) *LoggingCrawlRunService {
	return &LoggingCrawlRunService{next: next, logger: logger}
}

func (s *LoggingCrawlRunService) CreateCrawlRun(ctx context.Context, run *sitecrawl.CrawlRun) (err error) {
	defer func(begin time.Time) {
		s.logger.Debug("create crawl run",
			"url", run.StartURL,
			"id", run.ID,
			"pages", len(run.Pages),
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return s.next.CreateCrawlRun(ctx, run)
}

func (s *LoggingCrawlRunService) FindCrawlRunByID(ctx context.Context, id string) (run *sitecrawl.CrawlRun, err error) {
	defer func(begin time.Time) {
		s.logger.Debug("find crawl run",
			"id", id,
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return s.next.FindCrawlRunByID(ctx, id)
}

func (s *LoggingCrawlRunService) FindCrawlRuns(ctx context.Context, filter sitecrawl.CrawlRunFilter) (runs []*sitecrawl.CrawlRun, err error) {
	defer func(begin time.Time) {
		s.logger.Debug("find crawl runs",
			"count", len(runs),
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return s.next.FindCrawlRuns(ctx, filter)
}
