package mock

import (
	"context"

	"github.com/fwojciec/sitecrawl"
)

var _ sitecrawl.CrawlRunService = (*CrawlRunService)(nil)

// CrawlRunService is a mock implementation of sitecrawl.CrawlRunService.
type CrawlRunService struct {
	CreateCrawlRunFn   func(ctx context.Context, run *sitecrawl.CrawlRun) error
	FindCrawlRunByIDFn func(ctx context.Context, id string) (*sitecrawl.CrawlRun, error)
	FindCrawlRunsFn    func(ctx context.Context, filter sitecrawl.CrawlRunFilter) ([]*sitecrawl.CrawlRun, error)
}

func (s *CrawlRunService) CreateCrawlRun(ctx context.Context, run *sitecrawl.CrawlRun) error {
	return s.CreateCrawlRunFn(ctx, run)
}

func (s *CrawlRunService) FindCrawlRunByID(ctx context.Context, id string) (*sitecrawl.CrawlRun, error) {
	return s.FindCrawlRunByIDFn(ctx, id)
}

func (s *CrawlRunService) FindCrawlRuns(ctx context.Context, filter sitecrawl.CrawlRunFilter) ([]*sitecrawl.CrawlRun, error) {
	return s.FindCrawlRunsFn(ctx, filter)
}
