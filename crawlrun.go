package sitecrawl

import (
	"context"
	"time"
)

// CrawlRun records one finished crawl.
type CrawlRun struct {
	ID         string    `json:"id"`
	StartURL   string    `json:"startUrl"`
	Pages      []string  `json:"pages,omitempty"`
	PageCount  int       `json:"pageCount"`
	StartedAt  time.Time `json:"startedAt"`
	FinishedAt time.Time `json:"finishedAt"`
}

// Validate returns an error if the crawl run contains invalid fields.
func (r *CrawlRun) Validate() error {
	if r.StartURL == "" {
		return Errorf(EINVALID, "crawl run start URL required")
	}
	if r.FinishedAt.Before(r.StartedAt) {
		return Errorf(EINVALID, "crawl run cannot finish before it starts")
	}
	return nil
}

// Duration returns how long the crawl took.
func (r *CrawlRun) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}

// CrawlRunService represents a service for recording crawl history.
type CrawlRunService interface {
	// CreateCrawlRun stores a finished crawl and assigns its ID.
	CreateCrawlRun(ctx context.Context, run *CrawlRun) error

	// FindCrawlRunByID retrieves a crawl run including its pages.
	// Returns ENOTFOUND if the run does not exist.
	FindCrawlRunByID(ctx context.Context, id string) (*CrawlRun, error)

	// FindCrawlRuns retrieves crawl runs matching the filter, newest first.
	// Pages are not loaded; PageCount is.
	FindCrawlRuns(ctx context.Context, filter CrawlRunFilter) ([]*CrawlRun, error)
}

// CrawlRunFilter represents a filter for FindCrawlRuns.
type CrawlRunFilter struct {
	StartURL *string `json:"startUrl"`

	Offset int `json:"offset"`
	Limit  int `json:"limit"`
}
