package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/fwojciec/sitecrawl"
	"github.com/google/uuid"
)

// timeFormat is RFC3339 with fixed-width nanoseconds so stored timestamps
// sort lexically.
const timeFormat = "2006-01-02T15:04:05.000000000Z07:00"

// Compile-time interface verification.
var _ sitecrawl.CrawlRunService = (*CrawlRunService)(nil)

// CrawlRunService implements sitecrawl.CrawlRunService using SQLite.
type CrawlRunService struct {
	db *DB
}

// NewCrawlRunService creates a new CrawlRunService.
func NewCrawlRunService(db *DB) *CrawlRunService {
	return &CrawlRunService{db: db}
}

// CreateCrawlRun stores a crawl run with its pages in one transaction.
// A zero StartedAt is set to the current time.
func (s *CrawlRunService) CreateCrawlRun(ctx context.Context, run *sitecrawl.CrawlRun) error {
	if run.StartedAt.IsZero() {
		now := time.Now().UTC()
		run.StartedAt = now
		if run.FinishedAt.IsZero() {
			run.FinishedAt = now
		}
	}
	if err := run.Validate(); err != nil {
		return err
	}

	run.ID = uuid.New().String()
	run.PageCount = len(run.Pages)

	tx, err := s.db.BeginTx(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO crawl_runs (id, start_url, page_count, started_at, finished_at)
		VALUES (?, ?, ?, ?, ?)
	`, run.ID, run.StartURL, run.PageCount,
		run.StartedAt.UTC().Format(timeFormat), run.FinishedAt.UTC().Format(timeFormat))
	if err != nil {
		return err
	}

	for i, page := range run.Pages {
		if _, err := tx.ExecContext(ctx, `
			INSERT OR IGNORE INTO crawl_pages (run_id, url, position)
			VALUES (?, ?, ?)
		`, run.ID, page, i); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// FindCrawlRunByID retrieves a crawl run and its pages in stored order.
func (s *CrawlRunService) FindCrawlRunByID(ctx context.Context, id string) (*sitecrawl.CrawlRun, error) {
	var run sitecrawl.CrawlRun
	var startedAt, finishedAt string

	err := s.db.QueryRowContext(ctx, `
		SELECT id, start_url, page_count, started_at, finished_at
		FROM crawl_runs
		WHERE id = ?
	`, id).Scan(&run.ID, &run.StartURL, &run.PageCount, &startedAt, &finishedAt)

	if err == sql.ErrNoRows {
		return nil, sitecrawl.Errorf(sitecrawl.ENOTFOUND, "crawl run not found")
	}
	if err != nil {
		return nil, err
	}
	if err := scanTimes(&run, startedAt, finishedAt); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT url FROM crawl_pages
		WHERE run_id = ?
		ORDER BY position
	`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	run.Pages = []string{}
	for rows.Next() {
		var url string
		if err := rows.Scan(&url); err != nil {
			return nil, err
		}
		run.Pages = append(run.Pages, url)
	}

	return &run, rows.Err()
}

// FindCrawlRuns retrieves crawl runs matching the filter, newest first.
func (s *CrawlRunService) FindCrawlRuns(ctx context.Context, filter sitecrawl.CrawlRunFilter) ([]*sitecrawl.CrawlRun, error) {
	var query strings.Builder
	var args []any

	query.WriteString("SELECT id, start_url, page_count, started_at, finished_at FROM crawl_runs WHERE 1=1")

	if filter.StartURL != nil {
		query.WriteString(" AND start_url = ?")
		args = append(args, *filter.StartURL)
	}

	query.WriteString(" ORDER BY started_at DESC, rowid DESC")

	if filter.Limit > 0 {
		query.WriteString(" LIMIT ?")
		args = append(args, filter.Limit)
	}
	if filter.Offset > 0 {
		if filter.Limit <= 0 {
			// SQLite requires LIMIT before OFFSET.
			query.WriteString(" LIMIT -1")
		}
		query.WriteString(" OFFSET ?")
		args = append(args, filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query.String(), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []*sitecrawl.CrawlRun
	for rows.Next() {
		var run sitecrawl.CrawlRun
		var startedAt, finishedAt string

		if err := rows.Scan(&run.ID, &run.StartURL, &run.PageCount, &startedAt, &finishedAt); err != nil {
			return nil, err
		}
		if err := scanTimes(&run, startedAt, finishedAt); err != nil {
			return nil, err
		}

		runs = append(runs, &run)
	}

	return runs, rows.Err()
}

func scanTimes(run *sitecrawl.CrawlRun, startedAt, finishedAt string) error {
	var err error
	run.StartedAt, err = time.Parse(time.RFC3339Nano, startedAt)
	if err != nil {
		return fmt.Errorf("failed to parse started_at: %w", err)
	}
	run.FinishedAt, err = time.Parse(time.RFC3339Nano, finishedAt)
	if err != nil {
		return fmt.Errorf("failed to parse finished_at: %w", err)
	}
	return nil
}
