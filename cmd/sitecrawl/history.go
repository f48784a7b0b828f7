package main

import (
	"fmt"
	"time"

	"github.com/fwojciec/sitecrawl"
)

// Run executes the history command.
func (c *HistoryCmd) Run(deps *Dependencies) error {
	if deps.Runs == nil {
		return fmt.Errorf("crawl history is disabled; set --db or SITECRAWL_DB")
	}

	filter := sitecrawl.CrawlRunFilter{Limit: c.Limit}
	if c.URL != "" {
		url := sitecrawl.Normalize(c.URL)
		filter.StartURL = &url
	}

	runs, err := deps.Runs.FindCrawlRuns(deps.Ctx, filter)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", sitecrawl.ErrorMessage(err))
		return err
	}

	if len(runs) == 0 {
		fmt.Fprintln(deps.Stdout, "No crawl runs found. Use 'sitecrawl crawl' to record one.")
		return nil
	}

	for _, r := range runs {
		fmt.Fprintf(deps.Stdout, "%s  %s  %s  %d pages  %dms\n",
			r.ID,
			r.StartedAt.Local().Format(time.DateTime),
			r.StartURL,
			r.PageCount,
			r.Duration().Milliseconds(),
		)
	}

	return nil
}
