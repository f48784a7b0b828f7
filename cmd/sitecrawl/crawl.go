package main

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/fwojciec/sitecrawl"
	"github.com/fwojciec/sitecrawl/fs"
)

// Run executes the crawl command.
func (c *CrawlCmd) Run(deps *Dependencies) error {
	run, err := crawlURL(deps, c.URL)
	if run == nil {
		return err
	}

	if c.Output != "" {
		if werr := fs.WriteResults(c.Output, run); werr != nil {
			fmt.Fprintf(deps.Stderr, "error: failed to write %s: %v\n", c.Output, werr)
			return werr
		}
		fmt.Fprintf(deps.Stdout, "Wrote %d pages to %s\n", len(run.Pages), c.Output)
	}

	return err
}

// crawlURL crawls url, prints the result block and records the run when
// history is enabled. The returned run is nil if the crawl did not start.
func crawlURL(deps *Dependencies, url string) (*sitecrawl.CrawlRun, error) {
	fmt.Fprintf(deps.Stdout, "\nCrawling %s ...\n\n", url)

	started := time.Now()
	pages, err := deps.NewCrawler().Crawl(deps.Ctx, url)
	finished := time.Now()

	if err != nil && pages == nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", sitecrawl.ErrorMessage(err))
		return nil, err
	}

	printResults(deps.Stdout, pages, finished.Sub(started))

	run := &sitecrawl.CrawlRun{
		StartURL:   sitecrawl.Normalize(url),
		Pages:      pages,
		PageCount:  len(pages),
		StartedAt:  started.UTC(),
		FinishedAt: finished.UTC(),
	}

	if deps.Runs != nil {
		// Record interrupted crawls too.
		if rerr := deps.Runs.CreateCrawlRun(context.WithoutCancel(deps.Ctx), run); rerr != nil {
			fmt.Fprintf(deps.Stderr, "warning: failed to record crawl: %s\n", sitecrawl.ErrorMessage(rerr))
		}
	}

	return run, err
}

func printResults(w io.Writer, pages []string, elapsed time.Duration) {
	fmt.Fprintln(w, "\n--- CRAWL RESULTS ---")
	fmt.Fprintf(w, "Found %d pages:\n", len(pages))
	fmt.Fprintf(w, "Time taken: %dms\n", elapsed.Milliseconds())
	for _, page := range pages {
		fmt.Fprintln(w, page)
	}
	fmt.Fprintf(w, "\n%s\n\n", strings.Repeat("=", 50))
}
