package sitecrawl

import "context"

// Crawler discovers the pages of a single site.
type Crawler interface {
	// Crawl visits startURL and every same-domain page reachable from it,
	// up to the configured page budget, and returns the visited pages in
	// normalized form. Returns EINVALID if startURL is not an http(s) URL.
	Crawl(ctx context.Context, startURL string) ([]string, error)
}
