// Package goquery implements sitecrawl.LinkExtractor on top of goquery.
package goquery

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/fwojciec/sitecrawl"
)

var _ sitecrawl.LinkExtractor = (*LinkExtractor)(nil)

// LinkExtractor finds anchor targets in HTML documents.
type LinkExtractor struct{}

// NewLinkExtractor creates a new LinkExtractor.
func NewLinkExtractor() *LinkExtractor {
	return &LinkExtractor{}
}

// ExtractLinks returns the normalized http(s) targets of every <a href> in
// content, resolved against baseURL, deduplicated in document order.
// Links that cannot be resolved are skipped. Scope is not checked here.
func (e *LinkExtractor) ExtractLinks(content, baseURL string) ([]string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(content))
	if err != nil {
		return nil, sitecrawl.Errorf(sitecrawl.EINVALID, "failed to parse HTML: %v", err)
	}

	seen := make(map[string]struct{})
	var links []string

	doc.Find("a[href]").Each(func(_ int, sel *goquery.Selection) {
		href, _ := sel.Attr("href")

		resolved, ok := sitecrawl.ResolveLink(href, baseURL)
		if !ok || !sitecrawl.IsValid(resolved) {
			return
		}

		link := sitecrawl.Normalize(resolved)
		if _, dup := seen[link]; dup {
			return
		}
		seen[link] = struct{}{}
		links = append(links, link)
	})

	return links, nil
}
