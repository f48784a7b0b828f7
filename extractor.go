package sitecrawl

// LinkExtractor finds hyperlink targets in page content.
type LinkExtractor interface {
	// ExtractLinks returns the distinct absolute, normalized http(s) URLs
	// linked from content, resolving relative targets against baseURL.
	// Individual malformed links are dropped silently.
	ExtractLinks(content string, baseURL string) ([]string, error)
}
