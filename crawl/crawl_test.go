package crawl_test

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/fwojciec/sitecrawl"
	"github.com/fwojciec/sitecrawl/crawl"
	"github.com/fwojciec/sitecrawl/goquery"
	sitecrawlhttp "github.com/fwojciec/sitecrawl/http"
	"github.com/fwojciec/sitecrawl/mock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// route is a canned response served by testSite.
type route struct {
	code int
	body string
}

// testSite serves routes by path and counts requests per path.
// Unknown paths answer 404.
type testSite struct {
	*httptest.Server

	mu   sync.Mutex
	hits map[string]int
}

func newTestSite(t *testing.T, routes map[string]route) *testSite {
	t.Helper()

	s := &testSite{hits: make(map[string]int)}
	s.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		s.hits[r.URL.Path]++
		s.mu.Unlock()

		rt, ok := routes[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		if rt.code != 0 {
			w.WriteHeader(rt.code)
		}
		_, _ = w.Write([]byte(rt.body))
	}))
	t.Cleanup(s.Close)
	return s
}

func (s *testSite) hitCount(path string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hits[path]
}

func (s *testSite) url(path string) string {
	return s.URL + path
}

func links(paths ...string) string {
	var b strings.Builder
	b.WriteString("<html><body>")
	for _, p := range paths {
		fmt.Fprintf(&b, `<a href="%s">%s</a>`, p, p)
	}
	b.WriteString("</body></html>")
	return b.String()
}

func newTestCrawler() *crawl.Crawler {
	limiter := crawl.NewDomainLimiter(crawl.WithConcurrency(4), crawl.WithReleaseDelay(0))
	return &crawl.Crawler{
		Fetcher:      sitecrawlhttp.NewFetcher(limiter, sitecrawlhttp.WithTimeout(5*time.Second)),
		Extractor:    goquery.NewLinkExtractor(),
		MaxPages:     200,
		PollInterval: 10 * time.Millisecond,
	}
}

// fakeWeb is an in-memory set of pages keyed by normalized URL.
// Unknown URLs are reported as ignored 404s.
type fakeWeb struct {
	mu    sync.Mutex
	pages map[string]string
	hits  map[string]int
}

func newFakeWeb(pages map[string]string) *fakeWeb {
	return &fakeWeb{pages: pages, hits: make(map[string]int)}
}

func (w *fakeWeb) Fetch(_ context.Context, url string) *sitecrawl.FetchResult {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.hits[url]++
	body, ok := w.pages[url]
	if !ok {
		return &sitecrawl.FetchResult{URL: url, Status: sitecrawl.FetchIgnored, StatusCode: 404}
	}
	return &sitecrawl.FetchResult{URL: url, Status: sitecrawl.FetchOK, StatusCode: 200, Body: body}
}

func (w *fakeWeb) hitCount(url string) int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.hits[url]
}

func TestCrawler_Crawl(t *testing.T) {
	t.Parallel()

	t.Run("implements sitecrawl.Crawler interface", func(t *testing.T) {
		t.Parallel()
		var _ sitecrawl.Crawler = crawl.NewCrawler(nil, nil, nil)
	})

	t.Run("returns the start page of a site without links", func(t *testing.T) {
		t.Parallel()

		site := newTestSite(t, map[string]route{
			"/": {body: "<html><body>Hello</body></html>"},
		})

		pages, err := newTestCrawler().Crawl(context.Background(), site.URL)

		require.NoError(t, err)
		assert.Equal(t, []string{site.url("/")}, pages)
	})

	t.Run("follows same-site links and skips external ones", func(t *testing.T) {
		t.Parallel()

		site := newTestSite(t, map[string]route{
			"/":  {body: links("/a", "/b", "https://external.invalid/x", "mailto:me@example.com")},
			"/a": {body: links("/")},
			"/b": {body: links("c")},
			"/c": {body: "leaf"},
		})

		pages, err := newTestCrawler().Crawl(context.Background(), site.URL+"/")

		require.NoError(t, err)
		assert.Equal(t, []string{site.url("/"), site.url("/a"), site.url("/b"), site.url("/c")}, pages)
	})

	t.Run("leaves out pages answering ignored or failing status codes", func(t *testing.T) {
		t.Parallel()

		site := newTestSite(t, map[string]route{
			"/":       {body: links("/ok", "/r301", "/r302", "/r307", "/r308", "/e400", "/e404", "/e410", "/e500")},
			"/ok":     {body: "ok"},
			"/r301":   {code: 301, body: links("/hidden")},
			"/r302":   {code: 302},
			"/r307":   {code: 307},
			"/r308":   {code: 308},
			"/e400":   {code: 400},
			"/e404":   {code: 404},
			"/e410":   {code: 410},
			"/e500":   {code: 500},
			"/hidden": {body: "must not be reached"},
		})

		pages, err := newTestCrawler().Crawl(context.Background(), site.URL)

		require.NoError(t, err)
		assert.Equal(t, []string{site.url("/"), site.url("/ok")}, pages)
		assert.Zero(t, site.hitCount("/hidden"))
		assert.Equal(t, 1, site.hitCount("/e500"), "failures are not retried")
	})

	t.Run("stops at the page limit", func(t *testing.T) {
		t.Parallel()

		site := newTestSite(t, map[string]route{
			"/":   {body: links("/p1", "/p2", "/p3", "/p4", "/p5")},
			"/p1": {body: "1"},
			"/p2": {body: "2"},
			"/p3": {body: "3"},
			"/p4": {body: "4"},
			"/p5": {body: "5"},
		})

		c := newTestCrawler()
		c.MaxPages = 3

		pages, err := c.Crawl(context.Background(), site.URL)

		require.NoError(t, err)
		assert.LessOrEqual(t, len(pages), 3)
		assert.Contains(t, pages, site.url("/"))
		assertUnique(t, pages)
	})

	t.Run("rejects an invalid start URL without any request", func(t *testing.T) {
		t.Parallel()

		c := &crawl.Crawler{
			Fetcher: &mock.Fetcher{
				FetchFn: func(context.Context, string) *sitecrawl.FetchResult {
					t.Fatal("no request expected")
					return nil
				},
			},
			Extractor: goquery.NewLinkExtractor(),
		}

		for _, raw := range []string{"", "   ", "not a url", "ftp://example.com/", "http://", "example.com"} {
			pages, err := c.Crawl(context.Background(), raw)

			require.Error(t, err, raw)
			assert.Equal(t, sitecrawl.EINVALID, sitecrawl.ErrorCode(err), raw)
			assert.Contains(t, sitecrawl.ErrorMessage(err), "invalid start URL")
			assert.Nil(t, pages)
		}
	})

	t.Run("terminates on circular links", func(t *testing.T) {
		t.Parallel()

		site := newTestSite(t, map[string]route{
			"/a": {body: links("/b")},
			"/b": {body: links("/a")},
		})

		pages, err := newTestCrawler().Crawl(context.Background(), site.url("/a"))

		require.NoError(t, err)
		assert.Equal(t, []string{site.url("/a"), site.url("/b")}, pages)
		assert.Equal(t, 1, site.hitCount("/a"))
		assert.Equal(t, 1, site.hitCount("/b"))
	})

	t.Run("fetches equivalent URLs once", func(t *testing.T) {
		t.Parallel()

		site := newTestSite(t, map[string]route{
			"/":  {body: links("/a", "/a/", "/a#top", "a", "./a/")},
			"/a": {body: links("/", "/#main")},
		})
		upper := strings.Replace(site.URL, "http://", "HTTP://", 1)

		pages, err := newTestCrawler().Crawl(context.Background(), upper)

		require.NoError(t, err)
		assert.Equal(t, []string{site.url("/"), site.url("/a")}, pages)
		assert.Equal(t, 1, site.hitCount("/a"))
		assert.Zero(t, site.hitCount("/a/"))
	})

	t.Run("visits every page of a densely linked site once", func(t *testing.T) {
		t.Parallel()

		const n = 20
		var all []string
		for i := range n {
			all = append(all, fmt.Sprintf("/p%d", i))
		}
		routes := map[string]route{"/": {body: links(all...)}}
		for _, p := range all {
			routes[p] = route{body: links(append([]string{"/"}, all...)...)}
		}
		site := newTestSite(t, routes)

		pages, err := newTestCrawler().Crawl(context.Background(), site.URL)

		require.NoError(t, err)
		assert.Len(t, pages, n+1)
		assertUnique(t, pages)
		for path := range routes {
			assert.Equal(t, 1, site.hitCount(path), "hits for %s", path)
		}
	})

	t.Run("runs independent crawls concurrently", func(t *testing.T) {
		t.Parallel()

		siteA := newTestSite(t, map[string]route{
			"/":   {body: links("/a1", "/a2")},
			"/a1": {body: "a1"},
			"/a2": {body: "a2"},
		})
		siteB := newTestSite(t, map[string]route{
			"/":   {body: links("/b1")},
			"/b1": {body: "b1"},
		})

		c := newTestCrawler()

		var wg sync.WaitGroup
		var pagesA, pagesB []string
		var errA, errB error
		wg.Add(2)
		go func() {
			defer wg.Done()
			pagesA, errA = c.Crawl(context.Background(), siteA.URL)
		}()
		go func() {
			defer wg.Done()
			pagesB, errB = c.Crawl(context.Background(), siteB.URL)
		}()
		wg.Wait()

		require.NoError(t, errA)
		require.NoError(t, errB)
		assert.Equal(t, []string{siteA.url("/"), siteA.url("/a1"), siteA.url("/a2")}, pagesA)
		assert.Equal(t, []string{siteB.url("/"), siteB.url("/b1")}, pagesB)
	})

	t.Run("starts fresh on every call", func(t *testing.T) {
		t.Parallel()

		site := newTestSite(t, map[string]route{
			"/":  {body: links("/a")},
			"/a": {body: "a"},
		})

		c := newTestCrawler()
		first, err := c.Crawl(context.Background(), site.URL)
		require.NoError(t, err)
		second, err := c.Crawl(context.Background(), site.URL)
		require.NoError(t, err)

		assert.Equal(t, first, second)
		assert.Equal(t, 2, site.hitCount("/a"))
	})

	t.Run("includes subdomains but not look-alike domains", func(t *testing.T) {
		t.Parallel()

		web := newFakeWeb(map[string]string{
			"https://example.com/": links(
				"https://blog.example.com/post",
				"https://evil-example.com/",
				"https://example.com.evil.com/",
			),
			"https://blog.example.com/post": "post",
			"https://evil-example.com/":     "evil",
			"https://example.com.evil.com/": "evil",
		})

		c := &crawl.Crawler{Fetcher: web, Extractor: goquery.NewLinkExtractor()}

		pages, err := c.Crawl(context.Background(), "https://Example.com")

		require.NoError(t, err)
		assert.Equal(t, []string{"https://blog.example.com/post", "https://example.com/"}, pages)
		assert.Zero(t, web.hitCount("https://evil-example.com/"))
		assert.Zero(t, web.hitCount("https://example.com.evil.com/"))
	})

	t.Run("contains a panicking task", func(t *testing.T) {
		t.Parallel()

		web := newFakeWeb(map[string]string{
			"https://example.com/":  "root",
			"https://example.com/a": "boom",
			"https://example.com/b": "b",
		})
		extractor := &mock.LinkExtractor{
			ExtractLinksFn: func(content, _ string) ([]string, error) {
				switch content {
				case "root":
					return []string{"https://example.com/a", "https://example.com/b"}, nil
				case "boom":
					panic("extractor exploded")
				}
				return nil, nil
			},
		}

		var logs bytes.Buffer
		var mu sync.Mutex
		c := &crawl.Crawler{
			Fetcher:   web,
			Extractor: extractor,
			Logger:    slog.New(slog.NewTextHandler(&lockedWriter{w: &logs, mu: &mu}, nil)),
		}

		pages, err := c.Crawl(context.Background(), "https://example.com")

		require.NoError(t, err)
		assert.Equal(t, []string{"https://example.com/", "https://example.com/a", "https://example.com/b"}, pages)
		mu.Lock()
		assert.Contains(t, logs.String(), "crawl task panicked")
		mu.Unlock()
	})

	t.Run("continues after an extraction error", func(t *testing.T) {
		t.Parallel()

		web := newFakeWeb(map[string]string{"https://example.com/": "root"})
		extractor := &mock.LinkExtractor{
			ExtractLinksFn: func(string, string) ([]string, error) {
				return nil, sitecrawl.Errorf(sitecrawl.EINVALID, "failed to parse HTML")
			},
		}

		c := &crawl.Crawler{Fetcher: web, Extractor: extractor}

		pages, err := c.Crawl(context.Background(), "https://example.com/")

		require.NoError(t, err)
		assert.Equal(t, []string{"https://example.com/"}, pages)
	})

	t.Run("returns the permit of a page that failed", func(t *testing.T) {
		t.Parallel()

		failedDone := make(chan struct{})
		fetcher := &mock.Fetcher{
			FetchFn: func(_ context.Context, url string) *sitecrawl.FetchResult {
				switch url {
				case "https://example.com/":
					return &sitecrawl.FetchResult{URL: url, Status: sitecrawl.FetchOK, Body: "root"}
				case "https://example.com/fail":
					defer close(failedDone)
					return &sitecrawl.FetchResult{URL: url, Status: sitecrawl.FetchRateLimited}
				case "https://example.com/a":
					<-failedDone
					time.Sleep(20 * time.Millisecond)
					return &sitecrawl.FetchResult{URL: url, Status: sitecrawl.FetchOK, Body: "a"}
				default:
					return &sitecrawl.FetchResult{URL: url, Status: sitecrawl.FetchOK, Body: "leaf"}
				}
			},
		}
		extractor := &mock.LinkExtractor{
			ExtractLinksFn: func(content, _ string) ([]string, error) {
				switch content {
				case "root":
					return []string{"https://example.com/fail", "https://example.com/a"}, nil
				case "a":
					return []string{"https://example.com/b"}, nil
				}
				return nil, nil
			},
		}

		c := &crawl.Crawler{Fetcher: fetcher, Extractor: extractor, MaxPages: 3}

		pages, err := c.Crawl(context.Background(), "https://example.com/")

		require.NoError(t, err)
		assert.Equal(t, []string{"https://example.com/", "https://example.com/a", "https://example.com/b"}, pages)
	})

	t.Run("schedules a rate-limited page again when another link leads to it", func(t *testing.T) {
		t.Parallel()

		var xAttempts atomic.Int32
		firstDone := make(chan struct{})
		fetcher := &mock.Fetcher{
			FetchFn: func(_ context.Context, url string) *sitecrawl.FetchResult {
				switch url {
				case "https://example.com/":
					return &sitecrawl.FetchResult{URL: url, Status: sitecrawl.FetchOK, Body: "root"}
				case "https://example.com/x":
					if xAttempts.Add(1) == 1 {
						defer close(firstDone)
						return &sitecrawl.FetchResult{URL: url, Status: sitecrawl.FetchRateLimited}
					}
					return &sitecrawl.FetchResult{URL: url, Status: sitecrawl.FetchOK, Body: "x"}
				case "https://example.com/a":
					<-firstDone
					time.Sleep(20 * time.Millisecond)
					return &sitecrawl.FetchResult{URL: url, Status: sitecrawl.FetchOK, Body: "a"}
				}
				return &sitecrawl.FetchResult{URL: url, Status: sitecrawl.FetchIgnored, StatusCode: 404}
			},
		}
		extractor := &mock.LinkExtractor{
			ExtractLinksFn: func(content, _ string) ([]string, error) {
				switch content {
				case "root":
					return []string{"https://example.com/x", "https://example.com/a"}, nil
				case "a":
					return []string{"https://example.com/x"}, nil
				}
				return nil, nil
			},
		}

		c := &crawl.Crawler{Fetcher: fetcher, Extractor: extractor, MaxPages: 10, PollInterval: 10 * time.Millisecond}

		pages, err := c.Crawl(context.Background(), "https://example.com/")

		require.NoError(t, err)
		assert.Equal(t, []string{"https://example.com/", "https://example.com/a", "https://example.com/x"}, pages)
		assert.Equal(t, int32(2), xAttempts.Load())
	})

	t.Run("reaches every page of a wide site with the default limiter", func(t *testing.T) {
		t.Parallel()

		const width = 60
		paths := make([]string, 0, width)
		routes := map[string]route{}
		for i := range width {
			p := fmt.Sprintf("/p%d", i)
			paths = append(paths, p)
			routes[p] = route{body: links()}
		}
		routes["/"] = route{body: links(paths...)}
		site := newTestSite(t, routes)

		c := crawl.NewCrawler(
			sitecrawlhttp.NewFetcher(crawl.NewDomainLimiter()),
			goquery.NewLinkExtractor(),
			nil,
		)

		start := time.Now()
		pages, err := c.Crawl(context.Background(), site.url("/"))

		require.NoError(t, err)
		assert.Len(t, pages, width+1)
		assert.Less(t, time.Since(start), 8*time.Second)
		for _, p := range paths {
			assert.Equal(t, 1, site.hitCount(p), p)
		}
	})

	t.Run("reports progress while tasks run", func(t *testing.T) {
		t.Parallel()

		fetcher := &mock.Fetcher{
			FetchFn: func(_ context.Context, url string) *sitecrawl.FetchResult {
				time.Sleep(50 * time.Millisecond)
				return &sitecrawl.FetchResult{URL: url, Status: sitecrawl.FetchOK}
			},
		}
		extractor := &mock.LinkExtractor{
			ExtractLinksFn: func(string, string) ([]string, error) { return nil, nil },
		}

		var calls atomic.Int32
		var sawActive atomic.Bool
		c := &crawl.Crawler{
			Fetcher:      fetcher,
			Extractor:    extractor,
			PollInterval: 5 * time.Millisecond,
			Progress: func(p crawl.Progress) {
				calls.Add(1)
				if p.Active > 0 {
					sawActive.Store(true)
				}
			},
		}

		_, err := c.Crawl(context.Background(), "https://example.com/")

		require.NoError(t, err)
		assert.Positive(t, calls.Load())
		assert.True(t, sawActive.Load())
	})

	t.Run("returns partial result when canceled", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		fetcher := &mock.Fetcher{
			FetchFn: func(ctx context.Context, url string) *sitecrawl.FetchResult {
				if url == "https://example.com/" {
					return &sitecrawl.FetchResult{URL: url, Status: sitecrawl.FetchOK, Body: "root"}
				}
				cancel()
				<-ctx.Done()
				return &sitecrawl.FetchResult{URL: url, Status: sitecrawl.FetchFailed, Err: ctx.Err()}
			},
		}
		extractor := &mock.LinkExtractor{
			ExtractLinksFn: func(content, _ string) ([]string, error) {
				if content == "root" {
					return []string{"https://example.com/slow"}, nil
				}
				return nil, nil
			},
		}

		c := &crawl.Crawler{Fetcher: fetcher, Extractor: extractor}

		done := make(chan struct{})
		var pages []string
		var err error
		go func() {
			defer close(done)
			pages, err = c.Crawl(ctx, "https://example.com/")
		}()

		select {
		case <-done:
		case <-time.After(5 * time.Second):
			t.Fatal("crawl did not stop after cancellation")
		}

		require.ErrorIs(t, err, context.Canceled)
		assert.Equal(t, []string{"https://example.com/"}, pages)
	})
}

func TestNewCrawler(t *testing.T) {
	t.Parallel()

	c := crawl.NewCrawler(nil, nil, nil)

	assert.Equal(t, crawl.DefaultMaxPages, c.MaxPages)
	assert.Equal(t, crawl.DefaultTaskDelay, c.TaskDelay)
	assert.Equal(t, crawl.DefaultPollInterval, c.PollInterval)
	assert.Equal(t, crawl.DefaultShutdownGrace, c.ShutdownGrace)
}

func assertUnique(t *testing.T, pages []string) {
	t.Helper()
	seen := make(map[string]bool)
	for _, p := range pages {
		assert.False(t, seen[p], "duplicate page %s", p)
		seen[p] = true
	}
}

// lockedWriter serializes writes from concurrent loggers.
type lockedWriter struct {
	w  *bytes.Buffer
	mu *sync.Mutex
}

func (l *lockedWriter) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.w.Write(p)
}
