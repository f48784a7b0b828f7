package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"

	"github.com/alecthomas/kong"
	"github.com/fwojciec/sitecrawl"
	"github.com/fwojciec/sitecrawl/crawl"
	"github.com/fwojciec/sitecrawl/goquery"
	sitecrawlhttp "github.com/fwojciec/sitecrawl/http"
	sitecrawlslog "github.com/fwojciec/sitecrawl/slog"
	"github.com/fwojciec/sitecrawl/sqlite"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	m := NewMain()

	if err := m.Run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// Main represents the program.
type Main struct {
	// SQLite database holding crawl history. Nil when history is disabled.
	DB *sqlite.DB
}

// NewMain returns a new instance of Main.
func NewMain() *Main {
	return &Main{}
}

// Close gracefully stops the program.
func (m *Main) Close() error {
	if m.DB != nil {
		return m.DB.Close()
	}
	return nil
}

// Run executes the CLI with the given arguments.
func (m *Main) Run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	deps := &Dependencies{
		Ctx:    ctx,
		Stdin:  stdin,
		Stdout: stdout,
		Stderr: stderr,
	}

	cli := &CLI{}
	parser, err := kong.New(cli,
		kong.Name("sitecrawl"),
		kong.Description("Crawl a website and list the pages reachable from a start URL"),
		kong.Writers(stdout, stderr),
		kong.Exit(func(int) {}), // Don't exit on help
		kong.Bind(deps),
	)
	if err != nil {
		return fmt.Errorf("failed to create parser: %w", err)
	}

	if len(args) > 0 && (args[0] == "help" || args[0] == "--help" || args[0] == "-h") {
		_, _ = parser.Parse([]string{"--help"})
		return nil
	}

	kongCtx, err := parser.Parse(args)
	if err != nil {
		return err
	}

	deps.Logger = newLogger(stderr, cli.LogLevel)

	if cli.DB != "" {
		m.DB = sqlite.NewDB(cli.DB)
		if err := m.DB.Open(); err != nil {
			fmt.Fprintln(stderr, "Hint: Set SITECRAWL_DB to use a different database path")
			return fmt.Errorf("failed to open database at %q: %w", cli.DB, err)
		}
		defer m.Close()
		deps.Runs = sitecrawlslog.NewLoggingCrawlRunService(sqlite.NewCrawlRunService(m.DB), deps.Logger)
	}

	deps.NewCrawler = func() sitecrawl.Crawler {
		return newCrawler(cli, deps)
	}

	return kongCtx.Run(deps)
}

// newCrawler builds a crawler with its own per-domain limiter.
func newCrawler(cli *CLI, deps *Dependencies) sitecrawl.Crawler {
	limiter := crawl.NewDomainLimiter(
		crawl.WithConcurrency(cli.PerDomain),
		crawl.WithRate(cli.Rate),
	)
	var opts []sitecrawlhttp.Option
	if cli.UserAgent != "" {
		opts = append(opts, sitecrawlhttp.WithUserAgent(cli.UserAgent))
	}
	fetcher := sitecrawlslog.NewLoggingFetcher(sitecrawlhttp.NewFetcher(limiter, opts...), deps.Logger)

	c := crawl.NewCrawler(fetcher, goquery.NewLinkExtractor(), deps.Logger)
	c.MaxPages = cli.MaxPages
	if cli.Progress {
		c.Progress = func(p crawl.Progress) {
			fmt.Fprintf(deps.Stdout, "Progress: %d pages crawled, %d active tasks\n", p.Visited, p.Active)
		}
	}

	return sitecrawlslog.NewLoggingCrawler(c, deps.Logger)
}

func newLogger(w io.Writer, level string) *slog.Logger {
	var l slog.Level
	if err := l.UnmarshalText([]byte(level)); err != nil {
		l = slog.LevelWarn
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: l}))
}
