package main

import (
	"context"
	"io"
	"log/slog"

	"github.com/fwojciec/sitecrawl"
)

// Dependencies holds all services and configuration for command execution.
type Dependencies struct {
	Ctx    context.Context
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
	Logger *slog.Logger

	// NewCrawler returns a fresh crawler for each start URL.
	NewCrawler func() sitecrawl.Crawler

	// Runs records crawl history. Nil when no database is configured.
	Runs sitecrawl.CrawlRunService
}

// CLI defines the command-line interface structure for Kong.
type CLI struct {
	MaxPages  int     `name:"max-pages" default:"200" env:"SITECRAWL_MAX_PAGES" help:"Maximum number of pages per crawl"`
	PerDomain int     `name:"per-domain" default:"2" env:"SITECRAWL_PER_DOMAIN" help:"Concurrent requests per domain"`
	Rate      float64 `default:"0" env:"SITECRAWL_RATE" help:"Requests per second per domain (0 = unlimited)"`
	UserAgent string  `name:"user-agent" env:"SITECRAWL_USER_AGENT" help:"User-Agent header sent with every request"`
	DB        string  `name:"db" env:"SITECRAWL_DB" help:"SQLite database for crawl history (disabled when empty)"`
	LogLevel  string  `name:"log-level" default:"warn" enum:"debug,info,warn,error" env:"SITECRAWL_LOG_LEVEL" help:"Log level (debug, info, warn, error)"`
	Progress  bool    `default:"true" negatable:"" help:"Print progress while crawling"`

	Shell   ShellCmd   `cmd:"" default:"1" help:"Crawl URLs entered on standard input"`
	Crawl   CrawlCmd   `cmd:"" help:"Crawl a single URL and print the result"`
	History HistoryCmd `cmd:"" help:"List recorded crawl runs"`
}

// ShellCmd is the interactive "shell" subcommand.
type ShellCmd struct{}

// CrawlCmd is the "crawl" subcommand.
type CrawlCmd struct {
	URL    string `arg:"" help:"Start URL"`
	Output string `short:"o" type:"path" help:"Also write the pages to this file (.json for the full run)"`
}

// HistoryCmd is the "history" subcommand.
type HistoryCmd struct {
	Limit int    `short:"n" default:"20" help:"Maximum number of runs to show"`
	URL   string `name:"url" help:"Only show runs for this start URL"`
}
