// Package fs writes crawl results to local files.
package fs

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fwojciec/sitecrawl"
)

// WriteResults writes the pages of run to path, replacing any existing file.
// The content goes to a temporary sibling first and is renamed into place,
// so readers never observe a partial file. A path ending in ".json" gets the
// whole run as JSON; any other path gets one URL per line.
func WriteResults(path string, run *sitecrawl.CrawlRun) error {
	data, err := FormatResults(path, run)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	return nil
}

// FormatResults renders run in the format implied by the extension of path.
func FormatResults(path string, run *sitecrawl.CrawlRun) ([]byte, error) {
	if strings.EqualFold(filepath.Ext(path), ".json") {
		data, err := json.MarshalIndent(run, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("failed to encode results: %w", err)
		}
		return append(data, '\n'), nil
	}

	var b strings.Builder
	for _, page := range run.Pages {
		b.WriteString(page)
		b.WriteString("\n")
	}
	return []byte(b.String()), nil
}
