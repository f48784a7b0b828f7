package sitecrawl_test

import (
	"testing"
	"time"

	"github.com/fwojciec/sitecrawl"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCrawlRun_Validate(t *testing.T) {
	t.Parallel()

	started := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	t.Run("accepts run with start URL", func(t *testing.T) {
		t.Parallel()

		run := &sitecrawl.CrawlRun{
			StartURL:   "https://example.com/",
			StartedAt:  started,
			FinishedAt: started.Add(time.Second),
		}
		require.NoError(t, run.Validate())
		assert.Equal(t, time.Second, run.Duration())
	})

	t.Run("requires start URL", func(t *testing.T) {
		t.Parallel()

		run := &sitecrawl.CrawlRun{}
		err := run.Validate()
		require.Error(t, err)
		assert.Equal(t, sitecrawl.EINVALID, sitecrawl.ErrorCode(err))
	})

	t.Run("rejects finish before start", func(t *testing.T) {
		t.Parallel()

		run := &sitecrawl.CrawlRun{
			StartURL:   "https://example.com/",
			StartedAt:  started,
			FinishedAt: started.Add(-time.Second),
		}
		err := run.Validate()
		require.Error(t, err)
		assert.Equal(t, sitecrawl.EINVALID, sitecrawl.ErrorCode(err))
	})
}
