package models

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCrawlerStateString(t *testing.T) {
	assert.Equal(t, "Idle", StateIdle.String())
	assert.Equal(t, "Crawling", StateCrawling.String())
	assert.Equal(t, "Paused", StatePaused.String())
	assert.Equal(t, "Terminated", StateTerminated.String())
	assert.Equal(t, "Unknown", CrawlerState(99).String())
}

func TestCrawlSummaryAdd_PreservesVisitOrder(t *testing.T) {
	seed, err := url.Parse("https://example.com/")
	require.NoError(t, err)

	cs := &CrawlSummary{Seed: seed}
	for _, path := range []string{"/", "/a", "/b"} {
		u, err := url.Parse("https://example.com" + path)
		require.NoError(t, err)
		cs.Add(PageSummary{URL: u, StatusCode: 200})
	}

	require.Len(t, cs.Pages, 3)
	assert.Equal(t, "https://example.com/", cs.Pages[0].URL.String())
	assert.Equal(t, "https://example.com/a", cs.Pages[1].URL.String())
	assert.Equal(t, "https://example.com/b", cs.Pages[2].URL.String())
}

func TestStatusOnlySummary(t *testing.T) {
	u, err := url.Parse("https://example.com/denied")
	require.NoError(t, err)

	p := StatusOnlySummary(u, 403)
	assert.Equal(t, 403, p.StatusCode)
	assert.Empty(t, p.Title)
	assert.Empty(t, p.ContentType)
	assert.Zero(t, p.NumOutgoingLinks)
}
