package crawler

import (
	"context"
	"net/http"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spaceshaker/rusty-spider/pkg/config"
	"github.com/spaceshaker/rusty-spider/pkg/fetch"
)

func TestRun_CrawlsEverySeed(t *testing.T) {
	sf := &stubFetcher{pages: map[string]*fetch.PageResult{
		"https://a.example.com/": page(t, "https://a.example.com/", "A"),
		"https://b.example.com/": page(t, "https://b.example.com/", "B"),
		"https://c.example.com/": page(t, "https://c.example.com/", "C"),
	}}

	mc := NewMultiCrawler(config.Default(), sf, &stubRobots{policy: allowAll()}, NopReporterFactory{}, testLogger())
	mc.AddSeed(mustParse(t, "https://a.example.com/"))
	mc.AddSeed(mustParse(t, "https://b.example.com/"))
	mc.AddSeed(mustParse(t, "https://c.example.com/"))

	summaries := mc.Run(context.Background())
	require.Len(t, summaries, 3)

	// Summaries come back in seed order regardless of finish order.
	assert.Equal(t, "https://a.example.com/", summaries[0].Seed.String())
	assert.Equal(t, "https://b.example.com/", summaries[1].Seed.String())
	assert.Equal(t, "https://c.example.com/", summaries[2].Seed.String())
}

func TestRun_FailedSeedIsDropped(t *testing.T) {
	sf := &stubFetcher{
		pages: map[string]*fetch.PageResult{
			"https://a.example.com/": page(t, "https://a.example.com/", "A"),
			"https://c.example.com/": page(t, "https://c.example.com/", "C"),
		},
		errs: map[string]error{
			"https://b.example.com/": fetch.ErrNotHTML, // fatal to that seed
		},
	}

	mc := NewMultiCrawler(config.Default(), sf, &stubRobots{policy: allowAll()}, NopReporterFactory{}, testLogger())
	mc.AddSeed(mustParse(t, "https://a.example.com/"))
	mc.AddSeed(mustParse(t, "https://b.example.com/"))
	mc.AddSeed(mustParse(t, "https://c.example.com/"))

	summaries := mc.Run(context.Background())
	require.Len(t, summaries, 2)
	assert.Equal(t, "https://a.example.com/", summaries[0].Seed.String())
	assert.Equal(t, "https://c.example.com/", summaries[1].Seed.String())
}

type panickingFetcher struct{}

func (panickingFetcher) Fetch(context.Context, *url.URL) (*fetch.PageResult, error) {
	panic("fetcher blew up")
}

func TestRun_PanickedSeedDoesNotTakeDownOthers(t *testing.T) {
	robots := &stubRobots{policy: allowAll()}
	cfg := config.Default()

	okFetcher := &stubFetcher{pages: map[string]*fetch.PageResult{
		"https://a.example.com/": page(t, "https://a.example.com/", "A"),
	}}

	// One MultiCrawler per fetcher behavior; the panicking one must still
	// return rather than crash the process.
	mcPanic := NewMultiCrawler(cfg, panickingFetcher{}, robots, NopReporterFactory{}, testLogger())
	mcPanic.AddSeed(mustParse(t, "https://b.example.com/"))
	assert.Empty(t, mcPanic.Run(context.Background()))

	mcOK := NewMultiCrawler(cfg, okFetcher, robots, NopReporterFactory{}, testLogger())
	mcOK.AddSeed(mustParse(t, "https://a.example.com/"))
	assert.Len(t, mcOK.Run(context.Background()), 1)
}

func TestRun_GlobalFetchCapSerializesFetches(t *testing.T) {
	sf := &stubFetcher{pages: map[string]*fetch.PageResult{
		"https://a.example.com/": page(t, "https://a.example.com/", "A"),
		"https://b.example.com/": page(t, "https://b.example.com/", "B"),
	}}

	cfg := config.Default()
	cfg.MaxConcurrentRequests = 1

	mc := NewMultiCrawler(cfg, sf, &stubRobots{policy: allowAll()}, NopReporterFactory{}, testLogger())
	mc.AddSeed(mustParse(t, "https://a.example.com/"))
	mc.AddSeed(mustParse(t, "https://b.example.com/"))

	summaries := mc.Run(context.Background())
	assert.Len(t, summaries, 2)
}

func TestRun_NoSeeds(t *testing.T) {
	mc := NewMultiCrawler(config.Default(), &stubFetcher{}, &stubRobots{policy: allowAll()}, NopReporterFactory{}, testLogger())
	assert.Empty(t, mc.Run(context.Background()))
}

func TestRun_RecordsErrorStatusesAcrossSeeds(t *testing.T) {
	sf := &stubFetcher{pages: map[string]*fetch.PageResult{
		"https://a.example.com/": page(t, "https://a.example.com/", "A", "https://a.example.com/gone"),
	}}

	mc := NewMultiCrawler(config.Default(), sf, &stubRobots{policy: allowAll()}, NopReporterFactory{}, testLogger())
	mc.AddSeed(mustParse(t, "https://a.example.com/"))

	summaries := mc.Run(context.Background())
	require.Len(t, summaries, 1)
	require.Len(t, summaries[0].Pages, 2)

	var gone bool
	for _, p := range summaries[0].Pages {
		if p.URL.String() == "https://a.example.com/gone" {
			gone = true
			assert.Equal(t, http.StatusNotFound, p.StatusCode)
		}
	}
	assert.True(t, gone, "missing page should appear in summary with its status")
}
