package crawler

import (
	"context"
	"net/url"
	"runtime/debug"
	"sync"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/semaphore"

	"github.com/spaceshaker/rusty-spider/pkg/config"
	"github.com/spaceshaker/rusty-spider/pkg/fetch"
	"github.com/spaceshaker/rusty-spider/pkg/models"
	"github.com/spaceshaker/rusty-spider/pkg/progress"
)

// ReporterFactory hands each seed crawler its progress reporter.
type ReporterFactory interface {
	ReporterFor(index int, seed *url.URL) progress.Reporter
}

// NopReporterFactory gives every crawler a reporter that discards events.
type NopReporterFactory struct{}

func (NopReporterFactory) ReporterFor(int, *url.URL) progress.Reporter {
	return progress.NopReporter{}
}

// MultiCrawler runs one SeedCrawler goroutine per seed and collects the
// summaries of the seeds that finished. A seed that fails or panics is
// logged and contributes no summary; the other seeds are unaffected.
type MultiCrawler struct {
	cfg       *config.Config
	fetcher   fetch.PageFetcher
	robots    fetch.RobotsLoader
	reporters ReporterFactory
	fetchSem  *semaphore.Weighted
	log       *logrus.Entry
	seeds     []*url.URL
}

// NewMultiCrawler creates the scheduler. When cfg.MaxConcurrentRequests is
// positive, a weighted semaphore bounds in-flight fetches across all seeds.
func NewMultiCrawler(cfg *config.Config, fetcher fetch.PageFetcher, robots fetch.RobotsLoader, reporters ReporterFactory, log *logrus.Entry) *MultiCrawler {
	var sem *semaphore.Weighted
	if cfg.MaxConcurrentRequests > 0 {
		sem = semaphore.NewWeighted(int64(cfg.MaxConcurrentRequests))
	}
	return &MultiCrawler{
		cfg:       cfg,
		fetcher:   fetcher,
		robots:    robots,
		reporters: reporters,
		fetchSem:  sem,
		log:       log,
	}
}

// AddSeed registers another seed to crawl. Not safe to call once Run has
// started.
func (mc *MultiCrawler) AddSeed(seed *url.URL) {
	mc.seeds = append(mc.seeds, seed)
}

// Run crawls every registered seed concurrently and blocks until all of them
// have finished or ctx is cancelled. Summaries are returned in seed order;
// failed seeds are simply absent.
func (mc *MultiCrawler) Run(ctx context.Context) []*models.CrawlSummary {
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		summaries = make([]*models.CrawlSummary, len(mc.seeds))
	)

	for i, seed := range mc.seeds {
		wg.Add(1)
		go func(index int, seed *url.URL) {
			defer wg.Done()

			seedLog := mc.log.WithFields(logrus.Fields{
				"crawler_index": index,
				"seed":          seed.String(),
			})

			defer func() {
				if r := recover(); r != nil {
					seedLog.WithFields(logrus.Fields{
						"panic": r,
						"stack": string(debug.Stack()),
					}).Error("Seed crawler panicked")
				}
			}()

			sc := NewSeedCrawler(seed, mc.cfg, mc.fetcher, mc.robots, mc.reporters.ReporterFor(index, seed), mc.fetchSem, seedLog)

			summary, err := sc.Crawl(ctx)
			if err != nil {
				seedLog.WithError(err).Error("Seed crawl failed")
				return
			}

			mu.Lock()
			summaries[index] = summary
			mu.Unlock()
		}(i, seed)
	}

	wg.Wait()

	results := make([]*models.CrawlSummary, 0, len(summaries))
	for _, s := range summaries {
		if s != nil {
			results = append(results, s)
		}
	}
	return results
}
