package crawler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/semaphore"

	"github.com/spaceshaker/rusty-spider/pkg/config"
	"github.com/spaceshaker/rusty-spider/pkg/fetch"
	"github.com/spaceshaker/rusty-spider/pkg/frontier"
	"github.com/spaceshaker/rusty-spider/pkg/models"
	"github.com/spaceshaker/rusty-spider/pkg/progress"
)

// failurePolicy classifies a fetch failure for the crawl loop.
type failurePolicy int

const (
	// failureRecoverable records the page's HTTP status and continues.
	failureRecoverable failurePolicy = iota
	// failureFatalToSeed aborts the whole seed crawl.
	failureFatalToSeed
)

// classifyFetchFailure maps a fetch error to the crawl loop's reaction. Only
// non-2xx responses are recoverable; transport, MIME, and parse failures end
// the seed.
func classifyFetchFailure(err error) failurePolicy {
	var statusErr *fetch.StatusError
	if errors.As(err, &statusErr) {
		return failureRecoverable
	}
	return failureFatalToSeed
}

// SeedCrawler walks one seed's site breadth-agnostically: discovered internal
// links feed back into the frontier, external links only count toward the
// page's outgoing total. The crawler owns its frontier; concurrency exists
// only between SeedCrawlers, never inside one.
type SeedCrawler struct {
	seed     *url.URL
	cfg      *config.Config
	fetcher  fetch.PageFetcher
	robots   fetch.RobotsLoader
	reporter progress.Reporter
	fetchSem *semaphore.Weighted // nil when no global fetch cap is set
	log      *logrus.Entry
}

// NewSeedCrawler creates a crawler for one seed. The reporter and log entry
// identify the crawler; fetchSem may be nil.
func NewSeedCrawler(seed *url.URL, cfg *config.Config, fetcher fetch.PageFetcher, robots fetch.RobotsLoader, reporter progress.Reporter, fetchSem *semaphore.Weighted, log *logrus.Entry) *SeedCrawler {
	return &SeedCrawler{
		seed:     seed,
		cfg:      cfg,
		fetcher:  fetcher,
		robots:   robots,
		reporter: reporter,
		fetchSem: fetchSem,
		log:      log,
	}
}

// Crawl runs the seed to completion or cancellation and returns the summary
// of every page visited. An error means the seed failed outright; whatever
// was crawled before the failure is discarded by the caller.
//
// Pacing happens after every dequeued URL, including robots-denied ones, so
// consecutive requests to the host are at least CrawlDelay apart.
func (sc *SeedCrawler) Crawl(ctx context.Context) (*models.CrawlSummary, error) {
	sc.reporter.Begin()

	policy, err := sc.robots.Load(ctx, sc.seed, sc.cfg.UserAgent)
	if err != nil {
		return nil, fmt.Errorf("loading robots.txt for %s: %w", sc.seed.Host, err)
	}

	delay := sc.cfg.CrawlDelay()
	summary := &models.CrawlSummary{Seed: sc.seed}

	f := frontier.New()
	f.Enqueue(sc.seed)

	sc.reporter.StateChanged(models.StateCrawling)

	for ctx.Err() == nil && !f.IsEmpty() {
		pending, visited := f.Counts()
		sc.reporter.Update(pending, visited)

		if err := sc.crawlNext(ctx, f, policy, summary); err != nil {
			return nil, err
		}

		if delay > 0 && !f.IsEmpty() && ctx.Err() == nil {
			sc.reporter.StateChanged(models.StatePaused)
			select {
			case <-time.After(delay):
			case <-ctx.Done():
			}
			sc.reporter.StateChanged(models.StateCrawling)
		}
	}

	sc.reporter.End()
	sc.log.WithField("pages", len(summary.Pages)).Debug("Seed crawl complete")
	return summary, nil
}

// crawlNext dequeues one URL, checks it against the robots policy, fetches
// it, and records the outcome. A recoverable failure still produces a
// summary entry; a fatal one is returned.
func (sc *SeedCrawler) crawlNext(ctx context.Context, f *frontier.Frontier, policy fetch.RobotsPolicy, summary *models.CrawlSummary) error {
	next, ok := f.Dequeue()
	if !ok {
		return nil
	}
	f.MarkVisited(next)

	path := next.Path
	if path == "" {
		path = "/"
	}
	if !policy.Allows(path) {
		sc.log.WithField("url", next.String()).Debug("Denied by robots.txt")
		summary.Add(models.StatusOnlySummary(next, http.StatusForbidden))
		return nil
	}

	sc.reporter.Message(fmt.Sprintf("Crawling %s", next))

	page, err := sc.fetchPage(ctx, next)
	if err != nil {
		if classifyFetchFailure(err) == failureRecoverable {
			var statusErr *fetch.StatusError
			errors.As(err, &statusErr)
			sc.log.WithFields(logrus.Fields{"url": next.String(), "status": statusErr.Code}).Debug("Page returned error status")
			summary.Add(models.StatusOnlySummary(next, statusErr.Code))
			return nil
		}
		return fmt.Errorf("crawling %s: %w", next, err)
	}

	f.EnqueueAll(page.InternalLinks)

	// Internal links feed the frontier; only links leaving the site count as
	// outgoing.
	summary.Add(models.PageSummary{
		URL:              page.URL,
		StatusCode:       page.StatusCode,
		ContentType:      page.ContentType,
		Title:            page.Title,
		NumOutgoingLinks: len(page.ExternalLinks),
	})
	return nil
}

// fetchPage wraps the fetch in the global in-flight cap when one is
// configured.
func (sc *SeedCrawler) fetchPage(ctx context.Context, pageURL *url.URL) (*fetch.PageResult, error) {
	if sc.fetchSem != nil {
		if err := sc.fetchSem.Acquire(ctx, 1); err != nil {
			return nil, err
		}
		defer sc.fetchSem.Release(1)
	}
	return sc.fetcher.Fetch(ctx, pageURL)
}
