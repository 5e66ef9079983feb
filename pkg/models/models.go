package models

import "net/url"

// CrawlerState describes what a seed crawler is currently doing.
type CrawlerState int

const (
	StateIdle CrawlerState = iota
	StateCrawling
	StatePaused
	StateTerminated
)

// String returns the display label for the state.
func (s CrawlerState) String() string {
	switch s {
	case StateIdle:
		return "Idle"
	case StateCrawling:
		return "Crawling"
	case StatePaused:
		return "Paused"
	case StateTerminated:
		return "Terminated"
	default:
		return "Unknown"
	}
}

// PageSummary records the outcome of visiting a single page.
// Immutable once created; appended to the owning seed's CrawlSummary.
type PageSummary struct {
	URL              *url.URL
	StatusCode       int
	ContentType      string
	Title            string
	NumOutgoingLinks int
}

// StatusOnlySummary builds a PageSummary for a page that yielded nothing but
// an HTTP status (robots denial, 404, other non-2xx).
func StatusOnlySummary(u *url.URL, statusCode int) PageSummary {
	return PageSummary{
		URL:        u,
		StatusCode: statusCode,
	}
}

// CrawlSummary is the ordered, append-only record of pages visited for one seed.
type CrawlSummary struct {
	Seed  *url.URL
	Pages []PageSummary
}

// Add appends a page summary in visit order.
func (cs *CrawlSummary) Add(p PageSummary) {
	cs.Pages = append(cs.Pages, p)
}
