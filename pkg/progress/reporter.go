package progress

import (
	"net/url"

	"github.com/spaceshaker/rusty-spider/pkg/models"
)

// Reporter is the progress surface a seed crawler emits to. Implementations
// may block; crawlers call these inline so a slow consumer applies
// backpressure to the crawl.
type Reporter interface {
	Begin()
	Update(pendingCount, visitedCount int)
	Message(msg string)
	StateChanged(state models.CrawlerState)
	End()
}

// ChannelReporter forwards progress events for one crawler onto a shared
// event channel. Sends block when the channel buffer is full.
type ChannelReporter struct {
	index  int
	seed   *url.URL
	events chan<- Event
}

// NewChannelReporter creates a reporter for the crawler at index crawling
// seed.
func NewChannelReporter(index int, seed *url.URL, events chan<- Event) *ChannelReporter {
	return &ChannelReporter{index: index, seed: seed, events: events}
}

func (r *ChannelReporter) Begin() {
	r.events <- Event{Kind: EventBegin, CrawlerIndex: r.index, URL: r.seed}
}

func (r *ChannelReporter) Update(pendingCount, visitedCount int) {
	r.events <- Event{Kind: EventUpdate, CrawlerIndex: r.index, PendingCount: pendingCount, VisitedCount: visitedCount}
}

func (r *ChannelReporter) Message(msg string) {
	r.events <- Event{Kind: EventMessage, CrawlerIndex: r.index, Message: msg}
}

func (r *ChannelReporter) StateChanged(state models.CrawlerState) {
	r.events <- Event{Kind: EventStateChanged, CrawlerIndex: r.index, State: state}
}

func (r *ChannelReporter) End() {
	r.events <- Event{Kind: EventEnd, CrawlerIndex: r.index}
}

// NopReporter discards all progress events.
type NopReporter struct{}

func (NopReporter) Begin()                           {}
func (NopReporter) Update(int, int)                  {}
func (NopReporter) Message(string)                   {}
func (NopReporter) StateChanged(models.CrawlerState) {}
func (NopReporter) End()                             {}
