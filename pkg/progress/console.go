package progress

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/url"
	"sort"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/spaceshaker/rusty-spider/pkg/models"
)

// Terminal control sequences used for the live progress table.
const (
	ansiEnterAltScreen = "\x1b[?1049h"
	ansiLeaveAltScreen = "\x1b[?1049l"
	ansiHideCursor     = "\x1b[?25l"
	ansiShowCursor     = "\x1b[?25h"
	ansiClearScreen    = "\x1b[2J"
	ansiCursorHome     = "\x1b[H"
	ansiClearBelow     = "\x1b[J"
)

// crawlerInfo is the console's view of one active crawler.
type crawlerInfo struct {
	url          *url.URL
	state        models.CrawlerState
	pendingCount int
	visitedCount int
	message      string
}

// ConsoleReporter consumes progress events from every crawler and renders
// them. On a terminal it draws a live table on the alternate screen, one
// block per active crawler, redrawn after every event. On a plain stream it
// emits a log line per event instead.
//
// Crawlers obtain their Reporter from ReporterFor; all reporters feed one
// buffered channel that Run drains.
type ConsoleReporter struct {
	events chan Event
	out    io.Writer
	tty    bool
	log    *logrus.Entry

	mu       sync.Mutex
	crawlers map[int]*crawlerInfo

	closeOnce sync.Once
	done      chan struct{}
}

// NewConsoleReporter creates a console consumer writing to out. bufferSize
// sets the event channel capacity; tty selects the live table rendering.
func NewConsoleReporter(out io.Writer, bufferSize int, tty bool, log *logrus.Entry) *ConsoleReporter {
	return &ConsoleReporter{
		events:   make(chan Event, bufferSize),
		out:      out,
		tty:      tty,
		log:      log,
		crawlers: make(map[int]*crawlerInfo),
		done:     make(chan struct{}),
	}
}

// ReporterFor returns the per-crawler reporter feeding this console.
func (c *ConsoleReporter) ReporterFor(index int, seed *url.URL) Reporter {
	return NewChannelReporter(index, seed, c.events)
}

// Close signals that no more events will be sent. Call only after every
// crawler goroutine has returned.
func (c *ConsoleReporter) Close() {
	c.closeOnce.Do(func() { close(c.events) })
}

// Wait blocks until Run has finished consuming events.
func (c *ConsoleReporter) Wait() {
	<-c.done
}

// Run consumes events until the channel is closed. On ctx cancellation it
// tears down the terminal immediately and keeps draining silently so that
// blocked producers can finish. Run is meant to be called once, in its own
// goroutine.
func (c *ConsoleReporter) Run(ctx context.Context) {
	defer close(c.done)

	teardown := func() {
		if c.tty {
			fmt.Fprint(c.out, ansiShowCursor+ansiLeaveAltScreen)
			c.tty = false
		}
	}
	if c.tty {
		fmt.Fprint(c.out, ansiEnterAltScreen+ansiHideCursor+ansiClearScreen)
		defer teardown()
	}

	for {
		select {
		case <-ctx.Done():
			teardown()
			for range c.events {
			}
			return
		case ev, ok := <-c.events:
			if !ok {
				return
			}
			c.apply(ev)
			c.render(ev)
		}
	}
}

// apply folds one event into the crawler table. Begin inserts the crawler in
// the Paused state; End removes it.
func (c *ConsoleReporter) apply(ev Event) {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch ev.Kind {
	case EventBegin:
		c.crawlers[ev.CrawlerIndex] = &crawlerInfo{url: ev.URL, state: models.StatePaused}
	case EventEnd:
		delete(c.crawlers, ev.CrawlerIndex)
	default:
		info, ok := c.crawlers[ev.CrawlerIndex]
		if !ok {
			return
		}
		switch ev.Kind {
		case EventUpdate:
			info.pendingCount = ev.PendingCount
			info.visitedCount = ev.VisitedCount
		case EventMessage:
			info.message = ev.Message
		case EventStateChanged:
			info.state = ev.State
		}
	}
}

func (c *ConsoleReporter) render(ev Event) {
	if c.tty {
		c.redraw()
		return
	}
	c.logEvent(ev)
}

// redraw repaints the whole table in a single write so a frame is never
// interleaved with partial output.
func (c *ConsoleReporter) redraw() {
	c.mu.Lock()
	indices := make([]int, 0, len(c.crawlers))
	for idx := range c.crawlers {
		indices = append(indices, idx)
	}
	sort.Ints(indices)

	var buf bytes.Buffer
	buf.WriteString(ansiCursorHome)
	for _, idx := range indices {
		info := c.crawlers[idx]
		fmt.Fprintf(&buf, "Crawling: %s (%s)\r\n", info.url, info.state)
		fmt.Fprintf(&buf, "   # URLs Remaining: %d, # URLS Crawled: %d", info.pendingCount, info.visitedCount)
		if info.message != "" {
			fmt.Fprintf(&buf, ", Message: %s", info.message)
		}
		buf.WriteString("\r\n")
	}
	buf.WriteString(ansiClearBelow)
	c.mu.Unlock()

	c.out.Write(buf.Bytes())
}

// logEvent is the non-TTY rendering: one log line per event.
func (c *ConsoleReporter) logEvent(ev Event) {
	crawlerLog := c.log.WithField("crawler", ev.CrawlerIndex)
	switch ev.Kind {
	case EventBegin:
		crawlerLog.WithField("seed", ev.URL.String()).Info("Crawl started")
	case EventUpdate:
		crawlerLog.WithFields(logrus.Fields{
			"remaining": ev.PendingCount,
			"crawled":   ev.VisitedCount,
		}).Info("Progress")
	case EventMessage:
		crawlerLog.Info(ev.Message)
	case EventStateChanged:
		crawlerLog.WithField("state", ev.State.String()).Info("State changed")
	case EventEnd:
		crawlerLog.Info("Crawl finished")
	}
}

// Snapshot returns the current table rows keyed by crawler index. Intended
// for tests.
func (c *ConsoleReporter) Snapshot() map[int]CrawlerStatus {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make(map[int]CrawlerStatus, len(c.crawlers))
	for idx, info := range c.crawlers {
		out[idx] = CrawlerStatus{
			URL:          info.url,
			State:        info.state,
			PendingCount: info.pendingCount,
			VisitedCount: info.visitedCount,
			Message:      info.message,
		}
	}
	return out
}

// CrawlerStatus is an exported copy of one table row.
type CrawlerStatus struct {
	URL          *url.URL
	State        models.CrawlerState
	PendingCount int
	VisitedCount int
	Message      string
}
