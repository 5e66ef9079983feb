package progress

import (
	"net/url"

	"github.com/spaceshaker/rusty-spider/pkg/models"
)

// EventKind discriminates the progress event variants a seed crawler emits.
type EventKind int

const (
	// EventBegin announces that a crawler has started on its seed.
	EventBegin EventKind = iota
	// EventUpdate refreshes a crawler's pending and visited counts.
	EventUpdate
	// EventMessage carries a short human-readable status line.
	EventMessage
	// EventStateChanged reports a crawler state transition.
	EventStateChanged
	// EventEnd announces that a crawler finished its seed normally.
	EventEnd
)

func (k EventKind) String() string {
	switch k {
	case EventBegin:
		return "begin"
	case EventUpdate:
		return "update"
	case EventMessage:
		return "message"
	case EventStateChanged:
		return "state_changed"
	case EventEnd:
		return "end"
	default:
		return "unknown"
	}
}

// Event is one progress notification from a seed crawler. CrawlerIndex
// identifies the emitting crawler; the remaining fields are populated per
// Kind: URL on Begin, PendingCount/VisitedCount on Update, Message on
// Message, State on StateChanged.
type Event struct {
	Kind         EventKind
	CrawlerIndex int
	URL          *url.URL
	PendingCount int
	VisitedCount int
	Message      string
	State        models.CrawlerState
}
