package frontier

import "net/url"

// Frontier tracks, for a single seed, the URLs discovered but not yet fetched
// (pending) and the URLs already fetched (visited). Deduplication is keyed on
// the normalized form of each URL, so two URLs differing only in fragment or
// query are the same frontier entry.
//
// A Frontier is exclusively owned by one seed crawler and is not safe for
// concurrent use.
type Frontier struct {
	pending map[string]*url.URL
	visited map[string]struct{}
}

// New creates an empty Frontier.
func New() *Frontier {
	return &Frontier{
		pending: make(map[string]*url.URL),
		visited: make(map[string]struct{}),
	}
}

// Normalize returns a copy of u with its fragment and query stripped. This is
// the dedup key everywhere; no further canonicalization is applied.
func Normalize(u *url.URL) *url.URL {
	stripped := *u
	stripped.Fragment = ""
	stripped.RawFragment = ""
	stripped.RawQuery = ""
	return &stripped
}

// Enqueue normalizes u and inserts it into pending unless a normalized-equal
// URL was already visited.
func (f *Frontier) Enqueue(u *url.URL) {
	stripped := Normalize(u)
	key := stripped.String()
	if _, seen := f.visited[key]; seen {
		return
	}
	f.pending[key] = stripped
}

// EnqueueAll enqueues each URL; order is irrelevant.
func (f *Frontier) EnqueueAll(urls []*url.URL) {
	for _, u := range urls {
		f.Enqueue(u)
	}
}

// Dequeue removes and returns an arbitrary pending URL. Marking it visited is
// the caller's responsibility. The second result is false when pending is
// empty.
func (f *Frontier) Dequeue() (*url.URL, bool) {
	for key, u := range f.pending {
		delete(f.pending, key)
		return u, true
	}
	return nil, false
}

// MarkVisited normalizes u, removes it from pending if present, and records
// it as visited so it can never be re-enqueued.
func (f *Frontier) MarkVisited(u *url.URL) {
	key := Normalize(u).String()
	delete(f.pending, key)
	f.visited[key] = struct{}{}
}

// IsEmpty reports whether no URLs remain to fetch.
func (f *Frontier) IsEmpty() bool {
	return len(f.pending) == 0
}

// Counts returns the number of pending and visited URLs.
func (f *Frontier) Counts() (pending, visited int) {
	return len(f.pending), len(f.visited)
}
