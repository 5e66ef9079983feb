package fetch

import (
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/sirupsen/logrus"
)

// maxPageSizeBytes caps how much of a response body is read before parsing.
const maxPageSizeBytes = 10 << 20

// PageResult holds everything extracted from one successfully fetched page.
type PageResult struct {
	URL           *url.URL
	StatusCode    int
	ContentType   string
	Title         string
	InternalLinks []*url.URL // same host as the page
	ExternalLinks []*url.URL // everything else
}

// PageFetcher fetches one URL and parses the page. A non-2xx response
// surfaces as *StatusError; any other failure (transport, MIME, non-HTML
// content, parse) surfaces as an ordinary error.
type PageFetcher interface {
	Fetch(ctx context.Context, pageURL *url.URL) (*PageResult, error)
}

// HTTPPageFetcher is the live PageFetcher: a single GET per call, HTML parsed
// with goquery, links classified as internal or external by hostname.
type HTTPPageFetcher struct {
	client    *http.Client
	userAgent string
	log       *logrus.Entry
}

// NewHTTPPageFetcher creates a page fetcher using the shared HTTP client.
func NewHTTPPageFetcher(client *http.Client, userAgent string, log *logrus.Entry) *HTTPPageFetcher {
	return &HTTPPageFetcher{
		client:    client,
		userAgent: userAgent,
		log:       log,
	}
}

// Fetch performs one round trip for pageURL.
func (pf *HTTPPageFetcher) Fetch(ctx context.Context, pageURL *url.URL) (*PageResult, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrRequestCreation, pageURL, err)
	}
	req.Header.Set("User-Agent", pf.userAgent)

	resp, err := pf.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", pageURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		io.Copy(io.Discard, resp.Body)
		return nil, &StatusError{Code: resp.StatusCode}
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "unknown"
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return nil, fmt.Errorf("%w: content type %q: %w", ErrParsing, contentType, err)
	}
	if mediaType != "text/html" {
		pf.log.WithFields(logrus.Fields{"url": pageURL.String(), "content_type": mediaType}).Debug("Skipping non-HTML content type")
		return nil, fmt.Errorf("%w: %s", ErrNotHTML, mediaType)
	}

	doc, err := goquery.NewDocumentFromReader(io.LimitReader(resp.Body, maxPageSizeBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: HTML from %s: %w", ErrParsing, pageURL, err)
	}

	title := strings.TrimSpace(doc.Find("title").First().Text())
	if title == "" {
		title = "No title"
	}

	internal, external := extractLinks(doc, pageURL)

	return &PageResult{
		URL:           pageURL,
		StatusCode:    resp.StatusCode,
		ContentType:   contentType,
		Title:         title,
		InternalLinks: internal,
		ExternalLinks: external,
	}, nil
}

// extractLinks collects deduplicated a[href] targets, resolved against the
// page URL, and splits them into same-host and external links. Fragment-only,
// mailto:, javascript:, and tel: links are ignored.
func extractLinks(doc *goquery.Document, pageURL *url.URL) (internal, external []*url.URL) {
	seen := make(map[string]bool)

	doc.Find("a[href]").Each(func(_ int, sel *goquery.Selection) {
		href, _ := sel.Attr("href")
		href = strings.TrimSpace(href)
		if href == "" ||
			strings.HasPrefix(href, "#") ||
			strings.HasPrefix(href, "mailto:") ||
			strings.HasPrefix(href, "javascript:") ||
			strings.HasPrefix(href, "tel:") {
			return
		}

		ref, err := url.Parse(href)
		if err != nil {
			return
		}
		resolved := pageURL.ResolveReference(ref)
		if resolved.Hostname() == "" {
			return
		}
		if seen[resolved.String()] {
			return
		}
		seen[resolved.String()] = true

		if resolved.Hostname() == pageURL.Hostname() {
			internal = append(internal, resolved)
		} else {
			external = append(external, resolved)
		}
	})

	return internal, external
}
