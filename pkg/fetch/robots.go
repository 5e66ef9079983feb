package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/sirupsen/logrus"
	"github.com/temoto/robotstxt"
)

// RobotsPolicy answers whether the crawler agent may fetch a path on the host
// the policy was compiled for.
type RobotsPolicy interface {
	Allows(path string) bool
}

// RobotsLoader fetches and compiles one host's robots policy for one agent.
type RobotsLoader interface {
	Load(ctx context.Context, site *url.URL, agent string) (RobotsPolicy, error)
}

// HTTPRobotsLoader loads robots.txt over HTTP. A missing robots.txt (404)
// yields an allow-all policy; any other failure is an error, which the crawl
// engine treats as fatal for the seed.
type HTTPRobotsLoader struct {
	client *http.Client
	log    *logrus.Entry
}

// NewHTTPRobotsLoader creates a robots loader using the shared HTTP client.
func NewHTTPRobotsLoader(client *http.Client, log *logrus.Entry) *HTTPRobotsLoader {
	return &HTTPRobotsLoader{client: client, log: log}
}

// Load retrieves <scheme>://<host>/robots.txt and selects the rule group for
// agent.
func (rl *HTTPRobotsLoader) Load(ctx context.Context, site *url.URL, agent string) (RobotsPolicy, error) {
	robotsURL := &url.URL{Scheme: site.Scheme, Host: site.Host, Path: "/robots.txt"}
	hostLog := rl.log.WithField("host", site.Host)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, robotsURL.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrRequestCreation, robotsURL, err)
	}
	req.Header.Set("User-Agent", agent)

	resp, err := rl.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrRobotsUnavailable, robotsURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		io.Copy(io.Discard, resp.Body)
		hostLog.Debug("No robots.txt found, allowing all paths")
		return allowAllPolicy{}, nil
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("%w: %s returned status %d", ErrRobotsUnavailable, robotsURL, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrResponseBodyRead, robotsURL, err)
	}

	data, err := robotstxt.FromBytes(body)
	if err != nil {
		return nil, fmt.Errorf("%w: robots.txt from %s: %w", ErrParsing, robotsURL, err)
	}

	hostLog.Debug("Fetched and parsed robots.txt")
	return &robotsPolicy{group: data.FindGroup(agent)}, nil
}

// robotsPolicy wraps the rule group selected for the crawler agent.
type robotsPolicy struct {
	group *robotstxt.Group
}

func (p *robotsPolicy) Allows(path string) bool {
	return p.group.Test(path)
}

// allowAllPolicy is the policy for hosts without a robots.txt.
type allowAllPolicy struct{}

func (allowAllPolicy) Allows(string) bool { return true }
