package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	// DefaultUserAgent is the agent identity used for page fetches and
	// robots.txt rule selection.
	DefaultUserAgent = "rusty-spider"

	// DefaultEventBufferSize is the capacity of the progress event channel.
	// Producers block when the console consumer falls this far behind.
	DefaultEventBufferSize = 100
)

// Config holds the settings for a crawl run. The crawl-shaping fields
// (MaxPages, MaxDepth, RequestsPerSecond) come from CLI flags; the remaining
// fields can be supplied via an optional YAML config file.
type Config struct {
	// UserAgent identifies the crawler to servers and in robots.txt checks.
	UserAgent string `yaml:"user_agent,omitempty"`

	// MaxPages and MaxDepth are accepted on the CLI surface but not yet
	// consulted by the crawl loop's termination condition.
	// TODO: enforce MaxPages and MaxDepth in the seed crawl loop.
	MaxPages int `yaml:"-"`
	MaxDepth int `yaml:"-"`

	// RequestsPerSecond caps each seed's request rate. Zero means
	// unthrottled. Every seed gets its own independent allowance.
	RequestsPerSecond float64 `yaml:"-"`

	// MaxConcurrentRequests bounds in-flight page fetches across all seed
	// crawlers combined. Zero means no global cap.
	MaxConcurrentRequests int `yaml:"max_concurrent_requests,omitempty"`

	// EventBufferSize is the progress event channel capacity.
	EventBufferSize int `yaml:"event_buffer_size,omitempty"`

	HTTPClientSettings HTTPClientConfig `yaml:"http_client_settings,omitempty"`
}

// HTTPClientConfig holds settings for the shared HTTP client.
type HTTPClientConfig struct {
	Timeout             time.Duration `yaml:"timeout,omitempty"`                 // Overall request timeout
	MaxIdleConns        int           `yaml:"max_idle_conns,omitempty"`          // Max total idle connections
	MaxIdleConnsPerHost int           `yaml:"max_idle_conns_per_host,omitempty"` // Max idle connections per host
	IdleConnTimeout     time.Duration `yaml:"idle_conn_timeout,omitempty"`       // Timeout for idle connections
	TLSHandshakeTimeout time.Duration `yaml:"tls_handshake_timeout,omitempty"`   // Timeout for TLS handshake
	DialerTimeout       time.Duration `yaml:"dialer_timeout,omitempty"`          // Connection dial timeout
	DialerKeepAlive     time.Duration `yaml:"dialer_keep_alive,omitempty"`       // TCP keep-alive interval
}

// Default returns a Config with baseline settings applied.
func Default() *Config {
	return &Config{
		UserAgent:       DefaultUserAgent,
		EventBufferSize: DefaultEventBufferSize,
		HTTPClientSettings: HTTPClientConfig{
			Timeout:             30 * time.Second,
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 10,
			IdleConnTimeout:     90 * time.Second,
			TLSHandshakeTimeout: 10 * time.Second,
			DialerTimeout:       15 * time.Second,
			DialerKeepAlive:     30 * time.Second,
		},
	}
}

// Load reads a YAML config file over the defaults in cfg.
func Load(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config: %w", err)
	}
	return nil
}

// Validate checks the configuration, returning non-fatal warnings and an
// error for settings the crawler cannot run with.
func (c *Config) Validate() ([]string, error) {
	var warnings []string

	if c.UserAgent == "" {
		return nil, fmt.Errorf("user_agent must not be empty")
	}
	if c.RequestsPerSecond < 0 {
		return nil, fmt.Errorf("rate must be >= 0, got %g", c.RequestsPerSecond)
	}
	if c.MaxPages < 0 {
		return nil, fmt.Errorf("max-pages must be >= 0, got %d", c.MaxPages)
	}
	if c.MaxDepth < 0 {
		return nil, fmt.Errorf("max-depth must be >= 0, got %d", c.MaxDepth)
	}
	if c.MaxConcurrentRequests < 0 {
		return nil, fmt.Errorf("max_concurrent_requests must be >= 0, got %d", c.MaxConcurrentRequests)
	}
	if c.EventBufferSize <= 0 {
		return nil, fmt.Errorf("event_buffer_size must be > 0, got %d", c.EventBufferSize)
	}

	if c.RequestsPerSecond == 0 {
		warnings = append(warnings, "no rate limit configured; crawling unthrottled")
	}
	if c.RequestsPerSecond > 1000 {
		warnings = append(warnings, fmt.Sprintf("rate %g rps yields a sub-millisecond delay; effectively unthrottled", c.RequestsPerSecond))
	}

	return warnings, nil
}

// CrawlDelay derives the fixed inter-request pause from RequestsPerSecond.
// Zero means no pacing.
func (c *Config) CrawlDelay() time.Duration {
	if c.RequestsPerSecond <= 0 {
		return 0
	}
	return time.Duration(1000.0/c.RequestsPerSecond) * time.Millisecond
}
