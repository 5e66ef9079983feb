package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	assert.Equal(t, DefaultUserAgent, cfg.UserAgent)
	assert.Equal(t, DefaultEventBufferSize, cfg.EventBufferSize)
	assert.Equal(t, 30*time.Second, cfg.HTTPClientSettings.Timeout)
}

func TestLoad_OverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
user_agent: custom-agent
max_concurrent_requests: 8
event_buffer_size: 50
http_client_settings:
  timeout: 10s
`), 0o644))

	cfg := Default()
	require.NoError(t, Load(path, cfg))

	assert.Equal(t, "custom-agent", cfg.UserAgent)
	assert.Equal(t, 8, cfg.MaxConcurrentRequests)
	assert.Equal(t, 50, cfg.EventBufferSize)
	assert.Equal(t, 10*time.Second, cfg.HTTPClientSettings.Timeout)
	// Fields absent from the file keep their defaults.
	assert.Equal(t, 100, cfg.HTTPClientSettings.MaxIdleConns)
}

func TestLoad_MissingFile(t *testing.T) {
	cfg := Default()
	assert.Error(t, Load(filepath.Join(t.TempDir(), "nope.yaml"), cfg))
}

func TestLoad_MalformedYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("user_agent: [unclosed"), 0o644))
	assert.Error(t, Load(path, Default()))
}

func TestValidate(t *testing.T) {
	t.Run("defaults are valid", func(t *testing.T) {
		warnings, err := Default().Validate()
		require.NoError(t, err)
		// Unthrottled default draws a warning.
		assert.NotEmpty(t, warnings)
	})

	t.Run("empty user agent", func(t *testing.T) {
		cfg := Default()
		cfg.UserAgent = ""
		_, err := cfg.Validate()
		assert.Error(t, err)
	})

	t.Run("negative rate", func(t *testing.T) {
		cfg := Default()
		cfg.RequestsPerSecond = -1
		_, err := cfg.Validate()
		assert.Error(t, err)
	})

	t.Run("zero event buffer", func(t *testing.T) {
		cfg := Default()
		cfg.EventBufferSize = 0
		_, err := cfg.Validate()
		assert.Error(t, err)
	})

	t.Run("throttled config has no rate warning", func(t *testing.T) {
		cfg := Default()
		cfg.RequestsPerSecond = 2
		warnings, err := cfg.Validate()
		require.NoError(t, err)
		assert.Empty(t, warnings)
	})
}

func TestCrawlDelay(t *testing.T) {
	cases := []struct {
		rps  float64
		want time.Duration
	}{
		{0, 0},
		{1, time.Second},
		{2, 500 * time.Millisecond},
		{4, 250 * time.Millisecond},
		{0.5, 2 * time.Second},
	}

	for _, tc := range cases {
		cfg := Default()
		cfg.RequestsPerSecond = tc.rps
		assert.Equal(t, tc.want, cfg.CrawlDelay(), "rps=%g", tc.rps)
	}
}
