package testsupport

import (
	"path/filepath"
	"testing"

	"facet/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*config.Config)

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.DataDir = filepath.Join(base, "data")
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	cfg.Paths.ImageDir = filepath.Join(base, "images")
	cfg.Paths.APIBind = "127.0.0.1:0"
	cfg.Camera.Enabled = false

	for _, opt := range opts {
		opt(&cfg)
	}

	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("ensure directories: %v", err)
	}
	return &cfg
}

// WithToken sets the API bearer token on the test config.
func WithToken(token string) ConfigOption {
	return func(c *config.Config) {
		c.Paths.APIToken = token
	}
}

// WithDetectorURL points the config at a test detector service.
func WithDetectorURL(url string) ConfigOption {
	return func(c *config.Config) {
		c.Detector.BaseURL = url
	}
}
