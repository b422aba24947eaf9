package testsupport

import (
	"path/filepath"
	"testing"

	"reelgate/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*config.Config)

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.TMDB.APIKey = "test"
	cfg.Paths.DataDir = filepath.Join(base, "data")
	cfg.Paths.CatalogDB = filepath.Join(base, "catalog.db")
	cfg.Paths.APIBind = "127.0.0.1:0"

	for _, opt := range opts {
		opt(&cfg)
	}

	return &cfg
}

// WithMaxPending overrides the per-requester pending quota.
func WithMaxPending(quota int) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Requests.MaxPending = quota
	}
}

// WithThreshold overrides the availability match threshold.
func WithThreshold(threshold float64) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Matching.Threshold = threshold
	}
}

// WithAPIToken enables bearer-token auth on the test API.
func WithAPIToken(token string) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Paths.APIToken = token
	}
}

// WithWatchDir points ingest at a watch directory.
func WithWatchDir(dir string) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Ingest.WatchDir = dir
	}
}
