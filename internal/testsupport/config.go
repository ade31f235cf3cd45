package testsupport

import (
	"path/filepath"
	"testing"

	"mediasort/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.DataDir = filepath.Join(base, "data")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Scan.MinFileSize = 0
	cfgVal.Scan.IncludeOther = true

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	return builder.cfg
}

// WithMinFileSize sets the scan size floor on the test config.
func WithMinFileSize(size int64) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Scan.MinFileSize = size
	}
}

// WithClasses sets the media class filters on the test config.
func WithClasses(photos, videos, raw, other bool) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Scan.IncludePhotos = photos
		b.cfg.Scan.IncludeVideos = videos
		b.cfg.Scan.IncludeRAW = raw
		b.cfg.Scan.IncludeOther = other
	}
}

// WithRetries overrides the execute retry count on the test config.
func WithRetries(retries int) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Execute.Retries = retries
	}
}
