package testsupport

import (
	"os"
	"path/filepath"
	"testing"

	"arheritage/internal/config"
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
	cfgVal.Gemini.APIKey = "test"
	cfgVal.Paths.DataDir = filepath.Join(base, "data")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Paths.MediaDir = filepath.Join(base, "media")
	cfgVal.Paths.APIBind = "127.0.0.1:0"
	cfgVal.Camera.Device = ""
	cfgVal.Camera.WatchHotplug = false
	cfgVal.Speech.Enabled = false
	cfgVal.Session.Secret = "test-secret"

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

// WithGeminiEndpoint points the gateway at a test server.
func WithGeminiEndpoint(baseURL, key string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Gemini.BaseURL = baseURL
		b.cfg.Gemini.APIKey = key
	}
}

// WithCameraDevice overrides the capture device path on the test config.
func WithCameraDevice(path string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Camera.Device = path
	}
}

// WithFixedLocation enables the configured position.
func WithFixedLocation(lat, lon float64) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Location.Enabled = true
		b.cfg.Location.Latitude = lat
		b.cfg.Location.Longitude = lon
	}
}

// WithStubbedBinaries writes stub executables for the provided names and
// prepends them to PATH. If names is empty, ffmpeg and espeak-ng are stubbed.
func WithStubbedBinaries(names ...string) ConfigOption {
	return func(b *configBuilder) {
		if len(names) == 0 {
			names = []string{"ffmpeg", "espeak-ng"}
		}
		binDir := filepath.Join(b.baseDir, "bin")
		if err := os.MkdirAll(binDir, 0o755); err != nil {
			b.t.Fatalf("mkdir bin dir: %v", err)
		}
		script := []byte("#!/bin/sh\nexit 0\n")
		for _, name := range names {
			target := filepath.Join(binDir, name)
			if err := os.WriteFile(target, script, 0o755); err != nil {
				b.t.Fatalf("write stub %s: %v", name, err)
			}
		}

		oldPath := os.Getenv("PATH")
		if err := os.Setenv("PATH", binDir+string(os.PathListSeparator)+oldPath); err != nil {
			b.t.Fatalf("set PATH: %v", err)
		}
		b.t.Cleanup(func() {
			_ = os.Setenv("PATH", oldPath)
		})
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.DataDir)
}
