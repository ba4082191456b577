package preflight

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"arheritage/internal/config"
)

func TestCheckDirectoryAccess_OK(t *testing.T) {
	dir := t.TempDir()
	result := CheckDirectoryAccess("test", dir)
	if !result.Passed {
		t.Fatalf("expected pass for temp dir, got: %s", result.Detail)
	}
}

func TestCheckDirectoryAccess_NotExist(t *testing.T) {
	result := CheckDirectoryAccess("test", filepath.Join(t.TempDir(), "nope"))
	if result.Passed {
		t.Fatal("expected failure for missing dir")
	}
	if result.Detail == "" {
		t.Fatal("expected non-empty detail")
	}
}

func TestCheckDirectoryAccess_NotDir(t *testing.T) {
	f := filepath.Join(t.TempDir(), "file.txt")
	if err := os.WriteFile(f, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	result := CheckDirectoryAccess("test", f)
	if result.Passed {
		t.Fatal("expected failure for file path")
	}
}

func TestCheckCamera_Missing(t *testing.T) {
	result := CheckCamera(filepath.Join(t.TempDir(), "video9"))
	if result.Passed {
		t.Fatal("expected failure for missing device")
	}
	if !strings.Contains(result.Detail, "not attached") {
		t.Fatalf("unexpected detail: %s", result.Detail)
	}
}

func TestCheckCamera_RegularFile(t *testing.T) {
	f := filepath.Join(t.TempDir(), "video0")
	if err := os.WriteFile(f, nil, 0o644); err != nil {
		t.Fatal(err)
	}
	result := CheckCamera(f)
	if result.Passed {
		t.Fatal("expected failure for regular file")
	}
}

func TestProbeCameraReadsSysfsName(t *testing.T) {
	root := t.TempDir()
	if err := os.MkdirAll(filepath.Join(root, "video0"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(root, "video0", "name"), []byte("HD Webcam\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	prev := sysfsVideoRoot
	sysfsVideoRoot = root
	t.Cleanup(func() { sysfsVideoRoot = prev })

	probe := ProbeCamera("/dev/video0")
	if !probe.Detected || probe.Card != "HD Webcam" {
		t.Fatalf("unexpected probe: %+v", probe)
	}
	if probe.CameraDetail() != "HD Webcam on /dev/video0" {
		t.Fatalf("unexpected detail: %s", probe.CameraDetail())
	}
	if ProbeCamera("/dev/video7").Detected {
		t.Fatal("expected undetected for unknown node")
	}
}

func TestCheckGemini_OK(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("x-goog-api-key") != "good-key" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"candidates":[{"content":{"parts":[{"text":"{\"ok\":true}"}]}}]}`))
	}))
	defer srv.Close()

	cfg := config.GatewayConfig{APIKey: "good-key", BaseURL: srv.URL, Model: "gemini-2.5-flash", TimeoutSeconds: 5}
	result := CheckGemini(context.Background(), cfg)
	if !result.Passed {
		t.Fatalf("expected pass, got: %s", result.Detail)
	}
}

func TestCheckGemini_BadKey(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	cfg := config.GatewayConfig{APIKey: "bad-key", BaseURL: srv.URL, Model: "gemini-2.5-flash", TimeoutSeconds: 5}
	result := CheckGemini(context.Background(), cfg)
	if result.Passed {
		t.Fatal("expected failure for bad key")
	}
}

func TestCheckGemini_MissingKey(t *testing.T) {
	result := CheckGemini(context.Background(), config.GatewayConfig{})
	if result.Passed {
		t.Fatal("expected failure for missing key")
	}
	if result.Detail != "API key missing" {
		t.Fatalf("unexpected detail: %s", result.Detail)
	}
}

func TestRunAll_NilConfig(t *testing.T) {
	results := RunAll(context.Background(), nil)
	if results != nil {
		t.Fatal("expected nil results for nil config")
	}
}

func TestRunAll_MinimalConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Paths.DataDir = t.TempDir()
	cfg.Paths.MediaDir = t.TempDir()
	cfg.Camera.Device = ""
	cfg.Camera.FFmpegBinary = "sh"
	cfg.Speech.Enabled = false
	cfg.Gemini.APIKey = ""

	results := RunAll(context.Background(), &cfg)
	// data dir, media dir, gemini, ffmpeg
	if len(results) != 4 {
		t.Fatalf("expected 4 results, got %d: %+v", len(results), results)
	}
	failed := Failed(results)
	if len(failed) != 1 || failed[0].Name != "Gemini API" {
		t.Fatalf("expected only the gemini check to fail, got %+v", failed)
	}
}
