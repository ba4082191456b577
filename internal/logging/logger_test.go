package logging_test

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"arheritage/internal/config"
	"arheritage/internal/logging"
)

func newFileLogger(t *testing.T, format, level string) (string, func() string) {
	t.Helper()
	logPath := filepath.Join(t.TempDir(), "test.log")
	noColor := false
	logger, err := logging.New(logging.Options{
		Format:      format,
		Level:       level,
		OutputPaths: []string{logPath},
		Color:       &noColor,
	})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	logging.NewComponentLogger(logger, "scan").Info("captured frame", logging.String("mime", "image/jpeg"))
	logger.Debug("debug line")
	return logPath, func() string {
		content, err := os.ReadFile(logPath)
		if err != nil {
			t.Fatalf("read log file: %v", err)
		}
		return string(content)
	}
}

func TestNewFromConfigConsole(t *testing.T) {
	cfg := config.Default()
	cfg.Paths.LogDir = t.TempDir()

	logger, err := logging.NewFromConfig(&cfg, true)
	if err != nil {
		t.Fatalf("NewFromConfig returned error: %v", err)
	}
	logger.Info("hello")
	if _, err := os.Stat(cfg.LogPath()); err != nil {
		t.Fatalf("expected log file at %s: %v", cfg.LogPath(), err)
	}
}

func TestConsoleLoggerFormatsComponentAndOmitsDebug(t *testing.T) {
	_, read := newFileLogger(t, "console", "info")
	content := read()

	if !strings.Contains(content, "INFO scan: captured frame mime=image/jpeg") {
		t.Fatalf("unexpected console line: %q", content)
	}
	if strings.Contains(content, "debug line") {
		t.Fatalf("debug line should be filtered at info level: %q", content)
	}
	if strings.Contains(content, ".go:") {
		t.Fatalf("expected no caller information in info logs, got %q", content)
	}
}

func TestConsoleLoggerIncludesCallerForDebug(t *testing.T) {
	_, read := newFileLogger(t, "console", "debug")
	content := read()
	if !strings.Contains(content, "debug line") || !strings.Contains(content, ".go:") {
		t.Fatalf("expected debug line with caller, got %q", content)
	}
}

func TestJSONLoggerUsesLowercaseLevelAndTS(t *testing.T) {
	_, read := newFileLogger(t, "json", "info")
	line := strings.SplitN(strings.TrimSpace(read()), "\n", 2)[0]

	var payload map[string]any
	if err := json.Unmarshal([]byte(line), &payload); err != nil {
		t.Fatalf("decode json log: %v (%q)", err, line)
	}
	if payload["level"] != "info" {
		t.Fatalf("expected lowercase level, got %v", payload["level"])
	}
	if _, ok := payload["ts"]; !ok {
		t.Fatalf("expected ts key, got %v", payload)
	}
	if payload["component"] != "scan" {
		t.Fatalf("expected component field, got %v", payload["component"])
	}
}

func TestNewRejectsUnknownFormat(t *testing.T) {
	if _, err := logging.New(logging.Options{Format: "xml"}); err == nil {
		t.Fatal("expected error for unsupported format")
	}
}

func TestWarnWithContextInjectsDefaults(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "warn.log")
	logger, err := logging.New(logging.Options{Format: "json", OutputPaths: []string{logPath}})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	logging.WarnWithContext(logger, "stored record unreadable", "store_corrupt",
		logging.String(logging.FieldImpact, "defaults used"))

	content, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	var payload map[string]any
	if err := json.Unmarshal(content, &payload); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if payload[logging.FieldEventType] != "store_corrupt" {
		t.Fatalf("missing event_type: %v", payload)
	}
	if payload[logging.FieldErrorHint] == nil {
		t.Fatalf("missing error_hint: %v", payload)
	}
	if payload[logging.FieldImpact] != "defaults used" {
		t.Fatalf("impact should not be overridden: %v", payload)
	}
}

func TestContextFields(t *testing.T) {
	ctx := logging.WithRequestID(context.Background(), "req-1")
	ctx = logging.WithSessionID(ctx, "sess-9")
	ctx = logging.WithUser(ctx, "")

	fields := logging.ContextFields(ctx)
	if len(fields) != 2 {
		t.Fatalf("expected 2 fields, got %v", fields)
	}
	if fields[0].Key != logging.FieldCorrelationID || fields[0].Value.String() != "req-1" {
		t.Fatalf("unexpected correlation field: %v", fields[0])
	}
	if fields[1].Key != logging.FieldSessionID || fields[1].Value.String() != "sess-9" {
		t.Fatalf("unexpected session field: %v", fields[1])
	}
	if _, ok := logging.UserFromContext(ctx); ok {
		t.Fatal("empty user should not be stored")
	}
}
