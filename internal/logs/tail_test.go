package logs_test

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"arheritage/internal/logs"
)

func collect(t *testing.T, path string, opts logs.Options) []string {
	t.Helper()
	var lines []string
	if err := logs.Tail(context.Background(), path, opts, func(line string) {
		lines = append(lines, line)
	}); err != nil {
		t.Fatalf("Tail: %v", err)
	}
	return lines
}

func TestTailLastLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "arheritage.log")
	if err := os.WriteFile(path, []byte("a\nb\nc\n"), 0o644); err != nil {
		t.Fatalf("write log: %v", err)
	}

	lines := collect(t, path, logs.Options{Lines: 2})
	if len(lines) != 2 || lines[0] != "b" || lines[1] != "c" {
		t.Fatalf("unexpected lines: %#v", lines)
	}
	if lines := collect(t, path, logs.Options{Lines: 0}); len(lines) != 0 {
		t.Fatalf("expected no lines for zero limit, got %#v", lines)
	}
}

func TestTailMissingFileIsEmpty(t *testing.T) {
	lines := collect(t, filepath.Join(t.TempDir(), "absent.log"), logs.Options{Lines: 10})
	if len(lines) != 0 {
		t.Fatalf("expected no lines, got %#v", lines)
	}
}

func TestTailFiltersByComponent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "arheritage.log")
	content := "2026-01-02T03:04:05Z INFO scan: capture started\n" +
		"2026-01-02T03:04:06Z WARN discovery: gateway slow\n" +
		`{"ts":"2026-01-02T03:04:07Z","level":"info","msg":"scan done","component":"scan"}` + "\n" +
		"2026-01-02T03:04:08Z INFO daemon started\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	lines := collect(t, path, logs.Options{Lines: 10, Component: "scan"})
	if len(lines) != 2 {
		t.Fatalf("expected two scan lines, got %#v", lines)
	}
	if logs.Matches("2026-01-02T03:04:08Z INFO daemon started", "daemon") {
		t.Fatal("message words must not match as a component")
	}
}

func TestTailFollowEmitsAppendedLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "arheritage.log")
	if err := os.WriteFile(path, []byte("start\n"), 0o644); err != nil {
		t.Fatalf("write log: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	var mu sync.Mutex
	var lines []string
	got := make(chan struct{}, 4)
	done := make(chan error, 1)
	go func() {
		done <- logs.Tail(ctx, path, logs.Options{Lines: 1, Follow: true, Poll: 20 * time.Millisecond}, func(line string) {
			mu.Lock()
			lines = append(lines, line)
			mu.Unlock()
			got <- struct{}{}
		})
	}()

	waitLine := func() {
		select {
		case <-got:
		case <-time.After(5 * time.Second):
			t.Fatal("timed out waiting for a line")
		}
	}
	waitLine()

	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		t.Fatalf("open append: %v", err)
	}
	if _, err := f.WriteString("later\n"); err != nil {
		t.Fatalf("append log: %v", err)
	}
	_ = f.Close()
	waitLine()

	cancel()
	if err := <-done; err != nil {
		t.Fatalf("follow tail error: %v", err)
	}
	mu.Lock()
	defer mu.Unlock()
	if len(lines) != 2 || lines[0] != "start" || lines[1] != "later" {
		t.Fatalf("unexpected lines: %#v", lines)
	}
}

func TestTailFollowRestartsAfterTruncation(t *testing.T) {
	path := filepath.Join(t.TempDir(), "arheritage.log")
	if err := os.WriteFile(path, []byte("old line one\nold line two\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	got := make(chan string, 4)
	go func() {
		_ = logs.Tail(ctx, path, logs.Options{Follow: true, Poll: 20 * time.Millisecond}, func(line string) {
			got <- line
		})
	}()

	time.Sleep(100 * time.Millisecond)
	if err := os.WriteFile(path, []byte("new\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	select {
	case line := <-got:
		if line != "new" {
			t.Fatalf("unexpected line %q", line)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("truncated file was not re-read")
	}
}
