package daemonctl

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"arheritage/internal/daemon"
	"arheritage/internal/testsupport"
)

func TestDialAddressUsesLoopbackForWildcards(t *testing.T) {
	cases := map[string]string{
		"0.0.0.0:8484":   "127.0.0.1:8484",
		":8484":          "127.0.0.1:8484",
		"[::]:8484":      "127.0.0.1:8484",
		"10.0.0.5:8484":  "10.0.0.5:8484",
		"localhost:9000": "localhost:9000",
	}
	for bind, want := range cases {
		if got := dialAddress(bind); got != want {
			t.Fatalf("dialAddress(%q) = %q, want %q", bind, got, want)
		}
	}
}

func TestClientStatusSendsOperatorToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/status" {
			http.NotFound(w, r)
			return
		}
		if r.Header.Get("Authorization") != "Bearer secret" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_ = json.NewEncoder(w).Encode(daemon.Status{Running: true, PID: 42})
	}))
	defer srv.Close()

	cfg := testsupport.NewConfig(t)
	cfg.Paths.APIBind = strings.TrimPrefix(srv.URL, "http://")
	cfg.Paths.APIToken = "secret"

	status, err := NewClient(cfg).Status(context.Background())
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if !status.Running || status.PID != 42 {
		t.Fatalf("unexpected status %+v", status)
	}

	cfg.Paths.APIToken = "wrong"
	if _, err := NewClient(cfg).Status(context.Background()); err == nil {
		t.Fatal("expected unauthorized status to fail")
	}
}

func TestClientStatusReportsNotRunning(t *testing.T) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	addr := listener.Addr().String()
	listener.Close()

	cfg := testsupport.NewConfig(t)
	cfg.Paths.APIBind = addr
	if _, err := NewClient(cfg).Status(context.Background()); !errors.Is(err, ErrDaemonNotRunning) {
		t.Fatalf("expected ErrDaemonNotRunning, got %v", err)
	}
}

func TestReadPID(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "arheritaged.pid")

	if pid, err := readPID(path); err != nil || pid != 0 {
		t.Fatalf("missing file: pid=%d err=%v", pid, err)
	}
	if err := os.WriteFile(path, []byte("1234\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if pid, err := readPID(path); err != nil || pid != 1234 {
		t.Fatalf("expected 1234, got pid=%d err=%v", pid, err)
	}
	if err := os.WriteFile(path, []byte("nope"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := readPID(path); err == nil {
		t.Fatal("expected malformed pid file to fail")
	}
}

func TestStopWithoutPIDFileReportsNotRunning(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	if _, err := StopAndTerminate(context.Background(), cfg, 0); !errors.Is(err, ErrDaemonNotRunning) {
		t.Fatalf("expected ErrDaemonNotRunning, got %v", err)
	}
}
