package device

import (
	"context"
	"errors"
	"slices"
	"testing"

	"golang.org/x/sys/unix"

	"arheritage/internal/apperr"
)

type fakeRunner struct {
	out   []byte
	err   error
	calls [][]string
}

func (f *fakeRunner) Output(_ context.Context, name string, args ...string) ([]byte, error) {
	f.calls = append(f.calls, append([]string{name}, args...))
	return f.out, f.err
}

func allowAccess(string, uint32) error { return nil }

func newTestCamera(runner *fakeRunner, access func(string, uint32) error) *Camera {
	return NewCamera(CameraConfig{Device: "/dev/video0"}, nil,
		WithCommandRunner(runner),
		WithAccessCheck(access),
	)
}

func TestCameraLifecycle(t *testing.T) {
	runner := &fakeRunner{out: []byte{0xff, 0xd8, 0xff}}
	cam := newTestCamera(runner, allowAccess)

	if _, err := cam.Capture(context.Background()); !errors.Is(err, ErrStreamNotLive) {
		t.Fatalf("capture before start: got %v", err)
	}
	if err := cam.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if cam.State() != StreamLive {
		t.Fatalf("state = %s, want live", cam.State())
	}

	frame, err := cam.Capture(context.Background())
	if err != nil {
		t.Fatalf("Capture: %v", err)
	}
	if frame.MimeType != JPEGMimeType || len(frame.Data) != 3 {
		t.Fatalf("unexpected frame %+v", frame)
	}

	cam.Pause()
	if _, err := cam.Capture(context.Background()); !errors.Is(err, ErrStreamNotLive) {
		t.Fatalf("capture while paused: got %v", err)
	}
	cam.Resume()
	if cam.State() != StreamLive {
		t.Fatalf("state after resume = %s", cam.State())
	}
	cam.Stop()
	if cam.State() != StreamStopped {
		t.Fatalf("state after stop = %s", cam.State())
	}
	if len(runner.calls) != 1 {
		t.Fatalf("expected exactly one ffmpeg call, got %d", len(runner.calls))
	}
}

func TestCameraCaptureArgs(t *testing.T) {
	runner := &fakeRunner{out: []byte{1}}
	cam := newTestCamera(runner, allowAccess)
	if err := cam.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	if _, err := cam.Capture(context.Background()); err != nil {
		t.Fatal(err)
	}
	got := runner.calls[0]
	want := []string{
		"ffmpeg", "-hide_banner", "-loglevel", "error",
		"-f", "v4l2", "-video_size", "1920x1080", "-i", "/dev/video0",
		"-frames:v", "1", "-f", "image2pipe", "-vcodec", "mjpeg", "-",
	}
	if !slices.Equal(got, want) {
		t.Fatalf("args = %v\nwant %v", got, want)
	}
}

func TestCameraStartClassifiesAccessErrors(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		marker error
	}{
		{"permission", unix.EACCES, apperr.ErrPermissionDenied},
		{"missing", unix.ENOENT, apperr.ErrDeviceUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cam := newTestCamera(&fakeRunner{}, func(string, uint32) error { return tt.err })
			err := cam.Start(context.Background())
			if !errors.Is(err, tt.marker) {
				t.Fatalf("expected %v, got %v", tt.marker, err)
			}
			if got := apperr.UserMessage(err, ""); got != MsgCameraAccess {
				t.Fatalf("message = %q", got)
			}
			if cam.State() != StreamStopped {
				t.Fatalf("state = %s", cam.State())
			}
		})
	}
}

func TestCameraUnpluggedStopsStream(t *testing.T) {
	cam := newTestCamera(&fakeRunner{}, allowAccess)
	if err := cam.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	cam.SetAvailable(false)
	if cam.State() != StreamStopped {
		t.Fatalf("state = %s", cam.State())
	}
	if err := cam.Start(context.Background()); !errors.Is(err, apperr.ErrDeviceUnavailable) {
		t.Fatalf("start without device: %v", err)
	}
	cam.SetAvailable(true)
	if err := cam.Start(context.Background()); err != nil {
		t.Fatalf("start after replug: %v", err)
	}
}

func TestCameraCaptureFailure(t *testing.T) {
	cam := newTestCamera(&fakeRunner{err: errors.New("ffmpeg: exit status 1: Permission denied")}, allowAccess)
	if err := cam.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	_, err := cam.Capture(context.Background())
	if !errors.Is(err, apperr.ErrPermissionDenied) {
		t.Fatalf("expected permission denied, got %v", err)
	}

	cam = newTestCamera(&fakeRunner{}, allowAccess)
	if err := cam.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	if _, err := cam.Capture(context.Background()); !errors.Is(err, apperr.ErrDeviceUnavailable) {
		t.Fatalf("empty frame: got %v", err)
	}
}
