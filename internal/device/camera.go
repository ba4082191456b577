package device

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"
	"sync"
	"time"

	"golang.org/x/sys/unix"

	"arheritage/internal/apperr"
	"arheritage/internal/config"
	"arheritage/internal/logging"
)

// MsgCameraAccess is the inline message for any camera start failure.
const MsgCameraAccess = "Could not access the camera. Please check permissions and try again."

// JPEGMimeType is the media type of frames produced by Capture.
const JPEGMimeType = "image/jpeg"

// ErrStreamNotLive is returned by Capture when the stream is stopped or paused.
var ErrStreamNotLive = errors.New("camera stream is not live")

// StreamState describes the camera stream lifecycle.
type StreamState int

const (
	StreamStopped StreamState = iota
	StreamLive
	StreamPaused
)

func (s StreamState) String() string {
	switch s {
	case StreamLive:
		return "live"
	case StreamPaused:
		return "paused"
	default:
		return "stopped"
	}
}

// Frame is a single encoded still image.
type Frame struct {
	Data     []byte
	MimeType string
}

// CommandRunner executes an external binary and returns its stdout.
type CommandRunner interface {
	Output(ctx context.Context, name string, args ...string) ([]byte, error)
}

type execCommandRunner struct{}

func (execCommandRunner) Output(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...) //nolint:gosec
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %s", name, err, strings.TrimSpace(stderr.String()))
	}
	return out, nil
}

// CameraConfig describes the capture device.
type CameraConfig struct {
	Device         string
	Width          int
	Height         int
	FFmpegBinary   string
	CaptureTimeout time.Duration
}

// Camera models the device video stream. The stream is logical: Start claims
// the device after an access check, Capture grabs one frame through ffmpeg,
// Pause freezes the stream without releasing the device and Stop releases it.
type Camera struct {
	cfg    CameraConfig
	logger *slog.Logger
	runner CommandRunner
	access func(path string, mode uint32) error

	mu        sync.Mutex
	state     StreamState
	available bool
}

// CameraOption customizes a Camera.
type CameraOption func(*Camera)

// WithCommandRunner replaces the ffmpeg executor.
func WithCommandRunner(runner CommandRunner) CameraOption {
	return func(c *Camera) {
		if runner != nil {
			c.runner = runner
		}
	}
}

// WithAccessCheck replaces the device access probe (unix.Access by default).
func WithAccessCheck(fn func(path string, mode uint32) error) CameraOption {
	return func(c *Camera) {
		if fn != nil {
			c.access = fn
		}
	}
}

// NewCamera constructs a stopped camera that assumes the device is present
// until hotplug reports otherwise.
func NewCamera(cfg CameraConfig, logger *slog.Logger, opts ...CameraOption) *Camera {
	if cfg.Width <= 0 {
		cfg.Width = 1920
	}
	if cfg.Height <= 0 {
		cfg.Height = 1080
	}
	if strings.TrimSpace(cfg.FFmpegBinary) == "" {
		cfg.FFmpegBinary = "ffmpeg"
	}
	if cfg.CaptureTimeout <= 0 {
		cfg.CaptureTimeout = 15 * time.Second
	}
	c := &Camera{
		cfg:       cfg,
		logger:    logging.NewComponentLogger(logger, "camera"),
		runner:    execCommandRunner{},
		access:    unix.Access,
		available: true,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// NewCameraFromConfig builds a Camera from the [camera] config section.
func NewCameraFromConfig(cfg *config.Config, logger *slog.Logger, opts ...CameraOption) *Camera {
	return NewCamera(CameraConfig{
		Device:         cfg.Camera.Device,
		Width:          cfg.Camera.Width,
		Height:         cfg.Camera.Height,
		FFmpegBinary:   cfg.Camera.FFmpegBinary,
		CaptureTimeout: time.Duration(cfg.Camera.CaptureTimeout) * time.Second,
	}, logger, opts...)
}

// Device returns the configured device node.
func (c *Camera) Device() string {
	return c.cfg.Device
}

// State reports the current stream state.
func (c *Camera) State() StreamState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Available reports whether the device is believed to be attached.
func (c *Camera) Available() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.available
}

// SetAvailable records a hotplug change. Losing the device stops the stream.
func (c *Camera) SetAvailable(available bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.available = available
	if !available && c.state != StreamStopped {
		c.state = StreamStopped
		logging.WarnWithContext(c.logger, "camera removed while streaming", "camera_removed",
			logging.String("device", c.cfg.Device),
			logging.String(logging.FieldErrorHint, "reconnect the camera and scan again"),
			logging.String(logging.FieldImpact, "active scan session loses its camera"),
		)
	}
}

// Start acquires the device. Starting a live or paused stream is a no-op.
func (c *Camera) Start(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != StreamStopped {
		return nil
	}
	if !c.available {
		return apperr.Wrap(apperr.ErrDeviceUnavailable, "camera start", MsgCameraAccess,
			fmt.Errorf("device %s not attached", c.cfg.Device))
	}
	if err := c.checkAccess(); err != nil {
		c.logger.WarnContext(ctx, "camera start failed",
			logging.String("device", c.cfg.Device),
			logging.String(logging.FieldEventType, "camera_start_failed"),
			logging.String(logging.FieldErrorHint, "check the device exists and the user is in the video group"),
			logging.String(logging.FieldImpact, "scanning unavailable"),
			logging.Error(err),
		)
		return err
	}
	c.state = StreamLive
	c.logger.DebugContext(ctx, "camera stream started", logging.String("device", c.cfg.Device))
	return nil
}

func (c *Camera) checkAccess() error {
	device := strings.TrimSpace(c.cfg.Device)
	if device == "" {
		return apperr.Wrap(apperr.ErrDeviceUnavailable, "camera start", MsgCameraAccess,
			errors.New("no camera device configured"))
	}
	err := c.access(device, unix.R_OK|unix.W_OK)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, unix.EACCES), errors.Is(err, unix.EPERM):
		return apperr.Wrap(apperr.ErrPermissionDenied, "camera start", MsgCameraAccess, err)
	default:
		return apperr.Wrap(apperr.ErrDeviceUnavailable, "camera start", MsgCameraAccess, err)
	}
}

// Pause freezes a live stream.
func (c *Camera) Pause() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == StreamLive {
		c.state = StreamPaused
	}
}

// Resume unfreezes a paused stream.
func (c *Camera) Resume() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == StreamPaused {
		c.state = StreamLive
	}
}

// Stop releases the device.
func (c *Camera) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == StreamStopped {
		return
	}
	c.state = StreamStopped
	c.logger.Debug("camera stream stopped", logging.String("device", c.cfg.Device))
}

// Capture grabs one JPEG still from a live stream.
func (c *Camera) Capture(ctx context.Context) (Frame, error) {
	c.mu.Lock()
	state := c.state
	c.mu.Unlock()
	if state != StreamLive {
		return Frame{}, ErrStreamNotLive
	}

	captureCtx, cancel := context.WithTimeout(ctx, c.cfg.CaptureTimeout)
	defer cancel()

	data, err := c.runner.Output(captureCtx, c.cfg.FFmpegBinary, c.captureArgs()...)
	if err != nil {
		marker := apperr.ErrDeviceUnavailable
		if strings.Contains(err.Error(), "Permission denied") {
			marker = apperr.ErrPermissionDenied
		}
		return Frame{}, apperr.Wrap(marker, "camera capture", MsgCameraAccess, err)
	}
	if len(data) == 0 {
		return Frame{}, apperr.Wrap(apperr.ErrDeviceUnavailable, "camera capture", MsgCameraAccess,
			errors.New("ffmpeg returned an empty frame"))
	}
	c.logger.DebugContext(ctx, "frame captured",
		logging.String("device", c.cfg.Device),
		logging.Int("bytes", len(data)),
	)
	return Frame{Data: data, MimeType: JPEGMimeType}, nil
}

func (c *Camera) captureArgs() []string {
	return []string{
		"-hide_banner",
		"-loglevel", "error",
		"-f", "v4l2",
		"-video_size", fmt.Sprintf("%dx%d", c.cfg.Width, c.cfg.Height),
		"-i", c.cfg.Device,
		"-frames:v", "1",
		"-f", "image2pipe",
		"-vcodec", "mjpeg",
		"-",
	}
}
