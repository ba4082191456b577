package preflight

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"time"

	"golang.org/x/sys/unix"

	"arheritage/internal/config"
	"arheritage/internal/deps"
	"arheritage/internal/gemini"
)

// CheckGemini verifies that the Gemini API is reachable and the key is valid.
// It uses a 30-second timeout and a single attempt (no retries).
func CheckGemini(ctx context.Context, cfg config.GatewayConfig, opts ...gemini.Option) Result {
	const name = "Gemini API"

	if cfg.APIKey == "" {
		return Result{Name: name, Detail: "API key missing"}
	}

	checkCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	opts = append([]gemini.Option{gemini.WithRetryMaxAttempts(1)}, opts...)
	client := gemini.NewClientFromConfig(cfg, opts...)

	if err := client.HealthCheck(checkCtx); err != nil {
		return Result{Name: name, Detail: summarizeGatewayError(err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("API reachable (%s)", client.Model())}
}

// CheckCamera verifies that the capture device node exists and is usable by
// the current user.
func CheckCamera(device string) Result {
	const name = "Camera"

	info, err := os.Stat(device)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: not attached)", device)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", device, err)}
	}
	if info.Mode()&os.ModeCharDevice == 0 {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: not a character device)", device)}
	}
	if err := unix.Access(device, unix.R_OK|unix.W_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", device, err)}
	}
	probe := ProbeCamera(device)
	return Result{Name: name, Passed: true, Detail: probe.CameraDetail()}
}

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

// CheckSystemDeps evaluates the external binaries for the given config.
// Both the daemon and the CLI status command use this so the requirements
// list lives in one place.
func CheckSystemDeps(cfg *config.Config) []deps.Status {
	requirements := []deps.Requirement{
		{
			Name:        "FFmpeg",
			Command:     cfg.Camera.FFmpegBinary,
			Description: "Required for camera capture",
		},
	}
	if cfg.Speech.Enabled {
		requirements = append(requirements, deps.Requirement{
			Name:        "espeak-ng",
			Command:     cfg.Speech.Binary,
			Description: "Reads discovery narratives aloud",
			Optional:    true,
		})
	}
	return deps.CheckBinaries(requirements)
}

// summarizeGatewayError produces a human-readable summary for health check failures.
func summarizeGatewayError(err error) string {
	if errors.Is(err, context.DeadlineExceeded) {
		return "health check timed out (Gemini API unresponsive)"
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return "health check timed out (Gemini API unreachable)"
	}
	return err.Error()
}
