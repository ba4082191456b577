package preflight

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// sysfsVideoRoot is where the kernel publishes V4L2 device metadata.
var sysfsVideoRoot = "/sys/class/video4linux"

// CameraProbe reports what the kernel knows about a capture device.
type CameraProbe struct {
	Detected bool
	Device   string
	Card     string
}

// ProbeCamera reads the card name of device from sysfs.
func ProbeCamera(device string) CameraProbe {
	device = strings.TrimSpace(device)
	if device == "" {
		device = "/dev/video0"
	}
	data, err := os.ReadFile(filepath.Join(sysfsVideoRoot, filepath.Base(device), "name"))
	if err != nil {
		return CameraProbe{Device: device}
	}
	card := strings.TrimSpace(string(data))
	if card == "" {
		card = "Unknown"
	}
	return CameraProbe{Detected: true, Device: device, Card: card}
}

// CameraDetail renders a display-friendly summary for status UIs.
func (p CameraProbe) CameraDetail() string {
	if !p.Detected {
		return fmt.Sprintf("%s (card unknown)", p.Device)
	}
	return fmt.Sprintf("%s on %s", p.Card, p.Device)
}
