// Package device wraps the local hardware the scan and discovery flows
// depend on: the V4L2 camera (captured through ffmpeg), camera hotplug
// events from udev, the position provider, espeak-ng narration and the
// dictation transcript stream.
//
// Every adapter reports failures with the apperr markers so callers can tell
// a permission problem (apperr.ErrPermissionDenied) from missing hardware
// (apperr.ErrDeviceUnavailable) without inspecting messages.
package device
