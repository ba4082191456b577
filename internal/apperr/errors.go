package apperr

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrPermissionDenied  = errors.New("permission denied")
	ErrDeviceUnavailable = errors.New("device unavailable")
	ErrGateway           = errors.New("gateway error")
	ErrValidation        = errors.New("validation error")
	ErrParse             = errors.New("parse error")
	ErrNotFound          = errors.New("not found")
	ErrUnauthorized      = errors.New("unauthorized")
)

// Error tags a failure with one of the markers above and carries the message
// shown to the user inline.
type Error struct {
	Marker  error
	Op      string
	Message string
	Err     error
}

func (e *Error) Error() string {
	parts := make([]string, 0, 3)
	if e.Marker != nil {
		parts = append(parts, e.Marker.Error())
	}
	if op := strings.TrimSpace(e.Op); op != "" {
		parts = append(parts, op)
	}
	if msg := strings.TrimSpace(e.Message); msg != "" {
		parts = append(parts, msg)
	}
	detail := strings.Join(parts, ": ")
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", detail, e.Err)
	}
	return detail
}

func (e *Error) Unwrap() []error {
	out := make([]error, 0, 2)
	if e.Marker != nil {
		out = append(out, e.Marker)
	}
	if e.Err != nil {
		out = append(out, e.Err)
	}
	return out
}

// Wrap builds an Error tagged with marker. The marker should be one of the
// exported sentinels; nil falls back to ErrGateway.
func Wrap(marker error, op, message string, err error) error {
	if marker == nil {
		marker = ErrGateway
	}
	return &Error{Marker: marker, Op: op, Message: strings.TrimSpace(message), Err: err}
}

// Validation is shorthand for a validation failure with a user-facing message.
func Validation(op, message string) error {
	return Wrap(ErrValidation, op, message, nil)
}

// UserFacing is implemented by errors that carry the message shown inline.
type UserFacing interface {
	UserFacingMessage() string
}

func (e *Error) UserFacingMessage() string {
	return e.Message
}

// UserMessage returns the inline message for err: the first user-facing
// message found in the chain when present, otherwise the fallback.
func UserMessage(err error, fallback string) string {
	if err == nil {
		return ""
	}
	var facing UserFacing
	if errors.As(err, &facing) {
		if msg := strings.TrimSpace(facing.UserFacingMessage()); msg != "" {
			return msg
		}
	}
	return fallback
}

// Kind returns a short classification string for logging and API payloads.
func Kind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrPermissionDenied):
		return "permission_denied"
	case errors.Is(err, ErrDeviceUnavailable):
		return "device_unavailable"
	case errors.Is(err, ErrValidation):
		return "validation"
	case errors.Is(err, ErrParse):
		return "parse"
	case errors.Is(err, ErrGateway):
		return "gateway"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrUnauthorized):
		return "unauthorized"
	default:
		return "internal"
	}
}
