package device

import (
	"context"
	"errors"
	"testing"

	"arheritage/internal/apperr"
	"arheritage/internal/config"
)

func TestFixedLocator(t *testing.T) {
	cfg := config.Default()
	cfg.Location.Enabled = true
	cfg.Location.Latitude = 27.1751
	cfg.Location.Longitude = 78.0421

	pos, err := NewFixedLocator(&cfg).CurrentPosition(context.Background())
	if err != nil {
		t.Fatalf("CurrentPosition: %v", err)
	}
	if pos.Latitude != 27.1751 || pos.Longitude != 78.0421 {
		t.Fatalf("unexpected position %+v", pos)
	}

	cfg.Location.Enabled = false
	_, err = NewFixedLocator(&cfg).CurrentPosition(context.Background())
	if !errors.Is(err, apperr.ErrDeviceUnavailable) {
		t.Fatalf("expected unsupported, got %v", err)
	}
	if apperr.UserMessage(err, "") != MsgLocationUnsupported {
		t.Fatalf("message = %q", apperr.UserMessage(err, ""))
	}
}

func TestClientLocator(t *testing.T) {
	_, err := ClientLocator{Denied: true}.CurrentPosition(context.Background())
	if !errors.Is(err, apperr.ErrPermissionDenied) {
		t.Fatalf("denied: got %v", err)
	}
	if apperr.UserMessage(err, "") != MsgLocationPermission {
		t.Fatalf("message = %q", apperr.UserMessage(err, ""))
	}

	_, err = ClientLocator{}.CurrentPosition(context.Background())
	if !errors.Is(err, apperr.ErrDeviceUnavailable) {
		t.Fatalf("absent: got %v", err)
	}

	_, err = ClientLocator{Position: &Position{Latitude: 91}}.CurrentPosition(context.Background())
	if !errors.Is(err, apperr.ErrPermissionDenied) {
		t.Fatalf("out of range: got %v", err)
	}
}

func TestFirstAvailable(t *testing.T) {
	fixed := FixedLocator{Enabled: true, Position: Position{Latitude: 1, Longitude: 2}}

	pos, err := FirstAvailable(ClientLocator{}, fixed).CurrentPosition(context.Background())
	if err != nil || pos.Latitude != 1 {
		t.Fatalf("fallback to fixed: %+v %v", pos, err)
	}

	client := ClientLocator{Position: &Position{Latitude: 10, Longitude: 20}}
	pos, err = FirstAvailable(client, fixed).CurrentPosition(context.Background())
	if err != nil || pos.Latitude != 10 {
		t.Fatalf("client first: %+v %v", pos, err)
	}

	_, err = FirstAvailable(ClientLocator{Denied: true}, fixed).CurrentPosition(context.Background())
	if !errors.Is(err, apperr.ErrPermissionDenied) {
		t.Fatalf("denial must stop the chain: %v", err)
	}

	_, err = FirstAvailable().CurrentPosition(context.Background())
	if !errors.Is(err, apperr.ErrDeviceUnavailable) {
		t.Fatalf("empty chain: %v", err)
	}
}
