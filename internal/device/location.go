package device

import (
	"context"
	"errors"
	"fmt"

	"arheritage/internal/apperr"
	"arheritage/internal/config"
)

const (
	// MsgLocationPermission is shown when the position request is refused.
	MsgLocationPermission = "Could not get location. Please enable location permissions for this app."
	// MsgLocationUnsupported is shown when no position source exists.
	MsgLocationUnsupported = "Geolocation is not supported on this device."
)

// Position is a WGS84 coordinate pair.
type Position struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Valid reports whether both coordinates are in range.
func (p Position) Valid() bool {
	return p.Latitude >= -90 && p.Latitude <= 90 && p.Longitude >= -180 && p.Longitude <= 180
}

// Locator is a single-shot position source.
type Locator interface {
	CurrentPosition(ctx context.Context) (Position, error)
}

// FixedLocator always reports the configured position. A disabled locator
// reports the capability as unsupported.
type FixedLocator struct {
	Position Position
	Enabled  bool
}

// NewFixedLocator reads the [location] config section.
func NewFixedLocator(cfg *config.Config) FixedLocator {
	if cfg == nil {
		return FixedLocator{}
	}
	return FixedLocator{
		Position: Position{Latitude: cfg.Location.Latitude, Longitude: cfg.Location.Longitude},
		Enabled:  cfg.Location.Enabled,
	}
}

func (l FixedLocator) CurrentPosition(ctx context.Context) (Position, error) {
	if err := ctx.Err(); err != nil {
		return Position{}, err
	}
	if !l.Enabled {
		return Position{}, unsupportedError(errors.New("no fixed position configured"))
	}
	return l.Position, nil
}

// ClientLocator carries a position reported by the front end. Denied
// records that the user refused the permission prompt on the client.
type ClientLocator struct {
	Position *Position
	Denied   bool
}

func (l ClientLocator) CurrentPosition(ctx context.Context) (Position, error) {
	if err := ctx.Err(); err != nil {
		return Position{}, err
	}
	if l.Denied {
		return Position{}, apperr.Wrap(apperr.ErrPermissionDenied, "geolocate", MsgLocationPermission,
			errors.New("client denied location permission"))
	}
	if l.Position == nil {
		return Position{}, unsupportedError(errors.New("client supplied no position"))
	}
	if !l.Position.Valid() {
		return Position{}, apperr.Wrap(apperr.ErrPermissionDenied, "geolocate", MsgLocationPermission,
			fmt.Errorf("coordinates out of range: %v,%v", l.Position.Latitude, l.Position.Longitude))
	}
	return *l.Position, nil
}

// FirstAvailable tries each locator in order and returns the first position.
// A permission denial stops the search; unsupported sources are skipped.
func FirstAvailable(locators ...Locator) Locator {
	return chainLocator(locators)
}

type chainLocator []Locator

func (c chainLocator) CurrentPosition(ctx context.Context) (Position, error) {
	lastErr := unsupportedError(errors.New("no position source"))
	for _, locator := range c {
		if locator == nil {
			continue
		}
		pos, err := locator.CurrentPosition(ctx)
		if err == nil {
			return pos, nil
		}
		if !errors.Is(err, apperr.ErrDeviceUnavailable) {
			return Position{}, err
		}
		lastErr = err
	}
	return Position{}, lastErr
}

func unsupportedError(err error) error {
	return apperr.Wrap(apperr.ErrDeviceUnavailable, "geolocate", MsgLocationUnsupported, err)
}
