package discovery

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"arheritage/internal/apperr"
	"arheritage/internal/device"
	"arheritage/internal/gemini"
	"arheritage/internal/language"
	"arheritage/internal/logging"
	"arheritage/internal/narration"
	"arheritage/internal/records"
	"arheritage/internal/textutil"
)

const (
	// MsgLocationFailed is the fallback when a description fails without a
	// user-facing message.
	MsgLocationFailed = "Failed to fetch location details."
	// MsgNearbyFailed is shown for any nearby-places gateway failure.
	MsgNearbyFailed = "Could not fetch nearby heritage sites."
	// MsgNearbyPermission is shown when the nearby section cannot get a position.
	MsgNearbyPermission = "Please enable location permissions to discover nearby places."

	// RecentHistoryLimit is how many discoveries the home summary shows.
	RecentHistoryLimit = 3
)

// Gateway is the location half of the AI gateway.
type Gateway interface {
	DescribeLocation(ctx context.Context, lat, lon float64, languageTag, languageName string) (string, error)
	NearbyPlaces(ctx context.Context, lat, lon float64) ([]gemini.PlaceHint, error)
}

// Service creates discovery and home views.
type Service struct {
	gateway Gateway
	store   *records.Store
	speaker narration.Speaker
	logger  *slog.Logger
	now     func() time.Time
}

// Option customizes a Service.
type Option func(*Service)

// WithSpeaker enables narration on discovery views.
func WithSpeaker(speaker narration.Speaker) Option {
	return func(s *Service) { s.speaker = speaker }
}

// WithClock replaces time.Now for history IDs and dates.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// NewService wires the gateway and record store.
func NewService(gateway Gateway, store *records.Store, logger *slog.Logger, opts ...Option) *Service {
	s := &Service{
		gateway: gateway,
		store:   store,
		logger:  logging.NewComponentLogger(logger, "discovery"),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) newView(ctx context.Context, withLocation bool) *View {
	id := uuid.NewString()
	v := &View{
		id:      id,
		logger:  s.logger.With(logging.String("view_id", id)),
		mounted: true,
		nearby:  Section[[]Place]{Loading: true, Value: []Place{}},
	}
	if withLocation {
		v.location = &Section[LocationInfo]{Loading: true}
		if s.speaker != nil {
			v.narrator = narration.New(ctx, s.speaker, s.store, s.logger)
		}
	}
	return v
}

// Discover mounts a view and starts the location and nearby fetches. The
// fetches outlive ctx cancellation; call Unmount to drop their results.
func (s *Service) Discover(ctx context.Context, locator device.Locator) *View {
	v := s.newView(ctx, true)
	bg := context.WithoutCancel(ctx)
	v.wg.Add(2)
	go func() {
		defer v.wg.Done()
		s.loadLocation(bg, v, locator)
	}()
	go func() {
		defer v.wg.Done()
		s.loadNearby(bg, v, locator)
	}()
	return v
}

// Home mounts the home summary: recent discoveries plus nearby places.
func (s *Service) Home(ctx context.Context, locator device.Locator) *View {
	v := s.newView(ctx, false)
	v.recent = s.RecentHistory(ctx)
	bg := context.WithoutCancel(ctx)
	v.wg.Add(1)
	go func() {
		defer v.wg.Done()
		s.loadNearby(bg, v, locator)
	}()
	return v
}

// RecentHistory returns the newest discoveries for the home summary.
func (s *Service) RecentHistory(ctx context.Context) []records.HistoryItem {
	history := s.store.DiscoverHistory(ctx)
	if len(history) > RecentHistoryLimit {
		history = history[:RecentHistoryLimit]
	}
	return history
}

// History returns every discovery, newest first.
func (s *Service) History(ctx context.Context) []records.HistoryItem {
	return s.store.DiscoverHistory(ctx)
}

func (s *Service) loadLocation(ctx context.Context, v *View, locator device.Locator) {
	pos, err := currentPosition(ctx, locator)
	if err != nil {
		msg := device.MsgLocationPermission
		if errors.Is(err, apperr.ErrDeviceUnavailable) {
			msg = apperr.UserMessage(err, device.MsgLocationUnsupported)
		}
		s.logPositionFailure(ctx, err, "location description skipped")
		v.apply("location", func() {
			v.location.Loading = false
			v.location.Err = msg
		})
		return
	}

	audio := s.store.AudioSettings(ctx)
	languageName := language.DisplayName(audio.Language)
	text, err := s.gateway.DescribeLocation(ctx, pos.Latitude, pos.Longitude, audio.Language, languageName)
	if err != nil {
		logging.WarnWithContext(s.logger, "location description failed", "discover_location_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check gemini.api_key and network connectivity"),
			logging.String(logging.FieldImpact, "discover screen shows an error"),
		)
		v.apply("location", func() {
			v.location.Loading = false
			v.location.Err = apperr.UserMessage(err, MsgLocationFailed)
		})
		return
	}

	info := buildLocationInfo(text)
	info.Position = pos
	info.Language = audio.Language

	now := s.now()
	added, err := s.store.AddDiscoverHistory(ctx, records.HistoryItem{
		ID:       records.NewID(now),
		Title:    info.Title,
		Date:     records.FormatDate(now),
		ImageURL: info.ImageURL,
	})
	if err != nil {
		logging.WarnWithContext(s.logger, "discovery history not saved", "discover_history_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check the data directory is writable"),
			logging.String(logging.FieldImpact, "location missing from history"),
		)
	} else {
		s.logger.InfoContext(ctx, "location discovered",
			logging.String(logging.FieldEventType, "location_discovered"),
			logging.String("title", info.Title),
			logging.Bool("new_history_entry", added),
		)
	}

	v.apply("location", func() {
		v.location.Loading = false
		v.location.Value = info
	})
}

func buildLocationInfo(text string) LocationInfo {
	narrative, hint, found := textutil.SplitMarker(text, textutil.ImageQueryMarker)
	info := LocationInfo{
		Narrative:  narrative,
		Title:      textutil.Title(narrative),
		Paragraphs: textutil.Paragraphs(narrative),
		ImageURL:   textutil.DefaultLocationImageURL,
	}
	if found {
		info.ImageURL = textutil.LocationImageURL(hint)
	}
	return info
}

func (s *Service) loadNearby(ctx context.Context, v *View, locator device.Locator) {
	pos, err := currentPosition(ctx, locator)
	if err != nil {
		s.logPositionFailure(ctx, err, "nearby places skipped")
		v.apply("nearby", func() {
			v.nearby.Loading = false
			v.nearby.Err = MsgNearbyPermission
		})
		return
	}

	hints, err := s.gateway.NearbyPlaces(ctx, pos.Latitude, pos.Longitude)
	if err != nil {
		logging.WarnWithContext(s.logger, "nearby places failed", "discover_nearby_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check gemini.api_key and network connectivity"),
			logging.String(logging.FieldImpact, "nearby heritage list unavailable"),
		)
		v.apply("nearby", func() {
			v.nearby.Loading = false
			v.nearby.Err = MsgNearbyFailed
		})
		return
	}

	places := make([]Place, 0, len(hints))
	for _, h := range hints {
		places = append(places, Place{
			Name:        h.Name,
			Description: strings.TrimSpace(h.Description),
			ImageURL:    textutil.PlaceImageURL(h.ImageQuery),
		})
	}
	v.apply("nearby", func() {
		v.nearby.Loading = false
		v.nearby.Value = places
	})
}

func currentPosition(ctx context.Context, locator device.Locator) (device.Position, error) {
	if locator == nil {
		return device.Position{}, apperr.Wrap(apperr.ErrDeviceUnavailable, "geolocate", device.MsgLocationUnsupported,
			errors.New("no locator"))
	}
	return locator.CurrentPosition(ctx)
}

func (s *Service) logPositionFailure(ctx context.Context, err error, impact string) {
	s.logger.WarnContext(ctx, "position unavailable",
		logging.Error(err),
		logging.String(logging.FieldEventType, "geolocation_failed"),
		logging.String(logging.FieldErrorHint, "grant location permission or set location.enabled with fixed coordinates"),
		logging.String(logging.FieldImpact, impact),
	)
}
