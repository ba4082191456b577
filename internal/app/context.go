package app

import (
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"arheritage/internal/apperr"
	"arheritage/internal/language"
	"arheritage/internal/logging"
	"arheritage/internal/records"
)

// Validation messages.
const (
	MsgUnsupportedLanguage = "Please choose one of the supported languages."
	MsgUnsupportedVoice    = "Voice must be male or female."
	MsgUnsupportedTheme    = "Theme must be light or dark."
	MsgAvatarNotImage      = "Please choose an image file for your profile picture."
)

// MaxAvatarBytes caps the size of an uploaded profile picture.
const MaxAvatarBytes = 2 << 20

// Store is the subset of records.Store the context persists through.
type Store interface {
	Theme(ctx context.Context) records.Theme
	SaveTheme(ctx context.Context, theme records.Theme) error
	AudioSettings(ctx context.Context) records.AudioSettings
	SaveAudioSettings(ctx context.Context, settings records.AudioSettings) error
	Profile(ctx context.Context) records.Profile
	SaveProfile(ctx context.Context, profile records.Profile) error
}

// Context is the explicit replacement for ambient UI state: it is created
// once, read by every flow, and saves each change immediately.
type Context struct {
	mu      sync.RWMutex
	store   Store
	logger  *slog.Logger
	theme   records.Theme
	audio   records.AudioSettings
	profile records.Profile
}

// NewContext loads the current values from store.
func NewContext(ctx context.Context, store Store, logger *slog.Logger) *Context {
	return &Context{
		store:   store,
		logger:  logging.NewComponentLogger(logger, "app"),
		theme:   store.Theme(ctx),
		audio:   store.AudioSettings(ctx),
		profile: store.Profile(ctx),
	}
}

// Theme returns the active theme.
func (c *Context) Theme() records.Theme {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.theme
}

// SetTheme switches and persists the theme.
func (c *Context) SetTheme(ctx context.Context, theme records.Theme) error {
	theme = records.Theme(strings.ToLower(strings.TrimSpace(string(theme))))
	if !theme.Valid() {
		return apperr.Validation("set theme", MsgUnsupportedTheme)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.store.SaveTheme(ctx, theme); err != nil {
		return err
	}
	c.theme = theme
	c.logger.DebugContext(ctx, "theme changed", logging.String("theme", string(theme)))
	return nil
}

// ToggleTheme flips between light and dark.
func (c *Context) ToggleTheme(ctx context.Context) (records.Theme, error) {
	next := records.ThemeLight
	if c.Theme() == records.ThemeLight {
		next = records.ThemeDark
	}
	if err := c.SetTheme(ctx, next); err != nil {
		return c.Theme(), err
	}
	return next, nil
}

// AudioSettings returns the narration settings.
func (c *Context) AudioSettings() records.AudioSettings {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.audio
}

// SetAudioVoice changes the voice preference and persists the whole record.
func (c *Context) SetAudioVoice(ctx context.Context, voice records.Voice) error {
	voice = records.Voice(strings.ToLower(strings.TrimSpace(string(voice))))
	if !voice.Valid() {
		return apperr.Validation("set audio voice", MsgUnsupportedVoice)
	}
	return c.updateAudio(ctx, func(s *records.AudioSettings) { s.Voice = voice })
}

// SetAudioLanguage changes the narration language and persists the whole
// record. The tag is stored in canonical form.
func (c *Context) SetAudioLanguage(ctx context.Context, tag string) error {
	canonical, ok := language.Normalize(tag)
	if !ok {
		return apperr.Validation("set audio language", MsgUnsupportedLanguage)
	}
	return c.updateAudio(ctx, func(s *records.AudioSettings) { s.Language = canonical })
}

func (c *Context) updateAudio(ctx context.Context, mutate func(*records.AudioSettings)) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	next := c.audio
	mutate(&next)
	if err := c.store.SaveAudioSettings(ctx, next); err != nil {
		return err
	}
	c.audio = next
	c.logger.DebugContext(ctx, "audio settings changed",
		logging.String("voice", string(next.Voice)),
		logging.String("language", next.Language),
	)
	return nil
}

// Profile returns the user profile.
func (c *Context) Profile() records.Profile {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.profile
}

// SaveProfile replaces the profile wholesale.
func (c *Context) SaveProfile(ctx context.Context, profile records.Profile) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.store.SaveProfile(ctx, profile); err != nil {
		return err
	}
	c.profile = profile
	return nil
}

// SetAvatar stores an uploaded picture as a data URL on the profile.
func (c *Context) SetAvatar(ctx context.Context, mimeType string, data []byte) error {
	url, err := AvatarDataURL(mimeType, data)
	if err != nil {
		return err
	}
	profile := c.Profile()
	profile.AvatarURL = url
	return c.SaveProfile(ctx, profile)
}

// AvatarDataURL encodes an image as a data URL.
func AvatarDataURL(mimeType string, data []byte) (string, error) {
	mimeType = strings.ToLower(strings.TrimSpace(mimeType))
	if !strings.HasPrefix(mimeType, "image/") || len(data) == 0 {
		return "", apperr.Validation("set avatar", MsgAvatarNotImage)
	}
	if len(data) > MaxAvatarBytes {
		return "", apperr.Validation("set avatar", fmt.Sprintf("Profile pictures must be smaller than %d MB.", MaxAvatarBytes>>20))
	}
	return "data:" + mimeType + ";base64," + base64.StdEncoding.EncodeToString(data), nil
}
