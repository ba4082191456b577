package app

import (
	"context"
	"errors"
	"strings"
	"testing"

	"arheritage/internal/apperr"
	"arheritage/internal/kvstore"
	"arheritage/internal/records"
)

func newContext(t *testing.T) (*Context, *records.Store, *kvstore.Memory) {
	t.Helper()
	kv := kvstore.NewMemory()
	store := records.New(kv, nil)
	return NewContext(context.Background(), store, nil), store, kv
}

func TestContextDefaults(t *testing.T) {
	c, _, _ := newContext(t)
	if c.Theme() != records.ThemeDark {
		t.Fatalf("theme = %q", c.Theme())
	}
	if got := c.AudioSettings(); got != records.DefaultAudioSettings() {
		t.Fatalf("audio = %+v", got)
	}
	if got := c.Profile(); got != records.DefaultProfile() {
		t.Fatalf("profile = %+v", got)
	}
}

func TestContextLoadsStoredValues(t *testing.T) {
	ctx := context.Background()
	kv := kvstore.NewMemory()
	store := records.New(kv, nil)
	if err := store.SaveTheme(ctx, records.ThemeLight); err != nil {
		t.Fatal(err)
	}
	if err := kv.Set(ctx, records.KeyAudioSettings, `{"language":"ta-IN"}`); err != nil {
		t.Fatal(err)
	}

	c := NewContext(ctx, store, nil)
	if c.Theme() != records.ThemeLight {
		t.Fatalf("theme = %q", c.Theme())
	}
	audio := c.AudioSettings()
	if audio.Voice != records.VoiceFemale || audio.Language != "ta-IN" {
		t.Fatalf("audio = %+v", audio)
	}
}

func TestSetAudioFieldsPersistWholeRecord(t *testing.T) {
	ctx := context.Background()
	c, store, kv := newContext(t)

	if err := c.SetAudioVoice(ctx, records.VoiceMale); err != nil {
		t.Fatal(err)
	}
	if err := c.SetAudioLanguage(ctx, "HI-in"); err != nil {
		t.Fatal(err)
	}
	want := records.AudioSettings{Voice: records.VoiceMale, Language: "hi-IN"}
	if got := store.AudioSettings(ctx); got != want {
		t.Fatalf("stored audio = %+v", got)
	}
	raw, _, _ := kv.Get(ctx, records.KeyAudioSettings)
	if !strings.Contains(raw, `"voice":"male"`) || !strings.Contains(raw, `"language":"hi-IN"`) {
		t.Fatalf("raw = %s", raw)
	}
}

func TestSetAudioRejectsUnsupportedValues(t *testing.T) {
	ctx := context.Background()
	c, _, _ := newContext(t)

	if err := c.SetAudioLanguage(ctx, "fr-FR"); !errors.Is(err, apperr.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if err := c.SetAudioVoice(ctx, "robot"); !errors.Is(err, apperr.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if got := c.AudioSettings(); got != records.DefaultAudioSettings() {
		t.Fatalf("audio changed: %+v", got)
	}
}

func TestToggleThemePersists(t *testing.T) {
	ctx := context.Background()
	c, store, _ := newContext(t)

	theme, err := c.ToggleTheme(ctx)
	if err != nil || theme != records.ThemeLight {
		t.Fatalf("toggle = %q, %v", theme, err)
	}
	if store.Theme(ctx) != records.ThemeLight {
		t.Fatal("theme not persisted")
	}
	if err := c.SetTheme(ctx, "sepia"); !errors.Is(err, apperr.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestSetAvatarStoresDataURL(t *testing.T) {
	ctx := context.Background()
	c, store, _ := newContext(t)

	if err := c.SetAvatar(ctx, "image/png", []byte{0x89, 'P', 'N', 'G'}); err != nil {
		t.Fatal(err)
	}
	got := store.Profile(ctx).AvatarURL
	if got != "data:image/png;base64,iVBORw==" {
		t.Fatalf("avatar = %q", got)
	}
	if err := c.SetAvatar(ctx, "text/plain", []byte("x")); !errors.Is(err, apperr.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestSaveProfileReplacesWholesale(t *testing.T) {
	ctx := context.Background()
	c, store, _ := newContext(t)

	p := records.Profile{Name: "Meera", Email: "meera@example.com"}
	if err := c.SaveProfile(ctx, p); err != nil {
		t.Fatal(err)
	}
	if got := store.Profile(ctx); got != p {
		t.Fatalf("profile = %+v", got)
	}
}
