package records_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"arheritage/internal/kvstore"
	"arheritage/internal/records"
)

type failingKV struct{}

func (failingKV) Get(context.Context, string) (string, bool, error) {
	return "", false, errors.New("disk unavailable")
}

func (failingKV) Set(context.Context, string, string) error {
	return errors.New("disk unavailable")
}

func newStore(t *testing.T) (*records.Store, *kvstore.Memory) {
	t.Helper()
	kv := kvstore.NewMemory()
	return records.New(kv, nil), kv
}

func TestDefaultsWhenEmpty(t *testing.T) {
	store, _ := newStore(t)
	ctx := context.Background()

	if got := store.Profile(ctx); got != records.DefaultProfile() {
		t.Fatalf("expected default profile, got %+v", got)
	}
	if got := store.Theme(ctx); got != records.ThemeDark {
		t.Fatalf("expected dark theme, got %q", got)
	}
	if got := store.AudioSettings(ctx); got != records.DefaultAudioSettings() {
		t.Fatalf("expected default audio settings, got %+v", got)
	}
	if got := store.DiscoverHistory(ctx); len(got) != 0 || got == nil {
		t.Fatalf("expected empty non-nil history, got %#v", got)
	}
	if got := store.Accounts(ctx); len(got) != 0 {
		t.Fatalf("expected no accounts, got %v", got)
	}
}

func TestCorruptRecordsFailClosed(t *testing.T) {
	store, kv := newStore(t)
	ctx := context.Background()

	corrupt := map[string]string{
		records.KeyUserProfile:     "{not json",
		records.KeyAudioSettings:   `["female"]`,
		records.KeyTheme:           "purple",
		records.KeyDiscoverHistory: `{"title":"x"}`,
		records.KeyUploadHistory:   "null",
		records.KeyUserDatabase:    "42",
	}
	for key, value := range corrupt {
		if err := kv.Set(ctx, key, value); err != nil {
			t.Fatalf("seed %s: %v", key, err)
		}
	}

	if got := store.Profile(ctx); got != records.DefaultProfile() {
		t.Fatalf("expected default profile, got %+v", got)
	}
	if got := store.AudioSettings(ctx); got != records.DefaultAudioSettings() {
		t.Fatalf("expected default audio settings, got %+v", got)
	}
	if got := store.Theme(ctx); got != records.ThemeDark {
		t.Fatalf("expected dark theme, got %q", got)
	}
	if got := store.DiscoverHistory(ctx); len(got) != 0 {
		t.Fatalf("expected empty history, got %v", got)
	}
	if got := store.UploadHistory(ctx); got == nil || len(got) != 0 {
		t.Fatalf("expected empty upload history, got %#v", got)
	}
	if got := store.Accounts(ctx); len(got) != 0 {
		t.Fatalf("expected no accounts, got %v", got)
	}
}

func TestReadErrorsFailClosed(t *testing.T) {
	store := records.New(failingKV{}, nil)
	ctx := context.Background()
	if got := store.AudioSettings(ctx); got != records.DefaultAudioSettings() {
		t.Fatalf("expected defaults, got %+v", got)
	}
	if got := store.Theme(ctx); got != records.ThemeDark {
		t.Fatalf("expected dark, got %q", got)
	}
	if err := store.SaveTheme(ctx, records.ThemeLight); err == nil {
		t.Fatal("expected write error to surface")
	}
}

func TestStoredFieldsMergeOverDefaults(t *testing.T) {
	store, kv := newStore(t)
	ctx := context.Background()

	if err := kv.Set(ctx, records.KeyUserProfile, `{"name":"Priya"}`); err != nil {
		t.Fatalf("seed: %v", err)
	}
	profile := store.Profile(ctx)
	if profile.Name != "Priya" {
		t.Fatalf("expected stored name, got %q", profile.Name)
	}
	if profile.Bio != records.DefaultProfile().Bio {
		t.Fatalf("expected default bio, got %q", profile.Bio)
	}

	if err := kv.Set(ctx, records.KeyAudioSettings, `{"language":"hi-in","voice":"robot"}`); err != nil {
		t.Fatalf("seed: %v", err)
	}
	audio := store.AudioSettings(ctx)
	if audio.Language != "hi-IN" {
		t.Fatalf("expected canonical hindi tag, got %q", audio.Language)
	}
	if audio.Voice != records.VoiceFemale {
		t.Fatalf("expected invalid voice to read as default, got %q", audio.Voice)
	}
}

func TestThemeRoundTripStoresBareString(t *testing.T) {
	store, kv := newStore(t)
	ctx := context.Background()

	if err := store.SaveTheme(ctx, records.ThemeLight); err != nil {
		t.Fatalf("SaveTheme: %v", err)
	}
	raw, _, _ := kv.Get(ctx, records.KeyTheme)
	if raw != "light" {
		t.Fatalf("expected bare theme value, got %q", raw)
	}
	if got := store.Theme(ctx); got != records.ThemeLight {
		t.Fatalf("expected light, got %q", got)
	}
	if err := store.SaveTheme(ctx, records.Theme("sepia")); err == nil {
		t.Fatal("expected unsupported theme to be rejected")
	}
}

func TestDiscoverHistoryFirstTitleWins(t *testing.T) {
	store, _ := newStore(t)
	ctx := context.Background()

	first := records.HistoryItem{ID: "1", Title: "Red Fort", Date: "2024-01-01"}
	second := records.HistoryItem{ID: "2", Title: "Red Fort", Date: "2024-02-02"}
	third := records.HistoryItem{ID: "3", Title: "India Gate", Date: "2024-03-03"}

	for i, item := range []records.HistoryItem{first, second, third} {
		added, err := store.AddDiscoverHistory(ctx, item)
		if err != nil {
			t.Fatalf("add %d: %v", i, err)
		}
		if wantAdded := item.ID != "2"; added != wantAdded {
			t.Fatalf("item %s added=%v want %v", item.ID, added, wantAdded)
		}
	}

	history := store.DiscoverHistory(ctx)
	if len(history) != 2 {
		t.Fatalf("expected 2 items, got %v", history)
	}
	if history[0].ID != "3" || history[1].ID != "1" {
		t.Fatalf("expected newest first with first writer kept, got %v", history)
	}
}

func TestUploadHistoryNoDedup(t *testing.T) {
	store, _ := newStore(t)
	ctx := context.Background()
	item := records.UploadHistoryItem{ID: "a", Title: "Stepwell", FileName: "well.jpg"}
	for i := 0; i < 2; i++ {
		if err := store.AddUploadHistory(ctx, item); err != nil {
			t.Fatalf("AddUploadHistory: %v", err)
		}
	}
	if got := store.UploadHistory(ctx); len(got) != 2 {
		t.Fatalf("expected duplicates kept, got %v", got)
	}
}

func TestAddAccountCaseInsensitiveUniqueness(t *testing.T) {
	store, _ := newStore(t)
	ctx := context.Background()

	added, err := store.AddAccount(ctx, records.Account{Name: "A", Email: "User@x.com", Password: "hash"})
	if err != nil || !added {
		t.Fatalf("first add: added=%v err=%v", added, err)
	}
	added, err = store.AddAccount(ctx, records.Account{Name: "B", Email: "user@X.com", Password: "hash"})
	if err != nil || added {
		t.Fatalf("duplicate add: added=%v err=%v", added, err)
	}
	if !store.EmailTaken(ctx, "USER@x.COM") {
		t.Fatal("expected email to be taken")
	}
	if got := store.Accounts(ctx); len(got) != 1 {
		t.Fatalf("expected one account, got %v", got)
	}
}

func TestIDAndDateFormats(t *testing.T) {
	now := time.Date(2024, 5, 6, 7, 8, 9, 123, time.UTC)
	if got := records.NewID(now); got != "2024-05-06T07:08:09.000000123Z" {
		t.Fatalf("unexpected id %q", got)
	}
	if got := records.FormatDate(now); got != "2024-05-06" {
		t.Fatalf("unexpected date %q", got)
	}
}
