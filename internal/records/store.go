package records

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"arheritage/internal/kvstore"
	"arheritage/internal/language"
	"arheritage/internal/logging"
)

// Store reads and writes typed records.
type Store struct {
	kv     kvstore.Store
	logger *slog.Logger
	// mu serializes read-modify-write sequences on list records.
	mu sync.Mutex
}

// New wraps kv. A nil logger discards output.
func New(kv kvstore.Store, logger *slog.Logger) *Store {
	return &Store{kv: kv, logger: logging.NewComponentLogger(logger, "records")}
}

// readJSON decodes the value under key into dst. It returns false when the
// key is absent or the value is unusable; dst may have been partially filled
// in the latter case so callers must reset it.
func (s *Store) readJSON(ctx context.Context, key string, dst any) bool {
	raw, ok, err := s.kv.Get(ctx, key)
	if err != nil {
		s.warnUnreadable(ctx, key, err)
		return false
	}
	if !ok || strings.TrimSpace(raw) == "" {
		return false
	}
	if err := json.Unmarshal([]byte(raw), dst); err != nil {
		s.warnUnreadable(ctx, key, err)
		return false
	}
	return true
}

func (s *Store) writeJSON(ctx context.Context, key string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	if err := s.kv.Set(ctx, key, string(data)); err != nil {
		return fmt.Errorf("save %s: %w", key, err)
	}
	return nil
}

func (s *Store) warnUnreadable(ctx context.Context, key string, err error) {
	logging.WarnWithContext(logging.WithContext(ctx, s.logger), "stored record unreadable", "record_unreadable",
		logging.String("key", key),
		logging.Error(err),
		logging.String(logging.FieldErrorHint, "the record will be rewritten on next save"),
		logging.String(logging.FieldImpact, "default value used"),
	)
}

// Accounts returns every registered account.
func (s *Store) Accounts(ctx context.Context) []Account {
	var accounts []Account
	if !s.readJSON(ctx, KeyUserDatabase, &accounts) || accounts == nil {
		return []Account{}
	}
	return accounts
}

// FindAccount returns the account whose email matches case-insensitively.
func (s *Store) FindAccount(ctx context.Context, email string) (Account, bool) {
	for _, account := range s.Accounts(ctx) {
		if strings.EqualFold(account.Email, email) {
			return account, true
		}
	}
	return Account{}, false
}

// EmailTaken reports whether an account with email exists, ignoring case.
func (s *Store) EmailTaken(ctx context.Context, email string) bool {
	_, ok := s.FindAccount(ctx, email)
	return ok
}

// AddAccount appends account unless its email is already registered.
// It returns false without writing when the email is taken.
func (s *Store) AddAccount(ctx context.Context, account Account) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	accounts := s.Accounts(ctx)
	for _, existing := range accounts {
		if strings.EqualFold(existing.Email, account.Email) {
			return false, nil
		}
	}
	accounts = append(accounts, account)
	if err := s.writeJSON(ctx, KeyUserDatabase, accounts); err != nil {
		return false, err
	}
	return true, nil
}

// Profile returns the stored profile merged over DefaultProfile.
func (s *Store) Profile(ctx context.Context) Profile {
	profile := DefaultProfile()
	if !s.readJSON(ctx, KeyUserProfile, &profile) {
		return DefaultProfile()
	}
	return profile
}

// SaveProfile replaces the stored profile.
func (s *Store) SaveProfile(ctx context.Context, profile Profile) error {
	return s.writeJSON(ctx, KeyUserProfile, profile)
}

// Theme returns the stored theme, or ThemeDark for anything unrecognized.
func (s *Store) Theme(ctx context.Context) Theme {
	raw, ok, err := s.kv.Get(ctx, KeyTheme)
	if err != nil {
		s.warnUnreadable(ctx, KeyTheme, err)
		return ThemeDark
	}
	if !ok {
		return ThemeDark
	}
	theme := Theme(strings.Trim(strings.TrimSpace(raw), `"`))
	if !theme.Valid() {
		return ThemeDark
	}
	return theme
}

// SaveTheme stores theme as a bare string.
func (s *Store) SaveTheme(ctx context.Context, theme Theme) error {
	if !theme.Valid() {
		return fmt.Errorf("save %s: unsupported theme %q", KeyTheme, theme)
	}
	if err := s.kv.Set(ctx, KeyTheme, string(theme)); err != nil {
		return fmt.Errorf("save %s: %w", KeyTheme, err)
	}
	return nil
}

// AudioSettings returns the stored settings merged over DefaultAudioSettings.
// An unknown voice or unsupported language reads back as the default for that field.
func (s *Store) AudioSettings(ctx context.Context) AudioSettings {
	defaults := DefaultAudioSettings()
	settings := defaults
	if !s.readJSON(ctx, KeyAudioSettings, &settings) {
		return defaults
	}
	if !settings.Voice.Valid() {
		settings.Voice = defaults.Voice
	}
	if tag, ok := language.Normalize(settings.Language); ok {
		settings.Language = tag
	} else {
		settings.Language = defaults.Language
	}
	return settings
}

// SaveAudioSettings replaces the stored settings.
func (s *Store) SaveAudioSettings(ctx context.Context, settings AudioSettings) error {
	return s.writeJSON(ctx, KeyAudioSettings, settings)
}

// UploadHistory returns contributions, newest first.
func (s *Store) UploadHistory(ctx context.Context) []UploadHistoryItem {
	var items []UploadHistoryItem
	if !s.readJSON(ctx, KeyUploadHistory, &items) || items == nil {
		return []UploadHistoryItem{}
	}
	return items
}

// AddUploadHistory prepends item.
func (s *Store) AddUploadHistory(ctx context.Context, item UploadHistoryItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	items := append([]UploadHistoryItem{item}, s.UploadHistory(ctx)...)
	return s.writeJSON(ctx, KeyUploadHistory, items)
}

// DiscoverHistory returns discovered locations, newest first.
func (s *Store) DiscoverHistory(ctx context.Context) []HistoryItem {
	var items []HistoryItem
	if !s.readJSON(ctx, KeyDiscoverHistory, &items) || items == nil {
		return []HistoryItem{}
	}
	return items
}

// AddDiscoverHistory prepends item unless an entry with the same title
// exists. It reports whether the item was added.
func (s *Store) AddDiscoverHistory(ctx context.Context, item HistoryItem) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	history := s.DiscoverHistory(ctx)
	for _, existing := range history {
		if existing.Title == item.Title {
			return false, nil
		}
	}
	items := append([]HistoryItem{item}, history...)
	if err := s.writeJSON(ctx, KeyDiscoverHistory, items); err != nil {
		return false, err
	}
	return true, nil
}
