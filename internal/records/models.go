package records

import "time"

// Persisted keys.
const (
	KeyUserProfile     = "arHeritage_userProfile"
	KeyUploadHistory   = "arHeritage_uploadHistory"
	KeyDiscoverHistory = "arHeritage_discoverHistory"
	KeyTheme           = "arHeritage_theme"
	KeyAudioSettings   = "arHeritage_audioSettings"
	KeyUserDatabase    = "arHeritage_userDatabase"
)

// DateLayout formats history dates.
const DateLayout = "2006-01-02"

// Account is a registered user. Password holds a bcrypt hash.
type Account struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password,omitempty"`
}

// Profile is the singleton user profile.
type Profile struct {
	Name      string `json:"name"`
	Email     string `json:"email"`
	Bio       string `json:"bio"`
	AvatarURL string `json:"avatarUrl"`
}

// DefaultProfile is returned until a profile is saved.
func DefaultProfile() Profile {
	return Profile{
		Name:      "Alex Doe",
		Email:     "alex.doe@example.com",
		Bio:       "Enthusiast of ancient history and digital preservation.",
		AvatarURL: "https://images.unsplash.com/photo-1534528741775-53994a69daeb?q=80&w=1964&auto=format&fit=crop",
	}
}

// Theme is the colour scheme preference.
type Theme string

const (
	ThemeLight Theme = "light"
	ThemeDark  Theme = "dark"
)

// Valid reports whether t is a known theme.
func (t Theme) Valid() bool {
	return t == ThemeLight || t == ThemeDark
}

// Voice is the narration voice preference.
type Voice string

const (
	VoiceMale   Voice = "male"
	VoiceFemale Voice = "female"
)

// Valid reports whether v is a known voice.
func (v Voice) Valid() bool {
	return v == VoiceMale || v == VoiceFemale
}

// AudioSettings holds narration preferences.
type AudioSettings struct {
	Voice    Voice  `json:"voice"`
	Language string `json:"language"`
}

// DefaultAudioSettings is returned until settings are saved.
func DefaultAudioSettings() AudioSettings {
	return AudioSettings{Voice: VoiceFemale, Language: "en-IN"}
}

// HistoryItem is a discovered location.
type HistoryItem struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Date     string `json:"date"`
	ImageURL string `json:"imageUrl,omitempty"`
}

// UploadHistoryItem is a submitted contribution. FileName is the name the
// user chose; StoredName is the copy under the media directory.
type UploadHistoryItem struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	FileName    string `json:"fileName"`
	StoredName  string `json:"storedName,omitempty"`
	Date        string `json:"date"`
	ImageURL    string `json:"imageUrl,omitempty"`
}

// NewID returns a timestamp-derived identifier.
func NewID(now time.Time) string {
	return now.UTC().Format(time.RFC3339Nano)
}

// FormatDate formats a history date.
func FormatDate(now time.Time) string {
	return now.Format(DateLayout)
}
