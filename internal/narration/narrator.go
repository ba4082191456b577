package narration

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	"arheritage/internal/device"
	"arheritage/internal/logging"
	"arheritage/internal/records"
)

// Speaker is the synthesizer surface a Narrator drives.
type Speaker interface {
	Speak(ctx context.Context, req device.SpeakRequest) (*device.Utterance, error)
	Cancel(u *device.Utterance)
	Voices() []device.Voice
	OnVoicesChanged(fn func([]device.Voice)) func()
}

// SettingsSource supplies the persisted audio settings.
type SettingsSource interface {
	AudioSettings(ctx context.Context) records.AudioSettings
}

// Narrator toggles narration of a text.
type Narrator struct {
	speaker  Speaker
	settings SettingsSource
	logger   *slog.Logger

	mu          sync.Mutex
	voices      []device.Voice
	audio       records.AudioSettings
	selected    *device.Voice
	current     *device.Utterance
	unsubscribe func()
}

// New subscribes to voice list changes; call Close to unsubscribe.
func New(ctx context.Context, speaker Speaker, settings SettingsSource, logger *slog.Logger) *Narrator {
	n := &Narrator{
		speaker:  speaker,
		settings: settings,
		logger:   logging.NewComponentLogger(logger, "narration"),
		audio:    settings.AudioSettings(ctx),
	}
	n.unsubscribe = speaker.OnVoicesChanged(n.voicesChanged)
	n.voicesChanged(speaker.Voices())
	return n
}

func (n *Narrator) voicesChanged(voices []device.Voice) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.voices = voices
	n.deriveLocked()
}

func (n *Narrator) deriveLocked() {
	n.selected = nil
	if v, ok := device.SelectVoice(n.voices, n.audio.Language, string(n.audio.Voice)); ok {
		n.selected = &v
	}
}

// SelectedVoice reports the voice matched for the current settings.
func (n *Narrator) SelectedVoice() (device.Voice, bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.selected == nil {
		return device.Voice{}, false
	}
	return *n.selected, true
}

// Speaking reports whether this narrator's utterance is still playing.
func (n *Narrator) Speaking() bool {
	n.mu.Lock()
	u := n.current
	n.mu.Unlock()
	if u == nil {
		return false
	}
	select {
	case <-u.Done():
		return false
	default:
		return true
	}
}

// Toggle stops narration when speaking; otherwise it cancels any utterance
// and reads text with the stored language and voice. It returns whether
// narration is now playing.
func (n *Narrator) Toggle(ctx context.Context, text string) (bool, error) {
	if n.Speaking() {
		n.Stop()
		return false, nil
	}
	n.Stop()
	if strings.TrimSpace(text) == "" {
		return false, nil
	}

	audio := n.settings.AudioSettings(ctx)
	n.mu.Lock()
	if audio != n.audio {
		n.audio = audio
		n.deriveLocked()
	}
	req := device.SpeakRequest{
		Text:   text,
		Lang:   audio.Language,
		Gender: string(audio.Voice),
		Voice:  n.selected,
	}
	n.mu.Unlock()

	u, err := n.speaker.Speak(ctx, req)
	if err != nil {
		return false, err
	}
	n.mu.Lock()
	n.current = u
	n.mu.Unlock()
	n.logger.DebugContext(ctx, "narration started",
		logging.String("language", audio.Language),
		logging.String("voice", string(audio.Voice)),
	)
	return true, nil
}

// Stop cancels this narrator's utterance. It is always safe to call.
func (n *Narrator) Stop() {
	n.mu.Lock()
	u := n.current
	n.current = nil
	n.mu.Unlock()
	if u != nil {
		n.speaker.Cancel(u)
	}
}

// Close stops narration and unsubscribes from voice changes.
func (n *Narrator) Close() {
	n.Stop()
	n.mu.Lock()
	unsubscribe := n.unsubscribe
	n.unsubscribe = nil
	n.mu.Unlock()
	if unsubscribe != nil {
		unsubscribe()
	}
}
