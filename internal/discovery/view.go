package discovery

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"arheritage/internal/apperr"
	"arheritage/internal/device"
	"arheritage/internal/logging"
	"arheritage/internal/narration"
	"arheritage/internal/records"
	"arheritage/internal/textutil"
)

// Section is one independently loaded part of a view.
type Section[T any] struct {
	Loading bool   `json:"loading"`
	Err     string `json:"error,omitempty"`
	Value   T      `json:"value"`
}

// LocationInfo is the described surroundings.
type LocationInfo struct {
	Position   device.Position `json:"position"`
	Language   string          `json:"language"`
	Narrative  string          `json:"narrative"`
	Title      string          `json:"title"`
	Paragraphs []string        `json:"paragraphs"`
	ImageURL   string          `json:"imageUrl"`
}

// Place is one nearby heritage site ready for display.
type Place struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	ImageURL    string `json:"imageUrl"`
}

// Snapshot is a copy of a view for rendering. Location is nil on the home
// summary; Recent is only filled there.
type Snapshot struct {
	ID       string                 `json:"id"`
	Mounted  bool                   `json:"mounted"`
	Location *Section[LocationInfo] `json:"location,omitempty"`
	Nearby   Section[[]Place]       `json:"nearby"`
	Recent   []records.HistoryItem  `json:"recent,omitempty"`
	Speaking bool                   `json:"speaking"`
}

// View is a mounted discovery or home screen.
type View struct {
	id       string
	logger   *slog.Logger
	narrator *narration.Narrator

	mu       sync.Mutex
	mounted  bool
	location *Section[LocationInfo]
	nearby   Section[[]Place]
	recent   []records.HistoryItem
	wg       sync.WaitGroup
}

// ID returns the view identifier.
func (v *View) ID() string { return v.id }

// Snapshot copies the current state.
func (v *View) Snapshot() Snapshot {
	v.mu.Lock()
	snap := Snapshot{
		ID:      v.id,
		Mounted: v.mounted,
		Nearby:  v.nearby,
		Recent:  v.recent,
	}
	if v.location != nil {
		loc := *v.location
		snap.Location = &loc
	}
	v.mu.Unlock()
	if v.narrator != nil {
		snap.Speaking = v.narrator.Speaking()
	}
	return snap
}

// Wait blocks until both sections have finished loading.
func (v *View) Wait() {
	v.wg.Wait()
}

// Unmount detaches the view: pending completions are dropped and narration
// stops. In-flight gateway requests are left to finish.
func (v *View) Unmount() {
	v.mu.Lock()
	v.mounted = false
	v.mu.Unlock()
	if v.narrator != nil {
		v.narrator.Close()
	}
}

// Speak toggles narration of the narrative without its title line.
func (v *View) Speak(ctx context.Context) (bool, error) {
	v.mu.Lock()
	var narrative string
	if v.location != nil && !v.location.Loading && v.location.Err == "" {
		narrative = v.location.Value.Narrative
	}
	mounted := v.mounted
	v.mu.Unlock()

	if !mounted {
		return false, fmt.Errorf("view %s is unmounted", v.id)
	}
	if v.narrator == nil {
		return false, apperr.Wrap(apperr.ErrDeviceUnavailable, "speak", device.MsgSpeechUnavailable, nil)
	}
	if narrative == "" {
		return false, apperr.Validation("speak", "Nothing to read aloud yet.")
	}
	return v.narrator.Toggle(ctx, textutil.NarrationText(narrative))
}

// StopSpeech stops narration; it is always safe to call.
func (v *View) StopSpeech() {
	if v.narrator != nil {
		v.narrator.Stop()
	}
}

// apply runs fn under the lock only while the view is mounted.
func (v *View) apply(section string, fn func()) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if !v.mounted {
		v.logger.Debug("dropping completion for unmounted view", logging.String("section", section))
		return
	}
	fn()
}
