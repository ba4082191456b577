package device

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"slices"
	"strconv"
	"strings"
	"sync"

	"arheritage/internal/apperr"
	"arheritage/internal/config"
	"arheritage/internal/language"
	"arheritage/internal/logging"
)

// MsgSpeechUnavailable is shown when narration cannot run.
const MsgSpeechUnavailable = "Speech synthesis is not available on this device."

// Voice is one installed synthesizer voice.
type Voice struct {
	Name string `json:"name"`
	Lang string `json:"lang"`
	File string `json:"file,omitempty"`
}

// SelectVoice returns the first voice whose language equals lang and whose
// name contains preference, compared case-insensitively.
func SelectVoice(voices []Voice, lang, preference string) (Voice, bool) {
	preference = strings.ToLower(strings.TrimSpace(preference))
	for _, v := range voices {
		if !strings.EqualFold(v.Lang, lang) {
			continue
		}
		if strings.Contains(strings.ToLower(v.Name), preference) {
			return v, true
		}
	}
	return Voice{}, false
}

// SpeakRequest describes one utterance. Gender ("male" or "female") picks an
// espeak variant when Voice is nil.
type SpeakRequest struct {
	Text   string
	Lang   string
	Gender string
	Voice  *Voice
}

// Utterance is a handle on a running narration.
type Utterance struct {
	cancel context.CancelFunc
	done   chan struct{}
	err    error
}

// Done is closed when the utterance ends, fails or is cancelled.
func (u *Utterance) Done() <-chan struct{} {
	return u.done
}

// Err reports the failure after Done is closed. Cancellation yields
// context.Canceled.
func (u *Utterance) Err() error {
	<-u.done
	return u.err
}

type playFunc func(ctx context.Context, name string, args ...string) error

func execPlay(ctx context.Context, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...) //nolint:gosec
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return fmt.Errorf("%s: %w: %s", name, err, strings.TrimSpace(stderr.String()))
	}
	return nil
}

// Speech drives espeak-ng. At most one utterance plays at a time.
type Speech struct {
	binary  string
	rate    int
	enabled bool
	logger  *slog.Logger
	runner  CommandRunner
	play    playFunc

	mu          sync.Mutex
	voices      []Voice
	subscribers map[int]func([]Voice)
	nextSubID   int
	current     *Utterance
}

// SpeechOption customizes Speech.
type SpeechOption func(*Speech)

// WithVoiceLister replaces the runner used for `--voices`.
func WithVoiceLister(runner CommandRunner) SpeechOption {
	return func(s *Speech) {
		if runner != nil {
			s.runner = runner
		}
	}
}

// WithPlayer replaces the blocking playback call.
func WithPlayer(play func(ctx context.Context, name string, args ...string) error) SpeechOption {
	return func(s *Speech) {
		if play != nil {
			s.play = play
		}
	}
}

// NewSpeech builds the adapter from the [speech] config section.
func NewSpeech(cfg *config.Config, logger *slog.Logger, opts ...SpeechOption) *Speech {
	s := &Speech{
		binary:      "espeak-ng",
		rate:        160,
		enabled:     true,
		logger:      logging.NewComponentLogger(logger, "speech"),
		runner:      execCommandRunner{},
		play:        execPlay,
		subscribers: make(map[int]func([]Voice)),
	}
	if cfg != nil {
		s.enabled = cfg.Speech.Enabled
		if strings.TrimSpace(cfg.Speech.Binary) != "" {
			s.binary = cfg.Speech.Binary
		}
		if cfg.Speech.Rate > 0 {
			s.rate = cfg.Speech.Rate
		}
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Enabled reports whether narration is configured on.
func (s *Speech) Enabled() bool {
	return s.enabled
}

// Voices returns the last enumerated voice list.
func (s *Speech) Voices() []Voice {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.voices)
}

// OnVoicesChanged registers fn to run whenever the voice list changes. The
// returned func unregisters it.
func (s *Speech) OnVoicesChanged(fn func([]Voice)) func() {
	s.mu.Lock()
	id := s.nextSubID
	s.nextSubID++
	s.subscribers[id] = fn
	s.mu.Unlock()
	return func() {
		s.mu.Lock()
		delete(s.subscribers, id)
		s.mu.Unlock()
	}
}

// LoadVoices enumerates installed voices and notifies subscribers when the
// list differs from the previous enumeration.
func (s *Speech) LoadVoices(ctx context.Context) error {
	if !s.enabled {
		return nil
	}
	out, err := s.runner.Output(ctx, s.binary, "--voices")
	if err != nil {
		return apperr.Wrap(apperr.ErrDeviceUnavailable, "list voices", MsgSpeechUnavailable, err)
	}
	voices := parseVoices(out)

	s.mu.Lock()
	if slices.Equal(voices, s.voices) {
		s.mu.Unlock()
		return nil
	}
	s.voices = voices
	subs := make([]func([]Voice), 0, len(s.subscribers))
	for _, fn := range s.subscribers {
		subs = append(subs, fn)
	}
	s.mu.Unlock()

	s.logger.Debug("voice list updated", logging.Int("voices", len(voices)))
	for _, fn := range subs {
		fn(slices.Clone(voices))
	}
	return nil
}

// RefreshVoices enumerates voices in the background.
func (s *Speech) RefreshVoices(ctx context.Context) {
	go func() {
		if err := s.LoadVoices(ctx); err != nil {
			logging.WarnWithContext(s.logger, "voice enumeration failed", "voice_list_failed",
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "install espeak-ng or set speech.binary"),
				logging.String(logging.FieldImpact, "narration uses the default voice for each language"),
			)
		}
	}()
}

// parseVoices reads the `espeak-ng --voices` table:
//
//	Pty Language       Age/Gender VoiceName          File                 Other Languages
//	 5  hi              --/M      Hindi              inc/hi
func parseVoices(out []byte) []Voice {
	var voices []Voice
	scanner := bufio.NewScanner(bytes.NewReader(out))
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) < 4 {
			continue
		}
		if _, err := strconv.Atoi(fields[0]); err != nil {
			continue
		}
		voice := Voice{
			Lang: fields[1],
			Name: strings.ReplaceAll(fields[3], "_", " "),
		}
		if len(fields) > 4 {
			voice.File = fields[4]
		}
		voices = append(voices, voice)
	}
	return voices
}

// Speak cancels any current utterance and starts a new one.
func (s *Speech) Speak(ctx context.Context, req SpeakRequest) (*Utterance, error) {
	if !s.enabled {
		return nil, apperr.Wrap(apperr.ErrDeviceUnavailable, "speak", MsgSpeechUnavailable,
			errors.New("speech disabled in config"))
	}
	text := strings.TrimSpace(req.Text)
	if text == "" {
		return nil, apperr.Validation("speak", "Nothing to read aloud.")
	}

	s.Stop()

	playCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	u := &Utterance{cancel: cancel, done: make(chan struct{})}
	args := s.speakArgs(req, text)

	s.mu.Lock()
	s.current = u
	s.mu.Unlock()

	go func() {
		err := s.play(playCtx, s.binary, args...)
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.WarnWithContext(s.logger, "narration failed", "speech_failed",
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "check espeak-ng and the audio output"),
				logging.String(logging.FieldImpact, "description not read aloud"),
			)
		}
		u.err = err
		cancel()
		close(u.done)
		s.mu.Lock()
		if s.current == u {
			s.current = nil
		}
		s.mu.Unlock()
	}()
	return u, nil
}

func (s *Speech) speakArgs(req SpeakRequest, text string) []string {
	voice := language.EspeakVoice(req.Lang)
	if req.Voice != nil && strings.TrimSpace(req.Voice.Name) != "" {
		voice = strings.ReplaceAll(req.Voice.Name, " ", "_")
	} else {
		switch strings.ToLower(req.Gender) {
		case "female":
			voice += "+f3"
		case "male":
			voice += "+m3"
		}
	}
	return []string{"-s", strconv.Itoa(s.rate), "-v", voice, "--", text}
}

// Speaking reports whether an utterance is playing.
func (s *Speech) Speaking() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current != nil
}

// Stop cancels the current utterance and waits for playback to end.
func (s *Speech) Stop() {
	s.mu.Lock()
	u := s.current
	s.current = nil
	s.mu.Unlock()
	if u == nil {
		return
	}
	u.cancel()
	<-u.done
}

// Cancel stops u only if it is still the current utterance.
func (s *Speech) Cancel(u *Utterance) {
	if u == nil {
		return
	}
	s.mu.Lock()
	current := s.current == u
	if current {
		s.current = nil
	}
	s.mu.Unlock()
	if current {
		u.cancel()
		<-u.done
	}
}
