package scan

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"arheritage/internal/apperr"
	"arheritage/internal/device"
	"arheritage/internal/gemini"
	"arheritage/internal/logging"
	"arheritage/internal/textutil"
)

const (
	// MsgAnalyzeFailedPrefix precedes every analysis error shown in Result.
	MsgAnalyzeFailedPrefix = "Failed to analyze image. "
	// MsgUnknownError is used when a failure carries no user-facing message.
	MsgUnknownError = "An unknown error occurred."
	// MsgNoImage rejects an empty caller-supplied frame.
	MsgNoImage = "No image was captured."
	// MsgRatingRequired rejects feedback without a rating.
	MsgRatingRequired = "Please choose whether the information was helpful."

	// FeedbackCloseDelay is how long the confirmation shows before closing.
	FeedbackCloseDelay = 2 * time.Second
)

var (
	// ErrCaptureIgnored is returned when capture is not allowed in the
	// current state (paused, analyzing or not on the camera).
	ErrCaptureIgnored = errors.New("capture ignored")
	// ErrInvalidTransition is returned for actions the current state does
	// not offer.
	ErrInvalidTransition = errors.New("invalid scan transition")
)

// Capturer is the camera surface a session drives.
type Capturer interface {
	Start(ctx context.Context) error
	Capture(ctx context.Context) (device.Frame, error)
	Pause()
	Resume()
	Stop()
}

// Describer is the image-description operation of the AI gateway.
type Describer interface {
	DescribeImage(ctx context.Context, image []byte, mimeType string) (gemini.ImageDescription, error)
}

// Narrator reads a result aloud.
type Narrator interface {
	Toggle(ctx context.Context, text string) (bool, error)
	Stop()
}

// Session is one scan from opening the camera to Close.
type Session struct {
	id         string
	camera     Capturer
	gateway    Describer
	narrator   Narrator
	logger     *slog.Logger
	closeDelay time.Duration
	onClose    func()

	mu         sync.Mutex
	state      State
	generation uint64
	closeTimer *time.Timer
	inflight   sync.WaitGroup
	// streamLive is true once Open started the camera; openState is the
	// Camera state Open left behind and is restored by ScanAgain.
	streamLive bool
	openState  Camera
}

// Option customizes a Session.
type Option func(*Session)

// WithNarrator lets the session read results aloud.
func WithNarrator(n Narrator) Option {
	return func(s *Session) { s.narrator = n }
}

// WithCloseDelay overrides FeedbackCloseDelay.
func WithCloseDelay(d time.Duration) Option {
	return func(s *Session) {
		if d >= 0 {
			s.closeDelay = d
		}
	}
}

// WithOnClose registers fn to run once the session closes.
func WithOnClose(fn func()) Option {
	return func(s *Session) { s.onClose = fn }
}

// NewSession creates a session in the Camera state with the stream not yet
// started. camera may be nil when frames are always supplied by the caller.
func NewSession(camera Capturer, gateway Describer, logger *slog.Logger, opts ...Option) *Session {
	id := uuid.NewString()
	s := &Session{
		id:         id,
		camera:     camera,
		gateway:    gateway,
		closeDelay: FeedbackCloseDelay,
		state:      Camera{},
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = logging.NewComponentLogger(logger, "scan").With(logging.String(logging.FieldSessionID, id))
	return s
}

// ID returns the session identifier.
func (s *Session) ID() string { return s.id }

// Snapshot returns the current state.
func (s *Session) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Wait blocks until in-flight analyses have completed.
func (s *Session) Wait() {
	s.inflight.Wait()
}

// Open starts the camera stream and enters Camera. A device failure leaves
// the session on Camera with the error and is also returned.
func (s *Session) Open(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.state.(Camera); !ok {
		return fmt.Errorf("%w: open from %s", ErrInvalidTransition, s.state.Name())
	}
	if s.camera == nil {
		err := apperr.Wrap(apperr.ErrDeviceUnavailable, "scan open", device.MsgCameraAccess, errors.New("no camera attached"))
		s.openState = Camera{Err: device.MsgCameraAccess, ErrKind: apperr.Kind(err)}
		s.state = s.openState
		return err
	}
	if err := s.camera.Start(ctx); err != nil {
		s.openState = Camera{Err: apperr.UserMessage(err, device.MsgCameraAccess), ErrKind: apperr.Kind(err)}
		s.state = s.openState
		return err
	}
	s.streamLive = true
	s.openState = Camera{Live: true}
	s.state = s.openState
	s.logger.InfoContext(ctx, "scan session opened", logging.String(logging.FieldEventType, "scan_opened"))
	return nil
}

// Capture grabs a frame from the live stream and sends it for analysis.
func (s *Session) Capture(ctx context.Context) error {
	s.mu.Lock()
	cam, ok := s.state.(Camera)
	if !ok || !cam.Live || !s.streamLive {
		s.mu.Unlock()
		return ErrCaptureIgnored
	}
	s.camera.Pause()
	s.state = Analyzing{}
	s.generation++
	gen := s.generation
	s.inflight.Add(1)
	s.mu.Unlock()

	go func() {
		defer s.inflight.Done()
		frame, err := s.camera.Capture(ctx)
		if err != nil {
			s.complete(ctx, gen, gemini.ImageDescription{}, err)
			return
		}
		s.analyze(ctx, gen, frame)
	}()
	return nil
}

// CaptureImage analyzes a caller-supplied frame. It is accepted from the
// Camera state even when the local stream failed to start.
func (s *Session) CaptureImage(ctx context.Context, data []byte, mimeType string) error {
	if len(data) == 0 {
		return apperr.Validation("scan capture", MsgNoImage)
	}
	mimeType = strings.TrimSpace(mimeType)
	if mimeType == "" {
		mimeType = device.JPEGMimeType
	}

	s.mu.Lock()
	if _, ok := s.state.(Camera); !ok {
		s.mu.Unlock()
		return ErrCaptureIgnored
	}
	if s.camera != nil {
		s.camera.Pause()
	}
	s.state = Analyzing{}
	s.generation++
	gen := s.generation
	s.inflight.Add(1)
	s.mu.Unlock()

	go func() {
		defer s.inflight.Done()
		s.analyze(ctx, gen, device.Frame{Data: data, MimeType: mimeType})
	}()
	return nil
}

func (s *Session) analyze(ctx context.Context, gen uint64, frame device.Frame) {
	// Navigation must not cancel the request; only its result is discarded.
	reqCtx := context.WithoutCancel(ctx)
	start := time.Now()
	desc, err := s.gateway.DescribeImage(reqCtx, frame.Data, frame.MimeType)
	s.logger.DebugContext(ctx, "image analysis finished",
		logging.Duration("elapsed", time.Since(start)),
		logging.Bool("ok", err == nil),
	)
	s.complete(ctx, gen, desc, err)
}

func (s *Session) complete(ctx context.Context, gen uint64, desc gemini.ImageDescription, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.generation {
		s.logger.DebugContext(ctx, "discarding stale analysis", logging.Int("generation", int(gen)))
		return
	}
	if _, ok := s.state.(Analyzing); !ok {
		return
	}
	if err != nil {
		logging.WarnWithContext(s.logger, "image analysis failed", "scan_analysis_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check gemini.api_key and network connectivity"),
			logging.String(logging.FieldImpact, "scan shows an error; user may scan again"),
		)
		s.state = Result{Err: MsgAnalyzeFailedPrefix + apperr.UserMessage(err, MsgUnknownError)}
		return
	}
	s.state = buildResult(desc.Text)
}

func buildResult(text string) Result {
	info, hint, found := textutil.SplitMarker(text, textutil.VideoSearchMarker)
	result := Result{Info: info, Paragraphs: textutil.Paragraphs(info)}
	if len(result.Paragraphs) > 0 {
		result.Title = strings.TrimSpace(result.Paragraphs[0])
	}
	if found {
		result.VideoURL = textutil.VideoSearchURL(hint)
	}
	return result
}

// ScanAgain clears the result and resumes the stream. When the stream never
// started, the session returns to Camera with the original open error.
func (s *Session) ScanAgain() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch st := s.state.(type) {
	case Result:
	case Feedback:
		if st.Submitted {
			return fmt.Errorf("%w: feedback already submitted", ErrInvalidTransition)
		}
	default:
		return fmt.Errorf("%w: scan again from %s", ErrInvalidTransition, s.state.Name())
	}
	s.stopNarrationLocked()
	s.generation++
	if !s.streamLive {
		s.state = s.openState
		return nil
	}
	s.camera.Resume()
	s.state = Camera{Live: true}
	return nil
}

// ProvideFeedback opens the rating form for a successful result.
func (s *Session) ProvideFeedback() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	res, ok := s.state.(Result)
	if !ok || res.Failed() {
		return fmt.Errorf("%w: feedback from %s", ErrInvalidTransition, s.state.Name())
	}
	s.state = Feedback{Result: res}
	return nil
}

// BackToResult leaves the feedback form without submitting.
func (s *Session) BackToResult() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	fb, ok := s.state.(Feedback)
	if !ok || fb.Submitted {
		return fmt.Errorf("%w: back from %s", ErrInvalidTransition, s.state.Name())
	}
	s.state = fb.Result
	return nil
}

// SubmitFeedback records the rating and closes the session after the
// confirmation delay.
func (s *Session) SubmitFeedback(ctx context.Context, rating, comment string) error {
	r, ok := ParseRating(strings.ToLower(strings.TrimSpace(rating)))
	if !ok {
		return apperr.Validation("scan feedback", MsgRatingRequired)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	fb, isFeedback := s.state.(Feedback)
	if !isFeedback || fb.Submitted {
		return fmt.Errorf("%w: submit feedback from %s", ErrInvalidTransition, s.state.Name())
	}
	fb.Rating = r
	fb.Comment = strings.TrimSpace(comment)
	fb.Submitted = true
	s.state = fb

	s.logger.InfoContext(ctx, "scan feedback received",
		logging.String(logging.FieldEventType, "scan_feedback"),
		logging.String("rating", string(r)),
		logging.String("comment", fb.Comment),
		logging.String("title", fb.Result.Title),
	)

	gen := s.generation
	s.closeTimer = time.AfterFunc(s.closeDelay, func() {
		s.closeIfGeneration(gen)
	})
	return nil
}

func (s *Session) closeIfGeneration(gen uint64) {
	s.mu.Lock()
	if s.generation != gen {
		s.mu.Unlock()
		return
	}
	onClose := s.closeLocked()
	s.mu.Unlock()
	if onClose != nil {
		onClose()
	}
}

// Speak toggles narration of the current result body.
func (s *Session) Speak(ctx context.Context) (bool, error) {
	s.mu.Lock()
	var info string
	switch st := s.state.(type) {
	case Result:
		info = st.Info
	case Feedback:
		info = st.Result.Info
	}
	narrator := s.narrator
	s.mu.Unlock()
	if narrator == nil || info == "" {
		return false, fmt.Errorf("%w: nothing to read", ErrInvalidTransition)
	}
	return narrator.Toggle(ctx, textutil.NarrationText(info))
}

// Close releases the camera, stops narration and discards transient state.
// It is valid from any state and idempotent.
func (s *Session) Close() {
	s.mu.Lock()
	onClose := s.closeLocked()
	s.mu.Unlock()
	if onClose != nil {
		onClose()
	}
}

func (s *Session) closeLocked() func() {
	if _, ok := s.state.(Closed); ok {
		return nil
	}
	s.generation++
	if s.closeTimer != nil {
		s.closeTimer.Stop()
		s.closeTimer = nil
	}
	if s.camera != nil {
		s.camera.Stop()
	}
	s.streamLive = false
	s.stopNarrationLocked()
	s.state = Closed{}
	s.logger.Info("scan session closed", logging.String(logging.FieldEventType, "scan_closed"))
	return s.onClose
}

func (s *Session) stopNarrationLocked() {
	if s.narrator != nil {
		s.narrator.Stop()
	}
}
