package scan

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"arheritage/internal/apperr"
	"arheritage/internal/device"
	"arheritage/internal/gemini"
)

type fakeCamera struct {
	mu       sync.Mutex
	startErr error
	paused   bool
	stopped  bool
	captures int
}

func (c *fakeCamera) Start(context.Context) error { return c.startErr }

func (c *fakeCamera) Capture(context.Context) (device.Frame, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.captures++
	return device.Frame{Data: []byte{0xff, 0xd8}, MimeType: device.JPEGMimeType}, nil
}

func (c *fakeCamera) Pause() {
	c.mu.Lock()
	c.paused = true
	c.mu.Unlock()
}

func (c *fakeCamera) Resume() {
	c.mu.Lock()
	c.paused = false
	c.mu.Unlock()
}

func (c *fakeCamera) Stop() {
	c.mu.Lock()
	c.stopped = true
	c.mu.Unlock()
}

type fakeGateway struct {
	calls   atomic.Int32
	release chan struct{}
	text    string
	err     error
}

func (g *fakeGateway) DescribeImage(ctx context.Context, image []byte, mimeType string) (gemini.ImageDescription, error) {
	g.calls.Add(1)
	if g.release != nil {
		<-g.release
	}
	if g.err != nil {
		return gemini.ImageDescription{}, g.err
	}
	return gemini.ImageDescription{Text: g.text}, nil
}

type fakeNarrator struct {
	stops atomic.Int32
	text  string
}

func (n *fakeNarrator) Toggle(_ context.Context, text string) (bool, error) {
	n.text = text
	return true, nil
}

func (n *fakeNarrator) Stop() { n.stops.Add(1) }

const tajMahal = "Taj Mahal\nBuilt in 1653...\nVIDEO_SEARCH: Taj Mahal drone"

func openSession(t *testing.T, gw *fakeGateway, opts ...Option) (*Session, *fakeCamera) {
	t.Helper()
	cam := &fakeCamera{}
	s := NewSession(cam, gw, nil, opts...)
	if err := s.Open(context.Background()); err != nil {
		t.Fatalf("Open: %v", err)
	}
	return s, cam
}

func TestCaptureProducesResultWithVideoLink(t *testing.T) {
	s, cam := openSession(t, &fakeGateway{text: tajMahal})

	if err := s.Capture(context.Background()); err != nil {
		t.Fatalf("Capture: %v", err)
	}
	s.Wait()

	res, ok := s.Snapshot().(Result)
	if !ok {
		t.Fatalf("state = %s, want result", s.Snapshot().Name())
	}
	if res.Title != "Taj Mahal" {
		t.Fatalf("title = %q", res.Title)
	}
	if len(res.Paragraphs) != 2 || res.Paragraphs[1] != "Built in 1653..." {
		t.Fatalf("paragraphs = %q", res.Paragraphs)
	}
	if res.VideoURL != "https://www.youtube.com/results?search_query=Taj%20Mahal%20drone" {
		t.Fatalf("video url = %q", res.VideoURL)
	}
	if !cam.paused {
		t.Fatal("camera should stay paused on result")
	}
}

func TestResultWithoutMarkerHasNoVideo(t *testing.T) {
	s, _ := openSession(t, &fakeGateway{text: "Old Fort\nA ruin."})
	if err := s.Capture(context.Background()); err != nil {
		t.Fatal(err)
	}
	s.Wait()
	res := s.Snapshot().(Result)
	if res.VideoURL != "" || res.Info != "Old Fort\nA ruin." {
		t.Fatalf("unexpected result %+v", res)
	}
}

func TestSecondCaptureWhileAnalyzingIsIgnored(t *testing.T) {
	gw := &fakeGateway{text: tajMahal, release: make(chan struct{})}
	s, cam := openSession(t, gw)

	if err := s.Capture(context.Background()); err != nil {
		t.Fatal(err)
	}
	if err := s.Capture(context.Background()); !errors.Is(err, ErrCaptureIgnored) {
		t.Fatalf("second capture: %v", err)
	}
	if err := s.CaptureImage(context.Background(), []byte{1}, "image/png"); !errors.Is(err, ErrCaptureIgnored) {
		t.Fatalf("image while analyzing: %v", err)
	}
	if _, ok := s.Snapshot().(Analyzing); !ok {
		t.Fatalf("state = %s", s.Snapshot().Name())
	}
	close(gw.release)
	s.Wait()

	if got := gw.calls.Load(); got != 1 {
		t.Fatalf("gateway calls = %d, want 1", got)
	}
	if cam.captures != 1 {
		t.Fatalf("frames grabbed = %d", cam.captures)
	}
}

func TestAnalysisFailureMessage(t *testing.T) {
	gwErr := &gemini.GatewayError{Op: "describe image", UserMessage: gemini.MsgDescribeImage, Err: errors.New("boom")}
	s, _ := openSession(t, &fakeGateway{err: gwErr})
	if err := s.Capture(context.Background()); err != nil {
		t.Fatal(err)
	}
	s.Wait()
	res := s.Snapshot().(Result)
	want := "Failed to analyze image. Could not retrieve information from Gemini API."
	if res.Err != want {
		t.Fatalf("error = %q, want %q", res.Err, want)
	}
	if err := s.ProvideFeedback(); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("feedback on failed result: %v", err)
	}

	s2, _ := openSession(t, &fakeGateway{err: errors.New("plain")})
	if err := s2.Capture(context.Background()); err != nil {
		t.Fatal(err)
	}
	s2.Wait()
	if got := s2.Snapshot().(Result).Err; got != "Failed to analyze image. An unknown error occurred." {
		t.Fatalf("fallback error = %q", got)
	}
}

func TestScanAgainResumesCamera(t *testing.T) {
	s, cam := openSession(t, &fakeGateway{text: tajMahal})
	if err := s.ScanAgain(); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("scan again from camera: %v", err)
	}
	if err := s.Capture(context.Background()); err != nil {
		t.Fatal(err)
	}
	s.Wait()
	if err := s.ScanAgain(); err != nil {
		t.Fatalf("ScanAgain: %v", err)
	}
	cam0, ok := s.Snapshot().(Camera)
	if !ok || !cam0.Live {
		t.Fatalf("state = %#v", s.Snapshot())
	}
	if cam.paused {
		t.Fatal("camera should be resumed")
	}
}

func TestLateResultDiscardedAfterClose(t *testing.T) {
	gw := &fakeGateway{text: tajMahal, release: make(chan struct{})}
	var closed atomic.Int32
	s, cam := openSession(t, gw, WithOnClose(func() { closed.Add(1) }))

	if err := s.Capture(context.Background()); err != nil {
		t.Fatal(err)
	}
	s.Close()
	close(gw.release)
	s.Wait()

	if _, ok := s.Snapshot().(Closed); !ok {
		t.Fatalf("state = %s, want closed", s.Snapshot().Name())
	}
	if !cam.stopped {
		t.Fatal("camera not released")
	}
	s.Close()
	if closed.Load() != 1 {
		t.Fatalf("onClose calls = %d", closed.Load())
	}
}

func TestFeedbackFlowClosesAfterDelay(t *testing.T) {
	closed := make(chan struct{})
	narrator := &fakeNarrator{}
	s, _ := openSession(t, &fakeGateway{text: tajMahal},
		WithCloseDelay(10*time.Millisecond),
		WithOnClose(func() { close(closed) }),
		WithNarrator(narrator),
	)
	if err := s.Capture(context.Background()); err != nil {
		t.Fatal(err)
	}
	s.Wait()

	if speaking, err := s.Speak(context.Background()); err != nil || !speaking {
		t.Fatalf("Speak: %v %v", speaking, err)
	}
	if narrator.text != "Built in 1653..." {
		t.Fatalf("narrated %q", narrator.text)
	}

	if err := s.ProvideFeedback(); err != nil {
		t.Fatalf("ProvideFeedback: %v", err)
	}
	err := s.SubmitFeedback(context.Background(), "", "nice")
	if !errors.Is(err, apperr.ErrValidation) {
		t.Fatalf("missing rating: %v", err)
	}
	if err := s.SubmitFeedback(context.Background(), "good", "  very helpful "); err != nil {
		t.Fatalf("SubmitFeedback: %v", err)
	}
	fb := s.Snapshot().(Feedback)
	if !fb.Submitted || fb.Rating != RatingGood || fb.Comment != "very helpful" {
		t.Fatalf("feedback = %+v", fb)
	}

	select {
	case <-closed:
	case <-time.After(time.Second):
		t.Fatal("session did not auto-close")
	}
	if _, ok := s.Snapshot().(Closed); !ok {
		t.Fatalf("state = %s", s.Snapshot().Name())
	}
	if narrator.stops.Load() == 0 {
		t.Fatal("narration not stopped on close")
	}
}

func TestOpenCameraFailure(t *testing.T) {
	cam := &fakeCamera{startErr: apperr.Wrap(apperr.ErrPermissionDenied, "camera start", device.MsgCameraAccess, errors.New("EACCES"))}
	s := NewSession(cam, &fakeGateway{text: tajMahal}, nil)
	if err := s.Open(context.Background()); !errors.Is(err, apperr.ErrPermissionDenied) {
		t.Fatalf("Open: %v", err)
	}
	st := s.Snapshot().(Camera)
	if st.Live || st.Err != device.MsgCameraAccess || st.ErrKind != "permission_denied" {
		t.Fatalf("state = %+v", st)
	}
	if err := s.Capture(context.Background()); !errors.Is(err, ErrCaptureIgnored) {
		t.Fatalf("capture without stream: %v", err)
	}

	if err := s.CaptureImage(context.Background(), nil, ""); !errors.Is(err, apperr.ErrValidation) {
		t.Fatalf("empty image: %v", err)
	}
	if err := s.CaptureImage(context.Background(), []byte{1, 2}, "image/png"); err != nil {
		t.Fatalf("CaptureImage: %v", err)
	}
	s.Wait()
	if _, ok := s.Snapshot().(Result); !ok {
		t.Fatalf("state = %s", s.Snapshot().Name())
	}
}

func TestScanAgainAfterOpenFailureKeepsCameraError(t *testing.T) {
	cam := &fakeCamera{startErr: apperr.Wrap(apperr.ErrPermissionDenied, "camera start", device.MsgCameraAccess, errors.New("EACCES"))}
	s := NewSession(cam, &fakeGateway{text: tajMahal}, nil)
	if err := s.Open(context.Background()); err == nil {
		t.Fatal("expected Open to fail")
	}
	if err := s.CaptureImage(context.Background(), []byte{1, 2}, "image/png"); err != nil {
		t.Fatalf("CaptureImage: %v", err)
	}
	s.Wait()

	if err := s.ScanAgain(); err != nil {
		t.Fatalf("ScanAgain: %v", err)
	}
	st, ok := s.Snapshot().(Camera)
	if !ok {
		t.Fatalf("state = %s", s.Snapshot().Name())
	}
	if st.Live || st.Err != device.MsgCameraAccess || st.ErrKind != "permission_denied" {
		t.Fatalf("state after scan again = %+v", st)
	}
	if err := s.Capture(context.Background()); !errors.Is(err, ErrCaptureIgnored) {
		t.Fatalf("capture after scan again: %v", err)
	}
	if cam.captures != 0 {
		t.Fatalf("camera captured %d frames from a stopped stream", cam.captures)
	}
}
