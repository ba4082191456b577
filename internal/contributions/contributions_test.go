package contributions

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"arheritage/internal/apperr"
	"arheritage/internal/device"
	"arheritage/internal/notifications"
	"arheritage/internal/testsupport"
)

func TestDraftRequiresPlaceName(t *testing.T) {
	d := NewDraft()
	d.SetDetails("   ", "notes")
	err := d.SubmitDetails()
	if !errors.Is(err, apperr.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if d.Step() != StepDetails {
		t.Fatalf("step = %s", d.Step())
	}
}

func TestDraftBackKeepsFields(t *testing.T) {
	d := NewDraft()
	d.SetDetails("Hampi", "Ruins")
	if err := d.SubmitDetails(); err != nil {
		t.Fatal(err)
	}
	d.Back()
	state := d.State()
	if state.Step != "details" || state.PlaceName != "Hampi" || state.Description != "Ruins" {
		t.Fatalf("unexpected state %+v", state)
	}
}

func TestApplyTranscriptAppendsFinalSegments(t *testing.T) {
	d := NewDraft()
	d.SetDetails("Hampi", "Temple. ")
	d.ApplyTranscript(
		device.Segment{Transcript: "Built in the", Final: true},
		device.Segment{Transcript: " fourteenth", Final: false},
		device.Segment{Transcript: " century", Final: true},
	)
	if got := d.State().Description; got != "Temple. Built in the century" {
		t.Fatalf("description = %q", got)
	}
}

func TestListenStopsWhenChannelCloses(t *testing.T) {
	d := NewDraft()
	ch := make(chan device.Segment, 2)
	ch <- device.Segment{Transcript: "stone", Final: true}
	ch <- device.Segment{Transcript: " chariot", Final: true}
	close(ch)

	done := make(chan struct{})
	go func() {
		d.Listen(context.Background(), ch)
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Listen did not return")
	}
	if got := d.State().Description; got != "stone chariot" {
		t.Fatalf("description = %q", got)
	}
}

func TestSubmitStoresMediaAndHistory(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store, _ := testsupport.NewRecords(t)
	svc := NewService(store, cfg.Paths.MediaDir, nil)
	ctx := context.Background()

	d := NewDraft()
	d.SetDetails("Hampi", "Vijayanagara ruins")
	if err := d.SubmitDetails(); err != nil {
		t.Fatal(err)
	}
	item, err := svc.Submit(ctx, d, "C:\\photos\\stone chariot.jpg", strings.NewReader("jpegdata"))
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if item.Title != "Hampi" || item.Description != "Vijayanagara ruins" || item.FileName != "stone chariot.jpg" {
		t.Fatalf("unexpected item %+v", item)
	}
	if !strings.HasSuffix(item.StoredName, "-stone chariot.jpg") {
		t.Fatalf("stored name = %q", item.StoredName)
	}
	path, err := svc.MediaPath(item.StoredName)
	if err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(path)
	if err != nil || string(data) != "jpegdata" {
		t.Fatalf("stored media = %q, %v", data, err)
	}

	state := d.State()
	if state.Step != "submitted" || state.PlaceName != "" || state.Description != "" {
		t.Fatalf("draft not reset: %+v", state)
	}
	history := svc.History(ctx)
	if len(history) != 1 || history[0].ID != item.ID {
		t.Fatalf("history = %+v", history)
	}
	found, err := svc.Find(ctx, item.ID)
	if err != nil || found.StoredName != item.StoredName {
		t.Fatalf("Find = %+v, %v", found, err)
	}

	d.StartOver()
	if d.Step() != StepDetails {
		t.Fatalf("step after start over = %s", d.Step())
	}
}

func TestSubmitRequiresFile(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store, _ := testsupport.NewRecords(t)
	svc := NewService(store, cfg.Paths.MediaDir, nil)

	d := NewDraft()
	d.SetDetails("Hampi", "")
	if err := d.SubmitDetails(); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Submit(context.Background(), d, "", nil); !errors.Is(err, apperr.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if _, err := svc.Submit(context.Background(), d, "empty.jpg", strings.NewReader("")); !errors.Is(err, apperr.ErrValidation) {
		t.Fatalf("expected validation error for empty file, got %v", err)
	}
	entries, _ := os.ReadDir(cfg.Paths.MediaDir)
	if len(entries) != 0 {
		t.Fatalf("expected no stored media, got %d", len(entries))
	}
	if d.Step() != StepUpload {
		t.Fatalf("draft left upload step: %s", d.Step())
	}
	if len(svc.History(context.Background())) != 0 {
		t.Fatal("expected empty history")
	}
}

func TestSubmitRejectedOnDetailsStep(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store, _ := testsupport.NewRecords(t)
	svc := NewService(store, cfg.Paths.MediaDir, nil)

	d := NewDraft()
	d.SetDetails("Hampi", "")
	if _, err := svc.Submit(context.Background(), d, "a.jpg", strings.NewReader("x")); !errors.Is(err, ErrInvalidStep) {
		t.Fatalf("expected invalid step error, got %v", err)
	}
}

func TestMediaPathRejectsTraversal(t *testing.T) {
	svc := NewService(nil, t.TempDir(), nil)
	for _, name := range []string{"../etc/passwd", "..", ".hidden", "a/b"} {
		if _, err := svc.MediaPath(name); !errors.Is(err, apperr.ErrNotFound) {
			t.Fatalf("MediaPath(%q) err = %v", name, err)
		}
	}
	path, err := svc.MediaPath("ok.jpg")
	if err != nil || filepath.Base(path) != "ok.jpg" {
		t.Fatalf("MediaPath(ok.jpg) = %q, %v", path, err)
	}
}

type recordingNotifier struct {
	events   []notifications.Event
	payloads []notifications.Payload
	err      error
}

func (r *recordingNotifier) Publish(_ context.Context, event notifications.Event, payload notifications.Payload) error {
	r.events = append(r.events, event)
	r.payloads = append(r.payloads, payload)
	return r.err
}

func TestSubmitNotifiesCurators(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store, _ := testsupport.NewRecords(t)
	notifier := &recordingNotifier{}
	svc := NewService(store, cfg.Paths.MediaDir, nil, WithNotifier(notifier))

	d := NewDraft()
	d.SetDetails("Konark", "Sun temple wheel")
	if err := d.SubmitDetails(); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Submit(context.Background(), d, "wheel.jpg", strings.NewReader("jpeg")); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if len(notifier.events) != 1 || notifier.events[0] != notifications.EventContributionSubmitted {
		t.Fatalf("events = %v", notifier.events)
	}
	if got := notifier.payloads[0]; got["place"] != "Konark" || got["file"] != "wheel.jpg" {
		t.Fatalf("payload = %v", got)
	}
}

func TestSubmitSucceedsWhenNotificationFails(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store, _ := testsupport.NewRecords(t)
	svc := NewService(store, cfg.Paths.MediaDir, nil, WithNotifier(&recordingNotifier{err: errors.New("ntfy down")}))

	d := NewDraft()
	d.SetDetails("Konark", "")
	if err := d.SubmitDetails(); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Submit(context.Background(), d, "wheel.jpg", strings.NewReader("jpeg")); err != nil {
		t.Fatalf("expected submit to succeed, got %v", err)
	}
	if len(svc.History(context.Background())) != 1 {
		t.Fatal("expected contribution to be recorded")
	}
}
