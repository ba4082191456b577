package notifications_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"arheritage/internal/config"
	"arheritage/internal/notifications"
)

func TestNewServiceReturnsNoopWhenTopicMissing(t *testing.T) {
	svc := notifications.NewService(config.Notifications{})
	if err := svc.Publish(context.Background(), notifications.EventContributionSubmitted, nil); err != nil {
		t.Fatalf("expected noop notifier to return nil, got %v", err)
	}
}

type captured struct {
	title    string
	body     string
	tags     string
	priority string
}

func newTopic(t *testing.T, status int) (string, <-chan captured) {
	t.Helper()
	ch := make(chan captured, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		ch <- captured{
			title:    r.Header.Get("Title"),
			body:     string(body),
			tags:     r.Header.Get("Tags"),
			priority: r.Header.Get("Priority"),
		}
		w.WriteHeader(status)
	}))
	t.Cleanup(srv.Close)
	return srv.URL + "/curators", ch
}

func TestPublishFormatsContribution(t *testing.T) {
	topic, ch := newTopic(t, http.StatusOK)
	svc := notifications.NewService(config.Notifications{NtfyTopic: topic, RequestTimeout: 5})

	err := svc.Publish(context.Background(), notifications.EventContributionSubmitted, notifications.Payload{
		"place":       "Hampi",
		"file":        "chariot.jpg",
		"description": "Stone chariot at dusk",
	})
	if err != nil {
		t.Fatalf("Publish: %v", err)
	}
	got := <-ch
	if got.title != "AR Heritage - Contribution" {
		t.Fatalf("unexpected title %q", got.title)
	}
	if got.body != "New contribution: Hampi\nFile: chariot.jpg\nStone chariot at dusk" {
		t.Fatalf("unexpected body %q", got.body)
	}
	if got.tags != "arheritage,contribution,review" {
		t.Fatalf("unexpected tags %q", got.tags)
	}
	if got.priority != "" {
		t.Fatalf("expected default priority, got %q", got.priority)
	}
}

func TestPublishTestNotificationIsLowPriority(t *testing.T) {
	topic, ch := newTopic(t, http.StatusOK)
	svc := notifications.NewService(config.Notifications{NtfyTopic: topic})
	if err := svc.Publish(context.Background(), notifications.EventTest, nil); err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if got := <-ch; got.priority != "low" {
		t.Fatalf("expected low priority, got %q", got.priority)
	}
}

func TestPublishReportsServerErrors(t *testing.T) {
	topic, _ := newTopic(t, http.StatusForbidden)
	svc := notifications.NewService(config.Notifications{NtfyTopic: topic})
	if err := svc.Publish(context.Background(), notifications.EventTest, nil); err == nil {
		t.Fatal("expected error for 403 response")
	}
}

func TestPublishRejectsUnknownEvent(t *testing.T) {
	topic, _ := newTopic(t, http.StatusOK)
	svc := notifications.NewService(config.Notifications{NtfyTopic: topic})
	if err := svc.Publish(context.Background(), notifications.Event("disc_ejected"), nil); err == nil {
		t.Fatal("expected unknown event to fail")
	}
}
