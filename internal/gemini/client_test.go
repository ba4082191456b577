package gemini

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"arheritage/internal/apperr"
)

func textResponse(text string) map[string]any {
	return map[string]any{
		"candidates": []any{
			map[string]any{
				"content": map[string]any{
					"parts": []any{map[string]any{"text": text}},
				},
				"finishReason": "STOP",
			},
		},
	}
}

func newTestServer(t *testing.T, handler func(t *testing.T, req generateRequest) (int, any)) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		if r.URL.Path != "/models/demo-model:generateContent" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.Header.Get("x-goog-api-key") != "test" {
			t.Errorf("missing api key header")
		}
		body, _ := io.ReadAll(r.Body)
		var req generateRequest
		if err := json.Unmarshal(body, &req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		status, payload := handler(t, req)
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(payload)
	}))
	t.Cleanup(server.Close)
	return server, &calls
}

func newTestClient(url string, opts ...Option) *Client {
	return NewClient(Config{APIKey: "test", BaseURL: url, Model: "demo-model"}, opts...)
}

func TestDescribeImageSendsInlineData(t *testing.T) {
	image := []byte{0xff, 0xd8, 0xff}
	server, calls := newTestServer(t, func(t *testing.T, req generateRequest) (int, any) {
		parts := req.Contents[0].Parts
		if len(parts) != 2 || parts[0].InlineData == nil {
			t.Fatalf("expected inline image then prompt, got %+v", parts)
		}
		if parts[0].InlineData.MimeType != "image/jpeg" {
			t.Fatalf("unexpected mime %q", parts[0].InlineData.MimeType)
		}
		if parts[0].InlineData.Data != base64.StdEncoding.EncodeToString(image) {
			t.Fatalf("unexpected image payload")
		}
		if !strings.Contains(parts[1].Text, "VIDEO_SEARCH:") {
			t.Fatalf("prompt missing video marker instruction")
		}
		if req.GenerationConfig == nil || req.GenerationConfig.ThinkingConfig == nil || req.GenerationConfig.ThinkingConfig.ThinkingBudget != 0 {
			t.Fatalf("expected thinking budget 0, got %+v", req.GenerationConfig)
		}
		return http.StatusOK, textResponse("Taj Mahal\nBuilt in 1653...\nVIDEO_SEARCH: Taj Mahal drone")
	})

	desc, err := newTestClient(server.URL).DescribeImage(context.Background(), image, "image/jpeg")
	if err != nil {
		t.Fatalf("DescribeImage returned error: %v", err)
	}
	if !strings.HasPrefix(desc.Text, "Taj Mahal\n") {
		t.Fatalf("unexpected text %q", desc.Text)
	}
	if !strings.Contains(desc.Raw, "candidates") {
		t.Fatalf("expected raw body, got %q", desc.Raw)
	}
	if calls.Load() != 1 {
		t.Fatalf("expected exactly one request, got %d", calls.Load())
	}
}

func TestDescribeImageFailureIsGatewayError(t *testing.T) {
	server, calls := newTestServer(t, func(t *testing.T, req generateRequest) (int, any) {
		return http.StatusServiceUnavailable, map[string]any{"error": map[string]any{"message": "overloaded"}}
	})

	_, err := newTestClient(server.URL).DescribeImage(context.Background(), []byte{1}, "image/png")
	if err == nil {
		t.Fatal("expected error")
	}
	var gwErr *GatewayError
	if !errors.As(err, &gwErr) {
		t.Fatalf("expected *GatewayError, got %T", err)
	}
	if gwErr.UserMessage != MsgDescribeImage {
		t.Fatalf("unexpected user message %q", gwErr.UserMessage)
	}
	if !errors.Is(err, apperr.ErrGateway) {
		t.Fatal("expected gateway marker")
	}
	if apperr.UserMessage(err, "fallback") != MsgDescribeImage {
		t.Fatalf("unexpected inline message %q", apperr.UserMessage(err, "fallback"))
	}
	if calls.Load() != 1 {
		t.Fatalf("default client must not retry, got %d calls", calls.Load())
	}
}

func TestRetryWhenConfigured(t *testing.T) {
	var attempt atomic.Int32
	server, calls := newTestServer(t, func(t *testing.T, req generateRequest) (int, any) {
		if attempt.Add(1) == 1 {
			return http.StatusTooManyRequests, map[string]any{}
		}
		return http.StatusOK, textResponse("Narrative")
	})

	var slept []time.Duration
	client := newTestClient(server.URL,
		WithRetryMaxAttempts(3),
		WithRetryBackoff(time.Millisecond, 10*time.Millisecond),
		WithSleeper(func(d time.Duration) { slept = append(slept, d) }),
	)
	text, err := client.DescribeLocation(context.Background(), 28.6, 77.2, "hi-IN", "Hindi")
	if err != nil {
		t.Fatalf("DescribeLocation returned error: %v", err)
	}
	if text != "Narrative" || calls.Load() != 2 || len(slept) != 1 {
		t.Fatalf("unexpected retry behaviour text=%q calls=%d slept=%v", text, calls.Load(), slept)
	}
}

func TestRetryHonorsRetryAfterAndSkipsClientErrors(t *testing.T) {
	var attempt atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch attempt.Add(1) {
		case 1:
			w.Header().Set("Retry-After", "3")
			w.WriteHeader(http.StatusServiceUnavailable)
		default:
			w.WriteHeader(http.StatusBadRequest)
		}
		_, _ = w.Write([]byte(`{}`))
	}))
	defer server.Close()

	var slept []time.Duration
	client := newTestClient(server.URL,
		WithRetryMaxAttempts(5),
		WithRetryBackoff(time.Millisecond, 10*time.Second),
		WithSleeper(func(d time.Duration) { slept = append(slept, d) }),
	)
	if _, err := client.DescribeLocation(context.Background(), 28.6, 77.2, "en-IN", "English"); err == nil {
		t.Fatal("expected the 400 to end retries with an error")
	}
	if attempt.Load() != 2 {
		t.Fatalf("expected 2 attempts, got %d", attempt.Load())
	}
	if len(slept) != 1 || slept[0] != 3*time.Second {
		t.Fatalf("expected a single Retry-After wait of 3s, got %v", slept)
	}
}

func TestDescribeLocationPromptUsesLanguageName(t *testing.T) {
	server, _ := newTestServer(t, func(t *testing.T, req generateRequest) (int, any) {
		prompt := req.Contents[0].Parts[0].Text
		if !strings.Contains(prompt, "exclusively in the Tamil language") {
			t.Fatalf("prompt missing language: %q", prompt)
		}
		if !strings.Contains(prompt, "Lat: 13.0827, Lon: 80.2707") {
			t.Fatalf("prompt missing coordinates: %q", prompt)
		}
		return http.StatusOK, textResponse("சென்னை\nIMAGE_QUERY: Chennai Marina")
	})

	text, err := newTestClient(server.URL).DescribeLocation(context.Background(), 13.0827, 80.2707, "ta-IN", "Tamil")
	if err != nil {
		t.Fatalf("DescribeLocation returned error: %v", err)
	}
	if !strings.Contains(text, "IMAGE_QUERY:") {
		t.Fatalf("unexpected text %q", text)
	}
}

func TestNearbyPlacesParsesAndCaps(t *testing.T) {
	places := make([]any, 0, 7)
	for i := 0; i < 7; i++ {
		places = append(places, map[string]any{"name": " Site ", "description": "d", "imageUrl": " Red Fort "})
	}
	encoded, _ := json.Marshal(map[string]any{"places": places})
	server, _ := newTestServer(t, func(t *testing.T, req generateRequest) (int, any) {
		if req.GenerationConfig == nil || req.GenerationConfig.ResponseMimeType != "application/json" {
			t.Fatalf("expected json response mime type")
		}
		if req.GenerationConfig.ResponseSchema["required"] == nil {
			t.Fatalf("expected response schema")
		}
		return http.StatusOK, textResponse("```json\n" + string(encoded) + "\n```")
	})

	got, err := newTestClient(server.URL).NearbyPlaces(context.Background(), 1, 2)
	if err != nil {
		t.Fatalf("NearbyPlaces returned error: %v", err)
	}
	if len(got) != MaxNearbyPlaces {
		t.Fatalf("expected %d places, got %d", MaxNearbyPlaces, len(got))
	}
	if got[0].Name != "Site" || got[0].ImageQuery != "Red Fort" {
		t.Fatalf("expected trimmed fields, got %+v", got[0])
	}
}

func TestNearbyPlacesShapeViolationIsParseError(t *testing.T) {
	cases := []string{
		`{"sites": []}`,
		`{"places": [{"description": "no name"}]}`,
		`not json at all`,
	}
	for _, body := range cases {
		server, _ := newTestServer(t, func(t *testing.T, req generateRequest) (int, any) {
			return http.StatusOK, textResponse(body)
		})
		_, err := newTestClient(server.URL).NearbyPlaces(context.Background(), 1, 2)
		if err == nil {
			t.Fatalf("expected error for %q", body)
		}
		if !errors.Is(err, apperr.ErrParse) {
			t.Fatalf("expected parse marker for %q, got %v", body, err)
		}
		if apperr.Kind(err) != "parse" {
			t.Fatalf("expected parse kind, got %q", apperr.Kind(err))
		}
		if apperr.UserMessage(err, "") != MsgNearbyPlaces {
			t.Fatalf("unexpected message %q", apperr.UserMessage(err, ""))
		}
	}
}

func TestEmptyCandidatesFail(t *testing.T) {
	server, _ := newTestServer(t, func(t *testing.T, req generateRequest) (int, any) {
		return http.StatusOK, map[string]any{"candidates": []any{}, "promptFeedback": map[string]any{"blockReason": "SAFETY"}}
	})
	_, err := newTestClient(server.URL).DescribeLocation(context.Background(), 0, 0, "en-IN", "English (India)")
	if err == nil || !strings.Contains(err.Error(), "SAFETY") {
		t.Fatalf("expected empty content error mentioning block reason, got %v", err)
	}
}

func TestMissingAPIKey(t *testing.T) {
	client := NewClient(Config{})
	if client.Configured() {
		t.Fatal("expected unconfigured client")
	}
	if client.Model() != defaultModel {
		t.Fatalf("expected default model, got %q", client.Model())
	}
	_, err := client.DescribeImage(context.Background(), []byte{1}, "image/jpeg")
	if apperr.UserMessage(err, "") != MsgDescribeImage {
		t.Fatalf("unexpected error %v", err)
	}
}

func TestHealthCheck(t *testing.T) {
	server, _ := newTestServer(t, func(t *testing.T, req generateRequest) (int, any) {
		return http.StatusOK, textResponse(`{"ok":true}`)
	})
	if err := newTestClient(server.URL).HealthCheck(context.Background()); err != nil {
		t.Fatalf("HealthCheck returned error: %v", err)
	}
}

func TestDecodeModelJSONCodeFence(t *testing.T) {
	var out struct {
		OK bool `json:"ok"`
	}
	if err := DecodeModelJSON("Sure! ```json\n{\"ok\":true}\n```", &out); err != nil || !out.OK {
		t.Fatalf("expected fenced payload to decode, err=%v", err)
	}
	if err := DecodeModelJSON("   ", &out); err == nil {
		t.Fatal("expected error for empty payload")
	}
}
