package groq

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	apperrors "github.com/GriffinCanCode/screentutor/internal/errors"
)

func chatReply(content string) string {
	return `{"id":"c1","object":"chat.completion","created":1,"model":"m","choices":[` +
		`{"index":0,"finish_reason":"stop","message":{"role":"assistant","content":` + jsonString(content) + `}}]}`
}

func jsonString(s string) string {
	b, _ := json.Marshal(s)
	return string(b)
}

func TestCompleteWithImage(t *testing.T) {
	var body map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/chat/completions") {
			t.Errorf("path = %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer k" {
			t.Errorf("Authorization = %q", got)
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, chatReply("  Which base case stops it?  "))
	}))
	defer srv.Close()

	c := New(Config{APIKey: "k", BaseURL: srv.URL + "/", Temperature: 0.1})
	got, err := c.Complete(context.Background(), "sys", "why does it loop", "data:image/png;base64,AAAA")
	if err != nil {
		t.Fatalf("Complete() error = %v", err)
	}
	if got != "Which base case stops it?" {
		t.Errorf("Complete() = %q", got)
	}

	if body["model"] != DefaultChatModel {
		t.Errorf("model = %v", body["model"])
	}
	if body["temperature"] != 0.1 || body["max_tokens"] != float64(150) {
		t.Errorf("temperature=%v max_tokens=%v", body["temperature"], body["max_tokens"])
	}
	msgs := body["messages"].([]any)
	if len(msgs) != 2 {
		t.Fatalf("messages = %d, want 2", len(msgs))
	}
	parts, ok := msgs[1].(map[string]any)["content"].([]any)
	if !ok || len(parts) != 2 {
		t.Fatalf("user content = %v, want text+image parts", msgs[1])
	}
	if parts[1].(map[string]any)["type"] != "image_url" {
		t.Errorf("second part = %v", parts[1])
	}
}

func TestCompleteTextOnly(t *testing.T) {
	var body map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&body)
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, chatReply("ok"))
	}))
	defer srv.Close()

	if _, err := New(Config{APIKey: "k", BaseURL: srv.URL}).Complete(context.Background(), "sys", "hi", ""); err != nil {
		t.Fatal(err)
	}
	msgs := body["messages"].([]any)
	if content, ok := msgs[1].(map[string]any)["content"].(string); !ok || content != "hi" {
		t.Errorf("text-only user content = %v", msgs[1])
	}
}

func TestCompleteErrors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   apperrors.Kind
	}{
		{"rate limited", http.StatusTooManyRequests, `{"error":{"message":"slow"}}`, apperrors.RateLimited},
		{"bad request", http.StatusBadRequest, `{"error":{"message":"image too large"}}`, apperrors.InvalidArgument},
		{"upstream", http.StatusBadGateway, `{"error":{"message":"down"}}`, apperrors.ProviderFailed},
		{"no choices", http.StatusOK, `{"id":"x","object":"chat.completion","created":1,"model":"m","choices":[]}`, apperrors.MalformedResponse},
		{"empty content", http.StatusOK, chatReply("   "), apperrors.MalformedResponse},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(tt.status)
				_, _ = io.WriteString(w, tt.body)
			}))
			defer srv.Close()

			_, err := New(Config{APIKey: "k", BaseURL: srv.URL}).Complete(context.Background(), "s", "q", "")
			if !apperrors.IsKind(err, tt.want) {
				t.Errorf("error = %v, want kind %v", err, tt.want)
			}
		})
	}
}

func TestTranscribe(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/audio/transcriptions") {
			t.Errorf("path = %s", r.URL.Path)
		}
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Fatal(err)
		}
		if got := r.FormValue("model"); got != DefaultWhisperModel {
			t.Errorf("model = %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"text":" explain pointers "}`)
	}))
	defer srv.Close()

	path := filepath.Join(t.TempDir(), "a.wav")
	if err := os.WriteFile(path, []byte("RIFF"), 0o600); err != nil {
		t.Fatal(err)
	}
	got, err := New(Config{APIKey: "k", BaseURL: srv.URL}).Transcribe(context.Background(), path)
	if err != nil {
		t.Fatalf("Transcribe() error = %v", err)
	}
	if got != "explain pointers" {
		t.Errorf("Transcribe() = %q", got)
	}
}

func TestDisabledWithoutKey(t *testing.T) {
	c := New(Config{})
	if _, err := c.Complete(context.Background(), "s", "q", ""); !apperrors.IsKind(err, apperrors.Unavailable) {
		t.Errorf("Complete() error = %v, want Unavailable", err)
	}
	if _, err := c.Transcribe(context.Background(), "x.wav"); !apperrors.IsKind(err, apperrors.Unavailable) {
		t.Errorf("Transcribe() error = %v, want Unavailable", err)
	}
}
