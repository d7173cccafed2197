package transcribe

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/antoniostano/remedi/internal/reliability"
)

func fastPolicy(attempts int) reliability.Policy {
	return reliability.Policy{MaxAttempts: attempts, BaseDelay: time.Millisecond, MaxDelay: time.Millisecond}
}

func TestHTTPProviderTranscribe(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("Authorization = %q, want bearer token", got)
		}
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("ParseMultipartForm() error = %v", err)
		}
		if got := r.FormValue("model"); got != "whisper-1" {
			t.Errorf("model = %q, want whisper-1", got)
		}
		if got := r.FormValue("language"); got != "en" {
			t.Errorf("language = %q, want en", got)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"text":       "  take aspirin at 9 am ",
			"language":   "en",
			"confidence": 0.93,
		})
	}))
	defer srv.Close()

	p := NewHTTPProvider(HTTPConfig{URL: srv.URL, APIKey: "test-key", Model: "whisper-1"}, fastPolicy(1))
	got, err := p.Transcribe(context.Background(), []byte("audio-bytes"), "en")
	if err != nil {
		t.Fatalf("Transcribe() error = %v", err)
	}
	if got.Text != "take aspirin at 9 am" {
		t.Fatalf("Text = %q, want trimmed transcript", got.Text)
	}
	if got.Confidence != 0.93 {
		t.Fatalf("Confidence = %v, want 0.93", got.Confidence)
	}
}

func TestHTTPProviderRetriesServerErrors(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls++
		if calls == 1 {
			http.Error(w, "overloaded", http.StatusServiceUnavailable)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"text": "ok"})
	}))
	defer srv.Close()

	p := NewHTTPProvider(HTTPConfig{URL: srv.URL}, fastPolicy(3))
	got, err := p.Transcribe(context.Background(), []byte("audio"), "")
	if err != nil {
		t.Fatalf("Transcribe() error = %v", err)
	}
	if got.Text != "ok" {
		t.Fatalf("Text = %q, want ok", got.Text)
	}
	if calls != 2 {
		t.Fatalf("calls = %d, want 2", calls)
	}
}

func TestHTTPProviderDoesNotRetryClientErrors(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls++
		http.Error(w, "bad audio", http.StatusBadRequest)
	}))
	defer srv.Close()

	p := NewHTTPProvider(HTTPConfig{URL: srv.URL}, fastPolicy(3))
	_, err := p.Transcribe(context.Background(), []byte("audio"), "")
	if err == nil {
		t.Fatalf("Transcribe() expected error")
	}
	if !strings.Contains(err.Error(), "400") {
		t.Fatalf("error should carry status: %v", err)
	}
	if calls != 1 {
		t.Fatalf("calls = %d, want 1 (client errors must not retry)", calls)
	}
}
