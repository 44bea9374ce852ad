package tts_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/nila-labs/nila/pkg/tts"
)

func TestOpenAIRequiresKey(t *testing.T) {
	_, err := tts.NewOpenAI()
	if err != tts.ErrNoAPIKey {
		t.Errorf("expected ErrNoAPIKey, got %v", err)
	}
}

func TestOpenAISynthesize(t *testing.T) {
	var gotPayload map[string]interface{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer test-key" {
			t.Errorf("unexpected auth header: %s", r.Header.Get("Authorization"))
		}
		if err := json.NewDecoder(r.Body).Decode(&gotPayload); err != nil {
			t.Errorf("decode payload: %v", err)
		}
		w.Write([]byte("mp3-audio-bytes"))
	}))
	defer srv.Close()

	provider, err := tts.NewOpenAI(
		tts.WithAPIKey("test-key"),
		tts.WithBaseURL(srv.URL),
		tts.WithSpeakingRate(1.2),
	)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer provider.Close()

	result, err := provider.Synthesize(context.Background(), "Hello world", "en")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(result.Audio) != "mp3-audio-bytes" {
		t.Errorf("unexpected audio: %q", result.Audio)
	}
	if result.Language != "en" {
		t.Errorf("expected language en, got %s", result.Language)
	}

	if gotPayload["input"] != "Hello world" {
		t.Errorf("unexpected input: %v", gotPayload["input"])
	}
	if gotPayload["speed"] != 1.2 {
		t.Errorf("unexpected speed: %v", gotPayload["speed"])
	}
}

func TestOpenAIAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error":{"message":"bad key"}}`))
	}))
	defer srv.Close()

	provider, err := tts.NewOpenAI(tts.WithAPIKey("bad"), tts.WithBaseURL(srv.URL))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer provider.Close()

	_, err = provider.Synthesize(context.Background(), "Hello", "en")
	var apiErr *tts.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %v", err)
	}
	if !apiErr.IsUnauthorized() {
		t.Errorf("expected 401, got %d", apiErr.StatusCode)
	}
	if apiErr.Message != "bad key" {
		t.Errorf("expected parsed message, got %q", apiErr.Message)
	}
}

func TestOpenAIRetriesServerErrors(t *testing.T) {
	attempts := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte("recovered"))
	}))
	defer srv.Close()

	provider, err := tts.NewOpenAI(
		tts.WithAPIKey("test-key"),
		tts.WithBaseURL(srv.URL),
		tts.WithRetry(3, 0),
	)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer provider.Close()

	result, err := provider.Synthesize(context.Background(), "Hello", "en")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(result.Audio) != "recovered" {
		t.Errorf("unexpected audio: %q", result.Audio)
	}
	if attempts != 3 {
		t.Errorf("expected 3 attempts, got %d", attempts)
	}
}

func TestOpenAIRejectsEmptyText(t *testing.T) {
	provider, err := tts.NewOpenAI(tts.WithAPIKey("test-key"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer provider.Close()

	_, err = provider.Synthesize(context.Background(), "", "en")
	if !errors.Is(err, tts.ErrEmptyText) {
		t.Errorf("expected ErrEmptyText, got %v", err)
	}
}

func TestTranslateSynthesize(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("tl"); got != "en" {
			t.Errorf("expected tl=en, got %s", got)
		}
		if got := r.URL.Query().Get("q"); got != "Hello" {
			t.Errorf("expected q=Hello, got %s", got)
		}
		w.Write([]byte("free-tier-audio"))
	}))
	defer srv.Close()

	provider, err := tts.NewTranslate(tts.WithBaseURL(srv.URL))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer provider.Close()

	result, err := provider.Synthesize(context.Background(), "Hello", "en")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(result.Audio) != "free-tier-audio" {
		t.Errorf("unexpected audio: %q", result.Audio)
	}
}

func TestTranslateDowngradesMalayalam(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("tl"); got != "en" {
			t.Errorf("expected malayalam downgraded to en, got tl=%s", got)
		}
		w.Write([]byte("audio"))
	}))
	defer srv.Close()

	provider, err := tts.NewTranslate(tts.WithBaseURL(srv.URL))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer provider.Close()

	result, err := provider.Synthesize(context.Background(), "നമസ്കാരം", "ml")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Language != tts.LangEnglish {
		t.Errorf("expected resolved language en, got %s", result.Language)
	}
}
