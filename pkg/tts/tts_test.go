package tts_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/nila-labs/nila/pkg/tts"
)

func TestDetectLanguage(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
	}{
		{"english", "Hello, how are you?", tts.LangEnglish},
		{"malayalam", "നമസ്കാരം", tts.LangMalayalam},
		{"mixed leans malayalam", "Hello നമസ്കാരം", tts.LangMalayalam},
		{"empty", "", tts.LangEnglish},
		{"numbers", "12345", tts.LangEnglish},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tts.DetectLanguage(tt.text); got != tt.want {
				t.Errorf("expected %s, got %s", tt.want, got)
			}
		})
	}
}

func TestResolveLanguage(t *testing.T) {
	if got := tts.ResolveLanguage("", "hello"); got != tts.LangEnglish {
		t.Errorf("expected auto-detect for empty language, got %s", got)
	}
	if got := tts.ResolveLanguage(tts.LangAuto, "നമസ്കാരം"); got != tts.LangMalayalam {
		t.Errorf("expected auto-detect for auto, got %s", got)
	}
	if got := tts.ResolveLanguage(tts.LangMalayalam, "hello"); got != tts.LangMalayalam {
		t.Errorf("expected explicit language preserved, got %s", got)
	}
}

func TestFunctionalOptions(t *testing.T) {
	cfg := tts.DefaultConfig()
	cfg.Apply(
		tts.WithAPIKey("test-key"),
		tts.WithVoices("en-US-Wavenet-A", "ml-IN-Wavenet-B"),
		tts.WithSpeakingRate(1.3),
		tts.WithPitch(-2.0),
		tts.WithVolumeGain(3.0),
		tts.WithTimeout(5*time.Second),
	)

	if cfg.APIKey != "test-key" {
		t.Errorf("expected API key test-key, got %s", cfg.APIKey)
	}
	if cfg.VoiceEnglish != "en-US-Wavenet-A" {
		t.Errorf("expected english voice en-US-Wavenet-A, got %s", cfg.VoiceEnglish)
	}
	if cfg.VoiceMalayalam != "ml-IN-Wavenet-B" {
		t.Errorf("expected malayalam voice ml-IN-Wavenet-B, got %s", cfg.VoiceMalayalam)
	}
	if cfg.SpeakingRate != 1.3 {
		t.Errorf("expected rate 1.3, got %f", cfg.SpeakingRate)
	}
	if cfg.Timeout != 5*time.Second {
		t.Errorf("expected timeout 5s, got %v", cfg.Timeout)
	}
}

func TestConfigValidation(t *testing.T) {
	t.Run("Validate requires credentials", func(t *testing.T) {
		cfg := tts.DefaultConfig()
		if err := cfg.Validate(); err != tts.ErrNoAPIKey {
			t.Errorf("expected ErrNoAPIKey, got %v", err)
		}
	})

	t.Run("Validate passes with API key", func(t *testing.T) {
		cfg := tts.DefaultConfig()
		cfg.APIKey = "test-key"
		if err := cfg.Validate(); err != nil {
			t.Errorf("unexpected error: %v", err)
		}
	})
}

func TestMockProvider(t *testing.T) {
	mock := tts.NewMock()
	ctx := context.Background()

	t.Run("Synthesize returns audio", func(t *testing.T) {
		result, err := mock.Synthesize(ctx, "Hello world", "en")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(result.Audio) == 0 {
			t.Error("expected audio data")
		}
		if result.CharCount != 11 {
			t.Errorf("expected 11 chars, got %d", result.CharCount)
		}
	})

	t.Run("Health returns nil", func(t *testing.T) {
		if err := mock.Health(ctx); err != nil {
			t.Errorf("unexpected error: %v", err)
		}
	})

	t.Run("Calls are tracked", func(t *testing.T) {
		if mock.CallCount("Synthesize") != 1 {
			t.Errorf("expected 1 Synthesize call, got %d", mock.CallCount("Synthesize"))
		}
	})
}

func TestChain(t *testing.T) {
	ctx := context.Background()

	t.Run("NewChain requires providers", func(t *testing.T) {
		_, err := tts.NewChain()
		if err != tts.ErrProviderUnavailable {
			t.Errorf("expected ErrProviderUnavailable, got %v", err)
		}
	})

	t.Run("First provider succeeds", func(t *testing.T) {
		mock1 := tts.NewMock()
		mock2 := tts.NewMock()

		chain, err := tts.NewChain(mock1, mock2)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		defer chain.Close()

		if _, err := chain.Synthesize(ctx, "Hello", "en"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if mock1.CallCount("Synthesize") != 1 {
			t.Error("expected first provider to be called")
		}
		if mock2.CallCount("Synthesize") != 0 {
			t.Error("expected second provider not to be called")
		}
	})

	t.Run("Fallback on failure", func(t *testing.T) {
		failMock := tts.MockWithError(errors.New("provider 1 failed"))
		successMock := tts.NewMock()

		chain, err := tts.NewChain(failMock, successMock)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		defer chain.Close()

		result, err := chain.Synthesize(ctx, "Hello", "en")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if result == nil {
			t.Error("expected result from fallback provider")
		}
	})

	t.Run("All providers fail", func(t *testing.T) {
		fail1 := tts.MockWithError(errors.New("fail 1"))
		fail2 := tts.MockWithError(errors.New("fail 2"))

		chain, err := tts.NewChain(fail1, fail2)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		defer chain.Close()

		_, err = chain.Synthesize(ctx, "Hello", "en")
		if err == nil {
			t.Fatal("expected error when all providers fail")
		}
		var ce *tts.ChainError
		if !errors.As(err, &ce) {
			t.Errorf("expected ChainError, got %T", err)
		}
	})
}

func TestAPIError(t *testing.T) {
	t.Run("IsRateLimited", func(t *testing.T) {
		err := &tts.APIError{StatusCode: 429, Message: "rate limited"}
		if !err.IsRateLimited() {
			t.Error("expected IsRateLimited true")
		}
		if !err.IsRetryable() {
			t.Error("expected IsRetryable true")
		}
	})

	t.Run("IsServerError", func(t *testing.T) {
		for _, code := range []int{500, 502, 503, 504} {
			err := &tts.APIError{StatusCode: code}
			if !err.IsServerError() {
				t.Errorf("expected IsServerError true for %d", code)
			}
		}
	})

	t.Run("Error message format", func(t *testing.T) {
		err := &tts.APIError{
			StatusCode: 400,
			Message:    "bad request",
			Provider:   "openai",
		}
		if err.Error() != "tts [openai]: API error 400: bad request" {
			t.Errorf("unexpected error message: %s", err.Error())
		}
	})
}

func TestProviderError(t *testing.T) {
	inner := errors.New("connection failed")
	err := tts.WrapError("google_cloud", inner)

	if err.Error() != "tts [google_cloud]: connection failed" {
		t.Errorf("unexpected error message: %s", err.Error())
	}
	if !errors.Is(err, inner) {
		t.Error("expected Unwrap to reach inner error")
	}

	if tts.WrapError("google_cloud", nil) != nil {
		t.Error("expected nil for nil error")
	}
}
