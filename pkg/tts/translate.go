package tts

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/nila-labs/nila/internal/httpc"
)

const (
	translateTTSURL   = "https://translate.google.com/translate_tts"
	providerTranslate = "translate"

	// The unauthenticated endpoint rejects long inputs.
	translateMaxChars = 200
)

// Translate implements Provider using the free Google Translate TTS
// endpoint. English only, robotic voice, no API key needed. It is the
// fallback of last resort when no paid backend is configured.
type Translate struct {
	config  *Config
	client  *http.Client
	logger  *slog.Logger
	baseURL string
}

// NewTranslate creates the free fallback provider.
func NewTranslate(opts ...Option) (*Translate, error) {
	cfg := DefaultConfig()
	cfg.VoiceEnglish = "translate-en"
	cfg.VoiceMalayalam = "translate-en" // Malayalam unsupported, spoken as English
	cfg.Apply(opts...)

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = translateTTSURL
	}

	return &Translate{
		config:  cfg,
		client:  httpc.NewClient(cfg.Timeout),
		logger:  cfg.Logger.With("component", "tts.translate"),
		baseURL: baseURL,
	}, nil
}

// Synthesize fetches MP3 audio for the text. Malayalam input is downgraded
// to English with a warning, matching the behavior visitors get from the
// free tier.
func (t *Translate) Synthesize(ctx context.Context, text, language string) (*AudioResult, error) {
	if text == "" {
		return nil, WrapError(providerTranslate, ErrEmptyText)
	}
	language = ResolveLanguage(language, text)
	if language == LangMalayalam {
		t.logger.Warn("malayalam not supported by free tier, using english voice")
		language = LangEnglish
	}
	if len(text) > translateMaxChars {
		text = text[:translateMaxChars]
	}

	start := time.Now()

	q := url.Values{}
	q.Set("ie", "UTF-8")
	q.Set("client", "tw-ob")
	q.Set("tl", language)
	q.Set("q", text)

	req, err := http.NewRequestWithContext(ctx, "GET", t.baseURL+"?"+q.Encode(), nil)
	if err != nil {
		return nil, WrapError(providerTranslate, fmt.Errorf("create request: %w", err))
	}

	resp, err := t.client.Do(req)
	if err != nil {
		return nil, WrapError(providerTranslate, fmt.Errorf("fetch audio: %w", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, &APIError{
			StatusCode: resp.StatusCode,
			Message:    string(body),
			Provider:   providerTranslate,
		}
	}

	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, WrapError(providerTranslate, fmt.Errorf("read response: %w", err))
	}

	t.logger.Debug("synthesized audio",
		"chars", len(text),
		"bytes", len(audio),
		"latency_ms", time.Since(start).Milliseconds(),
	)

	return &AudioResult{
		Audio:     audio,
		Language:  language,
		CharCount: len(text),
		LatencyMs: time.Since(start).Milliseconds(),
	}, nil
}

// Voice returns the voice parameters used for a language.
func (t *Translate) Voice(language string) VoiceParams {
	return t.config.voiceFor(language)
}

// Health probes the endpoint with a one-word request.
func (t *Translate) Health(ctx context.Context) error {
	_, err := t.Synthesize(ctx, "ok", LangEnglish)
	return err
}

// Name identifies the provider.
func (t *Translate) Name() string {
	return providerTranslate
}

// Close releases resources.
func (t *Translate) Close() error {
	t.client.CloseIdleConnections()
	return nil
}

// Verify Translate implements Provider at compile time.
var _ Provider = (*Translate)(nil)
