package tts

import (
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
	"google.golang.org/api/texttospeech/v1"
)

const providerGoogleCloud = "google_cloud"

// Regional language codes sent to the API.
const (
	languageCodeEnglish   = "en-IN"
	languageCodeMalayalam = "ml-IN"
)

// GoogleCloud implements Provider for Google Cloud Text-to-Speech.
// It is the only backend with first-class Malayalam support.
type GoogleCloud struct {
	config *Config
	svc    *texttospeech.Service
	logger *slog.Logger
}

// NewGoogleCloud creates a Google Cloud TTS provider.
// Credentials come from WithCredentialsFile, WithAPIKey, or Application
// Default Credentials, in that order.
func NewGoogleCloud(ctx context.Context, opts ...Option) (*GoogleCloud, error) {
	cfg := DefaultConfig()
	cfg.Apply(opts...)

	var clientOpts []option.ClientOption
	switch {
	case cfg.CredentialsFile != "":
		clientOpts = append(clientOpts, option.WithCredentialsFile(cfg.CredentialsFile))
	case cfg.APIKey != "":
		clientOpts = append(clientOpts, option.WithAPIKey(cfg.APIKey))
	default:
		ts, err := google.DefaultTokenSource(ctx, texttospeech.CloudPlatformScope)
		if err != nil {
			return nil, WrapError(providerGoogleCloud, fmt.Errorf("default credentials: %w", err))
		}
		clientOpts = append(clientOpts, option.WithTokenSource(ts))
	}

	svc, err := texttospeech.NewService(ctx, clientOpts...)
	if err != nil {
		return nil, WrapError(providerGoogleCloud, fmt.Errorf("create service: %w", err))
	}

	return &GoogleCloud{
		config: cfg,
		svc:    svc,
		logger: cfg.Logger.With("component", "tts.googlecloud"),
	}, nil
}

// Synthesize converts text to MP3 audio via the Cloud TTS API.
func (g *GoogleCloud) Synthesize(ctx context.Context, text, language string) (*AudioResult, error) {
	if text == "" {
		return nil, WrapError(providerGoogleCloud, ErrEmptyText)
	}
	language = ResolveLanguage(language, text)
	voice := g.config.voiceFor(language)

	languageCode := languageCodeEnglish
	if language == LangMalayalam {
		languageCode = languageCodeMalayalam
	}

	start := time.Now()
	resp, err := g.svc.Text.Synthesize(&texttospeech.SynthesizeSpeechRequest{
		Input: &texttospeech.SynthesisInput{Text: text},
		Voice: &texttospeech.VoiceSelectionParams{
			LanguageCode: languageCode,
			Name:         voice.VoiceID,
		},
		AudioConfig: &texttospeech.AudioConfig{
			AudioEncoding: "MP3",
			SpeakingRate:  voice.SpeakingRate,
			Pitch:         voice.Pitch,
			VolumeGainDb:  voice.VolumeGainDB,
		},
	}).Context(ctx).Do()
	if err != nil {
		return nil, WrapError(providerGoogleCloud, fmt.Errorf("synthesize: %w", err))
	}
	latency := time.Since(start).Milliseconds()

	audio, err := base64.StdEncoding.DecodeString(resp.AudioContent)
	if err != nil {
		return nil, WrapError(providerGoogleCloud, fmt.Errorf("decode audio: %w", err))
	}

	g.logger.Debug("synthesized audio",
		"chars", len(text),
		"bytes", len(audio),
		"latency_ms", latency,
		"voice", voice.VoiceID,
	)

	return &AudioResult{
		Audio:     audio,
		Language:  language,
		CharCount: len(text),
		LatencyMs: latency,
	}, nil
}

// Voice returns the voice parameters used for a language.
func (g *GoogleCloud) Voice(language string) VoiceParams {
	return g.config.voiceFor(language)
}

// Health verifies the API is reachable by listing available voices.
func (g *GoogleCloud) Health(ctx context.Context) error {
	if _, err := g.svc.Voices.List().LanguageCode(languageCodeEnglish).Context(ctx).Do(); err != nil {
		return WrapError(providerGoogleCloud, fmt.Errorf("health check: %w", err))
	}
	return nil
}

// Name identifies the provider.
func (g *GoogleCloud) Name() string {
	return providerGoogleCloud
}

// Close releases resources.
func (g *GoogleCloud) Close() error {
	return nil
}

// Verify GoogleCloud implements Provider at compile time.
var _ Provider = (*GoogleCloud)(nil)
