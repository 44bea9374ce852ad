package stt

import (
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
	speech "google.golang.org/api/speech/v1"
)

// Capture format produced by the microphone front end.
const (
	sampleRateHertz = 16000
	encoding        = "LINEAR16"
)

// Google implements Recognizer using Google Cloud Speech-to-Text.
type Google struct {
	svc    *speech.Service
	logger *slog.Logger
}

// GoogleOption configures the Google recognizer.
type GoogleOption func(*googleConfig)

type googleConfig struct {
	apiKey          string
	credentialsFile string
	logger          *slog.Logger
}

// WithAPIKey sets the API key.
func WithAPIKey(key string) GoogleOption {
	return func(c *googleConfig) { c.apiKey = key }
}

// WithCredentialsFile sets the service account JSON path.
func WithCredentialsFile(path string) GoogleOption {
	return func(c *googleConfig) { c.credentialsFile = path }
}

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) GoogleOption {
	return func(c *googleConfig) { c.logger = logger }
}

// NewGoogle creates a Google Cloud Speech recognizer.
func NewGoogle(ctx context.Context, opts ...GoogleOption) (*Google, error) {
	cfg := &googleConfig{logger: slog.Default()}
	for _, opt := range opts {
		opt(cfg)
	}

	var clientOpts []option.ClientOption
	switch {
	case cfg.credentialsFile != "":
		clientOpts = append(clientOpts, option.WithCredentialsFile(cfg.credentialsFile))
	case cfg.apiKey != "":
		clientOpts = append(clientOpts, option.WithAPIKey(cfg.apiKey))
	default:
		ts, err := google.DefaultTokenSource(ctx, speech.CloudPlatformScope)
		if err != nil {
			return nil, fmt.Errorf("stt: default credentials: %w", err)
		}
		clientOpts = append(clientOpts, option.WithTokenSource(ts))
	}

	svc, err := speech.NewService(ctx, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("stt: create service: %w", err)
	}

	return &Google{
		svc:    svc,
		logger: cfg.logger.With("component", "stt.google"),
	}, nil
}

// Recognize transcribes one utterance of PCM16 mono audio at 16kHz.
// With language "auto" the request carries Malayalam as an alternative
// language so the API reports which one was spoken.
func (g *Google) Recognize(ctx context.Context, audio []byte, language string) (*Transcript, error) {
	config := &speech.RecognitionConfig{
		Encoding:        encoding,
		SampleRateHertz: sampleRateHertz,
		LanguageCode:    "en-IN",
	}
	switch language {
	case "ml":
		config.LanguageCode = "ml-IN"
	case "en":
		// default
	default:
		config.AlternativeLanguageCodes = []string{"ml-IN"}
	}

	resp, err := g.svc.Speech.Recognize(&speech.RecognizeRequest{
		Config: config,
		Audio: &speech.RecognitionAudio{
			Content: base64.StdEncoding.EncodeToString(audio),
		},
	}).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("stt: recognize: %w", err)
	}

	for _, result := range resp.Results {
		if len(result.Alternatives) == 0 {
			continue
		}
		alt := result.Alternatives[0]
		if alt.Transcript == "" {
			continue
		}

		lang := "en"
		if strings.HasPrefix(result.LanguageCode, "ml") {
			lang = "ml"
		}

		g.logger.Debug("recognized speech",
			"chars", len(alt.Transcript),
			"language", lang,
			"confidence", alt.Confidence,
		)
		return &Transcript{
			Text:       alt.Transcript,
			Language:   lang,
			Confidence: alt.Confidence,
		}, nil
	}

	return nil, ErrNoSpeech
}

// Close releases resources.
func (g *Google) Close() error {
	return nil
}

// Verify Google implements Recognizer at compile time.
var _ Recognizer = (*Google)(nil)
