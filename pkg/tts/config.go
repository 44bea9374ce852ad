package tts

import (
	"log/slog"
	"time"
)

// Config holds TTS provider configuration.
// Use functional options (WithXxx) to set these values.
type Config struct {
	// Provider credentials
	APIKey          string
	BaseURL         string
	CredentialsFile string // Google Cloud service account JSON

	// Per-language voices (original deployment pairs Indian English with
	// Malayalam for exhibition visitors)
	VoiceEnglish   string
	VoiceMalayalam string

	// Delivery parameters shared by all voices
	SpeakingRate float64
	Pitch        float64
	VolumeGainDB float64

	// Timeouts
	Timeout time.Duration

	// Retry configuration
	MaxRetries int
	RetryDelay time.Duration

	// Observability
	Logger *slog.Logger
}

// Option is a functional option for configuring TTS providers.
type Option func(*Config)

// WithAPIKey sets the API key for the provider.
func WithAPIKey(key string) Option {
	return func(c *Config) {
		c.APIKey = key
	}
}

// WithBaseURL overrides the default API base URL.
func WithBaseURL(url string) Option {
	return func(c *Config) {
		c.BaseURL = url
	}
}

// WithCredentialsFile sets the Google Cloud service account JSON path.
func WithCredentialsFile(path string) Option {
	return func(c *Config) {
		c.CredentialsFile = path
	}
}

// WithVoices sets the English and Malayalam voice names.
func WithVoices(english, malayalam string) Option {
	return func(c *Config) {
		c.VoiceEnglish = english
		c.VoiceMalayalam = malayalam
	}
}

// WithSpeakingRate sets the speed multiplier (0.25-4.0, 1.0 = normal).
func WithSpeakingRate(rate float64) Option {
	return func(c *Config) {
		c.SpeakingRate = rate
	}
}

// WithPitch sets the pitch adjustment in semitones (-20.0 to 20.0).
func WithPitch(pitch float64) Option {
	return func(c *Config) {
		c.Pitch = pitch
	}
}

// WithVolumeGain sets the volume adjustment in dB.
func WithVolumeGain(db float64) Option {
	return func(c *Config) {
		c.VolumeGainDB = db
	}
}

// WithTimeout sets the request timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Config) {
		c.Timeout = timeout
	}
}

// WithRetry configures retry behavior for failed requests.
func WithRetry(maxRetries int, delay time.Duration) Option {
	return func(c *Config) {
		c.MaxRetries = maxRetries
		c.RetryDelay = delay
	}
}

// WithLogger sets the structured logger for the provider.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Config) {
		c.Logger = logger
	}
}

// DefaultConfig returns sensible default configuration.
func DefaultConfig() *Config {
	return &Config{
		VoiceEnglish:   "en-IN-Wavenet-D",
		VoiceMalayalam: "ml-IN-Wavenet-A",
		SpeakingRate:   1.0,
		Pitch:          0.0,
		VolumeGainDB:   0.0,
		Timeout:        30 * time.Second,
		MaxRetries:     3,
		RetryDelay:     100 * time.Millisecond,
		Logger:         slog.Default(),
	}
}

// Apply applies functional options to the config.
func (c *Config) Apply(opts ...Option) {
	for _, opt := range opts {
		opt(c)
	}
}

// Validate checks that required configuration is present.
func (c *Config) Validate() error {
	if c.APIKey == "" && c.CredentialsFile == "" {
		return ErrNoAPIKey
	}
	return nil
}

// voiceFor returns the voice parameters for a language.
func (c *Config) voiceFor(language string) VoiceParams {
	voice := c.VoiceEnglish
	if language == LangMalayalam {
		voice = c.VoiceMalayalam
	}
	return VoiceParams{
		VoiceID:      voice,
		SpeakingRate: c.SpeakingRate,
		Pitch:        c.Pitch,
		VolumeGainDB: c.VolumeGainDB,
	}
}
