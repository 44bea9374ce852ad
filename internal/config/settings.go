// Package config loads kiosk configuration from the environment.
package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// Settings holds every tunable for the kiosk. Components receive only the
// fields they need, never the whole struct.
type Settings struct {
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	Debug       bool   `env:"DEBUG" envDefault:"true"`

	// API keys
	OpenAIKey    string `env:"OPENAI_API_KEY"`
	AnthropicKey string `env:"ANTHROPIC_API_KEY"`
	GoogleKey    string `env:"GOOGLE_API_KEY"`

	// Provider selection
	SpeechProvider string `env:"SPEECH_PROVIDER" envDefault:"google"`
	TTSProvider    string `env:"TTS_PROVIDER" envDefault:"translate"`
	LLMProvider    string `env:"LLM_PROVIDER" envDefault:"openai"`

	// LLM settings
	LLMModel       string  `env:"LLM_MODEL" envDefault:"gpt-4o-mini"`
	LLMMaxTokens   int     `env:"LLM_MAX_TOKENS" envDefault:"150"`
	LLMTemperature float64 `env:"LLM_TEMPERATURE" envDefault:"0.7"`
	LLMMaxHistory  int     `env:"LLM_MAX_HISTORY" envDefault:"10"`
	SystemPrompt   string  `env:"LLM_SYSTEM_PROMPT" envDefault:"You are a helpful, friendly robot assistant at an exhibition. Keep responses brief and engaging."`

	// TTS settings
	VoiceMalayalam string  `env:"TTS_VOICE_MALAYALAM" envDefault:"ml-IN-Wavenet-A"`
	VoiceEnglish   string  `env:"TTS_VOICE_ENGLISH" envDefault:"en-IN-Wavenet-D"`
	SpeakingRate   float64 `env:"TTS_SPEAKING_RATE" envDefault:"1.0"`
	Pitch          float64 `env:"TTS_PITCH" envDefault:"0.0"`
	VolumeGainDB   float64 `env:"TTS_VOLUME_GAIN_DB" envDefault:"0.0"`
	TTSLanguage    string  `env:"TTS_LANGUAGE" envDefault:"auto"`

	// Audio cache (one directory per TTS backend)
	CacheDir      string `env:"AUDIO_CACHE_DIR" envDefault:"data/audio"`
	CacheMaxBytes int64  `env:"AUDIO_CACHE_MAX_BYTES" envDefault:"52428800"`

	// Hardware
	SerialPort string `env:"SERIAL_PORT" envDefault:"/dev/ttyUSB0"`
	SerialBaud int    `env:"SERIAL_BAUD" envDefault:"115200"`

	// Dashboard
	WebPort string `env:"WEB_PORT" envDefault:"8088"`

	// Logging
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
	LogFile  string `env:"LOG_FILE" envDefault:"data/logs/robot.log"`
}

// Load parses Settings from the process environment.
func Load() (*Settings, error) {
	var s Settings
	if err := env.Parse(&s); err != nil {
		return nil, fmt.Errorf("config: parse environment: %w", err)
	}
	return &s, nil
}

// Validate checks settings that must be present for the selected providers.
func (s *Settings) Validate() error {
	switch s.LLMProvider {
	case "openai":
		if s.OpenAIKey == "" {
			return fmt.Errorf("config: OPENAI_API_KEY is required for LLM provider %q", s.LLMProvider)
		}
	case "anthropic":
		if s.AnthropicKey == "" {
			return fmt.Errorf("config: ANTHROPIC_API_KEY is required for LLM provider %q", s.LLMProvider)
		}
	}
	if s.CacheMaxBytes <= 0 {
		return fmt.Errorf("config: AUDIO_CACHE_MAX_BYTES must be positive, got %d", s.CacheMaxBytes)
	}
	return nil
}
