// Package tts provides a unified interface for text-to-speech providers.
//
// The package supports multiple TTS backends: Google Cloud Text-to-Speech
// (professional multilingual voices, including Malayalam), OpenAI TTS, and a
// free Google Translate fallback. All providers implement the Provider
// interface, enabling seamless switching without changing caller code.
//
// Example usage:
//
//	provider, _ := tts.NewGoogleCloud(ctx,
//	    tts.WithVoices("en-IN-Wavenet-D", "ml-IN-Wavenet-A"),
//	    tts.WithSpeakingRate(1.1),
//	)
//	defer provider.Close()
//
//	result, _ := provider.Synthesize(ctx, "Hello world", "en")
//	// result.Audio contains MP3 audio bytes
//
// Wrap any provider with Cached to reuse previously synthesized audio from
// an on-disk cache.
package tts

import (
	"context"
	"unicode"
)

// Provider defines the TTS provider interface.
// All implementations must satisfy this interface for seamless switching.
type Provider interface {
	// Synthesize converts text to audio in the given language.
	// An empty language triggers auto-detection via DetectLanguage.
	Synthesize(ctx context.Context, text, language string) (*AudioResult, error)

	// Voice returns the voice parameters the provider would use for a
	// language. These parameters identify the audio for caching.
	Voice(language string) VoiceParams

	// Health checks provider connectivity and API key validity.
	Health(ctx context.Context) error

	// Name identifies the provider in logs and errors.
	Name() string

	// Close releases any resources held by the provider.
	Close() error
}

// AudioResult represents a complete audio synthesis result.
type AudioResult struct {
	// Audio contains the raw audio data (MP3 unless noted by the provider).
	Audio []byte

	// Language is the resolved language code ("en", "ml").
	Language string

	// Path is set when the audio is backed by a cached file.
	Path string

	// Cached reports whether the audio came from the cache.
	Cached bool

	// CharCount is the number of characters synthesized.
	CharCount int

	// LatencyMs is the synthesis time in milliseconds (0 on cache hits).
	LatencyMs int64
}

// VoiceParams identify a synthesis voice and its delivery parameters.
// They are part of the cache key: any change produces new audio.
type VoiceParams struct {
	// VoiceID is the provider voice name (e.g. "en-IN-Wavenet-D", "shimmer").
	VoiceID string

	// SpeakingRate is the speed multiplier, 0.25-4.0 (1.0 = normal).
	SpeakingRate float64

	// Pitch adjustment in semitones, -20.0 to 20.0 (0.0 = normal).
	Pitch float64

	// VolumeGainDB is the volume adjustment in dB (0.0 = normal).
	VolumeGainDB float64
}

// Supported language codes.
const (
	LangEnglish   = "en"
	LangMalayalam = "ml"
	LangAuto      = "auto"
)

// DetectLanguage returns "ml" when the text contains Malayalam script,
// otherwise "en". Mixed text leans Malayalam: a single Malayalam rune is
// enough, since English voices cannot render it at all.
func DetectLanguage(text string) string {
	for _, r := range text {
		if unicode.Is(unicode.Malayalam, r) {
			return LangMalayalam
		}
	}
	return LangEnglish
}

// ResolveLanguage normalizes a configured language value, applying
// auto-detection when needed.
func ResolveLanguage(language, text string) string {
	if language == "" || language == LangAuto {
		return DetectLanguage(text)
	}
	return language
}
