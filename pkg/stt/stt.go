// Package stt provides speech recognition for the kiosk microphone.
//
// The only production backend is Google Cloud Speech-to-Text, which handles
// the English/Malayalam mix the exhibition sees. A Mock recognizer supports
// tests and hardware-free development.
package stt

import (
	"context"
	"errors"
)

// Sentinel errors.
var (
	// ErrNoSpeech is returned when the audio contained no recognizable speech.
	ErrNoSpeech = errors.New("stt: no speech recognized")
)

// Transcript is the result of recognizing one utterance.
type Transcript struct {
	// Text is the best transcription.
	Text string

	// Language is the detected language code ("en", "ml").
	Language string

	// Confidence is the recognizer's confidence in Text (0.0-1.0).
	Confidence float64
}

// Recognizer converts captured audio into text.
type Recognizer interface {
	// Recognize transcribes PCM16 mono audio. language may be "auto".
	Recognize(ctx context.Context, audio []byte, language string) (*Transcript, error)

	// Close releases any resources held by the recognizer.
	Close() error
}
