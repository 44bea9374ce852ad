// Package audio plays synthesized speech on the robot's speaker and
// mirrors the sample stream to a sink for lip sync.
package audio

import (
	"context"
	"errors"
)

// Playback format. Oto is only reliable at 44100 or 48000 Hz, so decoded
// speech is resampled to this rate.
const (
	SampleRate = 44100
	Channels   = 1

	// ChunkMS is the pacing interval for sink updates during playback.
	ChunkMS = 50
)

var (
	// ErrEmptyAudio is returned when there is nothing to play.
	ErrEmptyAudio = errors.New("audio: empty audio data")

	// ErrClosed is returned when playing on a closed player.
	ErrClosed = errors.New("audio: player closed")
)

// Sink receives the PCM samples as they are played. The jaw animator
// implements this to move the mouth in time with the speech.
type Sink interface {
	Feed(samples []int16)
	Finish()
}

// Player plays MP3 speech clips.
type Player interface {
	// Play blocks until the clip finishes or ctx is cancelled.
	Play(ctx context.Context, mp3 []byte) error
	Close() error
}
