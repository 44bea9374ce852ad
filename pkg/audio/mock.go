package audio

import (
	"context"
	"sync"
)

// Mock implements Player for testing. It records every clip it is asked
// to play without touching the audio device.
type Mock struct {
	// PlayFunc overrides Play when non-nil.
	PlayFunc func(ctx context.Context, mp3 []byte) error

	mu    sync.Mutex
	plays [][]byte
}

// NewMockPlayer creates a mock player.
func NewMockPlayer() *Mock {
	return &Mock{}
}

// Play records the clip.
func (m *Mock) Play(ctx context.Context, mp3 []byte) error {
	m.mu.Lock()
	clip := make([]byte, len(mp3))
	copy(clip, mp3)
	m.plays = append(m.plays, clip)
	m.mu.Unlock()

	if m.PlayFunc != nil {
		return m.PlayFunc(ctx, mp3)
	}
	return nil
}

// Plays returns the number of clips played.
func (m *Mock) Plays() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.plays)
}

// LastClip returns the most recent clip, or nil.
func (m *Mock) LastClip() []byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.plays) == 0 {
		return nil
	}
	return m.plays[len(m.plays)-1]
}

// Close is a no-op.
func (m *Mock) Close() error {
	return nil
}

// Verify Mock implements Player at compile time.
var _ Player = (*Mock)(nil)
