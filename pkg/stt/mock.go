package stt

import (
	"context"
	"sync"
)

// Mock implements Recognizer for testing. It replays scripted transcripts
// in order, then returns ErrNoSpeech.
type Mock struct {
	mu      sync.Mutex
	scripts []Transcript
	next    int
}

// NewMock creates a mock recognizer that replays transcripts in order.
func NewMock(transcripts ...Transcript) *Mock {
	return &Mock{scripts: transcripts}
}

// Recognize returns the next scripted transcript.
func (m *Mock) Recognize(ctx context.Context, audio []byte, language string) (*Transcript, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.next >= len(m.scripts) {
		return nil, ErrNoSpeech
	}
	t := m.scripts[m.next]
	m.next++
	return &t, nil
}

// Close releases resources.
func (m *Mock) Close() error {
	return nil
}

// Verify Mock implements Recognizer at compile time.
var _ Recognizer = (*Mock)(nil)
