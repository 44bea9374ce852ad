package audio

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"sync"
	"time"
)

// CaptureRate is the microphone sample rate. Speech recognition wants
// 16 kHz mono PCM16.
const CaptureRate = 16000

// Recorder captures an utterance from the microphone.
type Recorder interface {
	// Record captures up to d of PCM16 mono audio at CaptureRate.
	Record(ctx context.Context, d time.Duration) ([]byte, error)
	Close() error
}

// ArecordRecorder captures through ALSA's arecord. The production
// target is a Raspberry Pi, where this is the dependable way in.
type ArecordRecorder struct {
	device string

	mu     sync.Mutex
	closed bool
}

// NewRecorder creates a recorder on the given ALSA device. An empty
// device means the system default.
func NewRecorder(device string) *ArecordRecorder {
	if device == "" {
		device = "default"
	}
	return &ArecordRecorder{device: device}
}

// Record blocks for the requested duration and returns the raw PCM.
func (r *ArecordRecorder) Record(ctx context.Context, d time.Duration) ([]byte, error) {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil, ErrClosed
	}
	r.mu.Unlock()

	seconds := int(d.Seconds())
	if seconds < 1 {
		seconds = 1
	}

	cmd := exec.CommandContext(ctx, "arecord",
		"-q",
		"-D", r.device,
		"-f", "S16_LE",
		"-r", fmt.Sprint(CaptureRate),
		"-c", "1",
		"-t", "raw",
		"-d", fmt.Sprint(seconds),
	)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("audio: arecord: %w (%s)", err, bytes.TrimSpace(stderr.Bytes()))
	}
	return stdout.Bytes(), nil
}

// Close stops accepting recordings.
func (r *ArecordRecorder) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed = true
	return nil
}

// Verify ArecordRecorder implements Recorder at compile time.
var _ Recorder = (*ArecordRecorder)(nil)

// MockRecorder replays scripted clips, for tests and hardware-free
// development.
type MockRecorder struct {
	mu    sync.Mutex
	clips [][]byte
	next  int
}

// NewMockRecorder creates a recorder that returns the given clips in
// order, then empty audio.
func NewMockRecorder(clips ...[]byte) *MockRecorder {
	return &MockRecorder{clips: clips}
}

// Record returns the next scripted clip.
func (m *MockRecorder) Record(ctx context.Context, d time.Duration) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.next >= len(m.clips) {
		return nil, nil
	}
	clip := m.clips[m.next]
	m.next++
	return clip, nil
}

// Close is a no-op.
func (m *MockRecorder) Close() error {
	return nil
}

// Verify MockRecorder implements Recorder at compile time.
var _ Recorder = (*MockRecorder)(nil)
