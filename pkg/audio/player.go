package audio

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/ebitengine/oto/v3"

	"github.com/nila-labs/nila/internal/log"
)

// OtoPlayer plays speech through the default output device. The oto
// context is created once and reused for every clip.
type OtoPlayer struct {
	context *oto.Context
	sink    Sink
	logger  *slog.Logger

	mu     sync.Mutex
	closed bool
}

// NewPlayer initializes the audio device. sink may be nil when no lip
// sync is wanted.
func NewPlayer(sink Sink) (*OtoPlayer, error) {
	op := &oto.NewContextOptions{
		SampleRate:   SampleRate,
		ChannelCount: Channels,
		Format:       oto.FormatSignedInt16LE,
	}
	ctx, ready, err := oto.NewContext(op)
	if err != nil {
		return nil, fmt.Errorf("audio: open device: %w", err)
	}
	<-ready

	return &OtoPlayer{
		context: ctx,
		sink:    sink,
		logger:  log.With("component", "audio"),
	}, nil
}

// Play decodes the MP3 clip and blocks until playback finishes or ctx is
// cancelled. The sample stream is mirrored to the sink in ChunkMS slices
// so the jaw tracks the live audio position.
func (p *OtoPlayer) Play(ctx context.Context, mp3 []byte) error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return ErrClosed
	}
	p.mu.Unlock()

	pcm, err := decodeMP3(ctx, mp3)
	if err != nil {
		return err
	}
	samples := pcmToInt16(pcm)
	p.logger.Debug("playing clip",
		"bytes", len(mp3),
		"duration_ms", len(samples)*1000/SampleRate,
	)

	player := p.context.NewPlayer(bytes.NewReader(pcm))
	player.Play()
	defer player.Close()

	if p.sink != nil {
		defer p.sink.Finish()
	}

	chunk := SampleRate * ChunkMS / 1000
	pos := 0

	ticker := time.NewTicker(ChunkMS * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			player.Pause()
			return ctx.Err()
		case <-ticker.C:
			if p.sink != nil && pos < len(samples) {
				end := pos + chunk
				if end > len(samples) {
					end = len(samples)
				}
				p.sink.Feed(samples[pos:end])
				pos = end
			}
			if !player.IsPlaying() {
				return nil
			}
		}
	}
}

// Close stops accepting clips. The oto context itself cannot be closed,
// it lives for the process.
func (p *OtoPlayer) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	return nil
}

// Verify OtoPlayer implements Player at compile time.
var _ Player = (*OtoPlayer)(nil)
