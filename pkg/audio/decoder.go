package audio

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"time"
)

// decodeTimeout bounds a single ffmpeg invocation. Speech clips are a few
// seconds long, so anything slower than this is stuck.
const decodeTimeout = 15 * time.Second

// decodeMP3 converts an MP3 clip to signed 16-bit little-endian mono PCM
// at SampleRate using ffmpeg.
func decodeMP3(ctx context.Context, mp3 []byte) ([]byte, error) {
	if len(mp3) == 0 {
		return nil, ErrEmptyAudio
	}

	ctx, cancel := context.WithTimeout(ctx, decodeTimeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, "ffmpeg",
		"-i", "pipe:0",
		"-f", "s16le",
		"-ar", fmt.Sprint(SampleRate),
		"-ac", fmt.Sprint(Channels),
		"pipe:1",
	)
	cmd.Stdin = bytes.NewReader(mp3)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("audio: ffmpeg decode: %w (%s)", err, bytes.TrimSpace(stderr.Bytes()))
	}
	if stdout.Len() == 0 {
		return nil, ErrEmptyAudio
	}
	return stdout.Bytes(), nil
}

// pcmToInt16 reinterprets little-endian PCM bytes as int16 samples.
func pcmToInt16(pcm []byte) []int16 {
	samples := make([]int16, len(pcm)/2)
	for i := range samples {
		samples[i] = int16(pcm[2*i]) | int16(pcm[2*i+1])<<8
	}
	return samples
}
