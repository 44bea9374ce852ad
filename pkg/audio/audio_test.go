package audio

import (
	"context"
	"testing"
)

func TestPCMToInt16(t *testing.T) {
	pcm := []byte{0x00, 0x00, 0xFF, 0x7F, 0x00, 0x80}
	samples := pcmToInt16(pcm)

	want := []int16{0, 32767, -32768}
	if len(samples) != len(want) {
		t.Fatalf("expected %d samples, got %d", len(want), len(samples))
	}
	for i, w := range want {
		if samples[i] != w {
			t.Errorf("sample %d: expected %d, got %d", i, w, samples[i])
		}
	}
}

func TestPCMToInt16OddLength(t *testing.T) {
	// A trailing odd byte is dropped rather than panicking.
	samples := pcmToInt16([]byte{0x01, 0x00, 0x02})
	if len(samples) != 1 {
		t.Errorf("expected 1 sample, got %d", len(samples))
	}
}

func TestDecodeEmptyAudio(t *testing.T) {
	_, err := decodeMP3(context.Background(), nil)
	if err != ErrEmptyAudio {
		t.Errorf("expected ErrEmptyAudio, got %v", err)
	}
}

func TestWrapWAVHeader(t *testing.T) {
	pcm := []byte{1, 2, 3, 4}
	wav := WrapWAV(pcm, 24000)

	if len(wav) != 44+len(pcm) {
		t.Fatalf("expected %d bytes, got %d", 44+len(pcm), len(wav))
	}
	if string(wav[0:4]) != "RIFF" || string(wav[8:12]) != "WAVE" {
		t.Error("missing RIFF/WAVE markers")
	}
	if string(wav[36:40]) != "data" {
		t.Error("missing data chunk marker")
	}
	if string(wav[44:]) != string(pcm) {
		t.Error("payload not preserved")
	}
}

func TestMockPlayerRecordsClips(t *testing.T) {
	m := NewMockPlayer()

	if err := m.Play(context.Background(), []byte("clip-a")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := m.Play(context.Background(), []byte("clip-b")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if m.Plays() != 2 {
		t.Errorf("expected 2 plays, got %d", m.Plays())
	}
	if string(m.LastClip()) != "clip-b" {
		t.Errorf("unexpected last clip: %q", m.LastClip())
	}
}
