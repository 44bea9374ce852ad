package main

import (
	"context"
	"sync"
	"time"

	"github.com/nila-labs/nila/internal/config"
	"github.com/nila-labs/nila/internal/log"
	"github.com/nila-labs/nila/pkg/audio"
	"github.com/nila-labs/nila/pkg/realtime"
	"github.com/nila-labs/nila/pkg/web"
)

// realtimeListenWindow is how much speech goes up per turn.
const realtimeListenWindow = 5 * time.Second

// runRealtime drives the speech-to-speech mode: capture a window of
// audio, send it up, collect the streamed reply, play it back.
func runRealtime(ctx context.Context, settings *config.Settings, recorder audio.Recorder, player audio.Player, dashboard *web.Server) error {
	logger := log.With("component", "realtime-loop")

	client := realtime.NewClient(settings.OpenAIKey)

	var (
		mu    sync.Mutex
		reply []byte
	)
	done := make(chan struct{}, 1)

	client.OnAudioDelta = func(pcm []byte) {
		mu.Lock()
		reply = append(reply, pcm...)
		mu.Unlock()
	}
	client.OnAudioDone = func() {
		select {
		case done <- struct{}{}:
		default:
		}
	}
	client.OnTranscript = func(text string, final bool) {
		if final && dashboard != nil {
			dashboard.AddConversation("assistant", text)
		}
	}
	client.OnError = func(err error) {
		logger.Error("realtime error", "error", err)
	}

	if err := client.Connect(ctx); err != nil {
		return err
	}
	defer client.Close()

	for ctx.Err() == nil {
		clip, err := recorder.Record(ctx, realtimeListenWindow)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			logger.Error("capture failed", "error", err)
			continue
		}
		if len(clip) == 0 {
			continue
		}

		// Mic audio is 16 kHz but the realtime API wants 24 kHz.
		upsampled := resamplePCM16(clip, audio.CaptureRate, realtime.SampleRate)

		mu.Lock()
		reply = reply[:0]
		mu.Unlock()

		if err := client.SendAudio(upsampled); err != nil {
			logger.Error("send failed", "error", err)
			continue
		}
		if err := client.CommitAudio(); err != nil {
			logger.Error("commit failed", "error", err)
			continue
		}
		if err := client.RequestResponse(); err != nil {
			logger.Error("response request failed", "error", err)
			continue
		}

		select {
		case <-done:
		case <-time.After(30 * time.Second):
			logger.Warn("reply timed out")
			continue
		case <-ctx.Done():
			return nil
		}

		mu.Lock()
		pcm := make([]byte, len(reply))
		copy(pcm, reply)
		mu.Unlock()

		if len(pcm) == 0 {
			continue
		}
		wav := audio.WrapWAV(pcm, realtime.SampleRate)
		if err := player.Play(ctx, wav); err != nil && ctx.Err() == nil {
			logger.Error("playback failed", "error", err)
		}
	}
	return nil
}

// resamplePCM16 does linear interpolation between sample rates. Good
// enough for speech going into a speech model.
func resamplePCM16(pcm []byte, srIn, srOut int) []byte {
	if srIn == srOut || len(pcm) < 4 {
		return pcm
	}
	in := make([]int16, len(pcm)/2)
	for i := range in {
		in[i] = int16(pcm[2*i]) | int16(pcm[2*i+1])<<8
	}

	nOut := len(in) * srOut / srIn
	out := make([]byte, nOut*2)
	for i := 0; i < nOut; i++ {
		t := float64(i) * float64(len(in)-1) / float64(nOut-1)
		idx := int(t)
		frac := t - float64(idx)

		var s int16
		if idx >= len(in)-1 {
			s = in[len(in)-1]
		} else {
			s = int16(float64(in[idx])*(1-frac) + float64(in[idx+1])*frac)
		}
		out[2*i] = byte(s)
		out[2*i+1] = byte(s >> 8)
	}
	return out
}
