package hardware

import (
	"math"
	"sync"
)

// Tunable lip sync parameters.
const (
	// ChunkMS is the update interval for jaw commands.
	ChunkMS = 50

	// rmsScale maps int16 RMS amplitude to full jaw opening. Lower the
	// value if the jaw barely moves, raise it if it slams open.
	rmsScale = 3000.0
)

// Animator converts PCM audio into jaw intensity commands so the mouth
// tracks the loudness of the speech being played.
type Animator struct {
	ctrl       Controller
	sampleRate int
	chunkSize  int

	mu      sync.Mutex
	samples []int16
}

// NewAnimator creates an animator that drives ctrl from audio sampled at
// the given rate.
func NewAnimator(ctrl Controller, sampleRate int) *Animator {
	chunk := sampleRate * ChunkMS / 1000
	if chunk < 1 {
		chunk = 1
	}
	return &Animator{
		ctrl:       ctrl,
		sampleRate: sampleRate,
		chunkSize:  chunk,
	}
}

// Feed processes int16 PCM samples, emitting one jaw command per chunk.
func (a *Animator) Feed(samples []int16) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.samples = append(a.samples, samples...)
	for len(a.samples) >= a.chunkSize {
		chunk := a.samples[:a.chunkSize]
		a.samples = a.samples[a.chunkSize:]
		a.ctrl.SetJaw(intensityOf(chunk))
	}
}

// Finish flushes any buffered tail and closes the jaw.
func (a *Animator) Finish() {
	a.mu.Lock()
	defer a.mu.Unlock()

	if len(a.samples) > 0 {
		a.ctrl.SetJaw(intensityOf(a.samples))
		a.samples = a.samples[:0]
	}
	a.ctrl.SetJaw(0)
}

// Reset drops buffered audio and closes the jaw, for interrupted playback.
func (a *Animator) Reset() {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.samples = a.samples[:0]
	a.ctrl.SetJaw(0)
}

// intensityOf maps the RMS amplitude of a chunk to a 0-100 jaw opening.
func intensityOf(samples []int16) int {
	if len(samples) == 0 {
		return 0
	}
	var sum float64
	for _, s := range samples {
		f := float64(s)
		sum += f * f
	}
	rms := math.Sqrt(sum / float64(len(samples)))

	intensity := int(rms / rmsScale * 100)
	if intensity > 100 {
		intensity = 100
	}
	return intensity
}
