// Package robot runs the kiosk conversation loop: greet, listen,
// recognize, reply, speak. The loop keeps going until a visitor says an
// exit phrase or the process is stopped.
package robot

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/nila-labs/nila/internal/log"
	"github.com/nila-labs/nila/pkg/audio"
	"github.com/nila-labs/nila/pkg/llm"
	"github.com/nila-labs/nila/pkg/stt"
	"github.com/nila-labs/nila/pkg/tts"
	"github.com/nila-labs/nila/pkg/web"
)

const (
	// DefaultGreeting is spoken when the loop starts.
	DefaultGreeting = "Hello! I am Nila, your assistant. Ask me anything about the exhibition."

	// DefaultFarewell is spoken when a visitor ends the conversation.
	DefaultFarewell = "Goodbye! Have a wonderful day."

	// DefaultListenWindow is how long one utterance capture lasts.
	DefaultListenWindow = 5 * time.Second
)

// exitPhrases end the current session when heard anywhere in the
// transcript.
var exitPhrases = []string{
	"goodbye",
	"bye bye",
	"stop now",
	"shut down",
	"നിർത്തുക",
}

// Stats are per-session counters.
type Stats struct {
	SessionID  string    `json:"session_id"`
	StartedAt  time.Time `json:"started_at"`
	Turns      int       `json:"turns"`
	CacheHits  int       `json:"cache_hits"`
	TokensUsed int       `json:"tokens_used"`
}

// StatusSink receives loop events for the dashboard. *web.Server
// satisfies it; a nil sink disables reporting.
type StatusSink interface {
	UpdateState(update func(*web.State))
	AddConversation(role, message string)
	AddLog(logType, message string)
}

// Robot wires the pipeline components into the conversation loop.
type Robot struct {
	recorder   audio.Recorder
	recognizer stt.Recognizer
	brain      llm.Provider
	voice      tts.Provider
	player     audio.Player
	dashboard  StatusSink
	logger     *slog.Logger

	language     string
	greeting     string
	farewell     string
	listenWindow time.Duration

	mu    sync.Mutex
	stats Stats
}

// Option configures a Robot.
type Option func(*Robot)

// WithLanguage fixes the conversation language ("en", "ml", "auto").
func WithLanguage(language string) Option {
	return func(r *Robot) { r.language = language }
}

// WithGreeting overrides the startup greeting.
func WithGreeting(greeting string) Option {
	return func(r *Robot) { r.greeting = greeting }
}

// WithFarewell overrides the exit farewell.
func WithFarewell(farewell string) Option {
	return func(r *Robot) { r.farewell = farewell }
}

// WithListenWindow sets the utterance capture duration.
func WithListenWindow(d time.Duration) Option {
	return func(r *Robot) { r.listenWindow = d }
}

// WithDashboard attaches the operator dashboard.
func WithDashboard(sink StatusSink) Option {
	return func(r *Robot) { r.dashboard = sink }
}

// New assembles the conversation loop.
func New(recorder audio.Recorder, recognizer stt.Recognizer, brain llm.Provider, voice tts.Provider, player audio.Player, opts ...Option) *Robot {
	r := &Robot{
		recorder:     recorder,
		recognizer:   recognizer,
		brain:        brain,
		voice:        voice,
		player:       player,
		logger:       log.With("component", "robot"),
		language:     tts.LangAuto,
		greeting:     DefaultGreeting,
		farewell:     DefaultFarewell,
		listenWindow: DefaultListenWindow,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run executes the conversation loop until an exit phrase is heard or
// ctx is cancelled. Cancellation is a clean stop, not an error.
func (r *Robot) Run(ctx context.Context) error {
	r.startSession()

	r.logger.Info("session started", "session_id", r.Stats().SessionID)
	if err := r.speak(ctx, r.greeting, r.language); err != nil && ctx.Err() != nil {
		return nil
	}

	for {
		if ctx.Err() != nil {
			r.logger.Info("session stopped", "session_id", r.Stats().SessionID)
			return nil
		}

		transcript, ok := r.listen(ctx)
		if !ok {
			continue
		}

		r.logger.Info("heard visitor",
			"text", transcript.Text,
			"language", transcript.Language,
			"confidence", transcript.Confidence,
		)
		r.report("visitor", transcript.Text, func(s *web.State) {
			s.LastUserMessage = transcript.Text
			s.Language = transcript.Language
		})

		if isExitPhrase(transcript.Text) {
			r.speak(ctx, r.farewell, transcript.Language)
			r.logger.Info("session ended by visitor", "session_id", r.Stats().SessionID)
			return nil
		}

		reply, err := r.brain.Reply(ctx, transcript.Text, transcript.Language)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			r.logger.Error("reply failed", "error", err)
			if r.dashboard != nil {
				r.dashboard.AddLog("error", "reply failed: "+err.Error())
			}
			continue
		}

		r.recordTurn()
		r.report("assistant", reply, func(s *web.State) {
			s.LastReply = reply
			s.Turns = r.Stats().Turns
			s.TokensUsed = r.brain.Stats().TokensUsed
		})

		if err := r.speak(ctx, reply, transcript.Language); err != nil && ctx.Err() != nil {
			return nil
		}
	}
}

// listen captures and recognizes one utterance. It reports false on
// silence, empty capture, or a recognizer error.
func (r *Robot) listen(ctx context.Context) (*stt.Transcript, bool) {
	r.setListening(true)
	defer r.setListening(false)

	clip, err := r.recorder.Record(ctx, r.listenWindow)
	if err != nil {
		if ctx.Err() == nil {
			r.logger.Error("capture failed", "error", err)
		}
		return nil, false
	}
	if len(clip) == 0 {
		return nil, false
	}

	transcript, err := r.recognizer.Recognize(ctx, clip, r.language)
	if err != nil {
		if errors.Is(err, stt.ErrNoSpeech) {
			return nil, false
		}
		if ctx.Err() == nil {
			r.logger.Error("recognition failed", "error", err)
		}
		return nil, false
	}
	if strings.TrimSpace(transcript.Text) == "" {
		return nil, false
	}
	return transcript, true
}

// speak synthesizes and plays one reply, tracking cache hits.
func (r *Robot) speak(ctx context.Context, text, language string) error {
	r.setSpeaking(true)
	defer r.setSpeaking(false)

	result, err := r.voice.Synthesize(ctx, text, language)
	if err != nil {
		if ctx.Err() == nil {
			r.logger.Error("synthesis failed", "error", err)
			if r.dashboard != nil {
				r.dashboard.AddLog("error", "synthesis failed: "+err.Error())
			}
		}
		return err
	}

	if result.Cached {
		r.mu.Lock()
		r.stats.CacheHits++
		r.mu.Unlock()
	}

	if err := r.player.Play(ctx, result.Audio); err != nil {
		if ctx.Err() == nil {
			r.logger.Error("playback failed", "error", err)
		}
		return err
	}
	return nil
}

// Stats returns a copy of the session counters.
func (r *Robot) Stats() Stats {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.stats
}

func (r *Robot) startSession() {
	r.mu.Lock()
	r.stats = Stats{
		SessionID: uuid.NewString(),
		StartedAt: time.Now(),
	}
	sessionID := r.stats.SessionID
	r.mu.Unlock()

	if r.dashboard != nil {
		r.dashboard.UpdateState(func(s *web.State) {
			s.SessionID = sessionID
		})
	}
}

func (r *Robot) recordTurn() {
	r.mu.Lock()
	r.stats.Turns++
	r.mu.Unlock()
}

func (r *Robot) setListening(v bool) {
	if r.dashboard != nil {
		r.dashboard.UpdateState(func(s *web.State) { s.Listening = v })
	}
}

func (r *Robot) setSpeaking(v bool) {
	if r.dashboard != nil {
		r.dashboard.UpdateState(func(s *web.State) { s.Speaking = v })
	}
}

// report sends a conversation entry and a state mutation to the
// dashboard.
func (r *Robot) report(role, message string, update func(*web.State)) {
	if r.dashboard == nil {
		return
	}
	r.dashboard.AddConversation(role, message)
	r.dashboard.UpdateState(update)
}

// isExitPhrase reports whether the transcript asks to end the session.
func isExitPhrase(text string) bool {
	lower := strings.ToLower(text)
	for _, phrase := range exitPhrases {
		if strings.Contains(lower, phrase) {
			return true
		}
	}
	return false
}
