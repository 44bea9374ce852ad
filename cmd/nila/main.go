// NILA kiosk assistant: listens at the exhibition stand, answers in
// English or Malayalam, moves the jaw while speaking, and caches every
// synthesized clip on disk.
package main

import (
	"context"
	"flag"
	stdlog "log"
	"os/signal"
	"syscall"

	"github.com/nila-labs/nila/internal/config"
	"github.com/nila-labs/nila/internal/log"
	"github.com/nila-labs/nila/pkg/audio"
	"github.com/nila-labs/nila/pkg/hardware"
	"github.com/nila-labs/nila/pkg/llm"
	"github.com/nila-labs/nila/pkg/robot"
	"github.com/nila-labs/nila/pkg/stt"
	"github.com/nila-labs/nila/pkg/tts"
	"github.com/nila-labs/nila/pkg/web"
)

func main() {
	mode := flag.String("mode", "loop", "Conversation mode: loop (STT+LLM+TTS) or realtime")
	language := flag.String("language", "", "Force conversation language: en, ml, auto")
	webPort := flag.String("web-port", "", "Dashboard port (overrides WEB_PORT)")
	micDevice := flag.String("mic", "", "ALSA capture device")
	noHardware := flag.Bool("no-hardware", false, "Run without the servo board")
	flag.Parse()

	settings, err := config.Load()
	if err != nil {
		stdlog.Fatalf("configuration error: %v", err)
	}
	if err := settings.Validate(); err != nil {
		stdlog.Fatalf("configuration error: %v", err)
	}
	if *language != "" {
		settings.TTSLanguage = *language
	}
	if *webPort != "" {
		settings.WebPort = *webPort
	}

	log.Init(settings.LogLevel, settings.LogFile)
	logger := log.With("component", "main")

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Jaw and eye servos. The controller degrades to a no-op when the
	// board is absent, so the kiosk still talks.
	var jaw hardware.Controller
	if *noHardware {
		jaw = hardware.NewMock()
	} else {
		jaw = hardware.OpenSerial(settings.SerialPort, settings.SerialBaud)
	}
	defer jaw.Close()

	animator := hardware.NewAnimator(jaw, audio.SampleRate)
	player, err := audio.NewPlayer(animator)
	if err != nil {
		logger.Error("audio device unavailable", "error", err)
		return
	}
	defer player.Close()

	voice, err := buildVoice(ctx, settings)
	if err != nil {
		logger.Error("tts setup failed", "error", err)
		return
	}
	defer voice.Close()

	dashboard := web.NewServer(settings.WebPort, voice)
	dashboard.StartAsync()
	defer dashboard.Shutdown()
	dashboard.UpdateState(func(s *web.State) {
		s.HardwareConnected = jaw.Connected()
		s.Language = settings.TTSLanguage
	})

	recorder := audio.NewRecorder(*micDevice)
	defer recorder.Close()

	logger.Info("starting",
		"mode", *mode,
		"tts_provider", settings.TTSProvider,
		"llm_provider", settings.LLMProvider,
		"language", settings.TTSLanguage,
	)

	switch *mode {
	case "realtime":
		err = runRealtime(ctx, settings, recorder, player, dashboard)
	default:
		err = runLoop(ctx, settings, recorder, voice, player, dashboard)
	}
	if err != nil {
		logger.Error("assistant stopped with error", "error", err)
	}
}

// buildVoice assembles the cached TTS provider from settings.
func buildVoice(ctx context.Context, settings *config.Settings) (*tts.Cached, error) {
	opts := []tts.Option{
		tts.WithVoices(settings.VoiceEnglish, settings.VoiceMalayalam),
		tts.WithSpeakingRate(settings.SpeakingRate),
		tts.WithPitch(settings.Pitch),
		tts.WithVolumeGain(settings.VolumeGainDB),
	}
	switch settings.TTSProvider {
	case "google_cloud":
		opts = append(opts, tts.WithAPIKey(settings.GoogleKey))
	case "openai":
		opts = append(opts, tts.WithAPIKey(settings.OpenAIKey))
	}
	return tts.New(ctx, settings.TTSProvider, settings.CacheDir, opts...)
}

// runLoop drives the listen-recognize-reply-speak pipeline.
func runLoop(ctx context.Context, settings *config.Settings, recorder audio.Recorder, voice *tts.Cached, player audio.Player, dashboard *web.Server) error {
	recognizer, err := stt.NewGoogle(ctx, stt.WithAPIKey(settings.GoogleKey))
	if err != nil {
		return err
	}
	defer recognizer.Close()

	apiKey := settings.OpenAIKey
	if settings.LLMProvider == "anthropic" {
		apiKey = settings.AnthropicKey
	}
	brain, err := llm.New(settings.LLMProvider,
		llm.WithAPIKey(apiKey),
		llm.WithModel(settings.LLMModel),
		llm.WithMaxTokens(settings.LLMMaxTokens),
		llm.WithTemperature(settings.LLMTemperature),
		llm.WithMaxHistory(settings.LLMMaxHistory),
		llm.WithSystemPrompt(settings.SystemPrompt),
	)
	if err != nil {
		return err
	}
	defer brain.Close()

	// One session per visitor: when an exit phrase ends a session, the
	// history is dropped and the next visitor gets a fresh start.
	r := robot.New(recorder, recognizer, brain, voice, player,
		robot.WithLanguage(settings.TTSLanguage),
		robot.WithDashboard(dashboard),
	)
	for ctx.Err() == nil {
		if err := r.Run(ctx); err != nil {
			return err
		}
		brain.ClearHistory()
	}
	return nil
}
