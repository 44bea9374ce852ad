// Command speak is a one-shot synthesis check: synthesize a phrase
// through the configured provider, report cache behavior, and play it.
//
// Usage:
//
//	go run ./cmd/speak --text "Hello from Nila"
//	go run ./cmd/speak --text "നമസ്കാരം" --language ml --provider google_cloud
//	go run ./cmd/speak --text "Hello" --out hello.mp3   # write, don't play
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/nila-labs/nila/internal/config"
	"github.com/nila-labs/nila/internal/log"
	"github.com/nila-labs/nila/pkg/audio"
	"github.com/nila-labs/nila/pkg/tts"
)

func main() {
	text := flag.String("text", "Hello! This is a voice check.", "Text to synthesize")
	language := flag.String("language", "auto", "Language: en, ml, auto")
	provider := flag.String("provider", "", "TTS provider (overrides TTS_PROVIDER)")
	out := flag.String("out", "", "Write audio to file instead of playing")
	flag.Parse()

	settings, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		os.Exit(1)
	}
	if *provider != "" {
		settings.TTSProvider = *provider
	}
	log.Init(settings.LogLevel, "")

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

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

	voice, err := tts.New(ctx, settings.TTSProvider, settings.CacheDir, opts...)
	if err != nil {
		fmt.Fprintf(os.Stderr, "tts setup failed: %v\n", err)
		os.Exit(1)
	}
	defer voice.Close()

	start := time.Now()
	result, err := voice.Synthesize(ctx, *text, *language)
	if err != nil {
		fmt.Fprintf(os.Stderr, "synthesis failed: %v\n", err)
		os.Exit(1)
	}

	source := "synthesized"
	if result.Cached {
		source = "cache hit"
	}
	fmt.Printf("provider: %s\n", voice.Name())
	fmt.Printf("language: %s\n", result.Language)
	fmt.Printf("audio:    %d bytes (%s, %s)\n", len(result.Audio), source, time.Since(start).Round(time.Millisecond))

	stats := voice.CacheStats()
	fmt.Printf("cache:    %d entries, %d / %d bytes\n", stats.Entries, stats.Bytes, stats.MaxBytes)

	if *out != "" {
		if err := os.WriteFile(*out, result.Audio, 0o644); err != nil {
			fmt.Fprintf(os.Stderr, "write failed: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("wrote %s\n", *out)
		return
	}

	player, err := audio.NewPlayer(nil)
	if err != nil {
		fmt.Fprintf(os.Stderr, "audio device unavailable: %v\n", err)
		os.Exit(1)
	}
	defer player.Close()

	if err := player.Play(ctx, result.Audio); err != nil {
		fmt.Fprintf(os.Stderr, "playback failed: %v\n", err)
		os.Exit(1)
	}
}
