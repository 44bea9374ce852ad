package tts

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/nila-labs/nila/pkg/audiocache"
)

// Per-backend cache ceilings. Google Cloud audio is kept longer because
// synthesis costs money per character; the free tier gets a smaller quota.
const (
	cacheCeilingGoogleCloud = 100 << 20 // 100MB
	cacheCeilingDefault     = 50 << 20  // 50MB
)

// New builds the configured provider, wrapped with its own audio cache.
// Recognized names: "google_cloud", "openai", "translate". Unknown names
// fall back to the free Translate provider, matching the kiosk's
// keep-talking-at-all-costs posture.
func New(ctx context.Context, name, cacheDir string, opts ...Option) (*Cached, error) {
	provider, err := newProvider(ctx, name, opts...)
	if err != nil {
		return nil, err
	}

	ceiling := int64(cacheCeilingDefault)
	if provider.Name() == providerGoogleCloud {
		ceiling = cacheCeilingGoogleCloud
	}

	// One directory per backend: quota and voice naming differ per provider.
	cache, err := audiocache.New(filepath.Join(cacheDir, provider.Name()), ceiling)
	if err != nil {
		provider.Close()
		return nil, fmt.Errorf("tts: create cache: %w", err)
	}

	return NewCached(provider, cache), nil
}

func newProvider(ctx context.Context, name string, opts ...Option) (Provider, error) {
	switch name {
	case providerGoogleCloud:
		return NewGoogleCloud(ctx, opts...)
	case providerOpenAI:
		return NewOpenAI(opts...)
	case providerTranslate, "gtts", "":
		return NewTranslate(opts...)
	default:
		slog.Default().Warn("unknown tts provider, falling back to translate", "provider", name)
		return NewTranslate(opts...)
	}
}
