package tts

import (
	"context"
	"log/slog"
	"os"

	"github.com/nila-labs/nila/pkg/audiocache"
)

// Cached wraps a Provider with an on-disk audio cache. Repeated phrases
// (greetings, common answers) skip the network round-trip entirely.
//
// One parameterized cache serves any provider: each backend gets its own
// cache directory and ceiling, but the lookup/store policy is shared. Cache
// failures are never fatal; the wrapper degrades to direct synthesis.
type Cached struct {
	provider Provider
	cache    *audiocache.Cache
	logger   *slog.Logger
}

// NewCached wraps provider with cache.
func NewCached(provider Provider, cache *audiocache.Cache) *Cached {
	return &Cached{
		provider: provider,
		cache:    cache,
		logger:   slog.Default().With("component", "tts.cached", "provider", provider.Name()),
	}
}

// Synthesize returns cached audio when available, otherwise synthesizes and
// stores the result. The returned AudioResult always carries the artifact
// path so callers can hand a file to the audio player.
func (c *Cached) Synthesize(ctx context.Context, text, language string) (*AudioResult, error) {
	language = ResolveLanguage(language, text)
	params := cacheParams(c.provider.Voice(language))

	if path, ok := c.cache.Lookup(text, language, params); ok {
		audio, err := os.ReadFile(path)
		if err == nil {
			return &AudioResult{
				Audio:     audio,
				Language:  language,
				Path:      path,
				Cached:    true,
				CharCount: len(text),
			}, nil
		}
		// The artifact vanished between lookup and read; fall through to
		// synthesis, the cache self-heals on the next lookup.
		c.logger.Warn("cached artifact unreadable", "path", path, "error", err)
	}

	result, err := c.provider.Synthesize(ctx, text, language)
	if err != nil {
		return nil, err
	}

	path, err := c.cache.Store(text, language, params, result.Audio)
	if err != nil {
		// Degrade to uncached audio rather than failing the caller.
		c.logger.Warn("cache store failed", "error", err)
		return result, nil
	}
	result.Path = path
	return result, nil
}

// Voice returns the wrapped provider's voice parameters.
func (c *Cached) Voice(language string) VoiceParams {
	return c.provider.Voice(language)
}

// Health checks the wrapped provider.
func (c *Cached) Health(ctx context.Context) error {
	return c.provider.Health(ctx)
}

// Name identifies the wrapped provider.
func (c *Cached) Name() string {
	return c.provider.Name()
}

// Close closes the wrapped provider.
func (c *Cached) Close() error {
	return c.provider.Close()
}

// CacheStats exposes cache occupancy for the dashboard.
func (c *Cached) CacheStats() audiocache.Stats {
	return c.cache.Stats()
}

// ClearCache performs an operator-triggered full reset of the cache.
func (c *Cached) ClearCache() {
	c.cache.Clear()
}

// cacheParams maps voice parameters onto the cache's key fields.
func cacheParams(v VoiceParams) audiocache.Params {
	return audiocache.Params{
		VoiceID:      v.VoiceID,
		SpeakingRate: v.SpeakingRate,
		Pitch:        v.Pitch,
		VolumeGainDB: v.VolumeGainDB,
	}
}

// Verify Cached implements Provider at compile time.
var _ Provider = (*Cached)(nil)
