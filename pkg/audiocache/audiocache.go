// Package audiocache provides a content-addressed on-disk store for
// synthesized speech audio.
//
// Each TTS backend owns one Cache rooted at its own directory. Artifacts are
// addressed by a fingerprint of the synthesis request (text, language, voice
// parameters), so identical requests resolve to the same file across process
// restarts. The cache enforces a byte ceiling with oldest-access-first
// eviction down to a low-water mark, amortizing eviction cost across many
// stores.
//
// Example usage:
//
//	cache, _ := audiocache.New("data/audio/google", 50<<20)
//
//	if path, ok := cache.Lookup(text, "en", params); ok {
//	    return path // cache hit, reuse the artifact
//	}
//	audio, _ := provider.Synthesize(ctx, text, "en")
//	path, _ := cache.Store(text, "en", params, audio.Audio)
//
// The cache never performs network I/O; callers hand it raw bytes after a
// miss. All cache failures degrade to a miss, never a crash.
package audiocache

import (
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"
)

// lowWaterRatio is the fraction of the ceiling eviction restores the cache
// to. Evicting exactly to the ceiling would force an eviction pass on nearly
// every store once full; the 30-point margin lets many stores pass between
// passes.
const lowWaterRatio = 0.7

// Params are the voice parameters that contribute to an artifact's identity.
// Two requests with equal text, language, and Params share one cache entry.
type Params struct {
	// VoiceID selects the synthesis voice (e.g. "en-IN-Wavenet-D").
	VoiceID string

	// SpeakingRate is the speed multiplier (1.0 = normal).
	SpeakingRate float64

	// Pitch adjustment in semitones (0.0 = normal).
	Pitch float64

	// VolumeGainDB is the volume adjustment in dB (0.0 = normal).
	VolumeGainDB float64
}

// entry is the index record for one on-disk artifact.
type entry struct {
	key        Key
	path       string
	size       int64
	lastAccess time.Time
	seq        uint64 // insertion order, breaks lastAccess ties
}

// Cache maps synthesis requests to cached audio artifacts on disk.
// It is safe for concurrent use.
type Cache struct {
	dir      string
	maxBytes int64
	ext      string
	logger   *slog.Logger
	now      func() time.Time

	mu       sync.Mutex
	entries  map[Key]*entry
	curBytes int64
	nextSeq  uint64
}

// Option configures a Cache.
type Option func(*Cache)

// WithExtension sets the audio file extension (default ".mp3").
func WithExtension(ext string) Option {
	return func(c *Cache) {
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		c.ext = ext
	}
}

// WithLogger sets the structured logger for the cache.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Cache) {
		c.logger = logger.With("component", "audiocache")
	}
}

// WithNow overrides the clock. Used by tests to control access times.
func WithNow(now func() time.Time) Option {
	return func(c *Cache) {
		c.now = now
	}
}

// New creates a Cache rooted at dir with the given byte ceiling.
// The directory is created if needed and scanned to rebuild the index from
// artifacts left by a previous process. Zero-byte files are treated as
// absent and removed.
func New(dir string, maxBytes int64, opts ...Option) (*Cache, error) {
	c := &Cache{
		dir:      dir,
		maxBytes: maxBytes,
		ext:      ".mp3",
		logger:   slog.Default().With("component", "audiocache"),
		now:      time.Now,
		entries:  make(map[Key]*entry),
	}
	for _, opt := range opts {
		opt(c)
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, &StorageError{Op: "create cache dir", Err: err}
	}

	if err := c.rebuild(); err != nil {
		return nil, err
	}

	c.logger.Debug("cache ready",
		"dir", dir,
		"entries", len(c.entries),
		"bytes", c.curBytes,
		"max_bytes", maxBytes,
	)
	return c, nil
}

// rebuild scans the cache directory and reconstructs the index.
// The filesystem is authoritative: only existing, non-empty files with the
// expected extension are indexed. Stray temp files from interrupted writes
// are swept.
func (c *Cache) rebuild() error {
	dirents, err := os.ReadDir(c.dir)
	if err != nil {
		return &StorageError{Op: "scan cache dir", Err: err}
	}

	// Deterministic seq assignment: ReadDir returns names sorted.
	for _, d := range dirents {
		if d.IsDir() {
			continue
		}
		name := d.Name()
		path := filepath.Join(c.dir, name)

		if strings.HasPrefix(name, tmpPrefix) {
			if err := os.Remove(path); err != nil {
				c.logger.Warn("failed to sweep temp file", "path", path, "error", err)
			}
			continue
		}
		if !strings.HasSuffix(name, c.ext) {
			continue
		}

		info, err := d.Info()
		if err != nil {
			continue
		}
		if info.Size() == 0 {
			if err := os.Remove(path); err != nil {
				c.logger.Warn("failed to remove empty artifact", "path", path, "error", err)
			}
			continue
		}

		key := Key(strings.TrimSuffix(name, c.ext))
		c.entries[key] = &entry{
			key:        key,
			path:       path,
			size:       info.Size(),
			lastAccess: info.ModTime(),
			seq:        c.nextSeq,
		}
		c.nextSeq++
		c.curBytes += info.Size()
	}
	return nil
}

// Lookup returns the path of a cached artifact for the request, if present.
// A hit refreshes the entry's access time. If the index has an entry whose
// backing file has gone missing or empty, the stale entry is dropped and the
// lookup reports a miss.
func (c *Cache) Lookup(text, language string, params Params) (string, bool) {
	key := DeriveKey(text, language, params)

	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return "", false
	}

	info, err := os.Stat(e.path)
	if err != nil || info.Size() == 0 {
		// Filesystem truth wins: self-heal the index.
		c.logger.Warn("stale cache entry dropped", "key", string(key), "path", e.path)
		c.removeLocked(e, false)
		return "", false
	}

	e.lastAccess = c.now()
	c.logger.Debug("cache hit", "key", string(key), "bytes", e.size)
	return e.path, true
}

// Store persists audio for the request and returns the artifact path.
// Bytes go to a temp file first and become visible under the final name via
// rename, so a crash mid-write never leaves a truncated entry that could be
// served as a hit. Store triggers an eviction pass when the ceiling is
// exceeded.
func (c *Cache) Store(text, language string, params Params, audio []byte) (string, error) {
	key := DeriveKey(text, language, params)
	final := filepath.Join(c.dir, string(key)+c.ext)

	if err := writeAtomic(c.dir, final, audio); err != nil {
		return "", err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if old, ok := c.entries[key]; ok {
		c.curBytes -= old.size
	}
	c.entries[key] = &entry{
		key:        key,
		path:       final,
		size:       int64(len(audio)),
		lastAccess: c.now(),
		seq:        c.nextSeq,
	}
	c.nextSeq++
	c.curBytes += int64(len(audio))

	c.logger.Debug("cache store", "key", string(key), "bytes", len(audio))
	c.evictLocked()

	return final, nil
}

// evictLocked frees entries oldest-access-first until the cache is at or
// below the low-water mark. Must be called with the mutex held.
func (c *Cache) evictLocked() {
	if c.curBytes <= c.maxBytes {
		return
	}
	target := int64(float64(c.maxBytes) * lowWaterRatio)

	victims := make([]*entry, 0, len(c.entries))
	for _, e := range c.entries {
		victims = append(victims, e)
	}
	sort.Slice(victims, func(i, j int) bool {
		if !victims[i].lastAccess.Equal(victims[j].lastAccess) {
			return victims[i].lastAccess.Before(victims[j].lastAccess)
		}
		return victims[i].seq < victims[j].seq
	})

	freed := 0
	for _, e := range victims {
		if c.curBytes <= target {
			break
		}
		c.removeLocked(e, true)
		freed++
	}
	c.logger.Info("cache eviction pass",
		"evicted", freed,
		"bytes", c.curBytes,
		"target", target,
	)
}

// removeLocked drops an entry from the index and optionally deletes its
// backing file. Deletion failures are tolerated: the entry is unindexed
// regardless so one locked file cannot stall an eviction pass.
func (c *Cache) removeLocked(e *entry, deleteFile bool) {
	if deleteFile {
		if err := os.Remove(e.path); err != nil && !os.IsNotExist(err) {
			c.logger.Warn("failed to delete artifact", "path", e.path, "error", err)
		}
	}
	delete(c.entries, e.key)
	c.curBytes -= e.size
}

// Clear removes every entry and backing file and resets the size to zero.
// Stray files in the cache directory are swept as well, so the directory is
// empty afterwards. Used for operator-triggered full reset.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, e := range c.entries {
		if err := os.Remove(e.path); err != nil && !os.IsNotExist(err) {
			c.logger.Warn("failed to delete artifact", "path", e.path, "error", err)
		}
	}
	c.entries = make(map[Key]*entry)
	c.curBytes = 0

	if dirents, err := os.ReadDir(c.dir); err == nil {
		for _, d := range dirents {
			if d.IsDir() {
				continue
			}
			name := d.Name()
			if strings.HasSuffix(name, c.ext) || strings.HasPrefix(name, tmpPrefix) {
				os.Remove(filepath.Join(c.dir, name))
			}
		}
	}
	c.logger.Info("cache cleared", "dir", c.dir)
}

// Stats is a point-in-time snapshot of cache occupancy.
type Stats struct {
	Dir      string `json:"dir"`
	Entries  int    `json:"entries"`
	Bytes    int64  `json:"bytes"`
	MaxBytes int64  `json:"max_bytes"`
}

// Stats returns current cache occupancy.
func (c *Cache) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Stats{
		Dir:      c.dir,
		Entries:  len(c.entries),
		Bytes:    c.curBytes,
		MaxBytes: c.maxBytes,
	}
}

// Size returns the tracked total size of indexed artifacts in bytes.
func (c *Cache) Size() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.curBytes
}

// Len returns the number of indexed artifacts.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
