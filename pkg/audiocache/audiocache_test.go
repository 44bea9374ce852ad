package audiocache

import (
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"
)

// fakeClock provides a controllable time source for access-order tests.
type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
}

func (f *fakeClock) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.t
}

func (f *fakeClock) Advance(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.t = f.t.Add(d)
}

func newTestCache(t *testing.T, maxBytes int64) (*Cache, *fakeClock) {
	t.Helper()
	clock := newFakeClock()
	cache, err := New(t.TempDir(), maxBytes, WithNow(clock.Now))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return cache, clock
}

func testParams() Params {
	return Params{VoiceID: "en-IN-Wavenet-D", SpeakingRate: 1.0, Pitch: 0.0, VolumeGainDB: 0.0}
}

// diskBytes sums the sizes of all regular files under dir.
func diskBytes(t *testing.T, dir string) int64 {
	t.Helper()
	var total int64
	dirents, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read dir: %v", err)
	}
	for _, d := range dirents {
		info, err := d.Info()
		if err != nil {
			t.Fatalf("stat: %v", err)
		}
		total += info.Size()
	}
	return total
}

func TestLookupAfterStore(t *testing.T) {
	cache, _ := newTestCache(t, 1<<20)

	path, err := cache.Store("hello there", "en", testParams(), []byte("audio-bytes"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got, ok := cache.Lookup("hello there", "en", testParams())
	if !ok {
		t.Fatal("expected cache hit")
	}
	if got != path {
		t.Errorf("expected path %s, got %s", path, got)
	}
}

func TestKeyDeterminism(t *testing.T) {
	params := testParams()
	k1 := DeriveKey("hello", "en", params)
	k2 := DeriveKey("hello", "en", params)
	if k1 != k2 {
		t.Errorf("expected identical keys, got %s and %s", k1, k2)
	}
	if len(k1) != 64 {
		t.Errorf("expected 64-char hex digest, got %d chars", len(k1))
	}
}

func TestKeySensitivity(t *testing.T) {
	base := DeriveKey("hello", "en", testParams())

	tests := []struct {
		name   string
		text   string
		lang   string
		params Params
	}{
		{"text changed", "goodbye", "en", testParams()},
		{"language changed", "hello", "ml", testParams()},
		{"voice changed", "hello", "en", Params{VoiceID: "ml-IN-Wavenet-A", SpeakingRate: 1.0}},
		{"rate changed", "hello", "en", Params{VoiceID: "en-IN-Wavenet-D", SpeakingRate: 1.2}},
		{"pitch changed", "hello", "en", Params{VoiceID: "en-IN-Wavenet-D", SpeakingRate: 1.0, Pitch: 2.0}},
		{"gain changed", "hello", "en", Params{VoiceID: "en-IN-Wavenet-D", SpeakingRate: 1.0, VolumeGainDB: -3.0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if k := DeriveKey(tt.text, tt.lang, tt.params); k == base {
				t.Errorf("expected distinct key for %s", tt.name)
			}
		})
	}
}

func TestKeyStableAcrossRestart(t *testing.T) {
	dir := t.TempDir()
	clock := newFakeClock()

	cache, err := New(dir, 1<<20, WithNow(clock.Now))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	path, err := cache.Store("persistent phrase", "en", testParams(), []byte("mp3 payload"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// A fresh cache over the same directory must rebuild its index and
	// resolve the same request to the same artifact.
	reopened, err := New(dir, 1<<20, WithNow(clock.Now))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got, ok := reopened.Lookup("persistent phrase", "en", testParams())
	if !ok {
		t.Fatal("expected hit after reopen")
	}
	if got != path {
		t.Errorf("expected path %s after reopen, got %s", path, got)
	}
}

func TestSizeAccounting(t *testing.T) {
	cache, clock := newTestCache(t, 1000)

	for _, text := range []string{"one", "two", "three"} {
		if _, err := cache.Store(text, "en", testParams(), make([]byte, 200)); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		clock.Advance(time.Second)
	}

	if got, want := cache.Size(), diskBytes(t, cache.dir); got != want {
		t.Errorf("tracked size %d does not match disk %d", got, want)
	}

	// Push over the ceiling to force an eviction pass, then re-check.
	if _, err := cache.Store("four", "en", testParams(), make([]byte, 600)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got, want := cache.Size(), diskBytes(t, cache.dir); got != want {
		t.Errorf("tracked size %d does not match disk %d after eviction", got, want)
	}

	cache.Clear()
	if got := cache.Size(); got != 0 {
		t.Errorf("expected size 0 after clear, got %d", got)
	}
}

func TestThresholdInvariant(t *testing.T) {
	cache, clock := newTestCache(t, 1000)

	for i := 0; i < 20; i++ {
		text := string(rune('a' + i))
		if _, err := cache.Store(text, "en", testParams(), make([]byte, 300)); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		clock.Advance(time.Second)

		if got := cache.Size(); got > 1000 {
			t.Fatalf("size %d exceeds ceiling after store %d", got, i)
		}
	}
}

func TestEvictionOrder(t *testing.T) {
	cache, clock := newTestCache(t, 1000)

	texts := []string{"first", "second", "third", "fourth"}
	for _, text := range texts {
		if _, err := cache.Store(text, "en", testParams(), make([]byte, 300)); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		clock.Advance(time.Minute)
	}

	// 4 x 300 = 1200 > 1000: eviction frees oldest-first down to <= 700.
	if _, ok := cache.Lookup("first", "en", testParams()); ok {
		t.Error("expected oldest entry evicted")
	}
	if _, ok := cache.Lookup("second", "en", testParams()); ok {
		t.Error("expected second-oldest entry evicted")
	}
	for _, text := range []string{"third", "fourth"} {
		if _, ok := cache.Lookup(text, "en", testParams()); !ok {
			t.Errorf("expected %q to survive eviction", text)
		}
	}
}

func TestLookupRefreshesAccessTime(t *testing.T) {
	cache, clock := newTestCache(t, 1000)

	if _, err := cache.Store("refreshed", "en", testParams(), make([]byte, 300)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	clock.Advance(time.Minute)
	if _, err := cache.Store("untouched", "en", testParams(), make([]byte, 300)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	clock.Advance(time.Minute)

	// Touch the older entry so it becomes the most recently used.
	if _, ok := cache.Lookup("refreshed", "en", testParams()); !ok {
		t.Fatal("expected hit")
	}
	clock.Advance(time.Minute)

	// Overflow: "untouched" now has the oldest access time and must go first.
	if _, err := cache.Store("overflow", "en", testParams(), make([]byte, 600)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, ok := cache.Lookup("untouched", "en", testParams()); ok {
		t.Error("expected least-recently-used entry evicted")
	}
	if _, ok := cache.Lookup("refreshed", "en", testParams()); !ok {
		t.Error("expected recently read entry to survive")
	}
}

func TestSelfHealingOnMissingFile(t *testing.T) {
	cache, _ := newTestCache(t, 1<<20)

	path, err := cache.Store("doomed", "en", testParams(), []byte("some audio"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Simulate external tampering.
	if err := os.Remove(path); err != nil {
		t.Fatalf("remove: %v", err)
	}

	if _, ok := cache.Lookup("doomed", "en", testParams()); ok {
		t.Error("expected miss for tampered entry")
	}
	if got := cache.Len(); got != 0 {
		t.Errorf("expected stale entry dropped, have %d entries", got)
	}
	if got, want := cache.Size(), diskBytes(t, cache.dir); got != want {
		t.Errorf("tracked size %d does not match disk %d after self-heal", got, want)
	}
}

func TestCrashAtomicity(t *testing.T) {
	cache, _ := newTestCache(t, 1<<20)

	orig := renameFile
	renameFile = func(oldpath, newpath string) error {
		return errors.New("injected crash before rename")
	}
	defer func() { renameFile = orig }()

	_, err := cache.Store("never published", "en", testParams(), []byte("partial"))
	if err == nil {
		t.Fatal("expected store to fail")
	}
	var se *StorageError
	if !errors.As(err, &se) {
		t.Errorf("expected StorageError, got %T", err)
	}

	if _, ok := cache.Lookup("never published", "en", testParams()); ok {
		t.Error("expected interrupted write to be invisible")
	}
	if got := diskBytes(t, cache.dir); got != 0 {
		t.Errorf("expected no bytes on disk, found %d", got)
	}
}

func TestEvictionScenario(t *testing.T) {
	cache, clock := newTestCache(t, 1000)

	texts := []string{"alpha", "bravo", "charlie", "delta", "echo"}
	for _, text := range texts {
		if _, err := cache.Store(text, "en", testParams(), make([]byte, 300)); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		clock.Advance(time.Minute)
	}

	if got := cache.Size(); got != 900 {
		t.Errorf("expected 900 bytes after final store, got %d", got)
	}
	if got := cache.Len(); got != 3 {
		t.Errorf("expected 3 entries, got %d", got)
	}

	for _, text := range texts[:2] {
		if _, ok := cache.Lookup(text, "en", testParams()); ok {
			t.Errorf("expected %q evicted", text)
		}
	}
	for _, text := range texts[2:] {
		if _, ok := cache.Lookup(text, "en", testParams()); !ok {
			t.Errorf("expected %q retained", text)
		}
	}
}

func TestClear(t *testing.T) {
	cache, _ := newTestCache(t, 1<<20)

	for _, text := range []string{"a", "b", "c"} {
		if _, err := cache.Store(text, "en", testParams(), []byte("payload")); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	cache.Clear()

	if got := cache.Len(); got != 0 {
		t.Errorf("expected 0 entries, got %d", got)
	}
	if got := cache.Size(); got != 0 {
		t.Errorf("expected 0 bytes, got %d", got)
	}
	dirents, err := os.ReadDir(cache.dir)
	if err != nil {
		t.Fatalf("read dir: %v", err)
	}
	if len(dirents) != 0 {
		t.Errorf("expected empty cache directory, found %d files", len(dirents))
	}
}

func TestRebuildSkipsCorruptFiles(t *testing.T) {
	dir := t.TempDir()

	if err := os.WriteFile(filepath.Join(dir, "deadbeef.mp3"), nil, 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, tmpPrefix+"123"), []byte("partial"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "cafef00d.mp3"), []byte("valid audio"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	cache, err := New(dir, 1<<20)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got := cache.Len(); got != 1 {
		t.Errorf("expected 1 entry after rebuild, got %d", got)
	}
	if got := cache.Size(); got != int64(len("valid audio")) {
		t.Errorf("expected %d bytes, got %d", len("valid audio"), got)
	}

	// Zero-byte artifact and stale temp file are swept during the scan.
	if _, err := os.Stat(filepath.Join(dir, "deadbeef.mp3")); !os.IsNotExist(err) {
		t.Error("expected empty artifact removed")
	}
	if _, err := os.Stat(filepath.Join(dir, tmpPrefix+"123")); !os.IsNotExist(err) {
		t.Error("expected temp file swept")
	}
}

func TestConcurrentAccess(t *testing.T) {
	cache, _ := newTestCache(t, 1<<20)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			text := string(rune('a' + n%4))
			for j := 0; j < 50; j++ {
				if _, ok := cache.Lookup(text, "en", testParams()); !ok {
					if _, err := cache.Store(text, "en", testParams(), []byte("concurrent audio")); err != nil {
						t.Errorf("store: %v", err)
						return
					}
				}
			}
		}(i)
	}
	wg.Wait()

	if got, want := cache.Size(), diskBytes(t, cache.dir); got != want {
		t.Errorf("tracked size %d does not match disk %d", got, want)
	}
}
