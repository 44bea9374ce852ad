package audiocache

import (
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"strings"
)

// Key is the fixed-length hex fingerprint addressing a cached artifact.
// It doubles as the artifact's base filename, so the cache directory is
// self-describing and safe to inspect or clear manually.
type Key string

// DeriveKey fingerprints a synthesis request. Derivation is stable across
// process restarts; any difference in text, language, or voice parameters
// yields a different key.
func DeriveKey(text, language string, params Params) Key {
	h := sha256.New()
	// Field separator cannot appear in float formatting, and voice IDs with
	// separators still hash unambiguously because field order is fixed.
	h.Write([]byte(strings.TrimSpace(text)))
	h.Write([]byte{'\n'})
	h.Write([]byte(language))
	h.Write([]byte{'\n'})
	h.Write([]byte(params.VoiceID))
	h.Write([]byte{'\n'})
	h.Write([]byte(formatFloat(params.SpeakingRate)))
	h.Write([]byte{'\n'})
	h.Write([]byte(formatFloat(params.Pitch)))
	h.Write([]byte{'\n'})
	h.Write([]byte(formatFloat(params.VolumeGainDB)))
	return Key(hex.EncodeToString(h.Sum(nil)))
}

// formatFloat renders a parameter with the shortest exact representation so
// equal values always serialize identically.
func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
