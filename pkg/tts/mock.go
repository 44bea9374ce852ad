package tts

import (
	"context"
	"sync"
)

// Mock implements Provider for testing.
// All methods can be customized via function fields.
type Mock struct {
	// SynthesizeFunc is called when Synthesize is invoked.
	// If nil, returns a small deterministic payload.
	SynthesizeFunc func(ctx context.Context, text, language string) (*AudioResult, error)

	// HealthFunc is called when Health is invoked.
	// If nil, returns nil (healthy).
	HealthFunc func(ctx context.Context) error

	// Params returned by Voice. Defaults to a fixed test voice.
	Params VoiceParams

	// Tracking
	mu    sync.Mutex
	calls []string
}

// NewMock creates a new mock provider with sensible defaults.
func NewMock() *Mock {
	return &Mock{
		SynthesizeFunc: func(ctx context.Context, text, language string) (*AudioResult, error) {
			language = ResolveLanguage(language, text)
			// One byte per character keeps sizes predictable in tests.
			return &AudioResult{
				Audio:     make([]byte, len(text)),
				Language:  language,
				CharCount: len(text),
			}, nil
		},
		Params: VoiceParams{VoiceID: "mock-voice", SpeakingRate: 1.0},
	}
}

// MockWithError returns a mock whose every method fails with err.
func MockWithError(err error) *Mock {
	return &Mock{
		SynthesizeFunc: func(ctx context.Context, text, language string) (*AudioResult, error) {
			return nil, err
		},
		HealthFunc: func(ctx context.Context) error {
			return err
		},
		Params: VoiceParams{VoiceID: "mock-voice", SpeakingRate: 1.0},
	}
}

// Synthesize calls SynthesizeFunc and records the call.
func (m *Mock) Synthesize(ctx context.Context, text, language string) (*AudioResult, error) {
	m.record("Synthesize")
	if m.SynthesizeFunc != nil {
		return m.SynthesizeFunc(ctx, text, language)
	}
	return nil, WrapError("mock", ErrProviderUnavailable)
}

// Voice returns the configured test parameters.
func (m *Mock) Voice(language string) VoiceParams {
	return m.Params
}

// Health calls HealthFunc and records the call.
func (m *Mock) Health(ctx context.Context) error {
	m.record("Health")
	if m.HealthFunc != nil {
		return m.HealthFunc(ctx)
	}
	return nil
}

// Name identifies the provider.
func (m *Mock) Name() string {
	return "mock"
}

// Close records the call.
func (m *Mock) Close() error {
	m.record("Close")
	return nil
}

// CallCount returns the number of times a method was called.
func (m *Mock) CallCount(method string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	count := 0
	for _, c := range m.calls {
		if c == method {
			count++
		}
	}
	return count
}

func (m *Mock) record(method string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, method)
}

// Verify Mock implements Provider at compile time.
var _ Provider = (*Mock)(nil)
