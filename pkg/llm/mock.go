package llm

import (
	"context"
	"sync"
)

// Mock implements Provider for testing.
type Mock struct {
	// ReplyFunc is called when Reply is invoked.
	// If nil, echoes the user message.
	ReplyFunc func(ctx context.Context, userMessage, language string) (string, error)

	mu      sync.Mutex
	replies int
}

// NewMock creates a mock provider that echoes user messages.
func NewMock() *Mock {
	return &Mock{}
}

// Reply calls ReplyFunc or echoes the message.
func (m *Mock) Reply(ctx context.Context, userMessage, language string) (string, error) {
	m.mu.Lock()
	m.replies++
	m.mu.Unlock()

	if m.ReplyFunc != nil {
		return m.ReplyFunc(ctx, userMessage, language)
	}
	return "You said: " + userMessage, nil
}

// ClearHistory is a no-op.
func (m *Mock) ClearHistory() {}

// Stats returns the number of replies as turns.
func (m *Mock) Stats() Stats {
	m.mu.Lock()
	defer m.mu.Unlock()
	return Stats{Turns: m.replies}
}

// Health reports healthy.
func (m *Mock) Health(ctx context.Context) error {
	return nil
}

// Close releases resources.
func (m *Mock) Close() error {
	return nil
}

// Verify Mock implements Provider at compile time.
var _ Provider = (*Mock)(nil)
