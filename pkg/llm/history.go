package llm

import "sync"

// history is the sliding conversation window and usage counters shared by
// all provider implementations.
type history struct {
	mu       sync.Mutex
	messages []Message
	max      int
	stats    Stats
}

func newHistory(max int) *history {
	if max <= 0 {
		max = 10
	}
	return &history{max: max}
}

// add appends a message, trimming the window from the front.
func (h *history) add(role Role, content string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.messages = append(h.messages, Message{Role: role, Content: content})
	if len(h.messages) > h.max {
		h.messages = h.messages[len(h.messages)-h.max:]
	}
}

// window returns a copy of the current message window.
func (h *history) window() []Message {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]Message, len(h.messages))
	copy(out, h.messages)
	return out
}

// clear drops the window.
func (h *history) clear() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.messages = nil
}

// recordTurn updates usage counters after a completed exchange.
func (h *history) recordTurn(tokens int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.stats.Turns++
	h.stats.TokensUsed += tokens
}

// snapshot returns current usage counters.
func (h *history) snapshot() Stats {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.stats
}
