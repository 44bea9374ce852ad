// Package llm generates conversational replies for the kiosk.
//
// Providers speak either the OpenAI-compatible chat completions API or the
// Anthropic messages API. Each provider keeps a sliding window of
// conversation history and usage counters, so the surrounding loop only ever
// sends the latest user utterance.
//
// Example usage:
//
//	provider, _ := llm.NewOpenAI(
//	    llm.WithAPIKey(os.Getenv("OPENAI_API_KEY")),
//	    llm.WithModel("gpt-4o-mini"),
//	)
//	defer provider.Close()
//
//	reply, _ := provider.Reply(ctx, "What can you do?", "en")
package llm

import (
	"context"
	"errors"
	"fmt"
)

// Sentinel errors.
var (
	// ErrNoAPIKey is returned when the API key is missing.
	ErrNoAPIKey = errors.New("llm: API key required")

	// ErrEmptyReply is returned when the model produced no content.
	ErrEmptyReply = errors.New("llm: empty reply")
)

// Provider generates a reply to the latest user utterance.
type Provider interface {
	// Reply appends the user message to the conversation and returns the
	// assistant's reply. language carries a hint when the user spoke
	// Malayalam.
	Reply(ctx context.Context, userMessage, language string) (string, error)

	// ClearHistory drops the conversation window (new visitor).
	ClearHistory()

	// Stats returns usage counters for the session.
	Stats() Stats

	// Health checks provider connectivity and API key validity.
	Health(ctx context.Context) error

	// Close releases any resources held by the provider.
	Close() error
}

// Role identifies a message sender.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one turn in the conversation.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// Stats tracks provider usage across a session.
type Stats struct {
	Turns      int `json:"turns"`
	TokensUsed int `json:"tokens_used"`
}

// APIError represents an error response from an LLM API.
type APIError struct {
	StatusCode int
	Message    string
	Provider   string
}

// Error implements the error interface.
func (e *APIError) Error() string {
	return fmt.Sprintf("llm [%s]: API error %d: %s", e.Provider, e.StatusCode, e.Message)
}

// IsRetryable returns true if the request should be retried.
func (e *APIError) IsRetryable() bool {
	return e.StatusCode == 429 || e.StatusCode >= 500
}

// malayalamHint is appended as a system message when the visitor spoke
// Malayalam, nudging the model to respond warmly without assuming fluency.
const malayalamHint = "Note: The user spoke in Malayalam. You can acknowledge this and respond warmly. Use simple English or basic Malayalam phrases if appropriate."
