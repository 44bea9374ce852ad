package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/nila-labs/nila/internal/httpc"
)

const (
	anthropicMessagesURL = "https://api.anthropic.com/v1/messages"
	anthropicVersion     = "2023-06-01"
	providerAnthropic    = "anthropic"
)

// Anthropic implements Provider for the Anthropic messages API.
type Anthropic struct {
	config  *Config
	client  *http.Client
	logger  *slog.Logger
	baseURL string
	history *history
}

// NewAnthropic creates a new Anthropic chat provider.
func NewAnthropic(opts ...Option) (*Anthropic, error) {
	cfg := DefaultConfig()
	cfg.Model = "claude-3-5-haiku-latest"
	cfg.Apply(opts...)

	if cfg.APIKey == "" {
		return nil, ErrNoAPIKey
	}

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = anthropicMessagesURL
	}

	return &Anthropic{
		config:  cfg,
		client:  httpc.NewClient(cfg.Timeout),
		logger:  cfg.Logger.With("component", "llm.anthropic"),
		baseURL: baseURL,
		history: newHistory(cfg.MaxHistory),
	}, nil
}

type anthropicRequest struct {
	Model     string    `json:"model"`
	System    string    `json:"system,omitempty"`
	Messages  []Message `json:"messages"`
	MaxTokens int       `json:"max_tokens"`
}

type anthropicResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	Usage struct {
		InputTokens  int `json:"input_tokens"`
		OutputTokens int `json:"output_tokens"`
	} `json:"usage"`
}

// Reply sends the conversation window plus the new user message and returns
// the assistant's reply. The system prompt travels in the top-level system
// field, not the message list.
func (a *Anthropic) Reply(ctx context.Context, userMessage, language string) (string, error) {
	a.history.add(RoleUser, userMessage)

	system := a.config.SystemPrompt
	if language == "ml" {
		system += "\n\n" + malayalamHint
	}

	start := time.Now()
	body, err := json.Marshal(anthropicRequest{
		Model:     a.config.Model,
		System:    system,
		Messages:  a.history.window(),
		MaxTokens: a.config.MaxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("llm: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", a.baseURL, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("llm: create request: %w", err)
	}
	req.Header.Set("x-api-key", a.config.APIKey)
	req.Header.Set("anthropic-version", anthropicVersion)
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("llm: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("llm: read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", parseAPIError(providerAnthropic, resp.StatusCode, respBody)
	}

	var parsed anthropicResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return "", fmt.Errorf("llm: decode response: %w", err)
	}

	var reply string
	for _, block := range parsed.Content {
		if block.Type == "text" {
			reply += block.Text
		}
	}
	reply = strings.TrimSpace(reply)
	if reply == "" {
		return "", ErrEmptyReply
	}

	a.history.add(RoleAssistant, reply)
	a.history.recordTurn(parsed.Usage.InputTokens + parsed.Usage.OutputTokens)

	a.logger.Debug("generated reply",
		"chars", len(reply),
		"tokens", parsed.Usage.InputTokens+parsed.Usage.OutputTokens,
		"latency_ms", time.Since(start).Milliseconds(),
	)
	return reply, nil
}

// ClearHistory drops the conversation window.
func (a *Anthropic) ClearHistory() {
	a.history.clear()
}

// Stats returns usage counters.
func (a *Anthropic) Stats() Stats {
	return a.history.snapshot()
}

// Health sends a minimal request to validate the API key.
func (a *Anthropic) Health(ctx context.Context) error {
	body, _ := json.Marshal(anthropicRequest{
		Model:     a.config.Model,
		Messages:  []Message{{Role: RoleUser, Content: "ping"}},
		MaxTokens: 1,
	})

	req, err := http.NewRequestWithContext(ctx, "POST", a.baseURL, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("x-api-key", a.config.APIKey)
	req.Header.Set("anthropic-version", anthropicVersion)
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.client.Do(req)
	if err != nil {
		return fmt.Errorf("llm: health check: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return parseAPIError(providerAnthropic, resp.StatusCode, respBody)
	}
	return nil
}

// Close releases resources.
func (a *Anthropic) Close() error {
	a.client.CloseIdleConnections()
	return nil
}

// Verify Anthropic implements Provider at compile time.
var _ Provider = (*Anthropic)(nil)
