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
	openAIChatURL  = "https://api.openai.com/v1/chat/completions"
	providerOpenAI = "openai"
)

// OpenAI implements Provider for the OpenAI chat completions API and any
// OpenAI-compatible server (Ollama, vLLM, Together) via WithBaseURL.
type OpenAI struct {
	config  *Config
	client  *http.Client
	logger  *slog.Logger
	baseURL string
	history *history
}

// NewOpenAI creates a new OpenAI chat provider.
func NewOpenAI(opts ...Option) (*OpenAI, error) {
	cfg := DefaultConfig()
	cfg.Apply(opts...)

	if cfg.APIKey == "" {
		return nil, ErrNoAPIKey
	}

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = openAIChatURL
	}

	return &OpenAI{
		config:  cfg,
		client:  httpc.NewClient(cfg.Timeout),
		logger:  cfg.Logger.With("component", "llm.openai"),
		baseURL: baseURL,
		history: newHistory(cfg.MaxHistory),
	}, nil
}

type chatRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	MaxTokens   int       `json:"max_tokens,omitempty"`
	Temperature float64   `json:"temperature,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Usage struct {
		TotalTokens int `json:"total_tokens"`
	} `json:"usage"`
}

// Reply sends the conversation window plus the new user message and returns
// the assistant's reply.
func (o *OpenAI) Reply(ctx context.Context, userMessage, language string) (string, error) {
	o.history.add(RoleUser, userMessage)

	messages := []Message{{Role: RoleSystem, Content: o.config.SystemPrompt}}
	messages = append(messages, o.history.window()...)
	if language == "ml" {
		messages = append(messages, Message{Role: RoleSystem, Content: malayalamHint})
	}

	start := time.Now()
	body, err := json.Marshal(chatRequest{
		Model:       o.config.Model,
		Messages:    messages,
		MaxTokens:   o.config.MaxTokens,
		Temperature: o.config.Temperature,
	})
	if err != nil {
		return "", fmt.Errorf("llm: marshal request: %w", err)
	}

	resp, err := o.doWithRetry(ctx, body)
	if err != nil {
		return "", err
	}

	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return "", ErrEmptyReply
	}
	reply := strings.TrimSpace(resp.Choices[0].Message.Content)

	o.history.add(RoleAssistant, reply)
	o.history.recordTurn(resp.Usage.TotalTokens)

	o.logger.Debug("generated reply",
		"chars", len(reply),
		"tokens", resp.Usage.TotalTokens,
		"latency_ms", time.Since(start).Milliseconds(),
	)
	return reply, nil
}

// doWithRetry posts the request, retrying rate limits and server errors.
func (o *OpenAI) doWithRetry(ctx context.Context, body []byte) (*chatResponse, error) {
	var lastErr error

	for attempt := 0; attempt <= o.config.MaxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(o.config.RetryDelay * time.Duration(attempt)):
			}
		}

		req, err := http.NewRequestWithContext(ctx, "POST", o.baseURL, bytes.NewReader(body))
		if err != nil {
			return nil, fmt.Errorf("llm: create request: %w", err)
		}
		req.Header.Set("Authorization", "Bearer "+o.config.APIKey)
		req.Header.Set("Content-Type", "application/json")

		resp, err := o.client.Do(req)
		if err != nil {
			lastErr = fmt.Errorf("llm: %w", err)
			continue
		}

		respBody, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			lastErr = fmt.Errorf("llm: read response: %w", err)
			continue
		}

		if resp.StatusCode != http.StatusOK {
			apiErr := parseAPIError(providerOpenAI, resp.StatusCode, respBody)
			if apiErr.IsRetryable() {
				lastErr = apiErr
				o.logger.Warn("retrying request", "attempt", attempt+1, "status", resp.StatusCode)
				continue
			}
			return nil, apiErr
		}

		var parsed chatResponse
		if err := json.Unmarshal(respBody, &parsed); err != nil {
			return nil, fmt.Errorf("llm: decode response: %w", err)
		}
		return &parsed, nil
	}

	return nil, lastErr
}

// ClearHistory drops the conversation window.
func (o *OpenAI) ClearHistory() {
	o.history.clear()
}

// Stats returns usage counters.
func (o *OpenAI) Stats() Stats {
	return o.history.snapshot()
}

// Health checks API connectivity.
func (o *OpenAI) Health(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, "GET", "https://api.openai.com/v1/models", nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+o.config.APIKey)

	resp, err := o.client.Do(req)
	if err != nil {
		return fmt.Errorf("llm: health check: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return parseAPIError(providerOpenAI, resp.StatusCode, body)
	}
	return nil
}

// Close releases resources.
func (o *OpenAI) Close() error {
	o.client.CloseIdleConnections()
	return nil
}

// parseAPIError extracts a message from a JSON error body.
func parseAPIError(provider string, status int, body []byte) *APIError {
	var errResp struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	message := string(body)
	if json.Unmarshal(body, &errResp) == nil && errResp.Error.Message != "" {
		message = errResp.Error.Message
	}
	return &APIError{StatusCode: status, Message: message, Provider: provider}
}

// Verify OpenAI implements Provider at compile time.
var _ Provider = (*OpenAI)(nil)
