// Package realtime provides a client for OpenAI's realtime API, the
// low-latency speech-to-speech mode of the assistant. Audio goes up as
// base64 PCM16 chunks and comes back as streamed deltas.
package realtime

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/nila-labs/nila/internal/log"
)

const (
	// DefaultURL is the production realtime endpoint.
	DefaultURL = "wss://api.openai.com/v1/realtime"

	// DefaultModel is the realtime-capable model.
	DefaultModel = "gpt-4o-realtime-preview"

	// SampleRate is the PCM16 rate the realtime API expects.
	SampleRate = 24000

	// DefaultInstructions is the assistant persona for the kiosk.
	DefaultInstructions = "Reply short, friendly, and with a Kerala accent. " +
		"Understand Malayalam, Manglish, English."

	readTimeout  = 120 * time.Second
	writeTimeout = 10 * time.Second
	pingInterval = 30 * time.Second
)

// ErrNotConnected is returned when sending before Connect succeeds.
var ErrNotConnected = errors.New("realtime: not connected")

// Client manages the websocket connection to the realtime API.
type Client struct {
	apiKey       string
	url          string
	model        string
	instructions string
	voice        string
	logger       *slog.Logger

	wsMu sync.Mutex
	ws   *websocket.Conn

	stateMu      sync.Mutex
	connected    bool
	sessionReady bool
	closed       bool

	// OnAudioDelta receives decoded PCM16 chunks of the reply.
	OnAudioDelta func(pcm []byte)

	// OnAudioDone fires when the reply audio is complete.
	OnAudioDone func()

	// OnTranscript receives reply text, streamed then final.
	OnTranscript func(text string, final bool)

	// OnSessionCreated fires once the server acknowledges the session.
	OnSessionCreated func()

	// OnError receives read loop and server errors.
	OnError func(err error)
}

// Option configures a Client.
type Option func(*Client)

// WithURL overrides the endpoint, for tests.
func WithURL(url string) Option {
	return func(c *Client) { c.url = url }
}

// WithModel overrides the model.
func WithModel(model string) Option {
	return func(c *Client) { c.model = model }
}

// WithInstructions overrides the assistant persona.
func WithInstructions(instructions string) Option {
	return func(c *Client) { c.instructions = instructions }
}

// WithVoice sets the reply voice.
func WithVoice(voice string) Option {
	return func(c *Client) { c.voice = voice }
}

// NewClient creates a realtime client.
func NewClient(apiKey string, opts ...Option) *Client {
	c := &Client{
		apiKey:       apiKey,
		url:          DefaultURL,
		model:        DefaultModel,
		instructions: DefaultInstructions,
		voice:        "alloy",
		logger:       log.With("component", "realtime"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Connect dials the API, configures the session, and starts the read
// loop and keepalive pinger.
func (c *Client) Connect(ctx context.Context) error {
	url := fmt.Sprintf("%s?model=%s", c.url, c.model)

	header := http.Header{}
	header.Set("Authorization", "Bearer "+c.apiKey)
	header.Set("OpenAI-Beta", "realtime=v1")

	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	ws, _, err := dialer.DialContext(ctx, url, header)
	if err != nil {
		return fmt.Errorf("realtime: connect: %w", err)
	}

	ws.SetPingHandler(func(appData string) error {
		c.wsMu.Lock()
		defer c.wsMu.Unlock()
		return ws.WriteControl(websocket.PongMessage, []byte(appData), time.Now().Add(5*time.Second))
	})
	ws.SetReadDeadline(time.Now().Add(readTimeout))

	c.wsMu.Lock()
	c.ws = ws
	c.wsMu.Unlock()

	c.stateMu.Lock()
	c.connected = true
	c.stateMu.Unlock()

	go c.readLoop(ws)
	go c.keepAlive(ws)

	return c.configureSession()
}

// configureSession sends the session.update with persona and formats.
func (c *Client) configureSession() error {
	return c.sendJSON(map[string]any{
		"type": "session.update",
		"session": map[string]any{
			"modalities":          []string{"text", "audio"},
			"instructions":        c.instructions,
			"voice":               c.voice,
			"input_audio_format":  "pcm16",
			"output_audio_format": "pcm16",
			"turn_detection": map[string]any{
				"type":                "server_vad",
				"threshold":           0.5,
				"prefix_padding_ms":   300,
				"silence_duration_ms": 500,
			},
		},
	})
}

// SendAudio appends PCM16 audio to the input buffer.
func (c *Client) SendAudio(pcm []byte) error {
	if !c.IsConnected() {
		return ErrNotConnected
	}
	return c.sendJSON(map[string]any{
		"type":  "input_audio_buffer.append",
		"audio": base64.StdEncoding.EncodeToString(pcm),
	})
}

// CommitAudio commits the input buffer for processing.
func (c *Client) CommitAudio() error {
	return c.sendJSON(map[string]string{"type": "input_audio_buffer.commit"})
}

// ClearAudio drops any uncommitted input audio.
func (c *Client) ClearAudio() error {
	return c.sendJSON(map[string]string{"type": "input_audio_buffer.clear"})
}

// RequestResponse asks the model to reply to the committed audio.
func (c *Client) RequestResponse() error {
	return c.sendJSON(map[string]string{"type": "response.create"})
}

// SendText submits a text turn, for testing or hybrid input.
func (c *Client) SendText(text string) error {
	err := c.sendJSON(map[string]any{
		"type": "conversation.item.create",
		"item": map[string]any{
			"type": "message",
			"role": "user",
			"content": []map[string]any{
				{"type": "input_text", "text": text},
			},
		},
	})
	if err != nil {
		return err
	}
	return c.RequestResponse()
}

// CancelResponse interrupts the current reply.
func (c *Client) CancelResponse() error {
	return c.sendJSON(map[string]string{"type": "response.cancel"})
}

// Close shuts the connection down.
func (c *Client) Close() {
	c.stateMu.Lock()
	c.closed = true
	c.stateMu.Unlock()

	c.wsMu.Lock()
	if c.ws != nil {
		c.ws.Close()
	}
	c.wsMu.Unlock()
}

// IsConnected reports whether the connection is up.
func (c *Client) IsConnected() bool {
	c.stateMu.Lock()
	defer c.stateMu.Unlock()
	return c.connected && !c.closed
}

// IsReady reports whether the server acknowledged the session.
func (c *Client) IsReady() bool {
	c.stateMu.Lock()
	defer c.stateMu.Unlock()
	return c.sessionReady
}

func (c *Client) isClosed() bool {
	c.stateMu.Lock()
	defer c.stateMu.Unlock()
	return c.closed
}

// keepAlive pings until the connection closes.
func (c *Client) keepAlive(ws *websocket.Conn) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for range ticker.C {
		if c.isClosed() {
			return
		}
		c.wsMu.Lock()
		err := ws.WriteControl(websocket.PingMessage, []byte{}, time.Now().Add(writeTimeout))
		c.wsMu.Unlock()
		if err != nil {
			return
		}
	}
}

// readLoop dispatches incoming events to callbacks.
func (c *Client) readLoop(ws *websocket.Conn) {
	for {
		ws.SetReadDeadline(time.Now().Add(readTimeout))
		_, message, err := ws.ReadMessage()
		if err != nil {
			if !c.isClosed() && c.OnError != nil {
				c.OnError(err)
			}
			return
		}

		var msg map[string]any
		if err := json.Unmarshal(message, &msg); err != nil {
			continue
		}
		msgType, _ := msg["type"].(string)

		switch msgType {
		case "session.created":
			c.stateMu.Lock()
			c.sessionReady = true
			c.stateMu.Unlock()
			if c.OnSessionCreated != nil {
				c.OnSessionCreated()
			}

		case "response.audio.delta":
			delta, _ := msg["delta"].(string)
			if delta == "" {
				// Older event shape carried the chunk in "audio".
				delta, _ = msg["audio"].(string)
			}
			if delta != "" && c.OnAudioDelta != nil {
				pcm, err := base64.StdEncoding.DecodeString(delta)
				if err != nil {
					c.logger.Warn("undecodable audio delta", "error", err)
					continue
				}
				c.OnAudioDelta(pcm)
			}

		case "response.audio.done":
			if c.OnAudioDone != nil {
				c.OnAudioDone()
			}

		case "response.audio_transcript.delta":
			if delta, ok := msg["delta"].(string); ok && c.OnTranscript != nil {
				c.OnTranscript(delta, false)
			}

		case "response.audio_transcript.done":
			if transcript, ok := msg["transcript"].(string); ok && c.OnTranscript != nil {
				c.OnTranscript(transcript, true)
			}

		case "error":
			if errData, ok := msg["error"].(map[string]any); ok {
				if errMsg, ok := errData["message"].(string); ok && c.OnError != nil {
					c.OnError(fmt.Errorf("realtime: server error: %s", errMsg))
				}
			}
		}
	}
}

// sendJSON writes one message, serialized by wsMu.
func (c *Client) sendJSON(v any) error {
	c.wsMu.Lock()
	defer c.wsMu.Unlock()

	if c.ws == nil {
		return ErrNotConnected
	}
	c.ws.SetWriteDeadline(time.Now().Add(writeTimeout))
	return c.ws.WriteJSON(v)
}
