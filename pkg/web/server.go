// Package web provides the operator dashboard for the voice assistant.
package web

import (
	"log/slog"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/websocket/v2"

	"github.com/nila-labs/nila/internal/log"
	"github.com/nila-labs/nila/pkg/audiocache"
	"github.com/nila-labs/nila/pkg/hub"
)

// State is the assistant snapshot shown on the dashboard.
type State struct {
	HardwareConnected bool   `json:"hardware_connected"`
	Listening         bool   `json:"listening"`
	Speaking          bool   `json:"speaking"`
	Language          string `json:"language"`
	SessionID         string `json:"session_id"`
	LastUserMessage   string `json:"last_user_message"`
	LastReply         string `json:"last_reply"`
	Turns             int    `json:"turns"`
	TokensUsed        int    `json:"tokens_used"`
}

// LogEntry is a log line for the dashboard feed.
type LogEntry struct {
	Time    string `json:"time"`
	Type    string `json:"type"` // info, speech, cache, error
	Message string `json:"message"`
}

// ConversationEntry is one message of the visitor conversation.
type ConversationEntry struct {
	Time    string `json:"time"`
	Role    string `json:"role"` // visitor, assistant
	Message string `json:"message"`
}

// CacheController exposes the audio cache to the dashboard.
type CacheController interface {
	CacheStats() audiocache.Stats
	ClearCache()
}

// Server is the dashboard HTTP and websocket server.
type Server struct {
	app    *fiber.App
	port   string
	logger *slog.Logger

	cache CacheController

	state   State
	stateMu sync.RWMutex

	logs   []LogEntry
	logsMu sync.RWMutex

	conversation   []ConversationEntry
	conversationMu sync.RWMutex

	statusHub       *hub.Hub
	logHub          *hub.Hub
	conversationHub *hub.Hub
}

// NewServer creates the dashboard server. cache may be nil when running
// without a synthesizer, the cache endpoints then return 404.
func NewServer(port string, cache CacheController) *Server {
	s := &Server{
		port:            port,
		logger:          log.With("component", "web"),
		cache:           cache,
		logs:            make([]LogEntry, 0, 500),
		conversation:    make([]ConversationEntry, 0, 100),
		statusHub:       hub.New("status"),
		logHub:          hub.New("logs"),
		conversationHub: hub.New("conversation"),
	}

	app := fiber.New(fiber.Config{
		AppName:               "NILA Dashboard",
		DisableStartupMessage: true,
	})

	// CORS for local development.
	app.Use(cors.New())

	app.Static("/", "./web")

	api := app.Group("/api")
	api.Get("/status", s.handleStatus)
	api.Get("/logs", s.handleGetLogs)
	api.Get("/conversation", s.handleGetConversation)
	api.Get("/cache", s.handleCacheStats)
	api.Post("/cache/clear", s.handleCacheClear)

	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})

	app.Get("/ws/status", websocket.New(s.handleStatusWS))
	app.Get("/ws/logs", websocket.New(s.handleLogsWS))
	app.Get("/ws/conversation", websocket.New(s.handleConversationWS))

	s.app = app
	return s
}

// Start runs the hubs and listens. It blocks.
func (s *Server) Start() error {
	s.logger.Info("dashboard listening", "port", s.port)

	go s.statusHub.Run()
	go s.logHub.Run()
	go s.conversationHub.Run()

	return s.app.Listen(":" + s.port)
}

// StartAsync runs the server in a goroutine.
func (s *Server) StartAsync() {
	go func() {
		if err := s.Start(); err != nil {
			s.logger.Error("dashboard server failed", "error", err)
		}
	}()
}

// UpdateState applies a mutation to the state and broadcasts the result.
func (s *Server) UpdateState(update func(*State)) {
	s.stateMu.Lock()
	update(&s.state)
	state := s.state
	s.stateMu.Unlock()

	s.statusHub.BroadcastJSON(state)
}

// AddLog appends a log entry and broadcasts it.
func (s *Server) AddLog(logType, message string) {
	entry := LogEntry{
		Time:    time.Now().Format("15:04:05"),
		Type:    logType,
		Message: message,
	}

	s.logsMu.Lock()
	s.logs = append(s.logs, entry)
	if len(s.logs) > 500 {
		s.logs = s.logs[1:]
	}
	s.logsMu.Unlock()

	s.logHub.BroadcastJSON(entry)
}

// AddConversation appends a conversation entry and broadcasts it.
func (s *Server) AddConversation(role, message string) {
	entry := ConversationEntry{
		Time:    time.Now().Format("15:04:05"),
		Role:    role,
		Message: message,
	}

	s.conversationMu.Lock()
	s.conversation = append(s.conversation, entry)
	if len(s.conversation) > 100 {
		s.conversation = s.conversation[1:]
	}
	s.conversationMu.Unlock()

	s.conversationHub.BroadcastJSON(entry)
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}
