package web

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"

	"github.com/nila-labs/nila/pkg/hub"
)

// handleStatus returns the current assistant state.
func (s *Server) handleStatus(c *fiber.Ctx) error {
	s.stateMu.RLock()
	defer s.stateMu.RUnlock()
	return c.JSON(s.state)
}

// handleGetLogs returns recent log entries.
func (s *Server) handleGetLogs(c *fiber.Ctx) error {
	s.logsMu.RLock()
	defer s.logsMu.RUnlock()
	return c.JSON(s.logs)
}

// handleGetConversation returns the recent conversation.
func (s *Server) handleGetConversation(c *fiber.Ctx) error {
	s.conversationMu.RLock()
	defer s.conversationMu.RUnlock()
	return c.JSON(s.conversation)
}

// handleCacheStats returns audio cache occupancy.
func (s *Server) handleCacheStats(c *fiber.Ctx) error {
	if s.cache == nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "cache not configured",
		})
	}
	return c.JSON(s.cache.CacheStats())
}

// handleCacheClear wipes the audio cache on operator request.
func (s *Server) handleCacheClear(c *fiber.Ctx) error {
	if s.cache == nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "cache not configured",
		})
	}
	s.cache.ClearCache()
	s.AddLog("cache", "audio cache cleared by operator")
	return c.JSON(s.cache.CacheStats())
}

// handleStatusWS streams state snapshots. The current state is sent on
// connect, then every change is pushed through the hub.
func (s *Server) handleStatusWS(c *websocket.Conn) {
	s.stateMu.RLock()
	c.WriteJSON(s.state)
	s.stateMu.RUnlock()

	hub.NewClient(s.statusHub, c).Run()
}

// handleLogsWS streams log entries, replaying the buffer on connect.
func (s *Server) handleLogsWS(c *websocket.Conn) {
	s.logsMu.RLock()
	for _, entry := range s.logs {
		c.WriteJSON(entry)
	}
	s.logsMu.RUnlock()

	hub.NewClient(s.logHub, c).Run()
}

// handleConversationWS streams the conversation, replaying the buffer on
// connect.
func (s *Server) handleConversationWS(c *websocket.Conn) {
	s.conversationMu.RLock()
	for _, entry := range s.conversation {
		c.WriteJSON(entry)
	}
	s.conversationMu.RUnlock()

	hub.NewClient(s.conversationHub, c).Run()
}
