package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"go.uber.org/zap"

	ws "taskboard/internal/websocket"
	"taskboard/pkg/logger"
)

// BoardSocketGate authenticates a board subscription before the protocol
// upgrade. Browsers cannot set headers on websocket requests, so the access
// token travels in the token query parameter.
func (h *Handler) BoardSocketGate(c *fiber.Ctx) error {
	if !websocket.IsWebSocketUpgrade(c) {
		return fiber.ErrUpgradeRequired
	}

	claims, err := h.Tokens.ParseAccess(c.Query("token"))
	if err != nil {
		logger.SecurityLogger.Warn("Board socket rejected", zap.Error(err))
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"success": false,
			"error":   "Invalid token",
		})
	}

	projectID := c.Params("projectId")
	if err := h.Access.CanAccessProject(claims.UserID, claims.Role, projectID); err != nil {
		return h.fail(c, err)
	}

	c.Locals("userID", claims.UserID)
	c.Locals("projectID", projectID)
	return c.Next()
}

// BoardSocket keeps a subscriber attached to the hub until the peer hangs
// up. Inbound frames are discarded; the socket is a one-way event feed.
func (h *Handler) BoardSocket() fiber.Handler {
	return websocket.New(func(conn *websocket.Conn) {
		projectID, _ := conn.Locals("projectID").(string)
		client := &ws.Client{Conn: conn, ProjectID: projectID}
		h.Hub.Register <- client
		defer func() { h.Hub.Unregister <- client }()

		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	})
}
