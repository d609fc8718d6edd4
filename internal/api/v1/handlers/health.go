package handlers

import "github.com/gofiber/fiber/v2"

// Health reports liveness plus the state of the backing stores.
func (h *Handler) Health(c *fiber.Ctx) error {
	dbStatus := "up"
	if err := h.DB.Ping(); err != nil {
		dbStatus = "down"
	}
	redisStatus := "up"
	if err := h.Redis.Ping(c.Context()).Err(); err != nil {
		redisStatus = "down"
	}

	status := fiber.StatusOK
	if dbStatus == "down" {
		status = fiber.StatusServiceUnavailable
	}
	return c.Status(status).JSON(fiber.Map{
		"success": dbStatus == "up",
		"data": fiber.Map{
			"database": dbStatus,
			"redis":    redisStatus,
		},
	})
}
