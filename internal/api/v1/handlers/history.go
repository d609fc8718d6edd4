package handlers

import (
	"encoding/json"

	"github.com/gofiber/fiber/v2"

	"taskboard/internal/models"
)

// GetTaskHistory returns a task's audit trail, newest first.
func (h *Handler) GetTaskHistory(c *fiber.Ctx) error {
	taskID := c.Params("taskId")
	if _, err := h.Access.CanAccessTask(userID(c), role(c), taskID); err != nil {
		return h.fail(c, err)
	}

	rows, err := h.DB.Query(`
		SELECT th.id, th.task_id, th.user_id, th.action, COALESCE(th.payload, ''), COALESCE(th.created_at, ''),
		       u.name AS user_name, u.email AS user_email
		FROM task_history th
		LEFT JOIN users u ON th.user_id = u.id
		WHERE th.task_id = $1
		ORDER BY th.created_at DESC`, taskID)
	if err != nil {
		return h.fail(c, err)
	}
	defer rows.Close()

	events := []models.HistoryEvent{}
	for rows.Next() {
		var ev models.HistoryEvent
		var payload string
		if err := rows.Scan(&ev.ID, &ev.TaskID, &ev.UserID, &ev.Action, &payload, &ev.CreatedAt,
			&ev.UserName, &ev.UserEmail); err != nil {
			return h.fail(c, err)
		}
		if json.Valid([]byte(payload)) {
			ev.Payload = json.RawMessage(payload)
		} else {
			ev.Payload = json.RawMessage("null")
		}
		events = append(events, ev)
	}
	if err := rows.Err(); err != nil {
		return h.fail(c, err)
	}
	return ok(c, events)
}
