package handlers

import (
	"database/sql"
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"taskboard/internal/apperr"
	"taskboard/internal/models"
	ws "taskboard/internal/websocket"
	"taskboard/pkg/logger"
)

func (h *Handler) columnByID(id string) (models.Column, error) {
	var col models.Column
	err := h.DB.QueryRow(
		"SELECT id, project_id, name, position FROM columns WHERE id = $1",
		id).Scan(&col.ID, &col.ProjectID, &col.Name, &col.Position)
	if errors.Is(err, sql.ErrNoRows) {
		return col, apperr.New(apperr.NotFound, "Column not found")
	}
	return col, err
}

func (h *Handler) GetColumnsByProject(c *fiber.Ctx) error {
	projectID := c.Params("projectId")
	if err := h.Access.CanAccessProject(userID(c), role(c), projectID); err != nil {
		return h.fail(c, err)
	}

	rows, err := h.DB.Query(
		"SELECT id, project_id, name, position FROM columns WHERE project_id = $1 ORDER BY position",
		projectID)
	if err != nil {
		return h.fail(c, err)
	}
	defer rows.Close()

	columns := []models.Column{}
	for rows.Next() {
		var col models.Column
		if err := rows.Scan(&col.ID, &col.ProjectID, &col.Name, &col.Position); err != nil {
			return h.fail(c, err)
		}
		columns = append(columns, col)
	}
	if err := rows.Err(); err != nil {
		return h.fail(c, err)
	}

	return ok(c, columns)
}

// CreateColumn appends a column at the end of the project's board.
func (h *Handler) CreateColumn(c *fiber.Ctx) error {
	type ColumnRequest struct {
		ProjectID string `json:"projectId" validate:"required"`
		Name      string `json:"name" validate:"required,max=100"`
	}

	var req ColumnRequest
	if err := h.parseBody(c, &req); err != nil {
		return h.fail(c, err)
	}
	if err := h.Access.CanAccessProject(userID(c), role(c), req.ProjectID); err != nil {
		return h.fail(c, err)
	}

	position, err := h.Order.NextColumnPosition(req.ProjectID)
	if err != nil {
		return h.fail(c, err)
	}

	col := models.Column{
		ID:        uuid.NewString(),
		ProjectID: req.ProjectID,
		Name:      strings.TrimSpace(req.Name),
		Position:  position,
	}
	_, err = h.DB.Exec(
		"INSERT INTO columns (id, project_id, name, position) VALUES ($1, $2, $3, $4)",
		col.ID, col.ProjectID, col.Name, col.Position)
	if err != nil {
		return h.fail(c, err)
	}

	h.invalidateBoard(col.ProjectID)
	h.Hub.Publish(ws.Event{Type: "column_created", ProjectID: col.ProjectID, Data: col})

	logger.AuditLogger.Info("Column created",
		zap.String("column_id", col.ID), zap.String("project_id", col.ProjectID))
	return created(c, col)
}

func (h *Handler) UpdateColumn(c *fiber.Ctx) error {
	type UpdateColumnRequest struct {
		Name string `json:"name" validate:"required,max=100"`
	}

	var req UpdateColumnRequest
	if err := h.parseBody(c, &req); err != nil {
		return h.fail(c, err)
	}

	col, err := h.columnByID(c.Params("id"))
	if err != nil {
		return h.fail(c, err)
	}
	if err := h.Access.CanAccessProject(userID(c), role(c), col.ProjectID); err != nil {
		return h.fail(c, err)
	}

	col.Name = strings.TrimSpace(req.Name)
	if _, err := h.DB.Exec("UPDATE columns SET name = $1 WHERE id = $2", col.Name, col.ID); err != nil {
		return h.fail(c, err)
	}

	h.invalidateBoard(col.ProjectID)
	h.Hub.Publish(ws.Event{Type: "column_updated", ProjectID: col.ProjectID, Data: col})

	return ok(c, col)
}

// DeleteColumn drops the column; its tasks cascade away with it.
func (h *Handler) DeleteColumn(c *fiber.Ctx) error {
	col, err := h.columnByID(c.Params("id"))
	if err != nil {
		return h.fail(c, err)
	}
	if err := h.Access.CanAccessProject(userID(c), role(c), col.ProjectID); err != nil {
		return h.fail(c, err)
	}

	if _, err := h.DB.Exec("DELETE FROM columns WHERE id = $1", col.ID); err != nil {
		return h.fail(c, err)
	}

	h.invalidateBoard(col.ProjectID)
	h.Hub.Publish(ws.Event{Type: "column_deleted", ProjectID: col.ProjectID, Data: fiber.Map{"id": col.ID}})

	logger.AuditLogger.Info("Column deleted", zap.String("column_id", col.ID))
	return okMessage(c, "Column deleted successfully")
}

// ReorderColumns applies the client's full column ordering for a project.
func (h *Handler) ReorderColumns(c *fiber.Ctx) error {
	type ReorderRequest struct {
		ProjectID   string `json:"projectId" validate:"required"`
		ColumnOrder []struct {
			ID string `json:"id" validate:"required"`
		} `json:"columnOrder" validate:"required,min=1,dive"`
	}

	var req ReorderRequest
	if err := h.parseBody(c, &req); err != nil {
		return h.fail(c, err)
	}
	if err := h.Access.CanAccessProject(userID(c), role(c), req.ProjectID); err != nil {
		return h.fail(c, err)
	}

	orderedIDs := make([]string, 0, len(req.ColumnOrder))
	for _, col := range req.ColumnOrder {
		orderedIDs = append(orderedIDs, col.ID)
	}
	if err := h.Order.ReorderColumns(req.ProjectID, orderedIDs); err != nil {
		return h.fail(c, err)
	}

	h.invalidateBoard(req.ProjectID)
	h.Hub.Publish(ws.Event{Type: "columns_reordered", ProjectID: req.ProjectID, Data: orderedIDs})

	return okMessage(c, "Column order updated")
}
