package handlers

import (
	"database/sql"
	"errors"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"taskboard/internal/apperr"
	"taskboard/internal/models"
	"taskboard/pkg/logger"
)

// Membership administration. Grant and revoke are admin only; the roster of
// a single project is served by GetProjectUsers.

// GetUserProjects lists the projects a user belongs to. Admin only.
func (h *Handler) GetUserProjects(c *fiber.Ctx) error {
	targetID := c.Params("userId")

	rows, err := h.DB.Query(`
		SELECT p.id, p.code, p.name, COALESCE(p.created_at, '')
		FROM projects p
		JOIN project_users pu ON pu.project_id = p.id
		WHERE pu.user_id = $1
		ORDER BY p.name`, targetID)
	if err != nil {
		return h.fail(c, err)
	}
	defer rows.Close()

	projects := []models.Project{}
	for rows.Next() {
		var p models.Project
		if err := rows.Scan(&p.ID, &p.Code, &p.Name, &p.CreatedAt); err != nil {
			return h.fail(c, err)
		}
		projects = append(projects, p)
	}
	if err := rows.Err(); err != nil {
		return h.fail(c, err)
	}

	return ok(c, projects)
}

// AddProjectUser grants a user membership of a project. Admin only.
func (h *Handler) AddProjectUser(c *fiber.Ctx) error {
	type GrantRequest struct {
		ProjectID string `json:"projectId" validate:"required"`
		UserID    string `json:"userId" validate:"required"`
	}

	var req GrantRequest
	if err := h.parseBody(c, &req); err != nil {
		return h.fail(c, err)
	}

	var one int
	err := h.DB.QueryRow("SELECT 1 FROM projects WHERE id = $1", req.ProjectID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return h.fail(c, apperr.New(apperr.NotFound, "Project not found"))
	}
	if err != nil {
		return h.fail(c, err)
	}
	err = h.DB.QueryRow("SELECT 1 FROM users WHERE id = $1", req.UserID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return h.fail(c, apperr.New(apperr.NotFound, "User not found"))
	}
	if err != nil {
		return h.fail(c, err)
	}

	err = h.DB.QueryRow(
		"SELECT 1 FROM project_users WHERE project_id = $1 AND user_id = $2",
		req.ProjectID, req.UserID).Scan(&one)
	if err == nil {
		return h.fail(c, apperr.New(apperr.Conflict, "User already has access to this project"))
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return h.fail(c, err)
	}

	_, err = h.DB.Exec(
		"INSERT INTO project_users (project_id, user_id) VALUES ($1, $2)",
		req.ProjectID, req.UserID)
	if err != nil {
		return h.fail(c, err)
	}

	logger.AuditLogger.Info("Membership granted",
		zap.String("project_id", req.ProjectID), zap.String("user_id", req.UserID))
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"message": "User added to project",
	})
}

// RemoveProjectUser revokes membership. Admin only.
func (h *Handler) RemoveProjectUser(c *fiber.Ctx) error {
	projectID := c.Params("projectId")
	targetID := c.Params("userId")

	var one int
	err := h.DB.QueryRow(
		"SELECT 1 FROM project_users WHERE project_id = $1 AND user_id = $2",
		projectID, targetID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return h.fail(c, apperr.New(apperr.NotFound, "User does not have access to this project"))
	}
	if err != nil {
		return h.fail(c, err)
	}

	_, err = h.DB.Exec(
		"DELETE FROM project_users WHERE project_id = $1 AND user_id = $2",
		projectID, targetID)
	if err != nil {
		return h.fail(c, err)
	}

	logger.AuditLogger.Info("Membership revoked",
		zap.String("project_id", projectID), zap.String("user_id", targetID))
	return okMessage(c, "User removed from project")
}
