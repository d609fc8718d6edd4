package handlers

import (
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"taskboard/internal/apperr"
	"taskboard/internal/models"
	"taskboard/internal/repository"
	"taskboard/pkg/logger"
)

// GetProjects lists every project. The board client filters by membership
// when rendering; access to project contents stays membership-gated.
func (h *Handler) GetProjects(c *fiber.Ctx) error {
	rows, err := h.DB.Query(
		"SELECT id, code, name, COALESCE(created_at, '') FROM projects ORDER BY name")
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

var codeAllowed = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789-"

func validProjectCode(code string) bool {
	if len(code) < 2 || len(code) > 10 {
		return false
	}
	for _, r := range code {
		if !strings.ContainsRune(codeAllowed, r) {
			return false
		}
	}
	return true
}

// CreateProject creates a project with the default column set and joins the
// creator. Admin only.
func (h *Handler) CreateProject(c *fiber.Ctx) error {
	type ProjectRequest struct {
		Name string `json:"name" validate:"required,min=3,max=100"`
		Code string `json:"code" validate:"required"`
	}

	var req ProjectRequest
	if err := h.parseBody(c, &req); err != nil {
		return h.fail(c, err)
	}
	code := strings.ToUpper(strings.TrimSpace(req.Code))
	if !validProjectCode(code) {
		return h.fail(c, apperr.New(apperr.Validation, "Project code must be 2-10 characters, A-Z, 0-9, -"))
	}

	var one int
	err := h.DB.QueryRow("SELECT 1 FROM projects WHERE code = $1", code).Scan(&one)
	if err == nil {
		return h.fail(c, apperr.New(apperr.Conflict, "Project with this code already exists"))
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return h.fail(c, err)
	}

	project := models.Project{
		ID:        uuid.NewString(),
		Code:      code,
		Name:      strings.TrimSpace(req.Name),
		CreatedAt: time.Now().UTC().Format(time.RFC3339),
	}
	_, err = h.DB.Exec(
		"INSERT INTO projects (id, code, name, created_at) VALUES ($1, $2, $3, $4)",
		project.ID, project.Code, project.Name, project.CreatedAt)
	if err != nil {
		return h.fail(c, err)
	}

	// Creator joins the project it just made.
	_, err = h.DB.Exec(
		"INSERT INTO project_users (project_id, user_id) VALUES ($1, $2)",
		project.ID, userID(c))
	if err != nil {
		return h.fail(c, err)
	}

	if err := repository.CreateDefaultColumns(h.DB, project.ID); err != nil {
		return h.fail(c, err)
	}

	logger.AuditLogger.Info("Project created",
		zap.String("project_id", project.ID), zap.String("code", project.Code))
	return created(c, project)
}

func (h *Handler) GetProject(c *fiber.Ctx) error {
	id := c.Params("id")
	if err := h.Access.CanAccessProject(userID(c), role(c), id); err != nil {
		return h.fail(c, err)
	}

	var p models.Project
	err := h.DB.QueryRow(
		"SELECT id, code, name, COALESCE(created_at, '') FROM projects WHERE id = $1",
		id).Scan(&p.ID, &p.Code, &p.Name, &p.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return h.fail(c, apperr.New(apperr.NotFound, "Project not found"))
	}
	if err != nil {
		return h.fail(c, err)
	}

	return ok(c, p)
}

// GetProjectUsers returns the membership roster, used for assignee pickers.
func (h *Handler) GetProjectUsers(c *fiber.Ctx) error {
	id := c.Params("id")
	if err := h.Access.CanAccessProject(userID(c), role(c), id); err != nil {
		return h.fail(c, err)
	}

	rows, err := h.DB.Query(`
		SELECT u.id, u.email, u.name, u.role, u.avatar_url
		FROM users u
		JOIN project_users pu ON pu.user_id = u.id
		WHERE pu.project_id = $1
		ORDER BY u.name`, id)
	if err != nil {
		return h.fail(c, err)
	}
	defer rows.Close()

	users := []models.User{}
	for rows.Next() {
		var user models.User
		if err := rows.Scan(&user.ID, &user.Email, &user.Name, &user.Role, &user.AvatarURL); err != nil {
			return h.fail(c, err)
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return h.fail(c, err)
	}

	return ok(c, users)
}

// UpdateProject renames a project or changes its code. Admin only.
func (h *Handler) UpdateProject(c *fiber.Ctx) error {
	id := c.Params("id")

	type UpdateProjectRequest struct {
		Name *string `json:"name" validate:"omitempty,min=3,max=100"`
		Code *string `json:"code"`
	}

	var req UpdateProjectRequest
	if err := h.parseBody(c, &req); err != nil {
		return h.fail(c, err)
	}

	var exists int
	err := h.DB.QueryRow("SELECT 1 FROM projects WHERE id = $1", id).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return h.fail(c, apperr.New(apperr.NotFound, "Project not found"))
	}
	if err != nil {
		return h.fail(c, err)
	}

	if req.Code != nil {
		code := strings.ToUpper(strings.TrimSpace(*req.Code))
		if !validProjectCode(code) {
			return h.fail(c, apperr.New(apperr.Validation, "Project code must be 2-10 characters, A-Z, 0-9, -"))
		}
		var taken int
		err := h.DB.QueryRow("SELECT 1 FROM projects WHERE code = $1 AND id != $2", code, id).Scan(&taken)
		if err == nil {
			return h.fail(c, apperr.New(apperr.Conflict, "Project with this code already exists"))
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return h.fail(c, err)
		}
		if _, err := h.DB.Exec("UPDATE projects SET code = $1 WHERE id = $2", code, id); err != nil {
			return h.fail(c, err)
		}
	}
	if req.Name != nil {
		if _, err := h.DB.Exec("UPDATE projects SET name = $1 WHERE id = $2", strings.TrimSpace(*req.Name), id); err != nil {
			return h.fail(c, err)
		}
	}

	var p models.Project
	err = h.DB.QueryRow(
		"SELECT id, code, name, COALESCE(created_at, '') FROM projects WHERE id = $1",
		id).Scan(&p.ID, &p.Code, &p.Name, &p.CreatedAt)
	if err != nil {
		return h.fail(c, err)
	}

	logger.AuditLogger.Info("Project updated", zap.String("project_id", id))
	return ok(c, p)
}

// DeleteProject removes the project; columns, tasks, comments, history and
// memberships go with it through the foreign-key cascade.
func (h *Handler) DeleteProject(c *fiber.Ctx) error {
	id := c.Params("id")

	var p models.Project
	err := h.DB.QueryRow("SELECT id, code, name FROM projects WHERE id = $1", id).Scan(&p.ID, &p.Code, &p.Name)
	if errors.Is(err, sql.ErrNoRows) {
		return h.fail(c, apperr.New(apperr.NotFound, "Project not found"))
	}
	if err != nil {
		return h.fail(c, err)
	}

	if _, err := h.DB.Exec("DELETE FROM projects WHERE id = $1", id); err != nil {
		return h.fail(c, err)
	}
	h.invalidateBoard(id)

	logger.AuditLogger.Info("Project deleted",
		zap.String("project_id", id), zap.String("code", p.Code))
	return okMessage(c, "Project deleted successfully")
}

// GetProjectStats reports task counts per column plus totals.
func (h *Handler) GetProjectStats(c *fiber.Ctx) error {
	id := c.Params("id")
	if err := h.Access.CanAccessProject(userID(c), role(c), id); err != nil {
		return h.fail(c, err)
	}

	rows, err := h.DB.Query(`
		SELECT c.name, COUNT(t.id)
		FROM columns c
		LEFT JOIN tasks t ON c.id = t.column_id
		WHERE c.project_id = $1
		GROUP BY c.id, c.name, c.position
		ORDER BY c.position`, id)
	if err != nil {
		return h.fail(c, err)
	}
	defer rows.Close()

	type columnStat struct {
		ColumnName string `json:"column_name"`
		TaskCount  int    `json:"task_count"`
	}
	columns := []columnStat{}
	for rows.Next() {
		var s columnStat
		if err := rows.Scan(&s.ColumnName, &s.TaskCount); err != nil {
			return h.fail(c, err)
		}
		columns = append(columns, s)
	}
	if err := rows.Err(); err != nil {
		return h.fail(c, err)
	}

	var totalUsers, totalTasks int
	if err := h.DB.QueryRow("SELECT COUNT(*) FROM project_users WHERE project_id = $1", id).Scan(&totalUsers); err != nil {
		return h.fail(c, err)
	}
	if err := h.DB.QueryRow("SELECT COUNT(*) FROM tasks WHERE project_id = $1", id).Scan(&totalTasks); err != nil {
		return h.fail(c, err)
	}

	return ok(c, fiber.Map{
		"columns":    columns,
		"totalUsers": totalUsers,
		"totalTasks": totalTasks,
	})
}
