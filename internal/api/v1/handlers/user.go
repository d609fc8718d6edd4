package handlers

import (
	"database/sql"
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"taskboard/internal/apperr"
	"taskboard/internal/models"
	"taskboard/pkg/logger"
)

// User management. All routes here sit behind RequireAdmin.

func (h *Handler) GetAllUsers(c *fiber.Ctx) error {
	rows, err := h.DB.Query(
		"SELECT id, email, name, role, avatar_url FROM users ORDER BY email")
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

// UpdateUser applies a partial admin edit: name, password, role, avatar.
func (h *Handler) UpdateUser(c *fiber.Ctx) error {
	targetID := c.Params("id")

	var user models.User
	var passwordHash string
	err := h.DB.QueryRow(
		"SELECT id, email, name, password_hash, role, avatar_url FROM users WHERE id = $1",
		targetID).Scan(&user.ID, &user.Email, &user.Name, &passwordHash, &user.Role, &user.AvatarURL)
	if errors.Is(err, sql.ErrNoRows) {
		return h.fail(c, apperr.New(apperr.NotFound, "User not found"))
	}
	if err != nil {
		return h.fail(c, err)
	}

	type UpdateUserRequest struct {
		Name      *string `json:"name"`
		Password  *string `json:"password" validate:"omitempty,min=6"`
		Role      *string `json:"role" validate:"omitempty,oneof=admin developer"`
		AvatarURL *string `json:"avatar_url"`
	}

	var req UpdateUserRequest
	if err := h.parseBody(c, &req); err != nil {
		return h.fail(c, err)
	}

	if req.Password != nil {
		hash, err := bcrypt.GenerateFromPassword([]byte(*req.Password), bcrypt.DefaultCost)
		if err != nil {
			return h.fail(c, err)
		}
		passwordHash = string(hash)
	}
	if req.Name != nil {
		if name := strings.TrimSpace(*req.Name); name != "" {
			user.Name = name
		}
	}
	if req.Role != nil {
		user.Role = *req.Role
	}
	if req.AvatarURL != nil {
		user.AvatarURL = models.NullString{NullString: sql.NullString{String: *req.AvatarURL, Valid: *req.AvatarURL != ""}}
	}

	_, err = h.DB.Exec(
		"UPDATE users SET name = $1, password_hash = $2, role = $3, avatar_url = $4 WHERE id = $5",
		user.Name, passwordHash, user.Role, user.AvatarURL, targetID)
	if err != nil {
		return h.fail(c, err)
	}

	logger.AuditLogger.Info("User updated", zap.String("user_id", targetID))
	return ok(c, fiber.Map{
		"id":         user.ID,
		"email":      user.Email,
		"name":       user.Name,
		"role":       user.Role,
		"avatar_url": user.AvatarURL.String,
	})
}

// DeleteUser removes a user. Admin accounts are protected; the user's
// comments, memberships and task assignments are cleared first since those
// references do not cascade.
func (h *Handler) DeleteUser(c *fiber.Ctx) error {
	targetID := c.Params("id")

	var targetRole string
	err := h.DB.QueryRow("SELECT role FROM users WHERE id = $1", targetID).Scan(&targetRole)
	if errors.Is(err, sql.ErrNoRows) {
		return h.fail(c, apperr.New(apperr.NotFound, "User not found"))
	}
	if err != nil {
		return h.fail(c, err)
	}
	if targetRole == "admin" {
		return h.fail(c, apperr.New(apperr.Validation, "Admin accounts cannot be deleted"))
	}

	if _, err := h.DB.Exec("DELETE FROM comments WHERE user_id = $1", targetID); err != nil {
		return h.fail(c, err)
	}
	if _, err := h.DB.Exec("DELETE FROM project_users WHERE user_id = $1", targetID); err != nil {
		return h.fail(c, err)
	}
	if _, err := h.DB.Exec("UPDATE tasks SET assignee_id = NULL WHERE assignee_id = $1", targetID); err != nil {
		return h.fail(c, err)
	}
	if _, err := h.DB.Exec("DELETE FROM users WHERE id = $1", targetID); err != nil {
		return h.fail(c, err)
	}

	logger.AuditLogger.Info("User deleted", zap.String("user_id", targetID))
	return okMessage(c, "User deleted successfully")
}
