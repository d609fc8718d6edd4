package handlers

import (
	"database/sql"
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"taskboard/internal/apperr"
	"taskboard/internal/models"
	"taskboard/pkg/logger"
)

func userProfile(u models.User) fiber.Map {
	return fiber.Map{
		"id":         u.ID,
		"email":      u.Email,
		"name":       u.Name,
		"role":       u.Role,
		"avatar_url": u.AvatarURL.String,
		"theme":      u.Theme.String,
	}
}

func (h *Handler) Login(c *fiber.Ctx) error {
	type LoginRequest struct {
		Email    string `json:"email" validate:"required,email"`
		Password string `json:"password" validate:"required,min=6"`
	}

	var req LoginRequest
	if err := h.parseBody(c, &req); err != nil {
		return h.fail(c, err)
	}

	var user models.User
	var passwordHash string
	err := h.DB.QueryRow(
		"SELECT id, email, name, password_hash, role, avatar_url, theme FROM users WHERE email = $1",
		req.Email).Scan(&user.ID, &user.Email, &user.Name, &passwordHash, &user.Role, &user.AvatarURL, &user.Theme)
	if errors.Is(err, sql.ErrNoRows) {
		logger.SecurityLogger.Warn("Login for unknown email", zap.String("email", req.Email))
		return h.fail(c, apperr.New(apperr.Authentication, "Invalid credentials"))
	}
	if err != nil {
		return h.fail(c, err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(passwordHash), []byte(req.Password)); err != nil {
		logger.SecurityLogger.Warn("Invalid password", zap.String("email", req.Email))
		return h.fail(c, apperr.New(apperr.Authentication, "Invalid credentials"))
	}

	accessToken, refreshToken, err := h.Tokens.Pair(user.ID, user.Email, user.Role)
	if err != nil {
		return h.fail(c, err)
	}

	logger.AuditLogger.Info("Login success",
		zap.String("user_id", user.ID), zap.String("role", user.Role))
	return ok(c, fiber.Map{
		"token":        accessToken,
		"refreshToken": refreshToken,
		"user":         userProfile(user),
	})
}

func (h *Handler) Refresh(c *fiber.Ctx) error {
	type RefreshRequest struct {
		RefreshToken string `json:"refreshToken" validate:"required"`
	}

	var req RefreshRequest
	if err := h.parseBody(c, &req); err != nil {
		return h.fail(c, err)
	}

	claims, err := h.Tokens.ParseRefresh(req.RefreshToken)
	if err != nil {
		return h.fail(c, err)
	}

	var user models.User
	err = h.DB.QueryRow(
		"SELECT id, email, role FROM users WHERE id = $1",
		claims.UserID).Scan(&user.ID, &user.Email, &user.Role)
	if errors.Is(err, sql.ErrNoRows) {
		return h.fail(c, apperr.New(apperr.Authentication, "Invalid refresh token"))
	}
	if err != nil {
		return h.fail(c, err)
	}

	accessToken, refreshToken, err := h.Tokens.Pair(user.ID, user.Email, user.Role)
	if err != nil {
		return h.fail(c, err)
	}

	return ok(c, fiber.Map{
		"token":        accessToken,
		"refreshToken": refreshToken,
	})
}

// Register creates a user account. Admin only.
func (h *Handler) Register(c *fiber.Ctx) error {
	type RegisterRequest struct {
		Name     string `json:"name" validate:"required,min=2,max=50"`
		Email    string `json:"email" validate:"required,email"`
		Password string `json:"password" validate:"required,min=6"`
		Role     string `json:"role" validate:"omitempty,oneof=admin developer"`
	}

	var req RegisterRequest
	if err := h.parseBody(c, &req); err != nil {
		return h.fail(c, err)
	}
	if req.Role == "" {
		req.Role = "developer"
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return h.fail(c, err)
	}

	id := uuid.NewString()
	_, err = h.DB.Exec(
		"INSERT INTO users (id, email, name, password_hash, role) VALUES ($1, $2, $3, $4, $5)",
		id, req.Email, strings.TrimSpace(req.Name), string(hash), req.Role)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			logger.SecurityLogger.Warn("Duplicate email", zap.String("email", req.Email))
			return h.fail(c, apperr.New(apperr.Conflict, "User with this email already exists"))
		}
		return h.fail(c, err)
	}

	logger.AuditLogger.Info("User registered", zap.String("user_id", id), zap.String("email", req.Email))
	return created(c, fiber.Map{
		"id":    id,
		"email": req.Email,
		"name":  strings.TrimSpace(req.Name),
		"role":  req.Role,
	})
}

func (h *Handler) Me(c *fiber.Ctx) error {
	var user models.User
	err := h.DB.QueryRow(
		"SELECT id, email, name, role, avatar_url, theme FROM users WHERE id = $1",
		userID(c)).Scan(&user.ID, &user.Email, &user.Name, &user.Role, &user.AvatarURL, &user.Theme)
	if errors.Is(err, sql.ErrNoRows) {
		return h.fail(c, apperr.New(apperr.NotFound, "User not found"))
	}
	if err != nil {
		return h.fail(c, err)
	}
	return ok(c, userProfile(user))
}

// UpdateMe applies a partial self-service profile update. Only the fields
// present in the body change; out-of-range values are silently dropped.
func (h *Handler) UpdateMe(c *fiber.Ctx) error {
	type UpdateMeRequest struct {
		Name      *string `json:"name"`
		Password  *string `json:"password"`
		AvatarURL *string `json:"avatar_url"`
		Theme     *string `json:"theme"`
	}

	var req UpdateMeRequest
	if err := c.BodyParser(&req); err != nil {
		return h.fail(c, apperr.Wrap(apperr.Validation, "Bad request", err))
	}

	id := userID(c)
	if req.Name != nil {
		if name := strings.TrimSpace(*req.Name); len([]rune(name)) >= 2 {
			if _, err := h.DB.Exec("UPDATE users SET name = $1 WHERE id = $2", name, id); err != nil {
				return h.fail(c, err)
			}
		}
	}
	if req.Password != nil && len(*req.Password) >= 6 {
		hash, err := bcrypt.GenerateFromPassword([]byte(*req.Password), bcrypt.DefaultCost)
		if err != nil {
			return h.fail(c, err)
		}
		if _, err := h.DB.Exec("UPDATE users SET password_hash = $1 WHERE id = $2", string(hash), id); err != nil {
			return h.fail(c, err)
		}
	}
	if req.AvatarURL != nil && *req.AvatarURL != "" {
		if _, err := h.DB.Exec("UPDATE users SET avatar_url = $1 WHERE id = $2", *req.AvatarURL, id); err != nil {
			return h.fail(c, err)
		}
	}
	if req.Theme != nil && (*req.Theme == "light" || *req.Theme == "dark") {
		if _, err := h.DB.Exec("UPDATE users SET theme = $1 WHERE id = $2", *req.Theme, id); err != nil {
			return h.fail(c, err)
		}
	}

	logger.AuditLogger.Info("Profile updated", zap.String("user_id", id))
	return h.Me(c)
}
