package handlers

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"taskboard/internal/apperr"
	"taskboard/pkg/logger"
)

const maxAvatarSize = 5 << 20 // 5 MB

var allowedAvatarExt = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".gif":  true,
}

// UploadAvatar stores the caller's avatar image on disk and points their
// profile at it.
func (h *Handler) UploadAvatar(c *fiber.Ctx) error {
	file, err := c.FormFile("avatar")
	if err != nil {
		return h.fail(c, apperr.New(apperr.Validation, "Avatar file is required"))
	}
	if file.Size > maxAvatarSize {
		return h.fail(c, apperr.New(apperr.Validation, "Avatar must be 5MB or smaller"))
	}

	ext := strings.ToLower(filepath.Ext(file.Filename))
	if !allowedAvatarExt[ext] {
		return h.fail(c, apperr.New(apperr.Validation, "Avatar must be an image (png, jpg, jpeg, gif)"))
	}

	if err := os.MkdirAll(h.UploadDir, 0755); err != nil {
		return h.fail(c, err)
	}

	name := fmt.Sprintf("%s%s", uuid.NewString(), ext)
	if err := c.SaveFile(file, filepath.Join(h.UploadDir, name)); err != nil {
		return h.fail(c, err)
	}

	url := "/uploads/" + name
	if _, err := h.DB.Exec("UPDATE users SET avatar_url = $1 WHERE id = $2", url, userID(c)); err != nil {
		return h.fail(c, err)
	}

	logger.AuditLogger.Info("Avatar uploaded",
		zap.String("user_id", userID(c)), zap.String("file", name))
	return ok(c, fiber.Map{"avatar_url": url})
}

// ServeUpload streams a stored upload. The filename is reduced to its base
// so path traversal cannot escape the upload directory.
func (h *Handler) ServeUpload(c *fiber.Ctx) error {
	name := filepath.Base(c.Params("filename"))
	path := filepath.Join(h.UploadDir, name)
	if _, err := os.Stat(path); err != nil {
		return h.fail(c, apperr.New(apperr.NotFound, "File not found"))
	}
	return c.SendFile(path)
}
