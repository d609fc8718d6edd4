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
	"taskboard/internal/history"
	"taskboard/internal/models"
	"taskboard/pkg/logger"
)

const commentSelect = `
	SELECT c.id, c.task_id, c.user_id, c.content, COALESCE(c.created_at, ''),
	       u.name AS user_name, u.avatar_url AS user_avatar
	FROM comments c
	LEFT JOIN users u ON c.user_id = u.id`

func (h *Handler) commentByID(id string) (models.Comment, error) {
	var cm models.Comment
	err := h.DB.QueryRow(commentSelect+" WHERE c.id = $1", id).
		Scan(&cm.ID, &cm.TaskID, &cm.UserID, &cm.Content, &cm.CreatedAt, &cm.UserName, &cm.UserAvatar)
	if errors.Is(err, sql.ErrNoRows) {
		return cm, apperr.New(apperr.NotFound, "Comment not found")
	}
	return cm, err
}

// GetCommentsByTask lists a task's comments oldest first.
func (h *Handler) GetCommentsByTask(c *fiber.Ctx) error {
	taskID := c.Params("taskId")
	if _, err := h.Access.CanAccessTask(userID(c), role(c), taskID); err != nil {
		return h.fail(c, err)
	}

	rows, err := h.DB.Query(commentSelect+" WHERE c.task_id = $1 ORDER BY c.created_at ASC", taskID)
	if err != nil {
		return h.fail(c, err)
	}
	defer rows.Close()

	comments := []models.Comment{}
	for rows.Next() {
		var cm models.Comment
		if err := rows.Scan(&cm.ID, &cm.TaskID, &cm.UserID, &cm.Content, &cm.CreatedAt, &cm.UserName, &cm.UserAvatar); err != nil {
			return h.fail(c, err)
		}
		comments = append(comments, cm)
	}
	if err := rows.Err(); err != nil {
		return h.fail(c, err)
	}
	return ok(c, comments)
}

func (h *Handler) CreateComment(c *fiber.Ctx) error {
	type CommentRequest struct {
		TaskID  string `json:"taskId" validate:"required"`
		Content string `json:"content" validate:"required,max=500"`
	}

	var req CommentRequest
	if err := h.parseBody(c, &req); err != nil {
		return h.fail(c, err)
	}
	projectID, err := h.Access.CanAccessTask(userID(c), role(c), req.TaskID)
	if err != nil {
		return h.fail(c, err)
	}

	content := strings.TrimSpace(req.Content)
	if content == "" {
		return h.fail(c, apperr.New(apperr.Validation, "Comment must not be empty"))
	}

	id := uuid.NewString()
	_, err = h.DB.Exec(
		"INSERT INTO comments (id, task_id, user_id, content, created_at) VALUES ($1, $2, $3, $4, $5)",
		id, req.TaskID, userID(c), content, time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return h.fail(c, err)
	}

	comment, err := h.commentByID(id)
	if err != nil {
		return h.fail(c, err)
	}

	h.History.Record(req.TaskID, userID(c), history.ActionCommentAdded, map[string]interface{}{
		"content": history.TruncateComment(content),
	})

	h.invalidateBoard(projectID, req.TaskID)

	logger.AuditLogger.Info("Comment added",
		zap.String("comment_id", id), zap.String("task_id", req.TaskID))
	return created(c, comment)
}

// UpdateComment edits a comment's text. Only the author sees their own
// comment here; anyone else gets the same not-found as a missing id.
func (h *Handler) UpdateComment(c *fiber.Ctx) error {
	id := c.Params("id")
	if _, err := h.Access.CanAccessComment(userID(c), role(c), id); err != nil {
		return h.fail(c, err)
	}

	type UpdateCommentRequest struct {
		Content string `json:"content" validate:"required,max=500"`
	}
	var req UpdateCommentRequest
	if err := h.parseBody(c, &req); err != nil {
		return h.fail(c, err)
	}

	content := strings.TrimSpace(req.Content)
	if content == "" {
		return h.fail(c, apperr.New(apperr.Validation, "Comment must not be empty"))
	}

	res, err := h.DB.Exec(
		"UPDATE comments SET content = $1 WHERE id = $2 AND user_id = $3",
		content, id, userID(c))
	if err != nil {
		return h.fail(c, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return h.fail(c, apperr.New(apperr.NotFound, "Comment not found"))
	}

	comment, err := h.commentByID(id)
	if err != nil {
		return h.fail(c, err)
	}
	return ok(c, comment)
}

func (h *Handler) DeleteComment(c *fiber.Ctx) error {
	id := c.Params("id")
	if _, err := h.Access.CanAccessComment(userID(c), role(c), id); err != nil {
		return h.fail(c, err)
	}

	res, err := h.DB.Exec("DELETE FROM comments WHERE id = $1 AND user_id = $2", id, userID(c))
	if err != nil {
		return h.fail(c, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return h.fail(c, apperr.New(apperr.NotFound, "Comment not found"))
	}

	logger.AuditLogger.Info("Comment deleted", zap.String("comment_id", id))
	return okMessage(c, "Comment deleted successfully")
}
