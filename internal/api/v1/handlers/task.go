package handlers

import (
	"database/sql"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"taskboard/internal/apperr"
	"taskboard/internal/history"
	"taskboard/internal/models"
	ws "taskboard/internal/websocket"
	"taskboard/pkg/logger"
)

const taskSelect = `
	SELECT t.id, t.project_id, t.column_id, t.title, t.description, t.priority,
	       t.assignee_id, t.tag, t.story_points, t.seq, t.position, COALESCE(t.created_at, ''),
	       u.name AS assignee_name, u.avatar_url AS assignee_avatar, p.code AS project_code
	FROM tasks t
	LEFT JOIN users u ON t.assignee_id = u.id
	LEFT JOIN projects p ON t.project_id = p.id`

func scanTask(row interface{ Scan(...interface{}) error }) (models.Task, error) {
	var t models.Task
	err := row.Scan(&t.ID, &t.ProjectID, &t.ColumnID, &t.Title, &t.Description, &t.Priority,
		&t.AssigneeID, &t.Tag, &t.StoryPoints, &t.Seq, &t.Position, &t.CreatedAt,
		&t.AssigneeName, &t.AssigneeAvatar, &t.ProjectCode)
	return t, err
}

func (h *Handler) taskByID(id string) (models.Task, error) {
	t, err := scanTask(h.DB.QueryRow(taskSelect+" WHERE t.id = $1", id))
	if errors.Is(err, sql.ErrNoRows) {
		return t, apperr.New(apperr.NotFound, "Task not found")
	}
	return t, err
}

// GetTasksByProject returns the grouped board view: the project's columns in
// order plus its tasks bucketed per column. Served from Redis when warm.
func (h *Handler) GetTasksByProject(c *fiber.Ctx) error {
	projectID := c.Params("projectId")
	if err := h.Access.CanAccessProject(userID(c), role(c), projectID); err != nil {
		return h.fail(c, err)
	}

	if cached, hit := h.cacheGet(boardCacheKey(projectID)); hit {
		var board fiber.Map
		if err := json.Unmarshal(cached, &board); err == nil {
			return ok(c, board)
		}
	}

	columnRows, err := h.DB.Query(
		"SELECT id, project_id, name, position FROM columns WHERE project_id = $1 ORDER BY position",
		projectID)
	if err != nil {
		return h.fail(c, err)
	}
	defer columnRows.Close()

	columns := []models.Column{}
	for columnRows.Next() {
		var col models.Column
		if err := columnRows.Scan(&col.ID, &col.ProjectID, &col.Name, &col.Position); err != nil {
			return h.fail(c, err)
		}
		columns = append(columns, col)
	}
	if err := columnRows.Err(); err != nil {
		return h.fail(c, err)
	}

	taskRows, err := h.DB.Query(
		taskSelect+" WHERE t.project_id = $1 ORDER BY t.column_id, t.position", projectID)
	if err != nil {
		return h.fail(c, err)
	}
	defer taskRows.Close()

	tasksByColumn := map[string][]models.Task{}
	for _, col := range columns {
		tasksByColumn[col.ID] = []models.Task{}
	}
	for taskRows.Next() {
		task, err := scanTask(taskRows)
		if err != nil {
			return h.fail(c, err)
		}
		tasksByColumn[task.ColumnID] = append(tasksByColumn[task.ColumnID], task)
	}
	if err := taskRows.Err(); err != nil {
		return h.fail(c, err)
	}

	board := fiber.Map{"columns": columns, "tasksByColumn": tasksByColumn}
	if raw, err := json.Marshal(board); err == nil {
		h.cacheSet(boardCacheKey(projectID), raw)
	}

	return ok(c, board)
}

func (h *Handler) CreateTask(c *fiber.Ctx) error {
	type TaskRequest struct {
		ProjectID   string `json:"projectId" validate:"required"`
		ColumnID    string `json:"columnId" validate:"required"`
		Title       string `json:"title" validate:"required,max=200"`
		Description string `json:"description" validate:"max=1000"`
		Priority    string `json:"priority" validate:"omitempty,oneof=low medium high"`
		AssigneeID  string `json:"assignee_id"`
		Tag         string `json:"tag"`
		StoryPoints *int   `json:"story_points" validate:"omitempty,min=1,max=100"`
	}

	var req TaskRequest
	if err := h.parseBody(c, &req); err != nil {
		return h.fail(c, err)
	}
	if err := h.Access.CanAccessProject(userID(c), role(c), req.ProjectID); err != nil {
		return h.fail(c, err)
	}

	col, err := h.columnByID(req.ColumnID)
	if err != nil {
		return h.fail(c, err)
	}
	if col.ProjectID != req.ProjectID {
		return h.fail(c, apperr.New(apperr.Validation, "Column does not belong to this project"))
	}

	position, err := h.Order.NextTaskPosition(req.ColumnID)
	if err != nil {
		return h.fail(c, err)
	}
	seq, err := h.Order.NextTaskSeq(req.ProjectID)
	if err != nil {
		return h.fail(c, err)
	}

	if req.Priority == "" {
		req.Priority = "medium"
	}
	var assignee sql.NullString
	if req.AssigneeID != "" {
		assignee = sql.NullString{String: req.AssigneeID, Valid: true}
	}
	var points sql.NullInt64
	if req.StoryPoints != nil {
		points = sql.NullInt64{Int64: int64(*req.StoryPoints), Valid: true}
	}

	id := uuid.NewString()
	_, err = h.DB.Exec(`
		INSERT INTO tasks (id, project_id, column_id, title, description, priority, assignee_id, tag, story_points, seq, position, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		id, req.ProjectID, req.ColumnID, strings.TrimSpace(req.Title), strings.TrimSpace(req.Description),
		req.Priority, assignee, strings.TrimSpace(req.Tag), points, seq, position,
		time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return h.fail(c, err)
	}

	task, err := h.taskByID(id)
	if err != nil {
		return h.fail(c, err)
	}

	payload := map[string]interface{}{"title": task.Title}
	if task.Description != "" {
		payload["description"] = task.Description
	}
	if task.Priority != "" {
		payload["priority"] = task.Priority
	}
	if task.AssigneeID.Valid {
		payload["assignee_id"] = task.AssigneeID.String
	}
	if task.Tag != "" {
		payload["tag"] = task.Tag
	}
	if task.StoryPoints.Valid {
		payload["story_points"] = task.StoryPoints.Int64
	}
	h.History.Record(id, userID(c), history.ActionTaskCreated, payload)

	h.invalidateBoard(req.ProjectID)
	h.Hub.Publish(ws.Event{Type: "task_created", ProjectID: req.ProjectID, Data: task})

	logger.AuditLogger.Info("Task created",
		zap.String("task_id", id), zap.String("project_id", req.ProjectID))
	return created(c, task)
}

func (h *Handler) GetTask(c *fiber.Ctx) error {
	id := c.Params("id")
	if _, err := h.Access.CanAccessTask(userID(c), role(c), id); err != nil {
		return h.fail(c, err)
	}

	if cached, hit := h.cacheGet(taskCacheKey(id)); hit {
		var task models.Task
		if err := json.Unmarshal(cached, &task); err == nil {
			return ok(c, task)
		}
	}

	task, err := h.taskByID(id)
	if err != nil {
		return h.fail(c, err)
	}

	if raw, err := json.Marshal(task); err == nil {
		h.cacheSet(taskCacheKey(id), raw)
	}
	return ok(c, task)
}

// UpdateTaskRequest is a partial task edit: only the fields present change.
type UpdateTaskRequest struct {
	Title       *string `json:"title" validate:"omitempty,max=200"`
	Description *string `json:"description" validate:"omitempty,max=1000"`
	Priority    *string `json:"priority" validate:"omitempty,oneof=low medium high"`
	AssigneeID  *string `json:"assignee_id"`
	Tag         *string `json:"tag"`
	StoryPoints *int    `json:"story_points" validate:"omitempty,min=1,max=100"`
}

// taskChanges computes the field diff a partial update implies: one entry per
// field whose trimmed new value differs from the current row, none for
// supplied-but-unchanged fields. A previously unset story_points reports a
// nil old value.
func taskChanges(current models.Task, req UpdateTaskRequest) ([]history.Change, error) {
	var changes []history.Change
	if req.Title != nil {
		title := strings.TrimSpace(*req.Title)
		if title == "" {
			return nil, apperr.New(apperr.Validation, "Task title must not be empty")
		}
		if title != current.Title {
			changes = append(changes, history.Change{Field: "title", OldValue: current.Title, NewValue: title})
		}
	}
	if req.Description != nil {
		if description := strings.TrimSpace(*req.Description); description != current.Description {
			changes = append(changes, history.Change{Field: "description", OldValue: current.Description, NewValue: description})
		}
	}
	if req.Priority != nil && *req.Priority != current.Priority {
		changes = append(changes, history.Change{Field: "priority", OldValue: current.Priority, NewValue: *req.Priority})
	}
	if req.AssigneeID != nil && *req.AssigneeID != current.AssigneeID.String {
		changes = append(changes, history.Change{Field: "assignee_id", OldValue: current.AssigneeID.String, NewValue: *req.AssigneeID})
	}
	if req.Tag != nil {
		if tag := strings.TrimSpace(*req.Tag); tag != current.Tag {
			changes = append(changes, history.Change{Field: "tag", OldValue: current.Tag, NewValue: tag})
		}
	}
	if req.StoryPoints != nil {
		if !current.StoryPoints.Valid || int64(*req.StoryPoints) != current.StoryPoints.Int64 {
			var old interface{}
			if current.StoryPoints.Valid {
				old = current.StoryPoints.Int64
			}
			changes = append(changes, history.Change{Field: "story_points", OldValue: old, NewValue: *req.StoryPoints})
		}
	}
	return changes, nil
}

// UpdateTask applies a partial update and records the field-level diff in the
// task history. Fields absent from the body stay untouched.
func (h *Handler) UpdateTask(c *fiber.Ctx) error {
	id := c.Params("id")
	if _, err := h.Access.CanAccessTask(userID(c), role(c), id); err != nil {
		return h.fail(c, err)
	}

	current, err := h.taskByID(id)
	if err != nil {
		return h.fail(c, err)
	}

	var req UpdateTaskRequest
	if err := h.parseBody(c, &req); err != nil {
		return h.fail(c, err)
	}

	changes, err := taskChanges(current, req)
	if err != nil {
		return h.fail(c, err)
	}

	for _, ch := range changes {
		value := ch.NewValue
		if ch.Field == "assignee_id" {
			var assignee sql.NullString
			if s, _ := ch.NewValue.(string); s != "" {
				assignee = sql.NullString{String: s, Valid: true}
			}
			value = assignee
		}
		if _, err := h.DB.Exec("UPDATE tasks SET "+ch.Field+" = $1 WHERE id = $2", value, id); err != nil {
			return h.fail(c, err)
		}
	}

	if len(changes) > 0 {
		h.History.Record(id, userID(c), history.ActionTaskUpdated, map[string]interface{}{"changes": changes})
	}

	task, err := h.taskByID(id)
	if err != nil {
		return h.fail(c, err)
	}

	h.invalidateBoard(task.ProjectID, id)
	h.Hub.Publish(ws.Event{Type: "task_updated", ProjectID: task.ProjectID, Data: task})

	logger.AuditLogger.Info("Task updated", zap.String("task_id", id), zap.Int("changes", len(changes)))
	return ok(c, task)
}

// MoveTask is the drag-and-drop endpoint: reparent and/or reposition one
// task, renumbering both affected columns. Cross-project moves are refused.
func (h *Handler) MoveTask(c *fiber.Ctx) error {
	type MoveRequest struct {
		TaskID       string `json:"taskId" validate:"required"`
		DestColumnID string `json:"destColumnId" validate:"required"`
		DestIndex    *int   `json:"destIndex" validate:"required,min=0"`
	}

	var req MoveRequest
	if err := h.parseBody(c, &req); err != nil {
		return h.fail(c, err)
	}
	if _, err := h.Access.CanAccessTask(userID(c), role(c), req.TaskID); err != nil {
		return h.fail(c, err)
	}

	task, err := h.taskByID(req.TaskID)
	if err != nil {
		return h.fail(c, err)
	}
	destColumn, err := h.columnByID(req.DestColumnID)
	if err != nil {
		return h.fail(c, err)
	}
	if destColumn.ProjectID != task.ProjectID {
		return h.fail(c, apperr.New(apperr.Validation, "Cannot move task to another project"))
	}
	sourceColumn, err := h.columnByID(task.ColumnID)
	if err != nil {
		return h.fail(c, err)
	}

	if err := h.Order.MoveTask(req.TaskID, req.DestColumnID, *req.DestIndex); err != nil {
		return h.fail(c, err)
	}

	h.History.Record(req.TaskID, userID(c), history.ActionTaskMoved, map[string]interface{}{
		"fromColumn": sourceColumn.Name,
		"toColumn":   destColumn.Name,
		"taskTitle":  task.Title,
	})

	h.invalidateBoard(task.ProjectID, req.TaskID)
	h.Hub.Publish(ws.Event{Type: "task_moved", ProjectID: task.ProjectID, Data: fiber.Map{
		"taskId":       req.TaskID,
		"destColumnId": req.DestColumnID,
		"destIndex":    *req.DestIndex,
	}})

	logger.AuditLogger.Info("Task moved",
		zap.String("task_id", req.TaskID),
		zap.String("from", sourceColumn.Name),
		zap.String("to", destColumn.Name))
	return okMessage(c, "Task moved successfully")
}

func (h *Handler) DeleteTask(c *fiber.Ctx) error {
	id := c.Params("id")
	if _, err := h.Access.CanAccessTask(userID(c), role(c), id); err != nil {
		return h.fail(c, err)
	}

	task, err := h.taskByID(id)
	if err != nil {
		return h.fail(c, err)
	}

	// Recorded before the delete; the event cascades away with the task.
	h.History.Record(id, userID(c), history.ActionTaskDeleted, map[string]interface{}{
		"taskTitle":       task.Title,
		"taskDescription": task.Description,
	})

	if _, err := h.DB.Exec("DELETE FROM tasks WHERE id = $1", id); err != nil {
		return h.fail(c, err)
	}
	if err := h.Order.CompactTasks(task.ColumnID); err != nil {
		return h.fail(c, err)
	}

	h.invalidateBoard(task.ProjectID, id)
	h.Hub.Publish(ws.Event{Type: "task_deleted", ProjectID: task.ProjectID, Data: fiber.Map{"id": id}})

	logger.AuditLogger.Info("Task deleted", zap.String("task_id", id))
	return okMessage(c, "Task deleted successfully")
}
