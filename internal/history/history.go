// Package history appends the task audit trail. Writing an event is
// advisory: failures are logged and swallowed so the primary mutation is
// never rolled back or failed by its audit record.
package history

import (
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	ActionTaskCreated  = "task_created"
	ActionTaskUpdated  = "task_updated"
	ActionTaskMoved    = "task_moved"
	ActionTaskDeleted  = "task_deleted"
	ActionCommentAdded = "comment_added"
)

// Change is one entry of a task_updated payload.
type Change struct {
	Field    string      `json:"field"`
	OldValue interface{} `json:"oldValue"`
	NewValue interface{} `json:"newValue"`
}

// Inserter persists one event row.
type Inserter interface {
	InsertEvent(id, taskID string, userID *string, action, payload, createdAt string) error
}

type Recorder struct {
	store Inserter
	log   *zap.Logger
}

func NewRecorder(store Inserter, log *zap.Logger) *Recorder {
	if log == nil {
		log = zap.NewNop()
	}
	return &Recorder{store: store, log: log}
}

// Record appends an event. userID may be empty for system actions. Never
// returns an error: the audit trail must not block the operation it traces.
func (r *Recorder) Record(taskID, userID, action string, payload interface{}) {
	var body string
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			r.log.Error("Error encoding history payload",
				zap.String("task_id", taskID), zap.Error(err))
			return
		}
		body = string(raw)
	}

	var actor *string
	if userID != "" {
		actor = &userID
	}

	id := uuid.NewString()
	createdAt := time.Now().UTC().Format(time.RFC3339)
	if err := r.store.InsertEvent(id, taskID, actor, action, body, createdAt); err != nil {
		r.log.Error("Error adding history entry",
			zap.String("task_id", taskID), zap.String("action", action), zap.Error(err))
	}
}

// TruncateComment shortens a comment for its comment_added payload, matching
// the 100-character display cut used by the board.
func TruncateComment(content string) string {
	runes := []rune(content)
	if len(runes) <= 100 {
		return content
	}
	return string(runes[:100]) + "..."
}

// SQLStore implements Inserter against Postgres.
type SQLStore struct {
	DB *sql.DB
}

func (s *SQLStore) InsertEvent(id, taskID string, userID *string, action, payload, createdAt string) error {
	_, err := s.DB.Exec(`
		INSERT INTO task_history (id, task_id, user_id, action, payload, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		id, taskID, userID, action, payload, createdAt)
	return err
}
