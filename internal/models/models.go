package models

import (
	"database/sql"
	"encoding/json"
)

// NullString scans like sql.NullString but marshals as a plain string or
// JSON null, so nullable columns do not leak the sql envelope into responses.
type NullString struct{ sql.NullString }

func (s NullString) MarshalJSON() ([]byte, error) {
	if !s.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(s.String)
}

func (s *NullString) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*s = NullString{}
		return nil
	}
	if err := json.Unmarshal(data, &s.String); err != nil {
		return err
	}
	s.Valid = true
	return nil
}

type NullInt64 struct{ sql.NullInt64 }

func (n NullInt64) MarshalJSON() ([]byte, error) {
	if !n.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(n.Int64)
}

func (n *NullInt64) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*n = NullInt64{}
		return nil
	}
	if err := json.Unmarshal(data, &n.Int64); err != nil {
		return err
	}
	n.Valid = true
	return nil
}

type User struct {
	ID        string     `json:"id"`
	Email     string     `json:"email"`
	Name      string     `json:"name"`
	Role      string     `json:"role"`
	AvatarURL NullString `json:"avatar_url"`
	Theme     NullString `json:"theme"`
}

type Project struct {
	ID        string `json:"id"`
	Code      string `json:"code"`
	Name      string `json:"name"`
	CreatedAt string `json:"created_at"`
}

type Column struct {
	ID        string `json:"id"`
	ProjectID string `json:"project_id"`
	Name      string `json:"name"`
	Position  int    `json:"position"`
}

type Task struct {
	ID          string     `json:"id"`
	ProjectID   string     `json:"project_id"`
	ColumnID    string     `json:"column_id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Priority    string     `json:"priority"`
	AssigneeID  NullString `json:"assignee_id"`
	Tag         string     `json:"tag"`
	StoryPoints NullInt64  `json:"story_points"`
	Seq         int        `json:"seq"`
	Position    int        `json:"position"`
	CreatedAt   string     `json:"created_at"`

	// Joined display fields, not columns of the tasks table.
	AssigneeName   NullString `json:"assignee_name"`
	AssigneeAvatar NullString `json:"assignee_avatar"`
	ProjectCode    NullString `json:"project_code"`
}

type Comment struct {
	ID         string     `json:"id"`
	TaskID     string     `json:"task_id"`
	UserID     string     `json:"user_id"`
	Content    string     `json:"content"`
	CreatedAt  string     `json:"created_at"`
	UserName   NullString `json:"user_name"`
	UserAvatar NullString `json:"user_avatar"`
}

type HistoryEvent struct {
	ID        string          `json:"id"`
	TaskID    string          `json:"task_id"`
	UserID    NullString      `json:"user_id"`
	Action    string          `json:"action"`
	Payload   json.RawMessage `json:"payload"`
	CreatedAt string          `json:"created_at"`
	UserName  NullString      `json:"user_name"`
	UserEmail NullString      `json:"user_email"`
}
