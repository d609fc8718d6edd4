package repository

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const (
	AdminEmail    = "admin@example.com"
	adminPassword = "admin123"
)

// DefaultColumnNames is the board every new project starts with.
var DefaultColumnNames = []string{"К работе", "В процессе", "Кодревью", "Тестирование", "Готово"}

// Seed bootstraps an empty database: the admin account and, when no project
// exists yet, a demo project with the default columns and a few tasks.
func Seed(db *sql.DB) error {
	adminID, err := seedAdmin(db)
	if err != nil {
		return err
	}

	var projectCount int
	if err := db.QueryRow("SELECT COUNT(1) FROM projects").Scan(&projectCount); err != nil {
		return err
	}
	if projectCount > 0 {
		return nil
	}
	return seedDemoProject(db, adminID)
}

func seedAdmin(db *sql.DB) (string, error) {
	var adminID string
	err := db.QueryRow("SELECT id FROM users WHERE email = $1", AdminEmail).Scan(&adminID)
	if err == nil {
		return adminID, nil
	}
	if err != sql.ErrNoRows {
		return "", err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(adminPassword), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash admin password: %w", err)
	}
	adminID = uuid.NewString()
	_, err = db.Exec(
		"INSERT INTO users (id, email, name, password_hash, role) VALUES ($1, $2, $3, $4, 'admin')",
		adminID, AdminEmail, "Admin", string(hash))
	if err != nil {
		return "", fmt.Errorf("seed admin user: %w", err)
	}
	return adminID, nil
}

// CreateDefaultColumns inserts the standard columns for a project at
// positions 0..4. Also used by the project-create handler.
func CreateDefaultColumns(db *sql.DB, projectID string) error {
	for i, name := range DefaultColumnNames {
		_, err := db.Exec(
			"INSERT INTO columns (id, project_id, name, position) VALUES ($1, $2, $3, $4)",
			uuid.NewString(), projectID, name, i)
		if err != nil {
			return fmt.Errorf("create column %q: %w", name, err)
		}
	}
	return nil
}

func seedDemoProject(db *sql.DB, adminID string) error {
	projectID := uuid.NewString()
	createdAt := time.Now().UTC().Format(time.RFC3339)
	_, err := db.Exec(
		"INSERT INTO projects (id, code, name, created_at) VALUES ($1, 'DEMO', 'Demo Project', $2)",
		projectID, createdAt)
	if err != nil {
		return fmt.Errorf("seed demo project: %w", err)
	}

	_, err = db.Exec(
		"INSERT INTO project_users (project_id, user_id) VALUES ($1, $2)",
		projectID, adminID)
	if err != nil {
		return fmt.Errorf("link admin to demo project: %w", err)
	}

	if err := CreateDefaultColumns(db, projectID); err != nil {
		return err
	}

	rows, err := db.Query(
		"SELECT id FROM columns WHERE project_id = $1 ORDER BY position LIMIT 2", projectID)
	if err != nil {
		return err
	}
	defer rows.Close()
	var columnIDs []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return err
		}
		columnIDs = append(columnIDs, id)
	}
	if err := rows.Err(); err != nil {
		return err
	}
	if len(columnIDs) < 2 {
		return nil
	}

	samples := []struct {
		columnID    string
		title       string
		description string
		priority    string
		tag         string
		points      int
		seq         int
		position    int
	}{
		{columnIDs[0], "Настроить проект", "Инициализация репозитория", "medium", "setup", 3, 1, 0},
		{columnIDs[0], "Сделать логин", "Форма входа и токены", "high", "auth", 5, 2, 1},
		{columnIDs[1], "DND доски", "Перетаскивание задач", "medium", "board", 8, 3, 0},
	}
	for _, s := range samples {
		_, err := db.Exec(`
			INSERT INTO tasks (id, project_id, column_id, title, description, priority, assignee_id, tag, story_points, seq, position, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
			uuid.NewString(), projectID, s.columnID, s.title, s.description,
			s.priority, adminID, s.tag, s.points, s.seq, s.position, createdAt)
		if err != nil {
			return fmt.Errorf("seed task %q: %w", s.title, err)
		}
	}
	return nil
}
