// Package access decides whether a user may touch a project-scoped resource.
// Membership in project_users is the sole grant; the admin role overrides it.
package access

import (
	"database/sql"
	"errors"

	"taskboard/internal/apperr"
)

// Store is the membership lookup the checker runs on.
type Store interface {
	ProjectExists(projectID string) (bool, error)
	IsMember(projectID, userID string) (bool, error)
	// TaskProject resolves a task to its owning project.
	TaskProject(taskID string) (string, error)
	// CommentTask resolves a comment to its parent task.
	CommentTask(commentID string) (string, error)
}

type Checker struct {
	store Store
}

func NewChecker(store Store) *Checker {
	return &Checker{store: store}
}

// CanAccessProject returns nil when the user may read and write the project.
func (c *Checker) CanAccessProject(userID, role, projectID string) error {
	exists, err := c.store.ProjectExists(projectID)
	if err != nil {
		return err
	}
	if !exists {
		return apperr.New(apperr.NotFound, "Project not found")
	}
	if role == "admin" {
		return nil
	}
	member, err := c.store.IsMember(projectID, userID)
	if err != nil {
		return err
	}
	if !member {
		return apperr.New(apperr.Authorization, "Access to project denied")
	}
	return nil
}

// CanAccessTask resolves the task to its project and delegates. The owning
// project id is returned so callers do not need a second lookup.
func (c *Checker) CanAccessTask(userID, role, taskID string) (string, error) {
	projectID, err := c.store.TaskProject(taskID)
	if err != nil {
		return "", err
	}
	if err := c.CanAccessProject(userID, role, projectID); err != nil {
		return "", err
	}
	return projectID, nil
}

// CanAccessComment resolves comment -> task -> project.
func (c *Checker) CanAccessComment(userID, role, commentID string) (string, error) {
	taskID, err := c.store.CommentTask(commentID)
	if err != nil {
		return "", err
	}
	if _, err := c.CanAccessTask(userID, role, taskID); err != nil {
		return "", err
	}
	return taskID, nil
}

// SQLStore implements Store against Postgres.
type SQLStore struct {
	DB *sql.DB
}

func (s *SQLStore) ProjectExists(projectID string) (bool, error) {
	var one int
	err := s.DB.QueryRow("SELECT 1 FROM projects WHERE id = $1", projectID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (s *SQLStore) IsMember(projectID, userID string) (bool, error) {
	var one int
	err := s.DB.QueryRow(
		"SELECT 1 FROM project_users WHERE project_id = $1 AND user_id = $2",
		projectID, userID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (s *SQLStore) TaskProject(taskID string) (string, error) {
	var projectID string
	err := s.DB.QueryRow("SELECT project_id FROM tasks WHERE id = $1", taskID).Scan(&projectID)
	if errors.Is(err, sql.ErrNoRows) {
		return "", apperr.New(apperr.NotFound, "Task not found")
	}
	if err != nil {
		return "", err
	}
	return projectID, nil
}

func (s *SQLStore) CommentTask(commentID string) (string, error) {
	var taskID string
	err := s.DB.QueryRow("SELECT task_id FROM comments WHERE id = $1", commentID).Scan(&taskID)
	if errors.Is(err, sql.ErrNoRows) {
		return "", apperr.New(apperr.NotFound, "Comment not found")
	}
	if err != nil {
		return "", err
	}
	return taskID, nil
}
