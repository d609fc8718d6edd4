// Package ordering maintains the integer position sequences of the board:
// columns within a project and tasks within a column. Every move rewrites the
// positions of the affected scope to a dense 0..n-1 run inside one
// transaction, so a reader never observes duplicate or gapped positions.
package ordering

import (
	"database/sql"
	"errors"

	"taskboard/internal/apperr"
)

// InsertAt places id at index in ids, removing any prior occurrence first.
// The index is clamped to [0, len].
func InsertAt(ids []string, id string, index int) []string {
	out := Remove(ids, id)
	if index < 0 {
		index = 0
	}
	if index > len(out) {
		index = len(out)
	}
	out = append(out, "")
	copy(out[index+1:], out[index:])
	out[index] = id
	return out
}

// Remove returns ids without id, preserving order.
func Remove(ids []string, id string) []string {
	out := make([]string, 0, len(ids))
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}

type Engine struct {
	DB *sql.DB
}

func NewEngine(db *sql.DB) *Engine {
	return &Engine{DB: db}
}

// NextColumnPosition appends: max position in the project plus one.
func (e *Engine) NextColumnPosition(projectID string) (int, error) {
	var pos int
	err := e.DB.QueryRow(
		"SELECT COALESCE(MAX(position), -1) + 1 FROM columns WHERE project_id = $1",
		projectID).Scan(&pos)
	return pos, err
}

// NextTaskPosition appends: max position in the column plus one.
func (e *Engine) NextTaskPosition(columnID string) (int, error) {
	var pos int
	err := e.DB.QueryRow(
		"SELECT COALESCE(MAX(position), -1) + 1 FROM tasks WHERE column_id = $1",
		columnID).Scan(&pos)
	return pos, err
}

// NextTaskSeq returns the next per-project creation counter.
func (e *Engine) NextTaskSeq(projectID string) (int, error) {
	var seq int
	err := e.DB.QueryRow(
		"SELECT COALESCE(MAX(seq), 0) + 1 FROM tasks WHERE project_id = $1",
		projectID).Scan(&seq)
	return seq, err
}

func taskIDsOrdered(tx *sql.Tx, columnID string) ([]string, error) {
	rows, err := tx.Query(
		"SELECT id FROM tasks WHERE column_id = $1 ORDER BY position",
		columnID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func renumberTasks(tx *sql.Tx, ids []string) error {
	for i, id := range ids {
		if _, err := tx.Exec("UPDATE tasks SET position = $1 WHERE id = $2", i, id); err != nil {
			return err
		}
	}
	return nil
}

// MoveTask detaches the task from its current column, reparents it to
// destColumnID and renumbers both scopes. Moving within one column is the
// same operation with a single scope. destIndex beyond the list appends.
func (e *Engine) MoveTask(taskID, destColumnID string, destIndex int) error {
	tx, err := e.DB.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var sourceColumnID string
	err = tx.QueryRow("SELECT column_id FROM tasks WHERE id = $1", taskID).Scan(&sourceColumnID)
	if errors.Is(err, sql.ErrNoRows) {
		return apperr.New(apperr.NotFound, "Task not found")
	}
	if err != nil {
		return err
	}

	var one int
	err = tx.QueryRow("SELECT 1 FROM columns WHERE id = $1", destColumnID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return apperr.New(apperr.NotFound, "Column not found")
	}
	if err != nil {
		return err
	}

	if sourceColumnID != destColumnID {
		sourceIDs, err := taskIDsOrdered(tx, sourceColumnID)
		if err != nil {
			return err
		}
		if err := renumberTasks(tx, Remove(sourceIDs, taskID)); err != nil {
			return err
		}
		if _, err := tx.Exec("UPDATE tasks SET column_id = $1 WHERE id = $2", destColumnID, taskID); err != nil {
			return err
		}
	}

	destIDs, err := taskIDsOrdered(tx, destColumnID)
	if err != nil {
		return err
	}
	if sourceColumnID != destColumnID {
		// The moved task is already reparented and sits at its stale
		// position; drop it before computing the target order.
		destIDs = Remove(destIDs, taskID)
	}
	if err := renumberTasks(tx, InsertAt(destIDs, taskID, destIndex)); err != nil {
		return err
	}

	return tx.Commit()
}

// ReorderColumns applies a caller-supplied full ordering: position := index.
// The list must name every column of the project exactly once, otherwise the
// unlisted columns would keep stale positions and break the dense 0..n-1
// invariant. Ids not belonging to the project are ignored by the WHERE guard.
func (e *Engine) ReorderColumns(projectID string, orderedIDs []string) error {
	seen := make(map[string]bool, len(orderedIDs))
	for _, id := range orderedIDs {
		if seen[id] {
			return apperr.New(apperr.Validation, "Column order must not repeat a column")
		}
		seen[id] = true
	}

	tx, err := e.DB.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var total int
	if err := tx.QueryRow(
		"SELECT COUNT(*) FROM columns WHERE project_id = $1", projectID).Scan(&total); err != nil {
		return err
	}
	if total != len(orderedIDs) {
		return apperr.New(apperr.Validation, "Column order must include every column of the project")
	}

	for i, id := range orderedIDs {
		_, err := tx.Exec(
			"UPDATE columns SET position = $1 WHERE id = $2 AND project_id = $3",
			i, id, projectID)
		if err != nil {
			return err
		}
	}

	return tx.Commit()
}

// CompactTasks renumbers a column after a task delete so the remaining
// positions stay dense.
func (e *Engine) CompactTasks(columnID string) error {
	tx, err := e.DB.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	ids, err := taskIDsOrdered(tx, columnID)
	if err != nil {
		return err
	}
	if err := renumberTasks(tx, ids); err != nil {
		return err
	}

	return tx.Commit()
}
