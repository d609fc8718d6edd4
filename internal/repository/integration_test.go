package repository

import (
	"database/sql"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	_ "github.com/lib/pq"
	"github.com/ory/dockertest/v3"
	"github.com/ory/dockertest/v3/docker"
	"github.com/stretchr/testify/require"

	"taskboard/internal/access"
	"taskboard/internal/apperr"
	"taskboard/internal/ordering"
)

// startPostgres boots a throwaway Postgres container. Skips the test when no
// Docker daemon is reachable, so the suite still runs on bare CI workers.
func startPostgres(t *testing.T) *sql.DB {
	t.Helper()

	pool, err := dockertest.NewPool("")
	if err != nil {
		t.Skipf("dockertest pool unavailable: %v", err)
	}
	if err := pool.Client.Ping(); err != nil {
		t.Skipf("docker daemon unavailable: %v", err)
	}

	resource, err := pool.RunWithOptions(&dockertest.RunOptions{
		Repository: "postgres",
		Tag:        "16-alpine",
		Env: []string{
			"POSTGRES_USER=taskboard",
			"POSTGRES_PASSWORD=taskboard",
			"POSTGRES_DB=taskboard_test",
		},
	}, func(config *docker.HostConfig) {
		config.AutoRemove = true
		config.RestartPolicy = docker.RestartPolicy{Name: "no"}
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = pool.Purge(resource) })
	_ = resource.Expire(180)

	dsn := fmt.Sprintf("postgres://taskboard:taskboard@%s/taskboard_test?sslmode=disable",
		resource.GetHostPort("5432/tcp"))

	var db *sql.DB
	pool.MaxWait = 60 * time.Second
	err = pool.Retry(func() error {
		var openErr error
		db, openErr = sql.Open("postgres", dsn)
		if openErr != nil {
			return openErr
		}
		return db.Ping()
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestMigrateAndSeedIntegration(t *testing.T) {
	db := startPostgres(t)

	require.NoError(t, Migrate(db))
	// A second run must be a no-op.
	require.NoError(t, Migrate(db))

	var applied int
	require.NoError(t, db.QueryRow("SELECT COUNT(1) FROM schema_migrations").Scan(&applied))
	require.Equal(t, len(Migrations), applied)

	require.NoError(t, Seed(db))
	require.NoError(t, Seed(db))

	var adminID, role string
	require.NoError(t, db.QueryRow(
		"SELECT id, role FROM users WHERE email = $1", AdminEmail).Scan(&adminID, &role))
	require.Equal(t, "admin", role)

	var projectID string
	require.NoError(t, db.QueryRow(
		"SELECT id FROM projects WHERE code = 'DEMO'").Scan(&projectID))

	var columnCount int
	require.NoError(t, db.QueryRow(
		"SELECT COUNT(1) FROM columns WHERE project_id = $1", projectID).Scan(&columnCount))
	require.Equal(t, len(DefaultColumnNames), columnCount)

	// Seeding twice must not duplicate the demo project.
	var projectCount int
	require.NoError(t, db.QueryRow("SELECT COUNT(1) FROM projects").Scan(&projectCount))
	require.Equal(t, 1, projectCount)

	t.Run("membership", func(t *testing.T) {
		store := &access.SQLStore{DB: db}
		checker := access.NewChecker(store)

		require.NoError(t, checker.CanAccessProject(adminID, "admin", projectID))
		err := checker.CanAccessProject("00000000-0000-0000-0000-000000000000", "developer", projectID)
		require.Error(t, err)
	})

	t.Run("move renumbers densely", func(t *testing.T) {
		engine := ordering.NewEngine(db)

		rows, err := db.Query(
			"SELECT id FROM columns WHERE project_id = $1 ORDER BY position LIMIT 2", projectID)
		require.NoError(t, err)
		var columnIDs []string
		for rows.Next() {
			var id string
			require.NoError(t, rows.Scan(&id))
			columnIDs = append(columnIDs, id)
		}
		require.NoError(t, rows.Err())
		rows.Close()
		require.Len(t, columnIDs, 2)

		var taskID string
		require.NoError(t, db.QueryRow(
			"SELECT id FROM tasks WHERE column_id = $1 AND position = 0", columnIDs[0]).Scan(&taskID))

		require.NoError(t, engine.MoveTask(taskID, columnIDs[1], 0))

		assertDense := func(columnID string) {
			rows, err := db.Query(
				"SELECT position FROM tasks WHERE column_id = $1 ORDER BY position", columnID)
			require.NoError(t, err)
			defer rows.Close()
			next := 0
			for rows.Next() {
				var pos int
				require.NoError(t, rows.Scan(&pos))
				require.Equal(t, next, pos)
				next++
			}
			require.NoError(t, rows.Err())
		}
		assertDense(columnIDs[0])
		assertDense(columnIDs[1])

		var movedColumn string
		var movedPos int
		require.NoError(t, db.QueryRow(
			"SELECT column_id, position FROM tasks WHERE id = $1", taskID).Scan(&movedColumn, &movedPos))
		require.Equal(t, columnIDs[1], movedColumn)
		require.Equal(t, 0, movedPos)
	})

	t.Run("seq continues from seeded max", func(t *testing.T) {
		engine := ordering.NewEngine(db)

		var columnID string
		require.NoError(t, db.QueryRow(
			"SELECT id FROM columns WHERE project_id = $1 ORDER BY position LIMIT 1", projectID).Scan(&columnID))

		// The seed leaves three tasks with seq 1..3.
		for want := 4; want <= 6; want++ {
			seq, err := engine.NextTaskSeq(projectID)
			require.NoError(t, err)
			require.Equal(t, want, seq)

			position, err := engine.NextTaskPosition(columnID)
			require.NoError(t, err)
			_, err = db.Exec(`
				INSERT INTO tasks (id, project_id, column_id, title, position, seq)
				VALUES ($1, $2, $3, $4, $5, $6)`,
				uuid.NewString(), projectID, columnID, fmt.Sprintf("Task %d", want), position, seq)
			require.NoError(t, err)
		}
	})

	t.Run("column reorder requires the full list", func(t *testing.T) {
		engine := ordering.NewEngine(db)

		rows, err := db.Query(
			"SELECT id FROM columns WHERE project_id = $1 ORDER BY position", projectID)
		require.NoError(t, err)
		var columnIDs []string
		for rows.Next() {
			var id string
			require.NoError(t, rows.Scan(&id))
			columnIDs = append(columnIDs, id)
		}
		require.NoError(t, rows.Err())
		rows.Close()
		require.Len(t, columnIDs, len(DefaultColumnNames))

		// A partial list would leave unlisted columns at stale positions.
		err = engine.ReorderColumns(projectID, columnIDs[:2])
		require.Equal(t, apperr.Validation, apperr.KindOf(err))

		// So would a list that repeats a column.
		err = engine.ReorderColumns(projectID, append([]string{columnIDs[0]}, columnIDs[:len(columnIDs)-1]...))
		require.Equal(t, apperr.Validation, apperr.KindOf(err))

		reversed := make([]string, len(columnIDs))
		for i, id := range columnIDs {
			reversed[len(columnIDs)-1-i] = id
		}
		require.NoError(t, engine.ReorderColumns(projectID, reversed))

		for i, id := range reversed {
			var pos int
			require.NoError(t, db.QueryRow(
				"SELECT position FROM columns WHERE id = $1", id).Scan(&pos))
			require.Equal(t, i, pos)
		}
	})

	t.Run("project delete cascades", func(t *testing.T) {
		var taskID string
		require.NoError(t, db.QueryRow(
			"SELECT id FROM tasks WHERE project_id = $1 LIMIT 1", projectID).Scan(&taskID))

		// Give every dependent table a row before the delete.
		_, err := db.Exec(
			"INSERT INTO comments (id, task_id, user_id, content, created_at) VALUES ($1, $2, $3, 'Looks good', $4)",
			uuid.NewString(), taskID, adminID, time.Now().UTC().Format(time.RFC3339))
		require.NoError(t, err)
		_, err = db.Exec(
			"INSERT INTO task_history (id, task_id, user_id, action, payload, created_at) VALUES ($1, $2, $3, 'task_created', '{}', $4)",
			uuid.NewString(), taskID, adminID, time.Now().UTC().Format(time.RFC3339))
		require.NoError(t, err)

		_, err = db.Exec("DELETE FROM projects WHERE id = $1", projectID)
		require.NoError(t, err)

		for _, q := range []string{
			"SELECT COUNT(*) FROM columns WHERE project_id = $1",
			"SELECT COUNT(*) FROM tasks WHERE project_id = $1",
			"SELECT COUNT(*) FROM project_users WHERE project_id = $1",
		} {
			var n int
			require.NoError(t, db.QueryRow(q, projectID).Scan(&n))
			require.Zero(t, n, q)
		}
		var orphans int
		require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM comments").Scan(&orphans))
		require.Zero(t, orphans, "comments must cascade away with their tasks")
		require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM task_history").Scan(&orphans))
		require.Zero(t, orphans, "history events must cascade away with their tasks")
	})
}
