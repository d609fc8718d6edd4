package repository

import (
	"strings"
	"testing"
)

func TestMigrationsAreOrdered(t *testing.T) {
	if len(Migrations) == 0 {
		t.Fatal("no migrations registered")
	}
	for i, m := range Migrations {
		if m.Version != i+1 {
			t.Errorf("migration %q has version %d, want %d", m.Name, m.Version, i+1)
		}
		if m.Name == "" {
			t.Errorf("migration %d has no name", m.Version)
		}
		if strings.TrimSpace(m.SQL) == "" {
			t.Errorf("migration %d (%s) has empty SQL", m.Version, m.Name)
		}
	}
}

func TestMigrationNamesAreUnique(t *testing.T) {
	seen := map[string]bool{}
	for _, m := range Migrations {
		if seen[m.Name] {
			t.Errorf("duplicate migration name %q", m.Name)
		}
		seen[m.Name] = true
	}
}

func TestCoreTablesCovered(t *testing.T) {
	tables := []string{"users", "projects", "project_users", "columns", "tasks", "comments", "task_history"}
	all := ""
	for _, m := range Migrations {
		all += m.SQL + "\n"
	}
	for _, table := range tables {
		if !strings.Contains(all, "CREATE TABLE IF NOT EXISTS "+table) {
			t.Errorf("no migration creates table %q", table)
		}
	}
}

func TestDefaultColumnsBoard(t *testing.T) {
	if len(DefaultColumnNames) != 5 {
		t.Fatalf("expected the 5-column default board, got %d", len(DefaultColumnNames))
	}
	if DefaultColumnNames[0] != "К работе" || DefaultColumnNames[4] != "Готово" {
		t.Errorf("unexpected default board: %v", DefaultColumnNames)
	}
}
