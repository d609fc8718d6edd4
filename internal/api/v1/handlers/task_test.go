package handlers

import (
	"database/sql"
	"testing"

	"taskboard/internal/apperr"
	"taskboard/internal/models"
)

func strPtr(s string) *string { return &s }
func intPtr(n int) *int       { return &n }

func currentTask() models.Task {
	return models.Task{
		ID:          "t1",
		Title:       "Fix login",
		Description: "Form submits twice",
		Priority:    "medium",
		Tag:         "auth",
		AssigneeID:  models.NullString{NullString: sql.NullString{String: "u1", Valid: true}},
	}
}

func TestTaskChangesOnlyDifferingFields(t *testing.T) {
	current := currentTask()

	// Priority and tag are supplied but unchanged; they must not appear.
	changes, err := taskChanges(current, UpdateTaskRequest{
		Title:       strPtr("Fix login redirect"),
		Description: strPtr("  Form submits twice on slow networks  "),
		Priority:    strPtr("medium"),
		Tag:         strPtr("auth"),
		StoryPoints: intPtr(5),
	})
	if err != nil {
		t.Fatalf("taskChanges: %v", err)
	}

	want := map[string]bool{"title": true, "description": true, "story_points": true}
	if len(changes) != len(want) {
		t.Fatalf("expected %d changes, got %d: %+v", len(want), len(changes), changes)
	}
	for _, ch := range changes {
		if !want[ch.Field] {
			t.Errorf("unexpected change entry for unchanged field %q", ch.Field)
		}
		delete(want, ch.Field)
	}
	for field := range want {
		t.Errorf("missing change entry for field %q", field)
	}
}

func TestTaskChangesRecordsOldAndNew(t *testing.T) {
	current := currentTask()

	changes, err := taskChanges(current, UpdateTaskRequest{Title: strPtr("New title")})
	if err != nil {
		t.Fatalf("taskChanges: %v", err)
	}
	if len(changes) != 1 {
		t.Fatalf("expected 1 change, got %+v", changes)
	}
	if changes[0].OldValue != "Fix login" || changes[0].NewValue != "New title" {
		t.Errorf("old/new pair wrong: %+v", changes[0])
	}
}

func TestTaskChangesNoOpRequest(t *testing.T) {
	current := currentTask()

	changes, err := taskChanges(current, UpdateTaskRequest{
		Title:      strPtr("Fix login"),
		Priority:   strPtr("medium"),
		AssigneeID: strPtr("u1"),
	})
	if err != nil {
		t.Fatalf("taskChanges: %v", err)
	}
	if len(changes) != 0 {
		t.Errorf("identical values must produce no entries, got %+v", changes)
	}
}

func TestTaskChangesNullStoryPoints(t *testing.T) {
	current := currentTask() // story_points unset

	changes, err := taskChanges(current, UpdateTaskRequest{StoryPoints: intPtr(3)})
	if err != nil {
		t.Fatalf("taskChanges: %v", err)
	}
	if len(changes) != 1 || changes[0].Field != "story_points" {
		t.Fatalf("expected a story_points change, got %+v", changes)
	}
	if changes[0].OldValue != nil {
		t.Errorf("previously unset story points must report a nil old value, got %v", changes[0].OldValue)
	}
	if changes[0].NewValue != 3 {
		t.Errorf("new value lost: %v", changes[0].NewValue)
	}

	withPoints := current
	withPoints.StoryPoints = models.NullInt64{NullInt64: sql.NullInt64{Int64: 3, Valid: true}}
	changes, err = taskChanges(withPoints, UpdateTaskRequest{StoryPoints: intPtr(3)})
	if err != nil {
		t.Fatalf("taskChanges: %v", err)
	}
	if len(changes) != 0 {
		t.Errorf("equal story points must not diff, got %+v", changes)
	}
}

func TestTaskChangesEmptyTitleRejected(t *testing.T) {
	_, err := taskChanges(currentTask(), UpdateTaskRequest{Title: strPtr("   ")})
	if apperr.KindOf(err) != apperr.Validation {
		t.Errorf("blank title must be a validation error, got %v", err)
	}
}
