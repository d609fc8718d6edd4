package history

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

type fakeStore struct {
	events []recordedEvent
	err    error
}

type recordedEvent struct {
	id, taskID, action, payload, createdAt string
	userID                                 *string
}

func (f *fakeStore) InsertEvent(id, taskID string, userID *string, action, payload, createdAt string) error {
	f.events = append(f.events, recordedEvent{id, taskID, action, payload, createdAt, userID})
	return f.err
}

func TestRecordWritesEvent(t *testing.T) {
	store := &fakeStore{}
	r := NewRecorder(store, nil)

	r.Record("task-1", "user-1", ActionTaskMoved, map[string]interface{}{
		"fromColumn": "To Do",
		"toColumn":   "Done",
		"taskTitle":  "Fix login",
	})

	if len(store.events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(store.events))
	}
	ev := store.events[0]
	if ev.taskID != "task-1" || ev.action != ActionTaskMoved {
		t.Errorf("unexpected event: %+v", ev)
	}
	if ev.userID == nil || *ev.userID != "user-1" {
		t.Errorf("expected actor user-1, got %v", ev.userID)
	}

	var payload map[string]string
	if err := json.Unmarshal([]byte(ev.payload), &payload); err != nil {
		t.Fatalf("payload is not valid JSON: %v", err)
	}
	if payload["fromColumn"] != "To Do" || payload["toColumn"] != "Done" {
		t.Errorf("unexpected payload: %v", payload)
	}
}

func TestRecordEmptyUserIsNilActor(t *testing.T) {
	store := &fakeStore{}
	r := NewRecorder(store, nil)

	r.Record("task-1", "", ActionTaskDeleted, nil)

	if len(store.events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(store.events))
	}
	if store.events[0].userID != nil {
		t.Errorf("expected nil actor, got %v", *store.events[0].userID)
	}
}

func TestRecordSwallowsStoreError(t *testing.T) {
	store := &fakeStore{err: errors.New("db down")}
	r := NewRecorder(store, nil)

	// Must not panic or propagate anything.
	r.Record("task-1", "user-1", ActionTaskCreated, map[string]string{"title": "x"})

	if len(store.events) != 1 {
		t.Fatalf("store should still have been called, got %d events", len(store.events))
	}
}

func TestRecordChangesPayload(t *testing.T) {
	store := &fakeStore{}
	r := NewRecorder(store, nil)

	r.Record("task-1", "user-1", ActionTaskUpdated, map[string]interface{}{
		"changes": []Change{{Field: "title", OldValue: "old", NewValue: "new"}},
	})

	var payload struct {
		Changes []struct {
			Field    string `json:"field"`
			OldValue string `json:"oldValue"`
			NewValue string `json:"newValue"`
		} `json:"changes"`
	}
	if err := json.Unmarshal([]byte(store.events[0].payload), &payload); err != nil {
		t.Fatalf("payload decode: %v", err)
	}
	if len(payload.Changes) != 1 || payload.Changes[0].Field != "title" {
		t.Errorf("unexpected changes payload: %+v", payload)
	}
	if payload.Changes[0].OldValue != "old" || payload.Changes[0].NewValue != "new" {
		t.Errorf("camelCase keys not preserved: %s", store.events[0].payload)
	}
}

func TestTruncateComment(t *testing.T) {
	short := "a short comment"
	if got := TruncateComment(short); got != short {
		t.Errorf("short comment must pass through, got %q", got)
	}

	exact := strings.Repeat("x", 100)
	if got := TruncateComment(exact); got != exact {
		t.Errorf("100 characters must pass through untouched")
	}

	long := strings.Repeat("x", 101)
	got := TruncateComment(long)
	if got != strings.Repeat("x", 100)+"..." {
		t.Errorf("101 characters must be cut to 100 plus ellipsis, got %d chars", len(got))
	}
}

func TestTruncateCommentCountsRunes(t *testing.T) {
	long := strings.Repeat("я", 150)
	got := TruncateComment(long)
	want := strings.Repeat("я", 100) + "..."
	if got != want {
		t.Errorf("Cyrillic input must be cut on rune boundaries, got %d runes", len([]rune(got)))
	}
}
