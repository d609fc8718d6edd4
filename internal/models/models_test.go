package models

import (
	"encoding/json"
	"testing"
)

func TestNullStringJSON(t *testing.T) {
	task := Task{ID: "t1", Title: "Fix login"}
	raw, err := json.Marshal(task)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var decoded map[string]interface{}
	if err := json.Unmarshal(raw, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if decoded["assignee_id"] != nil {
		t.Errorf("unset nullable must render as null, got %v", decoded["assignee_id"])
	}

	// Roundtrip through the cache path must preserve null vs set.
	var back Task
	if err := json.Unmarshal(raw, &back); err != nil {
		t.Fatalf("roundtrip: %v", err)
	}
	if back.AssigneeID.Valid {
		t.Error("null must stay invalid after roundtrip")
	}

	if err := json.Unmarshal([]byte(`{"assignee_id":"u1","story_points":5}`), &back); err != nil {
		t.Fatalf("unmarshal set values: %v", err)
	}
	if !back.AssigneeID.Valid || back.AssigneeID.String != "u1" {
		t.Errorf("assignee lost: %+v", back.AssigneeID)
	}
	if !back.StoryPoints.Valid || back.StoryPoints.Int64 != 5 {
		t.Errorf("story points lost: %+v", back.StoryPoints)
	}
}
