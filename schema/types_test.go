package schema

import (
	"encoding/json"
	"testing"
)

func TestAppIDAcceptsNumbersAndStrings(t *testing.T) {
	var apps []Application
	payload := `[{"id":12,"name":"a"},{"id":"abc","name":"b"},{"name":"c"}]`
	if err := json.Unmarshal([]byte(payload), &apps); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if apps[0].ID != "12" || apps[1].ID != "abc" || apps[2].ID != "" {
		t.Fatalf("unexpected ids: %+v", apps)
	}
}

func TestAppIDRejectsObjects(t *testing.T) {
	var app Application
	if err := json.Unmarshal([]byte(`{"id":{"x":1}}`), &app); err == nil {
		t.Fatalf("expected error for object id")
	}
}

func TestSnapshotEmpty(t *testing.T) {
	if !(Snapshot{}).Empty() {
		t.Fatalf("unknown collection should be empty")
	}
	if !(Snapshot{Loaded: true}).Empty() {
		t.Fatalf("loaded empty collection should be empty")
	}
	if (Snapshot{Loaded: true, Apps: []Application{{ID: "1"}}}).Empty() {
		t.Fatalf("non-empty collection reported empty")
	}
}
