package org

import (
	"encoding/json"
	"testing"

	"github.com/google/uuid"
)

func TestDefaultName(t *testing.T) {
	tests := map[string]string{
		"John":   "John's Organisation",
		"Andrew": "Andrew's Organisation",
		"Zoë":    "Zoë's Organisation",
	}

	for first, want := range tests {
		if got := DefaultName(first); got != want {
			t.Errorf("DefaultName(%q) = %q, want %q", first, got, want)
		}
	}
}

func TestOrg_Public(t *testing.T) {
	id := uuid.New()
	o := &Org{ID: id, Name: "Acme", CreatedBy: uuid.NullUUID{UUID: uuid.New(), Valid: true}}

	data, err := json.Marshal(o.Public())
	if err != nil {
		t.Fatalf("failed to marshal: %v", err)
	}

	var got map[string]any
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("failed to unmarshal: %v", err)
	}

	if got["orgId"] != id.String() || got["name"] != "Acme" {
		t.Errorf("unexpected public org: %v", got)
	}
	if v, ok := got["description"]; !ok || v != nil {
		t.Errorf("expected description to be present and null, got %v", v)
	}
	if _, ok := got["created_by"]; ok {
		t.Error("created_by must not be exposed")
	}
}
