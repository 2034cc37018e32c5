package schema

import (
	"os"
	"path/filepath"
	"testing"
)

func TestRegistryDefaults(t *testing.T) {
	registry := NewRegistry()

	goal := registry.Schema("Goal")
	if !goal.IsMergeable("title") {
		t.Error("expected goal title to be mergeable")
	}
	if goal.IsMergeable("createdAt") {
		t.Error("expected createdAt to stay non-mergeable")
	}
	if missing := goal.MissingRequired(nil); len(missing) != 3 {
		t.Errorf("expected 3 required fields missing from empty attributes, got %v", missing)
	}
}

func TestRegistryUnknownType(t *testing.T) {
	registry := NewRegistry()

	unknown := registry.Schema("Widget")
	if unknown.IsMergeable("title") {
		t.Error("expected unknown types to have no mergeable fields")
	}
	if missing := unknown.MissingRequired(nil); len(missing) != 0 {
		t.Errorf("expected no required fields for unknown type, got %v", missing)
	}
}

func TestRegistryFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "schemas.json")
	content := `[{"entity_type":"Goal","mergeable":["title"],"required":["title"]},{"entity_type":"Habit","mergeable":["streak"],"required":["name"]}]`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("failed to write schema file: %v", err)
	}

	registry, err := NewRegistryFromFile(path)
	if err != nil {
		t.Fatalf("NewRegistryFromFile() error = %v", err)
	}

	// Overridden: the file replaces the default Goal schema wholesale.
	goal := registry.Schema("Goal")
	if goal.IsMergeable("progress") {
		t.Error("expected override to drop default mergeable fields")
	}
	if !goal.IsMergeable("title") {
		t.Error("expected override mergeable field to apply")
	}

	// Added: a type the defaults never knew about.
	habit := registry.Schema("Habit")
	if !habit.IsMergeable("streak") {
		t.Error("expected added schema to apply")
	}

	// Untouched defaults survive.
	if !registry.Schema("Task").IsMergeable("notes") {
		t.Error("expected untouched default schema to survive")
	}
}

func TestRegistryFromFileRejectsMissingType(t *testing.T) {
	path := filepath.Join(t.TempDir(), "schemas.json")
	if err := os.WriteFile(path, []byte(`[{"mergeable":["x"]}]`), 0o600); err != nil {
		t.Fatalf("failed to write schema file: %v", err)
	}

	if _, err := NewRegistryFromFile(path); err == nil {
		t.Error("expected error for schema entry without entity_type")
	}
}
