// Package schema supplies per-entity-type merge policy and required fields.
// Defaults cover the known entity kinds; deployments may override or extend
// them from a JSON file.
package schema

import (
	"encoding/json"
	"fmt"
	"os"

	"stride-sync-server/internal/domain"
)

type Registry struct {
	schemas map[string]domain.EntitySchema
}

// Every entity carries createdAt/updatedAt; those never merge field-by-field.
// Derived values (goal progress, indicator totals) are deliberately absent
// from the mergeable sets.
func defaults() map[string]domain.EntitySchema {
	return map[string]domain.EntitySchema{
		"Goal": {
			EntityType: "Goal",
			Mergeable:  []string{"title", "description", "tags", "targetDate", "progress"},
			Required:   []string{"title", "createdAt", "updatedAt"},
		},
		"Task": {
			EntityType: "Task",
			Mergeable:  []string{"title", "notes", "tags", "dueDate", "priority", "completed"},
			Required:   []string{"title", "createdAt", "updatedAt"},
		},
		"CalendarEvent": {
			EntityType: "CalendarEvent",
			Mergeable:  []string{"title", "location", "notes", "attendees", "startsAt", "endsAt"},
			Required:   []string{"title", "startsAt", "createdAt", "updatedAt"},
		},
		"KeyIndicator": {
			EntityType: "KeyIndicator",
			Mergeable:  []string{"name", "unit", "target"},
			Required:   []string{"name", "createdAt", "updatedAt"},
		},
		"AccountabilityGroup": {
			EntityType: "AccountabilityGroup",
			Mergeable:  []string{"name", "description", "members"},
			Required:   []string{"name", "createdAt", "updatedAt"},
		},
	}
}

func NewRegistry() *Registry {
	return &Registry{schemas: defaults()}
}

// NewRegistryFromFile layers schemas from a JSON file over the defaults.
// The file holds a list of EntitySchema objects.
func NewRegistryFromFile(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read schema file: %w", err)
	}

	var overrides []domain.EntitySchema
	if err := json.Unmarshal(data, &overrides); err != nil {
		return nil, fmt.Errorf("failed to parse schema file: %w", err)
	}

	schemas := defaults()
	for _, s := range overrides {
		if s.EntityType == "" {
			return nil, fmt.Errorf("schema entry missing entity_type")
		}
		schemas[s.EntityType] = s
	}

	return &Registry{schemas: schemas}, nil
}

// Schema returns the policy for an entity type. Unknown types get an empty
// schema: nothing mergeable, nothing required — the conservative default.
func (r *Registry) Schema(entityType string) domain.EntitySchema {
	if s, ok := r.schemas[entityType]; ok {
		return s
	}
	return domain.EntitySchema{EntityType: entityType}
}
