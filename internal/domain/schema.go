package domain

// EntitySchema describes one entity kind's merge and validation policy.
// Mergeable lists the fields field-level merge may reconcile automatically;
// everything else is treated as derived or otherwise unsafe to merge.
// Required lists the fields a manually supplied resolution must carry.
type EntitySchema struct {
	EntityType string   `json:"entity_type"`
	Mergeable  []string `json:"mergeable"`
	Required   []string `json:"required"`
}

func (s EntitySchema) IsMergeable(field string) bool {
	for _, f := range s.Mergeable {
		if f == field {
			return true
		}
	}
	return false
}

// MissingRequired returns the required fields absent from attrs.
func (s EntitySchema) MissingRequired(attrs Attributes) []string {
	var missing []string
	for _, f := range s.Required {
		if _, ok := attrs[f]; !ok {
			missing = append(missing, f)
		}
	}
	return missing
}

// SchemaRegistry supplies per-entity-type merge policy and required fields.
type SchemaRegistry interface {
	Schema(entityType string) EntitySchema
}
