package roster

import (
	"encoding/json"
	"fmt"

	"github.com/google/jsonschema-go/jsonschema"
)

const jsonSchemaDraft = "https://json-schema.org/draft/2020-12/schema"

// RecordJSONSchema describes the serialized record shape implied by fields as a
// draft 2020-12 JSON Schema. Optional fields also accept null.
func RecordJSONSchema(fields []FieldDefinition) (*jsonschema.Schema, error) {
	schema := &jsonschema.Schema{
		Schema:     jsonSchemaDraft,
		Title:      "Record",
		Type:       "object",
		Properties: make(map[string]*jsonschema.Schema, len(fields)+1),
		Required:   []string{"id"},
	}
	schema.Properties["id"] = &jsonschema.Schema{Type: "string", MinLength: intPtr(1)}

	for _, f := range fields {
		prop, err := fieldJSONSchema(f)
		if err != nil {
			return nil, fmt.Errorf("field '%s': %w", f.ID, err)
		}
		schema.Properties[f.ID] = prop
		if f.Required {
			schema.Required = append(schema.Required, f.ID)
		}
	}
	return schema, nil
}

func fieldJSONSchema(f FieldDefinition) (*jsonschema.Schema, error) {
	prop := &jsonschema.Schema{
		Title:       f.Label,
		Description: f.Description,
	}

	var base string
	switch f.Type {
	case FieldTypeText:
		base = "string"
		if c := f.Constraints; c != nil {
			prop.MinLength = c.MinLength
			prop.MaxLength = c.MaxLength
			if c.Pattern != "" {
				prop.Pattern = "^(?:" + c.Pattern + ")$"
			}
		}
	case FieldTypeNumber:
		base = "number"
		if c := f.Constraints; c != nil {
			prop.Minimum = c.Min
			prop.Maximum = c.Max
		}
	case FieldTypeDate:
		base = "string"
		prop.Format = "date"
	case FieldTypeSelect:
		base = "string"
		prop.Enum = make([]any, 0, len(f.Options)+1)
		for _, o := range f.Options {
			prop.Enum = append(prop.Enum, o)
		}
		if !f.Required {
			prop.Enum = append(prop.Enum, nil)
		}
	case FieldTypeCheckbox:
		base = "boolean"
	default:
		return nil, fmt.Errorf("unknown field type %q", f.Type)
	}

	if f.Required {
		prop.Type = base
	} else {
		prop.Types = []string{base, "null"}
	}

	if !f.DefaultValue.IsAbsent() {
		raw, err := json.Marshal(f.DefaultValue)
		if err != nil {
			return nil, fmt.Errorf("encode default value: %w", err)
		}
		prop.Default = raw
	}
	return prop, nil
}

// ValidateRecordJSON checks an encoded record against the exported schema. It is a
// structural check only; ValidateRecord remains the authoritative rule set.
func ValidateRecordJSON(fields []FieldDefinition, data []byte) error {
	schema, err := RecordJSONSchema(fields)
	if err != nil {
		return err
	}
	resolved, err := schema.Resolve(&jsonschema.ResolveOptions{})
	if err != nil {
		return fmt.Errorf("failed to resolve JSON schema: %w", err)
	}

	var instance any
	if err := json.Unmarshal(data, &instance); err != nil {
		return fmt.Errorf("failed to unmarshal JSON data: %w", err)
	}
	if err := resolved.Validate(instance); err != nil {
		return fmt.Errorf("JSON validation failed: %w", err)
	}
	return nil
}
