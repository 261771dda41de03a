package roster

import (
	"bytes"
	"encoding/json"
	"fmt"
	"maps"
	"slices"
)

// FieldType defines the supported field kinds. It drives both rendering and validation.
type FieldType string

const (
	FieldTypeText     FieldType = "text"
	FieldTypeNumber   FieldType = "number"
	FieldTypeDate     FieldType = "date"
	FieldTypeSelect   FieldType = "select"
	FieldTypeCheckbox FieldType = "checkbox"
)

// IsValid reports whether t is one of the known field types.
func (t FieldType) IsValid() bool {
	switch t {
	case FieldTypeText, FieldTypeNumber, FieldTypeDate, FieldTypeSelect, FieldTypeCheckbox:
		return true
	default:
		return false
	}
}

// FieldConstraints holds type-specific bounds. Bounds for another type are ignored.
type FieldConstraints struct {
	MinLength *int     `json:"minLength,omitempty" yaml:"minLength,omitempty"` // text
	MaxLength *int     `json:"maxLength,omitempty" yaml:"maxLength,omitempty"` // text
	Pattern   string   `json:"pattern,omitempty" yaml:"pattern,omitempty"`     // text
	Min       *float64 `json:"min,omitempty" yaml:"min,omitempty"`             // number
	Max       *float64 `json:"max,omitempty" yaml:"max,omitempty"`             // number
	MinDate   string   `json:"minDate,omitempty" yaml:"minDate,omitempty"`     // date, YYYY-MM-DD
	MaxDate   string   `json:"maxDate,omitempty" yaml:"maxDate,omitempty"`     // date, YYYY-MM-DD
}

// Clone returns a deep copy.
func (c *FieldConstraints) Clone() *FieldConstraints {
	if c == nil {
		return nil
	}
	out := *c
	if c.MinLength != nil {
		v := *c.MinLength
		out.MinLength = &v
	}
	if c.MaxLength != nil {
		v := *c.MaxLength
		out.MaxLength = &v
	}
	if c.Min != nil {
		v := *c.Min
		out.Min = &v
	}
	if c.Max != nil {
		v := *c.Max
		out.Max = &v
	}
	return &out
}

// FieldDefinition describes one configurable record attribute.
type FieldDefinition struct {
	ID           string            `json:"id"`
	Type         FieldType         `json:"type"`
	Label        string            `json:"label"`
	Required     bool              `json:"required"`
	Options      []string          `json:"options,omitempty"`
	Constraints  *FieldConstraints `json:"constraints,omitempty"`
	Description  string            `json:"description,omitempty"`
	DefaultValue Value             `json:"defaultValue,omitzero"`
}

// Clone returns a deep copy.
func (f FieldDefinition) Clone() FieldDefinition {
	out := f
	out.Options = slices.Clone(f.Options)
	out.Constraints = f.Constraints.Clone()
	return out
}

// CloneFields deep-copies a field list. A nil input yields an empty, non-nil slice.
func CloneFields(fields []FieldDefinition) []FieldDefinition {
	out := make([]FieldDefinition, len(fields))
	for i, f := range fields {
		out[i] = f.Clone()
	}
	return out
}

// Record is one directory entry: an identity plus an open map of field values.
type Record struct {
	ID     string
	Values map[string]Value
}

// NewRecord creates an empty record with the given id.
func NewRecord(id string) Record {
	return Record{ID: id, Values: make(map[string]Value)}
}

// Get returns the value stored under fieldID, or Absent.
func (r Record) Get(fieldID string) Value {
	if r.Values == nil {
		return Absent()
	}
	return r.Values[fieldID]
}

// Set stores v under fieldID, allocating the map if needed.
func (r *Record) Set(fieldID string, v Value) {
	if r.Values == nil {
		r.Values = make(map[string]Value)
	}
	r.Values[fieldID] = v
}

// With returns a copy of r with fieldID set to v.
func (r Record) With(fieldID string, v Value) Record {
	out := r.Clone()
	out.Set(fieldID, v)
	return out
}

// Clone returns a deep copy.
func (r Record) Clone() Record {
	values := make(map[string]Value, len(r.Values))
	maps.Copy(values, r.Values)
	return Record{ID: r.ID, Values: values}
}

// CloneRecords deep-copies a record list. A nil input yields an empty, non-nil slice.
func CloneRecords(records []Record) []Record {
	out := make([]Record, len(records))
	for i, r := range records {
		out[i] = r.Clone()
	}
	return out
}

// MarshalJSON writes the flat {"id": ..., "<field>": ...} shape with "id" first and the
// remaining keys sorted, so equal records always serialize to identical bytes.
func (r Record) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	id, err := json.Marshal(r.ID)
	if err != nil {
		return nil, err
	}
	buf.WriteString(`"id":`)
	buf.Write(id)

	for _, key := range slices.Sorted(maps.Keys(r.Values)) {
		if key == "id" {
			continue
		}
		k, err := json.Marshal(key)
		if err != nil {
			return nil, err
		}
		v, err := r.Values[key].MarshalJSON()
		if err != nil {
			return nil, fmt.Errorf("field '%s': %w", key, err)
		}
		buf.WriteByte(',')
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON reads the flat record shape. "id" must be a string.
func (r *Record) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	out := Record{Values: make(map[string]Value, len(raw))}
	for key, msg := range raw {
		if key == "id" {
			if err := json.Unmarshal(msg, &out.ID); err != nil {
				return fmt.Errorf("record id must be a string: %w", err)
			}
			continue
		}
		var v Value
		if err := v.UnmarshalJSON(msg); err != nil {
			return fmt.Errorf("field '%s': %w", key, err)
		}
		out.Values[key] = v
	}
	*r = out
	return nil
}

// ValidationError addresses one failed check to a field.
type ValidationError struct {
	FieldID string `json:"fieldId"`
	Message string `json:"message"`
}

// ValidationResult is the structured outcome of validating a record or a batch.
type ValidationResult struct {
	IsValid bool              `json:"isValid"`
	Errors  []ValidationError `json:"errors"`
}

// ErrorFor returns the first message recorded for fieldID.
func (r ValidationResult) ErrorFor(fieldID string) (string, bool) {
	for _, e := range r.Errors {
		if e.FieldID == fieldID {
			return e.Message, true
		}
	}
	return "", false
}

// FieldResult is the outcome of checking a single value.
type FieldResult struct {
	IsValid bool   `json:"isValid"`
	Error   string `json:"error,omitempty"`
}

// SaveResult is returned by every mutating directory operation. ValidationResult is set only
// when the operation was rejected by validation.
type SaveResult struct {
	Success          bool              `json:"success"`
	ValidationResult *ValidationResult `json:"validationResult,omitempty"`
}
