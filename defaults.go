package roster

import (
	"github.com/google/uuid"
)

// Default field ids of the member directory.
const (
	FieldIDName         = "name"
	FieldIDAddress      = "address"
	FieldIDMemo         = "memo"
	FieldIDJoinDate     = "joinDate"
	FieldIDJob          = "job"
	FieldIDEmailConsent = "emailConsent"
)

// DefaultFields returns a fresh copy of the built-in member schema.
func DefaultFields() []FieldDefinition {
	return []FieldDefinition{
		{
			ID:           FieldIDName,
			Type:         FieldTypeText,
			Label:        "Name",
			Required:     true,
			Constraints:  &FieldConstraints{MaxLength: intPtr(50)},
			Description:  "The member's name",
			DefaultValue: Text(""),
		},
		{
			ID:           FieldIDAddress,
			Type:         FieldTypeText,
			Label:        "Address",
			Constraints:  &FieldConstraints{MaxLength: intPtr(20)},
			Description:  "The member's address",
			DefaultValue: Text(""),
		},
		{
			ID:           FieldIDMemo,
			Type:         FieldTypeText,
			Label:        "Memo",
			Constraints:  &FieldConstraints{MaxLength: intPtr(50)},
			Description:  "Additional notes about the member",
			DefaultValue: Text(""),
		},
		{
			ID:       FieldIDJoinDate,
			Type:     FieldTypeDate,
			Label:    "Join Date",
			Required: true,
			Constraints: &FieldConstraints{
				MinDate: "2000-01-01",
				MaxDate: "2099-12-31",
			},
			Description: "The date the member joined",
		},
		{
			ID:           FieldIDJob,
			Type:         FieldTypeSelect,
			Label:        "Job",
			Options:      []string{"Developer", "PO", "Designer", "Marketer", "Sales", "Other"},
			Description:  "The member's job",
			DefaultValue: Text("Other"),
		},
		{
			ID:           FieldIDEmailConsent,
			Type:         FieldTypeCheckbox,
			Label:        "Email Consent",
			Description:  "Check to receive marketing email",
			DefaultValue: Bool(false),
		},
	}
}

// InitialRecords returns a fresh copy of the seed members.
func InitialRecords() []Record {
	return []Record{
		{
			ID: "1",
			Values: map[string]Value{
				FieldIDName:         Text("John Doe"),
				FieldIDAddress:      Text("Gangnam-gu, Seoul"),
				FieldIDMemo:         Text("Foreigner"),
				FieldIDJoinDate:     Date("2024-10-02"),
				FieldIDJob:          Text("Developer"),
				FieldIDEmailConsent: Bool(true),
			},
		},
		{
			ID: "2",
			Values: map[string]Value{
				FieldIDName:         Text("Foo Bar"),
				FieldIDAddress:      Text("Seocho-gu, Seoul"),
				FieldIDMemo:         Text("Korean"),
				FieldIDJoinDate:     Date("2024-10-01"),
				FieldIDJob:          Text("PO"),
				FieldIDEmailConsent: Bool(false),
			},
		},
	}
}

// ApplyDefaults returns a copy of record where every absent field that declares a default
// value carries that default. Explicit values, including empty strings, are kept.
func ApplyDefaults(record Record, fields []FieldDefinition) Record {
	out := record.Clone()
	for _, f := range fields {
		if f.DefaultValue.IsAbsent() {
			continue
		}
		if _, ok := out.Values[f.ID]; ok {
			continue
		}
		out.Values[f.ID] = f.DefaultValue
	}
	return out
}

// NewRecordID returns a fresh, time-ordered record identity.
func NewRecordID() string {
	return uuid.Must(uuid.NewV7()).String()
}

func intPtr(v int) *int { return &v }
