package roster

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultFields(t *testing.T) {
	fields := DefaultFields()
	ids := make([]string, len(fields))
	for i, f := range fields {
		ids[i] = f.ID
		assert.True(t, f.Type.IsValid(), f.ID)
	}
	assert.Equal(t, []string{FieldIDName, FieldIDAddress, FieldIDMemo, FieldIDJoinDate, FieldIDJob, FieldIDEmailConsent}, ids)

	// every call returns an independent copy
	fields[0].Constraints.MaxLength = ptrInt(1)
	fields[4].Options[0] = "Astronaut"
	fresh := DefaultFields()
	assert.Equal(t, 50, *fresh[0].Constraints.MaxLength)
	assert.Equal(t, "Developer", fresh[4].Options[0])
}

func TestInitialRecords(t *testing.T) {
	records := InitialRecords()
	require.Len(t, records, 2)
	assert.Equal(t, "1", records[0].ID)
	assert.Equal(t, "John Doe", records[0].Get(FieldIDName).String())
	assert.Equal(t, "2", records[1].ID)
	assert.Equal(t, "Foo Bar", records[1].Get(FieldIDName).String())

	records[0].Set(FieldIDName, Text("changed"))
	assert.Equal(t, "John Doe", InitialRecords()[0].Get(FieldIDName).String())
}

func TestApplyDefaults(t *testing.T) {
	rec := NewRecord("x").With(FieldIDJob, Text("PO")).With(FieldIDMemo, Text(""))
	out := ApplyDefaults(rec, DefaultFields())

	assert.Equal(t, "PO", out.Get(FieldIDJob).String(), "explicit values win")
	assert.True(t, out.Get(FieldIDMemo).Equal(Text("")), "explicit empty strings are kept")
	assert.True(t, out.Get(FieldIDName).Equal(Text("")))
	assert.True(t, out.Get(FieldIDEmailConsent).Equal(Bool(false)))
	assert.True(t, out.Get(FieldIDJoinDate).IsAbsent(), "fields without a default stay absent")
	assert.Len(t, rec.Values, 2, "input is not modified")
}

func TestNewRecordID(t *testing.T) {
	a, b := NewRecordID(), NewRecordID()
	assert.NotEqual(t, a, b)

	id, err := uuid.Parse(a)
	require.NoError(t, err)
	assert.Equal(t, uuid.Version(7), id.Version())
}
