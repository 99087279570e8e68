package lead

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const adminID = "64b7f0c2a1b2c3d4e5f60718"

func body(t *testing.T, s string) map[string]json.RawMessage {
	t.Helper()
	var m map[string]json.RawMessage
	require.NoError(t, json.Unmarshal([]byte(s), &m))
	return m
}

func TestParseChangesKeepsOnlyAllowedFields(t *testing.T) {
	changes, err := ParseChanges(body(t, `{"status":"Contacted","notes":"called twice","name":"Ravi"}`), ContactFields)
	require.NoError(t, err)
	require.Len(t, changes, 1)
	assert.Equal(t, FieldStatus, changes[0].Field)
	assert.Equal(t, StatusContacted, changes[0].Value)
}

func TestParseChangesStatus(t *testing.T) {
	_, err := ParseChanges(body(t, `{"status":"Pending"}`), FullUpdateFields)
	assert.True(t, IsValidation(err))

	_, err = ParseChanges(body(t, `{"status":null}`), FullUpdateFields)
	assert.True(t, IsValidation(err))
}

func TestParseChangesContactedScore(t *testing.T) {
	tests := []struct {
		raw     string
		want    *int
		invalid bool
	}{
		{raw: `{"contactedScore":7}`, want: intPtr(7)},
		{raw: `{"contactedScore":"4"}`, want: intPtr(4)},
		{raw: `{"contactedScore":null}`, want: nil},
		{raw: `{"contactedScore":0}`, invalid: true},
		{raw: `{"contactedScore":11}`, invalid: true},
		{raw: `{"contactedScore":2.5}`, invalid: true},
		{raw: `{"contactedScore":"high"}`, invalid: true},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			changes, err := ParseChanges(body(t, tt.raw), FullUpdateFields)
			if tt.invalid {
				assert.True(t, IsValidation(err))
				return
			}
			require.NoError(t, err)
			require.Len(t, changes, 1)
			assert.Equal(t, tt.want, changes[0].Value.(*int))
		})
	}
}

func TestParseChangesAssignedTo(t *testing.T) {
	changes, err := ParseChanges(body(t, `{"assignedTo":"`+adminID+`"}`), BulkUpdateFields)
	require.NoError(t, err)
	id, ok := AssigneeChange(changes)
	assert.True(t, ok)
	assert.Equal(t, adminID, id)

	changes, err = ParseChanges(body(t, `{"assignedTo":""}`), BulkUpdateFields)
	require.NoError(t, err)
	assert.Nil(t, changes[0].Value.(*string))
	_, ok = AssigneeChange(changes)
	assert.False(t, ok)

	_, err = ParseChanges(body(t, `{"assignedTo":"bob"}`), BulkUpdateFields)
	assert.True(t, IsValidation(err))
}

func TestParseChangesRequiredText(t *testing.T) {
	_, err := ParseChanges(body(t, `{"name":"   "}`), FullUpdateFields)
	assert.True(t, IsValidation(err))

	changes, err := ParseChanges(body(t, `{"email":"  Ravi@Example.COM "}`), FullUpdateFields)
	require.NoError(t, err)
	assert.Equal(t, "ravi@example.com", changes[0].Value)
}

func TestApplyRecordsDiff(t *testing.T) {
	l := &Lead{Name: "Ravi", Email: "ravi@example.com", Contact: "9800000000", Status: StatusNew}
	changes, err := ParseChanges(body(t, `{"status":"Converted","contactedScore":9,"assignedTo":"`+adminID+`"}`), FullUpdateFields)
	require.NoError(t, err)

	diff := Apply(l, changes)

	assert.Equal(t, StatusConverted, l.Status)
	require.NotNil(t, l.ContactedScore)
	assert.Equal(t, 9, *l.ContactedScore)
	require.NotNil(t, l.AssignedTo)
	assert.Equal(t, adminID, *l.AssignedTo)

	assert.Equal(t, FieldDiff{From: "New", To: "Converted"}, diff["status"])
	assert.Equal(t, FieldDiff{From: nil, To: float64(9)}, diff["contactedScore"])
	assert.Equal(t, FieldDiff{From: nil, To: adminID}, diff["assignedTo"])
}

func TestValidate(t *testing.T) {
	l := &Lead{Name: " Ravi ", Email: " RAVI@example.com", Contact: "98", Status: StatusNew}
	l.Normalize()
	assert.Equal(t, "Ravi", l.Name)
	assert.Equal(t, "ravi@example.com", l.Email)
	require.NoError(t, l.Validate())

	l.Contact = ""
	assert.ErrorIs(t, l.Validate(), ErrMissingRequired)
}

func TestNewViewPopulation(t *testing.T) {
	id := adminID
	l := &Lead{ID: "x", AssignedTo: &id}

	assert.Equal(t, adminID, NewView(l, nil).AssignedTo)

	ref := &AdminRef{ID: adminID, Username: "priya"}
	assert.Equal(t, ref, NewView(l, ref).AssignedTo)

	assert.Nil(t, NewView(&Lead{}, nil).AssignedTo)
}

func intPtr(i int) *int { return &i }
