package settings

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	adminA = "64b7f0c2a1b2c3d4e5f60718"
	adminB = "64b7f0c2a1b2c3d4e5f60719"
)

func TestParseBoolSetting(t *testing.T) {
	v, err := Parse(KeyRestrictLeadEditing, json.RawMessage(`true`))
	require.NoError(t, err)
	assert.Equal(t, BoolSetting(true), v)

	_, err = Parse(KeyRestrictLeadEditing, json.RawMessage(`"yes"`))
	assert.ErrorIs(t, err, ErrInvalidValue)
}

func TestParseNumberSetting(t *testing.T) {
	v, err := Parse(KeyMaxLeadsToDisplay, json.RawMessage(`25`))
	require.NoError(t, err)
	assert.Equal(t, NumberSetting(25), v)

	_, err = Parse(KeyMaxLeadsToDisplay, json.RawMessage(`-1`))
	assert.ErrorIs(t, err, ErrInvalidValue)

	_, err = Parse(KeyMaxLeadsToDisplay, json.RawMessage(`"ten"`))
	assert.ErrorIs(t, err, ErrInvalidValue)
}

func TestParseMissingValues(t *testing.T) {
	for _, raw := range []string{``, `null`, `""`, `  `} {
		_, err := Parse("anything", json.RawMessage(raw))
		assert.ErrorIs(t, err, ErrValueRequired, "raw %q", raw)
	}
}

func TestParseLocationAssignmentsKeepsOrder(t *testing.T) {
	raw := json.RawMessage(`{"` + adminB + `":["Pune","Mumbai"],"` + adminA + `":[]}`)
	v, err := Parse(KeyLocationAssignments, raw)
	require.NoError(t, err)

	assignments, ok := v.(LocationAssignmentSetting)
	require.True(t, ok)
	require.Len(t, assignments, 2)
	assert.Equal(t, adminB, assignments[0].AdminID)
	assert.Equal(t, []string{"Pune", "Mumbai"}, assignments[0].Locations)
	assert.Equal(t, adminA, assignments[1].AdminID)
	assert.Empty(t, assignments[1].Locations)

	out, err := json.Marshal(v)
	require.NoError(t, err)
	assert.JSONEq(t, string(raw), string(out))
}

func TestParseLocationAssignmentsRejectsBadShapes(t *testing.T) {
	tests := map[string]string{
		"not an object":     `["Pune"]`,
		"bad admin id":      `{"nobody":["Pune"]}`,
		"locations object":  `{"` + adminA + `":{"city":"Pune"}}`,
		"non-string entry":  `{"` + adminA + `":[42]}`,
		"blank location":    `{"` + adminA + `":["  "]}`,
		"null location set": `{"` + adminA + `":null}`,
	}
	for name, raw := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := Parse(KeyLocationAssignments, json.RawMessage(raw))
			assert.ErrorIs(t, err, ErrInvalidValue)
		})
	}
}

func TestParseUnknownKeyKeepsJSON(t *testing.T) {
	v, err := Parse("bannerText", json.RawMessage(`{"text":"Admissions open"}`))
	require.NoError(t, err)
	assert.Equal(t, KindJSON, v.Kind())

	_, err = Parse("bannerText", json.RawMessage(`{broken`))
	assert.ErrorIs(t, err, ErrInvalidValue)
}

func TestDecodeFallsBackToJSON(t *testing.T) {
	v := Decode(KeyMaxLeadsToDisplay, []byte(`"lots"`))
	assert.Equal(t, KindJSON, v.Kind())

	v = Decode(KeyRestrictCounselorView, []byte(`true`))
	assert.Equal(t, BoolSetting(true), v)
}

func TestTruthy(t *testing.T) {
	assert.False(t, Truthy(nil))
	assert.False(t, Truthy(BoolSetting(false)))
	assert.True(t, Truthy(BoolSetting(true)))
	assert.False(t, Truthy(NumberSetting(0)))
	assert.True(t, Truthy(NumberSetting(3)))
	assert.False(t, Truthy(GenericJSONSetting(`""`)))
	assert.False(t, Truthy(GenericJSONSetting(`null`)))
	assert.True(t, Truthy(GenericJSONSetting(`"on"`)))
	assert.True(t, Truthy(GenericJSONSetting(`{}`)))
}

func TestDefaultsCoverKnownKeys(t *testing.T) {
	keys := map[string]Kind{}
	for _, d := range Defaults() {
		keys[d.Key] = d.Value.Kind()
	}
	assert.Equal(t, map[string]Kind{
		KeyRestrictLeadEditing:     KindBool,
		KeyRestrictCounselorView:   KindBool,
		KeyMaxLeadsToDisplay:       KindNumber,
		KeyLocationBasedAssignment: KindBool,
		KeyLocationAssignments:     KindLocationAssignments,
	}, keys)
}
