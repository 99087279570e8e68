package settings

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// Kind discriminates the setting value variants.
type Kind string

const (
	KindBool                Kind = "bool"
	KindNumber              Kind = "number"
	KindLocationAssignments Kind = "locationAssignments"
	KindJSON                Kind = "json"
)

// Value is a validated setting value. The concrete types are BoolSetting,
// NumberSetting, LocationAssignmentSetting and GenericJSONSetting.
type Value interface {
	Kind() Kind
	json.Marshaler
	isValue()
}

// BoolSetting is an on/off feature flag.
type BoolSetting bool

func (BoolSetting) Kind() Kind { return KindBool }
func (BoolSetting) isValue()   {}

func (b BoolSetting) MarshalJSON() ([]byte, error) { return json.Marshal(bool(b)) }

// NumberSetting is a non-negative number such as a display limit.
type NumberSetting float64

func (NumberSetting) Kind() Kind { return KindNumber }
func (NumberSetting) isValue()   {}

func (n NumberSetting) MarshalJSON() ([]byte, error) { return json.Marshal(float64(n)) }

// LocationAssignment lists the locations routed to one admin.
type LocationAssignment struct {
	AdminID   string
	Locations []string
}

// LocationAssignmentSetting maps admin ids to locations, keeping the
// order in which the entries were submitted.
type LocationAssignmentSetting []LocationAssignment

func (LocationAssignmentSetting) Kind() Kind { return KindLocationAssignments }
func (LocationAssignmentSetting) isValue()   {}

func (s LocationAssignmentSetting) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, entry := range s {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(entry.AdminID)
		if err != nil {
			return nil, err
		}
		locations := entry.Locations
		if locations == nil {
			locations = []string{}
		}
		val, err := json.Marshal(locations)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// GenericJSONSetting holds the value of a key without a known schema.
type GenericJSONSetting json.RawMessage

func (GenericJSONSetting) Kind() Kind { return KindJSON }
func (GenericJSONSetting) isValue()   {}

func (g GenericJSONSetting) MarshalJSON() ([]byte, error) {
	if len(g) == 0 {
		return []byte("null"), nil
	}
	return []byte(g), nil
}

// kindOf returns the schema of a known key; unknown keys are free-form.
func kindOf(key string) Kind {
	switch key {
	case KeyRestrictLeadEditing, KeyRestrictCounselorView, KeyLocationBasedAssignment:
		return KindBool
	case KeyMaxLeadsToDisplay:
		return KindNumber
	case KeyLocationAssignments:
		return KindLocationAssignments
	default:
		return KindJSON
	}
}

// IsMissing reports whether a submitted value counts as absent.
func IsMissing(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) || bytes.Equal(trimmed, []byte(`""`))
}

// Parse validates raw against the schema of key.
func Parse(key string, raw json.RawMessage) (Value, error) {
	if IsMissing(raw) {
		return nil, ErrValueRequired
	}
	raw = bytes.TrimSpace(raw)

	switch kindOf(key) {
	case KindBool:
		var b bool
		if err := json.Unmarshal(raw, &b); err != nil {
			return nil, invalid(key, "expected boolean")
		}
		return BoolSetting(b), nil
	case KindNumber:
		var n float64
		if err := json.Unmarshal(raw, &n); err != nil {
			return nil, invalid(key, "expected non-negative number")
		}
		if n < 0 {
			return nil, invalid(key, "expected non-negative number")
		}
		return NumberSetting(n), nil
	case KindLocationAssignments:
		return parseLocationAssignments(key, raw)
	default:
		if !json.Valid(raw) {
			return nil, invalid(key, "expected JSON")
		}
		return GenericJSONSetting(append([]byte(nil), raw...)), nil
	}
}

// Decode rebuilds a stored value. Values that no longer match their
// schema are surfaced as free-form JSON instead of failing the read.
func Decode(key string, stored []byte) Value {
	v, err := Parse(key, stored)
	if err != nil {
		if len(bytes.TrimSpace(stored)) == 0 {
			return GenericJSONSetting("null")
		}
		return GenericJSONSetting(append([]byte(nil), stored...))
	}
	return v
}

func parseLocationAssignments(key string, raw json.RawMessage) (Value, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	tok, err := dec.Token()
	if err != nil {
		return nil, invalid(key, "expected object")
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, invalid(key, "expected object")
	}

	out := LocationAssignmentSetting{}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, invalid(key, "malformed object")
		}
		adminID, _ := tok.(string)
		if _, err := bson.ObjectIDFromHex(adminID); err != nil {
			return nil, invalid(key, fmt.Sprintf("invalid admin id %q", adminID))
		}

		var locations []any
		if err := dec.Decode(&locations); err != nil || locations == nil {
			return nil, invalid(key, fmt.Sprintf("locations for admin %s must be an array", adminID))
		}
		entry := LocationAssignment{AdminID: adminID, Locations: make([]string, 0, len(locations))}
		for _, loc := range locations {
			s, ok := loc.(string)
			if !ok || strings.TrimSpace(s) == "" {
				return nil, invalid(key, fmt.Sprintf("invalid location for admin %s", adminID))
			}
			entry.Locations = append(entry.Locations, s)
		}
		out = append(out, entry)
	}
	if _, err := dec.Token(); err != nil {
		return nil, invalid(key, "malformed object")
	}
	return out, nil
}

func invalid(key, reason string) error {
	return fmt.Errorf("%w: %s: %s", ErrInvalidValue, key, reason)
}
