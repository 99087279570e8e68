package lead

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// Field names an updatable lead attribute, using the JSON name.
type Field string

const (
	FieldName             Field = "name"
	FieldEmail            Field = "email"
	FieldContact          Field = "contact"
	FieldCountryCode      Field = "countryCode"
	FieldCoursename       Field = "coursename"
	FieldLocation         Field = "location"
	FieldStatus           Field = "status"
	FieldNotes            Field = "notes"
	FieldAssignedTo       Field = "assignedTo"
	FieldContactedScore   Field = "contactedScore"
	FieldContactedComment Field = "contactedComment"
)

var (
	// FullUpdateFields may be changed by PUT and by PATCH for editing roles.
	FullUpdateFields = []Field{
		FieldName, FieldEmail, FieldContact, FieldCountryCode, FieldCoursename, FieldLocation,
		FieldStatus, FieldNotes, FieldAssignedTo, FieldContactedScore, FieldContactedComment,
	}
	// ContactFields are the only fields a ViewMode admin may PATCH.
	ContactFields = []Field{FieldContactedScore, FieldContactedComment, FieldStatus}
	// BulkUpdateFields may be changed on many leads at once.
	BulkUpdateFields = []Field{FieldStatus, FieldNotes, FieldAssignedTo, FieldContactedScore, FieldContactedComment}
)

// ValidationError reports an invalid value for a single field.
type ValidationError struct {
	Field  Field
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s %s", e.Field, e.Reason)
}

// IsValidation reports whether err is a lead validation failure.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve) || errors.Is(err, ErrMissingRequired)
}

// Change is one validated field assignment.
type Change struct {
	Field Field
	// Value is the typed value: string, Status, *int or *string (assignedTo).
	Value any
	// Submitted is the value as sent by the client, recorded in audit diffs.
	Submitted any
}

// FieldDiff records an audited change.
type FieldDiff struct {
	From any `json:"from"`
	To   any `json:"to"`
}

// ParseChanges extracts the allowed fields present in body, in the order of allowed.
// A key explicitly set to null is present; a missing key is ignored.
func ParseChanges(body map[string]json.RawMessage, allowed []Field) ([]Change, error) {
	changes := make([]Change, 0, len(allowed))
	for _, field := range allowed {
		raw, ok := body[string(field)]
		if !ok {
			continue
		}
		change, err := parseChange(field, raw)
		if err != nil {
			return nil, err
		}
		changes = append(changes, change)
	}
	return changes, nil
}

func parseChange(field Field, raw json.RawMessage) (Change, error) {
	var submitted any
	if err := json.Unmarshal(raw, &submitted); err != nil {
		return Change{}, &ValidationError{Field: field, Reason: "is not valid JSON"}
	}
	change := Change{Field: field, Submitted: submitted}

	switch field {
	case FieldStatus:
		s, isNull, err := decodeString(raw)
		if err != nil || isNull || !Status(s).Valid() {
			return Change{}, &ValidationError{Field: field, Reason: "must be one of New, Contacted, Converted, Rejected"}
		}
		change.Value = Status(s)
	case FieldContactedScore:
		if isNullJSON(raw) {
			change.Value = (*int)(nil)
			return change, nil
		}
		score, err := decodeScore(raw)
		if err != nil {
			return Change{}, &ValidationError{Field: field, Reason: err.Error()}
		}
		change.Value = &score
	case FieldAssignedTo:
		s, isNull, err := decodeString(raw)
		if err != nil {
			return Change{}, &ValidationError{Field: field, Reason: "must be an admin id or null"}
		}
		s = strings.TrimSpace(s)
		if isNull || s == "" {
			change.Value = (*string)(nil)
			return change, nil
		}
		if _, err := bson.ObjectIDFromHex(s); err != nil {
			return Change{}, &ValidationError{Field: field, Reason: "must be an admin id or null"}
		}
		change.Value = &s
	default:
		s, _, err := decodeString(raw)
		if err != nil {
			return Change{}, &ValidationError{Field: field, Reason: "must be a string"}
		}
		switch field {
		case FieldEmail:
			s = strings.ToLower(strings.TrimSpace(s))
		case FieldName, FieldContact:
			s = strings.TrimSpace(s)
		}
		if (field == FieldName || field == FieldEmail || field == FieldContact) && s == "" {
			return Change{}, &ValidationError{Field: field, Reason: "is required"}
		}
		change.Value = s
	}
	return change, nil
}

// Apply writes the changes onto l and returns the per-field diff against the previous values.
func Apply(l *Lead, changes []Change) map[string]FieldDiff {
	diff := make(map[string]FieldDiff, len(changes))
	for _, c := range changes {
		diff[string(c.Field)] = FieldDiff{From: Get(l, c.Field), To: c.Submitted}
		set(l, c)
	}
	return diff
}

// AssigneeChange returns the admin id assigned by changes, if any.
func AssigneeChange(changes []Change) (string, bool) {
	for _, c := range changes {
		if c.Field != FieldAssignedTo {
			continue
		}
		if id, ok := c.Value.(*string); ok && id != nil {
			return *id, true
		}
	}
	return "", false
}

// Get returns the current value of field on l in its JSON form.
func Get(l *Lead, field Field) any {
	switch field {
	case FieldName:
		return l.Name
	case FieldEmail:
		return l.Email
	case FieldContact:
		return l.Contact
	case FieldCountryCode:
		return l.CountryCode
	case FieldCoursename:
		return l.Coursename
	case FieldLocation:
		return l.Location
	case FieldStatus:
		return string(l.Status)
	case FieldNotes:
		return l.Notes
	case FieldContactedComment:
		return l.ContactedComment
	case FieldContactedScore:
		if l.ContactedScore == nil {
			return nil
		}
		return *l.ContactedScore
	case FieldAssignedTo:
		if l.AssignedTo == nil {
			return nil
		}
		return *l.AssignedTo
	}
	return nil
}

func set(l *Lead, c Change) {
	switch c.Field {
	case FieldName:
		l.Name = c.Value.(string)
	case FieldEmail:
		l.Email = c.Value.(string)
	case FieldContact:
		l.Contact = c.Value.(string)
	case FieldCountryCode:
		l.CountryCode = c.Value.(string)
	case FieldCoursename:
		l.Coursename = c.Value.(string)
	case FieldLocation:
		l.Location = c.Value.(string)
	case FieldStatus:
		l.Status = c.Value.(Status)
	case FieldNotes:
		l.Notes = c.Value.(string)
	case FieldContactedComment:
		l.ContactedComment = c.Value.(string)
	case FieldContactedScore:
		l.ContactedScore = c.Value.(*int)
	case FieldAssignedTo:
		l.AssignedTo = c.Value.(*string)
	}
}

func isNullJSON(raw json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}

// decodeString accepts JSON strings, numbers (kept verbatim) and null.
func decodeString(raw json.RawMessage) (string, bool, error) {
	trimmed := bytes.TrimSpace(raw)
	if isNullJSON(trimmed) {
		return "", true, nil
	}
	if len(trimmed) > 0 && trimmed[0] == '"' {
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return "", false, err
		}
		return s, false, nil
	}
	var n json.Number
	if err := json.Unmarshal(trimmed, &n); err == nil {
		return n.String(), false, nil
	}
	return "", false, errors.New("not a string")
}

func decodeScore(raw json.RawMessage) (int, error) {
	s, _, err := decodeString(raw)
	if err != nil {
		return 0, errors.New("must be a number between 1 and 10")
	}
	var f float64
	if err := json.Unmarshal([]byte(strings.TrimSpace(s)), &f); err != nil {
		return 0, errors.New("must be a number between 1 and 10")
	}
	if f != math.Trunc(f) || f < MinContactedScore || f > MaxContactedScore {
		return 0, errors.New("must be a whole number between 1 and 10")
	}
	return int(f), nil
}
