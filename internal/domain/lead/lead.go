// Package lead defines the prospective-student record captured from public
// forms and managed from the dashboard.
package lead

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/connectingdots/erp-backend/internal/domain/admin"
)

var (
	ErrNotFound         = errors.New("lead not found")
	ErrInvalidID        = errors.New("invalid lead id")
	ErrDuplicateEmail   = errors.New("duplicate lead email")
	ErrDuplicateContact = errors.New("duplicate lead contact")
	ErrDuplicate        = errors.New("lead with this email or contact already exists")
	ErrMissingRequired  = errors.New("name, email and contact are required")
	ErrEditRestricted   = errors.New("lead editing is restricted to the assigned admin")
	ErrNoIDs            = errors.New("no lead ids provided")
	ErrNoChanges        = errors.New("no update data provided")
)

// Status is the pipeline stage of a lead.
type Status string

const (
	StatusNew       Status = "New"
	StatusContacted Status = "Contacted"
	StatusConverted Status = "Converted"
	StatusRejected  Status = "Rejected"
)

// Statuses lists every valid status.
var Statuses = []Status{StatusNew, StatusContacted, StatusConverted, StatusRejected}

// Valid reports whether s is one of the known statuses.
func (s Status) Valid() bool {
	for _, v := range Statuses {
		if v == s {
			return true
		}
	}
	return false
}

const (
	MinContactedScore = 1
	MaxContactedScore = 10
)

// Lead is a prospective student.
type Lead struct {
	ID               string    `json:"_id"`
	Name             string    `json:"name"`
	Email            string    `json:"email"`
	Contact          string    `json:"contact"`
	CountryCode      string    `json:"countryCode,omitempty"`
	Coursename       string    `json:"coursename,omitempty"`
	Location         string    `json:"location,omitempty"`
	Status           Status    `json:"status"`
	ContactedScore   *int      `json:"contactedScore,omitempty"`
	ContactedComment string    `json:"contactedComment,omitempty"`
	Notes            string    `json:"notes"`
	AssignedTo       *string   `json:"assignedTo"`
	CreatedAt        time.Time `json:"createdAt"`
	UpdatedAt        time.Time `json:"updatedAt"`
}

// AdminRef is the populated form of an assignedTo reference.
type AdminRef = admin.Ref

// View is a lead as returned by list endpoints. AssignedTo holds either the
// raw id (string or nil) or an *AdminRef when the reference was populated.
type View struct {
	Lead
	AssignedTo any `json:"assignedTo"`
}

// NewView wraps l, populating assignedTo with ref when it is not nil.
func NewView(l *Lead, ref *AdminRef) *View {
	v := &View{Lead: *l}
	switch {
	case ref != nil:
		v.AssignedTo = ref
	case l.AssignedTo != nil:
		v.AssignedTo = *l.AssignedTo
	default:
		v.AssignedTo = nil
	}
	return v
}

// Normalize trims text fields and lower-cases the email.
func (l *Lead) Normalize() {
	l.Name = strings.TrimSpace(l.Name)
	l.Email = strings.ToLower(strings.TrimSpace(l.Email))
	l.Contact = strings.TrimSpace(l.Contact)
	l.CountryCode = strings.TrimSpace(l.CountryCode)
	l.Coursename = strings.TrimSpace(l.Coursename)
	l.Location = strings.TrimSpace(l.Location)
}

// Validate checks required fields and value ranges.
func (l *Lead) Validate() error {
	if l.Name == "" || l.Email == "" || l.Contact == "" {
		return ErrMissingRequired
	}
	if !l.Status.Valid() {
		return &ValidationError{Field: FieldStatus, Reason: "must be one of New, Contacted, Converted, Rejected"}
	}
	if l.ContactedScore != nil && (*l.ContactedScore < MinContactedScore || *l.ContactedScore > MaxContactedScore) {
		return &ValidationError{Field: FieldContactedScore, Reason: "must be between 1 and 10"}
	}
	return nil
}

// Assignment selects leads by assignment state.
type Assignment int

const (
	AssignmentAny Assignment = iota
	AssignmentUnassigned
	AssignmentAssigned
	AssignmentTo
)

// Filter describes a lead query. Zero values mean "no constraint".
type Filter struct {
	Status     Status
	Assignment Assignment
	AssignedTo string
	StartDate  *time.Time
	EndDate    *time.Time
	Coursename string
	Locations  []string
	Search     string
	Populate   bool
	Limit      int
}

// Group is one bucket of an aggregate count.
type Group struct {
	ID    any   `json:"_id"`
	Count int64 `json:"count"`
}

// Repository persists leads.
type Repository interface {
	Create(ctx context.Context, l *Lead) error
	FindByID(ctx context.Context, id string) (*Lead, error)
	FindView(ctx context.Context, id string) (*View, error)
	FindByIDs(ctx context.Context, ids []string) ([]*Lead, error)
	FindByEmailOrContact(ctx context.Context, email, contact string) (*Lead, error)
	Update(ctx context.Context, l *Lead) error
	UpdateMany(ctx context.Context, ids []string, changes []Change) (int64, error)
	Delete(ctx context.Context, id string) (bool, error)
	DeleteMany(ctx context.Context, ids []string) (int64, error)
	List(ctx context.Context, f Filter) ([]*View, error)
	Count(ctx context.Context) (int64, error)
	CountSince(ctx context.Context, since time.Time) (int64, error)
	GroupBy(ctx context.Context, field Field) ([]Group, error)
}
