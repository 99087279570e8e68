// Package admin defines dashboard operator accounts and the login lockout rules.
package admin

import (
	"context"
	"errors"
	"time"

	"github.com/connectingdots/erp-backend/internal/domain/rbac"
)

var (
	ErrNotFound      = errors.New("admin not found")
	ErrUsernameTaken = errors.New("username already exists")
	ErrInvalidRole   = errors.New("invalid role")
	ErrInvalidOffice = errors.New("invalid location")
	ErrMissingFields = errors.New("username, password and role are required")
	ErrSelfDelete    = errors.New("admins cannot delete themselves")
)

// Location is the office an admin works from.
type Location string

const (
	LocationPune   Location = "Pune"
	LocationMumbai Location = "Mumbai"
	LocationRaipur Location = "Raipur"
	LocationOther  Location = "Other"
)

// Locations lists every valid office.
var Locations = []Location{LocationPune, LocationMumbai, LocationRaipur, LocationOther}

// Valid reports whether l is a known office.
func (l Location) Valid() bool {
	for _, v := range Locations {
		if v == l {
			return true
		}
	}
	return false
}

const DefaultColor = "#4299e1"

// Admin is a dashboard operator.
type Admin struct {
	ID            string     `json:"_id"`
	Username      string     `json:"username"`
	PasswordHash  string     `json:"-"`
	Email         string     `json:"email,omitempty"`
	Role          rbac.Role  `json:"role"`
	Active        bool       `json:"active"`
	Location      Location   `json:"location"`
	Color         string     `json:"color"`
	LastLogin     *time.Time `json:"lastLogin,omitempty"`
	CreatedAt     time.Time  `json:"createdAt"`
	CreatedBy     *string    `json:"createdBy,omitempty"`
	LoginAttempts int        `json:"loginAttempts"`
}

// Profile is an admin without security counters, as shown to the admin themselves.
type Profile struct {
	ID        string     `json:"_id"`
	Username  string     `json:"username"`
	Email     string     `json:"email,omitempty"`
	Role      rbac.Role  `json:"role"`
	Active    bool       `json:"active"`
	Location  Location   `json:"location"`
	Color     string     `json:"color"`
	LastLogin *time.Time `json:"lastLogin,omitempty"`
	CreatedAt time.Time  `json:"createdAt"`
	CreatedBy *string    `json:"createdBy,omitempty"`
}

// Profile returns the public view of a.
func (a *Admin) Profile() *Profile {
	return &Profile{
		ID:        a.ID,
		Username:  a.Username,
		Email:     a.Email,
		Role:      a.Role,
		Active:    a.Active,
		Location:  a.Location,
		Color:     a.Color,
		LastLogin: a.LastLogin,
		CreatedAt: a.CreatedAt,
		CreatedBy: a.CreatedBy,
	}
}

// RegisterFailedLogin increments the failure counter and deactivates the
// account once maxAttempts is reached. It reports whether the account was
// locked by this failure.
func (a *Admin) RegisterFailedLogin(maxAttempts int) bool {
	a.LoginAttempts++
	if a.LoginAttempts >= maxAttempts {
		a.Active = false
		return true
	}
	return false
}

// RemainingAttempts is the number of failures left before lockout.
func (a *Admin) RemainingAttempts(maxAttempts int) int {
	if r := maxAttempts - a.LoginAttempts; r > 0 {
		return r
	}
	return 0
}

// RegisterSuccessfulLogin resets the failure counter and stamps lastLogin.
func (a *Admin) RegisterSuccessfulLogin(at time.Time) {
	a.LoginAttempts = 0
	t := at.UTC()
	a.LastLogin = &t
}

// SetActive toggles the account. Reactivation clears the failure counter.
func (a *Admin) SetActive(active bool) {
	a.Active = active
	if active {
		a.LoginAttempts = 0
	}
}

// Ref is the populated form of a reference to an admin.
type Ref struct {
	ID       string `json:"_id"`
	Username string `json:"username"`
	Role     string `json:"role"`
	Color    string `json:"color,omitempty"`
}

// Ref returns the reference form of a, including the display color when withColor is set.
func (a *Admin) Ref(withColor bool) *Ref {
	ref := &Ref{ID: a.ID, Username: a.Username, Role: string(a.Role)}
	if withColor {
		ref.Color = a.Color
	}
	return ref
}

// RoleCount is one bucket of the admins-by-role aggregate.
type RoleCount struct {
	ID    string `json:"_id"`
	Count int64  `json:"count"`
}

// Repository persists admins.
type Repository interface {
	Create(ctx context.Context, a *Admin) error
	FindByID(ctx context.Context, id string) (*Admin, error)
	// FindByLogin matches username exactly or email case-insensitively, active or not.
	FindByLogin(ctx context.Context, login string) (*Admin, error)
	FindByUsername(ctx context.Context, username string) (*Admin, error)
	FindActive(ctx context.Context, id string) (*Admin, error)
	List(ctx context.Context, excludeRole rbac.Role) ([]*Admin, error)
	Update(ctx context.Context, a *Admin) error
	Delete(ctx context.Context, id string) (bool, error)
	Count(ctx context.Context) (int64, error)
	CountActive(ctx context.Context) (int64, error)
	CountByRole(ctx context.Context) ([]RoleCount, error)
}
