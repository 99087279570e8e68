package blog

import (
	"context"
	"errors"
	"time"
)

var (
	ErrUserNotFound      = errors.New("blog user not found")
	ErrUsernameTaken     = errors.New("username already exists")
	ErrEmailTaken        = errors.New("email already exists")
	ErrInvalidCredential = errors.New("invalid credentials")
	ErrProtectedUser     = errors.New("cannot delete the main admin user")
)

// Role is a blog permission level.
type Role string

const (
	RoleUser       Role = "user"
	RoleAdmin      Role = "admin"
	RoleSuperAdmin Role = "superadmin"
)

// Valid reports whether r is a known blog role.
func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAdmin || r == RoleSuperAdmin
}

// CanPublish reports whether r may create, edit and delete posts.
func (r Role) CanPublish() bool {
	return r == RoleAdmin || r == RoleSuperAdmin
}

// ProtectedUsername is the bootstrap account that cannot be deleted.
const ProtectedUsername = "admin"

// MinPasswordLength applies to blog user passwords.
const MinPasswordLength = 6

// User is a blog account.
type User struct {
	ID           string     `json:"id"`
	Username     string     `json:"username"`
	Email        string     `json:"email,omitempty"`
	PasswordHash string     `json:"-"`
	Role         Role       `json:"role"`
	IsActive     bool       `json:"isActive"`
	LastLogin    *time.Time `json:"lastLogin,omitempty"`
	CreatedAt    time.Time  `json:"createdAt"`
}

// Summary is the user as embedded in a login response.
type Summary struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email,omitempty"`
	Role     Role   `json:"role"`
}

// Summary returns the login-response view of u.
func (u *User) Summary() Summary {
	return Summary{ID: u.ID, Username: u.Username, Email: u.Email, Role: u.Role}
}

// UserRepository persists blog users.
type UserRepository interface {
	Create(ctx context.Context, u *User) error
	FindByID(ctx context.Context, id string) (*User, error)
	// FindActiveByLogin matches username or email among active users.
	FindActiveByLogin(ctx context.Context, login string) (*User, error)
	FindByUsername(ctx context.Context, username string) (*User, error)
	FindByEmail(ctx context.Context, email string) (*User, error)
	List(ctx context.Context) ([]*User, error)
	TouchLastLogin(ctx context.Context, id string, at time.Time) error
	Delete(ctx context.Context, id string) (bool, error)
}
