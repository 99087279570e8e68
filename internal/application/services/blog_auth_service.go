package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/connectingdots/erp-backend/internal/domain/admin"
	"github.com/connectingdots/erp-backend/internal/domain/blog"
	"github.com/connectingdots/erp-backend/internal/domain/rbac"
	"github.com/connectingdots/erp-backend/internal/infrastructure/observability/logging"
	"github.com/connectingdots/erp-backend/internal/infrastructure/security"
	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// ErrBlogCredentialsRequired is returned when a blog login omits a field.
var ErrBlogCredentialsRequired = errors.New("username and password are required")

// ValidationFailure lists every problem found in a blog user payload.
type ValidationFailure struct {
	Errors []string
}

func (e *ValidationFailure) Error() string {
	return "validation failed: " + strings.Join(e.Errors, "; ")
}

// NewBlogUser is the payload for registering or creating a blog account.
type NewBlogUser struct {
	Username string `json:"username" validate:"required"`
	Email    string `json:"email" validate:"omitempty,email"`
	Password string `json:"password" validate:"required,min=6"`
	Role     string `json:"role" validate:"omitempty,oneof=user admin superadmin"`
}

var validationMessages = map[string]string{
	"Username.required": "Username is required",
	"Password.required": "Password is required",
	"Password.min":      "Password must be at least 6 characters",
	"Email.email":       "Please enter a valid email address",
	"Role.oneof":        "Invalid role specified",
}

func validateBlogUser(in NewBlogUser) error {
	err := validate.Struct(in)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	failure := &ValidationFailure{}
	for _, fe := range verrs {
		msg, ok := validationMessages[fe.Field()+"."+fe.Tag()]
		if !ok {
			msg = fe.Field() + " is invalid"
		}
		failure.Errors = append(failure.Errors, msg)
	}
	return failure
}

// BlogAuthConfig holds the token settings of the blog context.
type BlogAuthConfig struct {
	JWTSecret  string
	TokenTTL   time.Duration
	BcryptCost int
	// DashboardSecret verifies tokens presented to the exchange endpoint.
	DashboardSecret string
}

// BlogLogin is the result of a successful blog login.
type BlogLogin struct {
	Token string       `json:"token"`
	User  blog.Summary `json:"user"`
}

// BlogAuthService authenticates blog users and manages their accounts.
type BlogAuthService struct {
	users  blog.UserRepository
	admins admin.Repository
	config BlogAuthConfig
	logger *logging.ChanneledLogger
}

// NewBlogAuthService creates a new blog authentication service
func NewBlogAuthService(users blog.UserRepository, admins admin.Repository, cfg BlogAuthConfig, logger *logging.ChanneledLogger) *BlogAuthService {
	return &BlogAuthService{users: users, admins: admins, config: cfg, logger: logger}
}

// Login accepts a username or email of an active account.
func (s *BlogAuthService) Login(ctx context.Context, login, password string) (*BlogLogin, error) {
	if login == "" || password == "" {
		return nil, ErrBlogCredentialsRequired
	}
	u, err := s.users.FindActiveByLogin(ctx, login)
	if err != nil {
		return nil, err
	}
	if u == nil || !security.CheckPassword(u.PasswordHash, password) {
		s.logger.Blog().Warn("Blog login rejected", "login", login)
		return nil, blog.ErrInvalidCredential
	}

	now := time.Now().UTC()
	if err := s.users.TouchLastLogin(ctx, u.ID, now); err != nil {
		s.logger.Blog().Error("Failed to record blog login", "error", err, "userId", u.ID)
	}
	u.LastLogin = &now

	token, err := s.issue(u.ID, u.Username, u.Role)
	if err != nil {
		return nil, err
	}
	s.logger.Blog().Info("Blog login succeeded", "userId", u.ID, "role", u.Role)
	return &BlogLogin{Token: token, User: u.Summary()}, nil
}

// Register creates a plain user account regardless of the requested role.
func (s *BlogAuthService) Register(ctx context.Context, in NewBlogUser) (*blog.User, error) {
	in.Role = string(blog.RoleUser)
	return s.CreateUser(ctx, in)
}

// CreateUser creates an active account with the requested role.
func (s *BlogAuthService) CreateUser(ctx context.Context, in NewBlogUser) (*blog.User, error) {
	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	if err := validateBlogUser(in); err != nil {
		return nil, err
	}
	role := blog.Role(in.Role)
	if role == "" {
		role = blog.RoleUser
	}

	existing, err := s.users.FindByUsername(ctx, in.Username)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, blog.ErrUsernameTaken
	}
	if in.Email != "" {
		existing, err := s.users.FindByEmail(ctx, in.Email)
		if err != nil {
			return nil, err
		}
		if existing != nil {
			return nil, blog.ErrEmailTaken
		}
	}

	hash, err := security.HashPassword(in.Password, s.config.BcryptCost)
	if err != nil {
		return nil, err
	}
	u := &blog.User{
		ID:           security.NewObjectID(),
		Username:     in.Username,
		Email:        in.Email,
		PasswordHash: hash,
		Role:         role,
		IsActive:     true,
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.users.Create(ctx, u); err != nil {
		return nil, err
	}
	s.logger.Blog().Info("Blog user created", "userId", u.ID, "role", u.Role)
	return u, nil
}

func (s *BlogAuthService) ListUsers(ctx context.Context) ([]*blog.User, error) {
	return s.users.List(ctx)
}

// DeleteUser removes an account. The bootstrap "admin" account is protected.
func (s *BlogAuthService) DeleteUser(ctx context.Context, id string) error {
	u, err := s.users.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if u == nil {
		return blog.ErrUserNotFound
	}
	if u.Username == blog.ProtectedUsername {
		return blog.ErrProtectedUser
	}
	if _, err := s.users.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Blog().Info("Blog user deleted", "userId", id)
	return nil
}

// Authenticate validates a blog token and returns its claims.
func (s *BlogAuthService) Authenticate(token string) (*security.BlogClaims, error) {
	return security.ValidateBlogToken(token, s.config.JWTSecret)
}

// CurrentUser resolves the active account behind a blog token.
func (s *BlogAuthService) CurrentUser(ctx context.Context, token string) (*blog.User, error) {
	claims, err := s.Authenticate(token)
	if err != nil {
		return nil, err
	}
	u, err := s.users.FindByID(ctx, claims.ID)
	if err != nil {
		return nil, err
	}
	if u == nil || !u.IsActive {
		return nil, security.ErrInvalidToken
	}
	return u, nil
}

// Exchange trades a dashboard token of an active admin for a blog token.
// SuperAdmins become blog superadmins, Admins become blog admins and every
// other role becomes a plain user.
func (s *BlogAuthService) Exchange(ctx context.Context, dashboardToken string) (string, error) {
	claims, err := security.ValidateAdminToken(dashboardToken, s.config.DashboardSecret)
	if err != nil {
		return "", err
	}
	acct, err := s.admins.FindActive(ctx, claims.ID)
	if err != nil {
		return "", err
	}
	if acct == nil {
		return "", security.ErrInvalidToken
	}

	role := blog.RoleUser
	switch acct.Role {
	case rbac.RoleSuperAdmin:
		role = blog.RoleSuperAdmin
	case rbac.RoleAdmin:
		role = blog.RoleAdmin
	}
	token, err := s.issue(acct.ID, acct.Username, role)
	if err != nil {
		return "", err
	}
	s.logger.Blog().Info("Dashboard token exchanged for blog token", "adminId", logging.MaskID(acct.ID), "role", role)
	return token, nil
}

func (s *BlogAuthService) issue(id, username string, role blog.Role) (string, error) {
	return security.GenerateBlogToken(id, username, string(role), s.config.JWTSecret, s.config.TokenTTL)
}
