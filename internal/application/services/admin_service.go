package services

import (
	"context"
	"strings"
	"time"

	"github.com/connectingdots/erp-backend/internal/domain/admin"
	"github.com/connectingdots/erp-backend/internal/domain/audit"
	"github.com/connectingdots/erp-backend/internal/domain/rbac"
	"github.com/connectingdots/erp-backend/internal/infrastructure/observability/logging"
	"github.com/connectingdots/erp-backend/internal/infrastructure/security"
)

const redacted = "[REDACTED]"

// NewAdmin is the payload for creating a dashboard account.
type NewAdmin struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Role     string `json:"role"`
	Email    string `json:"email"`
	Location string `json:"location"`
	Color    string `json:"color"`
}

// AdminChanges is a partial update. Empty strings and a nil Active leave the field unchanged.
type AdminChanges struct {
	Role     string `json:"role"`
	Active   *bool  `json:"active"`
	Password string `json:"password"`
	Email    string `json:"email"`
	Location string `json:"location"`
	Color    string `json:"color"`
}

// AdminSummary is the admin as echoed after a create or update.
type AdminSummary struct {
	ID       string         `json:"id"`
	Username string         `json:"username"`
	Role     rbac.Role      `json:"role"`
	Active   bool           `json:"active"`
	Location admin.Location `json:"location,omitempty"`
	Color    string         `json:"color,omitempty"`
}

// AdminService manages dashboard accounts.
type AdminService struct {
	repo       admin.Repository
	audit      *AuditService
	bcryptCost int
	logger     *logging.ChanneledLogger
}

// NewAdminService creates a new admin management service
func NewAdminService(repo admin.Repository, auditSvc *AuditService, bcryptCost int, logger *logging.ChanneledLogger) *AdminService {
	return &AdminService{repo: repo, audit: auditSvc, bcryptCost: bcryptCost, logger: logger}
}

// Create adds an active account. caller.ID is empty when bootstrapping from the CLI.
func (s *AdminService) Create(ctx context.Context, caller Caller, in NewAdmin) (*admin.Admin, error) {
	if in.Username == "" || in.Password == "" || in.Role == "" {
		return nil, admin.ErrMissingFields
	}
	role, ok := rbac.ParseRole(in.Role)
	if !ok {
		return nil, admin.ErrInvalidRole
	}
	location := admin.LocationOther
	if in.Location != "" {
		location = admin.Location(in.Location)
		if !location.Valid() {
			return nil, admin.ErrInvalidOffice
		}
	}
	color := in.Color
	if color == "" {
		color = admin.DefaultColor
	}

	existing, err := s.repo.FindByUsername(ctx, in.Username)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, admin.ErrUsernameTaken
	}

	hash, err := security.HashPassword(in.Password, s.bcryptCost)
	if err != nil {
		return nil, err
	}
	acct := &admin.Admin{
		ID:           security.NewObjectID(),
		Username:     in.Username,
		PasswordHash: hash,
		Email:        strings.ToLower(strings.TrimSpace(in.Email)),
		Role:         role,
		Active:       true,
		Location:     location,
		Color:        color,
		CreatedAt:    time.Now().UTC(),
		CreatedBy:    optionalID(caller.ID),
	}
	if err := s.repo.Create(ctx, acct); err != nil {
		return nil, err
	}

	s.audit.Log(ctx, caller.ID, audit.ActionCreateAdmin, audit.TargetAdmin, audit.Metadata{
		"adminId":  acct.ID,
		"username": acct.Username,
		"role":     string(acct.Role),
	})
	s.logger.Admins().Info("Admin created", "adminId", acct.ID, "role", acct.Role)
	return acct, nil
}

// List returns every account, newest first. Admins do not see SuperAdmins.
func (s *AdminService) List(ctx context.Context, caller Caller) ([]*admin.Admin, error) {
	var exclude rbac.Role
	if caller.Role == rbac.RoleAdmin {
		exclude = rbac.RoleSuperAdmin
	}
	return s.repo.List(ctx, exclude)
}

// Update applies the provided changes. Reactivating an account clears its
// failed login counter. Password changes are audited without their values.
func (s *AdminService) Update(ctx context.Context, caller Caller, id string, in AdminChanges) (*admin.Admin, error) {
	var role rbac.Role
	if in.Role != "" {
		r, ok := rbac.ParseRole(in.Role)
		if !ok {
			return nil, admin.ErrInvalidRole
		}
		role = r
	}
	if in.Location != "" && !admin.Location(in.Location).Valid() {
		return nil, admin.ErrInvalidOffice
	}

	if !security.IsObjectID(id) {
		return nil, admin.ErrNotFound
	}
	acct, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if acct == nil {
		return nil, admin.ErrNotFound
	}

	metadata := audit.Metadata{"adminId": id}
	record := func(field string, from, to any) {
		metadata[field] = map[string]any{"from": from, "to": to}
	}

	if role != "" {
		record("role", string(acct.Role), string(role))
		acct.Role = role
	}
	if in.Active != nil {
		record("active", acct.Active, *in.Active)
		if *in.Active {
			record("loginAttempts", acct.LoginAttempts, 0)
		}
		acct.SetActive(*in.Active)
	}
	if in.Password != "" {
		hash, err := security.HashPassword(in.Password, s.bcryptCost)
		if err != nil {
			return nil, err
		}
		record("password", redacted, redacted)
		acct.PasswordHash = hash
	}
	if in.Email != "" {
		email := strings.ToLower(strings.TrimSpace(in.Email))
		record("email", acct.Email, email)
		acct.Email = email
	}
	if in.Location != "" {
		record("location", string(acct.Location), in.Location)
		acct.Location = admin.Location(in.Location)
	}
	if in.Color != "" {
		record("color", acct.Color, in.Color)
		acct.Color = in.Color
	}

	if err := s.repo.Update(ctx, acct); err != nil {
		return nil, err
	}
	s.audit.Log(ctx, caller.ID, audit.ActionUpdateAdmin, audit.TargetAdmin, metadata)
	s.logger.Admins().Info("Admin updated", "adminId", id, "fields", len(metadata)-1)
	return acct, nil
}

// Delete removes an account other than the caller's own.
func (s *AdminService) Delete(ctx context.Context, caller Caller, id string) error {
	if caller.ID == id {
		return admin.ErrSelfDelete
	}
	if !security.IsObjectID(id) {
		return admin.ErrNotFound
	}
	acct, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if acct == nil {
		return admin.ErrNotFound
	}
	if _, err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	s.audit.Log(ctx, caller.ID, audit.ActionDeleteAdmin, audit.TargetAdmin, audit.Metadata{
		"adminId":   id,
		"username":  acct.Username,
		"email":     acct.Email,
		"role":      string(acct.Role),
		"location":  string(acct.Location),
		"deletedAt": time.Now().UTC(),
	})
	s.logger.Admins().Info("Admin deleted", "adminId", id)
	return nil
}

// Current returns the caller's own profile.
func (s *AdminService) Current(ctx context.Context, id string) (*admin.Profile, error) {
	acct, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if acct == nil {
		return nil, admin.ErrNotFound
	}
	return acct.Profile(), nil
}

// SummarizeAdmin returns the short form of acct echoed by create and update.
func SummarizeAdmin(acct *admin.Admin, withOffice bool) AdminSummary {
	s := AdminSummary{ID: acct.ID, Username: acct.Username, Role: acct.Role, Active: acct.Active}
	if withOffice {
		s.Location = acct.Location
		s.Color = acct.Color
	}
	return s
}
