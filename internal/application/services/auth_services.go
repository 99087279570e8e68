package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/connectingdots/erp-backend/internal/domain/admin"
	"github.com/connectingdots/erp-backend/internal/domain/audit"
	"github.com/connectingdots/erp-backend/internal/infrastructure/observability/logging"
	"github.com/connectingdots/erp-backend/internal/infrastructure/observability/metrics"
	"github.com/connectingdots/erp-backend/internal/infrastructure/security"
)

// Login outcomes, used as the metrics label and in auth logs.
const (
	LoginOutcomeSuccess     = "success"
	LoginOutcomeUnknown     = "unknown_user"
	LoginOutcomeInactive    = "inactive"
	LoginOutcomeBadPassword = "bad_password"
	LoginOutcomeLocked      = "locked"
)

var ErrCredentialsRequired = errors.New("username and password required")

// LoginError is a rejected login. Message is safe to return to the client.
type LoginError struct {
	Outcome string
	Message string
}

func (e *LoginError) Error() string { return e.Message }

// AuthConfig holds the token and lockout parameters.
type AuthConfig struct {
	JWTSecret        string
	TokenTTL         time.Duration
	MaxLoginAttempts int
}

// LoginResult is returned to a dashboard client after a successful login.
type LoginResult struct {
	Message  string `json:"message"`
	Token    string `json:"token"`
	Role     string `json:"role"`
	Username string `json:"username"`
	ID       string `json:"id"`
	Active   bool   `json:"active"`
}

// AuthService handles dashboard login, lockout and token issuance
type AuthService struct {
	admins  admin.Repository
	history *LoginHistoryService
	audit   *AuditService
	config  AuthConfig
	logger  *logging.ChanneledLogger
	metrics *metrics.Metrics
}

// NewAuthService creates a new authentication service
func NewAuthService(admins admin.Repository, history *LoginHistoryService, auditSvc *AuditService, cfg AuthConfig, logger *logging.ChanneledLogger, m *metrics.Metrics) *AuthService {
	if cfg.MaxLoginAttempts < 1 {
		cfg.MaxLoginAttempts = 3
	}
	return &AuthService{
		admins:  admins,
		history: history,
		audit:   auditSvc,
		config:  cfg,
		logger:  logger,
		metrics: m,
	}
}

// Login authenticates an admin by username or email. Every call that passes
// input validation writes exactly one login history row.
func (a *AuthService) Login(ctx context.Context, login, password string, client ClientInfo) (*LoginResult, error) {
	start := time.Now()
	if login == "" || password == "" {
		return nil, ErrCredentialsRequired
	}

	acct, err := a.admins.FindByLogin(ctx, login)
	if err != nil {
		return nil, fmt.Errorf("failed to look up admin: %w", err)
	}

	if acct == nil {
		a.history.Record(ctx, "", client, false)
		return nil, a.reject(LoginOutcomeUnknown, "", "Invalid username/email or password.")
	}

	if !acct.Active {
		a.history.Record(ctx, acct.ID, client, false)
		return nil, a.reject(LoginOutcomeInactive, acct.ID, "Your account is currently inactive. Please contact an administrator.")
	}

	if !security.CheckPassword(acct.PasswordHash, password) {
		locked := acct.RegisterFailedLogin(a.config.MaxLoginAttempts)
		a.history.Record(ctx, acct.ID, client, false)
		if err := a.admins.Update(ctx, acct); err != nil {
			return nil, fmt.Errorf("failed to record failed login: %w", err)
		}

		if locked {
			a.metrics.AccountLockout()
			a.audit.Log(ctx, acct.ID, audit.ActionAccountDeactivated, audit.TargetAdmin, audit.Metadata{
				"reason":   "Too many failed login attempts",
				"attempts": acct.LoginAttempts,
			})
			a.logger.Auth().Warn("Admin account deactivated after failed logins", "adminId", logging.MaskID(acct.ID), "attempts", acct.LoginAttempts)
			return nil, a.reject(LoginOutcomeLocked, acct.ID, fmt.Sprintf(
				"Invalid password. Your account has been deactivated due to %d failed login attempts. Please contact an administrator.",
				a.config.MaxLoginAttempts))
		}
		return nil, a.reject(LoginOutcomeBadPassword, acct.ID, fmt.Sprintf(
			"Invalid username/email or password. You have %d attempts remaining.",
			acct.RemainingAttempts(a.config.MaxLoginAttempts)))
	}

	acct.RegisterSuccessfulLogin(time.Now())
	if err := a.admins.Update(ctx, acct); err != nil {
		return nil, fmt.Errorf("failed to record successful login: %w", err)
	}
	a.history.Record(ctx, acct.ID, client, true)

	token, err := security.GenerateAdminToken(acct.ID, string(acct.Role), a.config.JWTSecret, a.config.TokenTTL)
	if err != nil {
		return nil, err
	}
	a.audit.Log(ctx, acct.ID, audit.ActionLogin, audit.TargetAdmin, audit.Metadata{"result": "success"})

	a.metrics.LoginAttempt(LoginOutcomeSuccess)
	a.logger.LogAuthOperation("admin_login", acct.ID, true, map[string]any{
		"role":     string(acct.Role),
		"duration": time.Since(start),
	})

	return &LoginResult{
		Message:  "Login successful.",
		Token:    token,
		Role:     string(acct.Role),
		Username: acct.Username,
		ID:       acct.ID,
		Active:   acct.Active,
	}, nil
}

func (a *AuthService) reject(outcome, adminID, message string) *LoginError {
	a.metrics.LoginAttempt(outcome)
	a.logger.LogAuthOperation("admin_login", adminID, false, map[string]any{"outcome": outcome})
	return &LoginError{Outcome: outcome, Message: message}
}

// VerifyToken validates a dashboard bearer token.
func (a *AuthService) VerifyToken(token string) (*security.AdminClaims, error) {
	return security.ValidateAdminToken(token, a.config.JWTSecret)
}
