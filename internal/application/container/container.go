// Package container provides dependency injection for all singleton services
package container

import (
	"github.com/connectingdots/erp-backend/internal/application/services"
	"github.com/connectingdots/erp-backend/internal/infrastructure/caching/interfaces"
	"github.com/connectingdots/erp-backend/internal/infrastructure/email"
	"github.com/connectingdots/erp-backend/internal/infrastructure/media"
	"github.com/connectingdots/erp-backend/internal/infrastructure/observability/logging"
	"github.com/connectingdots/erp-backend/internal/infrastructure/observability/metrics"
	adminpersistence "github.com/connectingdots/erp-backend/internal/infrastructure/persistence/admin"
	auditpersistence "github.com/connectingdots/erp-backend/internal/infrastructure/persistence/audit"
	blogpersistence "github.com/connectingdots/erp-backend/internal/infrastructure/persistence/blog"
	"github.com/connectingdots/erp-backend/internal/infrastructure/persistence/database"
	settingspersistence "github.com/connectingdots/erp-backend/internal/infrastructure/persistence/settings"
	leadpersistence "github.com/connectingdots/erp-backend/internal/infrastructure/persistence/user"
	"github.com/connectingdots/erp-backend/pkg/config"
)

// Container holds all singleton services and infrastructure dependencies
type Container struct {
	// Dashboard services
	AuthService           *services.AuthService
	AdminService          *services.AdminService
	LeadService           *services.LeadService
	SettingsService       *services.SettingsService
	RolePermissionService *services.RolePermissionService
	AnalyticsService      *services.AnalyticsService

	// Trails
	AuditService        *services.AuditService
	ActivityService     *services.ActivityService
	LoginHistoryService *services.LoginHistoryService

	// Blog services
	BlogService     *services.BlogService
	BlogAuthService *services.BlogAuthService

	// Infrastructure Dependencies
	DB             *database.DB
	SettingsCache  interfaces.SettingsCache
	ImageProcessor *media.ImageProcessor
	Logger         *logging.ChanneledLogger
	Metrics        *metrics.Metrics
}

// NewContainer creates and wires all singleton services. cache and mailer may be nil.
func NewContainer(db *database.DB, cache interfaces.SettingsCache, mailer email.Service, logger *logging.ChanneledLogger, m *metrics.Metrics) *Container {
	adminRepo := adminpersistence.NewSQLAdminRepository(db, logger)
	rolePermissionRepo := adminpersistence.NewSQLRolePermissionRepository(db, logger)
	leadRepo := leadpersistence.NewSQLLeadRepository(db, logger)
	settingsRepo := settingspersistence.NewSQLSettingsRepository(db, logger)
	auditRepo := auditpersistence.NewSQLAuditRepository(db, logger)
	activityRepo := auditpersistence.NewSQLActivityRepository(db, logger)
	loginHistoryRepo := auditpersistence.NewSQLLoginHistoryRepository(db, logger)
	postRepo := blogpersistence.NewSQLPostRepository(db, logger)
	blogUserRepo := blogpersistence.NewSQLUserRepository(db, logger)

	images := media.NewImageProcessor(config.MediaDir, config.BlogImageMaxWidth, config.BlogImageQuality, config.MaxUploadSizeBytes)

	auditService := services.NewAuditService(auditRepo, leadRepo, logger, m)
	activityService := services.NewActivityService(activityRepo, logger, m)
	loginHistoryService := services.NewLoginHistoryService(loginHistoryRepo, logger, m)
	settingsService := services.NewSettingsService(settingsRepo, cache, auditService, logger)
	assignmentService := services.NewAssignmentService(settingsService, adminRepo, logger)
	notificationService := services.NewNotificationService(mailer, services.NotificationConfig{
		ContactFormEnabled: config.EmailNotifications,
		NotificationEmail:  config.NotificationEmail,
		FromEmail:          config.FromEmail,
		SenderEmail:        config.SenderEmail,
	}, logger, m)

	return &Container{
		AuthService: services.NewAuthService(adminRepo, loginHistoryService, auditService, services.AuthConfig{
			JWTSecret:        config.JWTSecret,
			TokenTTL:         config.JWTExpiry,
			MaxLoginAttempts: config.MaxLoginAttempts,
		}, logger, m),
		AdminService:          services.NewAdminService(adminRepo, auditService, config.BcryptCost, logger),
		LeadService:           services.NewLeadService(leadRepo, adminRepo, settingsService, assignmentService, notificationService, auditService, logger, m),
		SettingsService:       settingsService,
		RolePermissionService: services.NewRolePermissionService(rolePermissionRepo, auditService, logger),
		AnalyticsService:      services.NewAnalyticsService(leadRepo, adminRepo, logger),

		AuditService:        auditService,
		ActivityService:     activityService,
		LoginHistoryService: loginHistoryService,

		BlogService: services.NewBlogService(postRepo, images, logger),
		BlogAuthService: services.NewBlogAuthService(blogUserRepo, adminRepo, services.BlogAuthConfig{
			JWTSecret:       config.BlogJWTSecret,
			TokenTTL:        config.BlogJWTExpiry,
			BcryptCost:      config.BcryptCost,
			DashboardSecret: config.JWTSecret,
		}, logger),

		DB:             db,
		SettingsCache:  cache,
		ImageProcessor: images,
		Logger:         logger,
		Metrics:        m,
	}
}
