// Package routes provides HTTP route configuration for the presentation layer.
package routes

import (
	"net/http"

	"github.com/connectingdots/erp-backend/internal/application/container"
	"github.com/connectingdots/erp-backend/internal/domain/blog"
	"github.com/connectingdots/erp-backend/internal/domain/rbac"
	"github.com/connectingdots/erp-backend/internal/presentation/http/handlers"
	"github.com/connectingdots/erp-backend/internal/presentation/http/middleware"
	"github.com/connectingdots/erp-backend/pkg/config"
	"github.com/gin-gonic/gin"
)

// SetupRoutes configures all HTTP routes and middleware with dependency injection.
func SetupRoutes(container *container.Container) *gin.Engine {
	r := gin.New()

	r.Use(middleware.Recovery(container.Logger))
	r.Use(middleware.RequestID())
	r.Use(middleware.RequestLogger(container.Logger, container.Metrics))
	r.Use(middleware.OriginGuard(config.AllowedOrigins, container.Logger))
	r.Use(middleware.CORSMiddleware(config.AllowedOrigins))

	r.Static("/media", container.ImageProcessor.BasePath())

	// Initialize handlers
	leadHandlers := handlers.NewLeadHandlers(container.LeadService, container.Logger)
	authHandlers := handlers.NewAuthHandlers(container.AuthService, container.AdminService, container.Logger)
	adminHandlers := handlers.NewAdminHandlers(container.AdminService, container.RolePermissionService, container.Logger)
	trailHandlers := handlers.NewTrailHandlers(container.AuditService, container.ActivityService, container.LoginHistoryService, container.Logger)
	settingsHandlers := handlers.NewSettingsHandlers(container.SettingsService, container.Logger)
	analyticsHandlers := handlers.NewAnalyticsHandlers(container.AnalyticsService, container.Logger)
	systemHandlers := handlers.NewSystemHandlers(container.Logger)
	blogHandlers := handlers.NewBlogHandlers(container.BlogService, container.Logger)
	blogAuthHandlers := handlers.NewBlogAuthHandlers(container.BlogAuthService, container.Logger)

	r.GET("/", func(c *gin.Context) {
		c.String(http.StatusOK, "Connecting Dots ERP Backend is running.")
	})
	if container.Metrics != nil {
		r.GET("/metrics", gin.WrapH(container.Metrics.Handler()))
	}

	// Public endpoints
	public := r.Group("/api")
	{
		public.GET("/ping", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"message": "Server is awake!"})
		})
		public.POST("/contact-form", leadHandlers.PostContactForm)
		public.POST("/submit", leadHandlers.PostSubmit)
		public.POST("/admin-login", authHandlers.PostAdminLogin)
	}

	// Dashboard endpoints
	api := r.Group("/api", middleware.AdminAuth(container.AuthService, container.Logger))
	{
		leads := api.Group("/leads")
		{
			leads.GET("", middleware.RequireAction(rbac.ActionListLeads), leadHandlers.GetLeads)
			leads.GET("/count", middleware.RequireAction(rbac.ActionCountLeads), leadHandlers.GetLeadCount)
			leads.GET("/filter", middleware.RequireAction(rbac.ActionFilterLeads), leadHandlers.GetFilteredLeads)
			leads.PUT("/bulk-update", middleware.RequireAction(rbac.ActionBulkUpdateLeads), leadHandlers.PutBulkUpdate)
			leads.DELETE("/bulk-delete", middleware.RequireAction(rbac.ActionBulkDeleteLeads), leadHandlers.DeleteBulk)
			leads.PUT("/:id", middleware.RequireAction(rbac.ActionUpdateLead), leadHandlers.PutLead)
			leads.PATCH("/:id", middleware.RequireAction(rbac.ActionPatchLead), leadHandlers.PatchLead)
			leads.DELETE("/:id", middleware.RequireAction(rbac.ActionDeleteLead), leadHandlers.DeleteLead)
		}

		users := api.Group("/users")
		{
			users.GET("/:id", middleware.RequireAction(rbac.ActionGetUser), leadHandlers.GetUser)
			users.POST("", middleware.RequireAction(rbac.ActionCreateUser), leadHandlers.PostUser)
			users.PUT("/:id", middleware.RequireAction(rbac.ActionUpdateUser), leadHandlers.PutUser)
			users.DELETE("/:id", middleware.RequireAction(rbac.ActionDeleteUser), leadHandlers.DeleteUser)
		}

		admins := api.Group("/admins")
		{
			admins.POST("", middleware.RequireAction(rbac.ActionCreateAdmin), adminHandlers.PostAdmin)
			admins.GET("", middleware.RequireAction(rbac.ActionListAdmins), adminHandlers.GetAdmins)
			admins.PUT("/:id", middleware.RequireAction(rbac.ActionUpdateAdmin), adminHandlers.PutAdmin)
			admins.DELETE("/:id", middleware.RequireAction(rbac.ActionDeleteAdmin), adminHandlers.DeleteAdmin)
		}

		api.GET("/role-permissions", middleware.RequireAction(rbac.ActionListRolePermissions), adminHandlers.GetRolePermissions)
		api.PUT("/role-permissions/:role", middleware.RequireAction(rbac.ActionUpdateRolePermission), adminHandlers.PutRolePermission)

		api.GET("/current-admin", middleware.RequireAction(rbac.ActionViewCurrentAdmin), authHandlers.GetCurrentAdmin)
		api.POST("/activity", middleware.RequireAction(rbac.ActionTrackActivity), trailHandlers.PostActivity)
		api.GET("/audit-logs", middleware.RequireAction(rbac.ActionListAuditLogs), trailHandlers.GetAuditLogs)
		api.GET("/admin-activity", middleware.RequireAction(rbac.ActionListAdminActivity), trailHandlers.GetAdminActivity)
		api.GET("/login-history", middleware.RequireAction(rbac.ActionListLoginHistory), trailHandlers.GetLoginHistory)
		api.GET("/analytics", middleware.RequireAction(rbac.ActionViewAnalytics), analyticsHandlers.GetAnalytics)

		settings := api.Group("/settings")
		{
			settings.GET("", middleware.RequireAction(rbac.ActionListSettings), settingsHandlers.GetSettings)
			settings.GET("/:key", middleware.RequireAction(rbac.ActionGetSetting), settingsHandlers.GetSetting)
			settings.POST("", middleware.RequireAction(rbac.ActionCreateSetting), settingsHandlers.PostSetting)
			settings.PUT("/:key", middleware.RequireAction(rbac.ActionUpsertSetting), settingsHandlers.PutSetting)
		}

		system := api.Group("/system", middleware.RequireAction(rbac.ActionManageLogs))
		{
			system.GET("/logs/stream", systemHandlers.StreamLogs)
			system.GET("/log-levels", systemHandlers.GetLogLevels)
			system.PUT("/log-levels", systemHandlers.PutLogLevel)
		}
	}

	// Blog context: its own tokens and roles
	publishers := []blog.Role{blog.RoleAdmin, blog.RoleSuperAdmin}

	blogs := r.Group("/api/blogs")
	{
		blogs.GET("", blogHandlers.GetBlogs)
		blogs.GET("/ping", blogHandlers.GetBlogPing)
		blogs.GET("/slug/:slug", blogHandlers.GetBlogBySlug)

		gated := blogs.Group("", middleware.BlogAuth(container.BlogAuthService), middleware.RequireBlogRole(publishers...))
		gated.POST("", blogHandlers.PostBlog)
		gated.POST("/upload", blogHandlers.PostBlogImage)
		gated.PUT("/:id", blogHandlers.PutBlog)
		gated.DELETE("/:id", blogHandlers.DeleteBlog)
	}
	r.POST("/api/blogs-auth", blogAuthHandlers.PostBlogsAuth)

	blogAuth := r.Group("/api/auth")
	{
		blogAuth.POST("/login", blogAuthHandlers.PostLogin)
		blogAuth.POST("/register", blogAuthHandlers.PostRegister)
		blogAuth.GET("/validate-token", blogAuthHandlers.GetValidateToken)
		blogAuth.POST("/logout", blogAuthHandlers.PostLogout)

		blogUsers := blogAuth.Group("/users", middleware.BlogAuth(container.BlogAuthService), middleware.RequireBlogRole(blog.RoleSuperAdmin))
		blogUsers.GET("", blogAuthHandlers.GetUsers)
		blogUsers.POST("", blogAuthHandlers.PostUser)
		blogUsers.DELETE("/:id", blogAuthHandlers.DeleteUser)
	}

	return r
}
