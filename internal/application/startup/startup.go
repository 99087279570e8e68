// Package startup prepares the application server
package startup

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/connectingdots/erp-backend/internal/application/container"
	"github.com/connectingdots/erp-backend/internal/infrastructure/caching/interfaces"
	"github.com/connectingdots/erp-backend/internal/infrastructure/caching/stores"
	"github.com/connectingdots/erp-backend/internal/infrastructure/email"
	"github.com/connectingdots/erp-backend/internal/infrastructure/observability/logging"
	"github.com/connectingdots/erp-backend/internal/infrastructure/observability/metrics"
	"github.com/connectingdots/erp-backend/internal/infrastructure/persistence/database"
	"github.com/connectingdots/erp-backend/internal/presentation/http/server"
	"github.com/connectingdots/erp-backend/pkg/config"
	"github.com/gin-gonic/gin"
)

// ErrMissingDatabaseURL stops startup when no database is configured.
var ErrMissingDatabaseURL = errors.New("DATABASE_URL is not set")

// Initialize performs the complete startup sequence and blocks until a
// shutdown signal arrives.
func Initialize() error {
	setupLogging()

	start := time.Now().UTC()

	log.Println("\033[36m" + `
   ___                         _   _             ___       _
  / __|___ _ _  _ _  ___ __ __| |_(_)_ _  __ _  |   \ ___| |_ ___
 | (__/ _ \ ' \| ' \/ -_) _/ _|  _| | ' \/ _' | | |) / _ \  _(_-<
  \___\___/_||_|_||_\___\__\__|\__|_|_||_\__, | |___/\___/\__/__/
                                         |___/          ERP API
` + "\033[0m")

	// Step 1: Logging and metrics
	logger, err := NewLogger()
	if err != nil {
		return fmt.Errorf("failed to initialize logging: %w", err)
	}
	defer logger.Close()
	m := metrics.New()
	logger.Startup().Info("Logging initialized", "level", config.LogLevel, "toFile", config.LogToFile)

	// Step 2: Database, schema and seeders
	stepStart := time.Now()
	db, err := PrepareDatabase(context.Background(), logger)
	if err != nil {
		logger.Startup().Error("Database initialization failed", "error", err.Error())
		return err
	}
	defer db.Close()
	logger.LogStartupPhase("database", time.Since(stepStart), true, map[string]any{"driver": db.Driver})

	// Step 3: Settings cache
	stepStart = time.Now()
	cache := NewSettingsCache(context.Background(), logger, m)
	logger.LogStartupPhase("settings_cache", time.Since(stepStart), true, map[string]any{"store": cache.Name()})

	// Step 4: Email
	mailer := NewMailer(logger)

	// Step 5: Dependency injection container
	appContainer := container.NewContainer(db, cache, mailer, logger, m)
	logger.Startup().Info("Dependency injection container created with singleton services")

	// Step 6: HTTP server
	httpServer := server.New(config.Port, appContainer)

	gracefulShutdown := make(chan os.Signal, 1)
	signal.Notify(gracefulShutdown, syscall.SIGINT, syscall.SIGTERM)

	serverErr := make(chan error, 1)
	go func() {
		logger.System().Info("Starting HTTP server", "address", ":"+config.Port)
		serverErr <- httpServer.Start()
	}()

	logger.Startup().Info("Application startup complete",
		"totalDuration", time.Since(start),
		"port", config.Port)

	select {
	case <-gracefulShutdown:
		logger.Shutdown().Info("Shutdown signal received, starting graceful shutdown...")
	case err := <-serverErr:
		if err != nil {
			logger.System().Error("HTTP server failed", "error", err.Error())
			return err
		}
	}

	shutdownStart := time.Now()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	logger.Shutdown().Info("Stopping HTTP server...")
	if err := httpServer.Stop(shutdownCtx); err != nil {
		logger.Shutdown().Error("Error during server shutdown", "error", err.Error())
	} else {
		logger.Shutdown().Info("HTTP server stopped successfully")
	}

	if closer, ok := cache.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			logger.Shutdown().Error("Error closing settings cache", "error", err.Error())
		}
	}

	logger.Shutdown().Info("Application shutdown complete",
		"totalUptime", time.Since(start),
		"shutdownDuration", time.Since(shutdownStart))
	return nil
}

// NewLogger builds the channeled logger from the logging configuration. Every
// entry is also published to the live log stream.
func NewLogger() (*logging.ChanneledLogger, error) {
	cfg := logging.DefaultLoggerConfig()
	cfg.OutputToFile = config.LogToFile
	cfg.LogDirectory = config.LogDir
	cfg.DefaultLevel = logging.ParseLevel(config.LogLevel)
	cfg.Broadcaster = logging.NewBroadcaster()
	return logging.NewChanneledLogger(cfg)
}

// PrepareDatabase connects to DATABASE_URL, creates missing tables and runs
// the idempotent seeders.
func PrepareDatabase(ctx context.Context, logger *logging.ChanneledLogger) (*database.DB, error) {
	if config.DatabaseURL == "" {
		return nil, ErrMissingDatabaseURL
	}
	db, err := database.Open(ctx, config.DatabaseURL, config.TursoAuthToken, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := database.VerifyConnection(ctx, db, logger); err != nil {
		db.Close()
		return nil, err
	}

	creator := database.NewTableCreator()
	if err := creator.CreateSchema(ctx, db.DB); err != nil {
		db.Close()
		return nil, err
	}
	report, err := creator.SeedDefaults(ctx, db.DB)
	if err != nil {
		db.Close()
		return nil, err
	}
	if report.RolePermissions > 0 {
		logger.Startup().Info("Default role permissions seeded", "roles", report.RolePermissions)
	}
	for _, key := range report.Settings {
		logger.Startup().Info("Default setting seeded", "key", key)
	}
	return db, nil
}

// NewSettingsCache returns a Redis-backed cache when REDIS_URL is set and
// reachable, otherwise the in-process store.
func NewSettingsCache(ctx context.Context, logger *logging.ChanneledLogger, m *metrics.Metrics) interfaces.SettingsCache {
	if config.RedisURL != "" {
		redisStore, err := stores.NewRedisSettingsStore(ctx, config.RedisURL, config.SettingsCacheTTL, logger, m)
		if err == nil {
			return redisStore
		}
		logger.Cache().Warn("Redis unavailable, falling back to in-memory settings cache", "error", err.Error())
	}
	return stores.NewSettingsStore(config.SettingsCacheTTL, logger)
}

// NewMailer returns the Resend client, or nil when no API key is configured.
func NewMailer(logger *logging.ChanneledLogger) email.Service {
	mailer, err := email.NewService(config.ResendAPIKey)
	if err != nil {
		logger.Email().Warn("Email notifications disabled", "reason", err.Error())
		return nil
	}
	return mailer
}

// setupLogging configures application logging
func setupLogging() {
	if os.Getenv("GIN_MODE") == "release" {
		gin.SetMode(gin.ReleaseMode)
	}
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	if config.JWTSecret == config.InsecureJWTSecret {
		log.Println("WARNING: JWT_SECRET is not set; using an insecure default secret")
	}
}
