// Package config provides centralized default values for the ERP backend
package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/joho/godotenv"
)

// InsecureJWTSecret is the fallback signing secret used when JWT_SECRET is unset.
const InsecureJWTSecret = "change_this_secret"

var envLoaded sync.Once

func loadEnvFile() {
	envLoaded.Do(func() {
		if _, err := os.Stat(".env"); err != nil {
			return
		}
		log.Println("Loading configuration overrides from .env file...")
		// godotenv.Load never overrides variables already present in the environment
		if err := godotenv.Load(".env"); err != nil {
			log.Printf("Failed to load .env file: %v", err)
		}
	})
}

func getEnvInt(key string, defaultValue int) int {
	if valStr := os.Getenv(key); valStr != "" {
		if val, err := strconv.Atoi(valStr); err == nil {
			if val != defaultValue {
				log.Printf("Config override: %s=%d (default: %d)", key, val, defaultValue)
			}
			return val
		}
	}
	return defaultValue
}

func getEnvString(key string, defaultValue string) string {
	if val := os.Getenv(key); val != "" {
		if val != defaultValue {
			log.Printf("Config override: %s=%s (default: %s)", key, redact(key, val), redact(key, defaultValue))
		}
		return val
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if valStr := os.Getenv(key); valStr != "" {
		if val, err := strconv.ParseBool(valStr); err == nil {
			if val != defaultValue {
				log.Printf("Config override: %s=%t (default: %t)", key, val, defaultValue)
			}
			return val
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if valStr := os.Getenv(key); valStr != "" {
		if val, err := time.ParseDuration(valStr); err == nil {
			if val != defaultValue {
				log.Printf("Config override: %s=%s (default: %s)", key, val, defaultValue)
			}
			return val
		}
	}
	return defaultValue
}

func getEnvList(key string, defaultValue []string) []string {
	valStr := os.Getenv(key)
	if valStr == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(valStr, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	log.Printf("Config override: %s=%v", key, out)
	return out
}

// redact hides secrets in override logs
func redact(key, value string) string {
	upper := strings.ToUpper(key)
	if value == "" {
		return value
	}
	if strings.Contains(upper, "SECRET") || strings.Contains(upper, "KEY") || strings.Contains(upper, "TOKEN") || strings.Contains(upper, "PASSWORD") {
		return "****"
	}
	return value
}

// DefaultAllowedOrigins is the CORS allow-list used when CORS_ALLOWED_ORIGINS is unset.
var DefaultAllowedOrigins = []string{
	"https://connectingdotserp.com",
	"https://www.connectingdotserp.com",
	"https://dashboard.connectingdotserp.com",
	"https://www.dashboard.connectingdotserp.com",
	"https://superadmin.connectingdotserp.com",
	"https://www.superadmin.connectingdotserp.com",
	"http://localhost:3000",
	"http://localhost:3001",
}

var (
	// Server Configuration
	Port               string
	ServerReadTimeout  time.Duration
	ServerWriteTimeout time.Duration // zero leaves log streams unbounded
	ServerIdleTimeout  time.Duration
	AllowedOrigins     []string

	// Database
	DatabaseURL              string
	TursoAuthToken           string
	DBMaxOpenConns           int
	DBMaxIdleConns           int
	DBConnMaxLifetimeMinutes int
	SlowQueryThreshold       time.Duration

	// Authentication
	JWTSecret        string
	JWTExpiry        time.Duration
	BlogJWTSecret    string
	BlogJWTExpiry    time.Duration
	MaxLoginAttempts int
	BcryptCost       int

	// Email
	ResendAPIKey       string
	EmailNotifications bool
	NotificationEmail  string
	FromEmail          string
	SenderEmail        string

	// Caching
	RedisURL         string
	SettingsCacheTTL time.Duration

	// Media
	MediaDir           string
	BlogImageMaxWidth  int
	BlogImageQuality   int
	MaxUploadSizeBytes int

	// Logging
	LogDir    string
	LogLevel  string
	LogToFile bool
)

func init() {
	Load()
}

// Load reads every configuration value from the environment.
// It runs from init and may be called again after the environment changes.
func Load() {
	loadEnvFile()

	// Server Configuration
	Port = getEnvString("PORT", "5001")
	ServerReadTimeout = getEnvDuration("SERVER_READ_TIMEOUT", 15*time.Second)
	ServerWriteTimeout = getEnvDuration("SERVER_WRITE_TIMEOUT", 0)
	ServerIdleTimeout = getEnvDuration("SERVER_IDLE_TIMEOUT", 60*time.Second)
	AllowedOrigins = getEnvList("CORS_ALLOWED_ORIGINS", DefaultAllowedOrigins)

	// Database
	DatabaseURL = getEnvString("DATABASE_URL", "")
	TursoAuthToken = getEnvString("TURSO_AUTH_TOKEN", "")
	DBMaxOpenConns = getEnvInt("DB_MAX_OPEN_CONNS", 10)
	DBMaxIdleConns = getEnvInt("DB_MAX_IDLE_CONNS", 3)
	DBConnMaxLifetimeMinutes = getEnvInt("DB_CONN_MAX_LIFETIME_MINUTES", 30)
	SlowQueryThreshold = getEnvDuration("SLOW_QUERY_THRESHOLD", 500*time.Millisecond)

	// Authentication
	JWTSecret = getEnvString("JWT_SECRET", InsecureJWTSecret)
	JWTExpiry = getEnvDuration("JWT_EXPIRY", 12*time.Hour)
	BlogJWTSecret = getEnvString("BLOG_JWT_SECRET", JWTSecret)
	BlogJWTExpiry = getEnvDuration("BLOG_JWT_EXPIRY", 24*time.Hour)
	MaxLoginAttempts = getEnvInt("MAX_LOGIN_ATTEMPTS", 3)
	BcryptCost = getEnvInt("BCRYPT_COST", 10)

	// Email
	ResendAPIKey = getEnvString("RESEND_API_KEY", "")
	EmailNotifications = getEnvBool("EMAIL_NOTIFICATIONS", false)
	NotificationEmail = getEnvString("NOTIFICATION_EMAIL", "notifications@connectingdotserp.com")
	FromEmail = getEnvString("FROM_EMAIL", "noreply@connectingdotserp.com")
	SenderEmail = getEnvString("SENDER_EMAIL", "")

	// Caching
	RedisURL = getEnvString("REDIS_URL", "")
	SettingsCacheTTL = getEnvDuration("SETTINGS_CACHE_TTL", 30*time.Second)

	// Media
	MediaDir = getEnvString("MEDIA_DIR", "media")
	BlogImageMaxWidth = getEnvInt("BLOG_IMAGE_MAX_WIDTH", 1200)
	BlogImageQuality = getEnvInt("BLOG_IMAGE_QUALITY", 85)
	MaxUploadSizeBytes = getEnvInt("MAX_UPLOAD_SIZE_BYTES", 10*1024*1024)

	// Logging
	LogDir = getEnvString("LOG_DIR", "logs")
	LogLevel = getEnvString("LOG_LEVEL", "info")
	LogToFile = getEnvBool("LOG_TO_FILE", false)
}
