// Package database provides the core functionality for creating and managing
// database connections in a clean, isolated manner.
package database

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/connectingdots/erp-backend/internal/infrastructure/observability/logging"
	"github.com/connectingdots/erp-backend/pkg/config"
	_ "github.com/mattn/go-sqlite3"
	_ "github.com/tursodatabase/libsql-client-go/libsql"
)

const (
	DriverSQLite = "sqlite3"
	DriverLibSQL = "libsql"
)

// DB represents a wrapper around the standard SQL database connection.
type DB struct {
	*sql.DB
	Driver string
}

// NewConnection establishes a new database connection for the specified driver.
func NewConnection(driverName, dataSourceName string) (*DB, error) {
	db, err := sql.Open(driverName, dataSourceName)
	if err != nil {
		return nil, err
	}

	if err = db.Ping(); err != nil {
		db.Close()
		return nil, err
	}

	return &DB{DB: db, Driver: driverName}, nil
}

// Open resolves a DATABASE_URL to a driver and connects with logging.
// libsql:// and http(s):// URLs go to Turso, ":memory:" opens a private
// in-memory store and anything else is treated as a SQLite file.
func Open(ctx context.Context, databaseURL, authToken string, logger *logging.ChanneledLogger) (*DB, error) {
	if databaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is not set")
	}
	if databaseURL == ":memory:" {
		return NewInMemory("erp")
	}

	driverName, dsn := resolve(databaseURL, authToken)
	db, err := NewConnectionWithLogger(ctx, driverName, dsn, logger)
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(config.DBMaxOpenConns)
	db.SetMaxIdleConns(config.DBMaxIdleConns)
	db.SetConnMaxLifetime(time.Duration(config.DBConnMaxLifetimeMinutes) * time.Minute)
	if driverName == DriverSQLite {
		// SQLite serialises writers; one connection avoids SQLITE_BUSY under load.
		db.SetMaxOpenConns(1)
	}
	return db, nil
}

// NewInMemory opens a named shared-cache in-memory SQLite database. Every
// handle opened with the same name sees the same data.
func NewInMemory(name string) (*DB, error) {
	db, err := NewConnection(DriverSQLite, fmt.Sprintf("file:%s?mode=memory&cache=shared", name))
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	return db, nil
}

// NewConnectionWithLogger establishes a new database connection for the specified driver with logging.
func NewConnectionWithLogger(ctx context.Context, driverName, dataSourceName string, logger *logging.ChanneledLogger) (*DB, error) {
	start := time.Now()
	logger.Database().Debug("Creating new database connection", "driverName", driverName)

	db, err := sql.Open(driverName, dataSourceName)
	if err != nil {
		logger.Database().Error("Failed to open database connection", "error", err.Error(), "driverName", driverName)
		return nil, err
	}

	if err = db.PingContext(ctx); err != nil {
		logger.Database().Error("Database ping failed", "error", err.Error(), "driverName", driverName)
		db.Close()
		return nil, err
	}

	logger.Database().Info("Database connection established", "driverName", driverName, "duration", time.Since(start))
	CheckAndLogSlowQuery(logger, "DATABASE_CONNECTION", time.Since(start))

	return &DB{DB: db, Driver: driverName}, nil
}

func resolve(databaseURL, authToken string) (string, string) {
	for _, prefix := range []string{"libsql://", "https://", "http://", "wss://", "ws://"} {
		if strings.HasPrefix(databaseURL, prefix) {
			if authToken == "" {
				return DriverLibSQL, databaseURL
			}
			sep := "?"
			if strings.Contains(databaseURL, "?") {
				sep = "&"
			}
			return DriverLibSQL, databaseURL + sep + "authToken=" + authToken
		}
	}
	dsn := databaseURL
	if !strings.Contains(dsn, "?") {
		dsn += "?_busy_timeout=5000"
	}
	return DriverSQLite, dsn
}
