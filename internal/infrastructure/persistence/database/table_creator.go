package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/connectingdots/erp-backend/internal/domain/rbac"
	"github.com/connectingdots/erp-backend/internal/domain/settings"
)

// TableCreator handles the creation and seeding of the database schema.
type TableCreator struct{}

// NewTableCreator creates a new TableCreator.
func NewTableCreator() *TableCreator {
	return &TableCreator{}
}

// SeedReport lists what a seeding run inserted.
type SeedReport struct {
	RolePermissions int
	Settings        []string
}

// CreateSchema executes all necessary queries to build the tables and indexes.
func (tc *TableCreator) CreateSchema(ctx context.Context, db *sql.DB) error {
	for _, tableSQL := range tables {
		if _, err := db.ExecContext(ctx, tableSQL); err != nil {
			return fmt.Errorf("failed to create table for query [%s]: %w", tableSQL, err)
		}
	}

	for _, indexSQL := range indexes {
		if _, err := db.ExecContext(ctx, indexSQL); err != nil {
			return fmt.Errorf("failed to create index for query [%s]: %w", indexSQL, err)
		}
	}
	return nil
}

// SeedDefaults idempotently inserts the role permission matrices (only when
// none exist) and every default setting whose key is absent.
func (tc *TableCreator) SeedDefaults(ctx context.Context, db *sql.DB) (*SeedReport, error) {
	report := &SeedReport{}

	var count int
	if err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM role_permissions").Scan(&count); err != nil {
		return nil, fmt.Errorf("failed to count role permissions: %w", err)
	}
	if count == 0 {
		for _, rp := range rbac.DefaultPermissions() {
			payload, err := json.Marshal(rp.Permissions)
			if err != nil {
				return nil, fmt.Errorf("failed to encode permissions for %s: %w", rp.Role, err)
			}
			if _, err := db.ExecContext(ctx, `INSERT INTO role_permissions (role, permissions) VALUES (?, ?)`, string(rp.Role), string(payload)); err != nil {
				return nil, fmt.Errorf("failed to insert permissions for %s: %w", rp.Role, err)
			}
			report.RolePermissions++
		}
	}

	now := FormatTime(time.Now())
	for _, def := range settings.Defaults() {
		var exists bool
		if err := db.QueryRowContext(ctx, "SELECT EXISTS(SELECT 1 FROM settings WHERE key = ?)", def.Key).Scan(&exists); err != nil {
			return nil, fmt.Errorf("failed to check setting %s: %w", def.Key, err)
		}
		if exists {
			continue
		}
		value, err := json.Marshal(def.Value)
		if err != nil {
			return nil, fmt.Errorf("failed to encode setting %s: %w", def.Key, err)
		}
		if _, err := db.ExecContext(ctx, `INSERT INTO settings (key, value, description, updated_at) VALUES (?, ?, ?, ?)`,
			def.Key, string(value), def.Description, now); err != nil {
			return nil, fmt.Errorf("failed to insert setting %s: %w", def.Key, err)
		}
		report.Settings = append(report.Settings, def.Key)
	}

	return report, nil
}

var tables = []string{
	`CREATE TABLE IF NOT EXISTS leads (id TEXT PRIMARY KEY, name TEXT NOT NULL, email TEXT NOT NULL, contact TEXT NOT NULL, country_code TEXT NOT NULL DEFAULT '', coursename TEXT NOT NULL DEFAULT '', location TEXT NOT NULL DEFAULT '', status TEXT NOT NULL DEFAULT 'New', contacted_score INTEGER, contacted_comment TEXT NOT NULL DEFAULT '', notes TEXT NOT NULL DEFAULT '', assigned_to TEXT, created_at TEXT NOT NULL, updated_at TEXT NOT NULL)`,
	`CREATE TABLE IF NOT EXISTS admins (id TEXT PRIMARY KEY, username TEXT NOT NULL UNIQUE, password_hash TEXT NOT NULL, email TEXT NOT NULL DEFAULT '', role TEXT NOT NULL DEFAULT 'Admin', active BOOLEAN NOT NULL DEFAULT 1, location TEXT NOT NULL DEFAULT 'Other', color TEXT NOT NULL DEFAULT '#4299e1', last_login TEXT, created_at TEXT NOT NULL, created_by TEXT, login_attempts INTEGER NOT NULL DEFAULT 0)`,
	`CREATE TABLE IF NOT EXISTS settings (key TEXT PRIMARY KEY, value TEXT NOT NULL, description TEXT NOT NULL DEFAULT '', updated_at TEXT NOT NULL, updated_by TEXT)`,
	`CREATE TABLE IF NOT EXISTS audit_logs (id TEXT PRIMARY KEY, admin_id TEXT, action TEXT NOT NULL, target TEXT NOT NULL, metadata TEXT NOT NULL DEFAULT '{}', created_at TEXT NOT NULL)`,
	`CREATE TABLE IF NOT EXISTS login_history (id TEXT PRIMARY KEY, admin_id TEXT, ip_address TEXT NOT NULL DEFAULT 'unknown', user_agent TEXT NOT NULL DEFAULT 'unknown', success BOOLEAN NOT NULL, login_at TEXT NOT NULL)`,
	`CREATE TABLE IF NOT EXISTS activity_logs (id TEXT PRIMARY KEY, admin_id TEXT NOT NULL, action TEXT NOT NULL, page TEXT NOT NULL DEFAULT '', details TEXT NOT NULL DEFAULT '', created_at TEXT NOT NULL)`,
	`CREATE TABLE IF NOT EXISTS role_permissions (role TEXT PRIMARY KEY, permissions TEXT NOT NULL)`,
	`CREATE TABLE IF NOT EXISTS blog_posts (id TEXT PRIMARY KEY, title TEXT NOT NULL, slug TEXT NOT NULL UNIQUE, content TEXT NOT NULL, category TEXT NOT NULL, subcategory TEXT NOT NULL DEFAULT '', author TEXT NOT NULL, image TEXT NOT NULL DEFAULT '', status TEXT NOT NULL DEFAULT 'None', created_at TEXT NOT NULL, updated_at TEXT NOT NULL)`,
	`CREATE TABLE IF NOT EXISTS blog_users (id TEXT PRIMARY KEY, username TEXT NOT NULL UNIQUE, email TEXT UNIQUE, password_hash TEXT NOT NULL, role TEXT NOT NULL DEFAULT 'user', is_active BOOLEAN NOT NULL DEFAULT 1, last_login TEXT, created_at TEXT NOT NULL)`,
}

var indexes = []string{
	`CREATE INDEX IF NOT EXISTS idx_leads_email ON leads(email)`,
	`CREATE INDEX IF NOT EXISTS idx_leads_contact ON leads(contact)`,
	`CREATE INDEX IF NOT EXISTS idx_leads_created_at ON leads(created_at)`,
	`CREATE INDEX IF NOT EXISTS idx_leads_assigned_to ON leads(assigned_to)`,
	`CREATE INDEX IF NOT EXISTS idx_admins_email ON admins(email)`,
	`CREATE INDEX IF NOT EXISTS idx_audit_logs_created_at ON audit_logs(created_at)`,
	`CREATE INDEX IF NOT EXISTS idx_audit_logs_admin_id ON audit_logs(admin_id)`,
	`CREATE INDEX IF NOT EXISTS idx_login_history_login_at ON login_history(login_at)`,
	`CREATE INDEX IF NOT EXISTS idx_login_history_admin_id ON login_history(admin_id)`,
	`CREATE INDEX IF NOT EXISTS idx_activity_logs_created_at ON activity_logs(created_at)`,
	`CREATE INDEX IF NOT EXISTS idx_activity_logs_admin_id ON activity_logs(admin_id)`,
	`CREATE INDEX IF NOT EXISTS idx_blog_posts_created_at ON blog_posts(created_at)`,
}
