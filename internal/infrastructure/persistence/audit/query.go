// Package audit provides the SQL implementations of the append-only trails:
// audit log, login history and admin activity.
package audit

import (
	"strings"

	"github.com/connectingdots/erp-backend/internal/domain/audit"
	"github.com/connectingdots/erp-backend/internal/infrastructure/persistence/database"
)

type scanner interface {
	Scan(dest ...any) error
}

// trailFilter renders the shared filters of q for a trail aliased as e.
func trailFilter(q audit.Query, timeColumn string) (string, []any) {
	var clauses []string
	var args []any

	if q.Start != nil {
		clauses = append(clauses, "e."+timeColumn+" >= ?")
		args = append(args, database.FormatTime(*q.Start))
	}
	if q.End != nil {
		clauses = append(clauses, "e."+timeColumn+" <= ?")
		args = append(args, database.FormatTime(*q.End))
	}
	if q.Action != "" {
		clauses = append(clauses, "e.action = ?")
		args = append(args, q.Action)
	}
	if q.AdminID != "" {
		clauses = append(clauses, "e.admin_id = ?")
		args = append(args, q.AdminID)
	}
	if q.HideSuperAdminEntries {
		clauses = append(clauses, "(json_extract(e.metadata, '$.role') IS NULL OR json_extract(e.metadata, '$.role') <> 'SuperAdmin')")
	}

	if len(clauses) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}
