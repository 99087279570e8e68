// Package user provides the SQL implementation of the lead repository.
// Leads are the "users" of the dashboard API.
package user

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/connectingdots/erp-backend/internal/domain/lead"
	"github.com/connectingdots/erp-backend/internal/infrastructure/observability/logging"
	"github.com/connectingdots/erp-backend/internal/infrastructure/persistence/database"
)

const leadColumns = `l.id, l.name, l.email, l.contact, l.country_code, l.coursename, l.location, l.status,
	l.contacted_score, l.contacted_comment, l.notes, l.assigned_to, l.created_at, l.updated_at`

const populatedColumns = leadColumns + `, a.id, a.username, a.role, a.color`

var columnForField = map[lead.Field]string{
	lead.FieldName:             "name",
	lead.FieldEmail:            "email",
	lead.FieldContact:          "contact",
	lead.FieldCountryCode:      "country_code",
	lead.FieldCoursename:       "coursename",
	lead.FieldLocation:         "location",
	lead.FieldStatus:           "status",
	lead.FieldNotes:            "notes",
	lead.FieldAssignedTo:       "assigned_to",
	lead.FieldContactedScore:   "contacted_score",
	lead.FieldContactedComment: "contacted_comment",
}

type scanner interface {
	Scan(dest ...any) error
}

// SQLLeadRepository is the SQL-based implementation of lead.Repository.
type SQLLeadRepository struct {
	db     *database.DB
	logger *logging.ChanneledLogger
}

// NewSQLLeadRepository creates a new instance of the repository.
func NewSQLLeadRepository(db *database.DB, logger *logging.ChanneledLogger) *SQLLeadRepository {
	return &SQLLeadRepository{
		db:     db,
		logger: logger,
	}
}

// Create inserts a new lead.
func (r *SQLLeadRepository) Create(ctx context.Context, l *lead.Lead) error {
	const query = `
		INSERT INTO leads (id, name, email, contact, country_code, coursename, location, status,
		                   contacted_score, contacted_comment, notes, assigned_to, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	start := time.Now()
	r.logger.Database().Debug("Executing lead insert", "id", l.ID, "email", l.Email)

	_, err := r.db.ExecContext(ctx, query,
		l.ID, l.Name, l.Email, l.Contact, l.CountryCode, l.Coursename, l.Location, string(l.Status),
		nullInt(l.ContactedScore), l.ContactedComment, l.Notes, database.NullString(l.AssignedTo),
		database.FormatTime(l.CreatedAt), database.FormatTime(l.UpdatedAt),
	)
	if err != nil {
		r.logger.Database().Error("Lead insert failed", "error", err.Error(), "id", l.ID, "email", l.Email)
		return err
	}

	r.logger.Database().Info("Lead insert completed", "id", l.ID, "email", l.Email, "duration", time.Since(start))
	database.CheckAndLogSlowQuery(r.logger, query, time.Since(start))
	return nil
}

// FindByID retrieves a lead by id. It returns nil when no lead matches.
func (r *SQLLeadRepository) FindByID(ctx context.Context, id string) (*lead.Lead, error) {
	query := `SELECT ` + leadColumns + ` FROM leads l WHERE l.id = ?`

	start := time.Now()
	r.logger.Database().Debug("Loading lead by ID", "id", id)

	l, err := scanLead(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			r.logger.Database().Debug("Lead not found by ID", "id", id)
			return nil, nil
		}
		r.logger.Database().Error("Failed to load lead by ID", "error", err.Error(), "id", id)
		return nil, err
	}

	r.logger.Database().Info("Lead loaded by ID", "id", id, "duration", time.Since(start))
	database.CheckAndLogSlowQuery(r.logger, query, time.Since(start))
	return l, nil
}

// FindView retrieves a lead with its assignee populated.
func (r *SQLLeadRepository) FindView(ctx context.Context, id string) (*lead.View, error) {
	query := `SELECT ` + populatedColumns + ` FROM leads l LEFT JOIN admins a ON a.id = l.assigned_to WHERE l.id = ?`

	start := time.Now()
	r.logger.Database().Debug("Loading populated lead", "id", id)

	view, err := scanView(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		r.logger.Database().Error("Failed to load populated lead", "error", err.Error(), "id", id)
		return nil, err
	}

	r.logger.Database().Info("Populated lead loaded", "id", id, "duration", time.Since(start))
	database.CheckAndLogSlowQuery(r.logger, query, time.Since(start))
	return view, nil
}

// FindByIDs returns the leads matching ids, in creation order.
func (r *SQLLeadRepository) FindByIDs(ctx context.Context, ids []string) ([]*lead.Lead, error) {
	if len(ids) == 0 {
		return []*lead.Lead{}, nil
	}
	query := fmt.Sprintf(`SELECT %s FROM leads l WHERE l.id IN (%s) ORDER BY l.created_at`, leadColumns, database.Placeholders(len(ids)))

	start := time.Now()
	r.logger.Database().Debug("Loading leads by IDs", "count", len(ids))

	rows, err := r.db.QueryContext(ctx, query, database.Args(ids)...)
	if err != nil {
		r.logger.Database().Error("Failed to load leads by IDs", "error", err.Error())
		return nil, err
	}
	defer rows.Close()

	leads := []*lead.Lead{}
	for rows.Next() {
		l, err := scanLead(rows)
		if err != nil {
			r.logger.Database().Error("Failed to scan lead", "error", err.Error())
			return nil, err
		}
		leads = append(leads, l)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	r.logger.Database().Info("Leads loaded by IDs", "requested", len(ids), "found", len(leads), "duration", time.Since(start))
	database.CheckAndLogSlowQuery(r.logger, query, time.Since(start))
	return leads, nil
}

// FindByEmailOrContact returns the oldest lead with the given email or contact.
func (r *SQLLeadRepository) FindByEmailOrContact(ctx context.Context, email, contact string) (*lead.Lead, error) {
	query := `SELECT ` + leadColumns + ` FROM leads l WHERE l.email = ? OR l.contact = ? ORDER BY l.created_at LIMIT 1`

	start := time.Now()
	r.logger.Database().Debug("Checking for duplicate lead", "email", email)

	l, err := scanLead(r.db.QueryRowContext(ctx, query, email, contact))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		r.logger.Database().Error("Duplicate lead lookup failed", "error", err.Error(), "email", email)
		return nil, err
	}

	r.logger.Database().Info("Duplicate lead found", "email", email, "leadId", l.ID, "duration", time.Since(start))
	database.CheckAndLogSlowQuery(r.logger, query, time.Since(start))
	return l, nil
}

// Update writes every field of l.
func (r *SQLLeadRepository) Update(ctx context.Context, l *lead.Lead) error {
	const query = `
		UPDATE leads
		SET name = ?, email = ?, contact = ?, country_code = ?, coursename = ?, location = ?, status = ?,
		    contacted_score = ?, contacted_comment = ?, notes = ?, assigned_to = ?, updated_at = ?
		WHERE id = ?`

	start := time.Now()
	r.logger.Database().Debug("Executing lead update", "id", l.ID)

	res, err := r.db.ExecContext(ctx, query,
		l.Name, l.Email, l.Contact, l.CountryCode, l.Coursename, l.Location, string(l.Status),
		nullInt(l.ContactedScore), l.ContactedComment, l.Notes, database.NullString(l.AssignedTo),
		database.FormatTime(l.UpdatedAt), l.ID,
	)
	if err != nil {
		r.logger.Database().Error("Lead update failed", "error", err.Error(), "id", l.ID)
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return lead.ErrNotFound
	}

	r.logger.Database().Info("Lead update completed", "id", l.ID, "duration", time.Since(start))
	database.CheckAndLogSlowQuery(r.logger, query, time.Since(start))
	return nil
}

// UpdateMany applies the same changes to every lead in ids.
func (r *SQLLeadRepository) UpdateMany(ctx context.Context, ids []string, changes []lead.Change) (int64, error) {
	if len(ids) == 0 || len(changes) == 0 {
		return 0, nil
	}

	sets := make([]string, 0, len(changes)+1)
	args := make([]any, 0, len(changes)+len(ids)+1)
	for _, c := range changes {
		column, ok := columnForField[c.Field]
		if !ok {
			return 0, fmt.Errorf("unknown lead field %q", c.Field)
		}
		sets = append(sets, column+" = ?")
		args = append(args, columnValue(c.Value))
	}
	sets = append(sets, "updated_at = ?")
	args = append(args, database.FormatTime(time.Now()))
	args = append(args, database.Args(ids)...)

	query := fmt.Sprintf(`UPDATE leads SET %s WHERE id IN (%s)`, strings.Join(sets, ", "), database.Placeholders(len(ids)))

	start := time.Now()
	r.logger.Database().Debug("Executing bulk lead update", "count", len(ids), "fields", len(changes))

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		r.logger.Database().Error("Bulk lead update failed", "error", err.Error(), "count", len(ids))
		return 0, err
	}
	modified, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}

	r.logger.Database().Info("Bulk lead update completed", "requested", len(ids), "modified", modified, "duration", time.Since(start))
	database.CheckAndLogSlowQuery(r.logger, "BULK_UPDATE_LEADS", time.Since(start))
	return modified, nil
}

// Delete removes a lead and reports whether it existed.
func (r *SQLLeadRepository) Delete(ctx context.Context, id string) (bool, error) {
	const query = `DELETE FROM leads WHERE id = ?`

	start := time.Now()
	r.logger.Database().Debug("Executing lead delete", "id", id)

	res, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		r.logger.Database().Error("Lead delete failed", "error", err.Error(), "id", id)
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}

	r.logger.Database().Info("Lead delete completed", "id", id, "deleted", n, "duration", time.Since(start))
	database.CheckAndLogSlowQuery(r.logger, query, time.Since(start))
	return n > 0, nil
}

// DeleteMany removes every lead in ids and returns the number deleted.
func (r *SQLLeadRepository) DeleteMany(ctx context.Context, ids []string) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	query := fmt.Sprintf(`DELETE FROM leads WHERE id IN (%s)`, database.Placeholders(len(ids)))

	start := time.Now()
	r.logger.Database().Debug("Executing bulk lead delete", "count", len(ids))

	res, err := r.db.ExecContext(ctx, query, database.Args(ids)...)
	if err != nil {
		r.logger.Database().Error("Bulk lead delete failed", "error", err.Error(), "count", len(ids))
		return 0, err
	}
	deleted, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}

	r.logger.Database().Info("Bulk lead delete completed", "requested", len(ids), "deleted", deleted, "duration", time.Since(start))
	database.CheckAndLogSlowQuery(r.logger, "BULK_DELETE_LEADS", time.Since(start))
	return deleted, nil
}

// List returns the leads matching f, newest first.
func (r *SQLLeadRepository) List(ctx context.Context, f lead.Filter) ([]*lead.View, error) {
	where, args := buildFilter(f)

	columns, from := leadColumns, `leads l`
	if f.Populate {
		columns, from = populatedColumns, `leads l LEFT JOIN admins a ON a.id = l.assigned_to`
	}
	query := fmt.Sprintf(`SELECT %s FROM %s`, columns, from)
	if where != "" {
		query += " WHERE " + where
	}
	query += " ORDER BY l.created_at DESC"
	if f.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, f.Limit)
	}

	start := time.Now()
	r.logger.Database().Debug("Listing leads", "populate", f.Populate, "limit", f.Limit)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		r.logger.Database().Error("Failed to list leads", "error", err.Error())
		return nil, err
	}
	defer rows.Close()

	views := []*lead.View{}
	for rows.Next() {
		var view *lead.View
		if f.Populate {
			view, err = scanView(rows)
		} else {
			var l *lead.Lead
			if l, err = scanLead(rows); err == nil {
				view = lead.NewView(l, nil)
			}
		}
		if err != nil {
			r.logger.Database().Error("Failed to scan lead", "error", err.Error())
			return nil, err
		}
		views = append(views, view)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	r.logger.Database().Info("Leads listed", "count", len(views), "duration", time.Since(start))
	database.CheckAndLogSlowQuery(r.logger, query, time.Since(start))
	return views, nil
}

// Count returns the total number of leads.
func (r *SQLLeadRepository) Count(ctx context.Context) (int64, error) {
	return r.count(ctx, `SELECT COUNT(*) FROM leads`)
}

// CountSince returns the number of leads created at or after since.
func (r *SQLLeadRepository) CountSince(ctx context.Context, since time.Time) (int64, error) {
	return r.count(ctx, `SELECT COUNT(*) FROM leads WHERE created_at >= ?`, database.FormatTime(since))
}

func (r *SQLLeadRepository) count(ctx context.Context, query string, args ...any) (int64, error) {
	start := time.Now()
	var n int64
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		r.logger.Database().Error("Lead count failed", "error", err.Error())
		return 0, err
	}
	r.logger.Database().Debug("Lead count completed", "count", n, "duration", time.Since(start))
	database.CheckAndLogSlowQuery(r.logger, query, time.Since(start))
	return n, nil
}

// GroupBy counts leads per distinct value of field, largest bucket first.
func (r *SQLLeadRepository) GroupBy(ctx context.Context, field lead.Field) ([]lead.Group, error) {
	column, ok := columnForField[field]
	if !ok || field == lead.FieldContactedScore {
		return nil, fmt.Errorf("cannot group leads by %q", field)
	}
	query := fmt.Sprintf(`SELECT %[1]s, COUNT(*) FROM leads GROUP BY %[1]s ORDER BY COUNT(*) DESC, %[1]s`, column)

	start := time.Now()
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		r.logger.Database().Error("Lead aggregate failed", "error", err.Error(), "field", field)
		return nil, err
	}
	defer rows.Close()

	groups := []lead.Group{}
	for rows.Next() {
		var key sql.NullString
		var g lead.Group
		if err := rows.Scan(&key, &g.Count); err != nil {
			return nil, err
		}
		if key.Valid {
			g.ID = key.String
		}
		groups = append(groups, g)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	r.logger.Database().Debug("Lead aggregate completed", "field", field, "groups", len(groups), "duration", time.Since(start))
	database.CheckAndLogSlowQuery(r.logger, "AGGREGATE_LEADS_BY_"+column, time.Since(start))
	return groups, nil
}

// buildFilter renders f as a WHERE clause. Location alternatives and search
// alternatives are each OR-ed and then AND-ed together.
func buildFilter(f lead.Filter) (string, []any) {
	var clauses []string
	var args []any

	if f.Status != "" {
		clauses = append(clauses, "l.status = ?")
		args = append(args, string(f.Status))
	}
	switch f.Assignment {
	case lead.AssignmentUnassigned:
		clauses = append(clauses, "l.assigned_to IS NULL")
	case lead.AssignmentAssigned:
		clauses = append(clauses, "l.assigned_to IS NOT NULL")
	case lead.AssignmentTo:
		clauses = append(clauses, "l.assigned_to = ?")
		args = append(args, f.AssignedTo)
	}
	if f.StartDate != nil {
		clauses = append(clauses, "l.created_at >= ?")
		args = append(args, database.FormatTime(*f.StartDate))
	}
	if f.EndDate != nil {
		clauses = append(clauses, "l.created_at <= ?")
		args = append(args, database.FormatTime(*f.EndDate))
	}
	if f.Coursename != "" {
		clauses = append(clauses, "l.coursename = ?")
		args = append(args, f.Coursename)
	}
	if len(f.Locations) > 0 {
		alts := make([]string, len(f.Locations))
		for i, loc := range f.Locations {
			alts[i] = `l.location LIKE ? ESCAPE '\'`
			args = append(args, database.Contains(loc))
		}
		clauses = append(clauses, "("+strings.Join(alts, " OR ")+")")
	}
	if f.Search != "" {
		pattern := database.Contains(f.Search)
		clauses = append(clauses, `(l.name LIKE ? ESCAPE '\' OR l.email LIKE ? ESCAPE '\' OR l.contact LIKE ? ESCAPE '\')`)
		args = append(args, pattern, pattern, pattern)
	}
	return strings.Join(clauses, " AND "), args
}

func scanLead(row scanner) (*lead.Lead, error) {
	var l lead.Lead
	var status, createdAt, updatedAt string
	var score sql.NullInt64
	var assigned sql.NullString

	err := row.Scan(
		&l.ID, &l.Name, &l.Email, &l.Contact, &l.CountryCode, &l.Coursename, &l.Location, &status,
		&score, &l.ContactedComment, &l.Notes, &assigned, &createdAt, &updatedAt,
	)
	if err != nil {
		return nil, err
	}
	return finishLead(&l, status, score, assigned, createdAt, updatedAt)
}

func scanView(row scanner) (*lead.View, error) {
	var l lead.Lead
	var status, createdAt, updatedAt string
	var score sql.NullInt64
	var assigned, adminID, username, role, color sql.NullString

	err := row.Scan(
		&l.ID, &l.Name, &l.Email, &l.Contact, &l.CountryCode, &l.Coursename, &l.Location, &status,
		&score, &l.ContactedComment, &l.Notes, &assigned, &createdAt, &updatedAt,
		&adminID, &username, &role, &color,
	)
	if err != nil {
		return nil, err
	}
	if _, err := finishLead(&l, status, score, assigned, createdAt, updatedAt); err != nil {
		return nil, err
	}

	var ref *lead.AdminRef
	if adminID.Valid {
		ref = &lead.AdminRef{ID: adminID.String, Username: username.String, Role: role.String, Color: color.String}
	}
	view := lead.NewView(&l, ref)
	if ref == nil && l.AssignedTo != nil {
		// Assignee no longer exists; a populated reference renders as null.
		view.AssignedTo = nil
	}
	return view, nil
}

func finishLead(l *lead.Lead, status string, score sql.NullInt64, assigned sql.NullString, createdAt, updatedAt string) (*lead.Lead, error) {
	var err error
	l.Status = lead.Status(status)
	if score.Valid {
		s := int(score.Int64)
		l.ContactedScore = &s
	}
	l.AssignedTo = database.StringPtr(assigned)
	if l.CreatedAt, err = database.ParseTime(createdAt); err != nil {
		return nil, err
	}
	if l.UpdatedAt, err = database.ParseTime(updatedAt); err != nil {
		return nil, err
	}
	return l, nil
}

func nullInt(v *int) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*v), Valid: true}
}

func columnValue(v any) any {
	switch t := v.(type) {
	case lead.Status:
		return string(t)
	case *int:
		return nullInt(t)
	case *string:
		return database.NullString(t)
	default:
		return t
	}
}
