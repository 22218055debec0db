package membership

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"clubhouse/internal/adapters/storage"
	domain "clubhouse/internal/domain/membership"
)

const timeLayout = "2006-01-02T15:04:05Z07:00"

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db storage.SQLDB
}

// NewSQLiteStore creates a new SQLiteStore.
func NewSQLiteStore(db storage.SQLDB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

const applicationColumns = `id, club_id, applicant_name, email, birth_date, emergency_contact,
		message, status, info_request_note, decision_note, decided_by, decided_at, created_at, updated_at`

// GetByID retrieves an application by ID.
// PRE: id is non-empty
// POST: Returns the entity or an error if not found
func (s *SQLiteStore) GetByID(ctx context.Context, id string) (domain.Application, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+applicationColumns+` FROM membership_application WHERE id = ?`, id)
	return scanApplication(row.Scan)
}

// Save inserts or updates an application.
// PRE: entity has been validated
// POST: Entity is persisted (insert or update)
func (s *SQLiteStore) Save(ctx context.Context, a domain.Application) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO membership_application (id, club_id, applicant_name, email, birth_date,
		   emergency_contact, message, status, info_request_note, decision_note,
		   decided_by, decided_at, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		   applicant_name=excluded.applicant_name, email=excluded.email,
		   birth_date=excluded.birth_date, emergency_contact=excluded.emergency_contact,
		   message=excluded.message, status=excluded.status,
		   info_request_note=excluded.info_request_note, decision_note=excluded.decision_note,
		   decided_by=excluded.decided_by, decided_at=excluded.decided_at,
		   updated_at=excluded.updated_at`,
		a.ID, a.ClubID, a.ApplicantName, a.Email, a.BirthDate, a.EmergencyContact,
		a.Message, a.Status, a.InfoRequestNote, a.DecisionNote,
		nullableString(a.DecidedBy), nullableTime(a.DecidedAt),
		a.CreatedAt.Format(timeLayout), nullableTime(a.UpdatedAt))
	return err
}

// Delete removes an application by ID.
// PRE: id is non-empty
// POST: Entity with given id is removed
func (s *SQLiteStore) Delete(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM membership_application WHERE id = ?`, id)
	return err
}

// List returns applications matching the filter.
// PRE: filter has valid parameters
// POST: Returns matching applications, newest first
func (s *SQLiteStore) List(ctx context.Context, filter ListFilter) ([]domain.Application, error) {
	query := `SELECT ` + applicationColumns + ` FROM membership_application` + filterClause(filter)
	args := filterArgs(filter)
	query += ` ORDER BY created_at DESC`
	if filter.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, filter.Limit)
	}
	if filter.Offset > 0 {
		query += ` OFFSET ?`
		args = append(args, filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var apps []domain.Application
	for rows.Next() {
		a, err := scanApplication(rows.Scan)
		if err != nil {
			return nil, err
		}
		apps = append(apps, a)
	}
	return apps, rows.Err()
}

// Count returns the number of applications matching the filter.
func (s *SQLiteStore) Count(ctx context.Context, filter ListFilter) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM membership_application`+filterClause(filter), filterArgs(filter)...).Scan(&count)
	return count, err
}

// HasPending reports whether a pending application already exists for
// the given club and applicant email.
// PRE: clubID and email are non-empty
func (s *SQLiteStore) HasPending(ctx context.Context, clubID, email string) (bool, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM membership_application
		 WHERE club_id = ? AND email = ? AND status = ?`,
		clubID, email, domain.StatusPending).Scan(&count)
	return count > 0, err
}

func filterClause(filter ListFilter) string {
	clause := ` WHERE 1=1`
	if filter.ClubID != "" {
		clause += ` AND club_id = ?`
	}
	if filter.Status != "" {
		clause += ` AND status = ?`
	}
	return clause
}

func filterArgs(filter ListFilter) []any {
	args := []any{}
	if filter.ClubID != "" {
		args = append(args, filter.ClubID)
	}
	if filter.Status != "" {
		args = append(args, filter.Status)
	}
	return args
}

// scanApplication scans a single row into an Application.
func scanApplication(scan func(dest ...any) error) (domain.Application, error) {
	var a domain.Application
	var decidedBy, decidedAt, updatedAt sql.NullString
	var createdAt string
	err := scan(&a.ID, &a.ClubID, &a.ApplicantName, &a.Email, &a.BirthDate, &a.EmergencyContact,
		&a.Message, &a.Status, &a.InfoRequestNote, &a.DecisionNote,
		&decidedBy, &decidedAt, &createdAt, &updatedAt)
	if err != nil {
		return domain.Application{}, err
	}
	if decidedBy.Valid {
		a.DecidedBy = decidedBy.String
	}
	a.CreatedAt = parseTime(createdAt, "created_at", a.ID)
	a.DecidedAt = parseNullableTime(decidedAt, "decided_at", a.ID)
	a.UpdatedAt = parseNullableTime(updatedAt, "updated_at", a.ID)
	return a, nil
}

// parseTime parses a time string, logging a warning on failure.
func parseTime(raw, field, id string) time.Time {
	t, err := time.Parse(timeLayout, raw)
	if err != nil {
		slog.Warn("membership: failed to parse time", "field", field, "application_id", id, "raw", raw, "error", err)
	}
	return t
}

// parseNullableTime parses a nullable time string, logging a warning on failure.
func parseNullableTime(ns sql.NullString, field, id string) time.Time {
	if !ns.Valid {
		return time.Time{}
	}
	return parseTime(ns.String, field, id)
}

func nullableString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func nullableTime(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t.Format(timeLayout)
}
