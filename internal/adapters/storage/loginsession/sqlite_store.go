package loginsession

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"clubhouse/internal/adapters/storage"
	domain "clubhouse/internal/domain/loginsession"
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

const recordColumns = `id, portal, email, subject_id, outcome, ip_address, user_agent, created_at`

// Save appends a login audit record. Records are never updated.
// PRE: entity has a non-empty ID
// POST: Entity is persisted
func (s *SQLiteStore) Save(ctx context.Context, r domain.Record) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO login_session (id, portal, email, subject_id, outcome, ip_address, user_agent, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, string(r.Portal), r.Email, nullableString(r.SubjectID), string(r.Outcome),
		nullableString(r.IPAddress), nullableString(r.UserAgent), r.CreatedAt.Format(timeLayout))
	return err
}

// List returns audit records matching the filter, newest first.
// PRE: filter has valid parameters
func (s *SQLiteStore) List(ctx context.Context, filter ListFilter) ([]domain.Record, error) {
	query := `SELECT ` + recordColumns + ` FROM login_session` + filterClause(filter)
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

	var records []domain.Record
	for rows.Next() {
		r, err := scanRecord(rows.Scan)
		if err != nil {
			return nil, err
		}
		records = append(records, r)
	}
	if records == nil {
		records = []domain.Record{}
	}
	return records, rows.Err()
}

// Count returns the number of audit records matching the filter.
func (s *SQLiteStore) Count(ctx context.Context, filter ListFilter) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM login_session`+filterClause(filter), filterArgs(filter)...).Scan(&count)
	return count, err
}

func filterClause(filter ListFilter) string {
	clause := ` WHERE 1=1`
	if filter.Portal != "" {
		clause += ` AND portal = ?`
	}
	if filter.Email != "" {
		clause += ` AND email = ?`
	}
	if filter.Outcome != "" {
		clause += ` AND outcome = ?`
	}
	return clause
}

func filterArgs(filter ListFilter) []any {
	args := []any{}
	if filter.Portal != "" {
		args = append(args, filter.Portal)
	}
	if filter.Email != "" {
		args = append(args, filter.Email)
	}
	if filter.Outcome != "" {
		args = append(args, filter.Outcome)
	}
	return args
}

// scanRecord scans a single row into a Record.
func scanRecord(scan func(dest ...any) error) (domain.Record, error) {
	var r domain.Record
	var portal, outcome, createdAt string
	var subjectID, ipAddress, userAgent sql.NullString
	err := scan(&r.ID, &portal, &r.Email, &subjectID, &outcome, &ipAddress, &userAgent, &createdAt)
	if err != nil {
		return domain.Record{}, err
	}
	r.Portal = domain.Portal(portal)
	r.Outcome = domain.Outcome(outcome)
	if subjectID.Valid {
		r.SubjectID = subjectID.String
	}
	if ipAddress.Valid {
		r.IPAddress = ipAddress.String
	}
	if userAgent.Valid {
		r.UserAgent = userAgent.String
	}
	t, err := time.Parse(timeLayout, createdAt)
	if err != nil {
		slog.Warn("loginsession: failed to parse time", "field", "created_at", "record_id", r.ID, "raw", createdAt, "error", err)
	}
	r.CreatedAt = t
	return r, nil
}

func nullableString(s string) any {
	if s == "" {
		return nil
	}
	return s
}
