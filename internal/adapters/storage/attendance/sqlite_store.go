package attendance

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"clubhouse/internal/adapters/storage"
	domain "clubhouse/internal/domain/attendance"
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

const recordColumns = `id, session_id, athlete_id, checked_in_at, method, recorded_by`

// GetByID retrieves a record by ID.
// PRE: id is non-empty
// POST: Returns the entity or an error if not found
func (s *SQLiteStore) GetByID(ctx context.Context, id string) (domain.Record, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+recordColumns+` FROM attendance WHERE id = ?`, id)
	return scanRecord(row.Scan)
}

// GetBySessionAndAthlete retrieves the record for one athlete at one session.
// PRE: sessionID and athleteID are non-empty
// POST: Returns the entity or sql.ErrNoRows if absent
func (s *SQLiteStore) GetBySessionAndAthlete(ctx context.Context, sessionID, athleteID string) (domain.Record, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+recordColumns+` FROM attendance WHERE session_id = ? AND athlete_id = ?`,
		sessionID, athleteID)
	return scanRecord(row.Scan)
}

// Save inserts or updates a record. The (session, athlete) unique
// constraint rejects a second record for the same pair.
// PRE: entity has been validated
// POST: Entity is persisted (insert or update)
func (s *SQLiteStore) Save(ctx context.Context, r domain.Record) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO attendance (id, session_id, athlete_id, checked_in_at, method, recorded_by)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		   checked_in_at=excluded.checked_in_at, method=excluded.method,
		   recorded_by=excluded.recorded_by`,
		r.ID, r.SessionID, r.AthleteID, r.CheckedInAt.Format(timeLayout),
		r.Method, nullableString(r.RecordedBy))
	return err
}

// Delete removes a record by ID.
// PRE: id is non-empty
// POST: Entity with given id is removed
func (s *SQLiteStore) Delete(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM attendance WHERE id = ?`, id)
	return err
}

// ListBySessionID returns all records for a session, earliest check-in first.
// PRE: sessionID is non-empty
func (s *SQLiteStore) ListBySessionID(ctx context.Context, sessionID string) ([]domain.Record, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+recordColumns+` FROM attendance WHERE session_id = ? ORDER BY checked_in_at`,
		sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanRecords(rows)
}

// ListByAthleteID returns an athlete's records, newest first.
// PRE: athleteID is non-empty
// POST: Returns up to limit records when limit > 0
func (s *SQLiteStore) ListByAthleteID(ctx context.Context, athleteID string, limit int) ([]domain.Record, error) {
	query := `SELECT ` + recordColumns + ` FROM attendance WHERE athlete_id = ? ORDER BY checked_in_at DESC`
	args := []any{athleteID}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanRecords(rows)
}

// CountBySessionID returns the number of check-ins for a session.
func (s *SQLiteStore) CountBySessionID(ctx context.Context, sessionID string) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM attendance WHERE session_id = ?`, sessionID).Scan(&count)
	return count, err
}

// scanRecord scans a single row into a Record.
func scanRecord(scan func(dest ...any) error) (domain.Record, error) {
	var r domain.Record
	var checkedInAt string
	var recordedBy sql.NullString
	err := scan(&r.ID, &r.SessionID, &r.AthleteID, &checkedInAt, &r.Method, &recordedBy)
	if err != nil {
		return domain.Record{}, err
	}
	if recordedBy.Valid {
		r.RecordedBy = recordedBy.String
	}
	t, err := time.Parse(timeLayout, checkedInAt)
	if err != nil {
		slog.Warn("attendance: failed to parse time", "field", "checked_in_at", "record_id", r.ID, "raw", checkedInAt, "error", err)
	}
	r.CheckedInAt = t
	return r, nil
}

// scanRecords scans multiple rows into a slice of Records.
func scanRecords(rows *sql.Rows) ([]domain.Record, error) {
	var records []domain.Record
	for rows.Next() {
		r, err := scanRecord(rows.Scan)
		if err != nil {
			return nil, err
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

func nullableString(s string) any {
	if s == "" {
		return nil
	}
	return s
}
