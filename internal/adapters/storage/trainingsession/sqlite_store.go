package trainingsession

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"clubhouse/internal/adapters/storage"
	domain "clubhouse/internal/domain/trainingsession"
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

const sessionColumns = `id, club_id, coach_id, title, description, location, date,
		start_time, end_time, capacity, status, cancel_reason, cancelled_at, created_at, updated_at`

// GetByID retrieves a session by ID.
// PRE: id is non-empty
// POST: Returns the entity or an error if not found
func (s *SQLiteStore) GetByID(ctx context.Context, id string) (domain.Session, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+sessionColumns+` FROM training_session WHERE id = ?`, id)
	return scanSession(row.Scan)
}

// Save inserts or updates a session.
// PRE: entity has been validated
// POST: Entity is persisted (insert or update)
func (s *SQLiteStore) Save(ctx context.Context, t domain.Session) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO training_session (id, club_id, coach_id, title, description, location,
		   date, start_time, end_time, capacity, status, cancel_reason, cancelled_at,
		   created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		   club_id=excluded.club_id, coach_id=excluded.coach_id, title=excluded.title,
		   description=excluded.description, location=excluded.location, date=excluded.date,
		   start_time=excluded.start_time, end_time=excluded.end_time, capacity=excluded.capacity,
		   status=excluded.status, cancel_reason=excluded.cancel_reason,
		   cancelled_at=excluded.cancelled_at, updated_at=excluded.updated_at`,
		t.ID, t.ClubID, t.CoachID, t.Title, t.Description, t.Location,
		t.Date, t.StartTime, t.EndTime, t.Capacity, t.Status, t.CancelReason,
		nullableTime(t.CancelledAt), t.CreatedAt.Format(timeLayout), nullableTime(t.UpdatedAt))
	return err
}

// Delete removes a session by ID.
// PRE: id is non-empty
// POST: Entity with given id is removed
func (s *SQLiteStore) Delete(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM training_session WHERE id = ?`, id)
	return err
}

// List returns sessions matching the filter.
// PRE: filter has valid parameters
// POST: Returns matching sessions ordered by date then start time
func (s *SQLiteStore) List(ctx context.Context, filter ListFilter) ([]domain.Session, error) {
	query := `SELECT ` + sessionColumns + ` FROM training_session` + filterClause(filter)
	args := filterArgs(filter)
	query += ` ORDER BY date, start_time`
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

	var sessions []domain.Session
	for rows.Next() {
		t, err := scanSession(rows.Scan)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, t)
	}
	return sessions, rows.Err()
}

// Count returns the number of sessions matching the filter.
func (s *SQLiteStore) Count(ctx context.Context, filter ListFilter) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM training_session`+filterClause(filter), filterArgs(filter)...).Scan(&count)
	return count, err
}

// CountByClubID returns the number of sessions scheduled for a club.
func (s *SQLiteStore) CountByClubID(ctx context.Context, clubID string) (int, error) {
	return s.Count(ctx, ListFilter{ClubID: clubID})
}

func filterClause(filter ListFilter) string {
	clause := ` WHERE 1=1`
	if filter.ClubID != "" {
		clause += ` AND club_id = ?`
	}
	if filter.CoachID != "" {
		clause += ` AND coach_id = ?`
	}
	if filter.Status != "" {
		clause += ` AND status = ?`
	}
	if filter.DateFrom != "" {
		clause += ` AND date >= ?`
	}
	if filter.DateTo != "" {
		clause += ` AND date <= ?`
	}
	return clause
}

func filterArgs(filter ListFilter) []any {
	args := []any{}
	if filter.ClubID != "" {
		args = append(args, filter.ClubID)
	}
	if filter.CoachID != "" {
		args = append(args, filter.CoachID)
	}
	if filter.Status != "" {
		args = append(args, filter.Status)
	}
	if filter.DateFrom != "" {
		args = append(args, filter.DateFrom)
	}
	if filter.DateTo != "" {
		args = append(args, filter.DateTo)
	}
	return args
}

// scanSession scans a single row into a Session.
func scanSession(scan func(dest ...any) error) (domain.Session, error) {
	var t domain.Session
	var cancelledAt, updatedAt sql.NullString
	var createdAt string
	err := scan(&t.ID, &t.ClubID, &t.CoachID, &t.Title, &t.Description, &t.Location,
		&t.Date, &t.StartTime, &t.EndTime, &t.Capacity, &t.Status, &t.CancelReason,
		&cancelledAt, &createdAt, &updatedAt)
	if err != nil {
		return domain.Session{}, err
	}
	t.CreatedAt = parseTime(createdAt, "created_at", t.ID)
	t.CancelledAt = parseNullableTime(cancelledAt, "cancelled_at", t.ID)
	t.UpdatedAt = parseNullableTime(updatedAt, "updated_at", t.ID)
	return t, nil
}

// parseTime parses a time string, logging a warning on failure.
func parseTime(raw, field, id string) time.Time {
	t, err := time.Parse(timeLayout, raw)
	if err != nil {
		slog.Warn("trainingsession: failed to parse time", "field", field, "session_id", id, "raw", raw, "error", err)
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

func nullableTime(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t.Format(timeLayout)
}
