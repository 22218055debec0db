package leaverequest

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"clubhouse/internal/adapters/storage"
	domain "clubhouse/internal/domain/leaverequest"
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

const requestColumns = `id, session_id, athlete_id, reason, status, requested_at, acknowledged_by, acknowledged_at`

// GetByID retrieves a request by ID.
// PRE: id is non-empty
// POST: Returns the entity or an error if not found
func (s *SQLiteStore) GetByID(ctx context.Context, id string) (domain.Request, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+requestColumns+` FROM leave_request WHERE id = ?`, id)
	return scanRequest(row.Scan)
}

// GetBySessionAndAthlete retrieves the request for one athlete at one session.
// PRE: sessionID and athleteID are non-empty
// POST: Returns the entity or sql.ErrNoRows if absent
func (s *SQLiteStore) GetBySessionAndAthlete(ctx context.Context, sessionID, athleteID string) (domain.Request, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+requestColumns+` FROM leave_request WHERE session_id = ? AND athlete_id = ?`,
		sessionID, athleteID)
	return scanRequest(row.Scan)
}

// Save inserts or updates a request. The (session, athlete) unique
// constraint rejects a second request for the same pair.
// PRE: entity has been validated
// POST: Entity is persisted (insert or update)
func (s *SQLiteStore) Save(ctx context.Context, r domain.Request) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO leave_request (id, session_id, athlete_id, reason, status,
		   requested_at, acknowledged_by, acknowledged_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		   reason=excluded.reason, status=excluded.status,
		   acknowledged_by=excluded.acknowledged_by, acknowledged_at=excluded.acknowledged_at`,
		r.ID, r.SessionID, r.AthleteID, r.Reason, r.Status,
		r.RequestedAt.Format(timeLayout),
		nullableString(r.AcknowledgedBy), nullableTime(r.AcknowledgedAt))
	return err
}

// Delete removes a request by ID.
// PRE: id is non-empty
// POST: Entity with given id is removed
func (s *SQLiteStore) Delete(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM leave_request WHERE id = ?`, id)
	return err
}

// ListBySessionID returns all requests for a session, earliest first.
// PRE: sessionID is non-empty
func (s *SQLiteStore) ListBySessionID(ctx context.Context, sessionID string) ([]domain.Request, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+requestColumns+` FROM leave_request WHERE session_id = ? ORDER BY requested_at`,
		sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanRequests(rows)
}

// ListByAthleteID returns an athlete's requests, newest first.
// PRE: athleteID is non-empty
// POST: Returns up to limit requests when limit > 0
func (s *SQLiteStore) ListByAthleteID(ctx context.Context, athleteID string, limit int) ([]domain.Request, error) {
	query := `SELECT ` + requestColumns + ` FROM leave_request WHERE athlete_id = ? ORDER BY requested_at DESC`
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
	return scanRequests(rows)
}

// scanRequest scans a single row into a Request.
func scanRequest(scan func(dest ...any) error) (domain.Request, error) {
	var r domain.Request
	var requestedAt string
	var acknowledgedBy, acknowledgedAt sql.NullString
	err := scan(&r.ID, &r.SessionID, &r.AthleteID, &r.Reason, &r.Status,
		&requestedAt, &acknowledgedBy, &acknowledgedAt)
	if err != nil {
		return domain.Request{}, err
	}
	if acknowledgedBy.Valid {
		r.AcknowledgedBy = acknowledgedBy.String
	}
	r.RequestedAt = parseTime(requestedAt, "requested_at", r.ID)
	if acknowledgedAt.Valid {
		r.AcknowledgedAt = parseTime(acknowledgedAt.String, "acknowledged_at", r.ID)
	}
	return r, nil
}

// scanRequests scans multiple rows into a slice of Requests.
func scanRequests(rows *sql.Rows) ([]domain.Request, error) {
	var requests []domain.Request
	for rows.Next() {
		r, err := scanRequest(rows.Scan)
		if err != nil {
			return nil, err
		}
		requests = append(requests, r)
	}
	return requests, rows.Err()
}

// parseTime parses a time string, logging a warning on failure.
func parseTime(raw, field, id string) time.Time {
	t, err := time.Parse(timeLayout, raw)
	if err != nil {
		slog.Warn("leaverequest: failed to parse time", "field", field, "request_id", id, "raw", raw, "error", err)
	}
	return t
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
