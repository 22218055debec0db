package notification

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"clubhouse/internal/adapters/storage"
	domain "clubhouse/internal/domain/notification"
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

const notificationColumns = `id, recipient_kind, recipient_id, kind, title, body, subject_id, read_at, created_at`

// GetByID retrieves a notification by ID.
// PRE: id is non-empty
// POST: Returns the entity or an error if not found
func (s *SQLiteStore) GetByID(ctx context.Context, id string) (domain.Notification, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+notificationColumns+` FROM notification WHERE id = ?`, id)
	return scanNotification(row.Scan)
}

// Save inserts or updates a notification.
// PRE: entity has been validated
// POST: Entity is persisted (insert or update)
func (s *SQLiteStore) Save(ctx context.Context, n domain.Notification) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO notification (id, recipient_kind, recipient_id, kind, title, body, subject_id, read_at, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		   title=excluded.title, body=excluded.body, read_at=excluded.read_at`,
		n.ID, n.RecipientKind, n.RecipientID, n.Kind, n.Title, n.Body,
		nullableString(n.SubjectID), nullableTime(n.ReadAt), n.CreatedAt.Format(timeLayout))
	return err
}

// Delete removes a notification by ID.
// PRE: id is non-empty
// POST: Entity with given id is removed
func (s *SQLiteStore) Delete(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM notification WHERE id = ?`, id)
	return err
}

// ListByRecipient returns a recipient's notifications, newest first.
// PRE: recipientKind and recipientID are non-empty
// POST: Returns up to limit notifications when limit > 0
func (s *SQLiteStore) ListByRecipient(ctx context.Context, recipientKind, recipientID string, limit int) ([]domain.Notification, error) {
	query := `SELECT ` + notificationColumns + ` FROM notification
		 WHERE recipient_kind = ? AND recipient_id = ? ORDER BY created_at DESC`
	args := []any{recipientKind, recipientID}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var notifications []domain.Notification
	for rows.Next() {
		n, err := scanNotification(rows.Scan)
		if err != nil {
			return nil, err
		}
		notifications = append(notifications, n)
	}
	if notifications == nil {
		notifications = []domain.Notification{}
	}
	return notifications, rows.Err()
}

// CountUnread returns the number of unread notifications for a recipient.
func (s *SQLiteStore) CountUnread(ctx context.Context, recipientKind, recipientID string) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM notification
		 WHERE recipient_kind = ? AND recipient_id = ? AND read_at IS NULL`,
		recipientKind, recipientID).Scan(&count)
	return count, err
}

// MarkAllRead stamps every unread notification for a recipient.
// PRE: recipientKind and recipientID are non-empty
// POST: No unread notifications remain for the recipient
func (s *SQLiteStore) MarkAllRead(ctx context.Context, recipientKind, recipientID string, now time.Time) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE notification SET read_at = ?
		 WHERE recipient_kind = ? AND recipient_id = ? AND read_at IS NULL`,
		now.Format(timeLayout), recipientKind, recipientID)
	return err
}

// Exists reports whether a notification of the given kind about the
// given subject has already been delivered to the recipient.
func (s *SQLiteStore) Exists(ctx context.Context, recipientKind, recipientID, kind, subjectID string) (bool, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM notification
		 WHERE recipient_kind = ? AND recipient_id = ? AND kind = ? AND subject_id = ?`,
		recipientKind, recipientID, kind, subjectID).Scan(&count)
	return count > 0, err
}

// scanNotification scans a single row into a Notification.
func scanNotification(scan func(dest ...any) error) (domain.Notification, error) {
	var n domain.Notification
	var subjectID, readAt sql.NullString
	var createdAt string
	err := scan(&n.ID, &n.RecipientKind, &n.RecipientID, &n.Kind, &n.Title, &n.Body,
		&subjectID, &readAt, &createdAt)
	if err != nil {
		return domain.Notification{}, err
	}
	if subjectID.Valid {
		n.SubjectID = subjectID.String
	}
	n.CreatedAt = parseTime(createdAt, "created_at", n.ID)
	if readAt.Valid {
		n.ReadAt = parseTime(readAt.String, "read_at", n.ID)
	}
	return n, nil
}

// parseTime parses a time string, logging a warning on failure.
func parseTime(raw, field, id string) time.Time {
	t, err := time.Parse(timeLayout, raw)
	if err != nil {
		slog.Warn("notification: failed to parse time", "field", field, "notification_id", id, "raw", raw, "error", err)
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
