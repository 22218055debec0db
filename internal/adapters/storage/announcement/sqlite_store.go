package announcement

import (
	"context"
	"database/sql"
	"log/slog"
	"strings"
	"time"

	"clubhouse/internal/adapters/storage"
	domain "clubhouse/internal/domain/announcement"
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

const announcementColumns = `id, club_id, audience, status, title, body, created_by, published_by,
		author_name, show_author, color, pinned, pinned_at, visible_from, visible_until,
		created_at, updated_at, published_at`

// GetByID retrieves an announcement by ID.
// PRE: id is non-empty
// POST: Returns the entity or an error if not found
func (s *SQLiteStore) GetByID(ctx context.Context, id string) (domain.Announcement, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+announcementColumns+` FROM announcement WHERE id = ?`, id)
	return scanAnnouncement(row)
}

// Save inserts or updates an announcement.
// PRE: entity has been validated
// POST: Entity is persisted (insert or update)
func (s *SQLiteStore) Save(ctx context.Context, a domain.Announcement) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO announcement (id, club_id, audience, status, title, body, created_by, published_by,
		   author_name, show_author, color, pinned, pinned_at, visible_from, visible_until,
		   created_at, updated_at, published_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		   club_id=excluded.club_id, audience=excluded.audience, status=excluded.status,
		   title=excluded.title, body=excluded.body, created_by=excluded.created_by,
		   published_by=excluded.published_by, author_name=excluded.author_name,
		   show_author=excluded.show_author, color=excluded.color, pinned=excluded.pinned,
		   pinned_at=excluded.pinned_at, visible_from=excluded.visible_from,
		   visible_until=excluded.visible_until, updated_at=excluded.updated_at,
		   published_at=excluded.published_at`,
		a.ID, a.ClubID, a.Audience, a.Status, a.Title, a.Body, a.CreatedBy,
		nullableString(a.PublishedBy),
		a.AuthorName, boolToInt(a.ShowAuthor), a.Color, boolToInt(a.Pinned),
		nullableTime(a.PinnedAt), nullableTime(a.VisibleFrom), nullableTime(a.VisibleUntil),
		a.CreatedAt.Format(timeLayout), nullableTime(a.UpdatedAt), nullableTime(a.PublishedAt))
	return err
}

// Delete removes an announcement by ID.
// PRE: id is non-empty
// POST: Entity with given id is removed
func (s *SQLiteStore) Delete(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM announcement WHERE id = ?`, id)
	return err
}

// List returns announcements matching the filter.
// PRE: filter has valid parameters
// POST: Returns matching announcements ordered by pinned first (most recently pinned), then by created_at DESC
func (s *SQLiteStore) List(ctx context.Context, filter ListFilter) ([]domain.Announcement, error) {
	query := `SELECT ` + announcementColumns + ` FROM announcement WHERE 1=1`
	args := []any{}

	if filter.ClubID != "" {
		query += ` AND (club_id = ? OR club_id = '')`
		args = append(args, filter.ClubID)
	}
	if filter.Status != "" {
		query += ` AND status = ?`
		args = append(args, filter.Status)
	}
	if filter.Audience != "" {
		query += ` AND audience = ?`
		args = append(args, filter.Audience)
	}
	query += ` ORDER BY pinned DESC, pinned_at DESC, created_at DESC`
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

	return scanAnnouncements(rows)
}

// ListPublished returns published announcements visible at now for the
// given club and audiences.
// PRE: audiences is non-empty, now is the current time
// POST: Returns published, visible announcements ordered by pinned first then published_at DESC
func (s *SQLiteStore) ListPublished(ctx context.Context, clubID string, audiences []string, now time.Time) ([]domain.Announcement, error) {
	if len(audiences) == 0 {
		return []domain.Announcement{}, nil
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(audiences)), ",")
	nowStr := now.UTC().Format(timeLayout)

	query := `SELECT ` + announcementColumns + `
		 FROM announcement WHERE status = 'published'
		 AND audience IN (` + placeholders + `)
		 AND (visible_from IS NULL OR visible_from <= ?)
		 AND (visible_until IS NULL OR visible_until >= ?)`
	args := []any{}
	for _, aud := range audiences {
		args = append(args, aud)
	}
	args = append(args, nowStr, nowStr)

	if clubID != "" {
		query += ` AND (club_id = ? OR club_id = '')`
		args = append(args, clubID)
	} else {
		query += ` AND club_id = ''`
	}
	query += ` ORDER BY pinned DESC, pinned_at DESC, published_at DESC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanAnnouncements(rows)
}

// scannedRow holds the raw scanned values from an announcement row before conversion.
type scannedRow struct {
	publishedBy  sql.NullString
	showAuthor   int
	pinned       int
	pinnedAt     sql.NullString
	visibleFrom  sql.NullString
	visibleUntil sql.NullString
	createdAt    string
	updatedAt    sql.NullString
	publishedAt  sql.NullString
}

// scanAnnouncement scans a single row into an Announcement.
func scanAnnouncement(row *sql.Row) (domain.Announcement, error) {
	var a domain.Announcement
	var s scannedRow

	err := row.Scan(&a.ID, &a.ClubID, &a.Audience, &a.Status, &a.Title, &a.Body, &a.CreatedBy,
		&s.publishedBy,
		&a.AuthorName, &s.showAuthor, &a.Color, &s.pinned,
		&s.pinnedAt, &s.visibleFrom, &s.visibleUntil,
		&s.createdAt, &s.updatedAt, &s.publishedAt)
	if err != nil {
		return domain.Announcement{}, err
	}

	applyScanned(&a, &s)
	return a, nil
}

// scanAnnouncements scans multiple rows into a slice of Announcements.
func scanAnnouncements(rows *sql.Rows) ([]domain.Announcement, error) {
	var announcements []domain.Announcement
	for rows.Next() {
		var a domain.Announcement
		var s scannedRow

		err := rows.Scan(&a.ID, &a.ClubID, &a.Audience, &a.Status, &a.Title, &a.Body, &a.CreatedBy,
			&s.publishedBy,
			&a.AuthorName, &s.showAuthor, &a.Color, &s.pinned,
			&s.pinnedAt, &s.visibleFrom, &s.visibleUntil,
			&s.createdAt, &s.updatedAt, &s.publishedAt)
		if err != nil {
			return nil, err
		}

		applyScanned(&a, &s)
		announcements = append(announcements, a)
	}
	return announcements, rows.Err()
}

// applyScanned converts raw scanned values into the Announcement domain fields.
func applyScanned(a *domain.Announcement, s *scannedRow) {
	a.ShowAuthor = s.showAuthor != 0
	a.Pinned = s.pinned != 0
	if s.publishedBy.Valid {
		a.PublishedBy = s.publishedBy.String
	}
	a.CreatedAt = parseTime(s.createdAt, "created_at", a.ID)
	a.PinnedAt = parseNullableTime(s.pinnedAt, "pinned_at", a.ID)
	a.VisibleFrom = parseNullableTime(s.visibleFrom, "visible_from", a.ID)
	a.VisibleUntil = parseNullableTime(s.visibleUntil, "visible_until", a.ID)
	a.UpdatedAt = parseNullableTime(s.updatedAt, "updated_at", a.ID)
	a.PublishedAt = parseNullableTime(s.publishedAt, "published_at", a.ID)
}

// parseTime parses a time string, logging a warning on failure.
func parseTime(raw, field, announcementID string) time.Time {
	t, err := time.Parse(timeLayout, raw)
	if err != nil {
		slog.Warn("announcement: failed to parse time", "field", field, "announcement_id", announcementID, "raw", raw, "error", err)
	}
	return t
}

// parseNullableTime parses a nullable time string, logging a warning on failure.
func parseNullableTime(ns sql.NullString, field, announcementID string) time.Time {
	if !ns.Valid {
		return time.Time{}
	}
	return parseTime(ns.String, field, announcementID)
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
	return t.UTC().Format(timeLayout)
}

func boolToInt(v bool) int {
	if v {
		return 1
	}
	return 0
}
