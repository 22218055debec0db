package coach

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"clubhouse/internal/adapters/storage"
	domain "clubhouse/internal/domain/coach"
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

const coachColumns = `id, club_id, account_id, name, email, bio, status, created_at`

// GetByID retrieves a coach by ID.
// PRE: id is non-empty
// POST: Returns the entity or an error if not found
func (s *SQLiteStore) GetByID(ctx context.Context, id string) (domain.Coach, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+coachColumns+` FROM coach WHERE id = ?`, id)
	return scanCoach(row.Scan)
}

// GetByEmail retrieves a coach by email.
// PRE: email is non-empty
// POST: Returns the entity or an error if not found
func (s *SQLiteStore) GetByEmail(ctx context.Context, email string) (domain.Coach, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+coachColumns+` FROM coach WHERE email = ?`, email)
	return scanCoach(row.Scan)
}

// GetByAccountID retrieves the coach linked to a login account.
// PRE: accountID is non-empty
// POST: Returns the entity or an error if not found
func (s *SQLiteStore) GetByAccountID(ctx context.Context, accountID string) (domain.Coach, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+coachColumns+` FROM coach WHERE account_id = ?`, accountID)
	return scanCoach(row.Scan)
}

// Save inserts or updates a coach.
// PRE: entity has been validated
// POST: Entity is persisted (insert or update)
func (s *SQLiteStore) Save(ctx context.Context, c domain.Coach) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO coach (id, club_id, account_id, name, email, bio, status, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		   club_id=excluded.club_id, account_id=excluded.account_id, name=excluded.name,
		   email=excluded.email, bio=excluded.bio, status=excluded.status`,
		c.ID, c.ClubID, nullableString(c.AccountID), c.Name, c.Email, c.Bio, c.Status,
		c.CreatedAt.Format(timeLayout))
	return err
}

// Delete removes a coach by ID.
// PRE: id is non-empty
// POST: Entity with given id is removed
func (s *SQLiteStore) Delete(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM coach WHERE id = ?`, id)
	return err
}

// List returns all coaches ordered by name.
func (s *SQLiteStore) List(ctx context.Context) ([]domain.Coach, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+coachColumns+` FROM coach ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanCoaches(rows)
}

// ListByClubID returns the coaches of one club ordered by name.
// PRE: clubID is non-empty
func (s *SQLiteStore) ListByClubID(ctx context.Context, clubID string) ([]domain.Coach, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+coachColumns+` FROM coach WHERE club_id = ? ORDER BY name`, clubID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanCoaches(rows)
}

// CountByClubID returns the number of coaches in a club.
func (s *SQLiteStore) CountByClubID(ctx context.Context, clubID string) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM coach WHERE club_id = ?`, clubID).Scan(&count)
	return count, err
}

// scanCoach scans a single row into a Coach.
func scanCoach(scan func(dest ...any) error) (domain.Coach, error) {
	var c domain.Coach
	var accountID sql.NullString
	var createdAt string
	err := scan(&c.ID, &c.ClubID, &accountID, &c.Name, &c.Email, &c.Bio, &c.Status, &createdAt)
	if err != nil {
		return domain.Coach{}, err
	}
	if accountID.Valid {
		c.AccountID = accountID.String
	}
	t, err := time.Parse(timeLayout, createdAt)
	if err != nil {
		slog.Warn("coach: failed to parse time", "field", "created_at", "coach_id", c.ID, "raw", createdAt, "error", err)
	}
	c.CreatedAt = t
	return c, nil
}

// scanCoaches scans multiple rows into a slice of Coaches.
func scanCoaches(rows *sql.Rows) ([]domain.Coach, error) {
	var coaches []domain.Coach
	for rows.Next() {
		c, err := scanCoach(rows.Scan)
		if err != nil {
			return nil, err
		}
		coaches = append(coaches, c)
	}
	return coaches, rows.Err()
}

func nullableString(s string) any {
	if s == "" {
		return nil
	}
	return s
}
