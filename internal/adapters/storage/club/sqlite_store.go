package club

import (
	"context"
	"log/slog"
	"time"

	"clubhouse/internal/adapters/storage"
	domain "clubhouse/internal/domain/club"
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

// GetByID retrieves a club by ID.
// PRE: id is non-empty
// POST: Returns the entity or an error if not found
func (s *SQLiteStore) GetByID(ctx context.Context, id string) (domain.Club, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, name, code, description, created_at FROM club WHERE id = ?`, id)
	return scanClub(row.Scan)
}

// GetByCode retrieves a club by its public application code.
// PRE: code is non-empty
// POST: Returns the entity or an error if not found
func (s *SQLiteStore) GetByCode(ctx context.Context, code string) (domain.Club, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, name, code, description, created_at FROM club WHERE code = ?`, code)
	return scanClub(row.Scan)
}

// Save inserts or updates a club.
// PRE: entity has been validated
// POST: Entity is persisted (insert or update)
func (s *SQLiteStore) Save(ctx context.Context, c domain.Club) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO club (id, name, code, description, created_at)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		   name=excluded.name, code=excluded.code, description=excluded.description`,
		c.ID, c.Name, c.Code, c.Description, c.CreatedAt.Format(timeLayout))
	return err
}

// Delete removes a club by ID.
// PRE: id is non-empty and no athletes, coaches, or sessions reference it
// POST: Entity with given id is removed
func (s *SQLiteStore) Delete(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM club WHERE id = ?`, id)
	return err
}

// List returns all clubs ordered by name.
func (s *SQLiteStore) List(ctx context.Context) ([]domain.Club, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, code, description, created_at FROM club ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var clubs []domain.Club
	for rows.Next() {
		c, err := scanClub(rows.Scan)
		if err != nil {
			return nil, err
		}
		clubs = append(clubs, c)
	}
	return clubs, rows.Err()
}

// scanClub scans a single row into a Club.
func scanClub(scan func(dest ...any) error) (domain.Club, error) {
	var c domain.Club
	var createdAt string
	if err := scan(&c.ID, &c.Name, &c.Code, &c.Description, &createdAt); err != nil {
		return domain.Club{}, err
	}
	t, err := time.Parse(timeLayout, createdAt)
	if err != nil {
		slog.Warn("club: failed to parse time", "field", "created_at", "club_id", c.ID, "raw", createdAt, "error", err)
	}
	c.CreatedAt = t
	return c, nil
}
