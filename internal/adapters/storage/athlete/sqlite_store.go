package athlete

import (
	"context"
	"database/sql"
	"log/slog"
	"strings"
	"time"

	"clubhouse/internal/adapters/storage"
	domain "clubhouse/internal/domain/athlete"
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

const athleteColumns = `id, club_id, account_id, name, email, birth_date, emergency_contact, status, created_at`

// GetByID retrieves an athlete by ID.
// PRE: id is non-empty
// POST: Returns the entity or an error if not found
func (s *SQLiteStore) GetByID(ctx context.Context, id string) (domain.Athlete, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+athleteColumns+` FROM athlete WHERE id = ?`, id)
	return scanAthlete(row.Scan)
}

// GetByEmail retrieves an athlete by email.
// PRE: email is non-empty
// POST: Returns the entity or an error if not found
func (s *SQLiteStore) GetByEmail(ctx context.Context, email string) (domain.Athlete, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+athleteColumns+` FROM athlete WHERE email = ?`, email)
	return scanAthlete(row.Scan)
}

// GetByAccountID retrieves the athlete linked to a login account.
// PRE: accountID is non-empty
// POST: Returns the entity or an error if not found
func (s *SQLiteStore) GetByAccountID(ctx context.Context, accountID string) (domain.Athlete, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+athleteColumns+` FROM athlete WHERE account_id = ?`, accountID)
	return scanAthlete(row.Scan)
}

// Save inserts or updates an athlete.
// PRE: entity has been validated
// POST: Entity is persisted (insert or update)
func (s *SQLiteStore) Save(ctx context.Context, a domain.Athlete) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO athlete (id, club_id, account_id, name, email, birth_date, emergency_contact, status, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		   club_id=excluded.club_id, account_id=excluded.account_id, name=excluded.name,
		   email=excluded.email, birth_date=excluded.birth_date,
		   emergency_contact=excluded.emergency_contact, status=excluded.status`,
		a.ID, a.ClubID, nullableString(a.AccountID), a.Name, a.Email,
		a.BirthDate, a.EmergencyContact, a.Status, a.CreatedAt.Format(timeLayout))
	return err
}

// Delete removes an athlete by ID.
// PRE: id is non-empty
// POST: Entity with given id is removed
func (s *SQLiteStore) Delete(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM athlete WHERE id = ?`, id)
	return err
}

// List returns athletes matching the filter.
// PRE: filter has valid parameters
// POST: Returns matching athletes ordered by name
func (s *SQLiteStore) List(ctx context.Context, filter ListFilter) ([]domain.Athlete, error) {
	query := `SELECT ` + athleteColumns + ` FROM athlete` + filterClause(filter)
	args := filterArgs(filter)
	query += ` ORDER BY name`
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
	return scanAthletes(rows)
}

// Count returns the number of athletes matching the filter.
func (s *SQLiteStore) Count(ctx context.Context, filter ListFilter) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM athlete`+filterClause(filter), filterArgs(filter)...).Scan(&count)
	return count, err
}

// ListByIDs returns the athletes whose IDs are in the given set.
// PRE: none; an empty set returns an empty slice
// POST: Returns matching athletes ordered by name
func (s *SQLiteStore) ListByIDs(ctx context.Context, ids []string) ([]domain.Athlete, error) {
	if len(ids) == 0 {
		return []domain.Athlete{}, nil
	}
	placeholders := strings.Repeat("?,", len(ids))
	placeholders = placeholders[:len(placeholders)-1]
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+athleteColumns+` FROM athlete WHERE id IN (`+placeholders+`) ORDER BY name`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanAthletes(rows)
}

func filterClause(filter ListFilter) string {
	clause := ` WHERE 1=1`
	if filter.ClubID != "" {
		clause += ` AND club_id = ?`
	}
	if filter.Status != "" {
		clause += ` AND status = ?`
	}
	if filter.Search != "" {
		clause += ` AND (name LIKE ? COLLATE NOCASE OR email LIKE ? COLLATE NOCASE)`
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
	if filter.Search != "" {
		like := "%" + filter.Search + "%"
		args = append(args, like, like)
	}
	return args
}

// scanAthlete scans a single row into an Athlete.
func scanAthlete(scan func(dest ...any) error) (domain.Athlete, error) {
	var a domain.Athlete
	var accountID sql.NullString
	var createdAt string
	err := scan(&a.ID, &a.ClubID, &accountID, &a.Name, &a.Email,
		&a.BirthDate, &a.EmergencyContact, &a.Status, &createdAt)
	if err != nil {
		return domain.Athlete{}, err
	}
	if accountID.Valid {
		a.AccountID = accountID.String
	}
	a.CreatedAt = parseTime(createdAt, "created_at", a.ID)
	return a, nil
}

// scanAthletes scans multiple rows into a slice of Athletes.
func scanAthletes(rows *sql.Rows) ([]domain.Athlete, error) {
	var athletes []domain.Athlete
	for rows.Next() {
		a, err := scanAthlete(rows.Scan)
		if err != nil {
			return nil, err
		}
		athletes = append(athletes, a)
	}
	return athletes, rows.Err()
}

// parseTime parses a time string, logging a warning on failure.
func parseTime(raw, field, id string) time.Time {
	t, err := time.Parse(timeLayout, raw)
	if err != nil {
		slog.Warn("athlete: failed to parse time", "field", field, "athlete_id", id, "raw", raw, "error", err)
	}
	return t
}

func nullableString(s string) any {
	if s == "" {
		return nil
	}
	return s
}
