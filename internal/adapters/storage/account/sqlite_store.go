package account

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"clubhouse/internal/adapters/storage"
	domain "clubhouse/internal/domain/account"
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

const accountColumns = `id, email, password_hash, role, status, created_at,
		failed_logins, locked_until, password_change_required`

// GetByID retrieves an account by ID.
// PRE: id is non-empty
// POST: Returns the entity or an error if not found
func (s *SQLiteStore) GetByID(ctx context.Context, id string) (domain.Account, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+accountColumns+` FROM account WHERE id = ?`, id)
	return scanAccount(row.Scan)
}

// GetByEmail retrieves an account by email.
// PRE: email is non-empty
// POST: Returns the entity or an error if not found
func (s *SQLiteStore) GetByEmail(ctx context.Context, email string) (domain.Account, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+accountColumns+` FROM account WHERE email = ?`, email)
	return scanAccount(row.Scan)
}

// Save inserts or updates an account.
// PRE: entity has been validated
// POST: Entity is persisted (insert or update)
func (s *SQLiteStore) Save(ctx context.Context, a domain.Account) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO account (id, email, password_hash, role, status, created_at,
		   failed_logins, locked_until, password_change_required)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		   email=excluded.email, password_hash=excluded.password_hash, role=excluded.role,
		   status=excluded.status, failed_logins=excluded.failed_logins,
		   locked_until=excluded.locked_until,
		   password_change_required=excluded.password_change_required`,
		a.ID, a.Email, a.PasswordHash, a.Role, a.Status, a.CreatedAt.Format(timeLayout),
		a.FailedLogins, nullableTime(a.LockedUntil), boolToInt(a.PasswordChangeRequired))
	return err
}

// Delete removes an account by ID.
// PRE: id is non-empty
// POST: Entity with given id is removed
func (s *SQLiteStore) Delete(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM account WHERE id = ?`, id)
	return err
}

// List returns all accounts ordered by email.
func (s *SQLiteStore) List(ctx context.Context) ([]domain.Account, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+accountColumns+` FROM account ORDER BY email`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var accounts []domain.Account
	for rows.Next() {
		a, err := scanAccount(rows.Scan)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, a)
	}
	return accounts, rows.Err()
}

// Count returns the total number of accounts.
func (s *SQLiteStore) Count(ctx context.Context) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM account`).Scan(&count)
	return count, err
}

// SaveActivationToken persists a token issued for a pending account.
// PRE: token has non-empty ID, AccountID, and Token
// POST: Token is persisted (insert or update)
func (s *SQLiteStore) SaveActivationToken(ctx context.Context, t domain.ActivationToken) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO activation_token (id, account_id, token, expires_at, used, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET used=excluded.used`,
		t.ID, t.AccountID, t.Token, t.ExpiresAt.Format(timeLayout),
		boolToInt(t.Used), t.CreatedAt.Format(timeLayout))
	return err
}

// GetActivationToken retrieves a token by its opaque value.
// PRE: token is non-empty
// POST: Returns the token or an error if not found
func (s *SQLiteStore) GetActivationToken(ctx context.Context, token string) (domain.ActivationToken, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, account_id, token, expires_at, used, created_at
		 FROM activation_token WHERE token = ?`, token)

	var t domain.ActivationToken
	var expiresAt, createdAt string
	var used int
	err := row.Scan(&t.ID, &t.AccountID, &t.Token, &expiresAt, &used, &createdAt)
	if err != nil {
		return domain.ActivationToken{}, err
	}
	t.Used = used != 0
	t.ExpiresAt = parseTime(expiresAt, "expires_at", t.ID)
	t.CreatedAt = parseTime(createdAt, "created_at", t.ID)
	return t, nil
}

// InvalidateActivationTokens marks all tokens for an account as used.
// PRE: accountID is non-empty
// POST: No unused tokens remain for the account
func (s *SQLiteStore) InvalidateActivationTokens(ctx context.Context, accountID string) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE activation_token SET used = 1 WHERE account_id = ?`, accountID)
	return err
}

// scanAccount scans a single row into an Account.
func scanAccount(scan func(dest ...any) error) (domain.Account, error) {
	var a domain.Account
	var createdAt string
	var lockedUntil sql.NullString
	var passwordChangeRequired int
	err := scan(&a.ID, &a.Email, &a.PasswordHash, &a.Role, &a.Status, &createdAt,
		&a.FailedLogins, &lockedUntil, &passwordChangeRequired)
	if err != nil {
		return domain.Account{}, err
	}
	a.PasswordChangeRequired = passwordChangeRequired != 0
	a.CreatedAt = parseTime(createdAt, "created_at", a.ID)
	if lockedUntil.Valid && lockedUntil.String != "" {
		a.LockedUntil = parseTime(lockedUntil.String, "locked_until", a.ID)
	}
	return a, nil
}

// parseTime parses a time string, logging a warning on failure.
func parseTime(raw, field, id string) time.Time {
	t, err := time.Parse(timeLayout, raw)
	if err != nil {
		slog.Warn("account: failed to parse time", "field", field, "account_id", id, "raw", raw, "error", err)
	}
	return t
}

func nullableTime(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t.Format(timeLayout)
}

func boolToInt(v bool) int {
	if v {
		return 1
	}
	return 0
}
