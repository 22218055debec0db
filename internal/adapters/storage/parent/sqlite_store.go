package parent

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"clubhouse/internal/adapters/storage"
	domain "clubhouse/internal/domain/parent"
)

const timeLayout = "2006-01-02T15:04:05Z07:00"

// UserSQLiteStore implements UserStore using SQLite.
type UserSQLiteStore struct {
	db storage.SQLDB
}

// NewUserSQLiteStore creates a new UserSQLiteStore.
func NewUserSQLiteStore(db storage.SQLDB) *UserSQLiteStore {
	return &UserSQLiteStore{db: db}
}

const userColumns = `id, email, password_hash, name, failed_logins, locked_until, created_at`

// GetByID retrieves a parent user by ID.
// PRE: id is non-empty
// POST: Returns the entity or an error if not found
func (s *UserSQLiteStore) GetByID(ctx context.Context, id string) (domain.User, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM parent_user WHERE id = ?`, id)
	return scanUser(row.Scan)
}

// GetByEmail retrieves a parent user by email.
// PRE: email is non-empty
// POST: Returns the entity or an error if not found
func (s *UserSQLiteStore) GetByEmail(ctx context.Context, email string) (domain.User, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM parent_user WHERE email = ?`, email)
	return scanUser(row.Scan)
}

// Save inserts or updates a parent user.
// PRE: entity has been validated
// POST: Entity is persisted (insert or update)
func (s *UserSQLiteStore) Save(ctx context.Context, u domain.User) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO parent_user (id, email, password_hash, name, failed_logins, locked_until, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		   email=excluded.email, password_hash=excluded.password_hash, name=excluded.name,
		   failed_logins=excluded.failed_logins, locked_until=excluded.locked_until`,
		u.ID, u.Email, u.PasswordHash, u.Name, u.FailedLogins,
		nullableTime(u.LockedUntil), u.CreatedAt.Format(timeLayout))
	return err
}

// Delete removes a parent user by ID.
// PRE: id is non-empty
// POST: Entity with given id is removed
func (s *UserSQLiteStore) Delete(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM parent_user WHERE id = ?`, id)
	return err
}

// List returns all parent users ordered by email.
func (s *UserSQLiteStore) List(ctx context.Context) ([]domain.User, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+userColumns+` FROM parent_user ORDER BY email`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []domain.User
	for rows.Next() {
		u, err := scanUser(rows.Scan)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// scanUser scans a single row into a User.
func scanUser(scan func(dest ...any) error) (domain.User, error) {
	var u domain.User
	var lockedUntil sql.NullString
	var createdAt string
	err := scan(&u.ID, &u.Email, &u.PasswordHash, &u.Name, &u.FailedLogins, &lockedUntil, &createdAt)
	if err != nil {
		return domain.User{}, err
	}
	u.CreatedAt = parseTime(createdAt, "created_at", u.ID)
	if lockedUntil.Valid && lockedUntil.String != "" {
		u.LockedUntil = parseTime(lockedUntil.String, "locked_until", u.ID)
	}
	return u, nil
}

// SessionSQLiteStore implements SessionStore using SQLite.
type SessionSQLiteStore struct {
	db storage.SQLDB
}

// NewSessionSQLiteStore creates a new SessionSQLiteStore.
func NewSessionSQLiteStore(db storage.SQLDB) *SessionSQLiteStore {
	return &SessionSQLiteStore{db: db}
}

// GetByToken retrieves a session by its opaque token.
// PRE: token is non-empty
// POST: Returns the entity or an error if not found
func (s *SessionSQLiteStore) GetByToken(ctx context.Context, token string) (domain.Session, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, parent_id, token, created_at, expires_at FROM parent_session WHERE token = ?`, token)

	var sess domain.Session
	var createdAt, expiresAt string
	err := row.Scan(&sess.ID, &sess.ParentID, &sess.Token, &createdAt, &expiresAt)
	if err != nil {
		return domain.Session{}, err
	}
	sess.CreatedAt = parseTime(createdAt, "created_at", sess.ID)
	sess.ExpiresAt = parseTime(expiresAt, "expires_at", sess.ID)
	return sess, nil
}

// Save inserts or updates a session.
// PRE: entity has a non-empty ID, ParentID, and Token
// POST: Entity is persisted (insert or update)
func (s *SessionSQLiteStore) Save(ctx context.Context, sess domain.Session) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO parent_session (id, parent_id, token, created_at, expires_at)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET expires_at=excluded.expires_at`,
		sess.ID, sess.ParentID, sess.Token,
		sess.CreatedAt.Format(timeLayout), sess.ExpiresAt.Format(timeLayout))
	return err
}

// Delete removes a session by ID.
// PRE: id is non-empty
// POST: Entity with given id is removed
func (s *SessionSQLiteStore) Delete(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM parent_session WHERE id = ?`, id)
	return err
}

// DeleteByParentID removes all sessions for a parent.
// PRE: parentID is non-empty
// POST: The parent has no remaining sessions
func (s *SessionSQLiteStore) DeleteByParentID(ctx context.Context, parentID string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM parent_session WHERE parent_id = ?`, parentID)
	return err
}

// DeleteExpired removes every session that expired at or before now.
// POST: Returns the number of sessions removed
func (s *SessionSQLiteStore) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM parent_session WHERE expires_at <= ?`, now.UTC().Format(timeLayout))
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// ConnectionSQLiteStore implements ConnectionStore using SQLite.
type ConnectionSQLiteStore struct {
	db storage.SQLDB
}

// NewConnectionSQLiteStore creates a new ConnectionSQLiteStore.
func NewConnectionSQLiteStore(db storage.SQLDB) *ConnectionSQLiteStore {
	return &ConnectionSQLiteStore{db: db}
}

const connectionColumns = `id, parent_id, athlete_id, relationship, created_at`

// GetByID retrieves a connection by ID.
// PRE: id is non-empty
// POST: Returns the entity or an error if not found
func (s *ConnectionSQLiteStore) GetByID(ctx context.Context, id string) (domain.Connection, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+connectionColumns+` FROM parent_connection WHERE id = ?`, id)
	return scanConnection(row.Scan)
}

// GetByParentAndAthlete retrieves the link between one parent and one
// athlete. The (parent, athlete) pair is unique.
// PRE: parentID and athleteID are non-empty
// POST: Returns the entity or sql.ErrNoRows if absent
func (s *ConnectionSQLiteStore) GetByParentAndAthlete(ctx context.Context, parentID, athleteID string) (domain.Connection, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+connectionColumns+` FROM parent_connection WHERE parent_id = ? AND athlete_id = ?`,
		parentID, athleteID)
	return scanConnection(row.Scan)
}

// Save inserts or updates a connection.
// PRE: entity has been validated
// POST: Entity is persisted (insert or update)
func (s *ConnectionSQLiteStore) Save(ctx context.Context, c domain.Connection) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO parent_connection (id, parent_id, athlete_id, relationship, created_at)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET relationship=excluded.relationship`,
		c.ID, c.ParentID, c.AthleteID, c.Relationship, c.CreatedAt.Format(timeLayout))
	return err
}

// Delete removes a connection by ID.
// PRE: id is non-empty
// POST: Entity with given id is removed
func (s *ConnectionSQLiteStore) Delete(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM parent_connection WHERE id = ?`, id)
	return err
}

// ListByParentID returns all links of one parent, oldest first.
// PRE: parentID is non-empty
func (s *ConnectionSQLiteStore) ListByParentID(ctx context.Context, parentID string) ([]domain.Connection, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+connectionColumns+` FROM parent_connection WHERE parent_id = ? ORDER BY created_at`,
		parentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanConnections(rows)
}

// ListByAthleteID returns all links to one athlete, oldest first.
// PRE: athleteID is non-empty
func (s *ConnectionSQLiteStore) ListByAthleteID(ctx context.Context, athleteID string) ([]domain.Connection, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+connectionColumns+` FROM parent_connection WHERE athlete_id = ? ORDER BY created_at`,
		athleteID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanConnections(rows)
}

// scanConnection scans a single row into a Connection.
func scanConnection(scan func(dest ...any) error) (domain.Connection, error) {
	var c domain.Connection
	var createdAt string
	err := scan(&c.ID, &c.ParentID, &c.AthleteID, &c.Relationship, &createdAt)
	if err != nil {
		return domain.Connection{}, err
	}
	c.CreatedAt = parseTime(createdAt, "created_at", c.ID)
	return c, nil
}

// scanConnections scans multiple rows into a slice of Connections.
func scanConnections(rows *sql.Rows) ([]domain.Connection, error) {
	var connections []domain.Connection
	for rows.Next() {
		c, err := scanConnection(rows.Scan)
		if err != nil {
			return nil, err
		}
		connections = append(connections, c)
	}
	return connections, rows.Err()
}

// parseTime parses a time string, logging a warning on failure.
func parseTime(raw, field, id string) time.Time {
	t, err := time.Parse(timeLayout, raw)
	if err != nil {
		slog.Warn("parent: failed to parse time", "field", field, "id", id, "raw", raw, "error", err)
	}
	return t
}

func nullableTime(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t.Format(timeLayout)
}
