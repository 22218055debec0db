package storage

import (
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

// migration is one step in the schema chain. Statements must be
// idempotent (IF NOT EXISTS) so MigrateDB can adopt databases created
// before version tracking existed.
type migration struct {
	version int
	name    string
	apply   func(tx *sql.Tx) error
}

// migrations is the ordered schema chain. Append only; never edit an
// applied migration.
var migrations = []migration{
	{version: 1, name: "baseline", apply: migrateBaseline},
	{version: 2, name: "parent_portal", apply: migrateParentPortal},
	{version: 3, name: "operations", apply: migrateOperations},
}

// LatestSchemaVersion returns the highest migration version known to
// this build.
func LatestSchemaVersion() int {
	return migrations[len(migrations)-1].version
}

// SchemaVersion returns the current schema version of the database.
// Databases without a schema_version table report version 0.
// PRE: db is a valid database connection
func SchemaVersion(db *sql.DB) (int, error) {
	var count int
	err := db.QueryRow(`SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='schema_version'`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to check schema_version table: %w", err)
	}
	if count == 0 {
		return 0, nil
	}
	var version int
	err = db.QueryRow(`SELECT COALESCE(MAX(version), 0) FROM schema_version`).Scan(&version)
	if err != nil {
		return 0, fmt.Errorf("failed to read schema version: %w", err)
	}
	return version, nil
}

// MigrateDB brings the database schema up to the latest version.
// A file copy of the database is taken before any migration runs so a
// bad upgrade can be rolled back by hand.
// PRE: db is a valid database connection, path is the database file path
// POST: schema is at LatestSchemaVersion, WAL mode and foreign keys enabled
func MigrateDB(db *sql.DB, path string) error {
	// Pragmas apply per-connection; set them here as well as in the DSN
	// so ad-hoc connections (tests, tools) behave the same.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		return fmt.Errorf("failed to enable WAL mode: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		return fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	current, err := SchemaVersion(db)
	if err != nil {
		return err
	}
	if current >= LatestSchemaVersion() {
		return nil
	}

	if err := backupBeforeMigration(path, current); err != nil {
		return err
	}

	for _, m := range migrations {
		if m.version <= current {
			continue
		}
		if err := applyMigration(db, m); err != nil {
			return fmt.Errorf("migration %d (%s) failed: %w", m.version, m.name, err)
		}
		slog.Info("schema_migrated", "version", m.version, "name", m.name)
	}
	return nil
}

// applyMigration runs one migration and its version bump in a single
// transaction.
func applyMigration(db *sql.DB, m migration) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`CREATE TABLE IF NOT EXISTS schema_version (
		version INTEGER PRIMARY KEY,
		applied_at TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%fZ','now'))
	)`); err != nil {
		return fmt.Errorf("failed to create schema_version table: %w", err)
	}

	if err := m.apply(tx); err != nil {
		return err
	}

	if _, err := tx.Exec(`INSERT INTO schema_version (version) VALUES (?)`, m.version); err != nil {
		return fmt.Errorf("failed to record version %d: %w", m.version, err)
	}
	return tx.Commit()
}

// backupBeforeMigration copies the database file aside before the chain
// runs. In-memory and missing databases are skipped.
func backupBeforeMigration(path string, fromVersion int) error {
	if path == "" || path == ":memory:" || strings.Contains(path, "mode=memory") {
		return nil
	}
	src, err := os.Open(path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to open database for backup: %w", err)
	}
	defer src.Close()

	backupPath := fmt.Sprintf("%s.v%d.bak", path, fromVersion)
	dst, err := os.Create(backupPath)
	if err != nil {
		return fmt.Errorf("failed to create backup file: %w", err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		return fmt.Errorf("failed to write backup: %w", err)
	}
	slog.Info("db_backup_created", "path", backupPath, "from_version", fromVersion)
	return nil
}

// migrateBaseline creates the core club tables: identities, clubs,
// athletes and coaches, membership applications, sessions, attendance,
// leave requests, announcements, and notifications.
func migrateBaseline(tx *sql.Tx) error {
	schema := `
	CREATE TABLE IF NOT EXISTS account (
		id TEXT PRIMARY KEY,
		email TEXT NOT NULL UNIQUE,
		password_hash TEXT NOT NULL DEFAULT '',
		role TEXT NOT NULL,
		status TEXT NOT NULL DEFAULT 'active',
		created_at TEXT NOT NULL,
		failed_logins INTEGER NOT NULL DEFAULT 0,
		locked_until TEXT,
		password_change_required INTEGER NOT NULL DEFAULT 0
	);

	CREATE TABLE IF NOT EXISTS activation_token (
		id TEXT PRIMARY KEY,
		account_id TEXT NOT NULL,
		token TEXT NOT NULL UNIQUE,
		expires_at TEXT NOT NULL,
		used INTEGER NOT NULL DEFAULT 0,
		created_at TEXT NOT NULL,
		FOREIGN KEY (account_id) REFERENCES account(id)
	);

	CREATE TABLE IF NOT EXISTS club (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL UNIQUE,
		code TEXT NOT NULL UNIQUE,
		description TEXT NOT NULL DEFAULT '',
		created_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS athlete (
		id TEXT PRIMARY KEY,
		club_id TEXT NOT NULL,
		account_id TEXT,
		name TEXT NOT NULL,
		email TEXT NOT NULL UNIQUE,
		birth_date TEXT NOT NULL DEFAULT '',
		emergency_contact TEXT NOT NULL DEFAULT '',
		status TEXT NOT NULL,
		created_at TEXT NOT NULL,
		FOREIGN KEY (club_id) REFERENCES club(id)
	);

	CREATE TABLE IF NOT EXISTS coach (
		id TEXT PRIMARY KEY,
		club_id TEXT NOT NULL,
		account_id TEXT,
		name TEXT NOT NULL,
		email TEXT NOT NULL UNIQUE,
		bio TEXT NOT NULL DEFAULT '',
		status TEXT NOT NULL DEFAULT 'active',
		created_at TEXT NOT NULL,
		FOREIGN KEY (club_id) REFERENCES club(id)
	);

	CREATE TABLE IF NOT EXISTS membership_application (
		id TEXT PRIMARY KEY,
		club_id TEXT NOT NULL,
		applicant_name TEXT NOT NULL,
		email TEXT NOT NULL,
		birth_date TEXT NOT NULL DEFAULT '',
		emergency_contact TEXT NOT NULL DEFAULT '',
		message TEXT NOT NULL DEFAULT '',
		status TEXT NOT NULL DEFAULT 'pending',
		info_request_note TEXT NOT NULL DEFAULT '',
		decision_note TEXT NOT NULL DEFAULT '',
		decided_by TEXT,
		decided_at TEXT,
		created_at TEXT NOT NULL,
		updated_at TEXT,
		FOREIGN KEY (club_id) REFERENCES club(id)
	);

	CREATE TABLE IF NOT EXISTS training_session (
		id TEXT PRIMARY KEY,
		club_id TEXT NOT NULL,
		coach_id TEXT NOT NULL,
		title TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		location TEXT NOT NULL DEFAULT '',
		date TEXT NOT NULL,
		start_time TEXT NOT NULL,
		end_time TEXT NOT NULL,
		capacity INTEGER NOT NULL DEFAULT 0,
		status TEXT NOT NULL DEFAULT 'scheduled',
		cancel_reason TEXT NOT NULL DEFAULT '',
		cancelled_at TEXT,
		created_at TEXT NOT NULL,
		updated_at TEXT,
		FOREIGN KEY (club_id) REFERENCES club(id),
		FOREIGN KEY (coach_id) REFERENCES coach(id)
	);

	CREATE TABLE IF NOT EXISTS attendance (
		id TEXT PRIMARY KEY,
		session_id TEXT NOT NULL,
		athlete_id TEXT NOT NULL,
		checked_in_at TEXT NOT NULL,
		method TEXT NOT NULL,
		recorded_by TEXT,
		UNIQUE (session_id, athlete_id),
		FOREIGN KEY (session_id) REFERENCES training_session(id),
		FOREIGN KEY (athlete_id) REFERENCES athlete(id)
	);

	CREATE TABLE IF NOT EXISTS leave_request (
		id TEXT PRIMARY KEY,
		session_id TEXT NOT NULL,
		athlete_id TEXT NOT NULL,
		reason TEXT NOT NULL,
		status TEXT NOT NULL DEFAULT 'submitted',
		requested_at TEXT NOT NULL,
		acknowledged_by TEXT,
		acknowledged_at TEXT,
		UNIQUE (session_id, athlete_id),
		FOREIGN KEY (session_id) REFERENCES training_session(id),
		FOREIGN KEY (athlete_id) REFERENCES athlete(id)
	);

	CREATE TABLE IF NOT EXISTS announcement (
		id TEXT PRIMARY KEY,
		club_id TEXT NOT NULL DEFAULT '',
		audience TEXT NOT NULL,
		status TEXT NOT NULL,
		title TEXT NOT NULL,
		body TEXT NOT NULL,
		created_by TEXT NOT NULL,
		published_by TEXT,
		author_name TEXT NOT NULL DEFAULT '',
		show_author INTEGER NOT NULL DEFAULT 0,
		color TEXT NOT NULL DEFAULT 'orange',
		pinned INTEGER NOT NULL DEFAULT 0,
		pinned_at TEXT,
		visible_from TEXT,
		visible_until TEXT,
		created_at TEXT NOT NULL,
		updated_at TEXT,
		published_at TEXT
	);

	CREATE TABLE IF NOT EXISTS notification (
		id TEXT PRIMARY KEY,
		recipient_kind TEXT NOT NULL,
		recipient_id TEXT NOT NULL,
		kind TEXT NOT NULL,
		title TEXT NOT NULL,
		body TEXT NOT NULL DEFAULT '',
		subject_id TEXT,
		read_at TEXT,
		created_at TEXT NOT NULL
	);
	`
	if _, err := tx.Exec(schema); err != nil {
		return fmt.Errorf("failed to create baseline schema: %w", err)
	}
	return nil
}

// migrateParentPortal adds the parent-portal identities, their
// server-side sessions, parent-athlete links, and the login audit trail.
func migrateParentPortal(tx *sql.Tx) error {
	schema := `
	CREATE TABLE IF NOT EXISTS parent_user (
		id TEXT PRIMARY KEY,
		email TEXT NOT NULL UNIQUE,
		password_hash TEXT NOT NULL DEFAULT '',
		name TEXT NOT NULL,
		failed_logins INTEGER NOT NULL DEFAULT 0,
		locked_until TEXT,
		created_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS parent_session (
		id TEXT PRIMARY KEY,
		parent_id TEXT NOT NULL,
		token TEXT NOT NULL UNIQUE,
		created_at TEXT NOT NULL,
		expires_at TEXT NOT NULL,
		FOREIGN KEY (parent_id) REFERENCES parent_user(id)
	);

	CREATE TABLE IF NOT EXISTS parent_connection (
		id TEXT PRIMARY KEY,
		parent_id TEXT NOT NULL,
		athlete_id TEXT NOT NULL,
		relationship TEXT NOT NULL DEFAULT '',
		created_at TEXT NOT NULL,
		UNIQUE (parent_id, athlete_id),
		FOREIGN KEY (parent_id) REFERENCES parent_user(id),
		FOREIGN KEY (athlete_id) REFERENCES athlete(id)
	);

	CREATE TABLE IF NOT EXISTS login_session (
		id TEXT PRIMARY KEY,
		portal TEXT NOT NULL,
		email TEXT NOT NULL,
		subject_id TEXT,
		outcome TEXT NOT NULL,
		ip_address TEXT,
		user_agent TEXT,
		created_at TEXT NOT NULL
	);
	`
	if _, err := tx.Exec(schema); err != nil {
		return fmt.Errorf("failed to create parent portal schema: %w", err)
	}
	return nil
}

// migrateOperations adds feature flags, the email outbox, and the
// indexes the hot read paths rely on.
func migrateOperations(tx *sql.Tx) error {
	schema := `
	CREATE TABLE IF NOT EXISTS feature_flag (
		key TEXT PRIMARY KEY,
		description TEXT NOT NULL DEFAULT '',
		enabled INTEGER NOT NULL DEFAULT 0,
		enabled_admin INTEGER NOT NULL DEFAULT 0,
		enabled_coach INTEGER NOT NULL DEFAULT 0,
		enabled_athlete INTEGER NOT NULL DEFAULT 0,
		enabled_parent INTEGER NOT NULL DEFAULT 0
	);

	CREATE TABLE IF NOT EXISTS outbox (
		id TEXT PRIMARY KEY,
		action_type TEXT NOT NULL,
		payload TEXT NOT NULL,
		status TEXT NOT NULL DEFAULT 'pending',
		attempts INTEGER NOT NULL DEFAULT 0,
		max_attempts INTEGER NOT NULL DEFAULT 5,
		last_attempted_at TEXT NOT NULL DEFAULT '',
		created_at TEXT NOT NULL,
		external_id TEXT NOT NULL DEFAULT '',
		error_message TEXT NOT NULL DEFAULT ''
	);

	CREATE UNIQUE INDEX IF NOT EXISTS idx_application_pending_email ON membership_application(club_id, email) WHERE status = 'pending';
	CREATE INDEX IF NOT EXISTS idx_notification_recipient ON notification(recipient_kind, recipient_id, created_at);
	CREATE INDEX IF NOT EXISTS idx_attendance_session ON attendance(session_id);
	CREATE INDEX IF NOT EXISTS idx_leave_request_session ON leave_request(session_id);
	CREATE INDEX IF NOT EXISTS idx_training_session_club_date ON training_session(club_id, date);
	CREATE INDEX IF NOT EXISTS idx_outbox_status ON outbox(status, created_at);
	CREATE INDEX IF NOT EXISTS idx_login_session_created ON login_session(created_at);
	CREATE INDEX IF NOT EXISTS idx_parent_session_token ON parent_session(token);
	`
	if _, err := tx.Exec(schema); err != nil {
		return fmt.Errorf("failed to create operations schema: %w", err)
	}
	return nil
}
