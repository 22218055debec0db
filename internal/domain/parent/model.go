package parent

import (
	"errors"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
)

// Lockout policy for the parent portal: the same 5-failure, 15-minute
// rule that staff and athlete accounts use.
const (
	MaxFailedLogins = 5
	LockoutDuration = 15 * time.Minute
)

// SessionTTL is how long a parent-portal session stays valid.
const SessionTTL = 7 * 24 * time.Hour

// Domain errors
var (
	ErrEmptyEmail       = errors.New("parent email cannot be empty")
	ErrInvalidEmail     = errors.New("parent email must contain '@'")
	ErrEmptyName        = errors.New("parent name cannot be empty")
	ErrEmptyPassword    = errors.New("password cannot be empty")
	ErrPasswordTooShort = errors.New("password must be at least 12 characters")
	ErrWrongPassword    = errors.New("incorrect password")
	ErrSessionExpired   = errors.New("parent session has expired")
	ErrNoAthlete        = errors.New("connection must reference an athlete")
	ErrNoParent         = errors.New("connection must reference a parent")
	ErrAlreadyLinked    = errors.New("parent is already linked to this athlete")
)

// User is a parent-portal identity. Parents are deliberately separate
// from staff and athlete accounts: they hold no role and reach only the
// /parent surface.
type User struct {
	ID           string
	Email        string
	PasswordHash string
	Name         string
	FailedLogins int
	LockedUntil  time.Time
	CreatedAt    time.Time
}

// Session is a parent-portal login session. The opaque token is stored
// server-side and checked on every /parent request; there is nothing to
// decode client-side.
type Session struct {
	ID        string
	ParentID  string
	Token     string
	CreatedAt time.Time
	ExpiresAt time.Time
}

// Connection links a parent to one athlete they may view.
// INVARIANT: at most one connection per (ParentID, AthleteID) pair
type Connection struct {
	ID           string
	ParentID     string
	AthleteID    string
	Relationship string // optional label, e.g. "mother", "guardian"
	CreatedAt    time.Time
}

// Validate checks if the User has valid data.
func (u *User) Validate() error {
	if strings.TrimSpace(u.Email) == "" {
		return ErrEmptyEmail
	}
	if !strings.Contains(u.Email, "@") {
		return ErrInvalidEmail
	}
	if strings.TrimSpace(u.Name) == "" {
		return ErrEmptyName
	}
	return nil
}

// SetPassword hashes and stores a password using bcrypt with cost 12.
// PRE: plaintext is non-empty and >= 12 characters
// POST: PasswordHash is set to bcrypt hash
func (u *User) SetPassword(plaintext string) error {
	if plaintext == "" {
		return ErrEmptyPassword
	}
	if len(plaintext) < 12 {
		return ErrPasswordTooShort
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(plaintext), 12)
	if err != nil {
		return err
	}
	u.PasswordHash = string(hash)
	return nil
}

// CheckPassword verifies a plaintext password against the stored hash.
// INVARIANT: User fields are not mutated
func (u *User) CheckPassword(plaintext string) error {
	if u.PasswordHash == "" {
		return ErrWrongPassword
	}
	err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(plaintext))
	if err != nil {
		return ErrWrongPassword
	}
	return nil
}

// IsLocked returns true if the parent is currently locked out.
// INVARIANT: User fields are not mutated
func (u *User) IsLocked(now time.Time) bool {
	if u.LockedUntil.IsZero() {
		return false
	}
	return now.Before(u.LockedUntil)
}

// RecordFailedLogin increments the failed login counter and locks the
// parent once MaxFailedLogins consecutive failures are reached.
// POST: FailedLogins incremented; LockedUntil set at the threshold
func (u *User) RecordFailedLogin(now time.Time) {
	u.FailedLogins++
	if u.FailedLogins >= MaxFailedLogins {
		u.LockedUntil = now.Add(LockoutDuration)
	}
}

// ResetFailedLogins clears the failed login counter and lock.
// POST: FailedLogins is 0, LockedUntil is zero
func (u *User) ResetFailedLogins() {
	u.FailedLogins = 0
	u.LockedUntil = time.Time{}
}

// IsExpired returns true if the session has passed its expiry.
// INVARIANT: Session fields are not mutated
func (s *Session) IsExpired(now time.Time) bool {
	return now.After(s.ExpiresAt)
}

// Validate checks if the Connection has valid data.
func (c *Connection) Validate() error {
	if c.ParentID == "" {
		return ErrNoParent
	}
	if c.AthleteID == "" {
		return ErrNoAthlete
	}
	return nil
}
