package coach

import (
	"errors"
	"strings"
	"time"
)

// Coach status constants
const (
	StatusActive   = "active"
	StatusArchived = "archived"
)

// Domain errors
var (
	ErrEmptyName       = errors.New("coach name cannot be empty")
	ErrInvalidMail     = errors.New("coach email must be valid")
	ErrNoClub          = errors.New("coach must belong to a club")
	ErrAlreadyArchived = errors.New("coach is already archived")
	ErrNotArchived     = errors.New("coach is not archived")
)

// Coach leads training sessions for a club. AccountID links to the
// login identity with the coach role.
type Coach struct {
	ID        string
	ClubID    string
	AccountID string
	Name      string
	Email     string
	Bio       string
	Status    string
	CreatedAt time.Time
}

// Validate checks if the Coach has valid data.
func (c *Coach) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return ErrEmptyName
	}
	if !strings.Contains(c.Email, "@") {
		return ErrInvalidMail
	}
	if c.ClubID == "" {
		return ErrNoClub
	}
	if c.Status != StatusActive && c.Status != StatusArchived {
		return errors.New("status must be 'active' or 'archived'")
	}
	return nil
}

// IsArchived returns true if the coach is archived.
func (c *Coach) IsArchived() bool {
	return c.Status == StatusArchived
}

// Archive sets the coach status to archived.
// PRE: Coach is not already archived
// POST: Status is set to archived
func (c *Coach) Archive() error {
	if c.Status == StatusArchived {
		return ErrAlreadyArchived
	}
	c.Status = StatusArchived
	return nil
}

// Restore sets the coach status back to active.
// PRE: Coach is currently archived
// POST: Status is set to active
func (c *Coach) Restore() error {
	if c.Status != StatusArchived {
		return ErrNotArchived
	}
	c.Status = StatusActive
	return nil
}
