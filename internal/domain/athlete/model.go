package athlete

import (
	"errors"
	"strings"
	"time"
)

// Max length constants for user-editable fields.
const (
	MaxNameLength = 100
)

// Athlete status constants
const (
	StatusActive   = "active"
	StatusInactive = "inactive"
	StatusArchived = "archived"
)

// Domain errors
var (
	ErrAlreadyArchived = errors.New("athlete is already archived")
	ErrNotArchived     = errors.New("athlete is not archived")
)

// Athlete is a training member of a club. AccountID links to the login
// identity and stays empty until the athlete activates their account.
type Athlete struct {
	ID               string
	ClubID           string
	AccountID        string
	Name             string
	Email            string
	BirthDate        string // YYYY-MM-DD, optional
	EmergencyContact string
	Status           string
	CreatedAt        time.Time
}

// Validate checks if the Athlete has valid data.
// PRE: Athlete struct is initialized
// POST: Returns error if validation fails, nil otherwise
// INVARIANT: Email must contain '@', Name and ClubID must not be empty
func (a *Athlete) Validate() error {
	if strings.TrimSpace(a.Name) == "" {
		return errors.New("athlete name cannot be empty")
	}
	if len(a.Name) > MaxNameLength {
		return errors.New("athlete name cannot exceed 100 characters")
	}
	if !strings.Contains(a.Email, "@") {
		return errors.New("athlete email must be valid")
	}
	if a.ClubID == "" {
		return errors.New("athlete must belong to a club")
	}
	if a.BirthDate != "" {
		if _, err := time.Parse("2006-01-02", a.BirthDate); err != nil {
			return errors.New("birth date must be YYYY-MM-DD")
		}
	}
	if a.Status != StatusActive && a.Status != StatusInactive && a.Status != StatusArchived {
		return errors.New("status must be 'active', 'inactive', or 'archived'")
	}
	return nil
}

// IsActive returns true if the athlete is currently active.
// INVARIANT: Status field is not mutated
func (a *Athlete) IsActive() bool {
	return a.Status == StatusActive
}

// IsArchived returns true if the athlete is archived.
// INVARIANT: Status field is not mutated
func (a *Athlete) IsArchived() bool {
	return a.Status == StatusArchived
}

// IsMinor reports whether the athlete is under 18 at the given time.
// Athletes without a birth date are treated as adults.
func (a *Athlete) IsMinor(now time.Time) bool {
	if a.BirthDate == "" {
		return false
	}
	born, err := time.Parse("2006-01-02", a.BirthDate)
	if err != nil {
		return false
	}
	return born.AddDate(18, 0, 0).After(now)
}

// Archive sets the athlete status to archived.
// PRE: Athlete is not already archived
// POST: Status is set to archived
func (a *Athlete) Archive() error {
	if a.Status == StatusArchived {
		return ErrAlreadyArchived
	}
	a.Status = StatusArchived
	return nil
}

// Restore sets the athlete status back to active.
// PRE: Athlete is currently archived
// POST: Status is set to active
func (a *Athlete) Restore() error {
	if a.Status != StatusArchived {
		return ErrNotArchived
	}
	a.Status = StatusActive
	return nil
}
