package club

import (
	"errors"
	"strings"
	"time"
)

// Max length constants for user-editable fields.
const (
	MaxNameLength        = 100
	MaxCodeLength        = 20
	MaxDescriptionLength = 1000
)

// Domain errors
var (
	ErrEmptyName   = errors.New("club name cannot be empty")
	ErrNameTooLong = errors.New("club name cannot exceed 100 characters")
	ErrEmptyCode   = errors.New("club code cannot be empty")
	ErrInvalidCode = errors.New("club code must be lowercase letters, digits, or dashes")
)

// Club is a training club within the deployment. Athletes and coaches each
// belong to exactly one club; membership applications are routed by club code.
type Club struct {
	ID          string
	Name        string
	Code        string // short slug used on public application forms
	Description string
	CreatedAt   time.Time
}

// Validate checks if the Club has valid data.
// PRE: Club struct is populated
// POST: Returns nil if valid, error otherwise
func (c *Club) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return ErrEmptyName
	}
	if len(c.Name) > MaxNameLength {
		return ErrNameTooLong
	}
	if strings.TrimSpace(c.Code) == "" {
		return ErrEmptyCode
	}
	if len(c.Code) > MaxCodeLength || !isValidCode(c.Code) {
		return ErrInvalidCode
	}
	if len(c.Description) > MaxDescriptionLength {
		return errors.New("club description cannot exceed 1000 characters")
	}
	return nil
}

func isValidCode(code string) bool {
	for _, r := range code {
		switch {
		case r >= 'a' && r <= 'z':
		case r >= '0' && r <= '9':
		case r == '-':
		default:
			return false
		}
	}
	return true
}
