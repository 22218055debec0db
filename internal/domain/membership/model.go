package membership

import (
	"errors"
	"strings"
	"time"
)

// Application status constants
const (
	StatusPending       = "pending"
	StatusApproved      = "approved"
	StatusRejected      = "rejected"
	StatusInfoRequested = "info_requested"
)

// Max length constants for applicant-supplied fields.
const (
	MaxNameLength    = 100
	MaxMessageLength = 2000
)

// Domain errors
var (
	ErrNotPending       = errors.New("application is not pending")
	ErrNotInfoRequested = errors.New("application is not awaiting more information")
	ErrAlreadyDecided   = errors.New("application has already been decided")
	ErrEmptyNote        = errors.New("information request note cannot be empty")
	ErrEmptyName        = errors.New("applicant name cannot be empty")
	ErrInvalidEmail     = errors.New("applicant email must be valid")
	ErrNoClub           = errors.New("application must name a club")
)

// Application is a request to join a club. It starts pending and is
// decided by staff: approved, rejected, or sent back for more
// information. An info_requested application returns to pending when
// the applicant resubmits.
type Application struct {
	ID               string
	ClubID           string
	ApplicantName    string
	Email            string
	BirthDate        string // YYYY-MM-DD, optional
	EmergencyContact string
	Message          string
	Status           string
	InfoRequestNote  string
	DecisionNote     string
	DecidedBy        string
	DecidedAt        time.Time
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// Validate checks if the Application has valid data.
// INVARIANT: Email must contain '@', ApplicantName and ClubID must not be empty
func (a *Application) Validate() error {
	if strings.TrimSpace(a.ApplicantName) == "" {
		return ErrEmptyName
	}
	if len(a.ApplicantName) > MaxNameLength {
		return errors.New("applicant name cannot exceed 100 characters")
	}
	if !strings.Contains(a.Email, "@") {
		return ErrInvalidEmail
	}
	if a.ClubID == "" {
		return ErrNoClub
	}
	if len(a.Message) > MaxMessageLength {
		return errors.New("message cannot exceed 2000 characters")
	}
	if a.BirthDate != "" {
		if _, err := time.Parse("2006-01-02", a.BirthDate); err != nil {
			return errors.New("birth date must be YYYY-MM-DD")
		}
	}
	switch a.Status {
	case StatusPending, StatusApproved, StatusRejected, StatusInfoRequested:
		return nil
	default:
		return errors.New("status must be 'pending', 'approved', 'rejected', or 'info_requested'")
	}
}

// IsPending returns true if the application awaits a staff decision.
func (a *Application) IsPending() bool {
	return a.Status == StatusPending
}

// IsDecided returns true once the application is approved or rejected.
// Requesting information is not a final decision.
func (a *Application) IsDecided() bool {
	return a.Status == StatusApproved || a.Status == StatusRejected
}

// Approve marks a pending application as approved.
// PRE: Status is pending
// POST: Status is approved, decision fields are set
func (a *Application) Approve(deciderID string, now time.Time) error {
	if a.Status != StatusPending {
		return ErrNotPending
	}
	a.Status = StatusApproved
	a.DecidedBy = deciderID
	a.DecidedAt = now
	a.UpdatedAt = now
	return nil
}

// Reject marks a pending application as rejected with an optional note.
// PRE: Status is pending
// POST: Status is rejected, decision fields are set
func (a *Application) Reject(deciderID, note string, now time.Time) error {
	if a.Status != StatusPending {
		return ErrNotPending
	}
	a.Status = StatusRejected
	a.DecisionNote = note
	a.DecidedBy = deciderID
	a.DecidedAt = now
	a.UpdatedAt = now
	return nil
}

// RequestInfo sends a pending application back to the applicant with a
// note describing what is missing.
// PRE: Status is pending, note is not empty
// POST: Status is info_requested
func (a *Application) RequestInfo(deciderID, note string, now time.Time) error {
	if a.Status != StatusPending {
		return ErrNotPending
	}
	if strings.TrimSpace(note) == "" {
		return ErrEmptyNote
	}
	a.Status = StatusInfoRequested
	a.InfoRequestNote = note
	a.DecidedBy = deciderID
	a.UpdatedAt = now
	return nil
}

// Resubmit returns an info_requested application to the pending queue
// with an updated message from the applicant.
// PRE: Status is info_requested
// POST: Status is pending, message replaced
func (a *Application) Resubmit(message string, now time.Time) error {
	if a.Status != StatusInfoRequested {
		return ErrNotInfoRequested
	}
	if len(message) > MaxMessageLength {
		return errors.New("message cannot exceed 2000 characters")
	}
	a.Status = StatusPending
	a.Message = message
	a.UpdatedAt = now
	return nil
}
