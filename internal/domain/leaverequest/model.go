package leaverequest

import (
	"errors"
	"strings"
	"time"
)

// Leave request status constants
const (
	StatusSubmitted    = "submitted"
	StatusAcknowledged = "acknowledged"
)

// MaxReasonLength bounds the free-text reason field.
const MaxReasonLength = 500

// Domain errors
var (
	ErrNoSession           = errors.New("leave request must reference a session")
	ErrNoAthlete           = errors.New("leave request must be associated with an athlete")
	ErrEmptyReason         = errors.New("leave reason cannot be empty")
	ErrReasonTooLong       = errors.New("leave reason cannot exceed 500 characters")
	ErrAlreadyAcknowledged = errors.New("leave request is already acknowledged")
	ErrAlreadyRequested    = errors.New("athlete has already requested leave for this session")
	ErrAlreadyCheckedIn    = errors.New("athlete is already checked in for this session")
)

// Request is an athlete's advance notice of absence from a session.
// Accepted requests are final; a coach may acknowledge them to mark
// that they have been seen.
// INVARIANT: at most one request per (SessionID, AthleteID) pair
type Request struct {
	ID             string
	SessionID      string
	AthleteID      string
	Reason         string
	Status         string
	RequestedAt    time.Time
	AcknowledgedBy string
	AcknowledgedAt time.Time
}

// Validate checks if the Request has valid data.
func (r *Request) Validate() error {
	if r.SessionID == "" {
		return ErrNoSession
	}
	if r.AthleteID == "" {
		return ErrNoAthlete
	}
	if strings.TrimSpace(r.Reason) == "" {
		return ErrEmptyReason
	}
	if len(r.Reason) > MaxReasonLength {
		return ErrReasonTooLong
	}
	if r.Status != StatusSubmitted && r.Status != StatusAcknowledged {
		return errors.New("status must be 'submitted' or 'acknowledged'")
	}
	return nil
}

// Acknowledge records that a coach has seen the request.
// PRE: Request is still in submitted state
// POST: Status is acknowledged with reviewer and timestamp set
func (r *Request) Acknowledge(accountID string, now time.Time) error {
	if r.Status == StatusAcknowledged {
		return ErrAlreadyAcknowledged
	}
	r.Status = StatusAcknowledged
	r.AcknowledgedBy = accountID
	r.AcknowledgedAt = now
	return nil
}
