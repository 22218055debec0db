package attendance

import (
	"errors"
	"time"
)

// Check-in method constants. Self check-ins are bound to the session
// window; coach check-ins are not.
const (
	MethodSelf  = "self"
	MethodCoach = "coach"
)

// Domain errors
var (
	ErrNoSession      = errors.New("attendance must reference a session")
	ErrNoAthlete      = errors.New("attendance must be associated with an athlete")
	ErrNoCheckInTime  = errors.New("check-in time must be set")
	ErrInvalidMethod  = errors.New("method must be 'self' or 'coach'")
	ErrAlreadyPresent = errors.New("athlete is already checked in for this session")
	ErrOnLeave        = errors.New("athlete has an approved leave for this session")
)

// Record is one athlete's presence at one training session.
// INVARIANT: at most one record per (SessionID, AthleteID) pair
type Record struct {
	ID          string
	SessionID   string
	AthleteID   string
	CheckedInAt time.Time
	Method      string
	RecordedBy  string // account ID that performed the check-in
}

// Validate checks if the Record has valid data.
// PRE: Record struct is initialized
// POST: Returns error if validation fails, nil otherwise
func (r *Record) Validate() error {
	if r.SessionID == "" {
		return ErrNoSession
	}
	if r.AthleteID == "" {
		return ErrNoAthlete
	}
	if r.CheckedInAt.IsZero() {
		return ErrNoCheckInTime
	}
	if r.Method != MethodSelf && r.Method != MethodCoach {
		return ErrInvalidMethod
	}
	return nil
}

// IsSelf returns true if the athlete checked themselves in.
func (r *Record) IsSelf() bool {
	return r.Method == MethodSelf
}
