package trainingsession

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Session status constants
const (
	StatusScheduled = "scheduled"
	StatusCancelled = "cancelled"
)

// Check-in and leave timing rules. Check-in opens 30 minutes before the
// session start and closes 15 minutes after it, both ends inclusive.
// Leave requests must arrive strictly more than 2 hours before start.
const (
	CheckInOpenBefore = 30 * time.Minute
	CheckInCloseAfter = 15 * time.Minute
	LeaveNotice       = 2 * time.Hour
)

// Domain errors
var (
	ErrEmptyTitle       = errors.New("session title cannot be empty")
	ErrNoClub           = errors.New("session must belong to a club")
	ErrNoCoach          = errors.New("session must have a coach")
	ErrInvalidDate      = errors.New("date must be YYYY-MM-DD")
	ErrEmptyStartTime   = errors.New("start time cannot be empty")
	ErrEmptyEndTime     = errors.New("end time cannot be empty")
	ErrNegativeCapacity = errors.New("capacity cannot be negative")
	ErrAlreadyCancelled = errors.New("session is already cancelled")
)

// Session represents a single dated training session.
// Capacity of zero means unlimited places.
type Session struct {
	ID           string
	ClubID       string
	CoachID      string
	Title        string
	Description  string
	Location     string
	Date         string // YYYY-MM-DD
	StartTime    string // HH:MM format
	EndTime      string // HH:MM format
	Capacity     int
	Status       string
	CancelReason string
	CancelledAt  time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Validate checks if the Session has valid data.
// PRE: Session struct is populated
// POST: Returns nil if valid, error otherwise
func (s *Session) Validate() error {
	if strings.TrimSpace(s.Title) == "" {
		return ErrEmptyTitle
	}
	if s.ClubID == "" {
		return ErrNoClub
	}
	if s.CoachID == "" {
		return ErrNoCoach
	}
	if _, err := time.Parse("2006-01-02", s.Date); err != nil {
		return ErrInvalidDate
	}
	if strings.TrimSpace(s.StartTime) == "" {
		return ErrEmptyStartTime
	}
	if strings.TrimSpace(s.EndTime) == "" {
		return ErrEmptyEndTime
	}
	if _, err := time.Parse("15:04", s.StartTime); err != nil {
		return fmt.Errorf("invalid start time %q: %w", s.StartTime, err)
	}
	if _, err := time.Parse("15:04", s.EndTime); err != nil {
		return fmt.Errorf("invalid end time %q: %w", s.EndTime, err)
	}
	if s.Capacity < 0 {
		return ErrNegativeCapacity
	}
	if s.Status != StatusScheduled && s.Status != StatusCancelled {
		return errors.New("status must be 'scheduled' or 'cancelled'")
	}
	return nil
}

// StartsAt combines Date and StartTime into a concrete instant in loc.
// PRE: Date is YYYY-MM-DD and StartTime is HH:MM
func (s *Session) StartsAt(loc *time.Location) (time.Time, error) {
	start, err := time.ParseInLocation("2006-01-02 15:04", s.Date+" "+s.StartTime, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid session start %q %q: %w", s.Date, s.StartTime, err)
	}
	return start, nil
}

// EndsAt combines Date and EndTime into a concrete instant in loc.
// Sessions that run past midnight end on the following day.
func (s *Session) EndsAt(loc *time.Location) (time.Time, error) {
	end, err := time.ParseInLocation("2006-01-02 15:04", s.Date+" "+s.EndTime, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid session end %q %q: %w", s.Date, s.EndTime, err)
	}
	start, err := s.StartsAt(loc)
	if err != nil {
		return time.Time{}, err
	}
	if !end.After(start) {
		end = end.Add(24 * time.Hour)
	}
	return end, nil
}

// CheckInOpensAt returns the first instant at which self check-in is
// accepted for this session.
func (s *Session) CheckInOpensAt(loc *time.Location) (time.Time, error) {
	start, err := s.StartsAt(loc)
	if err != nil {
		return time.Time{}, err
	}
	return start.Add(-CheckInOpenBefore), nil
}

// CheckInClosesAt returns the last instant at which self check-in is
// accepted for this session.
func (s *Session) CheckInClosesAt(loc *time.Location) (time.Time, error) {
	start, err := s.StartsAt(loc)
	if err != nil {
		return time.Time{}, err
	}
	return start.Add(CheckInCloseAfter), nil
}

// InCheckInWindow reports whether now falls inside the self check-in
// window. Both window boundaries are inclusive.
// INVARIANT: opens = start - 30m, closes = start + 15m
func (s *Session) InCheckInWindow(now time.Time, loc *time.Location) (bool, error) {
	opens, err := s.CheckInOpensAt(loc)
	if err != nil {
		return false, err
	}
	closes, err := s.CheckInClosesAt(loc)
	if err != nil {
		return false, err
	}
	return !now.Before(opens) && !now.After(closes), nil
}

// LeaveDeadline returns the last instant before which a leave request
// is still accepted. Requests at or after the deadline are rejected.
func (s *Session) LeaveDeadline(loc *time.Location) (time.Time, error) {
	start, err := s.StartsAt(loc)
	if err != nil {
		return time.Time{}, err
	}
	return start.Add(-LeaveNotice), nil
}

// CanRequestLeave reports whether a leave request sent at now meets the
// notice period. The deadline itself is too late.
func (s *Session) CanRequestLeave(now time.Time, loc *time.Location) (bool, error) {
	deadline, err := s.LeaveDeadline(loc)
	if err != nil {
		return false, err
	}
	return now.Before(deadline), nil
}

// HasStarted reports whether the session start has passed.
func (s *Session) HasStarted(now time.Time, loc *time.Location) (bool, error) {
	start, err := s.StartsAt(loc)
	if err != nil {
		return false, err
	}
	return !now.Before(start), nil
}

// IsCancelled returns true if the session has been cancelled.
func (s *Session) IsCancelled() bool {
	return s.Status == StatusCancelled
}

// Cancel marks the session cancelled with an optional reason.
// PRE: Session is not already cancelled
// POST: Status is cancelled, reason and timestamp recorded
func (s *Session) Cancel(reason string, now time.Time) error {
	if s.Status == StatusCancelled {
		return ErrAlreadyCancelled
	}
	s.Status = StatusCancelled
	s.CancelReason = reason
	s.CancelledAt = now
	s.UpdatedAt = now
	return nil
}

// DurationHours returns the session duration in hours.
// PRE: StartTime and EndTime are in HH:MM format
// POST: Returns duration as float64 hours, or error if times can't be parsed
func (s *Session) DurationHours() (float64, error) {
	start, err := time.Parse("15:04", s.StartTime)
	if err != nil {
		return 0, fmt.Errorf("invalid start time %q: %w", s.StartTime, err)
	}
	end, err := time.Parse("15:04", s.EndTime)
	if err != nil {
		return 0, fmt.Errorf("invalid end time %q: %w", s.EndTime, err)
	}
	dur := end.Sub(start)
	if dur <= 0 {
		dur += 24 * time.Hour // handle overnight sessions
	}
	return dur.Hours(), nil
}
