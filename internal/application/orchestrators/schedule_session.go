package orchestrators

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"clubhouse/internal/domain/coach"
	"clubhouse/internal/domain/trainingsession"
)

// SessionStoreForOrchestrator defines the store interface needed by
// session orchestrators.
type SessionStoreForOrchestrator interface {
	GetByID(ctx context.Context, id string) (trainingsession.Session, error)
	Save(ctx context.Context, s trainingsession.Session) error
}

// CoachLookupStore resolves the leading coach for a session.
type CoachLookupStore interface {
	GetByID(ctx context.Context, id string) (coach.Coach, error)
}

var (
	ErrCoachArchived  = errors.New("archived coaches cannot lead sessions")
	ErrCoachWrongClub = errors.New("coach belongs to a different club")
)

// --- Schedule Session ---

// ScheduleSessionInput carries input for the schedule-session orchestrator.
type ScheduleSessionInput struct {
	ClubID      string
	CoachID     string
	Title       string
	Description string
	Location    string
	Date        string // YYYY-MM-DD
	StartTime   string // HH:MM
	EndTime     string // HH:MM, may wrap past midnight
	Capacity    int    // 0 = unlimited
}

// ScheduleSessionDeps holds dependencies for ScheduleSession.
type ScheduleSessionDeps struct {
	SessionStore SessionStoreForOrchestrator
	CoachStore   CoachLookupStore
	ClubStore    ClubLookupStore
	GenerateID   func() string
	Now          func() time.Time
}

// ExecuteScheduleSession creates a training session.
// PRE: Club exists; coach exists, is active, and belongs to the club
// POST: Session persisted with Status=scheduled
func ExecuteScheduleSession(ctx context.Context, input ScheduleSessionInput, deps ScheduleSessionDeps) (trainingsession.Session, error) {
	if input.ClubID == "" {
		return trainingsession.Session{}, trainingsession.ErrNoClub
	}
	if _, err := deps.ClubStore.GetByID(ctx, input.ClubID); err != nil {
		return trainingsession.Session{}, errors.New("club not found")
	}

	c, err := deps.CoachStore.GetByID(ctx, input.CoachID)
	if err != nil {
		return trainingsession.Session{}, errors.New("coach not found")
	}
	if c.IsArchived() {
		return trainingsession.Session{}, ErrCoachArchived
	}
	if c.ClubID != input.ClubID {
		return trainingsession.Session{}, ErrCoachWrongClub
	}

	now := deps.Now()
	s := trainingsession.Session{
		ID:          deps.GenerateID(),
		ClubID:      input.ClubID,
		CoachID:     input.CoachID,
		Title:       input.Title,
		Description: input.Description,
		Location:    input.Location,
		Date:        input.Date,
		StartTime:   input.StartTime,
		EndTime:     input.EndTime,
		Capacity:    input.Capacity,
		Status:      trainingsession.StatusScheduled,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.Validate(); err != nil {
		return trainingsession.Session{}, err
	}

	if err := deps.SessionStore.Save(ctx, s); err != nil {
		return trainingsession.Session{}, err
	}

	slog.Info("session_event", "event", "session_scheduled", "session_id", s.ID, "club_id", s.ClubID, "date", s.Date)
	return s, nil
}

// --- Edit Session ---

// EditSessionInput carries input for the edit-session orchestrator. Empty
// fields keep their current value; Description, Location, and Capacity are
// always overwritten.
type EditSessionInput struct {
	SessionID   string
	CoachID     string
	Title       string
	Description string
	Location    string
	Date        string
	StartTime   string
	EndTime     string
	Capacity    int
}

// EditSessionDeps holds dependencies for EditSession.
type EditSessionDeps struct {
	SessionStore SessionStoreForOrchestrator
	CoachStore   CoachLookupStore
	Now          func() time.Time
}

// ExecuteEditSession updates a scheduled session.
// PRE: SessionID refers to an existing scheduled session
// POST: Fields updated and validated; cancelled sessions are immutable
func ExecuteEditSession(ctx context.Context, input EditSessionInput, deps EditSessionDeps) (trainingsession.Session, error) {
	if input.SessionID == "" {
		return trainingsession.Session{}, errors.New("session ID is required")
	}

	s, err := deps.SessionStore.GetByID(ctx, input.SessionID)
	if err != nil {
		return trainingsession.Session{}, errors.New("session not found")
	}
	if s.IsCancelled() {
		return trainingsession.Session{}, trainingsession.ErrAlreadyCancelled
	}

	if input.CoachID != "" && input.CoachID != s.CoachID {
		c, err := deps.CoachStore.GetByID(ctx, input.CoachID)
		if err != nil {
			return trainingsession.Session{}, errors.New("coach not found")
		}
		if c.IsArchived() {
			return trainingsession.Session{}, ErrCoachArchived
		}
		if c.ClubID != s.ClubID {
			return trainingsession.Session{}, ErrCoachWrongClub
		}
		s.CoachID = input.CoachID
	}
	if input.Title != "" {
		s.Title = input.Title
	}
	s.Description = input.Description
	s.Location = input.Location
	if input.Date != "" {
		s.Date = input.Date
	}
	if input.StartTime != "" {
		s.StartTime = input.StartTime
	}
	if input.EndTime != "" {
		s.EndTime = input.EndTime
	}
	s.Capacity = input.Capacity
	s.UpdatedAt = deps.Now()

	if err := s.Validate(); err != nil {
		return trainingsession.Session{}, err
	}

	if err := deps.SessionStore.Save(ctx, s); err != nil {
		return trainingsession.Session{}, err
	}

	slog.Info("session_event", "event", "session_edited", "session_id", s.ID)
	return s, nil
}
