package orchestrators

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"clubhouse/internal/domain/attendance"
	"clubhouse/internal/domain/featureflag"
	"clubhouse/internal/domain/leaverequest"
)

// Check-in errors
var (
	ErrSessionCancelled     = errors.New("session has been cancelled")
	ErrAthleteArchived      = errors.New("athlete is archived")
	ErrAthleteWrongClub     = errors.New("athlete belongs to a different club")
	ErrSelfCheckInDisabled  = errors.New("self check-in is not available")
	ErrOutsideCheckInWindow = errors.New("self check-in opens 30 minutes before the session and closes 15 minutes after it starts")
)

// AttendanceStoreForCheckIn is the attendance access check-in needs.
type AttendanceStoreForCheckIn interface {
	GetBySessionAndAthlete(ctx context.Context, sessionID, athleteID string) (attendance.Record, error)
	Save(ctx context.Context, value attendance.Record) error
}

// LeaveStoreForCheckIn looks up an existing leave request, which blocks
// a check-in.
type LeaveStoreForCheckIn interface {
	GetBySessionAndAthlete(ctx context.Context, sessionID, athleteID string) (leaverequest.Request, error)
}

// FlagStoreForCheckIn resolves the self check-in feature flag.
type FlagStoreForCheckIn interface {
	GetByKey(ctx context.Context, key string) (featureflag.FeatureFlag, error)
}

// CheckInInput carries input for the check-in orchestrator.
type CheckInInput struct {
	SessionID string
	AthleteID string
	// Method is attendance.MethodSelf or attendance.MethodCoach.
	Method string
	// RecordedBy is the account performing the check-in.
	RecordedBy string
}

// CheckInDeps holds dependencies for CheckIn.
type CheckInDeps struct {
	SessionStore    SessionStoreForOrchestrator
	AthleteStore    AthleteStoreForOrchestrator
	AttendanceStore AttendanceStoreForCheckIn
	LeaveStore      LeaveStoreForCheckIn
	FlagStore       FlagStoreForCheckIn
	GenerateID      func() string
	Now             func() time.Time
	// Location is the club's local timezone for window checks. Nil
	// falls back to the server's local zone.
	Location *time.Location
}

// ExecuteCheckIn records an athlete as present at a session.
//
// Self check-ins are gated on the self_checkin flag and bound to the
// session window. Coach check-ins skip both: a coach can mark anyone
// present at any time, including retroactively.
//
// PRE: session is scheduled, athlete is active and in the session's club
// POST: one attendance record exists for (session, athlete)
func ExecuteCheckIn(ctx context.Context, input CheckInInput, deps CheckInDeps) (attendance.Record, error) {
	if input.SessionID == "" {
		return attendance.Record{}, errors.New("session ID is required")
	}
	if input.AthleteID == "" {
		return attendance.Record{}, errors.New("athlete ID is required")
	}

	if input.Method == attendance.MethodSelf {
		flag, err := deps.FlagStore.GetByKey(ctx, featureflag.KeySelfCheckIn)
		if err != nil || !flag.EnabledForRole("athlete") {
			slog.Info("checkin_event", "event", "self_checkin_disabled", "session_id", input.SessionID, "athlete_id", input.AthleteID)
			return attendance.Record{}, ErrSelfCheckInDisabled
		}
	}

	s, err := deps.SessionStore.GetByID(ctx, input.SessionID)
	if err != nil {
		return attendance.Record{}, errors.New("session not found")
	}
	if s.IsCancelled() {
		return attendance.Record{}, ErrSessionCancelled
	}

	a, err := deps.AthleteStore.GetByID(ctx, input.AthleteID)
	if err != nil {
		return attendance.Record{}, errors.New("athlete not found")
	}
	if a.IsArchived() {
		return attendance.Record{}, ErrAthleteArchived
	}
	if a.ClubID != s.ClubID {
		return attendance.Record{}, ErrAthleteWrongClub
	}

	if _, err := deps.LeaveStore.GetBySessionAndAthlete(ctx, s.ID, a.ID); err == nil {
		return attendance.Record{}, attendance.ErrOnLeave
	}
	if _, err := deps.AttendanceStore.GetBySessionAndAthlete(ctx, s.ID, a.ID); err == nil {
		return attendance.Record{}, attendance.ErrAlreadyPresent
	}

	now := deps.Now()
	if input.Method == attendance.MethodSelf {
		open, err := s.InCheckInWindow(now, checkInLocation(deps.Location))
		if err != nil {
			return attendance.Record{}, err
		}
		if !open {
			return attendance.Record{}, ErrOutsideCheckInWindow
		}
	}

	record := attendance.Record{
		ID:          deps.GenerateID(),
		SessionID:   s.ID,
		AthleteID:   a.ID,
		CheckedInAt: now,
		Method:      input.Method,
		RecordedBy:  input.RecordedBy,
	}
	if err := record.Validate(); err != nil {
		return attendance.Record{}, err
	}
	if err := deps.AttendanceStore.Save(ctx, record); err != nil {
		return attendance.Record{}, err
	}

	slog.Info("checkin_event", "event", "checked_in", "session_id", s.ID, "athlete_id", a.ID, "method", input.Method, "recorded_by", input.RecordedBy)
	return record, nil
}

// checkInLocation resolves the timezone for window math.
func checkInLocation(loc *time.Location) *time.Location {
	if loc == nil {
		return time.Local
	}
	return loc
}
