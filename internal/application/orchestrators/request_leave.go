package orchestrators

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"clubhouse/internal/domain/leaverequest"
	"clubhouse/internal/domain/notification"
)

// ErrLeaveTooLate is returned when the two-hour notice period has
// already begun.
var ErrLeaveTooLate = errors.New("leave must be requested more than 2 hours before the session starts")

// LeaveStoreForRequest is the leave access the leave orchestrators need.
type LeaveStoreForRequest interface {
	GetByID(ctx context.Context, id string) (leaverequest.Request, error)
	GetBySessionAndAthlete(ctx context.Context, sessionID, athleteID string) (leaverequest.Request, error)
	Save(ctx context.Context, value leaverequest.Request) error
}

// RequestLeaveInput carries input for the request-leave orchestrator.
type RequestLeaveInput struct {
	SessionID string
	AthleteID string
	Reason    string
}

// RequestLeaveDeps holds dependencies for RequestLeave.
type RequestLeaveDeps struct {
	SessionStore      SessionStoreForOrchestrator
	AthleteStore      AthleteStoreForOrchestrator
	CoachStore        CoachLookupStore
	LeaveStore        LeaveStoreForRequest
	AttendanceStore   AttendanceStoreForCheckIn
	NotificationStore NotificationSaver
	GenerateID        func() string
	Now               func() time.Time
	Location          *time.Location
}

// ExecuteRequestLeave files an athlete's advance notice of absence.
// The notice period is strict: requests land more than two hours before
// the session starts or not at all.
// PRE: session is scheduled, athlete is active and in the session's club
// POST: one submitted leave request exists for (session, athlete)
func ExecuteRequestLeave(ctx context.Context, input RequestLeaveInput, deps RequestLeaveDeps) (leaverequest.Request, error) {
	if input.SessionID == "" {
		return leaverequest.Request{}, errors.New("session ID is required")
	}
	if input.AthleteID == "" {
		return leaverequest.Request{}, errors.New("athlete ID is required")
	}

	s, err := deps.SessionStore.GetByID(ctx, input.SessionID)
	if err != nil {
		return leaverequest.Request{}, errors.New("session not found")
	}
	if s.IsCancelled() {
		return leaverequest.Request{}, ErrSessionCancelled
	}

	a, err := deps.AthleteStore.GetByID(ctx, input.AthleteID)
	if err != nil {
		return leaverequest.Request{}, errors.New("athlete not found")
	}
	if a.IsArchived() {
		return leaverequest.Request{}, ErrAthleteArchived
	}
	if a.ClubID != s.ClubID {
		return leaverequest.Request{}, ErrAthleteWrongClub
	}

	now := deps.Now()
	allowed, err := s.CanRequestLeave(now, checkInLocation(deps.Location))
	if err != nil {
		return leaverequest.Request{}, err
	}
	if !allowed {
		return leaverequest.Request{}, ErrLeaveTooLate
	}

	if _, err := deps.LeaveStore.GetBySessionAndAthlete(ctx, s.ID, a.ID); err == nil {
		return leaverequest.Request{}, leaverequest.ErrAlreadyRequested
	}
	if _, err := deps.AttendanceStore.GetBySessionAndAthlete(ctx, s.ID, a.ID); err == nil {
		return leaverequest.Request{}, leaverequest.ErrAlreadyCheckedIn
	}

	request := leaverequest.Request{
		ID:          deps.GenerateID(),
		SessionID:   s.ID,
		AthleteID:   a.ID,
		Reason:      input.Reason,
		Status:      leaverequest.StatusSubmitted,
		RequestedAt: now,
	}
	if err := request.Validate(); err != nil {
		return leaverequest.Request{}, err
	}
	if err := deps.LeaveStore.Save(ctx, request); err != nil {
		return leaverequest.Request{}, err
	}

	notifySessionCoach(ctx, deps, s.CoachID, notification.Notification{
		ID:            deps.GenerateID(),
		Kind:          notification.KindLeaveRequest,
		Title:         "Leave request",
		Body:          a.Name + " has requested leave from " + s.Title + " on " + s.Date + ".",
		SubjectID:     request.ID,
		RecipientKind: notification.RecipientAccount,
		CreatedAt:     now,
	})

	slog.Info("session_event", "event", "leave_requested", "leave_id", request.ID, "session_id", s.ID, "athlete_id", a.ID)
	return request, nil
}

// notifySessionCoach delivers an in-app notice to the coach running a
// session. Best-effort: coaches without accounts are skipped.
func notifySessionCoach(ctx context.Context, deps RequestLeaveDeps, coachID string, n notification.Notification) {
	c, err := deps.CoachStore.GetByID(ctx, coachID)
	if err != nil || c.AccountID == "" {
		return
	}
	n.RecipientID = c.AccountID
	if err := notify(ctx, deps.NotificationStore, n); err != nil {
		slog.Warn("leave_notify_failed", "coach_id", coachID, "error", err)
	}
}

// AcknowledgeLeaveInput carries input for the acknowledge-leave
// orchestrator.
type AcknowledgeLeaveInput struct {
	LeaveID        string
	AcknowledgedBy string
}

// AcknowledgeLeaveDeps holds dependencies for AcknowledgeLeave.
type AcknowledgeLeaveDeps struct {
	LeaveStore LeaveStoreForRequest
	Now        func() time.Time
}

// ExecuteAcknowledgeLeave marks a leave request as seen by a coach.
// PRE: LeaveID refers to a submitted request
// POST: Status is acknowledged with reviewer and timestamp set
func ExecuteAcknowledgeLeave(ctx context.Context, input AcknowledgeLeaveInput, deps AcknowledgeLeaveDeps) (leaverequest.Request, error) {
	if input.LeaveID == "" {
		return leaverequest.Request{}, errors.New("leave request ID is required")
	}
	if input.AcknowledgedBy == "" {
		return leaverequest.Request{}, errors.New("acknowledging account ID is required")
	}

	request, err := deps.LeaveStore.GetByID(ctx, input.LeaveID)
	if err != nil {
		return leaverequest.Request{}, errors.New("leave request not found")
	}

	if err := request.Acknowledge(input.AcknowledgedBy, deps.Now()); err != nil {
		return leaverequest.Request{}, err
	}
	if err := deps.LeaveStore.Save(ctx, request); err != nil {
		return leaverequest.Request{}, err
	}

	slog.Info("session_event", "event", "leave_acknowledged", "leave_id", request.ID, "acknowledged_by", input.AcknowledgedBy)
	return request, nil
}
