package orchestrators

import (
	"context"
	"errors"
	"fmt"
	"html"
	"log/slog"
	"time"

	"clubhouse/internal/domain/athlete"
	"clubhouse/internal/domain/attendance"
	"clubhouse/internal/domain/leaverequest"
	"clubhouse/internal/domain/notification"
	"clubhouse/internal/domain/outbox"
	"clubhouse/internal/domain/trainingsession"
)

// AttendanceListStore lists a session's check-ins for the cancellation
// fan-out.
type AttendanceListStore interface {
	ListBySessionID(ctx context.Context, sessionID string) ([]attendance.Record, error)
}

// LeaveListStore lists a session's leave requests for the cancellation
// fan-out.
type LeaveListStore interface {
	ListBySessionID(ctx context.Context, sessionID string) ([]leaverequest.Request, error)
}

// AthleteBatchStore resolves the athletes affected by a cancellation.
type AthleteBatchStore interface {
	ListByIDs(ctx context.Context, ids []string) ([]athlete.Athlete, error)
}

// CancelSessionInput carries input for the cancel-session orchestrator.
type CancelSessionInput struct {
	SessionID string
	Reason    string
	// CancelledBy is the account performing the cancellation, for the log.
	CancelledBy string
}

// CancelSessionDeps holds dependencies for CancelSession.
type CancelSessionDeps struct {
	SessionStore      SessionStoreForOrchestrator
	AttendanceStore   AttendanceListStore
	LeaveStore        LeaveListStore
	AthleteStore      AthleteBatchStore
	NotificationStore NotificationSaver
	OutboxStore       OutboxEnqueuer
	GenerateID        func() string
	Now               func() time.Time
}

// ExecuteCancelSession cancels a session and tells everyone affected:
// each checked-in athlete and each athlete with an open leave request
// gets an in-app notification and a queued email.
// PRE: SessionID refers to a scheduled session
// POST: Status is cancelled; notifications and outbox emails written
func ExecuteCancelSession(ctx context.Context, input CancelSessionInput, deps CancelSessionDeps) (trainingsession.Session, error) {
	if input.SessionID == "" {
		return trainingsession.Session{}, errors.New("session ID is required")
	}

	s, err := deps.SessionStore.GetByID(ctx, input.SessionID)
	if err != nil {
		return trainingsession.Session{}, errors.New("session not found")
	}

	now := deps.Now()
	if err := s.Cancel(input.Reason, now); err != nil {
		return trainingsession.Session{}, err
	}
	if err := deps.SessionStore.Save(ctx, s); err != nil {
		return trainingsession.Session{}, err
	}

	affected, err := affectedAthleteIDs(ctx, deps, s.ID)
	if err != nil {
		slog.Warn("session_cancel_fanout_failed", "session_id", s.ID, "error", err)
		affected = nil
	}

	notified := 0
	if len(affected) > 0 {
		athletes, err := deps.AthleteStore.ListByIDs(ctx, affected)
		if err != nil {
			slog.Warn("session_cancel_fanout_failed", "session_id", s.ID, "error", err)
			athletes = nil
		}
		for _, a := range athletes {
			notifyCancellation(ctx, deps, s, a, now)
			notified++
		}
	}

	slog.Info("session_event", "event", "session_cancelled", "session_id", s.ID, "cancelled_by", input.CancelledBy, "reason", input.Reason, "athletes_notified", notified)
	return s, nil
}

// affectedAthleteIDs collects the athletes to notify: everyone checked
// in plus everyone with an unacknowledged leave request, deduplicated.
func affectedAthleteIDs(ctx context.Context, deps CancelSessionDeps, sessionID string) ([]string, error) {
	seen := make(map[string]bool)
	var ids []string

	records, err := deps.AttendanceStore.ListBySessionID(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	for _, r := range records {
		if !seen[r.AthleteID] {
			seen[r.AthleteID] = true
			ids = append(ids, r.AthleteID)
		}
	}

	leaves, err := deps.LeaveStore.ListBySessionID(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	for _, l := range leaves {
		if l.Status != leaverequest.StatusSubmitted {
			continue
		}
		if !seen[l.AthleteID] {
			seen[l.AthleteID] = true
			ids = append(ids, l.AthleteID)
		}
	}

	return ids, nil
}

// notifyCancellation delivers the in-app and email notices for one
// athlete. Best-effort: failures are logged, the cancellation stands.
func notifyCancellation(ctx context.Context, deps CancelSessionDeps, s trainingsession.Session, a athlete.Athlete, now time.Time) {
	body := s.Title + " on " + s.Date + " at " + s.StartTime + " has been cancelled."
	if s.CancelReason != "" {
		body += " Reason: " + s.CancelReason
	}

	if a.AccountID != "" {
		n := notification.Notification{
			ID:            deps.GenerateID(),
			RecipientKind: notification.RecipientAccount,
			RecipientID:   a.AccountID,
			Kind:          notification.KindSessionCancelled,
			Title:         "Session cancelled",
			Body:          body,
			SubjectID:     s.ID,
			CreatedAt:     now,
		}
		if err := notify(ctx, deps.NotificationStore, n); err != nil {
			slog.Warn("session_cancel_notify_failed", "session_id", s.ID, "athlete_id", a.ID, "error", err)
		}
	}

	htmlBody := fmt.Sprintf("<p>Kia ora %s,</p><p>%s</p>",
		html.EscapeString(a.Name), html.EscapeString(body))
	if err := enqueueEmail(ctx, deps.OutboxStore, deps.GenerateID(), now, outbox.EmailPayload{
		To:      []string{a.Email},
		Subject: "Session cancelled: " + s.Title,
		HTML:    htmlBody,
	}); err != nil {
		slog.Warn("session_cancel_email_failed", "session_id", s.ID, "athlete_id", a.ID, "error", err)
	}
}
