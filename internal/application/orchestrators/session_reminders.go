package orchestrators

import (
	"context"
	"log/slog"
	"time"

	"clubhouse/internal/domain/athlete"
	"clubhouse/internal/domain/notification"
	"clubhouse/internal/domain/trainingsession"

	athleteStore "clubhouse/internal/adapters/storage/athlete"
	sessionStore "clubhouse/internal/adapters/storage/trainingsession"
)

// ReminderLookahead is how far ahead the reminder scheduler looks for
// upcoming sessions.
const ReminderLookahead = 2 * time.Hour

// SessionListStore lists sessions for the reminder scheduler.
type SessionListStore interface {
	List(ctx context.Context, filter sessionStore.ListFilter) ([]trainingsession.Session, error)
}

// NotificationStoreForReminders writes reminders and answers the
// dedupe existence check.
type NotificationStoreForReminders interface {
	Save(ctx context.Context, value notification.Notification) error
	Exists(ctx context.Context, recipientKind, recipientID, kind, subjectID string) (bool, error)
}

// SessionRemindersDeps holds dependencies for the reminder scheduler.
type SessionRemindersDeps struct {
	SessionStore      SessionListStore
	AthleteStore      AthleteListStore
	NotificationStore NotificationStoreForReminders
	GenerateID        func() string
	Now               func() time.Time
	Location          *time.Location
}

// ExecuteSendSessionReminders notifies club athletes about sessions
// starting within the next two hours. Existence-checked per recipient
// and session, so repeated runs never double-remind.
// POST: each (athlete, upcoming session) pair has one reminder
func ExecuteSendSessionReminders(ctx context.Context, deps SessionRemindersDeps) (int, error) {
	now := deps.Now()
	loc := checkInLocation(deps.Location)
	today := now.In(loc).Format("2006-01-02")
	horizon := now.Add(ReminderLookahead)

	// Sessions run same-day; a two-hour horizon can spill past midnight.
	sessions, err := deps.SessionStore.List(ctx, sessionStore.ListFilter{
		Status:   trainingsession.StatusScheduled,
		DateFrom: today,
		DateTo:   horizon.In(loc).Format("2006-01-02"),
	})
	if err != nil {
		return 0, err
	}

	sent := 0
	for _, s := range sessions {
		start, err := s.StartsAt(loc)
		if err != nil {
			slog.Warn("reminder_skip_bad_session", "session_id", s.ID, "error", err)
			continue
		}
		if start.Before(now) || start.After(horizon) {
			continue
		}

		athletes, err := deps.AthleteStore.List(ctx, athleteStore.ListFilter{ClubID: s.ClubID, Status: athlete.StatusActive})
		if err != nil {
			slog.Warn("reminder_list_athletes_failed", "session_id", s.ID, "error", err)
			continue
		}
		for _, a := range athletes {
			if a.AccountID == "" {
				continue
			}
			exists, err := deps.NotificationStore.Exists(ctx, notification.RecipientAccount, a.AccountID, notification.KindSessionReminder, s.ID)
			if err != nil {
				slog.Warn("reminder_dedupe_failed", "session_id", s.ID, "athlete_id", a.ID, "error", err)
				continue
			}
			if exists {
				continue
			}

			n := notification.Notification{
				ID:            deps.GenerateID(),
				RecipientKind: notification.RecipientAccount,
				RecipientID:   a.AccountID,
				Kind:          notification.KindSessionReminder,
				Title:         "Session starting soon",
				Body:          s.Title + " starts at " + s.StartTime + " at " + s.Location + ".",
				SubjectID:     s.ID,
				CreatedAt:     now,
			}
			if err := notify(ctx, deps.NotificationStore, n); err != nil {
				slog.Warn("reminder_notify_failed", "session_id", s.ID, "athlete_id", a.ID, "error", err)
				continue
			}
			sent++
		}
	}

	if sent > 0 {
		slog.Info("notification_event", "event", "session_reminders_sent", "count", sent)
	}
	return sent, nil
}

// StartReminderScheduler runs the reminder sweep on a fixed interval
// until stopCh closes.
func StartReminderScheduler(deps SessionRemindersDeps, interval time.Duration, stopCh <-chan struct{}) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
			if _, err := ExecuteSendSessionReminders(ctx, deps); err != nil {
				slog.Error("session_reminder_sweep_failed", "error", err)
			}
			cancel()
		case <-stopCh:
			return
		}
	}
}
