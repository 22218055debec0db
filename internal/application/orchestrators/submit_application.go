package orchestrators

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"clubhouse/internal/domain/club"
	"clubhouse/internal/domain/coach"
	"clubhouse/internal/domain/membership"
	"clubhouse/internal/domain/notification"
)

// ApplicationStoreForSubmit defines the store interface needed by the
// public submission orchestrators.
type ApplicationStoreForSubmit interface {
	GetByID(ctx context.Context, id string) (membership.Application, error)
	Save(ctx context.Context, a membership.Application) error
	HasPending(ctx context.Context, clubID, email string) (bool, error)
}

// ClubStoreForSubmit resolves the target club from the public form, which
// may carry either the club ID or its short code.
type ClubStoreForSubmit interface {
	GetByID(ctx context.Context, id string) (club.Club, error)
	GetByCode(ctx context.Context, code string) (club.Club, error)
}

// CoachListStore lists the coaches to notify about club applications.
type CoachListStore interface {
	ListByClubID(ctx context.Context, clubID string) ([]coach.Coach, error)
}

var ErrDuplicateApplication = errors.New("a pending application for this club and email already exists")

// --- Submit Application ---

// SubmitApplicationInput carries input from the public application form.
// Either ClubID or ClubCode identifies the club.
type SubmitApplicationInput struct {
	ClubID           string
	ClubCode         string
	ApplicantName    string
	Email            string
	BirthDate        string
	EmergencyContact string
	Message          string
}

// SubmitApplicationDeps holds dependencies for SubmitApplication.
type SubmitApplicationDeps struct {
	ApplicationStore  ApplicationStoreForSubmit
	ClubStore         ClubStoreForSubmit
	CoachStore        CoachListStore
	NotificationStore NotificationSaver
	GenerateID        func() string
	Now               func() time.Time
}

// ExecuteSubmitApplication accepts an unauthenticated membership
// application and notifies the club's coaches.
// PRE: Club exists; no pending application for (club, email)
// POST: Application persisted with Status=pending
// INVARIANT: At most one pending application per (club, email), backed by
// a partial unique index
func ExecuteSubmitApplication(ctx context.Context, input SubmitApplicationInput, deps SubmitApplicationDeps) (membership.Application, error) {
	target, err := resolveClub(ctx, deps.ClubStore, input.ClubID, input.ClubCode)
	if err != nil {
		return membership.Application{}, err
	}

	dup, err := deps.ApplicationStore.HasPending(ctx, target.ID, input.Email)
	if err != nil {
		return membership.Application{}, err
	}
	if dup {
		return membership.Application{}, ErrDuplicateApplication
	}

	now := deps.Now()
	app := membership.Application{
		ID:               deps.GenerateID(),
		ClubID:           target.ID,
		ApplicantName:    input.ApplicantName,
		Email:            input.Email,
		BirthDate:        input.BirthDate,
		EmergencyContact: input.EmergencyContact,
		Message:          input.Message,
		Status:           membership.StatusPending,
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	if err := app.Validate(); err != nil {
		return membership.Application{}, err
	}

	if err := deps.ApplicationStore.Save(ctx, app); err != nil {
		return membership.Application{}, err
	}

	slog.Info("application_event", "event", "application_submitted", "application_id", app.ID, "club_id", app.ClubID)

	notifyClubCoaches(ctx, deps.CoachStore, deps.NotificationStore, deps.GenerateID, now, app,
		"New membership application", app.ApplicantName+" applied to join "+target.Name+".")

	return app, nil
}

// --- Resubmit Application ---

// ResubmitApplicationInput carries input for the applicant's resubmission
// after an information request. Email must match the original application.
type ResubmitApplicationInput struct {
	ApplicationID string
	Email         string
	Message       string
}

// ResubmitApplicationDeps holds dependencies for ResubmitApplication.
type ResubmitApplicationDeps struct {
	ApplicationStore  ApplicationStoreForSubmit
	ClubStore         ClubStoreForSubmit
	CoachStore        CoachListStore
	NotificationStore NotificationSaver
	GenerateID        func() string
	Now               func() time.Time
}

// ExecuteResubmitApplication returns an info_requested application to the
// pending queue with the applicant's updated message.
// PRE: Application is in info_requested status; Email matches the record
// POST: Status is pending again; coaches are notified
func ExecuteResubmitApplication(ctx context.Context, input ResubmitApplicationInput, deps ResubmitApplicationDeps) (membership.Application, error) {
	if input.ApplicationID == "" {
		return membership.Application{}, errors.New("application ID is required")
	}

	app, err := deps.ApplicationStore.GetByID(ctx, input.ApplicationID)
	if err != nil {
		return membership.Application{}, errors.New("application not found")
	}
	if app.Email != input.Email {
		return membership.Application{}, errors.New("email does not match the application")
	}

	now := deps.Now()
	if err := app.Resubmit(input.Message, now); err != nil {
		return membership.Application{}, err
	}

	if err := deps.ApplicationStore.Save(ctx, app); err != nil {
		return membership.Application{}, err
	}

	slog.Info("application_event", "event", "application_resubmitted", "application_id", app.ID, "club_id", app.ClubID)

	clubName := app.ClubID
	if c, err := deps.ClubStore.GetByID(ctx, app.ClubID); err == nil {
		clubName = c.Name
	}
	notifyClubCoaches(ctx, deps.CoachStore, deps.NotificationStore, deps.GenerateID, now, app,
		"Application resubmitted", app.ApplicantName+" answered the information request for "+clubName+".")

	return app, nil
}

// resolveClub finds the club the form targets, preferring the ID.
func resolveClub(ctx context.Context, store ClubStoreForSubmit, clubID, clubCode string) (club.Club, error) {
	if clubID != "" {
		c, err := store.GetByID(ctx, clubID)
		if err != nil {
			return club.Club{}, errors.New("club not found")
		}
		return c, nil
	}
	if clubCode != "" {
		c, err := store.GetByCode(ctx, clubCode)
		if err != nil {
			return club.Club{}, errors.New("club not found")
		}
		return c, nil
	}
	return club.Club{}, errors.New("club is required")
}

// notifyClubCoaches fans an application notification out to every coach
// of the club who has a login. Failures are logged, never returned: the
// application itself has already been accepted.
func notifyClubCoaches(ctx context.Context, coaches CoachListStore, sink NotificationSaver, generateID func() string, now time.Time, app membership.Application, title, body string) {
	list, err := coaches.ListByClubID(ctx, app.ClubID)
	if err != nil {
		slog.Warn("application_notify_failed", "application_id", app.ID, "error", err)
		return
	}
	for _, c := range list {
		if c.AccountID == "" {
			continue
		}
		n := notification.Notification{
			ID:            generateID(),
			RecipientKind: notification.RecipientAccount,
			RecipientID:   c.AccountID,
			Kind:          notification.KindApplicationReceived,
			Title:         title,
			Body:          body,
			SubjectID:     app.ID,
			CreatedAt:     now,
		}
		if err := notify(ctx, sink, n); err != nil {
			slog.Warn("application_notify_failed", "application_id", app.ID, "coach_id", c.ID, "error", err)
		}
	}
}
