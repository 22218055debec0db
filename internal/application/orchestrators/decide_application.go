package orchestrators

import (
	"context"
	"errors"
	"fmt"
	"html"
	"log/slog"
	"time"

	"clubhouse/internal/domain/account"
	"clubhouse/internal/domain/athlete"
	"clubhouse/internal/domain/membership"
	"clubhouse/internal/domain/notification"
	"clubhouse/internal/domain/outbox"
)

// ApplicationStoreForDecide defines the store interface needed by the
// decision orchestrators.
type ApplicationStoreForDecide interface {
	GetByID(ctx context.Context, id string) (membership.Application, error)
	Save(ctx context.Context, a membership.Application) error
}

// AthleteStoreForDecide creates the athlete record on approval.
type AthleteStoreForDecide interface {
	GetByEmail(ctx context.Context, email string) (athlete.Athlete, error)
	Save(ctx context.Context, a athlete.Athlete) error
}

// AccountStoreForDecide extends the activation store with the email
// uniqueness check needed before a pending account is created.
type AccountStoreForDecide interface {
	AccountStoreForActivation
	GetByEmail(ctx context.Context, email string) (account.Account, error)
}

// DecideApplicationDeps holds dependencies shared by the approve, reject,
// and request-info orchestrators.
type DecideApplicationDeps struct {
	ApplicationStore  ApplicationStoreForDecide
	AthleteStore      AthleteStoreForDecide
	AccountStore      AccountStoreForDecide
	ClubStore         ClubLookupStore
	OutboxStore       OutboxEnqueuer
	NotificationStore NotificationSaver
	GenerateID        func() string
	Now               func() time.Time
	BaseURL           string // public origin for links in emails
}

// --- Approve ---

// ApproveApplicationInput carries input for the approval orchestrator.
type ApproveApplicationInput struct {
	ApplicationID string
	DeciderID     string
}

// ApproveApplicationResult carries the records created by an approval.
type ApproveApplicationResult struct {
	Application membership.Application
	AthleteID   string
	AccountID   string
}

// ExecuteApproveApplication approves a pending application: it creates the
// athlete record, a pending-activation account, queues the activation
// email, and leaves an in-app notification for the new account.
// PRE: Application is pending; applicant email is free among athletes and accounts
// POST: Athlete and account exist, activation email queued in the outbox
func ExecuteApproveApplication(ctx context.Context, input ApproveApplicationInput, deps DecideApplicationDeps) (ApproveApplicationResult, error) {
	if input.ApplicationID == "" {
		return ApproveApplicationResult{}, errors.New("application ID is required")
	}
	if input.DeciderID == "" {
		return ApproveApplicationResult{}, errors.New("decider account ID is required")
	}

	app, err := deps.ApplicationStore.GetByID(ctx, input.ApplicationID)
	if err != nil {
		return ApproveApplicationResult{}, errors.New("application not found")
	}

	// Uniqueness checks up front, before anything is written.
	if _, err := deps.AthleteStore.GetByEmail(ctx, app.Email); err == nil {
		return ApproveApplicationResult{}, ErrAthleteEmailTaken
	}
	if _, err := deps.AccountStore.GetByEmail(ctx, app.Email); err == nil {
		return ApproveApplicationResult{}, ErrEmailAlreadyExists
	}

	now := deps.Now()
	if err := app.Approve(input.DeciderID, now); err != nil {
		return ApproveApplicationResult{}, err
	}
	if err := deps.ApplicationStore.Save(ctx, app); err != nil {
		return ApproveApplicationResult{}, err
	}

	acct := account.Account{
		ID:        deps.GenerateID(),
		Email:     app.Email,
		Role:      account.RoleAthlete,
		Status:    account.StatusPendingActivation,
		CreatedAt: now,
	}
	if err := acct.Validate(); err != nil {
		return ApproveApplicationResult{}, err
	}
	if err := deps.AccountStore.Save(ctx, acct); err != nil {
		return ApproveApplicationResult{}, err
	}

	ath := athlete.Athlete{
		ID:               deps.GenerateID(),
		ClubID:           app.ClubID,
		AccountID:        acct.ID,
		Name:             app.ApplicantName,
		Email:            app.Email,
		BirthDate:        app.BirthDate,
		EmergencyContact: app.EmergencyContact,
		Status:           athlete.StatusActive,
		CreatedAt:        now,
	}
	if err := ath.Validate(); err != nil {
		return ApproveApplicationResult{}, err
	}
	if err := deps.AthleteStore.Save(ctx, ath); err != nil {
		return ApproveApplicationResult{}, err
	}

	token, err := ExecuteIssueActivationToken(ctx, IssueActivationTokenInput{AccountID: acct.ID}, IssueActivationTokenDeps{
		AccountStore: deps.AccountStore,
		GenerateID:   deps.GenerateID,
		Now:          deps.Now,
	})
	if err != nil {
		return ApproveApplicationResult{}, err
	}

	clubName := clubDisplayName(ctx, deps.ClubStore, app.ClubID)
	body := fmt.Sprintf(
		"<p>Kia ora %s,</p><p>Your application to join %s has been approved. Set your password within 48 hours to finish signing up:</p><p><a href=%q>Activate your account</a></p>",
		html.EscapeString(app.ApplicantName), html.EscapeString(clubName),
		deps.BaseURL+"/activate?token="+token.Token)
	if err := enqueueEmail(ctx, deps.OutboxStore, deps.GenerateID(), now, outbox.EmailPayload{
		To:      []string{app.Email},
		Subject: "Your " + clubName + " application was approved",
		HTML:    body,
	}); err != nil {
		return ApproveApplicationResult{}, err
	}

	n := notification.Notification{
		ID:            deps.GenerateID(),
		RecipientKind: notification.RecipientAccount,
		RecipientID:   acct.ID,
		Kind:          notification.KindApplicationDecided,
		Title:         "Application approved",
		Body:          "Welcome to " + clubName + ". Activate your account to get started.",
		SubjectID:     app.ID,
		CreatedAt:     now,
	}
	if err := notify(ctx, deps.NotificationStore, n); err != nil {
		slog.Warn("application_notify_failed", "application_id", app.ID, "error", err)
	}

	slog.Info("application_event", "event", "application_approved", "application_id", app.ID, "athlete_id", ath.ID, "account_id", acct.ID, "decided_by", input.DeciderID)

	return ApproveApplicationResult{Application: app, AthleteID: ath.ID, AccountID: acct.ID}, nil
}

// --- Reject ---

// RejectApplicationInput carries input for the rejection orchestrator.
type RejectApplicationInput struct {
	ApplicationID string
	DeciderID     string
	Note          string
}

// ExecuteRejectApplication rejects a pending application and emails the
// applicant the decision.
// PRE: Application is pending
// POST: Status is rejected; decision email queued in the outbox
func ExecuteRejectApplication(ctx context.Context, input RejectApplicationInput, deps DecideApplicationDeps) (membership.Application, error) {
	if input.ApplicationID == "" {
		return membership.Application{}, errors.New("application ID is required")
	}
	if input.DeciderID == "" {
		return membership.Application{}, errors.New("decider account ID is required")
	}

	app, err := deps.ApplicationStore.GetByID(ctx, input.ApplicationID)
	if err != nil {
		return membership.Application{}, errors.New("application not found")
	}

	now := deps.Now()
	if err := app.Reject(input.DeciderID, input.Note, now); err != nil {
		return membership.Application{}, err
	}
	if err := deps.ApplicationStore.Save(ctx, app); err != nil {
		return membership.Application{}, err
	}

	clubName := clubDisplayName(ctx, deps.ClubStore, app.ClubID)
	body := fmt.Sprintf(
		"<p>Kia ora %s,</p><p>Thank you for your interest in %s. Unfortunately your application was not successful this time.</p>",
		html.EscapeString(app.ApplicantName), html.EscapeString(clubName))
	if input.Note != "" {
		body += "<p>" + html.EscapeString(input.Note) + "</p>"
	}
	if err := enqueueEmail(ctx, deps.OutboxStore, deps.GenerateID(), now, outbox.EmailPayload{
		To:      []string{app.Email},
		Subject: "Your application to " + clubName,
		HTML:    body,
	}); err != nil {
		return membership.Application{}, err
	}

	slog.Info("application_event", "event", "application_rejected", "application_id", app.ID, "decided_by", input.DeciderID)
	return app, nil
}

// --- Request Info ---

// RequestApplicationInfoInput carries input for the information request
// orchestrator. Note is shown to the applicant and must not be empty.
type RequestApplicationInfoInput struct {
	ApplicationID string
	DeciderID     string
	Note          string
}

// ExecuteRequestApplicationInfo sends a pending application back to the
// applicant with a note describing what is missing.
// PRE: Application is pending; Note is non-empty
// POST: Status is info_requested; email with resubmission link queued
func ExecuteRequestApplicationInfo(ctx context.Context, input RequestApplicationInfoInput, deps DecideApplicationDeps) (membership.Application, error) {
	if input.ApplicationID == "" {
		return membership.Application{}, errors.New("application ID is required")
	}
	if input.DeciderID == "" {
		return membership.Application{}, errors.New("decider account ID is required")
	}

	app, err := deps.ApplicationStore.GetByID(ctx, input.ApplicationID)
	if err != nil {
		return membership.Application{}, errors.New("application not found")
	}

	now := deps.Now()
	if err := app.RequestInfo(input.DeciderID, input.Note, now); err != nil {
		return membership.Application{}, err
	}
	if err := deps.ApplicationStore.Save(ctx, app); err != nil {
		return membership.Application{}, err
	}

	clubName := clubDisplayName(ctx, deps.ClubStore, app.ClubID)
	body := fmt.Sprintf(
		"<p>Kia ora %s,</p><p>We need a little more information before we can decide your application to %s:</p><p>%s</p><p><a href=%q>Update your application</a></p>",
		html.EscapeString(app.ApplicantName), html.EscapeString(clubName),
		html.EscapeString(input.Note),
		deps.BaseURL+"/apply/resubmit?application="+app.ID)
	if err := enqueueEmail(ctx, deps.OutboxStore, deps.GenerateID(), now, outbox.EmailPayload{
		To:      []string{app.Email},
		Subject: "More information needed for your " + clubName + " application",
		HTML:    body,
	}); err != nil {
		return membership.Application{}, err
	}

	slog.Info("application_event", "event", "application_info_requested", "application_id", app.ID, "decided_by", input.DeciderID)
	return app, nil
}

// clubDisplayName resolves a club name for human-facing text, falling
// back to the raw ID when the lookup fails.
func clubDisplayName(ctx context.Context, store ClubLookupStore, clubID string) string {
	if store == nil {
		return clubID
	}
	c, err := store.GetByID(ctx, clubID)
	if err != nil {
		return clubID
	}
	return c.Name
}
