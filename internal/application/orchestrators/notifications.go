package orchestrators

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"clubhouse/internal/domain/notification"
)

// NotificationSaver is the minimal sink for creating notifications. The
// orchestrators that generate notifications (applications, announcements,
// cancellations, reminders) all write through it.
type NotificationSaver interface {
	Save(ctx context.Context, n notification.Notification) error
}

// NotificationStoreForRead defines the store interface needed by the
// mark-read orchestrators.
type NotificationStoreForRead interface {
	GetByID(ctx context.Context, id string) (notification.Notification, error)
	Save(ctx context.Context, n notification.Notification) error
	MarkAllRead(ctx context.Context, recipientKind, recipientID string, now time.Time) error
}

var ErrNotYourNotification = errors.New("notification belongs to a different recipient")

// notify validates and saves one notification. Kept best-effort by most
// callers: a failed notification never rolls back the action it announces.
func notify(ctx context.Context, store NotificationSaver, n notification.Notification) error {
	if err := n.Validate(); err != nil {
		return err
	}
	return store.Save(ctx, n)
}

// --- Mark Read ---

// MarkNotificationReadInput carries input for the mark-read orchestrator.
// RecipientKind and RecipientID identify the caller; the notification must
// belong to them.
type MarkNotificationReadInput struct {
	NotificationID string
	RecipientKind  string
	RecipientID    string
}

// MarkNotificationReadDeps holds dependencies for MarkNotificationRead.
type MarkNotificationReadDeps struct {
	NotificationStore NotificationStoreForRead
	Now               func() time.Time
}

// ExecuteMarkNotificationRead stamps one notification as read.
// PRE: NotificationID refers to a notification owned by the caller
// POST: ReadAt is set; reading twice keeps the first timestamp
func ExecuteMarkNotificationRead(ctx context.Context, input MarkNotificationReadInput, deps MarkNotificationReadDeps) error {
	if input.NotificationID == "" {
		return errors.New("notification ID is required")
	}

	n, err := deps.NotificationStore.GetByID(ctx, input.NotificationID)
	if err != nil {
		return errors.New("notification not found")
	}
	if n.RecipientKind != input.RecipientKind || n.RecipientID != input.RecipientID {
		return ErrNotYourNotification
	}

	if n.IsRead() {
		return nil
	}
	n.MarkRead(deps.Now())

	return deps.NotificationStore.Save(ctx, n)
}

// --- Mark All Read ---

// MarkAllNotificationsReadInput carries input for the mark-all-read orchestrator.
type MarkAllNotificationsReadInput struct {
	RecipientKind string
	RecipientID   string
}

// MarkAllNotificationsReadDeps holds dependencies for MarkAllNotificationsRead.
type MarkAllNotificationsReadDeps struct {
	NotificationStore NotificationStoreForRead
	Now               func() time.Time
}

// ExecuteMarkAllNotificationsRead stamps every unread notification for a
// recipient.
// PRE: RecipientKind and RecipientID identify the caller
// POST: No unread notifications remain for the recipient
func ExecuteMarkAllNotificationsRead(ctx context.Context, input MarkAllNotificationsReadInput, deps MarkAllNotificationsReadDeps) error {
	if input.RecipientID == "" {
		return notification.ErrEmptyRecipientID
	}

	if err := deps.NotificationStore.MarkAllRead(ctx, input.RecipientKind, input.RecipientID, deps.Now()); err != nil {
		return err
	}

	slog.Info("notification_event", "event", "all_read", "recipient_kind", input.RecipientKind, "recipient_id", input.RecipientID)
	return nil
}
