package notification

import (
	"context"
	"time"

	domain "clubhouse/internal/domain/notification"
)

// Store persists Notification state.
type Store interface {
	GetByID(ctx context.Context, id string) (domain.Notification, error)
	Save(ctx context.Context, value domain.Notification) error
	Delete(ctx context.Context, id string) error

	// ListByRecipient returns a recipient's notifications, newest first.
	ListByRecipient(ctx context.Context, recipientKind, recipientID string, limit int) ([]domain.Notification, error)

	// CountUnread returns the number of unread notifications for a recipient.
	CountUnread(ctx context.Context, recipientKind, recipientID string) (int, error)

	// MarkAllRead stamps every unread notification for a recipient.
	MarkAllRead(ctx context.Context, recipientKind, recipientID string, now time.Time) error

	// Exists reports whether a notification of the given kind about the
	// given subject has already been delivered to the recipient.
	Exists(ctx context.Context, recipientKind, recipientID, kind, subjectID string) (bool, error)
}
