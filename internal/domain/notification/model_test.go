package notification_test

import (
	"testing"
	"time"

	"clubhouse/internal/domain/notification"
)

func TestNotification_Validate(t *testing.T) {
	now := time.Now()

	tests := []struct {
		name    string
		n       notification.Notification
		wantErr error
	}{
		{
			name: "valid account notification",
			n: notification.Notification{
				ID:            "ntf-1",
				RecipientKind: notification.RecipientAccount,
				RecipientID:   "acct-1",
				Kind:          notification.KindAnnouncement,
				Title:         "New announcement",
				CreatedAt:     now,
			},
			wantErr: nil,
		},
		{
			name: "valid parent notification",
			n: notification.Notification{
				ID:            "ntf-2",
				RecipientKind: notification.RecipientParent,
				RecipientID:   "par-1",
				Kind:          notification.KindSessionCancelled,
				Title:         "Session cancelled",
				SubjectID:     "sess-1",
				CreatedAt:     now,
			},
			wantErr: nil,
		},
		{
			name: "missing recipient",
			n: notification.Notification{
				RecipientKind: notification.RecipientAccount,
				Kind:          notification.KindAnnouncement,
				Title:         "x",
				CreatedAt:     now,
			},
			wantErr: notification.ErrEmptyRecipientID,
		},
		{
			name: "bad recipient kind",
			n: notification.Notification{
				RecipientKind: "coach",
				RecipientID:   "acct-1",
				Kind:          notification.KindAnnouncement,
				Title:         "x",
				CreatedAt:     now,
			},
			wantErr: notification.ErrInvalidRecipient,
		},
		{
			name: "bad kind",
			n: notification.Notification{
				RecipientKind: notification.RecipientAccount,
				RecipientID:   "acct-1",
				Kind:          "payment_due",
				Title:         "x",
				CreatedAt:     now,
			},
			wantErr: notification.ErrInvalidKind,
		},
		{
			name: "empty title",
			n: notification.Notification{
				RecipientKind: notification.RecipientAccount,
				RecipientID:   "acct-1",
				Kind:          notification.KindLeaveRequest,
				CreatedAt:     now,
			},
			wantErr: notification.ErrEmptyTitle,
		},
		{
			name: "zero created time",
			n: notification.Notification{
				RecipientKind: notification.RecipientAccount,
				RecipientID:   "acct-1",
				Kind:          notification.KindLeaveRequest,
				Title:         "x",
			},
			wantErr: notification.ErrMissingCreatedTime,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.n.Validate(); err != tt.wantErr {
				t.Errorf("Validate() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestNotification_MarkRead(t *testing.T) {
	first := time.Date(2026, 1, 10, 8, 0, 0, 0, time.UTC)
	second := first.Add(time.Hour)

	n := notification.Notification{}
	if n.IsRead() {
		t.Error("IsRead() = true before MarkRead")
	}

	n.MarkRead(first)
	if !n.IsRead() {
		t.Error("IsRead() = false after MarkRead")
	}

	n.MarkRead(second)
	if !n.ReadAt.Equal(first) {
		t.Errorf("ReadAt = %v after second MarkRead, want first timestamp %v", n.ReadAt, first)
	}
}
