package orchestrators

import (
	"context"
	"errors"
	"testing"
	"time"

	"clubhouse/internal/domain/notification"
)

// mockNotificationStore implements the notification store interfaces
// used across the orchestrators.
type mockNotificationStore struct {
	notifications map[string]notification.Notification
}

func newMockNotificationStore() *mockNotificationStore {
	return &mockNotificationStore{notifications: make(map[string]notification.Notification)}
}

func (m *mockNotificationStore) Save(_ context.Context, n notification.Notification) error {
	m.notifications[n.ID] = n
	return nil
}

func (m *mockNotificationStore) GetByID(_ context.Context, id string) (notification.Notification, error) {
	n, ok := m.notifications[id]
	if !ok {
		return notification.Notification{}, errors.New("not found")
	}
	return n, nil
}

func (m *mockNotificationStore) MarkAllRead(_ context.Context, recipientKind, recipientID string, now time.Time) error {
	for id, n := range m.notifications {
		if n.RecipientKind == recipientKind && n.RecipientID == recipientID && n.ReadAt.IsZero() {
			n.ReadAt = now
			m.notifications[id] = n
		}
	}
	return nil
}

func (m *mockNotificationStore) Exists(_ context.Context, recipientKind, recipientID, kind, subjectID string) (bool, error) {
	for _, n := range m.notifications {
		if n.RecipientKind == recipientKind && n.RecipientID == recipientID && n.Kind == kind && n.SubjectID == subjectID {
			return true, nil
		}
	}
	return false, nil
}

// forRecipient counts stored notifications addressed to one recipient.
func (m *mockNotificationStore) forRecipient(recipientKind, recipientID string) []notification.Notification {
	var out []notification.Notification
	for _, n := range m.notifications {
		if n.RecipientKind == recipientKind && n.RecipientID == recipientID {
			out = append(out, n)
		}
	}
	return out
}

func seedNotification(store *mockNotificationStore, id, recipientID string) {
	store.notifications[id] = notification.Notification{
		ID: id, RecipientKind: notification.RecipientAccount, RecipientID: recipientID,
		Kind: notification.KindAnnouncement, Title: "Club champs", CreatedAt: fixedTime.Add(-time.Hour),
	}
}

// TestExecuteMarkNotificationRead_Valid tests stamping one notification.
func TestExecuteMarkNotificationRead_Valid(t *testing.T) {
	store := newMockNotificationStore()
	seedNotification(store, "n1", "acc-1")

	err := ExecuteMarkNotificationRead(context.Background(), MarkNotificationReadInput{
		NotificationID: "n1",
		RecipientKind:  notification.RecipientAccount,
		RecipientID:    "acc-1",
	}, MarkNotificationReadDeps{NotificationStore: store, Now: fixedNow})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !store.notifications["n1"].ReadAt.Equal(fixedTime) {
		t.Errorf("expected ReadAt=%v, got %v", fixedTime, store.notifications["n1"].ReadAt)
	}
}

// TestExecuteMarkNotificationRead_WrongRecipient tests the ownership check.
func TestExecuteMarkNotificationRead_WrongRecipient(t *testing.T) {
	store := newMockNotificationStore()
	seedNotification(store, "n1", "acc-1")

	err := ExecuteMarkNotificationRead(context.Background(), MarkNotificationReadInput{
		NotificationID: "n1",
		RecipientKind:  notification.RecipientAccount,
		RecipientID:    "acc-2",
	}, MarkNotificationReadDeps{NotificationStore: store, Now: fixedNow})
	if !errors.Is(err, ErrNotYourNotification) {
		t.Fatalf("expected ErrNotYourNotification, got %v", err)
	}
	n1 := store.notifications["n1"]
	if n1.IsRead() {
		t.Error("expected notification to stay unread")
	}
}

// TestExecuteMarkNotificationRead_Idempotent tests that a second read
// keeps the first timestamp.
func TestExecuteMarkNotificationRead_Idempotent(t *testing.T) {
	store := newMockNotificationStore()
	seedNotification(store, "n1", "acc-1")

	input := MarkNotificationReadInput{
		NotificationID: "n1",
		RecipientKind:  notification.RecipientAccount,
		RecipientID:    "acc-1",
	}
	if err := ExecuteMarkNotificationRead(context.Background(), input, MarkNotificationReadDeps{NotificationStore: store, Now: fixedNow}); err != nil {
		t.Fatalf("first read: unexpected error: %v", err)
	}

	later := func() time.Time { return fixedTime.Add(time.Hour) }
	if err := ExecuteMarkNotificationRead(context.Background(), input, MarkNotificationReadDeps{NotificationStore: store, Now: later}); err != nil {
		t.Fatalf("second read: unexpected error: %v", err)
	}
	if !store.notifications["n1"].ReadAt.Equal(fixedTime) {
		t.Errorf("expected first timestamp kept, got %v", store.notifications["n1"].ReadAt)
	}
}

// TestExecuteMarkAllNotificationsRead_Valid tests the bulk stamp.
func TestExecuteMarkAllNotificationsRead_Valid(t *testing.T) {
	store := newMockNotificationStore()
	seedNotification(store, "n1", "acc-1")
	seedNotification(store, "n2", "acc-1")
	seedNotification(store, "n3", "acc-2")

	err := ExecuteMarkAllNotificationsRead(context.Background(), MarkAllNotificationsReadInput{
		RecipientKind: notification.RecipientAccount,
		RecipientID:   "acc-1",
	}, MarkAllNotificationsReadDeps{NotificationStore: store, Now: fixedNow})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	n1, n2, n3 := store.notifications["n1"], store.notifications["n2"], store.notifications["n3"]
	if !n1.IsRead() || !n2.IsRead() {
		t.Error("expected acc-1 notifications read")
	}
	if n3.IsRead() {
		t.Error("expected acc-2 notification untouched")
	}
}

// TestExecuteMarkAllNotificationsRead_MissingRecipient tests input validation.
func TestExecuteMarkAllNotificationsRead_MissingRecipient(t *testing.T) {
	err := ExecuteMarkAllNotificationsRead(context.Background(), MarkAllNotificationsReadInput{
		RecipientKind: notification.RecipientAccount,
	}, MarkAllNotificationsReadDeps{NotificationStore: newMockNotificationStore(), Now: fixedNow})
	if !errors.Is(err, notification.ErrEmptyRecipientID) {
		t.Fatalf("expected ErrEmptyRecipientID, got %v", err)
	}
}
