package orchestrators

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"clubhouse/internal/domain/athlete"
	"clubhouse/internal/domain/attendance"
	"clubhouse/internal/domain/leaverequest"
	"clubhouse/internal/domain/notification"
	"clubhouse/internal/domain/trainingsession"
)

// cancelFixture wires a scheduled session with two check-ins, one
// submitted leave, and one acknowledged leave. Athlete a2 has no login.
func cancelFixture() CancelSessionDeps {
	sessions := newMockSessionStore()
	sessions.sessions["s1"] = trainingsession.Session{
		ID: "s1", ClubID: "club-1", CoachID: "c1", Title: "Track Intervals",
		Date: "2026-03-02", StartTime: "17:30", EndTime: "19:00",
		Status: trainingsession.StatusScheduled,
	}

	records := newMockAttendanceStore()
	records.records["att-1"] = attendance.Record{
		ID: "att-1", SessionID: "s1", AthleteID: "a1",
		CheckedInAt: fixedTime, Method: attendance.MethodCoach, RecordedBy: "acc-coach",
	}
	records.records["att-2"] = attendance.Record{
		ID: "att-2", SessionID: "s1", AthleteID: "a2",
		CheckedInAt: fixedTime, Method: attendance.MethodCoach, RecordedBy: "acc-coach",
	}

	leaves := newMockLeaveStore()
	leaves.seedSubmitted("lv1", "s1", "a3")
	leaves.requests["lv2"] = leaverequest.Request{
		ID: "lv2", SessionID: "s1", AthleteID: "a4", Reason: "away",
		Status: leaverequest.StatusAcknowledged, RequestedAt: fixedTime.Add(-2 * time.Hour),
		AcknowledgedBy: "acc-coach", AcknowledgedAt: fixedTime.Add(-time.Hour),
	}

	athletes := newMockAthleteStore()
	athletes.athletes["a1"] = athlete.Athlete{ID: "a1", ClubID: "club-1", Name: "Isla", Email: "isla@email.com", AccountID: "acc-a1", Status: athlete.StatusActive}
	athletes.athletes["a2"] = athlete.Athlete{ID: "a2", ClubID: "club-1", Name: "Ben", Email: "ben@email.com", Status: athlete.StatusActive}
	athletes.athletes["a3"] = athlete.Athlete{ID: "a3", ClubID: "club-1", Name: "Ruby", Email: "ruby@email.com", AccountID: "acc-a3", Status: athlete.StatusActive}
	athletes.athletes["a4"] = athlete.Athlete{ID: "a4", ClubID: "club-1", Name: "Tom", Email: "tom@email.com", AccountID: "acc-a4", Status: athlete.StatusActive}

	return CancelSessionDeps{
		SessionStore:      sessions,
		AttendanceStore:   records,
		LeaveStore:        leaves,
		AthleteStore:      athletes,
		NotificationStore: newMockNotificationStore(),
		OutboxStore:       newMockOutboxStore(),
		GenerateID:        uniqueIDs(),
		Now:               fixedNow,
	}
}

// uniqueIDs returns a generator producing distinct IDs per call, for
// orchestrators that mint several records in one run.
func uniqueIDs() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("gen-id-%03d", n)
	}
}

// TestExecuteCancelSession_Valid tests cancellation and its fan-out.
func TestExecuteCancelSession_Valid(t *testing.T) {
	deps := cancelFixture()
	s, err := ExecuteCancelSession(context.Background(), CancelSessionInput{
		SessionID: "s1", Reason: "Coach unavailable", CancelledBy: "acc-admin",
	}, deps)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.Status != trainingsession.StatusCancelled {
		t.Errorf("expected status=cancelled, got %s", s.Status)
	}
	if s.CancelReason != "Coach unavailable" {
		t.Errorf("expected reason recorded, got %q", s.CancelReason)
	}
	if !s.CancelledAt.Equal(fixedTime) {
		t.Errorf("expected CancelledAt=%v, got %v", fixedTime, s.CancelledAt)
	}

	// Checked-in a1 and a3 (submitted leave) get in-app notices; a2 has
	// no login and a4's leave was already acknowledged.
	notifications := deps.NotificationStore.(*mockNotificationStore)
	if got := notifications.forRecipient(notification.RecipientAccount, "acc-a1"); len(got) != 1 {
		t.Errorf("expected 1 notification for a1, got %d", len(got))
	}
	if got := notifications.forRecipient(notification.RecipientAccount, "acc-a3"); len(got) != 1 {
		t.Errorf("expected 1 notification for a3, got %d", len(got))
	}
	if got := notifications.forRecipient(notification.RecipientAccount, "acc-a4"); len(got) != 0 {
		t.Errorf("expected no notification for a4, got %d", len(got))
	}

	// Emails still go to everyone affected, including a2.
	outboxEntries := deps.OutboxStore.(*mockOutboxStore)
	if len(outboxEntries.entries) != 3 {
		t.Errorf("expected 3 queued emails, got %d", len(outboxEntries.entries))
	}
	for _, e := range outboxEntries.entries {
		if !strings.Contains(e.Payload, "tom@email.com") {
			continue
		}
		t.Error("expected no email for acknowledged leave athlete")
	}
}

// TestExecuteCancelSession_Twice tests double cancellation refusal.
func TestExecuteCancelSession_Twice(t *testing.T) {
	deps := cancelFixture()
	if _, err := ExecuteCancelSession(context.Background(), CancelSessionInput{SessionID: "s1", Reason: "x"}, deps); err != nil {
		t.Fatalf("first cancel: unexpected error: %v", err)
	}

	_, err := ExecuteCancelSession(context.Background(), CancelSessionInput{SessionID: "s1", Reason: "y"}, deps)
	if !errors.Is(err, trainingsession.ErrAlreadyCancelled) {
		t.Fatalf("expected ErrAlreadyCancelled, got %v", err)
	}
}

// TestExecuteCancelSession_NoAttendees tests cancelling an empty session.
func TestExecuteCancelSession_NoAttendees(t *testing.T) {
	deps := cancelFixture()
	deps.AttendanceStore = newMockAttendanceStore()
	deps.LeaveStore = newMockLeaveStore()

	s, err := ExecuteCancelSession(context.Background(), CancelSessionInput{SessionID: "s1", Reason: "Storm"}, deps)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !s.IsCancelled() {
		t.Error("expected session cancelled")
	}
	if len(deps.OutboxStore.(*mockOutboxStore).entries) != 0 {
		t.Error("expected no emails queued")
	}
}

// TestExecuteCancelSession_NotFound tests cancelling a missing session.
func TestExecuteCancelSession_NotFound(t *testing.T) {
	deps := cancelFixture()
	_, err := ExecuteCancelSession(context.Background(), CancelSessionInput{SessionID: "ghost", Reason: "x"}, deps)
	if err == nil {
		t.Error("expected error for missing session")
	}
}
