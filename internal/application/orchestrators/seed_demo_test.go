package orchestrators

import (
	"context"
	"testing"

	"clubhouse/internal/domain/club"
	"clubhouse/internal/domain/trainingsession"
)

func demoDeps() DemoSeedDeps {
	return DemoSeedDeps{
		AccountStore:      newMockAccountStore(),
		ClubStore:         newMockClubStore(),
		AthleteStore:      newMockAthleteStore(),
		CoachStore:        newMockCoachStore(),
		SessionStore:      newMockSessionStore(),
		AttendanceStore:   newMockAttendanceStore(),
		LeaveStore:        newMockLeaveStore(),
		AnnouncementStore: newMockAnnouncementStore(),
		ApplicationStore:  newMockApplicationStore(),
		ParentStore:       newMockParentUserStore(),
		ConnectionStore:   newMockConnectionStore(),
	}
}

// TestExecuteSeedDemo_Populates tests the demo dataset lands: two
// clubs, a roster, a timetable with history, and the portal accounts.
func TestExecuteSeedDemo_Populates(t *testing.T) {
	deps := demoDeps()
	if err := ExecuteSeedDemo(context.Background(), deps, "acc-admin"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	clubs := deps.ClubStore.(*mockClubStore)
	if len(clubs.clubs) != 2 {
		t.Errorf("expected 2 clubs, got %d", len(clubs.clubs))
	}
	coaches := deps.CoachStore.(*mockCoachStore)
	if len(coaches.coaches) != 3 {
		t.Errorf("expected 3 coaches, got %d", len(coaches.coaches))
	}
	athletes := deps.AthleteStore.(*mockAthleteStore)
	if len(athletes.athletes) != 12 {
		t.Errorf("expected 12 athletes, got %d", len(athletes.athletes))
	}

	// Login accounts for one coach, one athlete, one parent.
	accounts := deps.AccountStore.(*mockAccountStore)
	if _, err := accounts.GetByEmail(context.Background(), "coach@clubhouse.nz"); err != nil {
		t.Error("expected coach demo account")
	}
	if _, err := accounts.GetByEmail(context.Background(), "kauri.t@email.com"); err != nil {
		t.Error("expected athlete demo account")
	}
	parents := deps.ParentStore.(*mockParentUserStore)
	if _, err := parents.GetByEmail(context.Background(), "parent@email.com"); err != nil {
		t.Error("expected parent demo account")
	}
	connections := deps.ConnectionStore.(*mockConnectionStore)
	if len(connections.connections) != 2 {
		t.Errorf("expected parent linked to 2 athletes, got %d links", len(connections.connections))
	}

	// The timetable includes one upcoming cancellation.
	sessions := deps.SessionStore.(*mockSessionStore)
	if len(sessions.sessions) == 0 {
		t.Fatal("expected sessions seeded")
	}
	var cancelled int
	for _, s := range sessions.sessions {
		if s.Status == trainingsession.StatusCancelled {
			cancelled++
		}
	}
	if cancelled != 1 {
		t.Errorf("expected exactly 1 cancelled session, got %d", cancelled)
	}

	attendanceStore := deps.AttendanceStore.(*mockAttendanceStore)
	if len(attendanceStore.records) == 0 {
		t.Error("expected attendance history seeded")
	}
	announcements := deps.AnnouncementStore.(*mockAnnouncementStore)
	if len(announcements.announcements) != 4 {
		t.Errorf("expected 4 announcements, got %d", len(announcements.announcements))
	}
	applications := deps.ApplicationStore.(*mockApplicationStore)
	if len(applications.applications) != 1 {
		t.Errorf("expected 1 pending application, got %d", len(applications.applications))
	}
	leaves := deps.LeaveStore.(*mockLeaveStore)
	if len(leaves.requests) != 1 {
		t.Errorf("expected 1 pending leave request, got %d", len(leaves.requests))
	}
}

// TestExecuteSeedDemo_SkipsWhenSeeded tests the idempotency guard.
func TestExecuteSeedDemo_SkipsWhenSeeded(t *testing.T) {
	deps := demoDeps()
	clubs := deps.ClubStore.(*mockClubStore)
	clubs.clubs["club-1"] = club.Club{ID: "club-1", Name: "Existing Club", Code: "existing", CreatedAt: fixedTime}

	if err := ExecuteSeedDemo(context.Background(), deps, "acc-admin"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	athletes := deps.AthleteStore.(*mockAthleteStore)
	if len(athletes.athletes) != 0 {
		t.Errorf("expected nothing seeded over existing data, got %d athletes", len(athletes.athletes))
	}
	if len(clubs.clubs) != 1 {
		t.Errorf("expected club list untouched, got %d clubs", len(clubs.clubs))
	}
}
