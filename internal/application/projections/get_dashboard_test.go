package projections

import (
	"context"
	"testing"
	"time"

	"clubhouse/internal/adapters/storage/athlete"
	"clubhouse/internal/adapters/storage/membership"
	"clubhouse/internal/adapters/storage/trainingsession"
	domainAthlete "clubhouse/internal/domain/athlete"
	domainAttendance "clubhouse/internal/domain/attendance"
	domainClub "clubhouse/internal/domain/club"
	domainCoach "clubhouse/internal/domain/coach"
	domainLeave "clubhouse/internal/domain/leaverequest"
	domainMembership "clubhouse/internal/domain/membership"
	domainNotification "clubhouse/internal/domain/notification"
	domainOutbox "clubhouse/internal/domain/outbox"
	domainSession "clubhouse/internal/domain/trainingsession"
)

type mockGetDashboardSessionStore struct {
	sessions []domainSession.Session
}

// GetByID returns a seeded session by ID.
// PRE: id is non-empty
// POST: Returns the seeded session or an error
func (m *mockGetDashboardSessionStore) GetByID(_ context.Context, id string) (domainSession.Session, error) {
	for _, s := range m.sessions {
		if s.ID == id {
			return s, nil
		}
	}
	return domainSession.Session{}, context.DeadlineExceeded
}

// List returns seeded sessions matching the filter.
// PRE: filter is valid
// POST: Returns sessions narrowed by club, status, and dates
func (m *mockGetDashboardSessionStore) List(_ context.Context, filter trainingsession.ListFilter) ([]domainSession.Session, error) {
	var out []domainSession.Session
	for _, s := range m.sessions {
		if filter.ClubID != "" && s.ClubID != filter.ClubID {
			continue
		}
		if filter.Status != "" && s.Status != filter.Status {
			continue
		}
		if filter.DateFrom != "" && s.Date < filter.DateFrom {
			continue
		}
		if filter.DateTo != "" && s.Date > filter.DateTo {
			continue
		}
		out = append(out, s)
	}
	return out, nil
}

type mockGetDashboardCoachStore struct {
	coaches map[string]domainCoach.Coach
}

// GetByID returns a seeded coach by ID.
// PRE: id is non-empty
// POST: Returns the seeded coach or an error
func (m *mockGetDashboardCoachStore) GetByID(_ context.Context, id string) (domainCoach.Coach, error) {
	c, ok := m.coaches[id]
	if !ok {
		return domainCoach.Coach{}, context.DeadlineExceeded
	}
	return c, nil
}

type mockGetDashboardNotificationStore struct {
	unread map[string]int // recipientKind/recipientID -> count
}

// ListByRecipient returns no notifications; the dashboard only counts.
// PRE: recipientKind and recipientID are non-empty
// POST: Returns an empty list
func (m *mockGetDashboardNotificationStore) ListByRecipient(_ context.Context, _, _ string, _ int) ([]domainNotification.Notification, error) {
	return nil, nil
}

// CountUnread returns the seeded unread count for the recipient.
// PRE: recipientKind and recipientID are non-empty
// POST: Returns count >= 0
func (m *mockGetDashboardNotificationStore) CountUnread(_ context.Context, recipientKind, recipientID string) (int, error) {
	return m.unread[recipientKind+"/"+recipientID], nil
}

type mockGetDashboardApplicationStore struct {
	applications []domainMembership.Application
}

// List returns seeded applications matching the filter.
// PRE: filter is valid
// POST: Returns matching applications in seeded order
func (m *mockGetDashboardApplicationStore) List(_ context.Context, filter membership.ListFilter) ([]domainMembership.Application, error) {
	return m.match(filter), nil
}

// Count returns the number of seeded applications matching the filter.
// PRE: filter is valid
// POST: Returns count >= 0
func (m *mockGetDashboardApplicationStore) Count(_ context.Context, filter membership.ListFilter) (int, error) {
	return len(m.match(filter)), nil
}

func (m *mockGetDashboardApplicationStore) match(filter membership.ListFilter) []domainMembership.Application {
	var out []domainMembership.Application
	for _, app := range m.applications {
		if filter.ClubID != "" && app.ClubID != filter.ClubID {
			continue
		}
		if filter.Status != "" && app.Status != filter.Status {
			continue
		}
		out = append(out, app)
	}
	return out
}

type mockGetDashboardAthleteStore struct {
	athletes map[string]domainAthlete.Athlete
}

// GetByID returns a seeded athlete by ID.
// PRE: id is non-empty
// POST: Returns the seeded athlete or an error
func (m *mockGetDashboardAthleteStore) GetByID(_ context.Context, id string) (domainAthlete.Athlete, error) {
	a, ok := m.athletes[id]
	if !ok {
		return domainAthlete.Athlete{}, context.DeadlineExceeded
	}
	return a, nil
}

// List returns seeded athletes matching the filter.
// PRE: filter is valid
// POST: Returns athletes narrowed by club and status
func (m *mockGetDashboardAthleteStore) List(_ context.Context, filter athlete.ListFilter) ([]domainAthlete.Athlete, error) {
	var out []domainAthlete.Athlete
	for _, a := range m.athletes {
		if filter.ClubID != "" && a.ClubID != filter.ClubID {
			continue
		}
		if filter.Status != "" && a.Status != filter.Status {
			continue
		}
		out = append(out, a)
	}
	return out, nil
}

// Count returns the number of seeded athletes matching the filter.
// PRE: filter is valid
// POST: Returns count >= 0
func (m *mockGetDashboardAthleteStore) Count(ctx context.Context, filter athlete.ListFilter) (int, error) {
	matched, _ := m.List(ctx, filter)
	return len(matched), nil
}

type mockGetDashboardClubStore struct {
	clubs map[string]domainClub.Club
}

// GetByID returns a seeded club by ID.
// PRE: id is non-empty
// POST: Returns the seeded club or an error
func (m *mockGetDashboardClubStore) GetByID(_ context.Context, id string) (domainClub.Club, error) {
	c, ok := m.clubs[id]
	if !ok {
		return domainClub.Club{}, context.DeadlineExceeded
	}
	return c, nil
}

// List returns all seeded clubs.
// PRE: none
// POST: Returns all seeded clubs
func (m *mockGetDashboardClubStore) List(_ context.Context) ([]domainClub.Club, error) {
	var out []domainClub.Club
	for _, c := range m.clubs {
		out = append(out, c)
	}
	return out, nil
}

type mockGetDashboardLeaveStore struct {
	requests []domainLeave.Request
}

// ListBySessionID returns seeded leave requests for the session.
// PRE: sessionID is non-empty
// POST: Returns matching requests in seeded order
func (m *mockGetDashboardLeaveStore) ListBySessionID(_ context.Context, sessionID string) ([]domainLeave.Request, error) {
	var out []domainLeave.Request
	for _, lr := range m.requests {
		if lr.SessionID == sessionID {
			out = append(out, lr)
		}
	}
	return out, nil
}

// ListByAthleteID returns seeded leave requests for the athlete.
// PRE: athleteID is non-empty
// POST: Returns matching requests in seeded order
func (m *mockGetDashboardLeaveStore) ListByAthleteID(_ context.Context, athleteID string, _ int) ([]domainLeave.Request, error) {
	var out []domainLeave.Request
	for _, lr := range m.requests {
		if lr.AthleteID == athleteID {
			out = append(out, lr)
		}
	}
	return out, nil
}

type mockGetDashboardAttendanceStore struct {
	records []domainAttendance.Record
}

// ListBySessionID returns seeded records for the session.
// PRE: sessionID is non-empty
// POST: Returns matching records in seeded order
func (m *mockGetDashboardAttendanceStore) ListBySessionID(_ context.Context, sessionID string) ([]domainAttendance.Record, error) {
	var out []domainAttendance.Record
	for _, r := range m.records {
		if r.SessionID == sessionID {
			out = append(out, r)
		}
	}
	return out, nil
}

// ListByAthleteID returns seeded records for the athlete.
// PRE: athleteID is non-empty
// POST: Returns matching records in seeded order
func (m *mockGetDashboardAttendanceStore) ListByAthleteID(_ context.Context, athleteID string, _ int) ([]domainAttendance.Record, error) {
	var out []domainAttendance.Record
	for _, r := range m.records {
		if r.AthleteID == athleteID {
			out = append(out, r)
		}
	}
	return out, nil
}

type mockGetDashboardCoachLookup struct {
	byAccount map[string]domainCoach.Coach
}

// GetByAccountID returns the seeded coach behind the account.
// PRE: accountID is non-empty
// POST: Returns the seeded coach or an error
func (m *mockGetDashboardCoachLookup) GetByAccountID(_ context.Context, accountID string) (domainCoach.Coach, error) {
	c, ok := m.byAccount[accountID]
	if !ok {
		return domainCoach.Coach{}, context.DeadlineExceeded
	}
	return c, nil
}

type mockGetDashboardAthleteLookup struct {
	byAccount map[string]domainAthlete.Athlete
}

// GetByAccountID returns the seeded athlete behind the account.
// PRE: accountID is non-empty
// POST: Returns the seeded athlete or an error
func (m *mockGetDashboardAthleteLookup) GetByAccountID(_ context.Context, accountID string) (domainAthlete.Athlete, error) {
	a, ok := m.byAccount[accountID]
	if !ok {
		return domainAthlete.Athlete{}, context.DeadlineExceeded
	}
	return a, nil
}

type mockGetDashboardOutboxStore struct {
	failed []domainOutbox.Entry
}

// ListFailed returns the seeded failed entries.
// PRE: limit > 0
// POST: Returns at most limit entries
func (m *mockGetDashboardOutboxStore) ListFailed(_ context.Context, limit int) ([]domainOutbox.Entry, error) {
	if limit > 0 && len(m.failed) > limit {
		return m.failed[:limit], nil
	}
	return m.failed, nil
}

// dashboardNow is the fixed clock for dashboard tests; "today" is 2026-03-01.
var dashboardNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

// TestQueryGetDashboard_Admin verifies the admin home aggregates club-wide counts.
func TestQueryGetDashboard_Admin(t *testing.T) {
	deps := GetDashboardDeps{
		SessionsDeps: GetSessionsDeps{
			SessionStore: &mockGetDashboardSessionStore{sessions: []domainSession.Session{
				{ID: "s1", ClubID: "club-1", CoachID: "c1", Title: "Sprint drills", Date: "2026-03-01", StartTime: "15:00", Status: domainSession.StatusScheduled},
				{ID: "s2", ClubID: "club-2", CoachID: "c1", Title: "Distance block", Date: "2026-03-02", StartTime: "09:00", Status: domainSession.StatusScheduled},
			}},
			CoachStore: &mockGetDashboardCoachStore{coaches: map[string]domainCoach.Coach{}},
		},
		NotificationStore: &mockGetDashboardNotificationStore{unread: map[string]int{
			domainNotification.RecipientAccount + "/acct-admin": 3,
		}},
		ApplicationStore: &mockGetDashboardApplicationStore{applications: []domainMembership.Application{
			{ID: "app-1", ClubID: "club-1", Status: domainMembership.StatusPending},
			{ID: "app-2", ClubID: "club-2", Status: domainMembership.StatusPending},
			{ID: "app-3", ClubID: "club-1", Status: domainMembership.StatusApproved},
		}},
		AthleteStore: &mockGetDashboardAthleteStore{athletes: map[string]domainAthlete.Athlete{
			"a1": {ID: "a1", ClubID: "club-1", Status: domainAthlete.StatusActive},
			"a2": {ID: "a2", ClubID: "club-2", Status: domainAthlete.StatusActive},
			"a3": {ID: "a3", ClubID: "club-1", Status: domainAthlete.StatusArchived},
		}},
		ClubStore: &mockGetDashboardClubStore{clubs: map[string]domainClub.Club{
			"club-1": {ID: "club-1", Name: "Harbour City"},
			"club-2": {ID: "club-2", Name: "Westgate Swim"},
		}},
		LeaveStore:  &mockGetDashboardLeaveStore{},
		OutboxStore: &mockGetDashboardOutboxStore{failed: []domainOutbox.Entry{{ID: "ob-1", Status: "failed"}}},
		Location:    time.UTC,
	}

	res, err := QueryGetDashboard(context.Background(), GetDashboardQuery{Role: "admin", AccountID: "acct-admin"}, deps, dashboardNow)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.UnreadCount != 3 {
		t.Fatalf("unread=%d want 3", res.UnreadCount)
	}
	if len(res.TodaysSessions) != 1 || res.TodaysSessions[0].Session.ID != "s1" {
		t.Fatalf("today's sessions=%v want [s1]", res.TodaysSessions)
	}
	if res.ClubCount != 2 {
		t.Fatalf("clubs=%d want 2", res.ClubCount)
	}
	if res.ActiveAthletes != 2 {
		t.Fatalf("active athletes=%d want 2", res.ActiveAthletes)
	}
	if res.PendingApplications != 2 {
		t.Fatalf("pending applications=%d want 2", res.PendingApplications)
	}
	if res.FailedOutbox != 1 {
		t.Fatalf("failed outbox=%d want 1", res.FailedOutbox)
	}
}

// TestQueryGetDashboard_Coach verifies the coach home narrows to their club
// and counts pending leave on today's sessions.
func TestQueryGetDashboard_Coach(t *testing.T) {
	deps := GetDashboardDeps{
		SessionsDeps: GetSessionsDeps{
			SessionStore: &mockGetDashboardSessionStore{sessions: []domainSession.Session{
				{ID: "s1", ClubID: "club-1", CoachID: "c1", Title: "Sprint drills", Date: "2026-03-01", StartTime: "15:00", Status: domainSession.StatusScheduled},
				{ID: "s2", ClubID: "club-2", CoachID: "c2", Title: "Distance block", Date: "2026-03-01", StartTime: "09:00", Status: domainSession.StatusScheduled},
			}},
			CoachStore: &mockGetDashboardCoachStore{coaches: map[string]domainCoach.Coach{}},
		},
		NotificationStore: &mockGetDashboardNotificationStore{},
		ApplicationStore: &mockGetDashboardApplicationStore{applications: []domainMembership.Application{
			{ID: "app-1", ClubID: "club-1", Status: domainMembership.StatusPending},
			{ID: "app-2", ClubID: "club-2", Status: domainMembership.StatusPending},
		}},
		AthleteStore: &mockGetDashboardAthleteStore{},
		ClubStore:    &mockGetDashboardClubStore{},
		LeaveStore: &mockGetDashboardLeaveStore{requests: []domainLeave.Request{
			{ID: "lr-1", SessionID: "s1", AthleteID: "a1", Status: domainLeave.StatusSubmitted},
			{ID: "lr-2", SessionID: "s1", AthleteID: "a2", Status: domainLeave.StatusSubmitted},
			{ID: "lr-3", SessionID: "s1", AthleteID: "a3", Status: domainLeave.StatusAcknowledged},
		}},
		CoachLookup: &mockGetDashboardCoachLookup{byAccount: map[string]domainCoach.Coach{
			"acct-coach": {ID: "c1", ClubID: "club-1", Name: "Mere Kingi"},
		}},
		Location: time.UTC,
	}

	res, err := QueryGetDashboard(context.Background(), GetDashboardQuery{Role: "coach", AccountID: "acct-coach"}, deps, dashboardNow)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.CoachClubID != "club-1" {
		t.Fatalf("coach club=%s want club-1", res.CoachClubID)
	}
	if len(res.TodaysSessions) != 1 || res.TodaysSessions[0].Session.ID != "s1" {
		t.Fatalf("today's sessions=%v want [s1]", res.TodaysSessions)
	}
	if res.PendingLeaves != 2 {
		t.Fatalf("pending leaves=%d want 2", res.PendingLeaves)
	}
	if res.PendingApplications != 1 {
		t.Fatalf("pending applications=%d want 1", res.PendingApplications)
	}
}

// TestQueryGetDashboard_CoachWithoutRecord verifies a missing coach record
// degrades to an empty dashboard instead of an error.
func TestQueryGetDashboard_CoachWithoutRecord(t *testing.T) {
	deps := GetDashboardDeps{
		SessionsDeps: GetSessionsDeps{
			SessionStore: &mockGetDashboardSessionStore{},
			CoachStore:   &mockGetDashboardCoachStore{},
		},
		NotificationStore: &mockGetDashboardNotificationStore{unread: map[string]int{
			domainNotification.RecipientAccount + "/acct-orphan": 1,
		}},
		ApplicationStore: &mockGetDashboardApplicationStore{},
		AthleteStore:     &mockGetDashboardAthleteStore{},
		ClubStore:        &mockGetDashboardClubStore{},
		LeaveStore:       &mockGetDashboardLeaveStore{},
		CoachLookup:      &mockGetDashboardCoachLookup{},
		Location:         time.UTC,
	}

	res, err := QueryGetDashboard(context.Background(), GetDashboardQuery{Role: "coach", AccountID: "acct-orphan"}, deps, dashboardNow)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.UnreadCount != 1 {
		t.Fatalf("unread=%d want 1", res.UnreadCount)
	}
	if res.CoachClubID != "" || len(res.TodaysSessions) != 0 {
		t.Fatalf("expected empty coach dashboard, got club=%q sessions=%d", res.CoachClubID, len(res.TodaysSessions))
	}
}

// TestQueryGetDashboard_Athlete verifies the athlete home shows today,
// the next week of sessions, and recent check-ins.
func TestQueryGetDashboard_Athlete(t *testing.T) {
	sessionStore := &mockGetDashboardSessionStore{sessions: []domainSession.Session{
		{ID: "s1", ClubID: "club-1", CoachID: "c1", Title: "Sprint drills", Date: "2026-03-01", StartTime: "15:00", Status: domainSession.StatusScheduled},
		{ID: "s2", ClubID: "club-1", CoachID: "c1", Title: "Distance block", Date: "2026-03-03", StartTime: "09:00", Status: domainSession.StatusScheduled},
		{ID: "s3", ClubID: "club-1", CoachID: "c1", Title: "Time trials", Date: "2026-03-12", StartTime: "09:00", Status: domainSession.StatusScheduled},
		{ID: "s4", ClubID: "club-1", CoachID: "c1", Title: "Pool recovery", Date: "2026-02-20", StartTime: "08:00", Status: domainSession.StatusScheduled},
	}}
	athleteStore := &mockGetDashboardAthleteStore{athletes: map[string]domainAthlete.Athlete{
		"a1": {ID: "a1", ClubID: "club-1", Name: "Noa Brightwater", Status: domainAthlete.StatusActive},
	}}
	deps := GetDashboardDeps{
		SessionsDeps: GetSessionsDeps{
			SessionStore: sessionStore,
			CoachStore:   &mockGetDashboardCoachStore{coaches: map[string]domainCoach.Coach{}},
		},
		ProfileDeps: GetAthleteProfileDeps{
			AthleteStore: athleteStore,
			AttendanceStore: &mockGetDashboardAttendanceStore{records: []domainAttendance.Record{
				{ID: "att-1", SessionID: "s4", AthleteID: "a1", CheckedInAt: dashboardNow.AddDate(0, 0, -9), Method: domainAttendance.MethodSelf},
			}},
			LeaveStore:   &mockGetDashboardLeaveStore{},
			SessionStore: sessionStore,
		},
		NotificationStore: &mockGetDashboardNotificationStore{},
		ApplicationStore:  &mockGetDashboardApplicationStore{},
		AthleteStore:      athleteStore,
		ClubStore:         &mockGetDashboardClubStore{},
		LeaveStore:        &mockGetDashboardLeaveStore{},
		AthleteLookup: &mockGetDashboardAthleteLookup{byAccount: map[string]domainAthlete.Athlete{
			"acct-athlete": {ID: "a1", ClubID: "club-1", Name: "Noa Brightwater", Status: domainAthlete.StatusActive},
		}},
		Location: time.UTC,
	}

	res, err := QueryGetDashboard(context.Background(), GetDashboardQuery{Role: "athlete", AccountID: "acct-athlete"}, deps, dashboardNow)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.AthleteID != "a1" {
		t.Fatalf("athlete=%s want a1", res.AthleteID)
	}
	if len(res.TodaysSessions) != 1 || res.TodaysSessions[0].Session.ID != "s1" {
		t.Fatalf("today's sessions=%v want [s1]", res.TodaysSessions)
	}
	if len(res.UpcomingSessions) != 1 || res.UpcomingSessions[0].Session.ID != "s2" {
		t.Fatalf("upcoming sessions=%v want [s2]", res.UpcomingSessions)
	}
	if len(res.RecentAttendance) != 1 {
		t.Fatalf("recent attendance=%d want 1", len(res.RecentAttendance))
	}
	if res.RecentAttendance[0].SessionTitle != "Pool recovery" {
		t.Fatalf("attendance session=%q want Pool recovery", res.RecentAttendance[0].SessionTitle)
	}
}
