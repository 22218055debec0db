package orchestrators

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"clubhouse/internal/domain/announcement"
	"clubhouse/internal/domain/athlete"
	"clubhouse/internal/domain/club"
	"clubhouse/internal/domain/coach"
	"clubhouse/internal/domain/featureflag"
	"clubhouse/internal/domain/notification"
	"clubhouse/internal/domain/parent"
)

// mockAnnouncementStore is a map-backed announcement store.
type mockAnnouncementStore struct {
	announcements map[string]announcement.Announcement
}

func newMockAnnouncementStore() *mockAnnouncementStore {
	return &mockAnnouncementStore{announcements: make(map[string]announcement.Announcement)}
}

func (m *mockAnnouncementStore) GetByID(_ context.Context, id string) (announcement.Announcement, error) {
	a, ok := m.announcements[id]
	if !ok {
		return announcement.Announcement{}, errors.New("not found")
	}
	return a, nil
}

func (m *mockAnnouncementStore) Save(_ context.Context, a announcement.Announcement) error {
	m.announcements[a.ID] = a
	return nil
}

func draftAnnouncement(id, clubID, audience string) announcement.Announcement {
	return announcement.Announcement{
		ID:        id,
		ClubID:    clubID,
		Audience:  audience,
		Status:    announcement.StatusDraft,
		Title:     "Club champs entries open",
		Body:      "Entries close Friday. See the noticeboard for event details.",
		CreatedBy: "acc-admin",
		CreatedAt: fixedTime.Add(-time.Hour),
		UpdatedAt: fixedTime.Add(-time.Hour),
	}
}

func createAnnouncementFixture() CreateAnnouncementDeps {
	clubs := newMockClubStore()
	clubs.clubs["club-1"] = club.Club{ID: "club-1", Name: "Harbour City Athletics", Code: "harbour-city", CreatedAt: fixedTime}
	return CreateAnnouncementDeps{
		AnnouncementStore: newMockAnnouncementStore(),
		ClubStore:         clubs,
		GenerateID:        fixedID,
		Now:               fixedNow,
	}
}

// publishFixture wires a full audience: two active athletes (one without
// a portal account), one coach, one archived coach, and a parent linked
// to the first athlete.
func publishFixture(t *testing.T) PublishAnnouncementDeps {
	t.Helper()

	clubs := newMockClubStore()
	clubs.clubs["club-1"] = club.Club{ID: "club-1", Name: "Harbour City Athletics", Code: "harbour-city", CreatedAt: fixedTime}

	announcements := newMockAnnouncementStore()
	announcements.announcements["ann-1"] = draftAnnouncement("ann-1", "club-1", announcement.AudienceClub)

	athletes := newMockAthleteStore()
	athletes.athletes["a1"] = athlete.Athlete{
		ID: "a1", ClubID: "club-1", Name: "Isla Chen", Email: "isla@email.com",
		AccountID: "acc-a1", Status: athlete.StatusActive, CreatedAt: fixedTime,
	}
	athletes.athletes["a2"] = athlete.Athlete{
		ID: "a2", ClubID: "club-1", Name: "Ben Wu", Email: "ben@email.com",
		Status: athlete.StatusActive, CreatedAt: fixedTime,
	}
	athletes.athletes["a3"] = athlete.Athlete{
		ID: "a3", ClubID: "club-1", Name: "Gone Girl", Email: "gone@email.com",
		AccountID: "acc-a3", Status: athlete.StatusArchived, CreatedAt: fixedTime,
	}

	coaches := newMockCoachStore()
	coaches.coaches["c1"] = coach.Coach{
		ID: "c1", ClubID: "club-1", Name: "Mere Kingi", Email: "mere@clubhouse.nz",
		AccountID: "acc-coach", Status: coach.StatusActive, CreatedAt: fixedTime,
	}
	coaches.coaches["c2"] = coach.Coach{
		ID: "c2", ClubID: "club-1", Name: "Old Coach", Email: "old@clubhouse.nz",
		AccountID: "acc-old", Status: coach.StatusArchived, CreatedAt: fixedTime,
	}

	parents := newMockParentUserStore()
	seedParent(t, parents, "p1", "dana@email.com", "a-long-parent-pass")
	connections := newMockConnectionStore()
	connections.connections["conn-1"] = parent.Connection{
		ID: "conn-1", ParentID: "p1", AthleteID: "a1", Relationship: "mother", CreatedAt: fixedTime,
	}

	return PublishAnnouncementDeps{
		AnnouncementStore: announcements,
		ClubStore:         clubs,
		AthleteStore:      athletes,
		CoachStore:        coaches,
		ConnectionStore:   connections,
		ParentStore:       parents,
		NotificationStore: newMockNotificationStore(),
		OutboxStore:       newMockOutboxStore(),
		FlagStore:         newMockFlagStore(),
		GenerateID:        uniqueIDs(),
		Now:               fixedNow,
	}
}

// TestExecuteCreateAnnouncement_Valid tests drafting a notice.
func TestExecuteCreateAnnouncement_Valid(t *testing.T) {
	deps := createAnnouncementFixture()
	created, err := ExecuteCreateAnnouncement(context.Background(), CreateAnnouncementInput{
		ClubID:    "club-1",
		Audience:  announcement.AudienceClub,
		Title:     "Pool closed Monday",
		Body:      "Maintenance day. Dryland session instead.",
		Color:     announcement.ColorBlue,
		CreatedBy: "acc-admin",
	}, deps)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if created.Status != announcement.StatusDraft {
		t.Errorf("expected draft status, got %s", created.Status)
	}
	if !created.CreatedAt.Equal(fixedTime) || !created.UpdatedAt.Equal(fixedTime) {
		t.Error("expected timestamps set from clock")
	}

	store := deps.AnnouncementStore.(*mockAnnouncementStore)
	if _, ok := store.announcements["test-id-001"]; !ok {
		t.Error("expected draft to be saved")
	}
}

// TestExecuteCreateAnnouncement_MissingAuthor tests the author guard.
func TestExecuteCreateAnnouncement_MissingAuthor(t *testing.T) {
	deps := createAnnouncementFixture()
	_, err := ExecuteCreateAnnouncement(context.Background(), CreateAnnouncementInput{
		Audience: announcement.AudienceClub, Title: "T", Body: "B",
	}, deps)
	if err == nil {
		t.Fatal("expected error for missing author")
	}
}

// TestExecuteCreateAnnouncement_UnknownClub tests club scoping.
func TestExecuteCreateAnnouncement_UnknownClub(t *testing.T) {
	deps := createAnnouncementFixture()
	_, err := ExecuteCreateAnnouncement(context.Background(), CreateAnnouncementInput{
		ClubID: "ghost", Audience: announcement.AudienceClub,
		Title: "T", Body: "B", CreatedBy: "acc-admin",
	}, deps)
	if err == nil {
		t.Fatal("expected error for unknown club")
	}
}

// TestExecuteCreateAnnouncement_BadAudience tests audience validation.
func TestExecuteCreateAnnouncement_BadAudience(t *testing.T) {
	deps := createAnnouncementFixture()
	_, err := ExecuteCreateAnnouncement(context.Background(), CreateAnnouncementInput{
		Audience: "everyone", Title: "T", Body: "B", CreatedBy: "acc-admin",
	}, deps)
	if !errors.Is(err, announcement.ErrInvalidAudience) {
		t.Fatalf("expected ErrInvalidAudience, got %v", err)
	}
}

// TestExecuteEditAnnouncement_Valid tests the partial update rules:
// blank text keeps the current value, the visibility window and
// ShowAuthor are always overwritten.
func TestExecuteEditAnnouncement_Valid(t *testing.T) {
	deps := createAnnouncementFixture()
	store := deps.AnnouncementStore.(*mockAnnouncementStore)
	store.announcements["ann-1"] = draftAnnouncement("ann-1", "club-1", announcement.AudienceClub)

	until := fixedTime.Add(72 * time.Hour)
	updated, err := ExecuteEditAnnouncement(context.Background(), EditAnnouncementInput{
		AnnouncementID: "ann-1",
		Audience:       announcement.AudienceAthletes,
		ShowAuthor:     true,
		VisibleUntil:   until,
	}, deps)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if updated.Title != "Club champs entries open" {
		t.Errorf("expected title kept, got %s", updated.Title)
	}
	if updated.Audience != announcement.AudienceAthletes {
		t.Errorf("expected audience updated, got %s", updated.Audience)
	}
	if !updated.ShowAuthor {
		t.Error("expected ShowAuthor overwritten")
	}
	if !updated.VisibleUntil.Equal(until) {
		t.Error("expected visibility window overwritten")
	}
	if !updated.UpdatedAt.Equal(fixedTime) {
		t.Error("expected UpdatedAt refreshed")
	}
	if updated.ClubID != "club-1" {
		t.Error("expected club scope unchanged")
	}
}

// TestExecuteEditAnnouncement_NotFound tests editing a missing entry.
func TestExecuteEditAnnouncement_NotFound(t *testing.T) {
	deps := createAnnouncementFixture()
	_, err := ExecuteEditAnnouncement(context.Background(), EditAnnouncementInput{AnnouncementID: "ghost"}, deps)
	if err == nil {
		t.Fatal("expected error for unknown announcement")
	}
}

// TestExecutePublishAnnouncement_FanOut tests the in-app fan-out for a
// whole-club announcement: active athletes with accounts, linked
// parents, and active coaches. The email broadcast flag is off, so no
// outbox entries are written.
func TestExecutePublishAnnouncement_FanOut(t *testing.T) {
	deps := publishFixture(t)
	published, err := ExecutePublishAnnouncement(context.Background(), PublishAnnouncementInput{
		AnnouncementID: "ann-1", PublishedBy: "acc-admin",
	}, deps)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !published.IsPublished() {
		t.Error("expected announcement published")
	}
	if published.PublishedBy != "acc-admin" || !published.PublishedAt.Equal(fixedTime) {
		t.Error("expected publisher and timestamp recorded")
	}

	notifications := deps.NotificationStore.(*mockNotificationStore)
	if got := len(notifications.forRecipient(notification.RecipientAccount, "acc-a1")); got != 1 {
		t.Errorf("expected 1 notification for athlete account, got %d", got)
	}
	if got := len(notifications.forRecipient(notification.RecipientParent, "p1")); got != 1 {
		t.Errorf("expected 1 notification for linked parent, got %d", got)
	}
	if got := len(notifications.forRecipient(notification.RecipientAccount, "acc-coach")); got != 1 {
		t.Errorf("expected 1 notification for coach, got %d", got)
	}
	if got := len(notifications.forRecipient(notification.RecipientAccount, "acc-old")); got != 0 {
		t.Errorf("expected archived coach skipped, got %d notifications", got)
	}
	if got := len(notifications.forRecipient(notification.RecipientAccount, "acc-a3")); got != 0 {
		t.Errorf("expected archived athlete skipped, got %d notifications", got)
	}

	outboxStore := deps.OutboxStore.(*mockOutboxStore)
	if len(outboxStore.entries) != 0 {
		t.Errorf("expected no emails while broadcast flag is off, got %d", len(outboxStore.entries))
	}
}

// TestExecutePublishAnnouncement_EmailBroadcast tests the outbox fan-out
// when the broadcast flag is enabled. Athletes without portal accounts
// still get email.
func TestExecutePublishAnnouncement_EmailBroadcast(t *testing.T) {
	deps := publishFixture(t)
	deps.FlagStore = newMockFlagStore(featureflag.FeatureFlag{
		Key: featureflag.KeyEmailBroadcast, Enabled: true, EnabledAdmin: true,
	})

	if _, err := ExecutePublishAnnouncement(context.Background(), PublishAnnouncementInput{
		AnnouncementID: "ann-1", PublishedBy: "acc-admin",
	}, deps); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	outboxStore := deps.OutboxStore.(*mockOutboxStore)
	if len(outboxStore.entries) != 4 {
		t.Fatalf("expected 4 queued emails, got %d", len(outboxStore.entries))
	}
	var sawBen bool
	for _, entry := range outboxStore.entries {
		if strings.Contains(entry.Payload, "ben@email.com") {
			sawBen = true
		}
	}
	if !sawBen {
		t.Error("expected athlete without account to still receive email")
	}
}

// TestExecutePublishAnnouncement_ParentDeduped tests that a parent
// linked to several athletes in the audience is notified once.
func TestExecutePublishAnnouncement_ParentDeduped(t *testing.T) {
	deps := publishFixture(t)
	connections := deps.ConnectionStore.(*mockConnectionStore)
	connections.connections["conn-2"] = parent.Connection{
		ID: "conn-2", ParentID: "p1", AthleteID: "a2", Relationship: "mother", CreatedAt: fixedTime,
	}

	if _, err := ExecutePublishAnnouncement(context.Background(), PublishAnnouncementInput{
		AnnouncementID: "ann-1", PublishedBy: "acc-admin",
	}, deps); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	notifications := deps.NotificationStore.(*mockNotificationStore)
	if got := len(notifications.forRecipient(notification.RecipientParent, "p1")); got != 1 {
		t.Errorf("expected parent notified once across children, got %d", got)
	}
}

// TestExecutePublishAnnouncement_CoachAudience tests a coaches-only
// announcement.
func TestExecutePublishAnnouncement_CoachAudience(t *testing.T) {
	deps := publishFixture(t)
	store := deps.AnnouncementStore.(*mockAnnouncementStore)
	store.announcements["ann-1"] = draftAnnouncement("ann-1", "club-1", announcement.AudienceCoaches)

	if _, err := ExecutePublishAnnouncement(context.Background(), PublishAnnouncementInput{
		AnnouncementID: "ann-1", PublishedBy: "acc-admin",
	}, deps); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	notifications := deps.NotificationStore.(*mockNotificationStore)
	if got := len(notifications.notifications); got != 1 {
		t.Fatalf("expected only the coach notified, got %d notifications", got)
	}
	if got := len(notifications.forRecipient(notification.RecipientAccount, "acc-coach")); got != 1 {
		t.Errorf("expected coach notification, got %d", got)
	}
}

// TestExecutePublishAnnouncement_Twice tests the one-publish rule.
func TestExecutePublishAnnouncement_Twice(t *testing.T) {
	deps := publishFixture(t)
	if _, err := ExecutePublishAnnouncement(context.Background(), PublishAnnouncementInput{
		AnnouncementID: "ann-1", PublishedBy: "acc-admin",
	}, deps); err != nil {
		t.Fatalf("unexpected error on first publish: %v", err)
	}

	_, err := ExecutePublishAnnouncement(context.Background(), PublishAnnouncementInput{
		AnnouncementID: "ann-1", PublishedBy: "acc-admin",
	}, deps)
	if !errors.Is(err, announcement.ErrAlreadyPublished) {
		t.Fatalf("expected ErrAlreadyPublished, got %v", err)
	}
}

// TestExecutePublishAnnouncement_NoPublisher tests the publisher guard.
func TestExecutePublishAnnouncement_NoPublisher(t *testing.T) {
	deps := publishFixture(t)
	_, err := ExecutePublishAnnouncement(context.Background(), PublishAnnouncementInput{
		AnnouncementID: "ann-1",
	}, deps)
	if !errors.Is(err, announcement.ErrNoPublisher) {
		t.Fatalf("expected ErrNoPublisher, got %v", err)
	}
}

// TestExecutePinAnnouncement covers the pin lifecycle: drafts cannot be
// pinned, published entries can, and both transitions refuse repeats.
func TestExecutePinAnnouncement(t *testing.T) {
	deps := createAnnouncementFixture()
	store := deps.AnnouncementStore.(*mockAnnouncementStore)
	store.announcements["ann-1"] = draftAnnouncement("ann-1", "club-1", announcement.AudienceClub)

	if _, err := ExecutePinAnnouncement(context.Background(), PinAnnouncementInput{AnnouncementID: "ann-1"}, deps); !errors.Is(err, ErrPinDraft) {
		t.Fatalf("expected ErrPinDraft, got %v", err)
	}

	a := store.announcements["ann-1"]
	if err := a.Publish("acc-admin", fixedTime); err != nil {
		t.Fatalf("publish: %v", err)
	}
	store.announcements["ann-1"] = a

	pinned, err := ExecutePinAnnouncement(context.Background(), PinAnnouncementInput{AnnouncementID: "ann-1"}, deps)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !pinned.Pinned || pinned.PinnedAt.IsZero() {
		t.Error("expected announcement pinned with timestamp")
	}

	if _, err := ExecutePinAnnouncement(context.Background(), PinAnnouncementInput{AnnouncementID: "ann-1"}, deps); !errors.Is(err, announcement.ErrAlreadyPinned) {
		t.Errorf("expected ErrAlreadyPinned, got %v", err)
	}

	unpinned, err := ExecutePinAnnouncement(context.Background(), PinAnnouncementInput{AnnouncementID: "ann-1", Unpin: true}, deps)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if unpinned.Pinned {
		t.Error("expected announcement unpinned")
	}

	if _, err := ExecutePinAnnouncement(context.Background(), PinAnnouncementInput{AnnouncementID: "ann-1", Unpin: true}, deps); !errors.Is(err, announcement.ErrNotPinned) {
		t.Errorf("expected ErrNotPinned, got %v", err)
	}
}
