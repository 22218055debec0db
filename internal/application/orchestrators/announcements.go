package orchestrators

import (
	"context"
	"errors"
	"fmt"
	"html"
	"log/slog"
	"strings"
	"time"

	"clubhouse/internal/domain/announcement"
	"clubhouse/internal/domain/athlete"
	"clubhouse/internal/domain/club"
	"clubhouse/internal/domain/featureflag"
	"clubhouse/internal/domain/notification"
	"clubhouse/internal/domain/outbox"
	"clubhouse/internal/domain/parent"

	athleteStore "clubhouse/internal/adapters/storage/athlete"
)

// ErrPinDraft is returned when pinning an announcement that has not
// been published.
var ErrPinDraft = errors.New("only published announcements can be pinned")

// AnnouncementStoreForOrchestrator is the announcement access the
// noticeboard orchestrators need.
type AnnouncementStoreForOrchestrator interface {
	GetByID(ctx context.Context, id string) (announcement.Announcement, error)
	Save(ctx context.Context, value announcement.Announcement) error
}

// AthleteListStore lists a club's athletes for audience fan-out.
type AthleteListStore interface {
	List(ctx context.Context, filter athleteStore.ListFilter) ([]athlete.Athlete, error)
}

// ClubStoreForAnnouncements resolves announcement scope: one club, or
// every club when the announcement is unscoped.
type ClubStoreForAnnouncements interface {
	GetByID(ctx context.Context, id string) (club.Club, error)
	List(ctx context.Context) ([]club.Club, error)
}

// ConnectionListStore lists parent links for one athlete.
type ConnectionListStore interface {
	ListByAthleteID(ctx context.Context, athleteID string) ([]parent.Connection, error)
}

// ParentLookupStore resolves parent users for audience fan-out.
type ParentLookupStore interface {
	GetByID(ctx context.Context, id string) (parent.User, error)
}

// FlagStoreForPublish resolves the email broadcast flag.
type FlagStoreForPublish interface {
	GetByKey(ctx context.Context, key string) (featureflag.FeatureFlag, error)
}

// CreateAnnouncementInput carries input for the create-announcement
// orchestrator.
type CreateAnnouncementInput struct {
	// ClubID scopes the announcement to one club. Empty targets all clubs.
	ClubID       string
	Audience     string
	Title        string
	Body         string
	Color        string
	ShowAuthor   bool
	VisibleFrom  time.Time
	VisibleUntil time.Time
	CreatedBy    string
	AuthorName   string
}

// CreateAnnouncementDeps holds dependencies for CreateAnnouncement.
type CreateAnnouncementDeps struct {
	AnnouncementStore AnnouncementStoreForOrchestrator
	ClubStore         ClubStoreForAnnouncements
	GenerateID        func() string
	Now               func() time.Time
}

// ExecuteCreateAnnouncement drafts a noticeboard entry. Drafts are
// invisible to athletes and parents until published.
// PRE: ClubID, when set, refers to an existing club
// POST: a draft announcement is persisted
func ExecuteCreateAnnouncement(ctx context.Context, input CreateAnnouncementInput, deps CreateAnnouncementDeps) (announcement.Announcement, error) {
	if input.CreatedBy == "" {
		return announcement.Announcement{}, errors.New("author account ID is required")
	}
	if input.ClubID != "" {
		if _, err := deps.ClubStore.GetByID(ctx, input.ClubID); err != nil {
			return announcement.Announcement{}, errors.New("club not found")
		}
	}

	now := deps.Now()
	a := announcement.Announcement{
		ID:           deps.GenerateID(),
		ClubID:       input.ClubID,
		Audience:     input.Audience,
		Status:       announcement.StatusDraft,
		Title:        input.Title,
		Body:         input.Body,
		Color:        input.Color,
		ShowAuthor:   input.ShowAuthor,
		VisibleFrom:  input.VisibleFrom,
		VisibleUntil: input.VisibleUntil,
		CreatedBy:    input.CreatedBy,
		AuthorName:   input.AuthorName,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := a.Validate(); err != nil {
		return announcement.Announcement{}, err
	}
	if err := deps.AnnouncementStore.Save(ctx, a); err != nil {
		return announcement.Announcement{}, err
	}

	slog.Info("announcement_event", "event", "announcement_drafted", "announcement_id", a.ID, "club_id", a.ClubID, "audience", a.Audience)
	return a, nil
}

// EditAnnouncementInput carries input for the edit-announcement
// orchestrator. Blank strings leave the current value; ShowAuthor and
// the visibility window are always overwritten. Club scope is fixed at
// creation.
type EditAnnouncementInput struct {
	AnnouncementID string
	Audience       string
	Title          string
	Body           string
	Color          string
	ShowAuthor     bool
	VisibleFrom    time.Time
	VisibleUntil   time.Time
}

// ExecuteEditAnnouncement updates a noticeboard entry. Editing never
// re-notifies anyone; publication fan-out happens once.
// PRE: AnnouncementID refers to an existing announcement
// POST: announcement is updated with UpdatedAt refreshed
func ExecuteEditAnnouncement(ctx context.Context, input EditAnnouncementInput, deps CreateAnnouncementDeps) (announcement.Announcement, error) {
	if input.AnnouncementID == "" {
		return announcement.Announcement{}, errors.New("announcement ID is required")
	}

	a, err := deps.AnnouncementStore.GetByID(ctx, input.AnnouncementID)
	if err != nil {
		return announcement.Announcement{}, errors.New("announcement not found")
	}

	if input.Title != "" {
		a.Title = input.Title
	}
	if input.Body != "" {
		a.Body = input.Body
	}
	if input.Audience != "" {
		a.Audience = input.Audience
	}
	if input.Color != "" {
		a.Color = input.Color
	}
	a.ShowAuthor = input.ShowAuthor
	a.VisibleFrom = input.VisibleFrom
	a.VisibleUntil = input.VisibleUntil
	a.UpdatedAt = deps.Now()

	if err := a.Validate(); err != nil {
		return announcement.Announcement{}, err
	}
	if err := deps.AnnouncementStore.Save(ctx, a); err != nil {
		return announcement.Announcement{}, err
	}

	slog.Info("announcement_event", "event", "announcement_updated", "announcement_id", a.ID)
	return a, nil
}

// PublishAnnouncementInput carries input for the publish orchestrator.
type PublishAnnouncementInput struct {
	AnnouncementID string
	PublishedBy    string
}

// PublishAnnouncementDeps holds dependencies for PublishAnnouncement.
type PublishAnnouncementDeps struct {
	AnnouncementStore AnnouncementStoreForOrchestrator
	ClubStore         ClubStoreForAnnouncements
	AthleteStore      AthleteListStore
	CoachStore        CoachListStore
	ConnectionStore   ConnectionListStore
	ParentStore       ParentLookupStore
	NotificationStore NotificationSaver
	OutboxStore       OutboxEnqueuer
	FlagStore         FlagStoreForPublish
	GenerateID        func() string
	Now               func() time.Time
}

// announcementRecipient is one resolved member of an announcement's
// audience.
type announcementRecipient struct {
	kind  string // notification recipient kind
	id    string // account or parent-user ID; empty means in-app skip
	email string
	name  string
}

// ExecutePublishAnnouncement makes a draft visible and fans out the
// news: every matching audience member gets an in-app notification,
// and, when the email broadcast flag is on, a queued email.
//
// Fan-out is best-effort. The publish itself is committed first and
// stands even if a recipient lookup fails.
//
// PRE: AnnouncementID refers to a draft
// POST: Status is published; notifications and outbox entries written
func ExecutePublishAnnouncement(ctx context.Context, input PublishAnnouncementInput, deps PublishAnnouncementDeps) (announcement.Announcement, error) {
	if input.AnnouncementID == "" {
		return announcement.Announcement{}, errors.New("announcement ID is required")
	}

	a, err := deps.AnnouncementStore.GetByID(ctx, input.AnnouncementID)
	if err != nil {
		return announcement.Announcement{}, errors.New("announcement not found")
	}

	now := deps.Now()
	if err := a.Publish(input.PublishedBy, now); err != nil {
		return announcement.Announcement{}, err
	}
	if err := deps.AnnouncementStore.Save(ctx, a); err != nil {
		return announcement.Announcement{}, err
	}

	recipients := resolveAudience(ctx, deps, a)

	inApp := 0
	for _, r := range recipients {
		if r.id == "" {
			continue
		}
		n := notification.Notification{
			ID:            deps.GenerateID(),
			RecipientKind: r.kind,
			RecipientID:   r.id,
			Kind:          notification.KindAnnouncement,
			Title:         "New announcement: " + a.Title,
			Body:          announcementExcerpt(a.Body),
			SubjectID:     a.ID,
			CreatedAt:     now,
		}
		if err := notify(ctx, deps.NotificationStore, n); err != nil {
			slog.Warn("announcement_notify_failed", "announcement_id", a.ID, "recipient_id", r.id, "error", err)
			continue
		}
		inApp++
	}

	emailed := 0
	if broadcastEnabled(ctx, deps.FlagStore) {
		for _, r := range recipients {
			if r.email == "" {
				continue
			}
			payload := outbox.EmailPayload{
				To:      []string{r.email},
				Subject: a.Title,
				HTML: fmt.Sprintf("<p>Kia ora %s,</p><p>A new announcement has been published.</p><h2>%s</h2><p>%s</p>",
					html.EscapeString(r.name), html.EscapeString(a.Title), html.EscapeString(a.Body)),
			}
			if err := enqueueEmail(ctx, deps.OutboxStore, deps.GenerateID(), now, payload); err != nil {
				slog.Warn("announcement_email_failed", "announcement_id", a.ID, "recipient", r.email, "error", err)
				continue
			}
			emailed++
		}
	}

	slog.Info("announcement_event", "event", "announcement_published", "announcement_id", a.ID, "published_by", input.PublishedBy, "notified", inApp, "emailed", emailed)
	return a, nil
}

// resolveAudience walks the announcement's scope and collects everyone
// it addresses, deduplicated across clubs. Lookup failures are logged
// and the remaining audience still resolves.
func resolveAudience(ctx context.Context, deps PublishAnnouncementDeps, a announcement.Announcement) []announcementRecipient {
	var clubs []club.Club
	if a.ClubID != "" {
		c, err := deps.ClubStore.GetByID(ctx, a.ClubID)
		if err != nil {
			slog.Warn("announcement_fanout_failed", "announcement_id", a.ID, "club_id", a.ClubID, "error", err)
			return nil
		}
		clubs = []club.Club{c}
	} else {
		all, err := deps.ClubStore.List(ctx)
		if err != nil {
			slog.Warn("announcement_fanout_failed", "announcement_id", a.ID, "error", err)
			return nil
		}
		clubs = all
	}

	wantAthletes := a.Audience == announcement.AudienceClub || a.Audience == announcement.AudienceAthletes
	wantCoaches := a.Audience == announcement.AudienceClub || a.Audience == announcement.AudienceCoaches
	wantParents := a.Audience == announcement.AudienceClub || a.Audience == announcement.AudienceParents

	seenRecipient := make(map[string]bool)
	seenEmail := make(map[string]bool)
	var out []announcementRecipient

	add := func(r announcementRecipient) {
		key := r.kind + ":" + r.id
		if r.id != "" && seenRecipient[key] {
			r.id = ""
		} else if r.id != "" {
			seenRecipient[key] = true
		}
		emailKey := strings.ToLower(r.email)
		if r.email != "" && seenEmail[emailKey] {
			r.email = ""
		} else if r.email != "" {
			seenEmail[emailKey] = true
		}
		if r.id == "" && r.email == "" {
			return
		}
		out = append(out, r)
	}

	for _, c := range clubs {
		if wantAthletes || wantParents {
			athletes, err := deps.AthleteStore.List(ctx, athleteStore.ListFilter{ClubID: c.ID, Status: athlete.StatusActive})
			if err != nil {
				slog.Warn("announcement_fanout_failed", "announcement_id", a.ID, "club_id", c.ID, "error", err)
				continue
			}
			for _, ath := range athletes {
				if wantAthletes {
					add(announcementRecipient{kind: notification.RecipientAccount, id: ath.AccountID, email: ath.Email, name: ath.Name})
				}
				if wantParents {
					for _, p := range athleteParents(ctx, deps, ath.ID) {
						add(announcementRecipient{kind: notification.RecipientParent, id: p.ID, email: p.Email, name: p.Name})
					}
				}
			}
		}
		if wantCoaches {
			coaches, err := deps.CoachStore.ListByClubID(ctx, c.ID)
			if err != nil {
				slog.Warn("announcement_fanout_failed", "announcement_id", a.ID, "club_id", c.ID, "error", err)
				continue
			}
			for _, co := range coaches {
				if co.IsArchived() {
					continue
				}
				add(announcementRecipient{kind: notification.RecipientAccount, id: co.AccountID, email: co.Email, name: co.Name})
			}
		}
	}

	return out
}

// athleteParents resolves the parent users linked to one athlete.
func athleteParents(ctx context.Context, deps PublishAnnouncementDeps, athleteID string) []parent.User {
	connections, err := deps.ConnectionStore.ListByAthleteID(ctx, athleteID)
	if err != nil {
		slog.Warn("announcement_fanout_failed", "athlete_id", athleteID, "error", err)
		return nil
	}
	var parents []parent.User
	for _, conn := range connections {
		p, err := deps.ParentStore.GetByID(ctx, conn.ParentID)
		if err != nil {
			slog.Warn("announcement_fanout_failed", "parent_id", conn.ParentID, "error", err)
			continue
		}
		parents = append(parents, p)
	}
	return parents
}

// broadcastEnabled reports whether published announcements also go out
// by email. Off by default; a missing flag means off.
func broadcastEnabled(ctx context.Context, store FlagStoreForPublish) bool {
	flag, err := store.GetByKey(ctx, featureflag.KeyEmailBroadcast)
	if err != nil {
		return false
	}
	return flag.Enabled
}

// announcementExcerpt trims a Markdown body down to notification size.
func announcementExcerpt(body string) string {
	const maxExcerpt = 200
	body = strings.TrimSpace(body)
	runes := []rune(body)
	if len(runes) <= maxExcerpt {
		return body
	}
	return string(runes[:maxExcerpt]) + "…"
}

// PinAnnouncementInput carries input for the pin/unpin orchestrator.
type PinAnnouncementInput struct {
	AnnouncementID string
	// Unpin reverses the operation.
	Unpin bool
}

// ExecutePinAnnouncement pins a published announcement to the top of
// the noticeboard, or unpins it.
// PRE: AnnouncementID refers to a published announcement
// POST: Pinned reflects the request
func ExecutePinAnnouncement(ctx context.Context, input PinAnnouncementInput, deps CreateAnnouncementDeps) (announcement.Announcement, error) {
	if input.AnnouncementID == "" {
		return announcement.Announcement{}, errors.New("announcement ID is required")
	}

	a, err := deps.AnnouncementStore.GetByID(ctx, input.AnnouncementID)
	if err != nil {
		return announcement.Announcement{}, errors.New("announcement not found")
	}

	if input.Unpin {
		if err := a.Unpin(); err != nil {
			return announcement.Announcement{}, err
		}
	} else {
		if !a.IsPublished() {
			return announcement.Announcement{}, ErrPinDraft
		}
		if err := a.Pin(deps.Now()); err != nil {
			return announcement.Announcement{}, err
		}
	}
	a.UpdatedAt = deps.Now()

	if err := deps.AnnouncementStore.Save(ctx, a); err != nil {
		return announcement.Announcement{}, err
	}

	event := "announcement_pinned"
	if input.Unpin {
		event = "announcement_unpinned"
	}
	slog.Info("announcement_event", "event", event, "announcement_id", a.ID)
	return a, nil
}
