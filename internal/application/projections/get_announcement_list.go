package projections

import (
	"context"
	"sort"
	"time"

	announcementStore "clubhouse/internal/adapters/storage/announcement"
	domainAnnouncement "clubhouse/internal/domain/announcement"
)

// AnnouncementListStore defines the announcement store interface needed
// by the noticeboard projection.
type AnnouncementListStore interface {
	List(ctx context.Context, filter announcementStore.ListFilter) ([]domainAnnouncement.Announcement, error)
	ListPublished(ctx context.Context, clubID string, audiences []string, now time.Time) ([]domainAnnouncement.Announcement, error)
}

// GetAnnouncementListQuery carries query parameters.
type GetAnnouncementListQuery struct {
	// ClubID scopes the board to one club plus all-clubs announcements.
	ClubID string
	// ViewerRole selects which audiences the viewer sees: admin, coach,
	// athlete, or parent.
	ViewerRole string
	// IncludeDrafts adds unpublished entries for the staff editing view.
	IncludeDrafts bool
}

// GetAnnouncementListResult carries the query result.
type GetAnnouncementListResult struct {
	Announcements []domainAnnouncement.Announcement
}

// GetAnnouncementListDeps holds dependencies for GetAnnouncementList.
type GetAnnouncementListDeps struct {
	AnnouncementStore AnnouncementListStore
}

// audiencesForRole maps a viewer role to the announcement audiences it
// may read. Whole-club announcements reach every role.
func audiencesForRole(role string) []string {
	switch role {
	case "coach":
		return []string{domainAnnouncement.AudienceClub, domainAnnouncement.AudienceCoaches}
	case "athlete":
		return []string{domainAnnouncement.AudienceClub, domainAnnouncement.AudienceAthletes}
	case "parent":
		return []string{domainAnnouncement.AudienceClub, domainAnnouncement.AudienceParents}
	default:
		return domainAnnouncement.ValidAudiences
	}
}

// QueryGetAnnouncementList retrieves the noticeboard for one viewer:
// published announcements inside their visibility window, audience
// filtered by role, pinned entries first.
// POST: pinned first, then newest publication first; drafts, when
// included, sort by last update
func QueryGetAnnouncementList(ctx context.Context, query GetAnnouncementListQuery, now time.Time, deps GetAnnouncementListDeps) (GetAnnouncementListResult, error) {
	audiences := audiencesForRole(query.ViewerRole)

	items, err := deps.AnnouncementStore.ListPublished(ctx, query.ClubID, audiences, now)
	if err != nil {
		return GetAnnouncementListResult{}, err
	}

	if query.IncludeDrafts {
		drafts, err := deps.AnnouncementStore.List(ctx, announcementStore.ListFilter{
			ClubID: query.ClubID,
			Status: domainAnnouncement.StatusDraft,
		})
		if err != nil {
			return GetAnnouncementListResult{}, err
		}
		items = append(items, drafts...)
	}

	sort.SliceStable(items, func(i, j int) bool {
		if items[i].Pinned != items[j].Pinned {
			return items[i].Pinned
		}
		return sortKey(items[i]).After(sortKey(items[j]))
	})

	return GetAnnouncementListResult{Announcements: items}, nil
}

// sortKey picks the timestamp an announcement sorts by: publication
// time, or last update for drafts.
func sortKey(a domainAnnouncement.Announcement) time.Time {
	if a.IsPublished() {
		return a.PublishedAt
	}
	return a.UpdatedAt
}
