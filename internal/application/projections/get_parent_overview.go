package projections

import (
	"context"
	"errors"
	"sort"
	"time"

	domainAnnouncement "clubhouse/internal/domain/announcement"
	domainAthlete "clubhouse/internal/domain/athlete"
	domainParent "clubhouse/internal/domain/parent"
	domainSession "clubhouse/internal/domain/trainingsession"
)

// ErrNoLinkedAthletes is returned when the parent has no connections.
var ErrNoLinkedAthletes = errors.New("no athletes are linked to this parent")

// parentUpcomingWindow is how far ahead the portal lists sessions.
const parentUpcomingWindow = 7 * 24 * time.Hour

// ParentConnectionStore lists a parent's athlete links.
type ParentConnectionStore interface {
	ListByParentID(ctx context.Context, parentID string) ([]domainParent.Connection, error)
}

// GetParentOverviewQuery carries query parameters.
type GetParentOverviewQuery struct {
	ParentID string
}

// ParentAthleteView represents one linked athlete on the portal.
type ParentAthleteView struct {
	Athlete          domainAthlete.Athlete
	ClubName         string
	Relationship     string
	RecentAttendance []AttendanceWithSession
	PendingLeaves    []LeaveWithSession
}

// GetParentOverviewResult carries the query result.
type GetParentOverviewResult struct {
	Athletes         []ParentAthleteView
	UpcomingSessions []SessionWithCoach
	Announcements    []domainAnnouncement.Announcement
}

// GetParentOverviewDeps holds dependencies for GetParentOverview.
type GetParentOverviewDeps struct {
	ConnectionStore   ParentConnectionStore
	AthleteStore      AthleteStore
	AttendanceStore   AttendanceStore
	LeaveStore        LeaveStore
	SessionStore      SessionStore
	CoachStore        CoachStore
	ClubStore         ClubStore
	AnnouncementStore AnnouncementListStore
}

// QueryGetParentOverview assembles the read-only parent portal: linked
// athletes with recent attendance and pending leaves, the week's
// upcoming sessions in their clubs, and parent-visible announcements.
// PRE: ParentID refers to an authenticated parent user
// POST: athletes appear in link order; sessions ordered by date
func QueryGetParentOverview(ctx context.Context, query GetParentOverviewQuery, now time.Time, loc *time.Location, deps GetParentOverviewDeps) (GetParentOverviewResult, error) {
	connections, err := deps.ConnectionStore.ListByParentID(ctx, query.ParentID)
	if err != nil {
		return GetParentOverviewResult{}, err
	}
	if len(connections) == 0 {
		return GetParentOverviewResult{}, ErrNoLinkedAthletes
	}
	sort.Slice(connections, func(i, j int) bool {
		return connections[i].CreatedAt.Before(connections[j].CreatedAt)
	})

	if loc == nil {
		loc = time.Local
	}

	profileDeps := GetAthleteProfileDeps{
		AthleteStore:    deps.AthleteStore,
		AttendanceStore: deps.AttendanceStore,
		LeaveStore:      deps.LeaveStore,
		SessionStore:    deps.SessionStore,
		ClubStore:       deps.ClubStore,
	}

	var result GetParentOverviewResult
	clubIDs := make(map[string]bool)
	for _, conn := range connections {
		profile, err := QueryGetAthleteProfile(ctx, GetAthleteProfileQuery{AthleteID: conn.AthleteID, HistoryLimit: 5}, profileDeps)
		if err != nil {
			continue // stale link, athlete removed
		}
		result.Athletes = append(result.Athletes, ParentAthleteView{
			Athlete:          profile.Athlete,
			ClubName:         profile.ClubName,
			Relationship:     conn.Relationship,
			RecentAttendance: profile.RecentAttendance,
			PendingLeaves:    profile.PendingLeaves,
		})
		if profile.Athlete.Status == domainAthlete.StatusActive {
			clubIDs[profile.Athlete.ClubID] = true
		}
	}

	sessionDeps := GetSessionsDeps{SessionStore: deps.SessionStore, CoachStore: deps.CoachStore}
	today := now.In(loc).Format("2006-01-02")
	horizon := now.Add(parentUpcomingWindow).In(loc).Format("2006-01-02")
	for clubID := range clubIDs {
		sessions, err := QueryGetSessions(ctx, GetSessionsQuery{
			ClubID:   clubID,
			Status:   domainSession.StatusScheduled,
			DateFrom: today,
			DateTo:   horizon,
		}, sessionDeps)
		if err != nil {
			continue
		}
		result.UpcomingSessions = append(result.UpcomingSessions, sessions.Sessions...)
	}
	sort.Slice(result.UpcomingSessions, func(i, j int) bool {
		a, b := result.UpcomingSessions[i].Session, result.UpcomingSessions[j].Session
		if a.Date != b.Date {
			return a.Date < b.Date
		}
		return a.StartTime < b.StartTime
	})

	seen := make(map[string]bool)
	for clubID := range clubIDs {
		board, err := QueryGetAnnouncementList(ctx, GetAnnouncementListQuery{
			ClubID:     clubID,
			ViewerRole: "parent",
		}, now, GetAnnouncementListDeps{AnnouncementStore: deps.AnnouncementStore})
		if err != nil {
			continue
		}
		for _, a := range board.Announcements {
			if seen[a.ID] {
				continue
			}
			seen[a.ID] = true
			result.Announcements = append(result.Announcements, a)
		}
	}
	sort.SliceStable(result.Announcements, func(i, j int) bool {
		if result.Announcements[i].Pinned != result.Announcements[j].Pinned {
			return result.Announcements[i].Pinned
		}
		return result.Announcements[i].PublishedAt.After(result.Announcements[j].PublishedAt)
	})

	return result, nil
}
