package projections

import (
	"context"
	"time"

	"clubhouse/internal/adapters/storage/athlete"
	"clubhouse/internal/adapters/storage/membership"
	domainAthlete "clubhouse/internal/domain/athlete"
	domainCoach "clubhouse/internal/domain/coach"
	domainLeave "clubhouse/internal/domain/leaverequest"
	domainMembership "clubhouse/internal/domain/membership"
	domainNotification "clubhouse/internal/domain/notification"
	domainOutbox "clubhouse/internal/domain/outbox"
	domainSession "clubhouse/internal/domain/trainingsession"
)

// DashboardCoachStore resolves the coach record behind an account.
type DashboardCoachStore interface {
	GetByAccountID(ctx context.Context, accountID string) (domainCoach.Coach, error)
}

// DashboardAthleteStore resolves the athlete record behind an account.
type DashboardAthleteStore interface {
	GetByAccountID(ctx context.Context, accountID string) (domainAthlete.Athlete, error)
}

// DashboardOutboxStore surfaces failed deliveries on the admin home.
type DashboardOutboxStore interface {
	ListFailed(ctx context.Context, limit int) ([]domainOutbox.Entry, error)
}

// GetDashboardQuery carries input for the dashboard projection.
type GetDashboardQuery struct {
	Role      string // admin, coach, athlete
	AccountID string // resolves coach/athlete records
}

// GetDashboardDeps holds dependencies for the dashboard projection.
type GetDashboardDeps struct {
	SessionsDeps      GetSessionsDeps
	ProfileDeps       GetAthleteProfileDeps
	NotificationStore NotificationStore
	ApplicationStore  ApplicationStore
	AthleteStore      AthleteStore
	ClubStore         ClubStore
	LeaveStore        LeaveStore
	CoachLookup       DashboardCoachStore   // coach role only
	AthleteLookup     DashboardAthleteStore // athlete role only
	OutboxStore       DashboardOutboxStore  // optional: nil skips failed count
	Location          *time.Location
}

// DashboardResult carries the output of the dashboard projection.
type DashboardResult struct {
	Role           string
	TodaysSessions []SessionWithCoach
	UnreadCount    int

	// Admin
	ClubCount           int
	ActiveAthletes      int
	PendingApplications int
	FailedOutbox        int

	// Coach
	CoachClubID   string
	PendingLeaves int

	// Athlete
	AthleteID        string
	UpcomingSessions []SessionWithCoach
	RecentAttendance []AttendanceWithSession
}

// QueryGetDashboard aggregates home-screen data based on the viewer's
// role. Individual lookups are best-effort; a failed count leaves its
// zero value rather than blanking the whole dashboard.
func QueryGetDashboard(ctx context.Context, query GetDashboardQuery, deps GetDashboardDeps, now time.Time) (DashboardResult, error) {
	result := DashboardResult{Role: query.Role}

	if query.AccountID != "" {
		if n, err := deps.NotificationStore.CountUnread(ctx, domainNotification.RecipientAccount, query.AccountID); err == nil {
			result.UnreadCount = n
		}
	}

	switch query.Role {
	case "admin":
		if today, err := QueryGetTodaysSessions(ctx, "", now, deps.Location, deps.SessionsDeps); err == nil {
			result.TodaysSessions = today.Sessions
		}
		if clubs, err := deps.ClubStore.List(ctx); err == nil {
			result.ClubCount = len(clubs)
		}
		if n, err := deps.AthleteStore.Count(ctx, athlete.ListFilter{Status: domainAthlete.StatusActive}); err == nil {
			result.ActiveAthletes = n
		}
		if n, err := deps.ApplicationStore.Count(ctx, membership.ListFilter{Status: domainMembership.StatusPending}); err == nil {
			result.PendingApplications = n
		}
		if deps.OutboxStore != nil {
			if failed, err := deps.OutboxStore.ListFailed(ctx, 100); err == nil {
				result.FailedOutbox = len(failed)
			}
		}

	case "coach":
		c, err := deps.CoachLookup.GetByAccountID(ctx, query.AccountID)
		if err != nil {
			return result, nil
		}
		result.CoachClubID = c.ClubID
		if today, err := QueryGetTodaysSessions(ctx, c.ClubID, now, deps.Location, deps.SessionsDeps); err == nil {
			result.TodaysSessions = today.Sessions
			for _, s := range today.Sessions {
				leaves, err := deps.LeaveStore.ListBySessionID(ctx, s.Session.ID)
				if err != nil {
					continue
				}
				for _, lr := range leaves {
					if lr.Status == domainLeave.StatusSubmitted {
						result.PendingLeaves++
					}
				}
			}
		}
		if n, err := deps.ApplicationStore.Count(ctx, membership.ListFilter{ClubID: c.ClubID, Status: domainMembership.StatusPending}); err == nil {
			result.PendingApplications = n
		}

	case "athlete":
		a, err := deps.AthleteLookup.GetByAccountID(ctx, query.AccountID)
		if err != nil {
			return result, nil
		}
		result.AthleteID = a.ID
		if today, err := QueryGetTodaysSessions(ctx, a.ClubID, now, deps.Location, deps.SessionsDeps); err == nil {
			result.TodaysSessions = today.Sessions
		}
		loc := deps.Location
		if loc == nil {
			loc = time.Local
		}
		upcoming, err := QueryGetSessions(ctx, GetSessionsQuery{
			ClubID:   a.ClubID,
			Status:   domainSession.StatusScheduled,
			DateFrom: now.In(loc).AddDate(0, 0, 1).Format("2006-01-02"),
			DateTo:   now.In(loc).AddDate(0, 0, 7).Format("2006-01-02"),
		}, deps.SessionsDeps)
		if err == nil {
			result.UpcomingSessions = upcoming.Sessions
		}
		if profile, err := QueryGetAthleteProfile(ctx, GetAthleteProfileQuery{AthleteID: a.ID, HistoryLimit: 5}, deps.ProfileDeps); err == nil {
			result.RecentAttendance = profile.RecentAttendance
		}
	}

	return result, nil
}
