package projections

import (
	"context"
	"sort"
	"time"

	"clubhouse/internal/adapters/storage/trainingsession"
	domainSession "clubhouse/internal/domain/trainingsession"
)

// GetSessionsQuery carries query parameters for the session list.
type GetSessionsQuery struct {
	ClubID   string
	CoachID  string
	Status   string
	DateFrom string // inclusive YYYY-MM-DD
	DateTo   string // inclusive YYYY-MM-DD
	Limit    int
	Offset   int
}

// SessionWithCoach represents a session with its coach's display name.
type SessionWithCoach struct {
	Session   domainSession.Session
	CoachName string
	CheckedIn int
}

// GetSessionsResult carries the query result.
type GetSessionsResult struct {
	Sessions []SessionWithCoach
}

// SessionAttendanceCounter counts check-ins per session.
type SessionAttendanceCounter interface {
	CountBySessionID(ctx context.Context, sessionID string) (int, error)
}

// GetSessionsDeps holds dependencies for GetSessions.
type GetSessionsDeps struct {
	SessionStore    SessionStore
	CoachStore      CoachStore
	AttendanceStore SessionAttendanceCounter // optional: nil skips check-in counts
}

// QueryGetSessions retrieves sessions in a date range with coach names.
// PRE: DateFrom/DateTo, when set, are YYYY-MM-DD
// POST: Returns sessions ordered by date then start time
func QueryGetSessions(ctx context.Context, query GetSessionsQuery, deps GetSessionsDeps) (GetSessionsResult, error) {
	sessions, err := deps.SessionStore.List(ctx, trainingsession.ListFilter{
		ClubID:   query.ClubID,
		CoachID:  query.CoachID,
		Status:   query.Status,
		DateFrom: query.DateFrom,
		DateTo:   query.DateTo,
		Limit:    query.Limit,
		Offset:   query.Offset,
	})
	if err != nil {
		return GetSessionsResult{}, err
	}

	sort.Slice(sessions, func(i, j int) bool {
		if sessions[i].Date != sessions[j].Date {
			return sessions[i].Date < sessions[j].Date
		}
		return sessions[i].StartTime < sessions[j].StartTime
	})

	coachNames := make(map[string]string)
	var result []SessionWithCoach
	for _, s := range sessions {
		swc := SessionWithCoach{Session: s}

		if name, ok := coachNames[s.CoachID]; ok {
			swc.CoachName = name
		} else if c, err := deps.CoachStore.GetByID(ctx, s.CoachID); err == nil {
			coachNames[s.CoachID] = c.Name
			swc.CoachName = c.Name
		}

		if deps.AttendanceStore != nil {
			if n, err := deps.AttendanceStore.CountBySessionID(ctx, s.ID); err == nil {
				swc.CheckedIn = n
			}
		}

		result = append(result, swc)
	}

	return GetSessionsResult{Sessions: result}, nil
}

// QueryGetTodaysSessions retrieves the sessions scheduled for today in
// the given timezone, across all clubs when ClubID is empty.
// POST: Returns today's scheduled sessions ordered by start time
func QueryGetTodaysSessions(ctx context.Context, clubID string, now time.Time, loc *time.Location, deps GetSessionsDeps) (GetSessionsResult, error) {
	if loc == nil {
		loc = time.Local
	}
	today := now.In(loc).Format("2006-01-02")
	return QueryGetSessions(ctx, GetSessionsQuery{
		ClubID:   clubID,
		Status:   domainSession.StatusScheduled,
		DateFrom: today,
		DateTo:   today,
	}, deps)
}
