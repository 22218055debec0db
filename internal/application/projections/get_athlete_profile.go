package projections

import (
	"context"
	"errors"
	"time"

	domainAthlete "clubhouse/internal/domain/athlete"
	domainLeave "clubhouse/internal/domain/leaverequest"
)

// ErrAthleteNotFound is returned when the profile athlete does not exist.
var ErrAthleteNotFound = errors.New("athlete not found")

// defaultHistoryLimit bounds the recent attendance list on a profile.
const defaultHistoryLimit = 10

// GetAthleteProfileQuery carries query parameters.
type GetAthleteProfileQuery struct {
	AthleteID string
	// HistoryLimit caps recent attendance entries; 0 uses the default.
	HistoryLimit int
}

// AttendanceWithSession represents one past check-in with its session.
type AttendanceWithSession struct {
	AttendanceID string
	SessionID    string
	SessionTitle string
	SessionDate  string
	CheckedInAt  time.Time
	Method       string
}

// LeaveWithSession represents one leave request with its session.
type LeaveWithSession struct {
	LeaveID      string
	SessionID    string
	SessionTitle string
	SessionDate  string
	Reason       string
	Status       string
	RequestedAt  time.Time
}

// GetAthleteProfileResult carries the query result.
type GetAthleteProfileResult struct {
	Athlete          domainAthlete.Athlete
	ClubName         string
	RecentAttendance []AttendanceWithSession
	PendingLeaves    []LeaveWithSession
}

// GetAthleteProfileDeps holds dependencies for GetAthleteProfile.
type GetAthleteProfileDeps struct {
	AthleteStore    AthleteStore
	AttendanceStore AttendanceStore
	LeaveStore      LeaveStore
	SessionStore    SessionStore
	ClubStore       ClubStore // optional: nil skips club name
}

// QueryGetAthleteProfile retrieves one athlete with their recent
// check-ins and outstanding leave requests.
// PRE: AthleteID is non-empty
// POST: RecentAttendance is newest first as stored
func QueryGetAthleteProfile(ctx context.Context, query GetAthleteProfileQuery, deps GetAthleteProfileDeps) (GetAthleteProfileResult, error) {
	a, err := deps.AthleteStore.GetByID(ctx, query.AthleteID)
	if err != nil {
		return GetAthleteProfileResult{}, ErrAthleteNotFound
	}

	result := GetAthleteProfileResult{Athlete: a}

	if deps.ClubStore != nil {
		if c, err := deps.ClubStore.GetByID(ctx, a.ClubID); err == nil {
			result.ClubName = c.Name
		}
	}

	limit := query.HistoryLimit
	if limit <= 0 {
		limit = defaultHistoryLimit
	}

	sessionTitles := make(map[string][2]string) // id -> (title, date)
	lookupSession := func(id string) (string, string) {
		if cached, ok := sessionTitles[id]; ok {
			return cached[0], cached[1]
		}
		s, err := deps.SessionStore.GetByID(ctx, id)
		if err != nil {
			sessionTitles[id] = [2]string{"", ""}
			return "", ""
		}
		sessionTitles[id] = [2]string{s.Title, s.Date}
		return s.Title, s.Date
	}

	records, err := deps.AttendanceStore.ListByAthleteID(ctx, a.ID, limit)
	if err != nil {
		return GetAthleteProfileResult{}, err
	}
	for _, r := range records {
		title, date := lookupSession(r.SessionID)
		result.RecentAttendance = append(result.RecentAttendance, AttendanceWithSession{
			AttendanceID: r.ID,
			SessionID:    r.SessionID,
			SessionTitle: title,
			SessionDate:  date,
			CheckedInAt:  r.CheckedInAt,
			Method:       r.Method,
		})
	}

	leaves, err := deps.LeaveStore.ListByAthleteID(ctx, a.ID, limit)
	if err != nil {
		return GetAthleteProfileResult{}, err
	}
	for _, lr := range leaves {
		if lr.Status != domainLeave.StatusSubmitted {
			continue
		}
		title, date := lookupSession(lr.SessionID)
		result.PendingLeaves = append(result.PendingLeaves, LeaveWithSession{
			LeaveID:      lr.ID,
			SessionID:    lr.SessionID,
			SessionTitle: title,
			SessionDate:  date,
			Reason:       lr.Reason,
			Status:       lr.Status,
			RequestedAt:  lr.RequestedAt,
		})
	}

	return result, nil
}
