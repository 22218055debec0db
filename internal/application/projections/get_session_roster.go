package projections

import (
	"context"
	"encoding/csv"
	"errors"
	"io"
	"sort"
	"time"

	domainLeave "clubhouse/internal/domain/leaverequest"
	domainSession "clubhouse/internal/domain/trainingsession"
)

// ErrSessionNotFound is returned when the roster session does not exist.
var ErrSessionNotFound = errors.New("session not found")

// GetSessionRosterQuery carries query parameters.
type GetSessionRosterQuery struct {
	SessionID string
}

// RosterEntry represents one checked-in athlete on the roster.
type RosterEntry struct {
	AttendanceID string
	AthleteID    string
	AthleteName  string
	AthleteEmail string
	CheckedInAt  time.Time
	Method       string
}

// RosterLeave represents one leave request against the session.
type RosterLeave struct {
	LeaveID      string
	AthleteID    string
	AthleteName  string
	Reason       string
	Status       string
	RequestedAt  time.Time
	Acknowledged bool
}

// GetSessionRosterResult carries the query result.
type GetSessionRosterResult struct {
	Session   domainSession.Session
	CoachName string
	ClubName  string
	Entries   []RosterEntry
	Leaves    []RosterLeave
	CheckedIn int
	// FillRate is CheckedIn over Capacity, 0 when capacity is unlimited.
	FillRate float64
}

// GetSessionRosterDeps holds dependencies for GetSessionRoster.
type GetSessionRosterDeps struct {
	SessionStore    SessionStore
	AthleteStore    AthleteStore
	AttendanceStore AttendanceStore
	LeaveStore      LeaveStore
	CoachStore      CoachStore // optional: nil skips coach name
	ClubStore       ClubStore  // optional: nil skips club name
}

// QueryGetSessionRoster retrieves one session's roster: everyone checked
// in, every leave request, and how full the session is.
// PRE: SessionID is non-empty
// POST: Entries ordered by check-in time, leaves by request time
func QueryGetSessionRoster(ctx context.Context, query GetSessionRosterQuery, deps GetSessionRosterDeps) (GetSessionRosterResult, error) {
	s, err := deps.SessionStore.GetByID(ctx, query.SessionID)
	if err != nil {
		return GetSessionRosterResult{}, ErrSessionNotFound
	}

	result := GetSessionRosterResult{Session: s}

	if deps.CoachStore != nil {
		if c, err := deps.CoachStore.GetByID(ctx, s.CoachID); err == nil {
			result.CoachName = c.Name
		}
	}
	if deps.ClubStore != nil {
		if c, err := deps.ClubStore.GetByID(ctx, s.ClubID); err == nil {
			result.ClubName = c.Name
		}
	}

	records, err := deps.AttendanceStore.ListBySessionID(ctx, s.ID)
	if err != nil {
		return GetSessionRosterResult{}, err
	}
	for _, r := range records {
		entry := RosterEntry{
			AttendanceID: r.ID,
			AthleteID:    r.AthleteID,
			CheckedInAt:  r.CheckedInAt,
			Method:       r.Method,
		}
		if a, err := deps.AthleteStore.GetByID(ctx, r.AthleteID); err == nil {
			entry.AthleteName = a.Name
			entry.AthleteEmail = a.Email
		}
		result.Entries = append(result.Entries, entry)
	}
	sort.Slice(result.Entries, func(i, j int) bool {
		return result.Entries[i].CheckedInAt.Before(result.Entries[j].CheckedInAt)
	})

	leaves, err := deps.LeaveStore.ListBySessionID(ctx, s.ID)
	if err != nil {
		return GetSessionRosterResult{}, err
	}
	for _, lr := range leaves {
		leave := RosterLeave{
			LeaveID:      lr.ID,
			AthleteID:    lr.AthleteID,
			Reason:       lr.Reason,
			Status:       lr.Status,
			RequestedAt:  lr.RequestedAt,
			Acknowledged: lr.Status == domainLeave.StatusAcknowledged,
		}
		if a, err := deps.AthleteStore.GetByID(ctx, lr.AthleteID); err == nil {
			leave.AthleteName = a.Name
		}
		result.Leaves = append(result.Leaves, leave)
	}
	sort.Slice(result.Leaves, func(i, j int) bool {
		return result.Leaves[i].RequestedAt.Before(result.Leaves[j].RequestedAt)
	})

	result.CheckedIn = len(result.Entries)
	if s.Capacity > 0 {
		result.FillRate = float64(result.CheckedIn) / float64(s.Capacity)
	}

	return result, nil
}

// WriteCSV streams the roster as CSV for coach download.
// POST: header row plus one row per checked-in athlete
func (r GetSessionRosterResult) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"name", "email", "checked_in_at", "method"}); err != nil {
		return err
	}
	for _, e := range r.Entries {
		row := []string{e.AthleteName, e.AthleteEmail, e.CheckedInAt.Format("2006-01-02 15:04"), e.Method}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
